// internal/app/features/courses/courses.go
package courses

import (
	"context"
	"net/http"

	coursestore "github.com/coursebridge/coursebridge/internal/app/store/courses"
	"github.com/coursebridge/coursebridge/internal/app/system/auth"
	"github.com/coursebridge/coursebridge/internal/app/system/httpjson"
	"github.com/coursebridge/coursebridge/internal/app/system/timeouts"
	"github.com/coursebridge/coursebridge/internal/domain/models"
	"go.uber.org/zap"
)

// HandleCreate creates a new draft course owned by the calling trainer.
//
// Route: POST /courses
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req createCourseRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	course, err := h.Courses.Create(ctx, req.Title, req.Description, u.ID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	h.Log.Info("course created",
		zap.String("course_id", course.ID.Hex()),
		zap.String("trainer_id", u.ID.Hex()))
	httpjson.Created(w, course)
}

// ServeList lists active courses: trainers see their own, admins see all.
//
// Route: GET /courses
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	var (
		list []models.Course
		err  error
	)
	if u.Role == models.RoleTrainer {
		list, err = h.Courses.ListActiveByTrainer(ctx, u.ID)
	} else {
		list, err = h.Courses.ListActive(ctx)
	}
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	httpjson.List(w, len(list), list)
}

// ServeGet returns a single active course. Trainers only see their own.
//
// Route: GET /courses/{courseID}
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, err := paramID(r, "courseID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	var course models.Course
	if u.Role == models.RoleTrainer {
		course, err = h.Courses.GetActiveOwned(ctx, courseID, u.ID)
	} else {
		course, err = h.Courses.GetActive(ctx, courseID)
	}
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	httpjson.OK(w, course)
}

// HandleUpdate applies a partial update to a course's title/description.
//
// Route: PUT /courses/{courseID}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, err := paramID(r, "courseID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	var req updateCourseRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	course, err := h.Courses.Update(ctx, courseID, u.ID, coursestore.CourseUpdate{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	httpjson.OK(w, course)
}

// HandleTogglePublish flips a course between draft and published.
//
// Route: PATCH /courses/{courseID}/publish
func (h *Handler) HandleTogglePublish(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, err := paramID(r, "courseID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	course, err := h.Courses.TogglePublish(ctx, courseID, u.ID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	h.Log.Info("course publish toggled",
		zap.String("course_id", courseID.Hex()),
		zap.String("status", course.Status))
	httpjson.OK(w, course)
}
