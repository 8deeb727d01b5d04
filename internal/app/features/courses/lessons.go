// internal/app/features/courses/lessons.go
package courses

import (
	"context"
	"net/http"

	coursestore "github.com/coursebridge/coursebridge/internal/app/store/courses"
	"github.com/coursebridge/coursebridge/internal/app/system/auth"
	"github.com/coursebridge/coursebridge/internal/app/system/httpjson"
	"github.com/coursebridge/coursebridge/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleAddLesson appends a lesson to the end of a module's active
// lessons.
//
// Route: POST /courses/{courseID}/modules/{moduleID}/lessons
func (h *Handler) HandleAddLesson(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, err := paramID(r, "courseID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	moduleID, err := paramID(r, "moduleID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	var req addLessonRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	course, err := h.Courses.AddLesson(ctx, courseID, u.ID, moduleID, req.Title, req.ContentType, req.ContentURL)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	h.Log.Info("lesson added",
		zap.String("course_id", courseID.Hex()),
		zap.String("module_id", moduleID.Hex()),
		zap.String("title", req.Title))
	httpjson.Created(w, course)
}

// HandleUpdateLesson applies a partial update to an active lesson.
//
// Route: PUT /courses/{courseID}/modules/{moduleID}/lessons/{lessonID}
func (h *Handler) HandleUpdateLesson(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, moduleID, lessonID, err := lessonPath(r)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	var req updateLessonRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	course, err := h.Courses.UpdateLesson(ctx, courseID, u.ID, moduleID, lessonID, coursestore.LessonUpdate{
		Title:       req.Title,
		ContentType: req.ContentType,
		ContentURL:  req.ContentURL,
		Order:       req.Order,
	})
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	httpjson.OK(w, course)
}

// HandleSoftDeleteLesson hides a lesson from learners. Completion
// records that reference it are left alone and simply stop counting.
//
// Route: DELETE /courses/{courseID}/modules/{moduleID}/lessons/{lessonID}
func (h *Handler) HandleSoftDeleteLesson(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, moduleID, lessonID, err := lessonPath(r)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	course, err := h.Courses.SoftDeleteLesson(ctx, courseID, u.ID, moduleID, lessonID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	h.Log.Info("lesson deleted",
		zap.String("course_id", courseID.Hex()),
		zap.String("lesson_id", lessonID.Hex()))
	httpjson.OKMessage(w, "lesson deleted", course)
}

// HandleRestoreLesson undeletes a lesson within an active module.
//
// Route: PATCH /courses/{courseID}/modules/{moduleID}/lessons/{lessonID}/restore
func (h *Handler) HandleRestoreLesson(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, moduleID, lessonID, err := lessonPath(r)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	course, err := h.Courses.RestoreLesson(ctx, courseID, u.ID, moduleID, lessonID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	httpjson.OKMessage(w, "lesson restored", course)
}
