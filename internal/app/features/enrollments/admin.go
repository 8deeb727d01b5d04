// internal/app/features/enrollments/admin.go
package enrollments

import (
	"context"
	"errors"
	"net/http"

	"github.com/coursebridge/coursebridge/internal/app/system/apperr"
	"github.com/coursebridge/coursebridge/internal/app/system/auth"
	"github.com/coursebridge/coursebridge/internal/app/system/httpjson"
	"github.com/coursebridge/coursebridge/internal/app/system/timeouts"
	"github.com/coursebridge/coursebridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleEnroll enrolls a learner into a published course.
//
// Route: POST /enrollments/admin
func (h *Handler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req enrollRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	learnerID, err := primitive.ObjectIDFromHex(req.LearnerID)
	if err != nil {
		httpjson.Fail(w, h.Log, apperr.Validation("invalid learner_id"))
		return
	}
	courseID, err := primitive.ObjectIDFromHex(req.CourseID)
	if err != nil {
		httpjson.Fail(w, h.Log, apperr.Validation("invalid course_id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	learner, err := h.Users.GetByID(ctx, learnerID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Fail(w, h.Log, apperr.NotFound("learner not found"))
		return
	}
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	if learner.Role != models.RoleLearner {
		httpjson.Fail(w, h.Log, apperr.Validation("user is not a learner"))
		return
	}

	course, err := h.Courses.GetActive(ctx, courseID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	if course.Status != models.CourseStatusPublished {
		httpjson.Fail(w, h.Log, apperr.Validation("course is not published"))
		return
	}

	enr, err := h.Enrollments.Create(ctx, learnerID, courseID, u.ID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	h.Log.Info("learner enrolled",
		zap.String("enrollment_id", enr.ID.Hex()),
		zap.String("learner_id", learnerID.Hex()),
		zap.String("course_id", courseID.Hex()))
	httpjson.Created(w, enr)
}

// HandleRemove deletes an enrollment along with its progress record.
//
// Route: DELETE /enrollments/admin/{enrollmentID}
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	enrollmentID, err := paramID(r, "enrollmentID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	if err := h.Enrollments.Delete(ctx, enrollmentID); err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	h.Log.Info("enrollment removed", zap.String("enrollment_id", enrollmentID.Hex()))
	httpjson.OKMessage(w, "enrollment removed", nil)
}

// ServeByCourse lists a course's enrollments with learner details.
//
// Route: GET /enrollments/admin/course/{courseID}
func (h *Handler) ServeByCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := paramID(r, "courseID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	course, err := h.Courses.Get(ctx, courseID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	list, err := h.Enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	learnerIDs := make([]primitive.ObjectID, 0, len(list))
	for _, e := range list {
		learnerIDs = append(learnerIDs, e.LearnerID)
	}
	users, err := h.Users.GetByIDs(ctx, learnerIDs)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	views := make([]enrollmentView, 0, len(list))
	for _, e := range list {
		v := enrollmentView{Enrollment: e, CourseTitle: course.Title}
		if u, ok := users[e.LearnerID]; ok {
			v.LearnerName = u.FullName
			v.LearnerEmail = u.Email
		}
		views = append(views, v)
	}
	httpjson.List(w, len(views), views)
}

// ServeAll lists every enrollment with learner and course details.
//
// Route: GET /enrollments/admin
func (h *Handler) ServeAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	list, err := h.Enrollments.ListAll(ctx)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	learnerIDs := make([]primitive.ObjectID, 0, len(list))
	courseIDs := make([]primitive.ObjectID, 0, len(list))
	for _, e := range list {
		learnerIDs = append(learnerIDs, e.LearnerID)
		courseIDs = append(courseIDs, e.CourseID)
	}

	users, err := h.Users.GetByIDs(ctx, learnerIDs)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	courses, err := h.Courses.GetByIDs(ctx, courseIDs)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	views := make([]enrollmentView, 0, len(list))
	for _, e := range list {
		v := enrollmentView{Enrollment: e}
		if u, ok := users[e.LearnerID]; ok {
			v.LearnerName = u.FullName
			v.LearnerEmail = u.Email
		}
		if c, ok := courses[e.CourseID]; ok {
			v.CourseTitle = c.Title
		}
		views = append(views, v)
	}
	httpjson.List(w, len(views), views)
}
