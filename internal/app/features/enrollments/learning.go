// internal/app/features/enrollments/learning.go
package enrollments

import (
	"context"
	"net/http"
	"time"

	"github.com/coursebridge/coursebridge/internal/app/system/apperr"
	"github.com/coursebridge/coursebridge/internal/app/system/auth"
	"github.com/coursebridge/coursebridge/internal/app/system/events"
	"github.com/coursebridge/coursebridge/internal/app/system/httpjson"
	"github.com/coursebridge/coursebridge/internal/app/system/timeouts"
	"github.com/coursebridge/coursebridge/internal/domain/models"
	"github.com/coursebridge/coursebridge/internal/domain/progress"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// applyRetries bounds the recompute/write loop when concurrent lesson
// completions bump the enrollment's progress version between our read
// and our derived-field write.
const applyRetries = 3

// ServeEnrolledCourses lists the courses the caller is enrolled in,
// most recently accessed first.
//
// Route: GET /enrollments/learner/courses
func (h *Handler) ServeEnrolledCourses(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	list, err := h.Enrollments.ListByLearner(ctx, u.ID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	courseIDs := make([]primitive.ObjectID, 0, len(list))
	for _, e := range list {
		courseIDs = append(courseIDs, e.CourseID)
	}
	courses, err := h.Courses.GetByIDs(ctx, courseIDs)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	views := make([]enrolledCourseView, 0, len(list))
	for _, e := range list {
		c, ok := courses[e.CourseID]
		if !ok || c.IsDeleted || c.Status != models.CourseStatusPublished {
			// Enrollment outlives its course, and a course can be pulled
			// back to draft; hide either from the list rather than
			// failing the whole request.
			continue
		}
		mods := c.ActiveModules()
		lessonCount := 0
		for i := range mods {
			lessonCount += len(mods[i].ActiveLessons())
		}
		views = append(views, enrolledCourseView{
			EnrollmentID: e.ID,
			Course:       c,
			Status:       e.Status,
			Progress:     e.Progress.CourseProgress,
			ModuleCount:  len(mods),
			LessonCount:  lessonCount,
			EnrolledAt:   e.EnrolledAt,
			LastAccessed: e.Progress.LastAccessedAt,
		})
	}
	httpjson.List(w, len(views), views)
}

// ServeLearningStructure returns the active course tree annotated with
// the caller's completion state, and touches the enrollment's
// last-accessed timestamp.
//
// Route: GET /enrollments/learner/courses/{courseID}/structure
func (h *Handler) ServeLearningStructure(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, err := paramID(r, "courseID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	enr, err := h.Enrollments.GetByLearnerAndCourse(ctx, u.ID, courseID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	course, err := h.Courses.GetPublished(ctx, courseID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	view := structureView{
		CourseID:       course.ID,
		CourseTitle:    course.Title,
		Description:    course.Description,
		Status:         enr.Status,
		CourseProgress: enr.Progress.CourseProgress,
		Modules:        []structureModule{},
	}
	mods := course.ActiveModules()
	for i := range mods {
		m := &mods[i]
		sm := structureModule{
			ID:          m.ID,
			Title:       m.Title,
			Order:       m.Order,
			Percent:     progress.ModulePercent(m, &enr.Progress),
			IsCompleted: enr.Progress.IsModuleCompleted(m.ID),
			Lessons:     []structureLesson{},
		}
		for _, l := range m.ActiveLessons() {
			sm.Lessons = append(sm.Lessons, structureLesson{
				ID:          l.ID,
				Title:       l.Title,
				ContentType: l.ContentType,
				ContentURL:  l.ContentURL,
				Order:       l.Order,
				IsCompleted: enr.Progress.IsLessonCompleted(l.ID),
			})
		}
		view.Modules = append(view.Modules, sm)
	}

	if err := h.Enrollments.TouchLastAccessed(ctx, enr.ID); err != nil {
		h.Log.Warn("touch last accessed failed",
			zap.String("enrollment_id", enr.ID.Hex()), zap.Error(err))
	}

	httpjson.OK(w, view)
}

// HandleMarkComplete records a lesson completion and recomputes the
// enrollment's derived progress. Marking an already-completed lesson is
// a no-op that still succeeds.
//
// Route: POST /enrollments/learner/courses/{courseID}/lessons/{lessonID}/complete
func (h *Handler) HandleMarkComplete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, err := paramID(r, "courseID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	lessonID, err := paramID(r, "lessonID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	enr, err := h.Enrollments.GetByLearnerAndCourse(ctx, u.ID, courseID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	course, err := h.Courses.GetPublished(ctx, courseID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	moduleID, ok := progress.FindActiveLesson(&course, lessonID)
	if !ok {
		httpjson.Fail(w, h.Log, apperr.NotFound("lesson not found"))
		return
	}

	if enr.Progress.IsLessonCompleted(lessonID) {
		httpjson.OKMessage(w, "lesson already completed", enr)
		return
	}

	enr, err = h.Enrollments.AddCompletedLesson(ctx, enr.ID, lessonID, moduleID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	enr, err = h.applyProgress(ctx, &course, enr)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	h.Log.Info("lesson completed",
		zap.String("enrollment_id", enr.ID.Hex()),
		zap.String("lesson_id", lessonID.Hex()),
		zap.Int("course_progress", enr.Progress.CourseProgress))
	httpjson.OKMessage(w, "lesson marked complete", enr)
}

// applyProgress recomputes derived fields from the enrollment snapshot
// and writes them with an optimistic version check, retrying from a
// fresh read when a concurrent completion moved the version. The
// completion event fires only on the write that performs the
// active -> completed transition.
func (h *Handler) applyProgress(ctx context.Context, course *models.Course, enr models.Enrollment) (models.Enrollment, error) {
	for attempt := 0; ; attempt++ {
		res := progress.Recompute(course, &enr.Progress)
		markCompleted := res.Completed && enr.Status == models.EnrollmentStatusActive

		matched, err := h.Enrollments.ApplyProgress(ctx, enr.ID, enr.ProgressVersion, res, markCompleted)
		if err != nil {
			return models.Enrollment{}, err
		}
		if matched {
			if markCompleted {
				h.Notifier.Publish(events.CourseCompleted{
					EnrollmentID: enr.ID,
					LearnerID:    enr.LearnerID,
					CourseID:     course.ID,
					CompletedAt:  time.Now().UTC(),
				})
			}
			return h.Enrollments.GetByID(ctx, enr.ID)
		}
		if attempt+1 >= applyRetries {
			// Lost the race every time; the winning writer computed its
			// derived state from a superset of our completion, so the
			// stored progress is already current.
			return h.Enrollments.GetByID(ctx, enr.ID)
		}

		enr, err = h.Enrollments.GetByID(ctx, enr.ID)
		if err != nil {
			return models.Enrollment{}, err
		}
	}
}

// ServeProgress returns the caller's progress summary for one course.
//
// Route: GET /enrollments/learner/courses/{courseID}/progress
func (h *Handler) ServeProgress(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, err := paramID(r, "courseID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	enr, err := h.Enrollments.GetByLearnerAndCourse(ctx, u.ID, courseID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	view := progressView{
		EnrollmentID:   enr.ID,
		CourseID:       enr.CourseID,
		CourseTitle:    "course unavailable",
		Status:         enr.Status,
		CourseProgress: enr.Progress.CourseProgress,
		CompletedAt:    enr.CompletedAt,
		LastAccessed:   enr.Progress.LastAccessedAt,
	}

	// A deleted or unpublished course no longer affects the stored
	// summary; report it rather than erroring.
	course, err := h.Courses.GetPublished(ctx, courseID)
	if err == nil {
		view.CourseTitle = course.Title
		active := progress.ActiveLessons(&course)
		view.TotalLessons = len(active)
		for _, ref := range active {
			if enr.Progress.IsLessonCompleted(ref.LessonID) {
				view.CompletedLessons++
			}
		}
	} else if !apperr.IsNotFound(err) {
		httpjson.Fail(w, h.Log, err)
		return
	}

	httpjson.OK(w, view)
}

// ServeResume resolves where the caller should continue in a course.
//
// Route: GET /enrollments/learner/courses/{courseID}/resume
func (h *Handler) ServeResume(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, err := paramID(r, "courseID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	enr, err := h.Enrollments.GetByLearnerAndCourse(ctx, u.ID, courseID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	course, err := h.Courses.GetPublished(ctx, courseID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	target := progress.Resume(&course, &enr.Progress)
	view := resumeView{Found: target.Found}
	if target.Found {
		view.LessonID = target.Lesson.ID
		view.ModuleID = target.Module.ID
		view.Lesson = target.Lesson
	}
	httpjson.OK(w, view)
}

// HandleUpdateLastAccessed records the lesson a learner just opened.
//
// Route: PATCH /enrollments/learner/courses/{courseID}/last-accessed
func (h *Handler) HandleUpdateLastAccessed(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, err := paramID(r, "courseID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	var req lastAccessedRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	lessonID, err := primitive.ObjectIDFromHex(req.LessonID)
	if err != nil {
		httpjson.Fail(w, h.Log, apperr.Validation("invalid lesson_id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	enr, err := h.Enrollments.GetByLearnerAndCourse(ctx, u.ID, courseID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	course, err := h.Courses.GetPublished(ctx, courseID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	// Any lesson id is recorded; resume tolerates stale ones. The module
	// is resolved best effort from the current active tree.
	var modulePtr *primitive.ObjectID
	if moduleID, ok := progress.FindActiveLesson(&course, lessonID); ok {
		modulePtr = &moduleID
	}

	enr, err = h.Enrollments.SetLastAccessed(ctx, enr.ID, lessonID, modulePtr)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	httpjson.OK(w, enr)
}
