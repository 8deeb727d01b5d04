package enrollments_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/coursebridge/coursebridge/internal/app/features/enrollments"
	"github.com/coursebridge/coursebridge/internal/app/system/events"
	"github.com/coursebridge/coursebridge/internal/domain/models"
	"github.com/coursebridge/coursebridge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*enrollments.Handler, *testutil.Fixtures, *events.Notifier) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	notifier := events.NewNotifier(zap.NewNop())
	handler := enrollments.NewHandler(db, notifier, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	return handler, fixtures, notifier
}

func markComplete(t *testing.T, h *enrollments.Handler, learner models.User, courseID, lessonID primitive.ObjectID) *testutil.ResponseRecorder {
	t.Helper()
	req := testutil.NewRequest(http.MethodPost, "/complete", testutil.IdentityFor(learner))
	req = testutil.WithChiURLParam(req, "courseID", courseID.Hex())
	req = testutil.WithChiURLParam(req, "lessonID", lessonID.Hex())
	rec := testutil.NewRecorder()
	h.HandleMarkComplete(rec.ResponseRecorder, req)
	return rec
}

func TestHandleEnroll_Success(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx)
	learner := fixtures.CreateLearner(ctx)
	trainer := fixtures.CreateTrainer(ctx)
	course := fixtures.CreatePublishedCourse(ctx, trainer.ID, "Live Course", 2)

	req := testutil.NewJSONRequest(http.MethodPost, "/enrollments/admin", testutil.IdentityFor(admin),
		map[string]string{"learner_id": learner.ID.Hex(), "course_id": course.ID.Hex()})
	rec := testutil.NewRecorder()
	handler.HandleEnroll(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)

	count, err := fixtures.DB().Collection("enrollments").CountDocuments(ctx,
		bson.M{"learner_id": learner.ID, "course_id": course.ID})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 enrollment, got %d", count)
	}
}

func TestHandleEnroll_Rejections(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx)
	learner := fixtures.CreateLearner(ctx)
	trainer := fixtures.CreateTrainer(ctx)
	draft := fixtures.CreateCourse(ctx, trainer.ID, "Draft Course")
	published := fixtures.CreatePublishedCourse(ctx, trainer.ID, "Published", 1)

	tests := []struct {
		name      string
		learnerID string
		courseID  string
		want      int
	}{
		{"draft course", learner.ID.Hex(), draft.ID.Hex(), http.StatusBadRequest},
		{"trainer as target", trainer.ID.Hex(), published.ID.Hex(), http.StatusBadRequest},
		{"unknown learner", primitive.NewObjectID().Hex(), published.ID.Hex(), http.StatusNotFound},
		{"unknown course", learner.ID.Hex(), primitive.NewObjectID().Hex(), http.StatusNotFound},
		{"malformed learner id", "zzz", published.ID.Hex(), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(http.MethodPost, "/enrollments/admin", testutil.IdentityFor(admin),
				map[string]string{"learner_id": tt.learnerID, "course_id": tt.courseID})
			rec := testutil.NewRecorder()
			handler.HandleEnroll(rec.ResponseRecorder, req)
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestHandleMarkComplete_ProgressAndTransition(t *testing.T) {
	handler, fixtures, notifier := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx)
	learner := fixtures.CreateLearner(ctx)
	trainer := fixtures.CreateTrainer(ctx)
	course := fixtures.CreatePublishedCourse(ctx, trainer.ID, "Two Lessons", 2)
	fixtures.CreateEnrollment(ctx, learner.ID, course.ID, admin.ID)

	completions := notifier.Subscribe()
	lessons := course.Modules[0].Lessons

	rec := markComplete(t, handler, learner, course.ID, lessons[0].ID)
	rec.AssertStatus(t, http.StatusOK)

	var enr models.Enrollment
	if err := fixtures.DB().Collection("enrollments").FindOne(ctx, bson.M{"learner_id": learner.ID}).Decode(&enr); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if enr.Progress.CourseProgress != 50 {
		t.Errorf("expected 50%%, got %d", enr.Progress.CourseProgress)
	}
	if enr.Status != models.EnrollmentStatusActive {
		t.Errorf("expected still active, got %q", enr.Status)
	}
	select {
	case <-completions:
		t.Fatal("completion event fired early")
	default:
	}

	rec = markComplete(t, handler, learner, course.ID, lessons[1].ID)
	rec.AssertStatus(t, http.StatusOK)

	if err := fixtures.DB().Collection("enrollments").FindOne(ctx, bson.M{"learner_id": learner.ID}).Decode(&enr); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if enr.Progress.CourseProgress != 100 {
		t.Errorf("expected 100%%, got %d", enr.Progress.CourseProgress)
	}
	if enr.Status != models.EnrollmentStatusCompleted {
		t.Errorf("expected completed, got %q", enr.Status)
	}
	if enr.CompletedAt == nil {
		t.Error("completed_at not stamped")
	}
	if !enr.Progress.IsModuleCompleted(course.Modules[0].ID) {
		t.Error("module not rolled up")
	}

	select {
	case ev := <-completions:
		if ev.CourseID != course.ID || ev.LearnerID != learner.ID {
			t.Error("event carries wrong ids")
		}
	case <-time.After(time.Second):
		t.Fatal("completion event not published")
	}
}

func TestHandleMarkComplete_Idempotent(t *testing.T) {
	handler, fixtures, notifier := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx)
	learner := fixtures.CreateLearner(ctx)
	trainer := fixtures.CreateTrainer(ctx)
	course := fixtures.CreatePublishedCourse(ctx, trainer.ID, "One Lesson", 1)
	fixtures.CreateEnrollment(ctx, learner.ID, course.ID, admin.ID)

	completions := notifier.Subscribe()
	lessonID := course.Modules[0].Lessons[0].ID

	markComplete(t, handler, learner, course.ID, lessonID).AssertStatus(t, http.StatusOK)

	var first models.Enrollment
	if err := fixtures.DB().Collection("enrollments").FindOne(ctx, bson.M{"learner_id": learner.ID}).Decode(&first); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	<-completions

	// Marking again succeeds without changing anything or re-firing.
	markComplete(t, handler, learner, course.ID, lessonID).AssertStatus(t, http.StatusOK)

	var second models.Enrollment
	if err := fixtures.DB().Collection("enrollments").FindOne(ctx, bson.M{"learner_id": learner.ID}).Decode(&second); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(second.Progress.CompletedLessons) != 1 {
		t.Errorf("lesson duplicated: %d", len(second.Progress.CompletedLessons))
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Error("completed_at moved")
	}
	select {
	case <-completions:
		t.Error("completion event fired twice")
	default:
	}
}

func TestHandleMarkComplete_Guards(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx)
	learner := fixtures.CreateLearner(ctx)
	trainer := fixtures.CreateTrainer(ctx)
	course := fixtures.CreatePublishedCourse(ctx, trainer.ID, "Guarded", 1)
	lessonID := course.Modules[0].Lessons[0].ID

	// Not enrolled: forbidden.
	markComplete(t, handler, learner, course.ID, lessonID).AssertStatus(t, http.StatusForbidden)

	fixtures.CreateEnrollment(ctx, learner.ID, course.ID, admin.ID)

	// Unknown lesson: not found.
	markComplete(t, handler, learner, course.ID, primitive.NewObjectID()).AssertStatus(t, http.StatusNotFound)
}

func TestServeResume(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx)
	learner := fixtures.CreateLearner(ctx)
	trainer := fixtures.CreateTrainer(ctx)
	course := fixtures.CreatePublishedCourse(ctx, trainer.ID, "Resumable", 2)
	fixtures.CreateEnrollment(ctx, learner.ID, course.ID, admin.ID)

	// Fresh enrollment resumes at the first lesson.
	req := testutil.NewRequest(http.MethodGet, "/resume", testutil.IdentityFor(learner))
	req = testutil.WithChiURLParam(req, "courseID", course.ID.Hex())
	rec := testutil.NewRecorder()
	handler.ServeResume(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	data := rec.Envelope(t)["data"].(map[string]any)
	if data["found"] != true {
		t.Fatal("expected a resume target")
	}
	if data["lesson_id"] != course.Modules[0].Lessons[0].ID.Hex() {
		t.Errorf("expected first lesson, got %v", data["lesson_id"])
	}

	// After completing the first lesson, resume moves to the second.
	markComplete(t, handler, learner, course.ID, course.Modules[0].Lessons[0].ID).AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	req = testutil.NewRequest(http.MethodGet, "/resume", testutil.IdentityFor(learner))
	req = testutil.WithChiURLParam(req, "courseID", course.ID.Hex())
	handler.ServeResume(rec.ResponseRecorder, req)
	data = rec.Envelope(t)["data"].(map[string]any)
	if data["lesson_id"] != course.Modules[0].Lessons[1].ID.Hex() {
		t.Errorf("expected second lesson, got %v", data["lesson_id"])
	}
}

func TestServeProgress_ToleratesDeletedCourse(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx)
	learner := fixtures.CreateLearner(ctx)
	trainer := fixtures.CreateTrainer(ctx)
	course := fixtures.CreatePublishedCourse(ctx, trainer.ID, "Doomed", 1)
	fixtures.CreateEnrollment(ctx, learner.ID, course.ID, admin.ID)

	// Trainer trashes the course after enrollment.
	if _, err := fixtures.DB().Collection("courses").UpdateByID(ctx, course.ID,
		bson.M{"$set": bson.M{"is_deleted": true}}); err != nil {
		t.Fatalf("delete course: %v", err)
	}

	req := testutil.NewRequest(http.MethodGet, "/progress", testutil.IdentityFor(learner))
	req = testutil.WithChiURLParam(req, "courseID", course.ID.Hex())
	rec := testutil.NewRecorder()
	handler.ServeProgress(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	data := rec.Envelope(t)["data"].(map[string]any)
	if data["course_title"] != "course unavailable" {
		t.Errorf("expected placeholder title, got %v", data["course_title"])
	}
}

func TestServeLearningStructure(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx)
	learner := fixtures.CreateLearner(ctx)
	trainer := fixtures.CreateTrainer(ctx)
	course := fixtures.CreatePublishedCourse(ctx, trainer.ID, "Annotated", 2, 1)
	fixtures.CreateEnrollment(ctx, learner.ID, course.ID, admin.ID)

	markComplete(t, handler, learner, course.ID, course.Modules[0].Lessons[0].ID).AssertStatus(t, http.StatusOK)

	req := testutil.NewRequest(http.MethodGet, "/structure", testutil.IdentityFor(learner))
	req = testutil.WithChiURLParam(req, "courseID", course.ID.Hex())
	rec := testutil.NewRecorder()
	handler.ServeLearningStructure(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	data := rec.Envelope(t)["data"].(map[string]any)
	mods := data["modules"].([]any)
	if len(mods) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(mods))
	}
	first := mods[0].(map[string]any)
	if first["percent"].(float64) != 50 {
		t.Errorf("expected module percent 50, got %v", first["percent"])
	}
	lessons := first["lessons"].([]any)
	if lessons[0].(map[string]any)["is_completed"] != true {
		t.Error("first lesson should be completed")
	}
	if lessons[1].(map[string]any)["is_completed"] != false {
		t.Error("second lesson should not be completed")
	}

	// The read stamped last_accessed_at.
	var enr models.Enrollment
	if err := fixtures.DB().Collection("enrollments").FindOne(ctx, bson.M{"learner_id": learner.ID}).Decode(&enr); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if enr.Progress.LastAccessedAt == nil {
		t.Error("last_accessed_at not touched")
	}
}

func TestServeEnrolledCourses_HidesDeletedCourses(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx)
	learner := fixtures.CreateLearner(ctx)
	trainer := fixtures.CreateTrainer(ctx)

	kept := fixtures.CreatePublishedCourse(ctx, trainer.ID, "Kept", 1)
	gone := fixtures.CreatePublishedCourse(ctx, trainer.ID, "Gone", 1)
	fixtures.CreateEnrollment(ctx, learner.ID, kept.ID, admin.ID)
	fixtures.CreateEnrollment(ctx, learner.ID, gone.ID, admin.ID)

	if _, err := fixtures.DB().Collection("courses").UpdateByID(ctx, gone.ID,
		bson.M{"$set": bson.M{"is_deleted": true}}); err != nil {
		t.Fatalf("delete course: %v", err)
	}

	req := testutil.NewRequest(http.MethodGet, "/courses", testutil.IdentityFor(learner))
	rec := testutil.NewRecorder()
	handler.ServeEnrolledCourses(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	body := rec.Envelope(t)
	if body["count"].(float64) != 1 {
		t.Errorf("expected 1 visible course, got %v", body["count"])
	}
}

func TestLearnerSurface_RequiresPublishedCourse(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx)
	learner := fixtures.CreateLearner(ctx)
	trainer := fixtures.CreateTrainer(ctx)
	course := fixtures.CreatePublishedCourse(ctx, trainer.ID, "Pulled Back", 1)
	fixtures.CreateEnrollment(ctx, learner.ID, course.ID, admin.ID)

	// Trainer pulls the course back to draft after enrollment.
	if _, err := fixtures.DB().Collection("courses").UpdateByID(ctx, course.ID,
		bson.M{"$set": bson.M{"status": models.CourseStatusDraft}}); err != nil {
		t.Fatalf("unpublish course: %v", err)
	}

	req := testutil.NewRequest(http.MethodGet, "/courses", testutil.IdentityFor(learner))
	rec := testutil.NewRecorder()
	handler.ServeEnrolledCourses(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	if count := rec.Envelope(t)["count"].(float64); count != 0 {
		t.Errorf("expected unpublished course hidden, got %v visible", count)
	}

	markComplete(t, handler, learner, course.ID, course.Modules[0].Lessons[0].ID).AssertStatus(t, http.StatusNotFound)

	req = testutil.NewRequest(http.MethodGet, "/structure", testutil.IdentityFor(learner))
	req = testutil.WithChiURLParam(req, "courseID", course.ID.Hex())
	rec = testutil.NewRecorder()
	handler.ServeLearningStructure(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNotFound)

	req = testutil.NewRequest(http.MethodGet, "/resume", testutil.IdentityFor(learner))
	req = testutil.WithChiURLParam(req, "courseID", course.ID.Hex())
	rec = testutil.NewRecorder()
	handler.ServeResume(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleUpdateLastAccessed(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx)
	learner := fixtures.CreateLearner(ctx)
	trainer := fixtures.CreateTrainer(ctx)
	course := fixtures.CreatePublishedCourse(ctx, trainer.ID, "Tracked", 2)
	fixtures.CreateEnrollment(ctx, learner.ID, course.ID, admin.ID)

	update := func(lessonID primitive.ObjectID) *testutil.ResponseRecorder {
		req := testutil.NewJSONRequest(http.MethodPatch, "/last-accessed", testutil.IdentityFor(learner),
			map[string]string{"lesson_id": lessonID.Hex()})
		req = testutil.WithChiURLParam(req, "courseID", course.ID.Hex())
		rec := testutil.NewRecorder()
		handler.HandleUpdateLastAccessed(rec.ResponseRecorder, req)
		return rec
	}

	lesson := course.Modules[0].Lessons[1]
	update(lesson.ID).AssertStatus(t, http.StatusOK)

	var enr models.Enrollment
	if err := fixtures.DB().Collection("enrollments").FindOne(ctx, bson.M{"learner_id": learner.ID}).Decode(&enr); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if enr.Progress.LastAccessedLessonID == nil || *enr.Progress.LastAccessedLessonID != lesson.ID {
		t.Errorf("expected last accessed lesson %s, got %v", lesson.ID.Hex(), enr.Progress.LastAccessedLessonID)
	}
	if enr.Progress.LastAccessedModuleID == nil || *enr.Progress.LastAccessedModuleID != course.Modules[0].ID {
		t.Error("module not resolved from active tree")
	}

	// A lesson id outside the active tree is still recorded; resume
	// falls back past it.
	stale := primitive.NewObjectID()
	update(stale).AssertStatus(t, http.StatusOK)

	if err := fixtures.DB().Collection("enrollments").FindOne(ctx, bson.M{"learner_id": learner.ID}).Decode(&enr); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if enr.Progress.LastAccessedLessonID == nil || *enr.Progress.LastAccessedLessonID != stale {
		t.Errorf("stale lesson id not recorded, got %v", enr.Progress.LastAccessedLessonID)
	}

	req := testutil.NewRequest(http.MethodGet, "/resume", testutil.IdentityFor(learner))
	req = testutil.WithChiURLParam(req, "courseID", course.ID.Hex())
	rec := testutil.NewRecorder()
	handler.ServeResume(rec.ResponseRecorder, req)
	data := rec.Envelope(t)["data"].(map[string]any)
	if data["lesson_id"] != course.Modules[0].Lessons[0].ID.Hex() {
		t.Errorf("expected fallback to first lesson, got %v", data["lesson_id"])
	}
}

func TestHandleRemove(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx)
	learner := fixtures.CreateLearner(ctx)
	trainer := fixtures.CreateTrainer(ctx)
	course := fixtures.CreatePublishedCourse(ctx, trainer.ID, "Temp", 1)
	enr := fixtures.CreateEnrollment(ctx, learner.ID, course.ID, admin.ID)

	req := testutil.NewRequest(http.MethodDelete, "/enrollments/admin/"+enr.ID.Hex(), testutil.IdentityFor(admin))
	req = testutil.WithChiURLParam(req, "enrollmentID", enr.ID.Hex())
	rec := testutil.NewRecorder()
	handler.HandleRemove(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	count, _ := fixtures.DB().Collection("enrollments").CountDocuments(ctx, bson.M{"_id": enr.ID})
	if count != 0 {
		t.Error("enrollment not removed")
	}
}
