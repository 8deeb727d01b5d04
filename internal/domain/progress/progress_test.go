package progress_test

import (
	"testing"
	"time"

	"github.com/coursebridge/coursebridge/internal/domain/models"
	"github.com/coursebridge/coursebridge/internal/domain/progress"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func lesson(order int) models.Lesson {
	return models.Lesson{
		ID:          primitive.NewObjectID(),
		Title:       "Lesson",
		ContentType: models.ContentTypeVideo,
		ContentURL:  "https://videos.test/lesson",
		Order:       order,
	}
}

func deletedLesson(order int) models.Lesson {
	l := lesson(order)
	l.IsDeleted = true
	return l
}

func module(order int, lessons ...models.Lesson) models.Module {
	return models.Module{
		ID:      primitive.NewObjectID(),
		Title:   "Module",
		Order:   order,
		Lessons: lessons,
	}
}

func course(modules ...models.Module) models.Course {
	return models.Course{
		ID:      primitive.NewObjectID(),
		Title:   "Course",
		Status:  models.CourseStatusPublished,
		Modules: modules,
	}
}

func completed(ids ...primitive.ObjectID) models.Progress {
	p := models.NewProgress()
	p.CompletedLessons = append(p.CompletedLessons, ids...)
	return p
}

func TestActiveLessons_SkipsDeleted(t *testing.T) {
	c := course(
		module(0, lesson(0), deletedLesson(1), lesson(2)),
		module(1, deletedLesson(0)),
	)
	c.Modules[1].IsDeleted = false

	refs := progress.ActiveLessons(&c)
	if len(refs) != 2 {
		t.Fatalf("expected 2 active lessons, got %d", len(refs))
	}
	for _, ref := range refs {
		if ref.ModuleID != c.Modules[0].ID {
			t.Errorf("active lesson attributed to wrong module")
		}
	}
}

func TestActiveLessons_SkipsDeletedModules(t *testing.T) {
	m := module(0, lesson(0), lesson(1))
	m.IsDeleted = true
	c := course(m, module(1, lesson(0)))

	refs := progress.ActiveLessons(&c)
	if len(refs) != 1 {
		t.Fatalf("expected 1 active lesson, got %d", len(refs))
	}
	if refs[0].ModuleID != c.Modules[1].ID {
		t.Error("lesson from deleted module leaked into active set")
	}
}

func TestFindActiveLesson(t *testing.T) {
	c := course(module(0, lesson(0), deletedLesson(1)))

	moduleID, ok := progress.FindActiveLesson(&c, c.Modules[0].Lessons[0].ID)
	if !ok {
		t.Fatal("expected to find active lesson")
	}
	if moduleID != c.Modules[0].ID {
		t.Error("wrong module id")
	}

	if _, ok := progress.FindActiveLesson(&c, c.Modules[0].Lessons[1].ID); ok {
		t.Error("deleted lesson should not be found")
	}
	if _, ok := progress.FindActiveLesson(&c, primitive.NewObjectID()); ok {
		t.Error("unknown lesson should not be found")
	}
}

func TestRecompute_Percentage(t *testing.T) {
	c := course(module(0, lesson(0), lesson(1), lesson(2)))
	p := completed(c.Modules[0].Lessons[0].ID)

	res := progress.Recompute(&c, &p)
	// 1/3 rounds to 33
	if res.CourseProgress != 33 {
		t.Errorf("expected 33, got %d", res.CourseProgress)
	}
	if res.Completed {
		t.Error("course should not be completed")
	}

	p = completed(c.Modules[0].Lessons[0].ID, c.Modules[0].Lessons[1].ID)
	res = progress.Recompute(&c, &p)
	// 2/3 rounds to 67
	if res.CourseProgress != 67 {
		t.Errorf("expected 67, got %d", res.CourseProgress)
	}
}

func TestRecompute_EmptyCourse(t *testing.T) {
	c := course()
	p := models.NewProgress()

	res := progress.Recompute(&c, &p)
	if res.CourseProgress != 0 {
		t.Errorf("expected 0 for empty course, got %d", res.CourseProgress)
	}
	if res.Completed {
		t.Error("empty course must not be completed")
	}
}

func TestRecompute_StaleCompletionsExcluded(t *testing.T) {
	// Module A has lessons a1, a2; module B's only lesson is deleted.
	a1, a2 := lesson(0), lesson(1)
	b1 := deletedLesson(0)
	c := course(module(0, a1, a2), module(1, b1))

	// The learner completed a1 and b1 before b1 was deleted. Only a1
	// counts: 1/2 = 50.
	p := completed(a1.ID, b1.ID)
	res := progress.Recompute(&c, &p)
	if res.CourseProgress != 50 {
		t.Errorf("expected 50, got %d", res.CourseProgress)
	}

	// Completing a2 finishes every active lesson even though b1's id is
	// still recorded.
	p = completed(a1.ID, b1.ID, a2.ID)
	res = progress.Recompute(&c, &p)
	if res.CourseProgress != 100 {
		t.Errorf("expected 100, got %d", res.CourseProgress)
	}
	if !res.Completed {
		t.Error("expected completion at 100")
	}
}

func TestRecompute_ModuleRollup(t *testing.T) {
	c := course(
		module(0, lesson(0), lesson(1)),
		module(1, lesson(0)),
	)
	modA, modB := c.Modules[0], c.Modules[1]

	p := completed(modA.Lessons[0].ID)
	res := progress.Recompute(&c, &p)
	if len(res.NewCompletedModules) != 0 {
		t.Fatalf("no module should be complete yet, got %v", res.NewCompletedModules)
	}

	p = completed(modA.Lessons[0].ID, modA.Lessons[1].ID)
	res = progress.Recompute(&c, &p)
	if len(res.NewCompletedModules) != 1 || res.NewCompletedModules[0] != modA.ID {
		t.Fatalf("expected module A newly complete, got %v", res.NewCompletedModules)
	}

	// Already-recorded modules are not reported again.
	p.CompletedModules = append(p.CompletedModules, modA.ID)
	res = progress.Recompute(&c, &p)
	if len(res.NewCompletedModules) != 0 {
		t.Errorf("module A reported again: %v", res.NewCompletedModules)
	}
	_ = modB
}

func TestRecompute_ModuleWithoutActiveLessonsNeverCompletes(t *testing.T) {
	c := course(
		module(0, lesson(0)),
		module(1, deletedLesson(0)),
		module(2),
	)
	p := completed(c.Modules[0].Lessons[0].ID)

	res := progress.Recompute(&c, &p)
	if len(res.NewCompletedModules) != 1 || res.NewCompletedModules[0] != c.Modules[0].ID {
		t.Fatalf("expected only the first module complete, got %v", res.NewCompletedModules)
	}
	if res.CourseProgress != 100 {
		t.Errorf("expected 100 (1/1 active), got %d", res.CourseProgress)
	}
}

func TestRecompute_RecordedModulesSurviveDeletion(t *testing.T) {
	// A module already recorded as completed stays recorded even after
	// its lessons are deleted; Recompute never proposes removal.
	m := module(0, deletedLesson(0))
	c := course(m, module(1, lesson(0)))

	p := completed(c.Modules[1].Lessons[0].ID)
	p.CompletedModules = append(p.CompletedModules, m.ID)

	res := progress.Recompute(&c, &p)
	for _, id := range res.NewCompletedModules {
		if id == m.ID {
			t.Error("stale module re-reported")
		}
	}
	if !p.IsModuleCompleted(m.ID) {
		t.Error("recorded module lost")
	}
}

func TestModulePercent(t *testing.T) {
	m := module(0, lesson(0), lesson(1), deletedLesson(2))
	p := completed(m.Lessons[0].ID, m.Lessons[2].ID)

	// The deleted lesson neither counts toward the total nor as completed:
	// 1/2 = 50.
	if got := progress.ModulePercent(&m, &p); got != 50 {
		t.Errorf("expected 50, got %d", got)
	}

	empty := module(1)
	if got := progress.ModulePercent(&empty, &p); got != 0 {
		t.Errorf("expected 0 for empty module, got %d", got)
	}
}

func TestResume_LastAccessedWins(t *testing.T) {
	c := course(
		module(0, lesson(0), lesson(1)),
		module(1, lesson(0)),
	)
	target := c.Modules[1].Lessons[0]

	p := models.NewProgress()
	now := time.Now().UTC()
	p.LastAccessedLessonID = &target.ID
	p.LastAccessedModuleID = &c.Modules[1].ID
	p.LastAccessedAt = &now

	got := progress.Resume(&c, &p)
	if !got.Found {
		t.Fatal("expected a resume target")
	}
	if got.Lesson.ID != target.ID {
		t.Error("expected last-accessed lesson")
	}
	if got.Module.ID != c.Modules[1].ID {
		t.Error("wrong module")
	}
}

func TestResume_DeletedLastAccessedFallsBack(t *testing.T) {
	del := deletedLesson(0)
	c := course(module(0, del, lesson(1)))

	p := completed(c.Modules[0].Lessons[1].ID)
	p.LastAccessedLessonID = &del.ID

	// Last accessed is gone and everything active is completed, so resume
	// falls back to the first active lesson.
	got := progress.Resume(&c, &p)
	if !got.Found {
		t.Fatal("expected a resume target")
	}
	if got.Lesson.ID != c.Modules[0].Lessons[1].ID {
		t.Error("expected first active lesson")
	}
}

func TestResume_FirstIncomplete(t *testing.T) {
	c := course(
		module(0, lesson(0), lesson(1)),
		module(1, lesson(0)),
	)
	p := completed(c.Modules[0].Lessons[0].ID)

	got := progress.Resume(&c, &p)
	if !got.Found {
		t.Fatal("expected a resume target")
	}
	if got.Lesson.ID != c.Modules[0].Lessons[1].ID {
		t.Error("expected first incomplete lesson in canonical order")
	}
}

func TestResume_OrderIsCanonicalNotPositional(t *testing.T) {
	// Modules stored out of order resume in Order-field order.
	m0 := module(1, lesson(0))
	m1 := module(0, lesson(0))
	c := course(m0, m1)

	p := models.NewProgress()
	got := progress.Resume(&c, &p)
	if !got.Found {
		t.Fatal("expected a resume target")
	}
	if got.Module.ID != m1.ID {
		t.Error("expected the module with the lowest Order first")
	}
}

func TestResume_NoActiveLessons(t *testing.T) {
	c := course(module(0, deletedLesson(0)))
	p := models.NewProgress()

	got := progress.Resume(&c, &p)
	if got.Found {
		t.Error("expected no resume target")
	}
}
