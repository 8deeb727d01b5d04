// internal/domain/progress/progress.go

// Package progress derives enrollment progress from a course's curriculum:
// completion percentage, module roll-up, the course-completed transition,
// and the resume position. Everything here is pure; stores persist the
// results.
package progress

import (
	"math"

	"github.com/coursebridge/coursebridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LessonRef identifies a lesson together with its owning module.
type LessonRef struct {
	LessonID primitive.ObjectID
	ModuleID primitive.ObjectID
}

// ActiveLessons flattens the course into its active lessons in canonical
// order: modules sorted by order (stable on ties), lessons likewise within
// each module. Lessons under a soft-deleted module are excluded even when
// their own flag is clear. This sequence is the denominator basis for all
// percentage math and the scan order for resume resolution.
func ActiveLessons(course *models.Course) []LessonRef {
	var out []LessonRef
	for _, m := range course.ActiveModules() {
		for _, l := range m.ActiveLessons() {
			out = append(out, LessonRef{LessonID: l.ID, ModuleID: m.ID})
		}
	}
	return out
}

// FindActiveLesson resolves a lesson id against the course's active lessons.
// Returns the owning module id and whether the lesson is active.
func FindActiveLesson(course *models.Course, lessonID primitive.ObjectID) (moduleID primitive.ObjectID, ok bool) {
	for _, ref := range ActiveLessons(course) {
		if ref.LessonID == lessonID {
			return ref.ModuleID, true
		}
	}
	return primitive.NilObjectID, false
}

// Result is the derived state produced by Recompute.
type Result struct {
	// CourseProgress is round(100 * completed-active / total-active),
	// or 0 when the course has no active lessons.
	CourseProgress int

	// NewCompletedModules are module ids that became complete on this
	// recompute and are not yet recorded. Existing entries are never
	// re-evaluated or removed.
	NewCompletedModules []primitive.ObjectID

	// Completed reports that CourseProgress reached 100. The caller stamps
	// status and completed_at only on the first transition.
	Completed bool
}

// Recompute derives progress for an enrollment against the current course
// definition. Completed-lesson ids that no longer resolve to an active
// lesson are excluded from the count but never removed from the record.
func Recompute(course *models.Course, p *models.Progress) Result {
	active := ActiveLessons(course)
	total := len(active)
	if total == 0 {
		return Result{CourseProgress: 0}
	}

	completed := 0
	for _, ref := range active {
		if p.IsLessonCompleted(ref.LessonID) {
			completed++
		}
	}

	res := Result{
		CourseProgress: int(math.Round(float64(completed) / float64(total) * 100)),
	}

	for _, m := range course.ActiveModules() {
		lessons := m.ActiveLessons()
		if len(lessons) == 0 || p.IsModuleCompleted(m.ID) {
			continue
		}
		done := true
		for _, l := range lessons {
			if !p.IsLessonCompleted(l.ID) {
				done = false
				break
			}
		}
		if done {
			res.NewCompletedModules = append(res.NewCompletedModules, m.ID)
		}
	}

	res.Completed = res.CourseProgress == 100
	return res
}

// ModulePercent is the per-module completion percentage used by the
// learning-structure view. Zero active lessons yields 0.
func ModulePercent(m *models.Module, p *models.Progress) int {
	lessons := m.ActiveLessons()
	if len(lessons) == 0 {
		return 0
	}
	completed := 0
	for _, l := range lessons {
		if p.IsLessonCompleted(l.ID) {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(lessons)) * 100))
}

// ResumeTarget is the lesson a learner should land on when re-entering a
// course. Found is false only when the course has no active lessons.
type ResumeTarget struct {
	Lesson *models.Lesson
	Module *models.Module
	Found  bool
}

// Resume resolves the resume position:
//  1. the last-accessed lesson, when it is still active;
//  2. otherwise the first active lesson not yet completed, in canonical order;
//  3. otherwise (everything completed) the first active lesson;
//  4. no active lessons at all -> Found=false.
func Resume(course *models.Course, p *models.Progress) ResumeTarget {
	mods := course.ActiveModules()

	if p.LastAccessedLessonID != nil {
		for mi := range mods {
			for _, l := range mods[mi].ActiveLessons() {
				if l.ID == *p.LastAccessedLessonID {
					lesson := l
					return ResumeTarget{Lesson: &lesson, Module: &mods[mi], Found: true}
				}
			}
		}
	}

	var first *ResumeTarget
	for mi := range mods {
		for _, l := range mods[mi].ActiveLessons() {
			lesson := l
			if first == nil {
				first = &ResumeTarget{Lesson: &lesson, Module: &mods[mi], Found: true}
			}
			if !p.IsLessonCompleted(l.ID) {
				return ResumeTarget{Lesson: &lesson, Module: &mods[mi], Found: true}
			}
		}
	}
	if first != nil {
		return *first
	}
	return ResumeTarget{}
}
