// internal/domain/models/enrollment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enrollment statuses.
//
// The only automatic transition is active -> completed, performed when the
// derived course progress first reaches 100. "dropped" exists in the data
// model for administrative use; nothing in the progress engine produces it.
const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusDropped   = "dropped"
)

// Enrollment links a learner to a course. One document per
// (learner_id, course_id) pair, enforced by a unique compound index.
//
// ProgressVersion is an optimistic-concurrency token: every write that
// touches the embedded progress increments it, and derived-field writes
// filter on the version they were computed from.
type Enrollment struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	LearnerID  primitive.ObjectID `bson:"learner_id" json:"learner_id"`
	CourseID   primitive.ObjectID `bson:"course_id" json:"course_id"`
	EnrolledBy primitive.ObjectID `bson:"enrolled_by" json:"enrolled_by"`
	EnrolledAt time.Time          `bson:"enrolled_at" json:"enrolled_at"`

	Status      string     `bson:"status" json:"status"` // active | completed | dropped
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	Progress        Progress `bson:"progress" json:"progress"`
	ProgressVersion int64    `bson:"progress_version" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Progress is the embedded per-enrollment completion record.
//
// CompletedLessons and CompletedModules are append-only: ids are never
// removed, even when the referenced lesson or module is later soft-deleted.
// Stale ids are excluded from percentage math at recompute time, not purged.
type Progress struct {
	CompletedLessons []primitive.ObjectID `bson:"completed_lessons" json:"completed_lessons"`
	CompletedModules []primitive.ObjectID `bson:"completed_modules" json:"completed_modules"`
	CourseProgress   int                  `bson:"course_progress" json:"course_progress"` // 0..100

	LastAccessedLessonID *primitive.ObjectID `bson:"last_accessed_lesson_id,omitempty" json:"last_accessed_lesson_id,omitempty"`
	LastAccessedModuleID *primitive.ObjectID `bson:"last_accessed_module_id,omitempty" json:"last_accessed_module_id,omitempty"`
	LastAccessedAt       *time.Time          `bson:"last_accessed_at,omitempty" json:"last_accessed_at,omitempty"`
}

// IsLessonCompleted reports whether the lesson id is recorded as completed.
func (p *Progress) IsLessonCompleted(lessonID primitive.ObjectID) bool {
	for _, id := range p.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

// IsModuleCompleted reports whether the module id is recorded as completed.
func (p *Progress) IsModuleCompleted(moduleID primitive.ObjectID) bool {
	for _, id := range p.CompletedModules {
		if id == moduleID {
			return true
		}
	}
	return false
}

// NewProgress returns a zeroed progress record for a fresh enrollment.
func NewProgress() Progress {
	return Progress{
		CompletedLessons: []primitive.ObjectID{},
		CompletedModules: []primitive.ObjectID{},
	}
}
