// internal/app/features/enrollments/types.go
package enrollments

import (
	"time"

	"github.com/coursebridge/coursebridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type enrollRequest struct {
	LearnerID string `json:"learner_id"`
	CourseID  string `json:"course_id"`
}

type lastAccessedRequest struct {
	LessonID string `json:"lesson_id"`
}

// enrollmentView is an enrollment joined with the learner and course it
// references, for the admin listings.
type enrollmentView struct {
	models.Enrollment

	LearnerName  string `json:"learner_name,omitempty"`
	LearnerEmail string `json:"learner_email,omitempty"`
	CourseTitle  string `json:"course_title,omitempty"`
}

// enrolledCourseView is one row of a learner's course list: the published
// course plus that learner's standing in it.
type enrolledCourseView struct {
	EnrollmentID primitive.ObjectID `json:"enrollment_id"`
	Course       models.Course      `json:"course"`
	Status       string             `json:"status"`
	Progress     int                `json:"progress"`
	ModuleCount  int                `json:"module_count"`
	LessonCount  int                `json:"lesson_count"`
	EnrolledAt   time.Time          `json:"enrolled_at"`
	LastAccessed *time.Time         `json:"last_accessed_at,omitempty"`
}

// Learning-structure view: the active course tree annotated with the
// learner's per-lesson completion and per-module percentages.

type structureLesson struct {
	ID          primitive.ObjectID `json:"id"`
	Title       string             `json:"title"`
	ContentType string             `json:"content_type"`
	ContentURL  string             `json:"content_url"`
	Order       int                `json:"order"`
	IsCompleted bool               `json:"is_completed"`
}

type structureModule struct {
	ID          primitive.ObjectID `json:"id"`
	Title       string             `json:"title"`
	Order       int                `json:"order"`
	Percent     int                `json:"percent"`
	IsCompleted bool               `json:"is_completed"`
	Lessons     []structureLesson  `json:"lessons"`
}

type structureView struct {
	CourseID       primitive.ObjectID `json:"course_id"`
	CourseTitle    string             `json:"course_title"`
	Description    string             `json:"description"`
	Status         string             `json:"status"`
	CourseProgress int                `json:"course_progress"`
	Modules        []structureModule  `json:"modules"`
}

// progressView is the summary returned by the progress endpoint.
type progressView struct {
	EnrollmentID     primitive.ObjectID `json:"enrollment_id"`
	CourseID         primitive.ObjectID `json:"course_id"`
	CourseTitle      string             `json:"course_title"`
	Status           string             `json:"status"`
	CourseProgress   int                `json:"course_progress"`
	CompletedLessons int                `json:"completed_lessons"`
	TotalLessons     int                `json:"total_lessons"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
	LastAccessed     *time.Time         `json:"last_accessed_at,omitempty"`
}

// resumeView points the client at the lesson to open next. Found is false
// when the course currently has no active lessons.
type resumeView struct {
	Found    bool               `json:"found"`
	LessonID primitive.ObjectID `json:"lesson_id,omitempty"`
	ModuleID primitive.ObjectID `json:"module_id,omitempty"`
	Lesson   *models.Lesson     `json:"lesson,omitempty"`
}
