// internal/domain/models/course.go
package models

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course statuses. A course starts as a draft and is toggled to published
// by its owning trainer; only published courses accept enrollments.
const (
	CourseStatusDraft     = "draft"
	CourseStatusPublished = "published"
)

// Course is the root of the curriculum tree. Modules and lessons are
// embedded sub-documents; the course document is the unit of persistence
// for all curriculum mutations.
//
// Soft delete never cascades: IsDeleted on a course hides the whole tree
// at read time, but module and lesson flags are left untouched so a
// restore brings back exactly the children that were not independently
// deleted.
type Course struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"title_ci"` // lowercase, diacritics-stripped
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	TrainerID   primitive.ObjectID `bson:"trainer_id" json:"trainer_id"`
	Status      string             `bson:"status" json:"status"` // "draft" or "published"

	Modules []Module `bson:"modules" json:"modules"`

	IsDeleted bool       `bson:"is_deleted" json:"is_deleted"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Module is an embedded, ordered group of lessons.
//
// Order is assigned at creation as the count of active siblings and is not
// reassigned when siblings are deleted, so values may repeat. Display order
// sorts by Order with array position as the tie-break.
type Module struct {
	ID      primitive.ObjectID `bson:"_id" json:"id"`
	Title   string             `bson:"title" json:"title"`
	Order   int                `bson:"order" json:"order"`
	Lessons []Lesson           `bson:"lessons" json:"lessons"`

	IsDeleted bool       `bson:"is_deleted" json:"is_deleted"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Lesson content types.
const (
	ContentTypePDF   = "PDF"
	ContentTypeVideo = "Video"
	ContentTypeLink  = "Link"
)

// ContentTypes is the set of allowed lesson content type identifiers.
var ContentTypes = []string{ContentTypePDF, ContentTypeVideo, ContentTypeLink}

// IsValidContentType reports whether t is an allowed lesson content type.
func IsValidContentType(t string) bool {
	for _, v := range ContentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Lesson is an embedded leaf of the curriculum tree. ContentURL is an
// opaque reference into the external media store; any string is accepted.
type Lesson struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	ContentType string             `bson:"content_type" json:"content_type"` // PDF | Video | Link
	ContentURL  string             `bson:"content_url" json:"content_url"`
	Order       int                `bson:"order" json:"order"`

	IsDeleted bool       `bson:"is_deleted" json:"is_deleted"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ModuleByID returns a pointer into c.Modules for the module with the given
// id, or nil if absent. Deleted modules are returned too; callers that only
// want active ones must check IsDeleted themselves.
func (c *Course) ModuleByID(id primitive.ObjectID) *Module {
	for i := range c.Modules {
		if c.Modules[i].ID == id {
			return &c.Modules[i]
		}
	}
	return nil
}

// LessonByID returns a pointer into m.Lessons for the lesson with the given
// id, or nil if absent.
func (m *Module) LessonByID(id primitive.ObjectID) *Lesson {
	for i := range m.Lessons {
		if m.Lessons[i].ID == id {
			return &m.Lessons[i]
		}
	}
	return nil
}

// ActiveModules returns the non-deleted modules in display order: ascending
// Order, with structural position preserved for equal Order values.
func (c *Course) ActiveModules() []Module {
	out := make([]Module, 0, len(c.Modules))
	for _, m := range c.Modules {
		if !m.IsDeleted {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// ActiveLessons returns the module's non-deleted lessons in display order.
func (m *Module) ActiveLessons() []Lesson {
	out := make([]Lesson, 0, len(m.Lessons))
	for _, l := range m.Lessons {
		if !l.IsDeleted {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
