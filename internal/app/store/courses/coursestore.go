// internal/app/store/courses/coursestore.go
package coursestore

// Terminology: the curriculum tree
//   - Course: root document, owned by one trainer
//   - Module: embedded in Course.modules
//   - Lesson: embedded in Module.lessons
//
// Soft delete is per-node and never cascades. Mutations target embedded
// nodes with arrayFilters so concurrent edits to sibling nodes do not
// clobber each other.

import (
	"context"
	"strings"
	"time"

	"github.com/coursebridge/coursebridge/internal/app/system/apperr"
	"github.com/coursebridge/coursebridge/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// descPolicy sanitizes trainer-supplied course descriptions.
var descPolicy = bluemonday.UGCPolicy()

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("courses")}
}

/* ------------------------------ course CRUD ------------------------------ */

// Create inserts a new draft course for the trainer.
func (s *Store) Create(ctx context.Context, title, description string, trainerID primitive.ObjectID) (models.Course, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Course{}, apperr.Validation("course title is required")
	}

	now := time.Now().UTC()
	course := models.Course{
		ID:          primitive.NewObjectID(),
		Title:       title,
		TitleCI:     text.Fold(title),
		Description: descPolicy.Sanitize(description),
		TrainerID:   trainerID,
		Status:      models.CourseStatusDraft,
		Modules:     []models.Module{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.c.InsertOne(ctx, course); err != nil {
		return models.Course{}, err
	}
	return course, nil
}

// GetActive returns a non-deleted course by id.
func (s *Store) GetActive(ctx context.Context, id primitive.ObjectID) (models.Course, error) {
	return s.findOne(ctx, bson.M{"_id": id, "is_deleted": false})
}

// GetActiveOwned returns a non-deleted course owned by the trainer.
// Not-owned and not-found are indistinguishable to the caller.
func (s *Store) GetActiveOwned(ctx context.Context, id, trainerID primitive.ObjectID) (models.Course, error) {
	return s.findOne(ctx, bson.M{"_id": id, "trainer_id": trainerID, "is_deleted": false})
}

// GetPublished returns a course that is active and published; enrollment
// and all learner reads go through this.
func (s *Store) GetPublished(ctx context.Context, id primitive.ObjectID) (models.Course, error) {
	return s.findOne(ctx, bson.M{"_id": id, "is_deleted": false, "status": models.CourseStatusPublished})
}

// Get returns a course regardless of deletion state.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (models.Course, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByIDs returns the courses for the given ids (any deletion state),
// keyed by id, for list-view assembly.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Course, error) {
	out := make(map[primitive.ObjectID]models.Course, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	courses, err := s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, c := range courses {
		out[c.ID] = c
	}
	return out, nil
}

// ListActiveByTrainer returns the trainer's active courses, newest first.
func (s *Store) ListActiveByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]models.Course, error) {
	return s.find(ctx, bson.M{"trainer_id": trainerID, "is_deleted": false},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// ListActive returns all active courses, newest first (admin overview).
func (s *Store) ListActive(ctx context.Context) ([]models.Course, error) {
	return s.find(ctx, bson.M{"is_deleted": false},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// CourseUpdate holds the partial course mutation. Nil fields are left alone.
type CourseUpdate struct {
	Title       *string
	Description *string
}

// Update applies a partial update to an active course owned by the trainer.
func (s *Store) Update(ctx context.Context, id, trainerID primitive.ObjectID, mut CourseUpdate) (models.Course, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if mut.Title != nil {
		t := strings.TrimSpace(*mut.Title)
		if t == "" {
			return models.Course{}, apperr.Validation("course title is required")
		}
		set["title"] = t
		set["title_ci"] = text.Fold(t)
	}
	if mut.Description != nil {
		set["description"] = descPolicy.Sanitize(*mut.Description)
	}

	return s.findOneAndUpdate(ctx,
		bson.M{"_id": id, "trainer_id": trainerID, "is_deleted": false},
		bson.M{"$set": set}, nil)
}

// TogglePublish flips draft <-> published.
func (s *Store) TogglePublish(ctx context.Context, id, trainerID primitive.ObjectID) (models.Course, error) {
	course, err := s.GetActiveOwned(ctx, id, trainerID)
	if err != nil {
		return models.Course{}, err
	}

	next := models.CourseStatusPublished
	if course.Status == models.CourseStatusPublished {
		next = models.CourseStatusDraft
	}
	return s.findOneAndUpdate(ctx,
		bson.M{"_id": id, "trainer_id": trainerID, "is_deleted": false},
		bson.M{"$set": bson.M{"status": next, "updated_at": time.Now().UTC()}}, nil)
}

/* --------------------------- trash bin (course) --------------------------- */

// SoftDelete flags an active course as deleted. Module and lesson flags are
// deliberately left untouched; their own state governs visibility after a
// restore.
func (s *Store) SoftDelete(ctx context.Context, id, trainerID primitive.ObjectID) (models.Course, error) {
	now := time.Now().UTC()
	return s.findOneAndUpdate(ctx,
		bson.M{"_id": id, "trainer_id": trainerID, "is_deleted": false},
		bson.M{"$set": bson.M{"is_deleted": true, "deleted_at": now, "updated_at": now}}, nil)
}

// Restore clears the deletion flag on a soft-deleted course.
func (s *Store) Restore(ctx context.Context, id, trainerID primitive.ObjectID) (models.Course, error) {
	return s.findOneAndUpdate(ctx,
		bson.M{"_id": id, "trainer_id": trainerID, "is_deleted": true},
		bson.M{
			"$set":   bson.M{"is_deleted": false, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"deleted_at": ""},
		}, nil)
}

// ListTrash returns the trainer's soft-deleted courses, most recently
// deleted first.
func (s *Store) ListTrash(ctx context.Context, trainerID primitive.ObjectID) ([]models.Course, error) {
	return s.find(ctx, bson.M{"trainer_id": trainerID, "is_deleted": true},
		options.Find().SetSort(bson.D{{Key: "deleted_at", Value: -1}}))
}

// PermanentDelete irreversibly removes a course that is already in the
// trash. Courses that are still active are not deletable this way.
func (s *Store) PermanentDelete(ctx context.Context, id, trainerID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "trainer_id": trainerID, "is_deleted": true})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("course not found in trash")
	}
	return nil
}

/* -------------------------------- modules -------------------------------- */

// AddModule appends a module to an active owned course. The order value is
// the count of currently-active siblings and is never reassigned later, so
// duplicates appear after deletions; display sorts stably.
func (s *Store) AddModule(ctx context.Context, courseID, trainerID primitive.ObjectID, title string) (models.Course, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Course{}, apperr.Validation("module title is required")
	}

	course, err := s.GetActiveOwned(ctx, courseID, trainerID)
	if err != nil {
		return models.Course{}, err
	}

	now := time.Now().UTC()
	mod := models.Module{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Order:     len(course.ActiveModules()),
		Lessons:   []models.Lesson{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	return s.findOneAndUpdate(ctx,
		bson.M{"_id": courseID, "trainer_id": trainerID, "is_deleted": false},
		bson.M{
			"$push": bson.M{"modules": mod},
			"$set":  bson.M{"updated_at": now},
		}, nil)
}

// ModuleUpdate holds the partial module mutation.
type ModuleUpdate struct {
	Title *string
	Order *int
}

// UpdateModule applies a partial update to an active module.
func (s *Store) UpdateModule(ctx context.Context, courseID, trainerID, moduleID primitive.ObjectID, mut ModuleUpdate) (models.Course, error) {
	if _, err := s.activeModule(ctx, courseID, trainerID, moduleID); err != nil {
		return models.Course{}, err
	}

	now := time.Now().UTC()
	set := bson.M{"updated_at": now, "modules.$[m].updated_at": now}
	if mut.Title != nil {
		t := strings.TrimSpace(*mut.Title)
		if t == "" {
			return models.Course{}, apperr.Validation("module title is required")
		}
		set["modules.$[m].title"] = t
	}
	if mut.Order != nil {
		set["modules.$[m].order"] = *mut.Order
	}

	return s.findOneAndUpdate(ctx,
		bson.M{"_id": courseID, "trainer_id": trainerID, "is_deleted": false},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"m._id": moduleID}},
		}))
}

// SoftDeleteModule flags an active module as deleted. Its lessons keep
// their own flags.
func (s *Store) SoftDeleteModule(ctx context.Context, courseID, trainerID, moduleID primitive.ObjectID) (models.Course, error) {
	if _, err := s.activeModule(ctx, courseID, trainerID, moduleID); err != nil {
		return models.Course{}, err
	}

	now := time.Now().UTC()
	return s.findOneAndUpdate(ctx,
		bson.M{"_id": courseID, "trainer_id": trainerID, "is_deleted": false},
		bson.M{"$set": bson.M{
			"modules.$[m].is_deleted": true,
			"modules.$[m].deleted_at": now,
			"modules.$[m].updated_at": now,
			"updated_at":              now,
		}},
		options.FindOneAndUpdate().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"m._id": moduleID}},
		}))
}

// RestoreModule clears the deletion flag on a soft-deleted module.
func (s *Store) RestoreModule(ctx context.Context, courseID, trainerID, moduleID primitive.ObjectID) (models.Course, error) {
	course, err := s.GetActiveOwned(ctx, courseID, trainerID)
	if err != nil {
		return models.Course{}, err
	}
	mod := course.ModuleByID(moduleID)
	if mod == nil || !mod.IsDeleted {
		return models.Course{}, apperr.NotFound("module not found in trash")
	}

	now := time.Now().UTC()
	return s.findOneAndUpdate(ctx,
		bson.M{"_id": courseID, "trainer_id": trainerID, "is_deleted": false},
		bson.M{
			"$set": bson.M{
				"modules.$[m].is_deleted": false,
				"modules.$[m].updated_at": now,
				"updated_at":              now,
			},
			"$unset": bson.M{"modules.$[m].deleted_at": ""},
		},
		options.FindOneAndUpdate().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"m._id": moduleID}},
		}))
}

/* -------------------------------- lessons -------------------------------- */

// AddLesson appends a lesson to an active module, with the same
// active-sibling-count order policy as modules.
func (s *Store) AddLesson(ctx context.Context, courseID, trainerID, moduleID primitive.ObjectID, title, contentType, contentURL string) (models.Course, error) {
	title = strings.TrimSpace(title)
	contentURL = strings.TrimSpace(contentURL)
	switch {
	case title == "":
		return models.Course{}, apperr.Validation("lesson title is required")
	case contentURL == "":
		return models.Course{}, apperr.Validation("content url is required")
	case !models.IsValidContentType(contentType):
		return models.Course{}, apperr.Validation("content type must be PDF, Video, or Link")
	}

	mod, err := s.activeModule(ctx, courseID, trainerID, moduleID)
	if err != nil {
		return models.Course{}, err
	}

	now := time.Now().UTC()
	lesson := models.Lesson{
		ID:          primitive.NewObjectID(),
		Title:       title,
		ContentType: contentType,
		ContentURL:  contentURL,
		Order:       len(mod.ActiveLessons()),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return s.findOneAndUpdate(ctx,
		bson.M{"_id": courseID, "trainer_id": trainerID, "is_deleted": false},
		bson.M{
			"$push": bson.M{"modules.$[m].lessons": lesson},
			"$set":  bson.M{"modules.$[m].updated_at": now, "updated_at": now},
		},
		options.FindOneAndUpdate().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"m._id": moduleID}},
		}))
}

// LessonUpdate holds the partial lesson mutation.
type LessonUpdate struct {
	Title       *string
	ContentType *string
	ContentURL  *string
	Order       *int
}

// UpdateLesson applies a partial update to an active lesson.
func (s *Store) UpdateLesson(ctx context.Context, courseID, trainerID, moduleID, lessonID primitive.ObjectID, mut LessonUpdate) (models.Course, error) {
	if _, err := s.activeLesson(ctx, courseID, trainerID, moduleID, lessonID); err != nil {
		return models.Course{}, err
	}

	now := time.Now().UTC()
	set := bson.M{
		"modules.$[m].lessons.$[l].updated_at": now,
		"updated_at":                           now,
	}
	if mut.Title != nil {
		t := strings.TrimSpace(*mut.Title)
		if t == "" {
			return models.Course{}, apperr.Validation("lesson title is required")
		}
		set["modules.$[m].lessons.$[l].title"] = t
	}
	if mut.ContentType != nil {
		if !models.IsValidContentType(*mut.ContentType) {
			return models.Course{}, apperr.Validation("content type must be PDF, Video, or Link")
		}
		set["modules.$[m].lessons.$[l].content_type"] = *mut.ContentType
	}
	if mut.ContentURL != nil {
		u := strings.TrimSpace(*mut.ContentURL)
		if u == "" {
			return models.Course{}, apperr.Validation("content url is required")
		}
		set["modules.$[m].lessons.$[l].content_url"] = u
	}
	if mut.Order != nil {
		set["modules.$[m].lessons.$[l].order"] = *mut.Order
	}

	return s.findOneAndUpdate(ctx,
		bson.M{"_id": courseID, "trainer_id": trainerID, "is_deleted": false},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"m._id": moduleID}, bson.M{"l._id": lessonID}},
		}))
}

// SoftDeleteLesson flags an active lesson as deleted.
func (s *Store) SoftDeleteLesson(ctx context.Context, courseID, trainerID, moduleID, lessonID primitive.ObjectID) (models.Course, error) {
	if _, err := s.activeLesson(ctx, courseID, trainerID, moduleID, lessonID); err != nil {
		return models.Course{}, err
	}

	now := time.Now().UTC()
	return s.findOneAndUpdate(ctx,
		bson.M{"_id": courseID, "trainer_id": trainerID, "is_deleted": false},
		bson.M{"$set": bson.M{
			"modules.$[m].lessons.$[l].is_deleted": true,
			"modules.$[m].lessons.$[l].deleted_at": now,
			"modules.$[m].lessons.$[l].updated_at": now,
			"updated_at":                           now,
		}},
		options.FindOneAndUpdate().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"m._id": moduleID}, bson.M{"l._id": lessonID}},
		}))
}

// RestoreLesson clears the deletion flag on a soft-deleted lesson inside an
// active module.
func (s *Store) RestoreLesson(ctx context.Context, courseID, trainerID, moduleID, lessonID primitive.ObjectID) (models.Course, error) {
	mod, err := s.activeModule(ctx, courseID, trainerID, moduleID)
	if err != nil {
		return models.Course{}, err
	}
	lesson := mod.LessonByID(lessonID)
	if lesson == nil || !lesson.IsDeleted {
		return models.Course{}, apperr.NotFound("lesson not found in trash")
	}

	now := time.Now().UTC()
	return s.findOneAndUpdate(ctx,
		bson.M{"_id": courseID, "trainer_id": trainerID, "is_deleted": false},
		bson.M{
			"$set": bson.M{
				"modules.$[m].lessons.$[l].is_deleted": false,
				"modules.$[m].lessons.$[l].updated_at": now,
				"updated_at":                           now,
			},
			"$unset": bson.M{"modules.$[m].lessons.$[l].deleted_at": ""},
		},
		options.FindOneAndUpdate().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"m._id": moduleID}, bson.M{"l._id": lessonID}},
		}))
}

/* ------------------------------- internals ------------------------------- */

// activeModule loads the course and resolves an active (non-deleted) module.
func (s *Store) activeModule(ctx context.Context, courseID, trainerID, moduleID primitive.ObjectID) (*models.Module, error) {
	course, err := s.GetActiveOwned(ctx, courseID, trainerID)
	if err != nil {
		return nil, err
	}
	mod := course.ModuleByID(moduleID)
	if mod == nil || mod.IsDeleted {
		return nil, apperr.NotFound("module not found")
	}
	return mod, nil
}

// activeLesson resolves an active lesson inside an active module.
func (s *Store) activeLesson(ctx context.Context, courseID, trainerID, moduleID, lessonID primitive.ObjectID) (*models.Lesson, error) {
	mod, err := s.activeModule(ctx, courseID, trainerID, moduleID)
	if err != nil {
		return nil, err
	}
	lesson := mod.LessonByID(lessonID)
	if lesson == nil || lesson.IsDeleted {
		return nil, apperr.NotFound("lesson not found")
	}
	return lesson, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Course, error) {
	var course models.Course
	err := s.c.FindOne(ctx, filter).Decode(&course)
	if err == mongo.ErrNoDocuments {
		return models.Course{}, apperr.NotFound("course not found")
	}
	if err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (s *Store) findOneAndUpdate(ctx context.Context, filter, update bson.M, opts *options.FindOneAndUpdateOptions) (models.Course, error) {
	if opts == nil {
		opts = options.FindOneAndUpdate()
	}
	opts.SetReturnDocument(options.After)

	var course models.Course
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&course)
	if err == mongo.ErrNoDocuments {
		return models.Course{}, apperr.NotFound("course not found")
	}
	if err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Course, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var courses []models.Course
	if err := cur.All(ctx, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}
