// internal/app/store/enrollments/enrollmentstore.go
package enrollmentstore

// Concurrency note: the hazard here is two mark-complete calls racing on
// one enrollment document. Lesson ids are unioned with an atomic $addToSet
// so no completion can be lost, and the derived progress fields are written
// behind a progress_version filter so a stale recompute never overwrites a
// newer one. Callers retry on a version miss (see ApplyProgress).

import (
	"context"
	"time"

	"github.com/coursebridge/coursebridge/internal/app/system/apperr"
	"github.com/coursebridge/coursebridge/internal/domain/models"
	"github.com/coursebridge/coursebridge/internal/domain/progress"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("enrollments")}
}

// Create inserts a fresh enrollment with zeroed progress. The unique
// (learner_id, course_id) index turns a duplicate pair into Conflict even
// when two enroll requests race.
func (s *Store) Create(ctx context.Context, learnerID, courseID, enrolledBy primitive.ObjectID) (models.Enrollment, error) {
	now := time.Now().UTC()
	e := models.Enrollment{
		ID:         primitive.NewObjectID(),
		LearnerID:  learnerID,
		CourseID:   courseID,
		EnrolledBy: enrolledBy,
		EnrolledAt: now,
		Status:     models.EnrollmentStatusActive,
		Progress:   models.NewProgress(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Enrollment{}, apperr.Conflict("learner is already enrolled in this course")
		}
		return models.Enrollment{}, err
	}
	return e, nil
}

// GetByID returns an enrollment by id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Enrollment, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByLearnerAndCourse returns the enrollment for a (learner, course)
// pair. Learner-facing operations use this to enforce "enrolled or
// Forbidden".
func (s *Store) GetByLearnerAndCourse(ctx context.Context, learnerID, courseID primitive.ObjectID) (models.Enrollment, error) {
	var e models.Enrollment
	err := s.c.FindOne(ctx, bson.M{"learner_id": learnerID, "course_id": courseID}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return models.Enrollment{}, apperr.Forbidden("not enrolled in this course")
	}
	if err != nil {
		return models.Enrollment{}, err
	}
	return e, nil
}

// Exists reports whether the (learner, course) pair is already enrolled.
func (s *Store) Exists(ctx context.Context, learnerID, courseID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"learner_id": learnerID, "course_id": courseID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete hard-deletes an enrollment. Enrollments have no trash state.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("enrollment not found")
	}
	return nil
}

// ListByCourse returns a course's enrollments, newest first.
func (s *Store) ListByCourse(ctx context.Context, courseID primitive.ObjectID) ([]models.Enrollment, error) {
	return s.find(ctx, bson.M{"course_id": courseID},
		options.Find().SetSort(bson.D{{Key: "enrolled_at", Value: -1}}))
}

// ListByLearner returns a learner's enrollments, most recently accessed
// first, then most recently enrolled.
func (s *Store) ListByLearner(ctx context.Context, learnerID primitive.ObjectID) ([]models.Enrollment, error) {
	return s.find(ctx, bson.M{"learner_id": learnerID},
		options.Find().SetSort(bson.D{
			{Key: "progress.last_accessed_at", Value: -1},
			{Key: "enrolled_at", Value: -1},
		}))
}

// ListAll returns every enrollment, newest first (admin overview).
func (s *Store) ListAll(ctx context.Context) ([]models.Enrollment, error) {
	return s.find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "enrolled_at", Value: -1}}))
}

/* --------------------------- progress mutation ---------------------------- */

// AddCompletedLesson unions the lesson id into completed_lessons and stamps
// the last-accessed fields, atomically, returning the updated document.
// $addToSet makes the call idempotent at the storage level and guarantees
// the final set is the union of all concurrent callers' ids.
func (s *Store) AddCompletedLesson(ctx context.Context, id, lessonID, moduleID primitive.ObjectID) (models.Enrollment, error) {
	now := time.Now().UTC()

	var e models.Enrollment
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$addToSet": bson.M{"progress.completed_lessons": lessonID},
			"$set": bson.M{
				"progress.last_accessed_lesson_id": lessonID,
				"progress.last_accessed_module_id": moduleID,
				"progress.last_accessed_at":        now,
				"updated_at":                       now,
			},
			"$inc": bson.M{"progress_version": 1},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return models.Enrollment{}, apperr.NotFound("enrollment not found")
	}
	if err != nil {
		return models.Enrollment{}, err
	}
	return e, nil
}

// ApplyProgress writes the derived fields computed from the document at
// fromVersion. Returns false (without writing) when the document has moved
// on; the caller re-reads and recomputes. New module ids are unioned with
// $addToSet/$each so completed_modules stays append-only across racers.
//
// The status transition rides along only when markCompleted is set; the
// version filter makes the completed_at stamp exactly-once.
func (s *Store) ApplyProgress(ctx context.Context, id primitive.ObjectID, fromVersion int64, res progress.Result, markCompleted bool) (bool, error) {
	now := time.Now().UTC()

	set := bson.M{
		"progress.course_progress": res.CourseProgress,
		"updated_at":               now,
	}
	if markCompleted {
		set["status"] = models.EnrollmentStatusCompleted
		set["completed_at"] = now
	}

	update := bson.M{
		"$set": set,
		"$inc": bson.M{"progress_version": 1},
	}
	if len(res.NewCompletedModules) > 0 {
		update["$addToSet"] = bson.M{
			"progress.completed_modules": bson.M{"$each": res.NewCompletedModules},
		}
	}

	r, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "progress_version": fromVersion}, update)
	if err != nil {
		return false, err
	}
	return r.MatchedCount == 1, nil
}

// SetLastAccessed stamps the last-accessed fields unconditionally. Used for
// resume tracking only; derived progress is untouched.
func (s *Store) SetLastAccessed(ctx context.Context, id, lessonID primitive.ObjectID, moduleID *primitive.ObjectID) (models.Enrollment, error) {
	now := time.Now().UTC()
	set := bson.M{
		"progress.last_accessed_lesson_id": lessonID,
		"progress.last_accessed_at":        now,
		"updated_at":                       now,
	}
	if moduleID != nil {
		set["progress.last_accessed_module_id"] = *moduleID
	}

	var e models.Enrollment
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set, "$inc": bson.M{"progress_version": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return models.Enrollment{}, apperr.NotFound("enrollment not found")
	}
	if err != nil {
		return models.Enrollment{}, err
	}
	return e, nil
}

// TouchLastAccessed stamps only last_accessed_at (course opened, no
// specific lesson).
func (s *Store) TouchLastAccessed(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"progress.last_accessed_at": now, "updated_at": now},
	})
	return err
}

/* ------------------------------- internals ------------------------------- */

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Enrollment, error) {
	var e models.Enrollment
	err := s.c.FindOne(ctx, filter).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return models.Enrollment{}, apperr.NotFound("enrollment not found")
	}
	if err != nil {
		return models.Enrollment{}, err
	}
	return e, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Enrollment, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Enrollment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
