// internal/app/system/indexes/indexes.go

// Package indexes ensures the Mongo indexes the stores rely on. EnsureAll
// runs at startup and is idempotent; problems are aggregated so startup can
// fail fast with everything that is wrong.
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureAll creates the index set for every collection.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureCourses(ctx, db); err != nil {
		problems = append(problems, "courses: "+err.Error())
	}
	if err := ensureEnrollments(ctx, db); err != nil {
		problems = append(problems, "enrollments: "+err.Error())
	}
	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureCourses(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("courses").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "trainer_id", Value: 1}, {Key: "is_deleted", Value: 1}},
			Options: options.Index().SetName("trainer_active"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "is_deleted", Value: 1}},
			Options: options.Index().SetName("status_active"),
		},
	})
	return err
}

func ensureEnrollments(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("enrollments").Indexes().CreateMany(ctx, []mongo.IndexModel{
		// One enrollment per (learner, course). The enroll operation relies
		// on this for its Conflict guarantee under concurrent requests.
		{
			Keys:    bson.D{{Key: "learner_id", Value: 1}, {Key: "course_id", Value: 1}},
			Options: options.Index().SetName("learner_course_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "course_id", Value: 1}},
			Options: options.Index().SetName("by_course"),
		},
		{
			Keys:    bson.D{{Key: "enrolled_by", Value: 1}},
			Options: options.Index().SetName("by_enroller"),
		},
	})
	return err
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "role", Value: 1}},
			Options: options.Index().SetName("by_role"),
		},
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetName("email_ci_unique").SetUnique(true).SetSparse(true),
		},
	})
	return err
}
