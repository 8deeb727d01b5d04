package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/coursebridge/coursebridge/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Repeated calls accumulate parameters on the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:        primitive.NewObjectID(),
		FullName:  fullName,
		Email:     email,
		EmailCI:   text.Fold(email),
		Role:      role,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTrainer creates a test user with the trainer role.
func (f *Fixtures) CreateTrainer(ctx context.Context) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, "Test Trainer", "trainer@test.com", models.RoleTrainer)
}

// CreateLearner creates a test user with the learner role.
func (f *Fixtures) CreateLearner(ctx context.Context) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, "Test Learner", "learner@test.com", models.RoleLearner)
}

// CreateAdmin creates a test user with the admin role.
func (f *Fixtures) CreateAdmin(ctx context.Context) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, "Test Admin", "admin@test.com", models.RoleAdmin)
}

// CreateCourse inserts a draft course owned by the trainer, with no modules.
func (f *Fixtures) CreateCourse(ctx context.Context, trainerID primitive.ObjectID, title string) models.Course {
	f.t.Helper()

	now := time.Now().UTC()
	course := models.Course{
		ID:        primitive.NewObjectID(),
		Title:     title,
		TitleCI:   text.Fold(title),
		TrainerID: trainerID,
		Status:    models.CourseStatusDraft,
		Modules:   []models.Module{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("courses").InsertOne(ctx, course); err != nil {
		f.t.Fatalf("failed to create test course: %v", err)
	}
	return course
}

// CreatePublishedCourse inserts a published course with the given module
// layout: one module per entry, holding that many Video lessons. Orders
// follow insertion position.
func (f *Fixtures) CreatePublishedCourse(ctx context.Context, trainerID primitive.ObjectID, title string, lessonsPerModule ...int) models.Course {
	f.t.Helper()

	now := time.Now().UTC()
	modules := make([]models.Module, 0, len(lessonsPerModule))
	for mi, n := range lessonsPerModule {
		m := models.Module{
			ID:        primitive.NewObjectID(),
			Title:     "Module " + string(rune('A'+mi)),
			Order:     mi,
			Lessons:   make([]models.Lesson, 0, n),
			CreatedAt: now,
			UpdatedAt: now,
		}
		for li := 0; li < n; li++ {
			m.Lessons = append(m.Lessons, models.Lesson{
				ID:          primitive.NewObjectID(),
				Title:       "Lesson",
				ContentType: models.ContentTypeVideo,
				ContentURL:  "https://videos.test/lesson",
				Order:       li,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
		modules = append(modules, m)
	}

	course := models.Course{
		ID:        primitive.NewObjectID(),
		Title:     title,
		TitleCI:   text.Fold(title),
		TrainerID: trainerID,
		Status:    models.CourseStatusPublished,
		Modules:   modules,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("courses").InsertOne(ctx, course); err != nil {
		f.t.Fatalf("failed to create test course: %v", err)
	}
	return course
}

// CreateEnrollment inserts an active enrollment with zeroed progress.
func (f *Fixtures) CreateEnrollment(ctx context.Context, learnerID, courseID, enrolledBy primitive.ObjectID) models.Enrollment {
	f.t.Helper()

	now := time.Now().UTC()
	enr := models.Enrollment{
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

	if _, err := f.db.Collection("enrollments").InsertOne(ctx, enr); err != nil {
		f.t.Fatalf("failed to create test enrollment: %v", err)
	}
	return enr
}
