// internal/app/features/enrollments/handler.go
package enrollments

import (
	"net/http"

	coursestore "github.com/coursebridge/coursebridge/internal/app/store/courses"
	enrollmentstore "github.com/coursebridge/coursebridge/internal/app/store/enrollments"
	userstore "github.com/coursebridge/coursebridge/internal/app/store/users"
	"github.com/coursebridge/coursebridge/internal/app/system/apperr"
	"github.com/coursebridge/coursebridge/internal/app/system/events"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for enrollment administration
// and the learner-facing progress endpoints.
type Handler struct {
	Enrollments *enrollmentstore.Store
	Courses     *coursestore.Store
	Users       *userstore.Store
	Notifier    *events.Notifier
	Log         *zap.Logger
}

// NewHandler constructs an enrollments handler bound to a DB, completion
// notifier, and logger.
func NewHandler(db *mongo.Database, notifier *events.Notifier, logger *zap.Logger) *Handler {
	return &Handler{
		Enrollments: enrollmentstore.New(db),
		Courses:     coursestore.New(db),
		Users:       userstore.New(db),
		Notifier:    notifier,
		Log:         logger,
	}
}

// paramID parses a chi URL parameter as an ObjectID.
func paramID(r *http.Request, name string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid " + name)
	}
	return oid, nil
}
