// internal/app/features/courses/handler.go
package courses

import (
	"net/http"

	coursestore "github.com/coursebridge/coursebridge/internal/app/store/courses"
	"github.com/coursebridge/coursebridge/internal/app/system/apperr"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for course authoring: the
// course/module/lesson tree, publish toggling, and the trash bin.
type Handler struct {
	Courses *coursestore.Store
	Log     *zap.Logger
}

// NewHandler constructs a courses handler bound to a DB and logger.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Courses: coursestore.New(db),
		Log:     logger,
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

// lessonPath parses the three path IDs shared by the lesson endpoints.
func lessonPath(r *http.Request) (courseID, moduleID, lessonID primitive.ObjectID, err error) {
	if courseID, err = paramID(r, "courseID"); err != nil {
		return
	}
	if moduleID, err = paramID(r, "moduleID"); err != nil {
		return
	}
	lessonID, err = paramID(r, "lessonID")
	return
}
