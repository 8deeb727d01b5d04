// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	coursesfeature "github.com/coursebridge/coursebridge/internal/app/features/courses"
	enrollmentsfeature "github.com/coursebridge/coursebridge/internal/app/features/enrollments"
	healthfeature "github.com/coursebridge/coursebridge/internal/app/features/health"
	"github.com/coursebridge/coursebridge/internal/app/system/auth"
	"github.com/coursebridge/coursebridge/internal/app/system/events"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. CourseBridge mounts the health check,
// the course authoring API, and the enrollment/progress API. Identity is
// resolved from gateway headers by auth.LoadIdentity; role enforcement
// happens per route group inside each feature.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	notifier := events.NewNotifier(logger)

	r := chi.NewRouter()

	// Global auth middleware: parses the gateway identity headers into the
	// request context so handlers can call auth.CurrentUser(r).
	r.Use(auth.LoadIdentity)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Course authoring: the course/module/lesson tree and the trash bin
	coursesHandler := coursesfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/courses", coursesfeature.Routes(coursesHandler))

	// Enrollment administration and learner progress
	enrollmentsHandler := enrollmentsfeature.NewHandler(deps.MongoDatabase, notifier, logger)
	r.Mount("/enrollments", enrollmentsfeature.Routes(enrollmentsHandler))

	return r, nil
}
