// internal/app/features/enrollments/routes.go
package enrollments

import (
	"github.com/coursebridge/coursebridge/internal/app/system/auth"
	"github.com/coursebridge/coursebridge/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all enrollment routes under the base path
// (typically "/enrollments" from bootstrap).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Administration: who is enrolled where.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleAdmin))

		pr.Get("/admin", h.ServeAll)
		pr.Post("/admin", h.HandleEnroll)
		pr.Delete("/admin/{enrollmentID}", h.HandleRemove)
		pr.Get("/admin/course/{courseID}", h.ServeByCourse)
	})

	// Learning: a learner's own enrollments and progress.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleLearner))

		pr.Get("/learner/courses", h.ServeEnrolledCourses)
		pr.Get("/learner/courses/{courseID}/structure", h.ServeLearningStructure)
		pr.Get("/learner/courses/{courseID}/progress", h.ServeProgress)
		pr.Get("/learner/courses/{courseID}/resume", h.ServeResume)
		pr.Post("/learner/courses/{courseID}/lessons/{lessonID}/complete", h.HandleMarkComplete)
		pr.Patch("/learner/courses/{courseID}/last-accessed", h.HandleUpdateLastAccessed)
	})

	return r
}
