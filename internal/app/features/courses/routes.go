// internal/app/features/courses/routes.go
package courses

import (
	"github.com/coursebridge/coursebridge/internal/app/system/auth"
	"github.com/coursebridge/coursebridge/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all course authoring routes under the base path
// (typically "/courses" from bootstrap).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Browse endpoints (admins see everything, trainers see their own)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleTrainer, models.RoleAdmin))

		pr.Get("/", h.ServeList)
		pr.Get("/{courseID}", h.ServeGet)
	})

	// Authoring is trainer-only; every mutation is ownership-checked in
	// the store so one trainer cannot touch another's course.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleTrainer))

		// Course CRUD
		pr.Post("/", h.HandleCreate)
		pr.Put("/{courseID}", h.HandleUpdate)
		pr.Patch("/{courseID}/publish", h.HandleTogglePublish)

		// Trash bin
		pr.Get("/trash/list", h.ServeTrash)
		pr.Delete("/{courseID}", h.HandleSoftDelete)
		pr.Patch("/{courseID}/restore", h.HandleRestore)
		pr.Delete("/{courseID}/permanent", h.HandlePermanentDelete)

		// Modules
		pr.Post("/{courseID}/modules", h.HandleAddModule)
		pr.Put("/{courseID}/modules/{moduleID}", h.HandleUpdateModule)
		pr.Delete("/{courseID}/modules/{moduleID}", h.HandleSoftDeleteModule)
		pr.Patch("/{courseID}/modules/{moduleID}/restore", h.HandleRestoreModule)

		// Lessons
		pr.Post("/{courseID}/modules/{moduleID}/lessons", h.HandleAddLesson)
		pr.Put("/{courseID}/modules/{moduleID}/lessons/{lessonID}", h.HandleUpdateLesson)
		pr.Delete("/{courseID}/modules/{moduleID}/lessons/{lessonID}", h.HandleSoftDeleteLesson)
		pr.Patch("/{courseID}/modules/{moduleID}/lessons/{lessonID}/restore", h.HandleRestoreLesson)
	})

	return r
}
