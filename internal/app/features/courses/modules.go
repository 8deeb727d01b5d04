// internal/app/features/courses/modules.go
package courses

import (
	"context"
	"net/http"

	coursestore "github.com/coursebridge/coursebridge/internal/app/store/courses"
	"github.com/coursebridge/coursebridge/internal/app/system/auth"
	"github.com/coursebridge/coursebridge/internal/app/system/httpjson"
	"github.com/coursebridge/coursebridge/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleAddModule appends a module to the end of a course's active
// modules.
//
// Route: POST /courses/{courseID}/modules
func (h *Handler) HandleAddModule(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, err := paramID(r, "courseID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	var req addModuleRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	course, err := h.Courses.AddModule(ctx, courseID, u.ID, req.Title)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	h.Log.Info("module added",
		zap.String("course_id", courseID.Hex()),
		zap.String("title", req.Title))
	httpjson.Created(w, course)
}

// HandleUpdateModule applies a partial update to an active module.
//
// Route: PUT /courses/{courseID}/modules/{moduleID}
func (h *Handler) HandleUpdateModule(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, err := paramID(r, "courseID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	moduleID, err := paramID(r, "moduleID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	var req updateModuleRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	course, err := h.Courses.UpdateModule(ctx, courseID, u.ID, moduleID, coursestore.ModuleUpdate{
		Title: req.Title,
		Order: req.Order,
	})
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	httpjson.OK(w, course)
}

// HandleSoftDeleteModule hides a module from learners without touching
// its lessons or the orders of its siblings.
//
// Route: DELETE /courses/{courseID}/modules/{moduleID}
func (h *Handler) HandleSoftDeleteModule(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, err := paramID(r, "courseID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	moduleID, err := paramID(r, "moduleID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	course, err := h.Courses.SoftDeleteModule(ctx, courseID, u.ID, moduleID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	h.Log.Info("module deleted",
		zap.String("course_id", courseID.Hex()),
		zap.String("module_id", moduleID.Hex()))
	httpjson.OKMessage(w, "module deleted", course)
}

// HandleRestoreModule undeletes a module. Lessons deleted on their own
// remain deleted.
//
// Route: PATCH /courses/{courseID}/modules/{moduleID}/restore
func (h *Handler) HandleRestoreModule(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, err := paramID(r, "courseID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	moduleID, err := paramID(r, "moduleID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	course, err := h.Courses.RestoreModule(ctx, courseID, u.ID, moduleID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	httpjson.OKMessage(w, "module restored", course)
}
