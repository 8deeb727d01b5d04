// internal/app/features/courses/trash.go
package courses

import (
	"context"
	"net/http"

	"github.com/coursebridge/coursebridge/internal/app/system/auth"
	"github.com/coursebridge/coursebridge/internal/app/system/httpjson"
	"github.com/coursebridge/coursebridge/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleSoftDelete moves an active course to the trash bin.
//
// Route: DELETE /courses/{courseID}
func (h *Handler) HandleSoftDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, err := paramID(r, "courseID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	course, err := h.Courses.SoftDelete(ctx, courseID, u.ID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	h.Log.Info("course moved to trash", zap.String("course_id", courseID.Hex()))
	httpjson.OKMessage(w, "course moved to trash", course)
}

// HandleRestore brings a course back from the trash bin. Modules and
// lessons that were independently soft-deleted stay deleted.
//
// Route: PATCH /courses/{courseID}/restore
func (h *Handler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, err := paramID(r, "courseID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	course, err := h.Courses.Restore(ctx, courseID, u.ID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	httpjson.OKMessage(w, "course restored", course)
}

// ServeTrash lists the caller's soft-deleted courses.
//
// Route: GET /courses/trash/list
func (h *Handler) ServeTrash(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	list, err := h.Courses.ListTrash(ctx, u.ID)
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}
	httpjson.List(w, len(list), list)
}

// HandlePermanentDelete irreversibly removes a course that is already in
// the trash.
//
// Route: DELETE /courses/{courseID}/permanent
func (h *Handler) HandlePermanentDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	courseID, err := paramID(r, "courseID")
	if err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	if err := h.Courses.PermanentDelete(ctx, courseID, u.ID); err != nil {
		httpjson.Fail(w, h.Log, err)
		return
	}

	h.Log.Info("course permanently deleted", zap.String("course_id", courseID.Hex()))
	httpjson.OKMessage(w, "course permanently deleted", nil)
}
