package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davidashby/verba/internal/auth"
	"github.com/davidashby/verba/internal/models"
	pkghttp "github.com/davidashby/verba/pkg/http"
)

// ProgressServiceInterface defines the interface for progress reads
type ProgressServiceInterface interface {
	Get(ctx context.Context, actor *models.TokenClaims, courseID string) (*models.Progress, error)
	ListByCourse(ctx context.Context, actor *models.TokenClaims, courseID string) ([]*models.Progress, error)
}

// ProgressHandler handles progress tracking HTTP requests.
type ProgressHandler struct {
	service ProgressServiceInterface
}

// NewProgressHandler creates a new ProgressHandler
func NewProgressHandler(service ProgressServiceInterface) *ProgressHandler {
	return &ProgressHandler{service: service}
}

// Get returns the caller's progress in one course.
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	progress, err := h.service.Get(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		writeCourseError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, progress)
}

// ListByCourse returns every learner's progress in a course the caller
// manages.
func (h *ProgressHandler) ListByCourse(w http.ResponseWriter, r *http.Request) {
	progress, err := h.service.ListByCourse(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		writeCourseError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"progress": progress})
}
