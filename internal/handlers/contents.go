package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davidashby/verba/internal/auth"
	"github.com/davidashby/verba/internal/models"
	"github.com/davidashby/verba/internal/services"
	pkghttp "github.com/davidashby/verba/pkg/http"
)

// ContentServiceInterface defines the interface for course content logic
type ContentServiceInterface interface {
	ListByCourse(ctx context.Context, actor *models.TokenClaims, courseID string) ([]*models.CourseContent, error)
	Get(ctx context.Context, actor *models.TokenClaims, contentID string) (*models.CourseContent, error)
	Create(ctx context.Context, actor *models.TokenClaims, courseID string, in services.ContentInput) (*models.CourseContent, error)
	Complete(ctx context.Context, actor *models.TokenClaims, contentID string) error
	Delete(ctx context.Context, actor *models.TokenClaims, contentID string) error
}

// ContentHandler handles course content HTTP requests.
type ContentHandler struct {
	service ContentServiceInterface
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(service ContentServiceInterface) *ContentHandler {
	return &ContentHandler{service: service}
}

// ContentRequest represents the request body for adding course content
type ContentRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	ContentType string  `json:"content_type" validate:"required,oneof=text video audio document image"`
	ContentURL  *string `json:"content_url" validate:"omitempty,url"`
	ContentText *string `json:"content_text" validate:"omitempty,max=50000"`
	OrderIndex  int     `json:"order_index" validate:"gte=0"`
}

// ListByCourse returns a course's contents in lesson order.
func (h *ContentHandler) ListByCourse(w http.ResponseWriter, r *http.Request) {
	contents, err := h.service.ListByCourse(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		writeCourseError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"contents": contents})
}

// Get returns a single content item.
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	content, err := h.service.Get(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "contentID"))
	if err != nil {
		writeCourseError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, content)
}

// Complete marks a content item as finished by the caller.
func (h *ContentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Complete(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "contentID")); err != nil {
		writeCourseError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Content marked complete"})
}

// Create attaches a content item to a course.
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	content, err := h.service.Create(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "id"), services.ContentInput{
		Title:       req.Title,
		ContentType: models.ContentType(req.ContentType),
		ContentURL:  req.ContentURL,
		ContentText: req.ContentText,
		OrderIndex:  req.OrderIndex,
	})
	if err != nil {
		writeCourseError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, content)
}

// Delete removes a content item.
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "contentID")); err != nil {
		writeCourseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
