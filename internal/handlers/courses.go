package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davidashby/verba/internal/auth"
	"github.com/davidashby/verba/internal/models"
	"github.com/davidashby/verba/internal/services"
	pkghttp "github.com/davidashby/verba/pkg/http"
)

// CourseServiceInterface defines the interface for course business logic
type CourseServiceInterface interface {
	List(ctx context.Context, actor *models.TokenClaims, filter models.CourseFilter) ([]*models.Course, error)
	Get(ctx context.Context, actor *models.TokenClaims, id string) (*models.Course, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, actor *models.TokenClaims, in services.CourseInput) (*models.Course, error)
	Update(ctx context.Context, actor *models.TokenClaims, id string, in services.CourseInput) (*models.Course, error)
	SetPublished(ctx context.Context, actor *models.TokenClaims, id string, published bool) (*models.Course, error)
	Delete(ctx context.Context, actor *models.TokenClaims, id string) error
	Enroll(ctx context.Context, actor *models.TokenClaims, courseID string) (*models.Enrollment, error)
	Unenroll(ctx context.Context, actor *models.TokenClaims, courseID string) error
	MyEnrollments(ctx context.Context, actor *models.TokenClaims) ([]*models.Enrollment, error)
	Roster(ctx context.Context, actor *models.TokenClaims, courseID string) ([]*models.Enrollment, error)
}

// CourseHandler handles course and enrollment HTTP requests.
type CourseHandler struct {
	service CourseServiceInterface
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(service CourseServiceInterface) *CourseHandler {
	return &CourseHandler{service: service}
}

// CourseRequest represents the request body for creating or updating a course
type CourseRequest struct {
	Title             string  `json:"title" validate:"required,min=1,max=200"`
	Description       *string `json:"description" validate:"omitempty,max=5000"`
	DifficultyLevel   string  `json:"difficulty_level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Category          *string `json:"category" validate:"omitempty,max=100"`
	EstimatedDuration *int    `json:"estimated_duration" validate:"omitempty,gte=1"`
	ImageURL          *string `json:"image_url" validate:"omitempty,url"`
}

// PublishRequest represents the request body for publish state changes
type PublishRequest struct {
	Published bool `json:"published"`
}

func (h *CourseHandler) courseFilter(r *http.Request) models.CourseFilter {
	var filter models.CourseFilter
	if d := r.URL.Query().Get("difficulty"); d != "" {
		level := models.DifficultyLevel(d)
		filter.Difficulty = &level
	}
	if c := r.URL.Query().Get("category"); c != "" {
		filter.Category = &c
	}
	return filter
}

// List returns the courses visible to the caller.
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.List(r.Context(), auth.GetUserFromContext(r), h.courseFilter(r))
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"courses": courses})
}

// Get returns one course.
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	course, err := h.service.Get(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		writeCourseError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, course)
}

// Categories lists the distinct categories of published courses.
func (h *CourseHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// Create authors a new course.
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	course, err := h.service.Create(r.Context(), auth.GetUserFromContext(r), courseInput(req))
	if err != nil {
		writeCourseError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, course)
}

// Update edits an existing course.
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req CourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	course, err := h.service.Update(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "id"), courseInput(req))
	if err != nil {
		writeCourseError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, course)
}

// SetPublished flips a course's publish state.
func (h *CourseHandler) SetPublished(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	course, err := h.service.SetPublished(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "id"), req.Published)
	if err != nil {
		writeCourseError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, course)
}

// Delete removes a course.
func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "id")); err != nil {
		writeCourseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Enroll adds the caller to a course.
func (h *CourseHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	enrollment, err := h.service.Enroll(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			pkghttp.WriteConflict(w, "Already enrolled in this course")
			return
		}
		writeCourseError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, enrollment)
}

// Unenroll drops the caller from a course.
func (h *CourseHandler) Unenroll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Unenroll(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "id")); err != nil {
		writeCourseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MyEnrollments lists the caller's enrollments.
func (h *CourseHandler) MyEnrollments(w http.ResponseWriter, r *http.Request) {
	enrollments, err := h.service.MyEnrollments(r.Context(), auth.GetUserFromContext(r))
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"enrollments": enrollments})
}

// Roster lists a course's enrollments for its manager.
func (h *CourseHandler) Roster(w http.ResponseWriter, r *http.Request) {
	enrollments, err := h.service.Roster(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		writeCourseError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"enrollments": enrollments})
}

func courseInput(req CourseRequest) services.CourseInput {
	return services.CourseInput{
		Title:             req.Title,
		Description:       req.Description,
		Difficulty:        models.DifficultyLevel(req.DifficultyLevel),
		Category:          req.Category,
		EstimatedDuration: req.EstimatedDuration,
		ImageURL:          req.ImageURL,
	}
}

// writeCourseError maps the shared course/content/exercise error set to
// HTTP statuses.
func writeCourseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Course not found")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "You do not have permission to perform this action")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request data")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
