package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davidashby/verba/internal/auth"
	"github.com/davidashby/verba/internal/models"
	"github.com/davidashby/verba/internal/repositories"
	"github.com/davidashby/verba/internal/services"
	pkghttp "github.com/davidashby/verba/pkg/http"
)

// ExerciseServiceInterface defines the interface for exercise logic
type ExerciseServiceInterface interface {
	ListByCourse(ctx context.Context, actor *models.TokenClaims, courseID string) ([]*services.ExerciseView, error)
	Get(ctx context.Context, actor *models.TokenClaims, exerciseID string) (*services.ExerciseView, error)
	Create(ctx context.Context, actor *models.TokenClaims, courseID string, in services.ExerciseInput) (*services.ExerciseView, error)
	Delete(ctx context.Context, actor *models.TokenClaims, exerciseID string) error
	SubmitAttempt(ctx context.Context, actor *models.TokenClaims, exerciseID, answer string, timeTaken *int) (*services.AttemptResult, error)
	Stats(ctx context.Context, actor *models.TokenClaims, courseID string) (*repositories.AttemptStats, error)
}

// ExerciseHandler handles exercise and attempt HTTP requests.
type ExerciseHandler struct {
	service ExerciseServiceInterface
}

// NewExerciseHandler creates a new ExerciseHandler
func NewExerciseHandler(service ExerciseServiceInterface) *ExerciseHandler {
	return &ExerciseHandler{service: service}
}

// ExerciseRequest represents the request body for creating an exercise
type ExerciseRequest struct {
	Title         string   `json:"title" validate:"required,min=1,max=200"`
	ExerciseType  string   `json:"exercise_type" validate:"required"`
	QuestionText  *string  `json:"question_text" validate:"omitempty,max=5000"`
	AudioURL      *string  `json:"audio_url" validate:"omitempty,url"`
	CorrectAnswer *string  `json:"correct_answer" validate:"omitempty,max=1000"`
	Options       []string `json:"options" validate:"omitempty,max=10"`
	Difficulty    string   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Points        int      `json:"points" validate:"gte=0,lte=1000"`
	TimeLimit     *int     `json:"time_limit" validate:"omitempty,gte=5"`
	OrderIndex    int      `json:"order_index" validate:"gte=0"`
}

// AttemptRequest represents the request body for submitting an answer
type AttemptRequest struct {
	Answer    string `json:"answer" validate:"required"`
	TimeTaken *int   `json:"time_taken" validate:"omitempty,gte=0"`
}

// ListByCourse returns a course's exercises with answers stripped.
func (h *ExerciseHandler) ListByCourse(w http.ResponseWriter, r *http.Request) {
	exercises, err := h.service.ListByCourse(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		writeCourseError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"exercises": exercises})
}

// Get returns a single exercise with the answer stripped.
func (h *ExerciseHandler) Get(w http.ResponseWriter, r *http.Request) {
	exercise, err := h.service.Get(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "exerciseID"))
	if err != nil {
		writeCourseError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, exercise)
}

// Create attaches an exercise to a course.
func (h *ExerciseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	exercise, err := h.service.Create(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "id"), services.ExerciseInput{
		Title:         req.Title,
		ExerciseType:  models.ExerciseType(req.ExerciseType),
		QuestionText:  req.QuestionText,
		AudioURL:      req.AudioURL,
		CorrectAnswer: req.CorrectAnswer,
		Options:       req.Options,
		Difficulty:    models.ExerciseDifficulty(req.Difficulty),
		Points:        req.Points,
		TimeLimit:     req.TimeLimit,
		OrderIndex:    req.OrderIndex,
	})
	if err != nil {
		writeCourseError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, exercise)
}

// Delete removes an exercise.
func (h *ExerciseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "exerciseID")); err != nil {
		writeCourseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitAttempt grades an answer and returns the result.
func (h *ExerciseHandler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	var req AttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.SubmitAttempt(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "exerciseID"), req.Answer, req.TimeTaken)
	if err != nil {
		writeCourseError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// Stats summarizes the caller's attempts within one course.
func (h *ExerciseHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), auth.GetUserFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		writeCourseError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, stats)
}
