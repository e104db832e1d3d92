package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/davidashby/verba/internal/auth"
	"github.com/davidashby/verba/internal/models"
	"github.com/davidashby/verba/internal/services"
	pkghttp "github.com/davidashby/verba/pkg/http"
)

// UserServiceInterface defines the interface for admin user operations
type UserServiceInterface interface {
	List(ctx context.Context, limit, offset int) ([]*services.UserResponse, error)
	Get(ctx context.Context, id string) (*services.UserResponse, error)
	Unlock(ctx context.Context, adminID, userID string) error
	Delete(ctx context.Context, adminID, userID string) error
}

// UserHandler handles admin-only user administration endpoints.
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// List returns a page of users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

// Get returns one user by id.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, user)
}

// Unlock clears a login-attempt lock so the user can sign in again.
func (h *UserHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Unlock(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Account unlocked"})
}

// Delete removes a user account.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Delete(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		switch {
		case errors.Is(err, models.ErrUserNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "Cannot delete your own account")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
