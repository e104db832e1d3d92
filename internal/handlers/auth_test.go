package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidashby/verba/internal/auth"
	"github.com/davidashby/verba/internal/models"
	"github.com/davidashby/verba/internal/services"
)

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func withClaims(req *http.Request, claims *models.TokenClaims) *http.Request {
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

func TestLoginHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"invalid credentials", models.ErrInvalidCredentials, http.StatusUnauthorized},
		{"locked account", models.ErrAccountLocked, http.StatusForbidden},
		{"totp required", models.ErrTOTPRequired, http.StatusUnauthorized},
		{"totp invalid", models.ErrTOTPInvalid, http.StatusUnauthorized},
		{"internal error", models.ErrInternalServer, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockAuthService{
				LoginFunc: func(ctx context.Context, email, password, totpCode, ipAddress string) (*services.AuthResponse, error) {
					return nil, tt.serviceErr
				},
			}
			h := NewAuthHandler(svc, nil)

			rec := postJSON(t, h.Login, "/api/v1/auth/login", LoginRequest{
				Email:    "learner@example.com",
				Password: "CorrectHorse1!",
			})
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestLoginHandler_Success(t *testing.T) {
	svc := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, totpCode, ipAddress string) (*services.AuthResponse, error) {
			assert.Equal(t, "learner@example.com", email)
			return &services.AuthResponse{
				AccessToken:  "access",
				RefreshToken: "refresh",
				User:         &services.UserResponse{Email: email},
			}, nil
		},
	}
	h := NewAuthHandler(svc, nil)

	rec := postJSON(t, h.Login, "/api/v1/auth/login", LoginRequest{
		Email:    "learner@example.com",
		Password: "CorrectHorse1!",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp services.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "access", resp.AccessToken)
	assert.Equal(t, "refresh", resp.RefreshToken)
}

func TestLoginHandler_RejectsMalformedBody(t *testing.T) {
	h := NewAuthHandler(&MockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginHandler_RequiresEmailAndPassword(t *testing.T) {
	h := NewAuthHandler(&MockAuthService{}, nil)

	rec := postJSON(t, h.Login, "/api/v1/auth/login", LoginRequest{Email: "not-an-email", Password: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h.Login, "/api/v1/auth/login", LoginRequest{Email: "a@b.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterHandler_DuplicateEmailIs409(t *testing.T) {
	svc := &MockAuthService{
		RegisterFunc: func(ctx context.Context, in services.RegisterInput) (*services.UserResponse, error) {
			return nil, models.ErrConflict
		},
	}
	h := NewAuthHandler(svc, nil)

	rec := postJSON(t, h.Register, "/api/v1/auth/register", RegisterRequest{
		Email:     "learner@example.com",
		Password:  "CorrectHorse1!",
		FirstName: "Dana",
		LastName:  "Reyes",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterHandler_RejectsAdminRole(t *testing.T) {
	h := NewAuthHandler(&MockAuthService{}, nil)

	rec := postJSON(t, h.Register, "/api/v1/auth/register", RegisterRequest{
		Email:     "learner@example.com",
		Password:  "CorrectHorse1!",
		FirstName: "Dana",
		LastName:  "Reyes",
		Role:      "admin",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"bad token", models.ErrUnauthenticated, http.StatusUnauthorized},
		{"deleted user", models.ErrUserNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockAuthService{
				RefreshFunc: func(ctx context.Context, refreshToken string) (*services.RefreshResponse, error) {
					return nil, tt.serviceErr
				},
			}
			h := NewAuthHandler(svc, nil)

			rec := postJSON(t, h.Refresh, "/api/v1/auth/refresh", RefreshRequest{RefreshToken: "token"})
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestLogoutHandler_RequiresClaims(t *testing.T) {
	h := NewAuthHandler(&MockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutHandler_Success(t *testing.T) {
	var loggedOut string
	svc := &MockAuthService{
		LogoutFunc: func(ctx context.Context, userID string) (bool, error) {
			loggedOut = userID
			return true, nil
		},
	}
	h := NewAuthHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = withClaims(req, &models.TokenClaims{UserID: "user-1", Role: models.RoleStudent})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", loggedOut)
}

func TestForgotPasswordHandler_AlwaysAccepted(t *testing.T) {
	svc := &MockAuthService{
		RequestPasswordResetFunc: func(ctx context.Context, email string) error {
			// Unknown emails are silently accepted by the service.
			return nil
		},
	}
	h := NewAuthHandler(svc, nil)

	rec := postJSON(t, h.ForgotPassword, "/api/v1/auth/forgot-password", ForgotPasswordRequest{Email: "anyone@example.com"})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestResetPasswordHandler_BadTokenIs401(t *testing.T) {
	svc := &MockAuthService{
		ConfirmPasswordResetFunc: func(ctx context.Context, token, newPassword string) error {
			return models.ErrUnauthenticated
		},
	}
	h := NewAuthHandler(svc, nil)

	rec := postJSON(t, h.ResetPassword, "/api/v1/auth/reset-password", ResetPasswordRequest{
		Token:       "stale",
		NewPassword: "CorrectHorse1!",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
