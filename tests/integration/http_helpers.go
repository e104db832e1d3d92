package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/davidashby/verba/internal/auth"
	"github.com/davidashby/verba/internal/database"
	"github.com/davidashby/verba/internal/handlers"
	"github.com/davidashby/verba/internal/repositories"
	"github.com/davidashby/verba/internal/routes"
	"github.com/davidashby/verba/internal/services"
	pkghttp "github.com/davidashby/verba/pkg/http"
	pkglogger "github.com/davidashby/verba/pkg/logger"
)

// SentEmail represents a captured email message
type SentEmail struct {
	To    string
	Token string
}

// MockEmailService captures reset emails for test assertions
type MockEmailService struct {
	mu         sync.Mutex
	SentEmails []SentEmail
}

func (m *MockEmailService) SendPasswordResetEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentEmails = append(m.SentEmails, SentEmail{To: email, Token: token})
	return nil
}

// LastEmail returns the most recent email sent
func (m *MockEmailService) LastEmail() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.SentEmails) == 0 {
		return nil
	}
	return &m.SentEmails[len(m.SentEmails)-1]
}

// TestServer wraps httptest.Server with database and all dependencies
type TestServer struct {
	Server       *httptest.Server
	DB           *database.DB
	EmailService *MockEmailService
	TokenManager *auth.TokenManager
	Sessions     *repositories.SessionRepository
}

// NewTestServer initializes a complete HTTP server with a real database and
// mocked email. Rate limiting is intentionally left out so tests can hammer
// the login endpoint.
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	auditLogger := pkglogger.NewAuditLogger(logger)

	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	courseRepo := repositories.NewCourseRepository(db)
	contentRepo := repositories.NewContentRepository(db)
	exerciseRepo := repositories.NewExerciseRepository(db)
	enrollmentRepo := repositories.NewEnrollmentRepository(db)
	progressRepo := repositories.NewProgressRepository(db)

	tokenManager := auth.NewTokenManager("test-secret-32-characters-long!!", 15*time.Minute, 7*24*time.Hour)
	totpManager := auth.NewTOTPManager("VerbaTest")
	mockEmail := &MockEmailService{}

	authService := services.NewAuthService(
		userRepo, sessionRepo, tokenManager, totpManager, mockEmail,
		time.Hour, logger, auditLogger,
	)
	userService := services.NewUserService(userRepo, sessionRepo, logger, auditLogger)
	courseService := services.NewCourseService(courseRepo, enrollmentRepo, logger)
	progressService := services.NewProgressService(progressRepo, courseService, logger)
	contentService := services.NewContentService(contentRepo, courseService, progressService, logger)
	exerciseService := services.NewExerciseService(exerciseRepo, courseService, progressService, logger)

	ipConfig := &pkghttp.IPConfig{}
	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	userHandler := handlers.NewUserHandler(userService)
	courseHandler := handlers.NewCourseHandler(courseService)
	contentHandler := handlers.NewContentHandler(contentService)
	exerciseHandler := handlers.NewExerciseHandler(exerciseService)
	progressHandler := handlers.NewProgressHandler(progressService)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Route("/api/v1", func(r chi.Router) {
		routes.RegisterRoutes(
			r,
			authHandler, userHandler, courseHandler,
			contentHandler, exerciseHandler, progressHandler,
			tokenManager, sessionRepo,
			nil, // no auth rate limit: lockout tests hammer the login endpoint
		)
	})

	return &TestServer{
		Server:       httptest.NewServer(router),
		DB:           db,
		EmailService: mockEmail,
		TokenManager: tokenManager,
		Sessions:     sessionRepo,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// DoJSON issues a JSON request and decodes the response body into out (when
// out is non-nil). The returned status code is always valid.
func (ts *TestServer) DoJSON(method, path, accessToken string, body, out any) (int, error) {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, out); err != nil {
				return resp.StatusCode, fmt.Errorf("failed to decode response %q: %w", raw, err)
			}
		}
	}

	return resp.StatusCode, nil
}
