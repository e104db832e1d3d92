package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/davidashby/verba/internal/auth"
	"github.com/davidashby/verba/internal/background"
	"github.com/davidashby/verba/internal/config"
	"github.com/davidashby/verba/internal/database"
	"github.com/davidashby/verba/internal/handlers"
	middlewareCustom "github.com/davidashby/verba/internal/middleware"
	"github.com/davidashby/verba/internal/models"
	"github.com/davidashby/verba/internal/repositories"
	"github.com/davidashby/verba/internal/routes"
	"github.com/davidashby/verba/internal/services"
	pkgauth "github.com/davidashby/verba/pkg/auth"
	pkghttp "github.com/davidashby/verba/pkg/http"
	pkglogger "github.com/davidashby/verba/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	courseRepo := repositories.NewCourseRepository(db)
	contentRepo := repositories.NewContentRepository(db)
	exerciseRepo := repositories.NewExerciseRepository(db)
	enrollmentRepo := repositories.NewEnrollmentRepository(db)
	progressRepo := repositories.NewProgressRepository(db)

	// Token and two-factor managers
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	totpManager := auth.NewTOTPManager(cfg.Auth.TOTPIssuer)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// AWS SES email service
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	emailService, err := services.NewAWSSESEmailService(
		bootCtx,
		cfg.Email.AWSRegion,
		cfg.Email.FromAddress,
		cfg.Email.ResetURLBase,
		logger,
	)
	if err != nil {
		bootCancel()
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	authService := services.NewAuthService(
		userRepo, sessionRepo, tokenManager, totpManager, emailService,
		cfg.Auth.ResetTokenExpiry, logger, auditLogger,
	)
	userService := services.NewUserService(userRepo, sessionRepo, logger, auditLogger)
	courseService := services.NewCourseService(courseRepo, enrollmentRepo, logger)
	progressService := services.NewProgressService(progressRepo, courseService, logger)
	contentService := services.NewContentService(contentRepo, courseService, progressService, logger)
	exerciseService := services.NewExerciseService(exerciseRepo, courseService, progressService, logger)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	userHandler := handlers.NewUserHandler(userService)
	courseHandler := handlers.NewCourseHandler(courseService)
	contentHandler := handlers.NewContentHandler(contentService)
	exerciseHandler := handlers.NewExerciseHandler(exerciseService)
	progressHandler := handlers.NewProgressHandler(progressService)

	// Bootstrap first admin user if configured
	if err := ensureAdminUser(bootCtx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	bootCancel()

	// Cleanup task for expired password-reset tokens
	cleanupManager := background.NewCleanupManager(sessionRepo, logger, cfg.Auth.CleanupInterval)

	// Setup router
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Route("/api/v1", func(r chi.Router) {
		routes.RegisterRoutes(
			r,
			authHandler, userHandler, courseHandler,
			contentHandler, exerciseHandler, progressHandler,
			tokenManager, sessionRepo,
			middlewareCustom.RateLimitByIP(middlewareCustom.DefaultAuthRateLimit()),
		)
	})

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first admin user if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		FirstName:    "Platform",
		LastName:     "Admin",
		Role:         models.RoleAdmin,
	}

	if _, err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
