package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davidashby/verba/internal/auth"
	"github.com/davidashby/verba/internal/handlers"
	"github.com/davidashby/verba/internal/models"
)

// RegisterRoutes registers all application routes. authLimiter wraps the
// public credential endpoints; passing nil disables rate limiting, which
// only the test harness does.
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	courseHandler *handlers.CourseHandler,
	contentHandler *handlers.ContentHandler,
	exerciseHandler *handlers.ExerciseHandler,
	progressHandler *handlers.ProgressHandler,
	tokenManager *auth.TokenManager,
	sessions auth.SessionChecker,
	authLimiter func(http.Handler) http.Handler,
) {
	// Public routes - credential endpoints are rate limited by IP
	router.Group(func(r chi.Router) {
		if authLimiter != nil {
			r.Use(authLimiter)
		}
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)
		r.Post("/auth/forgot-password", authHandler.ForgotPassword)
		r.Post("/auth/reset-password", authHandler.ResetPassword)
	})

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager, sessions))

		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/me", authHandler.GetProfile)
		r.Put("/auth/me", authHandler.UpdateProfile)
		r.Post("/auth/totp/setup", authHandler.SetupTOTP)
		r.Post("/auth/totp/enable", authHandler.EnableTOTP)

		// Courses: reads for any authenticated user
		r.Get("/courses", courseHandler.List)
		r.Get("/courses/categories", courseHandler.Categories)
		r.Get("/courses/{id}", courseHandler.Get)
		r.Get("/courses/{id}/contents", contentHandler.ListByCourse)
		r.Get("/courses/{id}/exercises", exerciseHandler.ListByCourse)
		r.Get("/contents/{contentID}", contentHandler.Get)
		r.Get("/exercises/{exerciseID}", exerciseHandler.Get)

		// Enrollment and learning
		r.Post("/contents/{contentID}/complete", contentHandler.Complete)
		r.Post("/courses/{id}/enroll", courseHandler.Enroll)
		r.Delete("/courses/{id}/enroll", courseHandler.Unenroll)
		r.Get("/enrollments", courseHandler.MyEnrollments)
		r.Post("/exercises/{exerciseID}/attempts", exerciseHandler.SubmitAttempt)
		r.Get("/courses/{id}/progress", progressHandler.Get)
		r.Get("/courses/{id}/stats", exerciseHandler.Stats)

		// Course authoring: educators and admins (ownership is enforced in
		// the service layer)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRoles(models.RoleEducator, models.RoleAdmin))
			r.Post("/courses", courseHandler.Create)
			r.Put("/courses/{id}", courseHandler.Update)
			r.Patch("/courses/{id}/publish", courseHandler.SetPublished)
			r.Delete("/courses/{id}", courseHandler.Delete)
			r.Post("/courses/{id}/contents", contentHandler.Create)
			r.Delete("/contents/{contentID}", contentHandler.Delete)
			r.Post("/courses/{id}/exercises", exerciseHandler.Create)
			r.Delete("/exercises/{exerciseID}", exerciseHandler.Delete)
			r.Get("/courses/{id}/roster", courseHandler.Roster)
			r.Get("/courses/{id}/learners/progress", progressHandler.ListByCourse)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRoles(models.RoleAdmin))
			r.Get("/users", userHandler.List)
			r.Get("/users/{id}", userHandler.Get)
			r.Post("/users/{id}/unlock", userHandler.Unlock)
			r.Delete("/users/{id}", userHandler.Delete)
		})
	})
}
