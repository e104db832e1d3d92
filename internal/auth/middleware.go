package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/davidashby/verba/internal/models"
	pkghttp "github.com/davidashby/verba/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing user claims in context
	UserContextKey contextKey = "user"
)

// SessionChecker answers whether a given access-token JTI is the single
// currently valid one for a user.
type SessionChecker interface {
	IsTokenValid(ctx context.Context, userID, jti string) (bool, error)
}

// Middleware validates the bearer token and checks it against the session
// record's live pointer before injecting the claims into the request
// context. Refresh tokens are rejected here: they are only good for the
// refresh endpoint.
func Middleware(tm *TokenManager, sessions SessionChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				pkghttp.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := tm.VerifyToken(parts[1])
			if err != nil {
				pkghttp.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			if claims.Kind != models.TokenKindAccess {
				pkghttp.WriteUnauthorized(w, "refresh tokens cannot be used for API access")
				return
			}

			// A signature-valid token is still dead if its JTI no longer
			// matches the session record's pointer.
			valid, err := sessions.IsTokenValid(r.Context(), claims.UserID, claims.ID)
			if err != nil {
				pkghttp.WriteInternalError(w, "unable to verify session")
				return
			}
			if !valid {
				pkghttp.WriteUnauthorized(w, "token has been revoked")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles enforces role-based access for an already-authenticated
// request. Declared once per route group instead of inline role checks.
func RequireRoles(allowed ...models.UserRole) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r)
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "unauthorized")
				return
			}

			if err := Authorize(claims.Role, allowed...); err != nil {
				pkghttp.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
