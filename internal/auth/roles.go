package auth

import (
	"github.com/davidashby/verba/internal/models"
)

// Authorize checks an authenticated actor's role against the allowed set.
// It runs strictly after authentication so that a missing or revoked token
// is reported as 401-equivalent and an insufficient role as 403-equivalent.
func Authorize(actorRole models.UserRole, allowed ...models.UserRole) error {
	for _, role := range allowed {
		if actorRole == role {
			return nil
		}
	}
	return models.ErrForbidden
}

// CanManageCourse reports whether the actor may mutate a course: its
// creator, or any admin.
func CanManageCourse(actor *models.TokenClaims, creatorID string) bool {
	return actor.Role == models.RoleAdmin || actor.UserID == creatorID
}
