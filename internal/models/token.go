package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Token kinds. Access tokens are subject to revocation via the session
// record's active token pointer; refresh tokens are verified by signature
// and expiry only.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// TokenClaims are the JWT claims carried by both token kinds. The
// RegisteredClaims.ID field (JTI) is the unique token identifier compared
// against the session record on every request.
type TokenClaims struct {
	Kind   string   `json:"kind"`
	UserID string   `json:"user_id"`
	Email  string   `json:"email,omitempty"`
	Role   UserRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}
