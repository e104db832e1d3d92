package models

import "time"

// MaxLoginAttempts is the number of consecutive failed logins after which
// the account is locked until an admin unlocks it.
const MaxLoginAttempts = 5

// SessionRecord tracks per-user authentication state. Exactly one row exists
// per user (created with the user, cascade-deleted with it).
//
// ActiveTokenID holds the JTI of the single currently valid access token.
// A nil value means no live session. Every previously issued access token
// becomes invalid the moment a newer one is stored here, regardless of its
// own expiry.
type SessionRecord struct {
	ID               string
	UserID           string
	LoginAttempts    int
	AccountLocked    bool
	ActiveTokenID    *string
	LastLogin        *time.Time
	TwoFactorEnabled bool
	TOTPSecret       *string
	ResetTokenHash   *string
	ResetTokenExpiry *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsTokenActive reports whether jti matches the single live token pointer.
func (s *SessionRecord) IsTokenActive(jti string) bool {
	return s.ActiveTokenID != nil && *s.ActiveTokenID == jti
}
