package auth

import (
	"fmt"
	"time"

	"github.com/davidashby/verba/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager mints and verifies the platform's JWTs. Every token carries
// a uuid JTI; for access tokens that JTI is the identifier the session
// record tracks as the single live pointer.
type TokenManager struct {
	secret             string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, accessExpiry, refreshExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:             secret,
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
	}
}

// IssueAccessToken creates a short-lived access token. Returns the signed
// token and its JTI, which the caller stores on the session record.
func (tm *TokenManager) IssueAccessToken(user *models.User) (token string, jti string, err error) {
	return tm.issue(user, models.TokenKindAccess, tm.accessTokenExpiry)
}

// IssueRefreshToken creates a long-lived refresh token.
func (tm *TokenManager) IssueRefreshToken(user *models.User) (token string, jti string, err error) {
	return tm.issue(user, models.TokenKindRefresh, tm.refreshTokenExpiry)
}

func (tm *TokenManager) issue(user *models.User, kind string, ttl time.Duration) (string, string, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := &models.TokenClaims{
		Kind:   kind,
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tm.secret))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return signed, jti, nil
}

// VerifyToken checks signature and expiry and returns the claims. It does
// not consult the session record; revocation of access tokens is the
// session authenticator's job.
func (tm *TokenManager) VerifyToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthenticated
	}

	if claims.Kind != models.TokenKindAccess && claims.Kind != models.TokenKindRefresh {
		return nil, fmt.Errorf("invalid token: unknown kind %q", claims.Kind)
	}

	return claims, nil
}
