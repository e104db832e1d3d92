package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/davidashby/verba/internal/auth"
	"github.com/davidashby/verba/internal/models"
	pkgauth "github.com/davidashby/verba/pkg/auth"
	pkglogger "github.com/davidashby/verba/pkg/logger"
)

// UserRepository is the slice of user persistence the auth service needs.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, user *models.User) (*models.User, error)
}

// SessionRepository persists per-user session records. The auth service is
// the only component that mutates them.
type SessionRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.SessionRecord, error)
	RecordFailedLogin(ctx context.Context, userID string) (*models.SessionRecord, error)
	RecordLogin(ctx context.Context, userID, jti string) error
	SetActiveToken(ctx context.Context, userID, jti string) error
	ClearActiveToken(ctx context.Context, userID string) (bool, error)
	IsTokenValid(ctx context.Context, userID, jti string) (bool, error)
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*models.SessionRecord, error)
	ConfirmPasswordReset(ctx context.Context, userID, newPasswordHash string) error
	SetTOTPSecret(ctx context.Context, userID, secret string) error
	EnableTwoFactor(ctx context.Context, userID string) error
}

// EmailSender delivers transactional mail (password reset links).
type EmailSender interface {
	SendPasswordResetEmail(ctx context.Context, email, token string, expiresAt time.Time) error
}

// AuthService orchestrates login, logout, refresh, and per-request token
// validity. It owns every session-record mutation; validity is the inverted
// question "does this token's JTI still match the single live pointer"
// rather than a revocation list, so issuing a new token revokes all prior
// ones in O(1).
type AuthService struct {
	users       UserRepository
	sessions    SessionRepository
	tm          *auth.TokenManager
	totp        *auth.TOTPManager
	email       EmailSender
	resetExpiry time.Duration
	logger      *slog.Logger
	audit       *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users UserRepository,
	sessions SessionRepository,
	tm *auth.TokenManager,
	totp *auth.TOTPManager,
	email EmailSender,
	resetExpiry time.Duration,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		users:       users,
		sessions:    sessions,
		tm:          tm,
		totp:        totp,
		email:       email,
		resetExpiry: resetExpiry,
		logger:      logger,
		audit:       audit,
	}
}

// UserResponse is the profile shape returned to clients.
type UserResponse struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Role          string  `json:"role"`
	Proficiency   string  `json:"proficiency_level"`
	LearningGoals *string `json:"learning_goals,omitempty"`
	ProfilePic    *string `json:"profile_picture,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// AuthResponse is returned from a successful login.
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         *UserResponse `json:"user"`
}

// RefreshResponse is returned from a successful token refresh.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.UserRole
}

// Register creates a user plus its session record atomically. A duplicate
// email fails with ErrConflict and leaves nothing behind.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, models.ErrBadRequest
	}

	if in.Role == "" {
		in.Role = models.RoleStudent
	}
	if !in.Role.Valid() {
		return nil, models.ErrBadRequest
	}

	if err := pkgauth.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("registration failed: email already registered")
		return nil, models.ErrConflict
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hashed, err := pkgauth.HashPassword(in.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hashed,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         in.Role,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered", slog.String("user_id", created.ID))
	s.audit.LogAccountAction("user_registered", created.ID, "", map[string]string{"role": string(created.Role)})

	return userToResponse(created), nil
}

// Login authenticates credentials and issues a fresh token pair. The lock
// flag is checked before the password so a locked account never reveals
// whether the password was right. On success the new access token's JTI
// becomes the single live pointer, implicitly logging out every other
// session.
func (s *AuthService) Login(ctx context.Context, email, password, totpCode, ipAddress string) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: unknown email")
			s.audit.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				IPAddress:     ipAddress,
				FailureReason: "invalid_credentials",
			})
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	session, err := s.sessions.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Session records are created with the user; a missing one means
			// the store is inconsistent.
			s.logger.Warn("session record missing for user", slog.String("user_id", user.ID))
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get session record", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if session.AccountLocked {
		s.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			FailureReason: "account_locked",
		})
		return nil, models.ErrAccountLocked
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, s.recordFailure(ctx, user.ID, ipAddress, "invalid_credentials", models.ErrInvalidCredentials)
	}

	if session.TwoFactorEnabled {
		if totpCode == "" {
			return nil, models.ErrTOTPRequired
		}
		if session.TOTPSecret == nil || !s.totp.ValidateCode(*session.TOTPSecret, totpCode) {
			return nil, s.recordFailure(ctx, user.ID, ipAddress, "invalid_totp_code", models.ErrTOTPInvalid)
		}
	}

	accessToken, accessJTI, err := s.tm.IssueAccessToken(user)
	if err != nil {
		s.logger.Error("failed to issue access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, _, err := s.tm.IssueRefreshToken(user)
	if err != nil {
		s.logger.Error("failed to issue refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.sessions.RecordLogin(ctx, user.ID, accessJTI); err != nil {
		s.logger.Error("failed to record login", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		IPAddress: ipAddress,
		Success:   true,
	})

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         userToResponse(user),
	}, nil
}

// recordFailure bumps the attempt counter, locking the account when the
// threshold is hit, and returns the caller-facing error unchanged.
func (s *AuthService) recordFailure(ctx context.Context, userID, ipAddress, reason string, outcome error) error {
	rec, err := s.sessions.RecordFailedLogin(ctx, userID)
	if err != nil {
		s.logger.Error("failed to record failed login", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if rec.AccountLocked {
		s.logger.Warn("account locked after repeated failed logins", slog.String("user_id", userID))
		s.audit.LogAccountAction("account_locked", userID, ipAddress, nil)
	}

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		UserID:        userID,
		IPAddress:     ipAddress,
		FailureReason: reason,
	})

	return outcome
}

// Refresh trades a valid refresh token for a new access token. The new
// JTI overwrites the live pointer, which is precisely what revokes the
// previous access token even though it has not expired. Refresh tokens
// themselves are verified by signature and expiry only.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	claims, err := s.tm.VerifyToken(strings.TrimSpace(refreshToken))
	if err != nil {
		s.logger.Info("refresh token verification failed", slog.Any("error", err))
		return nil, models.ErrUnauthenticated
	}

	if claims.Kind != models.TokenKindRefresh {
		s.logger.Warn("refresh attempted with non-refresh token", slog.String("user_id", claims.UserID))
		return nil, models.ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUserNotFound
		}
		s.logger.Error("failed to get user for refresh", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	accessToken, accessJTI, err := s.tm.IssueAccessToken(user)
	if err != nil {
		s.logger.Error("failed to issue access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.sessions.SetActiveToken(ctx, user.ID, accessJTI); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUserNotFound
		}
		s.logger.Error("failed to update active token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("access token refreshed", slog.String("user_id", user.ID))

	return &RefreshResponse{AccessToken: accessToken}, nil
}

// Logout clears the live token pointer, invalidating the current access
// token immediately. Idempotent: reports false only when no session record
// exists at all.
func (s *AuthService) Logout(ctx context.Context, userID string) (bool, error) {
	existed, err := s.sessions.ClearActiveToken(ctx, userID)
	if err != nil {
		s.logger.Error("failed to clear active token", slog.String("user_id", userID), slog.Any("error", err))
		return false, models.ErrInternalServer
	}

	if existed {
		s.logger.Info("user logged out", slog.String("user_id", userID))
		s.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType: "logout",
			UserID:    userID,
			Success:   true,
		})
	}

	return existed, nil
}

// IsTokenValid answers the per-request revocation check: true iff a session
// record exists and its live pointer equals jti. Signature and expiry are
// the token manager's concern; this is only about revocation.
func (s *AuthService) IsTokenValid(ctx context.Context, userID, jti string) (bool, error) {
	return s.sessions.IsTokenValid(ctx, userID, jti)
}

// GetProfile returns the caller's own profile.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUserNotFound
		}
		s.logger.Error("failed to get user profile", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return userToResponse(user), nil
}

// UpdateProfileInput carries the mutable profile fields; nil means "leave
// unchanged". Email and role deliberately have no path through here.
type UpdateProfileInput struct {
	FirstName     *string
	LastName      *string
	Proficiency   *models.ProficiencyLevel
	LearningGoals *string
	ProfilePic    *string
}

// UpdateProfile applies a partial profile update for the caller.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUserNotFound
		}
		s.logger.Error("failed to get user for update", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Proficiency != nil {
		if !in.Proficiency.Valid() {
			return nil, models.ErrBadRequest
		}
		user.Proficiency = *in.Proficiency
	}
	if in.LearningGoals != nil {
		user.LearningGoals = in.LearningGoals
	}
	if in.ProfilePic != nil {
		user.ProfilePicture = in.ProfilePic
	}

	updated, err := s.users.UpdateProfile(ctx, userID, user)
	if err != nil {
		s.logger.Error("failed to update profile", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return userToResponse(updated), nil
}

// RequestPasswordReset stores a hashed single-use token and emails the
// plain token. The response is identical whether or not the email exists,
// so the endpoint cannot be used to enumerate accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		s.logger.Error("failed to get user for password reset", slog.Any("error", err))
		return models.ErrInternalServer
	}

	token, tokenHash, err := pkgauth.GenerateResetToken()
	if err != nil {
		s.logger.Error("failed to generate reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	expiresAt := time.Now().Add(s.resetExpiry)
	if err := s.sessions.SetResetToken(ctx, user.ID, tokenHash, expiresAt); err != nil {
		s.logger.Error("failed to store reset token", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.email.SendPasswordResetEmail(ctx, user.Email, token, expiresAt); err != nil {
		s.logger.Error("failed to send reset email", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.LogAccountAction("password_reset_requested", user.ID, "", nil)
	return nil
}

// ConfirmPasswordReset validates the token, replaces the password, and
// kills every live session: the active token pointer is cleared in the
// same transaction as the password change.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	session, err := s.sessions.GetByResetTokenHash(ctx, pkgauth.HashResetToken(token))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUnauthenticated
		}
		s.logger.Error("failed to look up reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if session.ResetTokenExpiry == nil || time.Now().After(*session.ResetTokenExpiry) {
		return models.ErrUnauthenticated
	}

	hashed, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.sessions.ConfirmPasswordReset(ctx, session.UserID, hashed); err != nil {
		s.logger.Error("failed to confirm password reset", slog.String("user_id", session.UserID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.LogAccountAction("password_reset_completed", session.UserID, "", nil)
	return nil
}

// SetupTOTP provisions a two-factor secret for the caller. The secret is
// stored immediately but two-factor stays off until EnableTOTP proves the
// authenticator works.
func (s *AuthService) SetupTOTP(ctx context.Context, userID string) (*auth.TOTPSetup, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUserNotFound
		}
		s.logger.Error("failed to get user for totp setup", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	setup, err := s.totp.GenerateSetup(user.Email)
	if err != nil {
		s.logger.Error("failed to generate totp secret", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.sessions.SetTOTPSecret(ctx, userID, setup.Secret); err != nil {
		s.logger.Error("failed to store totp secret", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return setup, nil
}

// EnableTOTP verifies a code against the pending secret and turns
// two-factor on.
func (s *AuthService) EnableTOTP(ctx context.Context, userID, code string) error {
	session, err := s.sessions.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUserNotFound
		}
		s.logger.Error("failed to get session for totp enable", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if session.TOTPSecret == nil {
		return models.ErrBadRequest
	}
	if !s.totp.ValidateCode(*session.TOTPSecret, code) {
		return models.ErrTOTPInvalid
	}

	if err := s.sessions.EnableTwoFactor(ctx, userID); err != nil {
		s.logger.Error("failed to enable two-factor", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.LogAccountAction("two_factor_enabled", userID, "", nil)
	return nil
}

func userToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Role:          string(user.Role),
		Proficiency:   string(user.Proficiency),
		LearningGoals: user.LearningGoals,
		ProfilePic:    user.ProfilePicture,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
	}
}
