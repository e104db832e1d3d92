package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidashby/verba/internal/auth"
	"github.com/davidashby/verba/internal/models"
	pkgauth "github.com/davidashby/verba/pkg/auth"
	pkglogger "github.com/davidashby/verba/pkg/logger"
)

const (
	testPassword = "CorrectHorse1!"
	testUserID   = "user-1"
	testEmail    = "learner@example.com"
)

func testAuthService(t *testing.T, users *MockUserRepository, sessions *MockSessionRepository, email *MockEmailSender) *AuthService {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tm := auth.NewTokenManager("test-secret-32-characters-long!!", time.Hour, 30*24*time.Hour)
	totp := auth.NewTOTPManager("verba-test")

	if email == nil {
		email = &MockEmailSender{}
	}

	return NewAuthService(users, sessions, tm, totp, email, time.Hour, logger, pkglogger.NewAuditLogger(logger))
}

func testUserWithPassword(t *testing.T) *models.User {
	t.Helper()

	hash, err := pkgauth.HashPassword(testPassword)
	require.NoError(t, err)

	return &models.User{
		ID:           testUserID,
		Email:        testEmail,
		PasswordHash: hash,
		FirstName:    "Dana",
		LastName:     "Reyes",
		Role:         models.RoleStudent,
		Proficiency:  models.ProficiencyBeginner,
		CreatedAt:    time.Now(),
	}
}

func TestLogin_Success(t *testing.T) {
	user := testUserWithPassword(t)
	var storedJTI string

	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			assert.Equal(t, testEmail, email)
			return user, nil
		},
	}
	sessions := &MockSessionRepository{
		GetByUserIDFunc: func(ctx context.Context, userID string) (*models.SessionRecord, error) {
			return &models.SessionRecord{UserID: userID}, nil
		},
		RecordLoginFunc: func(ctx context.Context, userID, jti string) error {
			storedJTI = jti
			return nil
		},
	}

	svc := testAuthService(t, users, sessions, nil)

	resp, err := svc.Login(context.Background(), "  Learner@Example.com ", testPassword, "", "10.0.0.1")
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotEqual(t, resp.AccessToken, resp.RefreshToken)
	assert.Equal(t, testEmail, resp.User.Email)
	assert.NotEmpty(t, storedJTI, "the new access token JTI must be stored as the live pointer")
}

func TestLogin_UnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	user := testUserWithPassword(t)

	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			if email == testEmail {
				return user, nil
			}
			return nil, models.ErrNotFound
		},
	}
	sessions := &MockSessionRepository{
		GetByUserIDFunc: func(ctx context.Context, userID string) (*models.SessionRecord, error) {
			return &models.SessionRecord{UserID: userID}, nil
		},
	}

	svc := testAuthService(t, users, sessions, nil)

	_, errUnknown := svc.Login(context.Background(), "nobody@example.com", testPassword, "", "")
	_, errWrongPw := svc.Login(context.Background(), testEmail, "WrongPass1!", "", "")

	assert.ErrorIs(t, errUnknown, models.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, models.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

func TestLogin_WrongPasswordIncrementsAttempts(t *testing.T) {
	user := testUserWithPassword(t)
	recorded := false

	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
	}
	sessions := &MockSessionRepository{
		GetByUserIDFunc: func(ctx context.Context, userID string) (*models.SessionRecord, error) {
			return &models.SessionRecord{UserID: userID, LoginAttempts: 2}, nil
		},
		RecordFailedLoginFunc: func(ctx context.Context, userID string) (*models.SessionRecord, error) {
			recorded = true
			return &models.SessionRecord{UserID: userID, LoginAttempts: 3}, nil
		},
	}

	svc := testAuthService(t, users, sessions, nil)

	_, err := svc.Login(context.Background(), testEmail, "WrongPass1!", "", "")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.True(t, recorded)
}

func TestLogin_LockedAccountRejectedBeforePasswordCheck(t *testing.T) {
	user := testUserWithPassword(t)
	failRecorded := false

	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
	}
	sessions := &MockSessionRepository{
		GetByUserIDFunc: func(ctx context.Context, userID string) (*models.SessionRecord, error) {
			return &models.SessionRecord{UserID: userID, AccountLocked: true, LoginAttempts: models.MaxLoginAttempts}, nil
		},
		RecordFailedLoginFunc: func(ctx context.Context, userID string) (*models.SessionRecord, error) {
			failRecorded = true
			return nil, nil
		},
	}

	svc := testAuthService(t, users, sessions, nil)

	// Correct password, locked account: still AccountLocked.
	_, err := svc.Login(context.Background(), testEmail, testPassword, "", "")
	assert.ErrorIs(t, err, models.ErrAccountLocked)
	assert.False(t, failRecorded, "a locked account must not accrue further attempts")

	// Wrong password, locked account: same answer.
	_, err = svc.Login(context.Background(), testEmail, "WrongPass1!", "", "")
	assert.ErrorIs(t, err, models.ErrAccountLocked)
	assert.False(t, failRecorded)
}

func TestLogin_SuccessResetsCounterViaRecordLogin(t *testing.T) {
	user := testUserWithPassword(t)
	loginRecorded := false

	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
	}
	sessions := &MockSessionRepository{
		GetByUserIDFunc: func(ctx context.Context, userID string) (*models.SessionRecord, error) {
			return &models.SessionRecord{UserID: userID, LoginAttempts: models.MaxLoginAttempts - 1}, nil
		},
		RecordLoginFunc: func(ctx context.Context, userID, jti string) error {
			loginRecorded = true
			return nil
		},
	}

	svc := testAuthService(t, users, sessions, nil)

	_, err := svc.Login(context.Background(), testEmail, testPassword, "", "")
	require.NoError(t, err)
	assert.True(t, loginRecorded)
}

func TestLogin_MissingSessionRecordIsInvalidCredentials(t *testing.T) {
	user := testUserWithPassword(t)

	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
	}
	sessions := &MockSessionRepository{} // GetByUserID defaults to ErrNotFound

	svc := testAuthService(t, users, sessions, nil)

	_, err := svc.Login(context.Background(), testEmail, testPassword, "", "")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestLogin_TwoFactorRequiredWhenEnabled(t *testing.T) {
	user := testUserWithPassword(t)
	secret := "JBSWY3DPEHPK3PXP"

	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
	}
	sessions := &MockSessionRepository{
		GetByUserIDFunc: func(ctx context.Context, userID string) (*models.SessionRecord, error) {
			return &models.SessionRecord{UserID: userID, TwoFactorEnabled: true, TOTPSecret: &secret}, nil
		},
	}

	svc := testAuthService(t, users, sessions, nil)

	_, err := svc.Login(context.Background(), testEmail, testPassword, "", "")
	assert.ErrorIs(t, err, models.ErrTOTPRequired)
}

func TestRefresh_MintsNewAccessTokenAndMovesPointer(t *testing.T) {
	user := testUserWithPassword(t)
	tm := auth.NewTokenManager("test-secret-32-characters-long!!", time.Hour, 30*24*time.Hour)

	refreshToken, _, err := tm.IssueRefreshToken(user)
	require.NoError(t, err)

	var newJTI string
	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) { return user, nil },
	}
	sessions := &MockSessionRepository{
		SetActiveTokenFunc: func(ctx context.Context, userID, jti string) error {
			newJTI = jti
			return nil
		},
	}

	svc := testAuthService(t, users, sessions, nil)

	resp, err := svc.Refresh(context.Background(), refreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, newJTI, "refresh must overwrite the live token pointer")
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	user := testUserWithPassword(t)
	tm := auth.NewTokenManager("test-secret-32-characters-long!!", time.Hour, 30*24*time.Hour)

	accessToken, _, err := tm.IssueAccessToken(user)
	require.NoError(t, err)

	svc := testAuthService(t, &MockUserRepository{}, &MockSessionRepository{}, nil)

	_, err = svc.Refresh(context.Background(), accessToken)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestRefresh_UnknownUserIsNotFound(t *testing.T) {
	user := testUserWithPassword(t)
	tm := auth.NewTokenManager("test-secret-32-characters-long!!", time.Hour, 30*24*time.Hour)

	refreshToken, _, err := tm.IssueRefreshToken(user)
	require.NoError(t, err)

	svc := testAuthService(t, &MockUserRepository{}, &MockSessionRepository{}, nil)

	_, err = svc.Refresh(context.Background(), refreshToken)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestRefresh_GarbageTokenIsUnauthenticated(t *testing.T) {
	svc := testAuthService(t, &MockUserRepository{}, &MockSessionRepository{}, nil)

	_, err := svc.Refresh(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestLogout_ClearsPointerAndIsIdempotent(t *testing.T) {
	cleared := 0
	sessions := &MockSessionRepository{
		ClearActiveTokenFunc: func(ctx context.Context, userID string) (bool, error) {
			cleared++
			return true, nil
		},
	}

	svc := testAuthService(t, &MockUserRepository{}, sessions, nil)

	existed, err := svc.Logout(context.Background(), testUserID)
	require.NoError(t, err)
	assert.True(t, existed)

	// Second logout with no live session still succeeds.
	existed, err = svc.Logout(context.Background(), testUserID)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, 2, cleared)
}

func TestIsTokenValid_DelegatesToSessionRecord(t *testing.T) {
	sessions := &MockSessionRepository{
		IsTokenValidFunc: func(ctx context.Context, userID, jti string) (bool, error) {
			return jti == "live-jti", nil
		},
	}

	svc := testAuthService(t, &MockUserRepository{}, sessions, nil)

	ok, err := svc.IsTokenValid(context.Background(), testUserID, "live-jti")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsTokenValid(context.Background(), testUserID, "stale-jti")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	existing := testUserWithPassword(t)

	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return existing, nil },
	}

	svc := testAuthService(t, users, &MockSessionRepository{}, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     testEmail,
		Password:  testPassword,
		FirstName: "Dana",
		LastName:  "Reyes",
	})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	svc := testAuthService(t, &MockUserRepository{}, &MockSessionRepository{}, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "new@example.com",
		Password: "short",
	})

	var validationErr *pkgauth.PasswordValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestRegister_DefaultsToStudentRole(t *testing.T) {
	var created *models.User
	users := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			created = user
			out := *user
			out.ID = testUserID
			return &out, nil
		},
	}

	svc := testAuthService(t, users, &MockSessionRepository{}, nil)

	resp, err := svc.Register(context.Background(), RegisterInput{
		Email:     "New@Example.com",
		Password:  testPassword,
		FirstName: "Dana",
		LastName:  "Reyes",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, models.RoleStudent, created.Role)
	assert.Equal(t, "new@example.com", created.Email)
	assert.NotEqual(t, testPassword, created.PasswordHash)
	assert.Equal(t, string(models.RoleStudent), resp.Role)
}

func TestRequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	sent := false
	email := &MockEmailSender{
		SendPasswordResetEmailFunc: func(ctx context.Context, addr, token string, expiresAt time.Time) error {
			sent = true
			return nil
		},
	}

	svc := testAuthService(t, &MockUserRepository{}, &MockSessionRepository{}, email)

	err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.False(t, sent)
}

func TestRequestPasswordReset_StoresHashAndEmailsPlainToken(t *testing.T) {
	user := testUserWithPassword(t)

	var storedHash, mailedToken string
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
	}
	sessions := &MockSessionRepository{
		SetResetTokenFunc: func(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
			storedHash = tokenHash
			return nil
		},
	}
	email := &MockEmailSender{
		SendPasswordResetEmailFunc: func(ctx context.Context, addr, token string, expiresAt time.Time) error {
			mailedToken = token
			return nil
		},
	}

	svc := testAuthService(t, users, sessions, email)

	err := svc.RequestPasswordReset(context.Background(), testEmail)
	require.NoError(t, err)

	require.NotEmpty(t, storedHash)
	require.NotEmpty(t, mailedToken)
	assert.NotEqual(t, mailedToken, storedHash)
	assert.Equal(t, storedHash, pkgauth.HashResetToken(mailedToken))
}

func TestConfirmPasswordReset_ExpiredTokenRejected(t *testing.T) {
	expired := time.Now().Add(-time.Minute)
	hash := "stored-hash"

	sessions := &MockSessionRepository{
		GetByResetTokenHashFunc: func(ctx context.Context, tokenHash string) (*models.SessionRecord, error) {
			return &models.SessionRecord{UserID: testUserID, ResetTokenHash: &hash, ResetTokenExpiry: &expired}, nil
		},
	}

	svc := testAuthService(t, &MockUserRepository{}, sessions, nil)

	err := svc.ConfirmPasswordReset(context.Background(), "some-token", testPassword)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestConfirmPasswordReset_Success(t *testing.T) {
	future := time.Now().Add(30 * time.Minute)
	hash := "stored-hash"
	confirmed := false

	sessions := &MockSessionRepository{
		GetByResetTokenHashFunc: func(ctx context.Context, tokenHash string) (*models.SessionRecord, error) {
			return &models.SessionRecord{UserID: testUserID, ResetTokenHash: &hash, ResetTokenExpiry: &future}, nil
		},
		ConfirmPasswordResetFunc: func(ctx context.Context, userID, newPasswordHash string) error {
			confirmed = true
			assert.Equal(t, testUserID, userID)
			assert.NotEqual(t, testPassword, newPasswordHash)
			return nil
		},
	}

	svc := testAuthService(t, &MockUserRepository{}, sessions, nil)

	err := svc.ConfirmPasswordReset(context.Background(), "some-token", testPassword)
	require.NoError(t, err)
	assert.True(t, confirmed)
}

func TestEnableTOTP_WithoutSetupIsBadRequest(t *testing.T) {
	sessions := &MockSessionRepository{
		GetByUserIDFunc: func(ctx context.Context, userID string) (*models.SessionRecord, error) {
			return &models.SessionRecord{UserID: userID}, nil
		},
	}

	svc := testAuthService(t, &MockUserRepository{}, sessions, nil)

	err := svc.EnableTOTP(context.Background(), testUserID, "123456")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}
