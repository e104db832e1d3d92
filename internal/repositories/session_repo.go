package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/davidashby/verba/internal/database"
	"github.com/davidashby/verba/internal/models"
	"github.com/jackc/pgx/v5"
)

// SessionRepository persists per-user authentication state. Every mutation
// is a single UPDATE so concurrent requests for the same user cannot lose
// writes: attempt counting and lock-setting happen in one statement, and
// the token pointer is last-writer-wins.
type SessionRepository struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, login_attempts, account_locked, session_token, last_login, two_factor_enabled, totp_secret, reset_token_hash, reset_token_expiry, created_at, updated_at`

func scanSessionRow(scanner rowScanner) (*models.SessionRecord, error) {
	var rec models.SessionRecord

	err := scanner.Scan(
		&rec.ID, &rec.UserID, &rec.LoginAttempts, &rec.AccountLocked,
		&rec.ActiveTokenID, &rec.LastLogin, &rec.TwoFactorEnabled, &rec.TOTPSecret,
		&rec.ResetTokenHash, &rec.ResetTokenExpiry, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &rec, nil
}

func (r *SessionRepository) GetByUserID(ctx context.Context, userID string) (*models.SessionRecord, error) {
	query := `SELECT ` + sessionColumns + ` FROM authentication WHERE user_id = $1`
	return scanSessionRow(r.db.Pool.QueryRow(ctx, query, userID))
}

// RecordFailedLogin atomically increments the attempt counter and sets the
// lock flag once the threshold is reached. Returns the post-increment state.
func (r *SessionRepository) RecordFailedLogin(ctx context.Context, userID string) (*models.SessionRecord, error) {
	query := `
		UPDATE authentication
		SET login_attempts = login_attempts + 1,
		    account_locked = account_locked OR (login_attempts + 1 >= $2),
		    updated_at = $3
		WHERE user_id = $1
		RETURNING ` + sessionColumns

	return scanSessionRow(r.db.Pool.QueryRow(ctx, query, userID, models.MaxLoginAttempts, time.Now()))
}

// RecordLogin resets the attempt counter, stamps last_login, and points the
// session at the freshly issued access token. Any previously issued access
// token dies here: its JTI no longer matches.
func (r *SessionRepository) RecordLogin(ctx context.Context, userID, jti string) error {
	query := `
		UPDATE authentication
		SET login_attempts = 0, last_login = $2, session_token = $3, updated_at = $2
		WHERE user_id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, userID, time.Now(), jti)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetActiveToken overwrites the live token pointer (refresh path).
func (r *SessionRepository) SetActiveToken(ctx context.Context, userID, jti string) error {
	query := `UPDATE authentication SET session_token = $2, updated_at = $3 WHERE user_id = $1`

	result, err := r.db.Pool.Exec(ctx, query, userID, jti, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ClearActiveToken nulls the live token pointer. Reports whether a session
// record existed; clearing an already-clear record still reports true, so
// logout stays idempotent.
func (r *SessionRepository) ClearActiveToken(ctx context.Context, userID string) (bool, error) {
	query := `UPDATE authentication SET session_token = NULL, updated_at = $2 WHERE user_id = $1`

	result, err := r.db.Pool.Exec(ctx, query, userID, time.Now())
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return result.RowsAffected() > 0, nil
}

// IsTokenValid reports whether jti is the single live access token for the
// user. Missing record or mismatched pointer both mean invalid.
func (r *SessionRepository) IsTokenValid(ctx context.Context, userID, jti string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM authentication WHERE user_id = $1 AND session_token = $2)`

	var valid bool
	if err := r.db.Pool.QueryRow(ctx, query, userID, jti).Scan(&valid); err != nil {
		return false, fmt.Errorf("failed to check token validity: %w", err)
	}
	return valid, nil
}

// Unlock clears the lock flag and the attempt counter (admin path).
func (r *SessionRepository) Unlock(ctx context.Context, userID string) error {
	query := `UPDATE authentication SET account_locked = FALSE, login_attempts = 0, updated_at = $2 WHERE user_id = $1`

	result, err := r.db.Pool.Exec(ctx, query, userID, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetResetToken stores the hashed single-use reset token and its expiry.
func (r *SessionRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	query := `UPDATE authentication SET reset_token_hash = $2, reset_token_expiry = $3, updated_at = $4 WHERE user_id = $1`

	result, err := r.db.Pool.Exec(ctx, query, userID, tokenHash, expiresAt, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetByResetTokenHash looks up the session record holding a pending reset
// token.
func (r *SessionRepository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*models.SessionRecord, error) {
	query := `SELECT ` + sessionColumns + ` FROM authentication WHERE reset_token_hash = $1`
	return scanSessionRow(r.db.Pool.QueryRow(ctx, query, tokenHash))
}

// ConfirmPasswordReset atomically replaces the user's password hash, clears
// the reset token, and nulls the live token pointer so every existing
// session dies with the old password.
func (r *SessionRepository) ConfirmPasswordReset(ctx context.Context, userID, newPasswordHash string) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		now := time.Now()

		result, err := tx.Exec(ctx,
			`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
			userID, newPasswordHash, now,
		)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		_, err = tx.Exec(ctx,
			`UPDATE authentication
			 SET reset_token_hash = NULL, reset_token_expiry = NULL, session_token = NULL, updated_at = $2
			 WHERE user_id = $1`,
			userID, now,
		)
		if err != nil {
			return database.MapPostgresError(err)
		}

		return nil
	})
}

// SetTOTPSecret stores a pending TOTP secret without enabling two-factor.
func (r *SessionRepository) SetTOTPSecret(ctx context.Context, userID, secret string) error {
	query := `UPDATE authentication SET totp_secret = $2, updated_at = $3 WHERE user_id = $1`

	result, err := r.db.Pool.Exec(ctx, query, userID, secret, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// EnableTwoFactor flips two_factor_enabled once the user has proven they
// can produce codes for the stored secret.
func (r *SessionRepository) EnableTwoFactor(ctx context.Context, userID string) error {
	query := `UPDATE authentication SET two_factor_enabled = TRUE, updated_at = $2 WHERE user_id = $1 AND totp_secret IS NOT NULL`

	result, err := r.db.Pool.Exec(ctx, query, userID, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// PurgeExpiredResetTokens clears reset tokens past their expiry. Run
// periodically by the background cleanup task.
func (r *SessionRepository) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	query := `
		UPDATE authentication
		SET reset_token_hash = NULL, reset_token_expiry = NULL, updated_at = $1
		WHERE reset_token_expiry IS NOT NULL AND reset_token_expiry < $1
	`

	result, err := r.db.Pool.Exec(ctx, query, time.Now())
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
