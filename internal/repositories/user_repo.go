package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/davidashby/verba/internal/database"
	"github.com/davidashby/verba/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// rowScanner covers both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const userColumns = `id, email, password_hash, first_name, last_name, role, proficiency_level, learning_goals, profile_picture, is_active, created_at, updated_at`

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.Role, &user.Proficiency, &user.LearningGoals, &user.ProfilePicture,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.db.Pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

// Create inserts the user and its session record in one transaction so a
// half-registered account is never observable.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	if user.Proficiency == "" {
		user.Proficiency = models.ProficiencyBeginner
	}
	user.IsActive = true

	var created *models.User
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		userQuery := `
			INSERT INTO users (id, email, password_hash, first_name, last_name, role, proficiency_level, learning_goals, profile_picture, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING ` + userColumns

		var err error
		created, err = scanUserRow(tx.QueryRow(ctx, userQuery,
			user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
			user.Role, user.Proficiency, user.LearningGoals, user.ProfilePicture,
			user.IsActive, user.CreatedAt, user.UpdatedAt,
		))
		if err != nil {
			return err
		}

		sessionQuery := `
			INSERT INTO authentication (id, user_id, login_attempts, account_locked, created_at, updated_at)
			VALUES ($1, $2, 0, FALSE, $3, $3)
		`
		if _, err := tx.Exec(ctx, sessionQuery, uuid.New().String(), user.ID, now); err != nil {
			return database.MapPostgresError(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateProfile persists the mutable profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, user *models.User) (*models.User, error) {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, proficiency_level = $3, learning_goals = $4, profile_picture = $5, updated_at = $6
		WHERE id = $7
		RETURNING ` + userColumns

	return scanUserRow(r.db.Pool.QueryRow(ctx, query,
		user.FirstName, user.LastName, user.Proficiency, user.LearningGoals,
		user.ProfilePicture, time.Now(), id,
	))
}

// UpdatePasswordHash replaces the stored password hash.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Pool.Exec(ctx, query, passwordHash, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes the user; the session record goes with it via cascade.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
