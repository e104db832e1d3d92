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

type EnrollmentRepository struct {
	db *database.DB
}

func NewEnrollmentRepository(db *database.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, user_id, course_id, status, completion_percentage, enrolled_at, last_accessed`

func scanEnrollmentRow(scanner rowScanner) (*models.Enrollment, error) {
	var e models.Enrollment

	err := scanner.Scan(
		&e.ID, &e.UserID, &e.CourseID, &e.Status, &e.CompletionPercentage,
		&e.EnrolledAt, &e.LastAccessed,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &e, nil
}

func (r *EnrollmentRepository) Get(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 AND course_id = $2`
	return scanEnrollmentRow(r.db.Pool.QueryRow(ctx, query, userID, courseID))
}

// Create inserts the enrollment and bumps the course's enrollment counter
// in one transaction. The unique (user_id, course_id) constraint rejects
// double enrollment as ErrConflict.
func (r *EnrollmentRepository) Create(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	var created *models.Enrollment

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		now := time.Now()
		query := `
			INSERT INTO enrollments (id, user_id, course_id, status, completion_percentage, enrolled_at, last_accessed)
			VALUES ($1, $2, $3, $4, 0, $5, $5)
			RETURNING ` + enrollmentColumns

		var err error
		created, err = scanEnrollmentRow(tx.QueryRow(ctx, query,
			uuid.New().String(), userID, courseID, models.EnrollmentEnrolled, now,
		))
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE courses SET enrollment_count = enrollment_count + 1 WHERE id = $1`,
			courseID,
		)
		return database.MapPostgresError(err)
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Delete removes the enrollment and decrements the course counter.
func (r *EnrollmentRepository) Delete(ctx context.Context, userID, courseID string) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx,
			`DELETE FROM enrollments WHERE user_id = $1 AND course_id = $2`,
			userID, courseID,
		)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		_, err = tx.Exec(ctx,
			`UPDATE courses SET enrollment_count = GREATEST(enrollment_count - 1, 0) WHERE id = $1`,
			courseID,
		)
		return database.MapPostgresError(err)
	})
}

// ListByUser returns a user's enrollments newest-first.
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 ORDER BY enrolled_at DESC`
	return r.queryEnrollments(ctx, query, userID)
}

// ListByCourse returns the roster for a course.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE course_id = $1 ORDER BY enrolled_at DESC`
	return r.queryEnrollments(ctx, query, courseID)
}

func (r *EnrollmentRepository) queryEnrollments(ctx context.Context, query string, arg interface{}) ([]*models.Enrollment, error) {
	rows, err := r.db.Pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := make([]*models.Enrollment, 0)
	for rows.Next() {
		e, err := scanEnrollmentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return enrollments, nil
}
