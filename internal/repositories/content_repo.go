package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/davidashby/verba/internal/database"
	"github.com/davidashby/verba/internal/models"
	"github.com/google/uuid"
)

type ContentRepository struct {
	db *database.DB
}

func NewContentRepository(db *database.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

const contentColumns = `id, course_id, title, content_type, content_url, content_text, order_index, created_at, updated_at`

func scanContentRow(scanner rowScanner) (*models.CourseContent, error) {
	var c models.CourseContent

	err := scanner.Scan(
		&c.ID, &c.CourseID, &c.Title, &c.ContentType, &c.ContentURL,
		&c.ContentText, &c.OrderIndex, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &c, nil
}

func (r *ContentRepository) GetByID(ctx context.Context, id string) (*models.CourseContent, error) {
	query := `SELECT ` + contentColumns + ` FROM course_contents WHERE id = $1`
	return scanContentRow(r.db.Pool.QueryRow(ctx, query, id))
}

// ListByCourse returns a course's content in presentation order.
func (r *ContentRepository) ListByCourse(ctx context.Context, courseID string) ([]*models.CourseContent, error) {
	query := `SELECT ` + contentColumns + ` FROM course_contents WHERE course_id = $1 ORDER BY order_index, created_at`

	rows, err := r.db.Pool.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query course contents: %w", err)
	}
	defer rows.Close()

	contents := make([]*models.CourseContent, 0)
	for rows.Next() {
		c, err := scanContentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content: %w", err)
		}
		contents = append(contents, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return contents, nil
}

func (r *ContentRepository) Create(ctx context.Context, content *models.CourseContent) (*models.CourseContent, error) {
	content.ID = uuid.New().String()
	now := time.Now()
	content.CreatedAt = now
	content.UpdatedAt = now

	query := `
		INSERT INTO course_contents (id, course_id, title, content_type, content_url, content_text, order_index, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + contentColumns

	return scanContentRow(r.db.Pool.QueryRow(ctx, query,
		content.ID, content.CourseID, content.Title, content.ContentType,
		content.ContentURL, content.ContentText, content.OrderIndex,
		content.CreatedAt, content.UpdatedAt,
	))
}

// MarkCompleted records that the user finished a content item. Returns
// false when the completion was already recorded, so callers can count
// each lesson at most once.
func (r *ContentRepository) MarkCompleted(ctx context.Context, userID, contentID string) (bool, error) {
	query := `
		INSERT INTO content_completions (id, user_id, content_id, completed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, content_id) DO NOTHING
	`

	result, err := r.db.Pool.Exec(ctx, query, uuid.New().String(), userID, contentID, time.Now())
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *ContentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM course_contents WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
