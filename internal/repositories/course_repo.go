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

type CourseRepository struct {
	db *database.DB
}

func NewCourseRepository(db *database.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, title, description, creator_id, difficulty, category, estimated_duration, image_url, is_published, enrollment_count, created_at, updated_at`

func scanCourseRow(scanner rowScanner) (*models.Course, error) {
	var c models.Course

	err := scanner.Scan(
		&c.ID, &c.Title, &c.Description, &c.CreatorID, &c.Difficulty, &c.Category,
		&c.EstimatedDuration, &c.ImageURL, &c.IsPublished, &c.EnrollmentCount,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &c, nil
}

func scanCourseRows(rows pgx.Rows) ([]*models.Course, error) {
	defer rows.Close()

	courses := make([]*models.Course, 0)
	for rows.Next() {
		c, err := scanCourseRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return courses, nil
}

func (r *CourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	return scanCourseRow(r.db.Pool.QueryRow(ctx, query, id))
}

// List returns courses newest-first, optionally filtered by difficulty and
// category substring. publishedOnly hides drafts from students.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter, publishedOnly bool) ([]*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE 1=1`
	args := []interface{}{}

	if publishedOnly {
		query += ` AND is_published = TRUE`
	}
	if filter.Difficulty != nil {
		args = append(args, *filter.Difficulty)
		query += fmt.Sprintf(` AND difficulty = $%d`, len(args))
	}
	if filter.Category != nil {
		args = append(args, "%"+*filter.Category+"%")
		query += fmt.Sprintf(` AND category ILIKE $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}

	return scanCourseRows(rows)
}

func (r *CourseRepository) Create(ctx context.Context, course *models.Course) (*models.Course, error) {
	course.ID = uuid.New().String()
	now := time.Now()
	course.CreatedAt = now
	course.UpdatedAt = now

	if course.Difficulty == "" {
		course.Difficulty = models.DifficultyBeginner
	}

	query := `
		INSERT INTO courses (id, title, description, creator_id, difficulty, category, estimated_duration, image_url, is_published, enrollment_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $11)
		RETURNING ` + courseColumns

	return scanCourseRow(r.db.Pool.QueryRow(ctx, query,
		course.ID, course.Title, course.Description, course.CreatorID, course.Difficulty,
		course.Category, course.EstimatedDuration, course.ImageURL, course.IsPublished,
		course.CreatedAt, course.UpdatedAt,
	))
}

func (r *CourseRepository) Update(ctx context.Context, id string, course *models.Course) (*models.Course, error) {
	query := `
		UPDATE courses
		SET title = $1, description = $2, difficulty = $3, category = $4, estimated_duration = $5, image_url = $6, is_published = $7, updated_at = $8
		WHERE id = $9
		RETURNING ` + courseColumns

	return scanCourseRow(r.db.Pool.QueryRow(ctx, query,
		course.Title, course.Description, course.Difficulty, course.Category,
		course.EstimatedDuration, course.ImageURL, course.IsPublished, time.Now(), id,
	))
}

func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Categories returns the distinct non-empty categories in use.
func (r *CourseRepository) Categories(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT category FROM courses WHERE category IS NOT NULL AND category <> '' ORDER BY category`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return categories, nil
}
