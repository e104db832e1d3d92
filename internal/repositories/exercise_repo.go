package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/davidashby/verba/internal/database"
	"github.com/davidashby/verba/internal/models"
	"github.com/google/uuid"
)

type ExerciseRepository struct {
	db *database.DB
}

func NewExerciseRepository(db *database.DB) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

const exerciseColumns = `id, course_id, title, exercise_type, question_text, audio_url, correct_answer, options, difficulty_level, points, time_limit, order_index, is_active, created_at`

func scanExerciseRow(scanner rowScanner) (*models.Exercise, error) {
	var e models.Exercise

	err := scanner.Scan(
		&e.ID, &e.CourseID, &e.Title, &e.ExerciseType, &e.QuestionText, &e.AudioURL,
		&e.CorrectAnswer, &e.Options, &e.Difficulty, &e.Points, &e.TimeLimit,
		&e.OrderIndex, &e.IsActive, &e.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &e, nil
}

func (r *ExerciseRepository) GetByID(ctx context.Context, id string) (*models.Exercise, error) {
	query := `SELECT ` + exerciseColumns + ` FROM exercises WHERE id = $1`
	return scanExerciseRow(r.db.Pool.QueryRow(ctx, query, id))
}

// ListByCourse returns a course's active exercises in presentation order.
func (r *ExerciseRepository) ListByCourse(ctx context.Context, courseID string) ([]*models.Exercise, error) {
	query := `SELECT ` + exerciseColumns + ` FROM exercises WHERE course_id = $1 AND is_active = TRUE ORDER BY order_index, created_at`

	rows, err := r.db.Pool.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query exercises: %w", err)
	}
	defer rows.Close()

	exercises := make([]*models.Exercise, 0)
	for rows.Next() {
		e, err := scanExerciseRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		exercises = append(exercises, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return exercises, nil
}

func (r *ExerciseRepository) Create(ctx context.Context, exercise *models.Exercise) (*models.Exercise, error) {
	exercise.ID = uuid.New().String()
	exercise.CreatedAt = time.Now()
	exercise.IsActive = true

	if exercise.Difficulty == "" {
		exercise.Difficulty = models.ExerciseMedium
	}
	if exercise.Points == 0 {
		exercise.Points = 10
	}

	query := `
		INSERT INTO exercises (id, course_id, title, exercise_type, question_text, audio_url, correct_answer, options, difficulty_level, points, time_limit, order_index, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + exerciseColumns

	return scanExerciseRow(r.db.Pool.QueryRow(ctx, query,
		exercise.ID, exercise.CourseID, exercise.Title, exercise.ExerciseType,
		exercise.QuestionText, exercise.AudioURL, exercise.CorrectAnswer, exercise.Options,
		exercise.Difficulty, exercise.Points, exercise.TimeLimit, exercise.OrderIndex,
		exercise.IsActive, exercise.CreatedAt,
	))
}

func (r *ExerciseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM exercises WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CreateAttempt records one graded submission.
func (r *ExerciseRepository) CreateAttempt(ctx context.Context, attempt *models.ExerciseAttempt) (*models.ExerciseAttempt, error) {
	attempt.ID = uuid.New().String()
	attempt.AttemptedAt = time.Now()

	query := `
		INSERT INTO exercise_attempts (id, user_id, exercise_id, user_answer, is_correct, score_earned, time_taken, feedback, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, user_id, exercise_id, user_answer, is_correct, score_earned, time_taken, feedback, attempted_at
	`

	var a models.ExerciseAttempt
	err := r.db.Pool.QueryRow(ctx, query,
		attempt.ID, attempt.UserID, attempt.ExerciseID, attempt.UserAnswer,
		attempt.IsCorrect, attempt.ScoreEarned, attempt.TimeTaken, attempt.Feedback,
		attempt.AttemptedAt,
	).Scan(
		&a.ID, &a.UserID, &a.ExerciseID, &a.UserAnswer, &a.IsCorrect,
		&a.ScoreEarned, &a.TimeTaken, &a.Feedback, &a.AttemptedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &a, nil
}

// AttemptStats aggregates a user's attempts within one course, used to
// recompute progress after each submission.
type AttemptStats struct {
	Attempts     int
	Correct      int
	TotalScore   int
	DistinctDone int
}

// StatsForUserCourse aggregates attempts the user has made against the
// course's exercises.
func (r *ExerciseRepository) StatsForUserCourse(ctx context.Context, userID, courseID string) (*AttemptStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE a.is_correct),
		       COALESCE(SUM(a.score_earned), 0),
		       COUNT(DISTINCT a.exercise_id) FILTER (WHERE a.is_correct)
		FROM exercise_attempts a
		JOIN exercises e ON e.id = a.exercise_id
		WHERE a.user_id = $1 AND e.course_id = $2
	`

	var stats AttemptStats
	err := r.db.Pool.QueryRow(ctx, query, userID, courseID).Scan(
		&stats.Attempts, &stats.Correct, &stats.TotalScore, &stats.DistinctDone,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &stats, nil
}
