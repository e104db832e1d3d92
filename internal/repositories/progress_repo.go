package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/davidashby/verba/internal/database"
	"github.com/davidashby/verba/internal/models"
	"github.com/google/uuid"
)

type ProgressRepository struct {
	db *database.DB
}

func NewProgressRepository(db *database.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

const progressColumns = `id, user_id, course_id, lessons_completed, exercises_completed, correct_answers, total_score, time_spent, streak_days, last_activity, updated_at`

func scanProgressRow(scanner rowScanner) (*models.Progress, error) {
	var p models.Progress

	err := scanner.Scan(
		&p.ID, &p.UserID, &p.CourseID, &p.LessonsCompleted, &p.ExercisesCompleted,
		&p.CorrectAnswers, &p.TotalScore, &p.TimeSpent, &p.StreakDays,
		&p.LastActivity, &p.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if p.ExercisesCompleted > 0 {
		p.AverageAccuracy = float64(p.CorrectAnswers) / float64(p.ExercisesCompleted)
	}
	return &p, nil
}

func (r *ProgressRepository) Get(ctx context.Context, userID, courseID string) (*models.Progress, error) {
	query := `SELECT ` + progressColumns + ` FROM progress_tracking WHERE user_id = $1 AND course_id = $2`
	return scanProgressRow(r.db.Pool.QueryRow(ctx, query, userID, courseID))
}

// ApplyDelta folds one activity increment into the user+course row. Every
// counter update happens inside the upsert itself, so concurrent
// submissions serialize on the row and no increment is lost; the streak
// counter advances only once per calendar day.
func (r *ProgressRepository) ApplyDelta(ctx context.Context, userID, courseID string, d models.ProgressDelta) (*models.Progress, error) {
	now := time.Now()
	query := `
		INSERT INTO progress_tracking (id, user_id, course_id, lessons_completed, exercises_completed, correct_answers, total_score, time_spent, streak_days, last_activity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9, $9)
		ON CONFLICT (user_id, course_id) DO UPDATE SET
			lessons_completed = progress_tracking.lessons_completed + EXCLUDED.lessons_completed,
			exercises_completed = progress_tracking.exercises_completed + EXCLUDED.exercises_completed,
			correct_answers = progress_tracking.correct_answers + EXCLUDED.correct_answers,
			total_score = progress_tracking.total_score + EXCLUDED.total_score,
			time_spent = progress_tracking.time_spent + EXCLUDED.time_spent,
			streak_days = CASE
				WHEN progress_tracking.last_activity::date < EXCLUDED.last_activity::date - INTERVAL '1 day' THEN 1
				WHEN progress_tracking.last_activity::date = EXCLUDED.last_activity::date - INTERVAL '1 day' THEN progress_tracking.streak_days + 1
				ELSE progress_tracking.streak_days
			END,
			last_activity = EXCLUDED.last_activity,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + progressColumns

	return scanProgressRow(r.db.Pool.QueryRow(ctx, query,
		uuid.New().String(), userID, courseID, d.Lessons,
		d.Exercises, d.Correct, d.Score, d.TimeSpent, now,
	))
}

// ListByCourse returns every learner's progress in a course.
func (r *ProgressRepository) ListByCourse(ctx context.Context, courseID string) ([]*models.Progress, error) {
	query := `SELECT ` + progressColumns + ` FROM progress_tracking WHERE course_id = $1 ORDER BY updated_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	records := make([]*models.Progress, 0)
	for rows.Next() {
		p, err := scanProgressRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		records = append(records, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}
