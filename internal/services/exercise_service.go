package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/davidashby/verba/internal/models"
	"github.com/davidashby/verba/internal/repositories"
)

// ExerciseRepository persists exercises and graded attempts.
type ExerciseRepository interface {
	GetByID(ctx context.Context, id string) (*models.Exercise, error)
	ListByCourse(ctx context.Context, courseID string) ([]*models.Exercise, error)
	Create(ctx context.Context, exercise *models.Exercise) (*models.Exercise, error)
	Delete(ctx context.Context, id string) error
	CreateAttempt(ctx context.Context, attempt *models.ExerciseAttempt) (*models.ExerciseAttempt, error)
	StatsForUserCourse(ctx context.Context, userID, courseID string) (*repositories.AttemptStats, error)
}

// ProgressRecorder is the slice of progress tracking the exercise service
// drives after each graded attempt.
type ProgressRecorder interface {
	RecordAttempt(ctx context.Context, userID, courseID string, scoreEarned int, correct bool) error
}

// ExerciseService manages exercises and grades submissions. Answers are
// compared server-side; the correct answer never leaves the service in a
// student-facing response.
type ExerciseService struct {
	exercises ExerciseRepository
	courses   *CourseService
	progress  ProgressRecorder
	logger    *slog.Logger
}

// NewExerciseService creates a new ExerciseService
func NewExerciseService(exercises ExerciseRepository, courses *CourseService, progress ProgressRecorder, logger *slog.Logger) *ExerciseService {
	return &ExerciseService{
		exercises: exercises,
		courses:   courses,
		progress:  progress,
		logger:    logger,
	}
}

// ExerciseInput carries the fields for a new exercise.
type ExerciseInput struct {
	Title         string
	ExerciseType  models.ExerciseType
	QuestionText  *string
	AudioURL      *string
	CorrectAnswer *string
	Options       []string
	Difficulty    models.ExerciseDifficulty
	Points        int
	TimeLimit     *int
	OrderIndex    int
}

// ExerciseView is an exercise with the correct answer stripped.
type ExerciseView struct {
	ID           string                    `json:"id"`
	CourseID     string                    `json:"course_id"`
	Title        string                    `json:"title"`
	ExerciseType models.ExerciseType       `json:"exercise_type"`
	QuestionText *string                   `json:"question_text,omitempty"`
	AudioURL     *string                   `json:"audio_url,omitempty"`
	Options      []string                  `json:"options,omitempty"`
	Difficulty   models.ExerciseDifficulty `json:"difficulty"`
	Points       int                       `json:"points"`
	TimeLimit    *int                      `json:"time_limit,omitempty"`
	OrderIndex   int                       `json:"order_index"`
}

// AttemptResult is what a student sees after submitting an answer.
type AttemptResult struct {
	AttemptID   string `json:"attempt_id"`
	IsCorrect   bool   `json:"is_correct"`
	ScoreEarned int    `json:"score_earned"`
	Feedback    string `json:"feedback"`
}

// ListByCourse returns a course's active exercises, answers stripped.
func (s *ExerciseService) ListByCourse(ctx context.Context, actor *models.TokenClaims, courseID string) ([]*ExerciseView, error) {
	if _, err := s.courses.Get(ctx, actor, courseID); err != nil {
		return nil, err
	}

	exercises, err := s.exercises.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("failed to list exercises", slog.String("course_id", courseID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	views := make([]*ExerciseView, 0, len(exercises))
	for _, ex := range exercises {
		views = append(views, exerciseToView(ex))
	}
	return views, nil
}

// Get returns a single exercise, answer stripped, if its course is visible
// to the actor.
func (s *ExerciseService) Get(ctx context.Context, actor *models.TokenClaims, exerciseID string) (*ExerciseView, error) {
	exercise, err := s.exercises.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get exercise", slog.String("exercise_id", exerciseID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if _, err := s.courses.Get(ctx, actor, exercise.CourseID); err != nil {
		return nil, err
	}
	return exerciseToView(exercise), nil
}

// Create attaches an exercise to a course the actor manages.
func (s *ExerciseService) Create(ctx context.Context, actor *models.TokenClaims, courseID string, in ExerciseInput) (*ExerciseView, error) {
	if _, err := s.courses.manageableCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" || !in.ExerciseType.Valid() {
		return nil, models.ErrBadRequest
	}
	if in.Difficulty != "" && !in.Difficulty.Valid() {
		return nil, models.ErrBadRequest
	}

	exercise := &models.Exercise{
		CourseID:      courseID,
		Title:         title,
		ExerciseType:  in.ExerciseType,
		QuestionText:  in.QuestionText,
		AudioURL:      in.AudioURL,
		CorrectAnswer: in.CorrectAnswer,
		Options:       in.Options,
		Difficulty:    in.Difficulty,
		Points:        in.Points,
		TimeLimit:     in.TimeLimit,
		OrderIndex:    in.OrderIndex,
	}

	created, err := s.exercises.Create(ctx, exercise)
	if err != nil {
		s.logger.Error("failed to create exercise", slog.String("course_id", courseID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("exercise created", slog.String("exercise_id", created.ID), slog.String("course_id", courseID))
	return exerciseToView(created), nil
}

// Delete removes an exercise from a course the actor manages.
func (s *ExerciseService) Delete(ctx context.Context, actor *models.TokenClaims, exerciseID string) error {
	exercise, err := s.exercises.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get exercise", slog.String("exercise_id", exerciseID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if _, err := s.courses.manageableCourse(ctx, actor, exercise.CourseID); err != nil {
		return err
	}

	if err := s.exercises.Delete(ctx, exerciseID); err != nil {
		s.logger.Error("failed to delete exercise", slog.String("exercise_id", exerciseID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("exercise deleted", slog.String("exercise_id", exerciseID))
	return nil
}

// SubmitAttempt grades an answer, records the attempt, and folds the
// result into the user's course progress. Grading is a trimmed,
// case-insensitive comparison against the stored answer; exercise types
// without a stored answer (speaking, for example) are recorded as correct
// for participation credit.
func (s *ExerciseService) SubmitAttempt(ctx context.Context, actor *models.TokenClaims, exerciseID, answer string, timeTaken *int) (*AttemptResult, error) {
	exercise, err := s.exercises.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get exercise", slog.String("exercise_id", exerciseID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if _, err := s.courses.Get(ctx, actor, exercise.CourseID); err != nil {
		return nil, err
	}

	correct := gradeAnswer(exercise, answer)
	score := 0
	feedback := "Not quite. Review the material and try again."
	if correct {
		score = exercise.Points
		feedback = "Correct, well done!"
	}

	attempt := &models.ExerciseAttempt{
		UserID:      actor.UserID,
		ExerciseID:  exerciseID,
		UserAnswer:  answer,
		IsCorrect:   correct,
		ScoreEarned: score,
		TimeTaken:   timeTaken,
		Feedback:    feedback,
		AttemptedAt: time.Now(),
	}

	saved, err := s.exercises.CreateAttempt(ctx, attempt)
	if err != nil {
		s.logger.Error("failed to record attempt", slog.String("exercise_id", exerciseID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.progress.RecordAttempt(ctx, actor.UserID, exercise.CourseID, score, correct); err != nil {
		// The attempt itself is already durable; progress will catch up on
		// the next submission.
		s.logger.Warn("failed to update progress after attempt",
			slog.String("user_id", actor.UserID),
			slog.String("course_id", exercise.CourseID),
			slog.Any("error", err))
	}

	return &AttemptResult{
		AttemptID:   saved.ID,
		IsCorrect:   correct,
		ScoreEarned: score,
		Feedback:    feedback,
	}, nil
}

// Stats summarizes the actor's attempts within one course.
func (s *ExerciseService) Stats(ctx context.Context, actor *models.TokenClaims, courseID string) (*repositories.AttemptStats, error) {
	stats, err := s.exercises.StatsForUserCourse(ctx, actor.UserID, courseID)
	if err != nil {
		s.logger.Error("failed to load attempt stats", slog.String("course_id", courseID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return stats, nil
}

func gradeAnswer(exercise *models.Exercise, answer string) bool {
	if exercise.CorrectAnswer == nil {
		return true
	}
	return strings.EqualFold(
		strings.TrimSpace(answer),
		strings.TrimSpace(*exercise.CorrectAnswer),
	)
}

func exerciseToView(ex *models.Exercise) *ExerciseView {
	return &ExerciseView{
		ID:           ex.ID,
		CourseID:     ex.CourseID,
		Title:        ex.Title,
		ExerciseType: ex.ExerciseType,
		QuestionText: ex.QuestionText,
		AudioURL:     ex.AudioURL,
		Options:      ex.Options,
		Difficulty:   ex.Difficulty,
		Points:       ex.Points,
		TimeLimit:    ex.TimeLimit,
		OrderIndex:   ex.OrderIndex,
	}
}
