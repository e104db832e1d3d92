package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/davidashby/verba/internal/models"
)

// ProgressRepository persists per-user, per-course progress rows.
type ProgressRepository interface {
	Get(ctx context.Context, userID, courseID string) (*models.Progress, error)
	ApplyDelta(ctx context.Context, userID, courseID string, d models.ProgressDelta) (*models.Progress, error)
	ListByCourse(ctx context.Context, courseID string) ([]*models.Progress, error)
}

// ProgressService tracks learning activity. RecordAttempt is called by the
// exercise service after each graded submission; reads are exposed to the
// learner and to course managers.
type ProgressService struct {
	progress ProgressRepository
	courses  *CourseService
	logger   *slog.Logger
}

// NewProgressService creates a new ProgressService
func NewProgressService(progress ProgressRepository, courses *CourseService, logger *slog.Logger) *ProgressService {
	return &ProgressService{
		progress: progress,
		courses:  courses,
		logger:   logger,
	}
}

// RecordAttempt folds one graded attempt into the user's course progress.
// The increment is applied inside the repository upsert, so concurrent
// submissions for the same user+course never lose an attempt.
func (s *ProgressService) RecordAttempt(ctx context.Context, userID, courseID string, scoreEarned int, correct bool) error {
	delta := models.ProgressDelta{
		Exercises: 1,
		Score:     scoreEarned,
	}
	if correct {
		delta.Correct = 1
	}

	_, err := s.progress.ApplyDelta(ctx, userID, courseID, delta)
	return err
}

// RecordLesson counts one newly completed content item toward the user's
// course progress. Callers dedupe completions before calling this.
func (s *ProgressService) RecordLesson(ctx context.Context, userID, courseID string) error {
	_, err := s.progress.ApplyDelta(ctx, userID, courseID, models.ProgressDelta{Lessons: 1})
	return err
}

// Get returns the actor's progress in one course. No attempts yet reads as
// an empty record rather than a 404.
func (s *ProgressService) Get(ctx context.Context, actor *models.TokenClaims, courseID string) (*models.Progress, error) {
	p, err := s.progress.Get(ctx, actor.UserID, courseID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return &models.Progress{UserID: actor.UserID, CourseID: courseID}, nil
		}
		s.logger.Error("failed to get progress", slog.String("course_id", courseID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return p, nil
}

// ListByCourse returns every learner's progress in a course the actor
// manages.
func (s *ProgressService) ListByCourse(ctx context.Context, actor *models.TokenClaims, courseID string) ([]*models.Progress, error) {
	if _, err := s.courses.manageableCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}

	rows, err := s.progress.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("failed to list course progress", slog.String("course_id", courseID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return rows, nil
}
