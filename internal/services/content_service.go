package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/davidashby/verba/internal/models"
)

// ContentRepository persists course contents.
type ContentRepository interface {
	GetByID(ctx context.Context, id string) (*models.CourseContent, error)
	ListByCourse(ctx context.Context, courseID string) ([]*models.CourseContent, error)
	Create(ctx context.Context, content *models.CourseContent) (*models.CourseContent, error)
	MarkCompleted(ctx context.Context, userID, contentID string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// LessonRecorder counts completed content items toward course progress.
type LessonRecorder interface {
	RecordLesson(ctx context.Context, userID, courseID string) error
}

// ContentService manages lesson materials within a course. Course-level
// visibility and management checks are delegated to the course service so
// the rules live in one place.
type ContentService struct {
	contents ContentRepository
	courses  *CourseService
	progress LessonRecorder
	logger   *slog.Logger
}

// NewContentService creates a new ContentService
func NewContentService(contents ContentRepository, courses *CourseService, progress LessonRecorder, logger *slog.Logger) *ContentService {
	return &ContentService{
		contents: contents,
		courses:  courses,
		progress: progress,
		logger:   logger,
	}
}

// ContentInput carries the fields for a new content item.
type ContentInput struct {
	Title       string
	ContentType models.ContentType
	ContentURL  *string
	ContentText *string
	OrderIndex  int
}

// ListByCourse returns a course's contents in lesson order. The course
// must be visible to the actor.
func (s *ContentService) ListByCourse(ctx context.Context, actor *models.TokenClaims, courseID string) ([]*models.CourseContent, error) {
	if _, err := s.courses.Get(ctx, actor, courseID); err != nil {
		return nil, err
	}

	contents, err := s.contents.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("failed to list contents", slog.String("course_id", courseID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return contents, nil
}

// Get returns a single content item if its course is visible to the actor.
func (s *ContentService) Get(ctx context.Context, actor *models.TokenClaims, contentID string) (*models.CourseContent, error) {
	content, err := s.contents.GetByID(ctx, contentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get content", slog.String("content_id", contentID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if _, err := s.courses.Get(ctx, actor, content.CourseID); err != nil {
		return nil, err
	}
	return content, nil
}

// Complete marks a content item as finished by the actor. The first
// completion counts one lesson toward course progress; repeats are no-ops.
func (s *ContentService) Complete(ctx context.Context, actor *models.TokenClaims, contentID string) error {
	content, err := s.Get(ctx, actor, contentID)
	if err != nil {
		return err
	}

	newlyCompleted, err := s.contents.MarkCompleted(ctx, actor.UserID, contentID)
	if err != nil {
		s.logger.Error("failed to mark content completed", slog.String("content_id", contentID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !newlyCompleted {
		return nil
	}

	// The completion row is the source of truth; the progress counter is
	// best-effort.
	if err := s.progress.RecordLesson(ctx, actor.UserID, content.CourseID); err != nil {
		s.logger.Warn("failed to record lesson progress",
			slog.String("user_id", actor.UserID),
			slog.String("course_id", content.CourseID),
			slog.Any("error", err),
		)
	}
	return nil
}

// Create attaches a content item to a course the actor manages.
func (s *ContentService) Create(ctx context.Context, actor *models.TokenClaims, courseID string, in ContentInput) (*models.CourseContent, error) {
	if _, err := s.courses.manageableCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" || !in.ContentType.Valid() {
		return nil, models.ErrBadRequest
	}
	// Text content carries a body; everything else points at a URL.
	if in.ContentType == models.ContentText {
		if in.ContentText == nil || strings.TrimSpace(*in.ContentText) == "" {
			return nil, models.ErrBadRequest
		}
	} else if in.ContentURL == nil || strings.TrimSpace(*in.ContentURL) == "" {
		return nil, models.ErrBadRequest
	}

	content := &models.CourseContent{
		CourseID:    courseID,
		Title:       title,
		ContentType: in.ContentType,
		ContentURL:  in.ContentURL,
		ContentText: in.ContentText,
		OrderIndex:  in.OrderIndex,
	}

	created, err := s.contents.Create(ctx, content)
	if err != nil {
		s.logger.Error("failed to create content", slog.String("course_id", courseID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("content created", slog.String("content_id", created.ID), slog.String("course_id", courseID))
	return created, nil
}

// Delete removes a content item from a course the actor manages.
func (s *ContentService) Delete(ctx context.Context, actor *models.TokenClaims, contentID string) error {
	content, err := s.contents.GetByID(ctx, contentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get content", slog.String("content_id", contentID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if _, err := s.courses.manageableCourse(ctx, actor, content.CourseID); err != nil {
		return err
	}

	if err := s.contents.Delete(ctx, contentID); err != nil {
		s.logger.Error("failed to delete content", slog.String("content_id", contentID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("content deleted", slog.String("content_id", contentID))
	return nil
}
