package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/davidashby/verba/internal/auth"
	"github.com/davidashby/verba/internal/models"
)

// CourseRepository is the persistence surface the course service consumes.
type CourseRepository interface {
	GetByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter, publishedOnly bool) ([]*models.Course, error)
	Create(ctx context.Context, course *models.Course) (*models.Course, error)
	Update(ctx context.Context, id string, course *models.Course) (*models.Course, error)
	Delete(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]string, error)
}

// EnrollmentRepository manages user-course enrollments.
type EnrollmentRepository interface {
	Get(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	Create(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	Delete(ctx context.Context, userID, courseID string) error
	ListByUser(ctx context.Context, userID string) ([]*models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID string) ([]*models.Enrollment, error)
}

// CourseService owns course CRUD, publishing, and enrollment. Write access
// is gated on role plus ownership: educators manage their own courses,
// admins manage any.
type CourseService struct {
	courses     CourseRepository
	enrollments EnrollmentRepository
	logger      *slog.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(courses CourseRepository, enrollments EnrollmentRepository, logger *slog.Logger) *CourseService {
	return &CourseService{
		courses:     courses,
		enrollments: enrollments,
		logger:      logger,
	}
}

// CourseInput carries the author-editable course fields.
type CourseInput struct {
	Title             string
	Description       *string
	Difficulty        models.DifficultyLevel
	Category          *string
	EstimatedDuration *int
	ImageURL          *string
}

// List returns courses visible to the actor. Students see published
// courses only; educators and admins see everything.
func (s *CourseService) List(ctx context.Context, actor *models.TokenClaims, filter models.CourseFilter) ([]*models.Course, error) {
	publishedOnly := actor == nil || actor.Role == models.RoleStudent
	courses, err := s.courses.List(ctx, filter, publishedOnly)
	if err != nil {
		s.logger.Error("failed to list courses", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return courses, nil
}

// Get returns one course, applying the same visibility rule as List.
func (s *CourseService) Get(ctx context.Context, actor *models.TokenClaims, id string) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get course", slog.String("course_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !course.IsPublished {
		if actor == nil || actor.Role == models.RoleStudent {
			// Unpublished courses do not exist as far as students are concerned.
			return nil, models.ErrNotFound
		}
	}

	return course, nil
}

// Categories lists the distinct categories of published courses.
func (s *CourseService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.courses.Categories(ctx)
	if err != nil {
		s.logger.Error("failed to list categories", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return categories, nil
}

// Create authors a new unpublished course owned by the actor.
func (s *CourseService) Create(ctx context.Context, actor *models.TokenClaims, in CourseInput) (*models.Course, error) {
	if err := auth.Authorize(actor.Role, models.RoleEducator, models.RoleAdmin); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.ErrBadRequest
	}
	if in.Difficulty == "" {
		in.Difficulty = models.DifficultyBeginner
	}
	if !in.Difficulty.Valid() {
		return nil, models.ErrBadRequest
	}

	course := &models.Course{
		Title:             title,
		Description:       in.Description,
		CreatorID:         actor.UserID,
		Difficulty:        in.Difficulty,
		Category:          in.Category,
		EstimatedDuration: in.EstimatedDuration,
		ImageURL:          in.ImageURL,
	}

	created, err := s.courses.Create(ctx, course)
	if err != nil {
		s.logger.Error("failed to create course", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("course created", slog.String("course_id", created.ID), slog.String("creator_id", actor.UserID))
	return created, nil
}

// Update edits a course the actor is allowed to manage.
func (s *CourseService) Update(ctx context.Context, actor *models.TokenClaims, id string, in CourseInput) (*models.Course, error) {
	course, err := s.manageableCourse(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(in.Title); title != "" {
		course.Title = title
	}
	if in.Description != nil {
		course.Description = in.Description
	}
	if in.Difficulty != "" {
		if !in.Difficulty.Valid() {
			return nil, models.ErrBadRequest
		}
		course.Difficulty = in.Difficulty
	}
	if in.Category != nil {
		course.Category = in.Category
	}
	if in.EstimatedDuration != nil {
		course.EstimatedDuration = in.EstimatedDuration
	}
	if in.ImageURL != nil {
		course.ImageURL = in.ImageURL
	}

	updated, err := s.courses.Update(ctx, id, course)
	if err != nil {
		s.logger.Error("failed to update course", slog.String("course_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return updated, nil
}

// SetPublished flips a course's visibility to students.
func (s *CourseService) SetPublished(ctx context.Context, actor *models.TokenClaims, id string, published bool) (*models.Course, error) {
	course, err := s.manageableCourse(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	course.IsPublished = published
	updated, err := s.courses.Update(ctx, id, course)
	if err != nil {
		s.logger.Error("failed to change publish state", slog.String("course_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("course publish state changed",
		slog.String("course_id", id),
		slog.Bool("published", published))
	return updated, nil
}

// Delete removes a course and, via cascade, its contents, exercises, and
// enrollments.
func (s *CourseService) Delete(ctx context.Context, actor *models.TokenClaims, id string) error {
	if _, err := s.manageableCourse(ctx, actor, id); err != nil {
		return err
	}

	if err := s.courses.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete course", slog.String("course_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("course deleted", slog.String("course_id", id))
	return nil
}

// Enroll adds the actor to a published course. Enrolling twice is a
// conflict.
func (s *CourseService) Enroll(ctx context.Context, actor *models.TokenClaims, courseID string) (*models.Enrollment, error) {
	course, err := s.Get(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, models.ErrNotFound
	}

	enrollment, err := s.enrollments.Create(ctx, actor.UserID, courseID)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to enroll", slog.String("course_id", courseID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user enrolled", slog.String("user_id", actor.UserID), slog.String("course_id", courseID))
	return enrollment, nil
}

// Unenroll drops the actor from a course.
func (s *CourseService) Unenroll(ctx context.Context, actor *models.TokenClaims, courseID string) error {
	if err := s.enrollments.Delete(ctx, actor.UserID, courseID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to unenroll", slog.String("course_id", courseID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user unenrolled", slog.String("user_id", actor.UserID), slog.String("course_id", courseID))
	return nil
}

// MyEnrollments lists the actor's enrollments.
func (s *CourseService) MyEnrollments(ctx context.Context, actor *models.TokenClaims) ([]*models.Enrollment, error) {
	enrollments, err := s.enrollments.ListByUser(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("failed to list enrollments", slog.String("user_id", actor.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return enrollments, nil
}

// Roster lists a course's enrollments for its manager.
func (s *CourseService) Roster(ctx context.Context, actor *models.TokenClaims, courseID string) ([]*models.Enrollment, error) {
	if _, err := s.manageableCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}

	enrollments, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("failed to list roster", slog.String("course_id", courseID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return enrollments, nil
}

// manageableCourse fetches a course and verifies the actor may modify it.
func (s *CourseService) manageableCourse(ctx context.Context, actor *models.TokenClaims, id string) (*models.Course, error) {
	if err := auth.Authorize(actor.Role, models.RoleEducator, models.RoleAdmin); err != nil {
		return nil, err
	}

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get course", slog.String("course_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !auth.CanManageCourse(actor, course.CreatorID) {
		return nil, models.ErrForbidden
	}
	return course, nil
}
