package services

import (
	"context"
	"time"

	"github.com/davidashby/verba/internal/models"
	"github.com/davidashby/verba/internal/repositories"
)

// MockUserRepository implements UserRepository and AdminUserRepository for testing
type MockUserRepository struct {
	GetByIDFunc       func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc    func(ctx context.Context, email string) (*models.User, error)
	ListFunc          func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CreateFunc        func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateProfileFunc func(ctx context.Context, id string, user *models.User) (*models.User, error)
	DeleteFunc        func(ctx context.Context, id string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id string, user *models.User) (*models.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockSessionRepository implements SessionRepository and SessionUnlocker for testing
type MockSessionRepository struct {
	GetByUserIDFunc          func(ctx context.Context, userID string) (*models.SessionRecord, error)
	RecordFailedLoginFunc    func(ctx context.Context, userID string) (*models.SessionRecord, error)
	RecordLoginFunc          func(ctx context.Context, userID, jti string) error
	SetActiveTokenFunc       func(ctx context.Context, userID, jti string) error
	ClearActiveTokenFunc     func(ctx context.Context, userID string) (bool, error)
	IsTokenValidFunc         func(ctx context.Context, userID, jti string) (bool, error)
	UnlockFunc               func(ctx context.Context, userID string) error
	SetResetTokenFunc        func(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetByResetTokenHashFunc  func(ctx context.Context, tokenHash string) (*models.SessionRecord, error)
	ConfirmPasswordResetFunc func(ctx context.Context, userID, newPasswordHash string) error
	SetTOTPSecretFunc        func(ctx context.Context, userID, secret string) error
	EnableTwoFactorFunc      func(ctx context.Context, userID string) error
}

func (m *MockSessionRepository) GetByUserID(ctx context.Context, userID string) (*models.SessionRecord, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockSessionRepository) RecordFailedLogin(ctx context.Context, userID string) (*models.SessionRecord, error) {
	if m.RecordFailedLoginFunc != nil {
		return m.RecordFailedLoginFunc(ctx, userID)
	}
	return &models.SessionRecord{UserID: userID, LoginAttempts: 1}, nil
}

func (m *MockSessionRepository) RecordLogin(ctx context.Context, userID, jti string) error {
	if m.RecordLoginFunc != nil {
		return m.RecordLoginFunc(ctx, userID, jti)
	}
	return nil
}

func (m *MockSessionRepository) SetActiveToken(ctx context.Context, userID, jti string) error {
	if m.SetActiveTokenFunc != nil {
		return m.SetActiveTokenFunc(ctx, userID, jti)
	}
	return nil
}

func (m *MockSessionRepository) ClearActiveToken(ctx context.Context, userID string) (bool, error) {
	if m.ClearActiveTokenFunc != nil {
		return m.ClearActiveTokenFunc(ctx, userID)
	}
	return true, nil
}

func (m *MockSessionRepository) IsTokenValid(ctx context.Context, userID, jti string) (bool, error) {
	if m.IsTokenValidFunc != nil {
		return m.IsTokenValidFunc(ctx, userID, jti)
	}
	return false, nil
}

func (m *MockSessionRepository) Unlock(ctx context.Context, userID string) error {
	if m.UnlockFunc != nil {
		return m.UnlockFunc(ctx, userID)
	}
	return nil
}

func (m *MockSessionRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	if m.SetResetTokenFunc != nil {
		return m.SetResetTokenFunc(ctx, userID, tokenHash, expiresAt)
	}
	return nil
}

func (m *MockSessionRepository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*models.SessionRecord, error) {
	if m.GetByResetTokenHashFunc != nil {
		return m.GetByResetTokenHashFunc(ctx, tokenHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockSessionRepository) ConfirmPasswordReset(ctx context.Context, userID, newPasswordHash string) error {
	if m.ConfirmPasswordResetFunc != nil {
		return m.ConfirmPasswordResetFunc(ctx, userID, newPasswordHash)
	}
	return nil
}

func (m *MockSessionRepository) SetTOTPSecret(ctx context.Context, userID, secret string) error {
	if m.SetTOTPSecretFunc != nil {
		return m.SetTOTPSecretFunc(ctx, userID, secret)
	}
	return nil
}

func (m *MockSessionRepository) EnableTwoFactor(ctx context.Context, userID string) error {
	if m.EnableTwoFactorFunc != nil {
		return m.EnableTwoFactorFunc(ctx, userID)
	}
	return nil
}

// MockEmailSender implements EmailSender for testing
type MockEmailSender struct {
	SendPasswordResetEmailFunc func(ctx context.Context, email, token string, expiresAt time.Time) error
}

func (m *MockEmailSender) SendPasswordResetEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	if m.SendPasswordResetEmailFunc != nil {
		return m.SendPasswordResetEmailFunc(ctx, email, token, expiresAt)
	}
	return nil
}

// MockCourseRepository implements CourseRepository for testing
type MockCourseRepository struct {
	GetByIDFunc    func(ctx context.Context, id string) (*models.Course, error)
	ListFunc       func(ctx context.Context, filter models.CourseFilter, publishedOnly bool) ([]*models.Course, error)
	CreateFunc     func(ctx context.Context, course *models.Course) (*models.Course, error)
	UpdateFunc     func(ctx context.Context, id string, course *models.Course) (*models.Course, error)
	DeleteFunc     func(ctx context.Context, id string) error
	CategoriesFunc func(ctx context.Context) ([]string, error)
}

func (m *MockCourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockCourseRepository) List(ctx context.Context, filter models.CourseFilter, publishedOnly bool) ([]*models.Course, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, publishedOnly)
	}
	return []*models.Course{}, nil
}

func (m *MockCourseRepository) Create(ctx context.Context, course *models.Course) (*models.Course, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, course)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCourseRepository) Update(ctx context.Context, id string, course *models.Course) (*models.Course, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, course)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCourseRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockCourseRepository) Categories(ctx context.Context) ([]string, error) {
	if m.CategoriesFunc != nil {
		return m.CategoriesFunc(ctx)
	}
	return []string{}, nil
}

// MockEnrollmentRepository implements EnrollmentRepository for testing
type MockEnrollmentRepository struct {
	GetFunc          func(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	CreateFunc       func(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	DeleteFunc       func(ctx context.Context, userID, courseID string) error
	ListByUserFunc   func(ctx context.Context, userID string) ([]*models.Enrollment, error)
	ListByCourseFunc func(ctx context.Context, courseID string) ([]*models.Enrollment, error)
}

func (m *MockEnrollmentRepository) Get(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, courseID)
	}
	return nil, models.ErrNotFound
}

func (m *MockEnrollmentRepository) Create(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, courseID)
	}
	return &models.Enrollment{UserID: userID, CourseID: courseID, Status: models.EnrollmentEnrolled}, nil
}

func (m *MockEnrollmentRepository) Delete(ctx context.Context, userID, courseID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, courseID)
	}
	return nil
}

func (m *MockEnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]*models.Enrollment, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*models.Enrollment{}, nil
}

func (m *MockEnrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]*models.Enrollment, error) {
	if m.ListByCourseFunc != nil {
		return m.ListByCourseFunc(ctx, courseID)
	}
	return []*models.Enrollment{}, nil
}

// MockExerciseRepository implements ExerciseRepository for testing
type MockExerciseRepository struct {
	GetByIDFunc            func(ctx context.Context, id string) (*models.Exercise, error)
	ListByCourseFunc       func(ctx context.Context, courseID string) ([]*models.Exercise, error)
	CreateFunc             func(ctx context.Context, exercise *models.Exercise) (*models.Exercise, error)
	DeleteFunc             func(ctx context.Context, id string) error
	CreateAttemptFunc      func(ctx context.Context, attempt *models.ExerciseAttempt) (*models.ExerciseAttempt, error)
	StatsForUserCourseFunc func(ctx context.Context, userID, courseID string) (*repositories.AttemptStats, error)
}

func (m *MockExerciseRepository) GetByID(ctx context.Context, id string) (*models.Exercise, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockExerciseRepository) ListByCourse(ctx context.Context, courseID string) ([]*models.Exercise, error) {
	if m.ListByCourseFunc != nil {
		return m.ListByCourseFunc(ctx, courseID)
	}
	return []*models.Exercise{}, nil
}

func (m *MockExerciseRepository) Create(ctx context.Context, exercise *models.Exercise) (*models.Exercise, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, exercise)
	}
	return nil, models.ErrInternalServer
}

func (m *MockExerciseRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockExerciseRepository) CreateAttempt(ctx context.Context, attempt *models.ExerciseAttempt) (*models.ExerciseAttempt, error) {
	if m.CreateAttemptFunc != nil {
		return m.CreateAttemptFunc(ctx, attempt)
	}
	out := *attempt
	out.ID = "attempt-1"
	return &out, nil
}

func (m *MockExerciseRepository) StatsForUserCourse(ctx context.Context, userID, courseID string) (*repositories.AttemptStats, error) {
	if m.StatsForUserCourseFunc != nil {
		return m.StatsForUserCourseFunc(ctx, userID, courseID)
	}
	return &repositories.AttemptStats{}, nil
}

// MockContentRepository implements ContentRepository for testing
type MockContentRepository struct {
	GetByIDFunc       func(ctx context.Context, id string) (*models.CourseContent, error)
	ListByCourseFunc  func(ctx context.Context, courseID string) ([]*models.CourseContent, error)
	CreateFunc        func(ctx context.Context, content *models.CourseContent) (*models.CourseContent, error)
	MarkCompletedFunc func(ctx context.Context, userID, contentID string) (bool, error)
	DeleteFunc        func(ctx context.Context, id string) error
}

func (m *MockContentRepository) GetByID(ctx context.Context, id string) (*models.CourseContent, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockContentRepository) ListByCourse(ctx context.Context, courseID string) ([]*models.CourseContent, error) {
	if m.ListByCourseFunc != nil {
		return m.ListByCourseFunc(ctx, courseID)
	}
	return []*models.CourseContent{}, nil
}

func (m *MockContentRepository) Create(ctx context.Context, content *models.CourseContent) (*models.CourseContent, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, content)
	}
	return content, nil
}

func (m *MockContentRepository) MarkCompleted(ctx context.Context, userID, contentID string) (bool, error) {
	if m.MarkCompletedFunc != nil {
		return m.MarkCompletedFunc(ctx, userID, contentID)
	}
	return true, nil
}

func (m *MockContentRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return models.ErrInternalServer
}

// MockLessonRecorder implements LessonRecorder for testing
type MockLessonRecorder struct {
	RecordLessonFunc func(ctx context.Context, userID, courseID string) error
}

func (m *MockLessonRecorder) RecordLesson(ctx context.Context, userID, courseID string) error {
	if m.RecordLessonFunc != nil {
		return m.RecordLessonFunc(ctx, userID, courseID)
	}
	return nil
}

// MockProgressRepository implements ProgressRepository for testing
type MockProgressRepository struct {
	GetFunc          func(ctx context.Context, userID, courseID string) (*models.Progress, error)
	ApplyDeltaFunc   func(ctx context.Context, userID, courseID string, d models.ProgressDelta) (*models.Progress, error)
	ListByCourseFunc func(ctx context.Context, courseID string) ([]*models.Progress, error)
}

func (m *MockProgressRepository) Get(ctx context.Context, userID, courseID string) (*models.Progress, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, courseID)
	}
	return nil, models.ErrNotFound
}

func (m *MockProgressRepository) ApplyDelta(ctx context.Context, userID, courseID string, d models.ProgressDelta) (*models.Progress, error) {
	if m.ApplyDeltaFunc != nil {
		return m.ApplyDeltaFunc(ctx, userID, courseID, d)
	}
	return &models.Progress{UserID: userID, CourseID: courseID}, nil
}

func (m *MockProgressRepository) ListByCourse(ctx context.Context, courseID string) ([]*models.Progress, error) {
	if m.ListByCourseFunc != nil {
		return m.ListByCourseFunc(ctx, courseID)
	}
	return []*models.Progress{}, nil
}

// MockProgressRecorder implements ProgressRecorder for testing
type MockProgressRecorder struct {
	RecordAttemptFunc func(ctx context.Context, userID, courseID string, scoreEarned int, correct bool) error
}

func (m *MockProgressRecorder) RecordAttempt(ctx context.Context, userID, courseID string, scoreEarned int, correct bool) error {
	if m.RecordAttemptFunc != nil {
		return m.RecordAttemptFunc(ctx, userID, courseID, scoreEarned, correct)
	}
	return nil
}
