package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidashby/verba/internal/models"
)

func testContentService(contents *MockContentRepository, progress *MockLessonRecorder) *ContentService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	courses := testCourseService(&MockCourseRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Course, error) {
			return &models.Course{ID: id, CreatorID: "e1", IsPublished: true}, nil
		},
	}, nil)
	if progress == nil {
		progress = &MockLessonRecorder{}
	}
	return NewContentService(contents, courses, progress, logger)
}

func contentFixture(id string) *models.CourseContent {
	return &models.CourseContent{ID: id, CourseID: "c1", Title: "Greetings", ContentType: models.ContentText}
}

func TestContentComplete_FirstCompletionCountsLesson(t *testing.T) {
	var recordedUser, recordedCourse string
	lessons := 0
	contents := &MockContentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.CourseContent, error) {
			return contentFixture(id), nil
		},
		MarkCompletedFunc: func(ctx context.Context, userID, contentID string) (bool, error) {
			return true, nil
		},
	}
	progress := &MockLessonRecorder{
		RecordLessonFunc: func(ctx context.Context, userID, courseID string) error {
			recordedUser, recordedCourse = userID, courseID
			lessons++
			return nil
		},
	}
	svc := testContentService(contents, progress)

	err := svc.Complete(context.Background(), claimsFor("u1", models.RoleStudent), "ct1")
	require.NoError(t, err)

	assert.Equal(t, 1, lessons)
	assert.Equal(t, "u1", recordedUser)
	assert.Equal(t, "c1", recordedCourse)
}

func TestContentComplete_RepeatCompletionDoesNotDoubleCount(t *testing.T) {
	lessons := 0
	contents := &MockContentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.CourseContent, error) {
			return contentFixture(id), nil
		},
		MarkCompletedFunc: func(ctx context.Context, userID, contentID string) (bool, error) {
			return false, nil
		},
	}
	progress := &MockLessonRecorder{
		RecordLessonFunc: func(ctx context.Context, userID, courseID string) error {
			lessons++
			return nil
		},
	}
	svc := testContentService(contents, progress)

	require.NoError(t, svc.Complete(context.Background(), claimsFor("u1", models.RoleStudent), "ct1"))
	assert.Zero(t, lessons)
}

func TestContentComplete_ProgressFailureDoesNotFailCompletion(t *testing.T) {
	contents := &MockContentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.CourseContent, error) {
			return contentFixture(id), nil
		},
		MarkCompletedFunc: func(ctx context.Context, userID, contentID string) (bool, error) {
			return true, nil
		},
	}
	progress := &MockLessonRecorder{
		RecordLessonFunc: func(ctx context.Context, userID, courseID string) error {
			return models.ErrInternalServer
		},
	}
	svc := testContentService(contents, progress)

	assert.NoError(t, svc.Complete(context.Background(), claimsFor("u1", models.RoleStudent), "ct1"))
}

func TestContentComplete_UnknownContentIsNotFound(t *testing.T) {
	svc := testContentService(&MockContentRepository{}, nil)

	err := svc.Complete(context.Background(), claimsFor("u1", models.RoleStudent), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
