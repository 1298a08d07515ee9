package service_test

import (
	"context"
	"strings"
	"testing"

	"alterstory-server/internal/service"
	"alterstory-server/shared/interfaces/mocks"
	"alterstory-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type commentServiceDeps struct {
	storyRepo   *mocks.StoryRepository
	commentRepo *mocks.CommentRepository
	cache       *mocks.TreeCache
	publisher   *mocks.StoryEventPublisher
}

func newCommentService(t *testing.T) (service.CommentService, *commentServiceDeps) {
	t.Helper()
	deps := &commentServiceDeps{
		storyRepo:   new(mocks.StoryRepository),
		commentRepo: new(mocks.CommentRepository),
		cache:       new(mocks.TreeCache),
		publisher:   new(mocks.StoryEventPublisher),
	}
	svc := service.NewCommentService(nil, mocks.NewPassthroughTxManager(), deps.storyRepo, deps.commentRepo, deps.cache, deps.publisher, zap.NewNop())
	return svc, deps
}

func (d *commentServiceDeps) assertExpectations(t *testing.T) {
	d.storyRepo.AssertExpectations(t)
	d.commentRepo.AssertExpectations(t)
	d.cache.AssertExpectations(t)
	d.publisher.AssertExpectations(t)
}

func eventOfType(eventType models.StoryEventType) interface{} {
	return mock.MatchedBy(func(e models.StoryEvent) bool { return e.Type == eventType })
}

func TestAddComment(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()

	t.Run("Empty content", func(t *testing.T) {
		svc, deps := newCommentService(t)
		_, err := svc.AddComment(ctx, actorID, uuid.New(), "   ")

		var validationErr *models.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "Comment cannot be empty", validationErr.Message)
		deps.assertExpectations(t)
	})

	t.Run("Too long", func(t *testing.T) {
		svc, deps := newCommentService(t)
		_, err := svc.AddComment(ctx, actorID, uuid.New(), strings.Repeat("a", models.MaxCommentLength+1))

		var validationErr *models.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "Comment cannot exceed 1000 characters", validationErr.Message)
		deps.assertExpectations(t)
	})

	t.Run("Story not found", func(t *testing.T) {
		svc, deps := newCommentService(t)
		storyID := uuid.New()
		deps.storyRepo.On("GetByID", ctx, mock.Anything, storyID).Return(nil, models.ErrNotFound).Once()

		_, err := svc.AddComment(ctx, actorID, storyID, "Nice")
		assert.ErrorIs(t, err, models.ErrNotFound)
		deps.assertExpectations(t)
	})

	t.Run("Success", func(t *testing.T) {
		svc, deps := newCommentService(t)
		story := rootStory(3, 0)

		deps.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Once()
		deps.commentRepo.On("Create", ctx, mock.Anything, mock.MatchedBy(func(c *models.Comment) bool {
			return c.StoryID == story.ID && c.UserID == actorID && c.Content == "Nice"
		})).Return(nil).Once()
		deps.storyRepo.On("AdjustCommentCount", ctx, mock.Anything, story.ID, 1).Return(1, nil).Once()
		deps.cache.On("Invalidate", ctx, story.StoryRootID).Return(nil).Twice()
		deps.publisher.On("PublishStoryEvent", ctx, eventOfType(models.EventCommentAdded)).Return(nil).Once()
		deps.publisher.On("PublishStoryEvent", ctx, mock.MatchedBy(func(e models.StoryEvent) bool {
			return e.Type == models.EventCommentCountUpdate && e.CommentCount != nil && *e.CommentCount == 1
		})).Return(nil).Once()

		comment, err := svc.AddComment(ctx, actorID, story.ID, " Nice ")
		require.NoError(t, err)
		assert.Equal(t, "Nice", comment.Content)
		deps.assertExpectations(t)
	})
}

func TestEditComment(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New()
	story := rootStory(3, 0)
	existing := &models.Comment{ID: uuid.New(), StoryID: story.ID, UserID: authorID, Content: "old"}

	t.Run("Other user is forbidden", func(t *testing.T) {
		svc, deps := newCommentService(t)
		deps.commentRepo.On("GetByID", ctx, mock.Anything, existing.ID).Return(existing, nil).Once()

		_, err := svc.EditComment(ctx, uuid.New(), existing.ID, "new")
		assert.ErrorIs(t, err, models.ErrForbidden)
		deps.assertExpectations(t)
	})

	t.Run("Author edits", func(t *testing.T) {
		svc, deps := newCommentService(t)
		updated := *existing
		updated.Content = "new"

		deps.commentRepo.On("GetByID", ctx, mock.Anything, existing.ID).Return(existing, nil).Once()
		deps.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Once()
		deps.commentRepo.On("UpdateContent", ctx, mock.Anything, existing.ID, "new").Return(&updated, nil).Once()
		deps.cache.On("Invalidate", ctx, story.ID).Return(nil).Once()
		deps.publisher.On("PublishStoryEvent", ctx, eventOfType(models.EventCommentUpdated)).Return(nil).Once()

		got, err := svc.EditComment(ctx, authorID, existing.ID, "new")
		require.NoError(t, err)
		assert.Equal(t, "new", got.Content)
		deps.assertExpectations(t)
	})

	t.Run("Missing comment", func(t *testing.T) {
		svc, deps := newCommentService(t)
		missing := uuid.New()
		deps.commentRepo.On("GetByID", ctx, mock.Anything, missing).Return(nil, models.ErrNotFound).Once()

		_, err := svc.EditComment(ctx, authorID, missing, "new")
		assert.ErrorIs(t, err, models.ErrNotFound)
		deps.assertExpectations(t)
	})
}

func TestDeleteComment(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New()
	story := rootStory(3, 0)
	existing := &models.Comment{ID: uuid.New(), StoryID: story.ID, UserID: authorID, Content: "bye"}

	t.Run("Other user is forbidden", func(t *testing.T) {
		svc, deps := newCommentService(t)
		deps.commentRepo.On("GetByID", ctx, mock.Anything, existing.ID).Return(existing, nil).Once()

		err := svc.DeleteComment(ctx, uuid.New(), existing.ID)
		assert.ErrorIs(t, err, models.ErrForbidden)
		deps.commentRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
		deps.assertExpectations(t)
	})

	t.Run("Author deletes", func(t *testing.T) {
		svc, deps := newCommentService(t)
		deps.commentRepo.On("GetByID", ctx, mock.Anything, existing.ID).Return(existing, nil).Once()
		deps.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Once()
		deps.commentRepo.On("Delete", ctx, mock.Anything, existing.ID).Return(nil).Once()
		deps.storyRepo.On("AdjustCommentCount", ctx, mock.Anything, story.ID, -1).Return(0, nil).Once()
		deps.cache.On("Invalidate", ctx, story.ID).Return(nil).Twice()
		deps.publisher.On("PublishStoryEvent", ctx, eventOfType(models.EventCommentDeleted)).Return(nil).Once()
		deps.publisher.On("PublishStoryEvent", ctx, eventOfType(models.EventCommentCountUpdate)).Return(nil).Once()

		require.NoError(t, svc.DeleteComment(ctx, authorID, existing.ID))
		deps.assertExpectations(t)
	})
}

func TestListComments(t *testing.T) {
	ctx := context.Background()
	storyID := uuid.New()

	svc, deps := newCommentService(t)
	deps.commentRepo.On("ListByStory", ctx, mock.Anything, storyID, "", 20).
		Return([]*models.Comment{{ID: uuid.New()}}, "next", nil).Once()

	comments, next, err := svc.ListComments(ctx, storyID, "", 500)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
	assert.Equal(t, "next", next)
	deps.assertExpectations(t)
}
