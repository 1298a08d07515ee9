package service_test

import (
	"context"
	"errors"
	"testing"

	"alterstory-server/internal/service"
	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/interfaces/mocks"
	"alterstory-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type voteServiceDeps struct {
	storyRepo *mocks.StoryRepository
	voteRepo  *mocks.VoteRepository
	cache     *mocks.TreeCache
	publisher *mocks.StoryEventPublisher
}

func newVoteService(t *testing.T) (service.VoteService, *voteServiceDeps) {
	t.Helper()
	deps := &voteServiceDeps{
		storyRepo: new(mocks.StoryRepository),
		voteRepo:  new(mocks.VoteRepository),
		cache:     new(mocks.TreeCache),
		publisher: new(mocks.StoryEventPublisher),
	}
	svc := service.NewVoteService(nil, mocks.NewPassthroughTxManager(), deps.storyRepo, deps.voteRepo, deps.cache, deps.publisher, zap.NewNop())
	return svc, deps
}

func (d *voteServiceDeps) assertExpectations(t *testing.T) {
	d.storyRepo.AssertExpectations(t)
	d.voteRepo.AssertExpectations(t)
	d.cache.AssertExpectations(t)
	d.publisher.AssertExpectations(t)
}

func (d *voteServiceDeps) expectVoteUpdate(ctx context.Context, rootID uuid.UUID, likes, dislikes int) {
	d.cache.On("Invalidate", ctx, rootID).Return(nil).Once()
	d.publisher.On("PublishStoryEvent", ctx, mock.MatchedBy(func(e models.StoryEvent) bool {
		return e.Type == models.EventVoteUpdate && e.StoryRootID == rootID &&
			e.LikeCount != nil && *e.LikeCount == likes &&
			e.DislikeCount != nil && *e.DislikeCount == dislikes
	})).Return(nil).Once()
}

func TestCastVote(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()

	t.Run("Invalid vote type", func(t *testing.T) {
		svc, deps := newVoteService(t)
		_, err := svc.CastVote(ctx, actorID, uuid.New(), "love")

		var validationErr *models.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "vote_type", validationErr.Field)
		deps.assertExpectations(t)
	})

	t.Run("Anonymous actor", func(t *testing.T) {
		svc, deps := newVoteService(t)
		_, err := svc.CastVote(ctx, uuid.Nil, uuid.New(), models.VoteLike)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
		deps.assertExpectations(t)
	})

	t.Run("Story not found", func(t *testing.T) {
		svc, deps := newVoteService(t)
		storyID := uuid.New()
		deps.storyRepo.On("GetByID", ctx, mock.Anything, storyID).Return(nil, models.ErrNotFound).Once()

		_, err := svc.CastVote(ctx, actorID, storyID, models.VoteLike)
		assert.ErrorIs(t, err, models.ErrNotFound)
		deps.assertExpectations(t)
	})

	t.Run("First like", func(t *testing.T) {
		svc, deps := newVoteService(t)
		story := rootStory(3, 0)

		deps.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Once()
		deps.voteRepo.On("GetForUpdate", ctx, mock.Anything, actorID, story.ID).Return(nil, models.ErrNotFound).Once()
		deps.voteRepo.On("Insert", ctx, mock.Anything, actorID, story.ID, models.VoteLike).Return(nil).Once()
		deps.storyRepo.On("AdjustVoteCounts", ctx, mock.Anything, story.ID, 1, 0).Return(1, 0, nil).Once()
		deps.expectVoteUpdate(ctx, story.StoryRootID, 1, 0)

		state, err := svc.CastVote(ctx, actorID, story.ID, models.VoteLike)
		require.NoError(t, err)
		require.NotNil(t, state.VoteType)
		assert.Equal(t, models.VoteLike, *state.VoteType)
		assert.Equal(t, 1, state.LikeCount)
		assert.Equal(t, 0, state.DislikeCount)
		deps.assertExpectations(t)
	})

	t.Run("Switching like to dislike moves one count", func(t *testing.T) {
		svc, deps := newVoteService(t)
		story := rootStory(3, 0)
		story.LikeCount = 4
		story.DislikeCount = 1

		deps.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Once()
		deps.voteRepo.On("GetForUpdate", ctx, mock.Anything, actorID, story.ID).
			Return(&models.Vote{UserID: actorID, StoryID: story.ID, VoteType: models.VoteLike}, nil).Once()
		deps.voteRepo.On("UpdateType", ctx, mock.Anything, actorID, story.ID, models.VoteDislike).Return(nil).Once()
		deps.storyRepo.On("AdjustVoteCounts", ctx, mock.Anything, story.ID, -1, 1).Return(3, 2, nil).Once()
		deps.expectVoteUpdate(ctx, story.StoryRootID, 3, 2)

		state, err := svc.CastVote(ctx, actorID, story.ID, models.VoteDislike)
		require.NoError(t, err)
		assert.Equal(t, models.VoteDislike, *state.VoteType)
		assert.Equal(t, 3, state.LikeCount)
		assert.Equal(t, 2, state.DislikeCount)
		deps.voteRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		deps.assertExpectations(t)
	})

	t.Run("Same vote twice is a no-op", func(t *testing.T) {
		svc, deps := newVoteService(t)
		story := rootStory(3, 0)
		story.LikeCount = 1

		deps.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Once()
		deps.voteRepo.On("GetForUpdate", ctx, mock.Anything, actorID, story.ID).
			Return(&models.Vote{VoteType: models.VoteLike}, nil).Once()

		state, err := svc.CastVote(ctx, actorID, story.ID, models.VoteLike)
		require.NoError(t, err)
		assert.Equal(t, 1, state.LikeCount)
		deps.storyRepo.AssertNotCalled(t, "AdjustVoteCounts", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		deps.publisher.AssertNotCalled(t, "PublishStoryEvent", mock.Anything, mock.Anything)
		deps.assertExpectations(t)
	})

	t.Run("Concurrent first vote retried as update", func(t *testing.T) {
		svc, deps := newVoteService(t)
		story := rootStory(3, 0)

		deps.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Twice()
		deps.voteRepo.On("GetForUpdate", ctx, mock.Anything, actorID, story.ID).Return(nil, models.ErrNotFound).Once()
		deps.voteRepo.On("Insert", ctx, mock.Anything, actorID, story.ID, models.VoteDislike).Return(interfaces.ErrVoteAlreadyExists).Once()
		deps.voteRepo.On("GetForUpdate", ctx, mock.Anything, actorID, story.ID).
			Return(&models.Vote{VoteType: models.VoteLike}, nil).Once()
		deps.voteRepo.On("UpdateType", ctx, mock.Anything, actorID, story.ID, models.VoteDislike).Return(nil).Once()
		deps.storyRepo.On("AdjustVoteCounts", ctx, mock.Anything, story.ID, -1, 1).Return(0, 1, nil).Once()
		deps.expectVoteUpdate(ctx, story.StoryRootID, 0, 1)

		state, err := svc.CastVote(ctx, actorID, story.ID, models.VoteDislike)
		require.NoError(t, err)
		assert.Equal(t, 1, state.DislikeCount)
		deps.assertExpectations(t)
	})

	t.Run("Persistent conflict is a storage error", func(t *testing.T) {
		svc, deps := newVoteService(t)
		story := rootStory(3, 0)

		deps.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Twice()
		deps.voteRepo.On("GetForUpdate", ctx, mock.Anything, actorID, story.ID).Return(nil, models.ErrNotFound).Twice()
		deps.voteRepo.On("Insert", ctx, mock.Anything, actorID, story.ID, models.VoteLike).Return(interfaces.ErrVoteAlreadyExists).Twice()

		_, err := svc.CastVote(ctx, actorID, story.ID, models.VoteLike)
		assert.ErrorIs(t, err, models.ErrStorage)
		deps.assertExpectations(t)
	})
}

func TestRetractVote(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()

	t.Run("Existing dislike", func(t *testing.T) {
		svc, deps := newVoteService(t)
		story := rootStory(3, 0)
		story.DislikeCount = 2
		removed := models.VoteDislike

		deps.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Once()
		deps.voteRepo.On("Delete", ctx, mock.Anything, actorID, story.ID).Return(&removed, nil).Once()
		deps.storyRepo.On("AdjustVoteCounts", ctx, mock.Anything, story.ID, 0, -1).Return(0, 1, nil).Once()
		deps.expectVoteUpdate(ctx, story.StoryRootID, 0, 1)

		state, err := svc.RetractVote(ctx, actorID, story.ID)
		require.NoError(t, err)
		assert.Nil(t, state.VoteType)
		assert.Equal(t, 1, state.DislikeCount)
		deps.assertExpectations(t)
	})

	t.Run("Retract twice leaves counts unchanged", func(t *testing.T) {
		svc, deps := newVoteService(t)
		story := rootStory(3, 0)
		story.LikeCount = 5

		deps.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Twice()
		deps.voteRepo.On("Delete", ctx, mock.Anything, actorID, story.ID).Return(nil, nil).Twice()

		for i := 0; i < 2; i++ {
			state, err := svc.RetractVote(ctx, actorID, story.ID)
			require.NoError(t, err)
			assert.Equal(t, 5, state.LikeCount)
		}
		deps.storyRepo.AssertNotCalled(t, "AdjustVoteCounts", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		deps.publisher.AssertNotCalled(t, "PublishStoryEvent", mock.Anything, mock.Anything)
		deps.assertExpectations(t)
	})

	t.Run("Storage failure", func(t *testing.T) {
		svc, deps := newVoteService(t)
		story := rootStory(3, 0)

		deps.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Once()
		deps.voteRepo.On("Delete", ctx, mock.Anything, actorID, story.ID).Return(nil, errors.New("conn reset")).Once()

		_, err := svc.RetractVote(ctx, actorID, story.ID)
		assert.ErrorIs(t, err, models.ErrStorage)
		deps.assertExpectations(t)
	})
}

func TestGetUserVoteAndStats(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()

	t.Run("Anonymous has no vote", func(t *testing.T) {
		svc, deps := newVoteService(t)
		vote, err := svc.GetUserVote(ctx, uuid.Nil, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, vote)
		deps.assertExpectations(t)
	})

	t.Run("No vote", func(t *testing.T) {
		svc, deps := newVoteService(t)
		storyID := uuid.New()
		deps.voteRepo.On("Get", ctx, mock.Anything, actorID, storyID).Return(nil, models.ErrNotFound).Once()

		vote, err := svc.GetUserVote(ctx, actorID, storyID)
		require.NoError(t, err)
		assert.Nil(t, vote)
		deps.assertExpectations(t)
	})

	t.Run("Existing vote", func(t *testing.T) {
		svc, deps := newVoteService(t)
		storyID := uuid.New()
		deps.voteRepo.On("Get", ctx, mock.Anything, actorID, storyID).Return(&models.Vote{VoteType: models.VoteDislike}, nil).Once()

		vote, err := svc.GetUserVote(ctx, actorID, storyID)
		require.NoError(t, err)
		require.NotNil(t, vote)
		assert.Equal(t, models.VoteDislike, *vote)
		deps.assertExpectations(t)
	})

	t.Run("Stats ratio", func(t *testing.T) {
		svc, deps := newVoteService(t)
		story := rootStory(3, 0)
		story.LikeCount = 3
		story.DislikeCount = 1
		deps.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Once()

		stats, err := svc.GetVoteStats(ctx, story.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, stats.Total)
		assert.InDelta(t, 0.75, stats.Ratio, 1e-9)
		deps.assertExpectations(t)
	})

	t.Run("Stats without votes", func(t *testing.T) {
		svc, deps := newVoteService(t)
		story := rootStory(3, 0)
		deps.storyRepo.On("GetByID", ctx, mock.Anything, story.ID).Return(story, nil).Once()

		stats, err := svc.GetVoteStats(ctx, story.ID)
		require.NoError(t, err)
		assert.Zero(t, stats.Ratio)
		deps.assertExpectations(t)
	})
}
