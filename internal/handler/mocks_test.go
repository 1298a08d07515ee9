package handler

import (
	"context"
	"io"

	"alterstory-server/internal/service"
	"alterstory-server/internal/tree"
	"alterstory-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockStoryService struct{ mock.Mock }

var _ service.StoryService = (*mockStoryService)(nil)

func (m *mockStoryService) CreateRoot(ctx context.Context, actorID uuid.UUID, title, content string) (*models.Story, error) {
	args := m.Called(ctx, actorID, title, content)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}

func (m *mockStoryService) AttemptContinuation(ctx context.Context, actorID, parentID, rootID uuid.UUID, title, content string) (*models.Story, error) {
	args := m.Called(ctx, actorID, parentID, rootID, title, content)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}

func (m *mockStoryService) GetStoryWithChildren(ctx context.Context, storyID uuid.UUID) (*models.StoryWithChildren, error) {
	args := m.Called(ctx, storyID)
	result, _ := args.Get(0).(*models.StoryWithChildren)
	return result, args.Error(1)
}

func (m *mockStoryService) GetTree(ctx context.Context, rootID uuid.UUID) ([]*models.Story, error) {
	args := m.Called(ctx, rootID)
	nodes, _ := args.Get(0).([]*models.Story)
	return nodes, args.Error(1)
}

func (m *mockStoryService) GetNestedTree(ctx context.Context, rootID, currentID uuid.UUID) ([]*tree.Node, error) {
	args := m.Called(ctx, rootID, currentID)
	nodes, _ := args.Get(0).([]*tree.Node)
	return nodes, args.Error(1)
}

func (m *mockStoryService) GetBreadcrumbs(ctx context.Context, storyID uuid.UUID) ([]*models.Story, error) {
	args := m.Called(ctx, storyID)
	path, _ := args.Get(0).([]*models.Story)
	return path, args.Error(1)
}

func (m *mockStoryService) GetContributionStatus(ctx context.Context, actorID, rootID uuid.UUID) (*models.ContributionStatus, error) {
	args := m.Called(ctx, actorID, rootID)
	status, _ := args.Get(0).(*models.ContributionStatus)
	return status, args.Error(1)
}

func (m *mockStoryService) ListFeed(ctx context.Context, cursor string, limit int) ([]*models.Story, string, error) {
	args := m.Called(ctx, cursor, limit)
	stories, _ := args.Get(0).([]*models.Story)
	return stories, args.String(1), args.Error(2)
}

func (m *mockStoryService) ListPopular(ctx context.Context, voteType models.VoteType, timeframe string, cursor string, limit int) ([]*models.Story, string, error) {
	args := m.Called(ctx, voteType, timeframe, cursor, limit)
	stories, _ := args.Get(0).([]*models.Story)
	return stories, args.String(1), args.Error(2)
}

func (m *mockStoryService) Search(ctx context.Context, query string, cursor string, limit int) ([]*models.Story, string, error) {
	args := m.Called(ctx, query, cursor, limit)
	stories, _ := args.Get(0).([]*models.Story)
	return stories, args.String(1), args.Error(2)
}

type mockVoteService struct{ mock.Mock }

var _ service.VoteService = (*mockVoteService)(nil)

func (m *mockVoteService) CastVote(ctx context.Context, actorID, storyID uuid.UUID, voteType models.VoteType) (*models.VoteState, error) {
	args := m.Called(ctx, actorID, storyID, voteType)
	state, _ := args.Get(0).(*models.VoteState)
	return state, args.Error(1)
}

func (m *mockVoteService) RetractVote(ctx context.Context, actorID, storyID uuid.UUID) (*models.VoteState, error) {
	args := m.Called(ctx, actorID, storyID)
	state, _ := args.Get(0).(*models.VoteState)
	return state, args.Error(1)
}

func (m *mockVoteService) GetUserVote(ctx context.Context, actorID, storyID uuid.UUID) (*models.VoteType, error) {
	args := m.Called(ctx, actorID, storyID)
	vt, _ := args.Get(0).(*models.VoteType)
	return vt, args.Error(1)
}

func (m *mockVoteService) GetVoteStats(ctx context.Context, storyID uuid.UUID) (*models.VoteStats, error) {
	args := m.Called(ctx, storyID)
	stats, _ := args.Get(0).(*models.VoteStats)
	return stats, args.Error(1)
}

func (m *mockVoteService) ListUserVotes(ctx context.Context, userID uuid.UUID, cursor string, limit int) ([]*models.Vote, string, error) {
	args := m.Called(ctx, userID, cursor, limit)
	votes, _ := args.Get(0).([]*models.Vote)
	return votes, args.String(1), args.Error(2)
}

type mockCommentService struct{ mock.Mock }

var _ service.CommentService = (*mockCommentService)(nil)

func (m *mockCommentService) AddComment(ctx context.Context, actorID, storyID uuid.UUID, content string) (*models.Comment, error) {
	args := m.Called(ctx, actorID, storyID, content)
	comment, _ := args.Get(0).(*models.Comment)
	return comment, args.Error(1)
}

func (m *mockCommentService) EditComment(ctx context.Context, actorID, commentID uuid.UUID, content string) (*models.Comment, error) {
	args := m.Called(ctx, actorID, commentID, content)
	comment, _ := args.Get(0).(*models.Comment)
	return comment, args.Error(1)
}

func (m *mockCommentService) DeleteComment(ctx context.Context, actorID, commentID uuid.UUID) error {
	args := m.Called(ctx, actorID, commentID)
	return args.Error(0)
}

func (m *mockCommentService) ListComments(ctx context.Context, storyID uuid.UUID, cursor string, limit int) ([]*models.Comment, string, error) {
	args := m.Called(ctx, storyID, cursor, limit)
	comments, _ := args.Get(0).([]*models.Comment)
	return comments, args.String(1), args.Error(2)
}

func (m *mockCommentService) ListUserComments(ctx context.Context, userID uuid.UUID, cursor string, limit int) ([]*models.Comment, string, error) {
	args := m.Called(ctx, userID, cursor, limit)
	comments, _ := args.Get(0).([]*models.Comment)
	return comments, args.String(1), args.Error(2)
}

func (m *mockCommentService) CountComments(ctx context.Context, storyID uuid.UUID) (int, error) {
	args := m.Called(ctx, storyID)
	return args.Int(0), args.Error(1)
}

type mockProfileService struct{ mock.Mock }

var _ service.ProfileService = (*mockProfileService)(nil)

func (m *mockProfileService) GetProfile(ctx context.Context, username string) (*models.Profile, error) {
	args := m.Called(ctx, username)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

func (m *mockProfileService) GetMyProfile(ctx context.Context, actorID uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, actorID)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

func (m *mockProfileService) UpsertMyProfile(ctx context.Context, actorID uuid.UUID, username, displayName string, bio *string) (*models.Profile, error) {
	args := m.Called(ctx, actorID, username, displayName, bio)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

func (m *mockProfileService) UploadAvatar(ctx context.Context, actorID uuid.UUID, r io.Reader, size int64, contentType string) (*models.Profile, error) {
	args := m.Called(ctx, actorID, r, size, contentType)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

func (m *mockProfileService) GetUserStatistics(ctx context.Context, userID uuid.UUID) (*models.UserStatistics, error) {
	args := m.Called(ctx, userID)
	stats, _ := args.Get(0).(*models.UserStatistics)
	return stats, args.Error(1)
}

func (m *mockProfileService) ListUserStories(ctx context.Context, userID uuid.UUID, cursor string, limit int) ([]*models.Story, string, error) {
	args := m.Called(ctx, userID, cursor, limit)
	stories, _ := args.Get(0).([]*models.Story)
	return stories, args.String(1), args.Error(2)
}

func (m *mockProfileService) ListUserContributions(ctx context.Context, userID uuid.UUID, cursor string, limit int) ([]*models.ContributionWithStory, string, error) {
	args := m.Called(ctx, userID, cursor, limit)
	list, _ := args.Get(0).([]*models.ContributionWithStory)
	return list, args.String(1), args.Error(2)
}

type mockMaintenanceService struct{ mock.Mock }

var _ service.MaintenanceService = (*mockMaintenanceService)(nil)

func (m *mockMaintenanceService) RecountContinuations(ctx context.Context) (*service.MaintenanceResult, error) {
	args := m.Called(ctx)
	result, _ := args.Get(0).(*service.MaintenanceResult)
	return result, args.Error(1)
}

func (m *mockMaintenanceService) ReconcileLedger(ctx context.Context) (*service.MaintenanceResult, error) {
	args := m.Called(ctx)
	result, _ := args.Get(0).(*service.MaintenanceResult)
	return result, args.Error(1)
}
