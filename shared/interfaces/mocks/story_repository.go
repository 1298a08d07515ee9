package mocks

import (
	"context"
	"time"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// StoryRepository is a mock type for the StoryRepository type
type StoryRepository struct {
	mock.Mock
}

var _ interfaces.StoryRepository = (*StoryRepository)(nil)

func (m *StoryRepository) Create(ctx context.Context, querier interfaces.DBTX, story *models.Story) error {
	args := m.Called(ctx, querier, story)
	return args.Error(0)
}

func (m *StoryRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, querier, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}

func (m *StoryRepository) GetByIDForUpdate(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, querier, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}

func (m *StoryRepository) ListChildren(ctx context.Context, querier interfaces.DBTX, parentID uuid.UUID) ([]*models.Story, error) {
	args := m.Called(ctx, querier, parentID)
	stories, _ := args.Get(0).([]*models.Story)
	return stories, args.Error(1)
}

func (m *StoryRepository) ListByRoot(ctx context.Context, querier interfaces.DBTX, rootID uuid.UUID) ([]*models.Story, error) {
	args := m.Called(ctx, querier, rootID)
	stories, _ := args.Get(0).([]*models.Story)
	return stories, args.Error(1)
}

func (m *StoryRepository) RecountContinuations(ctx context.Context, querier interfaces.DBTX, parentID uuid.UUID) (int, error) {
	args := m.Called(ctx, querier, parentID)
	return args.Int(0), args.Error(1)
}

func (m *StoryRepository) UpdatePosition(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, position int) error {
	args := m.Called(ctx, querier, id, position)
	return args.Error(0)
}

func (m *StoryRepository) AdjustVoteCounts(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, likeDelta, dislikeDelta int) (int, int, error) {
	args := m.Called(ctx, querier, id, likeDelta, dislikeDelta)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *StoryRepository) AdjustCommentCount(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, delta int) (int, error) {
	args := m.Called(ctx, querier, id, delta)
	return args.Int(0), args.Error(1)
}

func (m *StoryRepository) ListRoots(ctx context.Context, querier interfaces.DBTX, cursor string, limit int) ([]*models.Story, string, error) {
	args := m.Called(ctx, querier, cursor, limit)
	stories, _ := args.Get(0).([]*models.Story)
	return stories, args.String(1), args.Error(2)
}

func (m *StoryRepository) ListPopularRoots(ctx context.Context, querier interfaces.DBTX, voteType models.VoteType, since time.Time, cursor string, limit int) ([]*models.Story, string, error) {
	args := m.Called(ctx, querier, voteType, since, cursor, limit)
	stories, _ := args.Get(0).([]*models.Story)
	return stories, args.String(1), args.Error(2)
}

func (m *StoryRepository) SearchRoots(ctx context.Context, querier interfaces.DBTX, query string, cursor string, limit int) ([]*models.Story, string, error) {
	args := m.Called(ctx, querier, query, cursor, limit)
	stories, _ := args.Get(0).([]*models.Story)
	return stories, args.String(1), args.Error(2)
}

func (m *StoryRepository) ListRootsByAuthor(ctx context.Context, querier interfaces.DBTX, authorID uuid.UUID, cursor string, limit int) ([]*models.Story, string, error) {
	args := m.Called(ctx, querier, authorID, cursor, limit)
	stories, _ := args.Get(0).([]*models.Story)
	return stories, args.String(1), args.Error(2)
}

func (m *StoryRepository) ListContinuationDrift(ctx context.Context, querier interfaces.DBTX) ([]uuid.UUID, error) {
	args := m.Called(ctx, querier)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}
