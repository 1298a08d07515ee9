package mocks

import (
	"context"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// VoteRepository is a mock type for the VoteRepository type
type VoteRepository struct {
	mock.Mock
}

var _ interfaces.VoteRepository = (*VoteRepository)(nil)

func (m *VoteRepository) GetForUpdate(ctx context.Context, querier interfaces.DBTX, userID, storyID uuid.UUID) (*models.Vote, error) {
	args := m.Called(ctx, querier, userID, storyID)
	v, _ := args.Get(0).(*models.Vote)
	return v, args.Error(1)
}

func (m *VoteRepository) Get(ctx context.Context, querier interfaces.DBTX, userID, storyID uuid.UUID) (*models.Vote, error) {
	args := m.Called(ctx, querier, userID, storyID)
	v, _ := args.Get(0).(*models.Vote)
	return v, args.Error(1)
}

func (m *VoteRepository) Insert(ctx context.Context, querier interfaces.DBTX, userID, storyID uuid.UUID, voteType models.VoteType) error {
	args := m.Called(ctx, querier, userID, storyID, voteType)
	return args.Error(0)
}

func (m *VoteRepository) UpdateType(ctx context.Context, querier interfaces.DBTX, userID, storyID uuid.UUID, voteType models.VoteType) error {
	args := m.Called(ctx, querier, userID, storyID, voteType)
	return args.Error(0)
}

func (m *VoteRepository) Delete(ctx context.Context, querier interfaces.DBTX, userID, storyID uuid.UUID) (*models.VoteType, error) {
	args := m.Called(ctx, querier, userID, storyID)
	vt, _ := args.Get(0).(*models.VoteType)
	return vt, args.Error(1)
}

func (m *VoteRepository) ListByUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, cursor string, limit int) ([]*models.Vote, string, error) {
	args := m.Called(ctx, querier, userID, cursor, limit)
	list, _ := args.Get(0).([]*models.Vote)
	return list, args.String(1), args.Error(2)
}
