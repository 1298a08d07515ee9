package mocks

import (
	"context"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// ContributionRepository is a mock type for the ContributionRepository type
type ContributionRepository struct {
	mock.Mock
}

var _ interfaces.ContributionRepository = (*ContributionRepository)(nil)

func (m *ContributionRepository) Create(ctx context.Context, querier interfaces.DBTX, contribution *models.Contribution) error {
	args := m.Called(ctx, querier, contribution)
	return args.Error(0)
}

func (m *ContributionRepository) GetByUserAndRoot(ctx context.Context, querier interfaces.DBTX, userID, rootID uuid.UUID) (*models.Contribution, error) {
	args := m.Called(ctx, querier, userID, rootID)
	c, _ := args.Get(0).(*models.Contribution)
	return c, args.Error(1)
}

func (m *ContributionRepository) ListByUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, contributionType models.ContributionType, cursor string, limit int) ([]*models.ContributionWithStory, string, error) {
	args := m.Called(ctx, querier, userID, contributionType, cursor, limit)
	list, _ := args.Get(0).([]*models.ContributionWithStory)
	return list, args.String(1), args.Error(2)
}

func (m *ContributionRepository) InsertMissing(ctx context.Context, querier interfaces.DBTX) (int64, error) {
	args := m.Called(ctx, querier)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}
