package mocks

import (
	"context"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// ProfileRepository is a mock type for the ProfileRepository type
type ProfileRepository struct {
	mock.Mock
}

var _ interfaces.ProfileRepository = (*ProfileRepository)(nil)

func (m *ProfileRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, querier, id)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func (m *ProfileRepository) GetByUsername(ctx context.Context, querier interfaces.DBTX, username string) (*models.Profile, error) {
	args := m.Called(ctx, querier, username)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func (m *ProfileRepository) Upsert(ctx context.Context, querier interfaces.DBTX, profile *models.Profile) error {
	args := m.Called(ctx, querier, profile)
	return args.Error(0)
}

func (m *ProfileRepository) UpdateAvatar(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, avatarURL string) (*string, error) {
	args := m.Called(ctx, querier, id, avatarURL)
	prev, _ := args.Get(0).(*string)
	return prev, args.Error(1)
}

func (m *ProfileRepository) GetStatistics(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID) (*models.UserStatistics, error) {
	args := m.Called(ctx, querier, userID)
	s, _ := args.Get(0).(*models.UserStatistics)
	return s, args.Error(1)
}
