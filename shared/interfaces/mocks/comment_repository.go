package mocks

import (
	"context"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// CommentRepository is a mock type for the CommentRepository type
type CommentRepository struct {
	mock.Mock
}

var _ interfaces.CommentRepository = (*CommentRepository)(nil)

func (m *CommentRepository) Create(ctx context.Context, querier interfaces.DBTX, comment *models.Comment) error {
	args := m.Called(ctx, querier, comment)
	return args.Error(0)
}

func (m *CommentRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Comment, error) {
	args := m.Called(ctx, querier, id)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

func (m *CommentRepository) UpdateContent(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, content string) (*models.Comment, error) {
	args := m.Called(ctx, querier, id, content)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

func (m *CommentRepository) Delete(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) error {
	args := m.Called(ctx, querier, id)
	return args.Error(0)
}

func (m *CommentRepository) ListByStory(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID, cursor string, limit int) ([]*models.Comment, string, error) {
	args := m.Called(ctx, querier, storyID, cursor, limit)
	list, _ := args.Get(0).([]*models.Comment)
	return list, args.String(1), args.Error(2)
}

func (m *CommentRepository) ListByUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, cursor string, limit int) ([]*models.Comment, string, error) {
	args := m.Called(ctx, querier, userID, cursor, limit)
	list, _ := args.Get(0).([]*models.Comment)
	return list, args.String(1), args.Error(2)
}

func (m *CommentRepository) CountByStory(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (int, error) {
	args := m.Called(ctx, querier, storyID)
	return args.Int(0), args.Error(1)
}
