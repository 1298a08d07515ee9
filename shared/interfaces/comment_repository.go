package interfaces

import (
	"context"

	"alterstory-server/shared/models"

	"github.com/google/uuid"
)

// CommentRepository определяет методы для работы с комментариями.
//
//go:generate mockery --name CommentRepository --output ./mocks --outpkg mocks --case=underscore
type CommentRepository interface {
	// Create вставляет комментарий. models.ErrNotFound, если узла нет.
	Create(ctx context.Context, querier DBTX, comment *models.Comment) error
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Comment, error)
	// UpdateContent меняет текст и возвращает обновленную запись.
	UpdateContent(ctx context.Context, querier DBTX, id uuid.UUID, content string) (*models.Comment, error)
	Delete(ctx context.Context, querier DBTX, id uuid.UUID) error
	// ListByStory возвращает комментарии узла, новые первыми.
	ListByStory(ctx context.Context, querier DBTX, storyID uuid.UUID, cursor string, limit int) ([]*models.Comment, string, error)
	ListByUser(ctx context.Context, querier DBTX, userID uuid.UUID, cursor string, limit int) ([]*models.Comment, string, error)
	CountByStory(ctx context.Context, querier DBTX, storyID uuid.UUID) (int, error)
}
