package interfaces

import (
	"context"

	"alterstory-server/shared/models"

	"github.com/google/uuid"
)

// ContributionRepository - реестр участия пользователей в деревьях.
//
//go:generate mockery --name ContributionRepository --output ./mocks --outpkg mocks --case=underscore
type ContributionRepository interface {
	// Create вставляет запись реестра.
	// Возвращает models.ErrAlreadyContributed при нарушении уникальности (user_id, story_root_id).
	Create(ctx context.Context, querier DBTX, contribution *models.Contribution) error

	// GetByUserAndRoot возвращает запись или models.ErrNotFound.
	GetByUserAndRoot(ctx context.Context, querier DBTX, userID, rootID uuid.UUID) (*models.Contribution, error)

	// ListByUser возвращает записи пользователя заданного типа вместе с узлами, новые первыми.
	ListByUser(ctx context.Context, querier DBTX, userID uuid.UUID, contributionType models.ContributionType, cursor string, limit int) ([]*models.ContributionWithStory, string, error)

	// InsertMissing добавляет записи для узлов, у автора которых нет записи по этому дереву.
	// Возвращает число вставленных строк.
	InsertMissing(ctx context.Context, querier DBTX) (int64, error)
}
