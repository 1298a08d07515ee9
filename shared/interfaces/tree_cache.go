package interfaces

import (
	"context"

	"alterstory-server/shared/models"

	"github.com/google/uuid"
)

// TreeCache кэширует плоский список узлов дерева.
//
//go:generate mockery --name TreeCache --output ./mocks --outpkg mocks --case=underscore
type TreeCache interface {
	// Get возвращает (nodes, true, nil) при попадании и (nil, false, nil) при промахе.
	Get(ctx context.Context, rootID uuid.UUID) ([]*models.Story, bool, error)
	// Version возвращает текущую версию дерева. Ее читают до похода в БД и передают в Set.
	Version(ctx context.Context, rootID uuid.UUID) (int64, error)
	// Set ничего не пишет, если после чтения version был Invalidate.
	Set(ctx context.Context, rootID uuid.UUID, version int64, nodes []*models.Story) error
	// Invalidate удаляет дерево и поднимает версию.
	Invalidate(ctx context.Context, rootID uuid.UUID) error
}
