package interfaces

import (
	"context"
	"time"

	"alterstory-server/shared/models"

	"github.com/google/uuid"
)

// StoryRepository определяет методы для работы с узлами деревьев историй.
//
//go:generate mockery --name StoryRepository --output ./mocks --outpkg mocks --case=underscore
type StoryRepository interface {
	// Create вставляет новый узел. ID, StoryRootID и счетчики заполняет вызывающий.
	Create(ctx context.Context, querier DBTX, story *models.Story) error

	// GetByID возвращает узел или models.ErrNotFound.
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Story, error)

	// GetByIDForUpdate читает узел с блокировкой строки (SELECT ... FOR UPDATE).
	// Имеет смысл только внутри транзакции.
	GetByIDForUpdate(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Story, error)

	// ListChildren возвращает прямых потомков, упорядоченных по position.
	ListChildren(ctx context.Context, querier DBTX, parentID uuid.UUID) ([]*models.Story, error)

	// ListByRoot возвращает все узлы дерева, упорядоченные по (level, position).
	ListByRoot(ctx context.Context, querier DBTX, rootID uuid.UUID) ([]*models.Story, error)

	// RecountContinuations пересчитывает continuation_count родителя по фактическим строкам
	// и возвращает новое значение.
	RecountContinuations(ctx context.Context, querier DBTX, parentID uuid.UUID) (int, error)

	// UpdatePosition переписывает position узла.
	UpdatePosition(ctx context.Context, querier DBTX, id uuid.UUID, position int) error

	// AdjustVoteCounts атомарно применяет знаковые дельты к like_count/dislike_count
	// и возвращает итоговые значения.
	AdjustVoteCounts(ctx context.Context, querier DBTX, id uuid.UUID, likeDelta, dislikeDelta int) (likes int, dislikes int, err error)

	// AdjustCommentCount атомарно применяет дельту к comment_count и возвращает итог.
	AdjustCommentCount(ctx context.Context, querier DBTX, id uuid.UUID, delta int) (int, error)

	// ListRoots возвращает корни, новые первыми, с пагинацией по курсору.
	ListRoots(ctx context.Context, querier DBTX, cursor string, limit int) ([]*models.Story, string, error)

	// ListPopularRoots возвращает корни, созданные не раньше since, по убыванию like_count или dislike_count.
	ListPopularRoots(ctx context.Context, querier DBTX, voteType models.VoteType, since time.Time, cursor string, limit int) ([]*models.Story, string, error)

	// SearchRoots ищет корни по подстроке в title/content без учета регистра.
	SearchRoots(ctx context.Context, querier DBTX, query string, cursor string, limit int) ([]*models.Story, string, error)

	// ListRootsByAuthor возвращает корни, созданные пользователем.
	ListRootsByAuthor(ctx context.Context, querier DBTX, authorID uuid.UUID, cursor string, limit int) ([]*models.Story, string, error)

	// ListContinuationDrift возвращает id узлов, у которых continuation_count
	// не совпадает с фактическим числом потомков. Ничего не меняет.
	ListContinuationDrift(ctx context.Context, querier DBTX) ([]uuid.UUID, error)
}
