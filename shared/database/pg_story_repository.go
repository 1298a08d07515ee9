package database

import (
	"context"
	"fmt"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const storyFields = `id, title, content, author_id, parent_id, story_root_id, level, position,
	like_count, dislike_count, comment_count, continuation_count, max_continuations, created_at, updated_at`

const (
	createStoryQuery = `
		INSERT INTO stories (id, title, content, author_id, parent_id, story_root_id, level, position, max_continuations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`
	getStoryByIDQuery          = `SELECT ` + storyFields + ` FROM stories WHERE id = $1`
	getStoryByIDForUpdateQuery = getStoryByIDQuery + ` FOR UPDATE`
	listChildrenQuery          = `SELECT ` + storyFields + ` FROM stories WHERE parent_id = $1 ORDER BY position, created_at, id`
	listByRootQuery            = `SELECT ` + storyFields + ` FROM stories WHERE story_root_id = $1 ORDER BY level, position, created_at, id`
	updatePositionQuery        = `UPDATE stories SET position = $2 WHERE id = $1`
)

// pgStoryRepository реализует интерфейс StoryRepository для PostgreSQL.
type pgStoryRepository struct {
	logger *zap.Logger
}

// Compile-time check
var _ interfaces.StoryRepository = (*pgStoryRepository)(nil)

// NewPgStoryRepository создает новый экземпляр репозитория узлов историй.
func NewPgStoryRepository(logger *zap.Logger) interfaces.StoryRepository {
	return &pgStoryRepository{
		logger: logger.Named("PgStoryRepo"),
	}
}

// Create вставляет узел. Нарушение FK на parent_id означает, что родителя нет.
func (r *pgStoryRepository) Create(ctx context.Context, querier interfaces.DBTX, story *models.Story) error {
	logFields := []zap.Field{
		zap.String("storyID", story.ID.String()),
		zap.String("storyRootID", story.StoryRootID.String()),
		zap.Int("level", story.Level),
	}
	r.logger.Debug("Inserting story node", logFields...)

	err := querier.QueryRow(ctx, createStoryQuery,
		story.ID, story.Title, story.Content, story.AuthorID, story.ParentID, story.StoryRootID,
		story.Level, story.Position, story.MaxContinuations,
	).Scan(&story.CreatedAt, &story.UpdatedAt)
	if err != nil {
		if code, constraint, ok := pgErrorCode(err); ok && code == pgForeignKeyViolation {
			r.logger.Warn("Parent or root story not found (foreign key violation)", append(logFields, zap.String("constraint", constraint))...)
			return models.ErrNotFound
		}
		r.logger.Error("Failed to insert story node", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to insert story: %w", err)
	}
	return nil
}

func (r *pgStoryRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Story, error) {
	return r.get(ctx, querier, getStoryByIDQuery, id)
}

func (r *pgStoryRepository) GetByIDForUpdate(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Story, error) {
	return r.get(ctx, querier, getStoryByIDForUpdateQuery, id)
}

func (r *pgStoryRepository) get(ctx context.Context, querier interfaces.DBTX, query string, id uuid.UUID) (*models.Story, error) {
	var story models.Story
	if err := pgxscan.Get(ctx, querier, &story, query, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get story", zap.String("storyID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get story %s: %w", id, err)
	}
	return &story, nil
}

func (r *pgStoryRepository) ListChildren(ctx context.Context, querier interfaces.DBTX, parentID uuid.UUID) ([]*models.Story, error) {
	stories := make([]*models.Story, 0)
	if err := pgxscan.Select(ctx, querier, &stories, listChildrenQuery, parentID); err != nil {
		r.logger.Error("Failed to list story children", zap.String("parentID", parentID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list children of %s: %w", parentID, err)
	}
	return stories, nil
}

func (r *pgStoryRepository) ListByRoot(ctx context.Context, querier interfaces.DBTX, rootID uuid.UUID) ([]*models.Story, error) {
	stories := make([]*models.Story, 0)
	if err := pgxscan.Select(ctx, querier, &stories, listByRootQuery, rootID); err != nil {
		r.logger.Error("Failed to list story tree", zap.String("rootID", rootID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list tree %s: %w", rootID, err)
	}
	return stories, nil
}

func (r *pgStoryRepository) UpdatePosition(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, position int) error {
	tag, err := querier.Exec(ctx, updatePositionQuery, id, position)
	if err != nil {
		r.logger.Error("Failed to update story position", zap.String("storyID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to update position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
