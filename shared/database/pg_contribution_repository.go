package database

import (
	"context"
	"fmt"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"
	"alterstory-server/shared/utils"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	contributionUserRootConstraint = "story_contributions_user_root_key"

	createContributionQuery = `
		INSERT INTO story_contributions (id, user_id, story_root_id, story_id, contribution_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	getContributionQuery = `
		SELECT id, user_id, story_root_id, story_id, contribution_type, created_at
		FROM story_contributions
		WHERE user_id = $1 AND story_root_id = $2`

	listContributionsByUserQuery = `
		SELECT sc.id, sc.user_id, sc.story_root_id, sc.story_id, sc.contribution_type, sc.created_at,
		       s.title AS story_title, s.level AS story_level
		FROM story_contributions sc
		JOIN stories s ON s.id = sc.story_id
		WHERE sc.user_id = $1 AND sc.contribution_type = $2`

	// Узлы, у автора которых нет записи по дереву. Для каждой пары (автор, дерево) берем самый ранний узел.
	insertMissingContributionsQuery = `
		INSERT INTO story_contributions (user_id, story_root_id, story_id, contribution_type, created_at)
		SELECT DISTINCT ON (s.author_id, s.story_root_id)
		       s.author_id, s.story_root_id, s.id,
		       CASE WHEN s.parent_id IS NULL THEN 'create' ELSE 'continue' END,
		       s.created_at
		FROM stories s
		WHERE NOT EXISTS (
			SELECT 1 FROM story_contributions sc
			WHERE sc.user_id = s.author_id AND sc.story_root_id = s.story_root_id
		)
		ORDER BY s.author_id, s.story_root_id, s.created_at, s.id
		ON CONFLICT ON CONSTRAINT story_contributions_user_root_key DO NOTHING`
)

// pgContributionRepository реализует интерфейс ContributionRepository для PostgreSQL.
type pgContributionRepository struct {
	logger *zap.Logger
}

// Compile-time check
var _ interfaces.ContributionRepository = (*pgContributionRepository)(nil)

// NewPgContributionRepository создает новый экземпляр репозитория реестра участия.
func NewPgContributionRepository(logger *zap.Logger) interfaces.ContributionRepository {
	return &pgContributionRepository{
		logger: logger.Named("PgContributionRepo"),
	}
}

// Create вставляет запись реестра. Уникальность (user_id, story_root_id) - окончательная проверка
// правила "одно участие в дереве", проверка в сервисе только ранний выход.
func (r *pgContributionRepository) Create(ctx context.Context, querier interfaces.DBTX, c *models.Contribution) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	logFields := []zap.Field{
		zap.String("userID", c.UserID.String()),
		zap.String("storyRootID", c.StoryRootID.String()),
		zap.String("storyID", c.StoryID.String()),
		zap.String("type", string(c.ContributionType)),
	}

	err := querier.QueryRow(ctx, createContributionQuery, c.ID, c.UserID, c.StoryRootID, c.StoryID, c.ContributionType).Scan(&c.CreatedAt)
	if err != nil {
		if code, constraint, ok := pgErrorCode(err); ok {
			switch {
			case code == pgUniqueViolation && constraint == contributionUserRootConstraint:
				r.logger.Warn("Contribution already exists (unique constraint violation)", logFields...)
				return models.ErrAlreadyContributed
			case code == pgForeignKeyViolation:
				r.logger.Warn("Story not found for contribution (foreign key violation)", logFields...)
				return models.ErrNotFound
			}
		}
		r.logger.Error("Failed to insert contribution", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to insert contribution: %w", err)
	}

	r.logger.Debug("Contribution recorded", logFields...)
	return nil
}

func (r *pgContributionRepository) GetByUserAndRoot(ctx context.Context, querier interfaces.DBTX, userID, rootID uuid.UUID) (*models.Contribution, error) {
	var c models.Contribution
	if err := pgxscan.Get(ctx, querier, &c, getContributionQuery, userID, rootID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get contribution",
			zap.String("userID", userID.String()),
			zap.String("storyRootID", rootID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to get contribution: %w", err)
	}
	return &c, nil
}

func (r *pgContributionRepository) ListByUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, contributionType models.ContributionType, cursor string, limit int) ([]*models.ContributionWithStory, string, error) {
	cursorTime, cursorID, err := utils.DecodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	query := listContributionsByUserQuery
	args := []any{userID, contributionType}
	if cursorID != uuid.Nil {
		args = append(args, cursorTime, cursorID)
		query += ` AND (sc.created_at, sc.id) < ($3, $4)`
	}
	args = append(args, limit+1)
	query += fmt.Sprintf(` ORDER BY sc.created_at DESC, sc.id DESC LIMIT $%d`, len(args))

	list := make([]*models.ContributionWithStory, 0, limit+1)
	if err := pgxscan.Select(ctx, querier, &list, query, args...); err != nil {
		r.logger.Error("Failed to list user contributions", zap.String("userID", userID.String()), zap.Error(err))
		return nil, "", fmt.Errorf("failed to list contributions: %w", err)
	}

	nextCursor := ""
	if len(list) > limit {
		list = list[:limit]
		last := list[len(list)-1]
		nextCursor = utils.EncodeCursor(last.CreatedAt, last.ID)
	}
	return list, nextCursor, nil
}

// InsertMissing восстанавливает записи реестра для узлов, вставленных без них.
func (r *pgContributionRepository) InsertMissing(ctx context.Context, querier interfaces.DBTX) (int64, error) {
	tag, err := querier.Exec(ctx, insertMissingContributionsQuery)
	if err != nil {
		r.logger.Error("Failed to insert missing contributions", zap.Error(err))
		return 0, fmt.Errorf("failed to insert missing contributions: %w", err)
	}
	inserted := tag.RowsAffected()
	if inserted > 0 {
		r.logger.Warn("Missing contribution entries were restored", zap.Int64("rows", inserted))
	}
	return inserted, nil
}
