package database

import (
	"context"
	"errors"
	"fmt"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"
	"alterstory-server/shared/utils"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	commentFields = `id, story_id, user_id, content, created_at, updated_at`

	createCommentQuery = `
		INSERT INTO comments (id, story_id, user_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`
	getCommentByIDQuery  = `SELECT ` + commentFields + ` FROM comments WHERE id = $1`
	updateCommentQuery   = `UPDATE comments SET content = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + commentFields
	deleteCommentQuery   = `DELETE FROM comments WHERE id = $1`
	countByStoryQuery    = `SELECT COUNT(*) FROM comments WHERE story_id = $1`
	listByStoryBaseQuery = `SELECT ` + commentFields + ` FROM comments WHERE story_id = $1`
	listByUserBaseQuery  = `SELECT ` + commentFields + ` FROM comments WHERE user_id = $1`
)

// pgCommentRepository реализует интерфейс CommentRepository для PostgreSQL.
type pgCommentRepository struct {
	logger *zap.Logger
}

// Compile-time check
var _ interfaces.CommentRepository = (*pgCommentRepository)(nil)

// NewPgCommentRepository создает новый экземпляр репозитория комментариев.
func NewPgCommentRepository(logger *zap.Logger) interfaces.CommentRepository {
	return &pgCommentRepository{
		logger: logger.Named("PgCommentRepo"),
	}
}

func (r *pgCommentRepository) Create(ctx context.Context, querier interfaces.DBTX, comment *models.Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	logFields := []zap.Field{
		zap.String("commentID", comment.ID.String()),
		zap.String("storyID", comment.StoryID.String()),
		zap.String("userID", comment.UserID.String()),
	}

	err := querier.QueryRow(ctx, createCommentQuery, comment.ID, comment.StoryID, comment.UserID, comment.Content).
		Scan(&comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		if code, _, ok := pgErrorCode(err); ok && code == pgForeignKeyViolation {
			r.logger.Warn("Story not found for comment (foreign key violation)", logFields...)
			return models.ErrNotFound
		}
		r.logger.Error("Failed to insert comment", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (r *pgCommentRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := pgxscan.Get(ctx, querier, &comment, getCommentByIDQuery, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get comment", zap.String("commentID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

func (r *pgCommentRepository) UpdateContent(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, content string) (*models.Comment, error) {
	var comment models.Comment
	if err := pgxscan.Get(ctx, querier, &comment, updateCommentQuery, id, content); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to update comment", zap.String("commentID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return &comment, nil
}

func (r *pgCommentRepository) Delete(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) error {
	tag, err := querier.Exec(ctx, deleteCommentQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete comment", zap.String("commentID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgCommentRepository) ListByStory(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID, cursor string, limit int) ([]*models.Comment, string, error) {
	return r.list(ctx, querier, listByStoryBaseQuery, storyID, cursor, limit)
}

func (r *pgCommentRepository) ListByUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, cursor string, limit int) ([]*models.Comment, string, error) {
	return r.list(ctx, querier, listByUserBaseQuery, userID, cursor, limit)
}

// list - общая часть выборок "новые первыми" с курсором (created_at, id).
func (r *pgCommentRepository) list(ctx context.Context, querier interfaces.DBTX, baseQuery string, ownerID uuid.UUID, cursor string, limit int) ([]*models.Comment, string, error) {
	cursorTime, cursorID, err := utils.DecodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	query := baseQuery
	args := []any{ownerID}
	if cursorID != uuid.Nil {
		args = append(args, cursorTime, cursorID)
		query += ` AND (created_at, id) < ($2, $3)`
	}
	args = append(args, limit+1)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	comments := make([]*models.Comment, 0, limit+1)
	if err := pgxscan.Select(ctx, querier, &comments, query, args...); err != nil {
		r.logger.Error("Failed to list comments", zap.String("ownerID", ownerID.String()), zap.Error(err))
		return nil, "", fmt.Errorf("failed to list comments: %w", err)
	}

	nextCursor := ""
	if len(comments) > limit {
		comments = comments[:limit]
		last := comments[len(comments)-1]
		nextCursor = utils.EncodeCursor(last.CreatedAt, last.ID)
	}
	return comments, nextCursor, nil
}

func (r *pgCommentRepository) CountByStory(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (int, error) {
	var count int
	if err := querier.QueryRow(ctx, countByStoryQuery, storyID).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		r.logger.Error("Failed to count comments", zap.String("storyID", storyID.String()), zap.Error(err))
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}
