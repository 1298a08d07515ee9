package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"
	"alterstory-server/shared/utils"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListRoots возвращает ленту корней, новые первыми.
func (r *pgStoryRepository) ListRoots(ctx context.Context, querier interfaces.DBTX, cursor string, limit int) ([]*models.Story, string, error) {
	return r.listRootsByTime(ctx, querier, "", nil, cursor, limit)
}

// SearchRoots ищет по подстроке в заголовке или тексте корня.
func (r *pgStoryRepository) SearchRoots(ctx context.Context, querier interfaces.DBTX, query string, cursor string, limit int) ([]*models.Story, string, error) {
	return r.listRootsByTime(ctx, querier, "(title ILIKE $%d OR content ILIKE $%d)", []any{containsPattern(query)}, cursor, limit)
}

// ListRootsByAuthor возвращает корни, созданные пользователем.
func (r *pgStoryRepository) ListRootsByAuthor(ctx context.Context, querier interfaces.DBTX, authorID uuid.UUID, cursor string, limit int) ([]*models.Story, string, error) {
	return r.listRootsByTime(ctx, querier, "author_id = $%d", []any{authorID}, cursor, limit)
}

// listRootsByTime - общая часть списков корней с курсором по (created_at, id).
// filter содержит один плейсхолдер-параметр (возможно, повторенный), значения которого лежат в filterArgs.
func (r *pgStoryRepository) listRootsByTime(ctx context.Context, querier interfaces.DBTX, filter string, filterArgs []any, cursor string, limit int) ([]*models.Story, string, error) {
	logFields := []zap.Field{zap.String("cursor", cursor), zap.Int("limit", limit)}

	cursorTime, cursorID, err := utils.DecodeCursor(cursor)
	if err != nil {
		r.logger.Warn("Invalid cursor for root listing", append(logFields, zap.Error(err))...)
		return nil, "", err
	}

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + storyFields + ` FROM stories WHERE parent_id IS NULL`)
	if filter != "" {
		args = append(args, filterArgs...)
		placeholders := make([]any, strings.Count(filter, "%d"))
		for i := range placeholders {
			placeholders[i] = len(args)
		}
		sb.WriteString(" AND " + fmt.Sprintf(filter, placeholders...))
	}
	if cursorID != uuid.Nil {
		args = append(args, cursorTime, cursorID)
		sb.WriteString(fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	args = append(args, limit+1)
	sb.WriteString(fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args)))

	stories := make([]*models.Story, 0, limit+1)
	if err := pgxscan.Select(ctx, querier, &stories, sb.String(), args...); err != nil {
		r.logger.Error("Failed to list root stories", append(logFields, zap.Error(err))...)
		return nil, "", fmt.Errorf("failed to list root stories: %w", err)
	}

	nextCursor := ""
	if len(stories) > limit {
		stories = stories[:limit]
		last := stories[len(stories)-1]
		nextCursor = utils.EncodeCursor(last.CreatedAt, last.ID)
	}
	return stories, nextCursor, nil
}

// ListPopularRoots сортирует корни по числу лайков или дизлайков с курсором по (счетчик, id).
func (r *pgStoryRepository) ListPopularRoots(ctx context.Context, querier interfaces.DBTX, voteType models.VoteType, since time.Time, cursor string, limit int) ([]*models.Story, string, error) {
	logFields := []zap.Field{
		zap.String("voteType", string(voteType)),
		zap.Time("since", since),
		zap.String("cursor", cursor),
		zap.Int("limit", limit),
	}

	column := "like_count"
	if voteType == models.VoteDislike {
		column = "dislike_count"
	}

	cursorValue, cursorID, err := utils.DecodeIntCursor(cursor)
	if err != nil {
		r.logger.Warn("Invalid cursor for popular listing", append(logFields, zap.Error(err))...)
		return nil, "", err
	}

	args := []any{since}
	query := `SELECT ` + storyFields + ` FROM stories WHERE parent_id IS NULL AND created_at >= $1`
	if cursorID != uuid.Nil {
		args = append(args, cursorValue, cursorID)
		query += fmt.Sprintf(" AND (%s, id) < ($2, $3)", column)
	}
	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY %s DESC, id DESC LIMIT $%d", column, len(args))

	stories := make([]*models.Story, 0, limit+1)
	if err := pgxscan.Select(ctx, querier, &stories, query, args...); err != nil {
		r.logger.Error("Failed to list popular stories", append(logFields, zap.Error(err))...)
		return nil, "", fmt.Errorf("failed to list popular stories: %w", err)
	}

	nextCursor := ""
	if len(stories) > limit {
		stories = stories[:limit]
		last := stories[len(stories)-1]
		value := last.LikeCount
		if voteType == models.VoteDislike {
			value = last.DislikeCount
		}
		nextCursor = utils.EncodeIntCursor(int64(value), last.ID)
	}
	return stories, nextCursor, nil
}
