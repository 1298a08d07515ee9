package database

import (
	"context"
	"errors"
	"fmt"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Счетчики меняются одним UPDATE: либо пересчетом по строкам-источникам, либо знаковой дельтой.
// Чтение-затем-запись в коде сервиса под конкурентной нагрузкой теряет обновления.
const (
	recountContinuationsQuery = `
		UPDATE stories
		SET continuation_count = (SELECT COUNT(*) FROM stories c WHERE c.parent_id = $1),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING continuation_count`

	adjustVoteCountsQuery = `
		UPDATE stories
		SET like_count = GREATEST(0, like_count + $2),
		    dislike_count = GREATEST(0, dislike_count + $3)
		WHERE id = $1
		RETURNING like_count, dislike_count`

	adjustCommentCountQuery = `
		UPDATE stories
		SET comment_count = GREATEST(0, comment_count + $2)
		WHERE id = $1
		RETURNING comment_count`

	// Только чтение: сам ремонт идет по одному родителю под FOR UPDATE,
	// иначе перепроверка EvalPlanQual берет устаревший подсчет и затирает свежую вставку.
	listContinuationDriftQuery = `
		SELECT p.id
		FROM stories p
		LEFT JOIN stories c ON c.parent_id = p.id
		GROUP BY p.id, p.continuation_count
		HAVING p.continuation_count <> COUNT(c.id)
		ORDER BY p.id`
)

// RecountContinuations пересчитывает число прямых потомков родителя.
func (r *pgStoryRepository) RecountContinuations(ctx context.Context, querier interfaces.DBTX, parentID uuid.UUID) (int, error) {
	var count int
	err := querier.QueryRow(ctx, recountContinuationsQuery, parentID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrNotFound
		}
		r.logger.Error("Failed to recount continuations", zap.String("parentID", parentID.String()), zap.Error(err))
		return 0, fmt.Errorf("failed to recount continuations: %w", err)
	}
	return count, nil
}

// AdjustVoteCounts применяет дельты голосов. Транзакцией управляет вызывающий.
func (r *pgStoryRepository) AdjustVoteCounts(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, likeDelta, dislikeDelta int) (int, int, error) {
	logFields := []zap.Field{
		zap.String("storyID", id.String()),
		zap.Int("likeDelta", likeDelta),
		zap.Int("dislikeDelta", dislikeDelta),
	}
	var likes, dislikes int
	err := querier.QueryRow(ctx, adjustVoteCountsQuery, id, likeDelta, dislikeDelta).Scan(&likes, &dislikes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Story not found for vote count adjustment", logFields...)
			return 0, 0, models.ErrNotFound
		}
		r.logger.Error("Failed to adjust vote counts", append(logFields, zap.Error(err))...)
		return 0, 0, fmt.Errorf("failed to adjust vote counts: %w", err)
	}
	r.logger.Debug("Vote counts adjusted", append(logFields, zap.Int("likes", likes), zap.Int("dislikes", dislikes))...)
	return likes, dislikes, nil
}

// AdjustCommentCount применяет дельту к comment_count.
func (r *pgStoryRepository) AdjustCommentCount(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, delta int) (int, error) {
	var count int
	err := querier.QueryRow(ctx, adjustCommentCountQuery, id, delta).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrNotFound
		}
		r.logger.Error("Failed to adjust comment count", zap.String("storyID", id.String()), zap.Int("delta", delta), zap.Error(err))
		return 0, fmt.Errorf("failed to adjust comment count: %w", err)
	}
	return count, nil
}

// ListContinuationDrift возвращает узлы, у которых continuation_count расходится с числом потомков.
func (r *pgStoryRepository) ListContinuationDrift(ctx context.Context, querier interfaces.DBTX) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := pgxscan.Select(ctx, querier, &ids, listContinuationDriftQuery); err != nil {
		r.logger.Error("Failed to list continuation drift", zap.Error(err))
		return nil, fmt.Errorf("failed to list continuation drift: %w", err)
	}
	if len(ids) > 0 {
		r.logger.Warn("Continuation counts drifted", zap.Int("nodes", len(ids)))
	}
	return ids, nil
}
