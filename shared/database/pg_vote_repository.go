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
	voteFields = `id, user_id, story_id, vote_type, created_at, updated_at`

	getVoteQuery          = `SELECT ` + voteFields + ` FROM story_votes WHERE user_id = $1 AND story_id = $2`
	getVoteForUpdateQuery = getVoteQuery + ` FOR UPDATE`
	insertVoteQuery       = `INSERT INTO story_votes (user_id, story_id, vote_type) VALUES ($1, $2, $3)`
	updateVoteTypeQuery   = `UPDATE story_votes SET vote_type = $3, updated_at = NOW() WHERE user_id = $1 AND story_id = $2`
	deleteVoteQuery       = `DELETE FROM story_votes WHERE user_id = $1 AND story_id = $2 RETURNING vote_type`
	listVotesByUserQuery  = `SELECT ` + voteFields + ` FROM story_votes WHERE user_id = $1`
)

// pgVoteRepository реализует интерфейс VoteRepository для PostgreSQL.
type pgVoteRepository struct {
	logger *zap.Logger
}

// Compile-time check
var _ interfaces.VoteRepository = (*pgVoteRepository)(nil)

// NewPgVoteRepository создает новый экземпляр репозитория голосов.
func NewPgVoteRepository(logger *zap.Logger) interfaces.VoteRepository {
	return &pgVoteRepository{
		logger: logger.Named("PgVoteRepo"),
	}
}

func (r *pgVoteRepository) Get(ctx context.Context, querier interfaces.DBTX, userID, storyID uuid.UUID) (*models.Vote, error) {
	return r.get(ctx, querier, getVoteQuery, userID, storyID)
}

func (r *pgVoteRepository) GetForUpdate(ctx context.Context, querier interfaces.DBTX, userID, storyID uuid.UUID) (*models.Vote, error) {
	return r.get(ctx, querier, getVoteForUpdateQuery, userID, storyID)
}

func (r *pgVoteRepository) get(ctx context.Context, querier interfaces.DBTX, query string, userID, storyID uuid.UUID) (*models.Vote, error) {
	var vote models.Vote
	if err := pgxscan.Get(ctx, querier, &vote, query, userID, storyID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get vote", zap.String("userID", userID.String()), zap.String("storyID", storyID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return &vote, nil
}

// Insert добавляет голос.
func (r *pgVoteRepository) Insert(ctx context.Context, querier interfaces.DBTX, userID, storyID uuid.UUID, voteType models.VoteType) error {
	logFields := []zap.Field{
		zap.String("userID", userID.String()),
		zap.String("storyID", storyID.String()),
		zap.String("voteType", string(voteType)),
	}
	r.logger.Debug("Inserting vote", logFields...)

	if _, err := querier.Exec(ctx, insertVoteQuery, userID, storyID, voteType); err != nil {
		if code, _, ok := pgErrorCode(err); ok {
			switch code {
			case pgUniqueViolation:
				r.logger.Warn("Vote already exists (unique constraint violation)", logFields...)
				return interfaces.ErrVoteAlreadyExists
			case pgForeignKeyViolation:
				r.logger.Warn("Story not found (foreign key violation)", logFields...)
				return models.ErrNotFound
			}
		}
		r.logger.Error("Failed to insert vote", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

// UpdateType меняет тип голоса на месте, без удаления и вставки.
func (r *pgVoteRepository) UpdateType(ctx context.Context, querier interfaces.DBTX, userID, storyID uuid.UUID, voteType models.VoteType) error {
	tag, err := querier.Exec(ctx, updateVoteTypeQuery, userID, storyID, voteType)
	if err != nil {
		r.logger.Error("Failed to update vote type", zap.String("userID", userID.String()), zap.String("storyID", storyID.String()), zap.Error(err))
		return fmt.Errorf("failed to update vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete удаляет голос. Отсутствие голоса ошибкой не считается.
func (r *pgVoteRepository) Delete(ctx context.Context, querier interfaces.DBTX, userID, storyID uuid.UUID) (*models.VoteType, error) {
	var removed models.VoteType
	err := querier.QueryRow(ctx, deleteVoteQuery, userID, storyID).Scan(&removed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("No vote to remove", zap.String("userID", userID.String()), zap.String("storyID", storyID.String()))
			return nil, nil
		}
		r.logger.Error("Failed to delete vote", zap.String("userID", userID.String()), zap.String("storyID", storyID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to delete vote: %w", err)
	}
	return &removed, nil
}

func (r *pgVoteRepository) ListByUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, cursor string, limit int) ([]*models.Vote, string, error) {
	cursorTime, cursorID, err := utils.DecodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	query := listVotesByUserQuery
	args := []any{userID}
	if cursorID != uuid.Nil {
		args = append(args, cursorTime, cursorID)
		query += ` AND (updated_at, id) < ($2, $3)`
	}
	args = append(args, limit+1)
	query += fmt.Sprintf(` ORDER BY updated_at DESC, id DESC LIMIT $%d`, len(args))

	votes := make([]*models.Vote, 0, limit+1)
	if err := pgxscan.Select(ctx, querier, &votes, query, args...); err != nil {
		r.logger.Error("Failed to list user votes", zap.String("userID", userID.String()), zap.Error(err))
		return nil, "", fmt.Errorf("failed to list votes: %w", err)
	}

	nextCursor := ""
	if len(votes) > limit {
		votes = votes[:limit]
		last := votes[len(votes)-1]
		nextCursor = utils.EncodeCursor(last.UpdatedAt, last.ID)
	}
	return votes, nextCursor, nil
}
