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

const (
	profileFields = `id, username, display_name, avatar_url, bio, has_uploaded_avatar, created_at, updated_at`

	getProfileByIDQuery       = `SELECT ` + profileFields + ` FROM profiles WHERE id = $1`
	getProfileByUsernameQuery = `SELECT ` + profileFields + ` FROM profiles WHERE username = $1`

	// avatar_url и has_uploaded_avatar меняются только через UpdateAvatar.
	upsertProfileQuery = `
		INSERT INTO profiles (id, username, display_name, bio)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username,
		    display_name = EXCLUDED.display_name,
		    bio = EXCLUDED.bio,
		    updated_at = NOW()
		RETURNING avatar_url, has_uploaded_avatar, created_at, updated_at`

	updateAvatarQuery = `
		WITH prev AS (SELECT avatar_url FROM profiles WHERE id = $1 FOR UPDATE)
		UPDATE profiles
		SET avatar_url = $2, has_uploaded_avatar = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING (SELECT avatar_url FROM prev)`

	userStatisticsQuery = `
		SELECT
			(SELECT COUNT(*) FROM stories WHERE author_id = $1 AND parent_id IS NULL) AS created_stories,
			(SELECT COUNT(*) FROM story_contributions WHERE user_id = $1 AND contribution_type = 'continue') AS contributions,
			(SELECT COUNT(*) FROM story_votes WHERE user_id = $1) AS votes,
			(SELECT COUNT(*) FROM comments WHERE user_id = $1) AS comments,
			(SELECT COALESCE(SUM(like_count), 0) FROM stories WHERE author_id = $1) AS total_likes_received`
)

const profileUsernameConstraint = "profiles_username_key"

// pgProfileRepository реализует интерфейс ProfileRepository для PostgreSQL.
type pgProfileRepository struct {
	logger *zap.Logger
}

// Compile-time check
var _ interfaces.ProfileRepository = (*pgProfileRepository)(nil)

// NewPgProfileRepository создает новый экземпляр репозитория профилей.
func NewPgProfileRepository(logger *zap.Logger) interfaces.ProfileRepository {
	return &pgProfileRepository{
		logger: logger.Named("PgProfileRepo"),
	}
}

func (r *pgProfileRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Profile, error) {
	return r.get(ctx, querier, getProfileByIDQuery, id)
}

func (r *pgProfileRepository) GetByUsername(ctx context.Context, querier interfaces.DBTX, username string) (*models.Profile, error) {
	return r.get(ctx, querier, getProfileByUsernameQuery, username)
}

func (r *pgProfileRepository) get(ctx context.Context, querier interfaces.DBTX, query string, arg any) (*models.Profile, error) {
	var profile models.Profile
	if err := pgxscan.Get(ctx, querier, &profile, query, arg); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get profile", zap.Any("key", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

func (r *pgProfileRepository) Upsert(ctx context.Context, querier interfaces.DBTX, profile *models.Profile) error {
	logFields := []zap.Field{
		zap.String("userID", profile.ID.String()),
		zap.String("username", profile.Username),
	}

	err := querier.QueryRow(ctx, upsertProfileQuery, profile.ID, profile.Username, profile.DisplayName, profile.Bio).
		Scan(&profile.AvatarURL, &profile.HasUploadedAvatar, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if code, constraint, ok := pgErrorCode(err); ok && code == pgUniqueViolation && constraint == profileUsernameConstraint {
			r.logger.Warn("Username already taken", logFields...)
			return models.ErrUsernameTaken
		}
		r.logger.Error("Failed to upsert profile", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	r.logger.Info("Profile saved", logFields...)
	return nil
}

func (r *pgProfileRepository) UpdateAvatar(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, avatarURL string) (*string, error) {
	var previous *string
	if err := querier.QueryRow(ctx, updateAvatarQuery, id, avatarURL).Scan(&previous); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to update avatar", zap.String("userID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}
	return previous, nil
}

func (r *pgProfileRepository) GetStatistics(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID) (*models.UserStatistics, error) {
	var stats models.UserStatistics
	if err := pgxscan.Get(ctx, querier, &stats, userStatisticsQuery, userID); err != nil {
		r.logger.Error("Failed to get user statistics", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get user statistics: %w", err)
	}
	return &stats, nil
}
