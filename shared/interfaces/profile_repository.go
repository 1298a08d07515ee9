package interfaces

import (
	"context"

	"alterstory-server/shared/models"

	"github.com/google/uuid"
)

// ProfileRepository определяет методы для работы с профилями пользователей.
//
//go:generate mockery --name ProfileRepository --output ./mocks --outpkg mocks --case=underscore
type ProfileRepository interface {
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Profile, error)
	GetByUsername(ctx context.Context, querier DBTX, username string) (*models.Profile, error)
	// Upsert создает или обновляет профиль. models.ErrUsernameTaken, если имя занято.
	Upsert(ctx context.Context, querier DBTX, profile *models.Profile) error
	// UpdateAvatar выставляет avatar_url и has_uploaded_avatar = true.
	// Возвращает предыдущий URL аватара (nil, если его не было).
	UpdateAvatar(ctx context.Context, querier DBTX, id uuid.UUID, avatarURL string) (*string, error)
	GetStatistics(ctx context.Context, querier DBTX, userID uuid.UUID) (*models.UserStatistics, error)
}
