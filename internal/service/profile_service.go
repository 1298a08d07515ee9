package service

import (
	"context"
	"fmt"
	"io"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"
	"alterstory-server/shared/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultAvatarMaxBytes - ограничение размера аватара по умолчанию (2 MB).
const DefaultAvatarMaxBytes int64 = 2 << 20

// allowedAvatarTypes - допустимые Content-Type аватара и расширения файлов.
var allowedAvatarTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ProfileService - профили пользователей, аватары и сводки активности.
type ProfileService interface {
	GetProfile(ctx context.Context, username string) (*models.Profile, error)
	GetMyProfile(ctx context.Context, actorID uuid.UUID) (*models.Profile, error)
	UpsertMyProfile(ctx context.Context, actorID uuid.UUID, username, displayName string, bio *string) (*models.Profile, error)
	UploadAvatar(ctx context.Context, actorID uuid.UUID, r io.Reader, size int64, contentType string) (*models.Profile, error)

	GetUserStatistics(ctx context.Context, userID uuid.UUID) (*models.UserStatistics, error)
	ListUserStories(ctx context.Context, userID uuid.UUID, cursor string, limit int) ([]*models.Story, string, error)
	ListUserContributions(ctx context.Context, userID uuid.UUID, cursor string, limit int) ([]*models.ContributionWithStory, string, error)
}

type profileServiceImpl struct {
	db               interfaces.DBTX
	profileRepo      interfaces.ProfileRepository
	storyRepo        interfaces.StoryRepository
	contributionRepo interfaces.ContributionRepository
	objectStore      interfaces.ObjectStore
	avatarMaxBytes   int64
	logger           *zap.Logger
}

// NewProfileService создает новый ProfileService.
func NewProfileService(
	db interfaces.DBTX,
	profileRepo interfaces.ProfileRepository,
	storyRepo interfaces.StoryRepository,
	contributionRepo interfaces.ContributionRepository,
	objectStore interfaces.ObjectStore,
	avatarMaxBytes int64,
	logger *zap.Logger,
) ProfileService {
	if avatarMaxBytes <= 0 {
		avatarMaxBytes = DefaultAvatarMaxBytes
	}
	return &profileServiceImpl{
		db:               db,
		profileRepo:      profileRepo,
		storyRepo:        storyRepo,
		contributionRepo: contributionRepo,
		objectStore:      objectStore,
		avatarMaxBytes:   avatarMaxBytes,
		logger:           logger.Named("ProfileService"),
	}
}

func (s *profileServiceImpl) GetProfile(ctx context.Context, username string) (*models.Profile, error) {
	username = trimmed(username)
	if username == "" {
		return nil, models.NewValidationError("username", "Username is required")
	}
	profile, err := s.profileRepo.GetByUsername(ctx, s.db, username)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Error("Failed to get profile", zap.String("username", username), zap.Error(err))
		}
		return nil, storageFailure(err)
	}
	return profile, nil
}

func (s *profileServiceImpl) GetMyProfile(ctx context.Context, actorID uuid.UUID) (*models.Profile, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.GetByID(ctx, s.db, actorID)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Error("Failed to get own profile", zap.String("userID", actorID.String()), zap.Error(err))
		}
		return nil, storageFailure(err)
	}
	return profile, nil
}

// UpsertMyProfile создает профиль при первом сохранении и обновляет его потом.
func (s *profileServiceImpl) UpsertMyProfile(ctx context.Context, actorID uuid.UUID, username, displayName string, bio *string) (*models.Profile, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	input := profileInput{Username: trimmed(username), DisplayName: trimmed(displayName)}
	if bio != nil {
		trimmedBio := trimmed(*bio)
		if trimmedBio != "" {
			input.Bio = &trimmedBio
		}
	}
	if err := validateStruct(input, profileMessages); err != nil {
		return nil, err
	}

	profile := &models.Profile{
		ID:          actorID,
		Username:    input.Username,
		DisplayName: input.DisplayName,
		Bio:         input.Bio,
	}
	if err := s.profileRepo.Upsert(ctx, s.db, profile); err != nil {
		if !isDomainError(err) {
			s.logger.Error("Failed to save profile", zap.String("userID", actorID.String()), zap.Error(err))
		}
		return nil, storageFailure(err)
	}
	return profile, nil
}

// UploadAvatar сохраняет изображение в объектное хранилище и записывает ссылку в профиль.
// Предыдущий загруженный аватар удаляется, ошибка удаления только логируется.
func (s *profileServiceImpl) UploadAvatar(ctx context.Context, actorID uuid.UUID, r io.Reader, size int64, contentType string) (*models.Profile, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	ext, ok := allowedAvatarTypes[contentType]
	if !ok {
		return nil, models.NewValidationError("avatar", "Avatar must be a JPEG, PNG, WebP or GIF image")
	}
	if size <= 0 {
		return nil, models.NewValidationError("avatar", "Avatar file is empty")
	}
	if size > s.avatarMaxBytes {
		return nil, models.NewValidationError("avatar", fmt.Sprintf("Avatar must be less than %d bytes", s.avatarMaxBytes))
	}
	logFields := []zap.Field{
		zap.String("userID", actorID.String()),
		zap.String("contentType", contentType),
		zap.Int64("size", size),
	}

	// Профиль должен существовать до загрузки, иначе объект останется без владельца.
	if _, err := s.profileRepo.GetByID(ctx, s.db, actorID); err != nil {
		if !isNotFound(err) {
			s.logger.Error("Failed to get profile before avatar upload", append(logFields, zap.Error(err))...)
		}
		return nil, storageFailure(err)
	}

	key := fmt.Sprintf("avatars/%s/%s.%s", actorID.String(), uuid.NewString(), ext)
	if err := s.objectStore.Put(ctx, key, r, size, contentType); err != nil {
		s.logger.Error("Failed to upload avatar", append(logFields, zap.Error(err))...)
		return nil, models.ErrStorage
	}

	previous, err := s.profileRepo.UpdateAvatar(ctx, s.db, actorID, s.objectStore.PublicURL(key))
	if err != nil {
		s.logger.Error("Failed to save avatar url", append(logFields, zap.Error(err))...)
		s.deleteObject(ctx, key)
		return nil, storageFailure(err)
	}
	if previous != nil {
		if oldKey, ours := s.objectStore.KeyFromURL(*previous); ours && oldKey != key {
			s.deleteObject(ctx, oldKey)
		}
	}

	s.logger.Info("Avatar uploaded", append(logFields, zap.String("key", key))...)
	return s.GetMyProfile(ctx, actorID)
}

func (s *profileServiceImpl) deleteObject(ctx context.Context, key string) {
	if err := s.objectStore.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete avatar object", zap.String("key", key), zap.Error(err))
	}
}

func (s *profileServiceImpl) GetUserStatistics(ctx context.Context, userID uuid.UUID) (*models.UserStatistics, error) {
	stats, err := s.profileRepo.GetStatistics(ctx, s.db, userID)
	if err != nil {
		s.logger.Error("Failed to get user statistics", zap.String("userID", userID.String()), zap.Error(err))
		return nil, storageFailure(err)
	}
	return stats, nil
}

// ListUserStories возвращает корни, созданные пользователем.
func (s *profileServiceImpl) ListUserStories(ctx context.Context, userID uuid.UUID, cursor string, limit int) ([]*models.Story, string, error) {
	limit = utils.SanitizeLimit(limit)
	stories, next, err := s.storyRepo.ListRootsByAuthor(ctx, s.db, userID, cursor, limit)
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("Failed to list user stories", zap.String("userID", userID.String()), zap.Error(err))
		}
		return nil, "", storageFailure(err)
	}
	return stories, next, nil
}

// ListUserContributions возвращает продолжения, добавленные пользователем в чужие деревья.
func (s *profileServiceImpl) ListUserContributions(ctx context.Context, userID uuid.UUID, cursor string, limit int) ([]*models.ContributionWithStory, string, error) {
	limit = utils.SanitizeLimit(limit)
	list, next, err := s.contributionRepo.ListByUser(ctx, s.db, userID, models.ContributionContinue, cursor, limit)
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("Failed to list user contributions", zap.String("userID", userID.String()), zap.Error(err))
		}
		return nil, "", storageFailure(err)
	}
	return list, next, nil
}
