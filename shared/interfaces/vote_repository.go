package interfaces

import (
	"context"
	"errors"

	"alterstory-server/shared/models"

	"github.com/google/uuid"
)

// ErrVoteAlreadyExists - гонка двух первых голосов одного пользователя за один узел.
var ErrVoteAlreadyExists = errors.New("vote already exists")

// VoteRepository определяет методы для работы с голосами.
//
//go:generate mockery --name VoteRepository --output ./mocks --outpkg mocks --case=underscore
type VoteRepository interface {
	// GetForUpdate возвращает голос с блокировкой строки или models.ErrNotFound.
	GetForUpdate(ctx context.Context, querier DBTX, userID, storyID uuid.UUID) (*models.Vote, error)

	// Get возвращает голос или models.ErrNotFound.
	Get(ctx context.Context, querier DBTX, userID, storyID uuid.UUID) (*models.Vote, error)

	// Insert добавляет голос. ErrVoteAlreadyExists при нарушении уникальности,
	// models.ErrNotFound если узла нет.
	Insert(ctx context.Context, querier DBTX, userID, storyID uuid.UUID, voteType models.VoteType) error

	// UpdateType меняет тип существующего голоса на месте.
	UpdateType(ctx context.Context, querier DBTX, userID, storyID uuid.UUID, voteType models.VoteType) error

	// Delete удаляет голос и возвращает его тип. Если голоса не было, возвращает nil, nil.
	Delete(ctx context.Context, querier DBTX, userID, storyID uuid.UUID) (*models.VoteType, error)

	// ListByUser возвращает историю голосов пользователя, новые первыми.
	ListByUser(ctx context.Context, querier DBTX, userID uuid.UUID, cursor string, limit int) ([]*models.Vote, string, error)
}
