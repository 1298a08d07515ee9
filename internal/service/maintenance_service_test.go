package service_test

import (
	"context"
	"errors"
	"testing"

	"alterstory-server/internal/service"
	"alterstory-server/shared/interfaces/mocks"
	"alterstory-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMaintenanceService(t *testing.T) {
	ctx := context.Background()

	t.Run("Recount continuations", func(t *testing.T) {
		storyRepo := new(mocks.StoryRepository)
		contributionRepo := new(mocks.ContributionRepository)
		svc := service.NewMaintenanceService(mocks.NewPassthroughTxManager(), storyRepo, contributionRepo, zap.NewNop())

		drifted, settled := uuid.New(), uuid.New()
		storyRepo.On("ListContinuationDrift", ctx, mock.Anything).Return([]uuid.UUID{drifted, settled}, nil).Once()
		storyRepo.On("GetByIDForUpdate", ctx, mock.Anything, drifted).Return(&models.Story{ID: drifted, ContinuationCount: 7}, nil).Once()
		storyRepo.On("RecountContinuations", ctx, mock.Anything, drifted).Return(1, nil).Once()
		// Пока ждали блокировку, конкурентная вставка уже выровняла счетчик.
		storyRepo.On("GetByIDForUpdate", ctx, mock.Anything, settled).Return(&models.Story{ID: settled, ContinuationCount: 2}, nil).Once()
		storyRepo.On("RecountContinuations", ctx, mock.Anything, settled).Return(2, nil).Once()

		result, err := svc.RecountContinuations(ctx)
		require.NoError(t, err)
		assert.Equal(t, "recount_continuations", result.Operation)
		assert.Equal(t, int64(1), result.Fixed)
		storyRepo.AssertExpectations(t)
	})

	t.Run("Recount locks each parent before counting", func(t *testing.T) {
		storyRepo := new(mocks.StoryRepository)
		contributionRepo := new(mocks.ContributionRepository)
		svc := service.NewMaintenanceService(mocks.NewPassthroughTxManager(), storyRepo, contributionRepo, zap.NewNop())

		id := uuid.New()
		var calls []string
		storyRepo.On("ListContinuationDrift", ctx, mock.Anything).Return([]uuid.UUID{id}, nil).Once()
		storyRepo.On("GetByIDForUpdate", ctx, mock.Anything, id).
			Run(func(mock.Arguments) { calls = append(calls, "lock") }).
			Return(&models.Story{ID: id, ContinuationCount: 0}, nil).Once()
		storyRepo.On("RecountContinuations", ctx, mock.Anything, id).
			Run(func(mock.Arguments) { calls = append(calls, "recount") }).
			Return(3, nil).Once()

		result, err := svc.RecountContinuations(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Fixed)
		assert.Equal(t, []string{"lock", "recount"}, calls)
	})

	t.Run("Vanished parent is skipped", func(t *testing.T) {
		storyRepo := new(mocks.StoryRepository)
		contributionRepo := new(mocks.ContributionRepository)
		svc := service.NewMaintenanceService(mocks.NewPassthroughTxManager(), storyRepo, contributionRepo, zap.NewNop())

		id := uuid.New()
		storyRepo.On("ListContinuationDrift", ctx, mock.Anything).Return([]uuid.UUID{id}, nil).Once()
		storyRepo.On("GetByIDForUpdate", ctx, mock.Anything, id).Return(nil, models.ErrNotFound).Once()

		result, err := svc.RecountContinuations(ctx)
		require.NoError(t, err)
		assert.Zero(t, result.Fixed)
		storyRepo.AssertNotCalled(t, "RecountContinuations", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Reconcile ledger", func(t *testing.T) {
		storyRepo := new(mocks.StoryRepository)
		contributionRepo := new(mocks.ContributionRepository)
		svc := service.NewMaintenanceService(mocks.NewPassthroughTxManager(), storyRepo, contributionRepo, zap.NewNop())

		contributionRepo.On("InsertMissing", ctx, mock.Anything).Return(int64(0), nil).Once()

		result, err := svc.ReconcileLedger(ctx)
		require.NoError(t, err)
		assert.Equal(t, "reconcile_ledger", result.Operation)
		assert.Zero(t, result.Fixed)
		contributionRepo.AssertExpectations(t)
	})

	t.Run("Failure is a storage error", func(t *testing.T) {
		storyRepo := new(mocks.StoryRepository)
		contributionRepo := new(mocks.ContributionRepository)
		svc := service.NewMaintenanceService(mocks.NewPassthroughTxManager(), storyRepo, contributionRepo, zap.NewNop())

		storyRepo.On("ListContinuationDrift", ctx, mock.Anything).Return(nil, errors.New("lock timeout")).Once()

		_, err := svc.RecountContinuations(ctx)
		assert.ErrorIs(t, err, models.ErrStorage)
		storyRepo.AssertExpectations(t)
	})
}
