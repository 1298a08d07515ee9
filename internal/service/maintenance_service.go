package service

import (
	"context"
	"errors"

	"alterstory-server/shared/interfaces"
	"alterstory-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaintenanceResult - итог одного прохода ремонта.
type MaintenanceResult struct {
	Operation string `json:"operation"`
	Fixed     int64  `json:"fixed"`
}

// MaintenanceService чинит денормализованные данные.
type MaintenanceService interface {
	// RecountContinuations пересчитывает continuation_count всех узлов по фактическим потомкам.
	RecountContinuations(ctx context.Context) (*MaintenanceResult, error)
	// ReconcileLedger добавляет недостающие записи реестра участия.
	ReconcileLedger(ctx context.Context) (*MaintenanceResult, error)
}

type maintenanceServiceImpl struct {
	txManager        interfaces.TxManager
	storyRepo        interfaces.StoryRepository
	contributionRepo interfaces.ContributionRepository
	logger           *zap.Logger
}

// NewMaintenanceService создает новый MaintenanceService.
func NewMaintenanceService(
	txManager interfaces.TxManager,
	storyRepo interfaces.StoryRepository,
	contributionRepo interfaces.ContributionRepository,
	logger *zap.Logger,
) MaintenanceService {
	return &maintenanceServiceImpl{
		txManager:        txManager,
		storyRepo:        storyRepo,
		contributionRepo: contributionRepo,
		logger:           logger.Named("MaintenanceService"),
	}
}

func (s *maintenanceServiceImpl) RecountContinuations(ctx context.Context) (*MaintenanceResult, error) {
	var drifted []uuid.UUID
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		var err error
		drifted, err = s.storyRepo.ListContinuationDrift(ctx, tx)
		return err
	})
	if err != nil {
		s.logger.Error("Continuation drift scan failed", zap.Error(err))
		return nil, models.ErrStorage
	}

	var fixed int64
	for _, id := range drifted {
		changed, err := s.recountParent(ctx, id)
		if err != nil {
			s.logger.Error("Continuation recount failed", zap.String("story_id", id.String()), zap.Error(err))
			return nil, models.ErrStorage
		}
		if changed {
			fixed++
		}
	}
	s.logger.Info("Continuation recount finished", zap.Int("drifted", len(drifted)), zap.Int64("fixed", fixed))
	return &MaintenanceResult{Operation: "recount_continuations", Fixed: fixed}, nil
}

// recountParent берет ту же блокировку строки родителя, что и прием продолжения,
// поэтому подсчет идет уже после коммита конкурирующей вставки.
func (s *maintenanceServiceImpl) recountParent(ctx context.Context, id uuid.UUID) (bool, error) {
	var changed bool
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		parent, err := s.storyRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil
			}
			return err
		}
		count, err := s.storyRepo.RecountContinuations(ctx, tx, id)
		if err != nil {
			return err
		}
		changed = count != parent.ContinuationCount
		return nil
	})
	return changed, err
}

func (s *maintenanceServiceImpl) ReconcileLedger(ctx context.Context) (*MaintenanceResult, error) {
	var inserted int64
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		var err error
		inserted, err = s.contributionRepo.InsertMissing(ctx, tx)
		return err
	})
	if err != nil {
		s.logger.Error("Ledger reconciliation failed", zap.Error(err))
		return nil, models.ErrStorage
	}
	s.logger.Info("Ledger reconciliation finished", zap.Int64("inserted", inserted))
	return &MaintenanceResult{Operation: "reconcile_ledger", Fixed: inserted}, nil
}
