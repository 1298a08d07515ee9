package worker

import (
	"context"
	"time"

	"alterstory-server/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	maintenanceRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alterstory_maintenance_runs_total",
			Help: "Total number of maintenance runs, partitioned by operation and result.",
		},
		[]string{"operation", "result"},
	)
	maintenanceFixedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alterstory_maintenance_fixed_total",
			Help: "Total number of rows repaired by maintenance, partitioned by operation.",
		},
		[]string{"operation"},
	)
)

// MaintenanceWorker периодически пересчитывает счетчики продолжений и сверяет реестр участия.
type MaintenanceWorker struct {
	maintenance service.MaintenanceService
	interval    time.Duration
	logger      *zap.Logger
}

func NewMaintenanceWorker(maintenance service.MaintenanceService, interval time.Duration, logger *zap.Logger) *MaintenanceWorker {
	return &MaintenanceWorker{
		maintenance: maintenance,
		interval:    interval,
		logger:      logger.Named("MaintenanceWorker"),
	}
}

// Run блокируется до отмены ctx. Интервал <= 0 отключает воркер.
func (w *MaintenanceWorker) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("Maintenance worker disabled")
		return
	}
	w.logger.Info("Maintenance worker started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Maintenance worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет обе операции. Ошибка одной не отменяет другую.
func (w *MaintenanceWorker) RunOnce(ctx context.Context) {
	w.record(w.maintenance.RecountContinuations(ctx))
	w.record(w.maintenance.ReconcileLedger(ctx))
}

func (w *MaintenanceWorker) record(result *service.MaintenanceResult, err error) {
	if err != nil {
		maintenanceRunsTotal.WithLabelValues("unknown", "error").Inc()
		w.logger.Error("Maintenance run failed", zap.Error(err))
		return
	}
	maintenanceRunsTotal.WithLabelValues(result.Operation, "ok").Inc()
	maintenanceFixedTotal.WithLabelValues(result.Operation).Add(float64(result.Fixed))
	if result.Fixed > 0 {
		w.logger.Warn("Maintenance repaired drift", zap.String("operation", result.Operation), zap.Int64("fixed", result.Fixed))
	}
}
