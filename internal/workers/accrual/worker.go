// Package accrual runs the scheduled performance sweep over all active
// plans. Read-time accrual already keeps interactive views fresh; the
// sweep guarantees drift and ledger update entries for plans nobody is
// looking at.
package accrual

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/stackfolio/stackfolio_service/internal/domain/entities"
	"github.com/stackfolio/stackfolio_service/pkg/retry"
)

// PlanEngine interface for the sweep
type PlanEngine interface {
	ListAll(ctx context.Context) ([]*entities.InvestmentPlan, error)
	SimulateUpdate(ctx context.Context, planID uuid.UUID) (*entities.InvestmentPlan, error)
}

// Worker sweeps all plans on a cron schedule
type Worker struct {
	engine   PlanEngine
	schedule string
	cron     *cron.Cron
	retrier  *retry.Retrier
	logger   *zap.Logger
}

// NewWorker creates an accrual worker. An empty schedule disables it.
func NewWorker(engine PlanEngine, schedule string, logger *zap.Logger) *Worker {
	return &Worker{
		engine:   engine,
		schedule: schedule,
		cron:     cron.New(),
		retrier:  retry.NewRetrier(retry.DefaultPolicy(), logger),
		logger:   logger,
	}
}

// Start registers the sweep and starts the scheduler
func (w *Worker) Start() error {
	if w.schedule == "" {
		w.logger.Info("Accrual worker disabled (no schedule)")
		return nil
	}

	_, err := w.cron.AddFunc(w.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		w.sweep(ctx)
	})
	if err != nil {
		return err
	}

	w.cron.Start()
	w.logger.Info("Accrual worker started", zap.String("schedule", w.schedule))
	return nil
}

// Stop stops the scheduler
func (w *Worker) Stop() {
	w.cron.Stop()
	w.logger.Info("Accrual worker stopped")
}

func (w *Worker) sweep(ctx context.Context) {
	var plans []*entities.InvestmentPlan
	err := w.retrier.Do(ctx, func() error {
		var listErr error
		plans, listErr = w.engine.ListAll(ctx)
		return listErr
	})
	if err != nil {
		w.logger.Error("Accrual sweep failed to list plans", zap.Error(err))
		return
	}

	updated := 0
	for _, p := range plans {
		planID := p.ID
		err := w.retrier.Do(ctx, func() error {
			_, updateErr := w.engine.SimulateUpdate(ctx, planID)
			return updateErr
		})
		if err != nil {
			// A plan deleted mid-sweep is expected; log and continue
			w.logger.Warn("Accrual sweep skipped plan",
				zap.String("plan_id", p.ID.String()),
				zap.Error(err))
			continue
		}
		updated++
	}

	w.logger.Info("Accrual sweep complete",
		zap.Int("plans", len(plans)),
		zap.Int("updated", updated))
}
