package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dominatehq/payportal/internal/adapter/backend"
	domainErrors "github.com/dominatehq/payportal/internal/domain/errors"
	"github.com/dominatehq/payportal/internal/domain/model"
)

// PortalFacade exposes the subset of application functionality required by the watcher.
type PortalFacade interface {
	OrdersForRecheck(ctx context.Context, limit int) ([]model.Order, error)
	ReconcileOrder(ctx context.Context, orderCode string) error
}

// SettlementWatcher re-polls non-terminal orders against the backend so that
// settlement which happened without a push notification still converges.
// Observed changes are published by the reconcile path; the watcher itself
// only schedules work.
type SettlementWatcher struct {
	facade       PortalFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewSettlementWatcher constructs the watcher worker pool.
func NewSettlementWatcher(facade PortalFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *SettlementWatcher {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &SettlementWatcher{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.Order, batchSize*workers),
	}
}

// Start launches background processing.
func (w *SettlementWatcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.worker(runCtx)
	}

	w.wg.Add(1)
	go w.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (w *SettlementWatcher) Stop() {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *SettlementWatcher) dispatch(ctx context.Context) {
	defer w.wg.Done()
	defer close(w.jobs)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.fetchAndDispatch(ctx)
		}
	}
}

func (w *SettlementWatcher) fetchAndDispatch(ctx context.Context) {
	orders, err := w.facade.OrdersForRecheck(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("fetch orders for recheck failed", slog.String("error", err.Error()))
		return
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case w.jobs <- order:
		}
	}
}

func (w *SettlementWatcher) worker(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-w.jobs:
			if !ok {
				return
			}
			w.handleOrder(ctx, order)
		}
	}
}

func (w *SettlementWatcher) handleOrder(ctx context.Context, order model.Order) {
	err := w.facade.ReconcileOrder(ctx, order.Code)
	if err == nil {
		return
	}

	var rateLimited backend.TooManyRequestsError
	switch {
	case errors.As(err, &rateLimited):
		w.logger.Warn("backend rate limited", slog.Duration("retry_after", rateLimited.RetryAfter))
		time.Sleep(rateLimited.RetryAfter)
	case errors.Is(err, domainErrors.ErrNotFound):
		// Order vanished upstream; leave the snapshot for the next sweep.
		w.logger.Warn("order missing on backend", slog.String("order", order.Code))
	default:
		w.logger.Error("order reconcile failed", slog.String("order", order.Code), slog.String("error", err.Error()))
	}
}
