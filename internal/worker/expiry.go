package worker

import (
	"context"
	"time"

	"github.com/jwalitptl/transplant-api/internal/service/allocation"
	"github.com/jwalitptl/transplant-api/pkg/logger"
	"github.com/jwalitptl/transplant-api/pkg/metrics"
)

const expiryBatchSize = 100

// ExpiryWorker sweeps the two clocks in the allocation lifecycle: organs whose
// viability window has closed and pending allocations whose response deadline
// has passed. Readers see expiry lazily before the sweep lands; the sweep
// makes it durable.
type ExpiryWorker struct {
	svc      *allocation.Service
	interval time.Duration
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewExpiryWorker(svc *allocation.Service, interval time.Duration, logger *logger.Logger, metrics *metrics.Metrics) *ExpiryWorker {
	return &ExpiryWorker{
		svc:      svc,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
	}
}

func (w *ExpiryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("starting expiry worker", "interval", w.interval.String())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutting down expiry worker")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	organs, err := w.svc.ExpireNonviableOrgans(ctx)
	if err != nil {
		w.logger.Error(err, "organ expiry sweep failed")
	} else if organs > 0 {
		w.logger.Info("expired nonviable organs", "count", organs)
		w.metrics.OrgansExpired.Add(float64(organs))
	}

	allocations, err := w.svc.ExpireOverdueAllocations(ctx, expiryBatchSize)
	if err != nil {
		w.logger.Error(err, "allocation expiry sweep failed")
	} else if allocations > 0 {
		w.logger.Info("expired overdue allocations", "count", allocations)
		w.metrics.AllocationsExpired.Add(float64(allocations))
	}
}
