package worker

import (
	"context"
	"time"

	"github.com/jwalitptl/transplant-api/internal/repository"
	"github.com/jwalitptl/transplant-api/pkg/logger"
)

type AuditCleanupWorker struct {
	repo          repository.AuditRepository
	retentionDays int
	interval      time.Duration
	logger        *logger.Logger
}

func NewAuditCleanupWorker(repo repository.AuditRepository, retentionDays int, interval time.Duration, logger *logger.Logger) *AuditCleanupWorker {
	return &AuditCleanupWorker{
		repo:          repo,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        logger,
	}
}

func (w *AuditCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -w.retentionDays)
			deleted, err := w.repo.DeleteBefore(ctx, cutoff)
			if err != nil {
				w.logger.Error(err, "failed to clean up audit logs")
				continue
			}
			if deleted > 0 {
				w.logger.Info("cleaned up audit logs", "deleted", deleted, "cutoff", cutoff)
			}
		}
	}
}
