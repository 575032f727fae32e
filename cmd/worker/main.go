package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/transplant-api/internal/config"
	"github.com/jwalitptl/transplant-api/internal/email"
	"github.com/jwalitptl/transplant-api/internal/repository/postgres"
	allocationService "github.com/jwalitptl/transplant-api/internal/service/allocation"
	"github.com/jwalitptl/transplant-api/internal/service/catalog"
	"github.com/jwalitptl/transplant-api/internal/service/matching"
	"github.com/jwalitptl/transplant-api/internal/service/notification"
	"github.com/jwalitptl/transplant-api/internal/service/priority"
	internalworker "github.com/jwalitptl/transplant-api/internal/worker"
	"github.com/jwalitptl/transplant-api/pkg/logger"
	redisbroker "github.com/jwalitptl/transplant-api/pkg/messaging/redis"
	"github.com/jwalitptl/transplant-api/pkg/metrics"
	"github.com/jwalitptl/transplant-api/pkg/worker"
)

// The worker binary runs everything that is not request driven: draining the
// transactional outbox to the broker, expiring overdue offers and nonviable
// organs, delivering notifications, and pruning old audit rows.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	workerCfg, err := config.LoadWorkerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load worker configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	// Repositories
	txManager := postgres.NewTxManager(db)
	donorRepo := postgres.NewDonorRepository(db)
	recipientRepo := postgres.NewRecipientRepository(db)
	organTypeRepo := postgres.NewOrganTypeRepository(db)
	organRepo := postgres.NewOrganRepository(db)
	waitlistRepo := postgres.NewWaitlistRepository(db)
	allocationRepo := postgres.NewAllocationRepository(db)
	surgeryRepo := postgres.NewSurgeryRepository(db)
	hospitalRepo := postgres.NewHospitalRepository(db)
	surgeonRepo := postgres.NewSurgeonRepository(db)
	followUpRepo := postgres.NewFollowUpRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// The expiry sweeps reuse the allocation service so state transitions go
	// through the same guarded paths as API calls.
	catalogSvc := catalog.NewService(organTypeRepo)
	scorer := matching.NewScorer(cfg.Policy)
	matcher := matching.NewMatcher(waitlistRepo, catalogSvc, scorer, cfg.Policy.MatchResultLimit)
	priorityEngine := priority.NewEngine(waitlistRepo, recipientRepo, auditRepo, cfg.Policy)
	allocationSvc := allocationService.NewService(allocationService.Deps{
		Tx:          txManager,
		Organs:      organRepo,
		OrganTypes:  catalogSvc,
		Donors:      donorRepo,
		Recipients:  recipientRepo,
		Waitlist:    waitlistRepo,
		Allocations: allocationRepo,
		Surgeries:   surgeryRepo,
		Hospitals:   hospitalRepo,
		Surgeons:    surgeonRepo,
		FollowUps:   followUpRepo,
		Audit:       auditRepo,
		Outbox:      outboxRepo,
		Matcher:     matcher,
		Scorer:      scorer,
		Priority:    priorityEngine,
		Policy:      cfg.Policy,
		Logger:      appLogger,
	})

	workerMetrics := metrics.NewMetrics("transplant", "worker")

	outboxProcessor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:     workerCfg.OutboxBatchSize,
			PollInterval:  workerCfg.OutboxPollInterval,
			RetryAttempts: workerCfg.OutboxRetryAttempts,
			RetryDelay:    workerCfg.OutboxRetryDelay,
		},
		appLogger,
		workerMetrics,
	)

	expiryWorker := internalworker.NewExpiryWorker(allocationSvc, workerCfg.ExpirySweepInterval, appLogger, workerMetrics)
	cleanupWorker := internalworker.NewAuditCleanupWorker(auditRepo, workerCfg.AuditRetentionDays, workerCfg.AuditCleanupInterval, appLogger)

	var emailSvc email.Service = email.NoopService{}
	if cfg.SMTP.Host != "" {
		emailSvc = email.NewSMTPService(cfg.SMTP)
	}
	notificationSvc := notification.NewService(broker, recipientRepo, organRepo, emailSvc, appLogger)

	setupHealthCheck(workerCfg.HealthPort, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("shutting down workers")
		cancel()
	}()

	go expiryWorker.Start(ctx)
	go cleanupWorker.Start(ctx)
	go func() {
		if err := notificationSvc.Start(ctx); err != nil {
			appLogger.Error(err, "notification service stopped")
		}
	}()

	outboxProcessor.Start(ctx)
}

func setupHealthCheck(port int, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			appLogger.Error(err, "health check server failed")
			os.Exit(1)
		}
	}()
}
