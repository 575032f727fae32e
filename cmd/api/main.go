package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/transplant-api/internal/config"
	"github.com/jwalitptl/transplant-api/internal/handler"
	allocationHandler "github.com/jwalitptl/transplant-api/internal/handler/allocation"
	auditHandler "github.com/jwalitptl/transplant-api/internal/handler/audit"
	donorHandler "github.com/jwalitptl/transplant-api/internal/handler/donor"
	hospitalHandler "github.com/jwalitptl/transplant-api/internal/handler/hospital"
	organHandler "github.com/jwalitptl/transplant-api/internal/handler/organ"
	organtypeHandler "github.com/jwalitptl/transplant-api/internal/handler/organtype"
	recipientHandler "github.com/jwalitptl/transplant-api/internal/handler/recipient"
	reportHandler "github.com/jwalitptl/transplant-api/internal/handler/report"
	surgeryHandler "github.com/jwalitptl/transplant-api/internal/handler/surgery"
	waitlistHandler "github.com/jwalitptl/transplant-api/internal/handler/waitlist"
	"github.com/jwalitptl/transplant-api/internal/middleware"
	"github.com/jwalitptl/transplant-api/internal/repository/postgres"
	"github.com/jwalitptl/transplant-api/internal/router"
	allocationService "github.com/jwalitptl/transplant-api/internal/service/allocation"
	auditService "github.com/jwalitptl/transplant-api/internal/service/audit"
	"github.com/jwalitptl/transplant-api/internal/service/catalog"
	donorService "github.com/jwalitptl/transplant-api/internal/service/donor"
	hospitalService "github.com/jwalitptl/transplant-api/internal/service/hospital"
	"github.com/jwalitptl/transplant-api/internal/service/matching"
	"github.com/jwalitptl/transplant-api/internal/service/priority"
	recipientService "github.com/jwalitptl/transplant-api/internal/service/recipient"
	reportService "github.com/jwalitptl/transplant-api/internal/service/report"
	"github.com/jwalitptl/transplant-api/pkg/logger"
	"github.com/jwalitptl/transplant-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

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
	statsRepo := postgres.NewStatsRepository(db)

	// Services
	catalogSvc := catalog.NewService(organTypeRepo)
	scorer := matching.NewScorer(cfg.Policy)
	matcher := matching.NewMatcher(waitlistRepo, catalogSvc, scorer, cfg.Policy.MatchResultLimit)
	priorityEngine := priority.NewEngine(waitlistRepo, recipientRepo, auditRepo, cfg.Policy)
	auditSvc := auditService.NewService(auditRepo)

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
	donorSvc := donorService.NewService(donorRepo, auditSvc)
	recipientSvc := recipientService.NewService(txManager, recipientRepo, followUpRepo, priorityEngine, auditSvc)
	hospitalSvc := hospitalService.NewService(hospitalRepo, surgeonRepo, organTypeRepo, surgeryRepo, auditSvc)
	reportSvc := reportService.NewService(statsRepo)

	// Handlers
	v := validator.New()
	h := handler.NewHandler(db)

	r := router.NewRouter(h, router.RouterConfig{
		RateLimit:     100,
		RateBurst:     200,
		CORSConfig:    middleware.DefaultCORSConfig(),
		MetricsPrefix: "transplant_api",
	},
		organHandler.NewHandler(allocationSvc, v),
		allocationHandler.NewHandler(allocationSvc, v),
		waitlistHandler.NewHandler(allocationSvc, v),
		surgeryHandler.NewHandler(allocationSvc, hospitalSvc, v),
		donorHandler.NewHandler(donorSvc, v),
		recipientHandler.NewHandler(recipientSvc, v),
		hospitalHandler.NewHandler(hospitalSvc, v),
		organtypeHandler.NewHandler(catalogSvc),
		auditHandler.NewHandler(auditSvc),
		reportHandler.NewHandler(reportSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
