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
	"golang.org/x/time/rate"

	"github.com/medicode/medicode-api/internal/config"
	"github.com/medicode/medicode-api/internal/email"
	"github.com/medicode/medicode-api/internal/handler"
	authHandler "github.com/medicode/medicode-api/internal/handler/auth"
	clinicalHandler "github.com/medicode/medicode-api/internal/handler/clinical"
	codeHandler "github.com/medicode/medicode-api/internal/handler/code"
	notificationHandler "github.com/medicode/medicode-api/internal/handler/notification"
	patientHandler "github.com/medicode/medicode-api/internal/handler/patient"
	reportHandler "github.com/medicode/medicode-api/internal/handler/report"
	validationHandler "github.com/medicode/medicode-api/internal/handler/validation"
	"github.com/medicode/medicode-api/internal/middleware"
	"github.com/medicode/medicode-api/internal/repository/postgres"
	"github.com/medicode/medicode-api/internal/router"
	auditService "github.com/medicode/medicode-api/internal/service/audit"
	authService "github.com/medicode/medicode-api/internal/service/auth"
	clinicalService "github.com/medicode/medicode-api/internal/service/clinical"
	codeService "github.com/medicode/medicode-api/internal/service/code"
	notificationService "github.com/medicode/medicode-api/internal/service/notification"
	patientService "github.com/medicode/medicode-api/internal/service/patient"
	reportService "github.com/medicode/medicode-api/internal/service/report"
	validationService "github.com/medicode/medicode-api/internal/service/validation"
	"github.com/medicode/medicode-api/pkg/auth"
	"github.com/medicode/medicode-api/pkg/logger"
	"github.com/medicode/medicode-api/pkg/messaging/redis"
	"github.com/medicode/medicode-api/pkg/metrics"
	"github.com/medicode/medicode-api/pkg/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(&logger.Config{
		Level:      logger.ParseLevel(cfg.Logging.Level),
		TimeFormat: time.RFC3339,
		Pretty:     cfg.Logging.Pretty,
	})
	log.Logger = appLogger

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, appLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	m := metrics.New("medicode", "api")

	// Repositories
	codeRepo := postgres.NewMedicalCodeRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	diagnosisRepo := postgres.NewDiagnosisRepository(db)
	treatmentRepo := postgres.NewTreatmentRepository(db)
	recordRepo := postgres.NewValidationRecordRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	userRepo := postgres.NewUserRepository(db)
	reportRepo := postgres.NewReportRepository(db)

	// Services
	emailSvc := email.NewSMTPService(cfg.SMTP)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	hasher := security.NewBcryptHasher(0)

	catalogSvc := codeService.NewService(codeRepo, cfg.Catalog.CacheTTL, appLogger)
	validatorSvc := validationService.NewService(catalogSvc, m, appLogger, cfg.Catalog.SuggestionLimit)
	auditSvc := auditService.NewService(recordRepo, m, appLogger)
	notifierSvc := notificationService.NewService(notificationRepo, emailSvc, broker, m, appLogger)
	patientSvc := patientService.NewService(patientRepo, diagnosisRepo, treatmentRepo, validatorSvc, auditSvc, notifierSvc, appLogger)
	clinicalSvc := clinicalService.NewService(diagnosisRepo, treatmentRepo, appLogger)
	reportSvc := reportService.NewService(reportRepo, patientRepo, diagnosisRepo, treatmentRepo, appLogger)
	authSvc := authService.NewService(userRepo, jwtSvc, hasher)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	handler.RegisterValidators()

	h := handler.NewHandler()
	r := router.New(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		patientHandler.NewHandler(patientSvc),
		clinicalHandler.NewHandler(clinicalSvc),
		codeHandler.NewHandler(catalogSvc, validatorSvc),
		validationHandler.NewHandler(auditSvc),
		notificationHandler.NewHandler(notifierSvc),
		reportHandler.NewHandler(reportSvc),
		h,
		router.Config{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			CORSConfig:       middleware.DefaultCORSConfig(),
			MetricsPrefix:    "medicode_http",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
