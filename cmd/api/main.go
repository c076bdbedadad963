package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nexulsly-backend/config"
	_ "nexulsly-backend/docs" // Important for Swagger
	v1 "nexulsly-backend/internal/delivery/http/v1"
	"nexulsly-backend/internal/domain"
	"nexulsly-backend/internal/repository/postgres"
	"nexulsly-backend/internal/repository/sqlite"
	"nexulsly-backend/internal/usecase"
	"nexulsly-backend/pkg/database"
	"nexulsly-backend/pkg/email"
	"nexulsly-backend/pkg/email/templates"
	"nexulsly-backend/pkg/logger"
	"nexulsly-backend/pkg/redis"
	"nexulsly-backend/pkg/security"
	"nexulsly-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// @title           Nexulsly Contact API
// @version         1.0
// @description     Contact form intake: validation, optional storage and email notification.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		os.Exit(1)
	}
}

// run owns every deferred cleanup so startup failures still flush the
// rotating log file and the audit stream before the process exits.
func run(cfg *config.Config) error {

	// 2. Setup Logger
	logCloser := logger.Init(logger.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer logCloser.Close()

	audit := security.NewSecurityLogger("nexulsly-backend", cfg.GinMode)
	defer func() { _ = audit.Sync() }()

	gin.SetMode(cfg.GinMode)
	logger.Log.Info("Starting contact backend", "port", cfg.Port, "storage", cfg.StorageDriver(), "mail_driver", cfg.MailDriver)

	ctx := context.Background()
	checks := map[string]usecase.HealthCheck{}

	// 3. Setup Storage
	repo, storeCloser, err := openStore(ctx, cfg, checks)
	if err != nil {
		logger.Log.Error("Failed to open contact storage", "error", err)
		return err
	}
	defer storeCloser.Close()

	// 4. Setup Email Service
	sender, err := email.NewSender(cfg)
	if err != nil {
		logger.Log.Error("Failed to configure email sender", "error", err)
		return err
	}
	if smtpSender, ok := sender.(*email.SMTPSender); ok {
		verifyCtx, cancel := context.WithTimeout(ctx, cfg.EmailTimeout)
		if err := smtpSender.Verify(verifyCtx); err != nil {
			logger.Log.Warn("SMTP server verification failed, submissions may not be delivered", "error", err)
		}
		cancel()
	}

	// 5. Setup Redis (optional)
	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword})
		if err != nil {
			logger.Log.Warn("Redis unavailable, rate limiting in memory", "error", err)
		} else {
			defer redisClient.Close()
			checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}

	// 6. Setup UseCases
	contactUC := usecase.NewContactUsecase(repo, sender, usecase.ContactConfig{
		TeamEmails:     cfg.TeamEmails,
		StorageTimeout: cfg.StorageTimeout,
		EmailTimeout:   cfg.EmailTimeout,
		Brand: templates.Brand{
			Name:      cfg.FromName,
			SiteURL:   cfg.SiteURL,
			Location:  cfg.CompanyLocation,
			FromEmail: cfg.FromEmail,
		},
	}, validation.New(), usecase.WithAuditLogger(audit))
	healthUC := usecase.NewHealthUsecase(checks)

	// 7. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ContactUC: contactUC,
		HealthUC:  healthUC,
		Config:    cfg,
		Redis:     redisClient,
		Audit:     audit,
		Metrics:   v1.NewMetrics(),
	})

	// 8. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listenErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Listen failed", "error", err)
			listenErr <- err
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-listenErr:
		return err
	}
	logger.Log.Info("Shutting down server...")

	// in-flight sends run up to EmailTimeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.EmailTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
		return err
	}

	logger.Log.Info("Server exiting")
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openStore picks the contact store from DATABASE_URL. Without one the
// returned repository is nil and submissions are email-only.
func openStore(ctx context.Context, cfg *config.Config, checks map[string]usecase.HealthCheck) (domain.ContactRepository, io.Closer, error) {
	switch cfg.StorageDriver() {
	case config.StoragePostgres:
		pool, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		checks["database"] = pool.Ping
		return postgres.NewContactRepository(pool), closerFunc(func() error { pool.Close(); return nil }), nil

	case config.StorageSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLiteDSN())
		if err != nil {
			return nil, nil, err
		}
		checks["database"] = db.PingContext
		logger.Log.Info("Database connection established successfully", "driver", "sqlite")
		return sqlite.NewContactRepository(db), db, nil

	default:
		return nil, closerFunc(func() error { return nil }), nil
	}
}
