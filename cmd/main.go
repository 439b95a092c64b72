package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fleet-backoffice/internal/config"
	"fleet-backoffice/internal/handlers"
	"fleet-backoffice/internal/lockout"
	"fleet-backoffice/internal/middleware"
	"fleet-backoffice/internal/migration"
	natsclient "fleet-backoffice/internal/nats"
	"fleet-backoffice/internal/repository"
	"fleet-backoffice/internal/scheduler"
	"fleet-backoffice/internal/services"
)

func main() {
	// Load .env if present
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env file")
	}

	cfg := config.LoadConfig()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.IsProduction() {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := migration.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	if err := migration.SeedSuperAdmin(db, logger); err != nil {
		log.Fatalf("Failed to seed super admin: %v", err)
	}

	// Lockout store: Redis when configured (shared across instances),
	// in-process otherwise.
	var lockoutStore lockout.Store = lockout.NewMemoryStore()
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, perr := redis.ParseURL(cfg.Redis.URL)
		if perr != nil {
			log.Fatalf("Invalid REDIS_URL: %v", perr)
		}
		redisClient = redis.NewClient(opts)
		lockoutStore = lockout.NewRedisStore(redisClient, logger)
		logger.Info("lockout store: redis")
	} else {
		logger.Info("lockout store: in-process")
	}

	lockoutPolicy := lockout.NewPolicy(lockout.Config{
		MaxAttempts: cfg.Lockout.MaxAttempts,
		Window:      time.Duration(cfg.Lockout.WindowMinutes) * time.Minute,
		Duration:    time.Duration(cfg.Lockout.DurationMinutes) * time.Minute,
	}, lockoutStore)

	// Best-effort audit event stream
	var publisher services.EventPublisher
	var broker *natsclient.Client
	if cfg.NATS.Enabled {
		broker, err = natsclient.NewClient(natsclient.DefaultConfig(cfg.NATS.URL), logger)
		if err != nil {
			logger.WithError(err).Warn("NATS unavailable, audit events disabled")
		} else {
			publisher = natsclient.NewPublisher(broker)
			logger.Info("audit event publishing enabled")
		}
	}

	// Repositories
	authRepo := repository.NewAuthRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	fleetRepo := repository.NewFleetRepository(db)

	// Services
	passwordService := services.NewPasswordService()
	jwtService := services.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiryMinutes, cfg.JWT.RefreshExpiryHours)
	auditService := services.NewAuditService(auditRepo, publisher, logger)
	authService := services.NewAuthService(authRepo, passwordService, jwtService, lockoutPolicy, auditService, logger)
	adminService := services.NewAdminService(db, authRepo, auditService, logger)
	fleetService := services.NewFleetService(db, fleetRepo, auditService, logger)
	sharedService := services.NewSharedDataService(authRepo)

	// Retention cleanup
	cleanup := scheduler.NewCleanupScheduler(auditService, cfg.Audit.RetentionDays, cfg.Audit.CleanupHourOfDay, logger)
	if err := cleanup.Start(); err != nil {
		log.Fatalf("Failed to start cleanup scheduler: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.SetupRouter(handlers.RouterDeps{
		DB:        db,
		Logger:    logger,
		Auth:      handlers.NewAuthHandler(authService),
		Admin:     handlers.NewAdminHandler(adminService, sharedService),
		Fleet:     handlers.NewFleetHandler(fleetService, sharedService),
		Audit:     handlers.NewAuditHandler(auditService, cfg.Audit.ExportLimit),
		AuthGuard: middleware.NewAuthMiddleware(jwtService),
	})

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	cleanup.Stop()
	if broker != nil {
		broker.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("forced shutdown")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("server stopped")
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if !cfg.IsProduction() {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}
