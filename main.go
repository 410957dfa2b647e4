package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/peoplehub/hr-identity/internal/audit"
	"github.com/peoplehub/hr-identity/internal/handler"
	"github.com/peoplehub/hr-identity/internal/middleware"
	"github.com/peoplehub/hr-identity/internal/repository"
	"github.com/peoplehub/hr-identity/internal/service"
	"github.com/peoplehub/hr-identity/pkg/config"
	"github.com/peoplehub/hr-identity/pkg/database"
	"github.com/peoplehub/hr-identity/pkg/logger"
	"github.com/peoplehub/hr-identity/pkg/redisclient"
	"github.com/peoplehub/hr-identity/pkg/telemetry"
)

const serviceName = "hr-identity"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := &logger.Config{
		Level:       "info",
		ServiceName: serviceName,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting HR identity service...")

	ctx := context.Background()

	telemetryCfg := &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}
	if _, err := telemetry.Init(ctx, telemetryCfg); err != nil {
		appLog.Warn(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(ctx)

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()

	jwtSecret := cfg.JWT.Secret
	if jwtSecret == "" {
		// Validate already rejects this outside development.
		jwtSecret = "dev-only-secret-key-do-not-use-in-production"
		appLog.Warn("JWT_SECRET not set, using dev-only default (NEVER use in production)")
	}

	userRepo := repository.NewPostgresUserRepository(db.Pool())
	sessionRepo := repository.NewPostgresSessionRepository(db.Pool())
	apiKeyRepo := repository.NewPostgresAPIKeyRepository(db.Pool())

	auditor, err := audit.NewKafkaRecorder(cfg.Audit.Brokers, cfg.Audit.Topic, appLog)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Audit producer setup failed: %v", err))
	}
	var recorder audit.Recorder = audit.Nop()
	if auditor != nil {
		recorder = auditor
		defer auditor.Close(ctx)
	}

	userService := service.NewUserService(userRepo, sessionRepo, recorder, &service.UserServiceConfig{
		JWTSecret:       jwtSecret,
		AccessTokenTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTokenTTL: cfg.JWT.RefreshTokenTTL,
		BcryptCost:      bcrypt.DefaultCost,
	})
	apiKeyService := service.NewAPIKeyService(apiKeyRepo)

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware(serviceName))
	}
	router.Use(middleware.APIKeyAuth(cfg.APIKey.HeaderName, cfg.APIKey.AcceptedSet(), apiKeyService))

	healthChecks := map[string]handler.HealthChecker{"database": db}

	var loginLimiter gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		rdb, err := redisclient.New(ctx, &redisclient.Config{
			Addr:          cfg.Redis.Addr(),
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			MaxRetries:    3,
			RetryInterval: time.Second,
		})
		if err != nil {
			appLog.Fatal(fmt.Sprintf("Redis connection failed: %v", err))
		}
		defer rdb.Close()
		healthChecks["redis"] = rdb
		loginLimiter = middleware.LoginRateLimit(rdb.Client(), middleware.RateLimitConfig{
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		}, appLog)
	}

	userHandler := handler.NewUserHandler(userService, appLog)
	healthHandler := handler.NewHealthHandler(healthChecks)

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	users := router.Group("/api/v1/users")
	{
		if loginLimiter != nil {
			users.POST("/Login", loginLimiter, userHandler.Login)
		} else {
			users.POST("/Login", userHandler.Login)
		}

		authed := users.Group("")
		authed.Use(middleware.SessionAuth(userService))
		{
			authed.GET("/Session", userHandler.Session)

			admin := authed.Group("")
			admin.Use(middleware.AdminOnly())
			{
				admin.GET("/:userId/Session", userHandler.GetUserSessions)
				admin.GET("/:userId/Details", userHandler.GetUserDetails)
				admin.POST("/:userId/Role", userHandler.SetUserRole)
			}
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		appLog.Info(fmt.Sprintf("HR identity service listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
