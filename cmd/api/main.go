// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ltl-studio/backend/internal/admin"
	"github.com/ltl-studio/backend/internal/booking"
	"github.com/ltl-studio/backend/internal/chat"
	"github.com/ltl-studio/backend/internal/config"
	"github.com/ltl-studio/backend/internal/core"
	"github.com/ltl-studio/backend/internal/health"
	"github.com/ltl-studio/backend/internal/middleware"
	"github.com/ltl-studio/backend/internal/payment"
	"github.com/ltl-studio/backend/internal/project"
	"github.com/ltl-studio/backend/internal/server"
	"github.com/ltl-studio/backend/internal/storage"
	"github.com/ltl-studio/backend/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("database schema applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	blobs, err := storage.NewMinioStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	logger.Info("object storage ready",
		"endpoint", cfg.Storage.Endpoint,
		"bucket", cfg.Storage.Bucket,
	)

	payments := payment.NewStripeGateway(cfg.Payment)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, logger, cfg.App.ClientURL)
	userHandler := user.NewHandler(userSvc)

	bookingRepo := booking.NewRepository(db.DB)
	bookingSvc := booking.NewService(
		bookingRepo,
		userSvc,
		payments,
		cfg.Payment,
		cfg.Booking,
		logger,
	)
	bookingHandler := booking.NewHandler(bookingSvc)

	projectRepo := project.NewRepository(db.DB)
	projectSvc := project.NewService(projectRepo, blobs, logger)
	projectHandler := project.NewHandler(projectSvc, cfg.Storage.MaxUploadBytes)

	healthDeps := []health.Dependency{
		{Name: "redis", Checker: redis},
		{Name: "storage", Checker: blobs},
	}

	hub := chat.NewHub(logger)
	var publisher chat.Publisher = hub
	if cfg.Chat.Fanout == config.FanoutRedis {
		relay := chat.NewRedisRelay(redis, cfg.Chat.RedisChannel, hub, logger)
		publisher = relay
		healthDeps = append(healthDeps, health.Dependency{Name: "chat_relay", Checker: relay})
		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.Error("chat relay stopped", "error", err)
			}
		}()
	}
	logger.Info("chat fan-out configured", "mode", cfg.Chat.Fanout)

	chatRepo := chat.NewRepository(db.DB)
	chatSvc := chat.NewService(chatRepo, hub, publisher, logger)
	chatHandler := chat.NewHandler(chatSvc)
	socketHandler := chat.NewSocketHandler(chatSvc, cfg.Chat, logger)

	healthHandler := health.NewHandler(db, healthDeps...)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Bookings:        bookingSvc,
		Users:           userSvc,
		ChatSubscribers: hub.SubscriberCount,
		ChatTopics:      hub.TopicCount,
		DBStats:         db.Stats,
		RedisStats:      redis.PoolStats,
		DBPing:          db.Ping,
		RedisPing:       redis.Ping,
		Logger:          logger,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(chimw.Recoverer)
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			KeyFunc:  middleware.KeyByIPAndEndpoint,
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Handle("/ws", socketHandler)

	router.Route("/api", func(r chi.Router) {
		healthHandler.RegisterAPIRoutes(r)
		userHandler.RegisterRoutes(r)
		bookingHandler.RegisterRoutes(r)
		projectHandler.RegisterRoutes(r)
		chatHandler.RegisterRoutes(r)
		adminHandler.RegisterRoutes(r)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	hub.CloseAll()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
