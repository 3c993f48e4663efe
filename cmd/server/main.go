package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/crashlink/companion-server/internal/config"
	"github.com/crashlink/companion-server/internal/database"
	"github.com/crashlink/companion-server/internal/handler"
	"github.com/crashlink/companion-server/internal/jobs"
	"github.com/crashlink/companion-server/internal/middleware"
	"github.com/crashlink/companion-server/internal/notify"
	"github.com/crashlink/companion-server/internal/redis"
	"github.com/crashlink/companion-server/internal/repository"
	"github.com/crashlink/companion-server/internal/service"
	"github.com/crashlink/companion-server/internal/sse"
	"github.com/crashlink/companion-server/migrations"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	ctx, cancel = context.WithTimeout(context.Background(), config.DBMigrateTimeout)
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	cancel()

	ctx, cancel = context.WithTimeout(context.Background(), config.DBPingTimeout)
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	var sender notify.Sender = notify.NewLogSender()
	if cfg.PushEnabled() {
		firebaseSender, err := notify.NewFirebaseSender(context.Background(), cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize firebase messaging")
		}
		sender = firebaseSender
		log.Info().Msg("firebase messaging enabled")
	}

	userRepo := repository.NewUserRepository(db.DB)
	pairingCodeRepo := repository.NewPairingCodeRepository(db.DB)
	connRepo := repository.NewConnectionRepository(db.DB)
	usageRepo := repository.NewUsageRepository(db.DB)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	pairingService := service.NewPairingService(pairingCodeRepo, userRepo, connRepo, broker, cfg.PairingCodeTTL())
	deviceService := service.NewDeviceService(connRepo, broker)
	usageService := service.NewUsageService(pairingCodeRepo, usageRepo)
	userService := service.NewUserService(userRepo)
	notificationService := service.NewNotificationService(userRepo, connRepo, sender, cfg.NotifyTimeout())

	rateLimiter := service.NewRateLimiter(redisClient.Client)
	codeRateLimit := middleware.NewIPRateLimitMiddleware(
		rateLimiter, cfg.ValidateRateLimitPerMin, config.ValidateRateLimitWindow, "pairing",
	)

	r := handler.NewRouter(handler.Handlers{
		Pairing:      handler.NewPairingHandler(pairingService),
		Device:       handler.NewDeviceHandler(deviceService),
		Usage:        handler.NewUsageHandler(usageService),
		User:         handler.NewUserHandler(userService),
		Notification: handler.NewNotificationHandler(notificationService),
		Events:       handler.NewEventsHandler(broker),
		Health:       handler.NewHealthHandler(db, config.DBPingTimeout),
	}, handler.RouterOptions{
		RequestTimeout: config.ServerRequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Production:     cfg.IsProduction(),
		Throttle:       codeRateLimit.Handler,
	})

	cleanupJob := jobs.NewCleanupJob(pairingCodeRepo, cfg.CodeRetention(), config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	// Open event streams only end when their clients leave; close them first.
	broker.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	notificationService.Wait()

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
