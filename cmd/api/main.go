package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotbook/internal/api"
	"slotbook/internal/config"
	"slotbook/internal/database"
	"slotbook/internal/domain"
	"slotbook/internal/events"
	"slotbook/internal/logging"
	"slotbook/internal/metrics"
	"slotbook/internal/repository"
	"slotbook/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	limiter, err := initRateLimiter(cfg, redisClient, &logger)
	if err != nil {
		return err
	}

	eventBus := events.NewEventBus()
	events.RegisterMetrics(eventBus)
	events.RegisterAuditLog(eventBus, logging.Component(&logger, "events"))

	loc := cfg.App.Location()
	serviceLogger := logging.Component(&logger, "service")
	services := api.Services{
		Members:       service.NewMemberService(db, serviceLogger),
		Bookings:      service.NewBookingService(db, eventBus, cfg.Booking, loc, serviceLogger),
		Comments:      service.NewCommentService(db, eventBus, serviceLogger),
		Activity:      service.NewActivityService(db, cfg.Booking, serviceLogger),
		Participation: service.NewParticipationService(db, cfg.Booking, loc, serviceLogger),
	}

	if err := services.Members.SeedMembers(ctx, cfg.Members); err != nil {
		logger.Error().Err(err).Msg("seed members")
		return err
	}

	httpServer := api.NewHTTPServer(cfg.API, services, db, limiter, logging.Component(&logger, "http"))

	if db.Driver() == config.DriverSQLite {
		backups := database.NewBackupService(db, cfg.Backup, logging.Component(&logger, "backup"))
		go backups.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database, cfg.Booking.DailyCapacity, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return nil, err
	}
	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// initRateLimiter returns nil when rate limiting is disabled. The redis
// backend falls back to process memory while redis is unreachable.
func initRateLimiter(cfg *config.Config, client *redis.Client, logger *zerolog.Logger) (domain.RateLimiter, error) {
	rl := cfg.API.RateLimit
	if !rl.Enabled {
		return nil, nil
	}

	window, err := time.ParseDuration(rl.Window)
	if err != nil {
		return nil, fmt.Errorf("parse rate limit window: %w", err)
	}

	memory := repository.NewMemoryRateLimiter(rl.Requests, window)
	if rl.Backend != "redis" {
		return memory, nil
	}
	if client == nil {
		logger.Warn().Msg("redis rate limiter requested but redis is unavailable, using memory")
		return memory, nil
	}

	primary := repository.NewRedisRateLimiter(client, rl.Requests, window)
	return repository.NewFailoverRateLimiter(primary, memory, logging.Component(logger, "ratelimit")), nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
