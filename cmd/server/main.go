package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dutyroster/internal/api"
	"dutyroster/internal/config"
	"dutyroster/internal/events"
	"dutyroster/internal/google"
	"dutyroster/internal/metrics"
	"dutyroster/internal/notify"
	"dutyroster/internal/schedule"
	"dutyroster/internal/storage"
)

func main() {
	// Optional .env for local development; env vars feed the ${VAR}
	// placeholders in the YAML config.
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("ROSTER_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	store, cleanup, err := buildStore(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	svc := schedule.New(store, bus, &logger)
	svc.Init(ctx)

	notifier, err := notify.New(cfg.Telegram, svc, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init telegram notifier")
	}
	notifier.AttachTo(bus)
	notifier.StartReminders(ctx)

	sheetsSvc, err := google.New(ctx, cfg.Sheets, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init sheets sync")
	}
	if sheetsSvc != nil {
		bus.Subscribe(events.ScheduleSaved, func(events.Event) {
			syncCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := sheetsSvc.SyncSchedule(syncCtx, svc.CurrentSchedule()); err != nil {
				logger.Error().Err(err).Msg("sheets sync failed")
			}
		})
	}

	if cfg.Backup.Enabled {
		backup := storage.NewBackupService(store, cfg.Backup, &logger)
		go backup.Start(ctx)
	}

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, store, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	server := api.NewHTTPServer(svc, &logger, cfg.Server)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("API server stopped")
			stop()
		}
	}()

	logger.Info().Msg("duty roster service started")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("API server shutdown failed")
	}
	logger.Info().Msg("duty roster service stopped")
}

// buildStore assembles the configured backend, layering Redis as the
// fast primary over the durable local store when enabled.
func buildStore(cfg *config.Config, logger *zerolog.Logger) (storage.Store, func(), error) {
	var base storage.Store
	switch cfg.Storage.Backend {
	case "memory":
		base = storage.NewMemoryStore()
	default:
		sqlite, err := storage.NewSQLiteStore(cfg.Storage.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		base = sqlite
	}

	if !cfg.Storage.Redis.Enabled {
		return base, func() { _ = base.Close() }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Storage.Redis.Address,
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	})
	primary := storage.NewRedisStore(client)
	failover := storage.NewFailoverStore(primary, base, 30*time.Second, logger)

	cleanup := func() {
		_ = primary.Close()
		_ = base.Close()
	}
	return failover, cleanup, nil
}

func startHealthServer(ctx context.Context, port int, store storage.Store, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("storage unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	runServer(ctx, fmt.Sprintf(":%d", port), mux, "health", logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	runServer(ctx, fmt.Sprintf(":%d", port), mux, "metrics", logger)
}

func runServer(ctx context.Context, addr string, handler http.Handler, name string, logger *zerolog.Logger) {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msgf("%s server starting", name)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msgf("%s server stopped", name)
	}
}
