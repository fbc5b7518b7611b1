package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/locotown/open-scouts/internal/api"
	"github.com/locotown/open-scouts/internal/credentials"
	"github.com/locotown/open-scouts/internal/cycleguard"
	"github.com/locotown/open-scouts/internal/dispatch"
	"github.com/locotown/open-scouts/internal/dormancy"
	"github.com/locotown/open-scouts/internal/executor"
	"github.com/locotown/open-scouts/internal/middleware"
	"github.com/locotown/open-scouts/internal/notify"
	"github.com/locotown/open-scouts/internal/orchestrator"
	"github.com/locotown/open-scouts/internal/reconcile"
	"github.com/locotown/open-scouts/internal/store"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	postgresDSN := os.Getenv("POSTGRES_DSN")
	if postgresDSN == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	searchAPIURL := os.Getenv("SEARCH_API_URL")
	if searchAPIURL == "" {
		log.Fatal().Msg("SEARCH_API_URL is required")
	}
	searchAPIKey := os.Getenv("SEARCH_API_KEY")

	st, err := store.NewPostgresStore(postgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close store")
		}
	}()

	if err := st.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	var guard orchestrator.Guard
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		g, err := cycleguard.New(redisAddr, reconcile.DefaultTimeout, log.With().Str("component", "cycleguard").Logger())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect cycle guard")
		}
		defer func() {
			if err := g.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close cycle guard")
			}
		}()
		guard = g
	}

	search := executor.NewHTTPSearchClient(searchAPIURL, searchAPIKey)
	exec := executor.New(st, search, log.With().Str("component", "executor").Logger())

	var notifiers notify.Multi
	if webhookURL := os.Getenv("WEBHOOK_URL"); webhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(webhookURL, log.With().Str("component", "webhook").Logger()))
	}
	if apiKey := os.Getenv("SENDGRID_API_KEY"); apiKey != "" {
		to := os.Getenv("NOTIFY_EMAIL_TO")
		if to != "" {
			resolver := func(context.Context, string) (string, error) { return to, nil }
			notifiers = append(notifiers, notify.NewEmailNotifier(
				apiKey, os.Getenv("FROM_NAME"), os.Getenv("FROM_ADDRESS"),
				resolver, log.With().Str("component", "email").Logger()))
		}
	}
	var notifier dispatch.Notifier
	if len(notifiers) > 0 {
		notifier = notifiers
	}

	dispatcher := dispatch.NewDispatcher(st, exec, notifier, log.With().Str("component", "dispatcher").Logger())
	reconciler := reconcile.NewReconciler(st, log.With().Str("component", "reconciler").Logger())
	sweeper := dormancy.NewSweeper(st, log.With().Str("component", "dormancy").Logger())

	orch := orchestrator.New(reconciler, sweeper, dispatcher, guard, orchestrator.Config{
		StuckTimeout:      envDuration("STUCK_TIMEOUT", reconcile.DefaultTimeout, log),
		DormancyThreshold: envDays("DORMANCY_DAYS", dormancy.DefaultThreshold, log),
	}, log.With().Str("component", "orchestrator").Logger())

	var provisioner *credentials.Provisioner
	if providerURL := os.Getenv("PROVIDER_ACCOUNT_API_URL"); providerURL != "" {
		provisioner = credentials.NewProvisioner(providerURL, os.Getenv("PROVIDER_ADMIN_KEY"),
			log.With().Str("component", "credentials").Logger())
	}

	cycleCron := os.Getenv("CYCLE_CRON")
	if cycleCron == "" {
		cycleCron = "*/5 * * * *"
	}

	c := cron.New()
	_, err = c.AddFunc(cycleCron, func() {
		if _, err := orch.RunCycle(context.Background(), dispatch.Trigger{}); err != nil {
			log.Error().Err(err).Msg("scheduled cycle failed")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Str("cron", cycleCron).Msg("invalid cycle cron expression")
	}
	c.Start()
	defer c.Stop()

	apiHandler := api.NewAPI(orch, st, provisioner, log.With().Str("component", "api").Logger())

	mux := http.NewServeMux()
	mux.Handle("/api/", middleware.MetricsMiddleware(apiHandler))
	mux.Handle("/metrics", promhttp.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		log.Info().Str("port", port).Str("cycle_cron", cycleCron).Msg("orchestrator started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

func envDuration(key string, fallback time.Duration, log zerolog.Logger) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid duration, using default")
		return fallback
	}

	return d
}

func envDays(key string, fallback time.Duration, log zerolog.Logger) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid day count, using default")
		return fallback
	}

	return time.Duration(days) * 24 * time.Hour
}
