package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/emr-assistant/internal/config"
	"github.com/jwalitptl/emr-assistant/internal/notification"
	"github.com/jwalitptl/emr-assistant/pkg/logger"
	"github.com/jwalitptl/emr-assistant/pkg/messaging"
	"github.com/jwalitptl/emr-assistant/pkg/messaging/redis"
	"github.com/jwalitptl/emr-assistant/pkg/metrics"
)

const healthAddr = ":8081"

func setupHealthCheck(l *logger.Logger, reg *prometheus.Registry, ready func(context.Context) error) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := ready(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: healthAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error(err, "health check server failed")
		}
	}()
	return srv
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("failed to load .env")
	}

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	l := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
	})
	logger.SetGlobal(l)
	l = l.With("worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	m := metrics.New("emr_worker")
	if err := m.Register(reg); err != nil {
		l.Fatal(err, "failed to register metrics")
	}

	client, err := redis.NewClient(ctx, redis.Config{URL: cfg.Redis.URL})
	if err != nil {
		l.Fatal(err, "failed to connect to Redis")
	}
	broker := redis.NewRedisBroker(client, l.Zerolog())
	defer broker.Close()

	n := cfg.Notification
	notifier := notification.NewNotifier(
		notification.NewDialer(n.SMTPHost, n.SMTPPort, n.SMTPUser, n.Password),
		notification.Config{
			From:          n.From,
			To:            n.To,
			RetryAttempts: n.RetryAttempts,
			RetryDelay:    n.RetryDelay,
		},
		m,
		l,
	)

	health := setupHealthCheck(l, reg, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		l.Info("shutting down...")
		cancel()
	}()

	l.Info("worker started", "channel", cfg.Redis.EventChannel, "health", fmt.Sprintf("http://localhost%s", healthAddr))
	if err := messaging.Consume(ctx, broker, cfg.Redis.EventChannel, notifier.Handle, l.Zerolog()); err != nil {
		l.Error(err, "consumer stopped")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := health.Shutdown(shutdownCtx); err != nil {
		l.Error(err, "health server forced to shutdown")
	}
	l.Info("worker exited")
}
