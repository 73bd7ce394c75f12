package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/emr-assistant/internal/config"
	"github.com/jwalitptl/emr-assistant/internal/handler"
	advicehandler "github.com/jwalitptl/emr-assistant/internal/handler/advice"
	chathandler "github.com/jwalitptl/emr-assistant/internal/handler/chat"
	recordhandler "github.com/jwalitptl/emr-assistant/internal/handler/record"
	"github.com/jwalitptl/emr-assistant/internal/knowledge"
	"github.com/jwalitptl/emr-assistant/internal/llm"
	"github.com/jwalitptl/emr-assistant/internal/middleware"
	"github.com/jwalitptl/emr-assistant/internal/repository"
	"github.com/jwalitptl/emr-assistant/internal/repository/memory"
	"github.com/jwalitptl/emr-assistant/internal/repository/postgres"
	"github.com/jwalitptl/emr-assistant/internal/repository/session"
	"github.com/jwalitptl/emr-assistant/internal/router"
	"github.com/jwalitptl/emr-assistant/internal/service/advice"
	"github.com/jwalitptl/emr-assistant/internal/service/chat"
	"github.com/jwalitptl/emr-assistant/internal/service/emr"
	"github.com/jwalitptl/emr-assistant/internal/service/query"
	"github.com/jwalitptl/emr-assistant/pkg/circuitbreaker"
	"github.com/jwalitptl/emr-assistant/pkg/logger"
	"github.com/jwalitptl/emr-assistant/pkg/messaging"
	"github.com/jwalitptl/emr-assistant/pkg/messaging/redis"
	"github.com/jwalitptl/emr-assistant/pkg/metrics"
)

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

	if cfg.LLM.APIKey == "" {
		l.Warn("OPENROUTER_API_KEY is not set; unmatched questions will get the apology reply")
	}

	if err := middleware.RegisterValidators(); err != nil {
		l.Fatal(err, "failed to register validators")
	}

	ctx := context.Background()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("emr_assistant")
	if err := m.Register(reg); err != nil {
		l.Fatal(err, "failed to register metrics")
	}

	// Record store
	var records repository.RecordRepository
	switch cfg.Store.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			l.Fatal(err, "failed to connect to database")
		}
		defer db.Close()
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(db); err != nil {
				l.Fatal(err, "failed to run migrations")
			}
		}
		records = postgres.NewRecordRepository(db)
	default:
		records = memory.NewSeededStore()
	}

	// Redis is shared by the session store and the event publisher.
	var redisClient *goredis.Client
	if cfg.Session.Driver == "redis" || cfg.Redis.PublishEvents {
		redisClient, err = redis.NewClient(ctx, redis.Config{URL: cfg.Redis.URL})
		if err != nil {
			l.Fatal(err, "failed to connect to Redis")
		}
		defer redisClient.Close()
	}

	var sessions repository.SessionRepository
	if cfg.Session.Driver == "redis" {
		sessions = session.NewRedisStore(redisClient, cfg.Session.TTL)
	} else {
		sessions = session.NewMemoryStore(cfg.Session.TTL)
	}

	var publisher messaging.Publisher = messaging.NopPublisher{}
	if cfg.Redis.PublishEvents {
		broker := redis.NewRedisBroker(redisClient, l.With("broker").Zerolog())
		publisher = messaging.NewChannelPublisher(broker, cfg.Redis.EventChannel)
	}

	entries, err := knowledge.Load(cfg.Knowledge.Path)
	if err != nil {
		l.Fatal(err, "failed to load knowledge base")
	}
	retriever := advice.NewRetriever(entries)

	llmLogger := l.With("llm")
	llmClient := llm.NewBreakerClient(
		llm.NewOpenRouterClient(llm.OpenRouterConfig{
			APIKey:   cfg.LLM.APIKey,
			Endpoint: cfg.LLM.Endpoint,
			Model:    cfg.LLM.Model,
			Referer:  cfg.LLM.Referer,
			Title:    cfg.LLM.Title,
			Timeout:  cfg.LLM.Timeout,
		}),
		circuitbreaker.Settings{
			Name:        "openrouter",
			MaxFailures: cfg.LLM.Breaker.MaxFailures,
			Interval:    cfg.LLM.Breaker.Interval,
			Timeout:     cfg.LLM.Breaker.OpenTimeout,
			OnStateChange: func(name, from, to string) {
				llmLogger.Warn("circuit breaker state changed", "breaker", name, "from", from, "to", to)
			},
		},
	)

	loc, err := cfg.Assistant.Location()
	if err != nil {
		l.Fatal(err, "invalid timezone")
	}

	emrSvc := emr.NewService(records, publisher, m, l)
	queryRouter := query.NewRouter(emrSvc, query.Options{
		UserID:   cfg.Assistant.DemoUserID,
		Location: loc,
	})
	chatSvc := chat.NewService(queryRouter, retriever, llmClient, sessions, m, l, cfg.Assistant.DemoUserID)

	deps := map[string]handler.Pinger{"store": emrSvc}
	if redisClient != nil {
		deps["redis"] = redisPinger{redisClient}
	}

	r, err := router.NewRouter(
		handler.NewHandler(reg, deps),
		[]router.Handler{
			chathandler.NewHandler(chatSvc, queryRouter),
			advicehandler.NewHandler(retriever),
			recordhandler.NewHandler(emrSvc),
		},
		router.RouterConfig{
			Mode:             cfg.Server.Mode,
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			CORSConfig:       corsConfig(cfg.CORS),
			SizeLimit: middleware.SizeLimitConfig{
				MaxBodySize:   cfg.Server.MaxBodyBytes,
				MaxHeaderSize: middleware.DefaultSizeLimitConfig().MaxHeaderSize,
			},
			MetricsPrefix: "emr_assistant_http",
			Registerer:    reg,
		},
	)
	if err != nil {
		l.Fatal(err, "failed to build router")
	}
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		l.Info("starting server", "port", cfg.Server.Port, "store", cfg.Store.Driver, "sessions", cfg.Session.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error(err, "server forced to shutdown")
		return
	}

	l.Info("server exited properly")
}

func corsConfig(c config.CORSConfig) middleware.CORSConfig {
	cc := middleware.DefaultCORSConfig()
	if len(c.AllowedOrigins) > 0 {
		cc.AllowOrigins = c.AllowedOrigins
	}
	return cc
}

type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
