package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"

	"registrar/internal/backend"
	"registrar/internal/lookup"
	lookuphandler "registrar/internal/lookup/handler"
	lookupmetrics "registrar/internal/lookup/metrics"
	"registrar/internal/platform/config"
	"registrar/internal/platform/httpserver"
	"registrar/internal/platform/logger"
	"registrar/internal/platform/metrics"
	"registrar/internal/platform/postgres"
	"registrar/internal/platform/redis"
	"registrar/internal/registration/derive"
	registrationhandler "registrar/internal/registration/handler"
	"registrar/internal/registration/journal"
	journalmem "registrar/internal/registration/journal/store/memory"
	journalpg "registrar/internal/registration/journal/store/postgres"
	"registrar/internal/registration/pipeline"
	pipelinemetrics "registrar/internal/registration/pipeline/metrics"
	"registrar/internal/registration/service"
	"registrar/pkg/domain"
	"registrar/pkg/platform/audit"
	"registrar/pkg/platform/audit/publisher"
	kafkaaudit "registrar/pkg/platform/audit/publishers/kafka"
	auditmem "registrar/pkg/platform/audit/store/memory"
	"registrar/pkg/platform/middleware/metadata"
	"registrar/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := connect(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect infrastructure", "error", err)
		os.Exit(1)
	}
	defer infra.close()

	httpMetrics := metrics.New()
	client := backend.New(cfg.Backend.URL, cfg.Backend.Timeout,
		backend.WithLogger(log),
		backend.WithMetrics(httpMetrics),
		backend.WithLookupPath(cfg.Backend.LookupPathTemplate),
		backend.WithServiceToken(cfg.Backend.ServiceToken),
		backend.WithLookupRetries(cfg.Backend.LookupRetries),
	)

	cacheOpts := []lookup.Option{
		lookup.WithTTL(cfg.Lookup.TTL),
		lookup.WithLogger(log),
		lookup.WithMetrics(lookupmetrics.New()),
	}
	if infra.redis != nil {
		cacheOpts = append(cacheOpts, lookup.WithSharedStore(lookup.NewRedisStore(infra.redis.Client, cfg.Lookup.TTL)))
	}
	cache := lookup.New(client, cacheOpts...)

	pipe := pipeline.New(client,
		pipeline.WithLogger(log),
		pipeline.WithMetrics(pipelinemetrics.New()),
		pipeline.WithFanoutLimit(cfg.Pipeline.FanoutLimit),
		pipeline.WithCallTimeout(cfg.Backend.Timeout),
		pipeline.WithObserver(func(ctx context.Context, id domain.AttemptID, from, to pipeline.State) {
			log.DebugContext(ctx, "registration state", "attempt_id", id.String(), "from", string(from), "to", string(to))
		}),
	)

	auditor := publisher.NewPublisher(infra.auditStore, publisher.WithAsyncBuffer(1024), publisher.WithLogger(log))
	defer auditor.Close()

	svc := service.New(pipe, infra.journal,
		service.WithLogger(log),
		service.WithAuditor(auditor),
		service.WithRecorder(journal.NewRecorder(journal.WithRegulatedMode(cfg.Server.RegulatedMode))),
	)

	r := chi.NewRouter()
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Get("/healthz", infra.health)
	r.Handle("/metrics", promhttp.Handler())
	lookuphandler.New(cache, log, httpMetrics).Register(r)
	registrationhandler.New(svc, derive.NewLabeler(cache), log, httpMetrics).Register(r)

	srv := httpserver.New(cfg.Server, r)
	log.Info("starting registrar", "addr", cfg.Server.Addr, "backend", cfg.Backend.URL, "regulated_mode", cfg.Server.RegulatedMode)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// infrastructure holds the optional backing services. Each falls back to an
// in-process implementation when it is not configured.
type infrastructure struct {
	redis      *redis.Client
	db         *sql.DB
	kafka      *kgo.Client
	journal    journal.Store
	auditStore audit.Store
}

func connect(ctx context.Context, cfg config.Config, log *slog.Logger) (*infrastructure, error) {
	infra := &infrastructure{}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	infra.redis = rc

	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		infra.close()
		return nil, err
	}
	if db != nil {
		infra.db = db
		store := journalpg.New(db)
		if err := store.EnsureSchema(ctx); err != nil {
			infra.close()
			return nil, err
		}
		infra.journal = store
	} else {
		log.Warn("DATABASE_URL not set; journal kept in memory")
		infra.journal = journalmem.New()
	}

	if len(cfg.Kafka.Brokers) > 0 {
		client, err := kafkaaudit.NewClient(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			infra.close()
			return nil, err
		}
		infra.kafka = client
		if err := kafkaaudit.EnsureTopic(ctx, client, cfg.Kafka.AuditTopic, 3, 1); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
		infra.auditStore = kafkaaudit.NewStore(client, cfg.Kafka.AuditTopic)
	} else {
		infra.auditStore = auditmem.NewInMemoryStore()
	}
	return infra, nil
}

func (i *infrastructure) health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := `{"status":"ok"}`
	if i.redis != nil {
		if err := i.redis.Health(r.Context()); err != nil {
			status, body = http.StatusServiceUnavailable, `{"status":"degraded","redis":"unreachable"}`
		}
	}
	if i.db != nil && status == http.StatusOK {
		if err := i.db.PingContext(r.Context()); err != nil {
			status, body = http.StatusServiceUnavailable, `{"status":"degraded","database":"unreachable"}`
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (i *infrastructure) close() {
	if i.kafka != nil {
		i.kafka.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
}
