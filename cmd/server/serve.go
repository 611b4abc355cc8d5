package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	jwttoken "marathon/internal/jwt_token"
	"marathon/internal/platform/config"
	"marathon/internal/platform/httpserver"
	"marathon/internal/platform/kafka"
	"marathon/internal/platform/logger"
	"marathon/internal/platform/metrics"
	"marathon/internal/platform/postgres"
	"marathon/internal/platform/redis"
	"marathon/internal/platform/tracing"
	"marathon/internal/registration/bib"
	"marathon/internal/registration/callbacks"
	"marathon/internal/registration/events"
	"marathon/internal/registration/handler"
	regmetrics "marathon/internal/registration/metrics"
	"marathon/internal/registration/ports"
	"marathon/internal/registration/seed"
	"marathon/internal/registration/service"
	"marathon/internal/registration/store"
	"marathon/pkg/platform/circuit"
	"marathon/pkg/platform/httputil"
	"marathon/pkg/platform/middleware/metadata"
	request "marathon/pkg/platform/middleware/request"
	"marathon/pkg/platform/middleware/requesttime"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(envFile, configFile)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	regMetrics := regmetrics.New()

	primary, closeDB, err := openPrimary(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	fallback := store.NewInMemoryStore()
	if err := seedFallback(ctx, cfg.Fallback.SeedFile, fallback, log); err != nil {
		return err
	}

	selectorOpts := []store.SelectorOption{
		store.WithBreaker(circuit.New("durable-store",
			circuit.WithFailureThreshold(cfg.Fallback.FailureThreshold),
			circuit.WithSuccessThreshold(cfg.Fallback.SuccessThreshold),
		)),
		store.WithProbeInterval(cfg.Fallback.ProbeInterval),
		store.WithPrimaryTimeout(cfg.Fallback.PrimaryTimeout),
		store.WithLogger(log),
		store.WithMetrics(regMetrics),
	}
	var selector *store.Selector
	if primary != nil {
		selector = store.NewSelector(primary, fallback, selectorOpts...)
		if err := selector.SyncFallback(ctx); err != nil {
			log.Warn("initial fallback sync failed", "error", err)
		}
	} else {
		log.Warn("database.url not set, serving from the in-memory store only")
		selector = store.NewSelector(nil, fallback, selectorOpts...)
	}

	ledger, closeRedis := buildLedger(ctx, cfg, log)
	defer closeRedis()

	publisher, closeKafka, err := buildPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeKafka()

	svc := service.New(selector,
		service.WithBibGenerator(bib.New(
			bib.WithPrefix(cfg.Admission.BibPrefix),
			bib.WithFallbackPrefix(cfg.Admission.FallbackPrefix),
		)),
		service.WithPublisher(publisher),
		service.WithCallbackLedger(ledger),
		service.WithMetrics(regMetrics),
		service.WithLogger(log),
		service.WithTracer(tp.Tracer()),
		service.WithTxTimeout(cfg.Admission.TxTimeout),
		service.WithRetry(cfg.Admission.MaxAttempts, cfg.Admission.InitialBackoff, cfg.Admission.MaxBackoff),
	)

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	h := handler.New(svc, log, jwttoken.NewJWTServiceAdapter(jwtService),
		handler.WithWebhookSecret(cfg.Payments.WebhookSecret),
	)

	router := newRouter(cfg, log, h, selector)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Server.Addr, "store_mode", storeMode(selector))
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout)
	})
	g.Go(func() error {
		return selector.Run(gctx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}

// openPrimary connects the durable store. A nil store means none is
// configured; a database that is down at boot still yields a store so the
// health check can bring it into service later.
func openPrimary(ctx context.Context, cfg *config.Config, log *slog.Logger) (*store.PostgresStore, func(), error) {
	if cfg.Database.URL == "" {
		return nil, func() {}, nil
	}
	db, err := postgres.Open(ctx, cfg.Database)
	if db == nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Warn("closing database", "error", err)
		}
	}
	if err != nil {
		log.Warn("database unreachable at startup, starting on fallback", "error", err)
	} else if cfg.Database.MigrateOnStart {
		if err := postgres.MigrateUp(db); err != nil {
			closeDB()
			return nil, nil, err
		}
		log.Info("migrations applied")
	}
	return store.NewPostgres(db, store.WithLockTimeout(cfg.Database.LockTimeout)), closeDB, nil
}

func seedFallback(ctx context.Context, path string, fallback seed.RaceUpserter, log *slog.Logger) error {
	if path == "" {
		return nil
	}
	races, err := seed.LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("seed file not found, fallback starts empty", "path", path)
			return nil
		}
		return err
	}
	if err := seed.Apply(ctx, fallback, races); err != nil {
		return err
	}
	log.Info("fallback seeded", "path", path, "races", len(races))
	return nil
}

func buildLedger(ctx context.Context, cfg *config.Config, log *slog.Logger) (ports.CallbackLedger, func()) {
	local := callbacks.NewMemoryLedger(cfg.Payments.DedupeTTL)
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, callback ledger is process-local", "error", err)
	}
	if client == nil {
		return callbacks.NewFallbackLedger(nil, local, log), func() {}
	}
	closeRedis := func() {
		if err := client.Close(); err != nil {
			log.Warn("closing redis", "error", err)
		}
	}
	return callbacks.NewFallbackLedger(callbacks.NewRedisLedger(client, cfg.Payments.DedupeTTL), local, log), closeRedis
}

func buildPublisher(ctx context.Context, cfg *config.Config, log *slog.Logger) (ports.EventPublisher, func(), error) {
	client, err := kafka.NewClient(cfg.Kafka)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return events.NewLogPublisher(log), func() {}, nil
	}
	if err := kafka.EnsureTopic(ctx, client, cfg.Kafka); err != nil {
		log.Warn("could not ensure event topic", "topic", cfg.Kafka.Topic, "error", err)
	}
	return events.NewKafkaPublisher(client, cfg.Kafka.Topic), client.Close, nil
}

func newRouter(cfg *config.Config, log *slog.Logger, h *handler.Handler, selector *store.Selector) http.Handler {
	httpMetrics := metrics.New()

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))
	r.Use(request.Timeout(cfg.Server.RequestTimeout))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(httpMetrics.Latency)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"status":     "ok",
			"store_mode": storeMode(selector),
		})
	})
	r.Handle("/metrics", metrics.Handler())

	h.Register(r)
	return r
}

func storeMode(selector *store.Selector) string {
	if selector.FallbackActive() {
		return string(ports.ModeFallback)
	}
	return string(ports.ModeDurable)
}
