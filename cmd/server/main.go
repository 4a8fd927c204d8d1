// Command server runs the prior authorization intake API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"priorauth/internal/intake/audit"
	"priorauth/internal/intake/handler"
	"priorauth/internal/intake/idgen"
	"priorauth/internal/intake/metrics"
	"priorauth/internal/intake/service"
	"priorauth/internal/intake/store"
	"priorauth/internal/intake/tracer"
	"priorauth/internal/platform/config"
	"priorauth/internal/platform/database"
	"priorauth/internal/platform/health"
	"priorauth/internal/platform/httpserver"
	"priorauth/internal/platform/logger"
	"priorauth/internal/platform/tracing"
	httptransport "priorauth/internal/transport/http"
	"priorauth/migrations"
)

func main() {
	log := logger.New()
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		Headers:     cfg.OTLPHeaders,
	}, log)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	var (
		requestStore store.Store
		auditStore   audit.Store
		seq          idgen.Sequence
	)
	if pool != nil {
		if err := applyMigrations(ctx, pool, log); err != nil {
			return err
		}
		requestStore = store.NewPostgres(pool.DB())
		auditStore = audit.NewPostgres(pool.DB())
		seq = idgen.NewPostgresSequence(pool.DB())
		log.Info("using postgres stores")
	} else {
		requestStore = store.NewInMemory()
		auditStore = audit.NewInMemoryStore()
		seq = idgen.NewMemorySequence(0)
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	m := metrics.New()
	recorder := audit.NewRecorder(auditStore, log, audit.WithMetrics(m))
	defer recorder.Close()

	svc := service.New(requestStore, recorder, idgen.New(seq),
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithTracer(tracer.NewOTel()),
		service.WithVIPPath(cfg.VIPMemberID, cfg.VIPDelay),
		service.WithSimulatedTimeout(cfg.SimulatedTimeout),
	)

	healthHandler := health.New(cfg.Environment)
	if pool != nil {
		healthHandler.RegisterCheck("database", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(pingCtx)
		})
	}

	router := httptransport.NewRouter(handler.New(svc, log), healthHandler, log)
	server := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// applyMigrations executes the embedded migration files in name order. The
// files are idempotent, so replaying them on every start is safe.
func applyMigrations(ctx context.Context, pool *database.Pool, log *slog.Logger) error {
	names, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(names)
	for _, name := range names {
		content, err := migrations.FS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := pool.DB().ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		log.Info("applied migration", "name", name)
	}
	return nil
}
