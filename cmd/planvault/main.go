package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/planvault/planvault/internal/adapter/anthropic"
	"github.com/planvault/planvault/internal/adapter/mcp"
	pvotel "github.com/planvault/planvault/internal/adapter/otel"
	"github.com/planvault/planvault/internal/adapter/postgres"
	"github.com/planvault/planvault/internal/config"
	"github.com/planvault/planvault/internal/dispatch"
	"github.com/planvault/planvault/internal/logger"
	"github.com/planvault/planvault/internal/policy"
	"github.com/planvault/planvault/internal/resilience"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	log.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"auth_enabled", cfg.Auth.Enabled,
		"extract_model", cfg.Anthropic.Model,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---

	otelShutdown, err := pvotel.Init(ctx, cfg.Otel, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(flushCtx); err != nil {
			log.Warn("otel shutdown", "error", err)
		}
	}()

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	log.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations applied")

	store := postgres.NewStore(pool)

	extract := anthropic.New(cfg.Anthropic)
	extract.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	// --- Dispatch ---

	pol := policy.New(cfg.Auth.Writers, dispatch.Tiers())
	d := dispatch.New(dispatch.NewRegistry(), pol, log)
	d.SetTimeout(cfg.Server.RequestTimeout)
	if cfg.Otel.Enabled {
		metrics, err := pvotel.NewMetrics()
		if err != nil {
			return fmt.Errorf("otel metrics: %w", err)
		}
		d.SetMetrics(metrics)
	}
	dispatch.RegisterOperations(d, dispatch.Deps{Store: store, Extractor: extract})

	// --- MCP server ---

	srv := mcp.NewServer(
		mcp.ServerConfig{
			Addr:    ":" + cfg.Server.Port,
			Name:    "planvault",
			Version: version,
		},
		mcp.ServerDeps{
			Dispatcher: d,
			Store:      store,
			Identities: mcp.NewIdentityResolver(cfg.Auth, pol),
			Logger:     log,
		},
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting server", "addr", ":"+cfg.Server.Port)
		return srv.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	return g.Wait()
}
