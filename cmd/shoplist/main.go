package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ougirez/shoplist/internal/api"
	"github.com/ougirez/shoplist/internal/pkg/analysis"
	"github.com/ougirez/shoplist/internal/pkg/cache"
	"github.com/ougirez/shoplist/internal/pkg/catalogclient"
	"github.com/ougirez/shoplist/internal/pkg/config"
	"github.com/ougirez/shoplist/internal/pkg/logger"
	"github.com/ougirez/shoplist/internal/pkg/store"
	"github.com/ougirez/shoplist/internal/pkg/store/xpgx"
	"github.com/ougirez/shoplist/internal/service/catalog"
	"github.com/ougirez/shoplist/internal/service/pricing"
	"github.com/ougirez/shoplist/internal/service/quotes"
	"github.com/ougirez/shoplist/internal/service/session"
	"github.com/ougirez/shoplist/internal/service/user"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return fmt.Errorf("logger.Init: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := xpgx.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	st := store.NewStore(pool)

	catalogCache, err := cache.New(ctx, cfg.Cache.Type, cfg.Cache.RedisAddr)
	if err != nil {
		return err
	}
	if closer, ok := catalogCache.(io.Closer); ok {
		defer closer.Close()
	}

	var catalogSource session.Catalog
	switch cfg.Catalog.Source {
	case "http":
		catalogSource = catalogclient.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.RatePerSecond)
	default:
		catalogSource = catalog.NewCatalogService(st, catalogCache, cfg.Cache.TTL)
	}
	logger.Infof(ctx, "catalog source: %s, cache: %s", cfg.Catalog.Source, cfg.Cache.Type)

	deps := session.Deps{Catalog: catalogSource, Saver: st}
	if cfg.Analysis.BaseURL != "" {
		deps.Analyzer = analysis.NewClient(cfg.Analysis.BaseURL, cfg.Analysis.Timeout)
	} else {
		logger.Warn(ctx, "analysis.base_url is empty, analysis requests will fail")
	}

	policy, err := pricing.ParseMissingQuotePolicy(cfg.Session.MissingQuotePolicy)
	if err != nil {
		return err
	}

	manager := session.NewManager(deps, session.Config{
		TopN:            cfg.Session.TopN,
		Policy:          policy,
		LocationTimeout: cfg.Session.LocationTimeout,
		QuoteBatchSize:  cfg.Catalog.QuoteBatchSize,
	}, cfg.Session.IdleTTL)

	managerDone := make(chan struct{})
	go func() {
		defer close(managerDone)
		manager.Run(ctx)
	}()

	svc, err := api.NewAPIService(cfg.Server, api.Deps{
		Sessions: manager,
		Catalog:  catalogSource,
		Quotes:   quotes.NewQuotesService(st),
		Users:    user.NewUserService(st),
	})
	if err != nil {
		return err
	}

	go svc.Serve(cfg.Server.Addr)
	logger.Infof(ctx, "listening on %s", cfg.Server.Addr)

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := svc.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Errorf(shutdownCtx, "api shutdown: %v", err)
	}
	<-managerDone

	return nil
}
