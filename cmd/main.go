package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stackfolio/stackfolio_service/internal/domain/catalog"
	"github.com/stackfolio/stackfolio_service/internal/domain/services/consolidation"
	"github.com/stackfolio/stackfolio_service/internal/domain/services/oracle"
	"github.com/stackfolio/stackfolio_service/internal/domain/services/plan"
	"github.com/stackfolio/stackfolio_service/internal/domain/services/reconciliation"
	"github.com/stackfolio/stackfolio_service/internal/infrastructure/adapters/chain"
	"github.com/stackfolio/stackfolio_service/internal/infrastructure/cache"
	"github.com/stackfolio/stackfolio_service/internal/infrastructure/config"
	"github.com/stackfolio/stackfolio_service/internal/infrastructure/kvstore"
	"github.com/stackfolio/stackfolio_service/internal/infrastructure/repositories"
	"github.com/stackfolio/stackfolio_service/internal/workers/accrual"
	"github.com/stackfolio/stackfolio_service/pkg/logger"
	"github.com/stackfolio/stackfolio_service/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Service failed", "error", err)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	// Durable store
	var store kvstore.Store
	if cfg.Database.InMemory {
		store = kvstore.NewMemory()
		log.Info("Using in-memory durable store")
	} else {
		if err := kvstore.RunMigrations(cfg.Database.URL); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		pg, err := kvstore.NewPostgres(cfg.Database)
		if err != nil {
			return fmt.Errorf("connect durable store: %w", err)
		}
		store = pg
		log.Info("Connected to postgres durable store")
	}
	defer store.Close()

	m := metrics.New("stackfolio", prometheus.DefaultRegisterer)

	// Repositories and core services
	ledgerRepo := repositories.NewLedgerRepository(store, nil)
	planRepo := repositories.NewPlanRepository(store)
	cat := catalog.Default()

	engine := plan.NewService(cat, ledgerRepo, planRepo, nil, nil, log, m)

	// Repair any crash gap between ledger append and projection write
	recon := reconciliation.NewService(ledgerRepo, planRepo, cat, log)
	startupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := recon.RebuildAll(startupCtx); err != nil {
		cancel()
		return fmt.Errorf("startup reconciliation: %w", err)
	}
	cancel()

	// Oracle cache
	var oracleCache cache.Cache
	if cfg.Redis.Disabled {
		oracleCache = cache.NewMemory()
		log.Info("Using in-memory oracle cache")
	} else {
		rc, err := cache.NewRedis(&cfg.Redis, log.Zap())
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		oracleCache = rc
	}
	defer oracleCache.Close()

	// Balance oracle
	chainClient := chain.NewClient(chain.Config{
		BaseURL:            cfg.Chain.RPCURL,
		SecondaryTokenHash: cfg.Chain.SecondaryTokenHash,
		Timeout:            time.Duration(cfg.Chain.TimeoutSeconds) * time.Second,
		RequestsPerSecond:  cfg.Chain.RequestsPerSecond,
	}, log.Zap())

	resolver := oracle.NewResolver(oracle.DefaultFixtureSets(
		cfg.Oracle.LegacyIdentities, cfg.Oracle.PresetIdentities))
	balanceOracle := oracle.NewService(resolver, chainClient, oracleCache, oracle.Config{
		CacheTTL:       time.Duration(cfg.Oracle.CacheTTLSeconds) * time.Second,
		RequestTimeout: time.Duration(cfg.Oracle.RequestTimeoutSeconds) * time.Second,
	}, log, m)

	// Warm the oracle cache for the fixed identity classes
	consolidator := consolidation.NewService()
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
	for _, identity := range append(cfg.Oracle.LegacyIdentities, cfg.Oracle.PresetIdentities...) {
		wallets, err := balanceOracle.ResolveWallets(warmCtx, identity, false)
		if err != nil {
			log.Warn("Oracle warm-up failed", "identity", identity, "error", err)
			continue
		}
		view := consolidator.Consolidate(wallets)
		log.Info("Oracle cache warmed",
			"identity", identity,
			"wallets", len(view.Wallets),
			"total_fiat", view.Totals.Fiat.String())
	}
	warmCancel()

	// Scheduled accrual sweep
	worker := accrual.NewWorker(engine, cfg.Workers.AccrualSchedule, log.Zap())
	if err := worker.Start(); err != nil {
		return fmt.Errorf("start accrual worker: %w", err)
	}
	defer worker.Stop()

	log.Info("Service started", "environment", cfg.Environment)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutting down", "signal", sig.String())
	return nil
}
