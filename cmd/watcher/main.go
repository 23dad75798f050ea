package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/andrewsem/factwatch/internal/adapters/ai"
	"github.com/andrewsem/factwatch/internal/adapters/config"
	"github.com/andrewsem/factwatch/internal/adapters/database"
	"github.com/andrewsem/factwatch/internal/adapters/metrics"
	"github.com/andrewsem/factwatch/internal/adapters/redis"
	"github.com/andrewsem/factwatch/internal/adapters/telegram"
	"github.com/andrewsem/factwatch/internal/aggregator"
	"github.com/andrewsem/factwatch/internal/health"
	"github.com/andrewsem/factwatch/internal/pipeline"
	"github.com/andrewsem/factwatch/internal/snippet"
	"github.com/andrewsem/factwatch/internal/storage"
	"github.com/andrewsem/factwatch/internal/verification"
	"github.com/andrewsem/factwatch/internal/workers"
	"github.com/andrewsem/factwatch/pkg/logger"
	"github.com/andrewsem/factwatch/pkg/worker"
)

var (
	checkClaim = flag.String("check", "", "One-shot: fact-check a single claim and exit")
	scanTopic  = flag.String("scan", "", "One-shot: scan trending claims around a topic and exit")
	analyzeID  = flag.String("analyze", "", "One-shot: run the analysis pipeline for one entity ID and exit")
	rollback   = flag.Bool("rollback", false, "One-shot: roll back the most recent database migration and exit")
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("factwatch starting...",
		zap.String("model", cfg.Gemini.Model),
		zap.Int("credential_pool", len(cfg.Gemini.FilteredKeys())),
	)

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if *rollback {
		return database.RollbackMigration(db.Conn(), cfg.Database.MigrationsPath)
	}

	if err := database.RunMigrations(db.Conn(), cfg.Database.MigrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	pool, err := ai.NewKeyPool(cfg.Gemini.FilteredKeys())
	if err != nil {
		return err
	}
	caller := ai.NewCaller(pool, nil)

	store := storage.NewRepository(db)
	agg := aggregator.New(caller, cfg.Gemini.Model)
	verifier := verification.New(caller, cfg.Gemini.Model)

	locks, snapshotCache := initRedis(cfg)
	metricsRepo := initMetrics(cfg)
	alerter := initAlerter(cfg)

	service := pipeline.NewService(store, agg, verifier, locks, snapshotCache, metricsRepo, alerter)

	var extractor *snippet.Extractor
	if cfg.Snippet.Enabled {
		extractor = snippet.New(snippet.NewCache(), caller, cfg.Gemini.Model, cfg.Snippet.FetchTimeout, cfg.Snippet.Delay)
	}
	checker := pipeline.NewChecker(caller, extractor, cfg.Gemini.Model, cfg.Snippet.MaxSnippets)

	// One-shot modes run a single operation and exit.
	if *checkClaim != "" || *scanTopic != "" || *analyzeID != "" {
		return runOnce(ctx, cfg, service, checker)
	}

	if cfg.Analysis.WorkerEnabled {
		analysisWorker := workers.NewAnalysisWorker(service, store, cfg.Analysis.Period)
		group := worker.NewWorkerGroup(ctx)
		group.Add(analysisWorker, cfg.Analysis.Interval)
		group.Start()
		defer group.Stop(30 * time.Second)
	}

	if cfg.HealthPort != "" {
		healthServer := health.NewServer(cfg.HealthPort, map[string]health.Checker{
			"database": db,
		})
		go func() {
			if err := healthServer.Start(); err != nil {
				logger.Error("health server error", zap.Error(err))
			}
		}()
		healthServer.SetReady(true)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = healthServer.Stop(shutdownCtx)
		}()
	}

	logger.Info("✅ factwatch ready")

	<-ctx.Done()
	logger.Info("shutting down gracefully...")
	return nil
}

// runOnce executes a single requested operation and prints the outcome.
func runOnce(ctx context.Context, cfg *config.Config, service *pipeline.Service, checker *pipeline.Checker) error {
	switch {
	case *checkClaim != "":
		result, err := checker.CheckClaim(ctx, *checkClaim)
		if err != nil {
			return err
		}
		fmt.Printf("Verdict: %s (confidence %.2f)\n%s\n", result.Verdict, result.Confidence, result.Explanation)
		for _, src := range result.Sources {
			fmt.Printf("- %s\n  %s\n  %s\n", src.Title, src.URI, src.Snippet)
		}

	case *scanTopic != "":
		claims, err := checker.ScanTrends(ctx, *scanTopic)
		if err != nil {
			return err
		}
		if len(claims) == 0 {
			fmt.Println("No trending claims found.")
			return nil
		}
		for _, claim := range claims {
			fmt.Printf("[%s] %s\n  %s (confidence %.2f)\n  %s\n",
				claim.Severity, claim.Claim, claim.Verdict, claim.Confidence, claim.Explanation)
		}

	case *analyzeID != "":
		result, err := service.Analyze(ctx, *analyzeID, cfg.Analysis.Period, nil)
		if err != nil {
			return err
		}
		if result.NoData {
			fmt.Println("No news found for the requested period.")
			return nil
		}
		stats := result.Snapshot.Statistics
		fmt.Printf("Analyzed %d items: %d real / %d fake / %d uncertain\n",
			stats.TotalNews, stats.RealCount, stats.FakeCount, stats.UncertainCount)
		fmt.Printf("Reliability %.1f, crisis level %s (score %d)\n",
			stats.ReliabilityScore, result.Snapshot.CrisisAlert.RiskLevel, result.Snapshot.CrisisAlert.RiskScore)
	}

	return nil
}

// initRedis wires the optional Redis backend: per-entity run locks plus the
// latest-snapshot cache.
func initRedis(cfg *config.Config) (pipeline.LockFactory, pipeline.SnapshotCache) {
	if !cfg.Redis.Enabled() {
		return nil, nil
	}

	client, err := redis.New(&cfg.Redis)
	if err != nil {
		logger.Warn("redis not available, run locking and snapshot caching disabled", zap.Error(err))
		return nil, nil
	}

	locks := func(entityID string) pipeline.RunLock {
		return client.NewAnalysisLock(entityID)
	}
	return locks, redis.NewSnapshotCache(client)
}

// initMetrics wires the optional ClickHouse run-metrics sink.
func initMetrics(cfg *config.Config) metrics.Repository {
	if !cfg.ClickHouse.Enabled() {
		return nil
	}

	db, err := metrics.Connect(&cfg.ClickHouse)
	if err != nil {
		logger.Warn("clickhouse not available, run metrics disabled", zap.Error(err))
		return nil
	}

	repo, err := metrics.NewClickHouseRepository(db)
	if err != nil {
		logger.Warn("clickhouse schema setup failed, run metrics disabled", zap.Error(err))
		return nil
	}

	logger.Info("✅ run metrics using ClickHouse")
	return repo
}

// initAlerter wires the optional Telegram crisis notifier.
func initAlerter(cfg *config.Config) pipeline.Alerter {
	if !cfg.Telegram.Enabled() {
		return nil
	}

	notifier, err := telegram.NewNotifier(&cfg.Telegram)
	if err != nil {
		logger.Warn("telegram not available, crisis alerts disabled", zap.Error(err))
		return nil
	}

	logger.Info("📱 crisis alerts via Telegram enabled")
	return notifier
}
