// Package main provides the entry point for the goal probability engine:
// Monte Carlo simulation of goal funding paths with cached, persisted
// results and parallel batch calculation across goals.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spiffler33/Profiler-sub006/internal/config"
	"github.com/spiffler33/Profiler-sub006/internal/goalprob"
	"github.com/spiffler33/Profiler-sub006/internal/params"
	"github.com/spiffler33/Profiler-sub006/internal/simcache"
	"github.com/spiffler33/Profiler-sub006/internal/simulation"
	"github.com/spiffler33/Profiler-sub006/internal/storage"
	"github.com/spiffler33/Profiler-sub006/internal/storage/memory"
	"github.com/spiffler33/Profiler-sub006/internal/storage/migrations"
	"github.com/spiffler33/Profiler-sub006/internal/storage/postgres"
	"github.com/spiffler33/Profiler-sub006/pkg/types"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file (optional)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	seedDemo := flag.Bool("seed-demo", true, "Seed a demo profile with sample goals")
	flag.Parse()

	// Setup logger
	logger := setupLogger(*logLevel)
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Starting goal probability engine",
		zap.Int("iterations", cfg.Simulation.Iterations),
		zap.Int("cacheSize", cfg.Service.CacheSize),
		zap.Int("batchWorkers", cfg.Service.BatchWorkers),
		zap.Bool("metrics", cfg.Service.EnableMetrics),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize goal store: Postgres when a DSN is configured,
	// in-memory otherwise.
	var goalStore storage.GoalStore
	if cfg.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("Failed to connect to Postgres", zap.Error(err))
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		goalStore = postgres.NewGoalStore(pool)
		logger.Info("Using Postgres goal store")
	} else {
		goalStore = memory.NewGoalStore()
		logger.Info("Using in-memory goal store")
	}

	// Metrics registry and exporter
	var registry *prometheus.Registry
	var cacheMetrics *simcache.Metrics
	var serviceMetrics *goalprob.Metrics
	if cfg.Service.EnableMetrics {
		registry = prometheus.NewRegistry()
		cacheMetrics = simcache.NewMetrics(registry)
		serviceMetrics = goalprob.NewMetrics(registry)
	}

	// Assemble the calculation pipeline
	paramStore := params.NewStore(logger, cfg.Simulation)
	paramStore.OnChange(func(key string, version int64) {
		logger.Info("Market assumption changed",
			zap.String("key", key),
			zap.Int64("version", version),
		)
	})

	cache := simcache.NewCache(logger, cfg.Service.CacheSize, cacheMetrics)
	engine := simulation.NewEngine(logger)
	service := goalprob.NewService(logger, engine, cache, goalStore, paramStore, cfg.Simulation, serviceMetrics)
	coordinator := goalprob.NewBatchCoordinator(logger, service, cfg.Service)

	// Metrics endpoint
	var metricsServer *http.Server
	if cfg.Service.EnableMetrics {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Service.MetricsPort),
			Handler: mux,
		}
		go func() {
			logger.Info("Metrics listener started", zap.Int("port", cfg.Service.MetricsPort))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics listener error", zap.Error(err))
			}
		}()
	}

	profile := types.Profile{
		ID:             "demo-profile",
		MonthlyIncome:  150000,
		MonthlyExpense: 90000,
		RiskProfile:    "moderate",
	}

	if *seedDemo {
		goalIDs, err := seedDemoGoals(ctx, goalStore, profile.ID)
		if err != nil {
			logger.Fatal("Failed to seed demo goals", zap.Error(err))
		}

		results := coordinator.RunBatch(ctx, goalIDs, profile, goalprob.CalculateOptions{})
		for id, res := range results {
			if res.Err != nil {
				logger.Warn("Goal calculation failed",
					zap.String("goalId", id),
					zap.Error(res.Err),
				)
				continue
			}
			logger.Info("Goal probability calculated",
				zap.String("goalId", id),
				zap.Float64("successProbability", res.Result.SafeSuccessProbability()),
				zap.Float64("partialSuccessProbability", res.Result.SuccessMetrics.PartialSuccessProbability),
				zap.Float64("shortfallRisk", res.Result.RiskMetrics.ShortfallRisk),
			)
		}

		stats := service.CacheStats()
		logger.Info("Cache statistics",
			zap.Int64("hits", stats.Hits),
			zap.Int64("misses", stats.Misses),
			zap.Int("size", stats.Size),
		)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Engine ready")

	// Wait for shutdown signal
	<-sigChan
	logger.Info("Shutdown signal received")

	cancel()

	if err := coordinator.Close(); err != nil {
		logger.Error("Error stopping batch coordinator", zap.Error(err))
	}

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during metrics listener shutdown", zap.Error(err))
		}
	}

	logger.Info("Engine stopped")
}

// seedDemoGoals inserts a small set of sample goals and returns their ids.
func seedDemoGoals(ctx context.Context, store storage.GoalStore, profileID string) ([]string, error) {
	goals := []*types.Goal{
		{
			ProfileID:           profileID,
			Category:            types.GoalCategoryRetirement,
			Title:               "Retirement corpus",
			TargetAmount:        decimal.NewFromInt(30000000),
			CurrentAmount:       decimal.NewFromInt(2500000),
			MonthlyContribution: decimal.NewFromInt(40000),
			HorizonYears:        25,
			Allocation:          types.AssetAllocation{Equity: 0.7, Debt: 0.2, Gold: 0.05, Cash: 0.05},
		},
		{
			ProfileID:           profileID,
			Category:            types.GoalCategoryEducation,
			Title:               "Child education",
			TargetAmount:        decimal.NewFromInt(5000000),
			CurrentAmount:       decimal.NewFromInt(300000),
			MonthlyContribution: decimal.NewFromInt(15000),
			HorizonYears:        12,
			Allocation:          types.AssetAllocation{Equity: 0.5, Debt: 0.4, Gold: 0.05, Cash: 0.05},
		},
		{
			ProfileID:     profileID,
			Category:      types.GoalCategoryEmergency,
			Title:         "Emergency fund",
			TargetAmount:  decimal.NewFromInt(600000),
			CurrentAmount: decimal.NewFromInt(150000),
			// Contribution left at zero: the service derives it from
			// the profile's surplus.
			HorizonYears: 3,
			Allocation:   types.AssetAllocation{Debt: 0.6, Cash: 0.4},
		},
	}

	ids := make([]string, 0, len(goals))
	for _, g := range goals {
		if err := store.CreateGoal(ctx, g); err != nil {
			return nil, fmt.Errorf("create goal %q: %w", g.Title, err)
		}
		ids = append(ids, g.ID)
	}
	return ids, nil
}

func setupLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Encoding:    "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}

	return logger
}
