// Package cachebenchfx provides an fx module running the cache benchmark
// for the lifetime of the application.
package cachebenchfx

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/cachebench"
	"github.com/discochess/cachebench/internal/stats"
	"github.com/discochess/cachebench/internal/stats/logger"
	promstats "github.com/discochess/cachebench/internal/stats/prometheus"
	"github.com/discochess/cachebench/internal/store/simstore"
)

// Config holds configuration for the benchmark. Zero values use the
// cachebench defaults.
type Config struct {
	// Backends selects which backends run. Default is every backend.
	Backends []string

	// DatasetSize is the number of keys generated per round.
	DatasetSize int

	// ScenarioBudget is how long each backend is read per round.
	ScenarioBudget time.Duration

	// RoundInterval is the period between rounds.
	RoundInterval time.Duration

	// Capacity bounds the bounded backend. Zero is unbounded.
	Capacity int

	// SecondLevel names the external cache of the second-level backend.
	SecondLevel string

	// Store overrides the simulated backing store configuration.
	Store *simstore.Config

	// Concurrent runs each round's scenarios in parallel.
	Concurrent bool
}

// Module provides a *cachebench.Benchmark that starts with the
// application and stops with it.
// Requires a *zap.Logger and a Config to be provided. A
// prometheus.Registerer is used when present.
var Module = fx.Module("cachebench",
	fx.Provide(
		newStatsCollector,
		newBenchmark,
	),
	fx.Invoke(registerHooks),
)

// CollectorParams holds dependencies for the stats collector.
type CollectorParams struct {
	fx.In

	Logger     *zap.Logger
	Registerer prometheus.Registerer `optional:"true"`
}

func newStatsCollector(p CollectorParams) stats.Collector {
	log := logger.New(p.Logger.Named("cachebench.stats"))
	if p.Registerer == nil {
		return log
	}
	return stats.NewMulti(log, promstats.New(p.Registerer))
}

// Params holds dependencies for creating the benchmark.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
}

// Result holds the provided benchmark.
type Result struct {
	fx.Out

	Benchmark *cachebench.Benchmark
}

func newBenchmark(p Params) (Result, error) {
	opts := []cachebench.Option{
		cachebench.WithStats(p.Collector),
		cachebench.WithLogger(p.Logger.Named("cachebench")),
		cachebench.WithCapacity(p.Config.Capacity),
		cachebench.WithConcurrentScenarios(p.Config.Concurrent),
	}
	if len(p.Config.Backends) > 0 {
		opts = append(opts, cachebench.WithBackends(p.Config.Backends...))
	}
	if p.Config.DatasetSize > 0 {
		opts = append(opts, cachebench.WithDatasetSize(p.Config.DatasetSize))
	}
	if p.Config.ScenarioBudget > 0 {
		opts = append(opts, cachebench.WithScenarioBudget(p.Config.ScenarioBudget))
	}
	if p.Config.RoundInterval > 0 {
		opts = append(opts, cachebench.WithRoundInterval(p.Config.RoundInterval))
	}
	if p.Config.SecondLevel != "" {
		opts = append(opts, cachebench.WithSecondLevel(p.Config.SecondLevel))
	}
	if p.Config.Store != nil {
		opts = append(opts, cachebench.WithStoreConfig(*p.Config.Store))
	}

	b, err := cachebench.New(opts...)
	if err != nil {
		return Result{}, err
	}
	return Result{Benchmark: b}, nil
}

func registerHooks(lc fx.Lifecycle, b *cachebench.Benchmark) {
	lc.Append(fx.Hook{
		// The start context expires once startup completes, so rounds
		// run on a background context and end with OnStop.
		OnStart: func(context.Context) error {
			return b.Start(context.Background())
		},
		OnStop: func(context.Context) error {
			return b.Stop()
		},
	})
}
