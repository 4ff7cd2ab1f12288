package cachebench

import (
	"time"

	"go.uber.org/zap"

	"github.com/discochess/cachebench/internal/stats"
	"github.com/discochess/cachebench/internal/store/simstore"
)

// Option configures a Benchmark.
type Option interface {
	apply(*options)
}

// options holds the benchmark configuration.
type options struct {
	logger      *zap.Logger
	stats       stats.Collector
	datasetSize int
	budget      time.Duration
	iterations  int
	interval    time.Duration
	backends    []string
	capacity    int
	secondLevel string
	storeConfig simstore.Config
	concurrent  bool
	seed        uint64
	seeded      bool
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		logger:      zap.NewNop(),
		stats:       stats.NewNoop(),
		datasetSize: 5000,
		budget:      40 * time.Second,
		interval:    5 * time.Minute,
		backends:    Backends(),
		secondLevel: SecondLevelGoCache,
		storeConfig: simstore.DefaultConfig(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithDatasetSize sets the number of entries generated for each round.
// Default is 5000.
func WithDatasetSize(n int) Option {
	return optionFunc(func(o *options) {
		o.datasetSize = n
	})
}

// WithScenarioBudget sets how long each backend is read per round.
// Default is 40s.
func WithScenarioBudget(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.budget = d
	})
}

// WithScenarioIterations caps the number of reads per scenario. Combined
// with a duration budget, whichever limit is reached first wins.
func WithScenarioIterations(n int) Option {
	return optionFunc(func(o *options) {
		o.iterations = n
	})
}

// WithRoundInterval sets the period between rounds started by Start.
// Default is 5m.
func WithRoundInterval(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.interval = d
	})
}

// WithBackends selects which backends run, by name, in order.
// Default is every backend.
func WithBackends(names ...string) Option {
	return optionFunc(func(o *options) {
		o.backends = names
	})
}

// WithCapacity bounds the bounded backend. Zero means unbounded.
func WithCapacity(n int) Option {
	return optionFunc(func(o *options) {
		o.capacity = n
	})
}

// WithSecondLevel selects the external cache behind the second-level
// backend. Default is SecondLevelGoCache.
func WithSecondLevel(name string) Option {
	return optionFunc(func(o *options) {
		o.secondLevel = name
	})
}

// WithStoreConfig sets the simulated backing store configuration.
func WithStoreConfig(cfg simstore.Config) Option {
	return optionFunc(func(o *options) {
		o.storeConfig = cfg
	})
}

// WithConcurrentScenarios runs each round's scenarios in parallel, giving
// every backend its own backing store.
func WithConcurrentScenarios(enabled bool) Option {
	return optionFunc(func(o *options) {
		o.concurrent = enabled
	})
}

// WithSeed makes datasets, key sampling and store failures reproducible.
func WithSeed(seed uint64) Option {
	return optionFunc(func(o *options) {
		o.seed = seed
		o.seeded = true
	})
}
