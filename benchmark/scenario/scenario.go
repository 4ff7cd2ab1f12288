// Package scenario drives read load against a cache backend and records
// per-read observations.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/cachebench/internal/backend"
	"github.com/discochess/cachebench/internal/dataset"
	"github.com/discochess/cachebench/internal/stats"
	"github.com/discochess/cachebench/internal/store"
)

var (
	// ErrEmptyDataset is returned when a scenario has no keys to sample.
	ErrEmptyDataset = errors.New("scenario: empty dataset")

	// ErrInvalidBudget is returned when a budget has neither a duration
	// nor an iteration limit.
	ErrInvalidBudget = errors.New("scenario: invalid budget")
)

// Sampler picks key indexes. *rand.Rand satisfies it.
type Sampler interface {
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// Budget bounds a scenario. Whichever limit is reached first ends it; a
// zero field is no limit.
type Budget struct {
	Duration   time.Duration
	Iterations int
}

func (b Budget) validate() error {
	if b.Duration < 0 || b.Iterations < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidBudget)
	}
	if b.Duration == 0 && b.Iterations == 0 {
		return fmt.Errorf("%w: no duration or iteration limit", ErrInvalidBudget)
	}
	return nil
}

// Observation describes a single read.
type Observation struct {
	Backend string
	Key     string
	Latency time.Duration
	Hit     bool
	Size    int
	Err     error
}

// Result summarizes a scenario run.
type Result struct {
	Backend string
	backend.Stats

	// Reads is the number of Get calls issued.
	Reads int64

	// Failures counts reads that returned an error. Failed reads are
	// also counted as misses.
	Failures int64

	Elapsed time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithCollector sets the sink for per-read metrics.
func WithCollector(c stats.Collector) Option {
	return func(r *Runner) { r.collector = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithSampler sets the key sampler.
func WithSampler(s Sampler) Option {
	return func(r *Runner) { r.sampler = s }
}

// WithObserver registers a callback invoked after every read.
func WithObserver(fn func(Observation)) Option {
	return func(r *Runner) { r.observer = fn }
}

// Runner executes scenarios. A Runner may be reused across backends but
// must not run two scenarios at once unless its sampler is safe for
// concurrent use.
type Runner struct {
	collector stats.Collector
	logger    *zap.Logger
	sampler   Sampler
	observer  func(Observation)
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		collector: stats.NewNoop(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sampler == nil {
		r.sampler = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return r
}

// Run seeds b with ds, then reads uniformly sampled keys until the budget
// is spent or ctx is done. The backend is reset with an empty dataset
// before Run returns.
//
// Read errors do not stop the scenario. They are counted as failures and
// the loop moves on to the next key.
func (r *Runner) Run(ctx context.Context, ds dataset.Dataset, b backend.Backend, budget Budget) (*Result, error) {
	if err := budget.validate(); err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, ErrEmptyDataset
	}

	name := b.Name()
	var (
		readsName   = stats.Name(name, stats.MetricReads)
		cacheName   = stats.Name(name, stats.MetricCacheReads)
		storeName   = stats.Name(name, stats.MetricStoreReads)
		failName    = stats.Name(name, stats.MetricFailures)
		latencyName = stats.Name(name, stats.MetricReadSeconds)
		failLatName = stats.Name(name, stats.MetricFailureSeconds)
		sizeName    = stats.Name(name, stats.MetricSize)
	)

	logger := r.logger.With(zap.String("backend", name))
	logger.Info("scenario started",
		zap.Int("keys", ds.Len()),
		zap.Duration("duration", budget.Duration),
		zap.Int("iterations", budget.Iterations),
	)

	b.Init(ds)
	keys := ds.Keys()

	res := &Result{Backend: name}
	start := time.Now()
	var deadline time.Time
	if budget.Duration > 0 {
		deadline = start.Add(budget.Duration)
	}

	for {
		if budget.Iterations > 0 && res.Reads >= int64(budget.Iterations) {
			break
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			break
		}
		if ctx.Err() != nil {
			break
		}

		key := keys[r.sampler.IntN(len(keys))]

		readStart := time.Now()
		_, err := b.Get(ctx, key)
		latency := time.Since(readStart)
		hit := b.LastReadWasHit()
		size := b.Count()

		res.Reads++
		if hit {
			res.Hits++
			r.collector.IncCounter(cacheName, 1)
		} else {
			res.Misses++
			r.collector.IncCounter(storeName, 1)
		}
		r.collector.IncCounter(readsName, 1)
		r.collector.ObserveHistogram(latencyName, latency.Seconds())
		r.collector.SetGauge(sizeName, int64(size))

		if err != nil {
			res.Failures++
			r.collector.IncCounter(failName, 1)
			r.collector.ObserveHistogram(failLatName, latency.Seconds())
			if !errors.Is(err, store.ErrTransientUnavailable) {
				logger.Warn("read failed", zap.String("key", key), zap.Error(err))
			}
		}

		if r.observer != nil {
			r.observer(Observation{
				Backend: name,
				Key:     key,
				Latency: latency,
				Hit:     hit,
				Size:    size,
				Err:     err,
			})
		}
	}

	res.Elapsed = time.Since(start)
	res.Size = b.Count()

	b.Init(dataset.Empty())
	r.collector.SetGauge(sizeName, 0)

	logger.Info("scenario finished",
		zap.Int64("reads", res.Reads),
		zap.Float64("hit_rate", res.HitRate()),
		zap.Int64("failures", res.Failures),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}
