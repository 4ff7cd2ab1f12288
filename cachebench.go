// Package cachebench compares caching strategies placed in front of an
// unreliable backing store.
//
// Each round generates a fresh dataset and runs one scenario per backend,
// reading uniformly sampled keys for a fixed budget while the simulated
// store randomly drops into and out of an outage.
//
// Example usage:
//
//	b, err := cachebench.New(
//	    cachebench.WithScenarioBudget(10*time.Second),
//	    cachebench.WithCapacity(1000),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Stop()
//
//	results, err := b.RunRound(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range results {
//	    fmt.Printf("%s: %.1f%% hits\n", r.Backend, r.HitRate())
//	}
package cachebench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discochess/cachebench/benchmark/scenario"
	"github.com/discochess/cachebench/internal/backend"
	"github.com/discochess/cachebench/internal/backend/bounded"
	"github.com/discochess/cachebench/internal/backend/hashmap"
	"github.com/discochess/cachebench/internal/backend/secondlevel"
	"github.com/discochess/cachebench/internal/backend/secondlevel/bigcache"
	"github.com/discochess/cachebench/internal/backend/secondlevel/gocache"
	"github.com/discochess/cachebench/internal/backend/secondlevel/ristretto"
	"github.com/discochess/cachebench/internal/dataset"
	"github.com/discochess/cachebench/internal/stats"
	"github.com/discochess/cachebench/internal/store/simstore"
)

// Backend names accepted by WithBackends.
const (
	BackendHashMap     = hashmap.Name
	BackendBounded     = bounded.Name
	BackendSecondLevel = secondlevel.Name
)

// External caches accepted by WithSecondLevel.
const (
	SecondLevelGoCache   = "gocache"
	SecondLevelBigCache  = "bigcache"
	SecondLevelRistretto = "ristretto"
)

// Backends returns the name of every backend, in run order.
func Backends() []string {
	return []string{BackendHashMap, BackendBounded, BackendSecondLevel}
}

// Sentinel errors for well-defined error conditions.
var (
	// ErrClosed indicates the benchmark has been stopped.
	ErrClosed = errors.New("cachebench: benchmark closed")

	// ErrUnknownBackend indicates an unrecognized backend or external cache name.
	ErrUnknownBackend = errors.New("cachebench: unknown backend")

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("cachebench: already started")

	// ErrInvalidConfig indicates an option value out of range.
	ErrInvalidConfig = errors.New("cachebench: invalid config")
)

// lane is a backend with the store it reads through.
type lane struct {
	backend backend.Backend
	store   *simstore.Store
	sampler *lockedRand
}

// Benchmark runs rounds of scenarios against the configured backends.
// RunRound may be called from multiple goroutines; rounds are serialized.
type Benchmark struct {
	cfg    options
	logger *zap.Logger
	stats  stats.Collector

	lanes   []lane
	stores  []*simstore.Store
	closers []io.Closer

	dsMu  sync.Mutex
	dsRnd io.Reader

	roundMu sync.Mutex
	rounds  atomic.Int64

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closed  atomic.Bool
}

// New creates a Benchmark with the given options.
// If no options are provided, the defaults are:
// 5000 keys, 40s per scenario, one round every 5 minutes.
func New(opts ...Option) (*Benchmark, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	b := &Benchmark{
		cfg:    cfg,
		logger: cfg.logger,
		stats:  cfg.stats,
	}

	seed := cfg.seed
	if !cfg.seeded {
		seed = rand.Uint64()
	}
	var chachaSeed [32]byte
	for i := range 4 {
		for j := range 8 {
			chachaSeed[i*8+j] = byte(seed >> (8 * j))
		}
	}
	b.dsRnd = rand.NewChaCha8(chachaSeed)

	var shared *simstore.Store
	for i, name := range cfg.backends {
		st := shared
		if st == nil {
			var err error
			st, err = simstore.New(cfg.storeConfig,
				simstore.WithRand(rand.New(rand.NewPCG(seed, uint64(i)))),
				simstore.WithLogger(b.logger.Named("store").With(zap.Int("store", len(b.stores)))),
			)
			if err != nil {
				b.release()
				return nil, fmt.Errorf("creating store: %w", err)
			}
			b.stores = append(b.stores, st)
			if !cfg.concurrent {
				shared = st
			}
		}

		be, err := b.newBackend(name, st)
		if err != nil {
			b.release()
			return nil, err
		}
		b.lanes = append(b.lanes, lane{
			backend: be,
			store:   st,
			sampler: &lockedRand{r: rand.New(rand.NewPCG(seed, uint64(i)+1<<32))},
		})
	}

	b.logger.Debug("benchmark initialized",
		zap.Strings("backends", cfg.backends),
		zap.Int("datasetSize", cfg.datasetSize),
		zap.Duration("budget", cfg.budget),
		zap.Bool("concurrent", cfg.concurrent),
	)
	return b, nil
}

func (o options) validate() error {
	switch {
	case o.datasetSize <= 0:
		return fmt.Errorf("%w: dataset size %d", ErrInvalidConfig, o.datasetSize)
	case o.budget < 0 || o.iterations < 0:
		return fmt.Errorf("%w: negative scenario budget", ErrInvalidConfig)
	case o.budget == 0 && o.iterations == 0:
		return fmt.Errorf("%w: scenario needs a duration or iteration budget", ErrInvalidConfig)
	case o.interval <= 0:
		return fmt.Errorf("%w: round interval %v", ErrInvalidConfig, o.interval)
	case len(o.backends) == 0:
		return fmt.Errorf("%w: no backends", ErrInvalidConfig)
	}
	for i, name := range o.backends {
		if !slices.Contains(Backends(), name) {
			return fmt.Errorf("%w: %q", ErrUnknownBackend, name)
		}
		if slices.Contains(o.backends[:i], name) {
			return fmt.Errorf("%w: backend %q listed twice", ErrInvalidConfig, name)
		}
	}
	return nil
}

func (b *Benchmark) newBackend(name string, st *simstore.Store) (backend.Backend, error) {
	switch name {
	case BackendHashMap:
		return hashmap.New(st), nil
	case BackendBounded:
		be, err := bounded.New(st, b.cfg.capacity, b.stats)
		if err != nil {
			return nil, fmt.Errorf("creating bounded backend: %w", err)
		}
		return be, nil
	case BackendSecondLevel:
		c, err := b.newSecondLevelCache()
		if err != nil {
			return nil, err
		}
		return secondlevel.New(st, c, secondlevel.WithLogger(b.logger.Named(name))), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

func (b *Benchmark) newSecondLevelCache() (secondlevel.Cache, error) {
	switch b.cfg.secondLevel {
	case SecondLevelGoCache:
		c := gocache.New(gocache.DefaultConfig())
		b.closers = append(b.closers, c)
		return c, nil
	case SecondLevelBigCache:
		c, err := bigcache.New(bigcache.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("creating bigcache: %w", err)
		}
		b.closers = append(b.closers, c)
		return c, nil
	case SecondLevelRistretto:
		c, err := ristretto.New(ristretto.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("creating ristretto: %w", err)
		}
		b.closers = append(b.closers, c)
		return c, nil
	}
	return nil, fmt.Errorf("%w: second-level cache %q", ErrUnknownBackend, b.cfg.secondLevel)
}

// Budget returns the per-scenario budget.
func (b *Benchmark) Budget() scenario.Budget {
	return scenario.Budget{Duration: b.cfg.budget, Iterations: b.cfg.iterations}
}

// DatasetSize returns the number of keys generated per round.
func (b *Benchmark) DatasetSize() int {
	return b.cfg.datasetSize
}

// Rounds returns the number of completed rounds.
func (b *Benchmark) Rounds() int64 {
	return b.rounds.Load()
}

// RunRound generates a fresh dataset and runs one scenario per backend.
// Results are returned in backend order.
func (b *Benchmark) RunRound(ctx context.Context) ([]*scenario.Result, error) {
	b.dsMu.Lock()
	ds, err := dataset.Generate(b.cfg.datasetSize, b.dsRnd)
	b.dsMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("generating dataset: %w", err)
	}
	return b.RunRoundWith(ctx, ds)
}

// RunRoundWith runs one scenario per backend against ds.
func (b *Benchmark) RunRoundWith(ctx context.Context, ds dataset.Dataset) ([]*scenario.Result, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}

	b.roundMu.Lock()
	defer b.roundMu.Unlock()

	start := time.Now()
	b.logger.Info("round started", zap.Int64("round", b.rounds.Load()+1), zap.Int("keys", ds.Len()))

	results := make([]*scenario.Result, len(b.lanes))
	if b.cfg.concurrent {
		g, gctx := errgroup.WithContext(ctx)
		for i, l := range b.lanes {
			g.Go(func() error {
				res, err := b.runner(l).Run(gctx, ds, l.backend, b.Budget())
				if err != nil {
					return fmt.Errorf("running %s: %w", l.backend.Name(), err)
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	} else {
		for i, l := range b.lanes {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res, err := b.runner(l).Run(ctx, ds, l.backend, b.Budget())
			if err != nil {
				return nil, fmt.Errorf("running %s: %w", l.backend.Name(), err)
			}
			results[i] = res
		}
	}

	b.rounds.Add(1)
	b.stats.IncCounter(stats.MetricRounds, 1)
	b.logger.Info("round finished",
		zap.Int64("round", b.rounds.Load()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}

func (b *Benchmark) runner(l lane) *scenario.Runner {
	return scenario.NewRunner(
		scenario.WithCollector(b.stats),
		scenario.WithLogger(b.logger.Named("scenario")),
		scenario.WithSampler(l.sampler),
	)
}

// Start runs a round immediately and then once per round interval until
// Stop is called or ctx is done.
func (b *Benchmark) Start(ctx context.Context) error {
	if b.closed.Load() {
		return ErrClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return ErrAlreadyStarted
	}
	b.started = true

	ctx, b.cancel = context.WithCancel(ctx)
	b.wg.Add(1)
	go b.loop(ctx)
	return nil
}

func (b *Benchmark) loop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cfg.interval)
	defer ticker.Stop()

	for {
		if _, err := b.RunRound(ctx); err != nil && ctx.Err() == nil {
			b.logger.Error("round failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop cancels the periodic rounds, waits for the current one to finish
// and releases every store and external cache.
// After Stop, the benchmark should not be used.
func (b *Benchmark) Stop() error {
	if !b.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	b.mu.Unlock()
	b.wg.Wait()

	return b.release()
}

func (b *Benchmark) release() error {
	var errs []error
	for _, st := range b.stores {
		if err := st.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing store: %w", err))
		}
	}
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing cache: %w", err))
		}
	}
	return errors.Join(errs...)
}

// StoreStats returns the counters of every backing store, in creation
// order. Without concurrent scenarios there is a single shared store.
func (b *Benchmark) StoreStats() []simstore.Stats {
	out := make([]simstore.Stats, len(b.stores))
	for i, st := range b.stores {
		out[i] = st.Stats()
	}
	return out
}

// lockedRand is a key sampler safe for concurrent use.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
