// Package simstore provides a simulated backing store with artificial
// latency and randomly injected outages.
//
// The store alternates between a normal mode and a failing mode. A
// background toggler flips a coin on every tick: in normal mode an outage
// starts with a small probability, in failing mode the store recovers with
// a larger one. Each tick is independent of earlier ticks, which makes the
// mode a two-state Markov chain with short, infrequent outages.
package simstore

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/cachebench/internal/dataset"
	"github.com/discochess/cachebench/internal/store"
	"github.com/discochess/cachebench/internal/store/memstore"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// ErrInvalidConfig is returned by New when the configuration is unusable.
var ErrInvalidConfig = errors.New("simstore: invalid config")

// Config controls the latency and failure model.
type Config struct {
	// Latency is slept before every successful read.
	Latency time.Duration

	// FailureDelay is slept before every failed read.
	FailureDelay time.Duration

	// TickInterval is the period of the failure-mode toggler.
	// Zero or negative disables the background toggler; use Tick instead.
	TickInterval time.Duration

	// OnsetProbability is the per-tick chance of entering failing mode.
	OnsetProbability float64

	// RecoveryProbability is the per-tick chance of leaving failing mode.
	RecoveryProbability float64
}

// DefaultConfig returns the configuration used by the benchmark.
func DefaultConfig() Config {
	return Config{
		Latency:             8 * time.Millisecond,
		FailureDelay:        5 * time.Second,
		TickInterval:        time.Second,
		OnsetProbability:    0.01,
		RecoveryProbability: 0.20,
	}
}

func (c Config) validate() error {
	if c.Latency < 0 || c.FailureDelay < 0 {
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidConfig)
	}
	if c.OnsetProbability < 0 || c.OnsetProbability > 1 {
		return fmt.Errorf("%w: onset probability %v out of [0,1]", ErrInvalidConfig, c.OnsetProbability)
	}
	if c.RecoveryProbability < 0 || c.RecoveryProbability > 1 {
		return fmt.Errorf("%w: recovery probability %v out of [0,1]", ErrInvalidConfig, c.RecoveryProbability)
	}
	return nil
}

// StationaryFailingFraction returns the long-run fraction of ticks spent in
// failing mode for the given transition probabilities.
func StationaryFailingFraction(onset, recovery float64) float64 {
	if onset+recovery == 0 {
		return 0
	}
	return onset / (onset + recovery)
}

// Option configures a Store.
type Option func(*Store)

// WithRand sets the random source used by the toggler.
func WithRand(r *rand.Rand) Option {
	return func(s *Store) { s.rnd = r }
}

// WithLogger sets the logger used to report mode transitions.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store is a slow, occasionally failing key/value store.
// It is safe for concurrent use.
type Store struct {
	cfg    Config
	data   *memstore.Store
	logger *zap.Logger

	failing atomic.Bool

	rndMu sync.Mutex
	rnd   *rand.Rand

	ticks        atomic.Int64
	failingTicks atomic.Int64
	reads        atomic.Int64
	failures     atomic.Int64

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a simulated store and, if cfg.TickInterval is positive,
// starts its failure-mode toggler. Close stops the toggler.
func New(cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := &Store{
		cfg:    cfg,
		data:   memstore.New(),
		logger: zap.NewNop(),
		rnd:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	if cfg.TickInterval > 0 {
		s.wg.Add(1)
		go s.toggle(ctx)
	}

	return s, nil
}

// toggle runs the failure-mode state machine until ctx is cancelled.
func (s *Store) toggle(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick advances the failure-mode state machine by one step and reports
// whether the store is failing afterwards.
func (s *Store) Tick() bool {
	s.rndMu.Lock()
	roll := s.rnd.Float64()
	s.rndMu.Unlock()

	failing := s.failing.Load()
	switch {
	case failing && roll < s.cfg.RecoveryProbability:
		failing = false
		s.failing.Store(false)
		s.logger.Info("backing store recovered")
	case !failing && roll < s.cfg.OnsetProbability:
		failing = true
		s.failing.Store(true)
		s.logger.Info("backing store outage started")
	}

	s.ticks.Add(1)
	if failing {
		s.failingTicks.Add(1)
	}
	return failing
}

// Failing reports whether the store is currently in failing mode.
func (s *Store) Failing() bool {
	return s.failing.Load()
}

// SetFailing forces the failure mode.
func (s *Store) SetFailing(failing bool) {
	s.failing.Store(failing)
}

// Init replaces the store contents with ds.
func (s *Store) Init(ds dataset.Dataset) {
	s.data.Init(ds)
}

// Get returns the value for key after the configured latency.
// In failing mode it blocks for the failure delay and then returns an error
// wrapping store.ErrTransientUnavailable. An in-flight read is never
// interrupted; ctx is only checked before the read starts.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.reads.Add(1)
	if s.failing.Load() {
		time.Sleep(s.cfg.FailureDelay)
		s.failures.Add(1)
		return nil, fmt.Errorf("reading %q: lost connection during query: %w", key, store.ErrTransientUnavailable)
	}

	time.Sleep(s.cfg.Latency)
	return s.data.Get(ctx, key)
}

// Stats contains store counters.
type Stats struct {
	Reads        int64
	Failures     int64
	Ticks        int64
	FailingTicks int64
}

// FailingFraction returns the observed fraction of ticks spent failing.
func (s Stats) FailingFraction() float64 {
	if s.Ticks == 0 {
		return 0
	}
	return float64(s.FailingTicks) / float64(s.Ticks)
}

// Stats returns the current store counters.
func (s *Store) Stats() Stats {
	return Stats{
		Reads:        s.reads.Load(),
		Failures:     s.failures.Load(),
		Ticks:        s.ticks.Load(),
		FailingTicks: s.failingTicks.Load(),
	}
}

// Close stops the toggler and waits for it to exit.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
	return nil
}
