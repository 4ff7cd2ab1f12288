package scenario

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/discochess/cachebench/internal/backend/bounded"
	"github.com/discochess/cachebench/internal/backend/hashmap"
	"github.com/discochess/cachebench/internal/dataset"
	"github.com/discochess/cachebench/internal/stats"
	"github.com/discochess/cachebench/internal/stats/recorder"
	"github.com/discochess/cachebench/internal/store"
	"github.com/discochess/cachebench/internal/store/memstore"
	"github.com/discochess/cachebench/internal/store/simstore"
)

// fixedSampler always returns the same index.
type fixedSampler int

func (f fixedSampler) IntN(int) int { return int(f) }

// cyclingSampler walks the key list in order.
type cyclingSampler struct{ next int }

func (c *cyclingSampler) IntN(n int) int {
	i := c.next % n
	c.next++
	return i
}

func abc() dataset.Dataset {
	return dataset.Dataset{"a": []byte("1"), "b": []byte("2"), "c": []byte("3")}
}

func TestRun_SingleKeyHitsAfterFirstMiss(t *testing.T) {
	rec := recorder.New()
	var obs []Observation
	r := NewRunner(
		WithCollector(rec),
		WithSampler(fixedSampler(0)), // "a" sorts first.
		WithObserver(func(o Observation) { obs = append(obs, o) }),
	)
	b := hashmap.New(memstore.New())

	res, err := r.Run(context.Background(), abc(), b, Budget{Iterations: 10})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Reads != 10 || res.Misses != 1 || res.Hits != 9 {
		t.Errorf("Run() reads/misses/hits = %d/%d/%d, want 10/1/9", res.Reads, res.Misses, res.Hits)
	}
	if res.Size != 1 {
		t.Errorf("Result.Size = %d, want 1", res.Size)
	}
	if res.Failures != 0 {
		t.Errorf("Result.Failures = %d, want 0", res.Failures)
	}
	if got := res.HitRate(); got != 90 {
		t.Errorf("HitRate() = %v, want 90", got)
	}

	if len(obs) != 10 {
		t.Fatalf("observations = %d, want 10", len(obs))
	}
	if obs[0].Hit || obs[0].Key != "a" {
		t.Errorf("first observation = %+v, want miss on a", obs[0])
	}
	for i, o := range obs[1:] {
		if !o.Hit || o.Size != 1 {
			t.Errorf("observation %d = %+v, want hit with size 1", i+1, o)
		}
	}

	if got := b.Count(); got != 0 {
		t.Errorf("Count() after Run = %d, want 0", got)
	}

	for _, tc := range []struct {
		metric string
		want   int64
	}{
		{stats.MetricReads, 10},
		{stats.MetricCacheReads, 9},
		{stats.MetricStoreReads, 1},
		{stats.MetricFailures, 0},
	} {
		if got := rec.Counter(stats.Name(hashmap.Name, tc.metric)); got != tc.want {
			t.Errorf("counter %s = %d, want %d", tc.metric, got, tc.want)
		}
	}
	if got := len(rec.Samples(stats.Name(hashmap.Name, stats.MetricReadSeconds))); got != 10 {
		t.Errorf("latency samples = %d, want 10", got)
	}
	if got := rec.Gauge(stats.Name(hashmap.Name, stats.MetricSize)); got != 0 {
		t.Errorf("size gauge after Run = %d, want 0", got)
	}
}

func TestRun_ContinuesPastFailures(t *testing.T) {
	s, err := simstore.New(simstore.Config{
		FailureDelay:        time.Millisecond,
		OnsetProbability:    0.01,
		RecoveryProbability: 0.2,
	})
	if err != nil {
		t.Fatalf("simstore.New() error = %v", err)
	}
	defer s.Close()
	s.SetFailing(true)

	rec := recorder.New()
	var errs int
	r := NewRunner(
		WithCollector(rec),
		WithSampler(&cyclingSampler{}),
		WithObserver(func(o Observation) {
			if errors.Is(o.Err, store.ErrTransientUnavailable) {
				errs++
			}
		}),
	)
	b := hashmap.New(s)

	res, err := r.Run(context.Background(), abc(), b, Budget{Iterations: 6})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Reads != 6 || res.Failures != 6 || res.Misses != 6 {
		t.Errorf("Run() reads/failures/misses = %d/%d/%d, want 6/6/6", res.Reads, res.Failures, res.Misses)
	}
	if res.Size != 0 {
		t.Errorf("Result.Size = %d, want 0", res.Size)
	}
	if errs != 6 {
		t.Errorf("observed transient errors = %d, want 6", errs)
	}
	if got := rec.Counter(stats.Name(hashmap.Name, stats.MetricFailures)); got != 6 {
		t.Errorf("failures counter = %d, want 6", got)
	}
	if got := len(rec.Samples(stats.Name(hashmap.Name, stats.MetricFailureSeconds))); got != 6 {
		t.Errorf("failure latency samples = %d, want 6", got)
	}
}

func TestRun_NotFoundCountsAsFailure(t *testing.T) {
	// The store knows only "a"; the backend is seeded through a dataset
	// that also lists "b" so the runner samples it.
	b := &partialSeed{Backend: hashmap.New(memstore.New())}
	r := NewRunner(WithSampler(&cyclingSampler{}))

	res, err := r.Run(context.Background(), dataset.Dataset{"a": []byte("1"), "b": []byte("2")}, b, Budget{Iterations: 4})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Failures != 2 {
		t.Errorf("Result.Failures = %d, want 2", res.Failures)
	}
	if res.Hits != 1 || res.Misses != 3 {
		t.Errorf("Run() hits/misses = %d/%d, want 1/3", res.Hits, res.Misses)
	}
}

// partialSeed drops key "b" from the store after seeding.
type partialSeed struct {
	*hashmap.Backend
}

func (p *partialSeed) Init(ds dataset.Dataset) {
	trimmed := ds.Clone()
	delete(trimmed, "b")
	p.Backend.Init(trimmed)
}

func TestRun_DurationBudget(t *testing.T) {
	r := NewRunner(WithSampler(rand.New(rand.NewPCG(1, 2))))
	b := hashmap.New(memstore.New())

	res, err := r.Run(context.Background(), abc(), b, Budget{Duration: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Reads == 0 {
		t.Error("Run() performed no reads")
	}
	if res.Elapsed < 20*time.Millisecond {
		t.Errorf("Elapsed = %v, want at least 20ms", res.Elapsed)
	}
	if res.Hits+res.Misses != res.Reads {
		t.Errorf("hits+misses = %d, want %d", res.Hits+res.Misses, res.Reads)
	}
}

func TestRun_IterationsWinOverDuration(t *testing.T) {
	r := NewRunner()
	b := hashmap.New(memstore.New())

	res, err := r.Run(context.Background(), abc(), b, Budget{Duration: time.Hour, Iterations: 5})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Reads != 5 {
		t.Errorf("Reads = %d, want 5", res.Reads)
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var reads int
	r := NewRunner(WithObserver(func(Observation) {
		reads++
		if reads == 3 {
			cancel()
		}
	}))
	b := hashmap.New(memstore.New())

	res, err := r.Run(ctx, abc(), b, Budget{Duration: time.Hour})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Reads != 3 {
		t.Errorf("Reads = %d, want 3", res.Reads)
	}
	if got := b.Count(); got != 0 {
		t.Errorf("Count() after cancelled Run = %d, want 0", got)
	}
}

func TestRun_InvalidInput(t *testing.T) {
	r := NewRunner()
	b := hashmap.New(memstore.New())

	tests := []struct {
		name    string
		ds      dataset.Dataset
		budget  Budget
		wantErr error
	}{
		{"empty dataset", dataset.Empty(), Budget{Iterations: 1}, ErrEmptyDataset},
		{"zero budget", abc(), Budget{}, ErrInvalidBudget},
		{"negative iterations", abc(), Budget{Iterations: -1}, ErrInvalidBudget},
		{"negative duration", abc(), Budget{Duration: -time.Second}, ErrInvalidBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Run(context.Background(), tt.ds, b, tt.budget)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Run() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRun_BoundedEvictsUnderPressure(t *testing.T) {
	ds, err := dataset.Generate(50, rand.NewChaCha8([32]byte{}))
	if err != nil {
		t.Fatalf("dataset.Generate() error = %v", err)
	}
	b, err := bounded.New(memstore.New(), 10, nil)
	if err != nil {
		t.Fatalf("bounded.New() error = %v", err)
	}
	r := NewRunner(WithSampler(&cyclingSampler{}))

	res, err := r.Run(context.Background(), ds, b, Budget{Iterations: 100})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// A cyclic scan larger than an LRU cache never hits.
	if res.Hits != 0 {
		t.Errorf("Hits = %d, want 0", res.Hits)
	}
	if res.Size != 10 {
		t.Errorf("Size = %d, want 10", res.Size)
	}
	if got := b.Evictions(); got != 90 {
		t.Errorf("Evictions() = %d, want 90", got)
	}
}
