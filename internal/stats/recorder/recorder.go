// Package recorder provides an in-memory stats collector that keeps every
// histogram sample, for reports and statistical comparison after a run.
package recorder

import (
	"slices"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/discochess/cachebench/internal/stats"
)

// Compile-time check that Recorder implements stats.Collector.
var _ stats.Collector = (*Recorder)(nil)

// Recorder accumulates counters, gauges and histogram samples.
// It is safe for concurrent use.
type Recorder struct {
	mu         sync.Mutex
	counters   map[string]int64
	gauges     map[string]int64
	histograms map[string][]float64
}

// New creates an empty recorder.
func New() *Recorder {
	return &Recorder{
		counters:   make(map[string]int64),
		gauges:     make(map[string]int64),
		histograms: make(map[string][]float64),
	}
}

func (r *Recorder) IncCounter(name string, delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name] += delta
}

func (r *Recorder) SetGauge(name string, value int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges[name] = value
}

func (r *Recorder) ObserveHistogram(name string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histograms[name] = append(r.histograms[name], value)
}

// Counter returns the current value of a counter.
func (r *Recorder) Counter(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}

// Gauge returns the last value set on a gauge.
func (r *Recorder) Gauge(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gauges[name]
}

// Samples returns a copy of the samples recorded for a histogram.
func (r *Recorder) Samples(name string) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.histograms[name])
}

// Reset discards everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.counters)
	clear(r.gauges)
	clear(r.histograms)
}

// Summary describes the samples of one histogram.
type Summary struct {
	Count int
	Mean  float64
	Min   float64
	Max   float64
	P50   float64
	P99   float64
}

// Summarize computes a Summary for the samples of a histogram.
func (r *Recorder) Summarize(name string) Summary {
	return Summarize(r.Samples(name))
}

// Summarize computes a Summary for samples.
func Summarize(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	return Summary{
		Count: len(sorted),
		Mean:  stat.Mean(sorted, nil),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		P50:   stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P99:   stat.Quantile(0.99, stat.Empirical, sorted, nil),
	}
}
