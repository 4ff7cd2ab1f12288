// Package stats provides a unified interface for collecting benchmark
// observations.
package stats

// Namespace prefixes every metric name.
const Namespace = "cachebench"

// Per-backend metric suffixes. Combine with Name.
const (
	// Read metrics.
	MetricReads      = "reads_total"
	MetricCacheReads = "cache_reads_total"
	MetricStoreReads = "store_reads_total"
	MetricFailures   = "failures_total"

	// Latency metrics, in seconds.
	MetricReadSeconds    = "read_seconds"
	MetricFailureSeconds = "failure_seconds"

	// Cache metrics.
	MetricSize      = "size"
	MetricEvictions = "evictions_total"
)

// Global metric names.
const (
	MetricRounds = Namespace + "_rounds_total"
	MetricPrints = Namespace + "_print_total"
)

// Name returns the full metric name for a scenario, e.g.
// Name("hashmap", MetricReads) is "cachebench_hashmap_reads_total".
func Name(scenario, metric string) string {
	return Namespace + "_" + scenario + "_" + metric
}

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
