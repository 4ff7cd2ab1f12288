package analysis

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Samples holds the read latencies, in seconds, observed for one backend.
type Samples struct {
	Backend   string
	Latencies []float64
}

// BackendComparison is a statistical comparison of two backends' read
// latencies.
type BackendComparison struct {
	Backend1        string
	Backend2        string
	Stats1          *DescriptiveStats
	Stats2          *DescriptiveStats
	MannWhitney     *MannWhitneyResult
	EffectSize      *EffectSize
	BootstrapCI     *BootstrapResult
	Winner          string // Backend with the lower mean latency, or "tie".
	WinnerConfident bool   // True if the difference is significant.
}

// CompareBackends compares the latency samples of two backends.
func CompareBackends(s1, s2 Samples, bootstrapIterations int, confidence float64) *BackendComparison {
	stats1 := Describe(s1.Latencies)
	stats2 := Describe(s2.Latencies)
	mw := MannWhitneyU(s1.Latencies, s2.Latencies)

	winner, confident := "tie", false
	switch {
	case stats1.Mean < stats2.Mean:
		winner, confident = s1.Backend, mw.Significant
	case stats2.Mean < stats1.Mean:
		winner, confident = s2.Backend, mw.Significant
	}

	return &BackendComparison{
		Backend1:        s1.Backend,
		Backend2:        s2.Backend,
		Stats1:          stats1,
		Stats2:          stats2,
		MannWhitney:     mw,
		EffectSize:      ComputeEffectSize(s1.Latencies, s2.Latencies),
		BootstrapCI:     BootstrapConfidenceInterval(s1.Latencies, s2.Latencies, bootstrapIterations, confidence, nil),
		Winner:          winner,
		WinnerConfident: confident,
	}
}

// Summary returns a human-readable summary of the comparison.
func (c *BackendComparison) Summary() string {
	sig := "not statistically significant"
	if c.MannWhitney.Significant {
		sig = fmt.Sprintf("statistically significant (p=%.4f)", c.MannWhitney.PValue)
	}

	return fmt.Sprintf(
		"%s vs %s:\n"+
			"  %s: mean=%v, median=%v, p99=%v\n"+
			"  %s: mean=%v, median=%v, p99=%v\n"+
			"  Difference: %v (%.1f%%)\n"+
			"  Effect size: %.2f (%s)\n"+
			"  Result: %s, %s",
		c.Backend1, c.Backend2,
		c.Backend1, Seconds(c.Stats1.Mean), Seconds(c.Stats1.Median), Seconds(c.Stats1.P99),
		c.Backend2, Seconds(c.Stats2.Mean), Seconds(c.Stats2.Median), Seconds(c.Stats2.P99),
		Seconds(c.Stats1.Mean-c.Stats2.Mean),
		safePctDiff(c.Stats1.Mean, c.Stats2.Mean),
		c.EffectSize.CohensD, c.EffectSize.Interpretation,
		c.Winner, sig,
	)
}

// Seconds converts a latency in seconds to a duration rounded to the
// microsecond.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second)).Round(time.Microsecond)
}

func safePctDiff(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return (a - b) / b * 100
}

// MultiBackendComparison compares several backends against a baseline.
type MultiBackendComparison struct {
	Baseline    string
	Comparisons []*BackendComparison
}

// CompareAll compares every backend against baseline, in backend name
// order. It returns nil if baseline has no samples.
func CompareAll(samples []Samples, baseline string, bootstrapIterations int, confidence float64) *MultiBackendComparison {
	i := slices.IndexFunc(samples, func(s Samples) bool { return s.Backend == baseline })
	if i < 0 {
		return nil
	}
	base := samples[i]

	others := slices.DeleteFunc(slices.Clone(samples), func(s Samples) bool { return s.Backend == baseline })
	slices.SortFunc(others, func(a, b Samples) int { return strings.Compare(a.Backend, b.Backend) })

	multi := &MultiBackendComparison{Baseline: baseline}
	for _, s := range others {
		multi.Comparisons = append(multi.Comparisons, CompareBackends(base, s, bootstrapIterations, confidence))
	}
	return multi
}
