// Package reporting provides report generation for benchmark results.
package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/discochess/cachebench/benchmark/analysis"
	"github.com/discochess/cachebench/benchmark/scenario"
	"github.com/discochess/cachebench/internal/stats/recorder"
)

// Row is one backend's line in a summary table.
type Row struct {
	Result  *scenario.Result
	Latency recorder.Summary // Read latencies in seconds.
}

// Methodology describes how a round was run.
type Methodology struct {
	DatasetSize int
	Budget      scenario.Budget
	Store       string // Short description of the backing store.
}

// MarkdownReport generates benchmark reports in Markdown format.
type MarkdownReport struct {
	w   io.Writer
	now func() time.Time
}

// NewMarkdownReport creates a new Markdown report writer.
func NewMarkdownReport(w io.Writer) *MarkdownReport {
	return &MarkdownReport{w: w, now: time.Now}
}

// WriteHeader writes the report header.
func (r *MarkdownReport) WriteHeader(title string) {
	fmt.Fprintf(r.w, "# %s\n\n", title)
	fmt.Fprintf(r.w, "Generated: %s\n\n", r.now().Format(time.RFC3339))
}

// WriteMethodology writes the methodology section.
func (r *MarkdownReport) WriteMethodology(m Methodology) {
	fmt.Fprintln(r.w, "## Methodology")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Dataset size:** %d keys, sampled uniformly\n", m.DatasetSize)
	fmt.Fprintf(r.w, "- **Budget:** %s\n", budgetString(m.Budget))
	if m.Store != "" {
		fmt.Fprintf(r.w, "- **Backing store:** %s\n", m.Store)
	}
	fmt.Fprintln(r.w, "- **Metric:** read latency (lower is better) and hit rate (higher is better)")
	fmt.Fprintln(r.w, "- **Statistical tests:** Mann-Whitney U (non-parametric), Cohen's d effect size")
	fmt.Fprintln(r.w)
}

func budgetString(b scenario.Budget) string {
	switch {
	case b.Duration > 0 && b.Iterations > 0:
		return fmt.Sprintf("%v or %d reads, whichever comes first", b.Duration, b.Iterations)
	case b.Duration > 0:
		return b.Duration.String()
	default:
		return fmt.Sprintf("%d reads", b.Iterations)
	}
}

// WriteSummaryTable writes the summary comparison table.
func (r *MarkdownReport) WriteSummaryTable(rows []Row) {
	fmt.Fprintln(r.w, "## Summary")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Backend | Reads | Hit Rate | Failures | Mean | P50 | P99 | Final Size |")
	fmt.Fprintln(r.w, "|---------|-------|----------|----------|------|-----|-----|------------|")

	for _, row := range rows {
		res := row.Result
		fmt.Fprintf(r.w, "| %s | %d | %.1f%% | %d | %v | %v | %v | %d |\n",
			res.Backend, res.Reads, res.HitRate(), res.Failures,
			analysis.Seconds(row.Latency.Mean), analysis.Seconds(row.Latency.P50),
			analysis.Seconds(row.Latency.P99), res.Size)
	}
	fmt.Fprintln(r.w)
}

// WriteComparison writes a detailed comparison section.
func (r *MarkdownReport) WriteComparison(comp *analysis.BackendComparison) {
	fmt.Fprintf(r.w, "## %s vs %s\n\n", comp.Backend1, comp.Backend2)

	fmt.Fprintln(r.w, "### Descriptive Statistics")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Metric | "+comp.Backend1+" | "+comp.Backend2+" |")
	fmt.Fprintln(r.w, "|--------|"+strings.Repeat("-", len(comp.Backend1)+2)+"|"+strings.Repeat("-", len(comp.Backend2)+2)+"|")
	fmt.Fprintf(r.w, "| Mean | %v | %v |\n", analysis.Seconds(comp.Stats1.Mean), analysis.Seconds(comp.Stats2.Mean))
	fmt.Fprintf(r.w, "| Median | %v | %v |\n", analysis.Seconds(comp.Stats1.Median), analysis.Seconds(comp.Stats2.Median))
	fmt.Fprintf(r.w, "| Std Dev | %v | %v |\n", analysis.Seconds(comp.Stats1.StdDev), analysis.Seconds(comp.Stats2.StdDev))
	fmt.Fprintf(r.w, "| P99 | %v | %v |\n", analysis.Seconds(comp.Stats1.P99), analysis.Seconds(comp.Stats2.P99))
	fmt.Fprintf(r.w, "| Max | %v | %v |\n", analysis.Seconds(comp.Stats1.Max), analysis.Seconds(comp.Stats2.Max))
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "### Statistical Analysis")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Mann-Whitney U:** %.2f (z=%.2f, p=%.4f)\n",
		comp.MannWhitney.U, comp.MannWhitney.Z, comp.MannWhitney.PValue)
	fmt.Fprintf(r.w, "- **Effect size (Cohen's d):** %.2f (%s)\n",
		comp.EffectSize.CohensD, comp.EffectSize.Interpretation)
	fmt.Fprintf(r.w, "- **%.0f%% CI for mean difference:** [%v, %v]\n",
		comp.BootstrapCI.Confidence*100,
		analysis.Seconds(comp.BootstrapCI.LowerBound), analysis.Seconds(comp.BootstrapCI.UpperBound))
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "### Conclusion")
	fmt.Fprintln(r.w)
	if comp.WinnerConfident {
		fmt.Fprintf(r.w, "**%s** reads significantly faster than %s ",
			comp.Winner, other(comp.Winner, comp.Backend1, comp.Backend2))
		fmt.Fprintf(r.w, "(p < %.2f, effect size: %s).\n", analysis.Significance, comp.EffectSize.Interpretation)
	} else {
		fmt.Fprintf(r.w, "No statistically significant latency difference detected (p >= %.2f).\n", analysis.Significance)
	}
	fmt.Fprintln(r.w)
}

func other(winner, b1, b2 string) string {
	if winner == b1 {
		return b2
	}
	return b1
}

// WriteDistributionChart writes an ASCII histogram of latency samples,
// given in seconds.
func (r *MarkdownReport) WriteDistributionChart(name string, samples []float64) {
	fmt.Fprintf(r.w, "### %s Latency Distribution\n\n", name)
	fmt.Fprintln(r.w, "```")

	hist, lo, width := makeHistogram(samples, 10)
	maxCount := 0
	for _, count := range hist {
		maxCount = max(maxCount, count)
	}

	const barWidth = 40
	for i, count := range hist {
		barLen := 0
		if maxCount > 0 {
			barLen = count * barWidth / maxCount
		}
		from := analysis.Seconds(lo + float64(i)*width)
		fmt.Fprintf(r.w, "%10v │ %s %d\n", from, strings.Repeat("█", barLen), count)
	}

	fmt.Fprintln(r.w, "```")
	fmt.Fprintln(r.w)
}

// makeHistogram buckets samples into equal-width bins and returns the
// counts, the lower edge of the first bin and the bin width.
func makeHistogram(samples []float64, buckets int) ([]int, float64, float64) {
	hist := make([]int, buckets)
	if len(samples) == 0 {
		return hist, 0, 0
	}

	lo, hi := samples[0], samples[0]
	for _, v := range samples {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	width := (hi - lo) / float64(buckets)
	if width == 0 {
		hist[0] = len(samples)
		return hist, lo, 0
	}

	for _, v := range samples {
		bucket := min(int((v-lo)/width), buckets-1)
		hist[bucket]++
	}
	return hist, lo, width
}

// WriteFooter writes the report footer.
func (r *MarkdownReport) WriteFooter() {
	fmt.Fprintln(r.w, "---")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "*Report generated by cachebench*")
}
