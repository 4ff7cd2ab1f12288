package prometheus

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Dump writes a one-line summary of every gathered metric whose name starts
// with prefix: counter and gauge values, histogram count and mean.
func Dump(g prometheus.Gatherer, prefix string, w io.Writer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), prefix) {
			continue
		}
		for _, m := range mf.GetMetric() {
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				fmt.Fprintf(w, "%s: count=%.0f\n", mf.GetName(), m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				fmt.Fprintf(w, "%s: value=%.0f\n", mf.GetName(), m.GetGauge().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				var mean float64
				if h.GetSampleCount() > 0 {
					mean = h.GetSampleSum() / float64(h.GetSampleCount())
				}
				fmt.Fprintf(w, "%s: count=%d, mean=%.6f\n", mf.GetName(), h.GetSampleCount(), mean)
			}
		}
	}
	return nil
}
