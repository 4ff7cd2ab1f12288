package reporting

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/discochess/cachebench/benchmark/analysis"
)

// WriteText writes rows as an aligned plain-text table.
func WriteText(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BACKEND\tREADS\tHIT RATE\tFAILURES\tMEAN\tP50\tP99\tSIZE")
	for _, row := range rows {
		res := row.Result
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\t%d\t%v\t%v\t%v\t%d\n",
			res.Backend, res.Reads, res.HitRate(), res.Failures,
			analysis.Seconds(row.Latency.Mean), analysis.Seconds(row.Latency.P50),
			analysis.Seconds(row.Latency.P99), res.Size)
	}
	return tw.Flush()
}
