package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/cachebench"
	"github.com/discochess/cachebench/benchmark/analysis"
	"github.com/discochess/cachebench/benchmark/reporting"
	"github.com/discochess/cachebench/benchmark/scenario"
	"github.com/discochess/cachebench/internal/dataset"
	"github.com/discochess/cachebench/internal/stats"
	"github.com/discochess/cachebench/internal/stats/logger"
	"github.com/discochess/cachebench/internal/stats/recorder"
)

var (
	compareFlags  benchFlags
	datasetFile   string
	baseline      string
	outputFormat  string
	outputFile    string
	bootstrapIter int
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run one round and report how the backends compare",
	RunE:  runCompare,
}

func init() {
	compareFlags.register(compareCmd, 10*time.Second)
	compareCmd.Flags().StringVarP(&datasetFile, "dataset", "d", "", "JSONL dataset to read instead of generating one (supports .zst, .gz)")
	compareCmd.Flags().StringVar(&baseline, "baseline", cachebench.BackendHashMap, "backend the others are compared against")
	compareCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format: text, markdown")
	compareCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	compareCmd.Flags().IntVar(&bootstrapIter, "bootstrap", 10000, "bootstrap iterations for confidence intervals")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	rec := recorder.New()
	collector := stats.NewMulti(rec, logger.New(log.Named("stats")))

	b, err := cachebench.New(compareFlags.options(log, collector)...)
	if err != nil {
		return err
	}
	defer b.Stop()

	var results []*scenario.Result
	size := b.DatasetSize()
	if datasetFile != "" {
		ds, err := dataset.ReadFile(datasetFile)
		if err != nil {
			return fmt.Errorf("reading dataset: %w", err)
		}
		size = ds.Len()
		results, err = b.RunRoundWith(cmd.Context(), ds)
		if err != nil {
			return err
		}
	} else {
		results, err = b.RunRound(cmd.Context())
		if err != nil {
			return err
		}
	}

	rows := make([]reporting.Row, 0, len(results))
	samples := make([]analysis.Samples, 0, len(results))
	for _, res := range results {
		name := stats.Name(res.Backend, stats.MetricReadSeconds)
		rows = append(rows, reporting.Row{Result: res, Latency: rec.Summarize(name)})
		samples = append(samples, analysis.Samples{Backend: res.Backend, Latencies: rec.Samples(name)})
	}
	multi := analysis.CompareAll(samples, baseline, bootstrapIter, 0.95)

	var output io.Writer = cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	switch outputFormat {
	case "markdown":
		r := reporting.NewMarkdownReport(output)
		r.WriteHeader("Cache Backend Comparison")
		r.WriteMethodology(reporting.Methodology{
			DatasetSize: size,
			Budget:      b.Budget(),
			Store:       compareFlags.storeSummary(),
		})
		r.WriteSummaryTable(rows)
		if multi != nil {
			for _, c := range multi.Comparisons {
				r.WriteComparison(c)
			}
		}
		for _, s := range samples {
			r.WriteDistributionChart(s.Backend, s.Latencies)
		}
		r.WriteFooter()
		return nil
	case "text":
		fmt.Fprintf(output, "Keys: %d\nBudget: %v\nStore: %s\n\n", size, b.Budget().Duration, compareFlags.storeSummary())
		if err := reporting.WriteText(output, rows); err != nil {
			return err
		}
		if multi != nil {
			for _, c := range multi.Comparisons {
				fmt.Fprintf(output, "\n%s\n", c.Summary())
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", outputFormat)
	}
}
