package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/cachebench"
	"github.com/discochess/cachebench/internal/stats"
	"github.com/discochess/cachebench/internal/stats/logger"
	promstats "github.com/discochess/cachebench/internal/stats/prometheus"
)

var (
	runFlags    benchFlags
	interval    time.Duration
	metricsAddr string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run benchmark rounds periodically",
	Long: `Run benchmark rounds until told to stop. A round starts immediately and
then once per interval. Commands are read from stdin:

  p  print aggregated statistics
  q  stop the benchmark and exit`,
	RunE: runRun,
}

func init() {
	runFlags.register(runCmd, 40*time.Second)
	runCmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "period between rounds")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	collector := stats.NewMulti(promstats.New(reg), logger.New(log.Named("stats")))

	opts := append(runFlags.options(log, collector), cachebench.WithRoundInterval(interval))
	b, err := cachebench.New(opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		log.Info("serving metrics", zap.String("addr", metricsAddr))
	}

	if err := b.Start(ctx); err != nil {
		b.Stop()
		return err
	}

	printStats := func(w io.Writer) error {
		collector.IncCounter(stats.MetricPrints, 1)
		return promstats.Dump(reg, stats.Namespace+"_", w)
	}
	loopErr := commandLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), printStats)

	fmt.Fprintln(cmd.ErrOrStderr(), "Stopping benchmark...")
	if err := b.Stop(); err != nil {
		return fmt.Errorf("stopping benchmark: %w", err)
	}
	return loopErr
}

// commandLoop reads single-letter commands from in until q, end of input
// or ctx is done.
func commandLoop(ctx context.Context, in io.Reader, out io.Writer, printStats func(io.Writer) error) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			switch strings.TrimSpace(line) {
			case "":
			case "p":
				if err := printStats(out); err != nil {
					fmt.Fprintf(out, "Error: %v\n", err)
				}
			case "q":
				return nil
			default:
				fmt.Fprintln(out, "Unknown command")
			}
		}
	}
}
