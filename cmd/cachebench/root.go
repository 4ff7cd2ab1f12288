package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/cachebench"
	"github.com/discochess/cachebench/internal/stats"
	"github.com/discochess/cachebench/internal/store/simstore"
)

var (
	// Global flags.
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cachebench",
	Short: "Compare caching strategies in front of an unreliable store",
	Long: `cachebench reads uniformly sampled keys through several cache backends
placed in front of a simulated backing store that randomly enters and
leaves an outage. It reports hit rates, read latencies and failures.

Examples:
  # Run rounds every 5 minutes; type p to print stats, q to quit
  cachebench run

  # Serve Prometheus metrics while running
  cachebench run --metrics-addr :9090

  # Run one round and write a Markdown report
  cachebench compare --budget 10s --format markdown --output report.md

  # Generate a reusable dataset
  cachebench gen --output keys.jsonl.zst`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// newLogger builds the CLI logger.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// benchFlags holds the flags shared by commands that run rounds.
type benchFlags struct {
	backends    []string
	datasetSize int
	budget      time.Duration
	iterations  int
	capacity    int
	secondLevel string
	concurrent  bool
	seed        uint64

	latency      time.Duration
	failureDelay time.Duration
	tick         time.Duration
	onset        float64
	recovery     float64
}

func (f *benchFlags) register(cmd *cobra.Command, defaultBudget time.Duration) {
	store := simstore.DefaultConfig()
	fs := cmd.Flags()
	fs.StringSliceVarP(&f.backends, "backends", "b", cachebench.Backends(), "backends to run")
	fs.IntVarP(&f.datasetSize, "size", "n", 5000, "number of keys per round")
	fs.DurationVar(&f.budget, "budget", defaultBudget, "read duration per scenario")
	fs.IntVar(&f.iterations, "iterations", 0, "maximum reads per scenario (0: no limit)")
	fs.IntVar(&f.capacity, "capacity", 0, "bounded backend capacity (0: unbounded)")
	fs.StringVar(&f.secondLevel, "second-level", cachebench.SecondLevelGoCache, "second-level cache: gocache, bigcache, ristretto")
	fs.BoolVar(&f.concurrent, "concurrent", false, "run scenarios in parallel, one store per backend")
	fs.Uint64Var(&f.seed, "seed", 0, "random seed (0: random)")
	fs.DurationVar(&f.latency, "latency", store.Latency, "store read latency")
	fs.DurationVar(&f.failureDelay, "failure-delay", store.FailureDelay, "store delay before a failed read")
	fs.DurationVar(&f.tick, "tick", store.TickInterval, "store failure toggler period")
	fs.Float64Var(&f.onset, "onset", store.OnsetProbability, "per-tick probability of an outage starting")
	fs.Float64Var(&f.recovery, "recovery", store.RecoveryProbability, "per-tick probability of an outage ending")
}

func (f *benchFlags) options(logger *zap.Logger, collector stats.Collector) []cachebench.Option {
	opts := []cachebench.Option{
		cachebench.WithLogger(logger),
		cachebench.WithStats(collector),
		cachebench.WithBackends(f.backends...),
		cachebench.WithDatasetSize(f.datasetSize),
		cachebench.WithScenarioBudget(f.budget),
		cachebench.WithScenarioIterations(f.iterations),
		cachebench.WithCapacity(f.capacity),
		cachebench.WithSecondLevel(f.secondLevel),
		cachebench.WithConcurrentScenarios(f.concurrent),
		cachebench.WithStoreConfig(simstore.Config{
			Latency:             f.latency,
			FailureDelay:        f.failureDelay,
			TickInterval:        f.tick,
			OnsetProbability:    f.onset,
			RecoveryProbability: f.recovery,
		}),
	}
	if f.seed != 0 {
		opts = append(opts, cachebench.WithSeed(f.seed))
	}
	return opts
}

// storeSummary describes the configured backing store for reports.
func (f *benchFlags) storeSummary() string {
	return fmt.Sprintf("simulated, %v latency, %v failure delay, outage onset %.2f%% and recovery %.0f%% per %v tick (%.1f%% of time failing)",
		f.latency, f.failureDelay, f.onset*100, f.recovery*100, f.tick,
		simstore.StationaryFailingFraction(f.onset, f.recovery)*100)
}

// seedOrRandom returns seed, or a random value when seed is zero.
func seedOrRandom(seed uint64) uint64 {
	if seed != 0 {
		return seed
	}
	return rand.Uint64()
}
