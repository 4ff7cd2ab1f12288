package main

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/discochess/cachebench/internal/dataset"
)

var (
	genOutput string
	genSize   int
	genSeed   uint64

	genLevel       int
	genConcurrency int
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a dataset file",
	Long: `Generate a dataset of random UUID keys mapped to their index and write
it as JSONL. The compression is chosen by extension: .zst, .gz or none.`,
	RunE: runGen,
}

func init() {
	genCmd.Flags().StringVarP(&genOutput, "output", "o", "", "output file")
	genCmd.Flags().IntVarP(&genSize, "size", "n", 5000, "number of entries")
	genCmd.Flags().Uint64Var(&genSeed, "seed", 0, "random seed (0: random)")
	genCmd.Flags().IntVar(&genLevel, "level", 0, "compression level: zstd 1-22 or gzip 1-9 (0: codec default)")
	genCmd.Flags().IntVar(&genConcurrency, "concurrency", 0, "zstd encoder goroutines (0: codec default)")
	genCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(genCmd)
}

func runGen(cmd *cobra.Command, args []string) error {
	c, err := dataset.CompressionFor(genOutput, genLevel, genConcurrency)
	if err != nil {
		return err
	}

	var seed [32]byte
	s := seedOrRandom(genSeed)
	for i := range seed {
		seed[i] = byte(s >> (8 * (i % 8)))
	}

	ds, err := dataset.Generate(genSize, rand.NewChaCha8(seed))
	if err != nil {
		return err
	}
	if err := dataset.WriteFileWith(genOutput, ds, c); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}

	info, err := os.Stat(genOutput)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s (%s)\n", ds.Len(), genOutput, formatBytes(info.Size()))
	return nil
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
