// Package main provides the cachebench CLI tool for comparing caching
// strategies in front of a flaky backing store.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
