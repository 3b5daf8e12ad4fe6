// Package main is the entry point for the wpmetrics CLI tool, which stores
// water-polo match statistics and computes derived per-player analytics.
package main

import "github.com/pable/go-wp-metrics/cmd"

func main() {
	cmd.Execute()
}
