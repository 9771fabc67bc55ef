package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "searchd",
	Short: "Cluster node daemon for the distributed document-search engine",
	Long: `searchd runs one node of a distributed document-search cluster: a
Raft-replicated membership and placement table, a partition-tolerant
key/value layer for cross-partition metadata, a hypercube-routed replica
set, and the local inverted index that actually answers queries.`,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(startCmd)
}
