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
	Use:   "searchctl",
	Short: "Admin client for a distributed document-search cluster",
}

func init() {
	rootCmd.PersistentFlags().String("node", "127.0.0.1:7100", "RPC address of a cluster member to talk to")

	rootCmd.AddCommand(clusterCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(documentCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(shardsCmd)
}
