package main

import (
	"context"
	"fmt"
	"time"

	"github.com/distrisearch/core/internal/rpc"
	"github.com/spf13/cobra"
)

var shardsCmd = &cobra.Command{
	Use:   "shards",
	Short: "Show term-shard distribution and registration counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dial(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		resp, err := client.Stub().GetShardStats(ctx, &rpc.GetShardStatsRequest{})
		if err != nil {
			return err
		}

		fmt.Printf("%-8s %-13s %-9s %-9s\n", "SHARD", "VIRT_NODES", "TERMS", "REGS")
		for _, s := range resp.Shards {
			fmt.Printf("%-8d %-13d %-9d %-9d\n", s.ShardID, s.VirtualNodes, s.NumTerms, s.NumRegistrations)
		}
		return nil
	},
}
