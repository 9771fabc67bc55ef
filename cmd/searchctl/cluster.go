package main

import (
	"context"
	"fmt"
	"time"

	"github.com/distrisearch/core/internal/rpc"
	"github.com/spf13/cobra"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Inspect and administer the cluster as a whole",
}

func init() {
	clusterCmd.AddCommand(clusterInfoCmd)
	clusterCmd.AddCommand(clusterHealthCmd)
	clusterCmd.AddCommand(clusterRebalanceCmd)
	clusterCmd.AddCommand(clusterElectCmd)
	clusterCmd.AddCommand(clusterPartitionsCmd)
}

var clusterInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the current leader and full node list",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dial(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		master, err := client.Stub().GetMaster(ctx, &rpc.GetMasterRequest{})
		if err != nil {
			return err
		}
		fmt.Printf("Leader: %s (%s)\n\n", master.LeaderID, master.LeaderAddr)

		nodes, err := client.Stub().ListNodes(ctx, &rpc.ListNodesRequest{})
		if err != nil {
			return err
		}
		fmt.Printf("%-16s %-24s %-8s %-10s %6s %6s\n", "ID", "ADDRESS", "ROLE", "STATUS", "DOCS", "PARTS")
		for _, n := range nodes.Nodes {
			fmt.Printf("%-16s %-24s %-8s %-10s %6d %6d\n", n.ID, n.Address, n.Role, n.Status, n.DocumentCount, n.PartitionCount)
		}
		return nil
	},
}

var clusterHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check cluster quorum health as seen from --node",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dial(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		resp, err := client.Stub().Health(ctx, &rpc.HealthRequest{})
		if err != nil {
			return err
		}
		fmt.Printf("healthy=%v message=%s\n", resp.Healthy, resp.Message)
		return nil
	},
}

var clusterRebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "Trigger one rebalance cycle on the leader",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dial(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		resp, err := client.Stub().TriggerRebalance(ctx, &rpc.TriggerRebalanceRequest{})
		if err != nil {
			return err
		}
		fmt.Printf("triggered=%v\n", resp.Triggered)
		return nil
	},
}

var clusterElectCmd = &cobra.Command{
	Use:   "elect",
	Short: "Force the contacted node to transfer leadership and trigger a fresh election",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dial(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		resp, err := client.Stub().TriggerElection(ctx, &rpc.TriggerElectionRequest{})
		if err != nil {
			return err
		}
		fmt.Printf("triggered=%v\n", resp.Triggered)
		return nil
	},
}

var clusterPartitionsCmd = &cobra.Command{
	Use:   "partitions",
	Short: "List every partition and its replica set",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dial(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		resp, err := client.Stub().GetPartitions(ctx, &rpc.GetPartitionsRequest{})
		if err != nil {
			return err
		}
		for _, p := range resp.Partitions {
			fmt.Printf("%-16s primary=%-16s replicas=%v\n", p.ID, p.PrimaryNodeID, p.ReplicaNodeIDs)
		}
		return nil
	},
}
