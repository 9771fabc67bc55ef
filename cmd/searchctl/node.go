package main

import (
	"context"
	"fmt"
	"time"

	"github.com/distrisearch/core/internal/hypercube"
	"github.com/distrisearch/core/internal/rpc"
	"github.com/distrisearch/core/internal/types"
	"github.com/spf13/cobra"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Manage individual cluster nodes",
}

func init() {
	nodeCmd.AddCommand(nodeListCmd)
	nodeCmd.AddCommand(nodeGetCmd)
	nodeCmd.AddCommand(nodeJoinCmd)
	nodeCmd.AddCommand(nodeRemoveCmd)

	nodeJoinCmd.Flags().String("address", "", "RPC address the new node will be reachable at")
	nodeJoinCmd.Flags().String("role", string(types.NodeRoleSlave), "Raft voting role (master or slave)")
	nodeJoinCmd.Flags().Int("hypercube-dims", 20, "Hypercube dimensionality used to derive the node's address")
	_ = nodeJoinCmd.MarkFlagRequired("address")
}

var nodeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known node",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dial(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		resp, err := client.Stub().ListNodes(ctx, &rpc.ListNodesRequest{})
		if err != nil {
			return err
		}
		for _, n := range resp.Nodes {
			fmt.Printf("%s\t%s\t%s\t%s\n", n.ID, n.Address, n.Role, n.Status)
		}
		return nil
	},
}

var nodeGetCmd = &cobra.Command{
	Use:   "get NODE_ID",
	Short: "Show details for a single node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dial(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		resp, err := client.Stub().GetNodeDetails(ctx, &rpc.GetNodeDetailsRequest{NodeID: args[0]})
		if err != nil {
			return err
		}
		if !resp.Found {
			return fmt.Errorf("node %s not found", args[0])
		}
		n := resp.Node
		fmt.Printf("ID:             %s\n", n.ID)
		fmt.Printf("Address:        %s\n", n.Address)
		fmt.Printf("Role:           %s\n", n.Role)
		fmt.Printf("Status:         %s\n", n.Status)
		fmt.Printf("CPU load:       %.2f\n", n.CPULoad)
		fmt.Printf("Memory load:    %.2f\n", n.MemoryLoad)
		fmt.Printf("Disk load:      %.2f\n", n.DiskLoad)
		fmt.Printf("Documents:      %d\n", n.DocumentCount)
		fmt.Printf("Partitions:     %d\n", n.PartitionCount)
		return nil
	},
}

var nodeJoinCmd = &cobra.Command{
	Use:   "join NODE_ID",
	Short: "Admit a new node into the cluster through --node's leader",
	Long: `join submits a JoinCluster request against --node; if that node isn't
the current Raft leader the request fails with a NotLeader error carrying
the real leader's address, which this command retries against once.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("node")
		nodeAddr, _ := cmd.Flags().GetString("address")
		role, _ := cmd.Flags().GetString("role")
		dims, _ := cmd.Flags().GetInt("hypercube-dims")

		req := &rpc.JoinClusterRequest{
			NodeID:      args[0],
			Address:     nodeAddr,
			HypercubeID: hypercube.AssignID(args[0], dims),
			Role:        role,
		}

		resp, err := sendJoin(addr, req)
		if err != nil {
			if hint, ok := leaderHint(err); ok && hint != addr {
				resp, err = sendJoin(hint, req)
			}
			if err != nil {
				return err
			}
		}
		fmt.Printf("accepted=%v\n", resp.Accepted)
		return nil
	},
}

var nodeRemoveCmd = &cobra.Command{
	Use:   "remove NODE_ID",
	Short: "Evict a node from the cluster, promoting its partitions' replicas",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dial(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		resp, err := client.Stub().RemoveNode(ctx, &rpc.RemoveNodeRequest{NodeID: args[0]})
		if err != nil {
			return err
		}
		fmt.Printf("removed=%v\n", resp.Removed)
		return nil
	},
}

func sendJoin(addr string, req *rpc.JoinClusterRequest) (*rpc.JoinClusterResponse, error) {
	client, err := rpc.NewAdminClient(addr)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return client.Stub().JoinCluster(ctx, req)
}
