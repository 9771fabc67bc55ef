package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/distrisearch/core/internal/rpc"
	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Create, read, and delete documents",
}

func init() {
	documentCmd.AddCommand(documentPutCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)

	documentPutCmd.Flags().StringSlice("meta", nil, "Metadata as key=value, repeatable")
}

var documentPutCmd = &cobra.Command{
	Use:   "put CONTENT",
	Short: "Index a new document, replicated to its quorum",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dial(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		metaPairs, _ := cmd.Flags().GetStringSlice("meta")
		metadata := make(map[string]string, len(metaPairs))
		for _, pair := range metaPairs {
			k, v, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid --meta %q, expected key=value", pair)
			}
			metadata[k] = v
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		resp, err := client.Stub().PutDocument(ctx, &rpc.PutDocumentRequest{Content: args[0], Metadata: metadata})
		if err != nil {
			return err
		}
		fmt.Printf("doc_id=%s partition_id=%s primary=%s replicas=%v\n",
			resp.DocID, resp.PartitionID, resp.PrimaryNodeID, resp.ReplicaNodeIDs)
		return nil
	},
}

var documentGetCmd = &cobra.Command{
	Use:   "get DOC_ID",
	Short: "Fetch a document by ID from --node's local index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dial(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		resp, err := client.Stub().GetDocument(ctx, &rpc.GetDocumentRequest{DocID: args[0]})
		if err != nil {
			return err
		}
		if !resp.Found {
			return fmt.Errorf("document %s not found on this node", args[0])
		}
		fmt.Printf("Content: %s\n", resp.Content)
		for k, v := range resp.Metadata {
			fmt.Printf("  %s = %s\n", k, v)
		}
		return nil
	},
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete DOC_ID",
	Short: "Delete a document from the cluster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dial(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		resp, err := client.Stub().DeleteDocument(ctx, &rpc.DeleteDocumentRequest{DocID: args[0]})
		if err != nil {
			return err
		}
		fmt.Printf("deleted=%v\n", resp.Deleted)
		return nil
	},
}
