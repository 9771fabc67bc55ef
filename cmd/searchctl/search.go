package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/distrisearch/core/internal/rpc"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Run a distributed query and print ranked results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dial(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		strategy, _ := cmd.Flags().GetString("strategy")
		filterPairs, _ := cmd.Flags().GetStringSlice("filter")

		filters := make(map[string]string, len(filterPairs))
		for _, pair := range filterPairs {
			k, v, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid --filter %q, expected key=value", pair)
			}
			filters[k] = v
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		resp, err := client.Stub().Search(ctx, &rpc.SearchRequest{
			Query:    args[0],
			Filters:  filters,
			Page:     page,
			PageSize: pageSize,
			Strategy: strategy,
		})
		if err != nil {
			return err
		}

		fmt.Printf("query_type=%s total=%d page=%d/%d (%.1fms)\n",
			resp.QueryType, resp.TotalResults, resp.Page, resp.PageSize, resp.SearchTimeMs)
		fmt.Printf("searched=%v failed=%v\n\n", resp.SearchedNodes, resp.FailedNodes)
		for i, item := range resp.Items {
			fmt.Printf("%d. %s (score=%.3f relevance=%.3f)\n", i+1, item.DocID, item.Score, item.Relevance)
			if item.Snippet != "" {
				fmt.Printf("   %s\n", item.Snippet)
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("page", 1, "Page number, 1-indexed")
	searchCmd.Flags().Int("page-size", 0, "Results per page (0 uses the cluster default)")
	searchCmd.Flags().String("strategy", "HYBRID", "Ranking strategy: DISTANCE, RECENCY, POPULARITY, HYBRID, RELEVANCE")
	searchCmd.Flags().StringSlice("filter", nil, "Query filter as key=value, repeatable")
}
