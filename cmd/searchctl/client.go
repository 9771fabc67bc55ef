package main

import (
	"github.com/distrisearch/core/internal/rpc"
	"github.com/spf13/cobra"
)

// dial opens an AdminClient against the --node flag's address, inherited
// from the parent command the way the teacher's client subcommands resolve
// --manager.
func dial(cmd *cobra.Command) (*rpc.AdminClient, error) {
	addr, err := cmd.Flags().GetString("node")
	if err != nil {
		return nil, err
	}
	return rpc.NewAdminClient(addr)
}
