package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilnworks/syncengine/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print online state, queue depth, and unresolved conflict count",
	RunE: func(cmd *cobra.Command, args []string) error {
		acct, err := requireAccount()
		if err != nil {
			return err
		}

		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		online := a.gate.IsOnline(cmd.Context())
		pending, err := a.st.CountOperationsByStatus(cmd.Context(), acct, types.OperationPending)
		if err != nil {
			return fmt.Errorf("count pending operations: %w", err)
		}
		retrying, err := a.st.CountOperationsByStatus(cmd.Context(), acct, types.OperationRetrying)
		if err != nil {
			return fmt.Errorf("count retrying operations: %w", err)
		}
		abandoned, err := a.st.CountOperationsByStatus(cmd.Context(), acct, types.OperationAbandoned)
		if err != nil {
			return fmt.Errorf("count abandoned operations: %w", err)
		}
		conflicts, err := a.st.ListUnresolvedConflicts(cmd.Context(), acct)
		if err != nil {
			return fmt.Errorf("list unresolved conflicts: %w", err)
		}
		uploads, err := a.st.ListQueuedMediaUploads(cmd.Context(), acct)
		if err != nil {
			return fmt.Errorf("list queued media uploads: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "account:            %s\n", acct)
		fmt.Fprintf(cmd.OutOrStdout(), "online:             %t\n", online)
		fmt.Fprintf(cmd.OutOrStdout(), "operations pending: %d\n", pending)
		fmt.Fprintf(cmd.OutOrStdout(), "operations retrying:%d\n", retrying)
		fmt.Fprintf(cmd.OutOrStdout(), "operations abandoned:%d\n", abandoned)
		fmt.Fprintf(cmd.OutOrStdout(), "unresolved conflicts:%d\n", len(conflicts))
		fmt.Fprintf(cmd.OutOrStdout(), "queued media uploads:%d\n", len(uploads))
		return nil
	},
}
