package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Drain the pending operation queue for an account",
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

		if err := a.q.Drain(cmd.Context(), acct); err != nil {
			return fmt.Errorf("drain operations: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "drain complete")
		return nil
	},
}
