package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Inspect detected sync conflicts",
}

var conflictsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List unresolved conflicts for an account",
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

		conflicts, err := a.st.ListUnresolvedConflicts(cmd.Context(), acct)
		if err != nil {
			return fmt.Errorf("list unresolved conflicts: %w", err)
		}
		if len(conflicts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no unresolved conflicts")
			return nil
		}
		for _, c := range conflicts {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s/%s  field=%s  type=%s\n",
				c.Fingerprint(), c.EntityType, c.EntityID, c.Field, c.Type)
		}
		return nil
	},
}

func init() {
	conflictsCmd.AddCommand(conflictsListCmd)
}
