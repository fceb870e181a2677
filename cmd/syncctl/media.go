package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Inspect and drive the media upload queue",
}

var mediaDrainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Drain queued media uploads for an account",
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

		processed, err := a.uploadQ.Drain(cmd.Context(), acct)
		if err != nil {
			return fmt.Errorf("drain media uploads: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "processed %d upload(s)\n", processed)
		return nil
	},
}

func init() {
	mediaCmd.AddCommand(mediaDrainCmd)
}
