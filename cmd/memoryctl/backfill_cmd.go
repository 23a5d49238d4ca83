package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func backfillCmd() *cobra.Command {
	var workspaceID string
	var force bool

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "One-time import from a legacy MEMORY.md and semantic mirror files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			eng, err := newEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultCmdTimeout)
			defer cancel()
			result, err := eng.Backfill(ctx, workspaceID, force)
			if err != nil {
				return err
			}
			if result.AlreadyDone {
				fmt.Println("backfill already completed, nothing to do (use --force to re-import)")
				return nil
			}
			fmt.Printf("imported %d, skipped %d\n", result.Imported, result.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace-id", "default", "workspace to scope imported entries to")
	cmd.Flags().BoolVar(&force, "force", false, "re-import even if backfill already completed")
	return cmd
}
