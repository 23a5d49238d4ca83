package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nanobot-ai/memorycore/pkg/memory/store"
)

func pruneCmd() *cobra.Command {
	var olderThanDays int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete entries older than --older-than-days, independent of per-kind retention",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThanDays <= 0 {
				return usageError("--older-than-days must be positive")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			eng, err := newEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultCmdTimeout)
			defer cancel()

			if dryRun {
				n, err := eng.Store().CountPending(ctx, store.PrunePredicate{OlderThan: cutoff})
				if err != nil {
					return err
				}
				fmt.Printf("dry-run: would delete %d entries created before %s\n", n, cutoff.Format(time.RFC3339))
				return nil
			}

			n, err := eng.Store().Prune(ctx, store.PrunePredicate{OlderThan: cutoff})
			if err != nil {
				return err
			}
			fmt.Printf("pruned %d entries\n", n)
			return nil
		},
	}

	cmd.Flags().IntVar(&olderThanDays, "older-than-days", 0, "delete entries created more than this many days ago (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report how many entries would be deleted, without deleting")
	return cmd
}
