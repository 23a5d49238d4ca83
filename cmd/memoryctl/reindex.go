package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func reindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the FTS index from the canonical table",
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
			if err := eng.Store().Reindex(ctx); err != nil {
				return err
			}
			fmt.Println("reindex complete")
			return nil
		},
	}
}
