package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nanobot-ai/memorycore/pkg/memory"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print entry counters, row counts per kind, and the DB path",
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
			stats, err := eng.Store().Stats(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("db: %s\n", stats.DBPath)
			fmt.Printf("total entries: %d\n", stats.TotalEntries)
			for _, k := range []string{"preference", "fact", "decision", "episodic"} {
				fmt.Printf("  %-10s %d\n", k, stats.ByKind[memory.Kind(k)])
			}
			m := eng.Metrics()
			fmt.Printf("recall: %d hit / %d miss\n", m.RecallHit.Load(), m.RecallMiss.Load())
			fmt.Printf("capture: %d saved / %d deduped / %d dropped(low-conf) / %d dropped(safety)\n",
				m.CaptureSaved.Load(), m.CaptureDeduped.Load(), m.CaptureDroppedLowConf.Load(), m.CaptureDroppedSafetyTotal())
			return nil
		},
	}
}
