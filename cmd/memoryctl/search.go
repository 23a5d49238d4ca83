package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nanobot-ai/memorycore/pkg/memory"
)

func searchCmd() *cobra.Command {
	var query, channel, chatID, senderID, workspaceID, scope string
	var k int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the store directly, bypassing the retrieval fusion pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" {
				return usageError("--query is required")
			}
			var scopeKeys []string
			scopes := memory.ResolveScopes(channel, chatID, senderID, workspaceID)
			switch scope {
			case "", "all":
				scopeKeys = []string{scopes.Chat, scopes.User}
			case "chat":
				scopeKeys = []string{scopes.Chat}
			case "user":
				scopeKeys = []string{scopes.User}
			default:
				return usageError("invalid --scope %q (want chat, user, or all)", scope)
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

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultCmdTimeout)
			defer cancel()
			results, err := eng.Store().Search(ctx, scopeKeys, memory.AllKinds(), query, k)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("no matches")
				return nil
			}
			for _, r := range results {
				fmt.Printf("[%s] %.3f  %s  %s\n", r.Entry.Kind, r.FTSScore, r.Entry.ScopeKey, r.Entry.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "search text (required)")
	cmd.Flags().StringVar(&channel, "channel", "", "channel identifier")
	cmd.Flags().StringVar(&chatID, "chat-id", "", "chat identifier")
	cmd.Flags().StringVar(&senderID, "sender-id", "", "sender identifier")
	cmd.Flags().StringVar(&workspaceID, "workspace-id", "", "workspace identifier")
	cmd.Flags().StringVar(&scope, "scope", "all", "chat, user, or all")
	cmd.Flags().IntVar(&k, "k", 8, "max results")
	return cmd
}
