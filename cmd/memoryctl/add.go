package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nanobot-ai/memorycore/pkg/memory"
)

func addCmd() *cobra.Command {
	var text, kind, scope, channel, chatID, senderID, workspaceID string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Manually insert a memory entry at confidence=1.0",
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" {
				return usageError("--text is required")
			}
			k := memory.Kind(kind)
			switch k {
			case memory.KindPreference, memory.KindFact, memory.KindDecision, memory.KindEpisodic:
			default:
				return usageError("invalid --kind %q (want preference, fact, decision, or episodic)", kind)
			}
			manualScope, err := parseScope(scope)
			if err != nil {
				return err
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

			scopes := memory.ResolveScopes(channel, chatID, senderID, workspaceID)
			now := time.Now().UTC()
			entry := memory.Entry{
				Kind:       k,
				ScopeKey:   manualScope.Resolve(scopes),
				Text:       text,
				Channel:    channel,
				ChatID:     chatID,
				SenderID:   senderID,
				Importance: 1.0,
				Confidence: 1.0,
				CreatedAt:  now,
				Source:     memory.SourceManual,
				ExpiresAt:  now.Add(cfg.Retention.ForKind(k)),
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultCmdTimeout)
			defer cancel()
			outcome, id, err := eng.Store().Upsert(ctx, entry)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", outcome, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "entry text (required)")
	cmd.Flags().StringVar(&kind, "kind", "", "preference, fact, decision, or episodic (required)")
	cmd.Flags().StringVar(&scope, "scope", "chat", "chat, user, or global")
	cmd.Flags().StringVar(&channel, "channel", "", "channel identifier")
	cmd.Flags().StringVar(&chatID, "chat-id", "", "chat identifier")
	cmd.Flags().StringVar(&senderID, "sender-id", "", "sender identifier")
	cmd.Flags().StringVar(&workspaceID, "workspace-id", "", "workspace identifier")
	return cmd
}
