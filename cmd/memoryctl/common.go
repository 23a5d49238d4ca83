package main

import (
	"context"
	"time"

	"github.com/nanobot-ai/memorycore/pkg/memory"
)

const defaultCmdTimeout = 10 * time.Second

func newEngine(ctx context.Context, cfg memory.Config) (*memory.Engine, error) {
	return memory.New(ctx, cfg, newLogger())
}

func parseScope(s string) (memory.ManualScopeKind, error) {
	switch s {
	case "chat":
		return memory.ManualScopeChat, nil
	case "user":
		return memory.ManualScopeUser, nil
	case "global":
		return memory.ManualScopeGlobal, nil
	default:
		return "", usageError("invalid --scope %q (want chat, user, or global)", s)
	}
}
