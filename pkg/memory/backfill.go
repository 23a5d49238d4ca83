package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const backfillMetaKey = "backfill_complete"

// legacySource pairs a file under the workspace with the Kind its lines
// become once imported. preferences/facts/decisions are the same three
// semantic mirror files Capture writes.
type legacySource struct {
	relPath string
	kind    Kind
}

func legacySources() []legacySource {
	return []legacySource{
		{relPath: "MEMORY.md", kind: KindFact},
		{relPath: filepath.Join("semantic", "preferences.md"), kind: KindPreference},
		{relPath: filepath.Join("semantic", "facts.md"), kind: KindFact},
		{relPath: filepath.Join("semantic", "decisions.md"), kind: KindDecision},
	}
}

// BackfillResult summarizes one backfill run for the operator CLI.
type BackfillResult struct {
	AlreadyDone bool
	Imported    int
	Skipped     int
}

// Backfill implements the `memory backfill` operator command: it imports a
// pre-existing MEMORY.md plus the semantic mirror files as source=backfill
// entries at confidence=1.0, scoped to the workspace-global scope, then
// sets the backfill_complete marker so re-running is a no-op unless force
// is set, which bypasses the marker check and re-imports.
func (e *Engine) Backfill(ctx context.Context, workspaceID string, force bool) (BackfillResult, error) {
	var result BackfillResult

	if !force {
		if _, done, err := e.store.GetMeta(ctx, backfillMetaKey); err != nil {
			return result, err
		} else if done {
			result.AlreadyDone = true
			return result, nil
		}
	}

	scopeKey := "workspace:" + workspaceID + ":global"
	now := time.Now().UTC()

	for _, src := range legacySources() {
		path := filepath.Join(e.workspaceDir, src.relPath)
		lines, err := readNonEmptyLines(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return result, WrapInternal("backfill: read legacy file "+src.relPath, err)
		}
		for _, line := range lines {
			text := stripListMarker(line)
			if text == "" {
				result.Skipped++
				continue
			}
			entry := Entry{
				Kind:       src.kind,
				ScopeKey:   scopeKey,
				Text:       text,
				Importance: 1.0,
				Confidence: 1.0,
				CreatedAt:  now,
				Source:     SourceBackfill,
				ExpiresAt:  now.Add(e.cfg.Retention.forKind(src.kind)),
			}
			outcome, _, err := e.store.Upsert(ctx, entry)
			if err != nil {
				e.log.Warn().Err(err).Str("file", src.relPath).Msg("memory backfill: upsert failed, skipping line")
				result.Skipped++
				continue
			}
			if outcome == Inserted {
				result.Imported++
			} else {
				result.Skipped++
			}
		}
	}

	if err := e.store.SetMeta(ctx, backfillMetaKey, now.Format(time.RFC3339)); err != nil {
		return result, err
	}
	return result, nil
}

func readNonEmptyLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}

// stripListMarker trims a leading markdown bullet ("- ", "* ") so imported
// lines match the plain text Capture would have stored. Header lines ("#",
// "##", ...) carry no memory content and are dropped entirely.
func stripListMarker(line string) string {
	if strings.HasPrefix(line, "#") {
		return ""
	}
	line = strings.TrimPrefix(line, "- ")
	line = strings.TrimPrefix(line, "* ")
	return strings.TrimSpace(line)
}
