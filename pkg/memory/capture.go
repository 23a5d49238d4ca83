package memory

import (
	"context"
	"sort"
	"time"
)

// CaptureResult summarizes one pipeline run for the caller/telemetry.
type CaptureResult struct {
	Saved   int
	Deduped int
	Dropped int
}

// Capture runs the pipeline: skip-gate, extract, safety filter,
// confidence/importance gate, truncate, upsert, mirror. It is idempotent:
// re-running on the same turn can only produce dedupe merges, never
// duplicate rows.
func (e *Engine) Capture(ctx context.Context, turn Turn) (CaptureResult, error) {
	var result CaptureResult
	if !e.cfg.Capture.Enabled || !e.cfg.Capture.ChannelAllowed(turn.Channel) {
		return result, nil
	}
	e.hygiene.MarkActivity()

	candidates := ExtractCandidates(turn, e.cfg.Capture.CaptureAssistant)

	type survivor struct {
		Candidate
	}
	var survivors []survivor
	for _, c := range candidates {
		verdict := CheckSafety(c.Text, defaultMinChars, defaultMaxChars)
		if !verdict.Accepted {
			e.metrics.IncCaptureDroppedSafety(verdict.Reason)
			result.Dropped++
			continue
		}
		if c.Confidence < e.cfg.Capture.MinConfidence || c.Importance < e.cfg.Capture.MinImportance {
			e.metrics.CaptureDroppedLowConf.Add(1)
			result.Dropped++
			continue
		}
		survivors = append(survivors, survivor{c})
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Confidence+survivors[i].Importance > survivors[j].Confidence+survivors[j].Importance
	})
	if len(survivors) > e.cfg.Capture.MaxEntriesPerTurn {
		result.Dropped += len(survivors) - e.cfg.Capture.MaxEntriesPerTurn
		survivors = survivors[:e.cfg.Capture.MaxEntriesPerTurn]
	}

	scopes := ResolveScopes(turn.Channel, turn.ChatID, turn.SenderID, turn.WorkspaceID)
	for _, s := range survivors {
		scopeKey := DefaultScopeFor(s.Kind, scopes)
		now := time.Now().UTC()
		entry := Entry{
			Kind:       s.Kind,
			ScopeKey:   scopeKey,
			Text:       s.Text,
			Channel:    turn.Channel,
			ChatID:     turn.ChatID,
			SenderID:   turn.SenderID,
			Importance: s.Importance,
			Confidence: s.Confidence,
			CreatedAt:  now,
			Source:     SourceAuto,
			ExpiresAt:  now.Add(e.cfg.Retention.forKind(s.Kind)),
		}
		outcome, id, err := e.store.Upsert(ctx, entry)
		if err != nil {
			e.log.Warn().Err(err).Str("kind", string(s.Kind)).Msg("memory capture: upsert failed, dropping candidate")
			result.Dropped++
			continue
		}
		entry.ID = id
		switch outcome {
		case Inserted:
			e.metrics.CaptureSaved.Add(1)
			result.Saved++
			if err := e.mirror.Write(entry); err != nil {
				e.log.Warn().Err(err).Msg("memory capture: mirror write failed")
			}
		case Merged:
			e.metrics.CaptureDeduped.Add(1)
			result.Deduped++
		}
	}
	return result, nil
}
