package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/nanobot-ai/memorycore/pkg/textfs"
)

const recencyHalfLife = 7 * 24 * time.Hour

const (
	weightFTS        = 0.65
	weightImportance = 0.20
	weightRecency    = 0.15
)

// RetrievalRequest carries everything the retrieval pipeline needs.
type RetrievalRequest struct {
	Channel     string
	ChatID      string
	SenderID    string
	WorkspaceID string
	UserText    string
	ReplyToText string
}

// RetrievalResult is the rendered, bounded context slice plus the entries
// that produced it (exposed mainly for tests/telemetry).
type RetrievalResult struct {
	Block       string
	Entries     []Entry
	PromptChars int
	Hit         bool
}

type fusedEntry struct {
	entry Entry
	score float64
}

// Retrieve runs the retrieval pipeline: build query, dual-scope search,
// per-layer normalization, recency decay, weighted fusion, and bounded
// rendering into a prompt-ready block.
func (e *Engine) Retrieve(ctx context.Context, req RetrievalRequest) (RetrievalResult, error) {
	if !e.cfg.Memory.Enabled {
		return RetrievalResult{}, nil
	}
	e.hygiene.MarkActivity()

	// Step 1: build query string.
	query := strings.TrimSpace(req.UserText)
	if req.ReplyToText != "" {
		query = strings.TrimSpace(query + " " + req.ReplyToText)
	}
	query = strings.Join(strings.Fields(query), " ")

	scopes := ResolveScopes(req.Channel, req.ChatID, req.SenderID, req.WorkspaceID)

	// Step 2: dual-scope search.
	chatResults, err := e.store.Search(ctx, []string{scopes.Chat}, AllKinds(), query, e.cfg.Recall.MaxResults)
	if err != nil {
		e.log.Warn().Err(err).Msg("memory retrieve: chat layer search failed")
		chatResults = nil
	}
	userResults, err := e.store.Search(ctx, []string{scopes.User},
		[]Kind{KindPreference, KindFact}, query, e.cfg.Recall.UserPreferenceLayerResults)
	if err != nil {
		e.log.Warn().Err(err).Msg("memory retrieve: user layer search failed")
		userResults = nil
	}

	if len(chatResults) == 0 && len(userResults) == 0 {
		e.metrics.RecallMiss.Add(1)
		return RetrievalResult{}, nil
	}

	now := time.Now().UTC()
	fused := make(map[string]fusedEntry)
	fuseLayer(chatResults, now, fused)
	fuseLayer(userResults, now, fused)

	// Step 6: merge, dedupe by id, sort by final_score desc with tie-breaks.
	entries := make([]fusedEntry, 0, len(fused))
	for _, fe := range fused {
		entries = append(entries, fe)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.entry.Importance != b.entry.Importance {
			return a.entry.Importance > b.entry.Importance
		}
		if !a.entry.LastSeenAt.Equal(b.entry.LastSeenAt) {
			return a.entry.LastSeenAt.After(b.entry.LastSeenAt)
		}
		return a.entry.ID < b.entry.ID
	})
	if len(entries) > e.cfg.Recall.MaxResults {
		entries = entries[:e.cfg.Recall.MaxResults]
	}

	// Step 7: render, bounded by maxPromptChars, whole lines only.
	lines := make([]string, len(entries))
	finalEntries := make([]Entry, len(entries))
	for i, fe := range entries {
		lines[i] = "- [" + string(fe.entry.Kind) + "] " + fe.entry.Text
		finalEntries[i] = fe.entry
	}
	kept, _ := textfs.TruncateHeadLinesByChars(lines, e.cfg.Recall.MaxPromptChars)
	block := strings.Join(kept, "\n")
	finalEntries = finalEntries[:len(kept)]

	if len(kept) == 0 {
		e.metrics.RecallMiss.Add(1)
		return RetrievalResult{}, nil
	}

	e.metrics.RecallHit.Add(1)
	e.metrics.PromptCharsLastEmitted.Store(int64(len([]rune(block))))

	return RetrievalResult{
		Block:       block,
		Entries:     finalEntries,
		PromptChars: len([]rune(block)),
		Hit:         true,
	}, nil
}

// fuseLayer normalizes fts_score per-layer against the layer max (step 3),
// computes recency decay (step 4), and fuses with the fixed weights
// 0.65/0.20/0.15 (step 5), merging into the shared id-keyed map (step 6).
func fuseLayer(results []ScoredEntry, now time.Time, into map[string]fusedEntry) {
	if len(results) == 0 {
		return
	}
	maxScore := 0.0
	for _, r := range results {
		if r.FTSScore > maxScore {
			maxScore = r.FTSScore
		}
	}
	for _, r := range results {
		ftsNorm := 0.0
		if maxScore > 0 {
			ftsNorm = r.FTSScore / maxScore
		}
		recency := recencyScore(now, r.Entry.LastSeenAt)
		score := weightFTS*ftsNorm + weightImportance*r.Entry.Importance + weightRecency*recency
		if existing, ok := into[r.Entry.ID]; !ok || score > existing.score {
			into[r.Entry.ID] = fusedEntry{entry: r.Entry, score: score}
		}
	}
}

// recencyScore is exponential decay with a 7-day half-life, clamped to
// [0,1].
func recencyScore(now, lastSeen time.Time) float64 {
	if lastSeen.IsZero() || lastSeen.After(now) {
		return 1
	}
	age := now.Sub(lastSeen)
	decay := math.Exp(-math.Ln2 * float64(age) / float64(recencyHalfLife))
	if decay < 0 {
		return 0
	}
	if decay > 1 {
		return 1
	}
	return decay
}
