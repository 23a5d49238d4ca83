// Package memory implements the long-term memory core of the nanobot
// runtime: scoped capture, ranked retrieval, a per-session write-ahead log,
// and kind-aware retention hygiene over a local SQLite full-text index.
package memory

import "time"

// Kind is the typed category of a memory entry.
type Kind string

const (
	KindPreference Kind = "preference"
	KindFact       Kind = "fact"
	KindDecision   Kind = "decision"
	KindEpisodic   Kind = "episodic"
)

// AllKinds lists every known Kind, in a stable order.
func AllKinds() []Kind {
	return []Kind{KindPreference, KindFact, KindDecision, KindEpisodic}
}

func (k Kind) valid() bool {
	switch k {
	case KindPreference, KindFact, KindDecision, KindEpisodic:
		return true
	default:
		return false
	}
}

// Source identifies how an entry entered the store.
type Source string

const (
	SourceAuto     Source = "auto"
	SourceManual   Source = "manual"
	SourceBackfill Source = "backfill"
)

// Entry is the canonical memory record.
type Entry struct {
	ID          string
	Kind        Kind
	ScopeKey    string
	Text        string
	Channel     string
	ChatID      string
	SenderID    string
	Importance  float64
	Confidence  float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastSeenAt  time.Time
	HitCount    int
	Source      Source
	ExpiresAt   time.Time
}

// ScoredEntry pairs an Entry with the raw FTS relevance score a Store
// search returned it with.
type ScoredEntry struct {
	Entry    Entry
	FTSScore float64
}

// UpsertOutcome discriminates insert vs dedupe-merge for telemetry.
type UpsertOutcome int

const (
	Inserted UpsertOutcome = iota
	Merged
)

func (o UpsertOutcome) String() string {
	if o == Merged {
		return "merged"
	}
	return "inserted"
}

// Candidate is a not-yet-persisted extraction or manual-insert payload.
type Candidate struct {
	Kind       Kind
	Text       string
	Importance float64
	Confidence float64
}

// Turn is one inbound message and its generated response, the unit the
// capture pipeline (§4.5) and retrieval pipeline (§4.6) operate on.
type Turn struct {
	Channel       string
	ChatID        string
	SenderID      string
	WorkspaceID   string
	UserText      string
	AssistantText string
}
