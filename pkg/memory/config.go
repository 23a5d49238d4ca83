package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
)

// Backend selects the Store implementation.
type Backend string

const (
	BackendSQLiteFTS     Backend = "sqlite_fts"
	BackendReservedHybrid Backend = "reserved_hybrid"
)

// Config is the typed configuration struct for the engine.
type Config struct {
	Memory    MemoryConfig    `json5:"memory"`
	Recall    RecallConfig    `json5:"recall"`
	Capture   CaptureConfig   `json5:"capture"`
	Retention RetentionConfig `json5:"retention"`
	WAL       WALConfig       `json5:"wal"`
	Embedding EmbeddingConfig `json5:"embedding"`
}

type MemoryConfig struct {
	Enabled bool    `json5:"enabled"`
	DBPath  string  `json5:"dbPath"`
	Backend Backend `json5:"backend"`
}

type RecallConfig struct {
	MaxResults                int `json5:"maxResults"`
	MaxPromptChars            int `json5:"maxPromptChars"`
	UserPreferenceLayerResults int `json5:"userPreferenceLayerResults"`
}

type CaptureConfig struct {
	Enabled           bool     `json5:"enabled"`
	Mode              string   `json5:"mode"`
	MinConfidence     float64  `json5:"minConfidence"`
	MinImportance     float64  `json5:"minImportance"`
	Channels          []string `json5:"channels"`
	CaptureAssistant  bool     `json5:"captureAssistant"`
	MaxEntriesPerTurn int      `json5:"maxEntriesPerTurn"`
}

type RetentionConfig struct {
	EpisodicDays   int `json5:"episodicDays"`
	FactDays       int `json5:"factDays"`
	PreferenceDays int `json5:"preferenceDays"`
	DecisionDays   int `json5:"decisionDays"`

	// SweepCron, when non-empty, starts Hygiene.StartScheduled's background
	// ticker on top of the opportunistic per-turn sweep. Empty disables it.
	SweepCron string `json5:"sweepCron"`
}

// ForKind is the exported form used by callers outside the package, such as
// the operator CLI's `memory add`, that need the same per-kind retention
// window Capture and Backfill apply.
func (r RetentionConfig) ForKind(k Kind) time.Duration {
	return r.forKind(k)
}

func (r RetentionConfig) forKind(k Kind) time.Duration {
	days := r.FactDays
	switch k {
	case KindEpisodic:
		days = r.EpisodicDays
	case KindPreference:
		days = r.PreferenceDays
	case KindDecision:
		days = r.DecisionDays
	case KindFact:
		days = r.FactDays
	}
	if days <= 0 {
		days = 1
	}
	return time.Duration(days) * 24 * time.Hour
}

type WALConfig struct {
	Enabled  bool   `json5:"enabled"`
	StateDir string `json5:"stateDir"`
}

type EmbeddingConfig struct {
	Enabled bool `json5:"enabled"`
}

// DefaultConfig returns the engine's out-of-the-box configuration.
func DefaultConfig() Config {
	return Config{
		Memory: MemoryConfig{
			Enabled: true,
			DBPath:  "~/.nanobot/memory/longterm.db",
			Backend: BackendSQLiteFTS,
		},
		Recall: RecallConfig{
			MaxResults:                 8,
			MaxPromptChars:             2400,
			UserPreferenceLayerResults: 2,
		},
		Capture: CaptureConfig{
			Enabled:           true,
			Mode:              "heuristic",
			MinConfidence:     0.78,
			MinImportance:     0.6,
			Channels:          []string{"cli", "whatsapp", "imessage", "signal"},
			CaptureAssistant:  false,
			MaxEntriesPerTurn: 4,
		},
		Retention: RetentionConfig{
			EpisodicDays:   90,
			FactDays:       3650,
			PreferenceDays: 3650,
			DecisionDays:   3650,
		},
		WAL: WALConfig{
			Enabled:  true,
			StateDir: "memory/session-state",
		},
		Embedding: EmbeddingConfig{
			Enabled: false,
		},
	}
}

// knownSections backs Load's unknown-key detection: any section or key not
// listed here is rejected rather than silently ignored.
var knownSections = map[string]map[string]bool{
	"memory": {"enabled": true, "dbPath": true, "backend": true},
	"recall": {"maxResults": true, "maxPromptChars": true, "userPreferenceLayerResults": true},
	"capture": {
		"enabled": true, "mode": true, "minConfidence": true, "minImportance": true,
		"channels": true, "captureAssistant": true, "maxEntriesPerTurn": true,
	},
	"retention": {"episodicDays": true, "factDays": true, "preferenceDays": true, "decisionDays": true, "sweepCron": true},
	"wal":       {"enabled": true, "stateDir": true},
	"embedding": {"enabled": true},
}

// Load reads config.json (json5-tolerant: comments and trailing commas are
// allowed) from path, merges it over DefaultConfig, and validates the
// result. A missing file is not an error, it yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	expanded := expandHome(path)
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return cfg, newError(ErrConfigInvalid, "read config", err)
	}

	raw := map[string]map[string]any{}
	if err := json5.Unmarshal(data, &raw); err != nil {
		return cfg, newError(ErrConfigInvalid, "parse config", err)
	}
	for section, fields := range raw {
		known, ok := knownSections[section]
		if !ok {
			return cfg, newReasonError(ErrConfigInvalid, "unknown config section", section)
		}
		for key := range fields {
			if !known[key] {
				return cfg, newReasonError(ErrConfigInvalid, "unknown config key", section+"."+key)
			}
		}
	}

	if err := json5.Unmarshal(data, &cfg); err != nil {
		return cfg, newError(ErrConfigInvalid, "decode config", err)
	}
	return cfg, cfg.Validate()
}

// Validate enforces the engine's range constraints on a loaded config.
func (c Config) Validate() error {
	if c.Memory.Backend != BackendSQLiteFTS && c.Memory.Backend != BackendReservedHybrid {
		return newReasonError(ErrConfigInvalid, "unsupported memory.backend", string(c.Memory.Backend))
	}
	if c.Memory.Backend == BackendReservedHybrid {
		return newReasonError(ErrConfigInvalid, "memory.backend reserved_hybrid is not implemented", string(c.Memory.Backend))
	}
	if c.Recall.MaxResults <= 0 {
		return newReasonError(ErrConfigInvalid, "recall.maxResults must be positive", fmt.Sprint(c.Recall.MaxResults))
	}
	if c.Recall.MaxPromptChars <= 0 {
		return newReasonError(ErrConfigInvalid, "recall.maxPromptChars must be positive", fmt.Sprint(c.Recall.MaxPromptChars))
	}
	if c.Capture.MinConfidence < 0 || c.Capture.MinConfidence > 1 {
		return newReasonError(ErrConfigInvalid, "capture.minConfidence out of [0,1]", fmt.Sprint(c.Capture.MinConfidence))
	}
	if c.Capture.MinImportance < 0 || c.Capture.MinImportance > 1 {
		return newReasonError(ErrConfigInvalid, "capture.minImportance out of [0,1]", fmt.Sprint(c.Capture.MinImportance))
	}
	if c.Capture.MaxEntriesPerTurn <= 0 {
		return newReasonError(ErrConfigInvalid, "capture.maxEntriesPerTurn must be positive", fmt.Sprint(c.Capture.MaxEntriesPerTurn))
	}
	return nil
}

// ChannelAllowed reports whether channel is in capture.channels.
func (c CaptureConfig) ChannelAllowed(channel string) bool {
	for _, ch := range c.Channels {
		if strings.EqualFold(ch, channel) {
			return true
		}
	}
	return false
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// ExpandHome is the exported form used by callers resolving dbPath/stateDir.
func ExpandHome(p string) string {
	return expandHome(p)
}
