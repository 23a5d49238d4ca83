package memory

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/nanobot-ai/memorycore/pkg/memory/store"
)

// Engine is the single constructed handle the host injects into its
// responder path; there is no process-wide singleton.
type Engine struct {
	cfg          Config
	store        store.Store
	wal          *WALWriter
	mirror       *Mirror
	hygiene      *Hygiene
	metrics      *Metrics
	log          zerolog.Logger
	workspaceDir string
	stopSweep    func()
}

// New constructs an Engine from cfg, opening its SQLite store and preparing
// its WAL/mirror/hygiene collaborators. It refuses to start on invalid
// config with a clear error rather than starting degraded.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dbPath := ExpandHome(cfg.Memory.DBPath)
	s, err := store.Open(ctx, dbPath, log)
	if err != nil {
		return nil, err
	}
	workspaceDir := filepath.Join(filepath.Dir(filepath.Dir(dbPath)), "workspace", "memory")
	walDir := filepath.Join(workspaceDir, "session-state")
	if cfg.WAL.StateDir != "" {
		walDir = filepath.Join(filepath.Dir(workspaceDir), cfg.WAL.StateDir)
	}

	e := &Engine{
		cfg:          cfg,
		store:        s,
		wal:          NewWALWriter(walDir, cfg.WAL.Enabled),
		mirror:       NewMirror(workspaceDir),
		hygiene:      NewHygiene(s, cfg.Retention),
		metrics:      NewMetrics(),
		log:          log.With().Str("component", "memory.engine").Logger(),
		workspaceDir: workspaceDir,
	}

	if cfg.Retention.SweepCron != "" {
		stop, err := e.hygiene.StartScheduled(context.Background(), cfg.Retention.SweepCron, e.logSweep)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		e.stopSweep = stop
	}

	return e, nil
}

// logSweep is the StartScheduled callback for the optional background
// ticker; MaybeRunHygiene logs the opportunistic path the same way.
func (e *Engine) logSweep(ran bool, runID string, deleted int, err error) {
	if !ran {
		return
	}
	if err != nil {
		e.log.Warn().Err(err).Str("run_id", runID).Msg("memory: scheduled hygiene sweep failed")
		return
	}
	e.log.Debug().Str("run_id", runID).Int("deleted", deleted).Msg("memory: scheduled hygiene sweep complete")
}

// Metrics exposes the counters for a host to scrape.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// Close stops the optional background sweep ticker, if running, and
// releases the underlying store.
func (e *Engine) Close() error {
	if e.stopSweep != nil {
		e.stopSweep()
	}
	return e.store.Close()
}

// HandleTurnPre writes the WAL-pre marker, which happens-before Retrieve
// within one turn.
func (e *Engine) HandleTurnPre(sessionKey, meta string) {
	if err := e.wal.AppendPre(sessionKey, meta); err != nil {
		e.log.Warn().Err(err).Str("session", sessionKey).Msg("memory: WAL-pre append failed")
	}
}

// HandleTurnPost writes the WAL-post marker, which Capture happens-before
// within one turn.
func (e *Engine) HandleTurnPost(sessionKey, summary string) {
	if err := e.wal.AppendPost(sessionKey, summary); err != nil {
		e.log.Warn().Err(err).Str("session", sessionKey).Msg("memory: WAL-post append failed")
	}
}

// MaybeRunHygiene is the opportunistic hook called after session save. It
// never blocks the turn on failure.
func (e *Engine) MaybeRunHygiene(ctx context.Context) {
	ran, runID, deleted, err := e.hygiene.MaybeRun(ctx)
	if !ran {
		return
	}
	if err != nil {
		e.log.Warn().Err(err).Str("run_id", runID).Msg("memory: hygiene sweep failed")
		return
	}
	e.log.Debug().Str("run_id", runID).Int("deleted", deleted).Msg("memory: hygiene sweep complete")
}

// Store exposes the underlying store for the operator CLI, which needs raw
// access for `status`/`search`/`add`/`prune`/`reindex` beyond the per-turn
// Capture/Retrieve surface.
func (e *Engine) Store() store.Store { return e.store }

// Config returns the resolved configuration.
func (e *Engine) Config() Config { return e.cfg }
