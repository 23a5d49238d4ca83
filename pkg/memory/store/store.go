// Package store implements the canonical entry table, its lexical FTS
// index, and the upsert/search/prune/reindex primitives everything else in
// pkg/memory is built on.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.mau.fi/util/dbutil"

	"github.com/nanobot-ai/memorycore/pkg/memory"
)

// backoffSchedule is the 3x 50/125/250ms retry-with-backoff documented for
// StoreUnavailable/StoreBusy and other transient store failures.
var backoffSchedule = []time.Duration{50 * time.Millisecond, 125 * time.Millisecond, 250 * time.Millisecond}

// withRetry runs fn, retrying on a transient SQLITE_BUSY/SQLITE_LOCKED
// error using backoffSchedule before giving up and returning the last
// error to the caller.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !isBusyErr(err) || attempt >= len(backoffSchedule) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoffSchedule[attempt]):
		}
	}
}

func isBusyErr(err error) bool {
	var sqliteErr sqlite3.Error
	if !asSQLiteError(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

func asSQLiteError(err error, target *sqlite3.Error) bool {
	for err != nil {
		if se, ok := err.(sqlite3.Error); ok {
			*target = se
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// wrapStoreErr classifies err as StoreBusy when retries were exhausted on a
// SQLITE_BUSY/SQLITE_LOCKED condition, or StoreUnavailable otherwise. An
// error already classified by the inner transaction function (WrapCorrupt,
// WrapInternal, ...) passes through unchanged.
func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if me, ok := err.(*memory.Error); ok {
		return me
	}
	if isBusyErr(err) {
		return memory.WrapStoreBusy(op, err)
	}
	return memory.WrapStoreUnavailable(op, err)
}

// Store is the backend interface. sqlite_fts is the only implementation
// today; BackendReservedHybrid names a future one without providing it.
type Store interface {
	Upsert(ctx context.Context, entry memory.Entry) (memory.UpsertOutcome, string, error)
	Search(ctx context.Context, scopeKeys []string, kinds []memory.Kind, queryText string, k int) ([]memory.ScoredEntry, error)
	Prune(ctx context.Context, pred PrunePredicate) (int, error)
	CountPending(ctx context.Context, pred PrunePredicate) (int, error)
	Reindex(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
	GetMeta(ctx context.Context, key string) (string, bool, error)
	SetMeta(ctx context.Context, key, value string) error
	Close() error
}

// PrunePredicate selects rows for deletion. Exactly one of ExpiredBefore or
// OlderThan should be set by callers (Hygiene uses ExpiredBefore; the operator
// `prune --older-than-days` flag uses OlderThan).
type PrunePredicate struct {
	ExpiredBefore time.Time
	OlderThan     time.Time
}

// Stats mirrors the `memory status` counters.
type Stats struct {
	TotalEntries int
	ByKind       map[memory.Kind]int
	DBPath       string
}

// SQLiteStore is the sqlite_fts backend.
type SQLiteStore struct {
	db   *dbutil.Database
	path string
	log  zerolog.Logger
}

// Open creates (if needed) and opens the SQLite-backed store at path,
// ensuring the canonical table, fts5 index, and meta table exist.
//
// A single shared connection (SetMaxOpenConns(1)) serializes every writer
// onto one connection, the same discipline used to avoid SQLITE_BUSY storms
// under concurrent turns (grounded in the nevindra-oasis sqlite store).
func Open(ctx context.Context, path string, log zerolog.Logger) (*SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, memory.WrapStoreUnavailable("create db dir", err)
			}
		}
	}
	raw, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, wrapStoreErr("open sqlite", err)
	}
	raw.SetMaxOpenConns(1)

	if err := withRetry(ctx, func() error { return raw.PingContext(ctx) }); err != nil {
		return nil, wrapStoreErr("ping sqlite", err)
	}

	db, err := dbutil.NewWithDB(raw, "sqlite3")
	if err != nil {
		return nil, wrapStoreErr("wrap sqlite", err)
	}

	s := &SQLiteStore{db: db, path: path, log: log.With().Str("component", "memory.store").Logger()}
	if err := withRetry(ctx, func() error { return s.ensureSchema(ctx) }); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS memory_entries (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			scope_key TEXT NOT NULL,
			text TEXT NOT NULL,
			dedupe_key TEXT NOT NULL,
			channel TEXT NOT NULL DEFAULT '',
			chat_id TEXT NOT NULL DEFAULT '',
			sender_id TEXT NOT NULL DEFAULT '',
			importance REAL NOT NULL,
			confidence REAL NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			last_seen_at INTEGER NOT NULL,
			hit_count INTEGER NOT NULL DEFAULT 0,
			source TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			UNIQUE(dedupe_key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_memory_entries_scope ON memory_entries(scope_key, kind);`,
		`CREATE INDEX IF NOT EXISTS idx_memory_entries_expires ON memory_entries(expires_at);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS memory_entries_fts USING fts5(
			text,
			id UNINDEXED,
			scope_key UNINDEXED,
			kind UNINDEXED
		);`,
		`CREATE TABLE IF NOT EXISTS memory_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return memory.WrapCorrupt("ensure schema", err)
		}
	}
	return nil
}

// Upsert is transactional: it looks up the dedupe key; on hit it bumps
// last_seen_at/hit_count/updated_at and takes max(importance); on miss it
// inserts and mirrors into the FTS index in the same transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, entry memory.Entry) (memory.UpsertOutcome, string, error) {
	dedupeKey := memory.DedupeKeyOf(entry.ScopeKey, entry.Kind, entry.Text).String()

	var outcome memory.UpsertOutcome
	var id string
	err := withRetry(ctx, func() error {
		return s.db.DoTxn(ctx, nil, func(txCtx context.Context) error {
			var existingID string
			var existingImportance float64
			var existingHits int
			row := s.db.QueryRow(txCtx,
				`SELECT id, importance, hit_count FROM memory_entries WHERE dedupe_key=$1`, dedupeKey)
			scanErr := row.Scan(&existingID, &existingImportance, &existingHits)
			now := time.Now().UTC()

			if scanErr == nil {
				outcome = memory.Merged
				id = existingID
				importance := entry.Importance
				if existingImportance > importance {
					importance = existingImportance
				}
				_, err := s.db.Exec(txCtx,
					`UPDATE memory_entries SET last_seen_at=$1, updated_at=$1, hit_count=$2, importance=$3 WHERE id=$4`,
					now.UnixMilli(), existingHits+1, importance, existingID,
				)
				return err
			}
			if scanErr != sql.ErrNoRows {
				return scanErr
			}

			outcome = memory.Inserted
			id = entry.ID
			if id == "" {
				id = xid.New().String()
			}
			createdAt := now
			if !entry.CreatedAt.IsZero() {
				createdAt = entry.CreatedAt
			}
			expiresAt := entry.ExpiresAt
			if expiresAt.IsZero() || !expiresAt.After(createdAt) {
				return memory.WrapInternal("upsert: expires_at must be after created_at", nil)
			}
			_, err := s.db.Exec(txCtx,
				`INSERT INTO memory_entries
					(id, kind, scope_key, text, dedupe_key, channel, chat_id, sender_id,
					 importance, confidence, created_at, updated_at, last_seen_at, hit_count, source, expires_at)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,0,$14,$15)`,
				id, string(entry.Kind), entry.ScopeKey, entry.Text, dedupeKey, entry.Channel, entry.ChatID, entry.SenderID,
				entry.Importance, entry.Confidence, createdAt.UnixMilli(), now.UnixMilli(), now.UnixMilli(),
				string(entry.Source), expiresAt.UnixMilli(),
			)
			if err != nil {
				return err
			}
			_, err = s.db.Exec(txCtx,
				`INSERT INTO memory_entries_fts (text, id, scope_key, kind) VALUES ($1,$2,$3,$4)`,
				entry.Text, id, entry.ScopeKey, string(entry.Kind),
			)
			return err
		})
	})
	if err != nil {
		return 0, "", wrapStoreErr("upsert", err)
	}
	return outcome, id, nil
}

// Search runs a lexical FTS query constrained by scope_key and kind. A
// 2-second soft deadline is applied via the context.
func (s *SQLiteStore) Search(ctx context.Context, scopeKeys []string, kinds []memory.Kind, queryText string, k int) ([]memory.ScoredEntry, error) {
	if len(scopeKeys) == 0 || k <= 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	ftsQuery := BuildFtsQuery(queryText)
	if ftsQuery == "" {
		return nil, nil
	}

	scopePlaceholders, args := placeholders(scopeKeys, 1)
	nextIdx := len(args) + 1
	kindClause := ""
	if len(kinds) > 0 {
		kindStrs := make([]string, len(kinds))
		for i, k := range kinds {
			kindStrs[i] = string(k)
		}
		var kindPlaceholders string
		kindPlaceholders, kindArgs := placeholders(kindStrs, nextIdx)
		args = append(args, kindArgs...)
		kindClause = fmt.Sprintf("AND e.kind IN (%s)", kindPlaceholders)
		nextIdx += len(kindArgs)
	}
	args = append(args, ftsQuery)
	ftsIdx := nextIdx
	nextIdx++
	args = append(args, k)
	limitIdx := nextIdx

	query := fmt.Sprintf(`
		SELECT e.id, e.kind, e.scope_key, e.text, e.channel, e.chat_id, e.sender_id,
		       e.importance, e.confidence, e.created_at, e.updated_at, e.last_seen_at,
		       e.hit_count, e.source, e.expires_at, bm25(memory_entries_fts) AS rank
		FROM memory_entries_fts
		JOIN memory_entries e ON e.id = memory_entries_fts.id
		WHERE e.scope_key IN (%s) %s AND memory_entries_fts MATCH $%d
		ORDER BY rank LIMIT $%d`,
		scopePlaceholders, kindClause, ftsIdx, limitIdx)

	var rows *sql.Rows
	err := withRetry(ctx, func() (err error) {
		rows, err = s.db.Query(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, wrapStoreErr("search", err)
	}
	defer rows.Close()

	var out []memory.ScoredEntry
	for rows.Next() {
		var e memory.Entry
		var kind, source string
		var createdAt, updatedAt, lastSeenAt, expiresAt int64
		var rank float64
		if err := rows.Scan(&e.ID, &kind, &e.ScopeKey, &e.Text, &e.Channel, &e.ChatID, &e.SenderID,
			&e.Importance, &e.Confidence, &createdAt, &updatedAt, &lastSeenAt, &e.HitCount, &source, &expiresAt, &rank); err != nil {
			return nil, wrapStoreErr("scan search row", err)
		}
		e.Kind = memory.Kind(kind)
		e.Source = memory.Source(source)
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		e.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		e.LastSeenAt = time.UnixMilli(lastSeenAt).UTC()
		e.ExpiresAt = time.UnixMilli(expiresAt).UTC()
		// bm25() in SQLite FTS5 returns more-negative-is-better; flip sign so
		// callers can treat higher as more relevant like other backends.
		out = append(out, memory.ScoredEntry{Entry: e, FTSScore: -rank})
	}
	return out, rows.Err()
}

// Prune deletes rows matching pred inside one transaction, keeping the FTS
// index consistent.
func (s *SQLiteStore) Prune(ctx context.Context, pred PrunePredicate) (int, error) {
	var cutoff time.Time
	var column string
	if !pred.ExpiredBefore.IsZero() {
		cutoff = pred.ExpiredBefore
		column = "expires_at"
	} else {
		cutoff = pred.OlderThan
		column = "created_at"
	}
	if cutoff.IsZero() {
		return 0, nil
	}

	var deleted int
	err := withRetry(ctx, func() error {
		return s.db.DoTxn(ctx, nil, func(txCtx context.Context) error {
			rows, err := s.db.Query(txCtx, fmt.Sprintf(`SELECT id FROM memory_entries WHERE %s < $1`, column), cutoff.UnixMilli())
			if err != nil {
				return err
			}
			var ids []string
			for rows.Next() {
				var id string
				if err := rows.Scan(&id); err != nil {
					rows.Close()
					return err
				}
				ids = append(ids, id)
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return err
			}
			for _, id := range ids {
				if _, err := s.db.Exec(txCtx, `DELETE FROM memory_entries WHERE id=$1`, id); err != nil {
					return err
				}
				if _, err := s.db.Exec(txCtx, `DELETE FROM memory_entries_fts WHERE id=$1`, id); err != nil {
					return err
				}
			}
			deleted = len(ids)
			return nil
		})
	})
	if err != nil {
		return 0, wrapStoreErr("prune", err)
	}
	return deleted, nil
}

// CountPending reports how many rows pred would delete, without deleting
// them. It backs `memory prune --dry-run`.
func (s *SQLiteStore) CountPending(ctx context.Context, pred PrunePredicate) (int, error) {
	var cutoff time.Time
	var column string
	if !pred.ExpiredBefore.IsZero() {
		cutoff = pred.ExpiredBefore
		column = "expires_at"
	} else {
		cutoff = pred.OlderThan
		column = "created_at"
	}
	if cutoff.IsZero() {
		return 0, nil
	}

	var count int
	err := withRetry(ctx, func() error {
		row := s.db.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM memory_entries WHERE %s < $1`, column), cutoff.UnixMilli())
		return row.Scan(&count)
	})
	if err != nil {
		return 0, wrapStoreErr("count pending prune", err)
	}
	return count, nil
}

// Reindex rebuilds the FTS table from the canonical table. It's the
// recovery path for a corrupt or out-of-sync FTS index, exposed to
// operators as `memory reindex`.
func (s *SQLiteStore) Reindex(ctx context.Context) error {
	err := withRetry(ctx, func() error {
		return s.db.DoTxn(ctx, nil, func(txCtx context.Context) error {
			if _, err := s.db.Exec(txCtx, `DELETE FROM memory_entries_fts`); err != nil {
				return err
			}
			_, err := s.db.Exec(txCtx,
				`INSERT INTO memory_entries_fts (text, id, scope_key, kind)
				 SELECT text, id, scope_key, kind FROM memory_entries`)
			return err
		})
	})
	if err != nil {
		if isBusyErr(err) {
			return wrapStoreErr("reindex", err)
		}
		return memory.WrapCorrupt("reindex", err)
	}
	return nil
}

// Stats reports row counts for `memory status`.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByKind: map[memory.Kind]int{}, DBPath: s.path}
	var rows *sql.Rows
	err := withRetry(ctx, func() (err error) {
		rows, err = s.db.Query(ctx, `SELECT kind, COUNT(*) FROM memory_entries GROUP BY kind`)
		return err
	})
	if err != nil {
		return stats, wrapStoreErr("stats", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return stats, wrapStoreErr("scan stats", err)
		}
		stats.ByKind[memory.Kind(kind)] = count
		stats.TotalEntries += count
	}
	return stats, rows.Err()
}

// GetMeta/SetMeta back the memory_meta marker table (backfill_complete, etc).
func (s *SQLiteStore) GetMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	var scanErr error
	err := withRetry(ctx, func() error {
		row := s.db.QueryRow(ctx, `SELECT value FROM memory_meta WHERE key=$1`, key)
		scanErr = row.Scan(&value)
		if scanErr == sql.ErrNoRows {
			return nil
		}
		return scanErr
	})
	if err != nil {
		return "", false, wrapStoreErr("get meta", err)
	}
	if scanErr == sql.ErrNoRows {
		return "", false, nil
	}
	return value, true, nil
}

func (s *SQLiteStore) SetMeta(ctx context.Context, key, value string) error {
	err := withRetry(ctx, func() error {
		_, err := s.db.Exec(ctx,
			`INSERT INTO memory_meta (key, value) VALUES ($1,$2)
			 ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
		return err
	})
	if err != nil {
		return wrapStoreErr("set meta", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.RawDB.Close()
}

func placeholders(values []string, startAt int) (string, []any) {
	ph := make([]byte, 0, len(values)*4)
	args := make([]any, len(values))
	for i, v := range values {
		if i > 0 {
			ph = append(ph, ',')
		}
		ph = append(ph, []byte(fmt.Sprintf("$%d", startAt+i))...)
		args[i] = v
	}
	return string(ph), args
}

var _ Store = (*SQLiteStore)(nil)
