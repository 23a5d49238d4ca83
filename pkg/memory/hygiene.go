package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	cronlib "github.com/robfig/cron/v3"

	"github.com/nanobot-ai/memorycore/pkg/memory/store"
)

const hygieneMinInterval = time.Hour

// Hygiene throttles retention pruning to at most once per hour per process,
// and only runs when activity occurred since the last sweep. It is a field
// on the engine handle rather than global state, so multiple engines in one
// process throttle independently.
type Hygiene struct {
	store store.Store
	cfg   RetentionConfig

	mu         sync.Mutex
	lastRun    time.Time
	dirtySince bool

	ticker *cronScheduler
}

func NewHygiene(s store.Store, cfg RetentionConfig) *Hygiene {
	return &Hygiene{store: s, cfg: cfg}
}

// MarkActivity records that a capture or recall happened, making the
// process eligible for its next throttled sweep.
func (h *Hygiene) MarkActivity() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dirtySince = true
}

// MaybeRun runs a sweep if at least hygieneMinInterval has passed since the
// last one and activity has occurred since then. Each sweep is tagged with
// a UUID for log correlation.
func (h *Hygiene) MaybeRun(ctx context.Context) (ran bool, runID string, deleted int, err error) {
	h.mu.Lock()
	now := time.Now().UTC()
	if !h.dirtySince || now.Sub(h.lastRun) < hygieneMinInterval {
		h.mu.Unlock()
		return false, "", 0, nil
	}
	h.lastRun = now
	h.dirtySince = false
	h.mu.Unlock()

	// Retention is enforced per-row via expires_at, computed at write time
	// from RetentionConfig.forKind; the sweep itself is kind-agnostic.
	runID = uuid.NewString()
	n, sweepErr := h.store.Prune(ctx, store.PrunePredicate{ExpiredBefore: now})
	return true, runID, n, sweepErr
}

// PruneOlderThan deletes entries created more than days ago, independent of
// the kind-aware expires_at retention. The operator `memory prune
// --older-than-days` command computes the same cutoff and calls Store.Prune
// directly rather than going through this method.
func (h *Hygiene) PruneOlderThan(ctx context.Context, days int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	return h.store.Prune(ctx, store.PrunePredicate{OlderThan: cutoff})
}

// cronScheduler wraps robfig/cron/v3's expression parser for an optional
// background sweep ticker, for hosts that want proactive hygiene instead of
// relying solely on opportunistic per-turn calls. It does not replace
// MaybeRun's per-hour-per-process throttle.
type cronScheduler struct {
	parser   cronlib.Parser
	schedule cronlib.Schedule
}

// NewCronScheduler parses expr (standard 5-field cron) and returns a
// scheduler that can compute the next run time after any instant.
func NewCronScheduler(expr string) (*cronScheduler, error) {
	parser := cronlib.NewParser(cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow)
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, newError(ErrConfigInvalid, "parse hygiene schedule", err)
	}
	return &cronScheduler{parser: parser, schedule: sched}, nil
}

func (c *cronScheduler) Next(after time.Time) time.Time {
	return c.schedule.Next(after)
}

// StartScheduled runs MaybeRun on a ticker derived from expr, in addition
// to (not instead of) the opportunistic per-turn calls. It returns a stop
// function. There is no default expression (an empty retention.sweepCron
// leaves the ticker off); "0 * * * *" matches the ≤1/hour budget exactly.
func (h *Hygiene) StartScheduled(ctx context.Context, expr string, onSweep func(ran bool, runID string, deleted int, err error)) (stop func(), err error) {
	sched, err := NewCronScheduler(expr)
	if err != nil {
		return nil, err
	}
	h.ticker = sched

	done := make(chan struct{})
	go func() {
		for {
			next := sched.Next(time.Now().UTC())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-done:
				timer.Stop()
				return
			case <-timer.C:
				h.MarkActivity()
				ran, runID, deleted, sweepErr := h.MaybeRun(ctx)
				if onSweep != nil {
					onSweep(ran, runID, deleted, sweepErr)
				}
			}
		}
	}()
	return func() { close(done) }, nil
}
