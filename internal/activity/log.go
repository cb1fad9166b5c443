package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/DesumovJP/flowerpos/internal/notify"
	"github.com/DesumovJP/flowerpos/pkg/logger"
	"github.com/DesumovJP/flowerpos/pkg/metrics"
)

// DefaultMaxEntries bounds the journal; oldest entries are evicted silently.
// The journal is advisory scratch state, not a durable ledger.
const DefaultMaxEntries = 500

// Log is the append-only, capped activity journal for one terminal. Entries
// are kept newest-first. Storage failures degrade the log to memory-only
// behavior; they never propagate to the register flow.
type Log struct {
	persist  Persistence
	notifier notify.Notifier
	logg     *logger.Logger
	metrics  *metrics.POSMetrics
	max      int

	mu      sync.Mutex
	entries []Activity
	loaded  bool
}

// LogParams collects the journal dependencies.
type LogParams struct {
	Persistence Persistence
	Notifier    notify.Notifier
	Logger      *logger.Logger
	Metrics     *metrics.POSMetrics
	MaxEntries  int
}

// NewLog constructs the journal store.
func NewLog(params LogParams) (*Log, error) {
	if params.Persistence == nil {
		return nil, fmt.Errorf("journal persistence required")
	}
	if params.Notifier == nil {
		params.Notifier = notify.Noop{}
	}
	if params.MaxEntries <= 0 {
		params.MaxEntries = DefaultMaxEntries
	}
	return &Log{
		persist:  params.Persistence,
		notifier: params.Notifier,
		logg:     params.Logger,
		metrics:  params.Metrics,
		max:      params.MaxEntries,
	}, nil
}

// Append validates and prepends an activity, evicting beyond the cap, then
// persists and fires the change notification. Malformed activities are
// discarded silently; the register flow must never crash on a bad payload.
func (l *Log) Append(ctx context.Context, a Activity) {
	if !a.Valid() {
		if l.logg != nil {
			l.logg.Warn(l.logg.WithFields(ctx, map[string]any{
				"activity_id":   a.ID,
				"activity_kind": a.Kind.String(),
			}), "journal.append.discarded")
		}
		l.metrics.IncDiscarded(a.Kind.String())
		return
	}

	l.mu.Lock()
	l.ensureLoadedLocked(ctx)
	entries := make([]Activity, 0, len(l.entries)+1)
	entries = append(entries, a.Normalize())
	entries = append(entries, l.entries...)
	if len(entries) > l.max {
		entries = entries[:l.max]
	}
	l.entries = entries
	l.saveLocked(ctx)
	l.mu.Unlock()

	l.metrics.IncAppended(a.Kind.String())
	l.notifier.Notify(ctx)
}

// Read returns the journal newest-first. Storage absence and parse failures
// both read as an empty journal.
func (l *Log) Read(ctx context.Context) []Activity {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoadedLocked(ctx)
	out := make([]Activity, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the current journal size.
func (l *Log) Len(ctx context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoadedLocked(ctx)
	return len(l.entries)
}

// Clear empties the journal and fires the change notification. Called only
// after a shift upsert is confirmed, so logged activity is never lost to a
// failed write.
func (l *Log) Clear(ctx context.Context) {
	l.mu.Lock()
	l.loaded = true
	l.entries = nil
	if err := l.persist.Clear(ctx); err != nil && l.logg != nil {
		l.logg.Warn(l.logg.WithField(ctx, "error", err.Error()), "journal.clear.storage_failed")
	}
	l.mu.Unlock()

	l.notifier.Notify(ctx)
}

func (l *Log) ensureLoadedLocked(ctx context.Context) {
	if l.loaded {
		return
	}
	l.loaded = true

	raw, err := l.persist.Load(ctx)
	if err != nil {
		if l.logg != nil {
			l.logg.Warn(l.logg.WithField(ctx, "error", err.Error()), "journal.load.storage_failed")
		}
		return
	}
	if len(raw) == 0 {
		return
	}

	var entries []Activity
	if err := json.Unmarshal(raw, &entries); err != nil {
		// Unparsable storage reads as no activity.
		if l.logg != nil {
			l.logg.Warn(l.logg.WithField(ctx, "error", err.Error()), "journal.load.unparsable")
		}
		return
	}

	normalized := entries[:0]
	for _, entry := range entries {
		if entry.Valid() {
			normalized = append(normalized, entry.Normalize())
		}
	}
	if len(normalized) > l.max {
		normalized = normalized[:l.max]
	}
	l.entries = normalized
}

func (l *Log) saveLocked(ctx context.Context) {
	raw, err := json.Marshal(l.entries)
	if err != nil {
		if l.logg != nil {
			l.logg.Warn(l.logg.WithField(ctx, "error", err.Error()), "journal.save.marshal_failed")
		}
		return
	}
	if err := l.persist.Save(ctx, raw); err != nil && l.logg != nil {
		l.logg.Warn(l.logg.WithField(ctx, "error", err.Error()), "journal.save.storage_failed")
	}
}
