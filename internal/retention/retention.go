// Package retention trims old history snapshots on request. Nothing calls it
// automatically; history grows until a user trims it.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/edutenorio/FolderTracker/internal/history"
	"github.com/edutenorio/FolderTracker/internal/logging"
)

// Rule selects what to keep. Zero fields do not limit anything. The newest
// snapshot always survives since it is the baseline of the next sync.
type Rule struct {
	Keep   int           // newest snapshots kept
	MaxAge time.Duration // snapshots older than this are dropped
}

type Engine struct {
	rule Rule
	log  logging.Logger
	now  func() time.Time
}

func New(rule Rule, log logging.Logger) *Engine {
	return &Engine{
		rule: rule,
		log:  logging.OrNop(log),
		now:  time.Now,
	}
}

// Expired lists the keys the rule would delete, oldest first.
func (e *Engine) Expired(h *history.History) []string {
	keys := h.Keys()
	if len(keys) <= 1 {
		return nil
	}

	// Newest → oldest, skipping the baseline.
	var out []string
	cutoff := e.now().UTC().Add(-e.rule.MaxAge)
	for i := len(keys) - 2; i >= 0; i-- {
		rank := len(keys) - 1 - i
		if e.rule.Keep > 0 && rank >= e.rule.Keep {
			out = append(out, keys[i])
			continue
		}
		if e.rule.MaxAge > 0 {
			if t, err := history.ParseKey(keys[i]); err == nil && t.Before(cutoff) {
				out = append(out, keys[i])
			}
		}
	}

	// Oldest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Apply deletes expired snapshots from the store and from h. It stops at the
// first store error; h then only lacks what the store already dropped.
func (e *Engine) Apply(ctx context.Context, h *history.History, store history.Store) ([]string, error) {
	expired := e.Expired(h)
	for i, key := range expired {
		if err := store.Delete(ctx, key); err != nil {
			return expired[:i], fmt.Errorf("retention: deleting %s: %w", key, err)
		}
		h.Delete(key)
		e.log.Debug("history snapshot removed", "key", key)
	}

	if len(expired) > 0 {
		e.log.Info("history trimmed", "removed", len(expired), "kept", h.Len())
	}
	return expired, nil
}
