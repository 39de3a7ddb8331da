package draft

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sandeepkv93/ritualday/internal/model"
)

const (
	lastVisitKey = "marker:last_visit_date"
	draftPrefix  = "draft:"
)

// Boundary clears the drafts exactly once per calendar-day transition.
type Boundary struct {
	mu    sync.Mutex
	kv    KV
	clock model.Clock
}

func NewBoundary(kv KV, clock model.Clock) *Boundary {
	return &Boundary{kv: kv, clock: clock}
}

// Activate compares the persisted last-visit marker with today. On a mismatch
// (including a missing or unreadable marker) it drops every draft and moves
// the marker; it reports whether that happened.
func (b *Boundary) Activate() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	today := b.clock.Today()
	raw, err := b.kv.Get(lastVisitKey)
	switch {
	case err == nil:
		if last, parseErr := model.ParseDate(raw); parseErr == nil && last == today {
			return false, nil
		}
	case errors.Is(err, ErrKeyNotFound):
	default:
		return false, fmt.Errorf("draft: read last visit: %w", err)
	}

	for _, key := range b.kv.Keys(draftPrefix) {
		if err := b.kv.Delete(key); err != nil {
			return false, fmt.Errorf("draft: clear %s: %w", key, err)
		}
	}
	if err := b.kv.Set(lastVisitKey, today.String()); err != nil {
		return true, fmt.Errorf("draft: write last visit: %w", err)
	}
	return true, nil
}

// LastVisit returns the stored marker, if any.
func (b *Boundary) LastVisit() (model.Date, bool) {
	raw, err := b.kv.Get(lastVisitKey)
	if err != nil {
		return model.Date{}, false
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return model.Date{}, false
	}
	return d, true
}
