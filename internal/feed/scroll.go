package feed

import (
	"context"
	"sync"
)

// Pager is the slice of the orchestrator the scroll trigger needs.
type Pager interface {
	Loading() bool
	LoadMore(ctx context.Context) error
}

// ScrollTrigger decides when to request the next page. It models an
// intersection-observer sentinel on the last rendered item: the trigger is
// armed with that item's id and fires at most once per armed id when the
// sentinel becomes visible. It never polls.
type ScrollTrigger struct {
	pager Pager

	mu      sync.Mutex
	armedID string
	fired   bool
}

// NewScrollTrigger constructs a trigger over pager.
func NewScrollTrigger(pager Pager) *ScrollTrigger {
	return &ScrollTrigger{pager: pager}
}

// Rearm points the trigger at the new last item. Call it whenever the
// rendered list changes length; arming the same id again is a no-op so the
// at-most-once guarantee holds.
func (t *ScrollTrigger) Rearm(lastID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if lastID == t.armedID {
		return
	}
	t.armedID = lastID
	t.fired = false
}

// SentinelVisible reports that the armed item entered the viewport. The
// first visibility per armed id requests the next page; loading is checked
// here and again inside LoadMore.
func (t *ScrollTrigger) SentinelVisible(ctx context.Context) error {
	t.mu.Lock()
	if t.armedID == "" || t.fired || t.pager.Loading() {
		t.mu.Unlock()
		return nil
	}
	t.fired = true
	t.mu.Unlock()
	return t.pager.LoadMore(ctx)
}
