// Package pager builds the per-view campaign log: history pages reversed
// into ascending order, live pushes appended at the bottom, scroll anchoring
// preserved while older pages are prepended.
package pager

import (
	"context"

	"github.com/questlog/backend/internal/store"
)

// Fetcher is the slice of the store a log view needs.
type Fetcher interface {
	Page(ctx context.Context, campaignID string, offset, pageSize int) ([]store.Event, error)
}

// Log is the in-memory ascending event list for one open campaign view.
// It is single-viewer state and not safe for concurrent use; the view
// drives it from one goroutine.
type Log struct {
	campaignID string
	fetcher    Fetcher
	pageSize   int

	entries  []store.Event
	anchored bool // viewport sits at the bottom, new entries should scroll into view
	drained  bool // the store has no older events than what is loaded
}

func NewLog(campaignID string, fetcher Fetcher) *Log {
	return &Log{
		campaignID: campaignID,
		fetcher:    fetcher,
		pageSize:   store.DefaultPageSize,
		anchored:   true,
	}
}

// Load fetches the newest page and replaces the log with it in ascending
// order. On error the current entries are left untouched.
func (l *Log) Load(ctx context.Context) error {
	page, err := l.fetcher.Page(ctx, l.campaignID, 0, l.pageSize)
	if err != nil {
		return err
	}
	l.entries = reverse(page)
	l.drained = len(page) < l.pageSize
	l.anchored = true
	return nil
}

// LoadOlder fetches the page behind what is already loaded and prepends it,
// returning how many entries were added so the caller can offset its scroll
// position by the height they introduce. A failed fetch changes nothing.
func (l *Log) LoadOlder(ctx context.Context) (int, error) {
	if l.drained {
		return 0, nil
	}
	page, err := l.fetcher.Page(ctx, l.campaignID, len(l.entries), l.pageSize)
	if err != nil {
		return 0, err
	}
	if len(page) < l.pageSize {
		l.drained = true
	}
	if len(page) == 0 {
		return 0, nil
	}
	l.entries = append(reverse(page), l.entries...)
	return len(page), nil
}

// Push appends a live-delivered event and reports whether the view should
// auto-scroll: only when the viewport was already anchored to the bottom.
// A reader scrolled up into history keeps their place.
func (l *Log) Push(ev store.Event) (autoScroll bool) {
	l.entries = append(l.entries, ev)
	return l.anchored
}

// SetAnchored records whether the viewport currently sits at its bottom
// edge. The view calls this as the user scrolls.
func (l *Log) SetAnchored(anchored bool) { l.anchored = anchored }

// Entries returns the log oldest first.
func (l *Log) Entries() []store.Event { return l.entries }

func reverse(events []store.Event) []store.Event {
	out := make([]store.Event, len(events))
	for i, ev := range events {
		out[len(events)-1-i] = ev
	}
	return out
}
