// Package history keeps a linear undo log of document snapshots.
//
// Snapshots are value copies: nothing a caller does with a document after
// committing it, or with a document returned by Undo, can alter the log.
// Committing after an undo discards the snapshots past the cursor; there is
// no redo.
package history

import "github.com/starford/cvcraft/internal/models"

// History is an ordered list of snapshots with a cursor pointing at the
// current one. It is not safe for concurrent use; the owning session
// serialises access.
type History struct {
	snapshots  []models.Document
	cursor     int
	maxEntries int
}

// Option configures a History.
type Option func(*History)

// WithMaxEntries bounds the number of stored snapshots. The oldest are
// dropped first. Zero or negative means unbounded.
func WithMaxEntries(n int) Option {
	return func(h *History) {
		h.maxEntries = n
	}
}

// New creates a History seeded with the initial document.
func New(initial models.Document, opts ...Option) *History {
	h := &History{}
	for _, opt := range opts {
		opt(h)
	}
	h.Reset(initial)
	return h
}

// Commit records doc as the newest snapshot, pruning any undone states.
func (h *History) Commit(doc models.Document) {
	if h.cursor < len(h.snapshots)-1 {
		clear(h.snapshots[h.cursor+1:])
		h.snapshots = h.snapshots[:h.cursor+1]
	}
	h.snapshots = append(h.snapshots, doc.Clone())
	h.cursor = len(h.snapshots) - 1

	if h.maxEntries > 0 && len(h.snapshots) > h.maxEntries {
		drop := len(h.snapshots) - h.maxEntries
		h.snapshots = append(h.snapshots[:0], h.snapshots[drop:]...)
		h.cursor -= drop
	}
}

// Undo steps the cursor back and returns the snapshot now current. It
// returns false when the cursor is already at the oldest snapshot.
func (h *History) Undo() (models.Document, bool) {
	if h.cursor <= 0 {
		return models.Document{}, false
	}
	h.cursor--
	return h.snapshots[h.cursor].Clone(), true
}

// Current returns the snapshot under the cursor.
func (h *History) Current() models.Document {
	return h.snapshots[h.cursor].Clone()
}

// Reset drops every snapshot and seeds the log with doc.
func (h *History) Reset(doc models.Document) {
	h.snapshots = []models.Document{doc.Clone()}
	h.cursor = 0
}

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// Len returns the number of stored snapshots.
func (h *History) Len() int { return len(h.snapshots) }

// Cursor returns the index of the current snapshot.
func (h *History) Cursor() int { return h.cursor }
