// Package history records one atomic, undoable entry per document operation
// and drives undo/redo by replaying the stored diffs. The history is linear:
// recording while the cursor sits before the tip discards the redo tail.
package history

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/conneroisu/pagewright/internal/document"
	"github.com/conneroisu/pagewright/internal/errors"
	"github.com/conneroisu/pagewright/internal/logging"
	"github.com/conneroisu/pagewright/internal/types"
)

// Entry is one atomic document transition.
type Entry struct {
	// OpID is a sortable operation identifier
	OpID string
	// Kind names the operation for events and debugging
	Kind types.EventKind
	// Forward applied to the prior document yields the new one
	Forward types.Diff
	// Reverse undoes Forward exactly
	Reverse types.Diff
	// Timestamp records when the operation was applied
	Timestamp time.Time
	// Transient entries are live-preview steps coalesced at drag end
	Transient bool
}

// History tracks applied operations and the undo/redo cursor.
type History struct {
	store   *document.Store
	entries []Entry
	cursor  int
	logger  logging.Logger
}

// New creates a history over the given store.
func New(store *document.Store, logger logging.Logger) *History {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &History{
		store:  store,
		logger: logger.WithComponent("history"),
	}
}

// Record appends an entry for an already-applied store result. Entries after
// the cursor are discarded: there is no branching history.
func (h *History) Record(res *document.Result, kind types.EventKind, transient bool) *Entry {
	h.entries = h.entries[:h.cursor]
	entry := Entry{
		OpID:      ulid.Make().String(),
		Kind:      kind,
		Forward:   res.Forward,
		Reverse:   res.Reverse,
		Timestamp: time.Now(),
		Transient: transient,
	}
	h.entries = append(h.entries, entry)
	h.cursor = len(h.entries)
	return &h.entries[h.cursor-1]
}

// CommitCoalesced folds any trailing transient entries into a single entry
// together with res, so pointer movement during a drag never creates
// separate undo steps. The composed entry undoes all the way back to the
// state before the first transient step.
func (h *History) CommitCoalesced(res *document.Result, kind types.EventKind) *Entry {
	forward := types.Diff{}
	for len(h.entries) > 0 && h.cursor == len(h.entries) && h.entries[len(h.entries)-1].Transient {
		last := h.entries[len(h.entries)-1]
		forward = last.Forward.Concat(forward)
		h.entries = h.entries[:len(h.entries)-1]
		h.cursor--
	}
	forward = forward.Concat(res.Forward)
	combined := &document.Result{Forward: forward, Reverse: forward.Reverse(), NodeID: res.NodeID}
	return h.Record(combined, kind, false)
}

// DiscardTransient rolls back and removes any trailing transient entries,
// used when a drag is cancelled.
func (h *History) DiscardTransient() {
	for len(h.entries) > 0 && h.cursor == len(h.entries) && h.entries[len(h.entries)-1].Transient {
		last := h.entries[len(h.entries)-1]
		h.store.ApplyDiff(last.Reverse)
		h.entries = h.entries[:len(h.entries)-1]
		h.cursor--
	}
}

// CanUndo reports whether an entry precedes the cursor.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether an entry follows the cursor.
func (h *History) CanRedo() bool { return h.cursor < len(h.entries) }

// Undo applies the reverse diff of the entry before the cursor and moves the
// cursor back.
func (h *History) Undo() (*Entry, error) {
	if !h.CanUndo() {
		return nil, errors.NewValidationError("ERR_NOTHING_TO_UNDO", "nothing to undo")
	}
	h.cursor--
	entry := &h.entries[h.cursor]
	h.store.ApplyDiff(entry.Reverse)
	h.logger.Debug(context.Background(), "undo applied", "op", entry.OpID, "kind", entry.Kind)
	return entry, nil
}

// Redo re-applies the forward diff of the entry at the cursor and moves the
// cursor forward.
func (h *History) Redo() (*Entry, error) {
	if !h.CanRedo() {
		return nil, errors.NewValidationError("ERR_NOTHING_TO_REDO", "nothing to redo")
	}
	entry := &h.entries[h.cursor]
	h.cursor++
	h.store.ApplyDiff(entry.Forward)
	h.logger.Debug(context.Background(), "redo applied", "op", entry.OpID, "kind", entry.Kind)
	return entry, nil
}

// Len returns the number of recorded entries.
func (h *History) Len() int { return len(h.entries) }

// Cursor returns the undo/redo cursor position.
func (h *History) Cursor() int { return h.cursor }

// Entries returns a copy of the recorded entries, newest last.
func (h *History) Entries() []Entry {
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}
