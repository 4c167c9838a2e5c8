package types

import "time"

// EventKind names the operation that produced a document event.
type EventKind string

const (
	EventInsert   EventKind = "insert"
	EventMove     EventKind = "move"
	EventUpdate   EventKind = "update"
	EventDelete   EventKind = "delete"
	EventTemplate EventKind = "template"
	EventSymbol   EventKind = "symbol"
	EventProposal EventKind = "proposal"
	EventUndo     EventKind = "undo"
	EventRedo     EventKind = "redo"
	EventReload   EventKind = "reload"
)

// DocumentEvent notifies dependent views (canvas, outline, property editors)
// that the document changed. Events describe applied operations only; they
// carry no mutation capability.
type DocumentEvent struct {
	// OpID identifies the history entry behind this event, empty for reloads
	OpID string `json:"opId,omitempty"`
	// Kind is the operation that was applied
	Kind EventKind `json:"kind"`
	// NodeIDs lists the directly affected nodes
	NodeIDs []NodeID `json:"nodeIds,omitempty"`
	// Version is the document version after the operation
	Version uint64 `json:"version"`
	// Timestamp records when the operation was applied
	Timestamp time.Time `json:"timestamp"`
}
