package editor

import (
	"github.com/conneroisu/pagewright/internal/document"
	"github.com/conneroisu/pagewright/internal/dragdrop"
	"github.com/conneroisu/pagewright/internal/types"
)

// dropSink routes completed drops and keyboard reorders through the editor's
// store. Drops absorb any transient preview entries recorded during the drag
// into the final committed history entry.
type dropSink struct {
	editor *Editor
}

var _ dragdrop.Sink = (*dropSink)(nil)

func (s *dropSink) InsertComponent(componentType string, parentID types.NodeID, slot string, index int) error {
	e := s.editor
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.store.Insert(componentType, parentID, slot, index, nil)
	if err != nil {
		e.history.DiscardTransient()
		return err
	}
	e.commitCoalesced(res, types.EventInsert)
	return nil
}

func (s *dropSink) MoveNode(nodeID, parentID types.NodeID, slot string, index int) error {
	e := s.editor
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.store.Move(nodeID, parentID, slot, index)
	if err != nil {
		e.history.DiscardTransient()
		return err
	}
	e.commitCoalesced(res, types.EventMove)
	return nil
}

// PreviewMove applies a live reorder during an active drag as a transient
// history entry. The eventual Drop coalesces these into the single committed
// entry; a cancelled drag discards them.
func (e *Editor) PreviewMove(nodeID, parentID types.NodeID, slot string, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.store.Move(nodeID, parentID, slot, index)
	if err != nil {
		return err
	}
	e.commit(res, types.EventMove, true)
	return nil
}

// CancelDrag aborts the active drag and rolls back any transient preview
// entries so the document returns to its pre-drag state.
func (e *Editor) CancelDrag() {
	e.drag.Cancel()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.DiscardTransient()
}

// commitCoalesced folds pending transient entries plus res into one history
// entry and notifies watchers. Callers hold the mutex.
func (e *Editor) commitCoalesced(res *document.Result, kind types.EventKind) {
	entry := e.history.CommitCoalesced(res, kind)
	e.pruneSelection()
	e.notify(types.DocumentEvent{
		OpID:      entry.OpID,
		Kind:      kind,
		NodeIDs:   affectedNodes(res),
		Version:   e.store.Version(),
		Timestamp: entry.Timestamp,
	})
}

// canDrop pre-filters hover targets: the payload type must be accepted by
// the target slot, and an existing node can never be dropped into itself or
// one of its descendants.
func (e *Editor) canDrop(t dragdrop.Target, p dragdrop.Payload) bool {
	doc := e.store.Document()
	parent, ok := doc.Nodes[t.NodeID]
	if !ok {
		return false
	}
	switch p.Kind {
	case dragdrop.PayloadNewComponent:
		return e.registry.Accepts(parent.Type, t.Slot, p.ComponentType)
	case dragdrop.PayloadExistingNode:
		if p.NodeID == t.NodeID || doc.IsDescendant(t.NodeID, p.NodeID) {
			return false
		}
		node, ok := doc.Nodes[p.NodeID]
		if !ok {
			return false
		}
		return e.registry.Accepts(parent.Type, t.Slot, node.Type)
	}
	return false
}
