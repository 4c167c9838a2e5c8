package dragdrop

import (
	"github.com/conneroisu/pagewright/internal/errors"
	"github.com/conneroisu/pagewright/internal/types"
)

// DocReader provides the read access the keyboard adapter needs to locate a
// node among its slot siblings.
type DocReader func() *types.Document

// Keyboard is the keyboard input adapter. It drives the same sink as pointer
// drops, so a keyboard reorder is indistinguishable from a pointer drag in
// the document and in history.
type Keyboard struct {
	sink Sink
	doc  DocReader
}

// NewKeyboard creates a keyboard reorder adapter.
func NewKeyboard(sink Sink, doc DocReader) *Keyboard {
	return &Keyboard{sink: sink, doc: doc}
}

// MoveBefore swaps the node with its previous sibling in the same slot.
func (k *Keyboard) MoveBefore(nodeID types.NodeID) error {
	return k.shift(nodeID, -1)
}

// MoveAfter swaps the node with its next sibling in the same slot.
func (k *Keyboard) MoveAfter(nodeID types.NodeID) error {
	return k.shift(nodeID, +1)
}

// MoveTo reparents the node to an arbitrary target, same as a cross-container
// pointer drop.
func (k *Keyboard) MoveTo(nodeID, parentID types.NodeID, slot string, index int) error {
	return k.sink.MoveNode(nodeID, parentID, slot, index)
}

func (k *Keyboard) shift(nodeID types.NodeID, delta int) error {
	doc := k.doc()
	node, ok := doc.Nodes[nodeID]
	if !ok {
		return errors.NewNotFoundError(errors.ErrCodeNodeNotFound, "node not found").WithNode(string(nodeID))
	}
	parent, ok := doc.Nodes[node.ParentID]
	if !ok {
		return errors.NewValidationError(errors.ErrCodeRootImmutable, "node has no parent to reorder within")
	}

	siblings := make([]types.NodeID, 0, len(parent.ChildIDs))
	for _, cid := range parent.ChildIDs {
		if c, ok := doc.Nodes[cid]; ok && c.Slot == node.Slot {
			siblings = append(siblings, cid)
		}
	}
	pos := -1
	for i, id := range siblings {
		if id == nodeID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return errors.NewInternalError("node missing from its slot sibling list", nil)
	}

	target := pos + delta
	if target < 0 || target >= len(siblings) {
		// Already at the edge; nothing to do.
		return nil
	}
	return k.sink.MoveNode(nodeID, parent.ID, node.Slot, target)
}
