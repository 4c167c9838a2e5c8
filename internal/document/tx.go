package document

import (
	"github.com/conneroisu/pagewright/internal/types"
)

// Tx records every node and symbol transition of one atomic operation while
// applying it to the live document. If the operation fails mid-way the
// recorded changes are replayed in reverse, leaving the document exactly as
// it was: operations are all-or-nothing.
//
// Tx is the single funnel for composite operations (symbol management,
// template expansion) that must land in history as one entry.
type Tx struct {
	doc  *types.Document
	diff types.Diff
}

// Doc exposes the document for reads during a transaction. Callers must not
// mutate nodes directly; use the Tx mutators so the diff stays complete.
func (t *Tx) Doc() *types.Document {
	return t.doc
}

// AddNode inserts a new node into the document.
func (t *Tx) AddNode(n *types.Node) {
	t.doc.Nodes[n.ID] = n
	t.diff.Nodes = append(t.diff.Nodes, types.NodeChange{
		Kind:   types.ChangeAdd,
		NodeID: n.ID,
		After:  n.Clone(),
	})
}

// UpdateNode applies fn to the node and records the before/after snapshots.
// Unknown ids are ignored.
func (t *Tx) UpdateNode(id types.NodeID, fn func(*types.Node)) {
	n, ok := t.doc.Nodes[id]
	if !ok {
		return
	}
	before := n.Clone()
	fn(n)
	t.diff.Nodes = append(t.diff.Nodes, types.NodeChange{
		Kind:   types.ChangeUpdate,
		NodeID: id,
		Before: before,
		After:  n.Clone(),
	})
}

// RemoveNode deletes the node from the document.
func (t *Tx) RemoveNode(id types.NodeID) {
	n, ok := t.doc.Nodes[id]
	if !ok {
		return
	}
	before := n.Clone()
	delete(t.doc.Nodes, id)
	t.diff.Nodes = append(t.diff.Nodes, types.NodeChange{
		Kind:   types.ChangeRemove,
		NodeID: id,
		Before: before,
	})
}

// PutSymbol inserts a new symbol entry.
func (t *Tx) PutSymbol(s *types.Symbol) {
	if t.doc.Symbols == nil {
		t.doc.Symbols = map[string]*types.Symbol{}
	}
	t.doc.Symbols[s.ID] = s
	t.diff.Symbols = append(t.diff.Symbols, types.SymbolChange{
		Kind:     types.ChangeAdd,
		SymbolID: s.ID,
		After:    s.Clone(),
	})
}

// UpdateSymbol applies fn to the symbol and records the transition.
func (t *Tx) UpdateSymbol(id string, fn func(*types.Symbol)) {
	s, ok := t.doc.Symbols[id]
	if !ok {
		return
	}
	before := s.Clone()
	fn(s)
	t.diff.Symbols = append(t.diff.Symbols, types.SymbolChange{
		Kind:     types.ChangeUpdate,
		SymbolID: id,
		Before:   before,
		After:    s.Clone(),
	})
}

// RemoveSymbol deletes the symbol entry.
func (t *Tx) RemoveSymbol(id string) {
	s, ok := t.doc.Symbols[id]
	if !ok {
		return
	}
	before := s.Clone()
	delete(t.doc.Symbols, id)
	t.diff.Symbols = append(t.diff.Symbols, types.SymbolChange{
		Kind:     types.ChangeRemove,
		SymbolID: id,
		Before:   before,
	})
}

// rollback undoes everything the transaction applied so far.
func (t *Tx) rollback() {
	t.diff.Reverse().Apply(t.doc)
}
