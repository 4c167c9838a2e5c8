package types

// ChangeKind classifies one entry in a diff.
type ChangeKind string

const (
	ChangeAdd    ChangeKind = "add"
	ChangeRemove ChangeKind = "remove"
	ChangeUpdate ChangeKind = "update"
)

// NodeChange is one node transition inside a diff. Before and After are
// deep-copied snapshots, so a recorded diff is immune to later mutation.
type NodeChange struct {
	Kind   ChangeKind `json:"kind"`
	NodeID NodeID     `json:"nodeId"`
	// Before is nil for add
	Before *Node `json:"before,omitempty"`
	// After is nil for remove
	After *Node `json:"after,omitempty"`
}

// SymbolChange is one symbol-table transition inside a diff.
type SymbolChange struct {
	Kind     ChangeKind `json:"kind"`
	SymbolID string     `json:"symbolId"`
	Before   *Symbol    `json:"before,omitempty"`
	After    *Symbol    `json:"after,omitempty"`
}

// Diff is an ordered list of node and symbol transitions produced by one
// document operation. Applying a diff and then its Reverse restores the
// prior document exactly.
type Diff struct {
	Nodes   []NodeChange   `json:"nodes,omitempty"`
	Symbols []SymbolChange `json:"symbols,omitempty"`
}

// Empty reports whether the diff carries no changes.
func (d Diff) Empty() bool {
	return len(d.Nodes) == 0 && len(d.Symbols) == 0
}

// Reverse returns the inverse diff: changes in reverse order with
// before/after swapped and add/remove exchanged.
func (d Diff) Reverse() Diff {
	var out Diff
	for i := len(d.Nodes) - 1; i >= 0; i-- {
		ch := d.Nodes[i]
		out.Nodes = append(out.Nodes, NodeChange{
			Kind:   reverseKind(ch.Kind),
			NodeID: ch.NodeID,
			Before: ch.After,
			After:  ch.Before,
		})
	}
	for i := len(d.Symbols) - 1; i >= 0; i-- {
		ch := d.Symbols[i]
		out.Symbols = append(out.Symbols, SymbolChange{
			Kind:     reverseKind(ch.Kind),
			SymbolID: ch.SymbolID,
			Before:   ch.After,
			After:    ch.Before,
		})
	}
	return out
}

// Concat appends the changes of other after the changes of d.
func (d Diff) Concat(other Diff) Diff {
	return Diff{
		Nodes:   append(append([]NodeChange{}, d.Nodes...), other.Nodes...),
		Symbols: append(append([]SymbolChange{}, d.Symbols...), other.Symbols...),
	}
}

func reverseKind(k ChangeKind) ChangeKind {
	switch k {
	case ChangeAdd:
		return ChangeRemove
	case ChangeRemove:
		return ChangeAdd
	default:
		return ChangeUpdate
	}
}

// Apply replays the diff onto the document in order. Snapshots are cloned on
// the way in, so the document never aliases diff contents.
func (d Diff) Apply(doc *Document) {
	for _, ch := range d.Nodes {
		switch ch.Kind {
		case ChangeAdd, ChangeUpdate:
			doc.Nodes[ch.NodeID] = ch.After.Clone()
		case ChangeRemove:
			delete(doc.Nodes, ch.NodeID)
		}
	}
	for _, ch := range d.Symbols {
		switch ch.Kind {
		case ChangeAdd, ChangeUpdate:
			if doc.Symbols == nil {
				doc.Symbols = map[string]*Symbol{}
			}
			doc.Symbols[ch.SymbolID] = ch.After.Clone()
		case ChangeRemove:
			delete(doc.Symbols, ch.SymbolID)
		}
	}
}
