// Package types provides common type definitions used throughout Pagewright.
// This package contains shared types to avoid circular dependencies between packages.
package types

import "github.com/google/uuid"

// NodeID uniquely identifies a node within a document.
type NodeID string

// NewNodeID generates a fresh node identifier.
func NewNodeID() NodeID {
	return NodeID(uuid.NewString())
}

// CurrentSchemaVersion is the schema version written by this build.
// Documents with a higher version are rejected on load.
const CurrentSchemaVersion = 1

// DefaultSlot is the unnamed containment zone of a container node.
const DefaultSlot = ""

// SymbolRef links an instance node back to its counterpart in a symbol master
// subtree. A node with a nil SymbolRef is independent.
type SymbolRef struct {
	// SymbolID identifies the symbol this node belongs to
	SymbolID string `json:"symbolId"`
	// InstanceRootID is the root node of the instance subtree containing this node
	InstanceRootID NodeID `json:"instanceRootId"`
	// MasterID is the counterpart node inside the master subtree
	MasterID NodeID `json:"masterId"`
}

// Node is one entry in the page's component tree.
type Node struct {
	// ID is the unique node identifier
	ID NodeID `json:"id"`
	// Type is the component type tag resolved through the registry
	Type string `json:"type"`
	// Props maps field names to scalar values or *ResponsiveValue
	Props map[string]any `json:"props,omitempty"`
	// ParentID is empty for the document root and for detached symbol masters
	ParentID NodeID `json:"parentId,omitempty"`
	// Slot names the containment zone in the parent ("" is the default zone)
	Slot string `json:"slot,omitempty"`
	// ChildIDs is the ordered child list across all slots
	ChildIDs []NodeID `json:"childIds,omitempty"`
	// SymbolRef is set while the node is linked to a symbol master
	SymbolRef *SymbolRef `json:"symbolRef,omitempty"`
}

// Clone returns a deep copy of the node. Prop values are copied one level
// deep; ResponsiveValue props are fully copied.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		ID:       n.ID,
		Type:     n.Type,
		ParentID: n.ParentID,
		Slot:     n.Slot,
	}
	if n.Props != nil {
		c.Props = make(map[string]any, len(n.Props))
		for k, v := range n.Props {
			if rv, ok := v.(*ResponsiveValue); ok {
				c.Props[k] = rv.Clone()
			} else {
				c.Props[k] = v
			}
		}
	}
	if n.ChildIDs != nil {
		c.ChildIDs = make([]NodeID, len(n.ChildIDs))
		copy(c.ChildIDs, n.ChildIDs)
	}
	if n.SymbolRef != nil {
		ref := *n.SymbolRef
		c.SymbolRef = &ref
	}
	return c
}

// Instance records one linked clone of a symbol master.
type Instance struct {
	// RootID is the instance subtree root in the document tree
	RootID NodeID `json:"rootId"`
	// Overrides maps a node path relative to the instance root to the fields
	// pinned on that node. An overridden field no longer receives master edits.
	Overrides map[string]map[string]any `json:"overrides,omitempty"`
}

// Symbol is a reusable master subtree plus its linked instances.
type Symbol struct {
	// ID is the symbol identifier
	ID string `json:"id"`
	// MasterRootID roots the detached master subtree inside Document.Nodes
	MasterRootID NodeID `json:"masterRootId"`
	// Instances lists the linked clones in creation order
	Instances []Instance `json:"instances,omitempty"`
}

// Clone returns a deep copy of the symbol.
func (s *Symbol) Clone() *Symbol {
	if s == nil {
		return nil
	}
	c := &Symbol{ID: s.ID, MasterRootID: s.MasterRootID}
	for _, inst := range s.Instances {
		ci := Instance{RootID: inst.RootID}
		if inst.Overrides != nil {
			ci.Overrides = make(map[string]map[string]any, len(inst.Overrides))
			for path, fields := range inst.Overrides {
				fc := make(map[string]any, len(fields))
				for f, v := range fields {
					fc[f] = v
				}
				ci.Overrides[path] = fc
			}
		}
		c.Instances = append(c.Instances, ci)
	}
	return c
}

// Document is the canonical page tree. Symbol masters live in Nodes as
// detached subtrees (no parent, not reachable from RootID).
type Document struct {
	// SchemaVersion is the serialization schema of this document
	SchemaVersion int `json:"schemaVersion"`
	// RootID is the root node; the root has no parent
	RootID NodeID `json:"root"`
	// Nodes maps every node id to its node, masters included
	Nodes map[NodeID]*Node `json:"nodes"`
	// Symbols maps symbol id to its master/instance bookkeeping
	Symbols map[string]*Symbol `json:"symbols,omitempty"`
}

// NewDocument creates a document holding a single root node of the given type.
func NewDocument(rootType string) *Document {
	root := &Node{ID: NewNodeID(), Type: rootType}
	return &Document{
		SchemaVersion: CurrentSchemaVersion,
		RootID:        root.ID,
		Nodes:         map[NodeID]*Node{root.ID: root},
		Symbols:       map[string]*Symbol{},
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := &Document{
		SchemaVersion: d.SchemaVersion,
		RootID:        d.RootID,
		Nodes:         make(map[NodeID]*Node, len(d.Nodes)),
		Symbols:       make(map[string]*Symbol, len(d.Symbols)),
	}
	for id, n := range d.Nodes {
		c.Nodes[id] = n.Clone()
	}
	for id, s := range d.Symbols {
		c.Symbols[id] = s.Clone()
	}
	return c
}

// Subtree collects the ids of nodeID and all its descendants, parents before
// children. Missing child ids are skipped.
func (d *Document) Subtree(nodeID NodeID) []NodeID {
	var out []NodeID
	var walk func(id NodeID)
	walk = func(id NodeID) {
		n, ok := d.Nodes[id]
		if !ok {
			return
		}
		out = append(out, id)
		for _, child := range n.ChildIDs {
			walk(child)
		}
	}
	walk(nodeID)
	return out
}

// IsDescendant reports whether nodeID lies in the subtree rooted at ancestorID,
// the ancestor itself excluded.
func (d *Document) IsDescendant(nodeID, ancestorID NodeID) bool {
	n, ok := d.Nodes[nodeID]
	if !ok {
		return false
	}
	for n.ParentID != "" {
		if n.ParentID == ancestorID {
			return true
		}
		n, ok = d.Nodes[n.ParentID]
		if !ok {
			return false
		}
	}
	return false
}
