// Package renderer builds the resolved render tree consumed read-only by
// rendering surfaces: responsive values collapsed for a concrete breakpoint,
// symbol instances expanded in place, unknown component types degraded to
// placeholders, and stale child references pruned rather than fatal.
package renderer

import (
	"sort"

	"github.com/conneroisu/pagewright/internal/registry"
	"github.com/conneroisu/pagewright/internal/responsive"
	"github.com/conneroisu/pagewright/internal/types"
)

// RenderNode is one node of the resolved tree. All props are concrete
// scalars for the requested breakpoint.
type RenderNode struct {
	ID    types.NodeID   `json:"id"`
	Type  string         `json:"type"`
	Props map[string]any `json:"props,omitempty"`
	Slot  string         `json:"slot,omitempty"`
	// Placeholder marks an unregistered component type
	Placeholder bool `json:"placeholder,omitempty"`
	// SymbolID is set for nodes linked to a symbol
	SymbolID string        `json:"symbolId,omitempty"`
	Children []*RenderNode `json:"children,omitempty"`
}

// BuildRenderTree walks the document from the root and produces the resolved
// tree for one breakpoint. Child ids that no longer resolve to a node are
// treated as pruned. Detached symbol masters are unreachable from the root
// and therefore never render.
func BuildRenderTree(doc *types.Document, reg *registry.Registry, bp types.Breakpoint) *RenderNode {
	return buildNode(doc, reg, bp, doc.RootID)
}

func buildNode(doc *types.Document, reg *registry.Registry, bp types.Breakpoint, id types.NodeID) *RenderNode {
	node, ok := doc.Nodes[id]
	if !ok {
		return nil
	}

	rn := &RenderNode{
		ID:   node.ID,
		Type: node.Type,
		Slot: node.Slot,
	}
	if _, registered := reg.Get(node.Type); !registered {
		rn.Placeholder = true
	}
	if node.SymbolRef != nil {
		rn.SymbolID = node.SymbolRef.SymbolID
	}
	if len(node.Props) > 0 {
		rn.Props = make(map[string]any, len(node.Props))
		for k, v := range node.Props {
			rn.Props[k] = responsive.ResolveProp(v, bp)
		}
	}
	for _, cid := range node.ChildIDs {
		if child := buildNode(doc, reg, bp, cid); child != nil {
			rn.Children = append(rn.Children, child)
		}
	}
	return rn
}

// PlaceholderTypes collects the distinct component types that degraded to
// placeholders, sorted, so callers can surface the registry misses.
func PlaceholderTypes(root *RenderNode) []string {
	seen := map[string]bool{}
	var walk func(rn *RenderNode)
	walk = func(rn *RenderNode) {
		if rn == nil {
			return
		}
		if rn.Placeholder {
			seen[rn.Type] = true
		}
		for _, child := range rn.Children {
			walk(child)
		}
	}
	walk(root)
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// PropNames returns the sorted prop keys of a render node, for deterministic
// HTML attribute output.
func (rn *RenderNode) PropNames() []string {
	names := make([]string, 0, len(rn.Props))
	for k := range rn.Props {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
