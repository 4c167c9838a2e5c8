package document

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/conneroisu/pagewright/internal/errors"
	"github.com/conneroisu/pagewright/internal/registry"
	"github.com/conneroisu/pagewright/internal/types"
)

// validateProps checks patch values against the declared field schema.
// Fields absent from the schema pass through untouched; the registry only
// constrains what it declares.
func validateProps(def *registry.ComponentDef, props map[string]any) error {
	for name, value := range props {
		if value == nil {
			continue
		}
		field, ok := def.Field(name)
		if !ok {
			continue
		}
		if rv, isResponsive := value.(*types.ResponsiveValue); isResponsive {
			if !field.Responsive {
				return errors.NewValidationError(errors.ErrCodeFieldType,
					fmt.Sprintf("field %s of %s does not accept responsive values", name, def.Type))
			}
			if rv.Base != nil && !scalarMatches(field.Type, rv.Base) {
				return fieldTypeError(def.Type, name, field.Type, rv.Base)
			}
			for bp, ov := range rv.Overrides {
				if types.BreakpointIndex(bp) <= 0 {
					return errors.NewValidationError(errors.ErrCodeFieldType,
						fmt.Sprintf("field %s of %s: override breakpoint %q is not above mobile", name, def.Type, bp))
				}
				if ov != nil && !scalarMatches(field.Type, ov) {
					return fieldTypeError(def.Type, name, field.Type, ov)
				}
			}
			continue
		}
		if !scalarMatches(field.Type, value) {
			return fieldTypeError(def.Type, name, field.Type, value)
		}
	}
	return nil
}

func fieldTypeError(componentType, field, declared string, value any) error {
	return errors.NewValidationError(errors.ErrCodeFieldType,
		fmt.Sprintf("field %s of %s: %T does not conform to declared type %s", field, componentType, value, declared))
}

// scalarMatches reports whether a scalar value conforms to a declared field
// type. JSON decoding yields float64 for all numbers, so numeric fields
// accept both int and float forms.
func scalarMatches(declared string, v any) bool {
	switch declared {
	case "", "any":
		return true
	case "string":
		_, ok := v.(string)
		return ok
	case "bool":
		_, ok := v.(bool)
		return ok
	case "int", "float":
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	default:
		return false
	}
}

// RelPath computes the path of nodeID relative to rootID as dot-joined child
// indexes ("" for the root itself). Symbol overrides are keyed by these
// paths; master and instance subtrees mirror each other, so the same path
// addresses counterpart nodes on both sides.
func RelPath(doc *types.Document, rootID, nodeID types.NodeID) (string, bool) {
	if rootID == nodeID {
		return "", true
	}
	var segments []string
	cur := nodeID
	for cur != rootID {
		n, ok := doc.Nodes[cur]
		if !ok || n.ParentID == "" {
			return "", false
		}
		parent, ok := doc.Nodes[n.ParentID]
		if !ok {
			return "", false
		}
		idx := -1
		for i, cid := range parent.ChildIDs {
			if cid == cur {
				idx = i
				break
			}
		}
		if idx < 0 {
			return "", false
		}
		segments = append([]string{strconv.Itoa(idx)}, segments...)
		cur = parent.ID
	}
	return strings.Join(segments, "."), true
}

// NodeAtPath resolves a relative path produced by RelPath back to a node.
func NodeAtPath(doc *types.Document, rootID types.NodeID, path string) (*types.Node, bool) {
	n, ok := doc.Nodes[rootID]
	if !ok {
		return nil, false
	}
	if path == "" {
		return n, true
	}
	for _, seg := range strings.Split(path, ".") {
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(n.ChildIDs) {
			return nil, false
		}
		n, ok = doc.Nodes[n.ChildIDs[idx]]
		if !ok {
			return nil, false
		}
	}
	return n, true
}

// CheckInvariants verifies the structural invariants of the document: the
// root exists and has no parent, every child id resolves to a node whose
// parent/slot agree, and the tree is acyclic. Used by tests and by load-time
// verification.
func CheckInvariants(doc *types.Document) error {
	root, ok := doc.Nodes[doc.RootID]
	if !ok {
		return errors.NewInternalError("root node missing from document", nil)
	}
	if root.ParentID != "" {
		return errors.NewInternalError("root node has a parent", nil)
	}
	for id, n := range doc.Nodes {
		if n.ID != id {
			return errors.NewInternalError(fmt.Sprintf("node keyed as %s carries id %s", id, n.ID), nil)
		}
		for _, cid := range n.ChildIDs {
			child, ok := doc.Nodes[cid]
			if !ok {
				return errors.NewInternalError(fmt.Sprintf("node %s references missing child %s", id, cid), nil)
			}
			if child.ParentID != id {
				return errors.NewInternalError(fmt.Sprintf("child %s of %s claims parent %s", cid, id, child.ParentID), nil)
			}
		}
		if n.ParentID != "" {
			parent, ok := doc.Nodes[n.ParentID]
			if !ok {
				return errors.NewInternalError(fmt.Sprintf("node %s references missing parent %s", id, n.ParentID), nil)
			}
			found := false
			for _, cid := range parent.ChildIDs {
				if cid == id {
					found = true
					break
				}
			}
			if !found {
				return errors.NewInternalError(fmt.Sprintf("node %s missing from parent %s child list", id, n.ParentID), nil)
			}
		}
	}
	// Acyclicity: every node must reach a parentless ancestor without
	// revisiting itself.
	for id := range doc.Nodes {
		seen := map[types.NodeID]bool{}
		cur := doc.Nodes[id]
		for cur.ParentID != "" {
			if seen[cur.ID] {
				return errors.NewInternalError(fmt.Sprintf("cycle detected through node %s", id), nil)
			}
			seen[cur.ID] = true
			next, ok := doc.Nodes[cur.ParentID]
			if !ok {
				break
			}
			cur = next
		}
	}
	return nil
}
