// Package document owns the canonical page tree and exposes the only
// mutation API: insert, move, updateProps, delete, and bulk subtree
// insertion. Every call validates against the component registry, applies
// atomically, and returns a forward/reverse diff pair for history recording.
package document

import (
	"context"
	"fmt"
	"sort"

	"github.com/conneroisu/pagewright/internal/errors"
	"github.com/conneroisu/pagewright/internal/logging"
	"github.com/conneroisu/pagewright/internal/registry"
	"github.com/conneroisu/pagewright/internal/responsive"
	"github.com/conneroisu/pagewright/internal/types"
)

// Result carries the outcome of one atomic store operation. Forward applied
// to the prior document yields the new one; Reverse undoes it exactly.
type Result struct {
	// NodeID is the created or affected node, when the operation has one
	NodeID  types.NodeID
	Forward types.Diff
	Reverse types.Diff
}

// Store is the single writer of the document. All mutation funnels through
// it so history can record one atomic diff per operation. The store is not
// goroutine-safe; the editor serializes access (single-writer model).
type Store struct {
	doc      *types.Document
	registry *registry.Registry
	version  uint64
	logger   logging.Logger
	newID    func() types.NodeID
}

// New creates a store over an existing document.
func New(doc *types.Document, reg *registry.Registry, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		doc:      doc,
		registry: reg,
		logger:   logger.WithComponent("document"),
		newID:    types.NewNodeID,
	}
}

// Document returns the live document. Callers must treat it as read-only;
// rendering and serialization walk it without mutating.
func (s *Store) Document() *types.Document {
	return s.doc
}

// Registry returns the component registry the store validates against.
func (s *Store) Registry() *registry.Registry {
	return s.registry
}

// Version returns the mutation counter, advanced once per applied operation.
// The proposal pipeline stamps requests with it to detect intervening edits.
func (s *Store) Version() uint64 {
	return s.version
}

// Node returns the node for id. The returned node is live; treat as read-only.
func (s *Store) Node(id types.NodeID) (*types.Node, bool) {
	n, ok := s.doc.Nodes[id]
	return n, ok
}

// Transact runs a composite operation as one atomic diff. On error every
// change already applied is rolled back and the document is unchanged. This
// is the extension point for symbol management and other multi-node
// operations that must land in history as a single entry.
func (s *Store) Transact(fn func(*Tx) error) (*Result, error) {
	tx := &Tx{doc: s.doc}
	if err := fn(tx); err != nil {
		tx.rollback()
		return nil, err
	}
	s.version++
	return &Result{Forward: tx.diff, Reverse: tx.diff.Reverse()}, nil
}

// ApplyDiff replays an already-validated diff, used by history undo/redo.
func (s *Store) ApplyDiff(d types.Diff) {
	d.Apply(s.doc)
	s.version++
}

// Insert creates a new node of componentType under parentID in the named
// slot. The index is clamped to [0, len] of the slot's sibling list. Initial
// props merge over the registry defaults. Fails with a validation error, the
// document unchanged, if the parent's registry entry rejects the slot/type
// pairing.
func (s *Store) Insert(componentType string, parentID types.NodeID, slot string, index int, initialProps map[string]any) (*Result, error) {
	parent, ok := s.doc.Nodes[parentID]
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeNodeNotFound, "parent node not found").WithNode(string(parentID))
	}
	if !s.registry.Accepts(parent.Type, slot, componentType) {
		return nil, errors.NewValidationError(errors.ErrCodeSlotRejected,
			fmt.Sprintf("type %s not accepted in slot %q of %s", componentType, slot, parent.Type)).
			WithNode(string(parentID))
	}

	props := map[string]any{}
	if def, ok := s.registry.Get(componentType); ok {
		props = def.DefaultProps()
		if err := validateProps(def, initialProps); err != nil {
			return nil, err
		}
	}
	for k, v := range initialProps {
		props[k] = v
	}

	node := &types.Node{
		ID:       s.newID(),
		Type:     componentType,
		Props:    props,
		ParentID: parentID,
		Slot:     slot,
	}

	res, err := s.Transact(func(tx *Tx) error {
		tx.AddNode(node)
		tx.UpdateNode(parentID, func(p *types.Node) {
			p.ChildIDs = InsertChildID(tx.doc, p, slot, index, node.ID)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.NodeID = node.ID
	s.logger.Debug(context.Background(), "node inserted",
		"node", node.ID, "type", componentType, "parent", parentID, "slot", slot)
	return res, nil
}

// Move reparents nodeID under newParentID at newSlot/newIndex. Fails with a
// cycle error, the document unchanged, if the new parent is the node itself
// or one of its descendants; fails with a validation error if the target
// rejects the node's type.
func (s *Store) Move(nodeID, newParentID types.NodeID, newSlot string, newIndex int) (*Result, error) {
	node, ok := s.doc.Nodes[nodeID]
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeNodeNotFound, "node not found").WithNode(string(nodeID))
	}
	if nodeID == s.doc.RootID {
		return nil, errors.NewValidationError(errors.ErrCodeRootImmutable, "the root node cannot be moved")
	}
	newParent, ok := s.doc.Nodes[newParentID]
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeNodeNotFound, "target parent not found").WithNode(string(newParentID))
	}
	if newParentID == nodeID || s.doc.IsDescendant(newParentID, nodeID) {
		return nil, errors.NewCycleError(string(nodeID))
	}
	if !s.registry.Accepts(newParent.Type, newSlot, node.Type) {
		return nil, errors.NewValidationError(errors.ErrCodeTypeRejected,
			fmt.Sprintf("type %s not accepted in slot %q of %s", node.Type, newSlot, newParent.Type)).
			WithNode(string(newParentID))
	}

	oldParentID := node.ParentID
	res, err := s.Transact(func(tx *Tx) error {
		tx.UpdateNode(oldParentID, func(p *types.Node) {
			p.ChildIDs = removeChildID(p.ChildIDs, nodeID)
		})
		tx.UpdateNode(nodeID, func(n *types.Node) {
			n.ParentID = newParentID
			n.Slot = newSlot
		})
		tx.UpdateNode(newParentID, func(p *types.Node) {
			p.ChildIDs = InsertChildID(tx.doc, p, newSlot, newIndex, nodeID)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.NodeID = nodeID
	s.logger.Debug(context.Background(), "node moved",
		"node", nodeID, "from", oldParentID, "to", newParentID, "slot", newSlot)
	return res, nil
}

// UpdateOption configures UpdateProps behavior.
type UpdateOption func(*updateConfig)

type updateConfig struct {
	replaceResponsive bool
}

// WithReplaceResponsive makes responsive patch values replace the stored
// value wholesale instead of merging breakpoint keys.
func WithReplaceResponsive() UpdateOption {
	return func(c *updateConfig) { c.replaceResponsive = true }
}

// UpdateProps merges patch into the node's props. A responsive patch value
// merges per breakpoint key unless WithReplaceResponsive is set. A nil patch
// value removes the field.
func (s *Store) UpdateProps(nodeID types.NodeID, patch map[string]any, opts ...UpdateOption) (*Result, error) {
	cfg := updateConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	node, ok := s.doc.Nodes[nodeID]
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeNodeNotFound, "node not found").WithNode(string(nodeID))
	}
	if def, ok := s.registry.Get(node.Type); ok {
		if err := validateProps(def, patch); err != nil {
			return nil, err
		}
	}

	res, err := s.Transact(func(tx *Tx) error {
		tx.UpdateNode(nodeID, func(n *types.Node) {
			ApplyPropsPatch(n, patch, cfg.replaceResponsive)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.NodeID = nodeID
	return res, nil
}

// ValidatePatch checks patch values against the declared schema for
// componentType. Unregistered types pass; they carry no schema to violate.
func (s *Store) ValidatePatch(componentType string, patch map[string]any) error {
	if def, ok := s.registry.Get(componentType); ok {
		return validateProps(def, patch)
	}
	return nil
}

// ApplyPropsPatch merges patch into the node props in place. Exposed for
// composite operations that patch nodes inside a transaction.
func ApplyPropsPatch(n *types.Node, patch map[string]any, replace bool) {
	if n.Props == nil {
		n.Props = map[string]any{}
	}
	for k, v := range patch {
		if v == nil {
			delete(n.Props, k)
			continue
		}
		if rv, ok := v.(*types.ResponsiveValue); ok {
			existing, _ := n.Props[k].(*types.ResponsiveValue)
			if existing == nil && n.Props[k] != nil {
				// A scalar already on the field becomes the base, so a
				// breakpoint-only patch keeps the value it cascades from.
				existing = responsive.ToResponsive(n.Props[k])
			}
			n.Props[k] = responsive.Merge(existing, rv, replace)
			continue
		}
		n.Props[k] = v
	}
}

// Delete removes nodeID and all its descendants as one atomic operation.
// Symbol bookkeeping referencing the removed nodes is stripped in the same
// diff: deleting a master root unlinks every instance (the instances are
// kept as independent subtrees), deleting an instance root drops its entry
// from the symbol, and overrides keyed by removed nodes are discarded.
func (s *Store) Delete(nodeID types.NodeID) (*Result, error) {
	if _, ok := s.doc.Nodes[nodeID]; !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeNodeNotFound, "node not found").WithNode(string(nodeID))
	}
	if nodeID == s.doc.RootID {
		return nil, errors.NewValidationError(errors.ErrCodeRootImmutable, "the root node cannot be deleted")
	}

	subtree := s.doc.Subtree(nodeID)
	member := make(map[types.NodeID]bool, len(subtree))
	for _, id := range subtree {
		member[id] = true
	}
	// Override paths must be resolved against the pre-delete tree: removing
	// a child shifts the index paths of its later siblings.
	targets := s.resolveOverrideTargets()

	res, err := s.Transact(func(tx *Tx) error {
		doc := tx.Doc()

		if parentID := doc.Nodes[nodeID].ParentID; parentID != "" {
			tx.UpdateNode(parentID, func(p *types.Node) {
				p.ChildIDs = removeChildID(p.ChildIDs, nodeID)
			})
		}

		s.cleanSymbols(tx, member, targets)

		for _, id := range subtree {
			tx.RemoveNode(id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.NodeID = nodeID
	s.logger.Debug(context.Background(), "node deleted", "node", nodeID, "cascade", len(subtree))
	return res, nil
}

// resolveOverrideTargets maps every instance override path to the node it
// currently addresses. Delete captures this before mutating the tree so
// surviving overrides can be re-keyed after sibling indexes shift.
func (s *Store) resolveOverrideTargets() map[string]map[types.NodeID]map[string]types.NodeID {
	out := map[string]map[types.NodeID]map[string]types.NodeID{}
	for symID, sym := range s.doc.Symbols {
		for _, inst := range sym.Instances {
			if len(inst.Overrides) == 0 {
				continue
			}
			resolved := make(map[string]types.NodeID, len(inst.Overrides))
			for path := range inst.Overrides {
				if n, ok := NodeAtPath(s.doc, inst.RootID, path); ok {
					resolved[path] = n.ID
				}
			}
			if out[symID] == nil {
				out[symID] = map[types.NodeID]map[string]types.NodeID{}
			}
			out[symID][inst.RootID] = resolved
		}
	}
	return out
}

// cleanSymbols strips symbol bookkeeping referencing nodes about to be
// removed. Runs inside the delete transaction after the parent child list
// was updated, so overrides of surviving nodes are re-keyed to their
// shifted paths via the pre-delete target resolution.
func (s *Store) cleanSymbols(tx *Tx, member map[types.NodeID]bool, targets map[string]map[types.NodeID]map[string]types.NodeID) {
	doc := tx.Doc()

	symbolIDs := make([]string, 0, len(doc.Symbols))
	for id := range doc.Symbols {
		symbolIDs = append(symbolIDs, id)
	}
	sort.Strings(symbolIDs)

	for _, symID := range symbolIDs {
		sym := doc.Symbols[symID]

		if member[sym.MasterRootID] {
			// Master is going away: unlink every instance, keep the subtrees.
			for _, inst := range sym.Instances {
				for _, id := range doc.Subtree(inst.RootID) {
					n := doc.Nodes[id]
					if n.SymbolRef != nil && n.SymbolRef.SymbolID == symID {
						tx.UpdateNode(id, func(nn *types.Node) { nn.SymbolRef = nil })
					}
				}
			}
			tx.RemoveSymbol(symID)
			continue
		}

		needsUpdate := false
		for _, inst := range sym.Instances {
			if member[inst.RootID] {
				needsUpdate = true
				continue
			}
			for path := range inst.Overrides {
				target, ok := targets[symID][inst.RootID][path]
				if !ok || member[target] {
					needsUpdate = true
					continue
				}
				if newPath, ok := RelPath(doc, inst.RootID, target); !ok || newPath != path {
					needsUpdate = true
				}
			}
		}
		if !needsUpdate {
			continue
		}
		tx.UpdateSymbol(symID, func(sy *types.Symbol) {
			kept := sy.Instances[:0]
			for _, inst := range sy.Instances {
				if member[inst.RootID] {
					continue
				}
				if len(inst.Overrides) > 0 {
					rekeyed := make(map[string]map[string]any, len(inst.Overrides))
					for path, fields := range inst.Overrides {
						target, ok := targets[symID][inst.RootID][path]
						if !ok || member[target] {
							continue
						}
						newPath, ok := RelPath(doc, inst.RootID, target)
						if !ok {
							continue
						}
						rekeyed[newPath] = fields
					}
					inst.Overrides = rekeyed
				}
				kept = append(kept, inst)
			}
			sy.Instances = kept
		})
	}
}

// InsertSubtree materializes a declarative subtree under parentID as one
// atomic operation with fresh node ids. Bulk template insertion goes through
// here so an entire template lands as a single history entry.
func (s *Store) InsertSubtree(parentID types.NodeID, slot string, index int, sub *types.Subtree) (*Result, error) {
	parent, ok := s.doc.Nodes[parentID]
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeNodeNotFound, "parent node not found").WithNode(string(parentID))
	}
	if sub == nil {
		return nil, errors.NewValidationError(errors.ErrCodeTypeRejected, "empty subtree")
	}
	if !s.registry.Accepts(parent.Type, slot, sub.Type) {
		return nil, errors.NewValidationError(errors.ErrCodeSlotRejected,
			fmt.Sprintf("type %s not accepted in slot %q of %s", sub.Type, slot, parent.Type)).
			WithNode(string(parentID))
	}

	var rootID types.NodeID
	res, err := s.Transact(func(tx *Tx) error {
		id, err := s.buildSubtree(tx, sub, parentID, slot)
		if err != nil {
			return err
		}
		rootID = id
		tx.UpdateNode(parentID, func(p *types.Node) {
			p.ChildIDs = InsertChildID(tx.doc, p, slot, index, rootID)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.NodeID = rootID
	return res, nil
}

// InsertTemplate expands a named template from the registry library.
func (s *Store) InsertTemplate(tpl *registry.TemplateDef, parentID types.NodeID, slot string, index int) (*Result, error) {
	if tpl == nil || tpl.Root == nil {
		return nil, errors.NewValidationError(errors.ErrCodeTypeRejected, "template has no content")
	}
	return s.InsertSubtree(parentID, slot, index, tpl.Root)
}

// buildSubtree recursively materializes sub under parentID. Children are
// appended in declaration order; nested slot/type pairings are validated so
// an invalid template fails wholesale.
func (s *Store) buildSubtree(tx *Tx, sub *types.Subtree, parentID types.NodeID, slot string) (types.NodeID, error) {
	props := map[string]any{}
	if def, ok := s.registry.Get(sub.Type); ok {
		props = def.DefaultProps()
		if err := validateProps(def, sub.Props); err != nil {
			return "", err
		}
	}
	for k, v := range sub.Props {
		props[k] = v
	}

	node := &types.Node{
		ID:       s.newID(),
		Type:     sub.Type,
		Props:    props,
		ParentID: parentID,
		Slot:     slot,
	}
	tx.AddNode(node)

	for _, child := range sub.Children {
		if !s.registry.Accepts(sub.Type, child.Slot, child.Type) {
			return "", errors.NewValidationError(errors.ErrCodeSlotRejected,
				fmt.Sprintf("type %s not accepted in slot %q of %s", child.Type, child.Slot, sub.Type))
		}
		childID, err := s.buildSubtree(tx, child, node.ID, child.Slot)
		if err != nil {
			return "", err
		}
		tx.UpdateNode(node.ID, func(n *types.Node) {
			n.ChildIDs = append(n.ChildIDs, childID)
		})
	}
	return node.ID, nil
}

// slotPositions returns the global ChildIDs positions of the children living
// in the named slot, in order.
func slotPositions(doc *types.Document, parent *types.Node, slot string) []int {
	var out []int
	for i, cid := range parent.ChildIDs {
		child, ok := doc.Nodes[cid]
		if !ok {
			continue
		}
		if child.Slot == slot {
			out = append(out, i)
		}
	}
	return out
}

// InsertChildID returns parent.ChildIDs with id placed at the clamped index
// within the named slot's sibling list.
func InsertChildID(doc *types.Document, parent *types.Node, slot string, index int, id types.NodeID) []types.NodeID {
	positions := slotPositions(doc, parent, slot)
	if index < 0 {
		index = 0
	}
	if index > len(positions) {
		index = len(positions)
	}

	var global int
	switch {
	case index < len(positions):
		global = positions[index]
	case len(positions) > 0:
		global = positions[len(positions)-1] + 1
	default:
		global = len(parent.ChildIDs)
	}

	out := make([]types.NodeID, 0, len(parent.ChildIDs)+1)
	out = append(out, parent.ChildIDs[:global]...)
	out = append(out, id)
	out = append(out, parent.ChildIDs[global:]...)
	return out
}

// removeChildID returns ids without the first occurrence of id.
func removeChildID(ids []types.NodeID, id types.NodeID) []types.NodeID {
	out := make([]types.NodeID, 0, len(ids))
	for _, cid := range ids {
		if cid != id {
			out = append(out, cid)
		}
	}
	return out
}
