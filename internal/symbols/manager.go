// Package symbols tracks reusable master subtrees, their linked instances,
// and per-instance field overrides. Master edits propagate to every instance
// node whose field is not overridden; overrides pin a field against future
// propagation. All mutation runs through document store transactions so each
// symbol operation is one atomic, undoable history entry.
package symbols

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/conneroisu/pagewright/internal/document"
	"github.com/conneroisu/pagewright/internal/errors"
	"github.com/conneroisu/pagewright/internal/logging"
	"github.com/conneroisu/pagewright/internal/types"
)

// Manager coordinates symbol bookkeeping over the document store.
type Manager struct {
	store  *document.Store
	logger logging.Logger
}

// NewManager creates a symbol manager over the store.
func NewManager(store *document.Store, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{store: store, logger: logger.WithComponent("symbols")}
}

// CreateSymbol snapshots the subtree at nodeID as a new detached master and
// links the original occurrence as the first instance. Returns the new
// symbol id.
func (m *Manager) CreateSymbol(nodeID types.NodeID) (string, *document.Result, error) {
	doc := m.store.Document()
	if _, ok := doc.Nodes[nodeID]; !ok {
		return "", nil, errors.NewNotFoundError(errors.ErrCodeNodeNotFound, "node not found").WithNode(string(nodeID))
	}
	if nodeID == doc.RootID {
		return "", nil, errors.NewValidationError(errors.ErrCodeRootImmutable, "the root node cannot become a symbol")
	}

	symbolID := uuid.NewString()
	res, err := m.store.Transact(func(tx *document.Tx) error {
		// Detached master clone: fresh ids, no parent on the master root.
		mapping := cloneSubtree(tx, nodeID, "", "")

		tx.PutSymbol(&types.Symbol{
			ID:           symbolID,
			MasterRootID: mapping[nodeID],
			Instances:    []types.Instance{{RootID: nodeID, Overrides: map[string]map[string]any{}}},
		})

		for _, id := range tx.Doc().Subtree(nodeID) {
			masterID := mapping[id]
			tx.UpdateNode(id, func(n *types.Node) {
				n.SymbolRef = &types.SymbolRef{
					SymbolID:       symbolID,
					InstanceRootID: nodeID,
					MasterID:       masterID,
				}
			})
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	res.NodeID = nodeID
	m.logger.Debug(context.Background(), "symbol created", "symbol", symbolID, "first_instance", nodeID)
	return symbolID, res, nil
}

// InsertInstance clones the master subtree with fresh ids under parentID,
// recording a link from each cloned node back to its master counterpart.
func (m *Manager) InsertInstance(symbolID string, parentID types.NodeID, slot string, index int) (*document.Result, error) {
	doc := m.store.Document()
	sym, ok := doc.Symbols[symbolID]
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeSymbolNotFound, "symbol not found: "+symbolID)
	}
	master, ok := doc.Nodes[sym.MasterRootID]
	if !ok {
		return nil, errors.NewInternalError("symbol master subtree missing", nil)
	}
	parent, ok := doc.Nodes[parentID]
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeNodeNotFound, "parent node not found").WithNode(string(parentID))
	}
	if !m.store.Registry().Accepts(parent.Type, slot, master.Type) {
		return nil, errors.NewValidationError(errors.ErrCodeSlotRejected,
			fmt.Sprintf("type %s not accepted in slot %q of %s", master.Type, slot, parent.Type))
	}

	var instanceRootID types.NodeID
	res, err := m.store.Transact(func(tx *document.Tx) error {
		mapping := cloneSubtree(tx, sym.MasterRootID, parentID, slot)
		instanceRootID = mapping[sym.MasterRootID]

		for masterID, cloneID := range mapping {
			ref := &types.SymbolRef{
				SymbolID:       symbolID,
				InstanceRootID: instanceRootID,
				MasterID:       masterID,
			}
			tx.UpdateNode(cloneID, func(n *types.Node) { n.SymbolRef = ref })
		}

		tx.UpdateNode(parentID, func(p *types.Node) {
			p.ChildIDs = document.InsertChildID(tx.Doc(), p, slot, index, instanceRootID)
		})
		tx.UpdateSymbol(symbolID, func(s *types.Symbol) {
			s.Instances = append(s.Instances, types.Instance{
				RootID:    instanceRootID,
				Overrides: map[string]map[string]any{},
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.NodeID = instanceRootID
	return res, nil
}

// EditMaster applies patch to a node inside a master subtree and propagates
// each changed field to the counterpart node in every instance, skipping any
// (instance node, field) pair with a recorded override. Editing a node whose
// master link has drifted is a logged no-op, never a failure: the returned
// result is nil.
func (m *Manager) EditMaster(masterNodeID types.NodeID, patch map[string]any) (*document.Result, error) {
	doc := m.store.Document()
	node, ok := doc.Nodes[masterNodeID]
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeNodeNotFound, "master node not found").WithNode(string(masterNodeID))
	}

	sym := m.symbolForMasterNode(masterNodeID)
	if sym == nil {
		m.logger.Warn(context.Background(), nil, "master link has drifted, edit skipped", "node", masterNodeID)
		return nil, nil
	}
	if err := m.store.ValidatePatch(node.Type, patch); err != nil {
		return nil, err
	}
	path, ok := document.RelPath(doc, sym.MasterRootID, masterNodeID)
	if !ok {
		m.logger.Warn(context.Background(), nil, "master link has drifted, edit skipped", "node", masterNodeID)
		return nil, nil
	}

	res, err := m.store.Transact(func(tx *document.Tx) error {
		tx.UpdateNode(masterNodeID, func(n *types.Node) {
			document.ApplyPropsPatch(n, patch, false)
		})

		for _, inst := range sym.Instances {
			target, ok := document.NodeAtPath(tx.Doc(), inst.RootID, path)
			if !ok || target.SymbolRef == nil || target.SymbolRef.MasterID != masterNodeID {
				m.logger.Warn(context.Background(), nil, "instance structure has drifted, propagation skipped",
					"symbol", sym.ID, "instance", inst.RootID)
				continue
			}
			filtered := make(map[string]any, len(patch))
			for field, value := range patch {
				if _, overridden := inst.Overrides[path][field]; overridden {
					continue
				}
				filtered[field] = value
			}
			if len(filtered) == 0 {
				continue
			}
			tx.UpdateNode(target.ID, func(n *types.Node) {
				document.ApplyPropsPatch(n, filtered, false)
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.NodeID = masterNodeID
	return res, nil
}

// SetOverride pins a field on an instance node: the value is applied and
// future master edits to that field no longer propagate to this node. A
// drifted link is a logged no-op.
func (m *Manager) SetOverride(instanceNodeID types.NodeID, field string, value any) (*document.Result, error) {
	doc := m.store.Document()
	node, ok := doc.Nodes[instanceNodeID]
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeNodeNotFound, "instance node not found").WithNode(string(instanceNodeID))
	}
	if node.SymbolRef == nil {
		m.logger.Warn(context.Background(), nil, "node is not linked to a symbol, override skipped", "node", instanceNodeID)
		return nil, nil
	}
	ref := node.SymbolRef
	sym, ok := doc.Symbols[ref.SymbolID]
	if !ok || instanceIndex(sym, ref.InstanceRootID) < 0 {
		m.logger.Warn(context.Background(), nil, "instance link has drifted, override skipped", "node", instanceNodeID)
		return nil, nil
	}
	if err := m.store.ValidatePatch(node.Type, map[string]any{field: value}); err != nil {
		return nil, err
	}
	path, ok := document.RelPath(doc, ref.InstanceRootID, instanceNodeID)
	if !ok {
		m.logger.Warn(context.Background(), nil, "instance link has drifted, override skipped", "node", instanceNodeID)
		return nil, nil
	}

	res, err := m.store.Transact(func(tx *document.Tx) error {
		tx.UpdateNode(instanceNodeID, func(n *types.Node) {
			document.ApplyPropsPatch(n, map[string]any{field: value}, false)
		})
		tx.UpdateSymbol(sym.ID, func(s *types.Symbol) {
			idx := instanceIndex(s, ref.InstanceRootID)
			if idx < 0 {
				return
			}
			if s.Instances[idx].Overrides == nil {
				s.Instances[idx].Overrides = map[string]map[string]any{}
			}
			if s.Instances[idx].Overrides[path] == nil {
				s.Instances[idx].Overrides[path] = map[string]any{}
			}
			s.Instances[idx].Overrides[path][field] = value
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.NodeID = instanceNodeID
	return res, nil
}

// Unlink severs all override bookkeeping for the instance rooted at
// instanceRootID, converting it into an independent subtree. One-way within
// the manager; reversible only through history undo.
func (m *Manager) Unlink(instanceRootID types.NodeID) (*document.Result, error) {
	doc := m.store.Document()
	node, ok := doc.Nodes[instanceRootID]
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeNodeNotFound, "instance root not found").WithNode(string(instanceRootID))
	}
	if node.SymbolRef == nil || node.SymbolRef.InstanceRootID != instanceRootID {
		m.logger.Warn(context.Background(), nil, "node is not an instance root, unlink skipped", "node", instanceRootID)
		return nil, nil
	}
	symbolID := node.SymbolRef.SymbolID

	res, err := m.store.Transact(func(tx *document.Tx) error {
		for _, id := range tx.Doc().Subtree(instanceRootID) {
			n := tx.Doc().Nodes[id]
			if n.SymbolRef != nil && n.SymbolRef.SymbolID == symbolID {
				tx.UpdateNode(id, func(nn *types.Node) { nn.SymbolRef = nil })
			}
		}
		tx.UpdateSymbol(symbolID, func(s *types.Symbol) {
			idx := instanceIndex(s, instanceRootID)
			if idx >= 0 {
				s.Instances = append(s.Instances[:idx], s.Instances[idx+1:]...)
			}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.NodeID = instanceRootID
	m.logger.Debug(context.Background(), "instance unlinked", "symbol", symbolID, "instance", instanceRootID)
	return res, nil
}

// symbolForMasterNode finds the symbol whose detached master subtree
// contains nodeID, or nil when the link has drifted.
func (m *Manager) symbolForMasterNode(nodeID types.NodeID) *types.Symbol {
	doc := m.store.Document()
	cur, ok := doc.Nodes[nodeID]
	if !ok {
		return nil
	}
	for cur.ParentID != "" {
		cur, ok = doc.Nodes[cur.ParentID]
		if !ok {
			return nil
		}
	}
	for _, sym := range doc.Symbols {
		if sym.MasterRootID == cur.ID {
			return sym
		}
	}
	return nil
}

func instanceIndex(sym *types.Symbol, rootID types.NodeID) int {
	for i, inst := range sym.Instances {
		if inst.RootID == rootID {
			return i
		}
	}
	return -1
}

// cloneSubtree deep-copies the subtree at srcID with fresh ids, adding the
// clones to the transaction. The clone root gets the given parent and slot
// ("" for a detached master). Returns the src→clone id mapping. The caller
// wires the clone root into its parent's child list.
func cloneSubtree(tx *document.Tx, srcID types.NodeID, parentID types.NodeID, slot string) map[types.NodeID]types.NodeID {
	doc := tx.Doc()
	mapping := map[types.NodeID]types.NodeID{}

	var clone func(id types.NodeID, parent types.NodeID, slotName string) types.NodeID
	clone = func(id types.NodeID, parent types.NodeID, slotName string) types.NodeID {
		src := doc.Nodes[id]
		c := src.Clone()
		c.ID = types.NewNodeID()
		c.ParentID = parent
		c.Slot = slotName
		c.SymbolRef = nil
		c.ChildIDs = nil
		mapping[id] = c.ID
		tx.AddNode(c)

		for _, childID := range src.ChildIDs {
			child, ok := doc.Nodes[childID]
			if !ok {
				continue
			}
			cloneChildID := clone(childID, c.ID, child.Slot)
			tx.UpdateNode(c.ID, func(n *types.Node) {
				n.ChildIDs = append(n.ChildIDs, cloneChildID)
			})
		}
		return c.ID
	}
	clone(srcID, parentID, slot)
	return mapping
}
