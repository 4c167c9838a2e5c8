// Package editor wires the document store, history, symbol manager,
// registry, and selection into one explicit context passed to all consumers.
// There is no module-level singleton: every view and input adapter receives
// the Editor it operates on. The editor serializes mutations (single-writer
// model) and fans one document event out per applied operation so canvas,
// outline, and property views stay consistent.
package editor

import (
	"sync"
	"time"

	"github.com/conneroisu/pagewright/internal/document"
	"github.com/conneroisu/pagewright/internal/dragdrop"
	"github.com/conneroisu/pagewright/internal/errors"
	"github.com/conneroisu/pagewright/internal/history"
	"github.com/conneroisu/pagewright/internal/logging"
	"github.com/conneroisu/pagewright/internal/registry"
	"github.com/conneroisu/pagewright/internal/symbols"
	"github.com/conneroisu/pagewright/internal/types"
)

// Editor owns one open document and every collaborator that edits it.
type Editor struct {
	store    *document.Store
	history  *history.History
	symbols  *symbols.Manager
	registry *registry.Registry
	logger   logging.Logger

	mu        sync.Mutex
	selection types.NodeID
	watchers  []chan types.DocumentEvent

	drag     *dragdrop.Engine
	keyboard *dragdrop.Keyboard
}

// New creates an editor over a document.
func New(doc *types.Document, reg *registry.Registry, logger logging.Logger) *Editor {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Editor{
		registry: reg,
		logger:   logger.WithComponent("editor"),
	}
	e.store = document.New(doc, reg, logger)
	e.history = history.New(e.store, logger)
	e.symbols = symbols.NewManager(e.store, logger)

	sink := &dropSink{editor: e}
	e.drag = dragdrop.NewEngine(sink, e.canDrop, logger)
	e.keyboard = dragdrop.NewKeyboard(sink, func() *types.Document { return e.store.Document() })
	return e
}

// Document returns the live document; treat as read-only.
func (e *Editor) Document() *types.Document { return e.store.Document() }

// Snapshot returns a deep copy of the document and the version it was taken
// at, captured under the editor lock. Serialization and rendering read the
// snapshot so concurrent edits never race the walk.
func (e *Editor) Snapshot() (*types.Document, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Document().Clone(), e.store.Version()
}

// Registry returns the component registry.
func (e *Editor) Registry() *registry.Registry { return e.registry }

// History returns the history manager.
func (e *Editor) History() *history.History { return e.history }

// Version returns the document mutation counter.
func (e *Editor) Version() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Version()
}

// Drag returns the drag-drop state machine.
func (e *Editor) Drag() *dragdrop.Engine { return e.drag }

// Keyboard returns the keyboard reorder adapter.
func (e *Editor) Keyboard() *dragdrop.Keyboard { return e.keyboard }

// Select sets the selected node; an empty id clears the selection.
func (e *Editor) Select(id types.NodeID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection = id
}

// Selection returns the selected node id, empty when nothing is selected.
func (e *Editor) Selection() types.NodeID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection
}

// Insert creates a node through the store and records one history entry.
func (e *Editor) Insert(componentType string, parentID types.NodeID, slot string, index int, props map[string]any) (types.NodeID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.store.Insert(componentType, parentID, slot, index, props)
	if err != nil {
		return "", err
	}
	e.commit(res, types.EventInsert, false)
	return res.NodeID, nil
}

// Move reparents a node through the store and records one history entry.
func (e *Editor) Move(nodeID, parentID types.NodeID, slot string, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.store.Move(nodeID, parentID, slot, index)
	if err != nil {
		return err
	}
	e.commit(res, types.EventMove, false)
	return nil
}

// UpdateProps patches a node's props and records one history entry.
func (e *Editor) UpdateProps(nodeID types.NodeID, patch map[string]any, opts ...document.UpdateOption) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.store.UpdateProps(nodeID, patch, opts...)
	if err != nil {
		return err
	}
	e.commit(res, types.EventUpdate, false)
	return nil
}

// Delete removes a node and its descendants as one undoable step.
func (e *Editor) Delete(nodeID types.NodeID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.store.Delete(nodeID)
	if err != nil {
		return err
	}
	e.commit(res, types.EventDelete, false)
	return nil
}

// InsertTemplate expands a named template from the registry library as one
// atomic, undoable bulk insertion.
func (e *Editor) InsertTemplate(name string, parentID types.NodeID, slot string, index int) (types.NodeID, error) {
	tpl, ok := e.registry.Template(name)
	if !ok {
		return "", errors.NewNotFoundError(errors.ErrCodePageNotFound, "template not found: "+name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.store.InsertTemplate(tpl, parentID, slot, index)
	if err != nil {
		return "", err
	}
	e.commit(res, types.EventTemplate, false)
	return res.NodeID, nil
}

// CreateSymbol snapshots the subtree at nodeID as a new symbol master.
func (e *Editor) CreateSymbol(nodeID types.NodeID) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	symbolID, res, err := e.symbols.CreateSymbol(nodeID)
	if err != nil {
		return "", err
	}
	e.commit(res, types.EventSymbol, false)
	return symbolID, nil
}

// InsertInstance places a fresh instance of a symbol.
func (e *Editor) InsertInstance(symbolID string, parentID types.NodeID, slot string, index int) (types.NodeID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.symbols.InsertInstance(symbolID, parentID, slot, index)
	if err != nil {
		return "", err
	}
	e.commit(res, types.EventSymbol, false)
	return res.NodeID, nil
}

// EditMaster patches a master node and propagates to non-overridden
// instance fields. A drifted master link is a logged no-op.
func (e *Editor) EditMaster(masterNodeID types.NodeID, patch map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.symbols.EditMaster(masterNodeID, patch)
	if err != nil {
		return err
	}
	if res != nil {
		e.commit(res, types.EventSymbol, false)
	}
	return nil
}

// SetOverride pins a field on an instance node against master propagation.
func (e *Editor) SetOverride(instanceNodeID types.NodeID, field string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.symbols.SetOverride(instanceNodeID, field, value)
	if err != nil {
		return err
	}
	if res != nil {
		e.commit(res, types.EventSymbol, false)
	}
	return nil
}

// Unlink converts an instance into an independent subtree. Reversible only
// through undo.
func (e *Editor) Unlink(instanceRootID types.NodeID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.symbols.Unlink(instanceRootID)
	if err != nil {
		return err
	}
	if res != nil {
		e.commit(res, types.EventSymbol, false)
	}
	return nil
}

// ApplyPatch applies an externally proposed multi-node props patch as one
// atomic history entry. baseVersion is the document version the patch was
// built against; if the document advanced since, the apply is rejected with
// a stale-proposal error rather than silently overwriting newer state.
func (e *Editor) ApplyPatch(patch map[types.NodeID]map[string]any, baseVersion uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cur := e.store.Version(); cur != baseVersion {
		return errors.NewStaleProposalError(baseVersion, cur)
	}

	doc := e.store.Document()
	for nodeID, fields := range patch {
		node, ok := doc.Nodes[nodeID]
		if !ok {
			return errors.NewNotFoundError(errors.ErrCodeNodeNotFound, "patched node not found").WithNode(string(nodeID))
		}
		if err := e.store.ValidatePatch(node.Type, fields); err != nil {
			return err
		}
	}

	res, err := e.store.Transact(func(tx *document.Tx) error {
		for nodeID, fields := range patch {
			tx.UpdateNode(nodeID, func(n *types.Node) {
				document.ApplyPropsPatch(n, fields, false)
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.commit(res, types.EventProposal, false)
	return nil
}

// Undo applies the reverse diff of the latest entry.
func (e *Editor) Undo() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, err := e.history.Undo()
	if err != nil {
		return err
	}
	e.afterHistory(entry.OpID, types.EventUndo)
	return nil
}

// Redo re-applies the next entry's forward diff.
func (e *Editor) Redo() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, err := e.history.Redo()
	if err != nil {
		return err
	}
	e.afterHistory(entry.OpID, types.EventRedo)
	return nil
}

// Watch returns a channel receiving one event per applied operation.
func (e *Editor) Watch() <-chan types.DocumentEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := make(chan types.DocumentEvent, 100)
	e.watchers = append(e.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it.
func (e *Editor) UnWatch(ch <-chan types.DocumentEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, watcher := range e.watchers {
		if watcher == ch {
			close(watcher)
			e.watchers = append(e.watchers[:i], e.watchers[i+1:]...)
			break
		}
	}
}

// commit records a store result in history and notifies watchers. Callers
// hold the mutex.
func (e *Editor) commit(res *document.Result, kind types.EventKind, transient bool) {
	entry := e.history.Record(res, kind, transient)
	e.pruneSelection()
	e.notify(types.DocumentEvent{
		OpID:      entry.OpID,
		Kind:      kind,
		NodeIDs:   affectedNodes(res),
		Version:   e.store.Version(),
		Timestamp: entry.Timestamp,
	})
}

// afterHistory prunes selection and notifies watchers after undo/redo.
func (e *Editor) afterHistory(opID string, kind types.EventKind) {
	e.pruneSelection()
	e.notify(types.DocumentEvent{
		OpID:      opID,
		Kind:      kind,
		Version:   e.store.Version(),
		Timestamp: time.Now(),
	})
}

// pruneSelection clears the selection when the selected node no longer
// exists, so selection survives undo/redo only while the node does.
func (e *Editor) pruneSelection() {
	if e.selection == "" {
		return
	}
	if _, ok := e.store.Document().Nodes[e.selection]; !ok {
		e.selection = ""
	}
}

func (e *Editor) notify(event types.DocumentEvent) {
	for _, watcher := range e.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

func affectedNodes(res *document.Result) []types.NodeID {
	if res.NodeID != "" {
		return []types.NodeID{res.NodeID}
	}
	return nil
}
