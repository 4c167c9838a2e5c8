// Package dragdrop converts a pointer or keyboard interaction stream into a
// concrete drop target (parent, slot, index) and issues exactly one document
// store call per completed drop. The engine is an explicit state machine
// (idle → dragging → dropped/cancelled); pointer and keyboard are
// interchangeable input adapters driving the same transitions, so outcomes
// are indistinguishable.
package dragdrop

import (
	"context"

	"github.com/conneroisu/pagewright/internal/errors"
	"github.com/conneroisu/pagewright/internal/logging"
	"github.com/conneroisu/pagewright/internal/registry"
	"github.com/conneroisu/pagewright/internal/types"
)

// Phase is the drag state machine phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseDropped
	PhaseCancelled
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhaseDropped:
		return "dropped"
	case PhaseCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// PayloadKind distinguishes palette drags from reorder drags.
type PayloadKind int

const (
	// PayloadNewComponent drops a fresh component from the palette
	PayloadNewComponent PayloadKind = iota
	// PayloadExistingNode reorders or reparents an existing node
	PayloadExistingNode
)

// Payload is what the pointer is carrying.
type Payload struct {
	Kind PayloadKind
	// ComponentType is set for PayloadNewComponent
	ComponentType string
	// NodeID is set for PayloadExistingNode
	NodeID types.NodeID
}

// Target is a registered drop zone: one slot of one container node with its
// on-canvas geometry.
type Target struct {
	// NodeID is the container node
	NodeID types.NodeID
	// Slot is the containment zone within the container
	Slot string
	// Rect is the zone geometry
	Rect Rect
	// Axis is the container layout direction
	Axis registry.Axis
	// ChildRects holds the geometry of the slot's existing children in order
	ChildRects []Rect
}

// Hover is the currently computed drop position.
type Hover struct {
	Target Target
	Index  int
}

// Sink issues the document mutations for completed drops. The editor
// implements it over the store, so drop outcomes and keyboard reorders flow
// through the same validated API as every other edit.
type Sink interface {
	InsertComponent(componentType string, parentID types.NodeID, slot string, index int) error
	MoveNode(nodeID types.NodeID, parentID types.NodeID, slot string, index int) error
}

// CanDropFunc pre-filters targets during hover. The store revalidates on
// drop; this only keeps the hover feedback honest.
type CanDropFunc func(t Target, p Payload) bool

// Engine is the drag-drop state machine. Drag sessions are modal: only one
// drag can be active at a time.
type Engine struct {
	sink    Sink
	canDrop CanDropFunc
	logger  logging.Logger

	phase   Phase
	payload Payload
	targets []Target
	hover   *Hover
}

// NewEngine creates a drag-drop engine over the given sink.
func NewEngine(sink Sink, canDrop CanDropFunc, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	if canDrop == nil {
		canDrop = func(Target, Payload) bool { return true }
	}
	return &Engine{
		sink:    sink,
		canDrop: canDrop,
		logger:  logger.WithComponent("dragdrop"),
	}
}

// Phase returns the current state machine phase.
func (e *Engine) Phase() Phase { return e.phase }

// SetTargets replaces the registered drop targets. The embedding canvas
// refreshes these as layout geometry changes.
func (e *Engine) SetTargets(targets []Target) {
	e.targets = targets
	if e.phase == PhaseDragging && e.hover != nil {
		// Geometry changed under an active drag; the next Update recomputes.
		e.hover = nil
	}
}

// Begin starts a drag session. Terminal phases (dropped, cancelled) reset to
// idle implicitly; a second Begin during an active drag is rejected because
// drag sessions are modal.
func (e *Engine) Begin(p Payload) error {
	if e.phase == PhaseDragging {
		return errors.NewValidationError("ERR_DRAG_ACTIVE", "a drag session is already active")
	}
	e.phase = PhaseDragging
	e.payload = p
	e.hover = nil
	return nil
}

// Update recomputes the hover target for a pointer position. The innermost
// target containing the pointer wins: among containing rects, the one with
// the smallest area beats any ancestor it is nested in.
func (e *Engine) Update(x, y float64) {
	if e.phase != PhaseDragging {
		return
	}
	target, ok := e.hitTarget(x, y)
	if !ok {
		e.hover = nil
		return
	}
	e.hover = &Hover{Target: target, Index: insertionIndex(target, x, y)}
}

// Hover returns the current drop position, if the pointer is over a valid
// target.
func (e *Engine) Hover() (Hover, bool) {
	if e.phase != PhaseDragging || e.hover == nil {
		return Hover{}, false
	}
	return *e.hover, true
}

// Drop completes the drag with exactly one store call. A rejected drop
// (cycle, slot mismatch) transitions to cancelled and the document is
// unchanged; the error is returned for user-facing notice.
func (e *Engine) Drop() (Hover, error) {
	if e.phase != PhaseDragging {
		return Hover{}, errors.NewValidationError("ERR_NO_DRAG", "no active drag session")
	}
	if e.hover == nil {
		e.phase = PhaseCancelled
		return Hover{}, errors.NewValidationError("ERR_NO_TARGET", "pointer is not over a drop target")
	}
	h := *e.hover

	var err error
	switch e.payload.Kind {
	case PayloadNewComponent:
		err = e.sink.InsertComponent(e.payload.ComponentType, h.Target.NodeID, h.Target.Slot, h.Index)
	case PayloadExistingNode:
		err = e.sink.MoveNode(e.payload.NodeID, h.Target.NodeID, h.Target.Slot, h.Index)
	}
	if err != nil {
		e.phase = PhaseCancelled
		e.hover = nil
		e.logger.Warn(context.Background(), err, "drop rejected",
			"target", h.Target.NodeID, "slot", h.Target.Slot, "index", h.Index)
		return h, err
	}
	e.phase = PhaseDropped
	e.hover = nil
	return h, nil
}

// Cancel aborts the active drag without touching the document.
func (e *Engine) Cancel() {
	if e.phase != PhaseDragging {
		return
	}
	e.phase = PhaseCancelled
	e.hover = nil
}

// hitTarget finds the innermost droppable target containing the pointer.
func (e *Engine) hitTarget(x, y float64) (Target, bool) {
	var best Target
	found := false
	for _, t := range e.targets {
		if !t.Rect.Contains(x, y) {
			continue
		}
		if !e.canDrop(t, e.payload) {
			continue
		}
		if !found || t.Rect.Area() < best.Rect.Area() {
			best = t
			found = true
		}
	}
	return best, found
}

// insertionIndex computes where along the target's child list the payload
// would land, comparing the pointer offset against the midpoints of existing
// children along the container's layout axis.
func insertionIndex(t Target, x, y float64) int {
	switch t.Axis {
	case registry.AxisHorizontal:
		idx := 0
		for _, r := range t.ChildRects {
			if x > r.MidX() {
				idx++
			}
		}
		return idx
	case registry.AxisGrid:
		return gridIndex(t.ChildRects, x, y)
	default:
		idx := 0
		for _, r := range t.ChildRects {
			if y > r.MidY() {
				idx++
			}
		}
		return idx
	}
}

// gridIndex handles wrapping grids: children are grouped into rows by
// vertical extent, the pointer row is picked by Y, and the index within the
// row falls back to the horizontal midpoint comparison.
func gridIndex(rects []Rect, x, y float64) int {
	if len(rects) == 0 {
		return 0
	}
	type row struct {
		maxY  float64
		rects []Rect
	}
	var rows []row
	for _, r := range rects {
		if len(rows) > 0 && r.MidY() < rows[len(rows)-1].maxY {
			last := &rows[len(rows)-1]
			last.rects = append(last.rects, r)
			if r.Y+r.H > last.maxY {
				last.maxY = r.Y + r.H
			}
			continue
		}
		rows = append(rows, row{maxY: r.Y + r.H, rects: []Rect{r}})
	}

	idx := 0
	for i, rw := range rows {
		if y > rw.maxY && i < len(rows)-1 {
			idx += len(rw.rects)
			continue
		}
		for _, r := range rw.rects {
			if x > r.MidX() {
				idx++
			}
		}
		break
	}
	return idx
}
