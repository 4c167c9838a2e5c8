package dragdrop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pagewright/internal/errors"
	"github.com/conneroisu/pagewright/internal/registry"
	"github.com/conneroisu/pagewright/internal/types"
)

// recordingSink counts sink calls and optionally rejects them.
type recordingSink struct {
	inserts []sinkCall
	moves   []sinkCall
	err     error
}

type sinkCall struct {
	componentType string
	nodeID        types.NodeID
	parentID      types.NodeID
	slot          string
	index         int
}

func (s *recordingSink) InsertComponent(componentType string, parentID types.NodeID, slot string, index int) error {
	s.inserts = append(s.inserts, sinkCall{componentType: componentType, parentID: parentID, slot: slot, index: index})
	return s.err
}

func (s *recordingSink) MoveNode(nodeID types.NodeID, parentID types.NodeID, slot string, index int) error {
	s.moves = append(s.moves, sinkCall{nodeID: nodeID, parentID: parentID, slot: slot, index: index})
	return s.err
}

func TestEngine_BeginIsModal(t *testing.T) {
	e := NewEngine(&recordingSink{}, nil, nil)
	assert.Equal(t, PhaseIdle, e.Phase())

	require.NoError(t, e.Begin(Payload{Kind: PayloadNewComponent, ComponentType: "Button"}))
	assert.Equal(t, PhaseDragging, e.Phase())

	err := e.Begin(Payload{Kind: PayloadNewComponent, ComponentType: "Text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_DRAG_ACTIVE")

	// Terminal phases reset implicitly
	e.Cancel()
	assert.Equal(t, PhaseCancelled, e.Phase())
	require.NoError(t, e.Begin(Payload{Kind: PayloadNewComponent, ComponentType: "Text"}))
	assert.Equal(t, PhaseDragging, e.Phase())
}

func TestEngine_InnermostTargetWins(t *testing.T) {
	e := NewEngine(&recordingSink{}, nil, nil)
	e.SetTargets([]Target{
		{NodeID: "outer", Rect: Rect{X: 0, Y: 0, W: 100, H: 100}},
		{NodeID: "inner", Rect: Rect{X: 20, Y: 20, W: 40, H: 40}},
	})
	require.NoError(t, e.Begin(Payload{Kind: PayloadNewComponent, ComponentType: "Button"}))

	e.Update(30, 30)
	h, ok := e.Hover()
	require.True(t, ok)
	assert.Equal(t, types.NodeID("inner"), h.Target.NodeID)

	e.Update(80, 80)
	h, ok = e.Hover()
	require.True(t, ok)
	assert.Equal(t, types.NodeID("outer"), h.Target.NodeID)

	e.Update(500, 500)
	_, ok = e.Hover()
	assert.False(t, ok)
}

func TestEngine_CanDropFiltersHover(t *testing.T) {
	canDrop := func(tg Target, p Payload) bool { return tg.NodeID != "blocked" }
	e := NewEngine(&recordingSink{}, canDrop, nil)
	e.SetTargets([]Target{
		{NodeID: "blocked", Rect: Rect{X: 0, Y: 0, W: 50, H: 50}},
		{NodeID: "open", Rect: Rect{X: 0, Y: 0, W: 100, H: 100}},
	})
	require.NoError(t, e.Begin(Payload{Kind: PayloadExistingNode, NodeID: "n"}))

	// The inner blocked target is skipped in favor of its ancestor
	e.Update(10, 10)
	h, ok := e.Hover()
	require.True(t, ok)
	assert.Equal(t, types.NodeID("open"), h.Target.NodeID)
}

func TestInsertionIndex(t *testing.T) {
	vertical := Target{Axis: registry.AxisVertical, ChildRects: []Rect{
		{X: 0, Y: 0, W: 100, H: 20},
		{X: 0, Y: 20, W: 100, H: 20},
		{X: 0, Y: 40, W: 100, H: 20},
	}}
	horizontal := Target{Axis: registry.AxisHorizontal, ChildRects: []Rect{
		{X: 0, Y: 0, W: 30, H: 100},
		{X: 30, Y: 0, W: 30, H: 100},
	}}
	grid := Target{Axis: registry.AxisGrid, ChildRects: []Rect{
		{X: 0, Y: 0, W: 50, H: 50},
		{X: 50, Y: 0, W: 50, H: 50},
		{X: 0, Y: 50, W: 50, H: 50},
		{X: 50, Y: 50, W: 50, H: 50},
	}}

	tests := []struct {
		name   string
		target Target
		x, y   float64
		want   int
	}{
		{"vertical above first midpoint", vertical, 50, 5, 0},
		{"vertical between first and second", vertical, 50, 15, 1},
		{"vertical past the last child", vertical, 50, 55, 3},
		{"horizontal before first", horizontal, 10, 50, 0},
		{"horizontal after first midpoint", horizontal, 20, 50, 1},
		{"horizontal past the last", horizontal, 50, 50, 2},
		{"grid first cell", grid, 10, 10, 0},
		{"grid end of first row", grid, 90, 10, 2},
		{"grid second row first cell", grid, 10, 60, 2},
		{"grid past everything", grid, 90, 60, 4},
		{"empty target", Target{Axis: registry.AxisGrid}, 10, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, insertionIndex(tt.target, tt.x, tt.y))
		})
	}
}

func TestEngine_DropIssuesOneSinkCall(t *testing.T) {
	sink := &recordingSink{}
	e := NewEngine(sink, nil, nil)
	e.SetTargets([]Target{{NodeID: "container", Slot: "body", Rect: Rect{W: 100, H: 100}}})

	require.NoError(t, e.Begin(Payload{Kind: PayloadNewComponent, ComponentType: "Button"}))
	e.Update(50, 50)
	h, err := e.Drop()
	require.NoError(t, err)
	assert.Equal(t, PhaseDropped, e.Phase())
	assert.Equal(t, types.NodeID("container"), h.Target.NodeID)
	require.Len(t, sink.inserts, 1)
	assert.Equal(t, "Button", sink.inserts[0].componentType)
	assert.Equal(t, "body", sink.inserts[0].slot)
	assert.Empty(t, sink.moves)

	// Existing-node payloads call MoveNode instead
	require.NoError(t, e.Begin(Payload{Kind: PayloadExistingNode, NodeID: "n1"}))
	e.Update(50, 50)
	_, err = e.Drop()
	require.NoError(t, err)
	require.Len(t, sink.moves, 1)
	assert.Equal(t, types.NodeID("n1"), sink.moves[0].nodeID)
	assert.Len(t, sink.inserts, 1)
}

func TestEngine_DropErrors(t *testing.T) {
	e := NewEngine(&recordingSink{}, nil, nil)

	_, err := e.Drop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_NO_DRAG")

	require.NoError(t, e.Begin(Payload{Kind: PayloadNewComponent, ComponentType: "Button"}))
	_, err = e.Drop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_NO_TARGET")
	assert.Equal(t, PhaseCancelled, e.Phase())
}

func TestEngine_RejectedDropCancels(t *testing.T) {
	sink := &recordingSink{err: errors.NewCycleError("n1")}
	e := NewEngine(sink, nil, nil)
	e.SetTargets([]Target{{NodeID: "container", Rect: Rect{W: 100, H: 100}}})

	require.NoError(t, e.Begin(Payload{Kind: PayloadExistingNode, NodeID: "n1"}))
	e.Update(50, 50)
	_, err := e.Drop()
	require.Error(t, err)
	assert.True(t, errors.IsCycleError(err))
	assert.Equal(t, PhaseCancelled, e.Phase())
}

func TestEngine_SetTargetsClearsHoverMidDrag(t *testing.T) {
	e := NewEngine(&recordingSink{}, nil, nil)
	e.SetTargets([]Target{{NodeID: "a", Rect: Rect{W: 100, H: 100}}})
	require.NoError(t, e.Begin(Payload{Kind: PayloadNewComponent, ComponentType: "Button"}))
	e.Update(10, 10)
	_, ok := e.Hover()
	require.True(t, ok)

	e.SetTargets([]Target{{NodeID: "b", Rect: Rect{W: 100, H: 100}}})
	_, ok = e.Hover()
	assert.False(t, ok)
}

func TestRect(t *testing.T) {
	r := Rect{X: 10, Y: 10, W: 20, H: 40}
	assert.True(t, r.Contains(10, 10))
	assert.True(t, r.Contains(29, 49))
	assert.False(t, r.Contains(30, 10))
	assert.Equal(t, 800.0, r.Area())
	assert.Equal(t, 20.0, r.MidX())
	assert.Equal(t, 30.0, r.MidY())
}
