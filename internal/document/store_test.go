package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pagewright/internal/errors"
	"github.com/conneroisu/pagewright/internal/registry"
	"github.com/conneroisu/pagewright/internal/responsive"
	"github.com/conneroisu/pagewright/internal/types"
)

func testRegistry() *registry.Registry {
	reg := registry.New()
	reg.Register(&registry.ComponentDef{Type: "Page", AcceptsChildren: true})
	reg.Register(&registry.ComponentDef{Type: "Section", AcceptsChildren: true,
		Fields: []registry.FieldSpec{
			{Name: "padding", Type: "int", Responsive: true, Default: 16},
		}})
	reg.Register(&registry.ComponentDef{Type: "Row", AcceptsChildren: true, LayoutAxis: registry.AxisHorizontal})
	reg.Register(&registry.ComponentDef{Type: "Card", AcceptsChildren: true, Slots: []registry.SlotSpec{
		{Name: "header", Accepts: []string{"Text"}},
		{Name: "body"},
	}})
	reg.Register(&registry.ComponentDef{Type: "Button",
		Fields: []registry.FieldSpec{
			{Name: "label", Type: "string", Default: "Click me"},
			{Name: "variant", Type: "string", Default: "primary"},
			{Name: "width", Type: "string", Responsive: true},
		}})
	reg.Register(&registry.ComponentDef{Type: "Text",
		Fields: []registry.FieldSpec{
			{Name: "text", Type: "string", Default: ""},
		}})
	return reg
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(types.NewDocument("Page"), testRegistry(), nil)
}

func TestInsertAppliesDefaults(t *testing.T) {
	s := newTestStore(t)

	res, err := s.Insert("Button", s.Document().RootID, "", 0, map[string]any{"label": "Buy now"})
	require.NoError(t, err)

	node, ok := s.Node(res.NodeID)
	require.True(t, ok)
	assert.Equal(t, "Buy now", node.Props["label"])
	assert.Equal(t, "primary", node.Props["variant"])
	assert.Equal(t, []types.NodeID{res.NodeID}, s.Document().Nodes[s.Document().RootID].ChildIDs)
	assert.Equal(t, uint64(1), s.Version())
	require.NoError(t, CheckInvariants(s.Document()))
}

func TestInsertRejectionLeavesDocumentUnchanged(t *testing.T) {
	s := newTestStore(t)
	res, err := s.Insert("Button", s.Document().RootID, "", 0, nil)
	require.NoError(t, err)
	before := s.Document().Clone()
	version := s.Version()

	// Leaf parent rejects children
	_, err = s.Insert("Text", res.NodeID, "", 0, nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Equal(t, before, s.Document())
	assert.Equal(t, version, s.Version())

	// Restricted slot rejects the type
	card, err := s.Insert("Card", s.Document().RootID, "", 1, nil)
	require.NoError(t, err)
	before = s.Document().Clone()
	_, err = s.Insert("Button", card.NodeID, "header", 0, nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Equal(t, before, s.Document())
}

func TestInsertParentNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Insert("Button", "missing", "", 0, nil)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestInsertIndexMapsWithinSlot(t *testing.T) {
	s := newTestStore(t)
	card, err := s.Insert("Card", s.Document().RootID, "", 0, nil)
	require.NoError(t, err)

	// Body children first, then a header child at slot index 0.
	b1, err := s.Insert("Button", card.NodeID, "body", 0, nil)
	require.NoError(t, err)
	b2, err := s.Insert("Button", card.NodeID, "body", 1, nil)
	require.NoError(t, err)
	h1, err := s.Insert("Text", card.NodeID, "header", 0, nil)
	require.NoError(t, err)
	// Slot index 0 within body lands before both body children globally.
	b0, err := s.Insert("Button", card.NodeID, "body", 0, nil)
	require.NoError(t, err)

	childIDs := s.Document().Nodes[card.NodeID].ChildIDs
	require.Len(t, childIDs, 4)
	assert.Equal(t, b0.NodeID, childIDs[0])
	assert.Equal(t, b1.NodeID, childIDs[1])
	assert.Equal(t, b2.NodeID, childIDs[2])
	assert.Equal(t, h1.NodeID, childIDs[3])
	require.NoError(t, CheckInvariants(s.Document()))
}

func TestInsertIndexIsClamped(t *testing.T) {
	s := newTestStore(t)
	a, err := s.Insert("Button", s.Document().RootID, "", 99, nil)
	require.NoError(t, err)
	b, err := s.Insert("Button", s.Document().RootID, "", -5, nil)
	require.NoError(t, err)
	assert.Equal(t, []types.NodeID{b.NodeID, a.NodeID}, s.Document().Nodes[s.Document().RootID].ChildIDs)
}

func TestMoveReorderWithinParent(t *testing.T) {
	s := newTestStore(t)
	root := s.Document().RootID
	a, _ := s.Insert("Button", root, "", 0, nil)
	b, _ := s.Insert("Button", root, "", 1, nil)
	c, _ := s.Insert("Button", root, "", 2, nil)

	_, err := s.Move(a.NodeID, root, "", 2)
	require.NoError(t, err)
	assert.Equal(t, []types.NodeID{b.NodeID, c.NodeID, a.NodeID}, s.Document().Nodes[root].ChildIDs)
	require.NoError(t, CheckInvariants(s.Document()))
}

func TestMoveAcrossParents(t *testing.T) {
	s := newTestStore(t)
	root := s.Document().RootID
	sec, _ := s.Insert("Section", root, "", 0, nil)
	btn, _ := s.Insert("Button", root, "", 1, nil)

	_, err := s.Move(btn.NodeID, sec.NodeID, "", 0)
	require.NoError(t, err)

	node, _ := s.Node(btn.NodeID)
	assert.Equal(t, sec.NodeID, node.ParentID)
	assert.Equal(t, []types.NodeID{btn.NodeID}, s.Document().Nodes[sec.NodeID].ChildIDs)
	assert.Equal(t, []types.NodeID{sec.NodeID}, s.Document().Nodes[root].ChildIDs)
	require.NoError(t, CheckInvariants(s.Document()))
}

func TestMoveCycleRejectedDocumentUnchanged(t *testing.T) {
	s := newTestStore(t)
	root := s.Document().RootID
	outer, _ := s.Insert("Section", root, "", 0, nil)
	inner, _ := s.Insert("Section", outer.NodeID, "", 0, nil)
	before := s.Document().Clone()
	version := s.Version()

	_, err := s.Move(outer.NodeID, inner.NodeID, "", 0)
	require.Error(t, err)
	assert.True(t, errors.IsCycleError(err))
	assert.Equal(t, before, s.Document())
	assert.Equal(t, version, s.Version())

	// Moving a node into itself is also a cycle
	_, err = s.Move(outer.NodeID, outer.NodeID, "", 0)
	assert.True(t, errors.IsCycleError(err))
	assert.Equal(t, before, s.Document())
}

func TestRootIsImmutable(t *testing.T) {
	s := newTestStore(t)
	root := s.Document().RootID
	sec, _ := s.Insert("Section", root, "", 0, nil)

	_, err := s.Move(root, sec.NodeID, "", 0)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	_, err = s.Delete(root)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestUpdatePropsMergesAndDeletes(t *testing.T) {
	s := newTestStore(t)
	btn, _ := s.Insert("Button", s.Document().RootID, "", 0, nil)

	_, err := s.UpdateProps(btn.NodeID, map[string]any{"label": "Go", "variant": nil})
	require.NoError(t, err)

	node, _ := s.Node(btn.NodeID)
	assert.Equal(t, "Go", node.Props["label"])
	_, ok := node.Props["variant"]
	assert.False(t, ok)
}

func TestUpdatePropsResponsiveMerge(t *testing.T) {
	s := newTestStore(t)
	btn, _ := s.Insert("Button", s.Document().RootID, "", 0, nil)

	_, err := s.UpdateProps(btn.NodeID, map[string]any{
		"width": &types.ResponsiveValue{Base: "100%", Overrides: map[types.Breakpoint]any{types.BreakpointTablet: "50%"}},
	})
	require.NoError(t, err)
	_, err = s.UpdateProps(btn.NodeID, map[string]any{
		"width": &types.ResponsiveValue{Overrides: map[types.Breakpoint]any{types.BreakpointDesktop: "25%"}},
	})
	require.NoError(t, err)

	node, _ := s.Node(btn.NodeID)
	rv := node.Props["width"].(*types.ResponsiveValue)
	assert.Equal(t, "100%", rv.Base)
	assert.Equal(t, "50%", rv.Overrides[types.BreakpointTablet])
	assert.Equal(t, "25%", rv.Overrides[types.BreakpointDesktop])

	// Replace discards the merged overrides wholesale
	_, err = s.UpdateProps(btn.NodeID, map[string]any{
		"width": &types.ResponsiveValue{Base: "auto"},
	}, WithReplaceResponsive())
	require.NoError(t, err)
	node, _ = s.Node(btn.NodeID)
	rv = node.Props["width"].(*types.ResponsiveValue)
	assert.Equal(t, "auto", rv.Base)
	assert.Empty(t, rv.Overrides)
}

func TestUpdatePropsResponsivePatchOverScalar(t *testing.T) {
	s := newTestStore(t)
	sec, _ := s.Insert("Section", s.Document().RootID, "", 0, map[string]any{"padding": 10})

	// A breakpoint-only patch over a scalar keeps the scalar as the base
	_, err := s.UpdateProps(sec.NodeID, map[string]any{
		"padding": &types.ResponsiveValue{Overrides: map[types.Breakpoint]any{types.BreakpointTablet: 20}},
	})
	require.NoError(t, err)

	node, _ := s.Node(sec.NodeID)
	rv, ok := node.Props["padding"].(*types.ResponsiveValue)
	require.True(t, ok)
	assert.Equal(t, 10, rv.Base)
	assert.Equal(t, 10, responsive.Resolve(rv, types.BreakpointMobile))
	assert.Equal(t, 20, responsive.Resolve(rv, types.BreakpointTablet))
}

func TestUpdatePropsValidation(t *testing.T) {
	s := newTestStore(t)
	btn, _ := s.Insert("Button", s.Document().RootID, "", 0, nil)
	before := s.Document().Clone()

	tests := []struct {
		name  string
		patch map[string]any
	}{
		{"wrong scalar type", map[string]any{"label": 42}},
		{"responsive value on non-responsive field", map[string]any{
			"label": &types.ResponsiveValue{Base: "x"},
		}},
		{"mobile override is not allowed", map[string]any{
			"width": &types.ResponsiveValue{Base: "100%", Overrides: map[types.Breakpoint]any{types.BreakpointMobile: "50%"}},
		}},
		{"unknown override breakpoint", map[string]any{
			"width": &types.ResponsiveValue{Base: "100%", Overrides: map[types.Breakpoint]any{"watch": "50%"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.UpdateProps(btn.NodeID, tt.patch)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
			assert.Equal(t, before, s.Document())
		})
	}

	// Undeclared fields pass through untouched
	_, err := s.UpdateProps(btn.NodeID, map[string]any{"custom": 42})
	assert.NoError(t, err)
}

func TestDeleteCascades(t *testing.T) {
	s := newTestStore(t)
	root := s.Document().RootID
	sec, _ := s.Insert("Section", root, "", 0, nil)
	btn, _ := s.Insert("Button", sec.NodeID, "", 0, nil)
	txt, _ := s.Insert("Text", sec.NodeID, "", 1, nil)

	_, err := s.Delete(sec.NodeID)
	require.NoError(t, err)

	for _, id := range []types.NodeID{sec.NodeID, btn.NodeID, txt.NodeID} {
		_, ok := s.Node(id)
		assert.False(t, ok)
	}
	assert.Empty(t, s.Document().Nodes[root].ChildIDs)
	require.NoError(t, CheckInvariants(s.Document()))
}

func TestInsertTemplateIsAtomic(t *testing.T) {
	s := newTestStore(t)
	root := s.Document().RootID

	tpl := &registry.TemplateDef{Name: "hero", Root: &types.Subtree{
		Type: "Section",
		Children: []*types.Subtree{
			{Type: "Text", Props: map[string]any{"text": "Welcome"}},
			{Type: "Button", Props: map[string]any{"label": "Get started"}},
		},
	}}
	res, err := s.InsertTemplate(tpl, root, "", 0)
	require.NoError(t, err)

	sec, ok := s.Node(res.NodeID)
	require.True(t, ok)
	assert.Len(t, sec.ChildIDs, 2)
	first, _ := s.Node(sec.ChildIDs[0])
	assert.Equal(t, "Welcome", first.Props["text"])
	second, _ := s.Node(sec.ChildIDs[1])
	assert.Equal(t, "Get started", second.Props["label"])
	assert.Equal(t, "primary", second.Props["variant"])
	require.NoError(t, CheckInvariants(s.Document()))
	assert.Equal(t, uint64(1), s.Version())
}

func TestInsertTemplateInvalidNestingRollsBack(t *testing.T) {
	s := newTestStore(t)
	root := s.Document().RootID
	before := s.Document().Clone()
	version := s.Version()

	// Button is a leaf; nesting under it must fail wholesale.
	tpl := &registry.TemplateDef{Name: "broken", Root: &types.Subtree{
		Type: "Section",
		Children: []*types.Subtree{
			{Type: "Button", Children: []*types.Subtree{{Type: "Text"}}},
		},
	}}
	_, err := s.InsertTemplate(tpl, root, "", 0)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Equal(t, before, s.Document())
	assert.Equal(t, version, s.Version())
}

func TestTransactRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	before := s.Document().Clone()

	_, err := s.Transact(func(tx *Tx) error {
		tx.AddNode(&types.Node{ID: types.NewNodeID(), Type: "Button", ParentID: s.Document().RootID})
		return errors.NewInternalError("boom", nil)
	})
	require.Error(t, err)
	assert.Equal(t, before, s.Document())
	assert.Equal(t, uint64(0), s.Version())
}

func TestForwardReverseDiffsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	root := s.Document().RootID
	before := s.Document().Clone()

	res, err := s.Insert("Button", root, "", 0, nil)
	require.NoError(t, err)
	after := s.Document().Clone()

	s.ApplyDiff(res.Reverse)
	assert.Equal(t, before, s.Document())
	s.ApplyDiff(res.Forward)
	assert.Equal(t, after, s.Document())
}
