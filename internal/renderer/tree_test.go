package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pagewright/internal/document"
	"github.com/conneroisu/pagewright/internal/registry"
	"github.com/conneroisu/pagewright/internal/symbols"
	"github.com/conneroisu/pagewright/internal/types"
)

func rendererRegistry() *registry.Registry {
	reg := registry.New()
	reg.Register(&registry.ComponentDef{Type: "Page", AcceptsChildren: true})
	reg.Register(&registry.ComponentDef{Type: "Section", AcceptsChildren: true, Fields: []registry.FieldSpec{
		{Name: "padding", Type: "int", Responsive: true, Default: 16},
	}})
	reg.Register(&registry.ComponentDef{Type: "Text", Fields: []registry.FieldSpec{
		{Name: "text", Type: "string"},
	}})
	return reg
}

func TestBuildRenderTreeResolvesBreakpoints(t *testing.T) {
	reg := rendererRegistry()
	store := document.New(types.NewDocument("Page"), reg, nil)
	sec, err := store.Insert("Section", store.Document().RootID, "", 0, map[string]any{
		"padding": &types.ResponsiveValue{
			Base:      8,
			Overrides: map[types.Breakpoint]any{types.BreakpointDesktop: 32},
		},
	})
	require.NoError(t, err)

	mobile := BuildRenderTree(store.Document(), reg, types.BreakpointMobile)
	require.Len(t, mobile.Children, 1)
	assert.Equal(t, 8, mobile.Children[0].Props["padding"])

	tablet := BuildRenderTree(store.Document(), reg, types.BreakpointTablet)
	assert.Equal(t, 8, tablet.Children[0].Props["padding"])

	desktop := BuildRenderTree(store.Document(), reg, types.BreakpointDesktop)
	assert.Equal(t, 32, desktop.Children[0].Props["padding"])
	assert.Equal(t, sec.NodeID, desktop.Children[0].ID)
}

func TestBuildRenderTreePlaceholders(t *testing.T) {
	reg := rendererRegistry()
	doc := types.NewDocument("Page")
	store := document.New(doc, reg, nil)
	_, err := store.Insert("Section", doc.RootID, "", 0, nil)
	require.NoError(t, err)

	// An unregistered type in the document renders as a placeholder
	ghost := &types.Node{ID: types.NewNodeID(), Type: "Carousel", ParentID: doc.RootID}
	doc.Nodes[ghost.ID] = ghost
	doc.Nodes[doc.RootID].ChildIDs = append(doc.Nodes[doc.RootID].ChildIDs, ghost.ID)

	root := BuildRenderTree(doc, reg, types.BreakpointMobile)
	require.Len(t, root.Children, 2)
	assert.False(t, root.Children[0].Placeholder)
	assert.True(t, root.Children[1].Placeholder)
	assert.Equal(t, "Carousel", root.Children[1].Type)
	assert.Equal(t, []string{"Carousel"}, PlaceholderTypes(root))
}

func TestPlaceholderTypesDeduplicatesAndSorts(t *testing.T) {
	root := &RenderNode{Type: "Page", Children: []*RenderNode{
		{Type: "Widget", Placeholder: true},
		{Type: "Carousel", Placeholder: true, Children: []*RenderNode{
			{Type: "Widget", Placeholder: true},
		}},
		{Type: "Section"},
	}}
	assert.Equal(t, []string{"Carousel", "Widget"}, PlaceholderTypes(root))
	assert.Empty(t, PlaceholderTypes(&RenderNode{Type: "Page"}))
	assert.Empty(t, PlaceholderTypes(nil))
}

func TestBuildRenderTreePrunesMissingChildren(t *testing.T) {
	reg := rendererRegistry()
	doc := types.NewDocument("Page")
	doc.Nodes[doc.RootID].ChildIDs = []types.NodeID{"gone"}

	root := BuildRenderTree(doc, reg, types.BreakpointMobile)
	assert.Empty(t, root.Children)
}

func TestBuildRenderTreeExcludesDetachedMasters(t *testing.T) {
	reg := rendererRegistry()
	store := document.New(types.NewDocument("Page"), reg, nil)
	sec, err := store.Insert("Section", store.Document().RootID, "", 0, nil)
	require.NoError(t, err)

	m := symbols.NewManager(store, nil)
	symbolID, _, err := m.CreateSymbol(sec.NodeID)
	require.NoError(t, err)
	masterRootID := store.Document().Symbols[symbolID].MasterRootID

	root := BuildRenderTree(store.Document(), reg, types.BreakpointMobile)
	require.Len(t, root.Children, 1)
	assert.Equal(t, sec.NodeID, root.Children[0].ID)
	assert.NotEqual(t, masterRootID, root.Children[0].ID)
	assert.Equal(t, symbolID, root.Children[0].SymbolID)
}

func TestRenderNodePropNames(t *testing.T) {
	rn := &RenderNode{Props: map[string]any{"c": 1, "a": 2, "b": 3}}
	assert.Equal(t, []string{"a", "b", "c"}, rn.PropNames())
}
