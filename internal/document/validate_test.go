package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pagewright/internal/types"
)

func TestRelPathAndNodeAtPath(t *testing.T) {
	s := newTestStore(t)
	root := s.Document().RootID
	sec, _ := s.Insert("Section", root, "", 0, nil)
	_, _ = s.Insert("Button", sec.NodeID, "", 0, nil)
	btn2, _ := s.Insert("Button", sec.NodeID, "", 1, nil)

	path, ok := RelPath(s.Document(), root, btn2.NodeID)
	require.True(t, ok)
	assert.Equal(t, "0.1", path)

	path, ok = RelPath(s.Document(), root, root)
	require.True(t, ok)
	assert.Equal(t, "", path)

	node, ok := NodeAtPath(s.Document(), root, "0.1")
	require.True(t, ok)
	assert.Equal(t, btn2.NodeID, node.ID)

	node, ok = NodeAtPath(s.Document(), root, "")
	require.True(t, ok)
	assert.Equal(t, root, node.ID)

	_, ok = NodeAtPath(s.Document(), root, "0.5")
	assert.False(t, ok)
	_, ok = NodeAtPath(s.Document(), root, "x")
	assert.False(t, ok)

	// Paths relative to an inner root
	path, ok = RelPath(s.Document(), sec.NodeID, btn2.NodeID)
	require.True(t, ok)
	assert.Equal(t, "1", path)

	// Nodes outside the subtree have no path
	other, _ := s.Insert("Text", root, "", 1, nil)
	_, ok = RelPath(s.Document(), sec.NodeID, other.NodeID)
	assert.False(t, ok)
}

func TestCheckInvariants(t *testing.T) {
	t.Run("fresh document passes", func(t *testing.T) {
		assert.NoError(t, CheckInvariants(types.NewDocument("Page")))
	})

	t.Run("missing root", func(t *testing.T) {
		doc := types.NewDocument("Page")
		delete(doc.Nodes, doc.RootID)
		assert.Error(t, CheckInvariants(doc))
	})

	t.Run("root with a parent", func(t *testing.T) {
		doc := types.NewDocument("Page")
		doc.Nodes[doc.RootID].ParentID = "ghost"
		assert.Error(t, CheckInvariants(doc))
	})

	t.Run("dangling child reference", func(t *testing.T) {
		doc := types.NewDocument("Page")
		doc.Nodes[doc.RootID].ChildIDs = []types.NodeID{"ghost"}
		assert.Error(t, CheckInvariants(doc))
	})

	t.Run("parent and child disagree", func(t *testing.T) {
		doc := types.NewDocument("Page")
		child := &types.Node{ID: types.NewNodeID(), Type: "Button", ParentID: "someone-else"}
		doc.Nodes[child.ID] = child
		doc.Nodes[doc.RootID].ChildIDs = []types.NodeID{child.ID}
		assert.Error(t, CheckInvariants(doc))
	})

	t.Run("child not listed by its parent", func(t *testing.T) {
		doc := types.NewDocument("Page")
		child := &types.Node{ID: types.NewNodeID(), Type: "Button", ParentID: doc.RootID}
		doc.Nodes[child.ID] = child
		assert.Error(t, CheckInvariants(doc))
	})

	t.Run("key and id disagree", func(t *testing.T) {
		doc := types.NewDocument("Page")
		doc.Nodes["alias"] = doc.Nodes[doc.RootID]
		assert.Error(t, CheckInvariants(doc))
	})
}
