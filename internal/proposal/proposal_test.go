package proposal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pagewright/internal/editor"
	"github.com/conneroisu/pagewright/internal/errors"
	"github.com/conneroisu/pagewright/internal/registry"
	"github.com/conneroisu/pagewright/internal/types"
)

func newProposalEditor(t *testing.T) *editor.Editor {
	t.Helper()
	reg := registry.New()
	reg.Register(&registry.ComponentDef{Type: "Page", AcceptsChildren: true})
	reg.Register(&registry.ComponentDef{Type: "Button", Fields: []registry.FieldSpec{
		{Name: "label", Type: "string", Default: "Click me"},
	}})
	return editor.New(types.NewDocument("Page"), reg, nil)
}

func TestPipeline_RunStampsVersionAndID(t *testing.T) {
	ed := newProposalEditor(t)
	id, err := ed.Insert("Button", ed.Document().RootID, "", 0, nil)
	require.NoError(t, err)
	wantVersion := ed.Version()

	var gotReq Request
	p := NewPipeline(ed, ProposerFunc(func(ctx context.Context, req Request) (*Proposal, error) {
		gotReq = req
		return &Proposal{
			Patch:     map[types.NodeID]map[string]any{id: {"label": "Proposed"}},
			Rationale: "clearer call to action",
		}, nil
	}), nil)

	prop, err := p.Run(context.Background(), "improve the button")
	require.NoError(t, err)
	assert.NotEmpty(t, prop.ID)
	assert.Equal(t, wantVersion, prop.BaseVersion)
	assert.Equal(t, "improve the button", gotReq.Prompt)
	assert.Equal(t, wantVersion, gotReq.BaseVersion)

	// The proposer gets a snapshot, not the live document
	gotReq.Document.Nodes[id].Props["label"] = "mutated"
	assert.Equal(t, "Click me", ed.Document().Nodes[id].Props["label"])
}

func TestPipeline_ApplyCommitsAtomically(t *testing.T) {
	ed := newProposalEditor(t)
	root := ed.Document().RootID
	a, err := ed.Insert("Button", root, "", 0, nil)
	require.NoError(t, err)
	b, err := ed.Insert("Button", root, "", 1, nil)
	require.NoError(t, err)

	p := NewPipeline(ed, ProposerFunc(func(ctx context.Context, req Request) (*Proposal, error) {
		return &Proposal{Patch: map[types.NodeID]map[string]any{
			a: {"label": "First"},
			b: {"label": "Second"},
		}}, nil
	}), nil)

	prop, err := p.Run(context.Background(), "rename")
	require.NoError(t, err)
	require.NoError(t, p.Apply(context.Background(), prop))
	assert.Equal(t, "First", ed.Document().Nodes[a].Props["label"])
	assert.Equal(t, "Second", ed.Document().Nodes[b].Props["label"])

	// Both nodes revert as one undo step
	require.NoError(t, ed.Undo())
	assert.Equal(t, "Click me", ed.Document().Nodes[a].Props["label"])
	assert.Equal(t, "Click me", ed.Document().Nodes[b].Props["label"])
}

func TestPipeline_ApplyRejectsStaleProposal(t *testing.T) {
	ed := newProposalEditor(t)
	id, err := ed.Insert("Button", ed.Document().RootID, "", 0, nil)
	require.NoError(t, err)

	p := NewPipeline(ed, ProposerFunc(func(ctx context.Context, req Request) (*Proposal, error) {
		return &Proposal{Patch: map[types.NodeID]map[string]any{id: {"label": "Stale"}}}, nil
	}), nil)

	prop, err := p.Run(context.Background(), "rename")
	require.NoError(t, err)

	// The user keeps editing between Run and Apply
	require.NoError(t, ed.UpdateProps(id, map[string]any{"label": "Fresh"}))

	err = p.Apply(context.Background(), prop)
	require.Error(t, err)
	assert.True(t, errors.IsStaleProposalError(err))
	assert.Equal(t, "Fresh", ed.Document().Nodes[id].Props["label"])
}

func TestPipeline_ApplyEmptyPatchIsNoOp(t *testing.T) {
	ed := newProposalEditor(t)
	p := NewPipeline(ed, nil, nil)
	entries := ed.History().Len()

	require.NoError(t, p.Apply(context.Background(), &Proposal{}))
	assert.Equal(t, entries, ed.History().Len())
}

func TestPipeline_RunHonorsCancellation(t *testing.T) {
	ed := newProposalEditor(t)
	p := NewPipeline(ed, ProposerFunc(func(ctx context.Context, req Request) (*Proposal, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx, "never")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_RunWrapsProposerFailure(t *testing.T) {
	ed := newProposalEditor(t)
	p := NewPipeline(ed, ProposerFunc(func(ctx context.Context, req Request) (*Proposal, error) {
		return nil, assert.AnError
	}), nil)

	_, err := p.Run(context.Background(), "boom")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
