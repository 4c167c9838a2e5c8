// Package proposal runs asynchronous edit suggestions against a version
// stamp. A proposer (an AI backend, a lint rule, any slow out-of-band
// producer) works on a snapshot of the document; by the time its patch comes
// back the user may have kept editing, so every proposal records the version
// it was computed against and application is rejected as stale when the
// document has advanced.
package proposal

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/conneroisu/pagewright/internal/editor"
	"github.com/conneroisu/pagewright/internal/errors"
	"github.com/conneroisu/pagewright/internal/logging"
	"github.com/conneroisu/pagewright/internal/types"
)

// Request is the input handed to a proposer: a prompt plus an immutable
// snapshot of the document at a known version.
type Request struct {
	Prompt      string
	Document    *types.Document
	BaseVersion uint64
}

// Proposal is a multi-node props patch computed against BaseVersion. It is
// applied atomically as one undoable step, or not at all.
type Proposal struct {
	ID          string
	BaseVersion uint64
	Patch       map[types.NodeID]map[string]any
	Rationale   string
}

// Proposer produces a proposal for a request. Implementations may block for
// a long time and must honor context cancellation.
type Proposer interface {
	Propose(ctx context.Context, req Request) (*Proposal, error)
}

// ProposerFunc adapts a function to the Proposer interface.
type ProposerFunc func(ctx context.Context, req Request) (*Proposal, error)

func (f ProposerFunc) Propose(ctx context.Context, req Request) (*Proposal, error) {
	return f(ctx, req)
}

// Pipeline ties a proposer to an editor.
type Pipeline struct {
	editor   *editor.Editor
	proposer Proposer
	logger   logging.Logger
}

// NewPipeline creates a proposal pipeline.
func NewPipeline(ed *editor.Editor, proposer Proposer, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		editor:   ed,
		proposer: proposer,
		logger:   logger.WithComponent("proposal"),
	}
}

// Run snapshots the document, stamps the current version, and invokes the
// proposer outside any editor lock. The user keeps editing while this runs.
func (p *Pipeline) Run(ctx context.Context, prompt string) (*Proposal, error) {
	doc, version := p.editor.Snapshot()
	req := Request{
		Prompt:      prompt,
		Document:    doc,
		BaseVersion: version,
	}
	prop, err := p.proposer.Propose(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.NewInternalError("proposer failed", err)
	}
	if prop.ID == "" {
		prop.ID = ulid.Make().String()
	}
	prop.BaseVersion = req.BaseVersion
	p.logger.Debug(ctx, "proposal computed",
		"proposal_id", prop.ID, "base_version", prop.BaseVersion, "nodes", len(prop.Patch))
	return prop, nil
}

// Apply commits an accepted proposal as one atomic history entry. If the
// document advanced past the proposal's base version the apply fails with a
// stale-proposal error; the caller re-runs the proposer against fresh state
// rather than force-merging.
func (p *Pipeline) Apply(ctx context.Context, prop *Proposal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(prop.Patch) == 0 {
		return nil
	}
	if err := p.editor.ApplyPatch(prop.Patch, prop.BaseVersion); err != nil {
		if errors.IsStaleProposalError(err) {
			p.logger.Warn(ctx, err, "proposal went stale",
				"proposal_id", prop.ID, "base_version", prop.BaseVersion, "current_version", p.editor.Version())
		}
		return err
	}
	p.logger.Info(ctx, "proposal applied", "proposal_id", prop.ID, "nodes", len(prop.Patch))
	return nil
}
