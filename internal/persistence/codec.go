// Package persistence stores documents in SQLite, one row per page, with the
// document body serialized as JSON. Saves carry the base version they were
// loaded at so concurrent writers surface a conflict instead of silently
// overwriting each other.
package persistence

import (
	"encoding/json"

	"github.com/conneroisu/pagewright/internal/errors"
	"github.com/conneroisu/pagewright/internal/types"
)

// EncodeDocument serializes a document to its JSON wire form. Responsive
// props carry the "$responsive" tag so they round-trip unambiguously.
func EncodeDocument(doc *types.Document) ([]byte, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.NewSerializationError(errors.ErrCodeCorruptDocument, "failed to encode document", err)
	}
	return body, nil
}

// DecodeDocument parses the JSON wire form back into a document. Corrupt
// bodies and unsupported schema versions are serialization errors, never
// partial documents.
func DecodeDocument(body []byte) (*types.Document, error) {
	var doc types.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.NewSerializationError(errors.ErrCodeCorruptDocument, "failed to decode document", err)
	}
	if doc.SchemaVersion > types.CurrentSchemaVersion {
		return nil, errors.NewSerializationError(errors.ErrCodeUnsupportedSchema, "document schema version is newer than this build supports", nil)
	}
	if doc.RootID == "" || doc.Nodes == nil {
		return nil, errors.NewSerializationError(errors.ErrCodeCorruptDocument, "document body is missing root or nodes", nil)
	}
	if _, ok := doc.Nodes[doc.RootID]; !ok {
		return nil, errors.NewSerializationError(errors.ErrCodeCorruptDocument, "document root node is missing", nil)
	}
	if doc.Symbols == nil {
		doc.Symbols = map[string]*types.Symbol{}
	}
	for _, n := range doc.Nodes {
		reviveProps(n)
	}
	return &doc, nil
}

// reviveProps rebuilds *ResponsiveValue props from their tagged JSON objects.
// encoding/json decodes map[string]any values generically, so the tag is the
// only way to tell a responsive value from a plain object prop.
func reviveProps(n *types.Node) {
	for key, val := range n.Props {
		raw, ok := types.IsResponsiveObject(val)
		if !ok {
			continue
		}
		rv := &types.ResponsiveValue{Base: raw["base"]}
		if overrides, ok := raw["overrides"].(map[string]any); ok {
			rv.Overrides = make(map[types.Breakpoint]any, len(overrides))
			for bp, v := range overrides {
				rv.Overrides[types.Breakpoint(bp)] = v
			}
		}
		n.Props[key] = rv
	}
}
