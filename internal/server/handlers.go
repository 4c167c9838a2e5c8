package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/conneroisu/pagewright/internal/document"
	"github.com/conneroisu/pagewright/internal/errors"
	"github.com/conneroisu/pagewright/internal/renderer"
	"github.com/conneroisu/pagewright/internal/types"
)

// opRequest is one mutation in the operations API. Op selects the operation;
// the remaining fields are read per op.
type opRequest struct {
	Op            string                          `json:"op"`
	NodeID        types.NodeID                    `json:"nodeId,omitempty"`
	ComponentType string                          `json:"componentType,omitempty"`
	ParentID      types.NodeID                    `json:"parentId,omitempty"`
	Slot          string                          `json:"slot,omitempty"`
	Index         int                             `json:"index"`
	Props         map[string]any                  `json:"props,omitempty"`
	Replace       bool                            `json:"replace,omitempty"`
	Template      string                          `json:"template,omitempty"`
	SymbolID      string                          `json:"symbolId,omitempty"`
	Field         string                          `json:"field,omitempty"`
	Value         any                             `json:"value,omitempty"`
	Patch         map[types.NodeID]map[string]any `json:"patch,omitempty"`
	BaseVersion   uint64                          `json:"baseVersion,omitempty"`
}

type opResponse struct {
	NodeID   types.NodeID `json:"nodeId,omitempty"`
	SymbolID string       `json:"symbolId,omitempty"`
	Version  uint64       `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"page":    s.pageID,
		"version": s.editor.Version(),
	})
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.editor.Registry().GetAll())
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.editor.Registry().TemplateNames())
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	doc, version := s.editor.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"document": doc,
		"version":  version,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	h := s.editor.History()
	writeJSON(w, http.StatusOK, map[string]any{
		"length":  h.Len(),
		"cursor":  h.Cursor(),
		"canUndo": h.CanUndo(),
		"canRedo": h.CanRedo(),
	})
}

func (s *Server) handleOps(w http.ResponseWriter, r *http.Request) {
	var req opRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("ERR_BAD_REQUEST", "invalid operation body"))
		return
	}
	reviveProps(req.Props)
	for _, fields := range req.Patch {
		reviveProps(fields)
	}

	resp := opResponse{}
	var err error
	switch req.Op {
	case "insert":
		resp.NodeID, err = s.editor.Insert(req.ComponentType, req.ParentID, req.Slot, req.Index, req.Props)
	case "move":
		err = s.editor.Move(req.NodeID, req.ParentID, req.Slot, req.Index)
	case "update_props":
		var opts []document.UpdateOption
		if req.Replace {
			opts = append(opts, document.WithReplaceResponsive())
		}
		err = s.editor.UpdateProps(req.NodeID, req.Props, opts...)
	case "delete":
		err = s.editor.Delete(req.NodeID)
	case "insert_template":
		resp.NodeID, err = s.editor.InsertTemplate(req.Template, req.ParentID, req.Slot, req.Index)
	case "create_symbol":
		resp.SymbolID, err = s.editor.CreateSymbol(req.NodeID)
	case "insert_instance":
		resp.NodeID, err = s.editor.InsertInstance(req.SymbolID, req.ParentID, req.Slot, req.Index)
	case "edit_master":
		err = s.editor.EditMaster(req.NodeID, req.Props)
	case "set_override":
		err = s.editor.SetOverride(req.NodeID, req.Field, req.Value)
	case "unlink":
		err = s.editor.Unlink(req.NodeID)
	case "apply_patch":
		err = s.editor.ApplyPatch(req.Patch, req.BaseVersion)
	default:
		err = errors.NewValidationError("ERR_BAD_REQUEST", "unknown operation: "+req.Op)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	resp.Version = s.editor.Version()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	if err := s.editor.Undo(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, opResponse{Version: s.editor.Version()})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	if err := s.editor.Redo(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, opResponse{Version: s.editor.Version()})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.pages == nil {
		writeError(w, errors.NewValidationError("ERR_NO_STORAGE", "persistence is not configured"))
		return
	}
	s.savedAtMu.Lock()
	base := s.savedAt
	s.savedAtMu.Unlock()

	doc, _ := s.editor.Snapshot()
	next, err := s.pages.Save(r.Context(), s.config.Storage.SiteID, s.pageID, doc, base)
	if err != nil {
		writeError(w, err)
		return
	}
	s.savedAtMu.Lock()
	s.savedAt = next
	s.savedAtMu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"savedVersion": next})
}

type proposalRequest struct {
	Prompt string `json:"prompt"`
	Apply  bool   `json:"apply"`
}

func (s *Server) handleProposal(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		writeError(w, errors.NewValidationError("ERR_NO_PROPOSER", "no proposal backend is configured"))
		return
	}
	var req proposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("ERR_BAD_REQUEST", "invalid proposal body"))
		return
	}
	prop, err := s.pipeline.Run(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Apply {
		if err := s.pipeline.Apply(r.Context(), prop); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"proposal": prop,
		"applied":  req.Apply,
		"version":  s.editor.Version(),
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	bp := types.Breakpoint(r.URL.Query().Get("breakpoint"))
	if types.BreakpointIndex(bp) < 0 {
		bp = types.Breakpoint(s.config.Preview.Breakpoint)
	}
	doc, _ := s.editor.Snapshot()
	root := renderer.BuildRenderTree(doc, s.editor.Registry(), bp)
	for _, missing := range renderer.PlaceholderTypes(root) {
		s.logger.Warn(r.Context(), errors.NewUnknownTypeError(missing), "rendering placeholder")
	}
	html, err := renderer.RenderHTML(root, s.config.Preview.Title, bp)
	if err != nil {
		writeError(w, errors.NewInternalError("preview render failed", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

// reviveProps rebuilds responsive prop values from their tagged JSON form,
// mirroring what the persistence codec does on document load.
func reviveProps(props map[string]any) {
	for key, val := range props {
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
		props[key] = rv
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses and emits the typed
// error body clients key their notices off.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := map[string]any{"message": err.Error()}

	var pe *errors.PagewrightError
	if stderrors.As(err, &pe) {
		body = map[string]any{
			"type":    pe.Type,
			"code":    pe.Code,
			"message": pe.Message,
		}
		if pe.NodeID != "" {
			body["nodeId"] = pe.NodeID
		}
		if pe.Context != nil {
			body["context"] = pe.Context
		}
		switch pe.Type {
		case errors.ErrorTypeValidation, errors.ErrorTypeCycle, errors.ErrorTypeUnknownType:
			status = http.StatusUnprocessableEntity
		case errors.ErrorTypeStaleProposal, errors.ErrorTypeConflict:
			status = http.StatusConflict
		case errors.ErrorTypeNotFound:
			status = http.StatusNotFound
		case errors.ErrorTypeSerialization:
			status = http.StatusBadRequest
		}
	}
	writeJSON(w, status, map[string]any{"error": body})
}
