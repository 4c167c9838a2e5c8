// Package server exposes the editor over HTTP: a JSON operations API for
// document mutations, undo/redo and save endpoints, an HTML preview of the
// resolved tree, and a WebSocket stream of document events for live canvas
// updates.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/conneroisu/pagewright/internal/config"
	"github.com/conneroisu/pagewright/internal/editor"
	"github.com/conneroisu/pagewright/internal/logging"
	"github.com/conneroisu/pagewright/internal/persistence"
	"github.com/conneroisu/pagewright/internal/proposal"
)

// Server serves one open page document.
type Server struct {
	config   *config.Config
	editor   *editor.Editor
	pages    *persistence.Store
	pipeline *proposal.Pipeline
	logger   logging.Logger

	pageID      string
	savedAt     uint64
	savedAtMu   sync.Mutex
	httpServer  *http.Server
	clients     map[*websocket.Conn]struct{}
	clientsMu   sync.Mutex
	watchCancel context.CancelFunc
}

// New creates a server over an editor. pages and pipeline may be nil when
// persistence or proposals are not configured.
func New(cfg *config.Config, ed *editor.Editor, pages *persistence.Store, pipeline *proposal.Pipeline, pageID string, savedVersion uint64, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		config:   cfg,
		editor:   ed,
		pages:    pages,
		pipeline: pipeline,
		logger:   logger.WithComponent("server"),
		pageID:   pageID,
		savedAt:  savedVersion,
		clients:  make(map[*websocket.Conn]struct{}),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/components", s.handleComponents)
	r.Get("/api/templates", s.handleTemplates)
	r.Get("/api/page", s.handlePage)
	r.Get("/api/history", s.handleHistory)
	r.Post("/api/ops", s.handleOps)
	r.Post("/api/undo", s.handleUndo)
	r.Post("/api/redo", s.handleRedo)
	r.Post("/api/save", s.handleSave)
	r.Post("/api/proposals", s.handleProposal)
	r.Get("/preview", s.handlePreview)
	r.Get("/ws", s.handleWebSocket)
	return r
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(ctx)
	s.watchCancel = cancel
	go s.broadcastLoop(watchCtx)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	s.logger.Info(ctx, "server started", "addr", addr, "page", s.pageID)

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// Shutdown stops the HTTP server and closes websocket clients.
func (s *Server) Shutdown() error {
	if s.watchCancel != nil {
		s.watchCancel()
	}
	s.closeClients()
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
