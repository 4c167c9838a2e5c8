// Package internal contains the core implementation packages for Pagewright.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the page composition engine.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - types: shared document model (nodes, responsive values, diffs, events)
//   - errors: structured error taxonomy for rejected operations
//   - registry: component definitions, templates, and containment rules
//   - document: the document store with transactional, diff-producing mutations
//   - responsive: mobile-first breakpoint resolution and merging
//   - history: undo/redo over operation diffs with transient coalescing
//   - symbols: master/instance symbols with field overrides
//   - dragdrop: the drag state machine, hit testing, and keyboard reorder
//   - renderer: resolved render tree and HTML preview output
//   - editor: the editor context tying store, history, symbols, and selection
//   - persistence: SQLite page storage with conflict-checked saves
//   - proposal: version-stamped asynchronous edit proposals
//   - server: HTTP operations API, preview, and WebSocket event stream
//   - watcher: debounced watching of component definition files
//   - config: Viper-backed configuration loading and validation
//   - logging: structured slog-backed logging
//   - version: build information stamped at link time
package internal
