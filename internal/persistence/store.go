package persistence

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/conneroisu/pagewright/internal/errors"
	"github.com/conneroisu/pagewright/internal/logging"
	"github.com/conneroisu/pagewright/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS pages (
	site_id    TEXT NOT NULL,
	page_id    TEXT NOT NULL,
	version    INTEGER NOT NULL DEFAULT 0,
	body       TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (site_id, page_id)
);
`

// Store persists page documents to SQLite.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens (and initializes if needed) the page database at path. Use
// ":memory:" for an ephemeral store.
func Open(path string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewInternalError("failed to open page database", err)
	}
	// modernc sqlite serializes writes internally; one writer connection
	// avoids SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewInternalError("failed to initialize page schema", err)
	}
	return &Store{db: db, logger: logger.WithComponent("persistence")}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Load reads one page document and the version it was stored at.
func (s *Store) Load(ctx context.Context, siteID, pageID string) (*types.Document, uint64, error) {
	var body string
	var version uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT body, version FROM pages WHERE site_id = ? AND page_id = ?`,
		siteID, pageID).Scan(&body, &version)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, 0, errors.NewNotFoundError(errors.ErrCodePageNotFound,
			fmt.Sprintf("page not found: %s/%s", siteID, pageID))
	}
	if err != nil {
		return nil, 0, errors.NewInternalError("failed to load page", err)
	}
	doc, err := DecodeDocument([]byte(body))
	if err != nil {
		return nil, 0, err
	}
	return doc, version, nil
}

// Save writes a page document. baseVersion must match the stored version for
// an existing page (0 for a new one); a mismatch means another writer saved
// first and yields a conflict error with nothing written.
func (s *Store) Save(ctx context.Context, siteID, pageID string, doc *types.Document, baseVersion uint64) (uint64, error) {
	body, err := EncodeDocument(doc)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewInternalError("failed to begin save transaction", err)
	}
	defer tx.Rollback()

	var current uint64
	err = tx.QueryRowContext(ctx,
		`SELECT version FROM pages WHERE site_id = ? AND page_id = ?`,
		siteID, pageID).Scan(&current)
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		current = 0
	case err != nil:
		return 0, errors.NewInternalError("failed to read page version", err)
	}
	if current != baseVersion {
		return 0, errors.NewConflictError(
			fmt.Sprintf("page %s/%s was saved at version %d, expected %d", siteID, pageID, current, baseVersion))
	}

	next := current + 1
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO pages (site_id, page_id, version, body, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (site_id, page_id) DO UPDATE SET
		 version = excluded.version, body = excluded.body, updated_at = excluded.updated_at`,
		siteID, pageID, next, string(body), now); err != nil {
		return 0, errors.NewInternalError("failed to write page", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.NewInternalError("failed to commit save", err)
	}
	return next, nil
}

// List returns the page ids stored for a site, sorted.
func (s *Store) List(ctx context.Context, siteID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT page_id FROM pages WHERE site_id = ? ORDER BY page_id`, siteID)
	if err != nil {
		return nil, errors.NewInternalError("failed to list pages", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewInternalError("failed to scan page id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternalError("failed to iterate pages", err)
	}
	return ids, nil
}

// Delete removes a page. Deleting a missing page is not an error.
func (s *Store) Delete(ctx context.Context, siteID, pageID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM pages WHERE site_id = ? AND page_id = ?`, siteID, pageID); err != nil {
		return errors.NewInternalError("failed to delete page", err)
	}
	return nil
}
