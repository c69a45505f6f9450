// Package store persists batch manifests in an embedded SQLite database so
// the submit and import commands can run in separate processes, possibly
// days apart.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/narratext/narratext/internal/batch"
	"github.com/narratext/narratext/internal/common"
)

const schema = `
CREATE TABLE IF NOT EXISTS manifests (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	model      TEXT NOT NULL,
	payload    BLOB NOT NULL
);
`

// ManifestSummary is the listing projection; the payload stays on disk.
type ManifestSummary struct {
	ID        string
	CreatedAt time.Time
	Model     string
}

// Store wraps the manifest database.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (creating if needed) the manifest database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open manifest store: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply manifest schema: %w", err)
	}
	logger.Debug("store.open.ok", "path", path)
	return &Store{db: db, log: logger}, nil
}

// SaveManifest inserts or replaces a manifest by id.
func (s *Store) SaveManifest(ctx context.Context, m *batch.Manifest) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest %s: %w", m.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO manifests (id, created_at, model, payload) VALUES (?, ?, ?, ?)`,
		m.ID, m.CreatedAt.UTC().Format(time.RFC3339Nano), m.Model, payload,
	)
	if err != nil {
		return fmt.Errorf("save manifest %s: %w", m.ID, err)
	}
	s.log.Info("store.manifest.saved", "manifest_id", m.ID, "tasks", len(m.Tasks), "bytes", len(payload))
	return nil
}

// LoadManifest fetches one manifest by id.
func (s *Store) LoadManifest(ctx context.Context, id string) (*batch.Manifest, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM manifests WHERE id = ?`, id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("MANIFEST_NOT_FOUND",
			fmt.Sprintf("no manifest with id %s", id), common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load manifest %s: %w", id, err)
	}
	var m batch.Manifest
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", id, err)
	}
	return &m, nil
}

// ListManifests returns summaries newest first.
func (s *Store) ListManifests(ctx context.Context) ([]ManifestSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, model FROM manifests ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list manifests: %w", err)
	}
	defer rows.Close()

	var out []ManifestSummary
	for rows.Next() {
		var sum ManifestSummary
		var createdAt string
		if err := rows.Scan(&sum.ID, &createdAt, &sum.Model); err != nil {
			return nil, fmt.Errorf("scan manifest row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse manifest timestamp %q: %w", createdAt, err)
		}
		sum.CreatedAt = ts
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list manifests: %w", err)
	}
	return out, nil
}

// DeleteManifest removes a manifest after its results have been imported.
func (s *Store) DeleteManifest(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM manifests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete manifest %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.NewAppError("MANIFEST_NOT_FOUND",
			fmt.Sprintf("no manifest with id %s", id), common.ErrNotFound)
	}
	s.log.Info("store.manifest.deleted", "manifest_id", id)
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
