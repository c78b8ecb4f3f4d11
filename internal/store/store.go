// Package store persists documents, annotations and entity types in
// SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dgallion1/annolex/internal/document"
)

// ErrNotFound is returned for lookups and deletes of absent rows.
var ErrNotFound = errors.New("not found")

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	filename     TEXT NOT NULL,
	text         TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);

CREATE TABLE IF NOT EXISTS annotations (
	id         TEXT PRIMARY KEY,
	doc_id     TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	start_off  INTEGER NOT NULL,
	end_off    INTEGER NOT NULL,
	type       TEXT NOT NULL,
	text       TEXT NOT NULL,
	color      TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_annotations_doc ON annotations(doc_id, start_off);

CREATE TABLE IF NOT EXISTS entity_types (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	color        TEXT NOT NULL
);
`

// Open opens (or creates) the database with WAL and foreign keys
// enabled, and applies the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- documents ---

// CreateDocument inserts a new document.
func (s *Store) CreateDocument(ctx context.Context, d document.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, filename, text, content_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Title, d.Filename, d.Text, d.ContentHash,
		d.CreatedAt.UnixMilli(), d.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetDocument returns a document by id.
func (s *Store) GetDocument(ctx context.Context, id string) (document.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, filename, text, content_hash, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)
	return scanDocument(row)
}

// FindDocumentByHash returns a document with the given content hash,
// used for upload dedup.
func (s *Store) FindDocumentByHash(ctx context.Context, hash string) (document.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, filename, text, content_hash, created_at, updated_at
		FROM documents WHERE content_hash = ? LIMIT 1
	`, hash)
	return scanDocument(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (document.Document, error) {
	var d document.Document
	var created, updated int64
	err := row.Scan(&d.ID, &d.Title, &d.Filename, &d.Text, &d.ContentHash, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return document.Document{}, ErrNotFound
		}
		return document.Document{}, fmt.Errorf("scan document: %w", err)
	}
	d.CreatedAt = time.UnixMilli(created)
	d.UpdatedAt = time.UnixMilli(updated)
	return d, nil
}

// ListDocuments returns all documents, newest first, without text
// bodies (listings do not need the full text).
func (s *Store) ListDocuments(ctx context.Context) ([]document.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, filename, content_hash, created_at, updated_at
		FROM documents ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []document.Document
	for rows.Next() {
		var d document.Document
		var created, updated int64
		if err := rows.Scan(&d.ID, &d.Title, &d.Filename, &d.ContentHash, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.CreatedAt = time.UnixMilli(created)
		d.UpdatedAt = time.UnixMilli(updated)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document and, via cascade, all of its
// annotations.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceDocumentText swaps a document's text and drops every
// annotation on it in the same transaction. Offsets into the old text
// are meaningless against the new one, so the whole span set goes;
// it is never re-mapped. Returns the number of annotations dropped.
func (s *Store) ReplaceDocumentText(ctx context.Context, id, text, contentHash string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM annotations WHERE doc_id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("drop annotations: %w", err)
	}
	dropped, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, `
		UPDATE documents SET text = ?, content_hash = ?, updated_at = ? WHERE id = ?
	`, text, contentHash, time.Now().UnixMilli(), id)
	if err != nil {
		return 0, fmt.Errorf("update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int(dropped), nil
}

// --- annotations ---

// CreateAnnotation inserts one annotation.
func (s *Store) CreateAnnotation(ctx context.Context, a document.Annotation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO annotations (id, doc_id, start_off, end_off, type, text, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.DocID, a.Start, a.End, a.Type, a.Text, a.Color, a.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert annotation: %w", err)
	}
	return nil
}

// CreateAnnotations inserts a batch atomically: either every
// annotation lands or none do.
func (s *Store) CreateAnnotations(ctx context.Context, as []document.Annotation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO annotations (id, doc_id, start_off, end_off, type, text, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, a := range as {
		if _, err := stmt.ExecContext(ctx, a.ID, a.DocID, a.Start, a.End, a.Type, a.Text, a.Color, a.CreatedAt.UnixMilli()); err != nil {
			return fmt.Errorf("insert annotation %s: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

// ListAnnotations returns a document's annotations in the canonical
// order: start ascending, longer spans first, then creation time.
func (s *Store) ListAnnotations(ctx context.Context, docID string) ([]document.Annotation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, doc_id, start_off, end_off, type, text, color, created_at
		FROM annotations
		WHERE doc_id = ?
		ORDER BY start_off ASC, (end_off - start_off) DESC, created_at ASC
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("query annotations: %w", err)
	}
	defer rows.Close()

	var out []document.Annotation
	for rows.Next() {
		var a document.Annotation
		var created int64
		if err := rows.Scan(&a.ID, &a.DocID, &a.Start, &a.End, &a.Type, &a.Text, &a.Color, &created); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		a.CreatedAt = time.UnixMilli(created)
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAnnotation removes one annotation from a document.
func (s *Store) DeleteAnnotation(ctx context.Context, docID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM annotations WHERE doc_id = ? AND id = ?`, docID, id)
	if err != nil {
		return fmt.Errorf("delete annotation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- entity types ---

// CreateEntityType inserts an entity type.
func (s *Store) CreateEntityType(ctx context.Context, et document.EntityType) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity_types (id, name, display_name, color) VALUES (?, ?, ?, ?)
	`, et.ID, et.Name, et.DisplayName, et.Color)
	if err != nil {
		return fmt.Errorf("insert entity type: %w", err)
	}
	return nil
}

// UpdateEntityType updates display name and colour.
func (s *Store) UpdateEntityType(ctx context.Context, et document.EntityType) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE entity_types SET display_name = ?, color = ? WHERE id = ?
	`, et.DisplayName, et.Color, et.ID)
	if err != nil {
		return fmt.Errorf("update entity type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEntityType removes an entity type. Existing annotations keep
// their type string; they render with the default colour from then on.
func (s *Store) DeleteEntityType(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entity_types WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entity type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindEntityTypeByName returns the entity type with the given name.
func (s *Store) FindEntityTypeByName(ctx context.Context, name string) (document.EntityType, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, display_name, color FROM entity_types WHERE name = ?
	`, name)
	var et document.EntityType
	if err := row.Scan(&et.ID, &et.Name, &et.DisplayName, &et.Color); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return document.EntityType{}, ErrNotFound
		}
		return document.EntityType{}, fmt.Errorf("scan entity type: %w", err)
	}
	return et, nil
}

// ListEntityTypes returns all entity types ordered by name.
func (s *Store) ListEntityTypes(ctx context.Context) ([]document.EntityType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, display_name, color FROM entity_types ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query entity types: %w", err)
	}
	defer rows.Close()

	var out []document.EntityType
	for rows.Next() {
		var et document.EntityType
		if err := rows.Scan(&et.ID, &et.Name, &et.DisplayName, &et.Color); err != nil {
			return nil, fmt.Errorf("scan entity type: %w", err)
		}
		out = append(out, et)
	}
	return out, rows.Err()
}
