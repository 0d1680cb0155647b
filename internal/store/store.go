// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the GO association database in SQLite and
// answers the lookups used at annotation time.
//
// A Store is opened in one of two modes. Build mode (StoreConfig.Create)
// creates a fresh file tuned for bulk loading; query mode opens an
// existing file read-only and loads the term id to accession table into
// memory. Query-mode stores are safe for concurrent readers.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/pdiddy/topaz/pkg/types"
)

const driverName = "sqlite3"

var (
	// ErrExists is returned when build mode would overwrite a database.
	ErrExists = errors.New("database already exists")

	// ErrReadOnly is returned by write operations on a query-mode store.
	ErrReadOnly = errors.New("database opened read-only")

	// ErrUnknownTable is returned by BulkInsert for tables outside the schema.
	ErrUnknownTable = errors.New("unknown table")
)

// Error wraps a storage failure with the operation that caused it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "store: " + e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// IsTransient reports whether err is a busy or locked database, which a
// reader may retry.
func IsTransient(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

// Store manages the association database.
type Store struct {
	db       *sql.DB
	path     string
	readOnly bool

	mu    sync.RWMutex
	terms map[int64]string
}

// Open opens the database described by cfg. In build mode the file must
// not exist yet; in query mode it must.
func Open(ctx context.Context, cfg types.StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, &Error{Op: "open", Err: errors.New("no database path")}
	}
	if cfg.Create {
		return openBuild(ctx, cfg.Path)
	}
	return openQuery(ctx, cfg.Path)
}

func openBuild(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, &Error{Op: "open", Err: fmt.Errorf("%s: %w", path, ErrExists)}
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}
	// PRAGMAs are per connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, terms: make(map[int64]string)}

	pragmas := []string{
		`PRAGMA synchronous = OFF`,
		`PRAGMA journal_mode = OFF`,
		`PRAGMA temp_store = MEMORY`,
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, &Error{Op: "configure", Err: err}
		}
	}

	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, &Error{Op: "create schema", Err: err}
	}
	return s, nil
}

func openQuery(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &Error{Op: "open", Err: err}
	}

	db, err := sql.Open(driverName, "file:"+path+"?mode=ro&_query_only=true")
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}

	s := &Store{db: db, path: path, readOnly: true}
	if err := s.loadTerms(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

func (s *Store) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS term (
			id INTEGER PRIMARY KEY,
			acc TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS association (
			id INTEGER PRIMARY KEY,
			term_id INTEGER NOT NULL,
			gene_product_id INTEGER NOT NULL,
			evidence INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS gene_product (
			id INTEGER PRIMARY KEY,
			dbxref_id INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS dbxref (
			id INTEGER PRIMARY KEY,
			xref_key TEXT NOT NULL COLLATE NOCASE
		)`,
		`CREATE TABLE IF NOT EXISTS acc2uniprot (
			acc TEXT NOT NULL COLLATE NOCASE PRIMARY KEY,
			uniprot TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS mapping_conflict (
			acc TEXT NOT NULL,
			kept TEXT NOT NULL,
			rejected TEXT NOT NULL,
			source TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS build_info (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Finalize creates the lookup indexes and updates planner statistics.
// Call it once after all bulk loading.
func (s *Store) Finalize(ctx context.Context) error {
	if s.readOnly {
		return &Error{Op: "finalize", Err: ErrReadOnly}
	}

	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_dbxref_xref_key ON dbxref(xref_key)`,
		`CREATE INDEX IF NOT EXISTS idx_gene_product_dbxref ON gene_product(dbxref_id)`,
		`CREATE INDEX IF NOT EXISTS idx_association_gene_product ON association(gene_product_id)`,
		`ANALYZE`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &Error{Op: "finalize", Err: err}
		}
	}
	return nil
}

func (s *Store) loadTerms(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, acc FROM term`)
	if err != nil {
		return &Error{Op: "load terms", Err: err}
	}
	defer rows.Close()

	terms := make(map[int64]string)
	for rows.Next() {
		var (
			id  int64
			acc string
		)
		if err := rows.Scan(&id, &acc); err != nil {
			return &Error{Op: "load terms", Err: err}
		}
		terms[id] = acc
	}
	if err := rows.Err(); err != nil {
		return &Error{Op: "load terms", Err: err}
	}

	s.mu.Lock()
	s.terms = terms
	s.mu.Unlock()
	return nil
}

// TermAccession returns the GO accession for a numeric term id.
func (s *Store) TermAccession(id int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.terms[id]
	return acc, ok
}

// SetBuildInfo records a key/value pair describing the build.
func (s *Store) SetBuildInfo(ctx context.Context, key, value string) error {
	if s.readOnly {
		return &Error{Op: "set build info", Err: ErrReadOnly}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO build_info (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	if err != nil {
		return &Error{Op: "set build info", Err: err}
	}
	return nil
}
