// Package store provides SQLite-backed persistence for the document
// maintenance engine: the document collections and the append-only audit
// trail.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/agrodata/docmaint-engine/internal/domain"
)

// schemaV1 defines the initial database schema. Documents are schemaless
// field maps stored as JSON; audit_records is append-only and no code in
// this package updates or deletes from it.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS documents (
	collection  TEXT NOT NULL,
	doc_id      TEXT NOT NULL,
	tenant_id   TEXT NOT NULL,
	fields_json TEXT NOT NULL DEFAULT '{}',
	version     INTEGER NOT NULL DEFAULT 1,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (collection, doc_id)
);
CREATE INDEX IF NOT EXISTS idx_documents_tenant_created ON documents(collection, tenant_id, created_at);

CREATE TABLE IF NOT EXISTS audit_records (
	id               TEXT PRIMARY KEY,
	tipo             TEXT NOT NULL,
	colecao          TEXT NOT NULL,
	doc_id           TEXT NOT NULL,
	campos_alterados TEXT NOT NULL DEFAULT '[]',
	alteracoes       TEXT NOT NULL DEFAULT '{}',
	motivo           TEXT NOT NULL,
	usuario          TEXT NOT NULL DEFAULT '',
	usuario_nome     TEXT NOT NULL DEFAULT '',
	empresa_id       TEXT NOT NULL DEFAULT '',
	gravidade        TEXT NOT NULL DEFAULT 'HIGH',
	created_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_doc ON audit_records(colecao, doc_id);
`

// NewDB opens a SQLite database at the given path with recommended pragmas
// and runs the V1 schema migration.
func NewDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Limit connections to 1 for SQLite (WAL allows concurrent reads but single writer).
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.ExecContext(context.Background(), schemaV1)
	return err
}

// Store bundles a database handle with the repositories and satisfies the
// governor's DocumentStore and AuditRecorder contracts.
type Store struct {
	DB        *sql.DB
	Documents *DocumentRepo
	Audit     *AuditRepo
}

// NewStore creates a Store over an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:        db,
		Documents: &DocumentRepo{},
		Audit:     &AuditRepo{},
	}
}

// Fetch implements governor.DocumentStore.
func (s *Store) Fetch(ctx context.Context, collection, docID string) (*domain.Document, error) {
	return s.Documents.GetByID(ctx, s.DB, collection, docID)
}

// Update implements governor.DocumentStore.
func (s *Store) Update(ctx context.Context, collection, docID string, fields map[string]domain.Value, expectedVersion int64) (int64, error) {
	return s.Documents.Update(ctx, s.DB, collection, docID, fields, expectedVersion)
}

// Insert implements governor.AuditRecorder.
func (s *Store) Insert(ctx context.Context, rec domain.AuditRecord) error {
	return s.Audit.Insert(ctx, s.DB, rec)
}
