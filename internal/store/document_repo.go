package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agrodata/docmaint-engine/internal/domain"
)

// maxQueryLimit caps every document query to avoid dragging whole
// collections into the console.
const maxQueryLimit = 100

// DocumentRepo handles persistence for documents.
type DocumentRepo struct{}

// GetByID returns a single document or domain.ErrDocumentNotFound.
func (r *DocumentRepo) GetByID(ctx context.Context, db *sql.DB, collection, docID string) (*domain.Document, error) {
	const q = `SELECT collection, doc_id, tenant_id, fields_json, version, created_at, updated_at
FROM documents
WHERE collection = ? AND doc_id = ?`

	var doc domain.Document
	var fieldsJSON string
	err := db.QueryRowContext(ctx, q, collection, docID).Scan(
		&doc.Collection, &doc.ID, &doc.TenantID, &fieldsJSON,
		&doc.Version, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	doc.Fields, err = decodeFieldsJSON(fieldsJSON)
	if err != nil {
		return nil, fmt.Errorf("document %s/%s: %w", collection, docID, err)
	}
	return &doc, nil
}

// Query returns documents in a collection for one tenant, newest first,
// optionally bounded to a created-at range. from/to are unix seconds; zero
// disables the bound. The result is always capped at maxQueryLimit.
func (r *DocumentRepo) Query(ctx context.Context, db *sql.DB, collection, tenantID string, from, to int64, limit int) ([]domain.Document, error) {
	if limit <= 0 || limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	q := `SELECT collection, doc_id, tenant_id, fields_json, version, created_at, updated_at
FROM documents
WHERE collection = ? AND tenant_id = ?`
	args := []any{collection, tenantID}
	if from > 0 {
		q += ` AND created_at >= ?`
		args = append(args, from)
	}
	if to > 0 {
		q += ` AND created_at <= ?`
		args = append(args, to)
	}
	q += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		var fieldsJSON string
		if err := rows.Scan(&doc.Collection, &doc.ID, &doc.TenantID, &fieldsJSON,
			&doc.Version, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.Fields, err = decodeFieldsJSON(fieldsJSON)
		if err != nil {
			return nil, fmt.Errorf("document %s/%s: %w", doc.Collection, doc.ID, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Insert creates a document. The engine itself never creates documents;
// this exists for the systems that own them (and for test fixtures).
func (r *DocumentRepo) Insert(ctx context.Context, db *sql.DB, doc domain.Document) error {
	fieldsJSON, err := json.Marshal(domain.EncodeFields(doc.Fields))
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	if doc.CreatedAt == 0 {
		doc.CreatedAt = time.Now().Unix()
	}

	const q = `INSERT INTO documents (collection, doc_id, tenant_id, fields_json, version, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, q, doc.Collection, doc.ID, doc.TenantID,
		string(fieldsJSON), doc.Version, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Update merges the given fields into the stored document, stamps
// updated_at, and bumps the version. A non-zero expectedVersion makes the
// write conditional: domain.ErrWriteConflict is returned when the stored
// version moved. The merge and write run in one transaction.
func (r *DocumentRepo) Update(ctx context.Context, db *sql.DB, collection, docID string, fields map[string]domain.Value, expectedVersion int64) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const sel = `SELECT fields_json, version FROM documents WHERE collection = ? AND doc_id = ?`
	var fieldsJSON string
	var version int64
	err = tx.QueryRowContext(ctx, sel, collection, docID).Scan(&fieldsJSON, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrDocumentNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("load document for update: %w", err)
	}

	if expectedVersion > 0 && version != expectedVersion {
		return 0, domain.ErrWriteConflict
	}

	current, err := decodeFieldsJSON(fieldsJSON)
	if err != nil {
		return 0, fmt.Errorf("document %s/%s: %w", collection, docID, err)
	}
	for name, v := range fields {
		current[name] = v
	}

	merged, err := json.Marshal(domain.EncodeFields(current))
	if err != nil {
		return 0, fmt.Errorf("encode fields: %w", err)
	}

	const upd = `UPDATE documents
SET fields_json = ?, version = version + 1, updated_at = ?
WHERE collection = ? AND doc_id = ? AND version = ?`
	res, err := tx.ExecContext(ctx, upd, string(merged), time.Now().Unix(), collection, docID, version)
	if err != nil {
		return 0, fmt.Errorf("update document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update document: %w", err)
	}
	if n == 0 {
		return 0, domain.ErrWriteConflict
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit update: %w", err)
	}
	return version + 1, nil
}

func decodeFieldsJSON(fieldsJSON string) (map[string]domain.Value, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(fieldsJSON), &raw); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return domain.DecodeFields(raw)
}
