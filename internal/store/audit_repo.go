package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agrodata/docmaint-engine/internal/domain"
)

// AuditRepo handles persistence for AuditRecord entries. The table is
// append-only: this repo inserts and lists, nothing else.
type AuditRepo struct{}

// Insert writes an audit record. The creation timestamp is assigned here,
// by the persistence layer, when the record does not carry one.
func (r *AuditRepo) Insert(ctx context.Context, db *sql.DB, rec domain.AuditRecord) error {
	changed, err := json.Marshal(rec.ChangedFields)
	if err != nil {
		return fmt.Errorf("encode changed fields: %w", err)
	}
	applied, err := json.Marshal(domain.EncodeFields(rec.Applied))
	if err != nil {
		return fmt.Errorf("encode applied values: %w", err)
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}

	const q = `INSERT INTO audit_records (id, tipo, colecao, doc_id, campos_alterados, alteracoes, motivo, usuario, usuario_nome, empresa_id, gravidade, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, q,
		rec.ID,
		rec.Type,
		rec.Collection,
		rec.DocID,
		string(changed),
		string(applied),
		rec.Reason,
		rec.OperatorEmail,
		rec.OperatorName,
		rec.TenantID,
		rec.Severity,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// ListByDocument returns the audit trail for one document, newest first.
func (r *AuditRepo) ListByDocument(ctx context.Context, db *sql.DB, collection, docID string) ([]domain.AuditRecord, error) {
	const q = `SELECT id, tipo, colecao, doc_id, campos_alterados, alteracoes, motivo, usuario, usuario_nome, empresa_id, gravidade, created_at
FROM audit_records
WHERE colecao = ? AND doc_id = ?
ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, q, collection, docID)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var rec domain.AuditRecord
		var changed, applied string
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.Collection, &rec.DocID,
			&changed, &applied, &rec.Reason, &rec.OperatorEmail, &rec.OperatorName,
			&rec.TenantID, &rec.Severity, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		if err := json.Unmarshal([]byte(changed), &rec.ChangedFields); err != nil {
			return nil, fmt.Errorf("decode changed fields: %w", err)
		}
		var raw map[string]any
		if err := json.Unmarshal([]byte(applied), &raw); err != nil {
			return nil, fmt.Errorf("decode applied values: %w", err)
		}
		rec.Applied, err = domain.DecodeFields(raw)
		if err != nil {
			return nil, fmt.Errorf("decode applied values: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
