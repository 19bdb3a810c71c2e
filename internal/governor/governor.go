// Package governor orchestrates document mutations: collection policy,
// field classification, value validation, the write payload, and the audit
// record for every accepted edit.
package governor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/agrodata/docmaint-engine/internal/domain"
	"github.com/agrodata/docmaint-engine/internal/policy"
	"github.com/agrodata/docmaint-engine/internal/validate"
)

// DocumentStore is the persistence contract the governor mutates through.
type DocumentStore interface {
	Fetch(ctx context.Context, collection, docID string) (*domain.Document, error)
	// Update applies a field map on top of the stored document, assigns the
	// last-modified timestamp, and returns the new version. A non-zero
	// expectedVersion makes the write conditional.
	Update(ctx context.Context, collection, docID string, fields map[string]domain.Value, expectedVersion int64) (int64, error)
}

// AuditRecorder persists immutable audit records. Insert failures are
// treated as best-effort by the governor.
type AuditRecorder interface {
	Insert(ctx context.Context, rec domain.AuditRecord) error
}

// Approval is the outcome of a successful governance pass: the payload to
// write and the audit record to persist alongside it.
type Approval struct {
	Stage         domain.MutationStage
	ChangedFields []string
	Payload       map[string]domain.Value
	Audit         domain.AuditRecord
}

// Governor runs mutation requests through the governance pipeline.
type Governor struct {
	policy    *policy.Policy
	validator *validate.Validator
	docs      DocumentStore
	audit     AuditRecorder
}

// New creates a Governor over the given policy and collaborators.
func New(p *policy.Policy, docs DocumentStore, audit AuditRecorder) *Governor {
	return &Governor{
		policy:    p,
		validator: validate.New(p),
		docs:      docs,
		audit:     audit,
	}
}

// Approve runs the synchronous governance pipeline over a request without
// touching the store: collection policy, classification of every field,
// value validation, and the reason requirement. Acceptance is atomic - a
// single blocking field rejects the entire request. On success the returned
// approval carries the coerced write payload and the audit record draft.
func (g *Governor) Approve(req domain.MutationRequest) (*Approval, error) {
	// Stage: collection_checked.
	decision := g.policy.IsEditable(req.Collection)
	if !decision.Allowed {
		code := domain.ErrCollectionUnknown.Code
		if decision.Denied {
			code = domain.ErrCollectionDenied.Code
		}
		return nil, domain.NewMaintError(code, decision.Reason)
	}

	if len(req.Changes) == 0 {
		return nil, domain.ErrNoChanges
	}

	fields := make([]string, 0, len(req.Changes))
	for f := range req.Changes {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	// Stage: fields_classified. One readonly field anywhere aborts the
	// whole mutation; nothing is partially committed.
	for _, f := range fields {
		if g.policy.Classify(f).Class == domain.FieldReadonly {
			return nil, domain.FieldError(domain.ErrProtectedField.Code, f,
				"protected field cannot be edited")
		}
	}

	// Stage: validated.
	payload := make(map[string]domain.Value, len(req.Changes)+1)
	for _, f := range fields {
		raw := req.Changes[f]
		if err := g.validator.Check(f, raw); err != nil {
			return nil, err
		}
		coerced, err := g.validator.Coerce(f, raw)
		if err != nil {
			return nil, err
		}
		payload[f] = coerced
	}

	if strings.TrimSpace(req.Reason) == "" {
		return nil, domain.ErrMissingReason
	}

	// System-added field: who applied the edit. The last-modified timestamp
	// is assigned by the store at write time.
	handle := req.Actor.Handle
	if handle == "" {
		handle = "system"
	}
	payload["updated_by"] = domain.StringValue(handle)

	applied := make(map[string]domain.Value, len(payload))
	for k, v := range payload {
		applied[k] = v
	}

	return &Approval{
		Stage:         domain.StageValidated,
		ChangedFields: fields,
		Payload:       payload,
		Audit: domain.AuditRecord{
			Type:          domain.AuditTypeManualMaintenance,
			Collection:    req.Collection,
			DocID:         req.DocID,
			ChangedFields: fields,
			Applied:       applied,
			Reason:        req.Reason,
			OperatorName:  req.Actor.Name,
			OperatorEmail: handle,
			TenantID:      req.TenantID,
			Severity:      domain.AuditSeverityHigh,
		},
	}, nil
}

// Commit approves a request, verifies the target document and any changed
// reference fields, applies the write, and records the audit trail. The
// document write is authoritative; the audit write is best-effort and a
// failure there is logged and swallowed, never rolled back.
func (g *Governor) Commit(ctx context.Context, req domain.MutationRequest) (*domain.MutationResult, error) {
	approval, err := g.Approve(req)
	if err != nil {
		return nil, err
	}

	doc, err := g.docs.Fetch(ctx, req.Collection, req.DocID)
	if err != nil {
		return nil, err
	}
	// A document from another tenant is reported as absent, not forbidden.
	if doc.TenantID != req.TenantID {
		return nil, domain.ErrDocumentNotFound
	}

	if err := g.checkReferences(ctx, req.TenantID, approval); err != nil {
		return nil, err
	}

	newVersion, err := g.docs.Update(ctx, req.Collection, req.DocID, approval.Payload, req.ExpectedVersion)
	if err != nil {
		return nil, err
	}

	rec := approval.Audit
	rec.ID = uuid.NewString()
	persisted := true
	if err := g.audit.Insert(ctx, rec); err != nil {
		// A lost audit entry is recoverable from other logs; rolling back a
		// confirmed edit is worse.
		log.Printf("audit record %s for %s/%s not persisted: %v", rec.ID, req.Collection, req.DocID, err)
		persisted = false
	}

	return &domain.MutationResult{
		Stage:          domain.StageCommitted,
		ChangedFields:  approval.ChangedFields,
		Applied:        approval.Payload,
		NewVersion:     newVersion,
		AuditID:        rec.ID,
		AuditPersisted: persisted,
	}, nil
}

// checkReferences verifies every changed reference field points at an
// existing document in its target collection, within the same tenant.
func (g *Governor) checkReferences(ctx context.Context, tenantID string, approval *Approval) error {
	for _, f := range approval.ChangedFields {
		info := g.policy.Classify(f)
		if info.Class != domain.FieldReference {
			continue
		}
		v := approval.Payload[f]
		if v.Kind != domain.KindString || v.Str == "" {
			continue
		}
		target, err := g.docs.Fetch(ctx, info.RefCollection, v.Str)
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return domain.FieldError(domain.ErrReferenceMissing.Code, f,
				fmt.Sprintf("document %q not found in %q", v.Str, info.RefCollection))
		}
		if err != nil {
			return err
		}
		if target.TenantID != tenantID {
			return domain.FieldError(domain.ErrReferenceMissing.Code, f,
				fmt.Sprintf("document %q not found in %q", v.Str, info.RefCollection))
		}
	}
	return nil
}

// RejectionStage maps a governance error to the pipeline stage that
// produced it, for reporting and metrics.
func RejectionStage(err error) domain.MutationStage {
	var me *domain.MaintError
	if !errors.As(err, &me) {
		return domain.StageRejected
	}
	switch me.Code {
	case domain.ErrCollectionDenied.Code, domain.ErrCollectionUnknown.Code:
		return domain.StageCollectionChecked
	case domain.ErrProtectedField.Code:
		return domain.StageFieldsClassified
	case domain.ErrValidationFailed.Code, domain.ErrMissingReason.Code,
		domain.ErrReferenceMissing.Code, domain.ErrNoChanges.Code:
		return domain.StageValidated
	default:
		return domain.StageRejected
	}
}
