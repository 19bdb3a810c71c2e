// Package domain defines the core types for the document maintenance engine.
package domain

// FieldClass is the governance classification of a document field,
// determined purely from the field's name.
type FieldClass string

const (
	FieldReadonly     FieldClass = "readonly"
	FieldDenormalized FieldClass = "denormalized"
	FieldCalculated   FieldClass = "calculated"
	FieldReference    FieldClass = "reference"
	FieldNormal       FieldClass = "normal"
)

// FieldInfo is the classifier's verdict for a single field name.
type FieldInfo struct {
	Class    FieldClass `json:"class"`
	Badge    string     `json:"badge,omitempty"`
	Advisory string     `json:"advisory,omitempty"`
	Disabled bool       `json:"disabled"`
	// RefCollection is set only for reference fields: the collection the
	// field's value must point into.
	RefCollection string `json:"ref_collection,omitempty"`
}

// FieldStats aggregates classifications over a document's field set.
type FieldStats struct {
	Total        int `json:"total"`
	Readonly     int `json:"readonly"`
	Denormalized int `json:"denormalized"`
	Calculated   int `json:"calculated"`
	Reference    int `json:"reference"`
	Normal       int `json:"normal"`
}

// CollectionDecision is the collection policy's answer for a collection.
type CollectionDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	// Denied is true when the collection sits on the denylist, as opposed
	// to merely being absent from the allowlist.
	Denied bool `json:"denied,omitempty"`
}

// Operator identifies the human performing a maintenance edit. Supplied by
// the caller, never read from ambient state, and never verified here.
type Operator struct {
	Name   string `json:"name"`
	Handle string `json:"handle"`
}

// Document is a schemaless record owned by the document store. The engine
// never creates or destroys documents, only proposes field mutations.
type Document struct {
	ID         string
	Collection string
	TenantID   string
	Fields     map[string]Value
	Version    int64
	CreatedAt  int64
	UpdatedAt  int64
}

// MutationRequest is one operator-submitted document edit. Consumed once by
// the governor; only its outcome (the AuditRecord) is ever persisted.
type MutationRequest struct {
	Collection string
	DocID      string
	TenantID   string
	// Changes maps field name to the proposed raw value as it came from the
	// operator: string, number, or boolean.
	Changes map[string]any
	Reason  string
	Actor   Operator
	// ExpectedVersion enables the optimistic concurrency check. Zero skips
	// the check and falls back to the store's last-write-wins semantics.
	ExpectedVersion int64
}

// MutationStage tracks a request through the governance pipeline.
type MutationStage string

const (
	StagePending           MutationStage = "pending"
	StageCollectionChecked MutationStage = "collection_checked"
	StageFieldsClassified  MutationStage = "fields_classified"
	StageValidated         MutationStage = "validated"
	StageCommitted         MutationStage = "committed"
	StageRejected          MutationStage = "rejected"
)

// MutationResult reports a committed mutation.
type MutationResult struct {
	Stage         MutationStage    `json:"stage"`
	ChangedFields []string         `json:"changed_fields"`
	Applied       map[string]Value `json:"-"`
	NewVersion    int64            `json:"new_version"`
	AuditID       string           `json:"audit_id,omitempty"`
	// AuditPersisted is false when the audit write failed after a successful
	// document write. The mutation still counts as committed.
	AuditPersisted bool `json:"audit_persisted"`
}

// Audit record constants. Manual maintenance is always recorded at high
// severity.
const (
	AuditTypeManualMaintenance = "MANUAL_MAINTENANCE"
	AuditSeverityHigh          = "HIGH"
)

// AuditRecord is the immutable, append-only trace of one accepted mutation.
type AuditRecord struct {
	ID            string
	Type          string
	Collection    string
	DocID         string
	ChangedFields []string
	Applied       map[string]Value
	Reason        string
	OperatorName  string
	OperatorEmail string
	TenantID      string
	Severity      string
	CreatedAt     int64
}
