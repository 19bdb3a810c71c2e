// Package console provides the HTTP API the operator console is built on.
package console

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/agrodata/docmaint-engine/internal/domain"
	"github.com/agrodata/docmaint-engine/internal/governor"
	"github.com/agrodata/docmaint-engine/internal/policy"
	"github.com/agrodata/docmaint-engine/internal/store"
	"github.com/agrodata/docmaint-engine/internal/validate"
)

// Handler holds all dependencies for the HTTP handlers.
type Handler struct {
	Policy     *policy.Policy
	Governor   *governor.Governor
	DB         *sql.DB
	DocRepo    *store.DocumentRepo
	AuditRepo  *store.AuditRepo
	Metrics    *Metrics
	QueryLimit int
}

// MutationSubmit is the body for POST .../documents/{docID}/mutations.
type MutationSubmit struct {
	TenantID        string         `json:"tenant_id"`
	Changes         map[string]any `json:"changes"`
	Reason          string         `json:"reason"`
	OperatorName    string         `json:"operator_name"`
	OperatorHandle  string         `json:"operator_handle"`
	ExpectedVersion int64          `json:"expected_version"`
}

// FieldView is one document field with its classification, for rendering
// badges, advisories, and input widgets.
type FieldView struct {
	Name     string                `json:"name"`
	Value    any                   `json:"value"`
	Info     domain.FieldInfo      `json:"info"`
	Semantic validate.SemanticType `json:"semantic"`
}

// DocumentView is the response for GET .../documents/{docID}.
type DocumentView struct {
	ID         string            `json:"id"`
	Collection string            `json:"collection"`
	TenantID   string            `json:"tenant_id"`
	Version    int64             `json:"version"`
	CreatedAt  int64             `json:"created_at"`
	UpdatedAt  int64             `json:"updated_at"`
	Fields     []FieldView       `json:"fields"`
	Stats      domain.FieldStats `json:"stats"`
}

// DocumentSummary is one search result row.
type DocumentSummary struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenant_id"`
	Version   int64          `json:"version"`
	CreatedAt int64          `json:"created_at"`
	Fields    map[string]any `json:"fields"`
}

// AuditView is one audit trail entry.
type AuditView struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	ChangedFields []string       `json:"changed_fields"`
	Applied       map[string]any `json:"applied"`
	Reason        string         `json:"reason"`
	OperatorName  string         `json:"operator_name"`
	OperatorEmail string         `json:"operator_email"`
	Severity      string         `json:"severity"`
	CreatedAt     int64          `json:"created_at"`
}

// APIError is a structured error response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListCollections handles GET /api/v1/collections.
func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Policy.Collections())
}

// SearchDocuments handles GET /api/v1/collections/{collection}/documents.
// Query params: tenant_id (required), from, to (date or unix seconds),
// limit.
func (h *Handler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "tenant_id is required"})
		return
	}

	// Browsing is restricted to the same collections that may be edited.
	if decision := h.Policy.IsEditable(collection); !decision.Allowed {
		writeJSON(w, http.StatusForbidden, APIError{Code: domain.ErrCollectionDenied.Code, Message: decision.Reason})
		return
	}

	from, ok := parseTimeParam(r.URL.Query().Get("from"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid from date"})
		return
	}
	to, ok := parseTimeParam(r.URL.Query().Get("to"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid to date"})
		return
	}

	limit := h.QueryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			limit = parsed
		}
	}

	docs, err := h.DocRepo.Query(r.Context(), h.DB, collection, tenantID, from, to, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		out = append(out, DocumentSummary{
			ID:        doc.ID,
			TenantID:  doc.TenantID,
			Version:   doc.Version,
			CreatedAt: doc.CreatedAt,
			Fields:    domain.EncodeFields(doc.Fields),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetDocument handles GET /api/v1/collections/{collection}/documents/{docID}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	docID := r.PathValue("docID")
	tenantID := r.URL.Query().Get("tenant_id")

	doc, err := h.DocRepo.GetByID(r.Context(), h.DB, collection, docID)
	if err != nil {
		writeError(w, err)
		return
	}
	if tenantID != "" && doc.TenantID != tenantID {
		writeError(w, domain.ErrDocumentNotFound)
		return
	}

	names := make([]string, 0, len(doc.Fields))
	for name := range doc.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]FieldView, 0, len(names))
	for _, name := range names {
		raw := doc.Fields[name].Interface()
		fields = append(fields, FieldView{
			Name:     name,
			Value:    raw,
			Info:     h.Policy.Classify(name),
			Semantic: validate.InferType(name, raw),
		})
	}

	writeJSON(w, http.StatusOK, DocumentView{
		ID:         doc.ID,
		Collection: doc.Collection,
		TenantID:   doc.TenantID,
		Version:    doc.Version,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
		Fields:     fields,
		Stats:      h.Policy.Stats(names),
	})
}

// SubmitMutation handles POST .../documents/{docID}/mutations.
func (h *Handler) SubmitMutation(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	docID := r.PathValue("docID")

	var req MutationSubmit
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if req.TenantID == "" {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "tenant_id is required"})
		return
	}

	result, err := h.Governor.Commit(r.Context(), domain.MutationRequest{
		Collection:      collection,
		DocID:           docID,
		TenantID:        req.TenantID,
		Changes:         req.Changes,
		Reason:          req.Reason,
		Actor:           domain.Operator{Name: req.OperatorName, Handle: req.OperatorHandle},
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		if h.Metrics != nil {
			stage := string(governor.RejectionStage(err))
			h.Metrics.MutationsRejected.WithLabelValues(collection, stage).Inc()
		}
		writeError(w, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.MutationsAccepted.WithLabelValues(collection).Inc()
	}
	writeJSON(w, http.StatusOK, result)
}

// ListAudit handles GET .../documents/{docID}/audit.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	docID := r.PathValue("docID")

	records, err := h.AuditRepo.ListByDocument(r.Context(), h.DB, collection, docID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]AuditView, 0, len(records))
	for _, rec := range records {
		out = append(out, AuditView{
			ID:            rec.ID,
			Type:          rec.Type,
			ChangedFields: rec.ChangedFields,
			Applied:       domain.EncodeFields(rec.Applied),
			Reason:        rec.Reason,
			OperatorName:  rec.OperatorName,
			OperatorEmail: rec.OperatorEmail,
			Severity:      rec.Severity,
			CreatedAt:     rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// parseTimeParam accepts an empty string (no bound), unix seconds, or a
// calendar date, returning unix seconds.
func parseTimeParam(s string) (int64, bool) {
	if s == "" {
		return 0, true
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix(), true
		}
	}
	return 0, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps engine errors to HTTP statuses: absent documents are 404,
// concurrent edits 409, governance rejections 422, anything else 500.
func writeError(w http.ResponseWriter, err error) {
	var me *domain.MaintError
	if !errors.As(err, &me) {
		writeJSON(w, http.StatusInternalServerError, APIError{Code: 500, Message: err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch me.Code {
	case domain.ErrDocumentNotFound.Code:
		status = http.StatusNotFound
	case domain.ErrWriteConflict.Code:
		status = http.StatusConflict
	case domain.ErrCollectionDenied.Code, domain.ErrCollectionUnknown.Code:
		status = http.StatusForbidden
	case domain.ErrProtectedField.Code, domain.ErrValidationFailed.Code,
		domain.ErrMissingReason.Code, domain.ErrReferenceMissing.Code,
		domain.ErrNoChanges.Code:
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, APIError{Code: me.Code, Message: me.Message, Field: me.Field})
}
