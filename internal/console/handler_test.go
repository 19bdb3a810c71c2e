package console

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agrodata/docmaint-engine/internal/domain"
	"github.com/agrodata/docmaint-engine/internal/governor"
	"github.com/agrodata/docmaint-engine/internal/policy"
	"github.com/agrodata/docmaint-engine/internal/store"
)

func testMux(t *testing.T) (*http.ServeMux, *store.Store) {
	t.Helper()
	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	st := store.NewStore(db)
	pol := policy.Default()
	h := &Handler{
		Policy:     pol,
		Governor:   governor.New(pol, st, st),
		DB:         db,
		DocRepo:    st.Documents,
		AuditRepo:  st.Audit,
		Metrics:    NewMetrics(prometheus.NewRegistry()),
		QueryLimit: 100,
	}
	return NewMux(h), st
}

func seedSale(t *testing.T, st *store.Store) {
	t.Helper()
	doc := domain.Document{
		ID:         "vend-001",
		Collection: "vendas",
		TenantID:   "emp-1",
		CreatedAt:  1700000000,
		Fields: map[string]domain.Value{
			"empresa_id":       domain.StringValue("emp-1"),
			"vend_valor_total": domain.NumberValue(100),
			"observacao":       domain.StringValue("antiga"),
			"ativo":            domain.BoolValue(true),
		},
	}
	if err := st.Documents.Insert(context.Background(), st.DB, doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}
}

func do(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	mux, _ := testMux(t)

	rec := do(t, mux, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestListCollections(t *testing.T) {
	mux, _ := testMux(t)

	rec := do(t, mux, http.MethodGet, "/api/v1/collections", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	cols := decode[[]policy.Collection](t, rec)
	if len(cols) == 0 {
		t.Fatal("no collections returned")
	}
	if cols[0].ID != "vendas" {
		t.Errorf("first collection = %q, want vendas (declaration order)", cols[0].ID)
	}
}

func TestGetDocument(t *testing.T) {
	mux, st := testMux(t)
	seedSale(t, st)

	rec := do(t, mux, http.MethodGet, "/api/v1/collections/vendas/documents/vend-001?tenant_id=emp-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	view := decode[DocumentView](t, rec)
	if view.ID != "vend-001" || view.Version != 1 {
		t.Errorf("view = %+v", view)
	}

	byName := make(map[string]FieldView, len(view.Fields))
	for _, f := range view.Fields {
		byName[f.Name] = f
	}
	if f := byName["empresa_id"]; f.Info.Class != domain.FieldReadonly || !f.Info.Disabled {
		t.Errorf("empresa_id info = %+v, want readonly and disabled", f.Info)
	}
	if f := byName["vend_valor_total"]; f.Info.Class != domain.FieldCalculated {
		t.Errorf("vend_valor_total info = %+v, want calculated", f.Info)
	}
	if f := byName["observacao"]; f.Info.Class != domain.FieldNormal {
		t.Errorf("observacao info = %+v, want normal", f.Info)
	}
	if view.Stats.Total != 4 || view.Stats.Readonly != 1 {
		t.Errorf("stats = %+v", view.Stats)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	mux, _ := testMux(t)

	rec := do(t, mux, http.MethodGet, "/api/v1/collections/vendas/documents/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetDocument_TenantMismatchIsNotFound(t *testing.T) {
	mux, st := testMux(t)
	seedSale(t, st)

	rec := do(t, mux, http.MethodGet, "/api/v1/collections/vendas/documents/vend-001?tenant_id=emp-other", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSearchDocuments(t *testing.T) {
	mux, st := testMux(t)
	seedSale(t, st)

	t.Run("requires tenant", func(t *testing.T) {
		rec := do(t, mux, http.MethodGet, "/api/v1/collections/vendas/documents", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("denied collection", func(t *testing.T) {
		rec := do(t, mux, http.MethodGet, "/api/v1/collections/auditoria/documents?tenant_id=emp-1", nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("invalid date", func(t *testing.T) {
		rec := do(t, mux, http.MethodGet, "/api/v1/collections/vendas/documents?tenant_id=emp-1&from=yesterday", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("results", func(t *testing.T) {
		rec := do(t, mux, http.MethodGet, "/api/v1/collections/vendas/documents?tenant_id=emp-1&from=2023-01-01", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		docs := decode[[]DocumentSummary](t, rec)
		if len(docs) != 1 || docs[0].ID != "vend-001" {
			t.Errorf("docs = %+v", docs)
		}
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		rec := do(t, mux, http.MethodGet, "/api/v1/collections/vendas/documents?tenant_id=emp-2", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		docs := decode[[]DocumentSummary](t, rec)
		if len(docs) != 0 {
			t.Errorf("docs = %+v, want none", docs)
		}
	})
}

func TestSubmitMutation(t *testing.T) {
	mux, st := testMux(t)
	seedSale(t, st)

	body := MutationSubmit{
		TenantID:       "emp-1",
		Changes:        map[string]any{"observacao": "entrega remarcada", "ativo": "false"},
		Reason:         "customer asked to pause the order",
		OperatorName:   "Ana Souza",
		OperatorHandle: "ana@example.com",
	}
	rec := do(t, mux, http.MethodPost, "/api/v1/collections/vendas/documents/vend-001/mutations", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	result := decode[domain.MutationResult](t, rec)
	if result.Stage != domain.StageCommitted || result.NewVersion != 2 {
		t.Errorf("result = %+v", result)
	}
	if !result.AuditPersisted || result.AuditID == "" {
		t.Errorf("audit not persisted: %+v", result)
	}

	// The write landed.
	doc, err := st.Fetch(context.Background(), "vendas", "vend-001")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if doc.Fields["observacao"].Str != "entrega remarcada" {
		t.Errorf("observacao = %+v", doc.Fields["observacao"])
	}
	if v := doc.Fields["ativo"]; v.Kind != domain.KindBool || v.Bool {
		t.Errorf("ativo = %+v, want bool false", v)
	}

	// And the audit trail shows it.
	audit := do(t, mux, http.MethodGet, "/api/v1/collections/vendas/documents/vend-001/audit", nil)
	if audit.Code != http.StatusOK {
		t.Fatalf("audit status = %d", audit.Code)
	}
	records := decode[[]AuditView](t, audit)
	if len(records) != 1 {
		t.Fatalf("audit records = %d, want 1", len(records))
	}
	if records[0].Type != domain.AuditTypeManualMaintenance || records[0].Severity != domain.AuditSeverityHigh {
		t.Errorf("audit record = %+v", records[0])
	}
	if len(records[0].ChangedFields) != 2 {
		t.Errorf("ChangedFields = %v", records[0].ChangedFields)
	}
}

func TestSubmitMutation_Rejections(t *testing.T) {
	mux, st := testMux(t)
	seedSale(t, st)

	base := MutationSubmit{
		TenantID:       "emp-1",
		Reason:         "fixing bad data",
		OperatorName:   "Ana Souza",
		OperatorHandle: "ana@example.com",
	}

	tests := []struct {
		name       string
		path       string
		mutate     func(*MutationSubmit)
		wantStatus int
		wantCode   int
	}{
		{
			name:       "protected field",
			path:       "/api/v1/collections/vendas/documents/vend-001/mutations",
			mutate:     func(m *MutationSubmit) { m.Changes = map[string]any{"empresa_id": "emp-2"} },
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   domain.ErrProtectedField.Code,
		},
		{
			name:       "invalid number",
			path:       "/api/v1/collections/vendas/documents/vend-001/mutations",
			mutate:     func(m *MutationSubmit) { m.Changes = map[string]any{"vend_valor_total": "not-a-number"} },
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   domain.ErrValidationFailed.Code,
		},
		{
			name: "missing reason",
			path: "/api/v1/collections/vendas/documents/vend-001/mutations",
			mutate: func(m *MutationSubmit) {
				m.Changes = map[string]any{"observacao": "x"}
				m.Reason = ""
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   domain.ErrMissingReason.Code,
		},
		{
			name:       "no changes",
			path:       "/api/v1/collections/vendas/documents/vend-001/mutations",
			mutate:     func(m *MutationSubmit) { m.Changes = nil },
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   domain.ErrNoChanges.Code,
		},
		{
			name:       "denied collection",
			path:       "/api/v1/collections/auditoria/documents/aud-1/mutations",
			mutate:     func(m *MutationSubmit) { m.Changes = map[string]any{"motivo": "x"} },
			wantStatus: http.StatusForbidden,
			wantCode:   domain.ErrCollectionDenied.Code,
		},
		{
			name:       "unknown collection",
			path:       "/api/v1/collections/nota_fiscal/documents/nf-1/mutations",
			mutate:     func(m *MutationSubmit) { m.Changes = map[string]any{"observacao": "x"} },
			wantStatus: http.StatusForbidden,
			wantCode:   domain.ErrCollectionUnknown.Code,
		},
		{
			name:       "document not found",
			path:       "/api/v1/collections/vendas/documents/missing/mutations",
			mutate:     func(m *MutationSubmit) { m.Changes = map[string]any{"observacao": "x"} },
			wantStatus: http.StatusNotFound,
			wantCode:   domain.ErrDocumentNotFound.Code,
		},
		{
			name: "version conflict",
			path: "/api/v1/collections/vendas/documents/vend-001/mutations",
			mutate: func(m *MutationSubmit) {
				m.Changes = map[string]any{"observacao": "x"}
				m.ExpectedVersion = 99
			},
			wantStatus: http.StatusConflict,
			wantCode:   domain.ErrWriteConflict.Code,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := base
			tt.mutate(&body)
			rec := do(t, mux, http.MethodPost, tt.path, body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			apiErr := decode[APIError](t, rec)
			if apiErr.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", apiErr.Code, tt.wantCode)
			}
		})
	}

	// Nothing committed, nothing audited.
	doc, err := st.Fetch(context.Background(), "vendas", "vend-001")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if doc.Version != 1 {
		t.Errorf("Version = %d, want untouched 1", doc.Version)
	}
	records, err := st.Audit.ListByDocument(context.Background(), st.DB, "vendas", "vend-001")
	if err != nil {
		t.Fatalf("ListByDocument: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("audit records = %d, want 0", len(records))
	}
}

func TestSubmitMutation_MissingTenant(t *testing.T) {
	mux, _ := testMux(t)

	body := MutationSubmit{Changes: map[string]any{"observacao": "x"}, Reason: "r"}
	rec := do(t, mux, http.MethodPost, "/api/v1/collections/vendas/documents/vend-001/mutations", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestParseTimeParam(t *testing.T) {
	tests := []struct {
		in     string
		want   int64
		wantOK bool
	}{
		{"", 0, true},
		{"1700000000", 1700000000, true},
		{"2023-11-14", 1699920000, true},
		{"2023-11-14T22:13:20Z", 1700000000, true},
		{"yesterday", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseTimeParam(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseTimeParam(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
