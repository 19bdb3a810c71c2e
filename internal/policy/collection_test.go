package policy

import (
	"strings"
	"testing"
)

func TestIsEditable_Denied(t *testing.T) {
	p := Default()

	for _, collection := range DefaultTables().Denied {
		t.Run(collection, func(t *testing.T) {
			decision := p.IsEditable(collection)
			if decision.Allowed {
				t.Fatalf("expected %q to be denied", collection)
			}
			if !decision.Denied {
				t.Error("expected Denied=true for denylisted collection")
			}
			if !strings.Contains(decision.Reason, "dedicated screen") {
				t.Errorf("unexpected reason: %q", decision.Reason)
			}
		})
	}
}

func TestIsEditable_Auditoria(t *testing.T) {
	// The audit log itself must never be editable.
	if Default().IsEditable("auditoria").Allowed {
		t.Fatal("auditoria must not be editable")
	}
}

func TestIsEditable_NotAllowlisted(t *testing.T) {
	decision := Default().IsEditable("nota_fiscal")
	if decision.Allowed {
		t.Fatal("expected unknown collection to be rejected")
	}
	if decision.Denied {
		t.Error("unknown collection is not the same as denylisted")
	}
	if !strings.Contains(decision.Reason, "allowlist") {
		t.Errorf("unexpected reason: %q", decision.Reason)
	}
}

func TestIsEditable_Allowed(t *testing.T) {
	decision := Default().IsEditable("vendas")
	if !decision.Allowed {
		t.Fatalf("expected vendas to be editable, got reason %q", decision.Reason)
	}
	if decision.Reason != "" {
		t.Errorf("allowed decisions carry no reason, got %q", decision.Reason)
	}
}

// The denylist wins even when the same collection is also allowlisted.
// That configuration should never occur, but when it does the safe answer
// is no.
func TestIsEditable_DenylistPrecedence(t *testing.T) {
	tables := DefaultTables()
	tables.Allowed = append(tables.Allowed, Collection{ID: "auditoria", Name: "Auditoria"})
	p := New(tables)

	decision := p.IsEditable("auditoria")
	if decision.Allowed {
		t.Fatal("denylist must take precedence over the allowlist")
	}
	if !decision.Denied {
		t.Error("expected Denied=true")
	}
}

func TestCollections_Order(t *testing.T) {
	p := Default()
	got := p.Collections()
	want := DefaultTables().Allowed

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Collections()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}
