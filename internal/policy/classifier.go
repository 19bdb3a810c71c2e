package policy

import (
	"fmt"

	"github.com/agrodata/docmaint-engine/internal/domain"
)

// Policy answers classification and editability questions from a fixed set
// of governance tables. It is loaded once at startup and immutable after.
type Policy struct {
	readonly     map[string]bool
	denormalized map[string]bool
	calculated   map[string]bool
	references   map[string]string
	allowed      map[string]Collection
	allowedOrder []Collection
	denied       map[string]bool
}

// New builds a Policy from the given tables.
func New(t Tables) *Policy {
	p := &Policy{
		readonly:     make(map[string]bool, len(t.Readonly)),
		denormalized: make(map[string]bool, len(t.Denormalized)),
		calculated:   make(map[string]bool, len(t.Calculated)),
		references:   make(map[string]string, len(t.References)),
		allowed:      make(map[string]Collection, len(t.Allowed)),
		denied:       make(map[string]bool, len(t.Denied)),
	}
	for _, f := range t.Readonly {
		p.readonly[f] = true
	}
	for _, f := range t.Denormalized {
		p.denormalized[f] = true
	}
	for _, f := range t.Calculated {
		p.calculated[f] = true
	}
	for f, c := range t.References {
		p.references[f] = c
	}
	for _, c := range t.Allowed {
		p.allowed[c.ID] = c
		p.allowedOrder = append(p.allowedOrder, c)
	}
	for _, c := range t.Denied {
		p.denied[c] = true
	}
	return p
}

// Default returns a Policy built from the production tables.
func Default() *Policy {
	return New(DefaultTables())
}

// Classify maps a field name to its governance classification. The first
// matching table wins: readonly, denormalized, calculated, reference, then
// normal. Deterministic and independent of collection or document content.
func (p *Policy) Classify(field string) domain.FieldInfo {
	if p.readonly[field] {
		return domain.FieldInfo{
			Class:    domain.FieldReadonly,
			Badge:    "Read-only",
			Advisory: "Protected field - cannot be edited.",
			Disabled: true,
		}
	}
	if p.denormalized[field] {
		return domain.FieldInfo{
			Class:    domain.FieldDenormalized,
			Badge:    "Denormalized",
			Advisory: "Denormalized field - value copied from another collection. Editing here does NOT update the source of truth.",
		}
	}
	if p.calculated[field] {
		return domain.FieldInfo{
			Class:    domain.FieldCalculated,
			Badge:    "Calculated",
			Advisory: "Calculated field - value is generated automatically. A manual edit may be overwritten or become inconsistent; prefer recalculating.",
		}
	}
	if ref, ok := p.references[field]; ok {
		return domain.FieldInfo{
			Class:         domain.FieldReference,
			Badge:         "Ref: " + ref,
			Advisory:      fmt.Sprintf("Reference field - value must exist in %q. Existence is checked at save time.", ref),
			RefCollection: ref,
		}
	}
	return domain.FieldInfo{Class: domain.FieldNormal}
}

// IsReadonly reports whether a field name is in the readonly table.
func (p *Policy) IsReadonly(field string) bool {
	return p.readonly[field]
}

// Stats aggregates classifications over a field set.
func (p *Policy) Stats(fields []string) domain.FieldStats {
	stats := domain.FieldStats{Total: len(fields)}
	for _, f := range fields {
		switch p.Classify(f).Class {
		case domain.FieldReadonly:
			stats.Readonly++
		case domain.FieldDenormalized:
			stats.Denormalized++
		case domain.FieldCalculated:
			stats.Calculated++
		case domain.FieldReference:
			stats.Reference++
		default:
			stats.Normal++
		}
	}
	return stats
}
