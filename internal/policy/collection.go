package policy

import (
	"fmt"

	"github.com/agrodata/docmaint-engine/internal/domain"
)

// IsEditable decides whether a collection may be mutated through the
// maintenance console. The denylist takes precedence over the allowlist;
// a collection appearing in both is a misconfiguration and stays denied.
func (p *Policy) IsEditable(collection string) domain.CollectionDecision {
	if p.denied[collection] {
		return domain.CollectionDecision{
			Allowed: false,
			Denied:  true,
			Reason:  fmt.Sprintf("collection %q cannot be edited manually; use the dedicated screen for this data", collection),
		}
	}
	if _, ok := p.allowed[collection]; !ok {
		return domain.CollectionDecision{
			Allowed: false,
			Reason:  fmt.Sprintf("collection %q is not in the allowlist for manual editing", collection),
		}
	}
	return domain.CollectionDecision{Allowed: true}
}

// Collections returns the allowlisted collections in declaration order,
// for the console's collection picker.
func (p *Policy) Collections() []Collection {
	out := make([]Collection, len(p.allowedOrder))
	copy(out, p.allowedOrder)
	return out
}
