// Package validate checks proposed field values against the naming
// heuristics used by the production field conventions.
package validate

import "strings"

// Marker tables drive type inference by substring containment against the
// field name. This is deliberately containment, not word-boundary or regex
// matching: the production field names were designed around it, and false
// positives on unusual names are an accepted trade-off. Kept as data so the
// heuristics are testable independently of the rules that use them.
var (
	// RequiredMarkers: fields whose name carries an identifier or creation
	// timestamp marker may not be blanked out.
	RequiredMarkers = []string{"_id", "_at"}

	// NumericMarkers: monetary and quantity fields must parse as finite
	// numbers.
	NumericMarkers = []string{"valor", "qtde", "preco"}

	// TemporalMarkers: timestamp and date fields must parse as calendar
	// date/times.
	TemporalMarkers = []string{"_at", "_data"}

	// BooleanMarkers: flag fields must be boolean-typed or the literal
	// strings "true"/"false".
	BooleanMarkers = []string{"ativo", "pago", "cancelado"}
)

func containsAny(field string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(field, m) {
			return true
		}
	}
	return false
}

// LooksRequired reports whether the field name matches the identifier-like
// heuristic.
func LooksRequired(field string) bool {
	return containsAny(field, RequiredMarkers)
}

// LooksNumeric reports whether the field name matches the monetary/quantity
// heuristic.
func LooksNumeric(field string) bool {
	return containsAny(field, NumericMarkers)
}

// LooksTemporal reports whether the field name matches the temporal
// heuristic.
func LooksTemporal(field string) bool {
	return containsAny(field, TemporalMarkers)
}

// LooksBoolean reports whether the field name matches the flag heuristic.
func LooksBoolean(field string) bool {
	return containsAny(field, BooleanMarkers)
}

// SemanticType is the inferred input shape for a field, used by the console
// to pick a widget and by coercion to pick a target kind.
type SemanticType string

const (
	TypeTemporal   SemanticType = "temporal"
	TypeNumeric    SemanticType = "numeric"
	TypeBoolean    SemanticType = "boolean"
	TypeStructured SemanticType = "structured"
	TypeText       SemanticType = "text"
)

// InferType infers the semantic type of a field from its name, falling back
// to the current value's shape for structured data.
func InferType(field string, raw any) SemanticType {
	switch {
	case LooksTemporal(field):
		return TypeTemporal
	case LooksNumeric(field):
		return TypeNumeric
	case LooksBoolean(field):
		return TypeBoolean
	}
	switch raw.(type) {
	case map[string]any, []any:
		return TypeStructured
	}
	return TypeText
}
