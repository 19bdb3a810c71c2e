package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/agrodata/docmaint-engine/internal/domain"
	"github.com/agrodata/docmaint-engine/internal/policy"
)

// timeLayouts are the accepted operator input formats, most specific first.
// The second layout matches datetime-local form inputs.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Validator checks a single proposed (field, value) pair against the
// field's classification and the naming heuristics.
type Validator struct {
	policy *policy.Policy
}

// New creates a Validator over the given governance policy.
func New(p *policy.Policy) *Validator {
	return &Validator{policy: p}
}

// Check validates a proposed raw value for a field. Rules apply in order
// and the first failure wins. Returns nil when the value is acceptable.
func (v *Validator) Check(field string, raw any) error {
	// Readonly fields are rejected here too, even though callers exclude
	// them from the editable set: a second line of defense.
	if v.policy.IsReadonly(field) {
		return domain.FieldError(domain.ErrProtectedField.Code, field,
			"protected field cannot be edited")
	}

	if isEmpty(raw) {
		if LooksRequired(field) {
			return domain.FieldError(domain.ErrValidationFailed.Code, field,
				"required field cannot be empty")
		}
		return nil
	}

	if LooksNumeric(field) {
		if _, ok := asNumber(raw); !ok {
			return domain.FieldError(domain.ErrValidationFailed.Code, field,
				"value must be a valid number")
		}
	}

	if LooksTemporal(field) {
		if _, ok := asTime(raw); !ok {
			return domain.FieldError(domain.ErrValidationFailed.Code, field,
				"invalid date")
		}
	}

	if LooksBoolean(field) {
		if _, ok := asBool(raw); !ok {
			return domain.FieldError(domain.ErrValidationFailed.Code, field,
				"value must be true or false")
		}
	}

	return nil
}

// Coerce converts a raw proposed value into its typed form following the
// same heuristics Check validates against: numeric strings become numbers,
// "true"/"false" become booleans, date-like strings become timestamps, and
// JSON-object strings become nested maps. Callers must run Check first;
// Coerce reports an error only for values Check would also reject.
func (v *Validator) Coerce(field string, raw any) (domain.Value, error) {
	if isEmpty(raw) {
		return domain.Null(), nil
	}

	if LooksNumeric(field) {
		n, ok := asNumber(raw)
		if !ok {
			return domain.Null(), domain.FieldError(domain.ErrValidationFailed.Code, field,
				"value must be a valid number")
		}
		return domain.NumberValue(n), nil
	}

	if LooksTemporal(field) {
		t, ok := asTime(raw)
		if !ok {
			return domain.Null(), domain.FieldError(domain.ErrValidationFailed.Code, field,
				"invalid date")
		}
		return domain.TimeValue(t), nil
	}

	if LooksBoolean(field) {
		b, ok := asBool(raw)
		if !ok {
			return domain.Null(), domain.FieldError(domain.ErrValidationFailed.Code, field,
				"value must be true or false")
		}
		return domain.BoolValue(b), nil
	}

	switch x := raw.(type) {
	case string:
		// A JSON-object literal pasted into a text field becomes a nested
		// map; anything unparseable stays a plain string.
		if strings.HasPrefix(x, "{") {
			var m map[string]any
			if err := json.Unmarshal([]byte(x), &m); err == nil {
				fields, err := domain.DecodeFields(m)
				if err == nil {
					return domain.MapValue(fields), nil
				}
			}
		}
		return domain.StringValue(x), nil
	case bool:
		return domain.BoolValue(x), nil
	default:
		if n, ok := asNumber(raw); ok {
			return domain.NumberValue(n), nil
		}
		dv, err := domain.DecodeValue(raw)
		if err != nil {
			return domain.Null(), domain.FieldError(domain.ErrValidationFailed.Code, field,
				fmt.Sprintf("unsupported value: %v", err))
		}
		return dv, nil
	}
}

func isEmpty(raw any) bool {
	if raw == nil {
		return true
	}
	s, ok := raw.(string)
	return ok && s == ""
}

func asNumber(raw any) (float64, bool) {
	var n float64
	switch x := raw.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func asTime(raw any) (time.Time, bool) {
	switch x := raw.(type) {
	case time.Time:
		return x, true
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func asBool(raw any) (bool, bool) {
	switch x := raw.(type) {
	case bool:
		return x, true
	case string:
		switch x {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}
