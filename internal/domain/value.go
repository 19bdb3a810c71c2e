package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind discriminates the closed set of value shapes a document field may hold.
type Kind string

const (
	KindNull   Kind = "null"
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindTime   Kind = "time"
	KindMap    Kind = "map"
	KindList   Kind = "list"
)

// Value is a tagged variant for a single document field. Documents have no
// fixed schema, so every field is one of these shapes and nothing else.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
	Time time.Time
	Map  map[string]Value
	List []Value
}

// Null returns the null value.
func Null() Value {
	return Value{Kind: KindNull}
}

// StringValue wraps a string.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NumberValue wraps a number.
func NumberValue(n float64) Value {
	return Value{Kind: KindNumber, Num: n}
}

// BoolValue wraps a boolean.
func BoolValue(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// TimeValue wraps a timestamp.
func TimeValue(t time.Time) Value {
	return Value{Kind: KindTime, Time: t.UTC()}
}

// MapValue wraps a nested object.
func MapValue(m map[string]Value) Value {
	return Value{Kind: KindMap, Map: m}
}

// ListValue wraps an array.
func ListValue(l []Value) Value {
	return Value{Kind: KindList, List: l}
}

// DecodeValue converts a JSON-decoded interface value into a Value.
// Strings in strict RFC 3339 form are recognized as timestamps; that is how
// timestamps survive the JSON round trip through the store.
func DecodeValue(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case string:
		if t, err := time.Parse(time.RFC3339, x); err == nil {
			return TimeValue(t), nil
		}
		return StringValue(x), nil
	case float64:
		return NumberValue(x), nil
	case bool:
		return BoolValue(x), nil
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, mv := range x {
			dv, err := DecodeValue(mv)
			if err != nil {
				return Null(), err
			}
			m[k] = dv
		}
		return MapValue(m), nil
	case []any:
		l := make([]Value, 0, len(x))
		for _, lv := range x {
			dv, err := DecodeValue(lv)
			if err != nil {
				return Null(), err
			}
			l = append(l, dv)
		}
		return ListValue(l), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Null(), fmt.Errorf("decode number %q: %w", x.String(), err)
		}
		return NumberValue(f), nil
	default:
		return Null(), fmt.Errorf("unsupported value type %T", v)
	}
}

// DecodeFields converts a JSON-decoded object into a field map.
func DecodeFields(raw map[string]any) (map[string]Value, error) {
	fields := make(map[string]Value, len(raw))
	for name, v := range raw {
		dv, err := DecodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fields[name] = dv
	}
	return fields, nil
}

// Interface converts a Value back to its plain JSON-encodable form.
// Timestamps become RFC 3339 strings.
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindTime:
		return v.Time.UTC().Format(time.RFC3339)
	case KindMap:
		m := make(map[string]any, len(v.Map))
		for k, mv := range v.Map {
			m[k] = mv.Interface()
		}
		return m
	case KindList:
		l := make([]any, 0, len(v.List))
		for _, lv := range v.List {
			l = append(l, lv.Interface())
		}
		return l
	default:
		return nil
	}
}

// EncodeFields converts a field map to its plain JSON-encodable form.
func EncodeFields(fields map[string]Value) map[string]any {
	out := make(map[string]any, len(fields))
	for name, v := range fields {
		out[name] = v.Interface()
	}
	return out
}
