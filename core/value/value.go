package value

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the concrete type held by a Value.
type Kind int

const (
	// Null represents an absent or JSON null value.
	Null Kind = iota
	// String represents a text value.
	String
	// Number represents a numeric value (stored as float64, like JSON).
	Number
	// Bool represents a boolean value.
	Bool
	// List represents an ordered sequence of values.
	List
	// Map represents a string-keyed collection of values.
	Map
)

// Value is a typed variant that can hold any tree-shaped source payload:
// scalars, lists, and maps. It replaces reflection-based access to
// map[string]any blobs so that source records can be traversed and
// coerced through one well-tested code path.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []Value
	obj  map[string]Value
}

// Str builds a String value.
func Str(s string) Value { return Value{kind: String, str: s} }

// Num builds a Number value.
func Num(f float64) Value { return Value{kind: Number, num: f} }

// Boolean builds a Bool value.
func Boolean(b bool) Value { return Value{kind: Bool, b: b} }

// ListOf builds a List value.
func ListOf(items ...Value) Value { return Value{kind: List, list: items} }

// MapOf builds a Map value.
func MapOf(m map[string]Value) Value { return Value{kind: Map, obj: m} }

// Of converts a decoded JSON value (any) into a Value.
// Unknown types are rendered through fmt as strings so that odd
// source payloads degrade gracefully instead of panicking.
func Of(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case string:
		return Str(t)
	case bool:
		return Boolean(t)
	case float64:
		return Num(t)
	case float32:
		return Num(float64(t))
	case int:
		return Num(float64(t))
	case int64:
		return Num(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Str(t.String())
		}
		return Num(f)
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			items = append(items, Of(item))
		}
		return Value{kind: List, list: items}
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, item := range t {
			obj[k] = Of(item)
		}
		return Value{kind: Map, obj: obj}
	default:
		return Str(fmt.Sprintf("%v", t))
	}
}

// FromJSON decodes raw JSON bytes into a Value.
func FromJSON(data []byte) (Value, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return Value{}, err
	}
	return Of(decoded), nil
}

// FromStringMap builds a Map value from a flat string map (CSV rows).
func FromStringMap(m map[string]string) Value {
	obj := make(map[string]Value, len(m))
	for k, v := range m {
		obj[k] = Str(v)
	}
	return Value{kind: Map, obj: obj}
}

// Kind returns the kind of this value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is Null.
func (v Value) IsNull() bool { return v.kind == Null }

// Lookup resolves a dotted path expression against the value tree.
// Segments index into maps by key; numeric segments index into lists
// (e.g. "images.0.src"). It returns false if any segment does not
// resolve.
func (v Value) Lookup(path string) (Value, bool) {
	if path == "" {
		return Value{}, false
	}

	current := v
	for _, segment := range strings.Split(path, ".") {
		switch current.kind {
		case Map:
			next, ok := current.obj[segment]
			if !ok {
				return Value{}, false
			}
			current = next
		case List:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(current.list) {
				return Value{}, false
			}
			current = current.list[idx]
		default:
			// Scalars have no children
			return Value{}, false
		}
	}

	if current.IsNull() {
		return Value{}, false
	}
	return current, true
}

// Index returns the i-th element of a List value.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != List || i < 0 || i >= len(v.list) {
		return Value{}, false
	}
	return v.list[i], true
}

// Len returns the number of elements for List values, zero otherwise.
func (v Value) Len() int {
	if v.kind == List {
		return len(v.list)
	}
	return 0
}

// AsString coerces the value to a string representation.
// Numbers are formatted without a trailing ".0" for whole values.
func (v Value) AsString() string {
	switch v.kind {
	case String:
		return v.str
	case Number:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case Bool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// AsFloat coerces the value to a float64.
// Numeric-looking strings parse successfully; everything else reports
// false so callers can treat the field as absent.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case Number:
		return v.num, true
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsBool coerces the value to a bool ("1"/"true" strings count as true).
func (v Value) AsBool() bool {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		return v.num == 1
	case String:
		return v.str == "1" || strings.EqualFold(v.str, "true")
	default:
		return false
	}
}

// ToAny converts the value back into plain Go types (the inverse of Of),
// suitable for JSON marshalling.
func (v Value) ToAny() any {
	switch v.kind {
	case String:
		return v.str
	case Number:
		return v.num
	case Bool:
		return v.b
	case List:
		items := make([]any, 0, len(v.list))
		for _, item := range v.list {
			items = append(items, item.ToAny())
		}
		return items
	case Map:
		obj := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			obj[k] = item.ToAny()
		}
		return obj
	default:
		return nil
	}
}
