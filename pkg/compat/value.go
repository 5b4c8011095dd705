package compat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Kind identifies the variant held by a [Value].
type Kind int

const (
	// Missing is the zero [Kind]: a key that isn't present at all.
	Missing Kind = iota
	Null
	Object
	Array
	String
	Number
	Bool
)

func (k Kind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Null:
		return "null"
	case Object:
		return "object"
	case Array:
		return "array"
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a JSON document node in browser-compat-data files:
// an object, an array, a string, a number, a boolean, or null.
// The zero Value is [Missing].
type Value struct {
	kind Kind
	obj  map[string]Value
	arr  []Value
	str  string
	num  float64
	b    bool
}

func NullValue() Value { return Value{kind: Null} }

func ObjectValue(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: Object, obj: m}
}

// EmptyObject is the stand-in for a document or support
// record which doesn't exist in a pull request's base commit.
func EmptyObject() Value { return ObjectValue(nil) }

func ArrayValue(vs ...Value) Value {
	if vs == nil {
		vs = []Value{}
	}
	return Value{kind: Array, arr: vs}
}

func StringValue(s string) Value  { return Value{kind: String, str: s} }
func NumberValue(n float64) Value { return Value{kind: Number, num: n} }
func BoolValue(b bool) Value      { return Value{kind: Bool, b: b} }

func (v Value) Kind() Kind { return v.kind }

// Keys returns the keys of an object, in sorted order.
// All other kinds have no keys.
func (v Value) Keys() []string {
	if v.kind != Object {
		return nil
	}
	return slices.Sorted(maps.Keys(v.obj))
}

// Len returns the number of members in an object or array, and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case Object:
		return len(v.obj)
	case Array:
		return len(v.arr)
	default:
		return 0
	}
}

// Field returns the value of the given key in an object, or a
// [Missing] value if the key is absent or v isn't an object.
func (v Value) Field(key string) Value {
	if v.kind != Object {
		return Value{}
	}
	return v.obj[key]
}

// Has reports whether v is an object that contains the given key.
func (v Value) Has(key string) bool {
	if v.kind != Object {
		return false
	}
	_, ok := v.obj[key]
	return ok
}

// Elements returns the members of an array, and nil for all other kinds.
func (v Value) Elements() []Value {
	if v.kind != Array {
		return nil
	}
	return v.arr
}

// Truthy mirrors JSON truthiness as seen by JavaScript consumers of browser-compat-data:
// null, false, 0, "" and missing values are falsy, while all objects and arrays are truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case Object, Array:
		return true
	case String:
		return v.str != ""
	case Number:
		return v.num != 0
	case Bool:
		return v.b
	default:
		return false
	}
}

// Parse decodes a JSON document into a [Value].
func Parse(data []byte) (Value, error) {
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return Value{}, err
	}
	return v, nil
}

// MustParse is like [Parse] but panics on error. It is meant for tests and static data.
func MustParse(s string) Value {
	v, err := Parse([]byte(s))
	if err != nil {
		panic(fmt.Sprintf("compat: invalid JSON: %v", err))
	}
	return v
}

// FromAny converts the output of [json.Unmarshal] into an
// any-typed variable (or a hand-built equivalent) into a [Value].
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return NullValue(), nil
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			v, err := FromAny(e)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			m[k] = v
		}
		return ObjectValue(m), nil
	case []any:
		vs := make([]Value, len(t))
		for i, e := range t {
			v, err := FromAny(e)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			vs[i] = v
		}
		return ArrayValue(vs...), nil
	case string:
		return StringValue(t), nil
	case float64:
		return NumberValue(t), nil
	case int:
		return NumberValue(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return NumberValue(f), nil
	case bool:
		return BoolValue(t), nil
	case Value:
		return t, nil
	default:
		return Value{}, fmt.Errorf("unsupported JSON type %T", x)
	}
}

// Any converts v back into plain Go types, as produced by [json.Unmarshal].
// [Missing] values are converted to nil, just like [Null] ones.
func (v Value) Any() any {
	switch v.kind {
	case Object:
		m := make(map[string]any, len(v.obj))
		for k, e := range v.obj {
			m[k] = e.Any()
		}
		return m
	case Array:
		s := make([]any, len(v.arr))
		for i, e := range v.arr {
			s[i] = e.Any()
		}
		return s
	case String:
		return v.str
	case Number:
		return v.num
	case Bool:
		return v.b
	default:
		return nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()

	var x any
	if err := d.Decode(&x); err != nil {
		return err
	}

	parsed, err := FromAny(x)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.kind, err)
	}
	return string(b)
}
