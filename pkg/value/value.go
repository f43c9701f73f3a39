// Package value defines the loosely typed configuration tree shared by the
// loader, the cascade builder and the path resolver.
//
// A Value is a tagged variant: Null, Bool, Int, Float, String, List or Map.
// Int and Float together cover numbers; the split keeps integers exact.
// Lists and maps hold references, so a Value copied by assignment shares its
// containers. Use Clone for an independent copy.
package value

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"
)

// ErrUnsupported is returned by FromAny for Go types that have no Value form.
var ErrUnsupported = errors.New("unsupported value type")

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Int
	Float
	String
	List
	Map
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case List:
		return "list"
	case Map:
		return "map"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a node of a configuration tree. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    map[string]Value
}

// Nil returns the Null value.
func Nil() Value { return Value{} }

// OfBool wraps b.
func OfBool(b bool) Value { return Value{kind: Bool, b: b} }

// OfInt wraps i.
func OfInt(i int64) Value { return Value{kind: Int, i: i} }

// OfFloat wraps f.
func OfFloat(f float64) Value { return Value{kind: Float, f: f} }

// OfString wraps s.
func OfString(s string) Value { return Value{kind: String, s: s} }

// OfList builds a List holding items.
func OfList(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: List, list: items}
}

// OfMap builds a Map over m. The map is used as is, not copied.
func OfMap(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: Map, m: m}
}

// NewMap returns an empty Map.
func NewMap() Value { return OfMap(nil) }

// NewList returns an empty List.
func NewList() Value { return OfList() }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == Null }

// IsCollection reports whether v is a List or a Map.
func (v Value) IsCollection() bool { return v.kind == List || v.kind == Map }

// Bool returns the boolean held by v, or false for other kinds.
func (v Value) Bool() bool { return v.b }

// Int returns the integer held by v. Floats are truncated.
func (v Value) Int() int64 {
	if v.kind == Float {
		return int64(v.f)
	}
	return v.i
}

// Float returns the number held by v as a float64.
func (v Value) Float() float64 {
	if v.kind == Int {
		return float64(v.i)
	}
	return v.f
}

// Str returns the string held by v, or "" for other kinds.
func (v Value) Str() string { return v.s }

// Len returns the number of entries of a List or Map, and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case List:
		return len(v.list)
	case Map:
		return len(v.m)
	default:
		return 0
	}
}

// Get looks up key in a Map.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Map {
		return Value{}, false
	}
	child, ok := v.m[key]
	return child, ok
}

// Index returns element i of a List.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != List || i < 0 || i >= len(v.list) {
		return Value{}, false
	}
	return v.list[i], true
}

// Set stores child under key. It panics when v is not a Map.
func (v Value) Set(key string, child Value) {
	if v.kind != Map {
		panic("value: Set on " + v.kind.String())
	}
	v.m[key] = child
}

// Keys returns the keys of a Map in sorted order.
func (v Value) Keys() []string {
	if v.kind != Map {
		return nil
	}
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Items returns the elements of a List. The slice is shared with v.
func (v Value) Items() []Value {
	if v.kind != List {
		return nil
	}
	return v.list
}

// Truthy reports whether v counts as a present value for defaulting.
// Null, false, zero numbers, NaN and the empty string are falsy; every list
// and map is truthy, including empty ones.
func (v Value) Truthy() bool {
	switch v.kind {
	case Null:
		return false
	case Bool:
		return v.b
	case Int:
		return v.i != 0
	case Float:
		return v.f != 0 && !math.IsNaN(v.f)
	case String:
		return v.s != ""
	default:
		return true
	}
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case List:
		out := make([]Value, len(v.list))
		for i, item := range v.list {
			out[i] = item.Clone()
		}
		return Value{kind: List, list: out}
	case Map:
		out := make(map[string]Value, len(v.m))
		for k, child := range v.m {
			out[k] = child.Clone()
		}
		return Value{kind: Map, m: out}
	default:
		return v
	}
}

// Equal reports whether v and o hold the same tree.
// An Int and a Float holding the same number are equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		if (v.kind == Int && o.kind == Float) || (v.kind == Float && o.kind == Int) {
			return v.Float() == o.Float()
		}
		return false
	}
	switch v.kind {
	case Null:
		return true
	case Bool:
		return v.b == o.b
	case Int:
		return v.i == o.i
	case Float:
		return v.f == o.f
	case String:
		return v.s == o.s
	case List:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case Map:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, child := range v.m {
			other, ok := o.m[k]
			if !ok || !child.Equal(other) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts v to plain Go values: nil, bool, int, float64, string,
// []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case Bool:
		return v.b
	case Int:
		return int(v.i)
	case Float:
		return v.f
	case String:
		return v.s
	case List:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case Map:
		out := make(map[string]any, len(v.m))
		for k, child := range v.m {
			out[k] = child.Interface()
		}
		return out
	default:
		return nil
	}
}

// String formats scalars as their plain text and collections with fmt.
func (v Value) String() string {
	switch v.kind {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(v.b)
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case String:
		return v.s
	default:
		return fmt.Sprint(v.Interface())
	}
}

// FromAny converts the output of a generic decoder into a Value.
// Timestamps become RFC 3339 strings.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return t, nil
	case bool:
		return OfBool(t), nil
	case string:
		return OfString(t), nil
	case int:
		return OfInt(int64(t)), nil
	case int8:
		return OfInt(int64(t)), nil
	case int16:
		return OfInt(int64(t)), nil
	case int32:
		return OfInt(int64(t)), nil
	case int64:
		return OfInt(t), nil
	case uint:
		return fromUint(uint64(t)), nil
	case uint8:
		return OfInt(int64(t)), nil
	case uint16:
		return OfInt(int64(t)), nil
	case uint32:
		return OfInt(int64(t)), nil
	case uint64:
		return fromUint(t), nil
	case float32:
		return OfFloat(float64(t)), nil
	case float64:
		return OfFloat(t), nil
	case time.Time:
		return OfString(t.Format(time.RFC3339Nano)), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return OfList(items...), nil
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, child := range t {
			v, err := FromAny(child)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			m[k] = v
		}
		return OfMap(m), nil
	case map[any]any:
		m := make(map[string]Value, len(t))
		for k, child := range t {
			key := fmt.Sprint(k)
			v, err := FromAny(child)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", key, err)
			}
			m[key] = v
		}
		return OfMap(m), nil
	}
	return fromReflect(x)
}

func fromUint(u uint64) Value {
	if u > math.MaxInt64 {
		return OfFloat(float64(u))
	}
	return OfInt(int64(u))
}

// fromReflect handles typed slices and maps such as []string or
// map[string]int that callers pass as defaults.
func fromReflect(x any) (Value, error) {
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			v, err := FromAny(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return OfList(items...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			v, err := FromAny(iter.Value().Interface())
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", key, err)
			}
			m[key] = v
		}
		return OfMap(m), nil
	}
	return Value{}, fmt.Errorf("%w: %T", ErrUnsupported, x)
}
