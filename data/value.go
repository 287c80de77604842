// Package data defines the values that template expressions operate on.
package data

import (
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Value represents a template data value, which may be one of the enumerated types.
// The zero value represents an Undefined value.
type Value interface {
	// Truthy returns true according to the definition of truthy and falsy values:
	// false, 0, NaN, "", null and undefined are falsy, everything else is truthy.
	Truthy() bool

	// String formats this value for display in a template.
	String() string

	// Equals returns true if the two values are strictly equal.  Specifically, if:
	// - They are comparable: they have the same Type, or they are Int and Float
	// - (Primitives) They have the same value
	// - (Lists, Maps, Funcs) They are the same instance
	// Uncomparable types and unequal values return false.
	Equals(other Value) bool
}

// Value types
type (
	Undefined struct{}
	Null      struct{}
	Bool      bool
	Int       int64
	Float     float64
	String    string
	List      []Value
	Map       map[string]Value
)

// Func is a callable value.  Funcs are only ever supplied by the host: the
// built-in allow-list, or functions placed into the variables passed to a
// render.
type Func struct {
	Name  string
	Apply func(args []Value) (Value, error)
}

// NewList returns an empty list with room for n items.  The list always has
// its own backing array, even for n == 0, so that two empty lists are never
// the same instance.
func NewList(n int) List {
	return make(List, 0, max(n, 1))
}

// Index retrieves a value from this list, or Undefined if out of bounds.
func (v List) Index(i int) Value {
	if !(0 <= i && i < len(v)) {
		return Undefined{}
	}
	return v[i]
}

// Key retrieves a value under the named key, or Undefined if it doesn't exist.
func (v Map) Key(k string) Value {
	var result, ok = v[k]
	if !ok {
		return Undefined{}
	}
	return result
}

// Keys returns the keys of the map in sorted order.
func (v Map) Keys() []string {
	var keys = make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Truthy ----------

func (v Undefined) Truthy() bool { return false }
func (v Null) Truthy() bool      { return false }
func (v Bool) Truthy() bool      { return bool(v) }
func (v Int) Truthy() bool       { return v != 0 }
func (v Float) Truthy() bool     { return v != 0.0 && !math.IsNaN(float64(v)) }
func (v String) Truthy() bool    { return v != "" }
func (v List) Truthy() bool      { return true }
func (v Map) Truthy() bool       { return true }
func (v *Func) Truthy() bool     { return true }

// String ----------

func (v Undefined) String() string { return "undefined" }
func (v Null) String() string      { return "null" }
func (v Bool) String() string      { return strconv.FormatBool(bool(v)) }
func (v Int) String() string       { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string     { return FormatFloat(float64(v)) }
func (v String) String() string    { return string(v) }

// String joins the items with commas.  Null and undefined items render empty.
func (v List) String() string {
	var items = make([]string, len(v))
	for i, item := range v {
		switch item.(type) {
		case Undefined, Null:
		default:
			items[i] = item.String()
		}
	}
	return strings.Join(items, ",")
}

func (v Map) String() string {
	return "[object Object]"
}

func (v *Func) String() string {
	return "function " + v.Name + "() { [native code] }"
}

// FormatFloat formats f the way it is displayed in templates: integral values
// have no fraction, and exponent notation is only used for very large or very
// small magnitudes.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	if abs := math.Abs(f); abs >= 1e-7 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	var s = strconv.FormatFloat(f, 'e', -1, 64)
	var e = strings.IndexByte(s, 'e')
	var mantissa, sign, digits = s[:e], s[e+1 : e+2], strings.TrimLeft(s[e+2:], "0")
	return mantissa + "e" + sign + digits
}

// Equals ----------

func (v Undefined) Equals(other Value) bool {
	_, ok := other.(Undefined)
	return ok
}

func (v Null) Equals(other Value) bool {
	_, ok := other.(Null)
	return ok
}

func (v Bool) Equals(other Value) bool {
	if o, ok := other.(Bool); ok {
		return bool(v) == bool(o)
	}
	return false
}

func (v String) Equals(other Value) bool {
	if o, ok := other.(String); ok {
		return string(v) == string(o)
	}
	return false
}

func (v List) Equals(other Value) bool {
	if o, ok := other.(List); ok {
		return sameSlice(v, o)
	}
	return false
}

func (v Map) Equals(other Value) bool {
	if o, ok := other.(Map); ok {
		return reflect.ValueOf(v).Pointer() == reflect.ValueOf(o).Pointer()
	}
	return false
}

func (v *Func) Equals(other Value) bool {
	if o, ok := other.(*Func); ok {
		return v == o
	}
	return false
}

func (v Int) Equals(other Value) bool {
	switch o := other.(type) {
	case Int:
		return v == o
	case Float:
		return float64(v) == float64(o)
	}
	return false
}

func (v Float) Equals(other Value) bool {
	switch o := other.(type) {
	case Int:
		return float64(v) == float64(o)
	case Float:
		return v == o
	}
	return false
}

// sameSlice reports whether the two lists are the same instance.  Lists with
// no backing array have no identity and are never the same.
func sameSlice(a, b List) bool {
	return len(a) == len(b) && cap(a) > 0 && cap(b) > 0 &&
		reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
