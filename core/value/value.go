// Package value implements the dynamic value model of the template
// language: a tagged variant over integers, floats, strings, arrays and
// filter callables, with the conversion and comparison semantics the
// evaluator builds on.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindArray
	KindFilter
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindFilter:
		return "filter"
	}
	return "unknown"
}

// FilterFunc transforms a source value. Filters are invoked by the `|`
// operator; args is reserved for host-side invocation and is nil when the
// filter is applied through a template expression.
type FilterFunc func(src Value, args []Value) (Value, error)

// Filter is a named callable stored in an environment. Filters are shared
// by pointer: pushing the same filter into several environments shares one
// underlying callable, while every other variant is deep-copied.
type Filter struct {
	Name string
	Fn   FilterFunc
}

// floatTolerance is the absolute tolerance of the almost-equal predicate,
// used for float equality and for fractional-part detection.
const floatTolerance = 1e-6

// AlmostEqual reports whether two floats are equal under the language's
// loose absolute-tolerance predicate.
func AlmostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

// Value is the tagged variant. The zero Value is the integer 0.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	a    []Value
	flt  *Filter
}

// Int creates an integer value.
func Int(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// Float creates a float value.
func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// Str creates a string value.
func Str(s string) Value {
	return Value{kind: KindString, s: s}
}

// Arr creates an array value holding deep copies of the given elements.
func Arr(elems ...Value) Value {
	a := make([]Value, len(elems))
	for i, e := range elems {
		a[i] = e.Clone()
	}
	return Value{kind: KindArray, a: a}
}

// NewFilter creates a filter value wrapping fn.
func NewFilter(name string, fn FilterFunc) Value {
	return Value{kind: KindFilter, flt: &Filter{Name: name, Fn: fn}}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsInt reports whether the value is an integer.
func (v Value) IsInt() bool { return v.kind == KindInt }

// IsFloat reports whether the value is a float.
func (v Value) IsFloat() bool { return v.kind == KindFloat }

// IsNumber reports whether the value is an integer or a float.
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// IsString reports whether the value is a string.
func (v Value) IsString() bool { return v.kind == KindString }

// IsArray reports whether the value is an array.
func (v Value) IsArray() bool { return v.kind == KindArray }

// IsFilter reports whether the value is a filter callable.
func (v Value) IsFilter() bool { return v.kind == KindFilter }

// Int returns the integer payload. Valid only for KindInt.
func (v Value) Int() int64 { return v.i }

// Float returns the float payload for KindFloat, or the integer payload
// widened to float for KindInt.
func (v Value) Float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Str returns the string payload. Valid only for KindString.
func (v Value) Str() string { return v.s }

// Array returns the elements of an array value. The returned slice is the
// value's own storage; callers must not retain it across mutations.
func (v Value) Array() []Value { return v.a }

// Len returns the number of elements of an array value, 0 otherwise.
func (v Value) Len() int { return len(v.a) }

// Filter returns the filter payload. Valid only for KindFilter.
func (v Value) Filter() *Filter { return v.flt }

// Index returns the array element at i.
func (v Value) Index(i int) (Value, error) {
	if v.kind != KindArray {
		return Value{}, fmt.Errorf("cannot index a %s value", v.kind)
	}
	if i < 0 || i >= len(v.a) {
		return Value{}, fmt.Errorf("index %d out of range (array has %d elements)", i, len(v.a))
	}
	return v.a[i], nil
}

// Clone returns a deep copy of the value. Arrays are copied recursively;
// filters share their callable.
func (v Value) Clone() Value {
	if v.kind != KindArray {
		return v
	}
	a := make([]Value, len(v.a))
	for i, e := range v.a {
		a[i] = e.Clone()
	}
	return Value{kind: KindArray, a: a}
}

// Append appends a deep copy of elem to an array value.
func (v *Value) Append(elem Value) error {
	if v.kind != KindArray {
		return fmt.Errorf("cannot append to a %s value", v.kind)
	}
	v.a = append(v.a, elem.Clone())
	return nil
}

// Prepend inserts a deep copy of elem at the front of an array value.
func (v *Value) Prepend(elem Value) error {
	if v.kind != KindArray {
		return fmt.Errorf("cannot prepend to a %s value", v.kind)
	}
	v.a = append([]Value{elem.Clone()}, v.a...)
	return nil
}

// ToString renders the value as template output. Rendering a filter is an
// error; the operator dispatcher refuses it before emission.
func (v Value) ToString() (string, error) {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10), nil
	case KindFloat:
		return formatFloat(v.f), nil
	case KindString:
		return v.s, nil
	case KindArray:
		var b strings.Builder
		b.WriteString("[")
		for i, e := range v.a {
			if i > 0 {
				b.WriteString(", ")
			}
			s, err := e.ToString()
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		b.WriteString("]")
		return b.String(), nil
	case KindFilter:
		return "", fmt.Errorf("a filter value cannot be rendered as text")
	}
	return "", fmt.Errorf("unknown value kind %d", v.kind)
}

// String implements fmt.Stringer for debugging. Unlike ToString it never
// fails; filters render as their name.
func (v Value) String() string {
	if v.kind == KindFilter {
		name := "?"
		if v.flt != nil && v.flt.Name != "" {
			name = v.flt.Name
		}
		return "<filter " + name + ">"
	}
	s, err := v.ToString()
	if err != nil {
		return "<invalid>"
	}
	return s
}

// formatFloat renders a float with locale-independent %.15g semantics.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.15g", f)
}

// Bool projects the value to a boolean: nonzero numbers, nonempty strings
// and nonempty arrays are true. Projecting a filter is an error.
func (v Value) Bool() (bool, error) {
	switch v.kind {
	case KindInt:
		return v.i != 0, nil
	case KindFloat:
		return !AlmostEqual(v.f, 0), nil
	case KindString:
		return v.s != "", nil
	case KindArray:
		return len(v.a) > 0, nil
	}
	return false, fmt.Errorf("a %s value has no boolean projection", v.kind)
}

// Equal reports semantic equality. Floats compare under the almost-equal
// predicate, arrays element-wise, filters by callable identity.
func (v Value) Equal(o Value) bool {
	if v.kind == KindFilter || o.kind == KindFilter {
		return v.kind == o.kind && v.flt == o.flt
	}
	if v.kind == KindArray || o.kind == KindArray {
		if v.kind != o.kind || len(v.a) != len(o.a) {
			return false
		}
		for i := range v.a {
			if !v.a[i].Equal(o.a[i]) {
				return false
			}
		}
		return true
	}
	c, err := v.Compare(o)
	return err == nil && c == 0
}

// Compare orders two values, returning -1, 0 or 1.
//
// Arrays compare element-wise with a length tiebreak; comparing an array
// against a non-array is an error. Two integers compare directly. When a
// float participates both sides convert to float and equality is
// almost-equal. When a string meets a scalar the scalar is stringified and
// the comparison is bytewise.
func (v Value) Compare(o Value) (int, error) {
	if v.kind == KindFilter || o.kind == KindFilter {
		return 0, fmt.Errorf("filter values cannot be compared")
	}
	if v.kind == KindArray || o.kind == KindArray {
		if v.kind != o.kind {
			return 0, fmt.Errorf("cannot compare %s against %s", v.kind, o.kind)
		}
		n := len(v.a)
		if len(o.a) < n {
			n = len(o.a)
		}
		for i := 0; i < n; i++ {
			c, err := v.a[i].Compare(o.a[i])
			if err != nil {
				return 0, err
			}
			if c != 0 {
				return c, nil
			}
		}
		return cmpInt(int64(len(v.a)), int64(len(o.a))), nil
	}
	if v.kind == KindString || o.kind == KindString {
		ls, err := v.ToString()
		if err != nil {
			return 0, err
		}
		rs, err := o.ToString()
		if err != nil {
			return 0, err
		}
		return strings.Compare(ls, rs), nil
	}
	if v.kind == KindFloat || o.kind == KindFloat {
		lf, rf := v.Float(), o.Float()
		if AlmostEqual(lf, rf) {
			return 0, nil
		}
		if lf < rf {
			return -1, nil
		}
		return 1, nil
	}
	return cmpInt(v.i, o.i), nil
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
