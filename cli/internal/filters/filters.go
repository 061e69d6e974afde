// Package filters provides the builtin filter values registered into
// every CLI environment. User environments load afterwards, so a symbol
// assignment in an env file shadows the builtin of the same name.
package filters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/stencil-lang/stencil/core/value"
	"github.com/stencil-lang/stencil/runtime/environ"
)

// builtins maps filter names to their callables.
var builtins = map[string]value.FilterFunc{
	"upper":   upper,
	"lower":   lower,
	"trim":    trim,
	"length":  length,
	"reverse": reverse,
	"first":   first,
	"last":    last,
	"join":    join,
	"lines":   lines,
}

// Names returns the builtin filter names, sorted.
func Names() []string {
	names := lo.Keys(builtins)
	sort.Strings(names)
	return names
}

// Register pushes every builtin filter into env.
func Register(env *environ.Environ) {
	for name, fn := range builtins {
		env.Push(name, value.NewFilter(name, fn))
	}
}

// asString coerces the filter source to its text rendering.
func asString(src value.Value) (string, error) {
	return src.ToString()
}

func upper(src value.Value, _ []value.Value) (value.Value, error) {
	s, err := asString(src)
	if err != nil {
		return value.Value{}, err
	}
	return value.Str(strings.ToUpper(s)), nil
}

func lower(src value.Value, _ []value.Value) (value.Value, error) {
	s, err := asString(src)
	if err != nil {
		return value.Value{}, err
	}
	return value.Str(strings.ToLower(s)), nil
}

func trim(src value.Value, _ []value.Value) (value.Value, error) {
	s, err := asString(src)
	if err != nil {
		return value.Value{}, err
	}
	return value.Str(strings.TrimSpace(s)), nil
}

// length returns the element count of an array or the byte length of the
// stringified value.
func length(src value.Value, _ []value.Value) (value.Value, error) {
	if src.IsArray() {
		return value.Int(int64(src.Len())), nil
	}
	s, err := asString(src)
	if err != nil {
		return value.Value{}, err
	}
	return value.Int(int64(len(s))), nil
}

// reverse reverses array elements, or the bytes of a string.
func reverse(src value.Value, _ []value.Value) (value.Value, error) {
	if src.IsArray() {
		return value.Arr(lo.Reverse(append([]value.Value{}, src.Array()...))...), nil
	}
	s, err := asString(src)
	if err != nil {
		return value.Value{}, err
	}
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return value.Str(string(b)), nil
}

func first(src value.Value, _ []value.Value) (value.Value, error) {
	if !src.IsArray() {
		return value.Value{}, fmt.Errorf("first expects an array, got a %s", src.Kind())
	}
	if src.Len() == 0 {
		return value.Value{}, fmt.Errorf("first on an empty array")
	}
	return src.Array()[0].Clone(), nil
}

func last(src value.Value, _ []value.Value) (value.Value, error) {
	if !src.IsArray() {
		return value.Value{}, fmt.Errorf("last expects an array, got a %s", src.Kind())
	}
	if src.Len() == 0 {
		return value.Value{}, fmt.Errorf("last on an empty array")
	}
	return src.Array()[src.Len()-1].Clone(), nil
}

// join renders array elements separated by ", ". Scalars pass through
// their text rendering.
func join(src value.Value, _ []value.Value) (value.Value, error) {
	if !src.IsArray() {
		s, err := asString(src)
		if err != nil {
			return value.Value{}, err
		}
		return value.Str(s), nil
	}
	parts := make([]string, 0, src.Len())
	for _, elem := range src.Array() {
		s, err := elem.ToString()
		if err != nil {
			return value.Value{}, err
		}
		parts = append(parts, s)
	}
	return value.Str(strings.Join(parts, ", ")), nil
}

// lines renders array elements one per line.
func lines(src value.Value, _ []value.Value) (value.Value, error) {
	if !src.IsArray() {
		s, err := asString(src)
		if err != nil {
			return value.Value{}, err
		}
		return value.Str(s), nil
	}
	parts := make([]string, 0, src.Len())
	for _, elem := range src.Array() {
		s, err := elem.ToString()
		if err != nil {
			return value.Value{}, err
		}
		parts = append(parts, s)
	}
	return value.Str(strings.Join(parts, "\n")), nil
}
