// Package environ implements the template environment: a mapping from
// symbol names to stacks of values, with scoped push/pop shadowing, and a
// loader for the textual environment description format.
package environ

import (
	"sort"

	"github.com/samber/lo"

	"github.com/stencil-lang/stencil/core/value"
)

// Environ maps symbol names to LIFO stacks of values. Lookup sees the top
// of each stack, so pushing shadows an existing binding and popping
// restores it. An Environ is shared by pointer between the renderer and
// the evaluator; it is not safe for concurrent use.
type Environ struct {
	symbols map[string][]value.Value
}

// New creates an empty environment.
func New() *Environ {
	return &Environ{symbols: make(map[string][]value.Value)}
}

// Push appends v to name's stack, creating the stack if absent.
func (e *Environ) Push(name string, v value.Value) {
	e.symbols[name] = append(e.symbols[name], v)
}

// Pop removes and returns the top of name's stack. The second result is
// false when the symbol is unbound.
func (e *Environ) Pop(name string) (value.Value, bool) {
	stack := e.symbols[name]
	if len(stack) == 0 {
		return value.Value{}, false
	}
	top := stack[len(stack)-1]
	if len(stack) == 1 {
		delete(e.symbols, name)
	} else {
		e.symbols[name] = stack[:len(stack)-1]
	}
	return top, true
}

// Lookup returns the top of name's stack. The second result is false when
// the symbol is unbound; an unbound symbol is distinct from any value.
func (e *Environ) Lookup(name string) (value.Value, bool) {
	stack := e.symbols[name]
	if len(stack) == 0 {
		return value.Value{}, false
	}
	return stack[len(stack)-1], true
}

// Depth returns the stack depth of name; 0 means unbound.
func (e *Environ) Depth(name string) int {
	return len(e.symbols[name])
}

// Names returns all bound symbol names, sorted.
func (e *Environ) Names() []string {
	names := lo.Keys(e.symbols)
	sort.Strings(names)
	return names
}

// ForEach calls fn with each bound symbol and its top-of-stack value,
// stopping early when fn returns false. Enumeration order is undefined.
func (e *Environ) ForEach(fn func(name string, v value.Value) bool) {
	for name, stack := range e.symbols {
		if !fn(name, stack[len(stack)-1]) {
			return
		}
	}
}

// Merge pushes other's top-of-stack values into e. A symbol already bound
// locally is only pushed when mergeSymbols is set.
func (e *Environ) Merge(other *Environ, mergeSymbols bool) {
	other.ForEach(func(name string, v value.Value) bool {
		if _, bound := e.Lookup(name); !bound || mergeSymbols {
			e.Push(name, v.Clone())
		}
		return true
	})
}
