// Package render walks a lexed template tree, evaluates its expressions
// against an environment, and writes the output bytes. Any error halts
// emission; bytes already written stay written.
package render

import (
	"fmt"
	"io"

	"github.com/stencil-lang/stencil/core/ast"
	"github.com/stencil-lang/stencil/core/invariant"
	"github.com/stencil-lang/stencil/core/value"
	"github.com/stencil-lang/stencil/runtime/environ"
	"github.com/stencil-lang/stencil/runtime/eval"
)

// Error is a rendering failure: a write error or an operand that cannot
// be emitted, located at the template node it arose at.
type Error struct {
	Pos ast.Position
	Msg string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errorf(pos ast.Position, cause error, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// Render emits the template tree to w. The environment is mutated only
// transiently: each loop iteration pushes the iterator symbol before its
// body and pops it after, even when the body fails, so bindings shadowed
// by a loop are restored once it ends.
func Render(w io.Writer, list *ast.List, env *environ.Environ) error {
	invariant.NotNil(w, "w")
	invariant.NotNil(env, "env")
	if list == nil {
		return nil
	}
	for _, node := range list.Nodes {
		if err := renderNode(w, node, env); err != nil {
			return err
		}
	}
	return nil
}

func renderNode(w io.Writer, node ast.Node, env *environ.Environ) error {
	switch n := node.(type) {
	case *ast.DataNode:
		return write(w, n.Pos, n.Bytes)
	case *ast.ExprNode:
		return renderExpr(w, n, env)
	case *ast.IfNode:
		return renderIf(w, n, env)
	case *ast.ForNode:
		return renderFor(w, n, env)
	}
	return errorf(node.Position(), nil, "unknown template node %T", node)
}

func renderExpr(w io.Writer, n *ast.ExprNode, env *environ.Environ) error {
	v, err := eval.Eval(n.Expr, env)
	if err != nil {
		return err
	}
	s, err := v.ToString()
	if err != nil {
		return errorf(n.Pos, err, "%v", err)
	}
	return write(w, n.Pos, []byte(s))
}

func renderIf(w io.Writer, n *ast.IfNode, env *environ.Environ) error {
	cond, err := eval.Eval(n.Cond, env)
	if err != nil {
		return err
	}
	truthy, err := eval.Bool(n.Cond.Pos, cond)
	if err != nil {
		return err
	}
	if truthy {
		return Render(w, n.Then, env)
	}
	return Render(w, n.Else, env)
}

func renderFor(w io.Writer, n *ast.ForNode, env *environ.Environ) error {
	iterable, err := eval.Eval(n.Iterable, env)
	if err != nil {
		return err
	}
	// Non-array values iterate as a one-element array.
	if !iterable.IsArray() {
		iterable, err = iterable.Convert(value.KindArray)
		if err != nil {
			return errorf(n.Pos, err, "cannot iterate: %v", err)
		}
	}
	for _, elem := range iterable.Array() {
		env.Push(n.Iterator, elem.Clone())
		err := Render(w, n.Body, env)
		_, popped := env.Pop(n.Iterator)
		invariant.Invariant(popped, "iterator %q vanished during loop body", n.Iterator)
		if err != nil {
			return err
		}
	}
	return nil
}

func write(w io.Writer, pos ast.Position, data []byte) error {
	n, err := w.Write(data)
	if err != nil {
		return errorf(pos, err, "write failed: %v", err)
	}
	if n < len(data) {
		return errorf(pos, io.ErrShortWrite, "short write (%d of %d bytes)", n, len(data))
	}
	return nil
}
