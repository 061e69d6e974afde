// Package ast defines the tree representations produced by the template
// and expression lexers: a list of template nodes (literal data, expression
// emission, conditionals, loops) and a recursive expression tree.
package ast

import (
	"fmt"
	"strings"

	"github.com/stencil-lang/stencil/core/value"
)

// Position represents a source location.
type Position struct {
	Origin string // stream name, "<stream>" when anonymous
	Line   int    // 1-based
	Column int    // 0-based
}

func (p Position) String() string {
	origin := p.Origin
	if origin == "" {
		origin = "<stream>"
	}
	if p.Line == 0 {
		return origin
	}
	return fmt.Sprintf("%s:%d:%d", origin, p.Line, p.Column)
}

// Node represents any node in a template tree.
type Node interface {
	String() string
	Position() Position
}

// List is an ordered sequence of template nodes. Append is O(1) amortized.
type List struct {
	Nodes []Node
}

// NewList creates an empty node list.
func NewList() *List {
	return &List{}
}

// Append adds a node at the end of the list.
func (l *List) Append(n Node) {
	l.Nodes = append(l.Nodes, n)
}

// Len returns the number of nodes in the list.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Nodes)
}

func (l *List) String() string {
	if l == nil {
		return ""
	}
	var b strings.Builder
	for _, n := range l.Nodes {
		b.WriteString(n.String())
	}
	return b.String()
}

// DataNode holds literal template bytes emitted verbatim.
type DataNode struct {
	Pos   Position
	Bytes []byte
}

func (d *DataNode) String() string     { return string(d.Bytes) }
func (d *DataNode) Position() Position { return d.Pos }

// ExprNode holds an expression whose value is emitted.
type ExprNode struct {
	Pos  Position
	Expr *Expr
}

func (e *ExprNode) String() string     { return "{" + e.Expr.String() + "}" }
func (e *ExprNode) Position() Position { return e.Pos }

// ForNode iterates a body once per element of an iterable expression,
// binding each element to the iterator symbol.
type ForNode struct {
	Pos      Position
	Iterator string
	Iterable *Expr
	Body     *List
}

func (f *ForNode) String() string {
	return fmt.Sprintf("{for %s in %s}%s{end}", f.Iterator, f.Iterable.String(), f.Body.String())
}

func (f *ForNode) Position() Position { return f.Pos }

// IfNode branches between two bodies on a condition. Else may be nil.
type IfNode struct {
	Pos  Position
	Cond *Expr
	Then *List
	Else *List
}

func (i *IfNode) String() string {
	var b strings.Builder
	b.WriteString("{if ")
	b.WriteString(i.Cond.String())
	b.WriteString("}")
	b.WriteString(i.Then.String())
	if i.Else != nil {
		b.WriteString("{else}")
		b.WriteString(i.Else.String())
	}
	b.WriteString("{end}")
	return b.String()
}

func (i *IfNode) Position() Position { return i.Pos }

// ExprKind identifies the type of expression node.
type ExprKind int

const (
	ExprLiteral ExprKind = iota // inline literal value
	ExprSymbol                  // environment lookup
	ExprOp                      // binary operator
)

// Expr is the unified expression representation. A single struct with a
// kind discriminator keeps tree construction and traversal uniform; only
// the fields for the node's kind are meaningful.
//
// Unary minus and plus are represented as binary operators with a zero
// left operand, so the evaluator never sees a unary form.
type Expr struct {
	Kind ExprKind
	Pos  Position

	// For ExprLiteral - the literal value
	Lit value.Value

	// For ExprSymbol - the symbol name
	Symbol string

	// For ExprOp - operator and operands
	Op    Op
	Left  *Expr
	Right *Expr

	// Index expressions applied left-to-right to this node's value.
	Indexes []*Expr
}

// NewLiteral creates a literal expression node.
func NewLiteral(pos Position, v value.Value) *Expr {
	return &Expr{Kind: ExprLiteral, Pos: pos, Lit: v}
}

// NewSymbol creates a symbol reference node.
func NewSymbol(pos Position, name string) *Expr {
	return &Expr{Kind: ExprSymbol, Pos: pos, Symbol: name}
}

// NewOp creates a binary operator node.
func NewOp(pos Position, op Op, left, right *Expr) *Expr {
	return &Expr{Kind: ExprOp, Pos: pos, Op: op, Left: left, Right: right}
}

func (e *Expr) String() string {
	var b strings.Builder
	switch e.Kind {
	case ExprLiteral:
		b.WriteString(e.Lit.String())
	case ExprSymbol:
		b.WriteString(e.Symbol)
	case ExprOp:
		b.WriteString("(")
		b.WriteString(e.Left.String())
		b.WriteString(" ")
		b.WriteString(e.Op.String())
		b.WriteString(" ")
		b.WriteString(e.Right.String())
		b.WriteString(")")
	}
	for _, idx := range e.Indexes {
		b.WriteString("[")
		b.WriteString(idx.String())
		b.WriteString("]")
	}
	return b.String()
}

// Position implements Node for expressions used in error reporting.
func (e *Expr) Position() Position { return e.Pos }
