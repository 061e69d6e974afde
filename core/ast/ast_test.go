package ast

import (
	"testing"

	"github.com/stencil-lang/stencil/core/value"
)

func TestPositionString(t *testing.T) {
	tests := []struct {
		pos  Position
		want string
	}{
		{Position{Origin: "file.tpl", Line: 3, Column: 7}, "file.tpl:3:7"},
		{Position{Line: 1, Column: 0}, "<stream>:1:0"},
		{Position{Origin: "x"}, "x"},
	}
	for _, tt := range tests {
		if got := tt.pos.String(); got != tt.want {
			t.Errorf("Position%+v = %q, want %q", tt.pos, got, tt.want)
		}
	}
}

func TestListAppendKeepsOrder(t *testing.T) {
	list := NewList()
	if list.Len() != 0 {
		t.Fatalf("new list has %d nodes", list.Len())
	}
	list.Append(&DataNode{Bytes: []byte("a")})
	list.Append(&DataNode{Bytes: []byte("b")})
	list.Append(&DataNode{Bytes: []byte("c")})

	if list.Len() != 3 {
		t.Fatalf("want 3 nodes, got %d", list.Len())
	}
	if got := list.String(); got != "abc" {
		t.Errorf("want %q, got %q", "abc", got)
	}
}

func TestNilListIsEmpty(t *testing.T) {
	var list *List
	if list.Len() != 0 {
		t.Errorf("nil list length %d", list.Len())
	}
	if list.String() != "" {
		t.Errorf("nil list renders %q", list.String())
	}
}

func TestExprString(t *testing.T) {
	pos := Position{}
	add := NewOp(pos, OpPlus,
		NewLiteral(pos, value.Int(1)),
		NewOp(pos, OpMul, NewLiteral(pos, value.Int(2)), NewSymbol(pos, "n")),
	)
	if got := add.String(); got != "(1 + (2 * n))" {
		t.Errorf("got %q", got)
	}

	indexed := NewSymbol(pos, "xs")
	indexed.Indexes = append(indexed.Indexes, NewLiteral(pos, value.Int(0)))
	if got := indexed.String(); got != "xs[0]" {
		t.Errorf("got %q", got)
	}
}

func TestNodeStrings(t *testing.T) {
	pos := Position{}
	cond := NewSymbol(pos, "ok")
	then := NewList()
	then.Append(&DataNode{Bytes: []byte("yes")})
	otherwise := NewList()
	otherwise.Append(&DataNode{Bytes: []byte("no")})

	ifNode := &IfNode{Cond: cond, Then: then, Else: otherwise}
	if got := ifNode.String(); got != "{if ok}yes{else}no{end}" {
		t.Errorf("got %q", got)
	}

	forNode := &ForNode{Iterator: "x", Iterable: NewSymbol(pos, "xs"), Body: then}
	if got := forNode.String(); got != "{for x in xs}yes{end}" {
		t.Errorf("got %q", got)
	}

	exprNode := &ExprNode{Expr: cond}
	if got := exprNode.String(); got != "{ok}" {
		t.Errorf("got %q", got)
	}
}

func TestOpPrecedenceOrdering(t *testing.T) {
	// Lowest to highest, as the language defines the classes.
	classes := [][]Op{
		{OpOr},
		{OpAnd},
		{OpEqual, OpNEq},
		{OpInf, OpSup, OpInfEq, OpSupEq},
		{OpPlus, OpMinus},
		{OpMul, OpDiv, OpModulo},
		{OpPipe},
	}
	prev := 0
	for _, class := range classes {
		p := class[0].Precedence()
		if p <= prev {
			t.Errorf("class starting with %s has precedence %d, not above %d", class[0], p, prev)
		}
		for _, op := range class[1:] {
			if op.Precedence() != p {
				t.Errorf("%s has precedence %d, want %d", op, op.Precedence(), p)
			}
		}
		prev = p
	}
}

func TestOpString(t *testing.T) {
	if OpInfEq.String() != "<=" || OpPipe.String() != "|" || OpNone.String() != "?" {
		t.Error("operator rendering broken")
	}
}
