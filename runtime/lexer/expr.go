package lexer

import (
	"io"

	"github.com/stencil-lang/stencil/core/ast"
	"github.com/stencil-lang/stencil/core/value"
	"github.com/stencil-lang/stencil/runtime/input"
)

// LexExpr scans one expression from the stream into a tree, honoring
// operator precedence, left-associativity, parentheses, unary signs,
// index chains and the filter pipe. Scanning stops at the first byte that
// cannot continue the expression, which is left in the stream.
func LexExpr(s *input.Stream) (*ast.Expr, error) {
	return parseExpr(s, 1)
}

// parseExpr is a precedence-climbing parser: it parses a primary, then
// folds in operators of at least minPrec, recursing with a higher floor
// for the right-hand side so equal precedence associates left.
func parseExpr(s *input.Stream, minPrec int) (*ast.Expr, error) {
	left, err := parsePrimary(s)
	if err != nil {
		return nil, err
	}
	for {
		if _, err := s.SkipBlank(); err != nil {
			return nil, err
		}
		op, width, err := peekOperator(s)
		if err != nil {
			return nil, err
		}
		if op == ast.OpNone || op.Precedence() < minPrec {
			return left, nil
		}
		pos := s.Pos()
		if _, err := s.Skip(width); err != nil {
			return nil, err
		}
		right, err := parseExpr(s, op.Precedence()+1)
		if err != nil {
			return nil, err
		}
		left = ast.NewOp(pos, op, left, right)
	}
}

// peekOperator recognizes the operator at the read head without consuming
// it, returning its width in bytes. Two-byte operators are matched first
// so `||` is never read as two pipes.
func peekOperator(s *input.Stream) (ast.Op, int, error) {
	var buf [2]byte
	n, err := s.Peek(buf[:])
	if err != nil {
		return ast.OpNone, 0, err
	}
	if n >= 2 {
		switch string(buf[:2]) {
		case "==":
			return ast.OpEqual, 2, nil
		case "!=":
			return ast.OpNEq, 2, nil
		case "<=":
			return ast.OpInfEq, 2, nil
		case ">=":
			return ast.OpSupEq, 2, nil
		case "&&":
			return ast.OpAnd, 2, nil
		case "||":
			return ast.OpOr, 2, nil
		}
	}
	if n >= 1 {
		switch buf[0] {
		case '+':
			return ast.OpPlus, 1, nil
		case '-':
			return ast.OpMinus, 1, nil
		case '*':
			return ast.OpMul, 1, nil
		case '/':
			return ast.OpDiv, 1, nil
		case '%':
			return ast.OpModulo, 1, nil
		case '<':
			return ast.OpInf, 1, nil
		case '>':
			return ast.OpSup, 1, nil
		case '|':
			return ast.OpPipe, 1, nil
		}
	}
	return ast.OpNone, 0, nil
}

// parsePrimary parses a literal, a symbol reference, a parenthesized
// expression or a signed primary, then attaches any trailing index
// chain to the node.
func parsePrimary(s *input.Stream) (*ast.Expr, error) {
	if _, err := s.SkipBlank(); err != nil {
		return nil, err
	}
	pos := s.Pos()
	b, err := s.PeekByte()
	if err != nil {
		if se, ok := err.(*input.Error); ok && se.Kind == input.ErrEOF {
			return nil, errorf(ErrUnexpectedEOF, pos, io.ErrUnexpectedEOF, "missing operand")
		}
		return nil, err
	}

	var node *ast.Expr
	switch {
	case b == '+' || b == '-':
		// Unary sign: represented as a zero left operand so the
		// evaluator only ever sees binary operators.
		if _, err := s.Skip(1); err != nil {
			return nil, err
		}
		operand, err := parsePrimary(s)
		if err != nil {
			return nil, err
		}
		op := ast.OpPlus
		if b == '-' {
			op = ast.OpMinus
		}
		return ast.NewOp(pos, op, ast.NewLiteral(pos, value.Int(0)), operand), nil

	case input.IsDigit(b) || b == '.':
		v, err := s.ReadNumber()
		if err != nil {
			return nil, err
		}
		node = ast.NewLiteral(pos, v)

	case b == '"':
		str, err := s.ReadStringLiteral()
		if err != nil {
			return nil, err
		}
		node = ast.NewLiteral(pos, value.Str(str))

	case b == '(':
		if _, err := s.Skip(1); err != nil {
			return nil, err
		}
		inner, err := parseExpr(s, 1)
		if err != nil {
			return nil, err
		}
		if _, err := s.SkipBlank(); err != nil {
			return nil, err
		}
		c, err := s.PeekByte()
		if err != nil || c != ')' {
			return nil, errorf(ErrSyntax, s.Pos(), err, "expected ')' to close the expression opened at %s", pos)
		}
		if _, err := s.Skip(1); err != nil {
			return nil, err
		}
		node = inner

	case input.IsSymbolByte(b):
		name, err := s.ReadSymbol()
		if err != nil {
			return nil, err
		}
		node = ast.NewSymbol(pos, name)

	default:
		return nil, errorf(ErrSyntax, pos, nil, "expected an operand, got %q", string(b))
	}

	if err := parseIndexes(s, node); err != nil {
		return nil, err
	}
	return node, nil
}

// parseIndexes consumes any trailing `[expr]` chain into node's index
// list, applied left to right at evaluation time.
func parseIndexes(s *input.Stream, node *ast.Expr) error {
	for {
		b, err := s.PeekByte()
		if err != nil {
			if se, ok := err.(*input.Error); ok && se.Kind == input.ErrEOF {
				return nil
			}
			return err
		}
		if b != '[' {
			return nil
		}
		open := s.Pos()
		if _, err := s.Skip(1); err != nil {
			return err
		}
		idx, err := parseExpr(s, 1)
		if err != nil {
			return err
		}
		if _, err := s.SkipBlank(); err != nil {
			return err
		}
		c, err := s.PeekByte()
		if err != nil || c != ']' {
			return errorf(ErrSyntax, s.Pos(), err, "expected ']' to close the index opened at %s", open)
		}
		if _, err := s.Skip(1); err != nil {
			return err
		}
		node.Indexes = append(node.Indexes, idx)
	}
}
