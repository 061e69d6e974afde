// Package lexer turns template bytes into a tree of template nodes and
// expression bytes into expression trees. The template lexer owns block
// matching: if/for blocks arrive at the renderer as fully formed
// subtrees, never as loose end markers.
package lexer

import (
	"io"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/stencil-lang/stencil/core/ast"
	"github.com/stencil-lang/stencil/core/invariant"
	"github.com/stencil-lang/stencil/runtime/input"
)

// Directive keywords. Symbols are ASCII; so are these.
const (
	kwIf   = "if"
	kwElse = "else"
	kwEnd  = "end"
	kwFor  = "for"
	kwIn   = "in"
)

var keywords = []string{kwIf, kwElse, kwEnd, kwFor, kwIn}

// terminator describes how a block body ended.
type terminator int

const (
	termEOF terminator = iota
	termEnd
	termElse
)

// Lex scans a whole template into a node list. Text is copied verbatim
// until a '{' opens a directive; '{{' emits a literal '{' and '}' needs
// no escape in text. Directives are expressions (optionally led by '='),
// or if/else/end and for/in/end blocks.
func Lex(s *input.Stream) (*ast.List, error) {
	list, term, err := lexBlock(s, 0)
	if err != nil {
		return nil, err
	}
	invariant.Invariant(term == termEOF, "top-level lexBlock must end at EOF")
	return list, nil
}

// lexBlock scans template content until EOF or until an end/else
// directive closes the innermost block. depth counts open blocks; end and
// else at depth 0 are unmatched.
func lexBlock(s *input.Stream, depth int) (*ast.List, terminator, error) {
	list := ast.NewList()
	for {
		before := s.Offset()
		dataPos := s.Pos()
		data, err := s.ReadWhile(func(b byte) bool { return b != '{' })
		if err != nil {
			return nil, termEOF, err
		}
		if s.EOF() {
			if data != "" {
				list.Append(&ast.DataNode{Pos: dataPos, Bytes: []byte(data)})
			}
			return list, termEOF, nil
		}

		// The stream is at '{'. A doubled brace is a literal '{'.
		var pair [2]byte
		n, err := s.Peek(pair[:])
		if err != nil {
			return nil, termEOF, err
		}
		if n == 2 && pair[1] == '{' {
			if _, err := s.Skip(2); err != nil {
				return nil, termEOF, err
			}
			list.Append(&ast.DataNode{Pos: dataPos, Bytes: append([]byte(data), '{')})
			continue
		}
		if data != "" {
			list.Append(&ast.DataNode{Pos: dataPos, Bytes: []byte(data)})
		}

		node, term, err := lexDirective(s, depth)
		if err != nil {
			return nil, termEOF, err
		}
		if term != termEOF {
			return list, term, nil
		}
		if node != nil {
			list.Append(node)
		}
		invariant.Invariant(s.Offset() > before, "lexer must consume input (stuck at %s)", s.Pos())
	}
}

// lexDirective scans one '{…}' directive. It returns a node for
// expression/if/for directives, or a non-EOF terminator for end/else.
func lexDirective(s *input.Stream, depth int) (ast.Node, terminator, error) {
	pos := s.Pos()
	if _, err := s.Skip(1); err != nil { // the '{'
		return nil, termEOF, err
	}
	if _, err := s.SkipBlank(); err != nil {
		return nil, termEOF, err
	}

	word, err := s.PeekSymbol()
	if err != nil {
		return nil, termEOF, err
	}
	switch word {
	case kwIf:
		node, err := lexIf(s, pos, depth)
		return node, termEOF, err
	case kwFor:
		node, err := lexFor(s, pos, depth)
		return node, termEOF, err
	case kwEnd, kwElse:
		if depth == 0 {
			return nil, termEOF, errorf(ErrUnmatchedBlock, pos, nil, "{%s} without an open block", word)
		}
		if _, err := s.Skip(len(word)); err != nil {
			return nil, termEOF, err
		}
		if err := expectDirectiveEnd(s, pos); err != nil {
			return nil, termEOF, err
		}
		if word == kwEnd {
			return nil, termEnd, nil
		}
		return nil, termElse, nil
	}

	// Expression directive, optionally led by '='.
	b, err := s.PeekByte()
	if err != nil {
		return nil, termEOF, errorf(ErrUnexpectedEOF, pos, io.ErrUnexpectedEOF, "unterminated directive")
	}
	if b == '=' {
		if _, err := s.Skip(1); err != nil {
			return nil, termEOF, err
		}
	}
	expr, err := LexExpr(s)
	if err != nil {
		return nil, termEOF, err
	}
	if err := expectDirectiveEnd(s, pos); err != nil {
		return nil, termEOF, err
	}
	return &ast.ExprNode{Pos: pos, Expr: expr}, termEOF, nil
}

// lexIf scans `if EXPR } BODY [{else} BODY] {end}` with the opening
// keyword still unconsumed.
func lexIf(s *input.Stream, pos ast.Position, depth int) (ast.Node, error) {
	if _, err := s.Skip(len(kwIf)); err != nil {
		return nil, err
	}
	cond, err := LexExpr(s)
	if err != nil {
		return nil, err
	}
	if err := expectDirectiveEnd(s, pos); err != nil {
		return nil, err
	}

	then, term, err := lexBlock(s, depth+1)
	if err != nil {
		return nil, err
	}
	node := &ast.IfNode{Pos: pos, Cond: cond, Then: then}
	if term == termElse {
		var elseTerm terminator
		node.Else, elseTerm, err = lexBlock(s, depth+1)
		if err != nil {
			return nil, err
		}
		switch elseTerm {
		case termElse:
			return nil, errorf(ErrUnmatchedBlock, pos, nil, "duplicate {else} in the {if} block opened at %s", pos)
		case termEOF:
			return nil, errorf(ErrUnexpectedEOF, pos, io.ErrUnexpectedEOF, "missing {end} for the {if} block opened at %s", pos)
		}
	} else if term == termEOF {
		return nil, errorf(ErrUnexpectedEOF, pos, io.ErrUnexpectedEOF, "missing {end} for the {if} block opened at %s", pos)
	}
	return node, nil
}

// lexFor scans `for SYMBOL in EXPR } BODY {end}` with the opening keyword
// still unconsumed.
func lexFor(s *input.Stream, pos ast.Position, depth int) (ast.Node, error) {
	if _, err := s.Skip(len(kwFor)); err != nil {
		return nil, err
	}
	if _, err := s.SkipBlank(); err != nil {
		return nil, err
	}

	iterPos := s.Pos()
	iterator, err := s.ReadSymbol()
	if err != nil {
		return nil, err
	}
	if iterator == "" {
		return nil, errorf(ErrSyntax, iterPos, nil, "expected an iterator symbol after 'for'")
	}
	if input.IsDigit(iterator[0]) {
		return nil, errorf(ErrSyntax, iterPos, nil, "iterator %q must not start with a digit", iterator)
	}

	if _, err := s.SkipBlank(); err != nil {
		return nil, err
	}
	kwPos := s.Pos()
	kw, err := s.ReadSymbol()
	if err != nil {
		return nil, err
	}
	if kw != kwIn {
		e := errorf(ErrSyntax, kwPos, nil, "expected 'in' after iterator %q, got %q", iterator, kw)
		e.Suggestion = suggestKeyword(kw)
		return nil, e
	}

	iterable, err := LexExpr(s)
	if err != nil {
		return nil, err
	}
	if err := expectDirectiveEnd(s, pos); err != nil {
		return nil, err
	}

	body, term, err := lexBlock(s, depth+1)
	if err != nil {
		return nil, err
	}
	switch term {
	case termElse:
		return nil, errorf(ErrUnmatchedBlock, pos, nil, "{else} inside the {for} block opened at %s", pos)
	case termEOF:
		return nil, errorf(ErrUnexpectedEOF, pos, io.ErrUnexpectedEOF, "missing {end} for the {for} block opened at %s", pos)
	}
	return &ast.ForNode{Pos: pos, Iterator: iterator, Iterable: iterable, Body: body}, nil
}

// expectDirectiveEnd requires the closing '}' of the directive opened at
// open, allowing leading blanks.
func expectDirectiveEnd(s *input.Stream, open ast.Position) error {
	if _, err := s.SkipBlank(); err != nil {
		return err
	}
	b, err := s.PeekByte()
	if err != nil {
		if se, ok := err.(*input.Error); ok && se.Kind == input.ErrEOF {
			return errorf(ErrUnexpectedEOF, open, io.ErrUnexpectedEOF, "unterminated directive opened at %s", open)
		}
		return err
	}
	if b != '}' {
		return errorf(ErrSyntax, s.Pos(), nil, "unexpected %q in the directive opened at %s", string(b), open)
	}
	_, err = s.Skip(1)
	return err
}

// suggestKeyword returns the directive keyword closest to word, or "".
func suggestKeyword(word string) string {
	if word == "" {
		return ""
	}
	ranks := fuzzy.RankFindFold(word, keywords)
	if len(ranks) == 0 {
		return ""
	}
	sort.Stable(ranks)
	return ranks[0].Target
}
