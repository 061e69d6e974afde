// Package input implements a positional buffered byte stream with the
// typed readers the lexers build on: symbol and word scanners, string
// literals, and the full numeric literal grammar.
package input

import (
	"io"
	"strings"

	"github.com/stencil-lang/stencil/core/ast"
	"github.com/stencil-lang/stencil/core/invariant"
)

const (
	defaultBufferSize = 4096
	bufferGrowth      = 64
)

// Option configures a Stream.
type Option func(*Stream)

// WithName sets the origin name used in positions and diagnostics.
func WithName(name string) Option {
	return func(s *Stream) { s.name = name }
}

// WithBufferSize sets the initial cache size.
func WithBufferSize(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.buf = make([]byte, 0, n)
		}
	}
}

// Stream is a buffered byte reader over an arbitrary byte source,
// tracking the origin name and the line/column of the read head.
// Line numbers are 1-based, columns 0-based. Advancing across '\n'
// increments the line and resets the column; '\r' only resets the column,
// so CRLF advances a single line.
type Stream struct {
	r    io.Reader
	name string
	line int
	col  int

	buf []byte // cache; buf[pos:] is unread
	pos int
	off int   // total bytes consumed
	eof bool  // underlying source reported EOF
	err error // sticky IO error
}

// New creates a stream over r.
func New(r io.Reader, opts ...Option) *Stream {
	s := &Stream{r: r, line: 1}
	for _, opt := range opts {
		opt(s)
	}
	if s.buf == nil {
		s.buf = make([]byte, 0, defaultBufferSize)
	}
	return s
}

// NewString creates a stream over an in-memory string.
func NewString(src string, opts ...Option) *Stream {
	return New(strings.NewReader(src), opts...)
}

// Name returns the stream's origin name.
func (s *Stream) Name() string { return s.name }

// Pos returns the current position of the read head.
func (s *Stream) Pos() ast.Position {
	return ast.Position{Origin: s.name, Line: s.line, Column: s.col}
}

// Offset returns the total number of bytes consumed so far.
func (s *Stream) Offset() int { return s.off }

// avail returns the number of buffered unread bytes.
func (s *Stream) avail() int { return len(s.buf) - s.pos }

// fill ensures at least n unread bytes are buffered, or that the source
// is exhausted. The cache grows in fixed increments when a peek exceeds
// its current size.
func (s *Stream) fill(n int) error {
	if s.avail() >= n {
		return nil
	}
	if s.err != nil {
		return s.errorf(ErrIO, s.err, "read failed: %v", s.err)
	}
	if s.eof {
		return nil
	}
	// Compact consumed bytes to the front.
	if s.pos > 0 {
		s.buf = append(s.buf[:0], s.buf[s.pos:]...)
		s.pos = 0
	}
	for cap(s.buf) < n {
		grown := make([]byte, len(s.buf), cap(s.buf)+bufferGrowth)
		copy(grown, s.buf)
		s.buf = grown
	}
	for s.avail() < n && !s.eof {
		free := s.buf[len(s.buf):cap(s.buf)]
		read, err := s.r.Read(free)
		s.buf = s.buf[:len(s.buf)+read]
		if err == io.EOF {
			s.eof = true
		} else if err != nil {
			s.err = err
			return s.errorf(ErrIO, err, "read failed: %v", err)
		}
	}
	return nil
}

// advance consumes n buffered bytes, updating line and column.
func (s *Stream) advance(n int) {
	invariant.Precondition(n <= s.avail(), "advance(%d) exceeds %d buffered bytes", n, s.avail())
	for _, b := range s.buf[s.pos : s.pos+n] {
		switch b {
		case '\n':
			s.line++
			s.col = 0
		case '\r':
			s.col = 0
		default:
			s.col++
		}
	}
	s.pos += n
	s.off += n
}

// EOF reports whether the stream is exhausted. It attempts to fill the
// cache, so it is accurate even before the first read.
func (s *Stream) EOF() bool {
	if err := s.fill(1); err != nil {
		return false
	}
	return s.avail() == 0
}

// PeekByte returns the next byte without consuming it. At end of input it
// returns an ErrEOF error wrapping io.EOF.
func (s *Stream) PeekByte() (byte, error) {
	if err := s.fill(1); err != nil {
		return 0, err
	}
	if s.avail() == 0 {
		return 0, s.errorf(ErrEOF, io.EOF, "unexpected end of input")
	}
	return s.buf[s.pos], nil
}

// GetByte consumes and returns the next byte.
func (s *Stream) GetByte() (byte, error) {
	b, err := s.PeekByte()
	if err != nil {
		return 0, err
	}
	s.advance(1)
	return b, nil
}

// peekAt returns the byte n positions ahead of the read head without
// consuming anything, growing the cache as needed. ok is false at EOF.
func (s *Stream) peekAt(n int) (b byte, ok bool, err error) {
	if err := s.fill(n + 1); err != nil {
		return 0, false, err
	}
	if s.avail() <= n {
		return 0, false, nil
	}
	return s.buf[s.pos+n], true, nil
}

// Read copies up to len(p) bytes into p, consuming them. It returns the
// number of bytes copied; 0 with a nil error means end of input.
func (s *Stream) Read(p []byte) (int, error) {
	if err := s.fill(len(p)); err != nil {
		return 0, err
	}
	n := copy(p, s.buf[s.pos:])
	s.advance(n)
	return n, nil
}

// Peek copies up to len(p) bytes into p without consuming them, growing
// the cache to satisfy the request.
func (s *Stream) Peek(p []byte) (int, error) {
	if err := s.fill(len(p)); err != nil {
		return 0, err
	}
	return copy(p, s.buf[s.pos:]), nil
}

// Skip consumes up to n bytes, returning the number skipped.
func (s *Stream) Skip(n int) (int, error) {
	skipped := 0
	for skipped < n {
		want := n - skipped
		if want > defaultBufferSize {
			want = defaultBufferSize
		}
		if err := s.fill(want); err != nil {
			return skipped, err
		}
		if s.avail() == 0 {
			break
		}
		chunk := s.avail()
		if chunk > want {
			chunk = want
		}
		s.advance(chunk)
		skipped += chunk
	}
	return skipped, nil
}

// SkipWhile consumes bytes while pred holds, returning the count.
func (s *Stream) SkipWhile(pred func(byte) bool) (int, error) {
	skipped := 0
	for {
		b, ok, err := s.peekAt(0)
		if err != nil {
			return skipped, err
		}
		if !ok || !pred(b) {
			return skipped, nil
		}
		s.advance(1)
		skipped++
	}
}

// SkipBlank consumes the blank set: space, tab, vertical tab, CR, LF.
// Afterwards the stream is at EOF or at a non-blank byte.
func (s *Stream) SkipBlank() (int, error) {
	return s.SkipWhile(IsBlank)
}

// ReadWhile consumes and returns the longest prefix for which pred holds.
func (s *Stream) ReadWhile(pred func(byte) bool) (string, error) {
	var b strings.Builder
	for {
		c, ok, err := s.peekAt(0)
		if err != nil {
			return b.String(), err
		}
		if !ok || !pred(c) {
			return b.String(), nil
		}
		b.WriteByte(c)
		s.advance(1)
	}
}

// PeekWhile returns the longest prefix for which pred holds without
// consuming it.
func (s *Stream) PeekWhile(pred func(byte) bool) (string, error) {
	var b strings.Builder
	for n := 0; ; n++ {
		c, ok, err := s.peekAt(n)
		if err != nil {
			return b.String(), err
		}
		if !ok || !pred(c) {
			return b.String(), nil
		}
		b.WriteByte(c)
	}
}

// ReadSymbol consumes and returns the symbol at the read head. The result
// is empty when the stream is not at a symbol byte.
func (s *Stream) ReadSymbol() (string, error) {
	return s.ReadWhile(IsSymbolByte)
}

// PeekSymbol returns the symbol at the read head without consuming it.
func (s *Stream) PeekSymbol() (string, error) {
	return s.PeekWhile(IsSymbolByte)
}

// ReadStringLiteral reads a double-quoted string literal. The backslash
// escapes the next byte: it is dropped and the byte kept literally, so
// `\"` yields `"` and `\n` yields `n`. End of input inside the literal is
// an error.
func (s *Stream) ReadStringLiteral() (string, error) {
	start := s.Pos()
	b, err := s.PeekByte()
	if err != nil {
		return "", err
	}
	if b != '"' {
		return "", s.errorf(ErrInvalidString, nil, "expected '\"' to open a string literal, got %q", string(b))
	}
	s.advance(1)
	var out strings.Builder
	escaped := false
	for {
		c, err := s.GetByte()
		if err != nil {
			if se, ok := err.(*Error); ok && se.Kind == ErrEOF {
				return "", &Error{Kind: ErrInvalidString, Pos: start, Msg: "unterminated string literal", Err: io.ErrUnexpectedEOF}
			}
			return "", err
		}
		switch {
		case escaped:
			out.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			return out.String(), nil
		default:
			out.WriteByte(c)
		}
	}
}

// IsBlank reports whether b belongs to the blank set.
func IsBlank(b byte) bool {
	switch b {
	case ' ', '\t', '\v', '\r', '\n':
		return true
	}
	return false
}

// IsSymbolByte reports whether b may appear in a symbol.
func IsSymbolByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}

// IsDigit reports whether b is a decimal digit.
func IsDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
