package environ

import (
	"fmt"
	"io"

	"github.com/stencil-lang/stencil/core/ast"
	"github.com/stencil-lang/stencil/core/value"
	"github.com/stencil-lang/stencil/runtime/input"
)

// ErrKind classifies loader errors.
type ErrKind int

const (
	ErrMissingSymbol    ErrKind = iota // statement does not begin with a symbol
	ErrMissingValue                    // no value after '='
	ErrMissingSeparator                // '=', ';' or array ',' absent where required
	ErrFailed                          // malformed value or propagated stream failure
)

func (k ErrKind) String() string {
	switch k {
	case ErrMissingSymbol:
		return "missing symbol"
	case ErrMissingValue:
		return "missing value"
	case ErrMissingSeparator:
		return "missing separator"
	case ErrFailed:
		return "failed"
	}
	return "unknown"
}

// Error is an environment description parse error.
type Error struct {
	Kind ErrKind
	Pos  ast.Position
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func loadErrorf(kind ErrKind, pos ast.Position, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// Load reads an environment description from r and pushes its symbols.
// The format is a sequence of `name = value ;` statements with `#`
// comments running to end of line. Values are string literals, numbers,
// or arrays of values in brackets; arrays nest. Blanks and line
// terminators may appear freely between tokens.
func (e *Environ) Load(r io.Reader, opts ...input.Option) error {
	return e.load(input.New(r, opts...))
}

// LoadString reads an environment description from an in-memory chunk.
func (e *Environ) LoadString(src string, opts ...input.Option) error {
	return e.load(input.NewString(src, opts...))
}

func (e *Environ) load(s *input.Stream) error {
	for {
		if _, err := s.SkipBlank(); err != nil {
			return err
		}
		if s.EOF() {
			return nil
		}
		b, err := s.PeekByte()
		if err != nil {
			return err
		}
		if b == '#' {
			if _, err := s.SkipWhile(func(c byte) bool { return c != '\n' }); err != nil {
				return err
			}
			continue
		}
		if err := e.loadStatement(s); err != nil {
			return err
		}
	}
}

// loadStatement reads one `name = value ;` statement.
func (e *Environ) loadStatement(s *input.Stream) error {
	pos := s.Pos()
	name, err := s.ReadSymbol()
	if err != nil {
		return err
	}
	if name == "" {
		return loadErrorf(ErrMissingSymbol, pos, nil, "expected a symbol name")
	}
	if input.IsDigit(name[0]) {
		return loadErrorf(ErrMissingSymbol, pos, nil, "symbol %q must not start with a digit", name)
	}

	if _, err := s.SkipBlank(); err != nil {
		return err
	}
	pos = s.Pos()
	b, err := s.PeekByte()
	if err != nil || b != '=' {
		return loadErrorf(ErrMissingSeparator, pos, err, "expected '=' after symbol %q", name)
	}
	if _, err := s.Skip(1); err != nil {
		return err
	}

	v, err := readValue(s)
	if err != nil {
		return err
	}

	if _, err := s.SkipBlank(); err != nil {
		return err
	}
	pos = s.Pos()
	b, err = s.PeekByte()
	if err != nil || b != ';' {
		return loadErrorf(ErrMissingSeparator, pos, err, "expected ';' after value of %q", name)
	}
	if _, err := s.Skip(1); err != nil {
		return err
	}

	e.Push(name, v)
	return nil
}

// readValue reads a string literal, a number, or a bracketed value list.
func readValue(s *input.Stream) (value.Value, error) {
	if _, err := s.SkipBlank(); err != nil {
		return value.Value{}, err
	}
	pos := s.Pos()
	b, err := s.PeekByte()
	if err != nil {
		return value.Value{}, loadErrorf(ErrMissingValue, pos, err, "expected a value")
	}
	switch {
	case b == '"':
		str, err := s.ReadStringLiteral()
		if err != nil {
			return value.Value{}, loadErrorf(ErrFailed, pos, err, "bad string literal: %v", err)
		}
		return value.Str(str), nil
	case b == '[':
		return readArray(s)
	case b == '+' || b == '-' || input.IsDigit(b) || b == '.':
		v, err := s.ReadNumber()
		if err != nil {
			return value.Value{}, loadErrorf(ErrFailed, pos, err, "bad number: %v", err)
		}
		return v, nil
	}
	return value.Value{}, loadErrorf(ErrMissingValue, pos, nil, "expected a value, got %q", string(b))
}

// readArray reads `[ value, value, … ]`; the bracket is known present.
func readArray(s *input.Stream) (value.Value, error) {
	if _, err := s.Skip(1); err != nil {
		return value.Value{}, err
	}
	arr := value.Arr()
	for first := true; ; first = false {
		if _, err := s.SkipBlank(); err != nil {
			return value.Value{}, err
		}
		pos := s.Pos()
		b, err := s.PeekByte()
		if err != nil {
			return value.Value{}, loadErrorf(ErrFailed, pos, err, "unterminated array")
		}
		if b == ']' {
			_, err := s.Skip(1)
			return arr, err
		}
		if !first {
			if b != ',' {
				return value.Value{}, loadErrorf(ErrMissingSeparator, pos, nil, "expected ',' or ']' in array, got %q", string(b))
			}
			if _, err := s.Skip(1); err != nil {
				return value.Value{}, err
			}
		}
		elem, err := readValue(s)
		if err != nil {
			return value.Value{}, err
		}
		if err := arr.Append(elem); err != nil {
			return value.Value{}, loadErrorf(ErrFailed, pos, err, "cannot append array element: %v", err)
		}
	}
}
