package input

import (
	"io"
	"strconv"

	"github.com/stencil-lang/stencil/core/value"
)

// validDigit reports whether b is a digit of the given base. Base 16
// accepts letters in either case.
func validDigit(b byte, base int) bool {
	switch base {
	case 2:
		return b == '0' || b == '1'
	case 8:
		return b >= '0' && b <= '7'
	case 16:
		return b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F'
	}
	return b >= '0' && b <= '9'
}

// scanNumber scans a numeric literal at the read head without consuming
// it, returning the value and the number of bytes it spans. The grammar:
// an optional sign, an optional 0b/0o/0x base prefix (which requires at
// least one following digit), digits, a fractional point in base 10 or
// 16, and a decimal exponent introduced by e/E (base 10) or p/P (base
// 16). The text is scanned greedily and then dispatched: a fraction or an
// exponent makes a float, anything else a signed integer in the scanned
// base.
func (s *Stream) scanNumber() (value.Value, int, error) {
	var (
		k          int
		raw        []byte // exact accepted text, for float conversion
		intDigits  []byte // mantissa digits without prefix, for integer conversion
		base       = 10
		neg        bool
		digitsSeen bool
		isFloat    bool
		sawExp     bool
	)

	b, ok, err := s.peekAt(k)
	if err != nil {
		return value.Value{}, 0, err
	}
	if !ok {
		return value.Value{}, 0, s.errorf(ErrEOF, io.EOF, "unexpected end of input while reading a number")
	}

	if b == '+' || b == '-' {
		neg = b == '-'
		raw = append(raw, b)
		k++
	}

	// Base prefix. Only accepted when at least one valid digit follows,
	// otherwise the leading zero is scanned as a plain digit.
	if b, ok, err = s.peekAt(k); err != nil {
		return value.Value{}, 0, err
	} else if ok && b == '0' {
		if c, ok2, err := s.peekAt(k + 1); err != nil {
			return value.Value{}, 0, err
		} else if ok2 {
			candidate := 0
			switch c {
			case 'b', 'B':
				candidate = 2
			case 'o', 'O':
				candidate = 8
			case 'x', 'X':
				candidate = 16
			}
			if candidate != 0 {
				if d, ok3, err := s.peekAt(k + 2); err != nil {
					return value.Value{}, 0, err
				} else if ok3 && validDigit(d, candidate) {
					base = candidate
					raw = append(raw, '0', c)
					k += 2
				}
			}
		}
	}

	for {
		b, ok, err = s.peekAt(k)
		if err != nil {
			return value.Value{}, 0, err
		}
		if !ok {
			break
		}
		if validDigit(b, base) {
			raw = append(raw, b)
			intDigits = append(intDigits, b)
			digitsSeen = true
			k++
			continue
		}
		if b == '.' && !isFloat && (base == 10 || base == 16) {
			isFloat = true
			raw = append(raw, '.')
			k++
			continue
		}
		break
	}

	// Exponent: e/E for base 10, p/P for base 16, decimal digits either
	// way. A present introducer with no following digit is malformed.
	if ok && digitsSeen {
		introducer := base == 10 && (b == 'e' || b == 'E') ||
			base == 16 && (b == 'p' || b == 'P')
		if introducer {
			j := k + 1
			if sb, sok, err := s.peekAt(j); err != nil {
				return value.Value{}, 0, err
			} else if sok && (sb == '+' || sb == '-') {
				j++
			}
			db, dok, err := s.peekAt(j)
			if err != nil {
				return value.Value{}, 0, err
			}
			if !dok || !IsDigit(db) {
				return value.Value{}, 0, s.errorf(ErrInvalidNumber, nil, "exponent requires at least one digit")
			}
			for n := k; n < j; n++ {
				c, _, err := s.peekAt(n)
				if err != nil {
					return value.Value{}, 0, err
				}
				raw = append(raw, c)
			}
			k = j
			sawExp = true
			for {
				b, ok, err = s.peekAt(k)
				if err != nil {
					return value.Value{}, 0, err
				}
				if !ok || !IsDigit(b) {
					break
				}
				raw = append(raw, b)
				k++
			}
		}
	}

	if !digitsSeen {
		return value.Value{}, 0, s.errorf(ErrInvalidNumber, nil, "expected a number")
	}
	if base == 16 && isFloat && !sawExp {
		return value.Value{}, 0, s.errorf(ErrInvalidNumber, nil, "hexadecimal float requires a 'p' exponent")
	}

	if isFloat || sawExp {
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			if ne, isNum := err.(*strconv.NumError); isNum && ne.Err == strconv.ErrRange {
				return value.Value{}, 0, s.errorf(ErrRange, err, "float %q out of range", raw)
			}
			return value.Value{}, 0, s.errorf(ErrInvalidNumber, err, "malformed float %q", raw)
		}
		return value.Float(f), k, nil
	}

	text := string(intDigits)
	if neg {
		text = "-" + text
	}
	i, err := strconv.ParseInt(text, base, 64)
	if err != nil {
		if ne, isNum := err.(*strconv.NumError); isNum && ne.Err == strconv.ErrRange {
			return value.Value{}, 0, s.errorf(ErrRange, err, "integer %q out of range", raw)
		}
		return value.Value{}, 0, s.errorf(ErrInvalidNumber, err, "malformed integer %q", raw)
	}
	return value.Int(i), k, nil
}

// ReadNumber reads an integer or float literal. On failure nothing is
// consumed and the stream is left at the offending text.
func (s *Stream) ReadNumber() (value.Value, error) {
	v, n, err := s.scanNumber()
	if err != nil {
		return value.Value{}, err
	}
	s.advance(n)
	return v, nil
}

// ReadInt reads an integer literal. A literal in float form (fraction or
// exponent) fails without consuming anything.
func (s *Stream) ReadInt() (int64, error) {
	v, n, err := s.scanNumber()
	if err != nil {
		return 0, err
	}
	if !v.IsInt() {
		return 0, s.errorf(ErrInvalidNumber, nil, "expected an integer, got a float")
	}
	s.advance(n)
	return v.Int(), nil
}

// ReadFloat reads a float literal. Integer-form literals are accepted and
// widened, so any float rendered in shortest form reads back.
func (s *Stream) ReadFloat() (float64, error) {
	v, n, err := s.scanNumber()
	if err != nil {
		return 0, err
	}
	s.advance(n)
	return v.Float(), nil
}
