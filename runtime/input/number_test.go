package input

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stencil-lang/stencil/core/value"
)

// rest drains whatever the scanner left in the stream.
func rest(t *testing.T, s *Stream) string {
	t.Helper()
	out, err := s.ReadWhile(func(byte) bool { return true })
	require.NoError(t, err)
	return out
}

func TestReadNumberIntegers(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		rest string
	}{
		{"0", 0, ""},
		{"42", 42, ""},
		{"-7", -7, ""},
		{"+13", 13, ""},
		{"0xffe2", 65506, ""},
		{"0XFF", 255, ""},
		{"0b111", 7, ""},
		{"0o77", 63, ""},
		{"0O17", 15, ""},
		{"42+41", 42, "+41"},
		{"7)", 7, ")"},
		{"9223372036854775807", 9223372036854775807, ""},
		{"-9223372036854775808", -9223372036854775808, ""},
		{"0b12", 1, "2"},   // greedy stops at the first invalid digit
		{"0b", 0, "b"},     // bare prefix is a zero followed by a symbol
		{"08", 8, ""},      // no octal-by-leading-zero
		{"0x10z", 16, "z"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s := NewString(tt.in)
			v, err := s.ReadNumber()
			require.NoError(t, err)
			require.True(t, v.IsInt(), "expected an int, got %s", v.Kind())
			assert.Equal(t, tt.want, v.Int())
			assert.Equal(t, tt.rest, rest(t, s))
		})
	}
}

func TestReadNumberFloats(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		rest string
	}{
		{"1.5", 1.5, ""},
		{"1.", 1, ""},
		{".5", 0.5, ""},
		{"1.024e3", 1024, ""},
		{"1e3", 1000, ""},
		{"2E-2", 0.02, ""},
		{"1e+2", 100, ""},
		{"-2.5", -2.5, ""},
		{"0x1.8p4", 24, ""},
		{"0x1p4", 16, ""},
		{"0x1.8P-1", 0.75, ""},
		{"3.25abc", 3.25, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s := NewString(tt.in)
			v, err := s.ReadNumber()
			require.NoError(t, err)
			require.True(t, v.IsFloat(), "expected a float, got %s", v.Kind())
			assert.InDelta(t, tt.want, v.Float(), 1e-9)
			assert.Equal(t, tt.rest, rest(t, s))
		})
	}
}

func TestReadNumberFailures(t *testing.T) {
	tests := []struct {
		in   string
		kind ErrKind
	}{
		{"+ff", ErrInvalidNumber},
		{"-", ErrInvalidNumber},
		{"abc", ErrInvalidNumber},
		{"", ErrEOF},
		{"1e", ErrInvalidNumber},   // exponent without digits
		{"1e+", ErrInvalidNumber},
		{"0x1.8", ErrInvalidNumber}, // hex float without a p exponent
		{"99999999999999999999", ErrRange},
		{"1e999", ErrRange},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			s := NewString(tt.in)
			_, err := s.ReadNumber()
			var se *Error
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.kind, se.Kind)
			assert.Equal(t, tt.in, rest(t, s), "a failed read must consume nothing")
		})
	}
}

func TestReadInt(t *testing.T) {
	s := NewString("42 ")
	n, err := s.ReadInt()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	// A float form fails without consuming.
	s = NewString("1.5")
	_, err = s.ReadInt()
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrInvalidNumber, se.Kind)
	assert.Equal(t, "1.5", rest(t, s))
}

func TestReadFloat(t *testing.T) {
	s := NewString("2.5")
	f, err := s.ReadFloat()
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	// Integer-form literals widen, so shortest-form floats read back.
	s = NewString("1024")
	f, err = s.ReadFloat()
	require.NoError(t, err)
	assert.Equal(t, 1024.0, f)
}

// Round-trip property: any int renders and reads back exactly; any
// non-NaN float reads back almost-equal.
func TestNumberRoundTrips(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 65506, 1 << 62, -(1 << 62)} {
		s, err := value.Int(n).ToString()
		require.NoError(t, err)
		got, err := NewString(s).ReadInt()
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
	for _, f := range []float64{0, 1.5, -2.25, 1024, 1e-3, 6.02214076e23} {
		s, err := value.Float(f).ToString()
		require.NoError(t, err)
		got, err := NewString(s).ReadFloat()
		require.NoError(t, err)
		assert.True(t, value.AlmostEqual(f, got), "%v read back as %v", f, got)
	}
}

func TestReadNumberPositionOnError(t *testing.T) {
	s := NewString("x = @", WithName("env"))
	_, err := s.Skip(4)
	require.NoError(t, err)
	_, err = s.ReadNumber()
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "env", se.Pos.Origin)
	assert.Equal(t, 1, se.Pos.Line)
	assert.Equal(t, 4, se.Pos.Column)
}
