package environ

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stencil-lang/stencil/core/value"
	"github.com/stencil-lang/stencil/runtime/input"
)

func loadEnv(t *testing.T, src string) *Environ {
	t.Helper()
	env := New()
	require.NoError(t, env.LoadString(src, input.WithName("test-env")))
	return env
}

func lookup(t *testing.T, env *Environ, name string) value.Value {
	t.Helper()
	v, ok := env.Lookup(name)
	require.True(t, ok, "symbol %q not loaded", name)
	return v
}

func TestLoadScalars(t *testing.T) {
	env := loadEnv(t, `
		name = "world";
		n = 42;
		rate = 2.5;
		mask = 0xff;
		neg = -7;
	`)

	assert.Equal(t, "world", lookup(t, env, "name").Str())
	assert.Equal(t, int64(42), lookup(t, env, "n").Int())
	assert.Equal(t, 2.5, lookup(t, env, "rate").Float())
	assert.Equal(t, int64(255), lookup(t, env, "mask").Int())
	assert.Equal(t, int64(-7), lookup(t, env, "neg").Int())
}

func TestLoadArrays(t *testing.T) {
	env := loadEnv(t, `xs = [10, 20, 30]; empty = []; mixed = [1, "two", 3.5];`)

	want := value.Arr(value.Int(10), value.Int(20), value.Int(30))
	if diff := cmp.Diff(want, lookup(t, env, "xs")); diff != "" {
		t.Errorf("xs mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 0, lookup(t, env, "empty").Len())

	mixed := lookup(t, env, "mixed")
	require.Equal(t, 3, mixed.Len())
	assert.Equal(t, "two", mixed.Array()[1].Str())
}

func TestLoadNestedArrays(t *testing.T) {
	env := loadEnv(t, `grid = [[1, 2], [3, 4]];`)

	want := value.Arr(
		value.Arr(value.Int(1), value.Int(2)),
		value.Arr(value.Int(3), value.Int(4)),
	)
	if diff := cmp.Diff(want, lookup(t, env, "grid")); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadComments(t *testing.T) {
	env := loadEnv(t, `
		# leading comment
		a = 1; # trailing comment
		# b = 2; commented out
		c = 3;
	`)

	assert.Equal(t, int64(1), lookup(t, env, "a").Int())
	_, ok := env.Lookup("b")
	assert.False(t, ok)
	assert.Equal(t, int64(3), lookup(t, env, "c").Int())
}

func TestLoadBlanksEverywhere(t *testing.T) {
	env := loadEnv(t, "\n\t a \t=\n\t [ 1 ,\n 2 ] \n;\n")
	assert.Equal(t, 2, lookup(t, env, "a").Len())
}

func TestLoadPushesRepeatedSymbols(t *testing.T) {
	env := loadEnv(t, `n = 1; n = 2;`)
	assert.Equal(t, 2, env.Depth("n"))
	assert.Equal(t, int64(2), lookup(t, env, "n").Int())
}

func TestLoadStringEscapes(t *testing.T) {
	env := loadEnv(t, `s = "a\"b\\c";`)
	assert.Equal(t, `a"b\c`, lookup(t, env, "s").Str())
}

func TestLoadEmptyAndCommentOnly(t *testing.T) {
	require.NoError(t, New().LoadString(""))
	require.NoError(t, New().LoadString("   \n\t  "))
	require.NoError(t, New().LoadString("# nothing here\n# at all"))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ErrKind
	}{
		{"missing equals", `n 42;`, ErrMissingSeparator},
		{"missing semicolon", `n = 42`, ErrMissingSeparator},
		{"missing value", `n = ;`, ErrMissingValue},
		{"missing symbol", `= 42;`, ErrMissingSymbol},
		{"digit-led symbol", `9n = 1;`, ErrMissingSymbol},
		{"bad number", `n = +x;`, ErrFailed},
		{"unterminated array", `xs = [1, 2;`, ErrMissingSeparator},
		{"array missing comma", `xs = [1 2];`, ErrMissingSeparator},
		{"unterminated string", `s = "abc`, ErrFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().LoadString(tt.src)
			var le *Error
			require.ErrorAs(t, err, &le, "expected a loader error, got %v", err)
			assert.Equal(t, tt.kind, le.Kind, "got %v", err)
		})
	}
}

func TestLoadErrorPosition(t *testing.T) {
	err := New().LoadString("a = 1;\nb = @;", input.WithName("envfile"))
	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "envfile", le.Pos.Origin)
	assert.Equal(t, 2, le.Pos.Line)
}

func TestLoadFromReader(t *testing.T) {
	env := New()
	require.NoError(t, env.Load(strings.NewReader(`x = 1;`)))
	assert.Equal(t, int64(1), lookup(t, env, "x").Int())
}
