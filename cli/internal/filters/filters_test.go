package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stencil-lang/stencil/core/value"
	"github.com/stencil-lang/stencil/runtime/environ"
)

func apply(t *testing.T, name string, src value.Value) value.Value {
	t.Helper()
	fn, ok := builtins[name]
	require.True(t, ok, "no builtin %q", name)
	out, err := fn(src, nil)
	require.NoError(t, err, "%s(%v)", name, src)
	return out
}

func TestRegisterBindsEveryBuiltin(t *testing.T) {
	env := environ.New()
	Register(env)

	for _, name := range Names() {
		v, ok := env.Lookup(name)
		require.True(t, ok, "builtin %q not registered", name)
		assert.True(t, v.IsFilter(), "builtin %q is a %s", name, v.Kind())
	}
}

func TestUserSymbolsShadowBuiltins(t *testing.T) {
	env := environ.New()
	Register(env)
	require.NoError(t, env.LoadString(`upper = "mine";`))

	v, _ := env.Lookup("upper")
	assert.True(t, v.IsString(), "environment load must shadow the builtin")

	_, ok := env.Pop("upper")
	require.True(t, ok)
	v, _ = env.Lookup("upper")
	assert.True(t, v.IsFilter(), "popping restores the builtin")
}

func TestCaseFilters(t *testing.T) {
	assert.Equal(t, "ABC", apply(t, "upper", value.Str("abc")).Str())
	assert.Equal(t, "abc", apply(t, "lower", value.Str("ABC")).Str())
	assert.Equal(t, "42", apply(t, "upper", value.Int(42)).Str(), "scalars stringify first")
}

func TestTrim(t *testing.T) {
	assert.Equal(t, "x y", apply(t, "trim", value.Str("  x y\t\n")).Str())
}

func TestLength(t *testing.T) {
	assert.Equal(t, int64(3), apply(t, "length", value.Arr(value.Int(1), value.Int(2), value.Int(3))).Int())
	assert.Equal(t, int64(5), apply(t, "length", value.Str("hello")).Int())
	assert.Equal(t, int64(2), apply(t, "length", value.Int(42)).Int())
}

func TestReverse(t *testing.T) {
	assert.Equal(t, "cba", apply(t, "reverse", value.Str("abc")).Str())

	arr := apply(t, "reverse", value.Arr(value.Int(1), value.Int(2), value.Int(3)))
	assert.Equal(t, "[3, 2, 1]", arr.String())
}

func TestReverseLeavesSourceIntact(t *testing.T) {
	src := value.Arr(value.Int(1), value.Int(2))
	_ = apply(t, "reverse", src)
	assert.Equal(t, "[1, 2]", src.String())
}

func TestFirstLast(t *testing.T) {
	arr := value.Arr(value.Int(10), value.Int(20))
	assert.Equal(t, int64(10), apply(t, "first", arr).Int())
	assert.Equal(t, int64(20), apply(t, "last", arr).Int())

	_, err := builtins["first"](value.Arr(), nil)
	assert.Error(t, err)
	_, err = builtins["last"](value.Int(1), nil)
	assert.Error(t, err)
}

func TestJoinAndLines(t *testing.T) {
	arr := value.Arr(value.Str("a"), value.Int(2), value.Float(3.5))
	assert.Equal(t, "a, 2, 3.5", apply(t, "join", arr).Str())
	assert.Equal(t, "a\n2\n3.5", apply(t, "lines", arr).Str())
	assert.Equal(t, "solo", apply(t, "join", value.Str("solo")).Str())
}

func TestFiltersRefuseFilterSources(t *testing.T) {
	f := value.NewFilter("id", func(src value.Value, _ []value.Value) (value.Value, error) { return src, nil })
	for _, name := range []string{"upper", "lower", "trim", "length", "join"} {
		_, err := builtins[name](f, nil)
		assert.Error(t, err, "%s must refuse a filter source", name)
	}
}
