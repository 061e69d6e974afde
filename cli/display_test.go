package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stencil-lang/stencil/core/ast"
	"github.com/stencil-lang/stencil/runtime/eval"
)

func TestColorize(t *testing.T) {
	assert.Equal(t, "x", colorize("x", colorRed, false))
	assert.Equal(t, colorRed+"x"+colorReset, colorize("x", colorRed, true))
}

func TestShouldUseColorRespectsFlagAndEnv(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, shouldUseColor(true, &buf), "--no-color wins")
	assert.False(t, shouldUseColor(false, &buf), "non-file writers never color")

	t.Setenv("NO_COLOR", "1")
	assert.False(t, shouldUseColor(false, &buf))
}

func TestDisplayInfof(t *testing.T) {
	var buf bytes.Buffer
	d := &display{w: &buf, verbose: false}
	d.Infof("hidden")
	assert.Empty(t, buf.String())

	d.verbose = true
	d.Infof("rendered %d templates", 2)
	assert.Contains(t, buf.String(), "rendered 2 templates")
	assert.Contains(t, buf.String(), "stencil:")
}

func TestFormatErrorPlain(t *testing.T) {
	var buf bytes.Buffer
	formatError(&buf, errors.New("boom"), false)
	assert.Equal(t, "Error: boom\n", buf.String())
}

func TestFormatErrorWithSuggestion(t *testing.T) {
	var buf bytes.Buffer
	err := &eval.Error{
		Kind:       eval.ErrSymbolNotFound,
		Pos:        ast.Position{Origin: "t.tpl", Line: 1, Column: 2},
		Msg:        `symbol "nam" not found`,
		Suggestion: "name",
	}
	formatError(&buf, err, false)
	out := buf.String()
	assert.Contains(t, out, "t.tpl:1:2")
	assert.Contains(t, out, `did you mean "name"?`)
}

func TestFormatErrorNil(t *testing.T) {
	var buf bytes.Buffer
	formatError(&buf, nil, false)
	assert.Empty(t, buf.String())
}
