package cli

import (
	"fmt"
	"io"

	"github.com/stencil-lang/stencil/runtime/environ"
	"github.com/stencil-lang/stencil/runtime/eval"
	"github.com/stencil-lang/stencil/runtime/input"
	"github.com/stencil-lang/stencil/runtime/lexer"
	"github.com/stencil-lang/stencil/runtime/render"
)

// formatError writes err to w with colors and, when the error carries
// one, a "did you mean" hint. Every pipeline error already embeds its
// origin and position in its message.
func formatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}
	prefix := colorize("Error: ", colorRed, useColor)

	switch e := err.(type) {
	case *lexer.Error:
		_, _ = fmt.Fprintf(w, "%s%s\n", prefix, e.Error())
		printSuggestion(w, e.Suggestion, useColor)
	case *eval.Error:
		_, _ = fmt.Fprintf(w, "%s%s\n", prefix, e.Error())
		printSuggestion(w, e.Suggestion, useColor)
	case *input.Error, *environ.Error, *render.Error:
		_, _ = fmt.Fprintf(w, "%s%s\n", prefix, e.Error())
	default:
		_, _ = fmt.Fprintf(w, "%s%s\n", prefix, err.Error())
	}
}

func printSuggestion(w io.Writer, suggestion string, useColor bool) {
	if suggestion == "" {
		return
	}
	hint := fmt.Sprintf("did you mean %q?", suggestion)
	_, _ = fmt.Fprintf(w, "  %s\n", colorize(hint, colorYellow, useColor))
}
