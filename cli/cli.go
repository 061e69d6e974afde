// Package cli implements the stencil command: it renders one or more
// template files against environments loaded from files and literal
// chunks, concatenating the results onto one output.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/stencil-lang/stencil/cli/internal/filters"
	"github.com/stencil-lang/stencil/runtime/environ"
	"github.com/stencil-lang/stencil/runtime/input"
	"github.com/stencil-lang/stencil/runtime/lexer"
	"github.com/stencil-lang/stencil/runtime/render"
)

const version = "0.1.0"

// options holds the flag values of one invocation.
type options struct {
	output    string
	envFiles  []string
	envChunks []string
	verbose   bool
	watch     bool
	noColor   bool
}

// handledError marks failures already reported to stderr by the run
// function, so Execute does not print them twice.
type handledError struct{ err error }

func (e handledError) Error() string { return e.err.Error() }
func (e handledError) Unwrap() error { return e.err }

// Execute runs the CLI against os.Args and returns the process exit
// code: 0 on success, 1 on any failure.
func Execute() int {
	cmd := NewRootCommand(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		var handled handledError
		if !errors.As(err, &handled) {
			// Flag and argument errors never reach the run function.
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		return 1
	}
	return 0
}

// NewRootCommand builds the root cobra command writing rendered output
// to stdout and messages to stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "stencil [flags] TEMPLATE...",
		Short:         "Render template files against an environment",
		Long:          "stencil renders template files: literal text mixed with {…} directives\nthat substitute symbols, compute expressions, branch and iterate.",
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true, // error printing is ours
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			useColor := shouldUseColor(opts.noColor, stderr)
			disp := &display{w: stderr, verbose: opts.verbose, useColor: useColor}
			err := run(stdout, disp, opts, args)
			if err != nil {
				formatError(stderr, err, useColor)
				return handledError{err}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "write output to FILE instead of standard output")
	flags.StringArrayVarP(&opts.envFiles, "env-file", "e", nil, "load environment from FILE (repeatable)")
	flags.StringArrayVarP(&opts.envChunks, "env-chunk", "c", nil, "load environment from literal TEXT (repeatable)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "informational messages on standard error")
	flags.BoolVar(&opts.watch, "watch", false, "re-render whenever a template or environment file changes")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable ANSI colors on standard error")
	return cmd
}

func run(stdout io.Writer, disp *display, opts *options, templates []string) error {
	if opts.watch {
		return runWatch(stdout, disp, opts, templates)
	}
	return renderAll(stdout, disp, opts, templates)
}

// renderAll builds a fresh environment and renders every template in
// order onto one output.
func renderAll(stdout io.Writer, disp *display, opts *options, templates []string) error {
	env, err := buildEnviron(disp, opts)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(stdout, opts.output)
	if err != nil {
		return err
	}
	defer closeOut()

	buffered := bufio.NewWriter(out)
	for _, path := range templates {
		if err := renderTemplate(buffered, path, env, disp); err != nil {
			// Flush what was emitted before the failure; partial
			// output is not rolled back.
			_ = buffered.Flush()
			return err
		}
	}
	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("cannot write output: %w", err)
	}
	return closeOut()
}

// buildEnviron registers the builtin filters, then loads every
// environment file and after them every chunk, each in the order given,
// so later definitions shadow earlier ones.
func buildEnviron(disp *display, opts *options) (*environ.Environ, error) {
	env := environ.New()
	filters.Register(env)
	disp.Infof("registered %d builtin filters", len(filters.Names()))

	for _, path := range opts.envFiles {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("cannot open environment file: %w", err)
		}
		err = env.Load(f, input.WithName(path))
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		disp.Infof("loaded environment from %s", path)
	}
	for i, chunk := range opts.envChunks {
		name := fmt.Sprintf("<env-chunk#%d>", i+1)
		if err := env.LoadString(chunk, input.WithName(name)); err != nil {
			return nil, err
		}
		disp.Infof("loaded environment chunk %d", i+1)
	}
	return env, nil
}

// renderTemplate lexes and renders one template file.
func renderTemplate(w io.Writer, path string, env *environ.Environ, disp *display) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open template: %w", err)
	}
	defer f.Close()

	tree, err := lexer.Lex(input.New(f, input.WithName(path)))
	if err != nil {
		return err
	}
	disp.Infof("rendering %s", path)
	return render.Render(w, tree, env)
}

// openOutput returns the output writer and a close function. Writing to
// a file truncates it; standard output is left open.
func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create output file: %w", err)
	}
	closed := false
	closeFn := func() error {
		if closed {
			return nil
		}
		closed = true
		if err := f.Close(); err != nil {
			return fmt.Errorf("cannot close output file: %w", err)
		}
		return nil
	}
	return f, closeFn, nil
}
