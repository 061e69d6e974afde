package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
)

// runWatch renders once, then re-renders the whole template set whenever
// a template or environment file changes, until interrupted. A failing
// re-render is reported but keeps the loop alive; only the initial
// render and watcher setup are fatal.
func runWatch(stdout io.Writer, disp *display, opts *options, templates []string) error {
	if err := renderAll(stdout, disp, opts, templates); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot start watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the containing directories: editors replace files on save,
	// which drops a watch registered on the file itself.
	watched := lo.Uniq(lo.Map(append(append([]string{}, templates...), opts.envFiles...),
		func(path string, _ int) string { return filepath.Dir(path) }))
	for _, dir := range watched {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("cannot watch %s: %w", dir, err)
		}
		disp.Infof("watching %s", dir)
	}

	relevant := make(map[string]bool)
	for _, path := range append(append([]string{}, templates...), opts.envFiles...) {
		relevant[filepath.Clean(path)] = true
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !relevant[filepath.Clean(event.Name)] {
				continue
			}
			disp.Infof("%s changed, re-rendering", event.Name)
			if err := renderAll(stdout, disp, opts, templates); err != nil {
				formatError(disp.w, err, disp.useColor)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			disp.Infof("watch error: %v", err)
		case <-interrupt:
			disp.Infof("interrupted, exiting watch mode")
			return nil
		}
	}
}
