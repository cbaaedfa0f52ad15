package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RunFunc is called each time the watcher triggers a re-run.
// It receives the context and returns the result used for change tracking.
type RunFunc func(ctx context.Context) (*RunResult, error)

// RunResult holds the output of a single filter run.
type RunResult struct {
	// Documents is the number of documents written.
	Documents int
	// Properties are the property paths present in the output, as returned
	// by document.Paths. They are compared between consecutive runs.
	Properties []string
	// OutputPath is where the output was written.
	OutputPath string
}

// Options configures the watch behaviour.
type Options struct {
	// Files are the files whose changes trigger a re-run (input, schema,
	// config). Their parent directories are watched so that editors that
	// replace files on save are handled.
	Files []string

	// Debounce is the quiet period before triggering a re-run.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: 300 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run starts the file watcher and blocks until the context is cancelled
// or a SIGINT/SIGTERM signal is received.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if len(opts.Files) == 0 {
		return fmt.Errorf("no files to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	watched, err := addFiles(watcher, opts.Files)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "watching %s (debounce=%s)\n", strings.Join(opts.Files, ", "), opts.Debounce)

	tracker := &changeTracker{}

	tracker.run(sigCtx, opts, runFn, "(initial)")

	debouncer := NewDebouncer(opts.Debounce, opts.Logger, func(paths []string) {
		tracker.run(sigCtx, opts, runFn, triggerName(paths))
	})
	defer debouncer.Stop()

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(opts.Out, "\nshutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event) || !watched[filepath.Clean(event.Name)] {
				continue
			}

			opts.Logger.Debug("file changed",
				slog.String("path", event.Name),
				slog.String("op", event.Op.String()),
			)

			debouncer.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// changeTracker remembers the previous run's properties. A slow run may
// still be in progress when the next debounced event fires, so runs are
// serialized.
type changeTracker struct {
	mu      sync.Mutex
	prev    []string
	hasPrev bool
}

// run executes a single filter run and prints the status line.
func (t *changeTracker) run(ctx context.Context, opts Options, runFn RunFunc, trigger string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().Format("15:04:05")

	result, err := runFn(ctx)
	if err != nil {
		fmt.Fprintf(opts.Out, "[%s] %s → ERROR: %v\n", now, trigger, err)
		return
	}

	fmt.Fprintf(opts.Out, "[%s] %s → OK (%d document(s), %d property path(s))\n",
		now, trigger, result.Documents, len(result.Properties))

	if t.hasPrev {
		if changes := PropertyDiff(t.prev, result.Properties); len(changes) > 0 {
			fmt.Fprintf(opts.Out, "  properties: %s\n", PropertyDiffSummary(changes))

			for _, c := range changes {
				opts.Logger.Debug("property change", slog.String("kind", c.Kind), slog.String("path", c.Path))
			}
		}
	}

	t.prev = result.Properties
	t.hasPrev = true
}

// triggerName joins the base names of the changed files for the status
// line.
func triggerName(paths []string) string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}

	return strings.Join(names, ", ")
}

// addFiles watches the parent directory of every file and returns the set
// of cleaned absolute file paths.
func addFiles(watcher *fsnotify.Watcher, files []string) (map[string]bool, error) {
	watched := make(map[string]bool, len(files))
	dirs := make(map[string]bool)

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolving file %q: %w", f, err)
		}

		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("watching file %q: %w", f, err)
		}

		watched[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}

		if err := watcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %q: %w", dir, err)
		}

		dirs[dir] = true
	}

	return watched, nil
}

// isRelevant filters out events that do not change file contents and
// events on editor temporary files.
func isRelevant(event fsnotify.Event) bool {
	if event.Op == 0 {
		return false
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)

	if strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	return true
}
