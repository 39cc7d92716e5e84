package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/strabs/doit/pkg/task"
	"github.com/strabs/doit/pkg/taskfile"
)

// debounceDelay coalesces bursts of filesystem events (editors often emit
// several per save) into a single rerun.
const debounceDelay = 200 * time.Millisecond

// watchAndRun runs the taskfile, then reruns it whenever the taskfile or
// one of the configured watch paths changes. It returns when the context is
// canceled.
func (ra *RunArgs) watchAndRun(ctx context.Context, path string, watchPaths []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck // Best-effort cleanup on exit.

	// Watch the taskfile's directory rather than the file: editors replace
	// files on save, which would drop a direct watch.
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve taskfile path: %w", err)
	}

	watched := map[string]struct{}{absPath: {}}

	err = watcher.Add(filepath.Dir(absPath))
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	for _, p := range watchPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve watch path %q: %w", p, err)
		}

		watched[abs] = struct{}{}

		err = watcher.Add(abs)
		if err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
	}

	ra.rerun(ctx, path)

	var debounce *time.Timer

	runCh := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Ignore events that are not related to file content changes.
			if evt.Has(fsnotify.Chmod) {
				continue
			}

			if !isWatched(watched, evt.Name) {
				continue
			}

			slog.Debug("file changed", slog.String("path", evt.Name))

			if debounce != nil {
				debounce.Stop()
			}

			debounce = time.AfterFunc(debounceDelay, func() {
				select {
				case runCh <- struct{}{}:
				default:
				}
			})

		case <-runCh:
			ra.rerun(ctx, path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			slog.Error("watch error", slog.Any("error", err))
		}
	}
}

// rerun reloads and executes the taskfile, containing failures so the watch
// loop keeps going.
func (ra *RunArgs) rerun(ctx context.Context, path string) {
	tf, err := taskfile.Load(path)
	if err != nil {
		slog.Error("reload taskfile", slog.Any("error", err))

		return
	}

	err = ra.runTaskfile(ctx, tf)

	var taskErr *task.Error

	switch {
	case err == nil:
	case errors.As(err, &taskErr):
		// Already logged by runTaskfile.
	default:
		slog.Error("run tasks", slog.Any("error", err))
	}

	slog.Info("watching for changes", slog.String("taskfile", path))
}

// isWatched reports whether the event path is the taskfile itself, an
// explicitly watched path, or inside a watched directory.
func isWatched(watched map[string]struct{}, name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}

	if _, ok := watched[abs]; ok {
		return true
	}

	for p := range watched {
		if rel, err := filepath.Rel(p, abs); err == nil && filepath.IsLocal(rel) {
			return true
		}
	}

	return false
}
