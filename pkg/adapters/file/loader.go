// Package file loads a tree from a single YAML, JSON or HCL document on disk.
package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/shindan/internal/compiler"
	"github.com/aretw0/shindan/internal/logging"
	"github.com/aretw0/shindan/pkg/tree"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 200 * time.Millisecond

// Loader implements ports.TreeLoader and ports.Watchable for one file.
type Loader struct {
	path     string
	format   compiler.Format
	parser   *compiler.Parser
	debounce time.Duration
	logger   *slog.Logger
}

// Option configures the Loader.
type Option func(*Loader)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(l *Loader) {
		l.debounce = d
	}
}

// WithLogger configures a logger for watch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a loader for path. The format is picked from the extension.
func New(path string, opts ...Option) (*Loader, error) {
	format, err := compiler.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	l := &Loader{
		path:     abs,
		format:   format,
		parser:   compiler.NewParser(),
		debounce: DefaultDebounce,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Path returns the absolute path of the watched file.
func (l *Loader) Path() string {
	return l.path
}

// Load reads and compiles the file.
func (l *Loader) Load(ctx context.Context) (*tree.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree file: %w", err)
	}
	return l.parser.ParseTree(data, l.format, filepath.Base(l.path))
}

// Watch signals after the file is written, created or replaced.
// The parent directory is watched because editors often save by rename.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(l.path), err)
	}

	out := make(chan struct{}, 1)
	go l.watch(ctx, watcher, out)
	return out, nil
}

func (l *Loader) watch(ctx context.Context, watcher *fsnotify.Watcher, out chan<- struct{}) {
	defer close(out)
	defer watcher.Close()

	timer := time.NewTimer(l.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != l.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			l.logger.Debug("tree file changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(l.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("tree file watcher error", "err", err)

		case <-timer.C:
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}
}
