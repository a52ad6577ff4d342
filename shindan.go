package shindan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/shindan/internal/logging"
	"github.com/aretw0/shindan/pkg/catalog"
	"github.com/aretw0/shindan/pkg/content"
	"github.com/aretw0/shindan/pkg/domain"
	"github.com/aretw0/shindan/pkg/ports"
	"github.com/aretw0/shindan/pkg/tree"
)

// ErrNotWatchable is returned by Watch when the loader cannot report changes.
var ErrNotWatchable = errors.New("current loader does not support watching")

// Engine is the high-level entry point for the shindan library.
// It holds the current tree snapshot and fires lifecycle hooks around traversal.
// Reload swaps the snapshot atomically; callers that already hold a *tree.Tree keep
// a consistent view of the old one.
type Engine struct {
	mu   sync.RWMutex
	tree *tree.Tree

	loader  ports.TreeLoader
	catalog *catalog.Catalog
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	Name    string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader replaces the shipped content with another tree source.
func WithLoader(l ports.TreeLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithLifecycleHooks registers observability hooks.
// Calling it more than once merges the hooks in order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCatalog sets the service catalog used by Audit.
func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithName labels the engine in logs (e.g. the tree file name).
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// New initializes an Engine and loads its first tree.
// By default it serves the shipped diagnostic and service catalog.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		eng.loader = content.Loader{}
		if eng.Name == "" {
			eng.Name = "shipped"
		}
	}
	if eng.catalog == nil {
		c, err := content.LoadCatalog()
		if err != nil {
			return nil, fmt.Errorf("failed to load service catalog: %w", err)
		}
		eng.catalog = c
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("tree", eng.Name)
	}

	if err := eng.Reload(context.Background()); err != nil {
		return nil, err
	}
	return eng, nil
}

// Tree returns the current snapshot.
func (e *Engine) Tree() *tree.Tree {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree
}

// Loader returns the tree source used by Reload.
func (e *Engine) Loader() ports.TreeLoader {
	return e.loader
}

// Catalog returns the service catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Entry returns the entry question of the current tree.
func (e *Engine) Entry() string {
	return e.Tree().Entry()
}

// GetNode looks a node up in the current tree.
func (e *Engine) GetNode(id string) (domain.Node, bool) {
	return e.Tree().GetNode(id)
}

// IsTerminal reports whether id names a Result in the current tree.
func (e *Engine) IsTerminal(id string) bool {
	return e.Tree().IsTerminal(id)
}

// Validate runs the structural validation of the current tree.
func (e *Engine) Validate() []tree.Finding {
	return e.Tree().Validate()
}

// Audit runs validation plus the reachability, cycle and service catalog audits.
func (e *Engine) Audit() tree.Report {
	return e.Tree().Report(e.catalog.Check())
}

// Advance resolves an answer on the current tree and fires the lifecycle hooks.
// The session ID for events is read from ctx (see domain.ContextWithSessionID).
func (e *Engine) Advance(ctx context.Context, currentID string, answerIndex int) (string, error) {
	t := e.Tree()
	base := domain.EventBase{
		Timestamp: time.Now(),
		SessionID: domain.SessionIDFromContext(ctx),
	}

	next, err := t.Advance(currentID, answerIndex)
	if err != nil {
		var ue *domain.UsageError
		if errors.As(err, &ue) {
			e.logger.Warn("advance rejected",
				"node_id", currentID,
				"answer_index", answerIndex,
				"err", err,
			)
			if e.hooks.OnUsageError != nil {
				base.Type = domain.EventUsageError
				e.hooks.OnUsageError(ctx, &domain.UsageEvent{EventBase: base, Err: ue})
			}
		}
		return "", err
	}

	terminal := t.IsTerminal(next)
	ev := &domain.AdvanceEvent{
		EventBase:   base,
		FromID:      currentID,
		AnswerIndex: answerIndex,
		ToID:        next,
		Terminal:    terminal,
	}
	e.logger.Debug("advance", "from", currentID, "answer_index", answerIndex, "to", next, "terminal", terminal)

	if e.hooks.OnAdvance != nil {
		ev.Type = domain.EventAdvance
		e.hooks.OnAdvance(ctx, ev)
	}
	if terminal && e.hooks.OnResult != nil {
		resultEv := *ev
		resultEv.Type = domain.EventResult
		e.hooks.OnResult(ctx, &resultEv)
	}
	return next, nil
}

// Reload loads a fresh tree and swaps it in.
// On failure the current tree is kept.
func (e *Engine) Reload(ctx context.Context) error {
	t, err := e.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tree: %w", err)
	}

	e.mu.Lock()
	e.tree = t
	e.mu.Unlock()

	attrs := []any{
		"entry", t.Entry(),
		"questions", t.CountQuestions(),
		"results", t.CountResults(),
	}
	if findings := t.Validate(); len(findings) > 0 {
		e.logger.Warn("tree loaded with findings",
			append(attrs, "findings", strings.Join(tree.Messages(findings), "; "))...)
	} else {
		e.logger.Info("tree loaded", attrs...)
	}
	return nil
}

// Watch returns a channel that signals when the underlying tree source changes.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, ErrNotWatchable
}

// AutoReload reloads the tree on every change signal until ctx is done.
// A failed reload is logged and the previous tree stays active.
// onReload, if set, runs after every successful reload.
func (e *Engine) AutoReload(ctx context.Context, onReload func()) error {
	changes, err := e.Watch(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if err := e.Reload(ctx); err != nil {
				e.logger.Error("hot reload failed, keeping previous tree", "err", err)
				continue
			}
			if onReload != nil {
				onReload()
			}
		}
	}
}
