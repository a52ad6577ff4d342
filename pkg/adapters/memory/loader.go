package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/shindan/pkg/domain"
	"github.com/aretw0/shindan/pkg/tree"
)

// Loader implements ports.TreeLoader over nodes already held in memory.
// It is used by the Go DSL and by tests.
type Loader struct {
	mu       sync.RWMutex
	entry    string
	nodes    []domain.Node
	watchers []chan struct{}
}

// NewLoader creates a loader serving copies of nodes rooted at entryID.
func NewLoader(entryID string, nodes ...domain.Node) *Loader {
	return &Loader{entry: entryID, nodes: cloneAll(nodes)}
}

// NewFromTree creates a loader serving the nodes of an already compiled tree.
func NewFromTree(t *tree.Tree) *Loader {
	return &Loader{entry: t.Entry(), nodes: t.Nodes()}
}

// Load compiles a fresh tree from the held nodes.
func (l *Loader) Load(ctx context.Context) (*tree.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	entry, nodes := l.entry, cloneAll(l.nodes)
	l.mu.RUnlock()

	t, err := tree.New(entry, nodes...)
	if err != nil {
		return nil, fmt.Errorf("memory loader: %w", err)
	}
	return t, nil
}

// Replace swaps the served nodes and signals every watcher.
func (l *Loader) Replace(entryID string, nodes ...domain.Node) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entry = entryID
	l.nodes = cloneAll(nodes)

	// Watchers are only closed under l.mu, so these sends cannot hit a closed channel.
	for _, ch := range l.watchers {
		select {
		case ch <- struct{}{}:
		default:
			// A reload is already pending.
		}
	}
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	l.mu.Lock()
	l.watchers = append(l.watchers, ch)
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, w := range l.watchers {
			if w == ch {
				l.watchers = append(l.watchers[:i], l.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func cloneAll(nodes []domain.Node) []domain.Node {
	out := make([]domain.Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			out = append(out, n.CloneNode())
		} else {
			out = append(out, nil)
		}
	}
	return out
}
