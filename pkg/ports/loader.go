package ports

import (
	"context"

	"github.com/aretw0/shindan/pkg/tree"
)

// TreeLoader defines how the engine obtains its tree.
// Implementations compile their source on every call; callers decide how long to keep the result.
type TreeLoader interface {
	Load(ctx context.Context) (*tree.Tree, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload in `shindan serve --watch`.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying source changes.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
