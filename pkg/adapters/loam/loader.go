// Package loam loads a tree from a Loam vault: a directory of Markdown (or JSON/YAML)
// documents, one node per file.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/shindan/internal/compiler"
	"github.com/aretw0/shindan/pkg/domain"
	"github.com/aretw0/shindan/pkg/tree"
	"github.com/mitchellh/mapstructure"
)

// WatchPattern selects the vault files that can hold nodes.
const WatchPattern = "**/*.{md,json,yaml,yml}"

// Loader adapts a Loam repository to ports.TreeLoader.
type Loader struct {
	Repo   *loam.TypedRepository[NodeMetadata]
	entry  string
	parser *compiler.Parser
}

// Option configures the Loader.
type Option func(*Loader)

// WithEntry names the entry question, overriding any `entry: true` frontmatter.
func WithEntry(id string) Option {
	return func(l *Loader) {
		l.entry = id
	}
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[NodeMetadata], opts ...Option) *Loader {
	l := &Loader{
		Repo:   repo,
		parser: compiler.NewParser(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open initializes a read-only, strict Loam repository at dir.
func Open(dir string, opts ...Option) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open loam vault %s: %w", absPath, err)
	}
	return New(loam.NewTypedRepository[NodeMetadata](repo), opts...), nil
}

// Load lists the vault and compiles every document into a tree.
// Nodes are declared in ID order so findings are stable across file systems.
func (l *Loader) Load(ctx context.Context) (*tree.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	doc := &compiler.Document{Entry: l.entry}
	var flagged []string

	for _, d := range docs {
		rawID := d.Data.ID
		if rawID == "" {
			rawID = d.ID
		}
		id := trimExtension(rawID)

		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existing, d.ID)
		}
		seen[id] = d.ID

		spec, err := toSpec(id, d.Data, d.Content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.ID, err)
		}
		doc.Nodes = append(doc.Nodes, spec)
		if d.Data.Entry {
			flagged = append(flagged, id)
		}
	}

	sort.Slice(doc.Nodes, func(i, j int) bool { return doc.Nodes[i].ID < doc.Nodes[j].ID })

	if doc.Entry == "" {
		switch len(flagged) {
		case 1:
			doc.Entry = flagged[0]
		case 0:
			return nil, fmt.Errorf("%w: no node is marked `entry: true`", tree.ErrInvalidTree)
		default:
			sort.Strings(flagged)
			return nil, fmt.Errorf("%w: several entry nodes: %s", tree.ErrInvalidTree, strings.Join(flagged, ", "))
		}
	}

	if err := l.parser.Check(doc); err != nil {
		return nil, err
	}
	return l.parser.Compile(doc)
}

func toSpec(id string, meta NodeMetadata, body string) (compiler.NodeSpec, error) {
	spec := compiler.NodeSpec{
		Type:                meta.Type,
		ID:                  id,
		Text:                meta.Text,
		Hint:                meta.Hint,
		Title:               meta.Title,
		Description:         meta.Description,
		RecommendedServices: meta.RecommendedServices,
		ContactPreFill:      meta.ContactPreFill,
	}

	for i, raw := range meta.Answers {
		var a compiler.AnswerSpec
		if err := mapstructure.Decode(raw, &a); err != nil {
			return spec, fmt.Errorf("answers[%d]: %w", i, err)
		}
		spec.Answers = append(spec.Answers, a)
	}

	body = strings.TrimSpace(body)
	switch domain.NodeType(meta.Type) {
	case domain.NodeTypeQuestion:
		if spec.Hint == "" {
			spec.Hint = body
		}
	case domain.NodeTypeResult:
		if spec.Description == "" {
			spec.Description = body
		}
	}
	return spec, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
// Loam debounces the underlying file events.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := l.Repo.Watch(ctx, WatchPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- struct{}{}:
				default:
					// A reload is already pending.
				}
			}
		}
	}()
	return ch, nil
}
