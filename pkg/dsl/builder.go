package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/shindan/pkg/adapters/memory"
	"github.com/aretw0/shindan/pkg/domain"
	"github.com/aretw0/shindan/pkg/tree"
)

// Builder manages the tree construction.
// Nodes are declared in the order they are first added.
type Builder struct {
	order     []string
	questions map[string]*QuestionBuilder
	results   map[string]*ResultBuilder
	errs      []error
}

// New creates a new tree builder.
func New() *Builder {
	return &Builder{
		questions: make(map[string]*QuestionBuilder),
		results:   make(map[string]*ResultBuilder),
	}
}

// Question adds a question, or returns the existing builder for id.
func (b *Builder) Question(id string) *QuestionBuilder {
	if qb, ok := b.questions[id]; ok {
		return qb
	}
	if _, clash := b.results[id]; clash {
		b.errs = append(b.errs, fmt.Errorf("%q is already declared as a result", id))
	}
	qb := &QuestionBuilder{q: &domain.Question{ID: id}}
	b.questions[id] = qb
	b.order = append(b.order, id)
	return qb
}

// Result adds a result, or returns the existing builder for id.
func (b *Builder) Result(id string) *ResultBuilder {
	if rb, ok := b.results[id]; ok {
		return rb
	}
	if _, clash := b.questions[id]; clash {
		b.errs = append(b.errs, fmt.Errorf("%q is already declared as a question", id))
	}
	rb := &ResultBuilder{r: &domain.Result{ID: id}}
	b.results[id] = rb
	b.order = append(b.order, id)
	return rb
}

func (b *Builder) nodes() ([]domain.Node, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("%w: %w", tree.ErrInvalidTree, errors.Join(b.errs...))
	}
	nodes := make([]domain.Node, 0, len(b.order))
	for _, id := range b.order {
		if qb, ok := b.questions[id]; ok {
			nodes = append(nodes, qb.q)
			continue
		}
		nodes = append(nodes, b.results[id].r)
	}
	return nodes, nil
}

// Build compiles the declared nodes into a tree rooted at entryID.
func (b *Builder) Build(entryID string) (*tree.Tree, error) {
	nodes, err := b.nodes()
	if err != nil {
		return nil, err
	}
	return tree.New(entryID, nodes...)
}

// Loader compiles the tree and wraps it in a memory loader.
func (b *Builder) Loader(entryID string) (*memory.Loader, error) {
	t, err := b.Build(entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return memory.NewFromTree(t), nil
}
