package tree

import (
	"errors"
	"fmt"

	"github.com/aretw0/shindan/pkg/domain"
)

// ErrInvalidTree is wrapped by every construction error returned from New.
var ErrInvalidTree = errors.New("invalid tree")

// Tree is an immutable question/result graph with a designated entry point.
// It is safe for concurrent use by any number of readers.
type Tree struct {
	entry string
	nodes map[string]domain.Node
	// order keeps declaration order so reports are deterministic.
	order []string
}

// New builds a tree from the given nodes.
// It rejects empty or duplicate IDs and an entry point that is missing or not a Question.
// Dangling answers and empty recommendations are NOT rejected here; see Validate.
func New(entryID string, nodes ...domain.Node) (*Tree, error) {
	t := &Tree{
		entry: entryID,
		nodes: make(map[string]domain.Node, len(nodes)),
		order: make([]string, 0, len(nodes)),
	}

	for i, n := range nodes {
		if n == nil {
			return nil, fmt.Errorf("%w: node #%d is nil", ErrInvalidTree, i)
		}
		id := n.NodeID()
		if id == "" {
			return nil, fmt.Errorf("%w: node #%d has no id", ErrInvalidTree, i)
		}
		if _, dup := t.nodes[id]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %q", ErrInvalidTree, id)
		}
		t.nodes[id] = n.CloneNode()
		t.order = append(t.order, id)
	}

	if entryID == "" {
		return nil, fmt.Errorf("%w: entry point is empty", ErrInvalidTree)
	}
	entry, ok := t.nodes[entryID]
	if !ok {
		return nil, fmt.Errorf("%w: entry point %q not found", ErrInvalidTree, entryID)
	}
	if entry.Kind() != domain.NodeTypeQuestion {
		return nil, fmt.Errorf("%w: entry point %q must be a question", ErrInvalidTree, entryID)
	}

	return t, nil
}

// Entry returns the root question ID where traversal begins.
func (t *Tree) Entry() string {
	return t.entry
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.order)
}

// IDs returns all node IDs in declaration order.
func (t *Tree) IDs() []string {
	ids := make([]string, len(t.order))
	copy(ids, t.order)
	return ids
}

// Nodes returns deep copies of all nodes in declaration order.
// Mutating the result never affects the tree, which makes it the way to derive
// a modified tree: copy, edit, pass back to New.
func (t *Tree) Nodes() []domain.Node {
	out := make([]domain.Node, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.nodes[id].CloneNode())
	}
	return out
}

// CountQuestions returns the number of Question nodes.
func (t *Tree) CountQuestions() int {
	return t.count(domain.NodeTypeQuestion)
}

// CountResults returns the number of Result nodes.
func (t *Tree) CountResults() int {
	return t.count(domain.NodeTypeResult)
}

func (t *Tree) count(kind domain.NodeType) int {
	n := 0
	for _, node := range t.nodes {
		if node.Kind() == kind {
			n++
		}
	}
	return n
}

// question returns the stored question without copying. Internal use only.
func (t *Tree) question(id string) (*domain.Question, bool) {
	q, ok := t.nodes[id].(*domain.Question)
	return q, ok
}
