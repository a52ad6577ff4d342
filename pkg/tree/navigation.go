package tree

import "github.com/aretw0/shindan/pkg/domain"

// GetNode returns a copy of the node with the given ID.
// Absence is a normal outcome (ok == false), never an error.
func (t *Tree) GetNode(id string) (domain.Node, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, false
	}
	return n.CloneNode(), true
}

// Question returns the question with the given ID, or false if it is absent or a Result.
func (t *Tree) Question(id string) (*domain.Question, bool) {
	q, ok := t.question(id)
	if !ok {
		return nil, false
	}
	return q.Clone(), true
}

// Result returns the result with the given ID, or false if it is absent or a Question.
func (t *Tree) Result(id string) (*domain.Result, bool) {
	r, ok := t.nodes[id].(*domain.Result)
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// Advance returns the NextID of the selected answer of question currentID.
// It is a pure function of the tree and its inputs; callers own the current position.
// Misuse fails with a *domain.UsageError: unknown ID, Result node, or out-of-range index.
func (t *Tree) Advance(currentID string, answerIndex int) (string, error) {
	n, ok := t.nodes[currentID]
	if !ok {
		return "", &domain.UsageError{Op: "advance", NodeID: currentID, AnswerIndex: answerIndex, Err: domain.ErrUnknownNode}
	}

	q, ok := n.(*domain.Question)
	if !ok {
		return "", &domain.UsageError{Op: "advance", NodeID: currentID, AnswerIndex: answerIndex, Err: domain.ErrTerminalNode}
	}

	if answerIndex < 0 || answerIndex >= len(q.Answers) {
		return "", &domain.UsageError{Op: "advance", NodeID: currentID, AnswerIndex: answerIndex, Err: domain.ErrAnswerOutOfRange}
	}

	return q.Answers[answerIndex].NextID, nil
}

// IsTerminal reports whether id names a Result node.
// Unknown IDs are not terminal.
func (t *Tree) IsTerminal(id string) bool {
	n, ok := t.nodes[id]
	return ok && n.Kind() == domain.NodeTypeResult
}

// Walk follows answerIndices from the entry point and returns every node ID visited,
// entry included. It stops with the first usage error.
func (t *Tree) Walk(answerIndices ...int) ([]string, error) {
	visited := []string{t.entry}
	current := t.entry
	for _, idx := range answerIndices {
		next, err := t.Advance(current, idx)
		if err != nil {
			return visited, err
		}
		visited = append(visited, next)
		current = next
	}
	return visited, nil
}
