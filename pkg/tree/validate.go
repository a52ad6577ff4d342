package tree

import (
	"fmt"

	"github.com/aretw0/shindan/pkg/domain"
)

// FindingKind classifies a content problem.
type FindingKind string

const (
	// FindingDanglingAnswer: an answer points to an ID that is not in the tree.
	FindingDanglingAnswer FindingKind = "dangling_answer"
	// FindingNoRecommendations: a result lists no recommended services.
	FindingNoRecommendations FindingKind = "no_recommendations"
	// FindingUnknownService: a result recommends a service missing from the catalog.
	FindingUnknownService FindingKind = "unknown_service"
)

// Finding is one structural content problem, reported as data.
type Finding struct {
	Kind        FindingKind `json:"kind"`
	NodeID      string      `json:"node_id"`
	AnswerIndex int         `json:"answer_index"`
	AnswerText  string      `json:"answer_text,omitempty"`
	// Target is the missing node ID or unknown service ID, depending on Kind.
	Target string `json:"target,omitempty"`
}

func (f Finding) String() string {
	switch f.Kind {
	case FindingDanglingAnswer:
		return fmt.Sprintf("Question %q answer %q points to missing node %q", f.NodeID, f.AnswerText, f.Target)
	case FindingNoRecommendations:
		return fmt.Sprintf("Result %q has no recommended services", f.NodeID)
	case FindingUnknownService:
		return fmt.Sprintf("Result %q recommends unknown service %q", f.NodeID, f.Target)
	default:
		return fmt.Sprintf("%s: %s", f.Kind, f.NodeID)
	}
}

// Check is an additional audit over a tree, such as a catalog cross-reference.
type Check func(*Tree) []Finding

// Validate scans the whole tree and returns one finding per violation of:
// every answer resolves to an existing node, and every result recommends at least one service.
// The result is empty iff the tree is well-formed. Order is declaration order, then answer order.
func (t *Tree) Validate() []Finding {
	var findings []Finding

	for _, id := range t.order {
		switch n := t.nodes[id].(type) {
		case *domain.Question:
			for i, a := range n.Answers {
				if _, ok := t.nodes[a.NextID]; !ok {
					findings = append(findings, Finding{
						Kind:        FindingDanglingAnswer,
						NodeID:      n.ID,
						AnswerIndex: i,
						AnswerText:  a.Text,
						Target:      a.NextID,
					})
				}
			}
		case *domain.Result:
			if len(n.RecommendedServices) == 0 {
				findings = append(findings, Finding{
					Kind:   FindingNoRecommendations,
					NodeID: n.ID,
				})
			}
		}
	}

	return findings
}

// Messages renders findings as human-readable lines.
func Messages(findings []Finding) []string {
	msgs := make([]string, len(findings))
	for i, f := range findings {
		msgs[i] = f.String()
	}
	return msgs
}
