package compiler

import (
	"fmt"

	"github.com/aretw0/shindan/pkg/domain"
	"github.com/aretw0/shindan/pkg/tree"
)

// Document is the authored form of a tree: an entry point plus a flat list of nodes.
// The same field names are used by every format (YAML, JSON, HCL, Markdown frontmatter).
type Document struct {
	Entry string     `json:"entry" yaml:"entry" mapstructure:"entry" validate:"required"`
	Nodes []NodeSpec `json:"nodes" yaml:"nodes" mapstructure:"nodes" validate:"required,min=1,dive"`
}

// NodeSpec is one authored node. Type selects which fields apply.
type NodeSpec struct {
	Type string `json:"type" yaml:"type" mapstructure:"type" validate:"required,oneof=question result"`
	ID   string `json:"id" yaml:"id" mapstructure:"id" validate:"required"`

	// Question fields
	Text    string       `json:"text,omitempty" yaml:"text,omitempty" mapstructure:"text" validate:"required_if=Type question"`
	Hint    string       `json:"hint,omitempty" yaml:"hint,omitempty" mapstructure:"hint"`
	Answers []AnswerSpec `json:"answers,omitempty" yaml:"answers,omitempty" mapstructure:"answers" validate:"required_if=Type question,excluded_if=Type result,dive"`

	// Result fields
	Title               string   `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title" validate:"required_if=Type result"`
	Description         string   `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	RecommendedServices []string `json:"recommended_services,omitempty" yaml:"recommended_services,omitempty" mapstructure:"recommended_services"`
	ContactPreFill      string   `json:"contact_pre_fill,omitempty" yaml:"contact_pre_fill,omitempty" mapstructure:"contact_pre_fill"`
}

// AnswerSpec is one authored answer.
type AnswerSpec struct {
	Text string `json:"text" yaml:"text" mapstructure:"text" validate:"required"`
	Next string `json:"next" yaml:"next" mapstructure:"next" validate:"required"`
}

// Node converts an authored node into its domain variant.
func (s NodeSpec) Node() (domain.Node, error) {
	switch domain.NodeType(s.Type) {
	case domain.NodeTypeQuestion:
		q := &domain.Question{ID: s.ID, Text: s.Text, Hint: s.Hint}
		for _, a := range s.Answers {
			q.Answers = append(q.Answers, domain.Answer{Text: a.Text, NextID: a.Next})
		}
		return q, nil
	case domain.NodeTypeResult:
		return &domain.Result{
			ID:                  s.ID,
			Title:               s.Title,
			Description:         s.Description,
			RecommendedServices: append([]string(nil), s.RecommendedServices...),
			ContactPreFill:      s.ContactPreFill,
		}, nil
	default:
		return nil, fmt.Errorf("node %q: unknown type %q", s.ID, s.Type)
	}
}

// SpecFromNode is the inverse of NodeSpec.Node.
func SpecFromNode(n domain.Node) NodeSpec {
	switch v := n.(type) {
	case *domain.Question:
		s := NodeSpec{Type: string(domain.NodeTypeQuestion), ID: v.ID, Text: v.Text, Hint: v.Hint}
		for _, a := range v.Answers {
			s.Answers = append(s.Answers, AnswerSpec{Text: a.Text, Next: a.NextID})
		}
		return s
	case *domain.Result:
		return NodeSpec{
			Type:                string(domain.NodeTypeResult),
			ID:                  v.ID,
			Title:               v.Title,
			Description:         v.Description,
			RecommendedServices: append([]string(nil), v.RecommendedServices...),
			ContactPreFill:      v.ContactPreFill,
		}
	}
	return NodeSpec{}
}

// FromTree converts a tree back into its authored form, preserving declaration order.
func FromTree(t *tree.Tree) *Document {
	doc := &Document{Entry: t.Entry()}
	for _, n := range t.Nodes() {
		doc.Nodes = append(doc.Nodes, SpecFromNode(n))
	}
	return doc
}
