package domain

import "encoding/json"

// NodeType tags the two variants of a diagnostic node.
type NodeType string

const (
	// NodeTypeQuestion presents a prompt and halts waiting for an answer selection.
	NodeTypeQuestion NodeType = "question"
	// NodeTypeResult is a terminal recommendation. It has no outgoing answers.
	NodeTypeResult NodeType = "result"
)

// Node is an entry in the diagnostic graph.
// The set of implementations is closed: *Question and *Result.
type Node interface {
	NodeID() string
	Kind() NodeType
	// CloneNode returns a deep copy so shared trees never leak mutable slices.
	CloneNode() Node

	sealed()
}

// Answer is a labeled edge from a Question to another node.
type Answer struct {
	Text   string `json:"text" yaml:"text"`
	NextID string `json:"next_id" yaml:"next_id"`
}

// Question presents a prompt with an ordered list of answers.
type Question struct {
	ID      string   `json:"id" yaml:"id"`
	Text    string   `json:"text" yaml:"text"`
	Hint    string   `json:"hint,omitempty" yaml:"hint,omitempty"`
	Answers []Answer `json:"answers" yaml:"answers"`
}

// Result is a terminal node recommending services.
type Result struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	// RecommendedServices references the external service catalog, ordered by relevance.
	RecommendedServices []string `json:"recommended_services" yaml:"recommended_services"`
	// ContactPreFill is handed to the contact form textarea.
	ContactPreFill string `json:"contact_pre_fill" yaml:"contact_pre_fill"`
}

func (q *Question) NodeID() string { return q.ID }
func (q *Question) Kind() NodeType { return NodeTypeQuestion }
func (q *Question) sealed()        {}

// CloneNode implements Node.
func (q *Question) CloneNode() Node { return q.Clone() }

// Clone returns a deep copy of the question.
func (q *Question) Clone() *Question {
	c := *q
	if q.Answers != nil {
		c.Answers = make([]Answer, len(q.Answers))
		copy(c.Answers, q.Answers)
	}
	return &c
}

// MarshalJSON includes the variant tag so consumers can switch on "type".
func (q *Question) MarshalJSON() ([]byte, error) {
	type alias Question
	return json.Marshal(struct {
		Type NodeType `json:"type"`
		*alias
	}{NodeTypeQuestion, (*alias)(q)})
}

func (r *Result) NodeID() string { return r.ID }
func (r *Result) Kind() NodeType { return NodeTypeResult }
func (r *Result) sealed()        {}

// CloneNode implements Node.
func (r *Result) CloneNode() Node { return r.Clone() }

// Clone returns a deep copy of the result.
func (r *Result) Clone() *Result {
	c := *r
	if r.RecommendedServices != nil {
		c.RecommendedServices = make([]string, len(r.RecommendedServices))
		copy(c.RecommendedServices, r.RecommendedServices)
	}
	return &c
}

// MarshalJSON includes the variant tag so consumers can switch on "type".
func (r *Result) MarshalJSON() ([]byte, error) {
	type alias Result
	return json.Marshal(struct {
		Type NodeType `json:"type"`
		*alias
	}{NodeTypeResult, (*alias)(r)})
}
