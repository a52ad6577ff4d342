package dsl

import "github.com/aretw0/shindan/pkg/domain"

// QuestionBuilder provides a fluent API for configuring a question.
type QuestionBuilder struct {
	q *domain.Question
}

// Text sets the prompt.
func (b *QuestionBuilder) Text(text string) *QuestionBuilder {
	b.q.Text = text
	return b
}

// Hint sets the supplementary line shown under the prompt.
func (b *QuestionBuilder) Hint(hint string) *QuestionBuilder {
	b.q.Hint = hint
	return b
}

// Answer appends an answer leading to next.
func (b *QuestionBuilder) Answer(text, next string) *QuestionBuilder {
	b.q.Answers = append(b.q.Answers, domain.Answer{Text: text, NextID: next})
	return b
}

// ResultBuilder provides a fluent API for configuring a result.
type ResultBuilder struct {
	r *domain.Result
}

// Title sets the heading.
func (b *ResultBuilder) Title(title string) *ResultBuilder {
	b.r.Title = title
	return b
}

// Description sets the body text.
func (b *ResultBuilder) Description(desc string) *ResultBuilder {
	b.r.Description = desc
	return b
}

// Recommend appends service IDs, most relevant first.
func (b *ResultBuilder) Recommend(serviceIDs ...string) *ResultBuilder {
	b.r.RecommendedServices = append(b.r.RecommendedServices, serviceIDs...)
	return b
}

// PreFill sets the contact form text.
func (b *ResultBuilder) PreFill(text string) *ResultBuilder {
	b.r.ContactPreFill = text
	return b
}
