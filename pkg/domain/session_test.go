package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_CloneIsDeep(t *testing.T) {
	s := NewSession("s1", "q1")
	s.History = append(s.History, Step{NodeID: "q1", AnswerIndex: 2})
	s.Current = "q2"

	c := s.Clone()
	require.NotSame(t, s, c)
	c.History[0].AnswerIndex = 0
	c.History = append(c.History, Step{NodeID: "q2"})

	assert.Equal(t, 2, s.History[0].AnswerIndex)
	assert.Len(t, s.History, 1)
	assert.Nil(t, (*Session)(nil).Clone())
}

func TestSession_Visited(t *testing.T) {
	s := NewSession("s1", "q1")
	assert.Equal(t, []string{"q1"}, s.Visited())

	s.History = []Step{{NodeID: "q1", AnswerIndex: 1}, {NodeID: "q2-it", AnswerIndex: 3}}
	s.Current = "r-web"
	assert.Equal(t, []string{"q1", "q2-it", "r-web"}, s.Visited())
}

func TestSessionIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, SessionIDFromContext(ctx))
	assert.Equal(t, "abc", SessionIDFromContext(ContextWithSessionID(ctx, "abc")))
}
