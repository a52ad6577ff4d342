package domain

import (
	"context"
	"time"
)

// Step is one answered question in a session's history.
type Step struct {
	NodeID      string `json:"node_id"`
	AnswerIndex int    `json:"answer_index"`
}

// Session is a server-hosted walk through a tree.
// The tree engine itself never holds one; it exists for surfaces that cannot
// keep the current node on the client (HTTP sessions, the terminal runner).
type Session struct {
	ID        string    `json:"id"`
	Current   string    `json:"current"`
	History   []Step    `json:"history"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed holds the encrypted walk when the session passed through an
	// encrypting store. Current and History are empty while it is set.
	Sealed string `json:"sealed,omitempty"`
}

// NewSession starts a session at the given node.
func NewSession(id, entryID string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Current:   entryID,
		History:   []Step{},
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.History = append([]Step{}, s.History...)
	return &c
}

// Visited returns the node IDs of the walk so far, ending with Current.
func (s *Session) Visited() []string {
	ids := make([]string, 0, len(s.History)+1)
	for _, st := range s.History {
		ids = append(ids, st.NodeID)
	}
	return append(ids, s.Current)
}

type sessionKey struct{}

// ContextWithSessionID tags ctx so lifecycle events can name the session they belong to.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionIDFromContext returns the session ID set by ContextWithSessionID, if any.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
