package ports

import (
	"context"

	"github.com/aretw0/shindan/pkg/domain"
)

// SessionStore persists server-hosted sessions.
type SessionStore interface {
	// Save persists the session under its ID.
	Save(ctx context.Context, s *domain.Session) error

	// Load retrieves a session.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes a session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of stored sessions.
	List(ctx context.Context) ([]string, error)
}
