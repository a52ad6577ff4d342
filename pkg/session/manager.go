package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/shindan/internal/logging"
	"github.com/aretw0/shindan/pkg/domain"
	"github.com/aretw0/shindan/pkg/ports"
	"github.com/aretw0/shindan/pkg/tree"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed session lock is held.
const DefaultLockTTL = 30 * time.Second

// Navigator is the part of the engine a Manager walks through.
// *shindan.Engine implements it; TreeNavigator adapts a bare tree.
type Navigator interface {
	Entry() string
	Advance(ctx context.Context, currentID string, answerIndex int) (string, error)
}

// TreeNavigator adapts a tree to Navigator.
func TreeNavigator(t *tree.Tree) Navigator {
	return treeNavigator{t}
}

type treeNavigator struct{ t *tree.Tree }

func (n treeNavigator) Entry() string { return n.t.Entry() }

func (n treeNavigator) Advance(_ context.Context, currentID string, answerIndex int) (string, error) {
	return n.t.Advance(currentID, answerIndex)
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	nav   Navigator
	store ports.SessionStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	newID   func() string
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithIDGenerator overrides the random UUID session IDs.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a Manager walking nav and persisting to store.
func NewManager(nav Navigator, store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		nav:     nav,
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST lock entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Start opens a new session at the entry point.
func (m *Manager) Start(ctx context.Context) (*domain.Session, error) {
	s := domain.NewSession(m.newID(), m.nav.Entry())
	s.StartedAt = m.now()
	s.UpdatedAt = s.StartedAt

	err := m.WithLock(ctx, s.ID, func(ctx context.Context) error {
		if err := m.store.Save(ctx, s); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Debug("session started", "session_id", s.ID, "node_id", s.Current)
	return s, nil
}

// Load retrieves an existing session.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		s, err = m.store.Load(ctx, sessionID)
		return err
	})
	return s, err
}

// Answer picks an answer on the session's current question and moves it forward.
// A rejected answer leaves the stored session untouched and returns the *domain.UsageError.
func (m *Manager) Answer(ctx context.Context, sessionID string, answerIndex int) (*domain.Session, error) {
	return m.update(ctx, sessionID, func(ctx context.Context, s *domain.Session) error {
		next, err := m.nav.Advance(domain.ContextWithSessionID(ctx, s.ID), s.Current, answerIndex)
		if err != nil {
			return err
		}
		s.History = append(s.History, domain.Step{NodeID: s.Current, AnswerIndex: answerIndex})
		s.Current = next
		return nil
	})
}

// Back returns the session to the previous question.
// It fails with domain.ErrNoHistory when nothing has been answered yet.
func (m *Manager) Back(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.update(ctx, sessionID, func(_ context.Context, s *domain.Session) error {
		if len(s.History) == 0 {
			return domain.ErrNoHistory
		}
		last := s.History[len(s.History)-1]
		s.History = s.History[:len(s.History)-1]
		s.Current = last.NodeID
		return nil
	})
}

// Reset moves the session back to the entry point and clears its history.
func (m *Manager) Reset(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.update(ctx, sessionID, func(_ context.Context, s *domain.Session) error {
		s.Current = m.nav.Entry()
		s.History = []domain.Step{}
		return nil
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// update runs a load-modify-save cycle under the session lock.
func (m *Manager) update(ctx context.Context, sessionID string, fn func(context.Context, *domain.Session) error) (*domain.Session, error) {
	var out *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(ctx, s); err != nil {
			return err
		}
		s.UpdatedAt = m.now()
		if err := m.store.Save(ctx, s); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
