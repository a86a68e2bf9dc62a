package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/pkg/constants"
	"github.com/ougirez/shoplist/internal/pkg/logger"
)

// Manager keeps the live sessions of all users, keyed by session id.
type Manager struct {
	deps    Deps
	cfg     Config
	idleTTL time.Duration

	sessions map[uuid.UUID]*Session
	mutex    sync.RWMutex

	now func() time.Time
}

func NewManager(deps Deps, cfg Config, idleTTL time.Duration) *Manager {
	return &Manager{
		deps:     deps,
		cfg:      cfg,
		idleTTL:  idleTTL,
		sessions: make(map[uuid.UUID]*Session),
		now:      time.Now,
	}
}

// Create registers a new session and loads its catalog. The session is kept
// even if the load fails so that the client can retry it.
func (m *Manager) Create(ctx context.Context, creds domain.Credentials) (*Session, error) {
	s := New(creds, m.deps, m.cfg)
	s.touch(m.now())

	m.mutex.Lock()
	m.sessions[s.ID()] = s
	m.mutex.Unlock()

	if err := s.Start(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// Get returns the caller's session and marks it as active.
func (m *Manager) Get(id string, creds domain.Credentials) (*Session, error) {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", constants.ErrSessionNotFound, id)
	}

	m.mutex.RLock()
	s, ok := m.sessions[sessionID]
	m.mutex.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", constants.ErrSessionNotFound, id)
	}
	if s.owner() != creds.UserID {
		return nil, fmt.Errorf("%w: session %s belongs to another user", constants.ErrForbidden, id)
	}

	s.setCredentials(creds)
	s.touch(m.now())

	return s, nil
}

// Remove closes the session, cancelling anything still in flight.
func (m *Manager) Remove(id string, creds domain.Credentials) error {
	s, err := m.Get(id, creds)
	if err != nil {
		return err
	}

	m.mutex.Lock()
	delete(m.sessions, s.ID())
	m.mutex.Unlock()

	s.Close()
	return nil
}

func (m *Manager) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return len(m.sessions)
}

// Run evicts idle sessions until ctx is done, then closes the rest.
func (m *Manager) Run(ctx context.Context) {
	interval := m.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return
		case <-ticker.C:
			if n := m.evictIdle(); n > 0 {
				logger.Infof(ctx, "evicted %d idle sessions", n)
			}
		}
	}
}

// evictIdle only reads lock-free session fields, so a session busy with a
// slow save cannot stall lookups of other sessions.
func (m *Manager) evictIdle() int {
	deadline := m.now().Add(-m.idleTTL)

	m.mutex.RLock()
	candidates := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		candidates = append(candidates, s)
	}
	m.mutex.RUnlock()

	var expired []*Session
	for _, s := range candidates {
		if s.idleSince().Before(deadline) {
			expired = append(expired, s)
		}
	}

	m.mutex.Lock()
	evicted := expired[:0]
	for _, s := range expired {
		if m.sessions[s.ID()] == s && s.idleSince().Before(deadline) {
			delete(m.sessions, s.ID())
			evicted = append(evicted, s)
		}
	}
	m.mutex.Unlock()

	for _, s := range evicted {
		s.Close()
	}
	return len(evicted)
}

func (m *Manager) closeAll() {
	m.mutex.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*Session)
	m.mutex.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
