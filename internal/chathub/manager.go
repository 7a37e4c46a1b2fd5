package chathub

import (
	"context"
	"sync"

	"fitnest/client/internal/auth"
	"fitnest/client/internal/logging"

	"go.uber.org/zap"
)

// SessionFactory builds a session for a partner. Tests swap it out.
type SessionFactory func(self *auth.Session, partnerID int64) *Session

// Manager keeps at most one live session per partner for the active user.
type Manager struct {
	self     *auth.Session
	factory  SessionFactory
	logger   *zap.Logger
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewManager returns a manager that opens sessions with history and opts.
func NewManager(self *auth.Session, history HistoryFetcher, opts Options) *Manager {
	logger := logging.OrNop(opts.Logger)
	return &Manager{
		self: self,
		factory: func(self *auth.Session, partnerID int64) *Session {
			return NewSession(self, partnerID, history, opts)
		},
		logger:   logger,
		sessions: make(map[int64]*Session),
	}
}

// SetSessionFactory replaces how sessions are built.
func (m *Manager) SetSessionFactory(f SessionFactory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factory = f
}

// Open returns the live session for partnerID, opening a new one if there is
// none or the previous one has closed.
func (m *Manager) Open(ctx context.Context, partnerID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[partnerID]; ok {
		if s.State() != StateClosed {
			return s, nil
		}
		delete(m.sessions, partnerID)
		_ = s.Close()
	}

	s := m.factory(m.self, partnerID)
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	m.sessions[partnerID] = s
	m.logger.Debug("registered chat session", zap.Int64("partner_id", partnerID), zap.String("session_id", s.ID()))
	return s, nil
}

// Len reports how many sessions the manager holds.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Release closes and forgets the session for partnerID.
func (m *Manager) Release(partnerID int64) {
	m.mu.Lock()
	s, ok := m.sessions[partnerID]
	delete(m.sessions, partnerID)
	m.mu.Unlock()

	if ok {
		_ = s.Close()
	}
}

// CloseAll closes every session, e.g. on logout.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[int64]*Session)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Close()
		}()
	}
	wg.Wait()
}
