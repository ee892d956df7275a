package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lauri/vocaflow/internal/logger"
	"github.com/lauri/vocaflow/internal/repository"
	"github.com/lauri/vocaflow/internal/syncer"
)

// Manager owns the live sessions, one per login, keyed by an opaque token.
// Lifecycle is create-on-login / destroy-on-logout; two devices of the same
// learner get independent sessions and reconcile through the stores.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	content  repository.ContentRepository
	profiles repository.ProfileRepository
	staging  repository.StagingRepository
	cfg      Config
	debounce time.Duration
	log      *logger.Logger
}

// NewManager creates a session manager.
func NewManager(content repository.ContentRepository, profiles repository.ProfileRepository, staging repository.StagingRepository, cfg Config, debounce time.Duration) *Manager {
	return &Manager{
		sessions: map[string]*Session{},
		content:  content,
		profiles: profiles,
		staging:  staging,
		cfg:      cfg,
		debounce: debounce,
		log:      logger.Default().WithPrefix("session-manager"),
	}
}

// Login builds a session for the learner and returns its token. On failure
// nothing is registered: the caller stays signed out rather than holding a
// session over partial state.
func (m *Manager) Login(ctx context.Context, userID string, opts ...Option) (string, *Session, error) {
	m.log.Info("login: user=%s", userID)

	sy := syncer.New(context.Background(), m.profiles, m.staging, userID, m.debounce)
	sess, err := New(ctx, userID, m.content, sy, m.cfg, opts...)
	if err != nil {
		sy.Close()
		m.log.Error("login failed: user=%s: %v", userID, err)
		return "", nil, err
	}

	token := uuid.NewString()
	m.mu.Lock()
	m.sessions[token] = sess
	m.mu.Unlock()
	return token, sess, nil
}

// Get returns the live session for a token.
func (m *Manager) Get(token string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[token]
	return sess, ok
}

// Logout signs the session out and destroys it. The sign-out flush error is
// returned but the session is removed regardless: operating on a
// half-destroyed session is worse than a missed write.
func (m *Manager) Logout(token string) error {
	m.mu.Lock()
	sess, ok := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return sess.SignOut()
}

// Shutdown signs out every live session, flushing their state.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = map[string]*Session{}
	m.mu.Unlock()

	for _, sess := range sessions {
		if err := sess.SignOut(); err != nil {
			m.log.Warn("shutdown sign-out failed: %v", err)
		}
	}
}
