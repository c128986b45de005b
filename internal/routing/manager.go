package routing

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ManagerConfig holds configuration for the session manager.
type ManagerConfig struct {
	// Session is the config template for new sessions.
	Session SessionConfig

	// IdleTTL evicts sessions untouched for this long (default: 30 minutes).
	IdleTTL time.Duration

	// CleanupInterval is how often to sweep idle sessions (default: 5 minutes).
	CleanupInterval time.Duration

	// Logger for manager operations.
	Logger zerolog.Logger
}

// Manager owns one routing session per client key, creating them on
// demand and evicting idle ones. Eviction resets the session, which
// cancels any straggling computation.
type Manager struct {
	sessionCfg      SessionConfig
	idleTTL         time.Duration
	cleanupInterval time.Duration
	logger          zerolog.Logger

	mu          sync.Mutex
	sessions    map[string]*managedSession
	lastCleanup time.Time
}

type managedSession struct {
	session   *Session
	touchedAt time.Time
}

// NewManager creates a session manager.
func NewManager(cfg ManagerConfig) *Manager {
	idleTTL := cfg.IdleTTL
	if idleTTL == 0 {
		idleTTL = 30 * time.Minute
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 5 * time.Minute
	}

	return &Manager{
		sessionCfg:      cfg.Session,
		idleTTL:         idleTTL,
		cleanupInterval: cleanupInterval,
		logger:          cfg.Logger,
		sessions:        make(map[string]*managedSession),
	}
}

// Session returns the session for a client key, creating it on first
// use.
func (m *Manager) Session(key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	ms, ok := m.sessions[key]
	if !ok {
		ms = &managedSession{session: NewSession(m.sessionCfg)}
		m.sessions[key] = ms
		m.logger.Debug().Str("session_key", key).Msg("created routing session")
	}
	ms.touchedAt = now

	m.cleanupLocked(now)
	return ms.session
}

// Remove resets and drops a client's session.
func (m *Manager) Remove(key string) {
	m.mu.Lock()
	ms, ok := m.sessions[key]
	if ok {
		delete(m.sessions, key)
	}
	m.mu.Unlock()

	if ok {
		ms.session.Reset()
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// cleanupLocked evicts idle sessions if the cleanup interval has passed.
func (m *Manager) cleanupLocked(now time.Time) {
	if now.Sub(m.lastCleanup) < m.cleanupInterval {
		return
	}
	m.lastCleanup = now

	evicted := 0
	for key, ms := range m.sessions {
		if now.Sub(ms.touchedAt) < m.idleTTL {
			continue
		}
		delete(m.sessions, key)
		ms.session.Reset()
		evicted++
	}

	if evicted > 0 {
		m.logger.Debug().
			Int("evicted_sessions", evicted).
			Msg("evicted idle routing sessions")
	}
}
