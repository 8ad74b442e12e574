// Package session holds the authenticated state of the console user
package session

import (
	"context"
	"sync"

	"github.com/stockadmin/console/internal/models"
	"go.uber.org/zap"
)

// Persister is the interface that wraps durable storage of the current session.
type Persister interface {
	// Method Load retrieves the stored session.
	//
	// If nothing is stored, "nil" is returned without error.
	Load(ctx context.Context) (*models.Session, error)
	// Method Save stores the session, replacing any previous one.
	Save(ctx context.Context, s models.Session) error
	// Method Delete removes the stored session. Deleting a missing session is not an error.
	Delete(ctx context.Context) error
}

// Manager owns the current session. Reads are served from memory;
// writes go to memory first and then to the optional persister.
type Manager struct {
	mu        sync.RWMutex
	current   models.Session
	persister Persister
	logger    *zap.Logger
}

// NewManager creates a session manager. persister may be nil for a memory-only session.
func NewManager(persister Persister, logger *zap.Logger) *Manager {
	return &Manager{
		persister: persister,
		logger:    logger,
	}
}

// Load restores the persisted session into memory
func (m *Manager) Load(ctx context.Context) error {
	if m.persister == nil {
		return nil
	}

	stored, err := m.persister.Load(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if stored == nil {
		m.current = models.Session{}
		return nil
	}
	m.current = stored.Normalize()
	return nil
}

// Token returns the current access token or an empty string
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.AccessToken
}

// RefreshToken returns the current refresh token or an empty string
func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.RefreshToken
}

// Role returns the current role or an empty role when nobody is logged in
func (m *Manager) Role() models.Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Role
}

// Snapshot returns a copy of the current session
func (m *Manager) Snapshot() models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// SetSession replaces the current session. A session without access token is treated as Clear.
func (m *Manager) SetSession(ctx context.Context, s models.Session) {
	s = s.Normalize()
	if !s.Authenticated() {
		m.Clear(ctx)
		return
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	if m.persister != nil {
		if err := m.persister.Save(ctx, s); err != nil {
			m.logger.Warn("failed to persist session", zap.Int("userId", s.UserID), zap.Error(err))
		}
	}
}

// Clear logs the user out locally
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	m.current = models.Session{}
	m.mu.Unlock()

	if m.persister != nil {
		if err := m.persister.Delete(ctx); err != nil {
			m.logger.Warn("failed to delete persisted session", zap.Error(err))
		}
	}
}
