package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Manager keeps one controller per open tab, keyed by a generated id.
// Sessions idle for longer than the TTL are closed and forgotten.
type Manager struct {
	sessions      *cache.Cache
	newController func() *Controller
	logger        *zap.Logger
}

// NewManager creates a manager. newController must return a fresh,
// uninitialized controller on every call.
func NewManager(idleTTL time.Duration, newController func() *Controller, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	cleanup := idleTTL / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}

	sessions := cache.New(idleTTL, cleanup)
	sessions.OnEvicted(func(id string, v interface{}) {
		if ctrl, ok := v.(*Controller); ok {
			ctrl.Close()
		}
		logger.Debug("session closed", zap.String("session_id", id))
	})

	return &Manager{
		sessions:      sessions,
		newController: newController,
		logger:        logger,
	}
}

// Create starts a session for the page that host represents.
func (m *Manager) Create(ctx context.Context, host Host) (string, State, error) {
	ctrl := m.newController()
	st, err := ctrl.Init(ctx, host)
	if err != nil {
		ctrl.Close()
		return "", st, err
	}

	id := uuid.NewString()
	m.sessions.Set(id, ctrl, cache.DefaultExpiration)
	m.logger.Info("session started",
		zap.String("session_id", id),
		zap.String("user", st.UserName),
		zap.String("state", st.UI.String()))
	return id, st, nil
}

// Get returns the controller of a session and extends its lifetime.
func (m *Manager) Get(id string) (*Controller, error) {
	v, found := m.sessions.Get(id)
	if !found {
		return nil, ErrNotFound
	}
	m.sessions.Set(id, v, cache.DefaultExpiration)
	return v.(*Controller), nil
}

// End closes one session.
func (m *Manager) End(id string) error {
	if _, found := m.sessions.Get(id); !found {
		return ErrNotFound
	}
	m.sessions.Delete(id)
	return nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	return m.sessions.ItemCount()
}

// Close ends every session.
func (m *Manager) Close() {
	for id := range m.sessions.Items() {
		m.sessions.Delete(id)
	}
}
