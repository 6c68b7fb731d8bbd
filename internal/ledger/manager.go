package ledger

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"pennywise/internal/cache"
	"pennywise/internal/gateway"
	"pennywise/internal/log"
)

const (
	DefaultSessionTTL  = 30 * time.Minute
	DefaultSessionSize = 1000
)

// Manager hands out loaded sessions, one per user. Idle sessions expire from
// an LRU cache and are reloaded on the next request.
type Manager struct {
	gw       gateway.Gateway
	events   EventPublisher
	logger   *log.Logger
	sessions *cache.LRUCache[*Session]
	loads    singleflight.Group
}

func NewManager(gw gateway.Gateway, events EventPublisher, size int, ttl time.Duration, logger *log.Logger) *Manager {
	if size <= 0 {
		size = DefaultSessionSize
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = log.Discard()
	}
	m := &Manager{
		gw:       gw,
		events:   events,
		logger:   logger.WithComponent(log.ComponentLedger),
		sessions: cache.NewLRUCache[*Session](size, ttl),
	}
	m.sessions.OnEvict(func(userID string, _ *Session) {
		m.logger.Debug("Session evicted", log.FieldUserID, userID)
	})
	return m
}

// Sessions exposes the session cache so a cache.Manager can sweep it.
func (m *Manager) Sessions() cache.Cleaner { return m.sessions }

// Session returns the loaded session of userID. Concurrent first requests
// for one user share a single load; a failed load is not cached.
func (m *Manager) Session(ctx context.Context, userID string) (*Session, error) {
	if s, ok := m.sessions.Get(userID); ok {
		return s, nil
	}

	v, err, _ := m.loads.Do(userID, func() (any, error) {
		if s, ok := m.sessions.Get(userID); ok {
			return s, nil
		}
		s := NewSession(userID, m.gw, m.events, m.logger)
		if err := s.Load(ctx); err != nil {
			return nil, err
		}
		m.sessions.Set(userID, s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Reload refetches userID's data into its session, creating it if needed.
func (m *Manager) Reload(ctx context.Context, userID string) (*Session, error) {
	s, ok := m.sessions.Get(userID)
	if !ok {
		return m.Session(ctx, userID)
	}
	if err := s.Load(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// Evict drops userID's session.
func (m *Manager) Evict(userID string) {
	m.sessions.Delete(userID)
}

func (m *Manager) Size() int { return m.sessions.Size() }
