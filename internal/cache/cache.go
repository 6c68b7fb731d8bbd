// Package cache holds the in-process LRU, the view Store implementations
// and the janitor that expires their entries.
package cache

import (
	"sync"
	"time"

	"pennywise/internal/log"
)

// Cache is the synchronous key/value surface of LRUCache.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

var _ Cache[int] = (*LRUCache[int])(nil)

// Cleaner is anything holding entries that can expire.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps the registered caches on an interval.
type Manager struct {
	logger *log.Logger

	mu       sync.Mutex
	cleaners []Cleaner
	stop     chan struct{}
	done     chan struct{}
}

func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{logger: logger.WithComponent(log.ComponentCache)}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	m.cleaners = append(m.cleaners, c)
	m.mu.Unlock()
}

// StartCleanup launches the sweeper. A second call while one runs is a no-op.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.sweep(interval, m.stop, m.done)
}

func (m *Manager) sweep(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 {
				m.logger.Debug("Expired cache entries removed", log.FieldCount, n)
			}
		case <-stop:
			return
		}
	}
}

// CleanNow runs one pass and reports how many entries were dropped.
func (m *Manager) CleanNow() int {
	m.mu.Lock()
	cleaners := append([]Cleaner(nil), m.cleaners...)
	m.mu.Unlock()

	n := 0
	for _, c := range cleaners {
		n += c.CleanExpired()
	}
	return n
}

// Stop halts the sweeper and waits for it. Calling it without StartCleanup,
// or more than once, is fine.
func (m *Manager) Stop() {
	m.mu.Lock()
	stop, done := m.stop, m.done
	m.stop, m.done = nil, nil
	m.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}
