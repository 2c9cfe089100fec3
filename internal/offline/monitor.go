package offline

import (
	"context"
	"sync"
	"time"

	"github.com/smsm300/fox-kiro-v5/internal/logger"
)

// Monitor tracks upstream connectivity and fans state changes out to
// subscribers. With no upstream configured the store runs standalone:
// permanently "offline" for sync purposes but exempt from the destructive-op
// guard, since the local database is then the only authority.
type Monitor struct {
	mu         sync.RWMutex
	online     bool
	standalone bool
	listeners  map[int]func(online bool)
	nextID     int

	upstream Upstream
	interval time.Duration
}

func NewMonitor(upstream Upstream, interval time.Duration) *Monitor {
	return &Monitor{
		standalone: upstream == nil,
		listeners:  make(map[int]func(bool)),
		upstream:   upstream,
		interval:   interval,
	}
}

func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

func (m *Monitor) Standalone() bool {
	return m.standalone
}

// Subscribe registers a listener called on every state change. Returns an id
// for Unsubscribe.
func (m *Monitor) Subscribe(fn func(online bool)) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.listeners[m.nextID] = fn
	return m.nextID
}

func (m *Monitor) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listeners, id)
}

// SetOnline flips the state and notifies listeners on change. Exposed for the
// probe loop and for tests/ops tooling.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	fns := make([]func(bool), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	logger.L.Info("network state changed", "online", online)
	for _, fn := range fns {
		fn(online)
	}
}

// Start probes the upstream until ctx is done. No-op when standalone.
func (m *Monitor) Start(ctx context.Context) {
	if m.standalone {
		return
	}
	go func() {
		m.probe(ctx)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.probe(ctx)
			}
		}
	}()
}

func (m *Monitor) probe(ctx context.Context) {
	err := m.upstream.Ping(ctx)
	m.SetOnline(err == nil)
}
