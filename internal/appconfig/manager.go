package appconfig

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Manager wraps a Service with an atomically-readable cached Config and
// optional hot-reload: call Watch to re-run Load whenever a watched
// Provider's source changes (the YAML config file, typically), debounced so
// a burst of writes from an editor doesn't trigger a reload storm.
type Manager struct {
	Service *Service

	mu       sync.Mutex
	current  atomic.Pointer[Config]
	debounce time.Duration
	timer    *time.Timer
	closed   chan struct{}
}

// NewManager wraps svc. A nil svc builds a default Service.
func NewManager(svc *Service) *Manager {
	if svc == nil {
		svc = NewService()
	}
	return &Manager{
		Service:  svc,
		debounce: 100 * time.Millisecond,
		closed:   make(chan struct{}),
	}
}

// SetDebounce overrides the reload debounce window.
func (m *Manager) SetDebounce(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debounce = d
}

// Load resolves sources through the underlying Service and caches the
// result for Get. It also registers Watch callbacks on every watchable
// source so a later file change schedules a debounced reload with the same
// source list.
func (m *Manager) Load(ctx context.Context, sources ...Provider) (*Config, error) {
	cfg, err := m.Service.Load(ctx, sources...)
	if err != nil {
		return nil, err
	}
	m.current.Store(cfg)
	for _, src := range sources {
		if src == nil {
			continue
		}
		src := src
		_ = src.Watch(ctx, func() { m.scheduleReload(ctx, sources) })
	}
	return cfg, nil
}

func (m *Manager) scheduleReload(ctx context.Context, sources []Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.debounce, func() {
		select {
		case <-m.closed:
			return
		default:
		}
		cfg, err := m.Service.Load(ctx, sources...)
		if err != nil {
			return
		}
		m.current.Store(cfg)
	})
}

// Get returns the last Config stored by Load, or nil if Load hasn't run.
func (m *Manager) Get() *Config {
	return m.current.Load()
}

// Close stops any pending debounced reload. Safe to call multiple times.
func (m *Manager) Close(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-m.closed:
		return nil
	default:
		close(m.closed)
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	return nil
}
