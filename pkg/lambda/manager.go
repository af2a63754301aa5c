package lambda

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Loader constructs the wrapped application
type Loader func() LoadResult

// Manager keeps the loaded application and its adapter alive across warm invocations
type Manager struct {
	loader   Loader
	logger   *logrus.Logger
	options  []Option
	adapter  *Adapter
	result   LoadResult
	lastUsed time.Time
	mu       sync.RWMutex
	initOnce sync.Once
}

// NewManager creates a manager that calls loader on first use
func NewManager(loader Loader, logger *logrus.Logger, opts ...Option) *Manager {
	return &Manager{
		loader:  loader,
		logger:  logger,
		options: opts,
	}
}

// Initialize loads the application once. Later calls are no-ops.
func (m *Manager) Initialize() {
	m.initOnce.Do(func() {
		result := m.loader()

		m.mu.Lock()
		defer m.mu.Unlock()

		m.result = result
		m.adapter = NewAdapter(result, m.logger, m.options...)
		m.lastUsed = time.Now()
	})
}

// Adapter returns the adapter, loading the application if necessary
func (m *Manager) Adapter() *Adapter {
	m.Initialize()

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.adapter
}

// Handle is the platform entrypoint
func (m *Manager) Handle(ctx context.Context, event Event) (Envelope, error) {
	adapter := m.Adapter()
	m.UpdateLastUsed()
	return adapter.Handle(ctx, event)
}

// IsHealthy reports whether the real application is loaded
func (m *Manager) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.adapter != nil && m.result.OK()
}

// LastUsed returns when the manager last served an event
func (m *Manager) LastUsed() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastUsed
}

// UpdateLastUsed updates the last used timestamp
func (m *Manager) UpdateLastUsed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUsed = time.Now()
}

// Cleanup releases the resources held by the loaded application
func (m *Manager) Cleanup() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.result.Close != nil {
		if err := m.result.Close(); err != nil {
			return err
		}
		m.result.Close = nil
	}
	return nil
}
