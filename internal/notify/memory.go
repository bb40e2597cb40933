package notify

import (
	"context"
	"sync"

	"storefront/internal/domain"
)

// maxPending caps each session's queue; the oldest entries are dropped.
const maxPending = 20

// Memory is a process-local Feed.
type Memory struct {
	mu      sync.Mutex
	pending map[string][]domain.Notification
}

func NewMemory() *Memory {
	return &Memory{pending: make(map[string][]domain.Notification)}
}

func (m *Memory) Push(_ context.Context, sessionID string, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := append(m.pending[sessionID], n)
	if len(q) > maxPending {
		q = q[len(q)-maxPending:]
	}
	m.pending[sessionID] = q
	return nil
}

func (m *Memory) Drain(_ context.Context, sessionID string) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.pending[sessionID]
	delete(m.pending, sessionID)
	if q == nil {
		q = []domain.Notification{}
	}
	return q, nil
}

// Forget drops anything queued for sessionID.
func (m *Memory) Forget(sessionID string) {
	m.mu.Lock()
	delete(m.pending, sessionID)
	m.mu.Unlock()
}
