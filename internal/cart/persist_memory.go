package cart

import (
	"context"
	"sync"
)

// MemorySlot keeps the snapshot in process memory. It backs tests and runs
// without any durable medium configured.
type MemorySlot struct {
	mu    sync.Mutex
	items []LineItem
	set   bool
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (m *MemorySlot) Load(_ context.Context) ([]LineItem, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, false, nil
	}
	return append([]LineItem(nil), m.items...), true, nil
}

func (m *MemorySlot) Save(_ context.Context, items []LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]LineItem(nil), items...)
	m.set = true
	return nil
}

func (m *MemorySlot) Ping(_ context.Context) error { return nil }
