package sessions

import (
	"context"
	"sync"
	"time"
)

// Backend persists session bodies keyed by their opaque token.
// Expired records must behave as absent.
type Backend interface {
	Load(ctx context.Context, token string) ([]byte, bool, error)
	Save(ctx context.Context, token string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

// Purger is implemented by backends that need expired records swept.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryBackend keeps sessions in process memory. Sessions do not survive a
// restart and are not shared between instances.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]memEntry), now: time.Now}
}

func (m *MemoryBackend) Load(_ context.Context, token string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[token]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, token)
		return nil, false, nil
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, true, nil
}

func (m *MemoryBackend) Save(_ context.Context, token string, data []byte, ttl time.Duration) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	m.mu.Lock()
	m.entries[token] = memEntry{data: buf, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.entries, token)
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Purge(_ context.Context) (int64, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, token)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored records, expired or not.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
