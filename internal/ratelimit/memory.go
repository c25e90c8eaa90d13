package ratelimit

import (
	"context"
	"sync"
	"time"
)

// window is the counter of one client in its current fixed window.
type window struct {
	start time.Time
	count int
}

// Memory keeps one fixed-window counter per client in process. The window
// opens on the client's first request and every request inside it counts,
// so the limit+1st request before the window ends is denied no matter how
// the earlier ones were spread out.
type Memory struct {
	mu      sync.Mutex
	clients map[string]*window

	limit  int
	window time.Duration

	now             func() time.Time
	janitorInterval time.Duration
}

// MemoryOption customises a Memory limiter.
type MemoryOption func(*Memory)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// WithJanitorInterval sets how often expired windows are evicted by Run.
func WithJanitorInterval(d time.Duration) MemoryOption {
	return func(m *Memory) { m.janitorInterval = d }
}

// NewMemory returns a limiter allowing limit requests per window per client.
func NewMemory(limit int, period time.Duration, opts ...MemoryOption) (*Memory, error) {
	if err := validate(limit, period); err != nil {
		return nil, err
	}

	m := &Memory{
		clients:         make(map[string]*window),
		limit:           limit,
		window:          period,
		now:             time.Now,
		janitorInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Allow implements Limiter.
func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	if key == "" {
		return Decision{}, ErrEmptyKey
	}

	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.clients[key]
	if !ok || m.expired(w, now) {
		w = &window{start: now}
		m.clients[key] = w
	}
	w.count++

	remaining := m.limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    w.count <= m.limit,
		Limit:      m.limit,
		Remaining:  remaining,
		ResetAfter: w.start.Add(m.window).Sub(now),
	}, nil
}

func (m *Memory) expired(w *window, now time.Time) bool {
	return !now.Before(w.start.Add(m.window))
}

// Len reports how many clients are currently tracked.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// evict drops clients whose window has ended; their next request opens a
// fresh window anyway.
func (m *Memory) evict() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, w := range m.clients {
		if m.expired(w, now) {
			delete(m.clients, key)
		}
	}
}

// Run evicts expired windows until ctx is cancelled.
func (m *Memory) Run(ctx context.Context) {
	ticker := time.NewTicker(m.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evict()
		}
	}
}
