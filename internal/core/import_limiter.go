package core

// import_limiter.go serializes imports per case registry.
//
// The engine reads and writes cases without any locking, so two documents
// imported into the same registry at once could interleave. The limiter
// hands out a bounded number of slots per registry key (one by default);
// callers that cannot get a slot within maxWait fail with ErrImportBusy.
// WaitForDrain lets shutdown wait for running imports.

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrImportBusy is returned when a registry is already being imported into
// and the wait timeout expires.
var ErrImportBusy = errors.New("another import is running for this registry, please try again later")

// DefaultMaxConcurrentImports is the default number of imports per registry.
const DefaultMaxConcurrentImports = 1

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// ImportLimiter bounds concurrent imports per registry key.
type ImportLimiter struct {
	perKey  int
	maxWait time.Duration

	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewImportLimiter creates a limiter allowing perKey simultaneous imports
// into each registry.
func NewImportLimiter(perKey int, maxWait time.Duration) *ImportLimiter {
	if perKey <= 0 {
		perKey = DefaultMaxConcurrentImports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &ImportLimiter{
		perKey:  perKey,
		maxWait: maxWait,
		slots:   make(map[string]chan struct{}),
	}
}

func (l *ImportLimiter) sem(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = make(chan struct{}, l.perKey)
		l.slots[key] = s
	}
	return s
}

// Acquire waits for a slot on key. On success the returned release func
// must be called exactly once.
func (l *ImportLimiter) Acquire(ctx context.Context, key string) (release func(), err error) {
	s := l.sem(key)

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case s <- struct{}{}:
		return l.releaser(s), nil
	case <-timer.C:
		return nil, ErrImportBusy
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryAcquire takes a slot on key without blocking.
func (l *ImportLimiter) TryAcquire(key string) (release func(), ok bool) {
	s := l.sem(key)
	select {
	case s <- struct{}{}:
		return l.releaser(s), true
	default:
		return nil, false
	}
}

func (l *ImportLimiter) releaser(s chan struct{}) func() {
	var once sync.Once
	return func() {
		once.Do(func() { <-s })
	}
}

// ActiveCount returns the number of running imports across all keys.
func (l *ImportLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, s := range l.slots {
		n += len(s)
	}
	return n
}

// WaitForDrain blocks until no import is running or ctx is done.
func (l *ImportLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ImportLimiterStatus is a snapshot of one registry's slots.
type ImportLimiterStatus struct {
	Registry  string `json:"registry"`
	Active    int    `json:"active"`
	Available int    `json:"available"`
}

// Status returns the per-registry state, sorted by key.
func (l *ImportLimiter) Status() []ImportLimiterStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]ImportLimiterStatus, 0, len(l.slots))
	for key, s := range l.slots {
		out = append(out, ImportLimiterStatus{
			Registry:  key,
			Active:    len(s),
			Available: cap(s) - len(s),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Registry < out[j].Registry })
	return out
}
