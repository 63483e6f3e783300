package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter decides whether a keyed attempt may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// SlidingWindowLimiter allows at most limit attempts per key within any
// window of the given size. State is held in memory per process.
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	windows    map[string][]time.Time
	limit      int
	windowSize time.Duration
	now        func() time.Time
}

var _ RateLimiter = (*SlidingWindowLimiter)(nil)

// NewSlidingWindowLimiter creates a limiter. A non-positive limit allows
// everything.
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windows:    make(map[string][]time.Time),
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
}

// Allow records an attempt for key and reports whether it is within the
// limit. Rejected attempts are not recorded.
func (l *SlidingWindowLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	start := now.Add(-l.windowSize)
	kept := l.windows[key][:0]
	for _, at := range l.windows[key] {
		if at.After(start) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= l.limit {
		l.windows[key] = kept
		return false, nil
	}
	l.windows[key] = append(kept, now)
	return true, nil
}

// Reset forgets every attempt for key.
func (l *SlidingWindowLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
	return nil
}

// Prune drops keys with no attempts inside the window.
func (l *SlidingWindowLimiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := l.now().Add(-l.windowSize)
	removed := 0
	for key, attempts := range l.windows {
		if len(attempts) == 0 || !attempts[len(attempts)-1].After(start) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// LoginLimiter throttles login attempts per client address and per
// username. A successful login clears the username's attempts.
type LoginLimiter struct {
	byIP   *SlidingWindowLimiter
	byUser *SlidingWindowLimiter
}

// NewLoginLimiter allows perMinute attempts per address and per username.
func NewLoginLimiter(perMinute int) *LoginLimiter {
	return &LoginLimiter{
		byIP:   NewSlidingWindowLimiter(perMinute, time.Minute),
		byUser: NewSlidingWindowLimiter(perMinute, time.Minute),
	}
}

// Prune drops expired address and username keys and returns how many were
// removed.
func (l *LoginLimiter) Prune() int {
	return l.byIP.Prune() + l.byUser.Prune()
}

// StartPruning prunes every interval until the returned stop function is
// called. Stop is safe to call more than once.
func (l *LoginLimiter) StartPruning(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.Prune()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// Allow reports whether a login from ip for username may proceed.
func (l *LoginLimiter) Allow(ctx context.Context, ip, username string) (bool, error) {
	ok, err := l.byIP.Allow(ctx, "ip:"+ip)
	if err != nil || !ok {
		return false, err
	}
	return l.byUser.Allow(ctx, "user:"+username)
}

// Succeeded clears the failed attempts recorded for username.
func (l *LoginLimiter) Succeeded(ctx context.Context, username string) error {
	return l.byUser.Reset(ctx, "user:"+username)
}
