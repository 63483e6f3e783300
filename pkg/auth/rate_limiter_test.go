package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowLimiter(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := NewSlidingWindowLimiter(2, time.Minute)
	l.now = func() time.Time { return clock }

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "k")
	assert.False(t, ok, "third attempt inside the window")

	ok, _ = l.Allow(ctx, "other")
	assert.True(t, ok, "keys are independent")

	clock = clock.Add(61 * time.Second)
	ok, _ = l.Allow(ctx, "k")
	assert.True(t, ok, "window has slid")

	clock = clock.Add(2 * time.Minute)
	assert.Equal(t, 2, l.Prune())
}

func TestSlidingWindowLimiter_Unlimited(t *testing.T) {
	l := NewSlidingWindowLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		ok, err := l.Allow(context.Background(), "k")
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestLoginLimiter(t *testing.T) {
	ctx := context.Background()
	l := NewLoginLimiter(2)

	ok, _ := l.Allow(ctx, "10.0.0.1", "alice")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "10.0.0.2", "alice")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "10.0.0.3", "alice")
	assert.False(t, ok, "username limit applies across addresses")

	require.NoError(t, l.Succeeded(ctx, "alice"))
	ok, _ = l.Allow(ctx, "10.0.0.4", "alice")
	assert.True(t, ok)
}

func TestLoginLimiter_PruneEvictsExpiredKeys(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := NewLoginLimiter(5)
	l.byIP.now = func() time.Time { return clock }
	l.byUser.now = func() time.Time { return clock }

	for i := 0; i < 500; i++ {
		ok, err := l.Allow(ctx, fmt.Sprintf("10.0.%d.%d", i/256, i%256), fmt.Sprintf("user%d", i))
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Len(t, l.byIP.windows, 500)
	require.Len(t, l.byUser.windows, 500)

	clock = clock.Add(time.Hour)
	assert.Equal(t, 1000, l.Prune())
	assert.Empty(t, l.byIP.windows)
	assert.Empty(t, l.byUser.windows)
}

func TestLoginLimiter_StartPruning(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}
	l := NewLoginLimiter(5)
	l.byIP.now = now
	l.byUser.now = now

	_, err := l.Allow(ctx, "10.0.0.1", "alice")
	require.NoError(t, err)

	mu.Lock()
	clock = clock.Add(time.Hour)
	mu.Unlock()

	stop := l.StartPruning(5 * time.Millisecond)
	defer stop()

	assert.Eventually(t, func() bool {
		l.byUser.mu.Lock()
		defer l.byUser.mu.Unlock()
		return len(l.byUser.windows) == 0
	}, time.Second, 5*time.Millisecond)
}
