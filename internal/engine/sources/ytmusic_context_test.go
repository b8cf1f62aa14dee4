package sources

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable clock safe for concurrent reads.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// stubLanding serves numbered ytcfg pages and counts calls.
type stubLanding struct {
	calls atomic.Int64
	fail  atomic.Bool
	delay time.Duration
}

func (s *stubLanding) FetchLandingPage(ctx context.Context) (string, error) {
	n := s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.fail.Load() {
		return "", errors.New("connection refused")
	}
	return fmt.Sprintf(`<script>ytcfg.set({"INNERTUBE_API_KEY":"K%d","INNERTUBE_CLIENT_NAME":"WEB_REMIX","INNERTUBE_CONTEXT_CLIENT_VERSION":"0.1"});</script>`, n), nil
}

func TestContextCacheFreshHit(t *testing.T) {
	clock := newFakeClock()
	cache := NewContextCache(time.Hour, WithClock(clock.Now))
	landing := &stubLanding{}
	ctx := context.Background()

	c1, err := cache.Get(ctx, landing)
	require.NoError(t, err)
	assert.Equal(t, "K1", c1.APIKey)

	clock.Advance(59 * time.Minute)
	c2, err := cache.Get(ctx, landing)
	require.NoError(t, err)
	assert.Equal(t, c1, c2, "context within TTL must be reused")
	assert.EqualValues(t, 1, landing.calls.Load(), "no refresh while fresh")

	clock.Advance(time.Minute) // age == TTL is still fresh
	_, err = cache.Get(ctx, landing)
	require.NoError(t, err)
	assert.EqualValues(t, 1, landing.calls.Load())
}

func TestContextCacheStaleRefresh(t *testing.T) {
	clock := newFakeClock()
	cache := NewContextCache(time.Hour, WithClock(clock.Now))
	landing := &stubLanding{}
	ctx := context.Background()

	_, err := cache.Get(ctx, landing)
	require.NoError(t, err)

	clock.Advance(time.Hour + time.Second)
	c2, err := cache.Get(ctx, landing)
	require.NoError(t, err)
	assert.Equal(t, "K2", c2.APIKey)

	_, fetchedAt, ok := cache.Snapshot()
	require.True(t, ok)
	assert.Equal(t, clock.Now(), fetchedAt)
}

func TestContextCacheSingleRefreshUnderContention(t *testing.T) {
	clock := newFakeClock()
	cache := NewContextCache(time.Hour, WithClock(clock.Now))
	landing := &stubLanding{delay: 20 * time.Millisecond}
	ctx := context.Background()

	_, err := cache.Get(ctx, landing)
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)

	const n = 32
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]cachedContext, n)
		errs    = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = cache.get(ctx, landing)
		}(i)
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 2, landing.calls.Load(), "exactly one refresh for all stale callers")
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "K2", results[i].sc.APIKey)
		assert.Equal(t, results[0].fetchedAt, results[i].fetchedAt)
	}
}

func TestContextCacheFirstFailurePropagates(t *testing.T) {
	cache := NewContextCache(time.Hour)
	landing := &stubLanding{}
	landing.fail.Store(true)

	_, err := cache.Get(context.Background(), landing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	_, _, ok := cache.Snapshot()
	assert.False(t, ok)
}

func TestContextCacheFailedRefreshKeepsStale(t *testing.T) {
	clock := newFakeClock()
	cache := NewContextCache(time.Hour, WithClock(clock.Now))
	landing := &stubLanding{}
	ctx := context.Background()

	c1, err := cache.Get(ctx, landing)
	require.NoError(t, err)
	_, firstAt, _ := cache.Snapshot()

	clock.Advance(3 * time.Hour)
	landing.fail.Store(true)

	got, err := cache.Get(ctx, landing)
	require.NoError(t, err, "stale context is served when refresh fails")
	assert.Equal(t, c1, got)

	sc, at, ok := cache.Snapshot()
	require.True(t, ok)
	assert.Equal(t, c1, sc)
	assert.Equal(t, firstAt, at, "failed refresh must not touch fetchedAt")

	landing.fail.Store(false)
	got, err = cache.Get(ctx, landing)
	require.NoError(t, err)
	assert.NotEqual(t, c1.APIKey, got.APIKey, "later successful refresh replaces the stale context")
}

func TestContextCacheScrapeFailureKeepsStale(t *testing.T) {
	clock := newFakeClock()
	cache := NewContextCache(time.Hour, WithClock(clock.Now))
	ctx := context.Background()

	c1, err := cache.Get(ctx, &stubLanding{})
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	got, err := cache.Get(ctx, landingFunc(func(context.Context) (string, error) {
		return "<html>redesigned page</html>", nil
	}))
	require.NoError(t, err)
	assert.Equal(t, c1, got)
}

func TestContextCacheIgnoresCallerCancel(t *testing.T) {
	cache := NewContextCache(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc, err := cache.Get(ctx, landingFunc(func(ctx context.Context) (string, error) {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return ytcfgPage, nil
	}))
	require.NoError(t, err)
	assert.Equal(t, "K1", sc.APIKey)
}

type landingFunc func(ctx context.Context) (string, error)

func (f landingFunc) FetchLandingPage(ctx context.Context) (string, error) { return f(ctx) }
