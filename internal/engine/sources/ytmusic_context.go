package sources

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/anatolykoptev/go_spotitube/internal/engine"
)

// LandingFetcher downloads the YouTube Music landing page.
type LandingFetcher interface {
	FetchLandingPage(ctx context.Context) (string, error)
}

type cachedContext struct {
	sc        SearchContext
	fetchedAt time.Time // zero until the first successful refresh
}

// ContextCache holds the current innertube context and refreshes it when it
// is older than the TTL. At most one refresh runs at a time; readers of a
// fresh context only take the read lock.
type ContextCache struct {
	mu  sync.RWMutex
	cur cachedContext

	ttl     time.Duration
	now     func() time.Time
	timeout time.Duration
}

// ContextCacheOption configures a ContextCache.
type ContextCacheOption func(*ContextCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ContextCacheOption {
	return func(c *ContextCache) { c.now = now }
}

// WithRefreshTimeout bounds a single refresh. Zero means no bound beyond
// the transport's own timeouts.
func WithRefreshTimeout(d time.Duration) ContextCacheOption {
	return func(c *ContextCache) { c.timeout = d }
}

// NewContextCache returns an empty cache. A non-positive ttl uses the default.
func NewContextCache(ttl time.Duration, opts ...ContextCacheOption) *ContextCache {
	if ttl <= 0 {
		ttl = engine.DefaultContextTTL
	}
	c := &ContextCache{ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *ContextCache) fresh(cc cachedContext) bool {
	return !cc.fetchedAt.IsZero() && c.now().Sub(cc.fetchedAt) <= c.ttl
}

// Get returns a context no older than the TTL, refreshing it through f when
// needed. If a refresh fails but an earlier context exists, the stale one is
// returned; only a failure with nothing cached is reported.
func (c *ContextCache) Get(ctx context.Context, f LandingFetcher) (SearchContext, error) {
	cc, err := c.get(ctx, f)
	return cc.sc, err
}

func (c *ContextCache) get(ctx context.Context, f LandingFetcher) (cachedContext, error) {
	c.mu.RLock()
	cc := c.cur
	c.mu.RUnlock()
	if c.fresh(cc) {
		return cc, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if c.fresh(c.cur) {
		return c.cur, nil
	}

	sc, err := c.refresh(ctx, f)
	if err != nil {
		engine.IncrContextRefreshErrors()
		if c.cur.fetchedAt.IsZero() {
			return cachedContext{}, err
		}
		engine.IncrStaleContextFallbacks()
		slog.Warn("ytmusic: context refresh failed, serving stale context",
			slog.Duration("age", c.now().Sub(c.cur.fetchedAt)), slog.Any("error", err))
		return c.cur, nil
	}

	// Stale implies now > fetchedAt+ttl, so fetchedAt only moves forward.
	c.cur = cachedContext{sc: sc, fetchedAt: c.now()}
	engine.IncrContextRefreshes()
	slog.Info("ytmusic: context refreshed", slog.String("client", sc.ClientName), slog.String("version", sc.ClientVersion))
	return c.cur, nil
}

// refresh is detached from the caller's cancellation; queued callers share
// its result.
func (c *ContextCache) refresh(ctx context.Context, f LandingFetcher) (SearchContext, error) {
	ctx = context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	page, err := f.FetchLandingPage(ctx)
	if err != nil {
		return SearchContext{}, err
	}
	return ExtractContext(page)
}

// Snapshot returns the cached context regardless of age.
// ok is false until a refresh has succeeded.
func (c *ContextCache) Snapshot() (sc SearchContext, fetchedAt time.Time, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cur.sc, c.cur.fetchedAt, !c.cur.fetchedAt.IsZero()
}
