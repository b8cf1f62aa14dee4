package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	SearchRequests        atomic.Int64
	SearchErrors          atomic.Int64
	ContextRefreshes      atomic.Int64
	ContextRefreshErrors  atomic.Int64
	StaleContextFallbacks atomic.Int64
	FallbackIdentifiers   atomic.Int64
	SpotifyTokenRequests  atomic.Int64
}

var metricKeys = []string{
	"search_requests", "search_errors",
	"context_refreshes", "context_refresh_errors", "stale_context_fallbacks",
	"fallback_identifiers",
	"spotify_token_requests",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"search_requests":         metrics.SearchRequests.Load(),
		"search_errors":           metrics.SearchErrors.Load(),
		"context_refreshes":       metrics.ContextRefreshes.Load(),
		"context_refresh_errors":  metrics.ContextRefreshErrors.Load(),
		"stale_context_fallbacks": metrics.StaleContextFallbacks.Load(),
		"fallback_identifiers":    metrics.FallbackIdentifiers.Load(),
		"spotify_token_requests":  metrics.SpotifyTokenRequests.Load(),
		"cache_hits":              hits,
		"cache_misses":            misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the sources/ sub-package.
func IncrSearchRequests()        { metrics.SearchRequests.Add(1) }
func IncrSearchErrors()          { metrics.SearchErrors.Add(1) }
func IncrContextRefreshes()      { metrics.ContextRefreshes.Add(1) }
func IncrContextRefreshErrors()  { metrics.ContextRefreshErrors.Add(1) }
func IncrStaleContextFallbacks() { metrics.StaleContextFallbacks.Add(1) }
func IncrFallbackIdentifiers()   { metrics.FallbackIdentifiers.Add(1) }
func IncrSpotifyTokenRequests()  { metrics.SpotifyTokenRequests.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
