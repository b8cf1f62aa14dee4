// Package toolutil holds the lookup flow shared by the REST and MCP surfaces:
// result cache, search pipeline, history.
package toolutil

import (
	"context"
	"log/slog"

	"github.com/anatolykoptev/go_spotitube/internal/engine"
	"github.com/anatolykoptev/go_spotitube/internal/engine/history"
	"github.com/anatolykoptev/go_spotitube/internal/engine/sources"
)

// TrackSearcher resolves a query to a single video.
type TrackSearcher interface {
	Search(ctx context.Context, q string) (sources.SearchResult, error)
}

// Resolution is the outcome of ResolveTrack.
type Resolution struct {
	Query    string `json:"query"`
	ID       string `json:"id"`
	Cached   bool   `json:"cached"`
	Fallback bool   `json:"-"`
}

// TrackCacheKey is the result-cache key for a query.
func TrackCacheKey(q string) string {
	return engine.CacheKey("ytmusic_search", engine.NormQuery(q))
}

// ResolveTrack answers from the result cache when it can, otherwise runs the
// pipeline. Scraped ids are cached; fallback ids are not. Every success is
// recorded in hist when it is non-nil; recording errors are only logged.
func ResolveTrack(ctx context.Context, s TrackSearcher, hist history.Store, q string) (Resolution, error) {
	key := TrackCacheKey(q)
	if id, ok := engine.CacheGet(ctx, key); ok {
		res := Resolution{Query: q, ID: id, Cached: true}
		record(ctx, hist, res)
		return res, nil
	}

	out, err := s.Search(ctx, q)
	if err != nil {
		return Resolution{}, err
	}
	if !out.Fallback {
		engine.CacheSet(ctx, key, out.ID)
	}
	res := Resolution{Query: q, ID: out.ID, Fallback: out.Fallback}
	record(ctx, hist, res)
	return res, nil
}

func record(ctx context.Context, hist history.Store, res Resolution) {
	if hist == nil {
		return
	}
	err := hist.Record(context.WithoutCancel(ctx), history.Entry{
		Query:    res.Query,
		VideoID:  res.ID,
		Fallback: res.Fallback,
		Cached:   res.Cached,
	})
	if err != nil {
		slog.Warn("history: record failed", slog.String("query", engine.TruncateRunes(res.Query, 200, "...")), slog.Any("error", err))
	}
}
