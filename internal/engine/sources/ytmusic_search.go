package sources

import (
	"context"
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/anatolykoptev/go_spotitube/internal/engine"
)

// SearchResult is the single video resolved for a query.
type SearchResult struct {
	ID       string `json:"id"`
	Fallback bool   `json:"-"` // ID is FallbackVideoID, not scraped
}

// SearchPoster sends an innertube search.
type SearchPoster interface {
	PostSearch(ctx context.Context, sc SearchContext, q string) (string, error)
}

// RemoteFetcher is the full outbound surface a Searcher needs.
type RemoteFetcher interface {
	LandingFetcher
	SearchPoster
}

// Searcher resolves a free-text query to a YouTube Music video id.
type Searcher struct {
	contexts *ContextCache
	fetcher  RemoteFetcher
}

// NewSearcher wires a pipeline over an explicitly owned context cache.
func NewSearcher(contexts *ContextCache, fetcher RemoteFetcher) *Searcher {
	return &Searcher{contexts: contexts, fetcher: fetcher}
}

// Search runs context → post → extract. The first failing stage ends it.
func (s *Searcher) Search(ctx context.Context, q string) (out SearchResult, err error) {
	engine.IncrSearchRequests()
	_ = engine.TrackOperation(ctx, "ytmusic:search", func(ctx context.Context) error {
		out, err = s.search(ctx, q)
		return err
	})
	if err != nil {
		engine.IncrSearchErrors()
	}
	return
}

func (s *Searcher) search(ctx context.Context, q string) (SearchResult, error) {
	slog.Info("searching track", slog.String("query", engine.TruncateRunes(q, 200, "...")))

	sc, err := s.contexts.Get(ctx, s.fetcher)
	if err != nil {
		return SearchResult{}, err
	}

	raw, err := s.fetcher.PostSearch(ctx, sc, q)
	if err != nil {
		return SearchResult{}, err
	}
	if err := checkErrorEnvelope(raw); err != nil {
		return SearchResult{}, err
	}

	id, fallback, err := extractIdentifier(raw)
	if err != nil {
		return SearchResult{}, err
	}
	if fallback {
		engine.IncrFallbackIdentifiers()
		slog.Warn("ytmusic: malformed videoId line, using fallback id", slog.String("query", q))
	}
	return SearchResult{ID: id, Fallback: fallback}, nil
}

// checkErrorEnvelope reports a top-level innertube {"error": {...}} object.
// Non-JSON or truncated bodies pass through to the line scanner.
func checkErrorEnvelope(raw string) error {
	e := gjson.Get(raw, "error")
	if !e.IsObject() {
		return nil
	}
	msg := e.Get("message").String()
	if msg == "" {
		msg = "innertube returned an error envelope"
	}
	return engine.UpstreamError(e.Get("status").String(), msg)
}
