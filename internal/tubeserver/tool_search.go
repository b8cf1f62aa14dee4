package tubeserver

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_spotitube/internal/toolutil"
)

// MusicSearchInput is the input for music_search.
type MusicSearchInput struct {
	Query string `json:"query" jsonschema:"track to look up, e.g. 'feel good inc - gorillaz'"`
}

// MusicSearchOutput is the output for music_search.
type MusicSearchOutput struct {
	Query  string `json:"query"`
	ID     string `json:"id"`
	URL    string `json:"url"`
	Cached bool   `json:"cached"`
}

func registerMusicSearch(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "music_search",
		Description: "Resolve a free-text track query (artist and title) to the best matching YouTube Music video id. Returns the id, a watch URL and whether the answer came from cache.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input MusicSearchInput) (*mcp.CallToolResult, MusicSearchOutput, error) {
		q := strings.TrimSpace(input.Query)
		if q == "" {
			return nil, MusicSearchOutput{}, errors.New("query is required")
		}
		res, err := toolutil.ResolveTrack(ctx, d.Searcher, d.History, q)
		if err != nil {
			return nil, MusicSearchOutput{}, err
		}
		return nil, MusicSearchOutput{
			Query:  res.Query,
			ID:     res.ID,
			URL:    "https://music.youtube.com/watch?v=" + res.ID,
			Cached: res.Cached,
		}, nil
	})
}
