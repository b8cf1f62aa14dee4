package tubeserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_spotitube/internal/engine/history"
)

// MusicSearchHistoryInput is the input for music_search_history.
type MusicSearchHistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"max entries to return, default 20, max 200"`
}

// MusicSearchHistoryOutput is the output for music_search_history.
type MusicSearchHistoryOutput struct {
	Entries []history.Entry `json:"entries"`
}

func registerMusicSearchHistory(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "music_search_history",
		Description: "List recently resolved track searches, newest first, with the video id each query resolved to.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input MusicSearchHistoryInput) (*mcp.CallToolResult, MusicSearchHistoryOutput, error) {
		if d.History == nil {
			return nil, MusicSearchHistoryOutput{}, errors.New("search history is disabled")
		}
		entries, err := d.History.Recent(ctx, input.Limit)
		if err != nil {
			return nil, MusicSearchHistoryOutput{}, err
		}
		return nil, MusicSearchHistoryOutput{Entries: entries}, nil
	})
}
