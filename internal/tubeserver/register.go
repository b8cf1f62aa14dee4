package tubeserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_spotitube/internal/engine/history"
	"github.com/anatolykoptev/go_spotitube/internal/toolutil"
)

// Deps are the shared services the tools call into. History may be nil.
type Deps struct {
	Searcher toolutil.TrackSearcher
	History  history.Store
}

// RegisterTools registers the music tools on the given MCP server:
// music_search, music_search_history.
func RegisterTools(server *mcp.Server, d Deps) {
	registerMusicSearch(server, d)
	registerMusicSearchHistory(server, d)
}
