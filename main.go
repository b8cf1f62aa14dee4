// go_spotitube resolves free-text track queries to YouTube Music video ids.
//
// Serves a REST API (gin) on HTTP_PORT and the music_search MCP tools on
// MCP_PORT. Both share one search pipeline, result cache and history store.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_spotitube/internal/api"
	"github.com/anatolykoptev/go_spotitube/internal/engine"
	"github.com/anatolykoptev/go_spotitube/internal/engine/history"
	"github.com/anatolykoptev/go_spotitube/internal/engine/sources"
	"github.com/anatolykoptev/go_spotitube/internal/tubeserver"
)

var version = "dev"

func main() {
	_ = godotenv.Load() // .env is optional
	initLogger(env.Str("LOG_LEVEL", "info"))

	cfg := loadConfig()
	engine.InitCache(env.Str("REDIS_URL", ""), cfg.CacheTTL, cfg.CacheMaxEntries, cfg.CacheCleanupInterval)

	searcher := sources.NewSearcher(
		sources.NewContextCache(cfg.ContextTTL, sources.WithRefreshTimeout(cfg.FetchTimeout)),
		sources.NewFetcher(cfg),
	)
	hist := openHistory()
	tokens := sources.NewSpotifyTokens(sources.SpotifyConfig{
		ClientID:     env.Str("SPOTIFY_CLIENT_ID", ""),
		ClientSecret: env.Str("SPOTIFY_CLIENT_SECRET", ""),
		TokenURL:     env.Str("SPOTIFY_TOKEN_URL", sources.SpotifyTokenURL),
		RedirectURL:  env.Str("SPOTIFY_REDIRECT_URL", sources.SpotifyRedirectURL),
		HTTPClient:   &http.Client{Timeout: cfg.FetchTimeout},
	})

	httpPort := env.Str("HTTP_PORT", "8000")
	mcpPort := env.Str("MCP_PORT", "8892")
	slog.Info("starting go_spotitube",
		slog.String("version", version),
		slog.String("http_port", httpPort),
		slog.String("mcp_port", mcpPort),
		slog.String("base_url", cfg.BaseURL),
	)

	h := &api.Handler{Searcher: searcher, Tokens: tokens}
	td := tubeserver.Deps{Searcher: searcher}
	if hist != nil {
		h.History = hist
		td.History = hist
		defer hist.Close()
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + httpPort,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_spotitube",
		Version: version,
	}, nil)
	tubeserver.RegisterTools(server, td)
	slog.Info("tools registered", slog.Int("count", 2))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_spotitube",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 60 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("http shutdown", slog.Any("error", err))
	}
}

func initLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func loadConfig() engine.Config {
	c := engine.Config{
		BaseURL:              env.Str("YTMUSIC_BASE_URL", engine.DefaultBaseURL),
		UserAgent:            env.Str("YTMUSIC_USER_AGENT", engine.DefaultUserAgent),
		ContextTTL:           env.Duration("YTMUSIC_CONTEXT_TTL", engine.DefaultContextTTL),
		MaxBodyBytes:         int64(env.Int("YTMUSIC_MAX_BODY", engine.DefaultMaxBodyBytes)),
		FetchTimeout:         env.Duration("FETCH_TIMEOUT", 15*time.Second),
		CacheTTL:             env.Duration("CACHE_TTL", 6*time.Hour),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 5000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
	}
	c.HTTPClient = &http.Client{
		Timeout: c.FetchTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     60 * time.Second,
		},
	}

	if browserTLS, _ := strconv.ParseBool(env.Str("BROWSER_TLS", "false")); browserTLS {
		bc, err := engine.NewBrowserClient(int(c.FetchTimeout/time.Second), env.Str("WEBSHARE_API_KEY", ""))
		if err != nil {
			slog.Error("stealth client init failed, using net/http", slog.Any("error", err))
		} else {
			c.BrowserClient = bc
			slog.Info("stealth browser client initialized")
		}
	}
	return c.WithDefaults()
}

// openHistory returns nil when no store can be opened; searches still work.
func openHistory() history.Store {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := history.Open(ctx, env.Str("DATABASE_URL", ""), env.Str("HISTORY_SQLITE_PATH", ""))
	if err != nil {
		slog.Warn("history store init failed, history disabled", slog.Any("error", err))
		return nil
	}
	slog.Info("history store initialized", slog.String("backend", historyBackend(s)))
	return s
}

func historyBackend(s history.Store) string {
	if _, ok := s.(*history.PostgresStore); ok {
		return "postgres"
	}
	return "sqlite"
}
