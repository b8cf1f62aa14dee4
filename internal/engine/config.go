package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	BaseURL              string        // YouTube Music origin, also sent as Referer
	UserAgent            string        // fixed browser UA for both outbound calls
	ContextTTL           time.Duration // max age of a scraped innertube context
	MaxBodyBytes         int64         // cap for landing page and search responses
	FetchTimeout         time.Duration
	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	HTTPClient           *http.Client
	BrowserClient        *BrowserClient // nil = plain net/http transport
}

// Defaults mirrored by main when the environment is silent.
const (
	DefaultBaseURL      = "https://music.youtube.com/"
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/78.0.3904.108 Safari/537.36"
	DefaultContextTTL   = time.Hour
	DefaultMaxBodyBytes = 1 << 20
)

// WithDefaults fills zero fields.
func (c Config) WithDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.ContextTTL <= 0 {
		c.ContextTTL = DefaultContextTTL
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 15 * time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.FetchTimeout}
	}
	return c
}
