package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/anatolykoptev/go_spotitube/internal/engine"
)

// YouTube Music innertube: outbound calls with browser headers.
// No retries here: every failure goes straight back to the caller.

const (
	ytmSearchPath = "youtubei/v1/search"
	// ytmPreferVideo biases ranking towards video results. Opaque, sent as-is.
	ytmPreferVideo = "Eg-KAQwIABABGAAgACgAMABqChAKEAQQAxAFEAk%3D"
)

type ytmSearchReq struct {
	Params  string          `json:"params"`
	Query   string          `json:"query"`
	Context ytmSearchReqCtx `json:"context"`
}

type ytmSearchReqCtx struct {
	Client ytmClient `json:"client"`
}

type ytmClient struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
}

// newSearchRequest builds the innertube search body for q.
func newSearchRequest(sc SearchContext, q string) ytmSearchReq {
	return ytmSearchReq{
		Params: ytmPreferVideo,
		Query:  q,
		Context: ytmSearchReqCtx{Client: ytmClient{
			ClientName:    sc.ClientName,
			ClientVersion: sc.ClientVersion,
		}},
	}
}

// Fetcher performs the landing-page and search calls.
type Fetcher struct {
	baseURL   string
	userAgent string
	maxBody   int64
	client    *http.Client
	browser   *engine.BrowserClient
}

// NewFetcher builds a Fetcher from engine config. cfg should already have
// defaults applied. When cfg.BrowserClient is set it carries both calls.
func NewFetcher(cfg engine.Config) *Fetcher {
	return &Fetcher{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodyBytes,
		client:    cfg.HTTPClient,
		browser:   cfg.BrowserClient,
	}
}

// FetchLandingPage GETs the base URL.
func (f *Fetcher) FetchLandingPage(ctx context.Context) (string, error) {
	headers := map[string]string{"User-Agent": f.userAgent}
	return f.do(ctx, http.MethodGet, f.baseURL, headers, nil)
}

// PostSearch POSTs q to the innertube search endpoint with sc's key and client.
func (f *Fetcher) PostSearch(ctx context.Context, sc SearchContext, q string) (string, error) {
	body, err := json.Marshal(newSearchRequest(sc, q))
	if err != nil {
		return "", fmt.Errorf("marshal search request: %w", err)
	}
	headers := map[string]string{
		"User-Agent":   f.userAgent,
		"Referer":      f.baseURL,
		"Content-Type": "application/json",
	}
	return f.do(ctx, http.MethodPost, f.searchURL(sc.APIKey), headers, body)
}

func (f *Fetcher) searchURL(apiKey string) string {
	v := url.Values{}
	v.Set("alt", "json")
	v.Set("key", apiKey)
	return strings.TrimRight(f.baseURL, "/") + "/" + ytmSearchPath + "?" + v.Encode()
}

func (f *Fetcher) do(ctx context.Context, method, target string, headers map[string]string, body []byte) (string, error) {
	var (
		data   []byte
		status int
		err    error
	)
	if f.browser != nil {
		data, status, err = f.doBrowser(method, target, headers, body)
	} else {
		data, status, err = f.doHTTP(ctx, method, target, headers, body)
	}
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		snippet := engine.TruncateRunes(string(data), 256, "...")
		return "", engine.UpstreamError("", fmt.Sprintf("%s %s: HTTP %d: %s", method, target, status, snippet))
	}
	if !utf8.Valid(data) {
		return "", engine.DecodeError("response is not valid UTF-8", nil)
	}
	return string(data), nil
}

func (f *Fetcher) doHTTP(ctx context.Context, method, target string, headers map[string]string, body []byte) ([]byte, int, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, 0, engine.NetworkError("build request", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, engine.NetworkError(method+" "+target, err)
	}
	defer resp.Body.Close()

	// Read one byte past the cap to tell "exactly max" from "too big".
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, resp.StatusCode, engine.NetworkError("read body", err)
	}
	if int64(len(data)) > f.maxBody {
		return nil, resp.StatusCode, engine.NetworkError(fmt.Sprintf("response exceeds %d bytes", f.maxBody), nil)
	}
	return data, resp.StatusCode, nil
}

func (f *Fetcher) doBrowser(method, target string, headers map[string]string, body []byte) ([]byte, int, error) {
	h := engine.ChromeHeaders()
	for k, v := range headers {
		h[strings.ToLower(k)] = v
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	data, _, status, err := f.browser.Do(method, target, h, rd)
	if err != nil {
		return nil, 0, engine.NetworkError(method+" "+target, err)
	}
	if int64(len(data)) > f.maxBody {
		return nil, status, engine.NetworkError(fmt.Sprintf("response exceeds %d bytes", f.maxBody), nil)
	}
	return data, status, nil
}
