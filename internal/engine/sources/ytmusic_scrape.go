package sources

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/anatolykoptev/go_spotitube/internal/engine"
)

// Text extraction from YouTube Music pages and innertube responses. Both
// scrapers match fixed markers and fail or fall back rather than parse the
// whole document.

const (
	ytcfgMarker  = "ytcfg.set("
	videoIDToken = `"videoId":`

	// FallbackVideoID is returned when a "videoId" line is too short to slice.
	// It is a real but arbitrary video; callers should treat it as suspect.
	FallbackVideoID = "QryoOF5jEbc"
)

// SearchContext is the page-embedded innertube authorization bundle.
type SearchContext struct {
	APIKey        string `json:"INNERTUBE_API_KEY"`
	ClientName    string `json:"INNERTUBE_CLIENT_NAME"`
	ClientVersion string `json:"INNERTUBE_CONTEXT_CLIENT_VERSION"`
}

// ExtractContext finds the first <script> containing a ytcfg.set(...) call
// and decodes its object argument. The argument ends at the last ')' of the
// script text; parentheses inside the object are not balanced.
func ExtractContext(page string) (SearchContext, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return SearchContext{}, engine.ScrapeError(engine.StageContext, "parse html: "+err.Error())
	}
	doc := goquery.NewDocumentFromNode(root)

	var (
		raw   string
		found bool
	)
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, ytcfgMarker)
		if idx < 0 {
			return true
		}
		found = true
		rest := text[idx+len(ytcfgMarker):]
		if end := strings.LastIndex(rest, ")"); end >= 0 {
			raw = rest[:end]
		}
		return false
	})
	if !found {
		return SearchContext{}, engine.ScrapeError(engine.StageContext, "ytcfg.set not found in any script")
	}

	var sc SearchContext
	if err := json.Unmarshal([]byte(raw), &sc); err != nil {
		return SearchContext{}, engine.ScrapeError(engine.StageContext, "decode ytcfg: "+err.Error())
	}
	switch {
	case sc.APIKey == "":
		return SearchContext{}, engine.ScrapeError(engine.StageContext, "ytcfg missing INNERTUBE_API_KEY")
	case sc.ClientName == "":
		return SearchContext{}, engine.ScrapeError(engine.StageContext, "ytcfg missing INNERTUBE_CLIENT_NAME")
	case sc.ClientVersion == "":
		return SearchContext{}, engine.ScrapeError(engine.StageContext, "ytcfg missing INNERTUBE_CONTEXT_CLIENT_VERSION")
	}
	return sc, nil
}

// ExtractIdentifier returns the value of the first "videoId" line of a
// pretty-printed innertube response without decoding the document.
//
// The value starts after the token, any blanks and the opening quote, and
// ends two bytes before the end of the line (quote and comma). A line too
// short for that slice yields FallbackVideoID.
func ExtractIdentifier(raw string) (string, error) {
	id, _, err := extractIdentifier(raw)
	return id, err
}

// extractIdentifier also reports whether the fallback was substituted.
func extractIdentifier(raw string) (id string, fallback bool, err error) {
	for line := range strings.Lines(raw) {
		line = strings.TrimRight(line, "\r\n")
		idx := strings.Index(line, videoIDToken)
		if idx < 0 {
			continue
		}
		start := idx + len(videoIDToken)
		for start < len(line) && (line[start] == ' ' || line[start] == '\t') {
			start++
		}
		start++ // opening quote
		end := len(line) - 2
		if start > end {
			return FallbackVideoID, true, nil
		}
		return line[start:end], false, nil
	}
	return "", false, engine.ScrapeError(engine.StageResult, "token not found")
}
