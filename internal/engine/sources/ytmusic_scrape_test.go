package sources

import (
	"testing"

	"github.com/anatolykoptev/go_spotitube/internal/engine"
)

const ytcfgPage = `<!DOCTYPE html><html><head>
<script>var ytInitialGuideData = null;</script>
<script>ytcfg.set({"INNERTUBE_API_KEY":"K1","INNERTUBE_CLIENT_NAME":"WEB","INNERTUBE_CONTEXT_CLIENT_VERSION":"1.0"});</script>
</head><body></body></html>`

func TestExtractContext(t *testing.T) {
	got, err := ExtractContext(ytcfgPage)
	if err != nil {
		t.Fatalf("ExtractContext() error = %v", err)
	}
	want := SearchContext{APIKey: "K1", ClientName: "WEB", ClientVersion: "1.0"}
	if got != want {
		t.Errorf("ExtractContext() = %+v, want %+v", got, want)
	}
}

func TestExtractContextFirstMatchWins(t *testing.T) {
	page := `<html><head>
<script>ytcfg.set({"INNERTUBE_API_KEY":"FIRST","INNERTUBE_CLIENT_NAME":"WEB_REMIX","INNERTUBE_CONTEXT_CLIENT_VERSION":"0.1"});</script>
<script>ytcfg.set({"INNERTUBE_API_KEY":"SECOND","INNERTUBE_CLIENT_NAME":"WEB","INNERTUBE_CONTEXT_CLIENT_VERSION":"2.0"});</script>
</head></html>`
	got, err := ExtractContext(page)
	if err != nil {
		t.Fatalf("ExtractContext() error = %v", err)
	}
	if got.APIKey != "FIRST" || got.ClientName != "WEB_REMIX" {
		t.Errorf("expected first script's context, got %+v", got)
	}
}

func TestExtractContextExtraKeysIgnored(t *testing.T) {
	page := `<script>window.x = 1; ytcfg.set({"INNERTUBE_API_KEY":"K","INNERTUBE_CLIENT_NAME":"WEB_REMIX","INNERTUBE_CONTEXT_CLIENT_VERSION":"0.1","HL":"en","USER_AGENT":"Mozilla/5.0 (X11; Linux x86_64)"});</script>`
	got, err := ExtractContext(page)
	if err != nil {
		t.Fatalf("ExtractContext() error = %v", err)
	}
	if got.ClientVersion != "0.1" {
		t.Errorf("ClientVersion = %q, want %q", got.ClientVersion, "0.1")
	}
}

func TestExtractContextErrors(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"no scripts", `<html><body>nothing</body></html>`},
		{"no marker", `<script>var a = {"INNERTUBE_API_KEY":"K"};</script>`},
		{"bad json", `<script>ytcfg.set({"INNERTUBE_API_KEY": K1});</script>`},
		{"no closing paren", `<script>ytcfg.set({"INNERTUBE_API_KEY":"K1"}</script>`},
		{"missing key", `<script>ytcfg.set({"INNERTUBE_CLIENT_NAME":"WEB","INNERTUBE_CONTEXT_CLIENT_VERSION":"1.0"});</script>`},
		{"trailing statement", `<script>ytcfg.set({"INNERTUBE_API_KEY":"K1","INNERTUBE_CLIENT_NAME":"WEB","INNERTUBE_CONTEXT_CLIENT_VERSION":"1.0"}); init();</script>`},
		{"first match is broken", `<script>ytcfg.set(nope);</script><script>ytcfg.set({"INNERTUBE_API_KEY":"K1","INNERTUBE_CLIENT_NAME":"WEB","INNERTUBE_CONTEXT_CLIENT_VERSION":"1.0"});</script>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractContext(tt.page)
			if err == nil {
				t.Fatal("expected error")
			}
			e, ok := err.(*engine.Error)
			if !ok {
				t.Fatalf("expected *engine.Error, got %T", err)
			}
			if e.Kind != engine.KindScrape || e.Stage != engine.StageContext {
				t.Errorf("got kind=%s stage=%s, want scrape/context", e.Kind, e.Stage)
			}
		})
	}
}

func TestExtractIdentifier(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"compact line", "line0\n\"videoId\":\"abc123\",\nline2", "abc123"},
		{"pretty printed", "{\n  \"contents\": {\n    \"videoId\": \"HyHNuVaZJ-k\",\n    \"title\": \"x\"\n  }\n}", "HyHNuVaZJ-k"},
		{"crlf", "a\r\n      \"videoId\": \"HyHNuVaZJ-k\",\r\nb", "HyHNuVaZJ-k"},
		{"first match wins", "\"videoId\": \"first111111\",\n\"videoId\": \"second22222\",", "first111111"},
		{"too short falls back", "\"videoId\":", FallbackVideoID},
		{"blank value falls back", "x\n\"videoId\": \n", FallbackVideoID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractIdentifier(tt.raw)
			if err != nil {
				t.Fatalf("ExtractIdentifier() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractIdentifier() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractIdentifierNoToken(t *testing.T) {
	for _, raw := range []string{"", "{}", "line0\n\"playlistId\": \"PL1\",\nline2"} {
		_, err := ExtractIdentifier(raw)
		if err == nil {
			t.Fatalf("ExtractIdentifier(%q) expected error", raw)
		}
		e, ok := err.(*engine.Error)
		if !ok || e.Kind != engine.KindScrape || e.Stage != engine.StageResult {
			t.Errorf("ExtractIdentifier(%q) error = %v, want scrape/result", raw, err)
		}
		if ok && e.Reason != "token not found" {
			t.Errorf("reason = %q, want %q", e.Reason, "token not found")
		}
	}
}

func TestExtractIdentifierDeterministic(t *testing.T) {
	inputs := []string{
		"line0\n\"videoId\":\"abc123\",\nline2",
		"\"videoId\":",
		"no token",
	}
	for _, raw := range inputs {
		id1, err1 := ExtractIdentifier(raw)
		id2, err2 := ExtractIdentifier(raw)
		if id1 != id2 || (err1 == nil) != (err2 == nil) {
			t.Errorf("ExtractIdentifier(%q) not deterministic: (%q,%v) vs (%q,%v)", raw, id1, err1, id2, err2)
		}
	}
}
