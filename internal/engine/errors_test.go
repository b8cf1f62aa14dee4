package engine

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorResponse
	}{
		{
			name: "network keeps cause",
			err:  NetworkError("GET /", errors.New("connection refused")),
			want: ErrorResponse{Status: "Request Error", Reason: "GET /: connection refused"},
		},
		{
			name: "decode",
			err:  DecodeError("body is not valid UTF-8", nil),
			want: ErrorResponse{Status: "String encode error", Reason: "body is not valid UTF-8"},
		},
		{
			name: "scrape",
			err:  ScrapeError(StageResult, "token not found"),
			want: ErrorResponse{Status: "Scrape Error", Reason: "token not found"},
		},
		{
			name: "upstream default status",
			err:  UpstreamError("", "HTTP 403"),
			want: ErrorResponse{Status: "Upstream Error", Reason: "HTTP 403"},
		},
		{
			name: "upstream explicit status",
			err:  UpstreamError("invalid_grant", "Invalid authorization code"),
			want: ErrorResponse{Status: "invalid_grant", Reason: "Invalid authorization code"},
		},
		{
			name: "wrapped tagged error",
			err:  fmt.Errorf("search: %w", ScrapeError(StageContext, "ytcfg.set not found in any script")),
			want: ErrorResponse{Status: "Scrape Error", Reason: "ytcfg.set not found in any script"},
		},
		{
			name: "untagged",
			err:  errors.New("boom"),
			want: ErrorResponse{Status: "error", Reason: "boom"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewErrorResponse(tt.err); got != tt.want {
				t.Errorf("NewErrorResponse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	err := ScrapeError(StageContext, "decode ytcfg")
	if got, want := err.Error(), "scrape[context]: decode ytcfg"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	cause := errors.New("eof")
	nerr := NetworkError("POST search", cause)
	if got, want := nerr.Error(), "network: POST search: eof"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(nerr, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", UpstreamError("", "x"))
	if !IsKind(err, KindUpstream) {
		t.Error("expected upstream kind through wrapping")
	}
	if IsKind(err, KindNetwork) {
		t.Error("unexpected network kind")
	}
	if IsKind(errors.New("plain"), KindScrape) {
		t.Error("untagged error must not match any kind")
	}
}
