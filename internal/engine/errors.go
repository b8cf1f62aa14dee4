package engine

import (
	"errors"
	"fmt"
)

// Kind tags where a request failed.
type Kind string

const (
	KindNetwork  Kind = "network"  // transport failure or oversized body
	KindDecode   Kind = "decode"   // body is not valid text
	KindScrape   Kind = "scrape"   // marker or token missing / malformed
	KindUpstream Kind = "upstream" // non-2xx status or error envelope
)

// Scrape stages.
const (
	StageContext = "context"
	StageResult  = "result"
)

// Error is the tagged error every stage of a search returns.
// Status and Reason are what the HTTP boundary exposes; Err stays internal.
type Error struct {
	Kind   Kind
	Stage  string
	Status string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Stage != "" {
		msg += "[" + e.Stage + "]"
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// NetworkError wraps a transport failure.
func NetworkError(reason string, err error) *Error {
	return &Error{Kind: KindNetwork, Status: "Request Error", Reason: reason, Err: err}
}

// DecodeError reports a body that could not be read as text.
func DecodeError(reason string, err error) *Error {
	return &Error{Kind: KindDecode, Status: "String encode error", Reason: reason, Err: err}
}

// ScrapeError reports a missing or malformed marker at the given stage.
func ScrapeError(stage, reason string) *Error {
	return &Error{Kind: KindScrape, Stage: stage, Status: "Scrape Error", Reason: reason}
}

// UpstreamError reports a refusal by the remote service.
// An empty status defaults to "Upstream Error".
func UpstreamError(status, reason string) *Error {
	if status == "" {
		status = "Upstream Error"
	}
	return &Error{Kind: KindUpstream, Status: status, Reason: reason}
}

// IsKind reports whether err carries a tagged error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// ErrorResponse is the {status, reason} envelope returned to clients.
type ErrorResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// NewErrorResponse converts any error into the client envelope.
// Untagged errors keep only their message.
func NewErrorResponse(err error) ErrorResponse {
	var e *Error
	if errors.As(err, &e) {
		reason := e.Reason
		if e.Err != nil {
			reason = fmt.Sprintf("%s: %v", e.Reason, e.Err)
		}
		return ErrorResponse{Status: e.Status, Reason: reason}
	}
	return ErrorResponse{Status: "error", Reason: err.Error()}
}
