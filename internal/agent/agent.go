package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/consilium/internal/model"
)

// Agent is the single capability every reasoning backend must provide:
// produce one structured Opinion for a query over a corpus, within the
// deadline carried by ctx. Prompt construction and response parsing are
// each implementation's private concern.
type Agent interface {
	// ID returns the stable pool-entry identifier.
	ID() string

	// Label returns a human-readable model/type label for diagnostics.
	Label() string

	// Produce analyzes the corpus and returns a fully populated Opinion
	// with confidence in [0,1], or a typed *Error.
	Produce(ctx context.Context, req Request) (*model.Opinion, error)

	// Available checks if the backend is configured and reachable.
	Available(ctx context.Context) bool
}

// Request is the input for one agent invocation.
type Request struct {
	Query     string
	Corpus    []model.Document
	Dimension model.Dimension
}

// Kind classifies agent failures. The orchestrator treats every kind the
// same way (drop the agent from the round); the kind only feeds diagnostics.
type Kind string

const (
	KindTimeout     Kind = "timeout"
	KindTransport   Kind = "transport"
	KindRateLimited Kind = "rate_limited"
	KindMalformed   Kind = "malformed_response"
)

// Error is a typed agent failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds a typed agent error.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError wraps an underlying cause with a kind.
func WrapError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the failure kind from any error an agent returned.
// Deadline expiry maps to timeout regardless of how the transport
// surfaced it; everything untyped is a transport failure.
func KindOf(err error) Kind {
	var agentErr *Error
	if errors.As(err, &agentErr) {
		return agentErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindTransport
}

// classifyStatus maps an HTTP status code to a failure kind.
func classifyStatus(status int) Kind {
	if status == 429 {
		return KindRateLimited
	}
	return KindTransport
}
