package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/goalstats"
)

var (
	// ErrNotFound means a team query returned zero candidates
	ErrNotFound = errors.New("team not found")

	// ErrTransport means the data provider could not be reached or answered with an error
	ErrTransport = errors.New("data provider failure")

	// ErrInvalidInput is shared with the statistics package so errors.Is works across layers
	ErrInvalidInput = goalstats.ErrInvalidInput
)

// NotFoundError carries the query that matched nothing
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no team matches %q", e.Query)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// TransportError describes a failed provider call.
// StatusCode is 0 when no HTTP response was received.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s: status=%d: %s", e.Endpoint, e.StatusCode, msg)
	}
	return fmt.Sprintf("provider %s: %s", e.Endpoint, msg)
}

// Is reports ErrTransport so callers can use errors.Is without losing the cause chain
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError describes a rejected request field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// ErrorResponse is the JSON body of a failed API request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error codes reported to API and session clients
const (
	CodeTimeout      = "timeout"
	CodeCancelled    = "cancelled"
	CodeInvalidInput = "invalid_input"
	CodeNotFound     = "not_found"
	CodeTransport    = "transport_failure"
	CodeInternal     = "internal"
)

// ErrorCode classifies an error. Deadlines are checked first because a timed
// out provider call is also a transport error.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, context.Canceled):
		return CodeCancelled
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrTransport):
		return CodeTransport
	default:
		return CodeInternal
	}
}
