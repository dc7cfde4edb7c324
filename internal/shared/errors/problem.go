// Package errors renders API failures as the shop's JSON envelope.
package errors

import (
	"fmt"
	"net/http"
)

// Envelope is the body shape shared by every endpoint.
type Envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// Problem is a failure ready to be rendered.
type Problem struct {
	// Status is the HTTP status code for this occurrence.
	Status int
	// Message is the client-facing text.
	Message string
	// Code is an opaque machine-readable code, sent only for server-side failures.
	Code string
	// Cause is logged, never sent.
	Cause error
}

// Error implements the error interface.
func (p Problem) Error() string {
	if p.Cause != nil {
		return fmt.Sprintf("%s: %v", p.Message, p.Cause)
	}
	return p.Message
}

// Unwrap exposes the cause to errors.Is.
func (p Problem) Unwrap() error { return p.Cause }

// WithMessage returns a copy with the given message.
func (p Problem) WithMessage(message string) Problem {
	p.Message = message
	return p
}

// WithCause returns a copy carrying the underlying error.
func (p Problem) WithCause(err error) Problem {
	p.Cause = err
	return p
}

// Server reports whether the problem is a 5xx.
func (p Problem) Server() bool {
	return p.Status >= http.StatusInternalServerError
}

const (
	CodeInternal    = "internal_error"
	CodeUnavailable = "temporarily_unavailable"
	CodeUpstream    = "upstream_error"
)

// Pre-defined problem templates for common scenarios.
var (
	ErrBadRequest = Problem{Status: http.StatusBadRequest, Message: "Bad request"}

	ErrNotFound = Problem{Status: http.StatusNotFound, Message: "Not found"}

	ErrConflict = Problem{Status: http.StatusConflict, Message: "Conflict"}

	ErrTooManyRequests = Problem{Status: http.StatusTooManyRequests, Message: "Too many requests"}

	ErrInternal = Problem{Status: http.StatusInternalServerError, Message: "Server error occurred", Code: CodeInternal}

	ErrBadGateway = Problem{Status: http.StatusBadGateway, Message: "Upstream service failed", Code: CodeUpstream}

	ErrUnavailable = Problem{Status: http.StatusServiceUnavailable, Message: "Service temporarily unavailable, please retry", Code: CodeUnavailable}
)
