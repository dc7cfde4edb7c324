package errors

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorMapper maps domain/application errors to a Problem.
type ErrorMapper func(err error) (Problem, bool)

// Responder renders envelopes and maps errors through a chain of mappers.
// Server-side failures are logged and answered with an opaque body plus a trace reference.
type Responder struct {
	logger  *slog.Logger
	mappers []ErrorMapper
}

// NewResponder creates a responder with custom error mappers.
func NewResponder(logger *slog.Logger, mappers ...ErrorMapper) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{logger: logger, mappers: mappers}
}

// AddMapper adds an error mapper to the chain.
func (r *Responder) AddMapper(mapper ErrorMapper) {
	r.mappers = append(r.mappers, mapper)
}

// Respond sends the problem as an envelope.
func (r *Responder) Respond(c *gin.Context, problem Problem) {
	body := Envelope{Success: false, Message: problem.Message}
	if problem.Server() {
		reference := r.recordServerError(c, problem)
		body.Error = problem.Code
		if body.Error == "" {
			body.Error = CodeInternal
		}
		body.Reference = reference
	}
	c.AbortWithStatusJSON(problem.Status, body)
}

// RespondError tries each mapper before falling back to an opaque 500.
func (r *Responder) RespondError(c *gin.Context, err error) {
	r.RespondErrorWithFallback(c, err, ErrInternal)
}

// RespondErrorWithFallback is RespondError with a caller-chosen fallback problem.
func (r *Responder) RespondErrorWithFallback(c *gin.Context, err error, fallback Problem) {
	if err == nil {
		return
	}
	var problem Problem
	if errors.As(err, &problem) {
		r.Respond(c, problem)
		return
	}
	for _, mapper := range r.mappers {
		if mapped, ok := mapper(err); ok {
			if mapped.Cause == nil {
				mapped.Cause = err
			}
			r.Respond(c, mapped)
			return
		}
	}
	r.Respond(c, fallback.WithCause(err))
}

// BadRequest sends a 400 envelope.
func (r *Responder) BadRequest(c *gin.Context, message string) {
	r.Respond(c, ErrBadRequest.WithMessage(message))
}

// NotFound sends a 404 envelope.
func (r *Responder) NotFound(c *gin.Context, message string) {
	r.Respond(c, ErrNotFound.WithMessage(message))
}

func (r *Responder) recordServerError(c *gin.Context, problem Problem) string {
	span := trace.SpanFromContext(c.Request.Context())
	reference := ""
	if sc := span.SpanContext(); sc.HasTraceID() {
		reference = sc.TraceID().String()
	}
	cause := problem.Cause
	if cause == nil {
		cause = errors.New(problem.Message)
	}
	span.RecordError(cause)
	span.SetStatus(codes.Error, problem.Message)
	r.logger.LogAttrs(c.Request.Context(), slog.LevelError, "request failed",
		slog.Int("status", problem.Status),
		slog.String("method", c.Request.Method),
		slog.String("path", c.FullPath()),
		slog.String("reference", reference),
		slog.String("error", cause.Error()),
	)
	return reference
}

// HTTPStatusFromError extracts HTTP status from an error if possible.
func HTTPStatusFromError(err error) int {
	var problem Problem
	if errors.As(err, &problem) {
		return problem.Status
	}
	return http.StatusInternalServerError
}
