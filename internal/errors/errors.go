package errors

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/sqllens/sqllens/internal/metrics"
	"github.com/sqllens/sqllens/internal/observability"
	"github.com/sqllens/sqllens/internal/server/middleware"
	"go.uber.org/zap"
)

// Severity classifies how an error should be logged.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Envelope is the structured error carried through the service. It satisfies
// the error interface so it can cross plain error-returning boundaries.
type Envelope struct {
	Code          string
	Message       string
	Severity      Severity
	CorrelationID string
	Details       map[string]interface{}
}

func (e *Envelope) Error() string {
	return e.Code + ": " + e.Message
}

// New creates an envelope with the given code and message.
func New(code, message string) *Envelope {
	return &Envelope{Code: code, Message: message}
}

// WithSeverity returns a copy of the envelope with the severity set.
func (e *Envelope) WithSeverity(s Severity) *Envelope {
	out := *e
	out.Severity = s
	return &out
}

// WithCorrelationID returns a copy of the envelope with the correlation ID set.
func (e *Envelope) WithCorrelationID(id string) *Envelope {
	out := *e
	out.CorrelationID = id
	return &out
}

// WithDetail returns a copy of the envelope with one detail added.
func (e *Envelope) WithDetail(key string, value interface{}) *Envelope {
	out := *e
	out.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		out.Details[k] = v
	}
	out.Details[key] = value
	return &out
}

// Error creation helpers for common error types

// User Errors (400-level)
func NewInvalidInputError(message string) *Envelope {
	return New("INVALID_INPUT", message)
}

func NewNotFoundError(message string) *Envelope {
	return New("NOT_FOUND", message)
}

func NewMethodNotAllowedError(message string) *Envelope {
	return New("METHOD_NOT_ALLOWED", message)
}

func NewConflictError(message string) *Envelope {
	return New("CONFLICT", message)
}

func NewValidationError(message string) *Envelope {
	return New("VALIDATION_FAILED", message)
}

// Server Errors (500-level)
func NewInternalError(message string) *Envelope {
	return New("INTERNAL_ERROR", message)
}

func NewDatabaseError(message string) *Envelope {
	return New("DATABASE_ERROR", message)
}

func NewExternalServiceError(message string) *Envelope {
	return New("EXTERNAL_SERVICE_ERROR", message)
}

func NewTimeoutError(message string) *Envelope {
	return New("TIMEOUT", message)
}

func NewServiceUnavailableError(message string) *Envelope {
	return New("SERVICE_UNAVAILABLE", message)
}

// Application-Specific Errors
func NewEvaluationError(message string) *Envelope {
	return New("EVALUATION_ERROR", message)
}

func NewConfigInvalidError(message string) *Envelope {
	return New("CONFIG_INVALID", message)
}

// Wrap functions attach the underlying error and the request correlation ID.

func WrapInvalidInput(ctx context.Context, err error, message string) *Envelope {
	return wrap(ctx, err, "INVALID_INPUT", message)
}

func WrapNotFound(ctx context.Context, err error, message string) *Envelope {
	return wrap(ctx, err, "NOT_FOUND", message)
}

func WrapValidationError(ctx context.Context, err error, message string) *Envelope {
	return wrap(ctx, err, "VALIDATION_FAILED", message)
}

func WrapInternal(ctx context.Context, err error, message string) *Envelope {
	return wrap(ctx, err, "INTERNAL_ERROR", message)
}

func WrapDatabaseError(ctx context.Context, err error, message string) *Envelope {
	return wrap(ctx, err, "DATABASE_ERROR", message)
}

func WrapExternalService(ctx context.Context, err error, message string) *Envelope {
	return wrap(ctx, err, "EXTERNAL_SERVICE_ERROR", message)
}

func WrapTimeout(ctx context.Context, err error, message string) *Envelope {
	return wrap(ctx, err, "TIMEOUT", message)
}

func WrapEvaluationError(ctx context.Context, err error, message string) *Envelope {
	return wrap(ctx, err, "EVALUATION_ERROR", message)
}

func WrapConfigInvalid(ctx context.Context, err error, message string) *Envelope {
	return wrap(ctx, err, "CONFIG_INVALID", message)
}

func wrap(ctx context.Context, err error, code, message string) *Envelope {
	envelope := New(code, message).WithCorrelationID(extractCorrelationID(ctx))
	if err != nil {
		envelope = envelope.WithDetail("wrapped_error", err.Error())
	}
	return envelope
}

// extractCorrelationID gets the request ID from context, falls back to a new UUID
func extractCorrelationID(ctx context.Context) string {
	if ctx != nil {
		if requestID := middleware.GetRequestID(ctx); requestID != "" {
			return requestID
		}
	}
	return uuid.New().String()
}

// EnsureEnvelope normalizes any error into an Envelope.
func EnsureEnvelope(err error) *Envelope {
	if err == nil {
		return New("INTERNAL_ERROR", "unexpected nil error").WithSeverity(SeverityCritical)
	}

	if envelope, ok := err.(*Envelope); ok && envelope != nil {
		return envelope
	}

	return New("INTERNAL_ERROR", "unexpected error").
		WithDetail("wrapped_error", err.Error()).
		WithSeverity(SeverityHigh)
}

// EnsureCorrelationID attaches a correlation ID to the envelope using the context when available.
func EnsureCorrelationID(envelope *Envelope, ctx context.Context) *Envelope {
	if envelope == nil {
		return nil
	}

	if envelope.CorrelationID != "" {
		return envelope
	}

	var correlationID string
	if ctx != nil {
		correlationID = middleware.GetRequestID(ctx)
	}

	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	return envelope.WithCorrelationID(correlationID)
}

// HTTPStatusFromEnvelope resolves the HTTP status code corresponding to an error envelope.
func HTTPStatusFromEnvelope(envelope *Envelope) int {
	if envelope == nil {
		return http.StatusInternalServerError
	}
	return HTTPStatusFromCode(envelope.Code)
}

// HTTPStatusFromCode resolves the HTTP status code corresponding to an error code.
func HTTPStatusFromCode(code string) int {
	switch code {
	case "INVALID_INPUT", "VALIDATION_FAILED":
		return http.StatusBadRequest
	case "NOT_FOUND":
		return http.StatusNotFound
	case "METHOD_NOT_ALLOWED":
		return http.StatusMethodNotAllowed
	case "CONFLICT":
		return http.StatusConflict
	case "TIMEOUT":
		return http.StatusGatewayTimeout
	case "EXTERNAL_SERVICE_ERROR":
		return http.StatusBadGateway
	case "SERVICE_UNAVAILABLE":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorDetail captures the error body returned to callers.
type HTTPErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// HTTPErrorResponse wraps HTTPErrorDetail in the standard envelope structure.
type HTTPErrorResponse struct {
	Error HTTPErrorDetail `json:"error"`
}

// RespondWithError normalizes the supplied error and writes a JSON response.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	RespondWithEnvelope(w, r, EnsureEnvelope(err))
}

// RespondWithEnvelope finalizes the provided envelope, logging and emitting metrics.
func RespondWithEnvelope(w http.ResponseWriter, r *http.Request, envelope *Envelope) {
	if w == nil {
		return
	}

	if r != nil {
		envelope = EnsureCorrelationID(envelope, r.Context())
	} else {
		envelope = EnsureCorrelationID(envelope, nil)
	}

	statusCode := HTTPStatusFromEnvelope(envelope)

	response := HTTPErrorResponse{
		Error: HTTPErrorDetail{
			Code:      envelope.Code,
			Message:   envelope.Message,
			Details:   envelope.Details,
			RequestID: envelope.CorrelationID,
		},
	}

	logHTTPError(envelope, statusCode)
	emitErrorMetrics(r, envelope, statusCode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func logHTTPError(envelope *Envelope, statusCode int) {
	if observability.ServerLogger == nil || envelope == nil {
		return
	}

	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.Int("http_status", statusCode),
	}

	if envelope.Severity != "" {
		fields = append(fields, zap.String("severity", string(envelope.Severity)))
	}

	for key, value := range envelope.Details {
		fields = append(fields, zap.Any(key, value))
	}

	if envelope.CorrelationID != "" {
		fields = append(fields, zap.String("request_id", envelope.CorrelationID))
	}

	switch envelope.Severity {
	case SeverityCritical, SeverityHigh:
		observability.ServerLogger.Error(envelope.Message, fields...)
	case SeverityMedium:
		observability.ServerLogger.Warn(envelope.Message, fields...)
	default:
		observability.ServerLogger.Info(envelope.Message, fields...)
	}
}

func emitErrorMetrics(r *http.Request, envelope *Envelope, statusCode int) {
	if envelope == nil {
		return
	}

	metrics.RecordError(envelope.Code, statusCode)
	if r != nil {
		metrics.RecordErrorByEndpoint(r.URL.Path, envelope.Code)
	}
}
