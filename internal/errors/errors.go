package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
)

// Kind represents different categories of errors
type Kind string

const (
	// KindBackendUnavailable covers connection failures before the backend is
	// known to be reachable. Recoverable by retry or degraded mode.
	KindBackendUnavailable Kind = "backend_unavailable"
	// KindTimeout covers calls exceeding their bounded duration.
	KindTimeout Kind = "timeout"
	// KindQuotaExceeded maps a 403 from any quota-gated endpoint.
	KindQuotaExceeded Kind = "quota_exceeded"
	// KindValidationRejected maps a non-403 4xx with a structured error payload.
	KindValidationRejected Kind = "validation_rejected"
	// KindServerFault maps any 5xx response.
	KindServerFault Kind = "server_fault"
	// KindIO covers local file errors (resume/job inputs, state file).
	KindIO Kind = "io"
	// KindConfig covers invalid configuration.
	KindConfig Kind = "config"
	// KindInternal covers programming defects that should be unreachable.
	KindInternal Kind = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Kind    Kind           `json:"kind"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// newAppError is an unexported helper to create AppError instances
func newAppError(kind Kind, code, message string, cause error) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error constructors for different kinds
func NewBackendUnavailableError(code, message string, cause error) *AppError {
	return newAppError(KindBackendUnavailable, code, message, cause)
}

func NewTimeoutError(code, message string, cause error) *AppError {
	return newAppError(KindTimeout, code, message, cause)
}

func NewQuotaExceededError(code, message string, cause error) *AppError {
	return newAppError(KindQuotaExceeded, code, message, cause)
}

func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(KindValidationRejected, code, message, cause)
}

func NewServerFaultError(code, message string, cause error) *AppError {
	return newAppError(KindServerFault, code, message, cause)
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(KindIO, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(KindConfig, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(KindInternal, code, message, cause)
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// KindOf returns the classified kind of err, or KindInternal for errors that
// never went through classification.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsQuotaExceeded reports whether err carries the quota-exceeded kind.
// Wizards use this to short-circuit into the upsell stage.
func IsQuotaExceeded(err error) bool {
	return KindOf(err) == KindQuotaExceeded
}

// IsRecoverable reports whether err is worth an automatic retry.
func IsRecoverable(err error) bool {
	switch KindOf(err) {
	case KindBackendUnavailable, KindTimeout, KindServerFault:
		return true
	}
	return false
}

// ClassifyStatus maps an HTTP status code plus the backend's structured error
// detail to the client taxonomy. A 403 from any gated endpoint means the plan
// quota was exhausted, regardless of which feature produced it.
func ClassifyStatus(status int, detail string) *AppError {
	switch {
	case status == http.StatusForbidden:
		return NewQuotaExceededError(ErrCodeQuotaExceeded,
			"Plan quota exceeded for this action", nil)
	case status >= 400 && status < 500:
		msg := detail
		if msg == "" {
			msg = fmt.Sprintf("Request rejected with status %d", status)
		}
		return NewValidationError(ErrCodeRequestRejected, msg, nil).
			WithContext("status", status)
	case status >= 500:
		return NewServerFaultError(ErrCodeServerFault,
			"The service hit an unexpected error, please try again", nil).
			WithContext("status", status)
	default:
		return NewInternalError(ErrCodeUnexpectedStatus,
			fmt.Sprintf("Unexpected response status %d", status), nil)
	}
}

// ClassifyTransport maps transport-level failures (no HTTP response at all)
// to the taxonomy. Context deadlines and net timeouts become KindTimeout;
// everything else is the backend being unreachable.
func ClassifyTransport(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(ErrCodeCallTimeout, "Request timed out", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(ErrCodeCallTimeout, "Request timed out", err)
	}

	return NewBackendUnavailableError(ErrCodeBackendUnreachable,
		"Could not reach the service", err)
}

// Logger wraps slog with application-specific methods
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a new structured logger
func NewLogger(level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(handler)

	return &Logger{logger: logger}
}

// LogError logs an application error with appropriate level and context
func (l *Logger) LogError(err error, message string, args ...any) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		logArgs := []any{
			"error_kind", appErr.Kind,
			"error_code", appErr.Code,
			"error_message", appErr.Message,
		}

		for key, value := range appErr.Context {
			logArgs = append(logArgs, key, value)
		}

		logArgs = append(logArgs, args...)

		l.logger.Error(message, logArgs...)
	} else {
		logArgs := append([]any{"error", err.Error()}, args...)
		l.logger.Error(message, logArgs...)
	}
}

func (l *Logger) Info(message string, args ...any) {
	l.logger.Info(message, args...)
}

func (l *Logger) Debug(message string, args ...any) {
	l.logger.Debug(message, args...)
}

func (l *Logger) Warn(message string, args ...any) {
	l.logger.Warn(message, args...)
}

// New creates a new logger instance
func New(level string) (*Logger, error) {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	return NewLogger(slogLevel), nil
}

// Common error codes
const (
	ErrCodeFileNotFound       = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable    = "FILE_NOT_READABLE"
	ErrCodeInvalidFormat      = "INVALID_FORMAT"
	ErrCodeBackendUnreachable = "BACKEND_UNREACHABLE"
	ErrCodeCallTimeout        = "CALL_TIMEOUT"
	ErrCodeQuotaExceeded      = "QUOTA_EXCEEDED"
	ErrCodeRequestRejected    = "REQUEST_REJECTED"
	ErrCodeServerFault        = "SERVER_FAULT"
	ErrCodeUnexpectedStatus   = "UNEXPECTED_STATUS"
	ErrCodeInvalidConfig      = "INVALID_CONFIG"
	ErrCodeStageNotReachable  = "STAGE_NOT_REACHABLE"
	ErrCodeStateStore         = "STATE_STORE"
)
