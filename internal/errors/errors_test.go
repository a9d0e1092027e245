package errors

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		detail   string
		wantKind Kind
		wantCode string
	}{
		{
			name:     "forbidden means quota exhausted",
			status:   http.StatusForbidden,
			detail:   "Monthly scan limit reached",
			wantKind: KindQuotaExceeded,
			wantCode: ErrCodeQuotaExceeded,
		},
		{
			name:     "bad request carries detail",
			status:   http.StatusBadRequest,
			detail:   "resume text is empty",
			wantKind: KindValidationRejected,
			wantCode: ErrCodeRequestRejected,
		},
		{
			name:     "unprocessable entity without detail",
			status:   http.StatusUnprocessableEntity,
			wantKind: KindValidationRejected,
			wantCode: ErrCodeRequestRejected,
		},
		{
			name:     "internal server error",
			status:   http.StatusInternalServerError,
			wantKind: KindServerFault,
			wantCode: ErrCodeServerFault,
		},
		{
			name:     "bad gateway",
			status:   http.StatusBadGateway,
			wantKind: KindServerFault,
			wantCode: ErrCodeServerFault,
		},
		{
			name:     "unexpected redirect",
			status:   http.StatusFound,
			wantKind: KindInternal,
			wantCode: ErrCodeUnexpectedStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyStatus(tt.status, tt.detail)
			if err.Kind != tt.wantKind {
				t.Errorf("ClassifyStatus(%d) kind = %v, want %v", tt.status, err.Kind, tt.wantKind)
			}
			if err.Code != tt.wantCode {
				t.Errorf("ClassifyStatus(%d) code = %v, want %v", tt.status, err.Code, tt.wantCode)
			}
		})
	}
}

func TestClassifyStatusDetailSurfaced(t *testing.T) {
	err := ClassifyStatus(http.StatusBadRequest, "job description too short")
	if err.Message != "job description too short" {
		t.Errorf("ClassifyStatus message = %q, want backend detail verbatim", err.Message)
	}
}

type fakeNetError struct{ timeout bool }

func (e *fakeNetError) Error() string   { return "fake net error" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return false }

func TestClassifyTransport(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind Kind
	}{
		{
			name:     "context deadline becomes timeout",
			err:      context.DeadlineExceeded,
			wantKind: KindTimeout,
		},
		{
			name:     "net timeout becomes timeout",
			err:      &fakeNetError{timeout: true},
			wantKind: KindTimeout,
		},
		{
			name:     "connection refused becomes unavailable",
			err:      stderrors.New("dial tcp 127.0.0.1:8080: connect: connection refused"),
			wantKind: KindBackendUnavailable,
		},
		{
			name:     "already classified error passes through",
			err:      NewQuotaExceededError(ErrCodeQuotaExceeded, "quota", nil),
			wantKind: KindQuotaExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyTransport(tt.err)
			if err.Kind != tt.wantKind {
				t.Errorf("ClassifyTransport() kind = %v, want %v", err.Kind, tt.wantKind)
			}
		})
	}

	if ClassifyTransport(nil) != nil {
		t.Error("ClassifyTransport(nil) should be nil")
	}
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unavailable is recoverable", NewBackendUnavailableError(ErrCodeBackendUnreachable, "down", nil), true},
		{"timeout is recoverable", NewTimeoutError(ErrCodeCallTimeout, "slow", nil), true},
		{"server fault is recoverable", NewServerFaultError(ErrCodeServerFault, "oops", nil), true},
		{"quota is not recoverable", NewQuotaExceededError(ErrCodeQuotaExceeded, "limit", nil), false},
		{"validation is not recoverable", NewValidationError(ErrCodeRequestRejected, "bad", nil), false},
		{"plain error is not recoverable", stderrors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRecoverable(tt.err); got != tt.want {
				t.Errorf("IsRecoverable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if kind := KindOf(stderrors.New("plain")); kind != KindInternal {
		t.Errorf("KindOf(plain error) = %v, want %v", kind, KindInternal)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := NewIOError(ErrCodeFileNotReadable, "read failed", cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := New(level); err != nil {
			t.Errorf("New(%q) returned error: %v", level, err)
		}
	}
	if _, err := New("verbose"); err == nil {
		t.Error("New(\"verbose\") should reject an unknown level")
	}
}

var _ net.Error = (*fakeNetError)(nil)
