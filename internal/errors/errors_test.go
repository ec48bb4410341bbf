package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(KindValidation, ErrCodeFieldRequired, "name is required")

	if err.Code != ErrCodeFieldRequired {
		t.Errorf("expected code %s, got %s", ErrCodeFieldRequired, err.Code)
	}

	if err.Kind != KindValidation {
		t.Errorf("expected kind %s, got %s", KindValidation, err.Kind)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := Wrap(KindTransport, ErrCodeTransport, "request failed", cause)

	if err.Cause != cause {
		t.Errorf("expected cause to be set")
	}

	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *ConsoleError
		wantCode string
		wantMsg  string
	}{
		{
			name:     "simple error",
			err:      New(KindServer, ErrCodeServer, "server fault"),
			wantCode: "API-003",
			wantMsg:  "server fault",
		},
		{
			name:     "error with cause",
			err:      Wrap(KindTransport, ErrCodeTimeout, "request timed out", fmt.Errorf("deadline exceeded")),
			wantCode: "NET-002",
			wantMsg:  "deadline exceeded",
		},
		{
			name:     "error with suggestion",
			err:      NewFieldRequiredError("job"),
			wantCode: "VAL-001",
			wantMsg:  "Fill in every required field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantCode) {
				t.Errorf("error string should contain code %s, got: %s", tt.wantCode, errStr)
			}

			if !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("error string should contain message '%s', got: %s", tt.wantMsg, errStr)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"plain error", fmt.Errorf("boom"), ""},
		{"direct", NewUnauthorizedError(401, ""), KindAuth},
		{"wrapped", fmt.Errorf("list users: %w", NewTransportError(fmt.Errorf("eof"))), KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("delete: %w", NewNotConfirmedError(7))

	if !IsKind(err, KindValidation) {
		t.Error("expected validation kind through wrapping")
	}
	if IsKind(err, KindServer) {
		t.Error("did not expect server kind")
	}
	if IsKind(nil, KindValidation) {
		t.Error("nil error should match no kind")
	}
}

func TestStatusOf(t *testing.T) {
	err := fmt.Errorf("login: %w", NewUnauthorizedError(403, "forbidden"))
	if got := StatusOf(err); got != 403 {
		t.Errorf("StatusOf() = %d, want 403", got)
	}
	if got := StatusOf(fmt.Errorf("plain")); got != 0 {
		t.Errorf("StatusOf(plain) = %d, want 0", got)
	}
}

func TestWithSuggestion(t *testing.T) {
	err := New(KindStorage, ErrCodeStorageWrite, "write failed").
		WithSuggestion("first").
		WithSuggestion("second")

	if len(err.Suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(err.Suggestions))
	}
	if !strings.Contains(err.Error(), "Suggestions:") {
		t.Errorf("expected suggestions block in %q", err.Error())
	}
}
