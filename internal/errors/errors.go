package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Kind classifies an error for propagation and user-facing messaging
type Kind string

// Error kinds
const (
	// KindValidation is a local, pre-network failure. The call is never issued.
	KindValidation Kind = "validation"
	// KindTransport covers unreachable hosts, timeouts and undecodable responses.
	KindTransport Kind = "transport"
	// KindAuth covers 401 and 403 responses.
	KindAuth Kind = "auth"
	// KindNotFound covers 404 responses.
	KindNotFound Kind = "not_found"
	// KindServer covers 5xx responses.
	KindServer Kind = "server"
	// KindRequest covers 400 and any other 4xx the server rejects.
	KindRequest Kind = "request"
	// KindBusy is returned when a submission for the same target is already in flight.
	KindBusy Kind = "busy"
	// KindStorage covers credential storage failures.
	KindStorage Kind = "storage"
	// KindConfig covers configuration loading failures.
	KindConfig Kind = "config"
)

// Error codes
const (
	// Validation errors (VAL-001 to VAL-099)
	ErrCodeFieldRequired    ErrorCode = "VAL-001"
	ErrCodeEmailInvalid     ErrorCode = "VAL-002"
	ErrCodePasswordTooShort ErrorCode = "VAL-003"
	ErrCodePageOutOfRange   ErrorCode = "VAL-004"
	ErrCodeNotConfirmed     ErrorCode = "VAL-005"

	// Transport errors (NET-001 to NET-099)
	ErrCodeTransport      ErrorCode = "NET-001"
	ErrCodeTimeout        ErrorCode = "NET-002"
	ErrCodeDecodeResponse ErrorCode = "NET-003"
	ErrCodeEncodeRequest  ErrorCode = "NET-004"

	// API errors (API-001 to API-099)
	ErrCodeUnauthorized ErrorCode = "API-001"
	ErrCodeNotFound     ErrorCode = "API-002"
	ErrCodeServer       ErrorCode = "API-003"
	ErrCodeBadRequest   ErrorCode = "API-004"

	// Orchestration errors (UI-001 to UI-099)
	ErrCodeSubmissionInFlight ErrorCode = "UI-001"
	ErrCodeViewClosed         ErrorCode = "UI-002"

	// Storage errors (STORE-001 to STORE-099)
	ErrCodeStorageUnavailable ErrorCode = "STORE-001"
	ErrCodeStorageWrite       ErrorCode = "STORE-002"

	// Configuration errors (CFG-001 to CFG-099)
	ErrCodeConfigRead  ErrorCode = "CFG-001"
	ErrCodeConfigParse ErrorCode = "CFG-002"
)

// ConsoleError represents an error with code, kind, suggestions and cause
type ConsoleError struct {
	Code        ErrorCode
	Kind        Kind
	Status      int // HTTP status when the error came from a response
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *ConsoleError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *ConsoleError) Unwrap() error {
	return e.Cause
}

// New creates a new ConsoleError
func New(kind Kind, code ErrorCode, message string) *ConsoleError {
	return &ConsoleError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Wrap creates a new ConsoleError wrapping an existing error
func Wrap(kind Kind, code ErrorCode, message string, cause error) *ConsoleError {
	return &ConsoleError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *ConsoleError) WithSuggestion(suggestion string) *ConsoleError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithStatus records the HTTP status that produced the error
func (e *ConsoleError) WithStatus(status int) *ConsoleError {
	e.Status = status
	return e
}

// As finds the first ConsoleError in err's chain
func As(err error) (*ConsoleError, bool) {
	var ce *ConsoleError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// KindOf returns the kind of the first ConsoleError in err's chain, or "" if none.
func KindOf(err error) Kind {
	if ce, ok := As(err); ok {
		return ce.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusOf returns the HTTP status recorded on err, or 0.
func StatusOf(err error) int {
	if ce, ok := As(err); ok {
		return ce.Status
	}
	return 0
}

// Common constructors

// NewFieldRequiredError reports an empty required form field
func NewFieldRequiredError(field string) *ConsoleError {
	return New(KindValidation, ErrCodeFieldRequired, fmt.Sprintf("%s is required", field)).
		WithSuggestion("Fill in every required field before submitting")
}

// NewEmailInvalidError reports a malformed email address
func NewEmailInvalidError() *ConsoleError {
	return New(KindValidation, ErrCodeEmailInvalid, "Please enter a valid email address")
}

// NewPasswordTooShortError reports a password under the minimum length
func NewPasswordTooShortError(min int) *ConsoleError {
	return New(KindValidation, ErrCodePasswordTooShort, fmt.Sprintf("Password must be at least %d characters", min))
}

// NewPageOutOfRangeError reports a page number below 1
func NewPageOutOfRangeError(page int) *ConsoleError {
	return New(KindValidation, ErrCodePageOutOfRange, fmt.Sprintf("page must be >= 1, got %d", page))
}

// NewNotConfirmedError reports a delete attempted without a matching staged target
func NewNotConfirmedError(id int) *ConsoleError {
	return New(KindValidation, ErrCodeNotConfirmed, fmt.Sprintf("deletion of record %d was not confirmed", id)).
		WithSuggestion("Stage the record for deletion and confirm it")
}

// NewSubmissionInFlightError reports a duplicate submission
func NewSubmissionInFlightError(action string) *ConsoleError {
	return New(KindBusy, ErrCodeSubmissionInFlight, fmt.Sprintf("%s is already in progress", action))
}

// NewViewClosedError reports a response that arrived after its view was torn down
func NewViewClosedError() *ConsoleError {
	return New(KindBusy, ErrCodeViewClosed, "view was closed before the response arrived")
}

// NewTransportError wraps a network failure
func NewTransportError(cause error) *ConsoleError {
	return Wrap(KindTransport, ErrCodeTransport, "request failed", cause).
		WithSuggestion("Check your network connection and the configured API URL")
}

// NewUnauthorizedError reports a 401/403 response
func NewUnauthorizedError(status int, message string) *ConsoleError {
	if message == "" {
		message = "not authorized"
	}
	return New(KindAuth, ErrCodeUnauthorized, message).
		WithStatus(status).
		WithSuggestion("Run 'nexconsole login' to authenticate again")
}

// NewStorageUnavailableError reports credential storage that cannot be used
func NewStorageUnavailableError(path string, cause error) *ConsoleError {
	return Wrap(KindStorage, ErrCodeStorageUnavailable, fmt.Sprintf("credential storage unavailable: %s", path), cause).
		WithSuggestion("Check permissions on the configuration directory").
		WithSuggestion("Set NEXCONSOLE_CONFIG_DIR to a writable directory")
}
