package exitcode

import (
	"os"
	"strings"

	"github.com/felixgeelhaar/nexconsole/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ValidationError indicates input rejected before any request was made
	ValidationError = 3

	// NotFound indicates the requested record does not exist
	NotFound = 4

	// AuthError indicates an authentication or authorization failure
	AuthError = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6

	// ServerError indicates the API failed or rejected the request
	ServerError = 7

	// StorageError indicates the credential or config file could not be used
	StorageError = 8

	// Interrupted indicates the user cancelled the operation
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	code := DetermineExitCode(err)
	Exit(code)
}

// DetermineExitCode maps an error to an exit code. Console errors are mapped
// by kind; anything else falls back to matching the message.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	switch errors.KindOf(err) {
	case errors.KindValidation, errors.KindBusy:
		return ValidationError
	case errors.KindNotFound:
		return NotFound
	case errors.KindAuth:
		return AuthError
	case errors.KindTransport:
		return NetworkError
	case errors.KindServer, errors.KindRequest:
		return ServerError
	case errors.KindStorage, errors.KindConfig:
		return StorageError
	}

	errMsg := strings.ToLower(err.Error())

	// Authentication errors
	if strings.Contains(errMsg, "unauthorized") || strings.Contains(errMsg, "not signed in") {
		return AuthError
	}

	// Network errors
	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "timeout") {
		return NetworkError
	}

	// Usage errors
	usage := []string{"invalid flag", "unknown flag", "unknown command", "required flag", "accepts", "invalid argument"}
	for _, s := range usage {
		if strings.Contains(errMsg, s) {
			return UsageError
		}
	}

	// Default to general error
	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case ValidationError:
		return "Validation error"
	case NotFound:
		return "Record not found"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case ServerError:
		return "Server error"
	case StorageError:
		return "Storage error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
