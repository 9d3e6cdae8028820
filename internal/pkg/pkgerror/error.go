package pkgerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates that the requested resource could not be found.
	ErrNotFound = errors.New("resource not found")
)

// Type classifies errors into high-level buckets used by the application.
type Type int

const (
	TypeServer        Type = iota // Server-side errors (e.g., encoding or I/O failures).
	TypeBusiness                  // Business logic errors (e.g., domain rule violations).
	TypeValidation                // Validation errors (e.g., request body failures).
	TypeRouting                   // Route resolution errors (404 / 405).
	TypeConfiguration             // Invalid registration or settings, fatal at startup.
)

func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	case TypeRouting:
		return "ERROR_TYPE_ROUTING"
	case TypeConfiguration:
		return "ERROR_TYPE_CONFIGURATION"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier used for mapping errors to HTTP status codes.
type Code int

const (
	CodeInternal         Code = iota // Internal or unspecified error.
	CodeInvalidFormat                // Error code for invalid format.
	CodeInvalidInput                 // Error code for invalid input.
	CodeNotFound                     // Error code for resource not found.
	CodeConflict                     // Error code for conflict situations (e.g., duplicate entries).
	CodeUnauthorized                 // Error code for unauthorized access.
	CodeForbidden                    // Error code for forbidden actions.
	CodeTimeout                      // Error code for operation timeout.
	CodeMethodNotAllowed             // Error code for a known route without the requested method.
	CodeCustom                       // Error code for caller-chosen statuses.
)

func (c Code) String() string {
	switch c {
	case CodeInvalidFormat:
		return "ERROR_CODE_INVALID_FORMAT"
	case CodeInvalidInput:
		return "ERROR_CODE_INVALID_INPUT"
	case CodeNotFound:
		return "ERROR_CODE_NOT_FOUND"
	case CodeConflict:
		return "ERROR_CODE_CONFLICT"
	case CodeUnauthorized:
		return "ERROR_CODE_UNAUTHORIZED"
	case CodeForbidden:
		return "ERROR_CODE_FORBIDDEN"
	case CodeTimeout:
		return "ERROR_CODE_TIMEOUT"
	case CodeMethodNotAllowed:
		return "ERROR_CODE_METHOD_NOT_ALLOWED"
	case CodeCustom:
		return "ERROR_CODE_CUSTOM"
	case CodeInternal:
		return "ERROR_CODE_INTERNAL"
	default:
		return "ERROR_CODE_INTERNAL"
	}
}

// Error is the classified error used across the application.
//
// It can wrap an underlying error while also carrying a user-facing message,
// a high-level type, a stable error code and, optionally, an explicit HTTP
// status that overrides the code mapping.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	status  int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}

	if e.msg != "" {
		return e.msg
	}

	switch e.errType {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Logical business not meet with requirement"
	case TypeServer:
		return "Internal error"
	case TypeRouting:
		return "Route not resolved"
	case TypeConfiguration:
		return "Invalid configuration"
	}

	return "Unknown error"
}

// String returns a verbose representation of the error for debugging/logging.
func (e *Error) String() string {
	return fmt.Sprintf(
		"Error Type: %s, Code: %s, Status: %d, Message: %s, Underlying Error: %v",
		e.errType.String(),
		e.code.String(),
		e.StatusCode(),
		e.msg,
		e.err,
	)
}

// Msg returns the user-facing error message, if set.
func (e *Error) Msg() string {
	return e.msg
}

// Type returns the high-level error type.
func (e *Error) Type() Type {
	return e.errType
}

// Code returns the stable error code.
func (e *Error) Code() Code {
	return e.code
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.err
}

// StatusCode returns the explicit status when one was set, otherwise it maps
// the error code to an HTTP status code.
func (e *Error) StatusCode() int {
	if e.status != 0 {
		return e.status
	}

	switch e.code {
	case CodeInvalidFormat:
		return http.StatusBadRequest
	case CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeTimeout:
		return http.StatusRequestTimeout
	case CodeConflict:
		return http.StatusConflict
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeCustom:
		return http.StatusBadRequest
	case CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func new(err error, msg string, et Type, code Code) *Error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer creates a server-type error with the provided error.
func NewServer(err error) error {
	return new(err, "Internal server error", TypeServer, CodeInternal)
}

// NewBusiness creates a business-type error with the specified message and code.
func NewBusiness(msg string, code Code) error {
	return new(nil, msg, TypeBusiness, code)
}

// NewInvalidInput creates a validation error answered with 422. The
// underlying error text becomes the user-facing message.
func NewInvalidInput(err error) error {
	msg := "validation error"
	if err != nil {
		msg = err.Error()
	}
	return new(err, msg, TypeValidation, CodeInvalidInput)
}

// NewInvalidFormat creates a validation error for a request body that could
// not be decoded as the named format (JSON, STRING, FORMDATA).
func NewInvalidFormat(format string) error {
	return new(nil, "Request body is not a valid "+format, TypeValidation, CodeInvalidFormat)
}

// NewCustom creates a classified error answered with 400 and msg as the body.
func NewCustom(msg string) error {
	return new(nil, msg, TypeBusiness, CodeCustom)
}

// NewCustomStatus creates a classified error answered with the given status.
// A non-positive status falls back to 400.
func NewCustomStatus(msg string, status int) error {
	e := new(nil, msg, TypeBusiness, CodeCustom)
	if status > 0 {
		e.status = status
	}
	return e
}

// NewUnauthorized creates a business error answered with 401.
func NewUnauthorized(msg string) error {
	return new(nil, msg, TypeBusiness, CodeUnauthorized)
}

// NewNotFound creates a routing error for an unmatched path.
func NewNotFound(path string) error {
	return new(nil, "Path "+path+" not found", TypeRouting, CodeNotFound)
}

// NewMethodNotAllowed creates a routing error for a path that exists but
// has no handler for method.
func NewMethodNotAllowed(path, method string) error {
	return new(nil, "Method "+method+" not allowed for path "+path, TypeRouting, CodeMethodNotAllowed)
}

// NewConfiguration creates a configuration error. These are returned at
// registration time and must abort startup.
func NewConfiguration(msg string) error {
	return new(nil, msg, TypeConfiguration, CodeInternal)
}
