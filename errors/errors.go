package errors

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeRuntime    ErrorType = "RUNTIME"
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeSystem     ErrorType = "SYSTEM"
	ErrorTypeResource   ErrorType = "RESOURCE"
	ErrorTypeUser       ErrorType = "USER"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityDebug   ErrorSeverity = "DEBUG"
	SeverityInfo    ErrorSeverity = "INFO"
	SeverityWarning ErrorSeverity = "WARNING"
	SeverityError   ErrorSeverity = "ERROR"
	SeverityFatal   ErrorSeverity = "FATAL"
)

// Codes shared across packages.
const (
	CodeDepthExceeded   = "PARENS_DEPTH_EXCEEDED"
	CodeInvalidConfig   = "CONFIG_INVALID"
	CodeConfigRead      = "CONFIG_READ_FAILED"
	CodeConfigParse     = "CONFIG_PARSE_FAILED"
	CodeScriptLoad      = "SCRIPT_LOAD_FAILED"
	CodeScriptCall      = "SCRIPT_CALL_FAILED"
	CodeScriptResult    = "SCRIPT_BAD_RESULT"
	CodeIORead          = "IO_READ_FAILED"
	CodeIOWrite         = "IO_WRITE_FAILED"
	CodeUnknownEncoding = "ENCODING_UNKNOWN"
	CodeUnknownCommand  = "UNKNOWN_COMMAND"
	CodeBatchFailed     = "BATCH_FAILED"
	CodeNotEquation     = "EDIT_NOT_EQUATION"
	CodeMissingOperand  = "EDIT_MISSING_OPERAND"
)

// ExecutionError represents a structured error with detailed information
type ExecutionError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Language   string                 `json:"language,omitempty"`
	Offset     int                    `json:"offset,omitempty"`
	Path       string                 `json:"path,omitempty"`
	StackTrace string                 `json:"stack_trace,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Severity   ErrorSeverity          `json:"severity"`
	Type       ErrorType              `json:"type"`
	Cause      error                  `json:"-"`
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	var builder strings.Builder

	// Format: [TYPE][CODE] message
	builder.WriteString(fmt.Sprintf("[%s][%s] %s", e.Type, e.Code, e.Message))

	if e.Path != "" {
		builder.WriteString(fmt.Sprintf(" (path=%s)", e.Path))
	}
	if e.Offset > 0 {
		builder.WriteString(fmt.Sprintf(" at offset %d", e.Offset))
	}
	if e.Cause != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Cause.Error())
	}

	return builder.String()
}

// Unwrap returns the underlying error
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *ExecutionError) Is(target error) bool {
	if other, ok := target.(*ExecutionError); ok {
		return e.Code == other.Code && e.Type == other.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *ExecutionError) WithContext(key string, value interface{}) *ExecutionError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithLanguage sets the language for the error
func (e *ExecutionError) WithLanguage(language string) *ExecutionError {
	e.Language = language
	return e
}

// WithSeverity sets the severity level for the error
func (e *ExecutionError) WithSeverity(severity ErrorSeverity) *ExecutionError {
	e.Severity = severity
	return e
}

// WithOffset records the byte offset in the input where the error was detected
func (e *ExecutionError) WithOffset(offset int) *ExecutionError {
	e.Offset = offset
	return e
}

// WithPath records the file the error relates to
func (e *ExecutionError) WithPath(path string) *ExecutionError {
	e.Path = path
	return e
}

// WithStackTrace captures and adds stack trace information
func (e *ExecutionError) WithStackTrace() *ExecutionError {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	e.StackTrace = string(buf[:n])
	return e
}

// Wrap wraps another error
func (e *ExecutionError) Wrap(err error) *ExecutionError {
	e.Cause = err
	return e
}

// ErrorOption is a function that modifies an ExecutionError
type ErrorOption func(*ExecutionError)

// WithLanguageOption sets the language for the error
func WithLanguageOption(language string) ErrorOption {
	return func(e *ExecutionError) {
		e.Language = language
	}
}

// WithContextOption adds context information to the error
func WithContextOption(key string, value interface{}) ErrorOption {
	return func(e *ExecutionError) {
		_ = e.WithContext(key, value)
	}
}

func newError(errorType ErrorType, severity ErrorSeverity, code, message string, options ...ErrorOption) *ExecutionError {
	e := &ExecutionError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Severity:  severity,
		Type:      errorType,
		Context:   make(map[string]interface{}),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// NewRuntimeError creates a new runtime error
func NewRuntimeError(language, code, message string) *ExecutionError {
	return newError(ErrorTypeRuntime, SeverityError, code, message, WithLanguageOption(language))
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string) *ExecutionError {
	return newError(ErrorTypeValidation, SeverityWarning, code, message)
}

// NewSystemError creates a new system error
func NewSystemError(code, message string) *ExecutionError {
	return newError(ErrorTypeSystem, SeverityError, code, message)
}

// NewResourceError creates an error for a resource limit that was hit
func NewResourceError(code, message string, options ...ErrorOption) *ExecutionError {
	return newError(ErrorTypeResource, SeverityError, code, message, options...)
}

// NewUserError creates a new user error
func NewUserError(code, message string) *ExecutionError {
	return newError(ErrorTypeUser, SeverityInfo, code, message)
}

// WrapError wraps an existing error into an ExecutionError
func WrapError(err error, code, message string) *ExecutionError {
	return NewSystemError(code, message).Wrap(err)
}

// AsExecutionError converts an error to ExecutionError if possible
func AsExecutionError(err error) (*ExecutionError, bool) {
	for err != nil {
		if execErr, ok := err.(*ExecutionError); ok {
			return execErr, true
		}
		wrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = wrapper.Unwrap()
	}
	return nil, false
}

// HasCode reports whether err is, or wraps, an ExecutionError with the given code
func HasCode(err error, code string) bool {
	execErr, ok := AsExecutionError(err)
	return ok && execErr.Code == code
}
