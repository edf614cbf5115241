package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failure for logs and API responses.
type ErrorCode string

const (
	// ErrCodeInputAmbiguity means the message lacked a required slot.
	ErrCodeInputAmbiguity ErrorCode = "INPUT_AMBIGUITY"
	// ErrCodeInvalidDate means a date was present but not a real calendar day.
	ErrCodeInvalidDate ErrorCode = "INVALID_DATE"
	// ErrCodeAdapterFailure covers feed and calendar errors and timeouts.
	ErrCodeAdapterFailure ErrorCode = "ADAPTER_FAILURE"
	// ErrCodeNotFound means a delete matched no stored event.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeStateMiss means a confirmation arrived with nothing pending.
	ErrCodeStateMiss ErrorCode = "STATE_MISS"
	// ErrCodeInternal is a local store or programming error.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// AssistantError is a failure carrying a code.
type AssistantError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

func (e *AssistantError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AssistantError) Unwrap() error {
	return e.Cause
}

// WithContext adds a key/value pair that is logged with the error.
func (e *AssistantError) WithContext(key string, value any) *AssistantError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func (e *AssistantError) GetCode() ErrorCode {
	return e.Code
}

// Convenience constructors.

func InputAmbiguity(msg string) *AssistantError {
	return &AssistantError{Code: ErrCodeInputAmbiguity, Message: msg}
}

func InvalidDate(msg string, cause error) *AssistantError {
	return &AssistantError{Code: ErrCodeInvalidDate, Message: msg, Cause: cause}
}

func AdapterFailure(adapter string, cause error) *AssistantError {
	return &AssistantError{Code: ErrCodeAdapterFailure, Message: adapter + " unavailable", Cause: cause}
}

func NotFound(msg string) *AssistantError {
	return &AssistantError{Code: ErrCodeNotFound, Message: msg}
}

func StateMiss(msg string) *AssistantError {
	return &AssistantError{Code: ErrCodeStateMiss, Message: msg}
}

func Internal(msg string, cause error) *AssistantError {
	return &AssistantError{Code: ErrCodeInternal, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with a code.
func Wrap(cause error, code ErrorCode, msg string) *AssistantError {
	return &AssistantError{Code: code, Message: msg, Cause: cause}
}

// IsCode reports whether any error in err's chain is an AssistantError with code.
func IsCode(err error, code ErrorCode) bool {
	var e *AssistantError
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCodeFromError extracts the code from err's chain, or returns defaultCode.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var e *AssistantError
	if errors.As(err, &e) {
		return e.Code
	}
	return defaultCode
}
