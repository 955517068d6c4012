package errors

import (
	stderrors "errors"
	"fmt"
)

// Reasons a validation session can be misconfigured. A ConfigError unwraps to
// exactly one of these.
var (
	ErrNoExpectations    = stderrors.New("Please add at least one Annotation to assert or enable strict validation.")
	ErrNoValues          = stderrors.New("at least one expected value is required")
	ErrUnsupportedTarget = stderrors.New("unsupported validation target")
	ErrNoAnnotationType  = stderrors.New("expectation has no annotation type")
	ErrSessionConsumed   = stderrors.New("validation session already used")
)

// ConfigError reports caller misuse detected independently of matching
type ConfigError struct {
	*BaseError
	Reason error  // one of the Err* sentinels
	Target string // description of the validated target, if known
}

// NewConfigError creates a configuration error for the given reason
func NewConfigError(reason error, target string) *ConfigError {
	message := reason.Error()
	if target != "" {
		message = fmt.Sprintf("invalid validation of %s: %s", target, reason.Error())
	}
	return &ConfigError{
		BaseError: Wrap(ConfigurationErrorCode, message, nil).WithContext("target", target),
		Reason:    reason,
		Target:    target,
	}
}

// NewConfigErrorf creates a configuration error with extra detail
func NewConfigErrorf(reason error, target, format string, args ...interface{}) *ConfigError {
	err := NewConfigError(reason, target)
	err.Message = fmt.Sprintf("%s: %s", err.Message, fmt.Sprintf(format, args...))
	return err
}

// Unwrap exposes the sentinel reason to errors.Is
func (e *ConfigError) Unwrap() error {
	return e.Reason
}

// WithSuggestion adds a helpful suggestion
func (e *ConfigError) WithSuggestion(suggestion string) *ConfigError {
	e.BaseError.WithSuggestion(suggestion)
	return e
}

// IsConfigError reports whether err is, or wraps, a ConfigError
func IsConfigError(err error) bool {
	var target *ConfigError
	return stderrors.As(err, &target)
}
