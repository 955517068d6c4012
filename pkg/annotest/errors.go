package annotest

import (
	"github.com/toyz/annotest/internal/diagnostics"
	"github.com/toyz/annotest/internal/errors"
)

// ValidationError is the composite failure of one validation pass. Its
// Mismatches are reachable through errors.As.
type ValidationError = diagnostics.Error

// Mismatch is a single disagreement reported inside a ValidationError
type Mismatch = diagnostics.Mismatch

// MismatchKind classifies a Mismatch
type MismatchKind = diagnostics.Kind

// Mismatch kinds
const (
	AnnotationNotFound    = diagnostics.AnnotationNotFound
	ParameterNotFound     = diagnostics.ParameterNotFound
	ValueMismatch         = diagnostics.ValueMismatch
	UnexpectedValue       = diagnostics.UnexpectedValue
	AliasNotFound         = diagnostics.AliasNotFound
	AccessFailure         = diagnostics.AccessFailure
	AnnotationSetMismatch = diagnostics.AnnotationSetMismatch
)

// ConfigError reports misuse of a session. It unwraps to one of the Err*
// values below.
type ConfigError = errors.ConfigError

// Configuration error reasons, for use with errors.Is
var (
	ErrNoExpectations    = errors.ErrNoExpectations
	ErrNoValues          = errors.ErrNoValues
	ErrNoAnnotationType  = errors.ErrNoAnnotationType
	ErrUnsupportedTarget = errors.ErrUnsupportedTarget
	ErrSessionConsumed   = errors.ErrSessionConsumed
)

// IsConfigError reports whether err is a ConfigError
func IsConfigError(err error) bool {
	return errors.IsConfigError(err)
}
