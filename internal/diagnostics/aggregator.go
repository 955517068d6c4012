package diagnostics

import (
	"fmt"
	"strings"

	"github.com/toyz/annotest/internal/errors"
)

// Kind classifies an assertion mismatch
type Kind int

const (
	AnnotationNotFound Kind = iota
	ParameterNotFound
	ValueMismatch
	UnexpectedValue
	AliasNotFound
	AccessFailure
	AnnotationSetMismatch
)

// String returns the string representation of the mismatch kind
func (k Kind) String() string {
	switch k {
	case AnnotationNotFound:
		return "annotation_not_found"
	case ParameterNotFound:
		return "parameter_not_found"
	case ValueMismatch:
		return "value_mismatch"
	case UnexpectedValue:
		return "unexpected_value"
	case AliasNotFound:
		return "alias_not_found"
	case AccessFailure:
		return "access_failure"
	case AnnotationSetMismatch:
		return "annotation_set_mismatch"
	default:
		return "unknown"
	}
}

// Mismatch is one disagreement between expected and actual metadata
type Mismatch struct {
	Kind       Kind
	Annotation string // qualified annotation type name, if any
	Parameter  string // parameter name, if any
	Expected   any
	Actual     any
	Message    string
}

func (m *Mismatch) Error() string {
	return m.Message
}

// Aggregator collects mismatches for a single validation pass
type Aggregator struct {
	mismatches []*Mismatch
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Record appends a mismatch
func (a *Aggregator) Record(m *Mismatch) {
	a.mismatches = append(a.mismatches, m)
}

// Recordf appends a mismatch of the given kind with a formatted message
func (a *Aggregator) Recordf(kind Kind, annotation, parameter string, format string, args ...interface{}) {
	a.Record(&Mismatch{
		Kind:       kind,
		Annotation: annotation,
		Parameter:  parameter,
		Message:    fmt.Sprintf(format, args...),
	})
}

// Len returns the number of recorded mismatches
func (a *Aggregator) Len() int {
	return len(a.mismatches)
}

// Mismatches returns the recorded mismatches in recording order
func (a *Aggregator) Mismatches() []*Mismatch {
	return append([]*Mismatch(nil), a.mismatches...)
}

// Finish returns nil when nothing was recorded, otherwise one composite
// error naming target.
func (a *Aggregator) Finish(target string) error {
	if len(a.mismatches) == 0 {
		return nil
	}
	return &Error{Target: target, Mismatches: a.Mismatches()}
}

// Error is the composite failure of one validation pass
type Error struct {
	Target     string
	Mismatches []*Mismatch
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error on validating %s (%d mismatch(es)):", e.Target, len(e.Mismatches))
	for i, m := range e.Mismatches {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, m.Message)
	}
	return b.String()
}

// Messages returns every mismatch message in recording order
func (e *Error) Messages() []string {
	messages := make([]string, len(e.Mismatches))
	for i, m := range e.Mismatches {
		messages[i] = m.Message
	}
	return messages
}

// ErrorCode classifies the composite as an assertion failure
func (e *Error) ErrorCode() errors.ErrorCode {
	return errors.AssertionErrorCode
}

// Unwrap exposes the individual mismatches to errors.As
func (e *Error) Unwrap() []error {
	errs := make([]error, len(e.Mismatches))
	for i, m := range e.Mismatches {
		errs[i] = m
	}
	return errs
}

// ByKind returns all mismatches of a specific kind
func (e *Error) ByKind(kind Kind) []*Mismatch {
	var result []*Mismatch
	for _, m := range e.Mismatches {
		if m.Kind == kind {
			result = append(result, m)
		}
	}
	return result
}

// HasKind returns true if any mismatch of the specified kind exists
func (e *Error) HasKind(kind Kind) bool {
	return len(e.ByKind(kind)) > 0
}
