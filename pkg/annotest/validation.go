// Package annotest asserts that program elements carry an expected set of
// annotations with expected parameter values.
//
//	err := annotest.Validate().
//		Annotation(annotest.Type(marker).Param("value", "v1")).
//		Exactly().
//		ForMethod(method)
//
// Every mismatch of a pass is collected and returned as one *ValidationError.
package annotest

import (
	"github.com/toyz/annotest/internal/engine"
	"github.com/toyz/annotest/internal/errors"
	"github.com/toyz/annotest/pkg/metadata"
)

// Mode is the strictness of a session
type Mode = engine.Mode

// Strictness modes
const (
	ModeDefault = engine.Default
	ModeExactly = engine.Exactly
	ModeOnly    = engine.Only
)

// ParseMode converts "default", "exactly" or "only" to a Mode; the empty
// string is ModeDefault
func ParseMode(s string) (Mode, bool) {
	return engine.ParseMode(s)
}

var defaultBlacklist = []string{"Equal", "String", "Hash", "AnnotationType"}

// DefaultBlacklist returns the parameter names never checked as uncovered
// parameters: the accessors every annotation value exposes.
func DefaultBlacklist() []string {
	return append([]string(nil), defaultBlacklist...)
}

// Validation is a single-use validation session. It is not safe for
// concurrent use; distinct sessions are independent.
type Validation struct {
	expectations    []engine.Expectation
	mode            engine.Mode
	blacklist       []string
	matchReturnType bool
	consumed        bool
}

// Validate starts a session. extra names are added to the default blacklist.
func Validate(extra ...string) *Validation {
	blacklist := DefaultBlacklist()
	blacklist = append(blacklist, extra...)
	return &Validation{blacklist: blacklist}
}

// Annotation registers an expected annotation. Registration order is the
// order required by Exactly and Only.
func (v *Validation) Annotation(def *Definition) *Validation {
	if def == nil {
		def = &Definition{}
	}
	v.expectations = append(v.expectations, def.expectation())
	return v
}

// Exactly requires parameters without expectation to be empty and the
// element to carry no annotations beyond the expected ones
func (v *Validation) Exactly() *Validation {
	v.mode = engine.Exactly
	return v
}

// Only requires parameters without expectation to hold their declared
// defaults and the element to carry no annotations beyond the expected ones
func (v *Validation) Only() *Validation {
	v.mode = engine.Only
	return v
}

// WithMode sets the strictness mode by value; the last call wins
func (v *Validation) WithMode(mode Mode) *Validation {
	v.mode = mode
	return v
}

// MatchReturnType makes method resolution compare result types in addition
// to name and parameter types
func (v *Validation) MatchReturnType() *Validation {
	v.matchReturnType = true
	return v
}

// Mode returns the selected strictness mode
func (v *Validation) Mode() Mode {
	return v.mode
}

// ForClass validates a type
func (v *Validation) ForClass(t *metadata.Type) error {
	if t == nil {
		return v.run(nil)
	}
	return v.run(t)
}

// ForMethod validates a method
func (v *Validation) ForMethod(m *metadata.Method) error {
	if m == nil {
		return v.run(nil)
	}
	return v.run(m)
}

// ForField validates a struct field
func (v *Validation) ForField(f *metadata.Field) error {
	if f == nil {
		return v.run(nil)
	}
	return v.run(f)
}

// ForConstructor validates a constructor function
func (v *Validation) ForConstructor(c *metadata.Constructor) error {
	if c == nil {
		return v.run(nil)
	}
	return v.run(c)
}

// For validates any element
func (v *Validation) For(element metadata.Element) error {
	return v.run(element)
}

func (v *Validation) run(element metadata.Element) error {
	if v.consumed {
		return errors.NewConfigError(errors.ErrSessionConsumed, "")
	}
	v.consumed = true
	return engine.Run(v.config(), element)
}

func (v *Validation) config() engine.Config {
	return engine.Config{
		Expectations:    append([]engine.Expectation(nil), v.expectations...),
		Mode:            v.mode,
		Blacklist:       append([]string(nil), v.blacklist...),
		MatchReturnType: v.matchReturnType,
	}
}
