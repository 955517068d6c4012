package manifest

import (
	stderrors "errors"

	"github.com/toyz/annotest/internal/errors"
	"github.com/toyz/annotest/pkg/annotest"
	"github.com/toyz/annotest/pkg/metadata"
	"github.com/toyz/annotest/pkg/source"
)

// Result is the outcome of one check
type Result struct {
	Check  string
	Target string
	Mode   annotest.Mode
	// Err is nil on success, a *annotest.ValidationError on mismatches, or
	// a manifest or configuration error when the check could not run
	Err error
}

// Passed reports whether the check succeeded
func (r Result) Passed() bool {
	return r.Err == nil
}

// SetupErr returns the error that kept the check from running: an
// unresolvable target or annotation type, or a session configuration error.
// It is nil for passed checks and for assertion failures.
func (r Result) SetupErr() error {
	var verr *annotest.ValidationError
	if r.Err == nil || stderrors.As(r.Err, &verr) {
		return nil
	}
	return r.Err
}

// Mismatches returns the validation mismatches, if the check ran and failed
func (r Result) Mismatches() []*annotest.Mismatch {
	var verr *annotest.ValidationError
	if stderrors.As(r.Err, &verr) {
		return verr.Mismatches
	}
	return nil
}

// Run executes every check against program. Checks run independently; a
// check that cannot be resolved fails alone.
func (m *Manifest) Run(program *source.Program) []Result {
	results := make([]Result, 0, len(m.Checks))
	for i := range m.Checks {
		results = append(results, m.Checks[i].Run(program))
	}
	return results
}

// Run executes the check as one validation session
func (c *Check) Run(program *source.Program) Result {
	result := Result{Check: c.Label()}

	session, element, err := c.Session(program)
	if err != nil {
		result.Err = err
		return result
	}
	result.Target = element.String()
	result.Mode = session.Mode()
	result.Err = session.For(element)
	return result
}

// Session builds the validation session and resolves its element
func (c *Check) Session(program *source.Program) (*annotest.Validation, metadata.Element, error) {
	target, err := c.Target()
	if err != nil {
		return nil, nil, errors.Wrap(errors.ManifestErrorCode, c.Label(), err)
	}
	element, err := target.Resolve(program)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ManifestErrorCode, "unknown target "+target.String(), err)
	}

	mode, ok := annotest.ParseMode(c.Mode)
	if !ok {
		return nil, nil, errors.Newf(errors.ManifestErrorCode, "%s: unknown mode %q", c.Label(), c.Mode)
	}

	session := annotest.Validate(c.Blacklist...).WithMode(mode)
	if c.MatchReturnType {
		session.MatchReturnType()
	}
	for _, a := range c.Annotations {
		at, err := program.AnnotationType(a.Type)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ManifestErrorCode, "unknown annotation "+a.Type, err)
		}
		def := annotest.Type(at)
		for _, p := range a.Params {
			def.Param(p.Name, p.Values...)
		}
		session.Annotation(def)
	}
	return session, element, nil
}
