package engine

import (
	"github.com/toyz/annotest/internal/alias"
	"github.com/toyz/annotest/internal/diagnostics"
	"github.com/toyz/annotest/pkg/metadata"
)

// matchResult is the outcome of matching one expectation
type matchResult struct {
	annotation *metadata.Annotation // nil when not found
	covered    map[string]bool
}

// match checks one expectation against the resolved annotations and records
// every disagreement. It never stops early.
func (p *pass) match(expectation Expectation) matchResult {
	result := matchResult{covered: make(map[string]bool)}
	name := expectation.Annotation.QualifiedName()

	result.annotation = p.find(name)
	if result.annotation == nil {
		p.agg.Record(&diagnostics.Mismatch{
			Kind:       diagnostics.AnnotationNotFound,
			Annotation: name,
			Expected:   name,
			Message:    "Expected Annotation " + name + " not found",
		})
		return result
	}

	for _, param := range expectation.Params {
		p.matchParam(result, param)
	}
	return result
}

func (p *pass) find(qualifiedName string) *metadata.Annotation {
	for _, candidate := range p.resolved {
		if candidate.Type.QualifiedName() == qualifiedName {
			return candidate
		}
	}
	return nil
}

func (p *pass) matchParam(result matchResult, expected ParamExpectation) {
	annotation := result.annotation
	name := annotation.Type.QualifiedName()

	declared, ok := annotation.Type.Param(expected.Name)
	if !ok {
		p.agg.Recordf(diagnostics.ParameterNotFound, name, expected.Name, "Method %s not found.", expected.Name)
		return
	}

	// checked from here on, whether or not it matches
	result.covered[declared.Name] = true

	target, err := alias.Resolve(annotation, declared, p.resolved)
	if err != nil {
		p.agg.Record(&diagnostics.Mismatch{
			Kind:       diagnostics.AliasNotFound,
			Annotation: name,
			Parameter:  expected.Name,
			Message:    "Referenced alias method " + alias.Describe(declared) + " not found.",
		})
		return
	}
	if target != nil && target.Mirror {
		result.covered[target.Attribute] = true
	}

	actual, err := annotation.Get(declared.Name)
	if err != nil {
		p.agg.Recordf(diagnostics.AccessFailure, name, declared.Name,
			"Could not access/invoke method for '%s'.", declared.Name)
		return
	}
	list := declared.List || metadata.IsList(actual)
	if satisfies(actual, expected.Values, list) {
		return
	}

	if target != nil {
		aliased, err := target.Value()
		if err != nil {
			p.agg.Recordf(diagnostics.AccessFailure, name, declared.Name,
				"Could not access/invoke aliased method for '%s'.", target.Attribute)
			return
		}
		if satisfies(aliased, expected.Values, list) {
			return
		}
	}

	p.recordValueMismatch(name, declared.Name, actual, expected.Values, list)
}

// satisfies compares an accessor result with the expected values: a list must
// equal them element for element, a scalar must equal the first.
func satisfies(actual any, expected []any, list bool) bool {
	if list {
		return metadata.Equal(expected, actual)
	}
	return metadata.Equal(expected[0], actual)
}

func (p *pass) recordValueMismatch(annotation, param string, actual any, expected []any, list bool) {
	m := &diagnostics.Mismatch{
		Kind:       diagnostics.ValueMismatch,
		Annotation: annotation,
		Parameter:  param,
		Actual:     actual,
	}
	if list {
		m.Expected = metadata.ListOf(expected...)
		m.Message = "Unexpected values for Method '" + param + "' found. Expected " +
			metadata.Format(m.Expected) + " but was " + metadata.Format(actual) + "."
	} else {
		m.Expected = metadata.Normalize(expected[0])
		m.Message = "Unexpected value for Method '" + param + "' found. Expected " +
			metadata.Format(m.Expected) + " but was " + metadata.Format(actual) + "."
	}
	p.agg.Record(m)
}
