package annotest

import (
	"github.com/toyz/annotest/internal/engine"
	"github.com/toyz/annotest/pkg/metadata"
)

// Definition describes one expected annotation and its expected parameter values
type Definition struct {
	annotation *metadata.AnnotationType
	params     []engine.ParamExpectation
}

// Type starts a definition for the given annotation type
func Type(annotation *metadata.AnnotationType) *Definition {
	return &Definition{annotation: annotation}
}

// Param appends an expected parameter. A single value describes a scalar
// parameter; several values describe a list parameter in expected order.
// Calling Param without values is a configuration error reported by the
// terminal For call.
func (d *Definition) Param(name string, values ...any) *Definition {
	d.params = append(d.params, engine.ParamExpectation{
		Name:   name,
		Values: metadata.ListOf(values...),
	})
	return d
}

// AnnotationType returns the expected annotation type
func (d *Definition) AnnotationType() *metadata.AnnotationType {
	return d.annotation
}

// Params returns the expected parameter names in declaration order
func (d *Definition) Params() []string {
	names := make([]string, len(d.params))
	for i, p := range d.params {
		names[i] = p.Name
	}
	return names
}

// Values returns the expected values for name, if declared
func (d *Definition) Values(name string) ([]any, bool) {
	for _, p := range d.params {
		if p.Name == name {
			return append([]any(nil), p.Values...), true
		}
	}
	return nil, false
}

func (d *Definition) String() string {
	if d.annotation == nil {
		return "<nil>"
	}
	return d.annotation.QualifiedName()
}

// expectation snapshots the definition so later Param calls do not affect a
// session it was already registered with
func (d *Definition) expectation() engine.Expectation {
	params := make([]engine.ParamExpectation, len(d.params))
	for i, p := range d.params {
		params[i] = engine.ParamExpectation{Name: p.Name, Values: append([]any(nil), p.Values...)}
	}
	return engine.Expectation{Annotation: d.annotation, Params: params}
}
