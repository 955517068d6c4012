package engine

import (
	"slices"
	"strings"

	"github.com/toyz/annotest/internal/diagnostics"
	"github.com/toyz/annotest/pkg/metadata"
)

// checkUncovered inspects every parameter no expectation covered. Only mode
// requires the declared default; Exactly mode requires an empty value.
func (p *pass) checkUncovered(result matchResult) {
	annotation := result.annotation
	name := annotation.Type.QualifiedName()

	for _, param := range annotation.Type.Params {
		if p.blacklist[param.Name] || result.covered[param.Name] {
			continue
		}

		actual, err := annotation.Get(param.Name)
		if err != nil {
			p.agg.Recordf(diagnostics.AccessFailure, name, param.Name,
				"Could not access/invoke method for '%s'.", param.Name)
			continue
		}

		switch p.config.Mode {
		case Only:
			p.requireDefault(name, param, actual)
		case Exactly:
			p.requireEmpty(name, param, actual)
		}
	}
}

func (p *pass) requireDefault(annotation string, param *metadata.Parameter, actual any) {
	expected := param.DefaultValue()
	if metadata.Equal(expected, actual) {
		return
	}
	p.agg.Record(&diagnostics.Mismatch{
		Kind:       diagnostics.UnexpectedValue,
		Annotation: annotation,
		Parameter:  param.Name,
		Expected:   expected,
		Actual:     actual,
		Message: "Unexpected value for Method '" + param.Name + "' found. Expected default " +
			metadata.Format(expected) + " but was " + metadata.Format(actual) + ".",
	})
}

// requireEmpty accepts nil, an empty list or an empty string. Any other
// scalar fails even when it equals the declared default.
func (p *pass) requireEmpty(annotation string, param *metadata.Parameter, actual any) {
	if metadata.IsEmpty(actual) {
		return
	}
	label := "value"
	if param.List || metadata.IsList(actual) {
		label = "values"
	}
	p.agg.Record(&diagnostics.Mismatch{
		Kind:       diagnostics.UnexpectedValue,
		Annotation: annotation,
		Parameter:  param.Name,
		Actual:     actual,
		Message: "Unexpected " + label + " for Method '" + param.Name + "' found. Expected empty but was " +
			metadata.Format(actual) + ".",
	})
}

// checkAnnotationSet requires the resolved annotation types to equal, in
// order, the types matched in expectation order.
func (p *pass) checkAnnotationSet(matched []string) {
	found := make([]string, len(p.resolved))
	for i, annotation := range p.resolved {
		found[i] = annotation.Type.QualifiedName()
	}
	if slices.Equal(matched, found) {
		return
	}
	p.agg.Record(&diagnostics.Mismatch{
		Kind:     diagnostics.AnnotationSetMismatch,
		Expected: matched,
		Actual:   found,
		Message: "Expected annotations " + formatNames(matched) + " in this order but found " +
			formatNames(found),
	})
}

func formatNames(names []string) string {
	return "[" + strings.Join(names, ", ") + "]"
}
