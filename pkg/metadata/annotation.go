package metadata

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSuchParameter is returned when an accessor is not declared by the annotation type
	ErrNoSuchParameter = errors.New("no such parameter")

	// ErrInvalidValue is returned when a stored value does not fit the declared parameter
	ErrInvalidValue = errors.New("value does not fit parameter")
)

// Annotation is one applied annotation instance: a type plus explicit values
type Annotation struct {
	Type   *AnnotationType
	Values map[string]any
}

// Set stores an explicit parameter value
func (a *Annotation) Set(name string, value any) *Annotation {
	if a.Values == nil {
		a.Values = make(map[string]any)
	}
	a.Values[name] = Normalize(value)
	return a
}

// Get invokes the accessor for name: the explicit value, else the declared
// default, else nil.
func (a *Annotation) Get(name string) (any, error) {
	p, ok := a.Type.Param(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoSuchParameter, a.Type.QualifiedName(), name)
	}
	value, ok := a.Values[name]
	if !ok {
		return p.DefaultValue(), nil
	}
	if !p.Fits(value) {
		return nil, fmt.Errorf("%w: %s.%s is %s, got %s", ErrInvalidValue,
			a.Type.QualifiedName(), name, p.TypeName(), Format(value))
	}
	return value, nil
}

// Equal reports value equality: same annotation type and equal values for
// every declared parameter, defaults applied.
func (a *Annotation) Equal(other *Annotation) bool {
	if a == other {
		return true
	}
	if a == nil || other == nil {
		return false
	}
	if a.Type.QualifiedName() != other.Type.QualifiedName() {
		return false
	}
	for _, p := range a.Type.Params {
		left, lerr := a.Get(p.Name)
		right, rerr := other.Get(p.Name)
		if (lerr == nil) != (rerr == nil) {
			return false
		}
		if lerr != nil {
			left, right = a.Values[p.Name], other.Values[p.Name]
		}
		if !Equal(left, right) {
			return false
		}
	}
	return true
}

// String renders the annotation in source form, e.g. @pkg.Marker(value="v1")
func (a *Annotation) String() string {
	var b strings.Builder
	b.WriteString("@")
	b.WriteString(a.Type.QualifiedName())
	var parts []string
	for _, p := range a.Type.Params {
		if v, ok := a.Values[p.Name]; ok {
			parts = append(parts, p.Name+"="+Format(v))
		}
	}
	if len(parts) > 0 {
		b.WriteString("(")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	return b.String()
}
