package metadata

import (
	"fmt"
	"strings"
)

// ValueKind represents the declared element kind of an annotation parameter
type ValueKind int

const (
	AnyKind ValueKind = iota
	StringKind
	BoolKind
	IntKind
	FloatKind
)

// String returns the string representation of the value kind
func (k ValueKind) String() string {
	switch k {
	case AnyKind:
		return "any"
	case StringKind:
		return "string"
	case BoolKind:
		return "bool"
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	default:
		return "unknown"
	}
}

// ParseValueKind converts a Go type name to a ValueKind
func ParseValueKind(s string) (ValueKind, error) {
	switch s {
	case "string":
		return StringKind, nil
	case "bool":
		return BoolKind, nil
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
		return IntKind, nil
	case "float32", "float64":
		return FloatKind, nil
	case "any", "interface{}":
		return AnyKind, nil
	default:
		return AnyKind, fmt.Errorf("unsupported parameter type: %s", s)
	}
}

// AliasFor declares that a parameter is an alias for a parameter on the same
// annotation (Annotation is empty) or on another annotation type.
type AliasFor struct {
	Annotation string // qualified name of the target annotation type
	Attribute  string // target parameter name
}

// Parameter describes one named slot of an annotation type
type Parameter struct {
	Name       string
	Kind       ValueKind
	List       bool
	Default    any
	HasDefault bool
	Alias      *AliasFor
}

// DefaultValue returns the normalized declared default, or nil when the
// parameter declares none.
func (p *Parameter) DefaultValue() any {
	if !p.HasDefault {
		return nil
	}
	return Normalize(p.Default)
}

// Fits reports whether a normalized value is acceptable for the parameter
func (p *Parameter) Fits(value any) bool {
	if value == nil {
		return true
	}
	items, isList := value.([]any)
	if p.List != isList {
		return false
	}
	if !isList {
		return p.Kind.accepts(value)
	}
	for _, item := range items {
		if !p.Kind.accepts(item) {
			return false
		}
	}
	return true
}

func (k ValueKind) accepts(v any) bool {
	switch k {
	case StringKind:
		_, ok := v.(string)
		return ok
	case BoolKind:
		_, ok := v.(bool)
		return ok
	case IntKind:
		switch v.(type) {
		case int64, uint64:
			return true
		}
		return false
	case FloatKind:
		switch v.(type) {
		case float64, int64:
			return true
		}
		return false
	default:
		return true
	}
}

// TypeName returns a Go-like rendering of the parameter's declared type
func (p *Parameter) TypeName() string {
	if p.List {
		return "[]" + p.Kind.String()
	}
	return p.Kind.String()
}

// ParamOption configures a Parameter declared through WithParam
type ParamOption func(*Parameter)

// Default sets the declared default value
func Default(value any) ParamOption {
	return func(p *Parameter) {
		p.Default = value
		p.HasDefault = true
	}
}

// List marks the parameter as multi-valued
func List() ParamOption {
	return func(p *Parameter) { p.List = true }
}

// AliasOf declares the parameter an alias of attribute on another annotation type
func AliasOf(annotation *AnnotationType, attribute string) ParamOption {
	return func(p *Parameter) {
		p.Alias = &AliasFor{Annotation: annotation.QualifiedName(), Attribute: attribute}
	}
}

// MirrorOf declares the parameter an alias of another parameter on the same annotation
func MirrorOf(attribute string) ParamOption {
	return func(p *Parameter) {
		p.Alias = &AliasFor{Attribute: attribute}
	}
}

// AnnotationType describes an annotation kind and its parameters
type AnnotationType struct {
	Package     string
	Name        string
	Params      []*Parameter
	Annotations []*Annotation // meta-annotations
}

// NewAnnotationType creates an annotation type without parameters
func NewAnnotationType(pkg, name string) *AnnotationType {
	return &AnnotationType{Package: pkg, Name: name}
}

// WithParam declares a parameter; declaration order is preserved
func (t *AnnotationType) WithParam(name string, kind ValueKind, opts ...ParamOption) *AnnotationType {
	p := &Parameter{Name: name, Kind: kind}
	for _, opt := range opts {
		opt(p)
	}
	t.Params = append(t.Params, p)
	return t
}

// Annotate attaches meta-annotations to the annotation type
func (t *AnnotationType) Annotate(annotations ...*Annotation) *AnnotationType {
	t.Annotations = append(t.Annotations, annotations...)
	return t
}

// Param looks up a declared parameter by name
func (t *AnnotationType) Param(name string) (*Parameter, bool) {
	for _, p := range t.Params {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// QualifiedName is the identity of the annotation type
func (t *AnnotationType) QualifiedName() string {
	if t.Package == "" {
		return t.Name
	}
	return t.Package + "." + t.Name
}

func (t *AnnotationType) String() string {
	return t.QualifiedName()
}

// New creates an annotation instance of this type with no explicit values
func (t *AnnotationType) New() *Annotation {
	return &Annotation{Type: t, Values: make(map[string]any)}
}

// Validate checks that declared defaults fit their parameters and that
// parameter names are unique.
func (t *AnnotationType) Validate() error {
	seen := make(map[string]bool, len(t.Params))
	var problems []string
	for _, p := range t.Params {
		if p.Name == "" {
			problems = append(problems, "parameter name cannot be empty")
			continue
		}
		if seen[p.Name] {
			problems = append(problems, fmt.Sprintf("parameter %s declared twice", p.Name))
		}
		seen[p.Name] = true
		if p.HasDefault && !p.Fits(p.DefaultValue()) {
			problems = append(problems, fmt.Sprintf("default value for %s parameter %s has type %T",
				p.TypeName(), p.Name, p.Default))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid annotation type %s: %s", t.QualifiedName(), strings.Join(problems, "; "))
	}
	return nil
}
