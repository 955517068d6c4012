package metadata

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrNoSuchElement is returned by lookups for members that are not declared
var ErrNoSuchElement = errors.New("no such element")

// ElementKind represents the kind of an annotated element
type ElementKind int

const (
	TypeElement ElementKind = iota
	MethodElement
	FieldElement
	ConstructorElement
)

// String returns the string representation of the element kind
func (k ElementKind) String() string {
	switch k {
	case TypeElement:
		return "type"
	case MethodElement:
		return "method"
	case FieldElement:
		return "field"
	case ConstructorElement:
		return "constructor"
	default:
		return "unknown"
	}
}

// Element is anything annotations can be applied to
type Element interface {
	Kind() ElementKind
	DeclaredAnnotations() []*Annotation
	String() string
}

// Type is a named struct or interface type
type Type struct {
	Package      string
	Name         string
	Interface    bool
	Annotations  []*Annotation
	Supertypes   []*Type // embedded types, in declaration order
	Interfaces   []*Type // directly implemented (or embedded, for interfaces) interfaces
	Methods      []*Method
	Fields       []*Field
	Constructors []*Constructor
}

// NewType creates a struct type
func NewType(pkg, name string) *Type {
	return &Type{Package: pkg, Name: name}
}

// NewInterface creates an interface type
func NewInterface(pkg, name string) *Type {
	return &Type{Package: pkg, Name: name, Interface: true}
}

func (t *Type) Kind() ElementKind                  { return TypeElement }
func (t *Type) DeclaredAnnotations() []*Annotation { return t.Annotations }

// QualifiedName returns package-qualified type name
func (t *Type) QualifiedName() string {
	if t.Package == "" {
		return t.Name
	}
	return t.Package + "." + t.Name
}

func (t *Type) String() string {
	if t.Interface {
		return "interface " + t.QualifiedName()
	}
	return "type " + t.QualifiedName()
}

// Annotate appends annotations declared directly on the type
func (t *Type) Annotate(annotations ...*Annotation) *Type {
	t.Annotations = append(t.Annotations, annotations...)
	return t
}

// Embed records embedded supertypes
func (t *Type) Embed(supertypes ...*Type) *Type {
	t.Supertypes = append(t.Supertypes, supertypes...)
	return t
}

// Implement records implemented interfaces
func (t *Type) Implement(interfaces ...*Type) *Type {
	t.Interfaces = append(t.Interfaces, interfaces...)
	return t
}

// AddMethod declares a method with the given parameter types
func (t *Type) AddMethod(name string, params ...string) *Method {
	m := &Method{Owner: t, Name: name, Params: params}
	t.Methods = append(t.Methods, m)
	return m
}

// AddField declares a field
func (t *Type) AddField(name, typeName string) *Field {
	f := &Field{Owner: t, Name: name, TypeName: typeName}
	t.Fields = append(t.Fields, f)
	return f
}

// AddConstructor declares a constructor function for the type
func (t *Type) AddConstructor(name string, params ...string) *Constructor {
	c := &Constructor{Owner: t, Name: name, Params: params}
	t.Constructors = append(t.Constructors, c)
	return c
}

// Method looks up a declared method by name and exact parameter types
func (t *Type) Method(name string, params ...string) (*Method, error) {
	for _, m := range t.Methods {
		if m.Name == name && slices.Equal(m.Params, params) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: method %s.%s(%s)", ErrNoSuchElement, t.QualifiedName(), name, strings.Join(params, ", "))
}

// Field looks up a declared field by name
func (t *Type) Field(name string) (*Field, error) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: field %s.%s", ErrNoSuchElement, t.QualifiedName(), name)
}

// Constructor looks up a constructor function by name
func (t *Type) Constructor(name string) (*Constructor, error) {
	for _, c := range t.Constructors {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: constructor %s for %s", ErrNoSuchElement, name, t.QualifiedName())
}

// Method is a method declared on a type
type Method struct {
	Owner       *Type
	Name        string
	Params      []string
	Results     []string
	Annotations []*Annotation
}

func (m *Method) Kind() ElementKind                  { return MethodElement }
func (m *Method) DeclaredAnnotations() []*Annotation { return m.Annotations }

// Annotate appends annotations declared on the method
func (m *Method) Annotate(annotations ...*Annotation) *Method {
	m.Annotations = append(m.Annotations, annotations...)
	return m
}

// Returns sets the result types of the method
func (m *Method) Returns(results ...string) *Method {
	m.Results = results
	return m
}

// SameSignature reports whether other has the same name and parameter types,
// and when withResults is set, the same result types.
func (m *Method) SameSignature(other *Method, withResults bool) bool {
	if m.Name != other.Name || !slices.Equal(m.Params, other.Params) {
		return false
	}
	return !withResults || slices.Equal(m.Results, other.Results)
}

func (m *Method) String() string {
	s := fmt.Sprintf("method %s(%s)", ownedName(m.Owner, m.Name), strings.Join(m.Params, ", "))
	switch len(m.Results) {
	case 0:
		return s
	case 1:
		return s + " " + m.Results[0]
	default:
		return s + " (" + strings.Join(m.Results, ", ") + ")"
	}
}

// Field is a struct field
type Field struct {
	Owner       *Type
	Name        string
	TypeName    string
	Annotations []*Annotation
}

func (f *Field) Kind() ElementKind                  { return FieldElement }
func (f *Field) DeclaredAnnotations() []*Annotation { return f.Annotations }

// Annotate appends annotations declared on the field
func (f *Field) Annotate(annotations ...*Annotation) *Field {
	f.Annotations = append(f.Annotations, annotations...)
	return f
}

func (f *Field) String() string {
	return "field " + ownedName(f.Owner, f.Name)
}

// Constructor is a function that builds a value of its owner type
type Constructor struct {
	Owner       *Type
	Name        string
	Params      []string
	Annotations []*Annotation
}

func (c *Constructor) Kind() ElementKind                  { return ConstructorElement }
func (c *Constructor) DeclaredAnnotations() []*Annotation { return c.Annotations }

// Annotate appends annotations declared on the constructor
func (c *Constructor) Annotate(annotations ...*Annotation) *Constructor {
	c.Annotations = append(c.Annotations, annotations...)
	return c
}

func (c *Constructor) String() string {
	name := c.Name
	if c.Owner != nil && c.Owner.Package != "" {
		name = c.Owner.Package + "." + name
	}
	return fmt.Sprintf("constructor %s(%s)", name, strings.Join(c.Params, ", "))
}

func ownedName(owner *Type, name string) string {
	if owner == nil {
		return name
	}
	return owner.QualifiedName() + "." + name
}

