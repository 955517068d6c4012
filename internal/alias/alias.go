package alias

import (
	"errors"
	"fmt"

	"github.com/toyz/annotest/pkg/metadata"
)

// ErrAliasNotFound is returned when a declared alias points at an annotation
// or attribute that is not available
var ErrAliasNotFound = errors.New("alias target not found")

// Target is the value-bearing accessor an alias resolves to
type Target struct {
	Annotation *metadata.Annotation
	Attribute  string
	// Mirror is set when the target is a parameter of the same instance
	Mirror bool
}

// Value invokes the target accessor
func (t *Target) Value() (any, error) {
	return t.Annotation.Get(t.Attribute)
}

func (t *Target) String() string {
	return t.Annotation.Type.QualifiedName() + "." + t.Attribute
}

// Resolve follows the alias declared by param of source, if any. It returns
// nil without error when param declares no alias. The target annotation is
// looked up on source itself, then among coPresent instances, then among the
// meta-annotations of source's type. Aliases are followed one hop only.
func Resolve(source *metadata.Annotation, param *metadata.Parameter, coPresent []*metadata.Annotation) (*Target, error) {
	if param == nil || param.Alias == nil {
		return nil, nil
	}
	decl := param.Alias
	attribute := Attribute(param)

	if decl.Annotation == "" || decl.Annotation == source.Type.QualifiedName() {
		return checked(&Target{Annotation: source, Attribute: attribute, Mirror: true})
	}
	for _, candidate := range coPresent {
		if candidate.Type.QualifiedName() == decl.Annotation {
			return checked(&Target{Annotation: candidate, Attribute: attribute})
		}
	}
	for _, meta := range source.Type.Annotations {
		if meta.Type.QualifiedName() == decl.Annotation {
			return checked(&Target{Annotation: meta, Attribute: attribute})
		}
	}
	return nil, fmt.Errorf("%w: %s is not present", ErrAliasNotFound, decl.Annotation)
}

// Attribute returns the target attribute name of param's alias declaration.
// A blank attribute on a cross-annotation alias falls back to the declaring
// parameter's own name; a blank mirror falls back to "value".
func Attribute(param *metadata.Parameter) string {
	decl := param.Alias
	if decl.Attribute != "" {
		return decl.Attribute
	}
	if decl.Annotation != "" || param.Name == "value" {
		return param.Name
	}
	return "value"
}

// Describe renders an alias declaration for diagnostics
func Describe(param *metadata.Parameter) string {
	decl := param.Alias
	if decl.Annotation == "" {
		return fmt.Sprintf("@AliasFor(%q)", Attribute(param))
	}
	return fmt.Sprintf("@AliasFor(annotation=%s, attribute=%q)", decl.Annotation, Attribute(param))
}

func checked(target *Target) (*Target, error) {
	if _, ok := target.Annotation.Type.Param(target.Attribute); !ok {
		return nil, fmt.Errorf("%w: %s has no parameter %s", ErrAliasNotFound,
			target.Annotation.Type.QualifiedName(), target.Attribute)
	}
	return target, nil
}
