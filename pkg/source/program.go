package source

import (
	"fmt"
	"sort"

	"github.com/toyz/annotest/pkg/metadata"
)

// Tracer receives loader progress messages. *utils.DiagnosticSystem satisfies it.
type Tracer interface {
	Debug(format string, args ...interface{})
}

// Program is the metadata model of every loaded package
type Program struct {
	Packages []*Package
	// Warnings holds type-checking problems that did not stop loading
	Warnings []error

	annotationTypes map[string]*metadata.AnnotationType
	types           map[string]*metadata.Type
}

func newProgram() *Program {
	return &Program{
		annotationTypes: make(map[string]*metadata.AnnotationType),
		types:           make(map[string]*metadata.Type),
	}
}

// Package returns a loaded package by name or import path
func (p *Program) Package(name string) (*Package, error) {
	for _, pkg := range p.Packages {
		if pkg.Name == name || pkg.Path == name {
			return pkg, nil
		}
	}
	return nil, fmt.Errorf("%w: package %s", metadata.ErrNoSuchElement, name)
}

// Type returns a type by qualified name, e.g. "controllers.UserController"
func (p *Program) Type(qualifiedName string) (*metadata.Type, error) {
	if t, ok := p.types[qualifiedName]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: type %s", metadata.ErrNoSuchElement, qualifiedName)
}

// AnnotationType returns an annotation type by qualified name
func (p *Program) AnnotationType(qualifiedName string) (*metadata.AnnotationType, error) {
	if t, ok := p.annotationTypes[qualifiedName]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: annotation type %s", metadata.ErrNoSuchElement, qualifiedName)
}

// AnnotationTypes returns every annotation type sorted by qualified name
func (p *Program) AnnotationTypes() []*metadata.AnnotationType {
	result := make([]*metadata.AnnotationType, 0, len(p.annotationTypes))
	for _, t := range p.annotationTypes {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].QualifiedName() < result[j].QualifiedName()
	})
	return result
}

// Package is the metadata model of one Go package
type Package struct {
	Name string
	Path string

	annotationTypes []*metadata.AnnotationType
	types           []*metadata.Type
}

// Types returns the package's types in declaration order
func (p *Package) Types() []*metadata.Type {
	return append([]*metadata.Type(nil), p.types...)
}

// AnnotationTypes returns the package's annotation types in declaration order
func (p *Package) AnnotationTypes() []*metadata.AnnotationType {
	return append([]*metadata.AnnotationType(nil), p.annotationTypes...)
}

// Type returns a type declared in the package
func (p *Package) Type(name string) (*metadata.Type, error) {
	for _, t := range p.types {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: type %s.%s", metadata.ErrNoSuchElement, p.Name, name)
}

// AnnotationType returns an annotation type declared in the package
func (p *Package) AnnotationType(name string) (*metadata.AnnotationType, error) {
	for _, t := range p.annotationTypes {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: annotation type %s.%s", metadata.ErrNoSuchElement, p.Name, name)
}

// Method returns the method of typeName with the given name and parameter types
func (p *Package) Method(typeName, name string, params ...string) (*metadata.Method, error) {
	t, err := p.Type(typeName)
	if err != nil {
		return nil, err
	}
	return t.Method(name, params...)
}

// Field returns a struct field of typeName
func (p *Package) Field(typeName, name string) (*metadata.Field, error) {
	t, err := p.Type(typeName)
	if err != nil {
		return nil, err
	}
	return t.Field(name)
}

// Constructor returns the constructor function name of typeName
func (p *Package) Constructor(typeName, name string) (*metadata.Constructor, error) {
	t, err := p.Type(typeName)
	if err != nil {
		return nil, err
	}
	return t.Constructor(name)
}
