package resolver

import (
	"github.com/toyz/annotest/pkg/metadata"
)

// Introspector is the data source the resolver walks. The default
// implementation reads the metadata model directly.
type Introspector interface {
	Annotations(element metadata.Element) []*metadata.Annotation
	Methods(t *metadata.Type) []*metadata.Method
	Supertypes(t *metadata.Type) []*metadata.Type
	Interfaces(t *metadata.Type) []*metadata.Type
}

// Options controls method matching
type Options struct {
	// MatchReturnType additionally requires equal result types when matching
	// a method against methods of supertypes and interfaces.
	MatchReturnType bool
}

// Resolver computes the annotations that logically apply to an element
type Resolver struct {
	source  Introspector
	options Options
}

// New creates a resolver over the metadata model
func New(options Options) *Resolver {
	return NewWithIntrospector(ModelIntrospector{}, options)
}

// NewWithIntrospector creates a resolver over a custom data source
func NewWithIntrospector(source Introspector, options Options) *Resolver {
	return &Resolver{source: source, options: options}
}

// Resolve returns the de-duplicated annotations applicable to element, in
// discovery order: the element itself, then supertypes, then interfaces.
// Generic bridge methods are not modelled; methods match on declared types only.
func (r *Resolver) Resolve(element metadata.Element) []*metadata.Annotation {
	acc := &accumulator{}
	switch e := element.(type) {
	case *metadata.Type:
		r.resolveType(e, acc)
	case *metadata.Method:
		r.resolveMethod(e, acc)
	default:
		acc.add(r.source.Annotations(element))
	}
	return acc.annotations
}

func (r *Resolver) resolveType(t *metadata.Type, acc *accumulator) {
	hierarchy := r.hierarchy(t)
	for _, class := range hierarchy {
		acc.add(r.source.Annotations(class))
	}
	for _, iface := range r.allInterfaces(hierarchy) {
		acc.add(r.source.Annotations(iface))
	}
}

func (r *Resolver) resolveMethod(m *metadata.Method, acc *accumulator) {
	if m.Owner == nil {
		acc.add(r.source.Annotations(m))
		return
	}
	hierarchy := r.hierarchy(m.Owner)
	for _, class := range hierarchy {
		r.addMatchingMethods(class, m, acc)
	}
	for _, iface := range r.allInterfaces(hierarchy) {
		r.addMatchingMethods(iface, m, acc)
	}
}

func (r *Resolver) addMatchingMethods(t *metadata.Type, target *metadata.Method, acc *accumulator) {
	for _, candidate := range r.source.Methods(t) {
		if candidate.SameSignature(target, r.options.MatchReturnType) {
			acc.add(r.source.Annotations(candidate))
		}
	}
}

// hierarchy returns t followed by every supertype, breadth-first in
// declaration order, each type once.
func (r *Resolver) hierarchy(t *metadata.Type) []*metadata.Type {
	seen := map[*metadata.Type]bool{t: true}
	result := []*metadata.Type{t}
	for i := 0; i < len(result); i++ {
		for _, super := range r.source.Supertypes(result[i]) {
			if !seen[super] {
				seen[super] = true
				result = append(result, super)
			}
		}
	}
	return result
}

// allInterfaces returns the interfaces implemented by any type in hierarchy,
// each followed by the interfaces it embeds, each interface once.
func (r *Resolver) allInterfaces(hierarchy []*metadata.Type) []*metadata.Type {
	seen := make(map[*metadata.Type]bool)
	var result []*metadata.Type
	var visit func(iface *metadata.Type)
	visit = func(iface *metadata.Type) {
		if seen[iface] {
			return
		}
		seen[iface] = true
		result = append(result, iface)
		for _, embedded := range r.source.Interfaces(iface) {
			visit(embedded)
		}
	}
	for _, class := range hierarchy {
		for _, iface := range r.source.Interfaces(class) {
			visit(iface)
		}
	}
	return result
}

type accumulator struct {
	annotations []*metadata.Annotation
}

func (a *accumulator) add(annotations []*metadata.Annotation) {
	for _, candidate := range annotations {
		if !a.contains(candidate) {
			a.annotations = append(a.annotations, candidate)
		}
	}
}

func (a *accumulator) contains(candidate *metadata.Annotation) bool {
	for _, existing := range a.annotations {
		if existing.Equal(candidate) {
			return true
		}
	}
	return false
}

// ModelIntrospector reads elements of the metadata model as declared
type ModelIntrospector struct{}

func (ModelIntrospector) Annotations(element metadata.Element) []*metadata.Annotation {
	return element.DeclaredAnnotations()
}

func (ModelIntrospector) Methods(t *metadata.Type) []*metadata.Method {
	return t.Methods
}

func (ModelIntrospector) Supertypes(t *metadata.Type) []*metadata.Type {
	if t.Interface {
		return nil
	}
	return t.Supertypes
}

func (ModelIntrospector) Interfaces(t *metadata.Type) []*metadata.Type {
	return t.Interfaces
}
