package manifest

import (
	"fmt"
	"strings"

	"github.com/toyz/annotest/pkg/metadata"
	"github.com/toyz/annotest/pkg/source"
)

// Target is a parsed element reference such as "web.UserController.List(int, int)"
type Target struct {
	Kind metadata.ElementKind
	// Type is the qualified owner type, e.g. "web.UserController"
	Type string
	// Member is the method, field or constructor name; empty for types
	Member string
	Params []string
}

// Target parses the check's target key
func (c *Check) Target() (Target, error) {
	var set []Target
	if c.Type != "" {
		set = append(set, Target{Kind: metadata.TypeElement, Type: c.Type})
	}
	if c.Method != "" {
		t, err := parseMember(metadata.MethodElement, c.Method)
		if err != nil {
			return Target{}, err
		}
		set = append(set, t)
	}
	if c.Field != "" {
		t, err := parseMember(metadata.FieldElement, c.Field)
		if err != nil {
			return Target{}, err
		}
		set = append(set, t)
	}
	if c.Constructor != "" {
		t, err := parseMember(metadata.ConstructorElement, c.Constructor)
		if err != nil {
			return Target{}, err
		}
		set = append(set, t)
	}

	switch len(set) {
	case 0:
		return Target{}, fmt.Errorf("no target: set one of type, method, field or constructor")
	case 1:
		if !strings.Contains(set[0].Type, ".") {
			return Target{}, fmt.Errorf("type %q is not package qualified", set[0].Type)
		}
		return set[0], nil
	default:
		return Target{}, fmt.Errorf("%d targets set, expected one", len(set))
	}
}

// parseMember splits "pkg.Type.Name(p1, p2)". Parentheses are only allowed
// on methods; a method without them takes no parameters.
func parseMember(kind metadata.ElementKind, ref string) (Target, error) {
	ref = strings.TrimSpace(ref)
	head, params := ref, ""
	if open := strings.IndexByte(ref, '('); open >= 0 {
		if kind != metadata.MethodElement {
			return Target{}, fmt.Errorf("%s %q cannot have parameters", kind, ref)
		}
		if !strings.HasSuffix(ref, ")") {
			return Target{}, fmt.Errorf("unbalanced parentheses in %q", ref)
		}
		head, params = ref[:open], ref[open+1:len(ref)-1]
	}

	dot := strings.LastIndexByte(head, '.')
	if dot <= 0 || dot == len(head)-1 {
		return Target{}, fmt.Errorf("%s %q must be written as pkg.Type.Name", kind, ref)
	}
	split, err := splitParams(params)
	if err != nil {
		return Target{}, fmt.Errorf("%q: %w", ref, err)
	}
	return Target{Kind: kind, Type: head[:dot], Member: head[dot+1:], Params: split}, nil
}

// splitParams splits on commas outside brackets, so "func(a, b int), map[string]int" is two types
func splitParams(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var (
		result []string
		depth  int
		start  int
	)
	for i, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced brackets")
			}
		case ',':
			if depth == 0 {
				result = append(result, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets")
	}
	result = append(result, strings.TrimSpace(s[start:]))
	for _, p := range result {
		if p == "" {
			return nil, fmt.Errorf("empty parameter type")
		}
	}
	return result, nil
}

// Resolve finds the element in a loaded program
func (t Target) Resolve(program *source.Program) (metadata.Element, error) {
	owner, err := program.Type(t.Type)
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case metadata.TypeElement:
		return owner, nil
	case metadata.MethodElement:
		return owner.Method(t.Member, t.Params...)
	case metadata.FieldElement:
		return owner.Field(t.Member)
	case metadata.ConstructorElement:
		return owner.Constructor(t.Member)
	default:
		return nil, fmt.Errorf("unsupported target kind %s", t.Kind)
	}
}

func (t Target) String() string {
	switch t.Kind {
	case metadata.TypeElement:
		return t.Type
	case metadata.MethodElement:
		return fmt.Sprintf("%s.%s(%s)", t.Type, t.Member, strings.Join(t.Params, ", "))
	default:
		return t.Type + "." + t.Member
	}
}
