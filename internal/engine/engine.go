package engine

import (
	"reflect"

	"github.com/toyz/annotest/internal/diagnostics"
	"github.com/toyz/annotest/internal/errors"
	"github.com/toyz/annotest/internal/resolver"
	"github.com/toyz/annotest/pkg/metadata"
)

// Mode selects how strictly uncovered parameters and the annotation set are checked
type Mode int

const (
	// Default checks declared expectations only
	Default Mode = iota
	// Exactly requires uncovered parameters to be empty and the annotation set to match
	Exactly
	// Only requires uncovered parameters to hold their defaults and the annotation set to match
	Only
)

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case Exactly:
		return "exactly"
	case Only:
		return "only"
	default:
		return "default"
	}
}

// ParseMode converts a mode name to a Mode; the empty string is Default
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "default":
		return Default, true
	case "exactly":
		return Exactly, true
	case "only":
		return Only, true
	}
	return Default, false
}

// ParamExpectation is one expected parameter with its expected values in order
type ParamExpectation struct {
	Name   string
	Values []any
}

// Expectation describes one expected annotation
type Expectation struct {
	Annotation *metadata.AnnotationType
	Params     []ParamExpectation
}

// Config is the immutable input of one validation pass
type Config struct {
	Expectations    []Expectation
	Mode            Mode
	Blacklist       []string
	MatchReturnType bool
}

// Run performs a validation pass of element against cfg. It returns nil when
// everything matches, a *errors.ConfigError on misuse, or a *diagnostics.Error
// carrying every mismatch found.
func Run(cfg Config, element metadata.Element) error {
	if err := cfg.check(element); err != nil {
		return err
	}

	target := element.String()
	p := &pass{
		config:    cfg,
		resolved:  resolver.New(resolver.Options{MatchReturnType: cfg.MatchReturnType}).Resolve(element),
		blacklist: make(map[string]bool, len(cfg.Blacklist)),
		agg:       diagnostics.NewAggregator(),
	}
	for _, name := range cfg.Blacklist {
		p.blacklist[name] = true
	}

	var matched []string
	for _, expectation := range cfg.Expectations {
		result := p.match(expectation)
		if result.annotation == nil {
			continue
		}
		matched = append(matched, result.annotation.Type.QualifiedName())
		if cfg.Mode != Default {
			p.checkUncovered(result)
		}
	}
	if cfg.Mode != Default {
		p.checkAnnotationSet(matched)
	}

	return p.agg.Finish(target)
}

func (c Config) check(element metadata.Element) error {
	if element == nil || isNilPointer(element) {
		return errors.NewConfigError(errors.ErrUnsupportedTarget, "")
	}
	target := element.String()
	if c.Mode == Default && len(c.Expectations) == 0 {
		return errors.NewConfigError(errors.ErrNoExpectations, target).
			WithSuggestion("Register an annotation expectation, or call Exactly() or Only()")
	}
	for i, expectation := range c.Expectations {
		if expectation.Annotation == nil {
			return errors.NewConfigErrorf(errors.ErrNoAnnotationType, target, "expectation #%d", i+1)
		}
		for _, param := range expectation.Params {
			if len(param.Values) == 0 {
				return errors.NewConfigErrorf(errors.ErrNoValues, target, "parameter %s of %s",
					param.Name, expectation.Annotation.QualifiedName())
			}
		}
	}
	return nil
}

func isNilPointer(element metadata.Element) bool {
	v := reflect.ValueOf(element)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// pass is the state of one validation run
type pass struct {
	config    Config
	resolved  []*metadata.Annotation
	blacklist map[string]bool
	agg       *diagnostics.Aggregator
}
