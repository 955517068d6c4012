package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/annotest/internal/diagnostics"
	annoerrors "github.com/toyz/annotest/internal/errors"
	"github.com/toyz/annotest/pkg/metadata"
)

var (
	marker = metadata.NewAnnotationType("test", "Marker").
		WithParam("value", metadata.StringKind, metadata.Default(""))
	flags = metadata.NewAnnotationType("test", "Flags").
		WithParam("p", metadata.StringKind).
		WithParam("q", metadata.StringKind, metadata.Default("dflt")).
		WithParam("vals", metadata.IntKind, metadata.List(), metadata.Default([]int{}))
	service = metadata.NewAnnotationType("test", "Service")
)

func expect(annotation *metadata.AnnotationType, params ...ParamExpectation) Expectation {
	return Expectation{Annotation: annotation, Params: params}
}

func param(name string, values ...any) ParamExpectation {
	return ParamExpectation{Name: name, Values: values}
}

func requireMismatches(t *testing.T, err error) *diagnostics.Error {
	t.Helper()
	require.Error(t, err)
	var verr *diagnostics.Error
	require.True(t, errors.As(err, &verr), "expected *diagnostics.Error, got %T: %v", err, err)
	return verr
}

func TestRun_EndToEnd(t *testing.T) {
	typ := metadata.NewType("test", "Controller")
	method := typ.AddMethod("Handle").Annotate(marker.New().Set("value", "v1"))

	cfg := Config{Mode: Exactly, Expectations: []Expectation{expect(marker, param("value", "v1"))}}
	assert.NoError(t, Run(cfg, method))

	cfg.Expectations = []Expectation{expect(marker, param("value", "v2"))}
	verr := requireMismatches(t, Run(cfg, method))
	require.Len(t, verr.Mismatches, 1)
	assert.Contains(t, verr.Error(), "Unexpected value for Method 'value'")
	assert.Contains(t, verr.Error(), "method test.Controller.Handle()")
	assert.Equal(t, diagnostics.ValueMismatch, verr.Mismatches[0].Kind)
	assert.Equal(t, "v2", verr.Mismatches[0].Expected)
	assert.Equal(t, "v1", verr.Mismatches[0].Actual)
}

func TestRun_ExactMatchInBothStrictModes(t *testing.T) {
	single := metadata.NewAnnotationType("test", "A").
		WithParam("p", metadata.StringKind).
		WithParam("q", metadata.StringKind)
	typ := metadata.NewType("test", "T").Annotate(single.New().Set("p", "x"))

	for _, mode := range []Mode{Only, Exactly} {
		t.Run(mode.String(), func(t *testing.T) {
			cfg := Config{Mode: mode, Expectations: []Expectation{expect(single, param("p", "x"))}}
			assert.NoError(t, Run(cfg, typ))
		})
	}

	extra := metadata.NewType("test", "U").Annotate(single.New().Set("p", "x").Set("q", "y"))
	for _, mode := range []Mode{Only, Exactly} {
		t.Run(mode.String()+" uncovered", func(t *testing.T) {
			cfg := Config{Mode: mode, Expectations: []Expectation{expect(single, param("p", "x"))}}
			verr := requireMismatches(t, Run(cfg, extra))
			require.Len(t, verr.Mismatches, 1)
			assert.Equal(t, diagnostics.UnexpectedValue, verr.Mismatches[0].Kind)
			assert.Equal(t, "q", verr.Mismatches[0].Parameter)
		})
	}
}

func TestRun_OnlyVersusExactly(t *testing.T) {
	// q keeps its declared default
	typ := metadata.NewType("test", "T").Annotate(flags.New().Set("p", "x"))
	cfg := Config{Expectations: []Expectation{expect(flags, param("p", "x"))}}

	cfg.Mode = Only
	assert.NoError(t, Run(cfg, typ))

	cfg.Mode = Exactly
	verr := requireMismatches(t, Run(cfg, typ))
	require.Len(t, verr.Mismatches, 1)
	assert.Equal(t, "q", verr.Mismatches[0].Parameter)
	assert.Contains(t, verr.Mismatches[0].Message, `Expected empty but was "dflt"`)

	cfg.Mode = Default
	assert.NoError(t, Run(cfg, typ))
}

func TestRun_OnlyRequiresDefaults(t *testing.T) {
	typ := metadata.NewType("test", "T").Annotate(flags.New().Set("p", "x").Set("vals", []int{1}))
	cfg := Config{Mode: Only, Expectations: []Expectation{expect(flags, param("p", "x"))}}

	verr := requireMismatches(t, Run(cfg, typ))
	require.Len(t, verr.Mismatches, 1)
	assert.Equal(t, "vals", verr.Mismatches[0].Parameter)
	assert.Equal(t, []any{}, verr.Mismatches[0].Expected)
}

func TestRun_Cardinality(t *testing.T) {
	tests := []struct {
		name   string
		actual []int
		ok     bool
	}{
		{"exact", []int{1, 2}, true},
		{"reordered", []int{2, 1}, false},
		{"extra element", []int{1, 2, 3}, false},
		{"missing element", []int{1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := metadata.NewType("test", "T").Annotate(flags.New().Set("vals", tt.actual))
			cfg := Config{Expectations: []Expectation{expect(flags, param("vals", 1, 2))}}
			err := Run(cfg, typ)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			verr := requireMismatches(t, err)
			assert.Contains(t, verr.Error(), "Unexpected values for Method 'vals'")
		})
	}
}

func TestRun_EmptyExpectationGuard(t *testing.T) {
	typ := metadata.NewType("test", "T").Annotate(service.New())

	err := Run(Config{}, typ)
	require.Error(t, err)
	assert.True(t, errors.Is(err, annoerrors.ErrNoExpectations))
	assert.True(t, annoerrors.IsConfigError(err))
	assert.Contains(t, err.Error(), "Please add at least one Annotation to assert or enable strict validation.")

	// strict modes accept an empty expectation list and then require no annotations
	verr := requireMismatches(t, Run(Config{Mode: Only}, typ))
	assert.True(t, verr.HasKind(diagnostics.AnnotationSetMismatch))
	assert.NoError(t, Run(Config{Mode: Exactly}, metadata.NewType("test", "Bare")))
}

func TestRun_ConfigErrors(t *testing.T) {
	typ := metadata.NewType("test", "T")

	err := Run(Config{Expectations: []Expectation{expect(marker, param("value"))}}, typ)
	assert.ErrorIs(t, err, annoerrors.ErrNoValues)

	err = Run(Config{Expectations: []Expectation{{}}}, typ)
	assert.ErrorIs(t, err, annoerrors.ErrNoAnnotationType)

	var method *metadata.Method
	err = Run(Config{Expectations: []Expectation{expect(marker)}}, method)
	assert.ErrorIs(t, err, annoerrors.ErrUnsupportedTarget)

	err = Run(Config{Expectations: []Expectation{expect(marker)}}, nil)
	assert.ErrorIs(t, err, annoerrors.ErrUnsupportedTarget)
}

func TestRun_CollectsAllMismatches(t *testing.T) {
	typ := metadata.NewType("test", "T").Annotate(flags.New().Set("p", "x"))
	cfg := Config{Expectations: []Expectation{
		expect(service),
		expect(flags, param("p", "y"), param("missing", 1), param("q", "other")),
	}}

	verr := requireMismatches(t, Run(cfg, typ))
	assert.Equal(t, []string{
		"Expected Annotation test.Service not found",
		`Unexpected value for Method 'p' found. Expected "y" but was "x".`,
		"Method missing not found.",
		`Unexpected value for Method 'q' found. Expected "other" but was "dflt".`,
	}, verr.Messages())
}

func TestRun_AnnotationSetOrder(t *testing.T) {
	typ := metadata.NewType("test", "T").Annotate(service.New(), marker.New())

	inOrder := Config{Mode: Only, Expectations: []Expectation{expect(service), expect(marker)}}
	assert.NoError(t, Run(inOrder, typ))

	reversed := Config{Mode: Only, Expectations: []Expectation{expect(marker), expect(service)}}
	verr := requireMismatches(t, Run(reversed, typ))
	require.Len(t, verr.Mismatches, 1)
	assert.Equal(t,
		"Expected annotations [test.Marker, test.Service] in this order but found [test.Service, test.Marker]",
		verr.Mismatches[0].Message)

	missing := Config{Mode: Exactly, Expectations: []Expectation{expect(service)}}
	verr = requireMismatches(t, Run(missing, typ))
	assert.True(t, verr.HasKind(diagnostics.AnnotationSetMismatch))

	// not checked in default mode
	assert.NoError(t, Run(Config{Expectations: []Expectation{expect(marker)}}, typ))
}

func TestRun_Blacklist(t *testing.T) {
	typ := metadata.NewType("test", "T").Annotate(flags.New().Set("p", "x").Set("q", "changed"))
	cfg := Config{
		Mode:         Only,
		Blacklist:    []string{"q"},
		Expectations: []Expectation{expect(flags, param("p", "x"))},
	}
	assert.NoError(t, Run(cfg, typ))
}

func TestRun_AliasEquivalence(t *testing.T) {
	b := metadata.NewAnnotationType("test", "B").WithParam("q", metadata.IntKind)
	a := metadata.NewAnnotationType("test", "A").
		WithParam("p", metadata.IntKind, metadata.Default(0), metadata.AliasOf(b, "q"))

	typ := metadata.NewType("test", "T").Annotate(a.New(), b.New().Set("q", 5))
	cfg := Config{Expectations: []Expectation{expect(a, param("p", 5))}}
	assert.NoError(t, Run(cfg, typ))

	cfg.Expectations = []Expectation{expect(a, param("p", 6))}
	verr := requireMismatches(t, Run(cfg, typ))
	assert.Contains(t, verr.Mismatches[0].Message, "Expected 6 but was 0")
}

func TestRun_AliasNotFound(t *testing.T) {
	b := metadata.NewAnnotationType("test", "B").WithParam("q", metadata.IntKind)
	a := metadata.NewAnnotationType("test", "A").
		WithParam("p", metadata.IntKind, metadata.AliasOf(b, "q"))

	typ := metadata.NewType("test", "T").Annotate(a.New().Set("p", 5))
	cfg := Config{Expectations: []Expectation{expect(a, param("p", 5))}}

	verr := requireMismatches(t, Run(cfg, typ))
	require.Len(t, verr.Mismatches, 1)
	assert.Equal(t, diagnostics.AliasNotFound, verr.Mismatches[0].Kind)
	assert.Equal(t, `Referenced alias method @AliasFor(annotation=test.B, attribute="q") not found.`,
		verr.Mismatches[0].Message)

	for _, mode := range []Mode{Only, Exactly} {
		t.Run(mode.String(), func(t *testing.T) {
			cfg := Config{Mode: mode, Expectations: []Expectation{expect(a, param("p", 5))}}
			verr := requireMismatches(t, Run(cfg, typ))
			require.Len(t, verr.Mismatches, 1, "the parameter is not reported again as uncovered")
			assert.Equal(t, diagnostics.AliasNotFound, verr.Mismatches[0].Kind)
		})
	}
}

func TestRun_MirrorCoversBothNames(t *testing.T) {
	mapping := metadata.NewAnnotationType("test", "Mapping").
		WithParam("value", metadata.StringKind, metadata.List(), metadata.MirrorOf("path")).
		WithParam("path", metadata.StringKind, metadata.List(), metadata.MirrorOf("value"))
	method := metadata.NewType("test", "T").AddMethod("Get").
		Annotate(mapping.New().Set("path", []string{"/users"}))

	cfg := Config{Mode: Exactly, Expectations: []Expectation{expect(mapping, param("value", "/users"))}}
	assert.NoError(t, Run(cfg, method))
}

func TestRun_AccessFailure(t *testing.T) {
	broken := metadata.NewAnnotationType("test", "Broken").
		WithParam("n", metadata.IntKind).
		WithParam("s", metadata.StringKind)
	instance := broken.New()
	instance.Values["n"] = "not a number"
	instance.Values["s"] = int64(3)
	field := metadata.NewType("test", "T").AddField("F", "string").Annotate(instance)

	cfg := Config{Mode: Only, Expectations: []Expectation{expect(broken, param("n", 1))}}
	verr := requireMismatches(t, Run(cfg, field))
	assert.Equal(t, []string{
		"Could not access/invoke method for 'n'.",
		"Could not access/invoke method for 's'.",
	}, verr.Messages())
	assert.Len(t, verr.ByKind(diagnostics.AccessFailure), 2)
}

func TestRun_MatchReturnType(t *testing.T) {
	base := metadata.NewType("test", "Base")
	base.AddMethod("Get").Returns("any").Annotate(service.New())
	child := metadata.NewType("test", "Child").Embed(base)
	method := child.AddMethod("Get").Returns("string")

	cfg := Config{Expectations: []Expectation{expect(service)}}
	assert.NoError(t, Run(cfg, method))

	cfg.MatchReturnType = true
	verr := requireMismatches(t, Run(cfg, method))
	assert.True(t, verr.HasKind(diagnostics.AnnotationNotFound))
}

func TestParseMode(t *testing.T) {
	for _, mode := range []Mode{Default, Exactly, Only} {
		parsed, ok := ParseMode(mode.String())
		assert.True(t, ok)
		assert.Equal(t, mode, parsed)
	}
	_, ok := ParseMode("strict")
	assert.False(t, ok)
}
