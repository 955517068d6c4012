package manifest

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/annotest/internal/errors"
	"github.com/toyz/annotest/pkg/annotest"
	"github.com/toyz/annotest/pkg/metadata"
	"github.com/toyz/annotest/pkg/source"
)

const shopSource = `package shop

//anno:annotation
type Route struct {
	Path    string   ` + "`anno:\"value\"`" + `
	Methods []string ` + "`default:\"[GET]\"`" + `
}

//anno:annotation
type Tag struct {
	Value string ` + "`default:\"\"`" + `
}

//anno:Tag("catalog")
type Catalog struct {
	//anno:Tag("db")
	Store string
}

//anno:Route(value="/items", methods=[GET, POST])
func (c *Catalog) Items(page int, filter func(a, b string) bool) []string { return nil }

//anno:Tag("ctor")
func NewCatalog() *Catalog { return &Catalog{} }
`

const shopManifest = `
checks:
  - name: catalog type
    type: shop.Catalog
    mode: only
    annotations:
      - type: shop.Tag
        params:
          value: catalog
  - method: 'shop.Catalog.Items(int, func(a, b string) bool)'
    mode: exactly
    annotations:
      - type: shop.Route
        params:
          value: /items
          methods: [GET, POST]
  - field: shop.Catalog.Store
    annotations:
      - type: shop.Tag
        params:
          value: db
  - constructor: shop.Catalog.NewCatalog
    annotations:
      - type: shop.Tag
        params:
          value: ctor
`

func loadShop(t *testing.T) *source.Program {
	t.Helper()
	program, err := source.ParseProgram(map[string]string{"shop.go": shopSource})
	require.NoError(t, err)
	return program
}

func TestParse(t *testing.T) {
	m, err := Parse("shop.yaml", []byte(shopManifest))
	require.NoError(t, err)
	require.Len(t, m.Checks, 4)

	first := m.Checks[0]
	assert.Equal(t, "catalog type", first.Label())
	assert.Equal(t, "only", first.Mode)
	require.Len(t, first.Annotations, 1)
	assert.Equal(t, []Param{{Name: "value", Values: []any{"catalog"}}}, first.Annotations[0].Params)

	route := m.Checks[1].Annotations[0]
	require.Len(t, route.Params, 2)
	assert.Equal(t, "value", route.Params[0].Name, "params keep manifest order")
	assert.Equal(t, []any{"GET", "POST"}, route.Params[1].Values)
	assert.Equal(t, "shop.Catalog.Items(int, func(a, b string) bool)", m.Checks[1].Label())

	target, err := m.Checks[1].Target()
	require.NoError(t, err)
	assert.Equal(t, Target{
		Kind:   metadata.MethodElement,
		Type:   "shop.Catalog",
		Member: "Items",
		Params: []string{"int", "func(a, b string) bool"},
	}, target)
}

func TestParse_ScalarTypes(t *testing.T) {
	m, err := Parse("m.yaml", []byte(`
checks:
  - type: shop.Catalog
    annotations:
      - type: shop.Limits
        params:
          max: 5
          ratio: 0.5
          ready: true
      - type: shop.Tag
`))
	require.NoError(t, err)
	params := m.Checks[0].Annotations[0].Params
	assert.Equal(t, []any{5}, params[0].Values)
	assert.Equal(t, []any{0.5}, params[1].Values)
	assert.Equal(t, []any{true}, params[2].Values)
	assert.Empty(t, m.Checks[0].Annotations[1].Params)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"no checks", "checks: []"},
		{"no target", "checks:\n  - mode: only"},
		{"two targets", "checks:\n  - type: a.T\n    field: a.T.F"},
		{"unqualified type", "checks:\n  - type: T"},
		{"field with parameters", "checks:\n  - field: a.T.F(int)"},
		{"member without type", "checks:\n  - method: List()"},
		{"unbalanced", "checks:\n  - method: 'a.T.F(map[string]int'"},
		{"unknown mode", "checks:\n  - type: a.T\n    mode: strict"},
		{"annotation without type", "checks:\n  - type: a.T\n    annotations:\n      - params: {a: 1}"},
		{"params not a mapping", "checks:\n  - type: a.T\n    annotations:\n      - type: a.X\n        params: [1]"},
		{"not yaml", "checks: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.yaml", []byte(tt.manifest))
			require.Error(t, err)

			var annoErr errors.AnnotestError
			if assert.True(t, stderrors.As(err, &annoErr)) {
				assert.Equal(t, errors.ManifestErrorCode, annoErr.ErrorCode())
			}
		})
	}
}

func TestParse_ErrorLocation(t *testing.T) {
	_, err := Parse("bad.yaml", []byte("checks:\n  - type: a.T\n  - type: a.T\n    mode: strict\n"))
	require.Error(t, err)

	var annoErr errors.AnnotestError
	require.True(t, stderrors.As(err, &annoErr))
	assert.Equal(t, errors.SourceLocation{File: "bad.yaml", Line: 3}, annoErr.Location())
	assert.Contains(t, err.Error(), `unknown mode "strict"`)
}

func TestSplitParams(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"int", []string{"int"}},
		{"int, string", []string{"int", "string"}},
		{"map[string]int, []byte", []string{"map[string]int", "[]byte"}},
		{"func(a, b int) (int, error), struct{ x, y int }", []string{"func(a, b int) (int, error)", "struct{ x, y int }"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := splitParams(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := splitParams("int,")
	assert.Error(t, err)
	_, err = splitParams("func(a int")
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	program := loadShop(t)
	m, err := Parse("shop.yaml", []byte(shopManifest))
	require.NoError(t, err)

	results := m.Run(program)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.True(t, r.Passed(), "%s: %v", r.Check, r.Err)
	}
	assert.Equal(t, "type shop.Catalog", results[0].Target)
	assert.Equal(t, annotest.ModeOnly, results[0].Mode)
	assert.Equal(t, annotest.ModeExactly, results[1].Mode)
	assert.Equal(t, "field shop.Catalog.Store", results[2].Target)
}

func TestRun_Failures(t *testing.T) {
	program := loadShop(t)
	m, err := Parse("shop.yaml", []byte(`
checks:
  - name: wrong value
    type: shop.Catalog
    annotations:
      - type: shop.Tag
        params:
          value: inventory
  - name: missing method
    method: shop.Catalog.Items(int)
    annotations:
      - type: shop.Route
  - name: unknown annotation
    type: shop.Catalog
    annotations:
      - type: shop.Missing
  - name: extra annotation under exactly
    method: 'shop.Catalog.Items(int, func(a, b string) bool)'
    mode: exactly
    annotations:
      - type: shop.Route
        params:
          value: /items
`))
	require.NoError(t, err)

	results := m.Run(program)
	require.Len(t, results, 4)

	wrong := results[0]
	assert.False(t, wrong.Passed())
	assert.NoError(t, wrong.SetupErr(), "mismatches are assertion failures")
	mismatches := wrong.Mismatches()
	require.Len(t, mismatches, 1)
	assert.Equal(t, annotest.ValueMismatch, mismatches[0].Kind)

	missing := results[1]
	assert.ErrorIs(t, missing.Err, metadata.ErrNoSuchElement)
	assert.ErrorIs(t, missing.SetupErr(), metadata.ErrNoSuchElement)
	assert.Empty(t, missing.Mismatches())
	assert.Empty(t, missing.Target)

	unknown := results[2]
	assert.ErrorIs(t, unknown.Err, metadata.ErrNoSuchElement)
	assert.Contains(t, unknown.Err.Error(), "shop.Missing")
	assert.Error(t, unknown.SetupErr())

	var coded errors.AnnotestError
	require.True(t, stderrors.As(unknown.SetupErr(), &coded))
	assert.Equal(t, errors.ManifestErrorCode, coded.ErrorCode())

	exactly := results[3]
	require.Len(t, exactly.Mismatches(), 1)
	assert.Equal(t, annotest.UnexpectedValue, exactly.Mismatches()[0].Kind)
}

func TestRun_NoAnnotationsInDefaultMode(t *testing.T) {
	program := loadShop(t)
	m, err := Parse("shop.yaml", []byte("checks:\n  - type: shop.Catalog\n"))
	require.NoError(t, err)

	results := m.Run(program)
	require.Len(t, results, 1)
	assert.True(t, annotest.IsConfigError(results[0].Err))
	assert.ErrorIs(t, results[0].Err, annotest.ErrNoExpectations)
	assert.ErrorIs(t, results[0].SetupErr(), annotest.ErrNoExpectations)
	assert.Empty(t, results[0].Mismatches())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "expectations.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dir: ./app\n"+shopManifest), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./app", m.Dir)
	assert.Equal(t, path, m.Path())
	assert.Equal(t, filepath.Join(dir, "app"), m.LoadDir())
	assert.Len(t, m.Checks, 4)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
