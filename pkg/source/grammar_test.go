package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantArgs map[string]any
	}{
		{
			name:     "bare",
			input:    "//anno:Service",
			wantName: "Service",
			wantArgs: map[string]any{},
		},
		{
			name:     "empty parens",
			input:    "//anno:Service()",
			wantName: "Service",
			wantArgs: map[string]any{},
		},
		{
			name:     "positional value",
			input:    `//anno:Marker("v1")`,
			wantName: "Marker",
			wantArgs: map[string]any{"value": "v1"},
		},
		{
			name:     "qualified name",
			input:    `//anno:web.Route(path="/users")`,
			wantName: "web.Route",
			wantArgs: map[string]any{"path": "/users"},
		},
		{
			name:     "scalars",
			input:    `//anno:Config(retries=3, ratio=0.5, offset=-2, enabled=true, name=nil)`,
			wantName: "Config",
			wantArgs: map[string]any{
				"retries": int64(3),
				"ratio":   0.5,
				"offset":  int64(-2),
				"enabled": true,
				"name":    nil,
			},
		},
		{
			name:     "lists and identifiers",
			input:    "//anno:Route(methods=[GET, POST], ids=[1, 2], empty=[], raw=`a\"b`, level=log.Debug)",
			wantName: "Route",
			wantArgs: map[string]any{
				"methods": []any{"GET", "POST"},
				"ids":     []any{int64(1), int64(2)},
				"empty":   []any{},
				"raw":     `a"b`,
				"level":   "log.Debug",
			},
		},
		{
			name:     "named value with other arguments",
			input:    `//anno:Route(value="/items", methods=[GET, POST])`,
			wantName: "Route",
			wantArgs: map[string]any{"value": "/items", "methods": []any{"GET", "POST"}},
		},
		{
			name:     "escaped string",
			input:    `//anno:Marker(value="say \"hi\"")`,
			wantName: "Marker",
			wantArgs: map[string]any{"value": `say "hi"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parseAnnotation(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, parsed.Name)
			assert.Equal(t, tt.wantArgs, parsed.Args)
		})
	}
}

func TestParseAnnotation_Errors(t *testing.T) {
	inputs := []string{
		"//anno:",
		"//anno:Route(",
		`//anno:Route(path="/a", path="/b")`,
		`//anno:Route("/a", "/b")`,
		`//anno:Route("/items", methods=[GET, POST])`,
		`//anno:Route(methods=[GET], "/items")`,
		`//anno:Route(methods=[GET)`,
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := parseAnnotation(input)
			assert.Error(t, err)
		})
	}
}

func TestParseAnnotation_ArgumentOrder(t *testing.T) {
	parsed, err := parseAnnotation(`//anno:Route(b=1, a=2)`)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, parsed.Order)
}

func TestParseValue(t *testing.T) {
	value, err := parseValue("[a, b]")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, value)

	value, err = parseValue("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), value)

	_, err = parseValue("[")
	assert.Error(t, err)
}
