package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Prefix starts an annotation comment line
const Prefix = "//anno:"

// declarationMarker marks a struct as an annotation type
const declarationMarker = "annotation"

// annotationExpr is an annotation usage, e.g. Route(path="/users", methods=[GET, POST])
type annotationExpr struct {
	Name string     `parser:"@Ident ( @'.' @Ident )?"`
	Args []*argExpr `parser:"( '(' ( @@ ( ',' @@ )* )? ')' )?"`
}

// argExpr is a named argument or a single positional argument for "value"
type argExpr struct {
	Key   string     `parser:"( @Ident '=' )?"`
	Value *valueExpr `parser:"@@"`
}

type valueExpr struct {
	String *string      `parser:"  @String"`
	Float  *float64     `parser:"| @Float"`
	Int    *int64       `parser:"| @Int"`
	Bool   *string      `parser:"| @('true' | 'false')"`
	Nil    bool         `parser:"| @'nil'"`
	List   []*valueExpr `parser:"| '[' ( @@ ( ',' @@ )* )? ']'"`
	Ident  *string      `parser:"| @Ident ( @'.' @Ident )*"`
}

var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\.|[^"\\])*"|` + "`[^`]*`"},
	{Name: "Float", Pattern: `-?[0-9]+\.[0-9]+([eE][-+]?[0-9]+)?`},
	{Name: "Int", Pattern: `-?(0[xX][0-9a-fA-F]+|[0-9]+)`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[()\[\],=.]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var (
	annotationParser = participle.MustBuild[annotationExpr](
		participle.Lexer(annotationLexer),
		participle.Elide("Whitespace"),
		participle.Unquote("String"),
		participle.UseLookahead(2),
	)
	valueParser = participle.MustBuild[valueExpr](
		participle.Lexer(annotationLexer),
		participle.Elide("Whitespace"),
		participle.Unquote("String"),
		participle.UseLookahead(2),
	)
)

// parsedAnnotation is the syntax-level result of one annotation comment
type parsedAnnotation struct {
	Name   string
	Args   map[string]any
	Order  []string
	Source string
}

// isAnnotationComment reports whether a comment line carries an annotation
func isAnnotationComment(text string) bool {
	return strings.HasPrefix(text, Prefix)
}

// parseAnnotation parses one "//anno:" comment line
func parseAnnotation(text string) (*parsedAnnotation, error) {
	body := strings.TrimSpace(strings.TrimPrefix(text, Prefix))
	if body == "" {
		return nil, fmt.Errorf("missing annotation name")
	}
	expr, err := annotationParser.ParseString("", body)
	if err != nil {
		return nil, err
	}

	parsed := &parsedAnnotation{Name: expr.Name, Args: make(map[string]any), Source: body}
	for i, arg := range expr.Args {
		key := arg.Key
		if key == "" {
			if len(expr.Args) > 1 || i > 0 {
				return nil, fmt.Errorf("positional argument must be the only argument")
			}
			key = "value"
		}
		if _, dup := parsed.Args[key]; dup {
			return nil, fmt.Errorf("argument %s given twice", key)
		}
		parsed.Args[key] = arg.Value.toValue()
		parsed.Order = append(parsed.Order, key)
	}
	return parsed, nil
}

// parseValue parses a literal in annotation syntax, as used by default tags
func parseValue(text string) (any, error) {
	expr, err := valueParser.ParseString("", text)
	if err != nil {
		return nil, err
	}
	return expr.toValue(), nil
}

func (v *valueExpr) toValue() any {
	switch {
	case v.String != nil:
		return *v.String
	case v.Float != nil:
		return *v.Float
	case v.Int != nil:
		return *v.Int
	case v.Bool != nil:
		b, _ := strconv.ParseBool(*v.Bool)
		return b
	case v.Nil:
		return nil
	case v.Ident != nil:
		// bare identifiers such as enum constants are kept as text
		return *v.Ident
	default:
		items := make([]any, len(v.List))
		for i, item := range v.List {
			items[i] = item.toValue()
		}
		return items
	}
}
