// Package source builds the annotation metadata model from Go source code.
//
// Annotation types are structs marked with an "//anno:annotation" comment.
// Their exported fields are parameters:
//
//	//anno:annotation
//	type Route struct {
//		Path    string   `anno:"value" alias:"path"`
//		Methods []string `default:"[GET]"`
//	}
//
// Types, methods, struct fields and NewXxx constructor functions are
// annotated with comment lines such as //anno:Route("/users") or
// //anno:Route(value="/users", methods=[GET, POST]). A bare value must be the
// only argument.
// Embedded structs are supertypes; interfaces are discovered from method sets.
package source

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"sort"

	"github.com/toyz/annotest/internal/errors"
)

// ParseSource loads a single Go file given as text
func ParseSource(filename, src string) (*Package, error) {
	return ParseFiles(map[string]string{filename: src})
}

// ParseFiles loads one package from in-memory files keyed by file name. Type
// information comes from go/types; imports are resolved from source.
func ParseFiles(files map[string]string) (*Package, error) {
	program, err := ParseProgram(files)
	if err != nil {
		return nil, err
	}
	return program.Packages[0], nil
}

// ParseProgram is ParseFiles returning the whole program, for callers that
// look elements up by qualified name
func ParseProgram(files map[string]string) (*Program, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	fset := token.NewFileSet()
	var parsed []*ast.File
	for _, name := range names {
		file, err := parser.ParseFile(fset, name, files[name], parser.ParseComments)
		if err != nil {
			return nil, errors.WrapLoadError(name, err)
		}
		parsed = append(parsed, file)
	}
	if len(parsed) == 0 {
		return nil, errors.New(errors.LoadErrorCode, "no files given")
	}

	name := parsed[0].Name.Name
	conf := types.Config{
		Importer: importer.ForCompiler(fset, "source", nil),
		// keep checking past errors; partial type information is still usable
		Error: func(error) {},
	}
	pkg, _ := conf.Check(name, fset, parsed, nil)

	return newBuilder(nil).build([]*unit{{
		fset:  fset,
		files: parsed,
		name:  name,
		path:  name,
		types: pkg,
	}})
}
