package source

import (
	"context"
	"go/token"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/toyz/annotest/internal/errors"
)

// Config controls package loading
type Config struct {
	// Patterns are go/packages patterns relative to the directory; "./..." when empty
	Patterns []string
	// Tests includes _test.go files
	Tests bool
	// Tracer receives debug output, may be nil
	Tracer Tracer
}

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// LoadDir loads the packages matched under dir and builds their metadata model
func LoadDir(ctx context.Context, dir string, cfg Config) (*Program, error) {
	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	fset := token.NewFileSet()
	pkgs, err := packages.Load(&packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     dir,
		Fset:    fset,
		Tests:   cfg.Tests,
	}, patterns...)
	if err != nil {
		return nil, errors.WrapLoadError(dir, err)
	}

	var warnings []error
	for _, pkg := range pkgs {
		for _, perr := range pkg.Errors {
			warnings = append(warnings, perr)
		}
	}

	var units []*unit
	for _, pkg := range selectPackages(pkgs) {
		if cfg.Tracer != nil {
			cfg.Tracer.Debug("loaded %s (%d files)", pkg.PkgPath, len(pkg.Syntax))
		}
		units = append(units, &unit{
			fset:  fset,
			files: pkg.Syntax,
			name:  pkg.Name,
			path:  pkg.PkgPath,
			types: pkg.Types,
		})
	}
	if len(units) == 0 {
		return nil, errors.WrapLoadError(dir, errors.New(errors.LoadErrorCode, "no Go packages found"))
	}

	program, err := newBuilder(cfg.Tracer).build(units)
	if err != nil {
		return nil, err
	}
	program.Warnings = append(program.Warnings, warnings...)
	return program, nil
}

// selectPackages keeps one variant per package path. With Tests set a
// package is listed plain and again compiled with its test files; the
// variant with more files wins. Generated test mains are skipped.
func selectPackages(pkgs []*packages.Package) []*packages.Package {
	var order []string
	chosen := make(map[string]*packages.Package)
	for _, pkg := range pkgs {
		if len(pkg.Syntax) == 0 || strings.HasSuffix(pkg.ID, ".test") {
			continue
		}
		current, ok := chosen[pkg.PkgPath]
		if !ok {
			order = append(order, pkg.PkgPath)
		}
		if !ok || len(pkg.Syntax) > len(current.Syntax) {
			chosen[pkg.PkgPath] = pkg
		}
	}
	result := make([]*packages.Package, len(order))
	for i, path := range order {
		result[i] = chosen[path]
	}
	return result
}
