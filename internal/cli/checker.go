package cli

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/toyz/annotest/internal/manifest"
	"github.com/toyz/annotest/internal/utils"
	"github.com/toyz/annotest/pkg/source"
)

// Checker loads a directory's packages and runs its expectation manifest
type Checker struct {
	config      *Config
	diagnostics *utils.DiagnosticSystem
}

// NewChecker creates a checker
func NewChecker(config *Config, diagnostics *utils.DiagnosticSystem) *Checker {
	return &Checker{config: config, diagnostics: diagnostics}
}

// Check runs the manifest found under dir. The returned error covers setup
// problems only; failed checks are recorded in the report.
func (c *Checker) Check(ctx context.Context, dir string) (*Report, error) {
	report := &Report{
		ID:      uuid.NewString(),
		Started: time.Now(),
	}

	manifestPath := c.config.ManifestPath(dir)
	c.diagnostics.Debug("reading manifest %s", manifestPath)
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	report.Manifest = manifestPath
	report.Dir = m.LoadDir()

	if mod, err := utils.FindModule(report.Dir); err == nil {
		report.Module = mod.Path
		if pkg, err := mod.ImportPath(report.Dir); err == nil {
			report.Package = pkg
		}
	} else {
		c.diagnostics.Debug("no module: %v", err)
	}

	c.diagnostics.Verbose("loading packages in %s", report.Dir)
	program, err := source.LoadDir(ctx, report.Dir, source.Config{
		Patterns: c.config.Patterns,
		Tests:    c.config.Tests,
		Tracer:   c.diagnostics,
	})
	if err != nil {
		return nil, err
	}
	for _, w := range program.Warnings {
		report.Warnings = append(report.Warnings, w.Error())
	}
	c.diagnostics.Verbose("loaded %d packages, %d annotation types", len(program.Packages), len(program.AnnotationTypes()))

	for i := range m.Checks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		check := &m.Checks[i]
		c.diagnostics.Debug("running %s", check.Label())
		report.Add(check.Run(program))
	}

	report.Duration = time.Since(report.Started)
	return report, nil
}
