package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/toyz/annotest/internal/manifest"
	"github.com/toyz/annotest/internal/utils"
	"github.com/toyz/annotest/pkg/metadata"
)

var (
	// ErrChecksFailed is returned by the check command when any check fails
	ErrChecksFailed  = stderrors.New("annotation checks failed")
	// ErrChecksInvalid is returned when a check could not run at all
	ErrChecksInvalid = stderrors.New("annotation checks could not run")
)

// Report is the outcome of one check run
type Report struct {
	ID       string        `yaml:"id"`
	Module   string        `yaml:"module,omitempty"`
	Package  string        `yaml:"package,omitempty"`
	Dir      string        `yaml:"dir"`
	Manifest string        `yaml:"manifest"`
	Started  time.Time     `yaml:"started"`
	Duration time.Duration `yaml:"duration"`
	Warnings []string      `yaml:"warnings,omitempty"`
	Checks   []CheckReport `yaml:"checks"`
	Passed   int           `yaml:"passed"`
	Failed   int           `yaml:"failed"`
	Errors   int           `yaml:"errors"`
}

// CheckReport is the outcome of one manifest check
type CheckReport struct {
	Name   string `yaml:"name"`
	Target string `yaml:"target,omitempty"`
	Mode   string `yaml:"mode"`
	Passed bool   `yaml:"passed"`
	// Error is set when the check could not run
	Error      string           `yaml:"error,omitempty"`
	Mismatches []MismatchReport `yaml:"mismatches,omitempty"`
}

// MismatchReport is one mismatch of a failed check
type MismatchReport struct {
	Kind       string `yaml:"kind"`
	Annotation string `yaml:"annotation,omitempty"`
	Parameter  string `yaml:"parameter,omitempty"`
	Expected   string `yaml:"expected,omitempty"`
	Actual     string `yaml:"actual,omitempty"`
	Message    string `yaml:"message"`
}

// Add records a manifest result
func (r *Report) Add(result manifest.Result) {
	check := CheckReport{
		Name:   result.Check,
		Target: result.Target,
		Mode:   result.Mode.String(),
		Passed: result.Passed(),
	}
	if mismatches := result.Mismatches(); len(mismatches) > 0 {
		for _, m := range mismatches {
			mr := MismatchReport{
				Kind:       m.Kind.String(),
				Annotation: m.Annotation,
				Parameter:  m.Parameter,
				Message:    m.Message,
			}
			if m.Expected != nil {
				mr.Expected = metadata.Format(m.Expected)
			}
			if m.Actual != nil {
				mr.Actual = metadata.Format(m.Actual)
			}
			check.Mismatches = append(check.Mismatches, mr)
		}
	} else if result.Err != nil {
		check.Error = result.Err.Error()
	}

	switch {
	case check.Passed:
		r.Passed++
	case result.SetupErr() != nil:
		r.Errors++
	default:
		r.Failed++
	}
	r.Checks = append(r.Checks, check)
}

// Err returns ErrChecksInvalid when any check could not run, otherwise
// ErrChecksFailed when any check failed
func (r *Report) Err() error {
	if r.Errors > 0 {
		return fmt.Errorf("%w: %d of %d", ErrChecksInvalid, r.Errors, len(r.Checks))
	}
	if r.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrChecksFailed, r.Failed, len(r.Checks))
	}
	return nil
}

// WriteText prints the report through the diagnostic system
func (r *Report) WriteText(d *utils.DiagnosticSystem) {
	d.Header("annotest: %s", r.Dir)
	d.Verbose("Report ID: %s", r.ID)
	if r.Module != "" {
		d.Verbose("Module: %s (package %s)", r.Module, r.Package)
	}
	d.Verbose("Manifest: %s", r.Manifest)
	for _, w := range r.Warnings {
		d.Warn("%s", w)
	}

	d.Section("Checks")
	for _, check := range r.Checks {
		label := check.Name
		if check.Target != "" && check.Target != check.Name {
			label = fmt.Sprintf("%s (%s)", check.Name, check.Target)
		}
		if check.Passed {
			d.Pass("%s", label)
			continue
		}
		d.Fail("%s", label)
		d.Indent()
		if check.Error != "" {
			d.List("%s", check.Error)
		}
		for _, m := range check.Mismatches {
			d.List("%s", m.Message)
		}
		d.Unindent()
	}

	d.Summary("Summary",
		utils.Stat{Name: "Checks", Value: len(r.Checks)},
		utils.Stat{Name: "Passed", Value: r.Passed},
		utils.Stat{Name: "Failed", Value: r.Failed},
		utils.Stat{Name: "Errors", Value: r.Errors},
		utils.Stat{Name: "Duration", Value: r.Duration.Round(time.Millisecond)},
	)
}

// WriteYAML encodes the report as a YAML document
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
