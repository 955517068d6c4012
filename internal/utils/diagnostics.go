package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// DiagnosticLevel represents the level of diagnostic output
type DiagnosticLevel int

const (
	DiagnosticSilent DiagnosticLevel = iota
	DiagnosticError
	DiagnosticWarn
	DiagnosticInfo
	DiagnosticVerbose
	DiagnosticDebug
)

// ParseDiagnosticLevel converts a level name such as "info" or "debug"
func ParseDiagnosticLevel(name string) (DiagnosticLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "silent":
		return DiagnosticSilent, nil
	case "error", "quiet":
		return DiagnosticError, nil
	case "warn", "warning":
		return DiagnosticWarn, nil
	case "", "info":
		return DiagnosticInfo, nil
	case "verbose":
		return DiagnosticVerbose, nil
	case "debug":
		return DiagnosticDebug, nil
	}
	return DiagnosticInfo, fmt.Errorf("unknown diagnostic level %q", name)
}

// DiagnosticSystem provides structured, user-friendly output
type DiagnosticSystem struct {
	level     DiagnosticLevel
	useColors bool
	showTime  bool
	output    io.Writer
	errorOut  io.Writer
	indent    int
}

// NewDiagnosticSystem creates a new diagnostic system writing to stdout and stderr
func NewDiagnosticSystem(level DiagnosticLevel) *DiagnosticSystem {
	return &DiagnosticSystem{
		level:     level,
		useColors: shouldUseColors(),
		showTime:  level >= DiagnosticDebug,
		output:    os.Stdout,
		errorOut:  os.Stderr,
	}
}

// NewQuietDiagnostics creates a diagnostic system that only shows errors
func NewQuietDiagnostics() *DiagnosticSystem {
	return NewDiagnosticSystem(DiagnosticError)
}

// NewVerboseDiagnostics creates a diagnostic system with full output
func NewVerboseDiagnostics() *DiagnosticSystem {
	return NewDiagnosticSystem(DiagnosticVerbose)
}

// SetOutput redirects normal and error output. Colors are disabled since
// the writers are usually not terminals.
func (d *DiagnosticSystem) SetOutput(out, errOut io.Writer) *DiagnosticSystem {
	d.output = out
	d.errorOut = errOut
	d.useColors = false
	return d
}

// SetColors overrides terminal detection
func (d *DiagnosticSystem) SetColors(enabled bool) *DiagnosticSystem {
	d.useColors = enabled
	return d
}

// Level returns the configured level
func (d *DiagnosticSystem) Level() DiagnosticLevel {
	return d.level
}

// Enabled reports whether messages of the given level are shown
func (d *DiagnosticSystem) Enabled(level DiagnosticLevel) bool {
	return d.level >= level && level > DiagnosticSilent
}

// Error outputs error messages (always shown unless silent)
func (d *DiagnosticSystem) Error(format string, args ...interface{}) {
	if d.Enabled(DiagnosticError) {
		d.writeMessage(d.errorOut, "ERROR", color.FgRed, format, args...)
	}
}

// Warn outputs warning messages
func (d *DiagnosticSystem) Warn(format string, args ...interface{}) {
	if d.Enabled(DiagnosticWarn) {
		d.writeMessage(d.errorOut, "WARN", color.FgYellow, format, args...)
	}
}

// Info outputs informational messages
func (d *DiagnosticSystem) Info(format string, args ...interface{}) {
	if d.Enabled(DiagnosticInfo) {
		d.writeMessage(d.output, "INFO", color.FgBlue, format, args...)
	}
}

// Verbose outputs detailed messages (verbose mode only)
func (d *DiagnosticSystem) Verbose(format string, args ...interface{}) {
	if d.Enabled(DiagnosticVerbose) {
		d.writeMessage(d.output, "VERBOSE", color.FgHiBlack, format, args...)
	}
}

// Debug outputs debug messages (highest verbosity)
func (d *DiagnosticSystem) Debug(format string, args ...interface{}) {
	if d.Enabled(DiagnosticDebug) {
		d.writeMessage(d.output, "DEBUG", color.FgMagenta, format, args...)
	}
}

// Header outputs the tool banner line
func (d *DiagnosticSystem) Header(format string, args ...interface{}) {
	if d.Enabled(DiagnosticInfo) {
		fmt.Fprintln(d.output, d.paint(color.FgCyan, fmt.Sprintf(format, args...)))
	}
}

// Section creates a prominent section header
func (d *DiagnosticSystem) Section(title string) {
	if d.Enabled(DiagnosticInfo) {
		fmt.Fprintf(d.output, "\n%s\n", d.paint(color.Bold, title))
	}
}

// Pass outputs a check mark item
func (d *DiagnosticSystem) Pass(format string, args ...interface{}) {
	if d.Enabled(DiagnosticInfo) {
		fmt.Fprintf(d.output, "%s%s %s\n", d.getIndent(), d.paint(color.FgGreen, "✓"), fmt.Sprintf(format, args...))
	}
}

// Fail outputs a cross item. Failures are shown at error level.
func (d *DiagnosticSystem) Fail(format string, args ...interface{}) {
	if d.Enabled(DiagnosticError) {
		fmt.Fprintf(d.output, "%s%s %s\n", d.getIndent(), d.paint(color.FgRed, "✗"), fmt.Sprintf(format, args...))
	}
}

// List outputs a bulleted list item; list items accompany failures, so
// they share the error level
func (d *DiagnosticSystem) List(format string, args ...interface{}) {
	if d.Enabled(DiagnosticError) {
		fmt.Fprintf(d.output, "%s- %s\n", d.getIndent(), fmt.Sprintf(format, args...))
	}
}

// Indent increases the indentation level
func (d *DiagnosticSystem) Indent() {
	d.indent++
}

// Unindent decreases the indentation level
func (d *DiagnosticSystem) Unindent() {
	if d.indent > 0 {
		d.indent--
	}
}

// Stat is one summary line
type Stat struct {
	Name  string
	Value interface{}
}

// Summary outputs a final summary with statistics in the given order
func (d *DiagnosticSystem) Summary(title string, stats ...Stat) {
	if d.Enabled(DiagnosticError) {
		fmt.Fprintf(d.output, "\n%s\n", d.paint(color.Bold, title))
		for _, stat := range stats {
			fmt.Fprintf(d.output, "   %s: %v\n", stat.Name, stat.Value)
		}
	}
}

func (d *DiagnosticSystem) paint(attr color.Attribute, s string) string {
	if !d.useColors {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}

// writeMessage is the internal message writing function
func (d *DiagnosticSystem) writeMessage(writer io.Writer, level string, attr color.Attribute, format string, args ...interface{}) {
	var output strings.Builder
	output.WriteString(d.getIndent())

	if d.showTime {
		output.WriteString(time.Now().Format("15:04:05 "))
	}

	output.WriteString(d.paint(attr, "["+level+"]"))
	output.WriteString(" ")
	output.WriteString(fmt.Sprintf(format, args...))
	output.WriteString("\n")

	fmt.Fprint(writer, output.String())
}

// getIndent returns the current indentation string
func (d *DiagnosticSystem) getIndent() string {
	return strings.Repeat("  ", d.indent)
}

// shouldUseColors determines if colors should be used
func shouldUseColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return !color.NoColor
}
