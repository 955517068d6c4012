package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/annotest/internal/errors"
)

// ErrorReporter prints setup errors (bad manifests, load failures, syntax
// errors in annotation comments) with their locations and suggestions
type ErrorReporter struct {
	out       io.Writer
	verbose   bool
	useColors bool
}

// NewErrorReporter creates a reporter writing to out
func NewErrorReporter(out io.Writer, verbose bool) *ErrorReporter {
	return &ErrorReporter{out: out, verbose: verbose, useColors: !color.NoColor}
}

// ReportError prints err. Collections of errors are listed one by one.
func (r *ErrorReporter) ReportError(err error) {
	if err == nil {
		return
	}
	errs := flatten(err)

	title := "ERROR: Check Failed"
	if len(errs) > 1 {
		title = fmt.Sprintf("ERROR: Check Failed (%d errors)", len(errs))
	}
	fmt.Fprintf(r.out, "\n%s\n%s\n", r.paint(color.FgRed, title), strings.Repeat("=", len(title)))

	for i, e := range errs {
		fmt.Fprintln(r.out)
		if len(errs) > 1 {
			fmt.Fprintf(r.out, "%d. ", i+1)
		}
		var annoErr errors.AnnotestError
		if stderrors.As(e, &annoErr) {
			r.reportAnnotestError(annoErr)
		} else {
			fmt.Fprintf(r.out, "Message: %s\n", e.Error())
		}
	}
	fmt.Fprintln(r.out)
}

func (r *ErrorReporter) reportAnnotestError(err errors.AnnotestError) {
	fmt.Fprintf(r.out, "Type: %s\n", err.ErrorCode())
	fmt.Fprintf(r.out, "Message: %s\n", message(err))

	if loc := err.Location(); !loc.IsEmpty() {
		fmt.Fprintf(r.out, "Location: %s\n", loc)
	}

	if r.verbose && err.Unwrap() != nil {
		fmt.Fprintf(r.out, "Underlying cause: %s\n", err.Unwrap())
	}

	if ctx := err.Context(); r.verbose && len(ctx) > 0 {
		keys := make([]string, 0, len(ctx))
		for k := range ctx {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(r.out, "Context:\n")
		for _, k := range keys {
			fmt.Fprintf(r.out, "   %s: %v\n", formatContextKey(k), ctx[k])
		}
	}

	if suggestions := err.Suggestions(); len(suggestions) > 0 {
		fmt.Fprintf(r.out, "Suggestions:\n")
		for i, s := range suggestions {
			fmt.Fprintf(r.out, "   %d. %s\n", i+1, s)
		}
	}
}

// message strips the location prefix BaseError puts in Error()
func message(err errors.AnnotestError) string {
	msg := err.Error()
	if loc := err.Location(); !loc.IsEmpty() {
		msg = strings.TrimPrefix(msg, loc.String()+": ")
	}
	return msg
}

func flatten(err error) []error {
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		if _, isAnno := err.(errors.AnnotestError); !isAnno {
			var result []error
			for _, e := range multi.Unwrap() {
				result = append(result, flatten(e)...)
			}
			return result
		}
	}
	return []error{err}
}

// formatContextKey converts snake_case keys to Title Case
func formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

func (r *ErrorReporter) paint(attr color.Attribute, s string) string {
	if !r.useColors {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}
