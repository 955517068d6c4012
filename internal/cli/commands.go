package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/toyz/annotest/internal/utils"
)

// Version is set at build time
var Version = "dev"

// Exit codes returned by Execute
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitError  = 2
)

// reportedError marks an error already printed by the ErrorReporter
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// Execute runs the command line and returns the process exit code
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	var reported *reportedError
	switch {
	case err == nil:
		return ExitOK
	case stderrors.Is(err, ErrChecksInvalid):
		return ExitError
	case stderrors.Is(err, ErrChecksFailed):
		return ExitFailed
	case stderrors.As(err, &reported):
		return ExitError
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "annotest",
		Short: "Assert the annotations declared in Go source",
		Long: `annotest checks that types, methods, fields and constructors carry the
//anno: annotations an expectation manifest describes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewVersionCommand())
	return rootCmd
}

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	v := NewViper()
	var verbose, quiet bool

	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Run an expectation manifest against the packages in dir",
		Long: `Load the Go packages under dir (default ".") and run every check of the
expectation manifest. Settings come from flags, ANNOTEST_* environment
variables and an optional .annotest.yaml in dir, in that order.

Exit status is 1 when any check fails and 2 when the run or a check could
not start, for example on an unknown target or a check without annotations.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			config, err := LoadConfig(v, dir)
			if err != nil {
				return err
			}
			level := config.DiagnosticLevel()
			switch {
			case quiet:
				level = utils.DiagnosticError
			case verbose && level < utils.DiagnosticVerbose:
				level = utils.DiagnosticVerbose
			}

			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			diagOut := out
			if config.Format == FormatYAML {
				diagOut = errOut
			}
			diagnostics := utils.NewDiagnosticSystem(level).SetOutput(diagOut, errOut)
			if diagOut == os.Stdout {
				diagnostics.SetColors(!color.NoColor)
			}

			report, err := NewChecker(config, diagnostics).Check(cmd.Context(), dir)
			if err != nil {
				NewErrorReporter(errOut, level >= utils.DiagnosticVerbose).ReportError(err)
				return &reportedError{err: err}
			}

			if config.Format == FormatYAML {
				if err := report.WriteYAML(out); err != nil {
					return err
				}
			} else {
				report.WriteText(diagnostics)
			}
			return report.Err()
		},
	}

	flags := cmd.Flags()
	flags.StringP("manifest", "m", "annotest.yaml", "Expectation manifest, relative to dir")
	flags.StringP("format", "f", FormatText, "Report format: text or yaml")
	flags.String("level", "info", "Diagnostic level: silent, error, warn, info, verbose or debug")
	flags.StringSlice("pattern", []string{"./..."}, "Package patterns to load")
	flags.Bool("tests", false, "Include _test.go files")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Only show failures")

	for key, flag := range map[string]string{
		"manifest": "manifest",
		"format":   "format",
		"level":    "level",
		"patterns": "pattern",
		"tests":    "tests",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "annotest %s (%s)\n", Version, runtime.Version())
		},
	}
}
