package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/expr-lang/expr"
	"github.com/proctorsh/proctor/pkg/jail"
	"github.com/proctorsh/proctor/pkg/logging"
	"github.com/proctorsh/proctor/pkg/runtime"
	"github.com/proctorsh/proctor/pkg/schema"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "proctor",
	Short: "Scripted interactive testing of command-line programs",
	Long:  "proctor drives command-line programs through scripted expect/send sessions on a pseudo-terminal and grades the results.",
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [suite.yaml]",
	Short: "Validate a suite YAML file against the schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	doc, errs := schema.ValidateFile(args[0])
	printValidationWarnings(errs)
	if hasValidationErrors(errs) {
		fmt.Fprintf(os.Stderr, "Validation failed: %d error(s)\n\n", countValidationErrors(errs))
		i := 0
		for _, e := range errs {
			if e.Severity == "warning" {
				continue
			}
			i++
			fmt.Fprintf(os.Stderr, "  %d. [%s] %s\n", i, e.Phase, e.Message)
			if e.Path != "" {
				fmt.Fprintf(os.Stderr, "     at: %s\n", e.Path)
			}
		}
		return fmt.Errorf("validation failed with %d error(s)", countValidationErrors(errs))
	}
	fmt.Printf("✓ %s is valid (%d cases)\n", doc.Meta.Name, len(doc.Cases))
	return nil
}

// --- run ---

var (
	runDirectory string
	runQuiet     bool
	runLogFile   string
	runOut       string
	runTrace     string
	runFilter    string
)

var runCmd = &cobra.Command{
	Use:   "run [suite.yaml]",
	Short: "Run a test suite",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuite,
}

func runSuite(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if runLogFile != "" {
		if err := logging.SetFileOutput(runLogFile); err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
	}

	doc, errs := schema.ValidateFile(args[0])
	printValidationWarnings(errs)
	if hasValidationErrors(errs) {
		for _, e := range errs {
			if e.Severity != "warning" {
				fmt.Fprintf(os.Stderr, "  [%s] %s\n", e.Phase, e.Message)
			}
		}
		return fmt.Errorf("suite validation failed with %d error(s)", countValidationErrors(errs))
	}

	suite, err := schema.Build(doc)
	if err != nil {
		return fmt.Errorf("build suite: %w", err)
	}
	if runFilter != "" {
		suite, err = filterSuite(suite, runFilter)
		if err != nil {
			return err
		}
	}

	// Jailed cases are chrooted to the working directory, so change into
	// the test directory before anything spawns.
	if runDirectory != "" {
		if err := os.Chdir(runDirectory); err != nil {
			return fmt.Errorf("change directory: %w", err)
		}
	}

	opts := runtime.RunOptions{
		Quiet:         runQuiet,
		JailSupported: jail.Supported(),
	}
	if runTrace != "" {
		tw, err := runtime.NewTraceWriter(runTrace)
		if err != nil {
			return err
		}
		defer tw.Close()
		opts.Trace = tw
	}

	report, err := suite.Run(opts)
	if err != nil {
		return err
	}

	if !runQuiet {
		fmt.Printf("\nPoints: %v / %v\n", report.Points, suite.TotalPoints())
	}

	if runOut != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		if err := os.WriteFile(runOut, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	failed := 0
	for _, name := range report.Names() {
		if !report.Case(name).Passed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d executed case(s) failed", failed, report.Len())
	}
	return nil
}

// filterSuite keeps only the cases whose metadata satisfies the expression,
// preserving order. The expression sees name, points, scored, blocker and
// visible.
func filterSuite(s *runtime.Suite, expression string) (*runtime.Suite, error) {
	env := map[string]interface{}{
		"name":    "",
		"points":  0.0,
		"scored":  false,
		"blocker": false,
		"visible": false,
	}
	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expression, err)
	}

	filtered := runtime.NewSuite()
	for _, name := range s.Names() {
		c := s.Case(name)
		env := map[string]interface{}{
			"name":    c.Name,
			"points":  0.0,
			"scored":  c.Points != nil,
			"blocker": c.Blocker,
			"visible": c.Visible,
		}
		if c.Points != nil {
			env["points"] = *c.Points
		}
		keep, err := expr.Run(program, env)
		if err != nil {
			return nil, fmt.Errorf("eval filter for case %q: %w", name, err)
		}
		if keep.(bool) {
			if err := filtered.AddCase(c); err != nil {
				return nil, err
			}
		}
	}
	return filtered, nil
}

// --- schema export ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Schema utilities",
}

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export JSON Schema to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := schema.GenerateJSONSchema()
		if err != nil {
			return fmt.Errorf("generate schema: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("proctor %s (build: %s)\n", version, commit)
	},
}

func hasValidationErrors(errs []*schema.ValidationError) bool {
	return countValidationErrors(errs) > 0
}

func countValidationErrors(errs []*schema.ValidationError) int {
	n := 0
	for _, e := range errs {
		if e.Severity != "warning" {
			n++
		}
	}
	return n
}

func printValidationWarnings(errs []*schema.ValidationError) {
	for _, e := range errs {
		if e.Severity != "warning" {
			continue
		}
		fmt.Fprintf(os.Stderr, "  ⚠ [%s] %s\n", e.Phase, e.Message)
		if e.Path != "" {
			fmt.Fprintf(os.Stderr, "    at: %s\n", e.Path)
		}
	}
}

func init() {
	runCmd.Flags().StringVarP(&runDirectory, "directory", "d", "", "Change into this directory before running")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Suppress per-case progress output")
	runCmd.Flags().StringVar(&runLogFile, "log", "", "Write debug log to this file")
	runCmd.Flags().StringVar(&runOut, "out", "", "Write the structured JSON report to this file")
	runCmd.Flags().StringVar(&runTrace, "trace", "", "Append a JSONL trace of case reports to this file")
	runCmd.Flags().StringVar(&runFilter, "filter", "", "Run only cases matching this expression (e.g. 'points > 0')")

	schemaCmd.AddCommand(schemaExportCmd)

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)
}
