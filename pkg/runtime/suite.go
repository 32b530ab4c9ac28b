// Package runtime is the execution core: it replays case scripts against
// live processes and rolls the results up into a scored suite report.
package runtime

import (
	"fmt"
	"os"

	"github.com/proctorsh/proctor/pkg/jail"
	"github.com/proctorsh/proctor/pkg/logging"
	"github.com/proctorsh/proctor/pkg/progress"
)

// Suite is an ordered collection of test cases keyed by name. Insertion
// order is execution order.
type Suite struct {
	order       []string
	cases       map[string]*TestCase
	totalPoints float64
}

// NewSuite returns an empty suite.
func NewSuite() *Suite {
	return &Suite{cases: make(map[string]*TestCase)}
}

// AddCase appends a case to the suite and adds its point value to the
// total. Duplicate names are rejected: silently overwriting would leave
// the total counting points a case can never earn.
func (s *Suite) AddCase(c *TestCase) error {
	if _, dup := s.cases[c.Name]; dup {
		return fmt.Errorf("duplicate case name %q", c.Name)
	}
	s.order = append(s.order, c.Name)
	s.cases[c.Name] = c
	if c.Points != nil {
		s.totalPoints += *c.Points
	}
	return nil
}

// TotalPoints is the maximum attainable score: the sum of all added cases'
// point values, independent of any run outcome.
func (s *Suite) TotalPoints() float64 {
	return s.totalPoints
}

// Names returns the case names in execution order.
func (s *Suite) Names() []string {
	return s.order
}

// Case returns the named case, or nil.
func (s *Suite) Case(name string) *TestCase {
	return s.cases[name]
}

// Len is the number of cases in the suite.
func (s *Suite) Len() int {
	return len(s.order)
}

// RunOptions configures a suite run.
type RunOptions struct {
	// Quiet suppresses all progress output.
	Quiet bool
	// JailSupported enables jailing for eligible cases. Host capability is
	// detected by the caller, once per run.
	JailSupported bool
	// Progress receives per-case progress lines. Nil means the console
	// printer on stdout.
	Progress progress.Printer
	// Trace, when set, receives a JSONL record per executed case.
	Trace *TraceWriter
}

// Run executes the cases in insertion order and returns the suite report.
// A failing blocker case halts the run; cases after it are not executed
// and do not appear in the report. The returned error is reserved for
// infrastructure failures that leave no report to build.
func (s *Suite) Run(opts RunOptions) (*SuiteReport, error) {
	printer := opts.Progress
	if printer == nil {
		printer = &progress.Console{Out: os.Stdout}
	}

	report := NewSuiteReport()
	for _, name := range s.order {
		c := s.cases[name]
		logging.Debug("starting case", "name", name)

		show := !opts.Quiet && c.Visible
		if show {
			printer.Start(name)
		}

		jailed := opts.JailSupported && jail.Eligible(name)
		cr, err := c.Run(jailed)
		if err != nil {
			return nil, fmt.Errorf("case %q: %w", name, err)
		}
		report.add(name, cr)
		passed := cr.Passed()

		if c.Points == nil {
			if show {
				printer.Result(passed)
			}
		} else {
			awarded := 0.0
			if passed {
				awarded = *c.Points
			}
			cr.Points = &awarded
			report.Points += awarded
			if show {
				printer.Score(awarded, *c.Points)
			}
		}

		if opts.Trace != nil {
			if err := opts.Trace.Write(name, cr); err != nil {
				return nil, fmt.Errorf("write trace for case %q: %w", name, err)
			}
		}

		if c.Blocker && !passed {
			logging.Debug("blocker failed, halting suite", "name", name)
			break
		}
	}
	return report, nil
}
