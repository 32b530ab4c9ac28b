package runtime

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/proctorsh/proctor/pkg/session"
)

// recordingPrinter captures progress calls for assertions.
type recordingPrinter struct {
	lines []string
}

func (p *recordingPrinter) Start(name string) {
	p.lines = append(p.lines, "start:"+name)
}

func (p *recordingPrinter) Result(passed bool) {
	if passed {
		p.lines = append(p.lines, "PASSED")
	} else {
		p.lines = append(p.lines, "FAILED")
	}
}

func (p *recordingPrinter) Score(awarded, possible float64) {
	p.lines = append(p.lines, "score")
}

func passingCase(name string) *TestCase {
	c := NewCase(name, "echo ok")
	c.AddAction(Expect(session.MustPattern("ok"), time.Second))
	return c
}

func failingCase(name string) *TestCase {
	c := NewCase(name, "echo ok")
	c.AddAction(Expect(session.MustPattern("nope"), time.Second))
	return c
}

func TestTotalPointsSumsAtAddTime(t *testing.T) {
	s := NewSuite()
	a := passingCase("a")
	a.Points = floatp(10)
	b := failingCase("b")
	b.Points = floatp(20)
	c := passingCase("c") // advisory

	for _, tc := range []*TestCase{a, b, c} {
		if err := s.AddCase(tc); err != nil {
			t.Fatalf("AddCase(%s) error: %v", tc.Name, err)
		}
	}
	if got := s.TotalPoints(); got != 30 {
		t.Errorf("TotalPoints = %v, want 30", got)
	}
}

func TestAddCaseRejectsDuplicateNames(t *testing.T) {
	s := NewSuite()
	if err := s.AddCase(passingCase("dup")); err != nil {
		t.Fatalf("AddCase error: %v", err)
	}
	if err := s.AddCase(passingCase("dup")); err == nil {
		t.Error("AddCase accepted a duplicate name")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestRunScoresPassingAndFailingCases(t *testing.T) {
	s := NewSuite()
	pass := passingCase("pass")
	pass.Points = floatp(10)
	fail := failingCase("fail")
	fail.Points = floatp(20)
	if err := s.AddCase(pass); err != nil {
		t.Fatal(err)
	}
	if err := s.AddCase(fail); err != nil {
		t.Fatal(err)
	}

	report, err := s.Run(RunOptions{Quiet: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if got := report.Case("pass").Points; got == nil || *got != 10 {
		t.Errorf("pass awarded = %v, want 10", got)
	}
	if got := report.Case("fail").Points; got == nil || *got != 0 {
		t.Errorf("fail awarded = %v, want 0", got)
	}
	if report.Points != 10 {
		t.Errorf("suite points = %v, want 10", report.Points)
	}
}

func TestRunBlockerHaltsSuite(t *testing.T) {
	s := NewSuite()
	first := passingCase("first")
	first.Points = floatp(10)
	second := failingCase("second")
	second.Points = floatp(20)
	second.Blocker = true
	third := passingCase("third")
	third.Points = floatp(30)
	for _, tc := range []*TestCase{first, second, third} {
		if err := s.AddCase(tc); err != nil {
			t.Fatal(err)
		}
	}

	report, err := s.Run(RunOptions{Quiet: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if got := report.Names(); len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("executed cases = %v, want [first second]", got)
	}
	if report.Case("third") != nil {
		t.Error("third case appears in the report after a blocker failure")
	}
	if report.Points != 10 {
		t.Errorf("suite points = %v, want 10", report.Points)
	}
}

func TestRunAdvisoryCaseReportsNoPoints(t *testing.T) {
	s := NewSuite()
	if err := s.AddCase(passingCase("advisory")); err != nil {
		t.Fatal(err)
	}

	printer := &recordingPrinter{}
	report, err := s.Run(RunOptions{Progress: printer})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Case("advisory").Points != nil {
		t.Error("advisory case has awarded points")
	}
	want := []string{"start:advisory", "PASSED"}
	if strings.Join(printer.lines, ",") != strings.Join(want, ",") {
		t.Errorf("progress = %v, want %v", printer.lines, want)
	}
}

func TestRunHidesInvisibleCases(t *testing.T) {
	s := NewSuite()
	hidden := passingCase("hidden")
	hidden.Visible = false
	if err := s.AddCase(hidden); err != nil {
		t.Fatal(err)
	}
	if err := s.AddCase(passingCase("shown")); err != nil {
		t.Fatal(err)
	}

	printer := &recordingPrinter{}
	if _, err := s.Run(RunOptions{Progress: printer}); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	for _, line := range printer.lines {
		if strings.Contains(line, "hidden") {
			t.Errorf("invisible case produced progress: %v", printer.lines)
		}
	}
}

func TestRunQuietSuppressesProgress(t *testing.T) {
	s := NewSuite()
	if err := s.AddCase(passingCase("only")); err != nil {
		t.Fatal(err)
	}
	printer := &recordingPrinter{}
	if _, err := s.Run(RunOptions{Quiet: true, Progress: printer}); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(printer.lines) != 0 {
		t.Errorf("progress = %v, want none", printer.lines)
	}
}

func TestRunWritesTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	tw, err := NewTraceWriter(path)
	if err != nil {
		t.Fatalf("NewTraceWriter error: %v", err)
	}

	s := NewSuite()
	if err := s.AddCase(passingCase("a")); err != nil {
		t.Fatal(err)
	}
	if err := s.AddCase(failingCase("b")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Run(RunOptions{Quiet: true, Trace: tw}); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var events []TraceEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev TraceEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("bad trace line: %v", err)
		}
		events = append(events, ev)
	}
	if len(events) != 2 {
		t.Fatalf("trace events = %d, want 2", len(events))
	}
	if events[0].Case != "a" || events[1].Case != "b" {
		t.Errorf("trace order = %s,%s want a,b", events[0].Case, events[1].Case)
	}
	if events[0].Type != "case_report" {
		t.Errorf("event type = %q", events[0].Type)
	}
}

func TestSuiteReportMarshalsOrderedWithPoints(t *testing.T) {
	r := NewSuiteReport()
	r.add("z_first", &CaseReport{Errors: []string{}})
	r.add("a_second", &CaseReport{Errors: []string{ErrMsgTimeout}})
	r.Points = 12.5

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	s := string(data)
	zi := strings.Index(s, `"z_first"`)
	ai := strings.Index(s, `"a_second"`)
	pi := strings.Index(s, `"points":12.5`)
	if zi < 0 || ai < 0 || pi < 0 {
		t.Fatalf("missing members in %s", s)
	}
	if !(zi < ai && ai < pi) {
		t.Errorf("member order wrong in %s", s)
	}
}
