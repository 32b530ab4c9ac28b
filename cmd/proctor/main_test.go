package main

import (
	"testing"

	"github.com/proctorsh/proctor/pkg/runtime"
	"github.com/proctorsh/proctor/pkg/schema"
)

func buildSuite(t *testing.T) *runtime.Suite {
	t.Helper()
	s := runtime.NewSuite()
	points := 10.0
	scored := runtime.NewCase("case_scored", "true")
	scored.Points = &points
	advisory := runtime.NewCase("case_advisory", "true")
	blocker := runtime.NewCase("setup", "true")
	blocker.Blocker = true
	for _, c := range []*runtime.TestCase{scored, advisory, blocker} {
		if err := s.AddCase(c); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestFilterSuiteByScored(t *testing.T) {
	s, err := filterSuite(buildSuite(t), "scored")
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Names(); len(got) != 1 || got[0] != "case_scored" {
		t.Errorf("Names = %v", got)
	}
	if s.TotalPoints() != 10 {
		t.Errorf("TotalPoints = %v, want 10", s.TotalPoints())
	}
}

func TestFilterSuitePreservesOrder(t *testing.T) {
	s, err := filterSuite(buildSuite(t), "!blocker")
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Names(); len(got) != 2 || got[0] != "case_scored" || got[1] != "case_advisory" {
		t.Errorf("Names = %v", got)
	}
}

func TestFilterSuiteByPoints(t *testing.T) {
	s, err := filterSuite(buildSuite(t), "points >= 5")
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestFilterSuiteBadExpression(t *testing.T) {
	if _, err := filterSuite(buildSuite(t), "points +"); err == nil {
		t.Error("expected compile error")
	}
	if _, err := filterSuite(buildSuite(t), "name"); err == nil {
		t.Error("expected non-boolean expression to be rejected")
	}
}

func TestCountValidationErrorsIgnoresWarnings(t *testing.T) {
	errs := []*schema.ValidationError{
		{Phase: "domain", Message: "a", Severity: "error"},
		{Phase: "domain", Message: "b", Severity: "warning"},
		{Phase: "semantic", Message: "c", Severity: "error"},
	}
	if got := countValidationErrors(errs); got != 2 {
		t.Errorf("countValidationErrors = %d, want 2", got)
	}
	if !hasValidationErrors(errs) {
		t.Error("hasValidationErrors = false")
	}
	if hasValidationErrors(errs[1:2]) {
		t.Error("warnings alone should not count as errors")
	}
}
