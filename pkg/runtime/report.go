package runtime

import (
	"bytes"
	"encoding/json"
)

// Error messages recorded in case reports. Presentation tooling keys off
// these exact strings.
const (
	ErrMsgNoOutput   = "Expected output not received."
	ErrMsgTimeout    = "Timeout exceeded."
	ErrMsgExitStatus = "Incorrect exit status."
)

// CaseReport is the outcome of one case run.
type CaseReport struct {
	// Errors is empty when the case passed.
	Errors []string `json:"errors" yaml:"errors"`
	// Points is the awarded score: the case's full value or zero, never a
	// partial amount. Nil for unscored cases.
	Points *float64 `json:"points,omitempty" yaml:"points,omitempty"`
	// ExitStatus is nil when the process was force-terminated.
	ExitStatus *int `json:"exit_status" yaml:"exit_status"`
}

// Passed reports whether the run recorded no errors.
func (r *CaseReport) Passed() bool {
	return len(r.Errors) == 0
}

// SuiteReport maps case names, in execution order, to their reports, plus
// the total earned points. Cases never executed (after a blocker failure)
// do not appear. Ordering and lookup are kept as an explicit list/map pair.
type SuiteReport struct {
	cases map[string]*CaseReport
	order []string

	// Points is the sum of awarded points across executed cases.
	Points float64
}

// NewSuiteReport returns an empty report.
func NewSuiteReport() *SuiteReport {
	return &SuiteReport{cases: make(map[string]*CaseReport)}
}

func (r *SuiteReport) add(name string, cr *CaseReport) {
	r.order = append(r.order, name)
	r.cases[name] = cr
}

// Names returns the executed case names in execution order.
func (r *SuiteReport) Names() []string {
	return r.order
}

// Case returns the report for the named case, or nil if it never ran.
func (r *SuiteReport) Case(name string) *CaseReport {
	return r.cases[name]
}

// Len is the number of executed cases.
func (r *SuiteReport) Len() int {
	return len(r.order)
}

// MarshalJSON emits an ordered object: each executed case keyed by name in
// execution order, then a trailing "points" member.
func (r *SuiteReport) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, name := range r.order {
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.cases[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
		buf.WriteByte(',')
	}
	buf.WriteString(`"points":`)
	pts, err := json.Marshal(r.Points)
	if err != nil {
		return nil, err
	}
	buf.Write(pts)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
