package runtime

import (
	"time"

	"github.com/proctorsh/proctor/pkg/session"
)

// ActionKind distinguishes the two script step variants.
type ActionKind int

const (
	// ActionExpect waits for a pattern in the process output.
	ActionExpect ActionKind = iota
	// ActionSend writes an input line to the process.
	ActionSend
)

func (k ActionKind) String() string {
	if k == ActionSend {
		return "send"
	}
	return "expect"
}

// Action is one immutable step in a case script. Exactly one of Pattern
// (expect) or Line (send) is meaningful, selected by Kind.
type Action struct {
	Kind    ActionKind
	Pattern session.Pattern
	Line    string
	// Timeout overrides the case timeout for this single wait.
	// Zero inherits; NoTimeout waits without bound.
	Timeout time.Duration
}

// Expect builds a wait-for-pattern action. A zero timeout inherits the
// case-level timeout.
func Expect(p session.Pattern, timeout time.Duration) Action {
	return Action{Kind: ActionExpect, Pattern: p, Timeout: timeout}
}

// Send builds a write-input-line action.
func Send(line string) Action {
	return Action{Kind: ActionSend, Line: line}
}
