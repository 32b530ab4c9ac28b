package runtime

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/proctorsh/proctor/pkg/jail"
	"github.com/proctorsh/proctor/pkg/logging"
	"github.com/proctorsh/proctor/pkg/session"
)

// DefaultTimeout bounds an expect when neither the action nor the case
// sets one, so a suite can never hang on a single case.
const DefaultTimeout = 30 * time.Second

// NoTimeout makes an expect wait without bound.
const NoTimeout = -1 * time.Second

// TestCase is one scripted execution of a command. Fields are set at
// construction time and read-only during runs; every Run produces a
// fresh report.
type TestCase struct {
	Name    string
	Command string
	// Timeout is the default wait for expects that set none.
	// Zero falls back to DefaultTimeout.
	Timeout time.Duration
	// Returns, when set, is the exit status the process must produce.
	Returns *int
	// Points, when set, is this case's contribution to the suite total.
	// Unscored cases report pass/fail only.
	Points *float64
	// Blocker stops the suite when this case fails.
	Blocker bool
	// Visible controls whether per-case progress is shown.
	Visible bool

	script []Action
}

// NewCase builds a visible test case with an empty script.
func NewCase(name, command string) *TestCase {
	return &TestCase{Name: name, Command: command, Visible: true}
}

// AddAction appends an action to the script. Suite-construction time only,
// never during a run.
func (c *TestCase) AddAction(a Action) {
	c.script = append(c.script, a)
}

// Script returns the ordered action sequence.
func (c *TestCase) Script() []Action {
	return c.script
}

// Run executes the case and reports its errors and exit status. Pattern
// mismatches, timeouts and wrong exit codes all land in the report's error
// list; the returned error is reserved for not being able to spawn the
// process at all.
func (c *TestCase) Run(jailed bool) (*CaseReport, error) {
	command := c.Command
	if jailed {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		command = jail.Wrap(c.Command, wd)
	}
	logging.Debug("running command", "command", command)

	status, errs, err := c.replay(command)
	if err != nil {
		return nil, err
	}

	report := &CaseReport{Errors: errs, ExitStatus: status}
	if c.Returns != nil && (status == nil || *status != *c.Returns) {
		report.Errors = append(report.Errors, ErrMsgExitStatus)
	}
	return report, nil
}

// replay spawns the command on a pseudo-terminal and walks the script.
// The first expect that times out or hits end-of-stream aborts the rest of
// the script and force-terminates the process: once the expected prompt
// never appears, later input has no meaningful target.
func (c *TestCase) replay(command string) (*int, []string, error) {
	sess, err := session.Spawn(command, session.Options{
		Env:         childEnv(),
		DisableEcho: true,
	})
	if err != nil {
		return nil, nil, err
	}

	errs := []string{}
	for _, action := range c.script {
		switch action.Kind {
		case ActionSend:
			logging.Debug("sending", "line", action.Line)
			if err := sess.SendLine(action.Line); err != nil {
				// The process may already be gone; the following expect
				// (or the exit-status check) surfaces the failure.
				logging.Debug("send failed", "error", err)
			}
		case ActionExpect:
			timeout := action.Timeout
			if timeout == 0 {
				timeout = c.Timeout
			}
			if timeout == 0 {
				timeout = DefaultTimeout
			}
			logging.Debug("expecting", "pattern", action.Pattern.String(), "timeout", timeout)
			err := sess.Expect(action.Pattern, timeout)
			if err != nil {
				logging.Debug("received", "output", sess.Buffered())
				sess.ForceClose()
				switch {
				case errors.Is(err, session.ErrEOF):
					logging.Debug("case failed", "reason", ErrMsgNoOutput)
					errs = append(errs, ErrMsgNoOutput)
				case errors.Is(err, session.ErrTimeout):
					logging.Debug("case failed", "reason", ErrMsgTimeout)
					errs = append(errs, ErrMsgTimeout)
				}
				return sess.ExitStatus(), errs, nil
			}
			logging.Debug("matched", "pattern", action.Pattern.String())
		}
	}

	sess.Close()
	return sess.ExitStatus(), errs, nil
}

// childEnv is the environment for spawned cases: the parent environment
// with TERM forced to dumb so children emit no color or control sequences.
// Passed per spawn; the suite's own environment is never mutated.
func childEnv() []string {
	env := os.Environ()
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if strings.HasPrefix(kv, "TERM=") {
			continue
		}
		out = append(out, kv)
	}
	return append(out, "TERM=dumb")
}
