package schema

import (
	"fmt"
	"time"

	"github.com/proctorsh/proctor/pkg/runtime"
	"github.com/proctorsh/proctor/pkg/session"
)

// Build converts a validated document into a runnable suite. Callers are
// expected to have run Validate first; malformed entries still come back
// as errors, never panics.
func Build(doc *Document) (*runtime.Suite, error) {
	var defaultTimeout time.Duration
	if doc.Meta.Defaults != nil && doc.Meta.Defaults.Timeout != "" {
		d, err := time.ParseDuration(doc.Meta.Defaults.Timeout)
		if err != nil {
			return nil, fmt.Errorf("meta.defaults.timeout: %w", err)
		}
		defaultTimeout = d
	}

	suite := runtime.NewSuite()
	for _, cs := range doc.Cases {
		c := runtime.NewCase(cs.Name, cs.Command)
		c.Returns = cs.Returns
		c.Points = cs.Points
		c.Blocker = cs.Blocker
		if cs.Visible != nil {
			c.Visible = *cs.Visible
		}
		c.Timeout = defaultTimeout
		if cs.Timeout != "" {
			d, err := time.ParseDuration(cs.Timeout)
			if err != nil {
				return nil, fmt.Errorf("case %q timeout: %w", cs.Name, err)
			}
			c.Timeout = d
		}

		for i, entry := range cs.Script {
			a, err := buildAction(entry)
			if err != nil {
				return nil, fmt.Errorf("case %q script[%d]: %w", cs.Name, i, err)
			}
			c.AddAction(a)
		}

		if err := suite.AddCase(c); err != nil {
			return nil, err
		}
	}
	return suite, nil
}

// buildAction maps one script entry onto the action variant it declares.
func buildAction(entry ScriptEntry) (runtime.Action, error) {
	var timeout time.Duration
	if entry.Timeout != "" {
		d, err := time.ParseDuration(entry.Timeout)
		if err != nil {
			return runtime.Action{}, fmt.Errorf("timeout: %w", err)
		}
		timeout = d
	}

	switch {
	case entry.Send != nil:
		return runtime.Send(*entry.Send), nil
	case entry.EOF:
		return runtime.Expect(session.EOF(), timeout), nil
	case entry.Expect != nil:
		p, err := session.NewPattern(*entry.Expect)
		if err != nil {
			return runtime.Action{}, err
		}
		return runtime.Expect(p, timeout), nil
	}
	return runtime.Action{}, fmt.Errorf("empty script entry")
}
