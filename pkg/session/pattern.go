package session

import (
	"fmt"
	"regexp"
)

type patternKind int

const (
	patternText patternKind = iota
	patternEOF
)

// Pattern is what an expect waits for in the output stream: either a
// regular expression, or the end of the stream itself. The end-of-stream
// case is a dedicated variant so that no literal pattern can collide with it.
type Pattern struct {
	kind patternKind
	expr string
	re   *regexp.Regexp
}

// NewPattern compiles a regular expression pattern.
func NewPattern(expr string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return Pattern{kind: patternText, expr: expr, re: re}, nil
}

// MustPattern is NewPattern that panics on an invalid expression.
// Intended for tests and literals known to be valid.
func MustPattern(expr string) Pattern {
	p, err := NewPattern(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// EOF returns the pattern that matches the end of the output stream.
func EOF() Pattern {
	return Pattern{kind: patternEOF}
}

// IsEOF reports whether this is the end-of-stream pattern.
func (p Pattern) IsEOF() bool {
	return p.kind == patternEOF
}

func (p Pattern) String() string {
	if p.kind == patternEOF {
		return "<EOF>"
	}
	return p.expr
}
