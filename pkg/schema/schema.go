// Package schema defines the Go struct types for the suite YAML schema,
// provides strict parsing and validation, and builds runnable suites from
// validated documents.
package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is a top-level suite definition.
type Document struct {
	APIVersion string `yaml:"apiVersion" json:"apiVersion" jsonschema:"required,enum=suite/v1"`
	Meta       Meta   `yaml:"meta"       json:"meta"       jsonschema:"required"`
	Cases      []Case `yaml:"cases"      json:"cases"      jsonschema:"required,minItems=1"`
}

// Meta contains suite metadata and defaults.
type Meta struct {
	Name        string    `yaml:"name"                  json:"name" jsonschema:"required"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Defaults    *Defaults `yaml:"defaults,omitempty"    json:"defaults,omitempty"`
}

// Defaults specifies settings applied to cases that set none themselves.
type Defaults struct {
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"pattern=^[0-9]+(ms|s|m|h)$"`
}

// Case declares one scripted command execution.
type Case struct {
	Name    string `yaml:"name"    json:"name"    jsonschema:"required"`
	Command string `yaml:"command" json:"command" jsonschema:"required"`
	// Timeout is the default wait for this case's expects. Empty falls back
	// to meta.defaults.timeout, then the engine default.
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"pattern=^[0-9]+(ms|s|m|h)$"`
	// Returns is the expected exit status. Unset skips the check.
	Returns *int `yaml:"returns,omitempty" json:"returns,omitempty"`
	// Points is the case's contribution to the suite total. Unset makes the
	// case advisory.
	Points *float64 `yaml:"points,omitempty" json:"points,omitempty"`
	// Blocker halts the suite if this case fails.
	Blocker bool `yaml:"blocker,omitempty" json:"blocker,omitempty"`
	// Visible controls per-case progress output. Defaults to true.
	Visible *bool `yaml:"visible,omitempty" json:"visible,omitempty"`
	// Script is the ordered expect/send sequence.
	Script []ScriptEntry `yaml:"script,omitempty" json:"script,omitempty"`
}

// ScriptEntry is one script step. Exactly one of expect, send or eof must
// be set; timeout is only meaningful on waits (expect or eof).
type ScriptEntry struct {
	// Expect is a regular expression to wait for in the process output.
	Expect *string `yaml:"expect,omitempty" json:"expect,omitempty"`
	// Send is an input line written to the process.
	Send *string `yaml:"send,omitempty" json:"send,omitempty"`
	// EOF waits for the output stream to end.
	EOF bool `yaml:"eof,omitempty" json:"eof,omitempty"`
	// Timeout overrides the case timeout for this single wait.
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"pattern=^[0-9]+(ms|s|m|h)$"`
}

// LoadFile reads and parses a suite definition with strict unknown-field
// rejection (yaml.v3 KnownFields). Returns the parsed Document or an error.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open suite definition: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a suite definition from an io.Reader with strict
// unknown-field rejection.
func Load(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode suite definition: %w", err)
	}
	return &doc, nil
}
