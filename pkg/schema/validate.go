package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError represents a single validation error with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // JSON-path-like location (e.g., "cases[2].script[0]")
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

// ValidateFile performs the full 3-phase validation pipeline on a suite file.
// Phase 1: Structural (strict YAML decode)
// Phase 2: Semantic (JSON Schema validation)
// Phase 3: Domain (custom Go rules)
func ValidateFile(path string) (*Document, []*ValidationError) {
	doc, err := LoadFile(path)
	if err != nil {
		return nil, []*ValidationError{{
			Phase:    "structural",
			Message:  err.Error(),
			Severity: "error",
		}}
	}
	return doc, Validate(doc)
}

// Validate runs the semantic and domain phases on an already-parsed document.
func Validate(doc *Document) []*ValidationError {
	var allErrors []*ValidationError
	allErrors = append(allErrors, validateSemantic(doc)...)
	allErrors = append(allErrors, ValidateDomain(doc)...)
	return allErrors
}

// validateSemantic validates the document against the generated JSON Schema.
func validateSemantic(doc *Document) []*ValidationError {
	data, err := json.Marshal(doc)
	if err != nil {
		return []*ValidationError{semanticErr(fmt.Sprintf("marshal for schema validation: %v", err))}
	}

	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return []*ValidationError{semanticErr(fmt.Sprintf("generate schema: %v", err))}
	}

	var schemaDoc interface{}
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return []*ValidationError{semanticErr(fmt.Sprintf("unmarshal schema: %v", err))}
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("suite-v1.json", schemaDoc); err != nil {
		return []*ValidationError{semanticErr(fmt.Sprintf("add schema resource: %v", err))}
	}
	sch, err := c.Compile("suite-v1.json")
	if err != nil {
		return []*ValidationError{semanticErr(fmt.Sprintf("compile schema: %v", err))}
	}

	var instance interface{}
	if err := json.Unmarshal(data, &instance); err != nil {
		return []*ValidationError{semanticErr(fmt.Sprintf("unmarshal document: %v", err))}
	}

	if err := sch.Validate(instance); err != nil {
		var errs []*ValidationError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenValidationErrors(ve) {
				errs = append(errs, &ValidationError{
					Phase:    "semantic",
					Path:     strings.Join(cause.InstanceLocation, "/"),
					Message:  fmt.Sprintf("%v", cause.ErrorKind),
					Severity: "error",
				})
			}
		} else {
			errs = append(errs, semanticErr(err.Error()))
		}
		return errs
	}
	return nil
}

func semanticErr(msg string) *ValidationError {
	return &ValidationError{Phase: "semantic", Message: msg, Severity: "error"}
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

// ValidateDomain performs Phase 3 domain-level validation.
// Returns a slice of errors and warnings; empty means valid.
func ValidateDomain(doc *Document) []*ValidationError {
	var errs []*ValidationError

	if doc.APIVersion != "suite/v1" {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     "apiVersion",
			Message:  fmt.Sprintf("unrecognized apiVersion %q, expected %q", doc.APIVersion, "suite/v1"),
			Severity: "error",
		})
	}

	if doc.Meta.Defaults != nil && doc.Meta.Defaults.Timeout != "" {
		if _, err := time.ParseDuration(doc.Meta.Defaults.Timeout); err != nil {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     "meta.defaults.timeout",
				Message:  fmt.Sprintf("invalid duration %q", doc.Meta.Defaults.Timeout),
				Severity: "error",
			})
		}
	}

	seen := make(map[string]bool)
	for i, cs := range doc.Cases {
		path := fmt.Sprintf("cases[%d]", i)

		if seen[cs.Name] {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     path + ".name",
				Message:  fmt.Sprintf("duplicate case name %q", cs.Name),
				Severity: "error",
			})
		}
		seen[cs.Name] = true

		if cs.Timeout != "" {
			if _, err := time.ParseDuration(cs.Timeout); err != nil {
				errs = append(errs, &ValidationError{
					Phase:    "domain",
					Path:     path + ".timeout",
					Message:  fmt.Sprintf("invalid duration %q", cs.Timeout),
					Severity: "error",
				})
			}
		}

		if cs.Points != nil && *cs.Points < 0 {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     path + ".points",
				Message:  "points must not be negative",
				Severity: "error",
			})
		}

		errs = append(errs, validateScript(path, cs.Script)...)
	}

	return errs
}

// validateScript checks the one-of shape of each entry, pattern syntax,
// and flags unreachable entries after an end-of-stream wait.
func validateScript(casePath string, script []ScriptEntry) []*ValidationError {
	var errs []*ValidationError
	eofAt := -1

	for i, entry := range script {
		path := fmt.Sprintf("%s.script[%d]", casePath, i)

		set := 0
		if entry.Expect != nil {
			set++
		}
		if entry.Send != nil {
			set++
		}
		if entry.EOF {
			set++
		}
		if set != 1 {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     path,
				Message:  "exactly one of expect, send or eof must be set",
				Severity: "error",
			})
			continue
		}

		if entry.Timeout != "" {
			if entry.Send != nil {
				errs = append(errs, &ValidationError{
					Phase:    "domain",
					Path:     path + ".timeout",
					Message:  "timeout applies to waits only, not send",
					Severity: "error",
				})
			} else if _, err := time.ParseDuration(entry.Timeout); err != nil {
				errs = append(errs, &ValidationError{
					Phase:    "domain",
					Path:     path + ".timeout",
					Message:  fmt.Sprintf("invalid duration %q", entry.Timeout),
					Severity: "error",
				})
			}
		}

		if entry.Expect != nil {
			if _, err := regexp.Compile(*entry.Expect); err != nil {
				errs = append(errs, &ValidationError{
					Phase:    "domain",
					Path:     path + ".expect",
					Message:  fmt.Sprintf("invalid pattern: %v", err),
					Severity: "error",
				})
			}
		}

		if eofAt >= 0 {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     path,
				Message:  fmt.Sprintf("unreachable: script[%d] already waits for end of stream", eofAt),
				Severity: "warning",
			})
		}
		if entry.EOF {
			eofAt = i
		}
	}

	return errs
}
