package schema

import (
	"strings"
	"testing"
)

const minimalDoc = `
apiVersion: suite/v1
meta:
  name: minimal
cases:
  - name: hello
    command: echo hello
    script:
      - expect: hello
`

func TestLoadParsesMinimalDocument(t *testing.T) {
	doc, err := Load(strings.NewReader(minimalDoc))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if doc.Meta.Name != "minimal" {
		t.Errorf("meta.name = %q", doc.Meta.Name)
	}
	if len(doc.Cases) != 1 || doc.Cases[0].Command != "echo hello" {
		t.Fatalf("cases = %+v", doc.Cases)
	}
	entry := doc.Cases[0].Script[0]
	if entry.Expect == nil || *entry.Expect != "hello" {
		t.Errorf("script[0].expect = %v", entry.Expect)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	bad := strings.Replace(minimalDoc, "command:", "comand:", 1)
	if _, err := Load(strings.NewReader(bad)); err == nil {
		t.Error("Load accepted an unknown field")
	}
}

func TestGenerateJSONSchema(t *testing.T) {
	data, err := GenerateJSONSchema()
	if err != nil {
		t.Fatalf("GenerateJSONSchema error: %v", err)
	}
	for _, want := range []string{"suite-v1.json", "apiVersion", "cases"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("schema missing %q", want)
		}
	}
}
