package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-paramform/pkg/schema"
)

const apiDoc = `openapi: 3.0.3
info:
  title: lint
  version: "1"
paths: {}
components:
  schemas:
    Plot:
      type: object
      properties:
        bins:
          type: integer
          x-precedence: 2
          x-widget: slider
        mode:
          type: string
          x-kind: nation
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLintExtensions(t *testing.T) {
	t.Parallel()

	src := &openapi3.Schema{Extensions: map[string]any{
		"x-precedence": "high",
		"x-item-limit": 3.0,
		"x-kind":       "selector",
		"x-hint":       true,
	}}
	got := lintExtensions("api.yaml", []string{"components", "schemas", "Plot"}, src, schema.NewKindTable())
	messages := make([]string, 0, len(got))
	for _, v := range got {
		if v.location != "components > schemas > Plot" {
			t.Fatalf("unexpected location %q", v.location)
		}
		messages = append(messages, v.message)
	}
	want := []string{
		`unsupported extension key "x-hint" (supported: x-item-limit, x-kind, x-precedence)`,
		`value for "x-precedence" must be a number (got string)`,
	}
	if diff := cmp.Diff(want, messages); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestLintOpenAPI(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "api.yaml", apiDoc)
	if !isOpenAPI(path) {
		t.Fatalf("expected the document to be detected as OpenAPI")
	}
	got, err := lintOpenAPI(context.Background(), path)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	var joined []string
	for _, v := range got {
		joined = append(joined, v.location+" -> "+v.message)
	}
	text := strings.Join(joined, "\n")
	for _, fragment := range []string{
		`properties.bins -> unsupported extension key "x-widget"`,
		`properties.mode -> unknown kind nation`,
		`components > schemas > Plot -> `,
	} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("expected %q in:\n%s", fragment, text)
		}
	}
}

func TestLintSchemaFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		body  string
		count int
	}{
		{
			name: "valid",
			body: "class: Demo\nfields:\n  - name: x\n    kind: number\n    value: 1\n  - name: go\n    kind: action\n    action: print\n",
		},
		{
			name:  "unknown kind",
			body:  "class: Demo\nfields:\n  - name: x\n    kind: nation\n",
			count: 1,
		},
		{
			name:  "bad pattern and empty name",
			body:  "class: Demo\nfields:\n  - name: files\n    kind: file-selector\n    path: \"[\"\n  - name: \" \"\n    kind: string\n",
			count: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, "schema.yaml", tt.body)
			if isOpenAPI(path) {
				t.Fatalf("schema documents are not OpenAPI")
			}
			got, err := lintSchemaFile(path)
			if err != nil {
				t.Fatalf("lint: %v", err)
			}
			if len(got) != tt.count {
				t.Fatalf("expected %d violations, got %+v", tt.count, got)
			}
		})
	}
}
