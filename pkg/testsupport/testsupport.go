// Package testsupport holds helpers shared by package tests: schema fixtures,
// a recording execution callback and a flattened view of control trees for
// cmp comparisons.
package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-paramform/pkg/control"
	"github.com/goliatone/go-paramform/pkg/execution"
	"github.com/goliatone/go-paramform/pkg/schema"
	"github.com/goliatone/go-paramform/pkg/schemafile"
)

// MustSchema builds a schema or fails the test.
func MustSchema(t testing.TB, class string, specs ...schema.ParameterSpec) *schema.Schema {
	t.Helper()

	s, err := schema.New(class, specs...)
	if err != nil {
		t.Fatalf("schema %s: %v", class, err)
	}
	return s
}

// LoadSchema writes body to a temporary schema document and builds it.
func LoadSchema(t testing.TB, body string, options ...schemafile.Option) *schema.Schema {
	t.Helper()

	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write schema fixture: %v", err)
	}
	s, err := LoadSchemaFromPath(path, options...)
	if err != nil {
		t.Fatalf("load schema fixture: %v", err)
	}
	return s
}

// LoadSchemaFromPath returns the schema without requiring testing.T, for
// callers building fixtures in setup functions.
func LoadSchemaFromPath(path string, options ...schemafile.Option) (*schema.Schema, error) {
	if path == "" {
		return nil, errors.New("testsupport: schema path is required")
	}
	doc, err := schemafile.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read schema: %w", err)
	}
	return doc.Build(options...)
}

// Recorder collects the change sets delivered to an execution callback.
type Recorder struct {
	mu    sync.Mutex
	calls []execution.Changes
	err   error
}

// FailWith makes later callbacks return err after recording.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Callback records changed and returns the configured error.
func (r *Recorder) Callback(_ context.Context, _ *schema.Schema, changed execution.Changes) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, changed)
	return r.err
}

// Calls returns a copy of the recorded change sets.
func (r *Recorder) Calls() []execution.Changes {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]execution.Changes(nil), r.calls...)
}

// Node is one line of an Outline.
type Node struct {
	Depth  int
	ID     string
	Widget control.Widget
	Text   string
	Hidden bool
}

// Outline flattens a control tree depth first. Labels, headers and buttons
// keep their text; other nodes leave it empty.
func Outline(root *control.Control) []Node {
	var nodes []Node
	var walk func(c *control.Control, depth int)
	walk = func(c *control.Control, depth int) {
		if c == nil {
			return
		}
		node := Node{Depth: depth, ID: c.ID, Widget: c.Widget, Hidden: c.Hidden}
		switch c.Widget {
		case control.WidgetLabel, control.WidgetHeader, control.WidgetButton:
			node.Text = c.Text
		}
		nodes = append(nodes, node)
		for _, child := range c.Children {
			walk(child, depth+1)
		}
	}
	walk(root, 0)
	return nodes
}

// Sketch renders an Outline as indented text, handy in failure messages.
func Sketch(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(strings.Repeat("  ", n.Depth))
		fmt.Fprintf(&b, "%s %s", n.Widget, n.ID)
		if n.Text != "" {
			fmt.Fprintf(&b, " %q", n.Text)
		}
		if n.Hidden {
			b.WriteString(" hidden")
		}
		b.WriteByte('\n')
	}
	return b.String()
}
