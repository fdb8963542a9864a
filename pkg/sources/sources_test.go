package sources_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-paramform/pkg/schema"
	"github.com/goliatone/go-paramform/pkg/sources"
)

func TestGlob(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.csv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	options, err := sources.Glob(dir)("*.csv")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	want := schema.Options{
		{Label: "a.csv", Value: filepath.Join(dir, "a.csv")},
		{Label: "b.csv", Value: filepath.Join(dir, "b.csv")},
	}
	if diff := cmp.Diff(want, options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}

	if _, err := sources.Glob(dir)("[bad"); err == nil {
		t.Fatalf("expected malformed pattern error")
	}
	if options, err := sources.Glob(dir)("  "); err != nil || len(options) != 0 {
		t.Fatalf("blank pattern must resolve to nothing, got %v / %v", options, err)
	}
}

func TestGlobFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"data/x.csv": {},
		"data/y.txt": {},
	}
	options, err := sources.GlobFS(fsys)("data/*.csv")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if diff := cmp.Diff([]string{"data/x.csv"}, options.Labels()); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestStatic(t *testing.T) {
	t.Parallel()

	options, err := sources.Static(schema.NamedOptions("a", "b"))("ignored")
	if err != nil || len(options) != 2 {
		t.Fatalf("unexpected static options %v / %v", options, err)
	}
}
