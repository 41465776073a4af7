package locator

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mdlkit/mdlkit/core/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// modelTree builds a temp workspace with models at the top level, in a
// subdirectory, and inside an excluded directory.
func modelTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := []string{
		"a.mdl",
		filepath.Join("sub", "b.mdlx"),
		"c.txt",
		filepath.Join("node_modules", "d.mdl"),
	}
	for _, f := range files {
		path := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("blocks: []\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestIsModelFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.mdl", true},
		{"dir/b.mdlx", true},
		{"c.txt", false},
		{"noext", false},
		{"trap.mdl.bak", false},
	}
	for _, tc := range tests {
		if got := IsModelFile(tc.path); got != tc.want {
			t.Errorf("IsModelFile(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestModelName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a.mdl", "a"},
		{filepath.Join("deep", "nested", "b.mdlx"), "b"},
	}
	for _, tc := range tests {
		if got := ModelName(tc.path); got != tc.want {
			t.Errorf("ModelName(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestResolveDirectProbe(t *testing.T) {
	dir := modelTree(t)
	loc := New([]string{dir})

	path, err := loc.Resolve("a")
	if err != nil {
		t.Fatalf("Resolve(a): %v", err)
	}
	if want := filepath.Join(dir, "a.mdl"); path != want {
		t.Errorf("Resolve(a) = %q, want %q", path, want)
	}
}

func TestResolveRecursiveScan(t *testing.T) {
	dir := modelTree(t)
	loc := New([]string{dir})

	path, err := loc.Resolve("b")
	if err != nil {
		t.Fatalf("Resolve(b): %v", err)
	}
	if want := filepath.Join(dir, "sub", "b.mdlx"); path != want {
		t.Errorf("Resolve(b) = %q, want %q", path, want)
	}
}

func TestResolveMissesExcludedDirs(t *testing.T) {
	dir := modelTree(t)
	loc := New([]string{dir})

	if _, err := loc.Resolve("d"); err == nil {
		t.Error("Resolve(d) found a model inside node_modules, want error")
	}
}

func TestResolveUnknownModelFails(t *testing.T) {
	loc := New([]string{modelTree(t)})
	if _, err := loc.Resolve("nope"); err == nil {
		t.Error("Resolve(nope) succeeded, want error")
	}
}

func TestCandidatesListsOnlyModelFiles(t *testing.T) {
	dir := modelTree(t)
	loc := New([]string{dir})

	files, err := loc.Candidates()
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}

	got := make(map[string]bool, len(files))
	for _, f := range files {
		got[f] = true
	}
	for _, want := range []string{
		filepath.Join(dir, "a.mdl"),
		filepath.Join(dir, "sub", "b.mdlx"),
	} {
		if !got[want] {
			t.Errorf("Candidates missing %q (got %v)", want, files)
		}
	}
	if len(files) != 2 {
		t.Errorf("Candidates = %v, want exactly a.mdl and sub/b.mdlx", files)
	}
}

func TestNewDefaultsToWorkingDirectory(t *testing.T) {
	loc := New(nil)
	roots := loc.Roots()
	if len(roots) != 1 || roots[0] != "." {
		t.Errorf("Roots() = %v, want [.]", roots)
	}
}
