package lint

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("# Test\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestResolveFiles_SingleFile(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "report.md")
	writeFiles(t, md)

	files, err := ResolveFiles([]string{md})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 || files[0] != md {
		t.Fatalf("got %v", files)
	}
}

func TestResolveFiles_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t,
		filepath.Join(dir, "a.md"),
		filepath.Join(dir, "b.markdown"),
		filepath.Join(dir, "c.txt"),
		filepath.Join(dir, "sub", "d.md"),
		filepath.Join(dir, ".hidden", "e.md"),
	)

	files, err := ResolveFiles([]string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.md"),
		filepath.Join(dir, "b.markdown"),
		filepath.Join(dir, "sub", "d.md"),
	}
	if len(files) != len(want) {
		t.Fatalf("got %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestResolveFiles_DoublestarGlob(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t,
		filepath.Join(dir, "2025", "report.md"),
		filepath.Join(dir, "2026", "q1", "report.md"),
		filepath.Join(dir, "2026", "notes.txt"),
	)

	files, err := ResolveFiles([]string{filepath.Join(dir, "**", "*.md")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}
}

func TestResolveFiles_Dedup(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "report.md")
	writeFiles(t, md)

	files, err := ResolveFiles([]string{md, md, dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %v", files)
	}
}

func TestResolveFiles_Missing(t *testing.T) {
	if _, err := ResolveFiles([]string{filepath.Join(t.TempDir(), "nope.md")}); err == nil {
		t.Fatal("expected error for nonexistent path")
	}
}
