package gen

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestArtifactPath_StripsExtensionAppendsSuffix(t *testing.T) {
	got := ArtifactPath("tests/loops/a.my", ".my", ".out")
	if got != "tests/loops/a.out" {
		t.Fatalf("expected tests/loops/a.out, got %q", got)
	}
}

func TestArtifactPath_SameBaseNameDifferentDirsDoNotCollide(t *testing.T) {
	a := ArtifactPath(filepath.Join("dir1", "x.my"), ".my", ".out")
	b := ArtifactPath(filepath.Join("dir2", "x.my"), ".my", ".out")
	if a == b {
		t.Fatalf("artifact paths collided: %q", a)
	}
	if a != filepath.Join("dir1", "x.out") {
		t.Fatalf("unexpected artifact path %q", a)
	}
	if b != filepath.Join("dir2", "x.out") {
		t.Fatalf("unexpected artifact path %q", b)
	}
}

func TestArtifactPath_IsPure(t *testing.T) {
	first := ArtifactPath("a/b/c.my", ".my", ".out")
	second := ArtifactPath("a/b/c.my", ".my", ".out")
	if first != second {
		t.Fatalf("expected identical derivations, got %q and %q", first, second)
	}
}

func TestWrite_OverwritesPriorContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.out")
	if err := os.WriteFile(path, []byte("stale content that is longer"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	var w Writer
	if err := w.Write(path, []byte("fresh")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "fresh" {
		t.Fatalf("prior content not truncated: %q", got)
	}
}

func TestWrite_ExactBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "b.out")
	content := []byte("line one\nerror: division by zero\n")

	var w Writer
	if err := w.Write(path, content); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("expected %q, got %q", content, got)
	}
}

func TestWrite_MissingParentDirIsWriteError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "a.out")

	var w Writer
	err := w.Write(path, []byte("x"))
	if err == nil {
		t.Fatal("expected error for missing parent directory")
	}

	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected WriteError, got %T: %v", err, err)
	}
	if writeErr.Path != path {
		t.Fatalf("expected path %q in error, got %q", path, writeErr.Path)
	}
}
