package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	content := []byte("hello world")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.log")

	if err := WriteFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content mismatch: got %q", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestReplaceLink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "run-1.log")
	link := filepath.Join(dir, "current.log")

	if err := os.WriteFile(target, []byte("run one"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ReplaceLink(target, link); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(link)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "run one" {
		t.Fatalf("link content mismatch: got %q", got)
	}

	next := filepath.Join(dir, "run-2.log")
	if err := os.WriteFile(next, []byte("run two"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ReplaceLink(next, link); err != nil {
		t.Fatal(err)
	}
	got, err = os.ReadFile(link)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "run two" {
		t.Fatalf("replaced link content mismatch: got %q", got)
	}
}

func TestReplaceLinkIgnoresEmptyArgs(t *testing.T) {
	if err := ReplaceLink("", "x"); err != nil {
		t.Fatal(err)
	}
	if err := ReplaceLink("x", ""); err != nil {
		t.Fatal(err)
	}
}
