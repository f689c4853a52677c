package fs

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFileExists(t *testing.T) {
	mfs := NewMemoryFS()
	mfs.AddFile("/ctx/present.txt", []byte("x"))
	mfs.AddFile("/ctx/locked.txt", []byte("x"))
	mfs.FailWith("/ctx/locked.txt", os.ErrPermission)

	exists, err := FileExists(mfs, "/ctx/present.txt")
	if err != nil || !exists {
		t.Fatalf("expected present file to exist, got %v, %v", exists, err)
	}

	exists, err = FileExists(mfs, "/ctx/missing.txt")
	if err != nil || exists {
		t.Fatalf("expected missing file to not exist without error, got %v, %v", exists, err)
	}

	_, err = FileExists(mfs, "/ctx/locked.txt")
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("expected permission error to propagate, got %v", err)
	}
}

func TestListFilesRecursive_Memory(t *testing.T) {
	mfs := NewMemoryFS()
	mfs.AddFile("/ctx/b/log.txt", []byte("log"))
	mfs.AddFile("/ctx/a.txt", []byte("a"))
	mfs.AddFile("/ctx/b/c/deep.go", []byte("deep"))
	mfs.AddDir("/ctx/empty")
	mfs.AddSymlink("/ctx/link", "/etc")

	files, err := ListFilesRecursive(mfs, "/ctx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"/ctx/a.txt", "/ctx/b/c/deep.go", "/ctx/b/log.txt"}
	if !reflect.DeepEqual(files, expected) {
		t.Errorf("expected %v, got %v", expected, files)
	}
}

func TestListFilesRecursive_RelativeDir(t *testing.T) {
	mfs := NewMemoryFS()
	mfs.AddFile("src/main.go", []byte("package main"))
	mfs.AddFile("src/pkg/util.go", []byte("package pkg"))

	files, err := ListFilesRecursive(mfs, "src")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"src/main.go", "src/pkg/util.go"}
	if !reflect.DeepEqual(files, expected) {
		t.Errorf("expected %v, got %v", expected, files)
	}
}

func TestListFilesRecursive_PropagatesErrors(t *testing.T) {
	mfs := NewMemoryFS()
	mfs.AddFile("/ctx/sub/a.txt", []byte("a"))
	mfs.FailWith("/ctx/sub", os.ErrPermission)

	if _, err := ListFilesRecursive(mfs, "/ctx"); !errors.Is(err, os.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestListFilesRecursive_Local(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "z.txt"))
	mustWrite(t, filepath.Join(root, "dir", "a.txt"))
	if err := os.Symlink(filepath.Join(root, "dir"), filepath.Join(root, "loop")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	files, err := ListFilesRecursive(NewLocalFS(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{filepath.Join(root, "dir", "a.txt"), filepath.Join(root, "z.txt")}
	if !reflect.DeepEqual(files, expected) {
		t.Errorf("expected %v, got %v", expected, files)
	}

	exists, err := FileExists(NewLocalFS(), filepath.Join(root, "nope"))
	if err != nil || exists {
		t.Errorf("expected nope to not exist, got %v, %v", exists, err)
	}
}

func mustWrite(t *testing.T, name string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(name, []byte(name), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}
