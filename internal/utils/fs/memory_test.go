package fs

import (
	"testing"
)

func TestMemoryFS_AddFile(t *testing.T) {
	mfs := NewMemoryFS()
	mfs.AddFile("test.txt", []byte("hello world"))

	result, err := mfs.ReadFile("test.txt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if string(result) != "hello world" {
		t.Fatalf("expected 'hello world', got '%s'", string(result))
	}
}

func TestMemoryFS_AddFile_CreatesParentDirs(t *testing.T) {
	mfs := NewMemoryFS()
	mfs.AddFile("/dir1/dir2/test.txt", []byte("content"))

	info, err := mfs.Stat("/dir1/dir2")
	if err != nil {
		t.Fatalf("expected parent directory to exist, got %v", err)
	}
	if !info.IsDir() {
		t.Errorf("expected /dir1/dir2 to be a directory")
	}
}

func TestMemoryFS_ReadFile_NotFound(t *testing.T) {
	mfs := NewMemoryFS()

	_, err := mfs.ReadFile("nonexistent.txt")
	if !IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestMemoryFS_ReadDir(t *testing.T) {
	mfs := NewMemoryFS()
	mfs.AddFile("/root/file2.txt", []byte("content2"))
	mfs.AddFile("/root/file1.txt", []byte("content1"))
	mfs.AddDir("/root/subdir")
	mfs.AddFile("/root/subdir/file3.txt", []byte("content3"))

	var names []string
	var dirs []string
	for entry, err := range mfs.ReadDir("/root") {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		names = append(names, entry.Name())
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}

	expected := []string{"file1.txt", "file2.txt", "subdir"}
	if len(names) != len(expected) {
		t.Fatalf("expected %d entries, got %d (%v)", len(expected), len(names), names)
	}
	for i, name := range expected {
		if names[i] != name {
			t.Errorf("entry %d: expected %s, got %s", i, name, names[i])
		}
	}
	if len(dirs) != 1 || dirs[0] != "subdir" {
		t.Errorf("expected only subdir to be a directory, got %v", dirs)
	}
}

func TestMemoryFS_StatFollowsSymlink(t *testing.T) {
	mfs := NewMemoryFS()
	mfs.AddFile("/data/real.txt", []byte("real"))
	mfs.AddSymlink("/data/alias.txt", "real.txt")

	info, err := mfs.Stat("/data/alias.txt")
	if err != nil {
		t.Fatalf("expected symlink to resolve, got %v", err)
	}
	if info.Size() != 4 {
		t.Errorf("expected size 4, got %d", info.Size())
	}
}
