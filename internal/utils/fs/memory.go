package fs

import (
	iofs "io/fs"
	"iter"
	"path"
	"sort"
	"strings"
	"time"
)

// MemoryFS implements FileSystem for in-memory filesystem operations
type MemoryFS struct {
	files    map[string][]byte
	dirs     map[string]bool
	symlinks map[string]string
	failures map[string]error
	modTime  time.Time
}

// NewMemoryFS creates a new MemoryFS instance
func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		files:    make(map[string][]byte),
		dirs:     make(map[string]bool),
		symlinks: make(map[string]string),
		failures: make(map[string]error),
		modTime:  time.Unix(0, 0),
	}
}

// AddFile adds a file to the memory filesystem
func (mfs *MemoryFS) AddFile(name string, content []byte) {
	name = path.Clean(name)
	mfs.files[name] = content
	mfs.addParents(name)
}

// AddDir adds a directory to the memory filesystem
func (mfs *MemoryFS) AddDir(name string) {
	name = path.Clean(name)
	mfs.dirs[name] = true
	mfs.addParents(name)
}

// AddSymlink adds a symbolic link pointing at target. Stat resolves it one
// level deep.
func (mfs *MemoryFS) AddSymlink(name, target string) {
	name = path.Clean(name)
	mfs.symlinks[name] = target
	mfs.addParents(name)
}

// FailWith makes every operation on name return err.
func (mfs *MemoryFS) FailWith(name string, err error) {
	mfs.failures[path.Clean(name)] = err
}

func (mfs *MemoryFS) addParents(name string) {
	dir := path.Dir(name)
	for dir != "." && dir != "/" {
		mfs.dirs[dir] = true
		dir = path.Dir(dir)
	}
}

func (mfs *MemoryFS) ReadFile(name string) ([]byte, error) {
	cleanName := path.Clean(name)
	if err := mfs.failures[cleanName]; err != nil {
		return nil, &iofs.PathError{Op: "open", Path: name, Err: err}
	}
	if target, ok := mfs.symlinks[cleanName]; ok {
		cleanName = mfs.resolve(cleanName, target)
	}
	content, exists := mfs.files[cleanName]
	if !exists {
		return nil, &iofs.PathError{Op: "open", Path: name, Err: iofs.ErrNotExist}
	}
	return content, nil
}

func (mfs *MemoryFS) Stat(name string) (FileInfo, error) {
	cleanName := path.Clean(name)
	if err := mfs.failures[cleanName]; err != nil {
		return nil, &iofs.PathError{Op: "stat", Path: name, Err: err}
	}
	if target, ok := mfs.symlinks[cleanName]; ok {
		cleanName = mfs.resolve(cleanName, target)
	}
	if info, ok := mfs.info(cleanName); ok {
		return info, nil
	}
	return nil, &iofs.PathError{Op: "stat", Path: name, Err: iofs.ErrNotExist}
}

func (mfs *MemoryFS) ReadDir(name string) iter.Seq2[DirEntry, error] {
	return func(yield func(DirEntry, error) bool) {
		cleanName := path.Clean(name)
		if err := mfs.failures[cleanName]; err != nil {
			yield(nil, &iofs.PathError{Op: "readdirent", Path: name, Err: err})
			return
		}

		if !mfs.isDir(cleanName) {
			yield(nil, &iofs.PathError{Op: "open", Path: name, Err: iofs.ErrNotExist})
			return
		}

		prefix := cleanName + "/"
		if cleanName == "/" {
			prefix = "/"
		}

		seen := make(map[string]bool)
		collect := func(p string) {
			if cleanName == "." {
				if strings.HasPrefix(p, "/") {
					return
				}
			} else if !strings.HasPrefix(p, prefix) {
				return
			} else {
				p = strings.TrimPrefix(p, prefix)
			}
			if p == "" || p == "." {
				return
			}
			seen[strings.Split(p, "/")[0]] = true
		}
		for p := range mfs.files {
			collect(p)
		}
		for p := range mfs.dirs {
			collect(p)
		}
		for p := range mfs.symlinks {
			collect(p)
		}

		entries := make([]string, 0, len(seen))
		for entry := range seen {
			entries = append(entries, entry)
		}
		sort.Strings(entries)

		for _, entry := range entries {
			fullPath := path.Join(cleanName, entry)
			dirEntry := &memoryDirEntry{name: entry, mfs: mfs, fullPath: fullPath}
			if !yield(dirEntry, nil) {
				return
			}
		}
	}
}

func (mfs *MemoryFS) isDir(name string) bool {
	if name == "." || name == "/" || mfs.dirs[name] {
		return true
	}
	return false
}

func (mfs *MemoryFS) resolve(link, target string) string {
	if path.IsAbs(target) {
		return path.Clean(target)
	}
	return path.Join(path.Dir(link), target)
}

func (mfs *MemoryFS) info(name string) (*memoryFileInfo, bool) {
	if mfs.isDir(name) {
		return &memoryFileInfo{name: path.Base(name), mode: iofs.ModeDir | 0755, modTime: mfs.modTime, isDir: true}, true
	}
	if content, ok := mfs.files[name]; ok {
		return &memoryFileInfo{name: path.Base(name), size: int64(len(content)), mode: 0644, modTime: mfs.modTime}, true
	}
	return nil, false
}

// memoryDirEntry implements DirEntry for memory filesystem
type memoryDirEntry struct {
	name     string
	mfs      *MemoryFS
	fullPath string
}

func (e *memoryDirEntry) Name() string {
	return e.name
}

func (e *memoryDirEntry) IsDir() bool {
	return e.Type().IsDir()
}

func (e *memoryDirEntry) Type() iofs.FileMode {
	if _, ok := e.mfs.symlinks[e.fullPath]; ok {
		return iofs.ModeSymlink
	}
	if e.mfs.isDir(e.fullPath) {
		return iofs.ModeDir
	}
	return 0
}

func (e *memoryDirEntry) Info() (FileInfo, error) {
	if target, ok := e.mfs.symlinks[e.fullPath]; ok {
		return &memoryFileInfo{name: e.name, size: int64(len(target)), mode: iofs.ModeSymlink | 0777, modTime: e.mfs.modTime}, nil
	}
	info, ok := e.mfs.info(e.fullPath)
	if !ok {
		return nil, &iofs.PathError{Op: "lstat", Path: e.fullPath, Err: iofs.ErrNotExist}
	}
	return info, nil
}

// memoryFileInfo implements FileInfo for memory filesystem
type memoryFileInfo struct {
	name    string
	size    int64
	mode    iofs.FileMode
	modTime time.Time
	isDir   bool
}

func (fi *memoryFileInfo) Name() string {
	return fi.name
}

func (fi *memoryFileInfo) Size() int64 {
	return fi.size
}

func (fi *memoryFileInfo) Mode() iofs.FileMode {
	return fi.mode
}

func (fi *memoryFileInfo) ModTime() time.Time {
	return fi.modTime
}

func (fi *memoryFileInfo) IsDir() bool {
	return fi.isDir
}

func (fi *memoryFileInfo) Sys() any {
	return nil
}
