package fs

import (
	"errors"
	iofs "io/fs"
	"iter"
	"time"
)

// FileSystem abstracts the filesystem operations the project resolver and
// build packager rely on
type FileSystem interface {
	// ReadFile reads the named file and returns its contents
	ReadFile(name string) ([]byte, error)

	// ReadDir returns an iterator over the entries of the named directory,
	// in lexical order
	ReadDir(name string) iter.Seq2[DirEntry, error]

	// Stat returns file information for the named file, following symlinks
	Stat(name string) (FileInfo, error)
}

// DirEntry provides information about a directory entry
type DirEntry interface {
	Name() string
	IsDir() bool
	Type() iofs.FileMode
	Info() (FileInfo, error)
}

// FileInfo provides information about a file
type FileInfo interface {
	Name() string
	Size() int64
	Mode() iofs.FileMode
	ModTime() time.Time
	IsDir() bool
	Sys() any
}

// IsNotExist reports whether err says a file or directory does not exist.
func IsNotExist(err error) bool {
	return errors.Is(err, iofs.ErrNotExist)
}
