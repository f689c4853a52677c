package fs

import (
	iofs "io/fs"
	"path/filepath"
)

// FileExists reports whether path exists. Only a "not found" result maps to
// false; any other failure is returned to the caller.
func FileExists(filesystem FileSystem, path string) (bool, error) {
	if _, err := filesystem.Stat(path); err != nil {
		if IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListFilesRecursive returns every regular file below dir, depth first, with
// entries of each directory visited in lexical order. Returned paths are dir
// joined with the file's path below it, so an absolute dir yields absolute
// paths and a relative dir yields relative ones.
//
// Symbolic links are neither followed nor returned.
func ListFilesRecursive(filesystem FileSystem, dir string) ([]string, error) {
	var files []string
	if err := listInto(filesystem, dir, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func listInto(filesystem FileSystem, dir string, files *[]string) error {
	for entry, err := range filesystem.ReadDir(dir) {
		if err != nil {
			return err
		}

		path := filepath.Join(dir, entry.Name())
		switch {
		case entry.Type()&iofs.ModeSymlink != 0:
			continue
		case entry.IsDir():
			if err := listInto(filesystem, path, files); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			*files = append(*files, path)
		}
	}
	return nil
}
