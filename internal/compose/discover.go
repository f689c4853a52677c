package compose

import (
	"path/filepath"

	"github.com/railwayapp/livecompose/internal/utils/fs"
)

// DefaultFiles are the compose file names looked up, in order, when no
// declaration is given.
var DefaultFiles = []string{
	"docker-compose.yml",
	"docker-compose.yaml",
	"compose.yml",
	"compose.yaml",
}

// FindDefaultFile returns the first of DefaultFiles present in dir, or "".
func FindDefaultFile(filesystem fs.FileSystem, dir string) (string, error) {
	for _, filename := range DefaultFiles {
		path := filepath.Join(dir, filename)
		exists, err := fs.FileExists(filesystem, path)
		if err != nil {
			return "", err
		}
		if exists {
			return path, nil
		}
	}
	return "", nil
}
