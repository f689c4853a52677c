package build

import (
	"archive/tar"
	"fmt"
	"io"
	"path/filepath"

	"github.com/railwayapp/livecompose/internal/project"
	"github.com/railwayapp/livecompose/internal/utils/fs"
)

const dockerfileEntry = "Dockerfile"

// Progress is told how many of total files have been packed so far.
type Progress func(sent, total int)

// WriteArchive packs the configuration's files, read from its context, into
// a tar stream and appends the live dockerfile as the last entry. A context
// file named Dockerfile at the root is left out in its favour.
func WriteArchive(w io.Writer, filesystem fs.FileSystem, config project.BuildConfiguration, progress Progress) error {
	if progress == nil {
		progress = func(int, int) {}
	}

	tw := tar.NewWriter(w)
	total := len(config.Files)
	for sent, name := range config.Files {
		progress(sent, total)
		if name == dockerfileEntry {
			continue
		}
		if err := writeFile(tw, filesystem, config.Context, name); err != nil {
			return err
		}
	}
	progress(total, total)

	dockerfile := []byte(config.Dockerfile)
	header := &tar.Header{
		Name:     dockerfileEntry,
		Mode:     0644,
		Size:     int64(len(dockerfile)),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write dockerfile header: %w", err)
	}
	if _, err := tw.Write(dockerfile); err != nil {
		return fmt.Errorf("failed to write dockerfile: %w", err)
	}

	return tw.Close()
}

func writeFile(tw *tar.Writer, filesystem fs.FileSystem, contextDir, name string) error {
	path := filepath.Join(contextDir, filepath.FromSlash(name))

	info, err := filesystem.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	content, err := filesystem.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	header := &tar.Header{
		Name:     name,
		Mode:     int64(info.Mode().Perm()),
		Size:     int64(len(content)),
		ModTime:  info.ModTime(),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", name, err)
	}
	if _, err := tw.Write(content); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
