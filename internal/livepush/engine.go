package livepush

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/railwayapp/livecompose/internal/dockerfile"
	"github.com/railwayapp/livecompose/internal/utils/fs"
)

var (
	ErrNoDockerfile = errors.New("live-patch requires a dockerfile")
	ErrNoContainer  = errors.New("live-patch requires a container id")
	ErrNoLiveStages = errors.New("live dockerfile has no stages")
)

// DockerEngine patches the final stage of a Dockerfile into a running
// container: it copies changed context files to where that stage's COPY and
// ADD instructions put them, removes deleted ones and re-runs every RUN
// after the first affected copy. Copies from other stages are left alone.
type DockerEngine struct {
	runtime    Runtime
	filesystem fs.FileSystem
}

// NewDockerEngine creates an engine backed by runtime, reading host files
// through filesystem.
func NewDockerEngine(runtime Runtime, filesystem fs.FileSystem) *DockerEngine {
	return &DockerEngine{runtime: runtime, filesystem: filesystem}
}

func (e *DockerEngine) Init(ctx context.Context, opts Options) (Session, error) {
	if opts.Dockerfile == nil {
		return nil, ErrNoDockerfile
	}
	if opts.ContainerID == "" {
		return nil, ErrNoContainer
	}

	stages := opts.Dockerfile.LiveStages()
	if len(stages) == 0 {
		return nil, ErrNoLiveStages
	}

	final := len(stages) - 1
	workdir, err := e.baseWorkDir(ctx, stages, final)
	if err != nil {
		return nil, err
	}

	handler := opts.Handler
	if handler == nil {
		handler = nopHandler{}
	}

	slog.Debug("live-patch session opened",
		"container", opts.ContainerID,
		"context", opts.Context,
		"stage", final,
		"workdir", workdir,
	)

	return &dockerSession{
		runtime:     e.runtime,
		filesystem:  e.filesystem,
		containerID: opts.ContainerID,
		context:     opts.Context,
		plan:        newPlan(stages[final], workdir),
		handler:     handler,
	}, nil
}

// baseWorkDir returns the working directory stage index starts in: the one
// its base image configures, or the one an earlier stage it builds on ends
// in.
func (e *DockerEngine) baseWorkDir(ctx context.Context, stages []dockerfile.Stage, index int) (string, error) {
	base := stages[index].Base
	if base == "" || strings.EqualFold(base, "scratch") {
		return "/", nil
	}

	for i := index - 1; i >= 0; i-- {
		if stages[i].Name == "" || !strings.EqualFold(stages[i].Name, base) {
			continue
		}
		workdir, err := e.baseWorkDir(ctx, stages, i)
		if err != nil {
			return "", err
		}
		return stageWorkDir(stages[i], workdir), nil
	}

	workdir, err := e.runtime.ImageWorkingDir(ctx, base)
	if err != nil {
		return "", fmt.Errorf("failed to inspect base image %s: %w", base, err)
	}
	return workdir, nil
}

type dockerSession struct {
	mu          sync.Mutex
	runtime     Runtime
	filesystem  fs.FileSystem
	containerID string
	context     string
	plan        *plan
	handler     Handler
}

func (s *dockerSession) Apply(ctx context.Context, addedOrUpdated, deleted []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	writes, removes, first := s.plan.changes(s.relativize(addedOrUpdated), s.relativize(deleted))
	if first == -1 {
		slog.Debug("no changed file is copied by the dockerfile", "container", s.containerID)
		return nil
	}

	if len(writes) > 0 {
		archive, err := s.archive(writes)
		if err != nil {
			return err
		}
		if err := s.runtime.CopyTo(ctx, s.containerID, "/", archive); err != nil {
			return fmt.Errorf("failed to copy files into %s: %w", s.containerID, err)
		}
	}

	if len(removes) > 0 {
		command := append([]string{"rm", "-rf", "--"}, removes...)
		code, err := s.runtime.Exec(ctx, s.containerID, command, "/", io.Discard, io.Discard)
		if err != nil {
			return fmt.Errorf("failed to remove files from %s: %w", s.containerID, err)
		}
		if code != 0 {
			return fmt.Errorf("removing files from %s exited with code %d", s.containerID, code)
		}
	}

	for _, run := range s.plan.runsAfter(first) {
		code, err := s.run(ctx, run)
		if err != nil {
			return err
		}
		if code != 0 {
			// the failure was reported through the handler; later commands
			// depend on this one
			return nil
		}
	}
	return nil
}

func (s *dockerSession) run(ctx context.Context, run *runStep) (int, error) {
	stageIndex := s.plan.stageIndex
	s.handler.OnCommandStart(CommandStart{StageIndex: stageIndex, Command: run.display})

	stdout := &outputWriter{handler: s.handler, stageIndex: stageIndex}
	stderr := &outputWriter{handler: s.handler, stageIndex: stageIndex, stderr: true}
	code, err := s.runtime.Exec(ctx, s.containerID, run.command, run.workdir, stdout, stderr)
	if err != nil {
		return 0, fmt.Errorf("failed to run '%s' in %s: %w", run.display, s.containerID, err)
	}

	s.handler.OnCommandExit(CommandExit{StageIndex: stageIndex, Command: run.display, ReturnCode: code})
	return code, nil
}

func (s *dockerSession) relativize(paths []string) []fileChange {
	changes := make([]fileChange, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(s.context, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		changes = append(changes, fileChange{host: p, rel: filepath.ToSlash(rel)})
	}
	return changes
}

func (s *dockerSession) archive(writes []fileChange) (io.Reader, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, w := range writes {
		info, err := s.filesystem.Stat(w.host)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", w.host, err)
		}
		content, err := s.filesystem.ReadFile(w.host)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", w.host, err)
		}

		header := &tar.Header{
			Name:    strings.TrimPrefix(w.container, "/"),
			Mode:    int64(info.Mode().Perm()),
			Size:    int64(len(content)),
			ModTime: info.ModTime(),
		}
		if err := tw.WriteHeader(header); err != nil {
			return nil, err
		}
		if _, err := tw.Write(content); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}

type outputWriter struct {
	handler    Handler
	stageIndex int
	stderr     bool
}

func (w *outputWriter) Write(p []byte) (int, error) {
	data := append([]byte(nil), p...)
	w.handler.OnCommandOutput(CommandOutput{StageIndex: w.stageIndex, Data: data, IsStderr: w.stderr})
	return len(p), nil
}
