package project

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/railwayapp/livecompose/internal/dockerfile"
	"github.com/railwayapp/livecompose/internal/ignore"
	"github.com/railwayapp/livecompose/internal/livepush"
	"github.com/railwayapp/livecompose/internal/utils/fs"
)

// ImageTag names an image to build.
type ImageTag struct {
	Image string
	Tag   string
}

func (t ImageTag) String() string {
	return t.Image + ":" + t.Tag
}

// ServiceSpec declares a service before resolution. Relative paths are
// resolved against the environment's working directory.
type ServiceSpec struct {
	ImageTag       *ImageTag
	ContainerID    string
	DockerfilePath string
	Context        string
	BuildArgs      []string
}

// Env is what service resolution reads from outside the process: the
// filesystem, the working directory and where to report progress.
type Env struct {
	FS      fs.FileSystem
	WorkDir string
	Out     io.Writer
}

// BuildConfiguration is what the build orchestrator needs to build one
// service's image. It is regenerated for every build.
type BuildConfiguration struct {
	Service         string
	ImageTag        ImageTag
	Dockerfile      string // live dockerfile body
	Context         string // absolute
	RelativeContext string // context relative to the working directory
	Files           []string
	BuildArgs       []string
}

// Service is a resolved unit of work: a dockerfile and its context, with an
// image to build, a container to push to, or both.
type Service struct {
	name           string
	imageTag       *ImageTag
	containerID    string
	dockerfile     *dockerfile.Dockerfile
	dockerfilePath string
	context        string
	buildArgs      []string
	env            Env

	mu      sync.Mutex
	session livepush.Session
}

// ResolveService reads the dockerfile and resolves the context to an
// absolute path.
func ResolveService(env Env, spec ServiceSpec) (*Service, error) {
	if env.Out == nil {
		env.Out = io.Discard
	}

	dockerfilePath := absolute(env.WorkDir, spec.DockerfilePath)
	content, err := env.FS.ReadFile(dockerfilePath)
	if err != nil {
		return nil, &DockerfileReadError{Path: spec.DockerfilePath, Err: err}
	}
	parsed, err := dockerfile.Parse(content)
	if err != nil {
		return nil, &DockerfileReadError{Path: spec.DockerfilePath, Err: err}
	}

	contextDir := spec.Context
	if contextDir == "" {
		contextDir = "."
	}

	name := spec.DockerfilePath
	if spec.ImageTag != nil {
		name = spec.ImageTag.Image
	}

	service := &Service{
		name:           name,
		imageTag:       spec.ImageTag,
		containerID:    spec.ContainerID,
		dockerfile:     parsed,
		dockerfilePath: spec.DockerfilePath,
		context:        absolute(env.WorkDir, contextDir),
		buildArgs:      spec.BuildArgs,
		env:            env,
	}

	slog.Debug("resolved service",
		"name", service.name,
		"dockerfile", dockerfilePath,
		"context", service.context,
		"container", service.containerID,
	)
	return service, nil
}

func (s *Service) Name() string {
	return s.name
}

// ImageTag returns the image to build, or nil.
func (s *Service) ImageTag() *ImageTag {
	return s.imageTag
}

// ContainerID returns the bound container, or "".
func (s *Service) ContainerID() string {
	return s.containerID
}

func (s *Service) DockerfilePath() string {
	return s.dockerfilePath
}

func (s *Service) Context() string {
	return s.context
}

func (s *Service) BuildArgs() []string {
	return s.buildArgs
}

// InitLivepush opens the live-patch session. A second call is a no-op.
func (s *Service) InitLivepush(ctx context.Context, engine livepush.Engine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return nil
	}
	if s.containerID == "" {
		return &MissingContainerError{DockerfilePath: s.dockerfilePath}
	}

	session, err := engine.Init(ctx, livepush.Options{
		Dockerfile:  s.dockerfile,
		Context:     s.context,
		ContainerID: s.containerID,
		Handler:     &serviceHandler{name: s.name, out: s.env.Out},
	})
	if err != nil {
		return fmt.Errorf("%s: failed to initialize livepush: %w", s.name, err)
	}
	s.session = session
	return nil
}

// NotifyChanges classifies paths inside the context as added/updated or
// deleted and hands them to the live-patch session. Paths outside the
// context are ignored. Nothing is sent when no path is in scope.
func (s *Service) NotifyChanges(ctx context.Context, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return &UninitializedError{Service: s.name}
	}

	var addedOrUpdated, deleted []string
	for _, path := range paths {
		path = absolute(s.env.WorkDir, path)
		if !s.Contains(path) {
			continue
		}

		exists, err := fs.FileExists(s.env.FS, path)
		if err != nil {
			return fmt.Errorf("%s: failed to check %s: %w", s.name, path, err)
		}
		if exists {
			addedOrUpdated = append(addedOrUpdated, path)
		} else {
			deleted = append(deleted, path)
		}
	}

	if len(addedOrUpdated) == 0 && len(deleted) == 0 {
		return nil
	}

	fmt.Fprintf(s.env.Out, "%s: adding or updating %d files and deleting %d files\n",
		s.name, len(addedOrUpdated), len(deleted))
	return s.session.Apply(ctx, addedOrUpdated, deleted)
}

// Contains reports whether path lies inside the service context. Relative
// paths are taken from the working directory.
func (s *Service) Contains(path string) bool {
	rel, err := filepath.Rel(s.context, absolute(s.env.WorkDir, path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// BuildConfiguration lists the context files that survive the context's
// ignore rules and renders the live dockerfile.
func (s *Service) BuildConfiguration() (BuildConfiguration, error) {
	if s.imageTag == nil {
		return BuildConfiguration{}, &MissingImageTagError{Service: s.name}
	}

	filter, err := ignore.Load(s.env.FS, s.context)
	if err != nil {
		return BuildConfiguration{}, fmt.Errorf("%s: %w", s.name, err)
	}

	relativeContext, err := filepath.Rel(s.env.WorkDir, s.context)
	if err != nil || relativeContext == "" {
		relativeContext = "."
	}

	paths, err := fs.ListFilesRecursive(s.env.FS, s.context)
	if err != nil {
		return BuildConfiguration{}, fmt.Errorf("%s: failed to list build context %s: %w", s.name, s.context, err)
	}

	files := make([]string, 0, len(paths))
	for _, path := range paths {
		rel, err := filepath.Rel(s.context, path)
		if err != nil {
			return BuildConfiguration{}, err
		}
		rel = filepath.ToSlash(rel)
		if filter.Includes(rel) {
			files = append(files, rel)
		}
	}

	return BuildConfiguration{
		Service:         s.name,
		ImageTag:        *s.imageTag,
		Dockerfile:      s.dockerfile.Live(),
		Context:         s.context,
		RelativeContext: relativeContext,
		Files:           files,
		BuildArgs:       s.buildArgs,
	}, nil
}

func absolute(workDir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(workDir, path)
}

// serviceHandler prints the live-patch session's commands prefixed with the
// service name.
type serviceHandler struct {
	name string
	out  io.Writer
}

func (h *serviceHandler) OnCommandStart(e livepush.CommandStart) {
	fmt.Fprintf(h.out, "%s: running '%s'\n", h.name, e.Command)
}

func (h *serviceHandler) OnCommandOutput(e livepush.CommandOutput) {
	fmt.Fprintf(h.out, "%s: %s\n", h.name, strings.TrimRight(string(e.Data), "\n"))
}

func (h *serviceHandler) OnCommandExit(e livepush.CommandExit) {
	if e.ReturnCode == 0 {
		return
	}
	fmt.Fprintf(h.out, "%s: command '%s' failed with code %d\n", h.name, e.Command, e.ReturnCode)
}
