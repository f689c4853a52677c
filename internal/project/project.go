// Package project assembles services from compose files and explicit
// dockerfile declarations and fans work out to them.
package project

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/railwayapp/livecompose/internal/compose"
	"github.com/railwayapp/livecompose/internal/livepush"
	"github.com/railwayapp/livecompose/internal/schema"
	"github.com/railwayapp/livecompose/internal/utils/fs"
)

const defaultTag = "latest"

// Options carries what assembly reads from its surroundings.
type Options struct {
	FS      fs.FileSystem
	WorkDir string
	Compose compose.Interpreter
	Out     io.Writer
}

// Project is an ordered set of services with unique names.
type Project struct {
	name     string
	services []*Service
}

// Assemble resolves fragments into a project. All compose files are handed
// to the compose interpreter together, and one ps lookup is made per
// buildable compose service.
func Assemble(ctx context.Context, fragments []Fragment, opts Options) (*Project, error) {
	if opts.FS == nil {
		opts.FS = fs.NewLocalFS()
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	env := Env{FS: opts.FS, WorkDir: opts.WorkDir, Out: opts.Out}

	var composeFiles []string
	explicit := make([]*Service, 0)
	for _, fragment := range fragments {
		var spec ServiceSpec
		switch f := fragment.(type) {
		case ComposeFragment:
			composeFiles = append(composeFiles, f.Path)
			continue
		case ContainerFragment:
			spec = ServiceSpec{
				ContainerID:    f.ContainerID,
				DockerfilePath: f.DockerfilePath,
				Context:        f.Context,
			}
		case ImageTagFragment:
			spec = ServiceSpec{
				ImageTag:       &ImageTag{Image: f.Image, Tag: f.Tag},
				DockerfilePath: f.DockerfilePath,
				Context:        f.Context,
			}
		default:
			return nil, fmt.Errorf("unsupported fragment %T", fragment)
		}

		service, err := ResolveService(env, spec)
		if err != nil {
			return nil, err
		}
		explicit = append(explicit, service)
	}

	fromCompose, err := composeServices(ctx, env, opts.Compose, composeFiles)
	if err != nil {
		return nil, err
	}

	return &Project{
		name:     filepath.Base(opts.WorkDir),
		services: aggregate(explicit, fromCompose),
	}, nil
}

func composeServices(ctx context.Context, env Env, interpreter compose.Interpreter, files []string) ([]*Service, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if interpreter == nil {
		return nil, fmt.Errorf("no compose interpreter configured for %d compose files", len(files))
	}

	definitions, err := interpreter.Config(ctx, env.WorkDir, files)
	if err != nil {
		return nil, err
	}

	dirname := filepath.Base(env.WorkDir)
	services := make([]*Service, 0, len(definitions))
	for _, definition := range definitions {
		if definition.Build == nil || definition.Build.Dockerfile == "" {
			slog.Debug("skipping compose service without a dockerfile", "service", definition.Name)
			continue
		}

		containerID, err := interpreter.PS(ctx, env.WorkDir, files, definition.Name)
		if err != nil {
			return nil, err
		}

		contextDir := definition.Build.Context
		if contextDir == "" {
			contextDir = "."
		}
		dockerfilePath := definition.Build.Dockerfile
		if !filepath.IsAbs(dockerfilePath) {
			dockerfilePath = filepath.Join(absolute(env.WorkDir, contextDir), dockerfilePath)
		}

		service, err := ResolveService(env, ServiceSpec{
			ImageTag:       &ImageTag{Image: dirname + "_" + definition.Name, Tag: defaultTag},
			ContainerID:    containerID,
			DockerfilePath: dockerfilePath,
			Context:        contextDir,
			BuildArgs:      definition.Build.Args,
		})
		if err != nil {
			return nil, fmt.Errorf("compose service %s: %w", definition.Name, err)
		}
		services = append(services, service)
	}

	return services, nil
}

func (p *Project) Name() string {
	return p.name
}

// Services returns the services in declaration order.
func (p *Project) Services() []*Service {
	return p.services
}

// InitLivepush opens a live-patch session for every service.
func (p *Project) InitLivepush(ctx context.Context, engine livepush.Engine) error {
	var g errgroup.Group
	for _, service := range p.services {
		g.Go(func() error {
			return service.InitLivepush(ctx, engine)
		})
	}
	return g.Wait()
}

// NotifyChanges hands the whole batch to every service, each of which
// keeps the paths inside its own context.
func (p *Project) NotifyChanges(ctx context.Context, paths []string) error {
	var g errgroup.Group
	for _, service := range p.services {
		g.Go(func() error {
			return service.NotifyChanges(ctx, paths)
		})
	}
	return g.Wait()
}

// BuildConfigurations returns one configuration per service, in service
// order.
func (p *Project) BuildConfigurations() ([]BuildConfiguration, error) {
	configs := make([]BuildConfiguration, len(p.services))

	var g errgroup.Group
	for i, service := range p.services {
		g.Go(func() error {
			config, err := service.BuildConfiguration()
			if err != nil {
				return err
			}
			configs[i] = config
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return configs, nil
}

// Describe converts the project into its serializable form.
func (p *Project) Describe() *schema.Project {
	described := schema.NewProject(p.name)
	for _, service := range p.services {
		s := schema.NewService(service.name)
		if service.imageTag != nil {
			s.Image = service.imageTag.String()
			s.Buildable = true
		}
		s.ContainerID = service.containerID
		s.Pushable = service.containerID != ""
		s.Dockerfile = service.dockerfilePath
		s.Context = service.context
		s.BuildArgs = append(s.BuildArgs, service.buildArgs...)
		described.AddService(s)
	}
	return described
}
