package livecompose

import (
	"context"
	"os"

	"github.com/docker/docker/client"
	"github.com/spf13/cobra"

	"github.com/railwayapp/livecompose/internal/compose"
	"github.com/railwayapp/livecompose/internal/config"
	"github.com/railwayapp/livecompose/internal/project"
	"github.com/railwayapp/livecompose/internal/utils/fs"
)

const (
	composeFileHelp = "Use the given compose file. May be specified multiple times. Defaults to the first of docker-compose.yml, docker-compose.yaml, compose.yml or compose.yaml in the current directory."
	imageTagHelp    = "Use the given image, tag, Dockerfile and context, in the format `image:tag:dockerfile[:context]`; context defaults to `.`. May be specified multiple times."
	containerHelp   = "Use the given container ID, Dockerfile and context, in the format `containerId:dockerfile[:context]`; context defaults to `.`. May be specified multiple times."
)

// declarationFlags are the flags every command assembles its project from.
type declarationFlags struct {
	composeFiles []string
	dockerfiles  []string
}

func (d *declarationFlags) register(cmd *cobra.Command, dockerfileHelp string) {
	cmd.Flags().StringArrayVarP(&d.composeFiles, "compose-file", "c", nil, composeFileHelp)
	cmd.Flags().StringArrayVarP(&d.dockerfiles, "dockerfile", "d", nil, dockerfileHelp)
}

type fragmentParser func(string) (project.Fragment, error)

func parseImageTag(value string) (project.Fragment, error) {
	return project.ParseImageTagFragment(value)
}

func parseContainer(value string) (project.Fragment, error) {
	return project.ParseContainerFragment(value)
}

// fragments turns the declaration flags into fragments. Every --dockerfile
// value is parsed before the filesystem is touched; without any declaration
// the default compose file of dir is used.
func (d *declarationFlags) fragments(filesystem fs.FileSystem, dir string, parse fragmentParser) ([]project.Fragment, error) {
	fragments := make([]project.Fragment, 0, len(d.composeFiles)+len(d.dockerfiles))
	for _, path := range d.composeFiles {
		fragments = append(fragments, project.ComposeFragment{Path: path})
	}
	for _, value := range d.dockerfiles {
		fragment, err := parse(value)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, fragment)
	}
	if len(fragments) > 0 {
		return fragments, nil
	}

	path, err := compose.FindDefaultFile(filesystem, dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, project.ErrNoDeclarations
	}
	return []project.Fragment{project.ComposeFragment{Path: path}}, nil
}

func newInterpreter(cfg *config.Config) compose.Interpreter {
	cli := compose.NewCLI(cfg.Compose.Command...)
	if cfg.Compose.Loader == config.LoaderNative {
		return compose.NewNative(cli)
	}
	return cli
}

func assemble(ctx context.Context, d *declarationFlags, parse fragmentParser) (*project.Project, error) {
	filesystem := fs.NewLocalFS()
	fragments, err := d.fragments(filesystem, workDir, parse)
	if err != nil {
		return nil, err
	}

	return project.Assemble(ctx, fragments, project.Options{
		FS:      filesystem,
		WorkDir: workDir,
		Compose: newInterpreter(cfg),
		Out:     os.Stdout,
	})
}

func newDockerClient() (*client.Client, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}
