package compose

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/compose-spec/compose-go/v2/cli"
	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
)

// Native merges compose files in-process with compose-go and defers to a
// compose binary only for ps, which needs the container daemon.
type Native struct {
	CLI *CLI
}

// NewNative creates a Native interpreter whose ps lookups go through cli.
func NewNative(cli *CLI) *Native {
	if cli == nil {
		cli = NewCLI()
	}
	return &Native{CLI: cli}
}

func (n *Native) Config(ctx context.Context, workDir string, files []string) ([]Service, error) {
	command := "compose-go load -f " + strings.Join(files, " -f ")

	options, err := cli.NewProjectOptions(
		files,
		cli.WithWorkingDirectory(workDir),
		cli.WithOsEnv,
		cli.WithDotEnv,
		cli.WithName(loader.NormalizeProjectName(filepath.Base(workDir))),
	)
	if err != nil {
		return nil, &ConfigError{Command: command, Err: err}
	}

	project, err := options.LoadProject(ctx)
	if err != nil {
		return nil, &ConfigError{Command: command, Err: err}
	}

	services := make([]Service, 0, len(project.Services))
	for name, composeService := range project.Services {
		services = append(services, convertService(name, composeService))
	}

	sortServices(services)
	return services, nil
}

func (n *Native) PS(ctx context.Context, workDir string, files []string, service string) (string, error) {
	return n.CLI.PS(ctx, workDir, files, service)
}

func convertService(name string, composeService types.ServiceConfig) Service {
	service := Service{Name: name}
	if composeService.Build == nil {
		return service
	}

	service.Build = &Build{
		Context:    composeService.Build.Context,
		Dockerfile: composeService.Build.Dockerfile,
		Args:       mappingArgs(composeService.Build.Args),
	}
	return service
}
