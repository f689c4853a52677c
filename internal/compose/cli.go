package compose

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCommand is the compose interpreter invoked when none is configured.
var DefaultCommand = []string{"docker", "compose"}

// Runner runs name with args in dir and returns its standard output.
type Runner func(ctx context.Context, dir string, name string, args ...string) ([]byte, error)

// CLI drives a compose binary (docker compose, docker-compose, podman-compose).
type CLI struct {
	Command []string
	Run     Runner
}

// NewCLI creates a CLI running command, or DefaultCommand when empty.
func NewCLI(command ...string) *CLI {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &CLI{Command: command, Run: ExecRunner}
}

func (c *CLI) Config(ctx context.Context, workDir string, files []string) ([]Service, error) {
	args := c.args(files, "config")
	command := strings.Join(args, " ")

	out, err := c.run(ctx, workDir, args)
	if err != nil {
		return nil, &ConfigError{Command: command, Err: err}
	}

	services, err := ParseConfig(out)
	if err != nil {
		return nil, &ConfigError{Command: command, Err: err}
	}
	return services, nil
}

func (c *CLI) PS(ctx context.Context, workDir string, files []string, service string) (string, error) {
	args := c.args(files, "ps", "--quiet", "--", service)

	out, err := c.run(ctx, workDir, args)
	if err != nil {
		return "", &PSError{Service: service, Command: strings.Join(args, " "), Err: err}
	}

	// a scaled service lists one container per line; the first one is used
	id, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(id), nil
}

func (c *CLI) args(files []string, subcommand ...string) []string {
	command := c.Command
	if len(command) == 0 {
		command = DefaultCommand
	}

	args := append([]string{}, command...)
	for _, file := range files {
		args = append(args, "-f", file)
	}
	return append(args, subcommand...)
}

func (c *CLI) run(ctx context.Context, dir string, args []string) ([]byte, error) {
	run := c.Run
	if run == nil {
		run = ExecRunner
	}
	slog.Debug("running compose", "dir", dir, "args", args)
	return run(ctx, dir, args[0], args[1:]...)
}

// ExecRunner runs the command as a child process. A non-zero exit is an
// error carrying the exit code and captured standard error.
func ExecRunner(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("exit status %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

type configDocument struct {
	Services map[string]struct {
		Build *buildSection `yaml:"build"`
	} `yaml:"services"`
}

type buildSection struct {
	Context    string    `yaml:"context"`
	Dockerfile string    `yaml:"dockerfile"`
	Args       yaml.Node `yaml:"args"`
}

// UnmarshalYAML accepts the short syntax where build is just the context.
func (b *buildSection) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		b.Context = node.Value
		return nil
	}
	type plain buildSection
	return node.Decode((*plain)(b))
}

// ParseConfig decodes the normalized YAML printed by `compose config`.
func ParseConfig(out []byte) ([]Service, error) {
	var doc configDocument
	if err := yaml.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode compose config: %w", err)
	}

	services := make([]Service, 0, len(doc.Services))
	for name, definition := range doc.Services {
		service := Service{Name: name}
		if definition.Build != nil {
			args, err := buildArgs(&definition.Build.Args)
			if err != nil {
				return nil, fmt.Errorf("service %s: %w", name, err)
			}
			service.Build = &Build{
				Context:    definition.Build.Context,
				Dockerfile: definition.Build.Dockerfile,
				Args:       args,
			}
		}
		services = append(services, service)
	}

	sortServices(services)
	return services, nil
}

func buildArgs(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.SequenceNode:
		args := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			args = append(args, item.Value)
		}
		return args, nil
	case yaml.MappingNode:
		values := make(map[string]*string, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if value.Tag == "!!null" {
				values[key.Value] = nil
				continue
			}
			values[key.Value] = &value.Value
		}
		return mappingArgs(values), nil
	default:
		return nil, fmt.Errorf("unsupported build args of kind %d", node.Kind)
	}
}

// mappingArgs renders a key-value mapping as key=value strings sorted by
// key; a nil value renders as the bare key.
func mappingArgs(values map[string]*string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys))
	for _, key := range keys {
		if values[key] == nil {
			args = append(args, key)
			continue
		}
		args = append(args, key+"="+*values[key])
	}
	return args
}

func sortServices(services []Service) {
	sort.Slice(services, func(i, j int) bool {
		return services[i].Name < services[j].Name
	})
}
