// Package compose talks to the compose interpreter: it merges compose files
// into one service map and looks up the running container of a service.
package compose

import (
	"context"
	"fmt"
)

// Build is the build section of a compose service.
type Build struct {
	Context    string
	Dockerfile string
	Args       []string // key[=value]
}

// Service is one entry of a merged compose service map.
type Service struct {
	Name  string
	Build *Build
}

// Interpreter resolves compose files. Implementations receive all compose
// files of a project at once, in order, so cross-file overrides apply.
type Interpreter interface {
	// Config returns the merged services, sorted by name
	Config(ctx context.Context, workDir string, files []string) ([]Service, error)

	// PS returns the id of the running container of service, or "" if there
	// is none
	PS(ctx context.Context, workDir string, files []string, service string) (string, error)
}

// ConfigError reports a failed config invocation.
type ConfigError struct {
	Command string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("failed to run '%s': %v", e.Command, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// PSError reports a failed ps invocation.
type PSError struct {
	Service string
	Command string
	Err     error
}

func (e *PSError) Error() string {
	return fmt.Sprintf("failed to run '%s' for service %s: %v", e.Command, e.Service, e.Err)
}

func (e *PSError) Unwrap() error {
	return e.Err
}
