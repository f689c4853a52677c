package project

import (
	"errors"
	"fmt"
)

var ErrNoDeclarations = errors.New("could not find a compose file and neither --compose-file nor --dockerfile were specified")

// FragmentError reports a malformed --dockerfile value.
type FragmentError struct {
	Value  string
	Format string
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("'%s' is not a valid '--dockerfile' argument, expected %s", e.Value, e.Format)
}

// DockerfileReadError reports a dockerfile that could not be read or parsed.
type DockerfileReadError struct {
	Path string
	Err  error
}

func (e *DockerfileReadError) Error() string {
	return fmt.Sprintf("failed to read dockerfile %s: %v", e.Path, e.Err)
}

func (e *DockerfileReadError) Unwrap() error {
	return e.Err
}

// MissingContainerError reports a push against a service without a container.
type MissingContainerError struct {
	DockerfilePath string
}

func (e *MissingContainerError) Error() string {
	return fmt.Sprintf("cannot initialize livepush for a service that has no container: %s", e.DockerfilePath)
}

// MissingImageTagError reports a build of a service without an image tag.
type MissingImageTagError struct {
	Service string
}

func (e *MissingImageTagError) Error() string {
	return fmt.Sprintf("missing image and tag for '%s'", e.Service)
}

// UninitializedError reports a change notification before InitLivepush.
type UninitializedError struct {
	Service string
}

func (e *UninitializedError) Error() string {
	return fmt.Sprintf("%s: InitLivepush was not called", e.Service)
}
