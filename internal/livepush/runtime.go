package livepush

import (
	"context"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// Runtime is the part of the container daemon a live-patch session uses.
type Runtime interface {
	// ImageWorkingDir returns the working directory configured by image,
	// or "/" when it sets none
	ImageWorkingDir(ctx context.Context, image string) (string, error)

	// CopyTo extracts a tar archive into the container at dstPath
	CopyTo(ctx context.Context, containerID, dstPath string, archive io.Reader) error

	// Exec runs cmd in the container and returns its exit code
	Exec(ctx context.Context, containerID string, cmd []string, workdir string, stdout, stderr io.Writer) (int, error)
}

// DockerClient is the part of the Docker client DockerRuntime calls.
type DockerClient interface {
	client.ContainerAPIClient
	client.ImageAPIClient
}

// DockerRuntime implements Runtime against the Docker Engine API.
type DockerRuntime struct {
	client DockerClient
}

// NewDockerRuntime wraps a Docker client.
func NewDockerRuntime(c DockerClient) *DockerRuntime {
	return &DockerRuntime{client: c}
}

func (r *DockerRuntime) ImageWorkingDir(ctx context.Context, image string) (string, error) {
	info, err := r.client.ImageInspect(ctx, image)
	if err != nil {
		return "", err
	}
	if info.Config == nil || info.Config.WorkingDir == "" {
		return "/", nil
	}
	return info.Config.WorkingDir, nil
}

func (r *DockerRuntime) CopyTo(ctx context.Context, containerID, dstPath string, archive io.Reader) error {
	return r.client.CopyToContainer(ctx, containerID, dstPath, archive, container.CopyToContainerOptions{})
}

func (r *DockerRuntime) Exec(ctx context.Context, containerID string, cmd []string, workdir string, stdout, stderr io.Writer) (int, error) {
	created, err := r.client.ContainerExecCreate(ctx, containerID, container.ExecOptions{
		Cmd:          cmd,
		WorkingDir:   workdir,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return 0, err
	}

	attached, err := r.client.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{})
	if err != nil {
		return 0, err
	}
	defer attached.Close()

	if _, err := stdcopy.StdCopy(stdout, stderr, attached.Reader); err != nil {
		return 0, err
	}

	inspected, err := r.client.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return 0, err
	}
	return inspected.ExitCode, nil
}
