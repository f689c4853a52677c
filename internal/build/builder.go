package build

import (
	"context"
	"io"

	dockerbuild "github.com/docker/docker/api/types/build"
	"github.com/docker/docker/client"
)

// Request is one image build submission.
type Request struct {
	Image     string
	Context   io.Reader // tar archive
	BuildArgs map[string]*string
}

// ImageBuilder submits image builds and returns their progress stream.
type ImageBuilder interface {
	Build(ctx context.Context, req Request) (io.ReadCloser, error)
}

// DockerImageBuilder builds images through the Docker Engine API.
type DockerImageBuilder struct {
	client client.ImageAPIClient
}

func NewDockerImageBuilder(c client.ImageAPIClient) *DockerImageBuilder {
	return &DockerImageBuilder{client: c}
}

func (b *DockerImageBuilder) Build(ctx context.Context, req Request) (io.ReadCloser, error) {
	resp, err := b.client.ImageBuild(ctx, req.Context, dockerbuild.ImageBuildOptions{
		Tags:       []string{req.Image},
		BuildArgs:  req.BuildArgs,
		Dockerfile: dockerfileEntry,
		Remove:     true,
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
