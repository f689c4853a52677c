package project

import (
	"strings"
)

// Fragment is one declaration a project is assembled from: a
// ComposeFragment, a ContainerFragment or an ImageTagFragment.
type Fragment interface {
	fragment()
}

// ComposeFragment names a compose file.
type ComposeFragment struct {
	Path string
}

// ContainerFragment binds a dockerfile to a running container.
type ContainerFragment struct {
	ContainerID    string
	DockerfilePath string
	Context        string
}

// ImageTagFragment declares a buildable image.
type ImageTagFragment struct {
	Image          string
	Tag            string
	DockerfilePath string
	Context        string
}

func (ComposeFragment) fragment()   {}
func (ContainerFragment) fragment() {}
func (ImageTagFragment) fragment()  {}

const (
	imageTagFormat  = "image:tag:dockerfile[:context]"
	containerFormat = "containerId:dockerfile[:context]"
)

// ParseImageTagFragment parses image:tag:dockerfile[:context]. Everything
// after the third colon is the context, which defaults to ".".
func ParseImageTagFragment(value string) (ImageTagFragment, error) {
	fields := strings.Split(value, ":")
	if len(fields) < 3 {
		return ImageTagFragment{}, &FragmentError{Value: value, Format: imageTagFormat}
	}

	fragment := ImageTagFragment{
		Image:          fields[0],
		Tag:            fields[1],
		DockerfilePath: fields[2],
		Context:        ".",
	}
	if len(fields) > 3 {
		fragment.Context = strings.Join(fields[3:], ":")
	}
	return fragment, nil
}

// ParseContainerFragment parses containerId:dockerfile[:context].
func ParseContainerFragment(value string) (ContainerFragment, error) {
	fields := strings.Split(value, ":")
	if len(fields) < 2 {
		return ContainerFragment{}, &FragmentError{Value: value, Format: containerFormat}
	}

	fragment := ContainerFragment{
		ContainerID:    fields[0],
		DockerfilePath: fields[1],
		Context:        ".",
	}
	if len(fields) > 2 {
		fragment.Context = strings.Join(fields[2:], ":")
	}
	return fragment, nil
}
