// Package livepush defines the live-patch engine boundary: an Engine opens a
// Session against a running container, and the Session applies batches of
// changed files to it, reporting the commands it re-runs to a Handler.
package livepush

import (
	"context"

	"github.com/railwayapp/livecompose/internal/dockerfile"
)

// CommandStart is emitted before a command runs in the container.
type CommandStart struct {
	StageIndex int
	Command    string
}

// CommandOutput carries a chunk of a running command's output.
type CommandOutput struct {
	StageIndex int
	Data       []byte
	IsStderr   bool
}

// CommandExit is emitted once a command has finished.
type CommandExit struct {
	StageIndex int
	Command    string
	ReturnCode int
}

// Handler observes the commands a Session runs.
type Handler interface {
	OnCommandStart(CommandStart)
	OnCommandOutput(CommandOutput)
	OnCommandExit(CommandExit)
}

// Options configure a Session.
type Options struct {
	Dockerfile  *dockerfile.Dockerfile
	Context     string // absolute build context on the host
	ContainerID string
	Handler     Handler
}

// Engine opens live-patch sessions.
type Engine interface {
	Init(ctx context.Context, opts Options) (Session, error)
}

// Session applies changes to the container it was opened for.
type Session interface {
	// Apply uploads addedOrUpdated, removes deleted (both absolute host
	// paths inside the context) and re-runs the affected instructions
	Apply(ctx context.Context, addedOrUpdated, deleted []string) error
}

type nopHandler struct{}

func (nopHandler) OnCommandStart(CommandStart)   {}
func (nopHandler) OnCommandOutput(CommandOutput) {}
func (nopHandler) OnCommandExit(CommandExit)     {}
