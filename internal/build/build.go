// Package build builds the image of every buildable service from its live
// dockerfile, one service at a time.
package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/moby/term"

	"github.com/railwayapp/livecompose/internal/project"
	"github.com/railwayapp/livecompose/internal/utils/fs"
)

const DefaultIdleTimeout = 10 * time.Minute

// Options configure a build run.
type Options struct {
	FS          fs.FileSystem
	Builder     ImageBuilder
	Out         io.Writer
	Env         map[string]string // looked up for bare build args
	BuildArgs   []string          // key[=value], applied over each service's own
	IdleTimeout time.Duration
}

// Run builds every service of p in order and stops at the first failure.
func Run(ctx context.Context, p *project.Project, opts Options) error {
	if opts.FS == nil {
		opts.FS = fs.NewLocalFS()
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	configs, err := p.BuildConfigurations()
	if err != nil {
		return err
	}

	_, isTerminal := term.GetFdInfo(opts.Out)
	for _, config := range configs {
		if err := buildOne(ctx, config, opts, isTerminal); err != nil {
			return err
		}
	}
	return nil
}

func buildOne(ctx context.Context, config project.BuildConfiguration, opts Options, isTerminal bool) error {
	image := config.ImageTag.String()
	fmt.Fprintf(opts.Out, "Building %s\n", image)

	args := make([]string, 0, len(config.BuildArgs)+len(opts.BuildArgs))
	args = append(args, config.BuildArgs...)
	args = append(args, opts.BuildArgs...)

	slog.Debug("packing build context",
		"image", image,
		"context", config.RelativeContext,
		"files", len(config.Files),
	)

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(WriteArchive(pw, opts.FS, config, sendingProgress(opts.Out, isTerminal)))
	}()
	defer pr.Close()

	body, err := opts.Builder.Build(ctx, Request{
		Image:     image,
		Context:   pr,
		BuildArgs: ParseBuildArgs(args, opts.Env),
	})
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", image, err)
	}
	defer body.Close()

	return Follow(ctx, body, opts.Out, image, opts.IdleTimeout, isTerminal)
}

// sendingProgress redraws a single progress line on a terminal and prints
// only the final count otherwise.
func sendingProgress(out io.Writer, isTerminal bool) Progress {
	return func(sent, total int) {
		switch {
		case sent == total:
			if isTerminal {
				fmt.Fprint(out, "\r")
			}
			fmt.Fprintf(out, "Sending files %d/%d\n", sent, total)
		case isTerminal:
			fmt.Fprintf(out, "\rSending files %d/%d", sent, total)
		}
	}
}
