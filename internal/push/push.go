// Package push applies a batch of changed files to the running containers
// of a project.
package push

import (
	"context"
	"log/slog"

	"github.com/railwayapp/livecompose/internal/livepush"
	"github.com/railwayapp/livecompose/internal/project"
)

// Run opens a live-patch session for every service, then hands all paths
// to the project in one notification.
func Run(ctx context.Context, p *project.Project, engine livepush.Engine, paths []string) error {
	if err := p.InitLivepush(ctx, engine); err != nil {
		return err
	}

	slog.Debug("notifying services of changes", "services", len(p.Services()), "paths", len(paths))
	return p.NotifyChanges(ctx, paths)
}
