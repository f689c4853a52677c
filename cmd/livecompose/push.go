package livecompose

import (
	"github.com/spf13/cobra"

	"github.com/railwayapp/livecompose/internal/livepush"
	"github.com/railwayapp/livecompose/internal/push"
	"github.com/railwayapp/livecompose/internal/utils/fs"
)

var pushDeclarations declarationFlags

var pushCmd = &cobra.Command{
	Use:   "push <paths...>",
	Short: "Push changed files into the running container of every service",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, paths []string) error {
		ctx := cmd.Context()

		p, err := assemble(ctx, &pushDeclarations, parseContainer)
		if err != nil {
			return err
		}

		docker, err := newDockerClient()
		if err != nil {
			return err
		}
		defer docker.Close()

		engine := livepush.NewDockerEngine(livepush.NewDockerRuntime(docker), fs.NewLocalFS())
		if err := push.Run(ctx, p, engine, paths); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	pushDeclarations.register(pushCmd, containerHelp)
}
