package livecompose

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/railwayapp/livecompose/internal/build"
	"github.com/railwayapp/livecompose/internal/config"
	"github.com/railwayapp/livecompose/internal/utils/fs"
)

var (
	buildDeclarations declarationFlags
	buildArgs         []string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the live image of every service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := assemble(ctx, &buildDeclarations, parseImageTag)
		if err != nil {
			return err
		}

		filesystem := fs.NewLocalFS()
		env, err := build.LoadEnv(filesystem, os.Environ(), cfg.Build.EnvFiles...)
		if err != nil {
			return err
		}

		docker, err := newDockerClient()
		if err != nil {
			return err
		}
		defer docker.Close()

		err = build.Run(ctx, p, build.Options{
			FS:          filesystem,
			Builder:     build.NewDockerImageBuilder(docker),
			Out:         os.Stdout,
			Env:         env,
			BuildArgs:   buildArgs,
			IdleTimeout: cfg.Build.IdleTimeout,
		})
		if err != nil {
			return err
		}
		return nil
	},
}

func init() {
	buildDeclarations.register(buildCmd, imageTagHelp)
	buildCmd.Flags().StringArrayVar(&buildArgs, "build-arg", nil, "Set the given build argument, in the format `key[=value]`. Without a value it is taken from the environment. May be specified multiple times.")
	buildCmd.Flags().StringArray("env-file", nil, "Read environment values for build arguments from the given dotenv file. May be specified multiple times.")
	buildCmd.Flags().Duration("idle-timeout", build.DefaultIdleTimeout, "Fail a build whose progress stream is silent for this long (0 waits forever)")

	cobra.CheckErr(viper.BindPFlag(config.KeyBuildEnvFiles, buildCmd.Flags().Lookup("env-file")))
	cobra.CheckErr(viper.BindPFlag(config.KeyBuildIdle, buildCmd.Flags().Lookup("idle-timeout")))
}
