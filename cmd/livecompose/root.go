package livecompose

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/railwayapp/livecompose/internal/config"
	"github.com/railwayapp/livecompose/internal/utils/fs"
)

var (
	cfgFile  string
	cfg      *config.Config
	workDir  string
	logLevel = new(slog.LevelVar)
)

var rootCmd = &cobra.Command{
	Use:   "livecompose",
	Short: "Build images and live-push file changes into running compose services",
	Long: `Livecompose assembles a project from compose files and --dockerfile
declarations, then either builds the image of every service from its live
Dockerfile, or pushes changed files into the running containers without a
rebuild.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// Logger returns a text logger on stderr whose level follows the
// configuration once it is loaded.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.livecompose.yaml, $XDG_CONFIG_HOME/livecompose/config.yaml or $HOME/.livecompose.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("compose-loader", config.LoaderCLI, "how compose files are merged: cli (compose binary) or native (in-process)")

	cobra.CheckErr(viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag(config.KeyComposeLoader, rootCmd.PersistentFlags().Lookup("compose-loader")))

	rootCmd.AddCommand(buildCmd, pushCmd, servicesCmd)
}

func initConfig() {
	var err error
	workDir, err = os.Getwd()
	cobra.CheckErr(err)

	config.SetDefaults(viper.GetViper())
	cfg, err = config.Load(viper.GetViper(), fs.NewLocalFS(), cfgFile, workDir)
	cobra.CheckErr(err)

	logLevel.Set(cfg.LogLevel)
	if cfg.File != "" {
		slog.Debug("using config file", "path", cfg.File)
	}
}
