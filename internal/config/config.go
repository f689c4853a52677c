// Package config loads livecompose settings from defaults, a config file,
// LIVECOMPOSE_* environment variables and bound flags, in increasing order
// of precedence.
package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/railwayapp/livecompose/internal/utils/fs"
)

const (
	appName   = "livecompose"
	envPrefix = "LIVECOMPOSE"

	KeyComposeCommand  = "compose.command"
	KeyComposeLoader   = "compose.loader"
	KeyBuildIdle       = "build.idle_timeout"
	KeyBuildEnvFiles   = "build.env_files"
	KeyLogLevel        = "log_level"
	LoaderCLI          = "cli"
	LoaderNative       = "native"
	defaultIdleTimeout = 10 * time.Minute
)

// Config is the resolved configuration.
type Config struct {
	Compose  Compose
	Build    Build
	LogLevel slog.Level
	File     string // config file used, if any
}

type Compose struct {
	Command []string
	Loader  string
}

type Build struct {
	IdleTimeout time.Duration
	EnvFiles    []string
}

// SetDefaults registers defaults and environment lookup on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyComposeCommand, []string{"docker", "compose"})
	v.SetDefault(KeyComposeLoader, LoaderCLI)
	v.SetDefault(KeyBuildIdle, defaultIdleTimeout)
	v.SetDefault(KeyBuildEnvFiles, []string{})
	v.SetDefault(KeyLogLevel, "info")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// SearchPaths lists the config files tried, in order, when none is given.
//
//	<workDir>/.livecompose.yaml
//	$XDG_CONFIG_HOME/livecompose/config.yaml
//	$HOME/.livecompose.yaml
func SearchPaths(workDir string) []string {
	return []string{
		filepath.Join(workDir, "."+appName+".yaml"),
		filepath.Join(xdg.ConfigHome, appName, "config.yaml"),
		filepath.Join(xdg.Home, "."+appName+".yaml"),
	}
}

// Load reads cfgFile, or the first existing file of SearchPaths, into v and
// resolves the configuration. Having no config file is not an error.
func Load(v *viper.Viper, filesystem fs.FileSystem, cfgFile, workDir string) (*Config, error) {
	if cfgFile == "" {
		for _, candidate := range SearchPaths(workDir) {
			exists, err := fs.FileExists(filesystem, candidate)
			if err != nil {
				return nil, err
			}
			if exists {
				cfgFile = candidate
				break
			}
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	}

	return decode(v, cfgFile)
}

func decode(v *viper.Viper, file string) (*Config, error) {
	cfg := &Config{
		Compose: Compose{
			Command: v.GetStringSlice(KeyComposeCommand),
			Loader:  strings.ToLower(v.GetString(KeyComposeLoader)),
		},
		Build: Build{
			IdleTimeout: v.GetDuration(KeyBuildIdle),
			EnvFiles:    v.GetStringSlice(KeyBuildEnvFiles),
		},
		File: file,
	}

	if len(cfg.Compose.Command) == 0 {
		return nil, fmt.Errorf("%s must not be empty", KeyComposeCommand)
	}
	switch cfg.Compose.Loader {
	case LoaderCLI, LoaderNative:
	default:
		return nil, fmt.Errorf("invalid %s %q, expected %q or %q", KeyComposeLoader, cfg.Compose.Loader, LoaderCLI, LoaderNative)
	}
	if cfg.Build.IdleTimeout < 0 {
		return nil, fmt.Errorf("%s must not be negative", KeyBuildIdle)
	}

	level, err := ParseLogLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	return cfg, nil
}

// ParseLogLevel accepts debug, info, warn and error.
func ParseLogLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", KeyLogLevel, value, err)
	}
	return level, nil
}
