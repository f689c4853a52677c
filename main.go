package main

import (
	"log/slog"
	"os"

	"github.com/railwayapp/livecompose/cmd/livecompose"
)

func main() {
	slog.SetDefault(livecompose.Logger())

	slog.Debug("livecompose is running",
		"pid", os.Getpid(),
		"args", os.Args,
	)

	if err := livecompose.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
