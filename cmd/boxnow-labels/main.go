package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/boxnow-labels/pkg/cmd"
)

// version is the version of the application. It should be set at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := cmd.InitCommands(version)

	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		log.Debug().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
