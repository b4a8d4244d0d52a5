package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/spherical/pdf-cropper/cmd/pdf-cropper/commands"
)

func main() {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := commands.Execute(ctx)
	commands.Report(err)
	stop()
	os.Exit(commands.ExitCode(err))
}
