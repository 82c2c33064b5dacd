package main

import (
	"context"
	"os"

	"TechWatch/internal/app"
	"TechWatch/internal/config"
	"TechWatch/internal/logging"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	command := "process"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	application := app.New(cfg, logger)

	if err := application.Run(ctx, command); err != nil {
		logger.Error("application stopped", "command", command, "error", err)
		os.Exit(1)
	}
}
