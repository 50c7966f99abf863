package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mrlokans/booklog/internal/cli"
	"github.com/mrlokans/booklog/internal/config"
	"github.com/mrlokans/booklog/internal/logging"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	cfg := config.NewConfig()

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	runner := cli.NewRunner(cli.RunnerOpts{
		Config:  cfg,
		Logger:  logger.With(zap.String("commit", Commit)),
		Version: Version,
	})

	if err := runner.Command().Run(context.Background(), os.Args); err != nil {
		logger.Error("Command failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
