// Package cli defines the booklog command tree: the HTTP server plus the
// maintenance commands that work directly against the database.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/mrlokans/booklog/internal/config"
	"github.com/mrlokans/booklog/internal/entrypoint"
)

// Runner holds the dependencies of every command and provides one method per
// command action.
type Runner struct {
	config  *config.Config
	logger  *zap.Logger
	output  io.Writer
	version string
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *config.Config
	Logger  *zap.Logger
	Output  io.Writer
	Version string
}

// NewRunner creates a new Runner with the provided configuration.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = config.NewConfig()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	return &Runner{
		config:  opts.Config,
		logger:  opts.Logger,
		output:  opts.Output,
		version: opts.Version,
	}
}

// open builds the application for a one-shot command. The task queue stays
// closed, so reconciliation runs inline.
func (r *Runner) open(ctx context.Context) (*entrypoint.App, error) {
	return entrypoint.Open(ctx, r.config, r.logger, entrypoint.Options{})
}

func (r *Runner) writeJSON(data any) error {
	output, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeLine(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format+"\n", args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
