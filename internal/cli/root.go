// Package cli exposes the devure commands: the API server and the one-shot
// maintenance jobs that share its configuration.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/devure/internal/app"
	"github.com/MrSnakeDoc/devure/internal/config"
	"github.com/MrSnakeDoc/devure/internal/logger"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "devure",
		Short: "Devure - content API for a portfolio site",
		Long: `Devure stores blog posts, projects and service pages in MongoDB
with their bodies mirrored to S3, and serves them over a JSON API.

Configuration is read from DEVURE_* environment variables.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newSeedCmd(),
		newSweepCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

// bootstrap loads the configuration and the logger shared by every command.
func bootstrap() (*config.Config, logger.Logger) {
	cfg := config.Load()
	return cfg, logger.New(cfg.LogLevel, cfg.PrettyLog)
}

// withRuntime opens the configured backend for the duration of fn.
func withRuntime(ctx context.Context, fn func(rt *app.Runtime) error) error {
	cfg, log := bootstrap()
	rt, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())
	return fn(rt)
}
