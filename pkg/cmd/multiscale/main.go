// Package main provides the multiscale CLI: hierarchical community
// aggregation of a graph and a benchmark of detection methods.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/multiscale-clustering/pkg/config"
	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	cfgFile string
	cfg     = config.NewConfig()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "multiscale",
	Short: "Multiscale community aggregation for graph visualization",
	Long: `multiscale builds a hierarchy of progressively coarser graphs from an edge
list by detecting communities and collapsing each into a supernode. Every
level keeps positions, colors and sizes derived from the level below, and
can be rendered to images.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "YAML config file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console, json)")
	flags.Float64("resolution", 1.0, "Modularity resolution")
	flags.Int64("seed", 42, "Random seed")

	mustBind("logging.level", "log-level", flags.Lookup)
	mustBind("logging.format", "log-format", flags.Lookup)
	mustBind("algorithm.resolution", "resolution", flags.Lookup)
	mustBind("algorithm.random_seed", "seed", flags.Lookup)

	rootCmd.Version = Version
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return nil
	}
	if err := cfg.LoadFromFile(cfgFile); err != nil {
		return &configError{err: fmt.Errorf("load config %s: %w", cfgFile, err)}
	}
	return nil
}

// configError marks failures caused by configuration rather than data.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// renderFailure marks a run whose hierarchy succeeded but some images did
// not.
type renderFailure struct {
	err error
}

func (e *renderFailure) Error() string { return e.err.Error() }
func (e *renderFailure) Unwrap() error { return e.err }

func exitCode(err error) int {
	var cfgErr *configError
	var renderErr *renderFailure
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.Is(err, graph.ErrMalformedGraph), errors.Is(err, graph.ErrInvalidPartition), errors.Is(err, graph.ErrEmptyCommunity):
		return ExitDataError
	case errors.As(err, &renderErr):
		return ExitRenderError
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitError
	}
}
