package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
	"github.com/gilchrisn/multiscale-clustering/pkg/layout"
	"github.com/gilchrisn/multiscale-clustering/pkg/multiscale"
	"github.com/gilchrisn/multiscale-clustering/pkg/output"
	"github.com/gilchrisn/multiscale-clustering/pkg/parser"
	"github.com/gilchrisn/multiscale-clustering/pkg/render"
)

func init() {
	flags := runCmd.Flags()
	flags.String("algorithm", "louvain", "Partition oracle: "+strings.Join(oracleNames, ", "))
	flags.String("layout", "force", "Base layout: force, mds, circular")
	flags.String("palette", "golden", "Community colors: golden, random")
	flags.Int("max-levels", 10, "Maximum number of coarsening levels")
	flags.Bool("concurrent", true, "Compute base partition and layout concurrently")
	flags.Bool("render", true, "Render every level to an image")
	flags.String("renderer", "raster", "Renderer: raster, graphviz")
	flags.String("format", "png", "Image format: png, or with graphviz also svg, dot")
	flags.String("render-dir", "images", "Directory for rendered images")
	flags.Bool("write-output", true, "Write hierarchy report files")
	flags.String("output-dir", "output", "Directory for hierarchy report files")
	flags.String("name", "", "Name prefix for written files (default: input file name)")
	flags.Bool("track-moves", false, "Log every Louvain move as JSON lines")
	flags.String("moves-file", "moves.jsonl", "Move tracking output file")

	mustBind("algorithm.name", "algorithm", flags.Lookup)
	mustBind("layout.name", "layout", flags.Lookup)
	mustBind("palette.name", "palette", flags.Lookup)
	mustBind("engine.max_levels", "max-levels", flags.Lookup)
	mustBind("engine.concurrent", "concurrent", flags.Lookup)
	mustBind("render.enabled", "render", flags.Lookup)
	mustBind("render.kind", "renderer", flags.Lookup)
	mustBind("render.format", "format", flags.Lookup)
	mustBind("render.dir", "render-dir", flags.Lookup)
	mustBind("output.enabled", "write-output", flags.Lookup)
	mustBind("output.dir", "output-dir", flags.Lookup)
	mustBind("output.prefix", "name", flags.Lookup)
	mustBind("analysis.track_moves", "track-moves", flags.Lookup)
	mustBind("analysis.output_file", "moves-file", flags.Lookup)

	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <edge-list>",
	Short: "Build and render the community hierarchy of a graph",
	Long: `Build the multiscale community hierarchy of an edge list.

Each line of the edge list is "<source> <target> [weight]". Lines starting
with # are comments.

Examples:
  multiscale run karate.txt
  multiscale run --algorithm leiden --layout mds --format svg --renderer graphviz graph.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := cfg.CreateLogger()
	path := args[0]

	parsed, err := parser.NewGraphParser(logger).ParseFile(path)
	if err != nil {
		return err
	}
	logger.Info().
		Str("file", path).
		Int("nodes", parsed.Graph.NumNodes).
		Int("edges", parsed.Stats.Edges).
		Int("self_loops_dropped", parsed.Stats.SelfLoopsDropped).
		Int("parallel_merged", parsed.Stats.ParallelMerged).
		Msg("Graph loaded")

	oracle, closer, err := newOracle(cfg.Algorithm(), cfg.MethodOptions(), logger)
	if err != nil {
		return err
	}
	defer closer.Close() // no-op once buildHierarchy has closed it

	provider, err := layout.New(cfg.LayoutName(), cfg.LayoutOptions())
	if err != nil {
		return &configError{err: err}
	}
	palette, err := multiscale.NewPalette(cfg.PaletteName(), cfg.PaletteSeed())
	if err != nil {
		return &configError{err: err}
	}
	engine, err := multiscale.New(oracle, provider, palette, cfg.EngineOptions(), logger)
	if err != nil {
		return &configError{err: err}
	}

	h, err := buildHierarchy(ctx, engine, parsed.Graph, closer)
	if err != nil {
		return err
	}

	name := cfg.OutputPrefix()
	if name == "" {
		name = baseName(path)
	}

	if cfg.OutputEnabled() {
		if err := output.NewFileWriter(logger).WriteAll(h, cfg.OutputDir(), name); err != nil {
			return err
		}
	}

	var renderErr error
	if cfg.RenderEnabled() {
		renderer, err := render.New(cfg.RenderOptions())
		if err != nil {
			return &configError{err: err}
		}
		paths, err := render.RenderHierarchy(ctx, renderer, h, cfg.RenderDir(), name, cfg.RenderFormat())
		logger.Info().Int("images", len(paths)).Str("dir", cfg.RenderDir()).Msg("Levels rendered")
		if err != nil {
			logger.Warn().Err(err).Msg("Some levels could not be rendered")
			renderErr = &renderFailure{err: err}
		}
	}

	printHierarchy(cmd.OutOrStdout(), h)
	return renderErr
}

// buildHierarchy runs the engine and then releases the oracle's resources.
// A close failure is reported when the run itself succeeded.
func buildHierarchy(ctx context.Context, engine *multiscale.Engine, g *graph.Graph, closer io.Closer) (*multiscale.Hierarchy, error) {
	h, err := engine.Run(ctx, g)
	closeErr := closer.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close move tracker: %w", closeErr)
	}
	return h, nil
}

func printHierarchy(w io.Writer, h *multiscale.Hierarchy) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LEVEL\tNODES\tEDGES\tCOMMUNITIES\tMODULARITY")
	for i := range h.Levels {
		level := &h.Levels[i]
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%.6f\n",
			level.Index, level.Graph.NumNodes, level.Graph.NumEdges(), level.NumCommunities(), level.Modularity)
	}
	tw.Flush()
	fmt.Fprintf(w, "stop reason: %s (%s, %s)\n", h.StopReason, h.Oracle, h.Elapsed.Round(time.Millisecond))
}

// baseName strips directory and extension from path.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
