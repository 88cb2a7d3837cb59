package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/multiscale-clustering/pkg/benchmark"
	"github.com/gilchrisn/multiscale-clustering/pkg/layout"
	"github.com/gilchrisn/multiscale-clustering/pkg/multiscale"
	"github.com/gilchrisn/multiscale-clustering/pkg/render"
)

var benchReportFile string

func init() {
	flags := benchCmd.Flags()
	flags.StringSlice("methods", nil, "Methods to run (default: all)")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file")
	flags.Bool("render", true, "Render each method's partition")
	flags.String("render-dir", "images", "Directory for rendered images")
	flags.String("layout", "force", "Layout used for rendering: force, mds, circular")
	flags.StringVar(&benchReportFile, "report", "", "Write the report as YAML to this file")

	mustBind("benchmark.methods", "methods", flags.Lookup)
	mustBind("benchmark.metrics_file", "metrics-file", flags.Lookup)
	mustBind("benchmark.render", "render", flags.Lookup)

	rootCmd.AddCommand(benchCmd)
}

var benchCmd = &cobra.Command{
	Use:   "bench <edge-list>",
	Short: "Compare community detection methods on one graph",
	Long: `Run every selected community detection method once on an edge list and
report wall time, modularity and community count.

Examples:
  multiscale bench karate.txt
  multiscale bench --methods louvain,leiden,spectral --metrics-file bench.prom graph.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runBench,
}

func runBench(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := cfg.CreateLogger()
	path := args[0]

	// The run command binds the same keys; bench flags win when given.
	if f := cmd.Flags().Lookup("render-dir"); f.Changed {
		cfg.Set("render.dir", f.Value.String())
	}
	if f := cmd.Flags().Lookup("layout"); f.Changed {
		cfg.Set("layout.name", f.Value.String())
	}

	g, err := benchmark.LoadGraph(path, logger)
	if err != nil {
		return err
	}

	registry, err := benchmark.NewDefaultRegistry(cfg.MethodOptions(), logger)
	if err != nil {
		return &configError{err: err}
	}
	opts := cfg.BenchmarkOptions(baseName(path))
	runner, err := benchmark.NewRunner(registry, opts, logger)
	if err != nil {
		return &configError{err: err}
	}

	if opts.RenderDir != "" {
		renderer, err := render.New(cfg.RenderOptions())
		if err != nil {
			return &configError{err: err}
		}
		provider, err := layout.New(cfg.LayoutName(), cfg.LayoutOptions())
		if err != nil {
			return &configError{err: err}
		}
		palette, err := multiscale.NewPalette(cfg.PaletteName(), cfg.PaletteSeed())
		if err != nil {
			return &configError{err: err}
		}
		runner.WithRenderer(renderer, provider, palette)
	}

	report, err := runner.Run(ctx, g)
	if err != nil {
		return err
	}

	if benchReportFile != "" {
		if err := writeReport(benchReportFile, report); err != nil {
			return err
		}
	}

	printReport(cmd.OutOrStdout(), report)
	return nil
}

func writeReport(path string, report *benchmark.Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func printReport(w io.Writer, report *benchmark.Report) {
	fmt.Fprintf(w, "run %s: %d nodes, %d edges\n", report.RunID, report.Nodes, report.Edges)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tTIME\tMODULARITY\tCOMMUNITIES\tSTATUS")
	for _, res := range report.Results {
		status := "ok"
		if res.Error != "" {
			status = "error: " + strings.SplitN(res.Error, "\n", 2)[0]
		}
		fmt.Fprintf(tw, "%s\t%s\t%.6f\t%d\t%s\n", res.Method, res.Duration, res.Modularity, res.Communities, status)
	}
	tw.Flush()

	if best, ok := report.Best(); ok {
		fmt.Fprintf(w, "best: %s (modularity %.6f)\n", best.Method, best.Modularity)
	}
}
