package benchmark

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
	"github.com/gilchrisn/multiscale-clustering/pkg/layout"
	"github.com/gilchrisn/multiscale-clustering/pkg/multiscale"
	"github.com/gilchrisn/multiscale-clustering/pkg/parser"
	"github.com/gilchrisn/multiscale-clustering/pkg/render"
)

var validate = validator.New()

// Options configures a benchmark run.
type Options struct {
	// Methods to run; empty runs every registered method.
	Methods    []string `yaml:"methods"`
	Resolution float64  `yaml:"resolution" validate:"gt=0"`
	// Name prefixes rendered files: <Name>_<method>.png.
	Name      string `yaml:"name"`
	RenderDir string `yaml:"render_dir"`
	// MetricsFile, when set, receives the Prometheus text export.
	MetricsFile string `yaml:"metrics_file"`
}

// DefaultOptions returns benchmark defaults.
func DefaultOptions() Options {
	return Options{
		Resolution: 1.0,
		Name:       "graph",
	}
}

// Result is the outcome of one method.
type Result struct {
	Method      string          `json:"method" yaml:"method"`
	Duration    time.Duration   `json:"duration" yaml:"duration"`
	Modularity  float64         `json:"modularity" yaml:"modularity"`
	Communities int             `json:"communities" yaml:"communities"`
	Partition   graph.Partition `json:"-" yaml:"-"`
	Image       string          `json:"image,omitempty" yaml:"image,omitempty"`
	Error       string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report collects the results of one run.
type Report struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	Nodes     int       `json:"nodes" yaml:"nodes"`
	Edges     int       `json:"edges" yaml:"edges"`
	Results   []Result  `json:"results" yaml:"results"`
}

// Best returns the successful result with the highest modularity.
func (r *Report) Best() (Result, bool) {
	var best Result
	found := false
	for _, res := range r.Results {
		if res.Error != "" {
			continue
		}
		if !found || res.Modularity > best.Modularity {
			best = res
			found = true
		}
	}
	return best, found
}

// Runner executes methods against a graph.
type Runner struct {
	registry *Registry
	opts     Options
	logger   zerolog.Logger
	metrics  *Metrics

	renderer render.Renderer
	layout   layout.Provider
	palette  multiscale.Palette
}

// NewRunner validates opts and creates a runner.
func NewRunner(registry *Registry, opts Options, logger zerolog.Logger) (*Runner, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid benchmark options: %w", err)
	}
	if _, err := registry.Select(opts.Methods); err != nil {
		return nil, err
	}
	return &Runner{
		registry: registry,
		opts:     opts,
		logger:   logger.With().Str("component", "benchmark").Logger(),
		metrics:  NewMetrics(),
	}, nil
}

// WithRenderer makes the runner draw each method's partition into
// RenderDir.
func (r *Runner) WithRenderer(renderer render.Renderer, provider layout.Provider, palette multiscale.Palette) *Runner {
	r.renderer = renderer
	r.layout = provider
	r.palette = palette
	return r
}

// Metrics returns the runner's metrics.
func (r *Runner) Metrics() *Metrics {
	return r.metrics
}

// Run executes every selected method once. A failing method is recorded in
// its result and the run continues; only cancellation aborts.
func (r *Runner) Run(ctx context.Context, g *graph.Graph) (*Report, error) {
	methods, err := r.registry.Select(r.opts.Methods)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		Nodes:     g.NumNodes,
		Edges:     g.NumEdges(),
	}
	r.metrics.GraphNodesTotal.Set(float64(report.Nodes))
	r.metrics.GraphEdgesTotal.Set(float64(report.Edges))

	r.logger.Info().
		Str("run_id", report.RunID).
		Int("nodes", report.Nodes).
		Int("edges", report.Edges).
		Int("methods", len(methods)).
		Msg("Starting benchmark")

	var positions []layout.Position
	if r.renderer != nil && r.opts.RenderDir != "" {
		positions, err = r.layout.Layout(ctx, g)
		if err != nil {
			return nil, fmt.Errorf("layout for rendering: %w", err)
		}
		if err := os.MkdirAll(r.opts.RenderDir, 0o755); err != nil {
			return nil, fmt.Errorf("create render directory: %w", err)
		}
	}

	for _, m := range methods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res := r.runMethod(ctx, m, g)
		if res.Error == "" && positions != nil {
			res.Image = r.renderResult(ctx, g, res, positions)
		}
		r.metrics.Observe(res)
		report.Results = append(report.Results, res)
	}

	if r.opts.MetricsFile != "" {
		if err := r.metrics.WriteTextfile(r.opts.MetricsFile); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (r *Runner) runMethod(ctx context.Context, m Method, g *graph.Graph) Result {
	res := Result{Method: m.Name()}

	start := time.Now()
	p, err := m.InitialPartition(ctx, g)
	res.Duration = time.Since(start)
	if err == nil {
		err = p.Validate(g.NumNodes)
	}
	if err != nil {
		res.Error = err.Error()
		r.logger.Error().Err(err).Str("method", res.Method).Msg("Method failed")
		return res
	}

	p, k := p.Relabel()
	res.Partition = p
	res.Communities = k
	res.Modularity = graph.Modularity(g, p, r.opts.Resolution)

	r.logger.Info().
		Str("method", res.Method).
		Dur("duration", res.Duration).
		Float64("modularity", res.Modularity).
		Int("communities", res.Communities).
		Msg("Method completed")
	return res
}

// renderResult draws one method's partition. Failures are logged and
// leave the result without an image.
func (r *Runner) renderResult(ctx context.Context, g *graph.Graph, res Result, positions []layout.Position) string {
	attrs, err := multiscale.BaseAttributes(positions, res.Partition, r.palette.Colors(res.Communities))
	if err != nil {
		r.logger.Warn().Err(err).Str("method", res.Method).Msg("Cannot render method result")
		return ""
	}
	level := &multiscale.Level{
		Graph:      g,
		Partition:  res.Partition,
		Attributes: attrs,
		Modularity: res.Modularity,
	}

	path := filepath.Join(r.opts.RenderDir, fmt.Sprintf("%s_%s.png", r.opts.Name, res.Method))
	if err := r.renderer.Render(ctx, level, path); err != nil {
		r.logger.Warn().Err(err).Str("method", res.Method).Str("path", path).Msg("Render failed")
		return ""
	}
	return path
}

// LoadGraph parses the edge list at path.
func LoadGraph(path string, logger zerolog.Logger) (*graph.Graph, error) {
	result, err := parser.NewGraphParser(logger).ParseFile(path)
	if err != nil {
		return nil, err
	}
	return result.Graph, nil
}
