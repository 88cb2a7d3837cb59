// Package multiscale builds a hierarchy of progressively coarser graphs by
// repeatedly collapsing communities into supernodes, carrying positions,
// colors and sizes from each level to the next.
package multiscale

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
	"github.com/gilchrisn/multiscale-clustering/pkg/layout"
)

var validate = validator.New()

// Oracle is a community detection algorithm driven level by level.
type Oracle interface {
	Name() string
	// InitialPartition partitions the base graph.
	InitialPartition(ctx context.Context, g *graph.Graph) (graph.Partition, error)
	// RefinePartition partitions a freshly coarsened graph.
	RefinePartition(ctx context.Context, g *graph.Graph) (graph.Partition, error)
	// LocalMovePass reports how many nodes of g the partition p moved out of
	// their singleton community. Zero means coarsening g by p would not
	// reduce it.
	LocalMovePass(ctx context.Context, g *graph.Graph, p graph.Partition) (int, error)
}

// Options configures the engine.
type Options struct {
	MaxLevels  int     `yaml:"max_levels" validate:"min=1"`
	Concurrent bool    `yaml:"concurrent"`
	Resolution float64 `yaml:"resolution" validate:"gt=0"` // used for reported modularity only
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		MaxLevels:  10,
		Concurrent: true,
		Resolution: 1.0,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid engine options: %w", err)
	}
	return nil
}

// Engine runs the aggregation loop.
type Engine struct {
	oracle  Oracle
	layout  layout.Provider
	palette Palette
	opts    Options
	logger  zerolog.Logger
}

// New creates an engine.
func New(oracle Oracle, provider layout.Provider, palette Palette, opts Options, logger zerolog.Logger) (*Engine, error) {
	if oracle == nil || provider == nil || palette == nil {
		return nil, fmt.Errorf("oracle, layout and palette are required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		oracle:  oracle,
		layout:  provider,
		palette: palette,
		opts:    opts,
		logger:  logger.With().Str("component", "multiscale").Logger(),
	}, nil
}

// Run builds the hierarchy for g. Hitting MaxLevels is not an error: the
// partial hierarchy is returned with StopLevelBound.
func (e *Engine) Run(ctx context.Context, g *graph.Graph) (*Hierarchy, error) {
	if g == nil || g.NumNodes == 0 {
		return nil, &graph.MalformedGraphError{Reason: "graph has no vertices"}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	e.logger.Info().
		Str("oracle", e.oracle.Name()).
		Str("layout", e.layout.Name()).
		Int("nodes", g.NumNodes).
		Int("edges", g.NumEdges()).
		Int("max_levels", e.opts.MaxLevels).
		Msg("Starting multiscale aggregation")

	base, err := e.baseLevel(ctx, g)
	if err != nil {
		return nil, err
	}

	h := &Hierarchy{
		Levels: []Level{*base},
		Oracle: e.oracle.Name(),
		Layout: e.layout.Name(),
	}
	h.StopReason = StopLevelBound

	for l := 1; l <= e.opts.MaxLevels; l++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prev := &h.Levels[l-1]
		moves, err := e.oracle.LocalMovePass(ctx, prev.Graph, prev.Partition)
		if err != nil {
			return nil, fmt.Errorf("local move pass at level %d: %w", l-1, err)
		}
		if moves == 0 {
			h.StopReason = StopConverged
			break
		}

		coarse, err := graph.Coarsen(prev.Graph, prev.Partition)
		if err != nil {
			return nil, fmt.Errorf("coarsen level %d: %w", l-1, err)
		}
		if coarse.NumNodes >= prev.Graph.NumNodes {
			h.StopReason = StopNoCompression
			break
		}

		attrs, members, err := DeriveAttributes(prev.Attributes, prev.Partition)
		if err != nil {
			return nil, fmt.Errorf("derive attributes for level %d: %w", l, err)
		}

		p, err := e.oracle.RefinePartition(ctx, coarse)
		if err != nil {
			return nil, fmt.Errorf("refine partition at level %d: %w", l, err)
		}
		p, err = normalize(p, coarse.NumNodes)
		if err != nil {
			return nil, fmt.Errorf("refine partition at level %d: %w", l, err)
		}

		h.Levels = append(h.Levels, Level{
			Index:      l,
			Graph:      coarse,
			Partition:  p,
			Attributes: attrs,
			Members:    members,
			Modularity: graph.Modularity(coarse, p, e.opts.Resolution),
		})

		e.logger.Debug().
			Int("level", l).
			Int("moves", moves).
			Int("nodes", coarse.NumNodes).
			Int("communities", p.NumCommunities()).
			Float64("modularity", h.Levels[l].Modularity).
			Msg("Level built")
	}

	h.Elapsed = time.Since(start)
	if h.StopReason == StopLevelBound {
		e.logger.Warn().
			Int("max_levels", e.opts.MaxLevels).
			Int("nodes", h.Coarsest().Graph.NumNodes).
			Msg("Level bound reached before convergence, returning partial hierarchy")
	}
	e.logger.Info().
		Int("levels", h.NumLevels()).
		Str("stop_reason", string(h.StopReason)).
		Dur("elapsed", h.Elapsed).
		Msg("Multiscale aggregation completed")

	return h, nil
}

// baseLevel computes the level 0 partition and layout, concurrently when
// configured.
func (e *Engine) baseLevel(ctx context.Context, g *graph.Graph) (*Level, error) {
	var (
		p         graph.Partition
		positions []layout.Position
	)
	partition := func(ctx context.Context) error {
		var err error
		p, err = e.oracle.InitialPartition(ctx, g)
		if err != nil {
			return fmt.Errorf("initial partition: %w", err)
		}
		return nil
	}
	place := func(ctx context.Context) error {
		var err error
		positions, err = e.layout.Layout(ctx, g)
		if err != nil {
			return fmt.Errorf("layout: %w", err)
		}
		return nil
	}

	if e.opts.Concurrent {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.Go(func() error { return partition(egCtx) })
		eg.Go(func() error { return place(egCtx) })
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	} else {
		if err := partition(ctx); err != nil {
			return nil, err
		}
		if err := place(ctx); err != nil {
			return nil, err
		}
	}

	p, err := normalize(p, g.NumNodes)
	if err != nil {
		return nil, fmt.Errorf("initial partition: %w", err)
	}
	attrs, err := BaseAttributes(positions, p, e.palette.Colors(p.NumCommunities()))
	if err != nil {
		return nil, err
	}

	return &Level{
		Index:      0,
		Graph:      g,
		Partition:  p,
		Attributes: attrs,
		Modularity: graph.Modularity(g, p, e.opts.Resolution),
	}, nil
}

// normalize validates an oracle partition and relabels it contiguously.
func normalize(p graph.Partition, n int) (graph.Partition, error) {
	if err := p.Validate(n); err != nil {
		return nil, err
	}
	relabeled, _ := p.Relabel()
	return relabeled, nil
}
