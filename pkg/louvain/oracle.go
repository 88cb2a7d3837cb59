package louvain

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
)

// Oracle partitions graphs with Louvain local moving. It is safe for
// sequential reuse across hierarchy levels; every pass is seeded afresh.
type Oracle struct {
	opts    Options
	logger  zerolog.Logger
	tracker *MoveTracker
}

// New validates opts and returns an oracle.
func New(opts Options, logger zerolog.Logger) (*Oracle, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Oracle{
		opts:   opts,
		logger: logger.With().Str("oracle", "louvain").Logger(),
	}, nil
}

// WithTracker records every move made by later passes to tracker.
func (o *Oracle) WithTracker(tracker *MoveTracker) *Oracle {
	o.tracker = tracker
	return o
}

// Name identifies the oracle in reports.
func (o *Oracle) Name() string { return "louvain" }

// Options returns the oracle's settings.
func (o *Oracle) Options() Options { return o.opts }

// InitialPartition runs one local moving pass from singletons.
func (o *Oracle) InitialPartition(ctx context.Context, g *graph.Graph) (graph.Partition, error) {
	p, _, err := o.pass(ctx, g)
	return p, err
}

// RefinePartition partitions a coarse level. It is the same pass as
// InitialPartition; the coarse graph carries the previous level's structure.
func (o *Oracle) RefinePartition(ctx context.Context, g *graph.Graph) (graph.Partition, error) {
	p, _, err := o.pass(ctx, g)
	return p, err
}

// LocalMovePass reports the moves p embodies on g: the number of nodes that
// left a singleton community to join another node. Zero means aggregating g
// by p would change nothing.
func (o *Oracle) LocalMovePass(_ context.Context, g *graph.Graph, p graph.Partition) (int, error) {
	moved, err := p.Merged(g.NumNodes)
	if err != nil {
		return 0, fmt.Errorf("local move pass: %w", err)
	}
	return moved, nil
}

// pass returns the relabeled partition and how many nodes ended outside
// their starting community.
func (o *Oracle) pass(ctx context.Context, g *graph.Graph) (graph.Partition, int, error) {
	start := time.Now()
	comm := NewCommunity(g)
	o.tracker.StartPass()

	moves, err := OneLevel(ctx, g, comm, o.opts, o.logger, o.tracker)
	if err != nil {
		return nil, 0, fmt.Errorf("local optimization failed: %w", err)
	}

	moved := 0
	for node, c := range comm.NodeToCommunity {
		if c != node {
			moved++
		}
	}

	p, k := comm.Partition()
	o.logger.Debug().
		Int("nodes", g.NumNodes).
		Int("communities", k).
		Int("moves", moves).
		Int("moved", moved).
		Float64("modularity", comm.Modularity(g, o.opts.Resolution)).
		Dur("elapsed", time.Since(start)).
		Msg("Local moving pass completed")

	return p, moved, nil
}

// BestPartition runs full multi-level Louvain on g: local moving, then
// aggregation, repeated until a pass moves nothing or MaxLevels is reached.
// The partition of the coarsest level is projected back onto g.
func (o *Oracle) BestPartition(ctx context.Context, g *graph.Graph) (graph.Partition, error) {
	current := g
	flat := graph.Singletons(g.NumNodes)

	for level := 0; level < o.opts.MaxLevels; level++ {
		p, moved, err := o.pass(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", level, err)
		}
		if moved == 0 {
			break
		}

		for node, super := range flat {
			flat[node] = p[super]
		}

		coarse, err := graph.Coarsen(current, p)
		if err != nil {
			return nil, fmt.Errorf("aggregation failed at level %d: %w", level, err)
		}
		if coarse.NumNodes >= current.NumNodes {
			break
		}
		current = coarse

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	flat, k := flat.Relabel()
	o.logger.Info().
		Int("nodes", g.NumNodes).
		Int("communities", k).
		Float64("modularity", graph.Modularity(g, flat, o.opts.Resolution)).
		Msg("Louvain algorithm completed")
	return flat, nil
}

// Multilevel adapts BestPartition to the single-call partitioner shape used
// for benchmarking.
type Multilevel struct {
	*Oracle
}

// Name identifies the method in reports.
func (m Multilevel) Name() string { return "louvain-multilevel" }

// InitialPartition returns the multi-level partition.
func (m Multilevel) InitialPartition(ctx context.Context, g *graph.Graph) (graph.Partition, error) {
	return m.BestPartition(ctx, g)
}
