package detection

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
)

// LabelPropagationOptions controls label propagation.
type LabelPropagationOptions struct {
	MaxIterations int   `yaml:"max_iterations" validate:"min=1"`
	RandomSeed    int64 `yaml:"random_seed"`
}

// LabelPropagation is asynchronous weighted label propagation. Every vertex
// repeatedly adopts the label carrying the most edge weight among its
// neighbors, keeping its own label on ties.
type LabelPropagation struct {
	opts   LabelPropagationOptions
	logger zerolog.Logger
}

// NewLabelPropagation validates opts and creates the method.
func NewLabelPropagation(opts LabelPropagationOptions, logger zerolog.Logger) (*LabelPropagation, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid label propagation options: %w", err)
	}
	return &LabelPropagation{
		opts:   opts,
		logger: logger.With().Str("method", "label-propagation").Logger(),
	}, nil
}

// Name identifies the method in reports.
func (lp *LabelPropagation) Name() string { return "label-propagation" }

// InitialPartition partitions g.
func (lp *LabelPropagation) InitialPartition(ctx context.Context, g *graph.Graph) (graph.Partition, error) {
	labels := graph.Singletons(g.NumNodes)
	rng := rand.New(rand.NewSource(lp.opts.RandomSeed))
	order := make([]int, g.NumNodes)
	for i := range order {
		order[i] = i
	}

	iterations := 0
	for ; iterations < lp.opts.MaxIterations; iterations++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		changes := 0
		for _, node := range order {
			if best := dominantLabel(g, labels, node); best != labels[node] {
				labels[node] = best
				changes++
			}
		}
		if changes == 0 {
			break
		}
	}

	p, k := labels.Relabel()
	lp.logger.Debug().Int("iterations", iterations).Int("communities", k).Msg("Label propagation completed")
	return p, nil
}

// dominantLabel returns the heaviest neighbor label of node. The current
// label wins ties, then the lowest label.
func dominantLabel(g *graph.Graph, labels graph.Partition, node int) int {
	neighbors, weights := g.GetNeighbors(node)
	totals := make(map[int]float64, len(neighbors))
	for i, neighbor := range neighbors {
		if neighbor == node {
			continue
		}
		totals[labels[neighbor]] += weights[i]
	}
	if len(totals) == 0 {
		return labels[node]
	}

	current := labels[node]
	best, bestWeight := current, totals[current]
	for label, w := range totals {
		if w > bestWeight || (w == bestWeight && best != current && label < best) {
			best, bestWeight = label, w
		}
	}
	return best
}

// RefinePartition partitions a coarse level.
func (lp *LabelPropagation) RefinePartition(ctx context.Context, g *graph.Graph) (graph.Partition, error) {
	return lp.InitialPartition(ctx, g)
}

// LocalMovePass reports how many nodes of g the partition p merges away.
func (lp *LabelPropagation) LocalMovePass(_ context.Context, g *graph.Graph, p graph.Partition) (int, error) {
	return localMoves(g, p)
}
