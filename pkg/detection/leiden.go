package detection

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
)

// LeidenOptions controls the Leiden method.
type LeidenOptions struct {
	Resolution float64 `yaml:"resolution" validate:"gt=0"`
	MaxLevels  int     `yaml:"max_levels" validate:"min=1"`
	RandomSeed int64   `yaml:"random_seed"`
}

// Leiden is the Leiden algorithm for modularity: fast local moving, a
// refinement step that only merges well-connected subsets inside each
// community, and aggregation by the refined partition. Refinement merges are
// chosen greedily rather than sampled.
type Leiden struct {
	opts   LeidenOptions
	logger zerolog.Logger
}

// NewLeiden validates opts and creates the method.
func NewLeiden(opts LeidenOptions, logger zerolog.Logger) (*Leiden, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid leiden options: %w", err)
	}
	return &Leiden{
		opts:   opts,
		logger: logger.With().Str("method", "leiden").Logger(),
	}, nil
}

// Name identifies the method in reports.
func (l *Leiden) Name() string { return "leiden" }

// InitialPartition partitions g.
func (l *Leiden) InitialPartition(ctx context.Context, g *graph.Graph) (graph.Partition, error) {
	if g.TotalWeight == 0 {
		return graph.Singletons(g.NumNodes), nil
	}

	rng := rand.New(rand.NewSource(l.opts.RandomSeed))
	current := g
	part := graph.Singletons(g.NumNodes)
	flat := graph.Singletons(g.NumNodes) // original vertex -> node of current

	levels := 0
	for ; levels < l.opts.MaxLevels; levels++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var k int
		part, k = l.moveNodesFast(current, part, rng).Relabel()
		if k == current.NumNodes {
			break
		}

		refined, rk := l.refine(current, part, rng).Relabel()
		if rk == current.NumNodes {
			break
		}

		coarse, err := graph.Coarsen(current, refined)
		if err != nil {
			return nil, fmt.Errorf("aggregation failed at level %d: %w", levels, err)
		}

		next := make(graph.Partition, rk)
		for v, r := range refined {
			next[r] = part[v]
		}
		for o, node := range flat {
			flat[o] = refined[node]
		}
		current, part = coarse, next
	}

	result := make(graph.Partition, g.NumNodes)
	for o, node := range flat {
		result[o] = part[node]
	}
	result, k := result.Relabel()
	l.logger.Debug().Int("levels", levels).Int("communities", k).Msg("Leiden completed")
	return result, nil
}

// moveNodesFast is queue-based local moving: only neighbors of moved nodes
// are revisited. A node may also leave for an empty community.
func (l *Leiden) moveNodesFast(g *graph.Graph, initial graph.Partition, rng *rand.Rand) graph.Partition {
	n := g.NumNodes
	m2 := 2 * g.TotalWeight
	res := l.opts.Resolution

	part := initial.Clone()
	tot := make([]float64, n)
	size := make([]int, n)
	for v, c := range part {
		tot[c] += g.Degrees[v]
		size[c]++
	}
	var free []int
	for c := n - 1; c >= 0; c-- {
		if size[c] == 0 {
			free = append(free, c)
		}
	}

	queue := rng.Perm(n)
	queued := make([]bool, n)
	for _, v := range queue {
		queued[v] = true
	}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		queued[v] = false

		old := part[v]
		weights := make(map[int]float64)
		neighbors, edgeWeights := g.GetNeighbors(v)
		for i, u := range neighbors {
			if u != v {
				weights[part[u]] += edgeWeights[i]
			}
		}

		tot[old] -= g.Degrees[v]
		size[old]--

		best := old
		bestGain := weights[old] - res*tot[old]*g.Degrees[v]/m2
		comms := make([]int, 0, len(weights))
		for c := range weights {
			comms = append(comms, c)
		}
		sort.Ints(comms)
		for _, c := range comms {
			if gain := weights[c] - res*tot[c]*g.Degrees[v]/m2; gain > bestGain {
				best, bestGain = c, gain
			}
		}
		if bestGain < 0 && size[old] > 0 && len(free) > 0 {
			best = free[len(free)-1]
			free = free[:len(free)-1]
		}

		tot[best] += g.Degrees[v]
		size[best]++
		part[v] = best
		if size[old] == 0 && best != old {
			free = append(free, old)
		}

		if best == old {
			continue
		}
		for _, u := range neighbors {
			if u != v && part[u] != best && !queued[u] {
				queued[u] = true
				queue = append(queue, u)
			}
		}
	}

	return part
}

// refine starts from singletons and, inside each community of part, merges
// well-connected singletons into the well-connected subset with the best
// non-negative modularity gain.
func (l *Leiden) refine(g *graph.Graph, part graph.Partition, rng *rand.Rand) graph.Partition {
	n := g.NumNodes
	m2 := 2 * g.TotalWeight
	res := l.opts.Resolution

	refined := graph.Singletons(n)
	rtot := make([]float64, n)
	rsize := make([]int, n)
	external := make([]float64, n) // weight from refined community to the rest of its community
	for v := 0; v < n; v++ {
		rtot[v] = g.Degrees[v]
		rsize[v] = 1
	}

	members := part.Members()
	commTot := make([]float64, len(members))
	for c, vs := range members {
		for _, v := range vs {
			commTot[c] += g.Degrees[v]
		}
	}
	for v := 0; v < n; v++ {
		neighbors, weights := g.GetNeighbors(v)
		for i, u := range neighbors {
			if u != v && part[u] == part[v] {
				external[v] += weights[i]
			}
		}
	}

	for c, vs := range members {
		order := make([]int, len(vs))
		copy(order, vs)
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for _, v := range order {
			if rsize[refined[v]] != 1 {
				continue
			}
			kv := g.Degrees[v]
			if external[refined[v]] < res*kv*(commTot[c]-kv)/m2 {
				continue
			}

			toRefined := make(map[int]float64)
			neighbors, weights := g.GetNeighbors(v)
			for i, u := range neighbors {
				if u != v && part[u] == c {
					toRefined[refined[u]] += weights[i]
				}
			}

			candidates := make([]int, 0, len(toRefined))
			for r := range toRefined {
				candidates = append(candidates, r)
			}
			sort.Ints(candidates)

			own := refined[v]
			best, bestGain := own, 0.0
			for _, r := range candidates {
				if r == own || external[r] < res*rtot[r]*(commTot[c]-rtot[r])/m2 {
					continue
				}
				if gain := toRefined[r] - res*kv*rtot[r]/m2; gain >= bestGain && (best == own || gain > bestGain) {
					best, bestGain = r, gain
				}
			}
			if best == own {
				continue
			}

			external[best] += external[own] - 2*toRefined[best]
			rtot[best] += kv
			rsize[best]++
			rsize[own] = 0
			rtot[own] = 0
			external[own] = 0
			refined[v] = best
		}
	}

	return refined
}

// RefinePartition partitions a coarse level.
func (l *Leiden) RefinePartition(ctx context.Context, g *graph.Graph) (graph.Partition, error) {
	return l.InitialPartition(ctx, g)
}

// LocalMovePass reports how many nodes of g the partition p merges away.
func (l *Leiden) LocalMovePass(_ context.Context, g *graph.Graph, p graph.Partition) (int, error) {
	return localMoves(g, p)
}
