package louvain

import (
	"context"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
)

// modularityGain is the change in modularity from inserting an unassigned
// node into targetComm, given its edge weight into that community.
func modularityGain(g *graph.Graph, comm *Community, node, targetComm int, edgeWeight, resolution float64) float64 {
	m2 := 2.0 * g.TotalWeight
	return 2.0 / m2 * (edgeWeight - resolution*comm.CommunityWeights[targetComm]*g.Degrees[node]/m2)
}

// OneLevel performs local moving until a sweep makes no move or the
// iteration bound is hit. Each node is removed from its community, every
// adjacent community (and its own) is scored, and the node joins the best
// one if it beats staying by more than MinModularityGain. Ties go to the
// lowest community id.
//
// The RNG is seeded from opts on every call, so identical graphs give
// identical results. Returns the total number of moves made.
func OneLevel(ctx context.Context, g *graph.Graph, comm *Community, opts Options, logger zerolog.Logger, tracker *MoveTracker) (int, error) {
	if g.TotalWeight == 0 {
		return 0, nil
	}

	rng := rand.New(rand.NewSource(opts.RandomSeed))
	nodes := make([]int, g.NumNodes)
	for i := range nodes {
		nodes[i] = i
	}

	totalMoves := 0
	for iteration := 0; iteration < opts.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return totalMoves, err
		}
		iterationMoves := 0

		if opts.Shuffle {
			rng.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })
		}

		for _, node := range nodes {
			oldComm := comm.NodeToCommunity[node]
			comms, weights := comm.neighborCommunities(g, node)

			comm.remove(g, node, weights[oldComm])

			stayGain := modularityGain(g, comm, node, oldComm, weights[oldComm], opts.Resolution)
			bestComm := oldComm
			bestGain := stayGain
			for _, targetComm := range comms {
				if targetComm == oldComm {
					continue
				}
				gain := modularityGain(g, comm, node, targetComm, weights[targetComm], opts.Resolution)
				if gain > bestGain || (gain == bestGain && targetComm < bestComm) {
					bestComm = targetComm
					bestGain = gain
				}
			}

			if bestComm != oldComm && bestGain-stayGain <= opts.MinModularityGain {
				bestComm = oldComm
			}

			comm.insert(g, node, bestComm, weights[bestComm])

			if bestComm != oldComm {
				iterationMoves++
				if tracker != nil {
					tracker.LogMove(node, oldComm, bestComm, bestGain-stayGain, comm.Modularity(g, opts.Resolution))
				}
			}
		}

		totalMoves += iterationMoves

		if opts.ProgressInterval > 0 && iteration%opts.ProgressInterval == 0 {
			logger.Debug().
				Int("iteration", iteration+1).
				Int("moves", iterationMoves).
				Float64("modularity", comm.Modularity(g, opts.Resolution)).
				Msg("Local optimization progress")
		}

		if iterationMoves == 0 {
			logger.Debug().Int("iteration", iteration+1).Msg("Converged: no moves")
			break
		}
	}

	return totalMoves, nil
}
