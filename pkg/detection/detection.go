// Package detection provides community detection methods to compare
// against native Louvain: gonum's Louvain, label propagation, Newman's
// leading eigenvector method and Leiden.
//
// Label propagation, spectral and Leiden also satisfy the multiscale oracle
// contract: refining a coarse level is a fresh partition of it, and the local
// move pass reports how many nodes a partition merges away.
package detection

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
)

var validate = validator.New()

// localMoves returns how many nodes of g the partition p merges into another
// node's community (N - K). Zero means aggregating by p is the identity.
func localMoves(g *graph.Graph, p graph.Partition) (int, error) {
	moved, err := p.Merged(g.NumNodes)
	if err != nil {
		return 0, fmt.Errorf("local move pass: %w", err)
	}
	return moved, nil
}
