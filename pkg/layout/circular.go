package layout

import (
	"context"
	"math"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
)

// Circular places vertices evenly on a circle in id order. It ignores edges
// and is fully deterministic.
type Circular struct{}

// Name identifies the provider.
func (Circular) Name() string { return "circular" }

// Layout places g's vertices.
func (Circular) Layout(ctx context.Context, g *graph.Graph) ([]Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	positions := make([]Position, g.NumNodes)
	if g.NumNodes == 1 {
		return positions, nil
	}
	for i := range positions {
		angle := 2 * math.Pi * float64(i) / float64(g.NumNodes)
		positions[i] = Position{X: Extent * math.Cos(angle), Y: Extent * math.Sin(angle)}
	}
	return positions, nil
}
