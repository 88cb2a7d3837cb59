package layout

import (
	"context"
	"fmt"
	"math"

	gonumlayout "gonum.org/v1/gonum/graph/layout"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
)

// ForceOptions tunes the Eades spring embedder.
type ForceOptions struct {
	Updates   int     `yaml:"updates"`
	Repulsion float64 `yaml:"repulsion"`
	Rate      float64 `yaml:"rate"`
	Theta     float64 `yaml:"theta"`
}

// DefaultForceOptions returns gonum's suggested Eades parameters.
func DefaultForceOptions() ForceOptions {
	return ForceOptions{
		Updates:   50,
		Repulsion: 1,
		Rate:      0.05,
		Theta:     0.2,
	}
}

// ForceDirected is the Eades spring layout with Barnes-Hut repulsion,
// run through gonum's R2 optimizer. Self-loops do not influence it. Initial
// placement is random, so repeated runs differ.
type ForceDirected struct {
	opts ForceOptions
}

// NewForceDirected creates the provider; zero fields take defaults.
func NewForceDirected(opts ForceOptions) *ForceDirected {
	defaults := DefaultForceOptions()
	if opts.Updates <= 0 {
		opts.Updates = defaults.Updates
	}
	if opts.Repulsion <= 0 {
		opts.Repulsion = defaults.Repulsion
	}
	if opts.Rate <= 0 {
		opts.Rate = defaults.Rate
	}
	if opts.Theta <= 0 {
		opts.Theta = defaults.Theta
	}
	return &ForceDirected{opts: opts}
}

// Name identifies the provider.
func (f *ForceDirected) Name() string { return "force-directed" }

// Layout places g's vertices scaled into [-Extent, Extent].
func (f *ForceDirected) Layout(ctx context.Context, g *graph.Graph) ([]Position, error) {
	positions := make([]Position, g.NumNodes)
	if g.NumNodes <= 1 {
		return positions, nil
	}

	eades := gonumlayout.EadesR2{
		Updates:   f.opts.Updates,
		Repulsion: f.opts.Repulsion,
		Rate:      f.opts.Rate,
		Theta:     f.opts.Theta,
	}
	optimizer := gonumlayout.NewOptimizerR2(graph.ToGonum(g), eades.Update)
	for optimizer.Update() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	for i := range positions {
		v := optimizer.Coord2(int64(i))
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
			return nil, fmt.Errorf("force layout diverged at vertex %d", i)
		}
		positions[i] = Position{X: v.X, Y: v.Y}
	}
	scale(positions)
	return positions, nil
}
