// Package layout computes 2D positions for the vertices of a base graph.
// Coarser hierarchy levels never call a provider; their positions are
// derived from the level below.
package layout

import (
	"context"
	"fmt"
	"math"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
)

// Position is a 2D coordinate.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Provider computes one position per vertex, indexed by vertex id.
type Provider interface {
	Name() string
	Layout(ctx context.Context, g *graph.Graph) ([]Position, error)
}

// Extent is the coordinate range providers scale their output into.
const Extent = 100.0

// New returns the provider registered under name.
func New(name string, opts Options) (Provider, error) {
	switch name {
	case "force", "force-directed", "eades":
		return NewForceDirected(opts.Force), nil
	case "mds":
		return NewMDS(opts.MDS), nil
	case "circular", "circle":
		return Circular{}, nil
	default:
		return nil, fmt.Errorf("unknown layout %q", name)
	}
}

// Options gathers per-provider settings.
type Options struct {
	Force ForceOptions `yaml:"force"`
	MDS   MDSOptions   `yaml:"mds"`
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Force: DefaultForceOptions(),
		MDS:   MDSOptions{},
	}
}

// Bounds returns the bounding box of positions.
func Bounds(positions []Position) (minX, minY, maxX, maxY float64) {
	if len(positions) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range positions {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// scale maps positions into [-Extent, Extent] on each axis in place. A
// degenerate axis is centered.
func scale(positions []Position) {
	minX, minY, maxX, maxY := Bounds(positions)
	for i, p := range positions {
		positions[i] = Position{
			X: scaleAxis(p.X, minX, maxX),
			Y: scaleAxis(p.Y, minY, maxY),
		}
	}
}

func scaleAxis(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return -Extent + 2*Extent*(v-lo)/(hi-lo)
}
