package layout

import (
	"context"
	"fmt"

	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/mds"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
)

// MDSOptions tunes classical MDS.
type MDSOptions struct {
	// UnreachableDistance is used between disconnected vertices; 0 means
	// the vertex count.
	UnreachableDistance float64 `yaml:"unreachable_distance"`
}

// MDS is classical (Torgerson) multidimensional scaling of BFS hop
// distances, keeping the two leading dimensions. Deterministic.
type MDS struct {
	opts MDSOptions
}

// NewMDS creates the provider.
func NewMDS(opts MDSOptions) *MDS {
	return &MDS{opts: opts}
}

// Name identifies the provider.
func (m *MDS) Name() string { return "mds" }

// Layout places g's vertices scaled into [-Extent, Extent].
func (m *MDS) Layout(ctx context.Context, g *graph.Graph) ([]Position, error) {
	n := g.NumNodes
	positions := make([]Position, n)
	if n <= 1 {
		return positions, nil
	}

	dist, err := m.distanceMatrix(ctx, g)
	if err != nil {
		return nil, err
	}

	var coords mat.Dense
	k, _ := mds.TorgersonScaling(&coords, make([]float64, n), dist)
	if k == 0 {
		return nil, fmt.Errorf("no positive eigenvalues found in MDS")
	}

	_, cols := coords.Dims()
	for i := range positions {
		positions[i].X = coords.At(i, 0)
		if cols > 1 {
			positions[i].Y = coords.At(i, 1)
		}
	}
	scale(positions)
	return positions, nil
}

// distanceMatrix computes hop distances between all vertex pairs.
func (m *MDS) distanceMatrix(ctx context.Context, g *graph.Graph) (*mat.SymDense, error) {
	n := g.NumNodes
	unreachable := m.opts.UnreachableDistance
	if unreachable <= 0 {
		unreachable = float64(n)
	}

	gg := graph.ToGonum(g)
	dist := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row := make([]float64, n)
		for j := range row {
			row[j] = unreachable
		}
		var bfs traverse.BreadthFirst
		bfs.Walk(gg, simple.Node(int64(i)), func(node gonumgraph.Node, depth int) bool {
			row[node.ID()] = float64(depth)
			return false
		})

		for j := i; j < n; j++ {
			dist.SetSym(i, j, row[j])
		}
	}
	return dist, nil
}
