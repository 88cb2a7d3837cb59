package layout

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
)

func pathGraph(t *testing.T, n int) *graph.Graph {
	t.Helper()
	vertices := make([]int, n)
	var edges []graph.Edge
	for i := range vertices {
		vertices[i] = i
		if i > 0 {
			edges = append(edges, graph.Edge{From: i - 1, To: i, Weight: 1})
		}
	}
	g, err := graph.Build(vertices, edges)
	require.NoError(t, err)
	return g
}

func squareWithDiagonal(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Build([]int{0, 1, 2, 3}, []graph.Edge{
		{From: 0, To: 1, Weight: 1}, {From: 1, To: 2, Weight: 1},
		{From: 2, To: 3, Weight: 1}, {From: 3, To: 0, Weight: 1},
		{From: 0, To: 2, Weight: 1},
	})
	require.NoError(t, err)
	return g
}

func assertFiniteWithinExtent(t *testing.T, positions []Position) {
	t.Helper()
	for i, p := range positions {
		assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y), "vertex %d", i)
		assert.LessOrEqual(t, math.Abs(p.X), Extent+1e-9)
		assert.LessOrEqual(t, math.Abs(p.Y), Extent+1e-9)
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"force", "mds", "circular"} {
		p, err := New(name, DefaultOptions())
		require.NoError(t, err)
		assert.NotEmpty(t, p.Name())
	}
	_, err := New("spiral", DefaultOptions())
	assert.Error(t, err)
}

func TestCircular(t *testing.T) {
	positions, err := Circular{}.Layout(context.Background(), pathGraph(t, 4))
	require.NoError(t, err)
	require.Len(t, positions, 4)

	assert.InDelta(t, Extent, positions[0].X, 1e-9)
	assert.InDelta(t, 0, positions[0].Y, 1e-9)
	assert.InDelta(t, 0, positions[1].X, 1e-9)
	assert.InDelta(t, Extent, positions[1].Y, 1e-9)
	for _, p := range positions {
		assert.InDelta(t, Extent, math.Hypot(p.X, p.Y), 1e-9)
	}
}

func TestCircularSingleVertex(t *testing.T) {
	positions, err := Circular{}.Layout(context.Background(), graph.NewGraph(1))
	require.NoError(t, err)
	assert.Equal(t, []Position{{}}, positions)
}

func TestMDSPath(t *testing.T) {
	positions, err := NewMDS(MDSOptions{}).Layout(context.Background(), pathGraph(t, 5))
	require.NoError(t, err)
	require.Len(t, positions, 5)
	assertFiniteWithinExtent(t, positions)

	// A path embeds on a line: ends are the extremes of the first axis.
	assert.InDelta(t, Extent, math.Abs(positions[0].X), 1e-6)
	assert.InDelta(t, Extent, math.Abs(positions[4].X), 1e-6)
	assert.InDelta(t, 0, positions[2].X, 1e-6)
}

func TestMDSIsDeterministic(t *testing.T) {
	g := squareWithDiagonal(t)
	first, err := NewMDS(MDSOptions{}).Layout(context.Background(), g)
	require.NoError(t, err)
	second, err := NewMDS(MDSOptions{}).Layout(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMDSDisconnected(t *testing.T) {
	g, err := graph.Build([]int{0, 1, 2, 3}, []graph.Edge{
		{From: 0, To: 1, Weight: 1},
		{From: 2, To: 3, Weight: 1},
	})
	require.NoError(t, err)

	positions, err := NewMDS(MDSOptions{UnreachableDistance: 5}).Layout(context.Background(), g)
	require.NoError(t, err)
	assertFiniteWithinExtent(t, positions)

	near := math.Hypot(positions[0].X-positions[1].X, positions[0].Y-positions[1].Y)
	far := math.Hypot(positions[0].X-positions[2].X, positions[0].Y-positions[2].Y)
	assert.Less(t, near, far)
}

func TestForceDirected(t *testing.T) {
	g := squareWithDiagonal(t)
	positions, err := NewForceDirected(ForceOptions{Updates: 20}).Layout(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, positions, 4)
	assertFiniteWithinExtent(t, positions)
}

func TestForceDirectedDefaults(t *testing.T) {
	f := NewForceDirected(ForceOptions{})
	assert.Equal(t, DefaultForceOptions(), f.opts)

	positions, err := f.Layout(context.Background(), graph.NewGraph(1))
	require.NoError(t, err)
	assert.Equal(t, []Position{{}}, positions)
}

func TestLayoutCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMDS(MDSOptions{}).Layout(ctx, pathGraph(t, 3))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = Circular{}.Layout(ctx, pathGraph(t, 3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBounds(t *testing.T) {
	minX, minY, maxX, maxY := Bounds([]Position{{X: 1, Y: -2}, {X: -3, Y: 4}})
	assert.Equal(t, -3.0, minX)
	assert.Equal(t, -2.0, minY)
	assert.Equal(t, 1.0, maxX)
	assert.Equal(t, 4.0, maxY)
}
