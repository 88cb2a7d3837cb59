package multiscale

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
	"github.com/gilchrisn/multiscale-clustering/pkg/layout"
	"github.com/gilchrisn/multiscale-clustering/pkg/louvain"
)

// scriptedOracle replays fixed answers. Moves past the end of the script
// report zero.
type scriptedOracle struct {
	initial   graph.Partition
	refine    func(g *graph.Graph) graph.Partition
	moves     []int
	calls     int
	moveErr   error
	refineErr error
}

func (o *scriptedOracle) Name() string { return "scripted" }

func (o *scriptedOracle) InitialPartition(_ context.Context, g *graph.Graph) (graph.Partition, error) {
	if o.initial == nil {
		return graph.Singletons(g.NumNodes), nil
	}
	return o.initial.Clone(), nil
}

func (o *scriptedOracle) RefinePartition(_ context.Context, g *graph.Graph) (graph.Partition, error) {
	if o.refineErr != nil {
		return nil, o.refineErr
	}
	if o.refine == nil {
		return graph.Singletons(g.NumNodes), nil
	}
	return o.refine(g), nil
}

func (o *scriptedOracle) LocalMovePass(_ context.Context, _ *graph.Graph, _ graph.Partition) (int, error) {
	if o.moveErr != nil {
		return 0, o.moveErr
	}
	defer func() { o.calls++ }()
	if o.calls < len(o.moves) {
		return o.moves[o.calls], nil
	}
	return 0, nil
}

// pairs merges vertices 2i and 2i+1.
func pairs(g *graph.Graph) graph.Partition {
	p := make(graph.Partition, g.NumNodes)
	for v := range p {
		p[v] = v / 2
	}
	return p
}

func always(n, moves int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = moves
	}
	return out
}

func fourCycle(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Build([]int{0, 1, 2, 3}, []graph.Edge{
		{From: 0, To: 1, Weight: 1}, {From: 1, To: 2, Weight: 1},
		{From: 2, To: 3, Weight: 1}, {From: 3, To: 0, Weight: 1},
	})
	require.NoError(t, err)
	return g
}

func path(t *testing.T, n int) *graph.Graph {
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

func cliqueRing(t *testing.T, k, s int) *graph.Graph {
	t.Helper()
	vertices := make([]int, k*s)
	for i := range vertices {
		vertices[i] = i
	}
	var edges []graph.Edge
	for c := 0; c < k; c++ {
		base := c * s
		for i := 0; i < s; i++ {
			for j := i + 1; j < s; j++ {
				edges = append(edges, graph.Edge{From: base + i, To: base + j, Weight: 1})
			}
		}
		edges = append(edges, graph.Edge{From: base, To: ((c + 1) % k) * s, Weight: 1})
	}
	g, err := graph.Build(vertices, edges)
	require.NoError(t, err)
	return g
}

func newEngine(t *testing.T, oracle Oracle, opts Options) *Engine {
	t.Helper()
	e, err := New(oracle, layout.Circular{}, GoldenPalette{Saturation: 0.6, Value: 0.9}, opts, zerolog.Nop())
	require.NoError(t, err)
	return e
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	tests := []struct {
		name string
		opts Options
	}{
		{"zero levels", Options{MaxLevels: 0, Resolution: 1}},
		{"zero resolution", Options{MaxLevels: 3, Resolution: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.opts.Validate())
		})
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(nil, layout.Circular{}, RandomPalette{}, DefaultOptions(), zerolog.Nop())
	assert.Error(t, err)
	_, err = New(&scriptedOracle{}, layout.Circular{}, RandomPalette{}, Options{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestRunImmediateConvergence(t *testing.T) {
	for _, concurrent := range []bool{true, false} {
		oracle := &scriptedOracle{initial: graph.Partition{0, 0, 1, 1}}
		opts := DefaultOptions()
		opts.Concurrent = concurrent

		h, err := newEngine(t, oracle, opts).Run(context.Background(), fourCycle(t))
		require.NoError(t, err)

		assert.Equal(t, 1, h.NumLevels())
		assert.Equal(t, StopConverged, h.StopReason)
		assert.Equal(t, 1, oracle.calls)
		assert.Nil(t, h.Levels[0].Members)
		assert.Equal(t, 4, h.Levels[0].TotalSize())
	}
}

func TestRunFourCycle(t *testing.T) {
	oracle := &scriptedOracle{initial: graph.Partition{0, 0, 1, 1}, moves: []int{2}}
	g := fourCycle(t)

	h, err := newEngine(t, oracle, DefaultOptions()).Run(context.Background(), g)
	require.NoError(t, err)
	require.Equal(t, 2, h.NumLevels())
	assert.Equal(t, StopConverged, h.StopReason)

	coarse := h.Levels[1].Graph
	assert.Equal(t, 2, coarse.NumNodes)
	assert.Equal(t, 2.0, coarse.GetEdgeWeight(0, 1))
	assert.Equal(t, 1.0, coarse.SelfLoop(0))
	assert.Equal(t, 1.0, coarse.SelfLoop(1))
	assert.Equal(t, g.TotalWeight, coarse.TotalWeight)

	assert.Equal(t, [][]int{{0, 1}, {2, 3}}, h.Levels[1].Members)
	for _, a := range h.Levels[1].Attributes {
		assert.Equal(t, 2, a.Size)
	}
	assert.InDelta(t, h.Levels[0].Modularity, graph.Modularity(coarse, graph.Singletons(2), 1), 1e-12)
}

func TestRunRelabelsOraclePartitions(t *testing.T) {
	oracle := &scriptedOracle{
		initial: graph.Partition{7, 7, 3, 3},
		moves:   []int{1},
		refine:  func(g *graph.Graph) graph.Partition { return graph.Partition{4, 9} },
	}
	h, err := newEngine(t, oracle, DefaultOptions()).Run(context.Background(), fourCycle(t))
	require.NoError(t, err)

	assert.Equal(t, graph.Partition{0, 0, 1, 1}, h.Levels[0].Partition)
	assert.Equal(t, graph.Partition{0, 1}, h.Levels[1].Partition)
	for _, level := range h.Levels {
		assert.True(t, level.Partition.IsContiguous())
	}
}

func TestRunLevelBound(t *testing.T) {
	oracle := &scriptedOracle{initial: pairs(path(t, 16)), moves: always(100, 1), refine: pairs}
	opts := DefaultOptions()
	opts.MaxLevels = 2

	h, err := newEngine(t, oracle, opts).Run(context.Background(), path(t, 16))
	require.NoError(t, err)

	assert.Equal(t, StopLevelBound, h.StopReason)
	require.Equal(t, 3, h.NumLevels())
	assert.Equal(t, []int{16, 8, 4}, []int{
		h.Levels[0].Graph.NumNodes, h.Levels[1].Graph.NumNodes, h.Levels[2].Graph.NumNodes,
	})
}

func TestRunNoCompression(t *testing.T) {
	oracle := &scriptedOracle{moves: always(100, 3)}

	h, err := newEngine(t, oracle, DefaultOptions()).Run(context.Background(), path(t, 5))
	require.NoError(t, err)

	assert.Equal(t, StopNoCompression, h.StopReason)
	assert.Equal(t, 1, h.NumLevels())
}

func TestRunIdempotentTermination(t *testing.T) {
	oracle := &scriptedOracle{initial: pairs(path(t, 8)), moves: []int{1, 1, 0}, refine: pairs}

	h, err := newEngine(t, oracle, DefaultOptions()).Run(context.Background(), path(t, 8))
	require.NoError(t, err)

	assert.Equal(t, StopConverged, h.StopReason)
	assert.Equal(t, 3, h.NumLevels())
	assert.Equal(t, 3, oracle.calls, "no pass after the zero-move report")
}

func TestRunWithLouvainFourCycle(t *testing.T) {
	opts := louvain.DefaultOptions()
	opts.Shuffle = false
	oracle, err := louvain.New(opts, zerolog.Nop())
	require.NoError(t, err)
	g := fourCycle(t)

	h, err := newEngine(t, oracle, DefaultOptions()).Run(context.Background(), g)
	require.NoError(t, err)

	require.Equal(t, 2, h.NumLevels())
	assert.Equal(t, StopConverged, h.StopReason)
	assert.Equal(t, 2, h.Levels[0].Partition.NumCommunities())
	assert.Equal(t, 2, h.Levels[1].Graph.NumNodes)
	assert.Equal(t, []int{2, 2}, []int{h.Levels[1].Attributes[0].Size, h.Levels[1].Attributes[1].Size})
	assert.Equal(t, graph.Singletons(2), h.Levels[1].Partition)
}

func TestRunWithLouvain(t *testing.T) {
	oracle, err := louvain.New(louvain.DefaultOptions(), zerolog.Nop())
	require.NoError(t, err)
	g := cliqueRing(t, 6, 5)

	h, err := newEngine(t, oracle, DefaultOptions()).Run(context.Background(), g)
	require.NoError(t, err)
	require.GreaterOrEqual(t, h.NumLevels(), 2)
	assert.NotEqual(t, StopLevelBound, h.StopReason)
	assert.Equal(t, 6, h.Levels[1].Graph.NumNodes)

	// The coarsest level is never collapsible any further.
	coarsest := h.Coarsest()
	assert.Equal(t, coarsest.Graph.NumNodes, coarsest.Partition.NumCommunities())

	for l, level := range h.Levels {
		assert.Equal(t, g.NumNodes, level.TotalSize(), "mass at level %d", l)
		assert.InDelta(t, g.TotalWeight, level.Graph.TotalWeight, 1e-9, "weight at level %d", l)
		assert.True(t, level.Partition.IsContiguous(), "level %d", l)
		require.Len(t, level.Attributes, level.Graph.NumNodes)

		if l == 0 {
			continue
		}
		below := h.Levels[l-1].Attributes
		for s, members := range level.Members {
			designated := members[0]
			for _, v := range members {
				if below[v].Size > below[designated].Size {
					designated = v
				}
			}
			assert.Equal(t, below[designated].Color, level.Attributes[s].Color, "color of %d at level %d", s, l)
		}
	}
}

func TestRunErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := newEngine(t, &scriptedOracle{moveErr: boom}, DefaultOptions()).Run(context.Background(), path(t, 4))
	assert.ErrorIs(t, err, boom)

	_, err = newEngine(t, &scriptedOracle{initial: pairs(path(t, 4)), moves: []int{1}, refineErr: boom}, DefaultOptions()).
		Run(context.Background(), path(t, 4))
	assert.ErrorIs(t, err, boom)

	_, err = newEngine(t, &scriptedOracle{initial: graph.Partition{0, 1}}, DefaultOptions()).Run(context.Background(), path(t, 4))
	assert.ErrorIs(t, err, graph.ErrInvalidPartition)

	_, err = newEngine(t, &scriptedOracle{}, DefaultOptions()).Run(context.Background(), graph.NewGraph(0))
	assert.ErrorIs(t, err, graph.ErrMalformedGraph)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newEngine(t, &scriptedOracle{moves: always(10, 1)}, DefaultOptions()).Run(ctx, path(t, 4))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHierarchyProject(t *testing.T) {
	oracle := &scriptedOracle{initial: pairs(path(t, 8)), moves: []int{1, 1}, refine: pairs}
	h, err := newEngine(t, oracle, DefaultOptions()).Run(context.Background(), path(t, 8))
	require.NoError(t, err)
	require.Equal(t, 3, h.NumLevels())

	proj, err := h.Project(2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0, 1, 1, 1, 1}, proj)

	members, err := h.BaseMembers(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, members)

	_, err = h.Project(5)
	assert.Error(t, err)
	_, err = h.BaseMembers(2, 9)
	assert.Error(t, err)
}
