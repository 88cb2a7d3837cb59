package benchmark

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
	"github.com/gilchrisn/multiscale-clustering/pkg/layout"
	"github.com/gilchrisn/multiscale-clustering/pkg/multiscale"
	"github.com/gilchrisn/multiscale-clustering/pkg/render"
)

const twoTrianglesEdgeList = `# two triangles joined by a bridge
0 1
1 2
2 0
3 4
4 5
5 3
2 3
`

func writeEdgeList(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "triangles.txt")
	require.NoError(t, os.WriteFile(path, []byte(twoTrianglesEdgeList), 0o644))
	return path
}

func twoTriangles(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := LoadGraph(writeEdgeList(t), zerolog.Nop())
	require.NoError(t, err)
	return g
}

type brokenMethod struct{}

func (brokenMethod) Name() string { return "broken" }

func (brokenMethod) InitialPartition(context.Context, *graph.Graph) (graph.Partition, error) {
	return nil, errors.New("diverged")
}

func defaultRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := NewDefaultRegistry(DefaultMethodOptions(), zerolog.Nop())
	require.NoError(t, err)
	return registry
}

func TestLoadGraph(t *testing.T) {
	g := twoTriangles(t)
	assert.Equal(t, 6, g.NumNodes)
	assert.Equal(t, 7, g.NumEdges())

	_, err := LoadGraph(filepath.Join(t.TempDir(), "missing.txt"), zerolog.Nop())
	assert.Error(t, err)
}

func TestDefaultRegistry(t *testing.T) {
	registry := defaultRegistry(t)
	assert.Equal(t, []string{
		"gonum-louvain", "label-propagation", "leiden", "louvain", "louvain-multilevel", "spectral",
	}, registry.List())

	m, ok := registry.Get("leiden")
	require.True(t, ok)
	assert.Equal(t, "leiden", m.Name())

	_, ok = registry.Get("infomap")
	assert.False(t, ok)
}

func TestRegistrySelect(t *testing.T) {
	registry := defaultRegistry(t)

	methods, err := registry.Select([]string{"spectral", "louvain"})
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.Equal(t, "spectral", methods[0].Name())

	_, err = registry.Select([]string{"infomap"})
	assert.Error(t, err)
}

func TestRunnerRecordsOneResultPerMethod(t *testing.T) {
	g := twoTriangles(t)
	registry := defaultRegistry(t)

	runner, err := NewRunner(registry, DefaultOptions(), zerolog.Nop())
	require.NoError(t, err)
	report, err := runner.Run(context.Background(), g)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 6, report.Nodes)
	assert.Equal(t, 7, report.Edges)
	require.Len(t, report.Results, len(registry.List()))

	for _, res := range report.Results {
		assert.Empty(t, res.Error, res.Method)
		assert.Len(t, res.Partition, 6)
		assert.True(t, res.Partition.IsContiguous())
		assert.Equal(t, res.Partition.NumCommunities(), res.Communities)
		assert.InDelta(t, graph.Modularity(g, res.Partition, 1), res.Modularity, 1e-12)
	}

	best, ok := report.Best()
	require.True(t, ok)
	assert.InDelta(t, 5.0/14.0, best.Modularity, 1e-9)
}

func TestRunnerRunIDsDiffer(t *testing.T) {
	g := twoTriangles(t)
	opts := DefaultOptions()
	opts.Methods = []string{"louvain"}
	runner, err := NewRunner(defaultRegistry(t), opts, zerolog.Nop())
	require.NoError(t, err)

	first, err := runner.Run(context.Background(), g)
	require.NoError(t, err)
	second, err := runner.Run(context.Background(), g)
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunnerContinuesAfterFailure(t *testing.T) {
	registry := defaultRegistry(t)
	registry.Register(brokenMethod{})
	opts := DefaultOptions()
	opts.Methods = []string{"broken", "louvain"}

	runner, err := NewRunner(registry, opts, zerolog.Nop())
	require.NoError(t, err)
	report, err := runner.Run(context.Background(), twoTriangles(t))
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, "diverged", report.Results[0].Error)
	assert.Empty(t, report.Results[1].Error)

	best, ok := report.Best()
	require.True(t, ok)
	assert.Equal(t, "louvain", best.Method)
}

func TestRunnerOptions(t *testing.T) {
	registry := defaultRegistry(t)

	_, err := NewRunner(registry, Options{Resolution: 0}, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewRunner(registry, Options{Resolution: 1, Methods: []string{"infomap"}}, zerolog.Nop())
	assert.Error(t, err)
}

func TestRunnerWritesMetricsAndImages(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.Methods = []string{"louvain", "spectral"}
	opts.Name = "triangles"
	opts.RenderDir = filepath.Join(dir, "images")
	opts.MetricsFile = filepath.Join(dir, "bench.prom")

	runner, err := NewRunner(defaultRegistry(t), opts, zerolog.Nop())
	require.NoError(t, err)
	runner.WithRenderer(
		render.NewRasterRenderer(render.RasterOptions{Width: 200, Height: 150, Margin: 10}),
		layout.Circular{},
		multiscale.GoldenPalette{Saturation: 0.6, Value: 0.9},
	)

	report, err := runner.Run(context.Background(), twoTriangles(t))
	require.NoError(t, err)

	for _, res := range report.Results {
		assert.Equal(t, filepath.Join(opts.RenderDir, "triangles_"+res.Method+".png"), res.Image)
		assert.FileExists(t, res.Image)
	}

	data, err := os.ReadFile(opts.MetricsFile)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `multiscale_benchmark_modularity{method="louvain"}`)
	assert.Contains(t, text, `multiscale_benchmark_runs_total{method="spectral",status="ok"} 1`)
	assert.Contains(t, text, "multiscale_benchmark_graph_nodes 6")
}

func TestRunnerCancelled(t *testing.T) {
	runner, err := NewRunner(defaultRegistry(t), DefaultOptions(), zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runner.Run(ctx, twoTriangles(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMetricsObserveError(t *testing.T) {
	m := NewMetrics()
	m.Observe(Result{Method: "broken", Error: "boom"})

	families, err := m.Gatherer().Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "multiscale_benchmark_runs_total")
	assert.NotContains(t, names, "multiscale_benchmark_modularity")
}
