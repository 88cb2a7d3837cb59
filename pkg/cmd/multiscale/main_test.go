package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/multiscale-clustering/pkg/benchmark"
	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
	"github.com/gilchrisn/multiscale-clustering/pkg/layout"
	"github.com/gilchrisn/multiscale-clustering/pkg/louvain"
	"github.com/gilchrisn/multiscale-clustering/pkg/multiscale"
	"github.com/gilchrisn/multiscale-clustering/pkg/parser"
)

const cliqueRingEdgeList = `# three triangles in a ring
a b
b c
c a
d e
e f
f d
g h
h i
i g
a d
d g
g a
`

func writeGraph(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "ring.txt")
	require.NoError(t, os.WriteFile(path, []byte(cliqueRingEdgeList), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"config", &configError{err: errors.New("bad")}, ExitConfigError},
		{"malformed", fmt.Errorf("parse: %w", &graph.MalformedGraphError{Line: 3, Reason: "x"}), ExitDataError},
		{"empty community", &graph.EmptyCommunityError{Community: 1}, ExitDataError},
		{"render", &renderFailure{err: errors.New("disk")}, ExitRenderError},
		{"cancelled", fmt.Errorf("run: %w", context.Canceled), ExitInterrupted},
		{"other", errors.New("boom"), ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "karate", baseName("/data/karate.txt"))
	assert.Equal(t, "edges", baseName("edges"))
}

func TestNewOracle(t *testing.T) {
	opts := benchmark.DefaultMethodOptions()
	for _, name := range oracleNames {
		oracle, closer, err := newOracle(name, opts, zerolog.Nop())
		require.NoError(t, err, name)
		assert.Equal(t, name, oracle.Name())
		assert.NoError(t, closer.Close())
	}

	_, _, err := newOracle("infomap", opts, zerolog.Nop())
	var cfgErr *configError
	assert.ErrorAs(t, err, &cfgErr)
}

type recordingCloser struct {
	err    error
	closed int
}

func (c *recordingCloser) Close() error {
	c.closed++
	return c.err
}

func TestBuildHierarchyReportsCloseError(t *testing.T) {
	g, err := parser.NewGraphParser(zerolog.Nop()).ParseFile(writeGraph(t, t.TempDir()))
	require.NoError(t, err)
	oracle, err := louvain.New(louvain.DefaultOptions(), zerolog.Nop())
	require.NoError(t, err)
	engine, err := multiscale.New(oracle, layout.Circular{}, multiscale.RandomPalette{Seed: 1}, multiscale.DefaultOptions(), zerolog.Nop())
	require.NoError(t, err)

	closer := &recordingCloser{err: errors.New("disk full")}
	_, err = buildHierarchy(context.Background(), engine, g.Graph, closer)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, closer.closed)

	closer = &recordingCloser{}
	h, err := buildHierarchy(context.Background(), engine, g.Graph, closer)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, h.NumLevels(), 1)
	assert.Equal(t, 1, closer.closed)

	// A failed run still releases the tracker and reports the run error.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	closer = &recordingCloser{err: errors.New("disk full")}
	_, err = buildHierarchy(ctx, engine, g.Graph, closer)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, closer.closed)
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeGraph(t, dir)
	images := filepath.Join(dir, "images")
	reports := filepath.Join(dir, "out")

	out, err := execute(t, "run",
		"--log-level", "error",
		"--layout", "circular",
		"--render-dir", images,
		"--output-dir", reports,
		input,
	)
	require.NoError(t, err)

	assert.Contains(t, out, "LEVEL")
	assert.Contains(t, out, "stop reason:")
	assert.FileExists(t, filepath.Join(images, "ring_0.png"))
	for _, ext := range []string{"mapping", "hierarchy", "root", "edges", "yaml"} {
		assert.FileExists(t, filepath.Join(reports, "ring."+ext))
	}
}

func TestRunCommandMalformedInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(input, []byte("a b 1\nc\n"), 0o644))

	_, err := execute(t, "run", "--log-level", "error", "--render=false", "--write-output=false", input)
	require.Error(t, err)
	assert.Equal(t, ExitDataError, exitCode(err))
}

func TestBenchCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeGraph(t, dir)
	reportFile := filepath.Join(dir, "report.yaml")

	out, err := execute(t, "bench",
		"--log-level", "error",
		"--methods", "louvain,leiden",
		"--render=false",
		"--report", reportFile,
		input,
	)
	require.NoError(t, err)

	assert.Contains(t, out, "louvain")
	assert.Contains(t, out, "leiden")
	assert.Contains(t, out, "best:")
	assert.FileExists(t, reportFile)
}
