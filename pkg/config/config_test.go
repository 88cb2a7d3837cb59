package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := NewConfig()

	assert.Equal(t, "louvain", c.Algorithm())
	assert.Equal(t, 1.0, c.Resolution())
	assert.Equal(t, int64(42), c.RandomSeed())
	assert.Equal(t, 10, c.MaxLevels())
	assert.True(t, c.Concurrent())
	assert.Equal(t, "force", c.LayoutName())
	assert.Equal(t, "golden", c.PaletteName())
	assert.Equal(t, "png", c.RenderFormat())
	assert.Empty(t, c.BenchmarkMethods())

	require.NoError(t, c.LouvainOptions().Validate())
	require.NoError(t, c.EngineOptions().Validate())
	assert.Equal(t, 1024, c.RenderOptions().Raster.Width)
	assert.Equal(t, 50, c.LayoutOptions().Force.Updates)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
algorithm:
  name: leiden
  resolution: 0.5
  spectral:
    max_nodes: 50
engine:
  max_levels: 3
  concurrent: false
layout:
  name: mds
benchmark:
  methods: [louvain, spectral]
`), 0o644))

	c := NewConfig()
	require.NoError(t, c.LoadFromFile(path))

	assert.Equal(t, "leiden", c.Algorithm())
	assert.Equal(t, 0.5, c.Resolution())
	assert.Equal(t, 0.5, c.MethodOptions().Leiden.Resolution)
	assert.Equal(t, 50, c.MethodOptions().Spectral.MaxNodes)
	assert.Equal(t, 3, c.EngineOptions().MaxLevels)
	assert.False(t, c.EngineOptions().Concurrent)
	assert.Equal(t, "mds", c.LayoutName())
	assert.Equal(t, []string{"louvain", "spectral"}, c.BenchmarkMethods())
	assert.Equal(t, 100, c.MaxIterations(), "unset keys keep defaults")
}

func TestLoadFromFileMissing(t *testing.T) {
	assert.Error(t, NewConfig().LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("MULTISCALE_ENGINE_MAX_LEVELS", "4")
	t.Setenv("MULTISCALE_LAYOUT_NAME", "circular")

	c := NewConfig()
	assert.Equal(t, 4, c.MaxLevels())
	assert.Equal(t, "circular", c.LayoutName())
}

func TestBindPFlag(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-levels", 10, "")
	require.NoError(t, flags.Parse([]string{"--max-levels", "2"}))

	c := NewConfig()
	require.NoError(t, c.BindPFlag("engine.max_levels", flags.Lookup("max-levels")))
	assert.Equal(t, 2, c.MaxLevels())
}

func TestSet(t *testing.T) {
	c := NewConfig()
	c.Set("algorithm.random_seed", 7)
	c.Set("analysis.track_moves", true)

	assert.Equal(t, int64(7), c.LouvainOptions().RandomSeed)
	assert.Equal(t, int64(7), c.MethodOptions().LabelPropagation.RandomSeed)
	assert.True(t, c.EnableMoveTracking())
}

func TestBenchmarkOptions(t *testing.T) {
	c := NewConfig()
	opts := c.BenchmarkOptions("karate")
	assert.Equal(t, "karate", opts.Name)
	assert.Equal(t, "images", opts.RenderDir)

	c.Set("render.enabled", false)
	assert.Empty(t, c.BenchmarkOptions("karate").RenderDir)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	c := NewConfig()
	c.Set("logging.format", "json")
	c.Set("logging.level", "warn")

	logger := c.NewLogger(&buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"service":"multiscale"`)
	assert.Contains(t, buf.String(), `"message":"shown"`)

	c.Set("logging.level", "nonsense")
	assert.Equal(t, zerolog.InfoLevel, c.NewLogger(&buf).GetLevel())
}
