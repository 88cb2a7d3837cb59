// Package config wraps viper with the defaults and typed getters of the
// multiscale tools.
package config

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gilchrisn/multiscale-clustering/pkg/benchmark"
	"github.com/gilchrisn/multiscale-clustering/pkg/detection"
	"github.com/gilchrisn/multiscale-clustering/pkg/layout"
	"github.com/gilchrisn/multiscale-clustering/pkg/louvain"
	"github.com/gilchrisn/multiscale-clustering/pkg/multiscale"
	"github.com/gilchrisn/multiscale-clustering/pkg/render"
)

// EnvPrefix prefixes environment overrides: MULTISCALE_ENGINE_MAX_LEVELS
// sets engine.max_levels.
const EnvPrefix = "MULTISCALE"

// Config manages configuration using Viper.
type Config struct {
	v *viper.Viper
}

// NewConfig creates a configuration with defaults.
func NewConfig() *Config {
	v := viper.New()

	// Partition oracle
	v.SetDefault("algorithm.name", "louvain")
	v.SetDefault("algorithm.resolution", 1.0)
	v.SetDefault("algorithm.max_iterations", 100)
	v.SetDefault("algorithm.min_modularity_gain", 1e-7)
	v.SetDefault("algorithm.random_seed", 42)
	v.SetDefault("algorithm.shuffle", true)
	v.SetDefault("algorithm.max_levels", 10)
	v.SetDefault("algorithm.progress_interval", 10)
	v.SetDefault("algorithm.label_propagation.max_iterations", 100)
	v.SetDefault("algorithm.spectral.max_communities", 0)
	v.SetDefault("algorithm.spectral.max_nodes", 2000)
	v.SetDefault("algorithm.spectral.tolerance", 1e-8)
	v.SetDefault("algorithm.leiden.max_levels", 10)

	// Aggregation engine
	v.SetDefault("engine.max_levels", 10)
	v.SetDefault("engine.concurrent", true)

	// Layout
	forceDefaults := layout.DefaultForceOptions()
	v.SetDefault("layout.name", "force")
	v.SetDefault("layout.force.updates", forceDefaults.Updates)
	v.SetDefault("layout.force.repulsion", forceDefaults.Repulsion)
	v.SetDefault("layout.force.rate", forceDefaults.Rate)
	v.SetDefault("layout.force.theta", forceDefaults.Theta)
	v.SetDefault("layout.mds.unreachable_distance", 0.0)

	// Colors
	v.SetDefault("palette.name", "golden")
	v.SetDefault("palette.seed", 42)

	// Rendering
	rasterDefaults := render.DefaultRasterOptions()
	v.SetDefault("render.enabled", true)
	v.SetDefault("render.kind", "raster")
	v.SetDefault("render.format", "png")
	v.SetDefault("render.dir", "images")
	v.SetDefault("render.width", rasterDefaults.Width)
	v.SetDefault("render.height", rasterDefaults.Height)
	v.SetDefault("render.margin", rasterDefaults.Margin)
	v.SetDefault("render.node_radius", rasterDefaults.NodeRadius)
	v.SetDefault("render.max_radius", rasterDefaults.MaxRadius)
	v.SetDefault("render.edge_width", rasterDefaults.EdgeWidth)

	// Hierarchy reports
	v.SetDefault("output.enabled", true)
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.prefix", "")

	// Benchmark
	v.SetDefault("benchmark.methods", []string{})
	v.SetDefault("benchmark.metrics_file", "")
	v.SetDefault("benchmark.render", true)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Analysis
	v.SetDefault("analysis.track_moves", false)
	v.SetDefault("analysis.output_file", "moves.jsonl")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{v: v}
}

// LoadFromFile loads configuration from file.
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// BindPFlag makes a command line flag override key.
func (c *Config) BindPFlag(key string, flag *pflag.Flag) error {
	return c.v.BindPFlag(key, flag)
}

// Set allows dynamic configuration changes.
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// Getters for algorithm parameters
func (c *Config) Algorithm() string { return c.v.GetString("algorithm.name") }
func (c *Config) Resolution() float64 { return c.v.GetFloat64("algorithm.resolution") }
func (c *Config) MaxIterations() int { return c.v.GetInt("algorithm.max_iterations") }
func (c *Config) MinModularityGain() float64 { return c.v.GetFloat64("algorithm.min_modularity_gain") }
func (c *Config) RandomSeed() int64 { return c.v.GetInt64("algorithm.random_seed") }
func (c *Config) Shuffle() bool { return c.v.GetBool("algorithm.shuffle") }

func (c *Config) MaxLevels() int { return c.v.GetInt("engine.max_levels") }
func (c *Config) Concurrent() bool { return c.v.GetBool("engine.concurrent") }

func (c *Config) LayoutName() string { return c.v.GetString("layout.name") }
func (c *Config) PaletteName() string { return c.v.GetString("palette.name") }
func (c *Config) PaletteSeed() int64 { return c.v.GetInt64("palette.seed") }

func (c *Config) RenderEnabled() bool { return c.v.GetBool("render.enabled") }
func (c *Config) RenderFormat() string { return c.v.GetString("render.format") }
func (c *Config) RenderDir() string { return c.v.GetString("render.dir") }

func (c *Config) OutputEnabled() bool { return c.v.GetBool("output.enabled") }
func (c *Config) OutputDir() string { return c.v.GetString("output.dir") }
func (c *Config) OutputPrefix() string { return c.v.GetString("output.prefix") }

func (c *Config) BenchmarkMethods() []string { return c.v.GetStringSlice("benchmark.methods") }
func (c *Config) MetricsFile() string { return c.v.GetString("benchmark.metrics_file") }
func (c *Config) BenchmarkRender() bool { return c.v.GetBool("benchmark.render") }

func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }
func (c *Config) LogFormat() string { return c.v.GetString("logging.format") }

func (c *Config) EnableMoveTracking() bool { return c.v.GetBool("analysis.track_moves") }
func (c *Config) TrackingOutputFile() string { return c.v.GetString("analysis.output_file") }

// LouvainOptions assembles the native Louvain settings.
func (c *Config) LouvainOptions() louvain.Options {
	return louvain.Options{
		Resolution:        c.Resolution(),
		MaxIterations:     c.MaxIterations(),
		MinModularityGain: c.MinModularityGain(),
		RandomSeed:        c.RandomSeed(),
		Shuffle:           c.Shuffle(),
		MaxLevels:         c.v.GetInt("algorithm.max_levels"),
		ProgressInterval:  c.v.GetInt("algorithm.progress_interval"),
	}
}

// MethodOptions assembles the settings of every detection method.
func (c *Config) MethodOptions() benchmark.MethodOptions {
	return benchmark.MethodOptions{
		Louvain: c.LouvainOptions(),
		LabelPropagation: detection.LabelPropagationOptions{
			MaxIterations: c.v.GetInt("algorithm.label_propagation.max_iterations"),
			RandomSeed:    c.RandomSeed(),
		},
		Spectral: detection.SpectralOptions{
			MaxCommunities: c.v.GetInt("algorithm.spectral.max_communities"),
			MaxNodes:       c.v.GetInt("algorithm.spectral.max_nodes"),
			Tolerance:      c.v.GetFloat64("algorithm.spectral.tolerance"),
		},
		Leiden: detection.LeidenOptions{
			Resolution: c.Resolution(),
			MaxLevels:  c.v.GetInt("algorithm.leiden.max_levels"),
			RandomSeed: c.RandomSeed(),
		},
	}
}

// EngineOptions assembles the aggregation engine settings.
func (c *Config) EngineOptions() multiscale.Options {
	return multiscale.Options{
		MaxLevels:  c.MaxLevels(),
		Concurrent: c.Concurrent(),
		Resolution: c.Resolution(),
	}
}

// LayoutOptions assembles the layout provider settings.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		Force: layout.ForceOptions{
			Updates:   c.v.GetInt("layout.force.updates"),
			Repulsion: c.v.GetFloat64("layout.force.repulsion"),
			Rate:      c.v.GetFloat64("layout.force.rate"),
			Theta:     c.v.GetFloat64("layout.force.theta"),
		},
		MDS: layout.MDSOptions{
			UnreachableDistance: c.v.GetFloat64("layout.mds.unreachable_distance"),
		},
	}
}

// RenderOptions assembles the renderer settings.
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		Kind: c.v.GetString("render.kind"),
		Raster: render.RasterOptions{
			Width:      c.v.GetInt("render.width"),
			Height:     c.v.GetInt("render.height"),
			Margin:     c.v.GetInt("render.margin"),
			NodeRadius: c.v.GetFloat64("render.node_radius"),
			MaxRadius:  c.v.GetFloat64("render.max_radius"),
			EdgeWidth:  c.v.GetFloat64("render.edge_width"),
		},
	}
}

// BenchmarkOptions assembles the benchmark runner settings. name prefixes
// rendered images.
func (c *Config) BenchmarkOptions(name string) benchmark.Options {
	opts := benchmark.Options{
		Methods:     c.BenchmarkMethods(),
		Resolution:  c.Resolution(),
		Name:        name,
		MetricsFile: c.MetricsFile(),
	}
	if c.BenchmarkRender() && c.RenderEnabled() {
		opts.RenderDir = c.RenderDir()
	}
	return opts
}

// CreateLogger creates a zerolog logger writing to stderr.
func (c *Config) CreateLogger() zerolog.Logger {
	return c.NewLogger(os.Stderr)
}

// NewLogger creates a zerolog logger based on config writing to w.
func (c *Config) NewLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	if c.LogFormat() != "json" {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
		}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "multiscale").Logger()
}
