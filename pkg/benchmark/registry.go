// Package benchmark runs several community detection methods on one graph
// and records, per method, the wall time, modularity and community count.
package benchmark

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/multiscale-clustering/pkg/detection"
	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
	"github.com/gilchrisn/multiscale-clustering/pkg/louvain"
)

// Method is a single-level community detection algorithm.
type Method interface {
	Name() string
	InitialPartition(ctx context.Context, g *graph.Graph) (graph.Partition, error)
}

// Registry manages available methods.
type Registry struct {
	methods map[string]Method
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]Method)}
}

// Register adds a method, replacing any method with the same name.
func (r *Registry) Register(m Method) {
	r.methods[m.Name()] = m
}

// Get retrieves a method by name.
func (r *Registry) Get(name string) (Method, bool) {
	m, exists := r.methods[name]
	return m, exists
}

// List returns all method names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MethodOptions carries the settings of every built-in method.
type MethodOptions struct {
	Louvain          louvain.Options                   `yaml:"louvain"`
	LabelPropagation detection.LabelPropagationOptions `yaml:"label_propagation"`
	Spectral         detection.SpectralOptions         `yaml:"spectral"`
	Leiden           detection.LeidenOptions           `yaml:"leiden"`
}

// DefaultMethodOptions returns the built-in defaults.
func DefaultMethodOptions() MethodOptions {
	lv := louvain.DefaultOptions()
	return MethodOptions{
		Louvain: lv,
		LabelPropagation: detection.LabelPropagationOptions{
			MaxIterations: 100,
			RandomSeed:    lv.RandomSeed,
		},
		Spectral: detection.SpectralOptions{
			MaxCommunities: 0,
			MaxNodes:       2000,
			Tolerance:      1e-8,
		},
		Leiden: detection.LeidenOptions{
			Resolution: lv.Resolution,
			MaxLevels:  lv.MaxLevels,
			RandomSeed: lv.RandomSeed,
		},
	}
}

// NewDefaultRegistry registers every built-in method.
func NewDefaultRegistry(opts MethodOptions, logger zerolog.Logger) (*Registry, error) {
	registry := NewRegistry()

	lv, err := louvain.New(opts.Louvain, logger)
	if err != nil {
		return nil, err
	}
	registry.Register(lv)
	registry.Register(louvain.Multilevel{Oracle: lv})

	gl, err := detection.NewGonumLouvain(opts.Louvain.Resolution, logger)
	if err != nil {
		return nil, err
	}
	registry.Register(gl)

	lp, err := detection.NewLabelPropagation(opts.LabelPropagation, logger)
	if err != nil {
		return nil, err
	}
	registry.Register(lp)

	sp, err := detection.NewSpectral(opts.Spectral, logger)
	if err != nil {
		return nil, err
	}
	registry.Register(sp)

	ld, err := detection.NewLeiden(opts.Leiden, logger)
	if err != nil {
		return nil, err
	}
	registry.Register(ld)

	return registry, nil
}

// Select returns the named methods in order, or every method when names is
// empty.
func (r *Registry) Select(names []string) ([]Method, error) {
	if len(names) == 0 {
		names = r.List()
	}
	methods := make([]Method, 0, len(names))
	for _, name := range names {
		m, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown method %q (available: %v)", name, r.List())
		}
		methods = append(methods, m)
	}
	return methods, nil
}
