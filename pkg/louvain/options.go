package louvain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Options controls local moving.
type Options struct {
	// Resolution scales the null-model term; 1.0 is classic modularity.
	Resolution float64 `yaml:"resolution" validate:"gt=0"`

	// MaxIterations bounds the sweeps over all nodes in one pass.
	MaxIterations int `yaml:"max_iterations" validate:"min=1"`

	// MinModularityGain is the improvement over staying put a move needs.
	MinModularityGain float64 `yaml:"min_modularity_gain" validate:"gte=0"`

	RandomSeed int64 `yaml:"random_seed"`

	// Shuffle visits nodes in a seeded random order instead of by id.
	Shuffle bool `yaml:"shuffle"`

	// MaxLevels bounds the aggregation rounds of BestPartition.
	MaxLevels int `yaml:"max_levels" validate:"min=1"`

	// ProgressInterval logs every n sweeps; 0 disables.
	ProgressInterval int `yaml:"progress_interval" validate:"gte=0"`
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Resolution:        1.0,
		MaxIterations:     100,
		MinModularityGain: 1e-7,
		RandomSeed:        42,
		Shuffle:           true,
		MaxLevels:         10,
		ProgressInterval:  10,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid louvain options: %w", err)
	}
	return nil
}
