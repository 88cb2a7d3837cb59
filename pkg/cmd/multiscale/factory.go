package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/gilchrisn/multiscale-clustering/pkg/benchmark"
	"github.com/gilchrisn/multiscale-clustering/pkg/detection"
	"github.com/gilchrisn/multiscale-clustering/pkg/louvain"
	"github.com/gilchrisn/multiscale-clustering/pkg/multiscale"
)

// oracleNames lists the algorithms usable level by level.
var oracleNames = []string{"louvain", "label-propagation", "spectral", "leiden"}

// newOracle builds the named partition oracle. The returned closer releases
// the move tracker when one is configured.
func newOracle(name string, opts benchmark.MethodOptions, logger zerolog.Logger) (multiscale.Oracle, io.Closer, error) {
	switch name {
	case "louvain":
		oracle, err := louvain.New(opts.Louvain, logger)
		if err != nil {
			return nil, nil, &configError{err: err}
		}
		if !cfg.EnableMoveTracking() {
			return oracle, nopCloser{}, nil
		}
		tracker, err := louvain.NewMoveTracker(cfg.TrackingOutputFile(), name)
		if err != nil {
			return nil, nil, err
		}
		return oracle.WithTracker(tracker), tracker, nil
	case "label-propagation":
		oracle, err := detection.NewLabelPropagation(opts.LabelPropagation, logger)
		return wrapOracle(oracle, err)
	case "spectral":
		oracle, err := detection.NewSpectral(opts.Spectral, logger)
		return wrapOracle(oracle, err)
	case "leiden":
		oracle, err := detection.NewLeiden(opts.Leiden, logger)
		return wrapOracle(oracle, err)
	default:
		return nil, nil, &configError{err: fmt.Errorf("unknown algorithm %q (available: %v)", name, oracleNames)}
	}
}

func wrapOracle[T multiscale.Oracle](oracle T, err error) (multiscale.Oracle, io.Closer, error) {
	if err != nil {
		return nil, nil, &configError{err: err}
	}
	return oracle, nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// mustBind binds a flag to a config key; a missing flag is a programming
// error.
func mustBind(key, flag string, lookup func(string) *pflag.Flag) {
	if err := cfg.BindPFlag(key, lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}
