// Package render draws hierarchy levels to image files. Rendering failures
// are reported per level and never affect the hierarchy itself.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gilchrisn/multiscale-clustering/pkg/multiscale"
)

// Renderer writes one level to path.
type Renderer interface {
	Render(ctx context.Context, level *multiscale.Level, path string) error
}

// RenderError wraps the failure to render one level.
type RenderError struct {
	Level int
	Path  string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render level %d to %s: %v", e.Level, e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Options configures renderer construction.
type Options struct {
	Kind   string        `yaml:"kind"` // raster or graphviz
	Raster RasterOptions `yaml:"raster"`
}

// DefaultOptions returns the raster renderer defaults.
func DefaultOptions() Options {
	return Options{
		Kind:   "raster",
		Raster: DefaultRasterOptions(),
	}
}

// New returns the renderer named by opts.Kind.
func New(opts Options) (Renderer, error) {
	switch opts.Kind {
	case "", "raster", "png":
		return NewRasterRenderer(opts.Raster), nil
	case "graphviz", "dot", "neato":
		return NewGraphvizRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown renderer %q", opts.Kind)
	}
}

// FileName returns the image name for one level: <name>_<level>.<ext>.
func FileName(name string, level int, ext string) string {
	return fmt.Sprintf("%s_%d.%s", name, level, ext)
}

// RenderHierarchy renders every level of h into dir. A failing level is
// recorded as a *RenderError and the remaining levels are still rendered.
// It returns the paths written and the joined errors.
func RenderHierarchy(ctx context.Context, r Renderer, h *multiscale.Hierarchy, dir, name, ext string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create render directory: %w", err)
	}

	var (
		paths []string
		errs  []error
	)
	for i := range h.Levels {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		level := &h.Levels[i]
		path := filepath.Join(dir, FileName(name, level.Index, ext))
		if err := r.Render(ctx, level, path); err != nil {
			errs = append(errs, &RenderError{Level: level.Index, Path: path, Err: err})
			continue
		}
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}
