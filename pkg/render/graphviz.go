package render

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gilchrisn/multiscale-clustering/pkg/layout"
	"github.com/gilchrisn/multiscale-clustering/pkg/multiscale"
)

// pointsPerUnit converts layout coordinates to Graphviz points.
const pointsPerUnit = 5.0

// GraphvizRenderer writes a level as DOT with pinned vertex positions. A
// .dot path is written directly; .png and .svg are produced by neato -n2,
// which keeps the given positions.
type GraphvizRenderer struct {
	command string
}

// NewGraphvizRenderer creates the renderer.
func NewGraphvizRenderer() *GraphvizRenderer {
	return &GraphvizRenderer{command: "neato"}
}

// Available reports whether the Graphviz binary is on PATH.
func (r *GraphvizRenderer) Available() bool {
	_, err := exec.LookPath(r.command)
	return err == nil
}

// Render writes the level in the format named by path's extension.
func (r *GraphvizRenderer) Render(ctx context.Context, level *multiscale.Level, path string) error {
	dot, err := ToDOT(level)
	if err != nil {
		return err
	}

	format := strings.TrimPrefix(filepath.Ext(path), ".")
	switch format {
	case "dot", "gv":
		return os.WriteFile(path, []byte(dot), 0o644)
	case "png", "svg":
		return r.runGraphviz(ctx, dot, format, path)
	default:
		return fmt.Errorf("unsupported format %q: supported formats are dot, png, svg", format)
	}
}

func (r *GraphvizRenderer) runGraphviz(ctx context.Context, dot, format, path string) error {
	if !r.Available() {
		return fmt.Errorf("graphviz %s command not found: install graphviz to render %s output", r.command, format)
	}

	cmd := exec.CommandContext(ctx, r.command, "-n2", "-T"+format, "-o", path)
	cmd.Stdin = strings.NewReader(dot)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("graphviz %s command failed: %w: %s", r.command, err, stderr.String())
	}
	return nil
}

// ToDOT serializes a level as an undirected DOT graph. Vertex and edge order
// is deterministic.
func ToDOT(level *multiscale.Level) (string, error) {
	g := level.Graph
	if len(level.Attributes) != g.NumNodes {
		return "", fmt.Errorf("level %d has %d attributes for %d vertices", level.Index, len(level.Attributes), g.NumNodes)
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "graph level_%d {\n", level.Index)
	buf.WriteString("  graph [outputorder=edgesfirst, splines=false]\n")
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true, label=\"\"]\n")

	for v, attr := range level.Attributes {
		x := (attr.Position.X + layout.Extent) * pointsPerUnit
		y := (attr.Position.Y + layout.Extent) * pointsPerUnit
		width := 0.15 * math.Sqrt(float64(max(attr.Size, 1)))
		fmt.Fprintf(&buf, "  n%d [pos=\"%.2f,%.2f!\", width=%.3f, fillcolor=%q, tooltip=%q]\n",
			v, x, y, width, attr.Color.Hex(), fmt.Sprintf("%s (size %d)", g.Label(v), attr.Size))
	}

	for _, e := range g.Edges() {
		if e.From == e.To {
			continue
		}
		ink := interEdgeInk
		if len(level.Partition) == g.NumNodes && level.Partition[e.From] == level.Partition[e.To] {
			ink = intraEdgeInk
		}
		fmt.Fprintf(&buf, "  n%d -- n%d [color=\"#%02x%02x%02x\", weight=%g]\n",
			e.From, e.To, ink.R, ink.G, ink.B, e.Weight)
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}
