package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/vector"

	"github.com/gilchrisn/multiscale-clustering/pkg/layout"
	"github.com/gilchrisn/multiscale-clustering/pkg/multiscale"
)

var (
	background     = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	intraEdgeInk   = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	interEdgeInk   = color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
	nodeOutlineInk = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
)

// RasterOptions sizes the PNG output.
type RasterOptions struct {
	Width      int     `yaml:"width" validate:"min=1"`
	Height     int     `yaml:"height" validate:"min=1"`
	Margin     int     `yaml:"margin" validate:"gte=0"`
	NodeRadius float64 `yaml:"node_radius" validate:"gt=0"` // radius of a size-1 vertex
	MaxRadius  float64 `yaml:"max_radius" validate:"gt=0"`
	EdgeWidth  float64 `yaml:"edge_width" validate:"gt=0"`
}

// DefaultRasterOptions returns a 1024x768 canvas with a 40 pixel margin.
func DefaultRasterOptions() RasterOptions {
	return RasterOptions{
		Width:      1024,
		Height:     768,
		Margin:     40,
		NodeRadius: 4,
		MaxRadius:  40,
		EdgeWidth:  1,
	}
}

// RasterRenderer draws a level as an anti-aliased PNG. Vertex radius grows
// with the square root of its size. Edges inside a community are dark,
// edges between communities light gray.
type RasterRenderer struct {
	opts RasterOptions
}

// NewRasterRenderer creates the renderer; zero fields take defaults.
func NewRasterRenderer(opts RasterOptions) *RasterRenderer {
	defaults := DefaultRasterOptions()
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = defaults.Width, defaults.Height
	}
	if opts.Margin < 0 || 2*opts.Margin >= opts.Width || 2*opts.Margin >= opts.Height {
		opts.Margin = defaults.Margin
	}
	if opts.NodeRadius <= 0 {
		opts.NodeRadius = defaults.NodeRadius
	}
	if opts.MaxRadius <= 0 {
		opts.MaxRadius = defaults.MaxRadius
	}
	if opts.EdgeWidth <= 0 {
		opts.EdgeWidth = defaults.EdgeWidth
	}
	return &RasterRenderer{opts: opts}
}

// Render writes the level as a PNG file.
func (r *RasterRenderer) Render(ctx context.Context, level *multiscale.Level, path string) error {
	img, err := r.Draw(ctx, level)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}

// Draw rasterizes the level.
func (r *RasterRenderer) Draw(ctx context.Context, level *multiscale.Level) (*image.RGBA, error) {
	g := level.Graph
	if len(level.Attributes) != g.NumNodes {
		return nil, fmt.Errorf("level %d has %d attributes for %d vertices", level.Index, len(level.Attributes), g.NumNodes)
	}

	img := image.NewRGBA(image.Rect(0, 0, r.opts.Width, r.opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	points := r.project(level.Attributes)
	z := vector.NewRasterizer(r.opts.Width, r.opts.Height)

	// One path per edge class. Every quad from line has the same winding, so
	// overlapping edges accumulate instead of cancelling. Inter-community
	// edges go first so intra edges stay visible on top.
	for _, intra := range []bool{false, true} {
		ink := interEdgeInk
		if intra {
			ink = intraEdgeInk
		}
		z.Reset(r.opts.Width, r.opts.Height)
		for _, e := range g.Edges() {
			if e.From == e.To {
				continue
			}
			sameCommunity := len(level.Partition) == g.NumNodes && level.Partition[e.From] == level.Partition[e.To]
			if sameCommunity != intra {
				continue
			}
			line(z, points[e.From], points[e.To], r.opts.EdgeWidth)
		}
		z.Draw(img, img.Bounds(), image.NewUniform(ink), image.Point{})
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	for v, attr := range level.Attributes {
		if v%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		radius := math.Min(r.opts.NodeRadius*math.Sqrt(float64(max(attr.Size, 1))), r.opts.MaxRadius)
		disc(img, z, points[v], radius+1, nodeOutlineInk)
		disc(img, z, points[v], radius, attr.Color)
	}

	return img, nil
}

// project maps layout coordinates onto the canvas inside the margin,
// keeping the aspect ratio and centering the drawing.
func (r *RasterRenderer) project(attrs []multiscale.VisualAttributes) []point {
	positions := make([]layout.Position, len(attrs))
	for i, a := range attrs {
		positions[i] = a.Position
	}
	minX, minY, maxX, maxY := layout.Bounds(positions)

	innerW := float64(r.opts.Width - 2*r.opts.Margin)
	innerH := float64(r.opts.Height - 2*r.opts.Margin)
	s := math.Inf(1)
	if maxX > minX {
		s = math.Min(s, innerW/(maxX-minX))
	}
	if maxY > minY {
		s = math.Min(s, innerH/(maxY-minY))
	}
	if math.IsInf(s, 1) {
		s = 0
	}

	cx := float64(r.opts.Width) / 2
	cy := float64(r.opts.Height) / 2
	midX := (minX + maxX) / 2
	midY := (minY + maxY) / 2

	points := make([]point, len(positions))
	for i, p := range positions {
		points[i] = point{
			x: float32(cx + (p.X-midX)*s),
			y: float32(cy - (p.Y-midY)*s), // image y grows downwards
		}
	}
	return points
}

type point struct {
	x, y float32
}

// line adds a stroked segment of the given width as a quad.
func line(z *vector.Rasterizer, a, b point, width float64) {
	dx := float64(b.x - a.x)
	dy := float64(b.y - a.y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx := float32(-dy / length * width / 2)
	ny := float32(dx / length * width / 2)

	z.MoveTo(a.x+nx, a.y+ny)
	z.LineTo(b.x+nx, b.y+ny)
	z.LineTo(b.x-nx, b.y-ny)
	z.LineTo(a.x-nx, a.y-ny)
	z.ClosePath()
}

// disc fills a circle in ink. The rasterizer is resized to the circle's
// bounding box so the cost follows the disc area, not the canvas.
func disc(img *image.RGBA, z *vector.Rasterizer, c point, radius float64, ink color.Color) {
	box := image.Rect(
		int(math.Floor(float64(c.x)-radius)), int(math.Floor(float64(c.y)-radius)),
		int(math.Ceil(float64(c.x)+radius))+1, int(math.Ceil(float64(c.y)+radius))+1,
	).Intersect(img.Bounds())
	if box.Empty() {
		return
	}
	z.Reset(box.Dx(), box.Dy())
	circle(z, point{x: c.x - float32(box.Min.X), y: c.y - float32(box.Min.Y)}, radius)
	z.Draw(img, box, image.NewUniform(ink), image.Point{})
}

// circle adds a filled disc approximated by a polygon.
func circle(z *vector.Rasterizer, c point, radius float64) {
	segments := int(math.Max(16, math.Ceil(radius*2)))
	for i := 0; i <= segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		x := c.x + float32(radius*math.Cos(theta))
		y := c.y + float32(radius*math.Sin(theta))
		if i == 0 {
			z.MoveTo(x, y)
			continue
		}
		z.LineTo(x, y)
	}
	z.ClosePath()
}
