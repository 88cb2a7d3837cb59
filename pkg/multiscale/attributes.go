package multiscale

import (
	"fmt"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
	"github.com/gilchrisn/multiscale-clustering/pkg/layout"
)

// VisualAttributes is how one vertex of one level is drawn.
type VisualAttributes struct {
	Position layout.Position `json:"position" yaml:"position"`
	Color    Color           `json:"color" yaml:"color"`
	Size     int             `json:"size" yaml:"size"` // base vertices represented
}

// DeriveAttributes computes the attributes of the supernodes formed by
// collapsing each community of p. A supernode sits at the centroid of its
// members, weighs the sum of their sizes and inherits the color of its
// designated child: the largest member, lowest index on ties.
//
// It also returns the members of each supernode. A community id in 0..K-1
// without members fails with *graph.EmptyCommunityError.
func DeriveAttributes(prev []VisualAttributes, p graph.Partition) ([]VisualAttributes, [][]int, error) {
	if err := p.Validate(len(prev)); err != nil {
		return nil, nil, err
	}
	members, err := p.CheckMembers()
	if err != nil {
		return nil, nil, err
	}

	attrs := make([]VisualAttributes, len(members))
	for c, group := range members {
		var sumX, sumY float64
		size := 0
		designated := group[0]
		for _, v := range group {
			sumX += prev[v].Position.X
			sumY += prev[v].Position.Y
			size += prev[v].Size
			if prev[v].Size > prev[designated].Size {
				designated = v
			}
		}
		count := float64(len(group))
		attrs[c] = VisualAttributes{
			Position: layout.Position{X: sumX / count, Y: sumY / count},
			Color:    prev[designated].Color,
			Size:     size,
		}
	}

	return attrs, members, nil
}

// BaseAttributes builds level 0 attributes: one palette color per community,
// size 1 per vertex.
func BaseAttributes(positions []layout.Position, p graph.Partition, colors []Color) ([]VisualAttributes, error) {
	if len(positions) != len(p) {
		return nil, fmt.Errorf("layout returned %d positions for %d vertices", len(positions), len(p))
	}
	attrs := make([]VisualAttributes, len(p))
	for v, c := range p {
		if c >= len(colors) {
			return nil, fmt.Errorf("palette returned %d colors for community %d", len(colors), c)
		}
		attrs[v] = VisualAttributes{
			Position: positions[v],
			Color:    colors[c],
			Size:     1,
		}
	}
	return attrs, nil
}
