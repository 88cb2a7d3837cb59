package multiscale

import (
	"fmt"
	"time"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
)

// StopReason records why the level loop ended.
type StopReason string

const (
	// StopConverged means the oracle reported zero local moves.
	StopConverged StopReason = "converged"
	// StopNoCompression means coarsening produced no fewer nodes.
	StopNoCompression StopReason = "no-compression"
	// StopLevelBound means MaxLevels was reached before convergence.
	StopLevelBound StopReason = "level-bound"
)

// Level is one scale of the hierarchy.
type Level struct {
	Index      int
	Graph      *graph.Graph
	Partition  graph.Partition // contiguous, over Graph's vertices
	Attributes []VisualAttributes
	// Members[s] lists the vertices of the level below that collapsed into
	// vertex s. Nil at level 0.
	Members    [][]int
	Modularity float64
}

// NumCommunities returns the community count of the level's partition.
func (l *Level) NumCommunities() int {
	return l.Partition.NumCommunities()
}

// TotalSize sums the vertex sizes; it equals the base vertex count at
// every level.
func (l *Level) TotalSize() int {
	total := 0
	for _, a := range l.Attributes {
		total += a.Size
	}
	return total
}

// Hierarchy is the ordered result of one engine run, finest level first.
type Hierarchy struct {
	Levels     []Level
	StopReason StopReason
	Oracle     string
	Layout     string
	Elapsed    time.Duration
}

// NumLevels returns the number of levels.
func (h *Hierarchy) NumLevels() int {
	return len(h.Levels)
}

// Coarsest returns the last level.
func (h *Hierarchy) Coarsest() *Level {
	return &h.Levels[len(h.Levels)-1]
}

// Project maps every base vertex to the vertex of the given level that
// contains it.
func (h *Hierarchy) Project(level int) ([]int, error) {
	if level < 0 || level >= len(h.Levels) {
		return nil, fmt.Errorf("level %d out of range [0, %d)", level, len(h.Levels))
	}
	base := h.Levels[0].Graph.NumNodes
	proj := make([]int, base)
	for v := range proj {
		proj[v] = v
	}
	for l := 1; l <= level; l++ {
		p := h.Levels[l-1].Partition
		for v, s := range proj {
			proj[v] = p[s]
		}
	}
	return proj, nil
}

// BaseMembers returns the base vertices contained in vertex node of the
// given level, in ascending order.
func (h *Hierarchy) BaseMembers(level, node int) ([]int, error) {
	proj, err := h.Project(level)
	if err != nil {
		return nil, err
	}
	if node < 0 || node >= h.Levels[level].Graph.NumNodes {
		return nil, fmt.Errorf("node %d out of range at level %d", node, level)
	}
	var members []int
	for v, s := range proj {
		if s == node {
			members = append(members, v)
		}
	}
	return members, nil
}
