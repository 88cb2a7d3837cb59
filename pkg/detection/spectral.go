package detection

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
)

// SpectralOptions controls leading eigenvector bisection.
type SpectralOptions struct {
	// MaxCommunities stops splitting once reached; 0 means no limit.
	MaxCommunities int `yaml:"max_communities" validate:"gte=0"`

	// MaxNodes rejects graphs whose dense modularity matrix would be too
	// large.
	MaxNodes int `yaml:"max_nodes" validate:"min=1"`

	// Tolerance is the smallest eigenvalue and modularity gain that still
	// counts as a split.
	Tolerance float64 `yaml:"tolerance" validate:"gt=0"`
}

// Spectral is Newman's leading eigenvector method: communities are split in
// two by the sign of the leading eigenvector of their generalized modularity
// matrix until no split increases modularity.
type Spectral struct {
	opts   SpectralOptions
	logger zerolog.Logger
}

// NewSpectral validates opts and creates the method.
func NewSpectral(opts SpectralOptions, logger zerolog.Logger) (*Spectral, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid spectral options: %w", err)
	}
	return &Spectral{
		opts:   opts,
		logger: logger.With().Str("method", "spectral").Logger(),
	}, nil
}

// Name identifies the method in reports.
func (s *Spectral) Name() string { return "spectral" }

// InitialPartition partitions g.
func (s *Spectral) InitialPartition(ctx context.Context, g *graph.Graph) (graph.Partition, error) {
	if g.NumNodes > s.opts.MaxNodes {
		return nil, fmt.Errorf("spectral method limited to %d nodes, graph has %d", s.opts.MaxNodes, g.NumNodes)
	}

	p := make(graph.Partition, g.NumNodes)
	if g.TotalWeight == 0 {
		return graph.Singletons(g.NumNodes), nil
	}

	all := make([]int, g.NumNodes)
	for i := range all {
		all[i] = i
	}

	queue := [][]int{all}
	var done [][]int
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.opts.MaxCommunities > 0 && len(done)+len(queue) >= s.opts.MaxCommunities {
			done = append(done, queue...)
			break
		}

		members := queue[0]
		queue = queue[1:]

		left, right, err := s.bisect(g, members)
		if err != nil {
			return nil, err
		}
		if left == nil {
			done = append(done, members)
			continue
		}
		queue = append(queue, left, right)
	}

	for c, members := range done {
		for _, v := range members {
			p[v] = c
		}
	}
	p, k := p.Relabel()
	s.logger.Debug().Int("communities", k).Msg("Leading eigenvector method completed")
	return p, nil
}

// bisect splits members by the leading eigenvector of the generalized
// modularity matrix. It returns nil halves when the group is indivisible.
func (s *Spectral) bisect(g *graph.Graph, members []int) ([]int, []int, error) {
	n := len(members)
	if n < 2 {
		return nil, nil, nil
	}

	index := make(map[int]int, n)
	for i, v := range members {
		index[v] = i
	}

	// A restricted to members, self-loops counted twice.
	adj := mat.NewSymDense(n, nil)
	for i, u := range members {
		neighbors, weights := g.GetNeighbors(u)
		for j, v := range neighbors {
			col, ok := index[v]
			if !ok {
				continue
			}
			w := weights[j]
			if u == v {
				w *= 2
			}
			adj.SetSym(i, col, w)
		}
	}

	m2 := 2 * g.TotalWeight
	b := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		ki := g.Degrees[members[i]]
		for j := i; j < n; j++ {
			b.SetSym(i, j, adj.At(i, j)-ki*g.Degrees[members[j]]/m2)
		}
	}
	// Generalized form: subtract each row sum from the diagonal.
	for i := 0; i < n; i++ {
		rowSum := 0.0
		for j := 0; j < n; j++ {
			rowSum += b.At(i, j)
		}
		b.SetSym(i, i, b.At(i, i)-rowSum)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(b, true); !ok {
		return nil, nil, fmt.Errorf("eigendecomposition failed for group of %d nodes", n)
	}
	values := eig.Values(nil)
	leading := values[n-1]
	if leading <= s.opts.Tolerance {
		return nil, nil, nil
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	signs := mat.NewVecDense(n, nil)
	var left, right []int
	for i, v := range members {
		if vectors.At(i, n-1) >= 0 {
			signs.SetVec(i, 1)
			left = append(left, v)
		} else {
			signs.SetVec(i, -1)
			right = append(right, v)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return nil, nil, nil
	}

	// Modularity change of the split is s^T B s / (2 * 2m).
	gain := mat.Inner(signs, b, signs) / (2 * m2)
	if gain <= s.opts.Tolerance {
		return nil, nil, nil
	}

	return left, right, nil
}

// RefinePartition partitions a coarse level.
func (s *Spectral) RefinePartition(ctx context.Context, g *graph.Graph) (graph.Partition, error) {
	return s.InitialPartition(ctx, g)
}

// LocalMovePass reports how many nodes of g the partition p merges away.
func (s *Spectral) LocalMovePass(_ context.Context, g *graph.Graph, p graph.Partition) (int, error) {
	return localMoves(g, p)
}
