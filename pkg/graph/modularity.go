package graph

// Modularity computes Newman modularity of p on g with the given resolution:
//
//	Q = sum_c [ In_c / 2m - resolution * (Tot_c / 2m)^2 ]
//
// In_c sums A_ij over ordered pairs inside c, with A_ii = 2w for a self-loop
// of weight w, so the score of a partition equals the score of the singleton
// partition on its coarsened graph. A graph without edges scores 0.
func Modularity(g *Graph, p Partition, resolution float64) float64 {
	if g.TotalWeight == 0 || len(p) != g.NumNodes {
		return 0.0
	}

	k := p.NumCommunities()
	in := make([]float64, k)
	tot := make([]float64, k)

	for u := 0; u < g.NumNodes; u++ {
		cu := p[u]
		tot[cu] += g.Degrees[u]
		neighbors, weights := g.GetNeighbors(u)
		for i, v := range neighbors {
			if p[v] != cu {
				continue
			}
			if v == u {
				in[cu] += 2 * weights[i]
			} else {
				in[cu] += weights[i]
			}
		}
	}

	m2 := 2 * g.TotalWeight
	q := 0.0
	for c := 0; c < k; c++ {
		if tot[c] > 0 {
			q += in[c]/m2 - resolution*(tot[c]/m2)*(tot[c]/m2)
		}
	}
	return q
}
