package graph

// Coarsen collapses every community of p into a single supernode. Supernode
// ids are the community ids of p, so p must be contiguous.
//
// Intra-community edges, existing self-loops included, accumulate on the
// supernode's self-loop; inter-community edges accumulate on the superedge
// between the two supernodes. Total edge weight is conserved. g is not
// modified.
func Coarsen(g *Graph, p Partition) (*Graph, error) {
	if err := p.Validate(g.NumNodes); err != nil {
		return nil, err
	}
	if _, err := p.CheckMembers(); err != nil {
		return nil, err
	}

	numCommunities := p.NumCommunities()
	superWeights := make(map[[2]int]float64)
	for _, e := range g.Edges() {
		superWeights[pairKey(p[e.From], p[e.To])] += e.Weight
	}

	coarse := NewGraph(numCommunities)
	for _, key := range sortedPairs(superWeights) {
		w := superWeights[key]
		if w <= 0 {
			continue
		}
		if err := coarse.AddEdge(key[0], key[1], w); err != nil {
			return nil, err
		}
	}

	return coarse, nil
}
