package graph

import (
	"gonum.org/v1/gonum/graph/simple"
)

// ToGonum converts to a gonum weighted undirected graph with node ids equal
// to the dense vertex ids. Self-loops are dropped: simple graphs cannot hold
// them.
func ToGonum(g *Graph) *simple.WeightedUndirectedGraph {
	wg := simple.NewWeightedUndirectedGraph(0, 0)
	for i := 0; i < g.NumNodes; i++ {
		wg.AddNode(simple.Node(int64(i)))
	}
	for _, e := range g.Edges() {
		if e.From == e.To || e.Weight <= 0 {
			continue
		}
		wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(int64(e.From)), simple.Node(int64(e.To)), e.Weight))
	}
	return wg
}
