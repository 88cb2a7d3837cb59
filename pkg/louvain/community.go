package louvain

import (
	"sort"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
)

// Community tracks community membership and the sums local moving needs.
//
// CommunityWeights[c] is Tot_c, the summed degree of the members.
// CommunityInternalWeights[c] is In_c, the summed adjacency inside c with
// self-loops counted twice.
type Community struct {
	NodeToCommunity          []int
	CommunityWeights         []float64
	CommunityInternalWeights []float64
	CommunitySizes           []int
	NumCommunities           int
}

// NewCommunity puts every node in its own community.
func NewCommunity(g *graph.Graph) *Community {
	n := g.NumNodes
	comm := &Community{
		NodeToCommunity:          make([]int, n),
		CommunityWeights:         make([]float64, n),
		CommunityInternalWeights: make([]float64, n),
		CommunitySizes:           make([]int, n),
		NumCommunities:           n,
	}

	for i := 0; i < n; i++ {
		comm.NodeToCommunity[i] = i
		comm.CommunityWeights[i] = g.Degrees[i]
		comm.CommunityInternalWeights[i] = 2 * g.SelfLoop(i)
		comm.CommunitySizes[i] = 1
	}

	return comm
}

// remove takes node out of its community, leaving it unassigned (-1).
// weightToComm is the edge weight from node to the rest of the community.
func (c *Community) remove(g *graph.Graph, node int, weightToComm float64) {
	old := c.NodeToCommunity[node]
	c.CommunityWeights[old] -= g.Degrees[node]
	c.CommunityInternalWeights[old] -= 2*weightToComm + 2*g.SelfLoop(node)
	c.CommunitySizes[old]--
	c.NodeToCommunity[node] = -1
}

// insert puts an unassigned node into comm.
func (c *Community) insert(g *graph.Graph, node, comm int, weightToComm float64) {
	c.CommunityWeights[comm] += g.Degrees[node]
	c.CommunityInternalWeights[comm] += 2*weightToComm + 2*g.SelfLoop(node)
	c.CommunitySizes[comm]++
	c.NodeToCommunity[node] = comm
}

// neighborCommunities sums the edge weight from node into each adjacent
// community, self-loop excluded. Community ids are returned sorted.
func (c *Community) neighborCommunities(g *graph.Graph, node int) ([]int, map[int]float64) {
	weights := make(map[int]float64)
	neighbors, edgeWeights := g.GetNeighbors(node)
	for i, neighbor := range neighbors {
		if neighbor == node {
			continue
		}
		comm := c.NodeToCommunity[neighbor]
		if comm < 0 {
			continue
		}
		weights[comm] += edgeWeights[i]
	}

	comms := make([]int, 0, len(weights))
	for comm := range weights {
		comms = append(comms, comm)
	}
	sort.Ints(comms)
	return comms, weights
}

// Modularity scores the current assignment.
func (c *Community) Modularity(g *graph.Graph, resolution float64) float64 {
	if g.TotalWeight == 0 {
		return 0.0
	}

	modularity := 0.0
	m2 := 2.0 * g.TotalWeight
	for comm := 0; comm < c.NumCommunities; comm++ {
		if c.CommunitySizes[comm] == 0 {
			continue
		}
		internal := c.CommunityInternalWeights[comm]
		total := c.CommunityWeights[comm]
		modularity += internal/m2 - resolution*(total/m2)*(total/m2)
	}
	return modularity
}

// Partition returns the assignment relabeled to 0..K-1.
func (c *Community) Partition() (graph.Partition, int) {
	return graph.Partition(c.NodeToCommunity).Relabel()
}
