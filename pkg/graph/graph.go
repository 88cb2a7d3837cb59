// Package graph holds the undirected weighted graph model shared by every
// hierarchy level: construction from raw vertices and edges, partitions over
// dense vertex ids, coarsening into supernodes and modularity scoring.
package graph

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Graph represents a weighted undirected graph using adjacency arrays.
//
// Vertex ids are dense (0..NumNodes-1). A self-loop appears once in its
// vertex's adjacency list and contributes twice its weight to the degree.
type Graph struct {
	NumNodes    int         `json:"num_nodes"`
	Adjacency   [][]int     `json:"-"`            // adjacency[i] = neighbors of node i
	Weights     [][]float64 `json:"-"`            // weights[i][j] = weight of edge i-adjacency[i][j]
	Degrees     []float64   `json:"degrees"`      // weighted degree, self-loops counted twice
	TotalWeight float64     `json:"total_weight"` // sum of edge weights, self-loops counted once
	Labels      []string    `json:"labels,omitempty"`
}

// Edge is an undirected weighted edge. Endpoints are vertex ids of whatever
// id space the caller is in (original ids for Build, dense ids for Edges).
type Edge struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Weight float64 `json:"weight"`
}

// NewGraph creates a graph with n isolated nodes.
func NewGraph(numNodes int) *Graph {
	return &Graph{
		NumNodes:  numNodes,
		Adjacency: make([][]int, numNodes),
		Weights:   make([][]float64, numNodes),
		Degrees:   make([]float64, numNodes),
	}
}

// AddEdge appends an undirected edge. It does not merge with an existing
// edge between the same pair; Build and Coarsen pre-sum weights before
// calling it.
func (g *Graph) AddEdge(u, v int, weight float64) error {
	if u < 0 || u >= g.NumNodes || v < 0 || v >= g.NumNodes {
		return fmt.Errorf("node index out of range: u=%d, v=%d, numNodes=%d", u, v, g.NumNodes)
	}
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("invalid edge weight %f for edge %d-%d", weight, u, v)
	}

	g.Adjacency[u] = append(g.Adjacency[u], v)
	g.Weights[u] = append(g.Weights[u], weight)
	g.Degrees[u] += weight

	if u != v {
		g.Adjacency[v] = append(g.Adjacency[v], u)
		g.Weights[v] = append(g.Weights[v], weight)
		g.Degrees[v] += weight
	} else {
		g.Degrees[u] += weight
	}

	g.TotalWeight += weight
	return nil
}

// GetNeighbors returns neighbors and their edge weights for a node.
// The returned slices must not be modified.
func (g *Graph) GetNeighbors(node int) ([]int, []float64) {
	if node < 0 || node >= g.NumNodes {
		return nil, nil
	}
	return g.Adjacency[node], g.Weights[node]
}

// GetEdgeWeight returns the weight of the edge between u and v, or 0.
func (g *Graph) GetEdgeWeight(u, v int) float64 {
	if u < 0 || u >= g.NumNodes || v < 0 || v >= g.NumNodes {
		return 0.0
	}
	for i, neighbor := range g.Adjacency[u] {
		if neighbor == v {
			return g.Weights[u][i]
		}
	}
	return 0.0
}

// SelfLoop returns the self-loop weight of a node.
func (g *Graph) SelfLoop(node int) float64 {
	return g.GetEdgeWeight(node, node)
}

// Edges returns every undirected edge once, with From <= To, sorted.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.NumEdges())
	for u := 0; u < g.NumNodes; u++ {
		for i, v := range g.Adjacency[u] {
			if u <= v {
				edges = append(edges, Edge{From: u, To: v, Weight: g.Weights[u][i]})
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// NumEdges counts undirected edges, self-loops included.
func (g *Graph) NumEdges() int {
	count := 0
	for u := 0; u < g.NumNodes; u++ {
		for _, v := range g.Adjacency[u] {
			if u <= v {
				count++
			}
		}
	}
	return count
}

// Label returns the original label of a node, falling back to its index.
func (g *Graph) Label(node int) string {
	if node >= 0 && node < len(g.Labels) {
		return g.Labels[node]
	}
	return strconv.Itoa(node)
}

// Clone creates a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	clone := NewGraph(g.NumNodes)
	clone.TotalWeight = g.TotalWeight
	copy(clone.Degrees, g.Degrees)

	for i := 0; i < g.NumNodes; i++ {
		clone.Adjacency[i] = make([]int, len(g.Adjacency[i]))
		clone.Weights[i] = make([]float64, len(g.Weights[i]))
		copy(clone.Adjacency[i], g.Adjacency[i])
		copy(clone.Weights[i], g.Weights[i])
	}
	if g.Labels != nil {
		clone.Labels = make([]string, len(g.Labels))
		copy(clone.Labels, g.Labels)
	}

	return clone
}

// Validate checks adjacency consistency, symmetry and the absence of
// duplicate vertex pairs.
func (g *Graph) Validate() error {
	if g.NumNodes <= 0 {
		return fmt.Errorf("graph must have positive number of nodes")
	}
	if len(g.Adjacency) != g.NumNodes || len(g.Weights) != g.NumNodes || len(g.Degrees) != g.NumNodes {
		return fmt.Errorf("graph arrays do not match node count %d", g.NumNodes)
	}

	for i := 0; i < g.NumNodes; i++ {
		if len(g.Adjacency[i]) != len(g.Weights[i]) {
			return fmt.Errorf("adjacency and weights arrays inconsistent for node %d", i)
		}

		seen := make(map[int]bool, len(g.Adjacency[i]))
		for j, neighbor := range g.Adjacency[i] {
			if neighbor < 0 || neighbor >= g.NumNodes {
				return fmt.Errorf("invalid neighbor %d for node %d", neighbor, i)
			}
			if seen[neighbor] {
				return fmt.Errorf("duplicate edge %d-%d", i, neighbor)
			}
			seen[neighbor] = true

			weight := g.Weights[i][j]
			if weight < 0 {
				return fmt.Errorf("negative weight %f for edge %d-%d", weight, i, neighbor)
			}
			if neighbor != i && math.Abs(g.GetEdgeWeight(neighbor, i)-weight) > 1e-9 {
				return fmt.Errorf("graph is not symmetric: edge %d->%d", i, neighbor)
			}
		}
	}

	return nil
}
