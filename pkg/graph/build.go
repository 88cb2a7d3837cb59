package graph

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Build creates a graph over the given vertex ids. Vertices are renumbered to
// 0..len(vertices)-1 in the order given; parallel edges (in either
// orientation) are merged by summing their weights.
func Build(vertices []int, edges []Edge) (*Graph, error) {
	index := make(map[int]int, len(vertices))
	for i, v := range vertices {
		if _, dup := index[v]; dup {
			return nil, &MalformedGraphError{Reason: fmt.Sprintf("duplicate vertex %d", v)}
		}
		index[v] = i
	}

	summed := make(map[[2]int]float64, len(edges))
	for _, e := range edges {
		u, ok := index[e.From]
		if !ok {
			return nil, &MalformedGraphError{Reason: fmt.Sprintf("edge %d-%d references unknown vertex %d", e.From, e.To, e.From)}
		}
		v, ok := index[e.To]
		if !ok {
			return nil, &MalformedGraphError{Reason: fmt.Sprintf("edge %d-%d references unknown vertex %d", e.From, e.To, e.To)}
		}
		if e.Weight < 0 || math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
			return nil, &MalformedGraphError{Reason: fmt.Sprintf("edge %d-%d has invalid weight %v", e.From, e.To, e.Weight)}
		}
		summed[pairKey(u, v)] += e.Weight
	}

	g := NewGraph(len(vertices))
	for _, key := range sortedPairs(summed) {
		if err := g.AddEdge(key[0], key[1], summed[key]); err != nil {
			return nil, &MalformedGraphError{Reason: err.Error()}
		}
	}

	g.Labels = make([]string, len(vertices))
	for i, v := range vertices {
		g.Labels[i] = strconv.Itoa(v)
	}

	return g, nil
}

// pairKey orders an unordered vertex pair.
func pairKey(u, v int) [2]int {
	if u <= v {
		return [2]int{u, v}
	}
	return [2]int{v, u}
}

func sortedPairs(m map[[2]int]float64) [][2]int {
	keys := make([][2]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	return keys
}
