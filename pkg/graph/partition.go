package graph

import "fmt"

// Partition maps each dense vertex id to a community id.
type Partition []int

// Singletons puts every vertex of an n-node graph in its own community.
func Singletons(n int) Partition {
	p := make(Partition, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// Validate checks that p is a total function from the n vertices of a graph
// onto non-negative community ids.
func (p Partition) Validate(n int) error {
	if len(p) != n {
		return &InvalidPartitionError{Reason: fmt.Sprintf("partition covers %d vertices, graph has %d", len(p), n)}
	}
	for v, c := range p {
		if c < 0 {
			return &InvalidPartitionError{Reason: fmt.Sprintf("vertex %d has negative community %d", v, c)}
		}
	}
	return nil
}

// Merged validates p against n vertices and returns how many vertices
// coarsening by p absorbs into another vertex's supernode: n minus the number
// of distinct communities. Zero means coarsening by p is the identity.
func (p Partition) Merged(n int) (int, error) {
	if err := p.Validate(n); err != nil {
		return 0, err
	}
	_, k := p.Relabel()
	return n - k, nil
}

// NumCommunities returns max id + 1, the K of the 0..K-1 range. It equals the
// number of non-empty communities only for contiguous partitions.
func (p Partition) NumCommunities() int {
	k := 0
	for _, c := range p {
		if c+1 > k {
			k = c + 1
		}
	}
	return k
}

// Relabel renumbers communities to 0..K-1 in order of first appearance and
// returns the new partition with K. The receiver is not modified.
func (p Partition) Relabel() (Partition, int) {
	mapping := make(map[int]int)
	out := make(Partition, len(p))
	for v, c := range p {
		id, ok := mapping[c]
		if !ok {
			id = len(mapping)
			mapping[c] = id
		}
		out[v] = id
	}
	return out, len(mapping)
}

// IsContiguous reports whether the ids used are exactly 0..K-1.
func (p Partition) IsContiguous() bool {
	k := p.NumCommunities()
	used := make([]bool, k)
	for _, c := range p {
		if c < 0 {
			return false
		}
		used[c] = true
	}
	for _, u := range used {
		if !u {
			return false
		}
	}
	return true
}

// Members groups vertices by community id, index = id. Members of a
// community are in ascending vertex order. A gap yields an empty slot.
func (p Partition) Members() [][]int {
	members := make([][]int, p.NumCommunities())
	for v, c := range p {
		members[c] = append(members[c], v)
	}
	return members
}

// CheckMembers returns the members of a contiguous partition, or an
// EmptyCommunityError for the first id without members.
func (p Partition) CheckMembers() ([][]int, error) {
	members := p.Members()
	for c, m := range members {
		if len(m) == 0 {
			return nil, &EmptyCommunityError{Community: c, NumNodes: len(p)}
		}
	}
	return members, nil
}

// Clone copies the partition.
func (p Partition) Clone() Partition {
	out := make(Partition, len(p))
	copy(out, p)
	return out
}
