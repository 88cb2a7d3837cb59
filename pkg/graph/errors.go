package graph

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrMalformedGraph   = errors.New("malformed graph")
	ErrEmptyCommunity   = errors.New("empty community")
	ErrInvalidPartition = errors.New("invalid partition")
)

// MalformedGraphError reports a structural problem found while building a
// graph: an edge referencing an unknown vertex, a negative weight, a bad
// input line.
type MalformedGraphError struct {
	Line   int // 1-based input line, 0 when not parsing a file
	Reason string
}

func (e *MalformedGraphError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed graph at line %d: %s", e.Line, e.Reason)
	}
	return "malformed graph: " + e.Reason
}

func (e *MalformedGraphError) Is(target error) bool { return target == ErrMalformedGraph }

// EmptyCommunityError means a community id in 0..K-1 has no members. Oracles
// must never produce this after relabeling; it is never patched over because
// skipping the community would silently drop mass.
type EmptyCommunityError struct {
	Community int
	NumNodes  int
}

func (e *EmptyCommunityError) Error() string {
	return fmt.Sprintf("community %d has no members (partition over %d nodes)", e.Community, e.NumNodes)
}

func (e *EmptyCommunityError) Is(target error) bool { return target == ErrEmptyCommunity }

// InvalidPartitionError reports a partition that is not a total function onto
// non-negative ids for the graph it is applied to.
type InvalidPartitionError struct {
	Reason string
}

func (e *InvalidPartitionError) Error() string { return "invalid partition: " + e.Reason }

func (e *InvalidPartitionError) Is(target error) bool { return target == ErrInvalidPartition }
