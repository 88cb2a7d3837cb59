// Package parser reads whitespace separated edge lists into graphs.
//
// Each non-blank, non-comment line is "<source> <target> [weight]". Tokens
// are opaque; they are mapped to dense vertex ids in numeric order when every
// token is an integer and in lexicographic order otherwise.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/multiscale-clustering/pkg/graph"
)

// Stats summarizes what the parser saw.
type Stats struct {
	Lines            int  `json:"lines" yaml:"lines"`
	Edges            int  `json:"edges" yaml:"edges"`
	SelfLoopsDropped int  `json:"self_loops_dropped" yaml:"self_loops_dropped"`
	ParallelMerged   int  `json:"parallel_merged" yaml:"parallel_merged"`
	NumericIDs       bool `json:"numeric_ids" yaml:"numeric_ids"`
}

// ParseResult contains the parsed graph and the id mappings.
type ParseResult struct {
	Graph *graph.Graph
	Stats Stats

	// OriginalToNormalized maps an input token to its dense vertex id.
	OriginalToNormalized map[string]int
}

// GraphParser turns edge lists into graphs.
type GraphParser struct {
	logger zerolog.Logger
}

// NewGraphParser creates a parser that logs to logger.
func NewGraphParser(logger zerolog.Logger) *GraphParser {
	return &GraphParser{logger: logger}
}

type rawEdge struct {
	from, to string
	weight   float64
}

// ParseFile parses the edge list at path.
func (p *GraphParser) ParseFile(path string) (*ParseResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	result, err := p.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return result, nil
}

// Parse reads an edge list from r. Parallel edges are summed and self-loops
// dropped. A line with a single token or a bad weight fails with a
// *graph.MalformedGraphError carrying the line number.
func (p *GraphParser) Parse(r io.Reader) (*ParseResult, error) {
	var (
		stats  Stats
		edges  []rawEdge
		tokens = make(map[string]struct{})
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		stats.Lines++

		parts := strings.Fields(line)
		if len(parts) < 2 {
			return nil, &graph.MalformedGraphError{Line: lineNo, Reason: fmt.Sprintf("expected at least 2 fields, got %d", len(parts))}
		}

		weight := 1.0
		if len(parts) >= 3 {
			w, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, &graph.MalformedGraphError{Line: lineNo, Reason: fmt.Sprintf("invalid weight %q", parts[2])}
			}
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, &graph.MalformedGraphError{Line: lineNo, Reason: fmt.Sprintf("invalid weight %v", w)}
			}
			weight = w
		}

		from, to := parts[0], parts[1]
		tokens[from] = struct{}{}
		tokens[to] = struct{}{}

		if from == to {
			stats.SelfLoopsDropped++
			continue
		}
		edges = append(edges, rawEdge{from: from, to: to, weight: weight})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading edge list: %w", err)
	}

	names, numeric := sortTokens(tokens)
	stats.NumericIDs = numeric
	index := make(map[string]int, len(names))
	vertices := make([]int, len(names))
	for i, name := range names {
		index[name] = i
		vertices[i] = i
	}

	seen := make(map[[2]int]bool, len(edges))
	graphEdges := make([]graph.Edge, 0, len(edges))
	for _, e := range edges {
		u, v := index[e.from], index[e.to]
		key := [2]int{u, v}
		if u > v {
			key = [2]int{v, u}
		}
		if seen[key] {
			stats.ParallelMerged++
		}
		seen[key] = true
		graphEdges = append(graphEdges, graph.Edge{From: u, To: v, Weight: e.weight})
	}

	g, err := graph.Build(vertices, graphEdges)
	if err != nil {
		return nil, err
	}
	g.Labels = names
	stats.Edges = g.NumEdges()

	p.logger.Debug().
		Int("nodes", g.NumNodes).
		Int("edges", stats.Edges).
		Int("self_loops_dropped", stats.SelfLoopsDropped).
		Int("parallel_merged", stats.ParallelMerged).
		Bool("numeric_ids", numeric).
		Msg("Parsed edge list")

	return &ParseResult{
		Graph:                g,
		Stats:                stats,
		OriginalToNormalized: index,
	}, nil
}

// sortTokens orders tokens numerically if all are integers, else
// lexicographically.
func sortTokens(set map[string]struct{}) ([]string, bool) {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}

	numeric := true
	values := make(map[string]int64, len(names))
	for _, name := range names {
		v, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			numeric = false
			break
		}
		values[name] = v
	}

	if numeric {
		sort.Slice(names, func(i, j int) bool {
			if values[names[i]] != values[names[j]] {
				return values[names[i]] < values[names[j]]
			}
			return names[i] < names[j]
		})
	} else {
		sort.Strings(names)
	}
	return names, numeric
}
