// Package output writes a hierarchy as text files: community membership,
// parent/child structure, roots, inter-community edges and a YAML manifest.
//
// Community c of level l is written as c0_l<l+1>_<c>.
package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/multiscale-clustering/pkg/multiscale"
)

// Writer generates hierarchy report files.
type Writer interface {
	WriteMapping(h *multiscale.Hierarchy, path string) error
	WriteHierarchy(h *multiscale.Hierarchy, path string) error
	WriteRoot(h *multiscale.Hierarchy, path string) error
	WriteEdges(h *multiscale.Hierarchy, path string) error
	WriteManifest(h *multiscale.Hierarchy, path string) error
	WriteAll(h *multiscale.Hierarchy, outputDir, prefix string) error
}

// FileWriter implements Writer on the local filesystem.
type FileWriter struct {
	logger zerolog.Logger
}

// NewFileWriter creates a file-based writer.
func NewFileWriter(logger zerolog.Logger) *FileWriter {
	return &FileWriter{logger: logger}
}

// CommunityID formats the identifier of community c at 0-based level l.
func CommunityID(level, community int) string {
	return fmt.Sprintf("c0_l%d_%d", level+1, community)
}

// WriteAll writes <prefix>.mapping, .hierarchy, .root, .edges and .yaml
// into outputDir.
func (fw *FileWriter) WriteAll(h *multiscale.Hierarchy, outputDir, prefix string) error {
	if len(h.Levels) == 0 {
		return fmt.Errorf("hierarchy has no levels")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	steps := []struct {
		ext   string
		write func(*multiscale.Hierarchy, string) error
	}{
		{"mapping", fw.WriteMapping},
		{"hierarchy", fw.WriteHierarchy},
		{"root", fw.WriteRoot},
		{"edges", fw.WriteEdges},
		{"yaml", fw.WriteManifest},
	}
	for _, step := range steps {
		path := filepath.Join(outputDir, fmt.Sprintf("%s.%s", prefix, step.ext))
		if err := step.write(h, path); err != nil {
			return fmt.Errorf("failed to write %s: %w", step.ext, err)
		}
	}

	fw.logger.Debug().
		Str("dir", outputDir).
		Str("prefix", prefix).
		Int("levels", h.NumLevels()).
		Msg("Hierarchy files written")
	return nil
}

// WriteMapping lists, for each top-level community, the labels of the base
// vertices it contains.
func (fw *FileWriter) WriteMapping(h *multiscale.Hierarchy, path string) error {
	top := len(h.Levels) - 1
	proj, err := h.Project(top)
	if err != nil {
		return err
	}

	base := h.Levels[0].Graph
	partition := h.Levels[top].Partition
	labels := make([][]string, partition.NumCommunities())
	for v, s := range proj {
		c := partition[s]
		labels[c] = append(labels[c], base.Label(v))
	}

	return writeLines(path, func(w *bufio.Writer) {
		total := 0
		for c, members := range labels {
			sort.Strings(members)
			fmt.Fprintln(w, CommunityID(top, c))
			fmt.Fprintln(w, len(members))
			for _, label := range members {
				fmt.Fprintln(w, label)
			}
			total += len(members)
		}
		fw.logger.Debug().Int("nodes", total).Msg("Mapping written")
	})
}

// WriteHierarchy lists, for each community above the base level, the ids of
// the communities one level down that it contains.
func (fw *FileWriter) WriteHierarchy(h *multiscale.Hierarchy, path string) error {
	return writeLines(path, func(w *bufio.Writer) {
		for l := 1; l < len(h.Levels); l++ {
			for c, children := range h.Levels[l].Partition.Members() {
				fmt.Fprintln(w, CommunityID(l, c))
				fmt.Fprintln(w, len(children))
				for _, child := range children {
					fmt.Fprintln(w, child)
				}
			}
		}
	})
}

// WriteRoot lists the top-level communities.
func (fw *FileWriter) WriteRoot(h *multiscale.Hierarchy, path string) error {
	top := len(h.Levels) - 1
	return writeLines(path, func(w *bufio.Writer) {
		for c := 0; c < h.Levels[top].Partition.NumCommunities(); c++ {
			fmt.Fprintln(w, CommunityID(top, c))
		}
	})
}

// WriteEdges lists, per level, each pair of communities joined by at least
// one edge, smaller id first.
func (fw *FileWriter) WriteEdges(h *multiscale.Hierarchy, path string) error {
	return writeLines(path, func(w *bufio.Writer) {
		for l := range h.Levels {
			level := &h.Levels[l]
			seen := make(map[[2]int]bool)
			for _, e := range level.Graph.Edges() {
				a, b := level.Partition[e.From], level.Partition[e.To]
				if a == b {
					continue
				}
				if a > b {
					a, b = b, a
				}
				seen[[2]int{a, b}] = true
			}

			pairs := make([]string, 0, len(seen))
			for pair := range seen {
				pairs = append(pairs, CommunityID(l, pair[0])+" "+CommunityID(l, pair[1]))
			}
			sort.Strings(pairs)
			for _, pair := range pairs {
				fmt.Fprintln(w, pair)
			}
		}
	})
}

// Manifest summarizes a hierarchy run.
type Manifest struct {
	Oracle     string         `yaml:"oracle"`
	Layout     string         `yaml:"layout"`
	StopReason string         `yaml:"stop_reason"`
	ElapsedMS  int64          `yaml:"elapsed_ms"`
	BaseNodes  int            `yaml:"base_nodes"`
	Levels     []LevelSummary `yaml:"levels"`
}

// LevelSummary describes one level.
type LevelSummary struct {
	Index       int     `yaml:"index"`
	Nodes       int     `yaml:"nodes"`
	Edges       int     `yaml:"edges"`
	Communities int     `yaml:"communities"`
	TotalWeight float64 `yaml:"total_weight"`
	TotalSize   int     `yaml:"total_size"`
	Modularity  float64 `yaml:"modularity"`
}

// NewManifest builds the manifest for h.
func NewManifest(h *multiscale.Hierarchy) Manifest {
	m := Manifest{
		Oracle:     h.Oracle,
		Layout:     h.Layout,
		StopReason: string(h.StopReason),
		ElapsedMS:  h.Elapsed.Milliseconds(),
	}
	if len(h.Levels) > 0 {
		m.BaseNodes = h.Levels[0].Graph.NumNodes
	}
	for i := range h.Levels {
		level := &h.Levels[i]
		m.Levels = append(m.Levels, LevelSummary{
			Index:       level.Index,
			Nodes:       level.Graph.NumNodes,
			Edges:       level.Graph.NumEdges(),
			Communities: level.NumCommunities(),
			TotalWeight: level.Graph.TotalWeight,
			TotalSize:   level.TotalSize(),
			Modularity:  level.Modularity,
		})
	}
	return m
}

// WriteManifest writes the YAML manifest.
func (fw *FileWriter) WriteManifest(h *multiscale.Hierarchy, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(NewManifest(h)); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return encoder.Close()
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

func writeLines(path string, fill func(w *bufio.Writer)) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	fill(w)
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
