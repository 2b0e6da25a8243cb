package graph

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ademuri/artist-graph/internal/genre"
)

// SnapshotVersion is written into every snapshot file.
const SnapshotVersion = 1

var ErrNoSnapshot = errors.New("no graph snapshot")

// Snapshot is the persisted form of a Graph.
type Snapshot struct {
	Version     int       `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	Graph
}

// Validate checks the structural invariants a persisted graph must hold:
// every link endpoint exists, no unordered pair is linked twice, weights are
// positive, and importance is a finite value in [0, 1].
func (g Graph) Validate() error {
	idx := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node %q has an empty id", n.Name)
		}
		if idx[n.ID] {
			return fmt.Errorf("duplicate node %q", n.ID)
		}
		idx[n.ID] = true
		if math.IsNaN(n.Importance) || math.IsInf(n.Importance, 0) || n.Importance < 0 || n.Importance > 1 {
			return fmt.Errorf("node %q: importance %v out of range", n.ID, n.Importance)
		}
		if math.IsNaN(n.Popularity) || math.IsInf(n.Popularity, 0) {
			return fmt.Errorf("node %q: popularity is not finite", n.ID)
		}
		if n.Genre != "" && !genre.IsLabel(n.Genre) {
			return fmt.Errorf("node %q: unknown genre %q", n.ID, n.Genre)
		}
	}

	pairs := make(map[[2]string]bool, len(g.Links))
	for _, l := range g.Links {
		if !idx[l.Source] || !idx[l.Target] {
			return fmt.Errorf("link %s-%s has a missing endpoint", l.Source, l.Target)
		}
		if l.Source == l.Target {
			return fmt.Errorf("link %s-%s is a self loop", l.Source, l.Target)
		}
		key := pairKey(l.Source, l.Target)
		if pairs[key] {
			return fmt.Errorf("duplicate link %s-%s", key[0], key[1])
		}
		pairs[key] = true
		if l.Weight <= 0 {
			return fmt.Errorf("link %s-%s has weight %d", l.Source, l.Target, l.Weight)
		}
	}
	return nil
}

// SaveSnapshot validates g and writes it to path. The file is replaced via a
// rename so readers never observe a partial write. Two concurrent rebuilds
// still race: the last rename wins.
func SaveSnapshot(path string, g Graph) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("invalid graph: %w", err)
	}
	if g.KeySpace == "" {
		g.KeySpace = KeyByName
	}
	g.Stats = g.ComputeStats()

	data, err := json.MarshalIndent(Snapshot{
		Version:     SnapshotVersion,
		GeneratedAt: time.Now().UTC(),
		Graph:       g,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot. A missing file is
// reported as ErrNoSnapshot.
func LoadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, fmt.Errorf("%s: %w", path, ErrNoSnapshot)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	if s.Version > SnapshotVersion {
		return Snapshot{}, fmt.Errorf("snapshot %s has version %d, newest supported is %d", path, s.Version, SnapshotVersion)
	}
	if s.KeySpace == "" {
		s.KeySpace = KeyByName
	}
	if s.Links == nil {
		s.Links = []Link{}
	}
	return s, nil
}

// WriteJSON writes g without the snapshot envelope, the shape the
// visualisation front-end reads.
func WriteJSON(path string, g Graph) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
