// Package graph turns song observations into a weighted artist graph.
package graph

import (
	"errors"
	"strings"

	"github.com/ademuri/artist-graph/internal/genre"
)

// KeySpace says what node ids mean. Graphs keyed by platform id and graphs
// keyed by display name must never be merged into each other.
type KeySpace string

const (
	KeyByName KeySpace = "name"
	KeyByID   KeySpace = "id"
)

// Link types.
const (
	TypeCollaboration = "collaboration"
	TypeSimilar       = "similar"
)

// DefaultSongLimit caps song lists in transport payloads.
const DefaultSongLimit = 20

var ErrKeySpaceMismatch = errors.New("graphs use different key spaces")

// Observation is one raw (song, artist) record from any source.
type Observation struct {
	Title      string   `json:"title" validate:"required"`
	Artist     string   `json:"artist" validate:"required"`
	AllArtists []string `json:"all_artists,omitempty"`
	Album      string   `json:"album,omitempty"`
	Duration   string   `json:"duration,omitempty"`
	Popularity int      `json:"popularity,omitempty" validate:"min=0,max=100"`
}

// Credits returns the distinct, non-empty co-credited artists of the
// observation, primary artist first.
func (o Observation) Credits() []string {
	seen := make(map[string]bool, len(o.AllArtists)+1)
	var out []string
	for _, a := range append([]string{o.Artist}, o.AllArtists...) {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

type Song struct {
	Title    string `json:"title"`
	Album    string `json:"album,omitempty"`
	Duration string `json:"duration,omitempty"`
}

type Node struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Genre      string  `json:"genre"`
	SongCount  int     `json:"song_count"`
	Importance float64 `json:"importance"`
	Popularity float64 `json:"popularity,omitempty"`
	Songs      []Song  `json:"songs"`
	InLibrary  bool    `json:"in_library"`
	IsRelated  bool    `json:"is_related"`
}

// Unresolved reports whether the node still needs a genre.
func (n Node) Unresolved() bool {
	return n.Genre == "" || n.Genre == genre.Other
}

type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
	Type   string `json:"type"`
}

type Stats struct {
	TotalArtists     int `json:"total_artists"`
	TotalConnections int `json:"total_connections"`
	LibraryArtists   int `json:"library_artists"`
	RelatedArtists   int `json:"related_artists"`
}

// Graph is a complete artist graph. Values are treated as snapshots: the
// helper methods return modified copies rather than mutating shared slices.
type Graph struct {
	KeySpace KeySpace `json:"key_space"`
	Nodes    []Node   `json:"nodes"`
	Links    []Link   `json:"links"`
	Stats    Stats    `json:"stats"`
}

// Clone returns a deep copy of g.
func (g Graph) Clone() Graph {
	out := Graph{KeySpace: g.KeySpace, Stats: g.Stats}
	out.Nodes = make([]Node, len(g.Nodes))
	for i, n := range g.Nodes {
		n.Songs = append([]Song(nil), n.Songs...)
		out.Nodes[i] = n
	}
	out.Links = append([]Link(nil), g.Links...)
	return out
}

// NodeIndex maps node ids to their position in g.Nodes.
func (g Graph) NodeIndex() map[string]int {
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// Neighbors returns the undirected adjacency list of g, by node id. Each
// link contributes one entry per endpoint regardless of weight.
func (g Graph) Neighbors() map[string][]string {
	adj := make(map[string][]string, len(g.Nodes))
	for _, l := range g.Links {
		adj[l.Source] = append(adj[l.Source], l.Target)
		adj[l.Target] = append(adj[l.Target], l.Source)
	}
	return adj
}

// ComputeStats recounts g's stats from its nodes and links.
func (g Graph) ComputeStats() Stats {
	s := Stats{TotalArtists: len(g.Nodes), TotalConnections: len(g.Links)}
	for _, n := range g.Nodes {
		if n.InLibrary {
			s.LibraryArtists++
		}
		if n.IsRelated {
			s.RelatedArtists++
		}
	}
	return s
}

// Transport returns a copy of g with every song list capped at limit. Song
// counts keep their true values. limit <= 0 means no cap.
func (g Graph) Transport(limit int) Graph {
	out := g.Clone()
	if limit <= 0 {
		return out
	}
	for i := range out.Nodes {
		if len(out.Nodes[i].Songs) > limit {
			out.Nodes[i].Songs = out.Nodes[i].Songs[:limit]
		}
	}
	return out
}

// GenreCounts tallies nodes per genre label.
func (g Graph) GenreCounts() map[string]int {
	counts := make(map[string]int)
	for _, n := range g.Nodes {
		label := n.Genre
		if label == "" {
			label = genre.Other
		}
		counts[label]++
	}
	return counts
}

// pairKey canonicalises an unordered pair so (a, b) and (b, a) collide.
func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}
