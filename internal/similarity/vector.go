// Package similarity compares listening tastes.
package similarity

import (
	"math"
	"sort"
	"strings"

	"github.com/ademuri/artist-graph/internal/genre"
	"github.com/ademuri/artist-graph/internal/graph"
)

// TopGenreCount is how many labels TasteVector.TopGenres keeps.
const TopGenreCount = 5

// TasteVector summarises one listener: how their songs spread over the
// taxonomy and which artists they come from.
type TasteVector struct {
	// GenreWeights sums to 1 over the taxonomy, or is empty when there are
	// no songs.
	GenreWeights  map[string]float64 `json:"genre_weights" yaml:"genre_weights"`
	ArtistCounts  map[string]int     `json:"artist_counts" yaml:"artist_counts"`
	TopGenres     []string           `json:"top_genres" yaml:"top_genres"`
	TotalSongs    int                `json:"total_songs" yaml:"total_songs"`
	UniqueArtists int                `json:"unique_artists" yaml:"unique_artists"`
	// Diversity is the normalised Shannon entropy of GenreWeights, in [0, 1].
	Diversity float64 `json:"diversity" yaml:"diversity"`
}

// NewTasteVector builds a vector from raw observations. Every observation
// with a title and an artist counts once toward its primary artist's genre.
func NewTasteVector(obs []graph.Observation, r graph.Resolver) TasteVector {
	labels := make(map[string]string)
	genreCounts := make(map[string]int)
	artists := make(map[string]int)
	total := 0
	for _, o := range obs {
		artist := strings.TrimSpace(o.Artist)
		if artist == "" || strings.TrimSpace(o.Title) == "" {
			continue
		}
		label, ok := labels[artist]
		if !ok {
			label = genre.Other
			if r != nil {
				label = r.Resolve(artist)
			}
			labels[artist] = label
		}
		genreCounts[label]++
		artists[artist]++
		total++
	}
	return newVector(genreCounts, artists, total)
}

// FromGraph builds a vector from the in-library nodes of a built graph, so
// that inferred genres count too.
func FromGraph(g graph.Graph) TasteVector {
	genreCounts := make(map[string]int)
	artists := make(map[string]int)
	total := 0
	for _, n := range g.Nodes {
		if !n.InLibrary || n.SongCount == 0 {
			continue
		}
		label := n.Genre
		if label == "" {
			label = genre.Other
		}
		genreCounts[label] += n.SongCount
		artists[n.Name] += n.SongCount
		total += n.SongCount
	}
	return newVector(genreCounts, artists, total)
}

func newVector(genreCounts, artists map[string]int, total int) TasteVector {
	v := TasteVector{
		GenreWeights:  make(map[string]float64, len(genreCounts)),
		ArtistCounts:  artists,
		TotalSongs:    total,
		UniqueArtists: len(artists),
	}
	if total == 0 {
		v.TopGenres = []string{}
		return v
	}
	for label, c := range genreCounts {
		v.GenreWeights[label] = float64(c) / float64(total)
	}
	v.TopGenres = topLabels(v.GenreWeights, TopGenreCount)
	v.Diversity = entropy(v.GenreWeights)
	return v
}

// topLabels returns up to n labels by descending weight, ties alphabetical.
func topLabels(weights map[string]float64, n int) []string {
	labels := sortedKeys(weights)
	sort.SliceStable(labels, func(i, j int) bool {
		return weights[labels[i]] > weights[labels[j]]
	})
	if len(labels) > n {
		labels = labels[:n]
	}
	return labels
}

// entropy is the Shannon entropy of a distribution, normalised by the
// maximum over the whole taxonomy.
func entropy(weights map[string]float64) float64 {
	h := 0.0
	for _, label := range sortedKeys(weights) {
		p := weights[label]
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	hmax := math.Log(float64(len(genre.Labels)))
	if hmax == 0 {
		return 0
	}
	return clamp01(h / hmax)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
