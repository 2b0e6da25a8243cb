package similarity

import (
	"errors"
	"math"
	"sort"
	"strings"
)

var ErrTooFewMembers = errors.New("need at least 2 members to compare")

// Options weights the components of the overall score.
type Options struct {
	ArtistWeight    float64
	GenreWeight     float64
	DiversityWeight float64
}

func DefaultOptions() Options {
	return Options{ArtistWeight: 0.4, GenreWeight: 0.45, DiversityWeight: 0.15}
}

// SharedArtist is an artist both listeners have.
type SharedArtist struct {
	Name   string `json:"name" yaml:"name"`
	CountA int    `json:"count_a" yaml:"count_a"`
	CountB int    `json:"count_b" yaml:"count_b"`
}

// SharedGenre is a label both listeners have, with each side's weight.
type SharedGenre struct {
	Genre   string  `json:"genre" yaml:"genre"`
	WeightA float64 `json:"weight_a" yaml:"weight_a"`
	WeightB float64 `json:"weight_b" yaml:"weight_b"`
}

// Result is the outcome of comparing two taste vectors. Overall is on a
// 0-100 scale, the component scores are in [0, 1].
type Result struct {
	Overall             float64        `json:"overall" yaml:"overall"`
	ArtistOverlap       float64        `json:"artist_overlap" yaml:"artist_overlap"`
	GenreSimilarity     float64        `json:"genre_similarity" yaml:"genre_similarity"`
	Cosine              float64        `json:"cosine" yaml:"cosine"`
	DiversitySimilarity float64        `json:"diversity_similarity" yaml:"diversity_similarity"`
	SharedCount         int            `json:"shared_count" yaml:"shared_count"`
	SharedArtists       []SharedArtist `json:"shared_artists" yaml:"shared_artists"`
	SharedGenres        []SharedGenre  `json:"shared_genres" yaml:"shared_genres"`
}

// Compare scores the similarity of a and b. The overall score and every
// component are symmetric in their arguments; only the order of the
// detail lists depends on which side is a.
func Compare(a, b TasteVector, opts Options) Result {
	var r Result

	namesA := foldArtists(a.ArtistCounts)
	namesB := foldArtists(b.ArtistCounts)
	union := len(namesA)
	for key, sa := range namesB {
		if _, ok := namesA[key]; !ok {
			union++
			continue
		}
		r.SharedArtists = append(r.SharedArtists, SharedArtist{
			Name:   namesA[key].name,
			CountA: namesA[key].count,
			CountB: sa.count,
		})
	}
	r.SharedCount = len(r.SharedArtists)
	if union > 0 {
		r.ArtistOverlap = float64(r.SharedCount) / float64(union)
	}
	sort.Slice(r.SharedArtists, func(i, j int) bool {
		si := r.SharedArtists[i].CountA + r.SharedArtists[i].CountB
		sj := r.SharedArtists[j].CountA + r.SharedArtists[j].CountB
		if si != sj {
			return si > sj
		}
		return r.SharedArtists[i].Name < r.SharedArtists[j].Name
	})

	if len(a.GenreWeights) > 0 && len(b.GenreWeights) > 0 {
		var l1, dot, normA, normB float64
		for _, label := range unionLabels(a.GenreWeights, b.GenreWeights) {
			wa, wb := a.GenreWeights[label], b.GenreWeights[label]
			l1 += math.Abs(wa - wb)
			dot += wa * wb
			normA += wa * wa
			normB += wb * wb
			if wa > 0 && wb > 0 {
				r.SharedGenres = append(r.SharedGenres, SharedGenre{Genre: label, WeightA: wa, WeightB: wb})
			}
		}
		r.GenreSimilarity = clamp01(1 - l1/2)
		if normA > 0 && normB > 0 {
			r.Cosine = clamp01(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
		}
		sort.SliceStable(r.SharedGenres, func(i, j int) bool {
			return math.Min(r.SharedGenres[i].WeightA, r.SharedGenres[i].WeightB) >
				math.Min(r.SharedGenres[j].WeightA, r.SharedGenres[j].WeightB)
		})
	}

	if a.TotalSongs > 0 && b.TotalSongs > 0 {
		r.DiversitySimilarity = clamp01(1 - math.Abs(a.Diversity-b.Diversity))
	}

	total := opts.ArtistWeight + opts.GenreWeight + opts.DiversityWeight
	if total > 0 {
		score := (opts.ArtistWeight*r.ArtistOverlap +
			opts.GenreWeight*r.GenreSimilarity +
			opts.DiversityWeight*r.DiversitySimilarity) / total
		r.Overall = round1(100 * clamp01(score))
	}
	if r.SharedArtists == nil {
		r.SharedArtists = []SharedArtist{}
	}
	if r.SharedGenres == nil {
		r.SharedGenres = []SharedGenre{}
	}
	return r
}

type foldedArtist struct {
	name  string
	count int
}

// foldArtists keys artist counts case-insensitively. When two spellings
// collide the alphabetically first one names the entry.
func foldArtists(counts map[string]int) map[string]foldedArtist {
	out := make(map[string]foldedArtist, len(counts))
	for _, name := range sortedKeys(counts) {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		f, ok := out[key]
		if !ok {
			f.name = name
		}
		f.count += counts[name]
		out[key] = f
	}
	return out
}

func unionLabels(a, b map[string]float64) []string {
	seen := make(map[string]float64, len(a)+len(b))
	for k := range a {
		seen[k] = 0
	}
	for k := range b {
		seen[k] = 0
	}
	return sortedKeys(seen)
}
