package similarity

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ademuri/artist-graph/internal/genre"
)

// Member is a named taste vector, typically a stored profile.
type Member struct {
	ID     string      `json:"id" yaml:"id"`
	Name   string      `json:"name" yaml:"name"`
	Vector TasteVector `json:"taste_vector" yaml:"taste_vector"`
}

type Pair struct {
	A       string  `json:"a" yaml:"a"`
	B       string  `json:"b" yaml:"b"`
	Overall float64 `json:"overall" yaml:"overall"`
}

// GroupResult holds every pairwise comparison of a group. Matrix rows and
// columns follow Members; the diagonal is 100.
type GroupResult struct {
	Members        []Member    `json:"-" yaml:"-"`
	Matrix         [][]float64 `json:"matrix" yaml:"matrix"`
	Pairs          []Pair      `json:"pairs" yaml:"pairs"`
	Average        float64     `json:"average" yaml:"average"`
	MostSimilar    Pair        `json:"most_similar" yaml:"most_similar"`
	LeastSimilar   Pair        `json:"least_similar" yaml:"least_similar"`
	GroupDiversity float64     `json:"group_diversity" yaml:"group_diversity"`
}

// CompareGroup compares every pair of members.
func CompareGroup(members []Member, opts Options) (GroupResult, error) {
	if len(members) < 2 {
		return GroupResult{}, ErrTooFewMembers
	}

	res := GroupResult{Members: members, Matrix: make([][]float64, len(members))}
	for i := range members {
		res.Matrix[i] = make([]float64, len(members))
		res.Matrix[i][i] = 100
	}

	sum := 0.0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			score := Compare(members[i].Vector, members[j].Vector, opts).Overall
			res.Matrix[i][j] = score
			res.Matrix[j][i] = score
			p := Pair{A: members[i].ID, B: members[j].ID, Overall: score}
			res.Pairs = append(res.Pairs, p)
			sum += score
		}
	}
	res.Average = round1(sum / float64(len(res.Pairs)))

	res.MostSimilar, res.LeastSimilar = res.Pairs[0], res.Pairs[0]
	for _, p := range res.Pairs[1:] {
		if p.Overall > res.MostSimilar.Overall {
			res.MostSimilar = p
		}
		if p.Overall < res.LeastSimilar.Overall {
			res.LeastSimilar = p
		}
	}

	// Group diversity is the entropy of the members' averaged genre
	// distributions.
	combined := make(map[string]float64)
	n := 0
	for _, m := range members {
		if len(m.Vector.GenreWeights) == 0 {
			continue
		}
		n++
		for label, w := range m.Vector.GenreWeights {
			combined[label] += w
		}
	}
	if n > 0 {
		for label := range combined {
			combined[label] /= float64(n)
		}
		res.GroupDiversity = round1(100 * entropy(combined))
	}
	return res, nil
}

// Match is one Discover result.
type Match struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Overall     float64  `json:"similarity" yaml:"similarity"`
	SharedCount int      `json:"shared_count" yaml:"shared_count"`
	TopShared   []string `json:"top_shared" yaml:"top_shared"`
}

// Discover ranks candidates by similarity to target, best first, and keeps
// at most limit of them. The target itself is skipped.
func Discover(target Member, candidates []Member, opts Options, limit int) []Match {
	out := []Match{}
	for _, c := range candidates {
		if c.ID == target.ID {
			continue
		}
		r := Compare(target.Vector, c.Vector, opts)
		m := Match{ID: c.ID, Name: c.Name, Overall: r.Overall, SharedCount: r.SharedCount, TopShared: []string{}}
		for i, s := range r.SharedArtists {
			if i == 5 {
				break
			}
			m.TopShared = append(m.TopShared, s.Name)
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Overall != out[j].Overall {
			return out[i].Overall > out[j].Overall
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Leaderboard kinds. Genre boards are named "genre-" plus the label slug,
// e.g. "genre-drum-&-bass".
const (
	BoardDiverse = "diverse"
	BoardPopular = "popular"
	BoardUnique  = "unique"
	boardGenre   = "genre-"
)

// GenreBoardMinWeight is the share of a listener's taste a genre must hold
// to place them on that genre's board.
const GenreBoardMinWeight = 0.1

// UniqueBoardSample caps how many members the unique board compares, since
// it is quadratic.
const UniqueBoardSample = 50

var ErrUnknownBoard = errors.New("unknown leaderboard")

type Ranked struct {
	ID    string  `json:"id" yaml:"id"`
	Name  string  `json:"name" yaml:"name"`
	Score float64 `json:"score" yaml:"score"`
}

// Board describes a computed leaderboard.
type Board struct {
	Kind    string   `json:"type" yaml:"type"`
	Title   string   `json:"title" yaml:"title"`
	Entries []Ranked `json:"profiles" yaml:"profiles"`
}

// GenreSlug turns a label into its leaderboard slug.
func GenreSlug(label string) string {
	return strings.ReplaceAll(strings.ToLower(label), " ", "-")
}

// Leaderboard ranks members for the named board and keeps at most limit.
func Leaderboard(kind string, members []Member, opts Options, limit int) (Board, error) {
	var b Board
	switch {
	case kind == BoardDiverse:
		b = Board{Kind: kind, Title: "Most Diverse Taste"}
		for _, m := range members {
			b.Entries = append(b.Entries, Ranked{ID: m.ID, Name: m.Name, Score: round1(100 * m.Vector.Diversity)})
		}
	case kind == BoardPopular:
		b = Board{Kind: kind, Title: "Biggest Music Lovers"}
		for _, m := range members {
			b.Entries = append(b.Entries, Ranked{ID: m.ID, Name: m.Name, Score: float64(m.Vector.TotalSongs)})
		}
	case kind == BoardUnique:
		b = Board{Kind: kind, Title: "Most Unique Taste"}
		sample := members
		if len(sample) > UniqueBoardSample {
			sample = sample[:UniqueBoardSample]
		}
		for i, m := range sample {
			sum, n := 0.0, 0
			for j, other := range sample {
				if i == j {
					continue
				}
				sum += Compare(m.Vector, other.Vector, opts).Overall
				n++
			}
			if n == 0 {
				continue
			}
			b.Entries = append(b.Entries, Ranked{ID: m.ID, Name: m.Name, Score: round1(100 - sum/float64(n))})
		}
	case strings.HasPrefix(kind, boardGenre):
		label, ok := labelForSlug(strings.TrimPrefix(kind, boardGenre))
		if !ok {
			return Board{}, fmt.Errorf("%w: %s", ErrUnknownBoard, kind)
		}
		b = Board{Kind: boardGenre + GenreSlug(label), Title: fmt.Sprintf("Top %s Fans", label)}
		for _, m := range members {
			if w := m.Vector.GenreWeights[label]; w > GenreBoardMinWeight {
				b.Entries = append(b.Entries, Ranked{ID: m.ID, Name: m.Name, Score: round1(100 * w)})
			}
		}
	default:
		return Board{}, fmt.Errorf("%w: %s", ErrUnknownBoard, kind)
	}

	sort.SliceStable(b.Entries, func(i, j int) bool {
		if b.Entries[i].Score != b.Entries[j].Score {
			return b.Entries[i].Score > b.Entries[j].Score
		}
		return b.Entries[i].Name < b.Entries[j].Name
	})
	if limit > 0 && len(b.Entries) > limit {
		b.Entries = b.Entries[:limit]
	}
	if b.Entries == nil {
		b.Entries = []Ranked{}
	}
	return b, nil
}

func labelForSlug(slug string) (string, bool) {
	slug = strings.ToLower(slug)
	for _, l := range genre.Labels {
		if GenreSlug(l) == slug {
			return l, true
		}
	}
	return "", false
}
