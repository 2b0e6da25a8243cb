package graph

import (
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ademuri/artist-graph/internal/genre"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func observationValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Resolver assigns a genre label to an artist name. genre.Lookup satisfies
// it; misses must come back as genre.Other.
type Resolver interface {
	Resolve(name string) string
}

// Builder converts observations into a Graph. The zero value is usable and
// labels every node Other.
type Builder struct {
	Resolver Resolver
}

// BuildReport describes what Build did with its input.
type BuildReport struct {
	Observations int
	Skipped      int
	Songs        int
}

type artistGroup struct {
	name    string
	songs   []Song
	credits [][]string
	titles  map[string]bool
	popSum  int
}

// Build groups observations by primary artist name and derives nodes and
// collaboration links. Malformed observations (no title or artist) are
// skipped. An empty input yields an empty graph.
func (b *Builder) Build(obs []Observation) (Graph, BuildReport) {
	report := BuildReport{Observations: len(obs)}
	v := observationValidator()

	var order []string
	groups := make(map[string]*artistGroup)
	for _, o := range obs {
		o.Title = strings.TrimSpace(o.Title)
		o.Artist = strings.TrimSpace(o.Artist)
		if err := v.Struct(o); err != nil {
			report.Skipped++
			continue
		}

		g, ok := groups[o.Artist]
		if !ok {
			g = &artistGroup{name: o.Artist, titles: make(map[string]bool)}
			groups[o.Artist] = g
			order = append(order, o.Artist)
		}
		if g.titles[o.Title] {
			continue
		}
		g.titles[o.Title] = true
		g.songs = append(g.songs, Song{Title: o.Title, Album: o.Album, Duration: o.Duration})
		g.credits = append(g.credits, o.Credits())
		g.popSum += o.Popularity
		report.Songs++
	}

	maxSongs := 0
	for _, g := range groups {
		if len(g.songs) > maxSongs {
			maxSongs = len(g.songs)
		}
	}
	if maxSongs == 0 {
		maxSongs = 1
	}

	graph := Graph{KeySpace: KeyByName, Nodes: make([]Node, 0, len(order)), Links: []Link{}}
	for _, name := range order {
		g := groups[name]
		label := genre.Other
		if b.Resolver != nil {
			label = b.Resolver.Resolve(name)
		}
		var popularity float64
		if len(g.songs) > 0 {
			popularity = float64(g.popSum) / float64(len(g.songs))
		}
		graph.Nodes = append(graph.Nodes, Node{
			ID:         name,
			Name:       name,
			Genre:      label,
			SongCount:  len(g.songs),
			Importance: float64(len(g.songs)) / float64(maxSongs),
			Popularity: popularity,
			Songs:      g.songs,
			InLibrary:  true,
		})
	}

	weights := make(map[[2]string]int)
	addCoCredits(weights, order, groups)
	addMentions(weights, order, groups)

	for pair, w := range weights {
		if w <= 0 {
			continue
		}
		graph.Links = append(graph.Links, Link{Source: pair[0], Target: pair[1], Weight: w, Type: TypeCollaboration})
	}
	sortLinks(graph.Links)
	graph.Stats = graph.ComputeStats()

	return graph, report
}

// addCoCredits adds one unit per song to every pair of distinct co-credited
// artists that both have a node.
func addCoCredits(weights map[[2]string]int, order []string, groups map[string]*artistGroup) {
	for _, name := range order {
		for _, credits := range groups[name].credits {
			var present []string
			for _, c := range credits {
				if _, ok := groups[c]; ok {
					present = append(present, c)
				}
			}
			for i := 0; i < len(present); i++ {
				for j := i + 1; j < len(present); j++ {
					weights[pairKey(present[i], present[j])]++
				}
			}
		}
	}
}

// addMentions adds one unit per song whose lowercased title contains the
// other artist's lowercased name, in both directions. This walks every
// artist pair against every song, O(n²·m), and dominates build time on
// large libraries.
func addMentions(weights map[[2]string]int, order []string, groups map[string]*artistGroup) {
	lowerNames := make([]string, len(order))
	lowerTitles := make([][]string, len(order))
	for i, name := range order {
		lowerNames[i] = strings.ToLower(name)
		songs := groups[name].songs
		lowerTitles[i] = make([]string, len(songs))
		for j, s := range songs {
			lowerTitles[i][j] = strings.ToLower(s.Title)
		}
	}

	for i := range order {
		for j := i + 1; j < len(order); j++ {
			n := 0
			for _, title := range lowerTitles[i] {
				if strings.Contains(title, lowerNames[j]) {
					n++
				}
			}
			for _, title := range lowerTitles[j] {
				if strings.Contains(title, lowerNames[i]) {
					n++
				}
			}
			if n > 0 {
				weights[pairKey(order[i], order[j])] += n
			}
		}
	}
}

func sortLinks(links []Link) {
	sort.Slice(links, func(i, j int) bool {
		if links[i].Source != links[j].Source {
			return links[i].Source < links[j].Source
		}
		if links[i].Target != links[j].Target {
			return links[i].Target < links[j].Target
		}
		return links[i].Type < links[j].Type
	})
}
