package propagate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ademuri/artist-graph/internal/genre"
	"github.com/ademuri/artist-graph/internal/graph"
)

// star builds a graph with an unresolved centre node linked to one
// neighbour per label.
func star(labels ...string) graph.Graph {
	g := graph.Graph{KeySpace: graph.KeyByName, Nodes: []graph.Node{{ID: "center", Name: "center", Genre: genre.Other}}}
	for i, l := range labels {
		id := fmt.Sprintf("n%d", i)
		g.Nodes = append(g.Nodes, graph.Node{ID: id, Name: id, Genre: l})
		g.Links = append(g.Links, graph.Link{Source: "center", Target: id, Weight: 1, Type: graph.TypeCollaboration})
	}
	return g
}

func genreOf(t *testing.T, g graph.Graph, id string) string {
	t.Helper()
	i, ok := g.NodeIndex()[id]
	require.True(t, ok, "node %q", id)
	return g.Nodes[i].Genre
}

func TestPassPromotesMajority(t *testing.T) {
	g := star("Dubstep/Bass", "Dubstep/Bass", "Dubstep/Bass", "Trance")

	out, n := Pass(g, DefaultOptions())
	assert.Equal(t, 1, n)
	assert.Equal(t, "Dubstep/Bass", genreOf(t, out, "center"))
}

func TestPassThresholds(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   string
	}{
		{"too few connections", []string{"Trance", "Trance"}, genre.Other},
		{"share at threshold", []string{"Trance", "Trance", "Trance", "House", "House"}, genre.Other},
		{"other neighbours do not vote", []string{"Trance", "Trance", "Trance", genre.Other, genre.Other}, "Trance"},
		{"kpop is skipped", []string{"K-Pop", "K-Pop", "K-Pop", "K-Pop"}, genre.Other},
		{"same family mix", []string{"Rock", "Rock", "Rock", "Rock", "Metal"}, "Rock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := Pass(star(tt.labels...), DefaultOptions())
			assert.Equal(t, tt.want, genreOf(t, out, "center"))
		})
	}
}

func TestPassFamilyContainment(t *testing.T) {
	opts := DefaultOptions()
	opts.MinShare = 0.3

	out, _ := Pass(star("Rock", "Rock", "Rock", "Trance", "House", "Techno"), opts)
	assert.Equal(t, genre.Other, genreOf(t, out, "center"), "Rock evidence is only half the neighbourhood")

	out, _ = Pass(star("Rock", "Rock", "Rock", "Metal", "Punk", "Trance"), opts)
	assert.Equal(t, "Rock", genreOf(t, out, "center"))
}

func TestPassTieBreaksAlphabetically(t *testing.T) {
	opts := DefaultOptions()
	opts.MinConnections = 1
	opts.MinShare = 0.4
	out, _ := Pass(star("Trance", "House"), opts)
	assert.Equal(t, "House", genreOf(t, out, "center"))
}

func TestPassIsPure(t *testing.T) {
	g := star("Trance", "Trance", "Trance")
	_, n := Pass(g, DefaultOptions())
	assert.Equal(t, 1, n)
	assert.Equal(t, genre.Other, genreOf(t, g, "center"), "input must not change")
}

func TestPassNeverOverwritesFinal(t *testing.T) {
	g := star("Hip-Hop", "Hip-Hop", "Hip-Hop", "Hip-Hop")
	g.Nodes[0].Genre = "Trance"
	out, n := Pass(g, DefaultOptions())
	assert.Equal(t, 0, n)
	assert.Equal(t, "Trance", genreOf(t, out, "center"))
}

func TestKPopNeighboursStayOther(t *testing.T) {
	out, report := Run(star("K-Pop", "K-Pop"), DefaultOptions())
	assert.Equal(t, genre.Other, genreOf(t, out, "center"))
	assert.Equal(t, 0, report.Total())
	assert.Equal(t, 1, report.Remaining)
}

func TestFallbackNeedsEDMNeighbour(t *testing.T) {
	out, report := Run(star("K-Pop", "K-Pop", "Trance"), DefaultOptions())
	assert.Equal(t, genre.Electronic, genreOf(t, out, "center"))
	assert.Equal(t, 1, report.FallbackAssigned)
	assert.Equal(t, 0, report.Remaining)
}

func TestFallbackIgnoresWeakSources(t *testing.T) {
	out, _ := Fallback(star(genre.Electronic, "Electro Soul"), DefaultOptions())
	assert.Equal(t, genre.Other, genreOf(t, out, "center"))
}

func TestRunPropagatesTransitively(t *testing.T) {
	// hub has three Trance neighbours; far has two plus hub, so it only
	// resolves once hub has a label.
	g := graph.Graph{KeySpace: graph.KeyByName}
	add := func(id, label string) {
		g.Nodes = append(g.Nodes, graph.Node{ID: id, Name: id, Genre: label})
	}
	link := func(a, b string) {
		g.Links = append(g.Links, graph.Link{Source: a, Target: b, Weight: 1, Type: graph.TypeCollaboration})
	}
	add("hub", genre.Other)
	add("far", genre.Other)
	for i := 0; i < 3; i++ {
		a := fmt.Sprintf("t%d", i)
		add(a, "Trance")
		link("hub", a)
	}
	for i := 0; i < 2; i++ {
		b := fmt.Sprintf("u%d", i)
		add(b, "Trance")
		link("far", b)
	}
	link("far", "hub")
	g.Links = append(g.Links, graph.Link{Source: "far", Target: "x", Weight: 1})
	g.Nodes = append(g.Nodes, graph.Node{ID: "x", Name: "x", Genre: "Pop"})

	out, report := Run(g, DefaultOptions())
	assert.Equal(t, "Trance", genreOf(t, out, "hub"))
	assert.Equal(t, "Trance", genreOf(t, out, "far"))
	require.GreaterOrEqual(t, len(report.Promoted), 2)
	assert.Equal(t, 1, report.Promoted[0])
	assert.Equal(t, 1, report.Promoted[1])
}

func TestRunIsMonotonic(t *testing.T) {
	g := star("Trance", "Trance", "Trance", "Rock")
	g.Nodes = append(g.Nodes, graph.Node{ID: "loose", Name: "loose", Genre: genre.Other})
	g.Links = append(g.Links, graph.Link{Source: "center", Target: "loose", Weight: 1})

	before := map[string]string{}
	for _, n := range g.Nodes {
		before[n.ID] = n.Genre
	}

	cur := g
	for i := 0; i < 5; i++ {
		next, _ := Pass(cur, DefaultOptions())
		for j, n := range cur.Nodes {
			if genre.IsFinal(n.Genre) {
				assert.Equal(t, n.Genre, next.Nodes[j].Genre, "final label on %s changed", n.ID)
			}
		}
		cur = next
	}
	for id, label := range before {
		if genre.IsFinal(label) {
			assert.Equal(t, label, genreOf(t, cur, id))
		}
	}
}

func TestRunNormalisesEmptyGenre(t *testing.T) {
	g := graph.Graph{Nodes: []graph.Node{{ID: "a"}}}
	out, report := Run(g, DefaultOptions())
	assert.Equal(t, genre.Other, out.Nodes[0].Genre)
	assert.Equal(t, 1, report.Remaining)
}

func TestDefaultFallbackSources(t *testing.T) {
	opts := DefaultOptions()
	assert.NotContains(t, opts.FallbackSources, genre.Electronic)
	assert.NotContains(t, opts.FallbackSources, "Electro Soul")
	assert.Contains(t, opts.FallbackSources, "Dubstep/Bass")
	for _, s := range opts.FallbackSources {
		assert.Equal(t, genre.FamilyEDM, genre.FamilyOf(s))
	}
}
