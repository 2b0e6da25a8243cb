// Package propagate infers genres for unresolved artists from the labels of
// their neighbours in the artist graph.
package propagate

import (
	"sort"

	"github.com/ademuri/artist-graph/internal/genre"
	"github.com/ademuri/artist-graph/internal/graph"
	"github.com/ademuri/artist-graph/internal/logging"
)

// Options controls the inference thresholds.
type Options struct {
	// MinConnections is the minimum number of neighbours carrying the
	// majority label.
	MinConnections int
	// MinShare is the fraction of labelled neighbours the majority label must
	// exceed.
	MinShare float64
	// MinFamilyShare is the fraction of labelled neighbours that must belong
	// to the majority label's family.
	MinFamilyShare float64
	// SkipFamilies are never inferred from adjacency.
	SkipFamilies []string
	Passes       int

	FallbackLabel        string
	FallbackSources      []string
	FallbackMinNeighbors int
}

// DefaultOptions returns the calibrated production thresholds.
func DefaultOptions() Options {
	var sources []string
	for _, l := range genre.FamilyLabels(genre.FamilyEDM) {
		if l == genre.Electronic || l == "Electro Soul" {
			continue
		}
		sources = append(sources, l)
	}
	return Options{
		MinConnections:       3,
		MinShare:             0.6,
		MinFamilyShare:       0.6,
		SkipFamilies:         []string{genre.FamilyKPop},
		Passes:               3,
		FallbackLabel:        genre.Electronic,
		FallbackSources:      sources,
		FallbackMinNeighbors: 1,
	}
}

// Report summarises a Run.
type Report struct {
	Promoted         []int
	FallbackAssigned int
	Remaining        int
}

// Total is the number of labels assigned across all passes and the fallback.
func (r Report) Total() int {
	n := r.FallbackAssigned
	for _, p := range r.Promoted {
		n += p
	}
	return n
}

// Pass runs one round of majority-vote inference. Votes are read from g as
// given, so a label assigned in this pass only counts in the next one. The
// input is not modified.
func Pass(g graph.Graph, opts Options) (graph.Graph, int) {
	out := g.Clone()
	adj := g.Neighbors()
	idx := g.NodeIndex()
	skip := make(map[string]bool, len(opts.SkipFamilies))
	for _, f := range opts.SkipFamilies {
		skip[f] = true
	}

	promoted := 0
	for i, n := range g.Nodes {
		if !n.Unresolved() {
			continue
		}

		counts := make(map[string]int)
		families := make(map[string]int)
		total := 0
		for _, id := range adj[n.ID] {
			label := g.Nodes[idx[id]].Genre
			if !genre.IsFinal(label) {
				continue
			}
			counts[label]++
			families[genre.FamilyOf(label)]++
			total++
		}
		if total == 0 {
			continue
		}

		label, count := majority(counts)
		family := genre.FamilyOf(label)
		if skip[family] {
			continue
		}
		if count < opts.MinConnections {
			continue
		}
		if float64(count)/float64(total) <= opts.MinShare {
			continue
		}
		if float64(families[family])/float64(total) < opts.MinFamilyShare {
			continue
		}

		out.Nodes[i].Genre = label
		promoted++
	}
	return out, promoted
}

// Fallback labels every unresolved node that has at least
// opts.FallbackMinNeighbors neighbours from opts.FallbackSources.
func Fallback(g graph.Graph, opts Options) (graph.Graph, int) {
	out := g.Clone()
	if opts.FallbackLabel == "" {
		return out, 0
	}
	need := opts.FallbackMinNeighbors
	if need < 1 {
		need = 1
	}
	sources := make(map[string]bool, len(opts.FallbackSources))
	for _, s := range opts.FallbackSources {
		sources[s] = true
	}

	adj := g.Neighbors()
	idx := g.NodeIndex()
	assigned := 0
	for i, n := range g.Nodes {
		if !n.Unresolved() {
			continue
		}
		hits := 0
		for _, id := range adj[n.ID] {
			if sources[g.Nodes[idx[id]].Genre] {
				hits++
			}
		}
		if hits >= need {
			out.Nodes[i].Genre = opts.FallbackLabel
			assigned++
		}
	}
	return out, assigned
}

// Run applies opts.Passes rounds of Pass followed by Fallback. Empty genres
// are normalised to Other first.
func Run(g graph.Graph, opts Options) (graph.Graph, Report) {
	log := logging.Component("propagate")
	cur := g.Clone()
	for i := range cur.Nodes {
		if cur.Nodes[i].Genre == "" {
			cur.Nodes[i].Genre = genre.Other
		}
	}

	var report Report
	for p := 0; p < opts.Passes; p++ {
		var n int
		cur, n = Pass(cur, opts)
		report.Promoted = append(report.Promoted, n)
		log.Debugw("inference pass", "pass", p+1, "promoted", n)
		if n == 0 {
			break
		}
	}

	cur, report.FallbackAssigned = Fallback(cur, opts)
	for _, n := range cur.Nodes {
		if n.Unresolved() {
			report.Remaining++
		}
	}
	log.Infow("genre inference done", "assigned", report.Total(), "fallback", report.FallbackAssigned, "remaining", report.Remaining)
	return cur, report
}

// majority returns the most frequent label, ties broken alphabetically.
func majority(counts map[string]int) (string, int) {
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	best, bestCount := "", 0
	for _, l := range labels {
		if counts[l] > bestCount {
			best, bestCount = l, counts[l]
		}
	}
	return best, bestCount
}
