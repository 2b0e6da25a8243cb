package graph

import (
	"context"
	"fmt"

	"github.com/ademuri/artist-graph/internal/genre"
	"github.com/ademuri/artist-graph/internal/logging"
)

// RelatedArtist is one entry returned by a related-artist source.
type RelatedArtist struct {
	ID    string
	Name  string
	Match float64
}

// RelatedSource looks up artists similar to a given one, e.g. Last.fm's
// artist.getSimilar.
type RelatedSource interface {
	Related(ctx context.Context, artist string, limit int) ([]RelatedArtist, error)
}

type RelatedReport struct {
	Queried    int
	Failed     int
	NodesAdded int
	LinksAdded int
}

// AddRelated expands g with up to perArtist related artists for every
// in-library node. New nodes are marked is_related and linked with `similar`
// edges. Existing nodes are never modified, and a pair that already has a
// link is left alone. Source failures are logged and skipped; a cancelled
// context stops the expansion early with what has been added so far.
func (g Graph) AddRelated(ctx context.Context, src RelatedSource, perArtist int, resolver Resolver) (Graph, RelatedReport) {
	log := logging.Component("related")
	out := g.Clone()
	var report RelatedReport
	if src == nil || perArtist <= 0 {
		return out, report
	}

	idx := out.NodeIndex()
	linked := make(map[[2]string]bool, len(out.Links))
	for _, l := range out.Links {
		linked[pairKey(l.Source, l.Target)] = true
	}

	library := make([]Node, 0, len(out.Nodes))
	for _, n := range out.Nodes {
		if n.InLibrary {
			library = append(library, n)
		}
	}

	for _, n := range library {
		if err := ctx.Err(); err != nil {
			log.Warnw("related expansion stopped", "error", err, "queried", report.Queried)
			break
		}

		report.Queried++
		related, err := src.Related(ctx, n.Name, perArtist)
		if err != nil {
			report.Failed++
			log.Debugw("related lookup failed", "artist", n.Name, "error", err)
			continue
		}
		if len(related) > perArtist {
			related = related[:perArtist]
		}

		for _, r := range related {
			id := r.Name
			if out.KeySpace == KeyByID {
				id = r.ID
			}
			if id == "" || id == n.ID {
				continue
			}

			if _, ok := idx[id]; !ok {
				label := genre.Other
				if resolver != nil {
					label = resolver.Resolve(r.Name)
				}
				idx[id] = len(out.Nodes)
				out.Nodes = append(out.Nodes, Node{
					ID:        id,
					Name:      r.Name,
					Genre:     label,
					Songs:     []Song{},
					IsRelated: true,
				})
				report.NodesAdded++
			}

			key := pairKey(n.ID, id)
			if linked[key] {
				continue
			}
			linked[key] = true
			out.Links = append(out.Links, Link{Source: key[0], Target: key[1], Weight: 1, Type: TypeSimilar})
			report.LinksAdded++
		}
	}

	sortLinks(out.Links)
	out.Stats = out.ComputeStats()
	return out, report
}

// PreserveGenres copies final labels from prev into nodes of g that are still
// unresolved. Labels already present in g win.
func (g Graph) PreserveGenres(prev Graph) (Graph, int, error) {
	if keySpaceOf(g) != keySpaceOf(prev) {
		return g, 0, fmt.Errorf("preserving genres: %w", ErrKeySpaceMismatch)
	}

	prevIdx := prev.NodeIndex()
	out := g.Clone()
	n := 0
	for i, node := range out.Nodes {
		if !node.Unresolved() {
			continue
		}
		j, ok := prevIdx[node.ID]
		if !ok {
			continue
		}
		if label := prev.Nodes[j].Genre; genre.IsFinal(label) {
			out.Nodes[i].Genre = label
			n++
		}
	}
	return out, n, nil
}

// Snapshots written before key spaces were recorded are name-keyed.
func keySpaceOf(g Graph) KeySpace {
	if g.KeySpace == "" {
		return KeyByName
	}
	return g.KeySpace
}
