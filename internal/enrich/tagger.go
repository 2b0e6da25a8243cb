package enrich

import (
	"context"
	"time"

	"github.com/ademuri/artist-graph/internal/genre"
	"github.com/ademuri/artist-graph/internal/graph"
	"github.com/ademuri/artist-graph/internal/logging"
	"github.com/ademuri/artist-graph/internal/store"
)

// DefaultTagInterval is how long fetched tags are trusted.
const DefaultTagInterval = 24 * 365 * time.Hour

// TagCache stores fetched tags between runs. *store.Store satisfies it.
type TagCache interface {
	GetArtistTags(artist string) ([]store.ArtistTag, error)
	ArtistTagsStale(artist string, interval time.Duration) (bool, error)
	SaveArtistTags(artist string, tags []store.ArtistTag) error
}

// TagSource fetches an artist's tags, most used first. *Client satisfies
// it.
type TagSource interface {
	TopTags(ctx context.Context, artist string) ([]store.ArtistTag, error)
}

// Tagger assigns genres from Last.fm tags to nodes the genre table left
// unresolved. Either Source or Cache may be nil: without a source only
// cached tags are used, without a cache every lookup goes to the source.
type Tagger struct {
	Source   TagSource
	Cache    TagCache
	Mapper   *genre.TagMapper
	Interval time.Duration
}

type TagReport struct {
	Unresolved int
	Fetched    int
	FromCache  int
	Failed     int
	Assigned   int
}

// Resolve returns a copy of g with tag-derived genres filled in. Nodes that
// already have a genre are left alone, and an artist whose tags map to no
// label stays Other. Errors are logged and the node skipped.
func (t *Tagger) Resolve(ctx context.Context, g graph.Graph) (graph.Graph, TagReport) {
	log := logging.Component("tagger")
	out := g.Clone()
	var report TagReport

	mapper := t.Mapper
	if mapper == nil {
		mapper = genre.NewTagMapper(nil)
	}
	interval := t.Interval
	if interval <= 0 {
		interval = DefaultTagInterval
	}

	for i, n := range out.Nodes {
		if !n.Unresolved() {
			continue
		}
		report.Unresolved++
		if ctx.Err() != nil {
			continue
		}

		tags, ok := t.tags(ctx, n.Name, interval, &report)
		if !ok {
			report.Failed++
			continue
		}
		names := make([]string, len(tags))
		for j, tag := range tags {
			names[j] = tag.Name
		}
		if label, ok := mapper.Map(names); ok {
			out.Nodes[i].Genre = label
			report.Assigned++
			log.Debugw("genre from tags", "artist", n.Name, "genre", label)
		}
	}

	if err := ctx.Err(); err != nil {
		log.Warnw("tag lookup stopped", "error", err)
	}
	log.Infow("tag lookup finished",
		"unresolved", report.Unresolved,
		"fetched", report.Fetched,
		"cached", report.FromCache,
		"failed", report.Failed,
		"assigned", report.Assigned)
	return out, report
}

// tags returns cached tags while they are fresh and fetches new ones
// otherwise. A failed fetch falls back to stale cached tags.
func (t *Tagger) tags(ctx context.Context, artist string, interval time.Duration, report *TagReport) ([]store.ArtistTag, bool) {
	log := logging.Component("tagger")

	stale := true
	if t.Cache != nil {
		var err error
		stale, err = t.Cache.ArtistTagsStale(artist, interval)
		if err != nil {
			log.Warnw("reading tag cache", "artist", artist, "error", err)
			stale = true
		}
	}

	if stale && t.Source != nil {
		tags, err := t.Source.TopTags(ctx, artist)
		if err == nil {
			report.Fetched++
			if t.Cache != nil {
				if err := t.Cache.SaveArtistTags(artist, tags); err != nil {
					log.Warnw("saving tags", "artist", artist, "error", err)
				}
			}
			return tags, true
		}
		log.Debugw("fetching tags", "artist", artist, "error", err)
	}

	if t.Cache == nil {
		return nil, false
	}
	tags, err := t.Cache.GetArtistTags(artist)
	if err != nil {
		log.Warnw("reading cached tags", "artist", artist, "error", err)
		return nil, false
	}
	if stale && len(tags) == 0 {
		return nil, false
	}
	report.FromCache++
	return tags, true
}
