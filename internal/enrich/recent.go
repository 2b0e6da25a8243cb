package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/ademuri/artist-graph/internal/graph"
	"github.com/ademuri/artist-graph/internal/logging"
)

// RecentSource pages through a user's scrobbles. *Client satisfies it.
type RecentSource interface {
	RecentTracks(ctx context.Context, user string, page int) (TrackPage, error)
}

type RecentOptions struct {
	// After stops paging once a page reaches scrobbles older than this.
	After time.Time
	// MaxPages caps the number of pages fetched; 0 means all of them.
	MaxPages int
}

// FetchRecent collects a user's scrobbles, newest first, as observations.
// Repeated plays of a song are kept once.
func FetchRecent(ctx context.Context, src RecentSource, user string, opts RecentOptions) ([]graph.Observation, error) {
	log := logging.Component("recent")
	seen := make(map[[2]string]bool)
	var obs []graph.Observation

	pages := 0
	for page := 1; ; page++ {
		recent, err := src.RecentTracks(ctx, user, page)
		if err != nil {
			if len(obs) > 0 {
				log.Warnw("stopping early", "page", page, "error", err)
				break
			}
			return nil, fmt.Errorf("fetching recent tracks of %q: %w", user, err)
		}
		if pages == 0 {
			pages = recent.TotalPages
		}

		for _, o := range recent.Tracks {
			key := [2]string{o.Artist, o.Title}
			if seen[key] {
				continue
			}
			seen[key] = true
			obs = append(obs, o)
		}
		log.Infow("downloaded page", "page", page, "pages", pages, "oldest", recent.Oldest.Format("2006-01-02"))

		if len(recent.Tracks) == 0 || page >= pages {
			break
		}
		if !opts.After.IsZero() && recent.Oldest.Before(opts.After) {
			break
		}
		if opts.MaxPages > 0 && page >= opts.MaxPages {
			break
		}
	}
	return obs, nil
}
