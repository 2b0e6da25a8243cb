// Package enrich fills in what local data cannot: Last.fm tags for artists
// the genre table does not know, related artists, and scrobble history.
package enrich

import (
	"strconv"
	"strings"
	"time"

	"github.com/ademuri/lastfm-go/lastfm"

	"github.com/ademuri/artist-graph/internal/graph"
	"github.com/ademuri/artist-graph/internal/store"
)

// recentPageSize is the largest page user.getRecentTracks serves.
const recentPageSize = 200

// TrackPage is one page of a user's scrobbles, newest first.
type TrackPage struct {
	Tracks     []graph.Observation
	Oldest     time.Time
	TotalPages int
}

// API is the subset of Last.fm the enrichers call. Implementations are not
// expected to be safe for concurrent use.
type API interface {
	ArtistTopTags(artist string) ([]store.ArtistTag, error)
	ArtistSimilar(artist string, limit int) ([]graph.RelatedArtist, error)
	RecentTracks(user string, page int) (TrackPage, error)
}

type lastfmAPI struct {
	api *lastfm.Api
}

// NewLastfmAPI returns an API backed by the Last.fm web service.
func NewLastfmAPI(apiKey, secret string) API {
	api := lastfm.New(apiKey, secret)
	api.SetUserAgent("artist-graph/1.0")
	return &lastfmAPI{api: api}
}

func (l *lastfmAPI) ArtistTopTags(artist string) ([]store.ArtistTag, error) {
	topTags, err := l.api.Artist.GetTopTags(lastfm.P{
		"artist":      artist,
		"autocorrect": 1,
	})
	if err != nil {
		return nil, err
	}
	tags := make([]store.ArtistTag, 0, len(topTags.Tags))
	for _, t := range topTags.Tags {
		c, _ := strconv.Atoi(t.Count)
		tags = append(tags, store.ArtistTag{Name: t.Name, Count: c})
	}
	return tags, nil
}

func (l *lastfmAPI) ArtistSimilar(artist string, limit int) ([]graph.RelatedArtist, error) {
	similar, err := l.api.Artist.GetSimilar(lastfm.P{
		"artist":      artist,
		"limit":       limit,
		"autocorrect": 1,
	})
	if err != nil {
		return nil, err
	}
	related := make([]graph.RelatedArtist, 0, len(similar.Similars))
	for _, s := range similar.Similars {
		match, _ := strconv.ParseFloat(s.Match, 64)
		related = append(related, graph.RelatedArtist{ID: s.Mbid, Name: s.Name, Match: match})
	}
	return related, nil
}

func (l *lastfmAPI) RecentTracks(user string, page int) (TrackPage, error) {
	recentTracks, err := l.api.User.GetRecentTracks(lastfm.P{
		"limit": recentPageSize,
		"page":  page,
		"user":  user,
	})
	if err != nil {
		return TrackPage{}, err
	}

	out := TrackPage{TotalPages: recentTracks.TotalPages}
	for _, t := range recentTracks.Tracks {
		// The now-playing track has no timestamp and will show up again
		// once it has been scrobbled.
		uts, err := strconv.ParseInt(t.Date.Uts, 10, 64)
		if err != nil {
			continue
		}
		out.Tracks = append(out.Tracks, graph.Observation{
			Title:  strings.TrimSpace(t.Name),
			Artist: strings.TrimSpace(t.Artist.Name),
			Album:  strings.TrimSpace(t.Album.Name),
		})
		if when := time.Unix(uts, 0); out.Oldest.IsZero() || when.Before(out.Oldest) {
			out.Oldest = when
		}
	}
	return out, nil
}

// isServerError reports whether Last.fm failed on its side, which is worth
// retrying.
func isServerError(err error) bool {
	if lerr, ok := err.(*lastfm.LastfmError); ok {
		return lerr.Code/100 == 5
	}
	return false
}

// isMissing reports a Last.fm "not found" answer (error 6), which says
// nothing about the health of the service.
func isMissing(err error) bool {
	if lerr, ok := err.(*lastfm.LastfmError); ok {
		return lerr.Code == 6
	}
	return false
}
