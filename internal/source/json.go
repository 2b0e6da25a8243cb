package source

import (
	"fmt"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/ademuri/artist-graph/internal/graph"
)

// ParseJSON reads the JSON shapes seen in the wild:
//
//   - a plain list of songs, or a watch-history list (entries with titleUrl)
//   - {"liked_songs": [...]}, the format written by the import command
//   - {"items": [...]}, either playlist items or Spotify saved-track pages
//     whose entries wrap a "track" object
//
// Undecodable input yields an error; unknown shapes yield no records.
func ParseJSON(data []byte) ([]graph.Observation, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}

	switch v := doc.(type) {
	case []any:
		if looksLikeHistory(v) {
			return watchHistory(v), nil
		}
		return songList(v), nil
	case map[string]any:
		if liked, ok := v["liked_songs"].([]any); ok {
			return songList(liked), nil
		}
		if items, ok := v["items"].([]any); ok {
			return songList(items), nil
		}
	}
	return []graph.Observation{}, nil
}

func songList(items []any) []graph.Observation {
	out := []graph.Observation{}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if track, ok := m["track"].(map[string]any); ok {
			if o, ok := spotifyTrack(track); ok {
				out = append(out, o)
			}
			continue
		}

		title := firstString(m, "title", "name")
		if title == "" {
			continue
		}
		artists := artistNames(m["artist"])
		if len(artists) == 0 {
			artists = artistNames(m["artists"])
		}
		o := graph.Observation{
			Title:    title,
			Artist:   UnknownArtist,
			Album:    albumName(m["album"]),
			Duration: firstString(m, "duration"),
		}
		if len(artists) > 0 {
			o.Artist = artists[0]
			o.AllArtists = artists
		}
		out = append(out, o)
	}
	return out
}

// spotifyTrack converts one saved-track entry. Popularity is on Spotify's
// 0-100 scale already.
func spotifyTrack(t map[string]any) (graph.Observation, bool) {
	title := firstString(t, "name")
	artists := artistNames(t["artists"])
	if title == "" || len(artists) == 0 {
		return graph.Observation{}, false
	}
	o := graph.Observation{
		Title:      title,
		Artist:     artists[0],
		AllArtists: artists,
		Album:      albumName(t["album"]),
	}
	if ms, ok := t["duration_ms"].(float64); ok && ms > 0 {
		secs := int(ms / 1000)
		o.Duration = fmt.Sprintf("%d:%02d", secs/60, secs%60)
	}
	if p, ok := t["popularity"].(float64); ok && p >= 0 && p <= 100 {
		o.Popularity = int(p)
	}
	return o, true
}

func looksLikeHistory(items []any) bool {
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			_, has := m["titleUrl"]
			return has
		}
	}
	return false
}

// watchHistory keeps YouTube watch entries that point at a video. The
// channel stands in for the artist.
func watchHistory(items []any) []graph.Observation {
	out := []graph.Observation{}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		link := firstString(m, "titleUrl")
		if !strings.Contains(link, "music.youtube.com") && !strings.Contains(link, "youtube.com/watch") {
			continue
		}
		if videoID(link) == "" {
			continue
		}

		o := graph.Observation{Title: strings.TrimPrefix(firstString(m, "title"), "Watched ")}
		if subs, ok := m["subtitles"].([]any); ok && len(subs) > 0 {
			if s, ok := subs[0].(map[string]any); ok {
				o.Artist = strings.TrimSuffix(firstString(s, "name"), " - Topic")
			}
		}
		if o.Title == "" || o.Artist == "" {
			continue
		}
		out = append(out, o)
	}
	return out
}

func videoID(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Query().Get("v")
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// artistNames accepts a string, a list of strings or a list of
// {"name": ...} objects.
func artistNames(v any) []string {
	var out []string
	switch a := v.(type) {
	case string:
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	case []any:
		for _, item := range a {
			switch x := item.(type) {
			case string:
				if x = strings.TrimSpace(x); x != "" {
					out = append(out, x)
				}
			case map[string]any:
				if name := firstString(x, "name"); name != "" {
					out = append(out, name)
				}
			}
		}
	}
	return out
}

func albumName(v any) string {
	switch a := v.(type) {
	case string:
		return strings.TrimSpace(a)
	case map[string]any:
		return firstString(a, "name")
	}
	return ""
}
