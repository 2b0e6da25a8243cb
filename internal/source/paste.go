package source

import (
	"regexp"
	"strings"

	"github.com/ademuri/artist-graph/internal/graph"
)

var timestamp = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// Words the YouTube Music page puts between songs when a playlist is copied.
var pasteNoise = map[string]bool{
	"liked music":    true,
	"shuffle":        true,
	"radio":          true,
	"add to library": true,
	"share":          true,
	"download":       true,
}

func skippable(line string) bool {
	return line == "" || timestamp.MatchString(line) || pasteNoise[strings.ToLower(line)]
}

// ParsePaste reads playlist text copied from a browser. Lines are either
// "Title - Artist" or a title followed by its artist on the next line;
// durations and page chrome are ignored.
func ParsePaste(text string) []graph.Observation {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := []graph.Observation{}
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if skippable(line) {
			continue
		}

		if title, artist, ok := strings.Cut(line, " - "); ok {
			title, artist = strings.TrimSpace(title), strings.TrimSpace(artist)
			if artist == "" {
				artist = UnknownArtist
			}
			out = append(out, graph.Observation{Title: title, Artist: artist})
			continue
		}

		o := graph.Observation{Title: line, Artist: UnknownArtist}
		if i+1 < len(lines) {
			if next := strings.TrimSpace(lines[i+1]); !skippable(next) {
				o.Artist = next
				i++
			}
		}
		out = append(out, o)
	}
	return out
}
