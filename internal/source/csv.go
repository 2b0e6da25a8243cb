package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/ademuri/artist-graph/internal/graph"
)

var (
	titleColumns    = []string{"Song Title", "Title", "title", "Song"}
	artistColumns   = []string{"Artist Name 1", "Artist", "artist", "Artists", "Channel Title", "Channel"}
	albumColumns    = []string{"Album Title", "Album", "album"}
	durationColumns = []string{"Duration", "duration"}
)

// ParseCSV reads a library or playlist CSV. Library exports start with the
// header row; playlist exports carry metadata rows before a header that
// contains "Video Id". Input that is not valid UTF-8 is decoded as Latin-1.
func ParseCSV(data []byte) ([]graph.Observation, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(skipPreamble(text)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return []graph.Observation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, ok := cols[h]; !ok {
			cols[h] = i
		}
	}
	get := func(row []string, names ...string) string {
		for _, n := range names {
			if i, ok := cols[n]; ok && i < len(row) {
				if v := strings.TrimSpace(row[i]); v != "" {
					return v
				}
			}
		}
		return ""
	}

	out := []graph.Observation{}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}

		o := graph.Observation{
			Title:    get(row, titleColumns...),
			Artist:   get(row, artistColumns...),
			Album:    get(row, albumColumns...),
			Duration: get(row, durationColumns...),
		}
		// Auto-generated YouTube channels are named "<artist> - Topic".
		o.Artist = strings.TrimSuffix(o.Artist, " - Topic")
		if o.Title == "" || o.Artist == "" {
			continue
		}
		o.AllArtists = []string{o.Artist}
		for i := 2; i <= 5; i++ {
			if extra := get(row, fmt.Sprintf("Artist Name %d", i)); extra != "" {
				o.AllArtists = append(o.AllArtists, extra)
			}
		}
		out = append(out, o)
	}
	return out, nil
}

// skipPreamble drops playlist metadata rows above the real header.
func skipPreamble(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.Contains(line, "Video Id") || strings.Contains(line, "Video ID") {
			return strings.Join(lines[i:], "\n")
		}
	}
	for i, line := range lines {
		if strings.Contains(line, ",") && !strings.HasPrefix(line, "#") {
			return strings.Join(lines[i:], "\n")
		}
	}
	return text
}

func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decoding latin-1: %w", err)
	}
	return string(decoded), nil
}
