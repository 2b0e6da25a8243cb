package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/ademuri/artist-graph/internal/graph"
	"github.com/ademuri/artist-graph/internal/logging"
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".mp4":  true,
	".ogg":  true,
	".dsf":  true,
}

func isAudio(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// ReadAudioFile reads the embedded tags of one audio file. A file without a
// title tag is named after its file.
func ReadAudioFile(path string) (graph.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return graph.Observation{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return graph.Observation{}, fmt.Errorf("reading tags of %s: %w", path, err)
	}

	o := graph.Observation{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
	}
	if o.Title == "" {
		o.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if o.Artist == "" {
		o.Artist = strings.TrimSpace(m.AlbumArtist())
	}
	o.AllArtists = splitCredits(o.Artist)
	if len(o.AllArtists) > 0 {
		o.Artist = o.AllArtists[0]
	}
	return o, nil
}

// splitCredits splits multi-artist tags such as "A; B" or "A / B".
func splitCredits(artist string) []string {
	parts := strings.FieldsFunc(artist, func(r rune) bool { return r == ';' || r == '/' })
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ScanAudio walks dir and reads every audio file it finds. Files whose tags
// cannot be read are logged and skipped.
func ScanAudio(dir string) ([]graph.Observation, error) {
	log := logging.Component("source")
	out := []graph.Observation{}
	skipped := 0
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isAudio(p) {
			return nil
		}
		o, err := ReadAudioFile(p)
		if err != nil {
			skipped++
			log.Debugw("skipping audio file", "file", p, "error", err)
			return nil
		}
		out = append(out, o)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	log.Infow("audio library scanned", "files", len(out), "skipped", skipped)
	return out, nil
}
