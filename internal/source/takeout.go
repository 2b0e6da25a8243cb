package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ademuri/artist-graph/internal/graph"
	"github.com/ademuri/artist-graph/internal/logging"
)

const takeoutFolderName = "YouTube and YouTube Music"

// Takeout holds what was found in a YouTube takeout export, by origin.
type Takeout struct {
	Liked   []graph.Observation
	Library []graph.Observation
	History []graph.Observation
}

// Observations merges liked and library songs, dropping library entries
// already present among the liked ones. Watch history is noisier, so it is
// only returned when the export has no songs otherwise.
func (t Takeout) Observations() []graph.Observation {
	seen := make(map[string]bool, len(t.Liked))
	out := make([]graph.Observation, 0, len(t.Liked)+len(t.Library))
	for _, group := range [][]graph.Observation{t.Liked, t.Library} {
		for _, o := range group {
			key := strings.ToLower(o.Artist) + "\x00" + strings.ToLower(o.Title)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		out = append(out, t.History...)
	}
	return out
}

// FindTakeoutFolder locates the YouTube folder inside an extracted export.
// base may be the folder itself, its parent, the Takeout root, or anything
// above a "playlists" directory.
func FindTakeoutFolder(base string) (string, bool) {
	candidates := []string{
		base,
		filepath.Join(base, takeoutFolderName),
		filepath.Join(base, "Takeout", takeoutFolderName),
	}
	for i, c := range candidates {
		if i == 0 {
			if isDir(filepath.Join(c, "playlists")) || isDir(filepath.Join(c, "history")) {
				return c, true
			}
			continue
		}
		if isDir(c) {
			return c, true
		}
	}

	found := ""
	_ = filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && d.Name() == "playlists" {
			found = filepath.Dir(p)
			return fs.SkipAll
		}
		return nil
	})
	return found, found != ""
}

// ReadTakeout parses an extracted YouTube takeout folder. Unreadable files
// are logged and skipped.
func ReadTakeout(dir string) (Takeout, error) {
	log := logging.Component("source")
	var t Takeout

	playlists, err := filepath.Glob(filepath.Join(dir, "playlists", "*.csv"))
	if err != nil {
		return t, err
	}
	for _, p := range playlists {
		if !strings.Contains(strings.ToLower(filepath.Base(p)), "like") {
			continue
		}
		obs, err := readWith(p, ParseCSV)
		if err != nil {
			log.Warnw("skipping playlist", "file", p, "error", err)
			continue
		}
		t.Liked = append(t.Liked, obs...)
	}

	if obs, err := readWith(filepath.Join(dir, "history", "watch-history.json"), ParseJSON); err == nil {
		t.History = obs
	} else if !errors.Is(err, fs.ErrNotExist) {
		log.Warnw("skipping watch history", "error", err)
	}

	if obs, err := readWith(filepath.Join(dir, "music-library-songs.csv"), ParseCSV); err == nil {
		t.Library = obs
	} else if !errors.Is(err, fs.ErrNotExist) {
		log.Warnw("skipping music library", "error", err)
	}

	log.Infow("takeout read", "liked", len(t.Liked), "library", len(t.Library), "history", len(t.History))
	return t, nil
}

func readWith(path string, parse func([]byte) ([]graph.Observation, error)) ([]graph.Observation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
