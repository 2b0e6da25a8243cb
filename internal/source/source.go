// Package source reads song observations out of the export formats people
// actually have lying around: takeout archives, playlist CSVs, JSON dumps,
// pasted playlist text and local audio files.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ademuri/artist-graph/internal/graph"
	"github.com/ademuri/artist-graph/internal/logging"
)

// ErrNoData means there was nothing to read at all: the path does not exist
// or holds no recognisable export. A readable source with zero records is
// not an error.
var ErrNoData = errors.New("no music data found")

// UnknownArtist is used by formats that carry a title but may omit the artist.
const UnknownArtist = "Unknown Artist"

// Open reads observations from path, choosing a parser by extension. A
// directory is treated as an extracted takeout folder if it looks like one,
// otherwise as a local audio library.
func Open(path string) ([]graph.Observation, error) {
	log := logging.Component("source")
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if info.IsDir() {
		if dir, ok := FindTakeoutFolder(path); ok {
			log.Infow("reading takeout folder", "path", dir)
			t, err := ReadTakeout(dir)
			if err != nil {
				return nil, err
			}
			return t.Observations(), nil
		}
		log.Infow("scanning audio library", "path", path)
		return ScanAudio(path)
	}

	if isAudio(path) {
		o, err := ReadAudioFile(path)
		if err != nil {
			return nil, err
		}
		return []graph.Observation{o}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(filepath.Base(path), data)
}

// Parse decodes an in-memory export; name only selects the format.
func Parse(name string, data []byte) ([]graph.Observation, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ParseCSV(data)
	case ".json":
		return ParseJSON(data)
	case ".zip":
		return ParseZip(data)
	case ".txt", "":
		return ParsePaste(string(data)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported file type: %w", name, ErrNoData)
	}
}
