package source

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ademuri/artist-graph/internal/graph"
	"github.com/ademuri/artist-graph/internal/logging"
)

// ParseZip reads a takeout archive without extracting it. It picks up the
// library CSV, liked-music playlists and music JSON files. Watch history is
// only used when nothing else was found.
func ParseZip(data []byte) ([]graph.Observation, error) {
	log := logging.Component("source")
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening zip: %w", err)
	}

	var t Takeout
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := strings.ToLower(f.Name)
		base := path.Base(name)

		var (
			dst   *[]graph.Observation
			parse func([]byte) ([]graph.Observation, error)
		)
		switch {
		case strings.Contains(base, "music-library-songs") && strings.HasSuffix(base, ".csv"):
			dst, parse = &t.Library, ParseCSV
		case strings.Contains(base, "like") && strings.HasSuffix(base, ".csv"):
			dst, parse = &t.Liked, ParseCSV
		case base == "watch-history.json":
			dst, parse = &t.History, ParseJSON
		case strings.Contains(name, "music") && strings.HasSuffix(base, ".json"):
			dst, parse = &t.Liked, ParseJSON
		default:
			continue
		}

		content, err := readZipFile(f)
		if err != nil {
			return nil, err
		}
		obs, err := parse(content)
		if err != nil {
			log.Warnw("skipping unreadable archive entry", "file", f.Name, "error", err)
			continue
		}
		log.Debugw("read archive entry", "file", f.Name, "records", len(obs))
		*dst = append(*dst, obs...)
	}
	return t.Observations(), nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s in zip: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s in zip: %w", f.Name, err)
	}
	return data, nil
}
