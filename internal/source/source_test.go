package source

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ademuri/artist-graph/internal/graph"
)

const libraryCSV = `Song Title,Album Title,Artist Name 1,Artist Name 2,Artist Name 3
Rush Over Me,Rush Over Me,Seven Lions,Illenium,
Lonely,,Illenium,,
,No Title,Nobody,,
`

const playlistCSV = `Playlist Id,Channel Id,Time Created
PL123,UC456,2023-01-01
Video Id,Time Added,Title,Channel Title
abc,2023-01-02,Song One,Artist One - Topic
def,2023-01-03,Song Two,
`

func TestParseCSVLibrary(t *testing.T) {
	obs, err := ParseCSV([]byte(libraryCSV))
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, graph.Observation{
		Title:      "Rush Over Me",
		Artist:     "Seven Lions",
		AllArtists: []string{"Seven Lions", "Illenium"},
		Album:      "Rush Over Me",
	}, obs[0])
	assert.Equal(t, []string{"Illenium"}, obs[1].AllArtists)
}

func TestParseCSVPlaylistPreamble(t *testing.T) {
	obs, err := ParseCSV([]byte(playlistCSV))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "Song One", obs[0].Title)
	assert.Equal(t, "Artist One", obs[0].Artist)
}

func TestParseCSVLatin1(t *testing.T) {
	data := []byte("Title,Artist\nCaf\xe9,Beyonc\xe9\n")
	obs, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "Café", obs[0].Title)
	assert.Equal(t, "Beyoncé", obs[0].Artist)
}

func TestParseCSVEmpty(t *testing.T) {
	obs, err := ParseCSV(nil)
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []graph.Observation
	}{
		{
			"plain list",
			`[{"title": "A", "artist": "X"}, {"name": "B", "artists": ["Y", "Z"]}, {"title": "C"}, {"artist": "no title"}]`,
			[]graph.Observation{
				{Title: "A", Artist: "X", AllArtists: []string{"X"}},
				{Title: "B", Artist: "Y", AllArtists: []string{"Y", "Z"}},
				{Title: "C", Artist: UnknownArtist},
			},
		},
		{
			"liked songs",
			`{"liked_songs": [{"id": "v1", "title": "A", "artists": [{"name": "X", "id": ""}], "album": "LP", "duration": "3:01"}]}`,
			[]graph.Observation{{Title: "A", Artist: "X", AllArtists: []string{"X"}, Album: "LP", Duration: "3:01"}},
		},
		{
			"spotify saved tracks",
			`{"items": [{"added_at": "2024-01-01", "track": {"name": "T", "artists": [{"name": "P"}, {"name": "Q"}],
			  "album": {"name": "Alb"}, "duration_ms": 185000, "popularity": 71}}, {"track": null}]}`,
			[]graph.Observation{{Title: "T", Artist: "P", AllArtists: []string{"P", "Q"}, Album: "Alb", Duration: "3:05", Popularity: 71}},
		},
		{
			"watch history",
			`[{"title": "Watched Song", "titleUrl": "https://music.youtube.com/watch?v=abc",
			   "subtitles": [{"name": "Band - Topic"}]},
			  {"title": "Watched Ad", "titleUrl": "https://www.google.com/"},
			  {"title": "Watched Nothing", "titleUrl": "https://www.youtube.com/watch?v=zzz"}]`,
			[]graph.Observation{{Title: "Song", Artist: "Band"}},
		},
		{"unknown shape", `{"foo": 1}`, []graph.Observation{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSON([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSONInvalid(t *testing.T) {
	_, err := ParseJSON([]byte("{"))
	assert.Error(t, err)
}

func TestParsePaste(t *testing.T) {
	text := "Liked Music\nShuffle\nSong One - Artist One\n3:45\nSong Two\nArtist Two\n4:01\nLonely Title\n\n"
	got := ParsePaste(text)
	assert.Equal(t, []graph.Observation{
		{Title: "Song One", Artist: "Artist One"},
		{Title: "Song Two", Artist: "Artist Two"},
		{Title: "Lonely Title", Artist: UnknownArtist},
	}, got)
}

func writeZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseZip(t *testing.T) {
	data := writeZip(t, map[string]string{
		"Takeout/YouTube and YouTube Music/music-library-songs.csv": "Title,Artist\nA,X\nB,Y\n",
		"Takeout/YouTube and YouTube Music/playlists/Liked music.csv": playlistCSV,
		"Takeout/YouTube and YouTube Music/history/watch-history.json": `[{"title": "Watched H", "titleUrl": "https://music.youtube.com/watch?v=1", "subtitles": [{"name": "Z"}]}]`,
		"Takeout/archive_browser.html": "<html></html>",
	})
	obs, err := ParseZip(data)
	require.NoError(t, err)

	var titles []string
	for _, o := range obs {
		titles = append(titles, o.Title)
	}
	assert.ElementsMatch(t, []string{"A", "B", "Song One"}, titles, "history is ignored when songs exist")
}

func TestParseZipHistoryOnly(t *testing.T) {
	data := writeZip(t, map[string]string{
		"Takeout/YouTube and YouTube Music/history/watch-history.json": `[{"title": "Watched H", "titleUrl": "https://music.youtube.com/watch?v=1", "subtitles": [{"name": "Z"}]}]`,
	})
	obs, err := ParseZip(data)
	require.NoError(t, err)
	assert.Equal(t, []graph.Observation{{Title: "H", Artist: "Z"}}, obs)
}

func TestTakeoutDedupesLibrary(t *testing.T) {
	tk := Takeout{
		Liked:   []graph.Observation{{Title: "Song", Artist: "Band"}},
		Library: []graph.Observation{{Title: "song", Artist: "band"}, {Title: "Other", Artist: "Band"}},
		History: []graph.Observation{{Title: "H", Artist: "Z"}},
	}
	assert.Len(t, tk.Observations(), 2)
}

func TestOpenTakeoutFolder(t *testing.T) {
	root := t.TempDir()
	yt := filepath.Join(root, "Takeout", "YouTube and YouTube Music")
	require.NoError(t, os.MkdirAll(filepath.Join(yt, "playlists"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(yt, "playlists", "Liked music.csv"), []byte(playlistCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(yt, "playlists", "Road trip.csv"), []byte(playlistCSV), 0o644))

	dir, ok := FindTakeoutFolder(root)
	require.True(t, ok)
	assert.Equal(t, yt, dir)

	obs, err := Open(root)
	require.NoError(t, err)
	require.Len(t, obs, 1, "only liked playlists are read")
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestOpenEmptySourceIsNotAnError(t *testing.T) {
	p := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(p, []byte("[]"), 0o644))
	obs, err := Open(p)
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestParseUnsupported(t *testing.T) {
	_, err := Parse("library.xlsx", []byte("x"))
	assert.ErrorIs(t, err, ErrNoData)
}

// id3v23 returns a minimal ID3v2.3 tag with text frames.
func id3v23(frames map[string]string) []byte {
	var body bytes.Buffer
	for _, id := range []string{"TIT2", "TPE1", "TALB"} {
		text, ok := frames[id]
		if !ok {
			continue
		}
		body.WriteString(id)
		_ = binary.Write(&body, binary.BigEndian, uint32(len(text)+1))
		body.Write([]byte{0, 0, 0})
		body.WriteString(text)
	}
	size := body.Len()
	header := []byte{'I', 'D', '3', 3, 0, 0,
		byte(size >> 21 & 0x7f), byte(size >> 14 & 0x7f), byte(size >> 7 & 0x7f), byte(size & 0x7f)}
	return append(header, body.Bytes()...)
}

func TestScanAudio(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "album"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "album", "01.mp3"),
		id3v23(map[string]string{"TIT2": "Rush Over Me", "TPE1": "Seven Lions; Illenium", "TALB": "Single"}), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "album", "02 Untitled.mp3"),
		id3v23(map[string]string{"TPE1": "Seven Lions"}), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.mp3"), []byte("not audio"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.jpg"), []byte("jpg"), 0o644))

	obs, err := Open(dir)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, graph.Observation{
		Title:      "Rush Over Me",
		Artist:     "Seven Lions",
		AllArtists: []string{"Seven Lions", "Illenium"},
		Album:      "Single",
	}, obs[0])
	assert.Equal(t, "02 Untitled", obs[1].Title)
}
