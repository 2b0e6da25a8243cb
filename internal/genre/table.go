package genre

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Entry is one artist→label row of a Table.
type Entry struct {
	Artist string `yaml:"name" toml:"name" json:"name"`
	Genre  string `yaml:"genre" toml:"genre" json:"genre"`
}

// Table is an ordered, read-only artist→label table. Order matters: the
// substring stage of Lookup walks entries in table order and stops at the
// first hit.
type Table struct {
	entries []Entry
	index   map[string]int
}

// NewTable builds a table from entries. A repeated artist keeps the position
// of its first occurrence and the label of its last one. Entries with an
// empty name or a label outside the taxonomy are rejected.
func NewTable(entries []Entry) (*Table, error) {
	t := &Table{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		if e.Artist == "" {
			return nil, fmt.Errorf("genre table: empty artist name")
		}
		if !IsFinal(e.Genre) {
			return nil, fmt.Errorf("genre table: %q has unknown genre %q", e.Artist, e.Genre)
		}
		if i, ok := t.index[e.Artist]; ok {
			t.entries[i].Genre = e.Genre
			continue
		}
		t.index[e.Artist] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	return t, nil
}

// Len returns the number of distinct artists in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the table rows in order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

func (t *Table) exact(name string) (string, bool) {
	i, ok := t.index[name]
	if !ok {
		return "", false
	}
	return t.entries[i].Genre, true
}

type tableFile struct {
	Artists []Entry `yaml:"artists" toml:"artists"`
}

// LoadTable reads a table file. YAML and TOML files hold an ordered
// `artists` list; a .json file is a flat name→genre object whose keys are
// sorted, since JSON objects carry no order.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading genre table: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var f tableFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return NewTable(f.Artists)
	case ".toml":
		var f tableFile
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return NewTable(f.Artists)
	case ".json":
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		names := make([]string, 0, len(m))
		for name := range m {
			names = append(names, name)
		}
		sort.Strings(names)
		entries := make([]Entry, 0, len(names))
		for _, name := range names {
			entries = append(entries, Entry{Artist: name, Genre: m[name]})
		}
		return NewTable(entries)
	default:
		return nil, fmt.Errorf("genre table %s: unsupported format", path)
	}
}
