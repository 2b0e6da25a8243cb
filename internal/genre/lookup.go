package genre

import (
	"regexp"
	"strings"
)

// Stage identifies which matching stage produced a label.
type Stage int

const (
	StageNone Stage = iota
	StageExact
	StageCaseInsensitive
	StageSubstring
	StagePattern
)

func (s Stage) String() string {
	switch s {
	case StageExact:
		return "exact"
	case StageCaseInsensitive:
		return "case-insensitive"
	case StageSubstring:
		return "substring"
	case StagePattern:
		return "pattern"
	default:
		return "none"
	}
}

// Pattern is a keyword regexp applied to lowercased artist names.
type Pattern struct {
	Re    *regexp.Regexp
	Genre string
}

// DefaultPatterns are tried in order after every table stage has missed.
var DefaultPatterns = []Pattern{
	{regexp.MustCompile(`\b(dubstep|bass music|brostep)\b`), "Dubstep/Bass"},
	{regexp.MustCompile(`\b(melodic dubstep|melodic bass)\b`), "Melodic Bass"},
	{regexp.MustCompile(`\b(future bass)\b`), "Future Bass"},
	{regexp.MustCompile(`\b(drum and bass|dnb|d&b|drum & bass)\b`), "Drum & Bass"},
	{regexp.MustCompile(`\b(progressive house|prog house)\b`), "Progressive House"},
	{regexp.MustCompile(`\b(tech house)\b`), "Tech House"},
	{regexp.MustCompile(`\b(deep house)\b`), "UK House"},
	{regexp.MustCompile(`\b(trance|psytrance)\b`), "Trance"},
	{regexp.MustCompile(`\b(trap)\b`), "Trap/Bass"},
	{regexp.MustCompile(`\b(k-?pop|korean pop)\b`), "K-Pop"},
	{regexp.MustCompile(`\b(hip-?hop|rap)\b`), "Hip-Hop"},
}

// Lookup resolves artist names against a Table followed by keyword patterns.
// It has no side effects and is safe for concurrent use.
type Lookup struct {
	table    *Table
	lower    []string
	byLower  map[string]int
	patterns []Pattern
}

// NewLookup wires a table and pattern list into a Lookup. A nil table means
// an empty one; nil patterns means DefaultPatterns.
func NewLookup(table *Table, patterns []Pattern) *Lookup {
	if table == nil {
		table, _ = NewTable(nil)
	}
	if patterns == nil {
		patterns = DefaultPatterns
	}
	l := &Lookup{
		table:    table,
		lower:    make([]string, len(table.entries)),
		byLower:  make(map[string]int, len(table.entries)),
		patterns: patterns,
	}
	for i, e := range table.entries {
		key := strings.ToLower(e.Artist)
		l.lower[i] = key
		if _, ok := l.byLower[key]; !ok {
			l.byLower[key] = i
		}
	}
	return l
}

// NewDefaultLookup uses the built-in table and patterns.
func NewDefaultLookup() *Lookup {
	return NewLookup(DefaultTable(), nil)
}

// Lookup returns the label for name and whether any stage matched.
func (l *Lookup) Lookup(name string) (string, bool) {
	label, stage := l.Explain(name)
	return label, stage != StageNone
}

// Resolve is Lookup with misses mapped to Other.
func (l *Lookup) Resolve(name string) string {
	if label, ok := l.Lookup(name); ok {
		return label
	}
	return Other
}

// Explain runs the stages in strict order (exact, case-insensitive,
// substring, pattern) and reports the first one that matched. The substring
// stage is deliberately loose so "X feat. Y" credits resolve; short table
// keys make it produce the occasional false positive.
func (l *Lookup) Explain(name string) (string, Stage) {
	if name == "" {
		return "", StageNone
	}

	if g, ok := l.table.exact(name); ok {
		return g, StageExact
	}

	lower := strings.ToLower(name)
	if i, ok := l.byLower[lower]; ok {
		return l.table.entries[i].Genre, StageCaseInsensitive
	}

	for i, key := range l.lower {
		if strings.Contains(lower, key) || strings.Contains(key, lower) {
			return l.table.entries[i].Genre, StageSubstring
		}
	}

	for _, p := range l.patterns {
		if p.Re.MatchString(lower) {
			return p.Genre, StagePattern
		}
	}

	return "", StageNone
}
