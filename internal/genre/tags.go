package genre

import "strings"

// defaultTagLabels maps lowercased Last.fm tags onto taxonomy labels.
var defaultTagLabels = map[string]string{
	"electronic":        Electronic,
	"edm":               Electronic,
	"dubstep":           "Dubstep/Bass",
	"bass":              "Dubstep/Bass",
	"riddim":            "Dubstep/Bass",
	"melodic dubstep":   "Melodic Bass",
	"future bass":       "Future Bass",
	"house":             "House",
	"deep house":        "House",
	"tech house":        "Tech House",
	"bass house":        "Bass House",
	"progressive house": "Progressive House",
	"electro house":     "Electro House",
	"tropical house":    "Tropical House",
	"techno":            "Techno",
	"hardstyle":         "Hardstyle",
	"trance":            "Trance",
	"trap":              "Trap/Bass",
	"drum and bass":     "Drum & Bass",
	"dnb":               "Drum & Bass",
	"ambient":           "Ambient",
	"lo-fi":             "Lo-Fi",
	"lofi":              "Lo-Fi",
	"hip-hop":           "Hip-Hop",
	"hip hop":           "Hip-Hop",
	"rap":               "Hip-Hop",
	"r&b":               "R&B",
	"rnb":               "R&B",
	"soul":              "Soul",
	"pop":               "Pop",
	"rock":              "Rock",
	"metal":             "Metal",
	"punk":              "Punk",
	"indie":             "Electronic/Indie",
	"k-pop":             "K-Pop",
	"kpop":              "K-Pop",
	"jazz":              "Jazz",
	"blues":             "Blues",
	"funk":              "Funk/Electronic",
	"classical":         "Classical",
	"soundtrack":        "Cinematic",
	"country":           "Country",
	"folk":              "Folk",
	"latin":             "Latin",
	"reggae":            "Reggae",
	"reggaeton":         "Reggaeton",
}

// TagMapper turns free-form tags into taxonomy labels.
type TagMapper struct {
	labels map[string]string
}

// NewTagMapper copies m; keys are lowercased. Values outside the taxonomy
// are dropped. A nil map selects the built-in mapping.
func NewTagMapper(m map[string]string) *TagMapper {
	if m == nil {
		m = defaultTagLabels
	}
	t := &TagMapper{labels: make(map[string]string, len(m))}
	for tag, label := range m {
		if IsFinal(label) {
			t.labels[strings.ToLower(tag)] = label
		}
	}
	return t
}

// Map returns the label of the first tag (tags are expected in descending
// popularity) that has a mapping. Unmapped tags never produce a label.
func (t *TagMapper) Map(tags []string) (string, bool) {
	for _, tag := range tags {
		if label, ok := t.labels[strings.ToLower(strings.TrimSpace(tag))]; ok {
			return label, true
		}
	}
	return "", false
}
