// Package genre resolves artist names to labels from a fixed taxonomy.
package genre

import "sort"

// Other marks an artist whose genre has not been resolved yet. It is the only
// label that inference is allowed to replace.
const Other = "Other"

// Electronic is the weak catch-all label handed out by the fallback pass.
const Electronic = "Electronic"

// Labels is the closed taxonomy. Anything not listed here is not a genre.
var Labels = []string{
	"Melodic Bass",
	"Dubstep/Bass",
	"Future Bass",
	"Progressive House",
	"Trance",
	"Tech House",
	"UK House",
	"Bass House",
	"Electro House",
	"Trap/Bass",
	"Drum & Bass",
	"Pop/EDM",
	"Electronic/Indie",
	"Midtempo Bass",
	"Tropical House",
	"House",
	"Techno",
	"Hardstyle",
	"Ambient",
	"Lo-Fi",
	"Electro Soul",
	Electronic,
	"K-Pop",
	"Hip-Hop",
	"R&B",
	"Soul",
	"Pop",
	"Rock",
	"Metal",
	"Indie",
	"Punk",
	"Classical",
	"Cinematic",
	"Jazz",
	"Blues",
	"Funk/Electronic",
	"Country",
	"Folk",
	"Latin",
	"Reggae",
	"Reggaeton",
	Other,
}

var labelSet = func() map[string]bool {
	m := make(map[string]bool, len(Labels))
	for _, l := range Labels {
		m[l] = true
	}
	return m
}()

// IsLabel reports whether s belongs to the taxonomy.
func IsLabel(s string) bool {
	return labelSet[s]
}

// IsFinal reports whether a label is terminal, i.e. must never be replaced by
// inference.
func IsFinal(s string) bool {
	return s != Other && labelSet[s]
}

// Family groups labels that are compatible for inference purposes.
type Family struct {
	Name   string
	Labels []string
}

// Contains reports whether label is a member of the family.
func (f Family) Contains(label string) bool {
	for _, l := range f.Labels {
		if l == label {
			return true
		}
	}
	return false
}

const (
	FamilyEDM       = "EDM"
	FamilyKPop      = "K-Pop"
	FamilyHipHop    = "Hip-Hop"
	FamilyPop       = "Pop"
	FamilyRock      = "Rock"
	FamilyClassical = "Classical"
	FamilyJazz      = "Jazz"
	FamilyCountry   = "Country"
	FamilyLatin     = "Latin"
)

// Families is the default family partition. Every final label belongs to
// exactly one family.
var Families = []Family{
	{FamilyEDM, []string{
		"Melodic Bass", "Dubstep/Bass", "Future Bass", "Progressive House",
		"Trance", "Tech House", "UK House", "Bass House", "Electro House",
		"Trap/Bass", "Drum & Bass", "Pop/EDM", "Electronic/Indie",
		"Midtempo Bass", "Tropical House", "House", "Techno", "Hardstyle",
		"Ambient", "Lo-Fi", "Electro Soul", Electronic,
	}},
	{FamilyKPop, []string{"K-Pop"}},
	{FamilyHipHop, []string{"Hip-Hop", "R&B", "Soul"}},
	{FamilyPop, []string{"Pop"}},
	{FamilyRock, []string{"Rock", "Metal", "Indie", "Punk"}},
	{FamilyClassical, []string{"Classical", "Cinematic"}},
	{FamilyJazz, []string{"Jazz", "Blues", "Funk/Electronic"}},
	{FamilyCountry, []string{"Country", "Folk"}},
	{FamilyLatin, []string{"Latin", "Reggae", "Reggaeton"}},
}

var familyByLabel = func() map[string]string {
	m := make(map[string]string)
	for _, f := range Families {
		for _, l := range f.Labels {
			m[l] = f.Name
		}
	}
	return m
}()

// FamilyOf returns the family name of a label, or "" for Other and unknown
// strings.
func FamilyOf(label string) string {
	return familyByLabel[label]
}

// FamilyLabels returns a copy of the labels in the named family, sorted.
func FamilyLabels(name string) []string {
	for _, f := range Families {
		if f.Name == name {
			out := append([]string(nil), f.Labels...)
			sort.Strings(out)
			return out
		}
	}
	return nil
}
