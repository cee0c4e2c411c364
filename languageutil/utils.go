package languageutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// A cases.Caser keeps state and is not safe for concurrent use, so every
// call builds its own.

func Fold(s string) string {
	return cases.Fold().String(s)
}

func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

func ContainsFold(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}

func HasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(Fold(s), Fold(prefix))
}

// IndexFold returns the rune-aligned byte span [start, end) of the first
// case-insensitive occurrence of substr in s, or -1, -1. A match that begins
// or ends inside the folding of one rune covers that whole rune.
func IndexFold(s, substr string) (int, int) {
	needle := Fold(substr)
	if needle == "" {
		return -1, -1
	}
	caser := cases.Fold()
	var folded strings.Builder
	// owner[i] is the offset in s of the rune that folded into byte i
	owner := make([]int, 0, len(s))
	for i, r := range s {
		f := caser.String(string(r))
		folded.WriteString(f)
		for range len(f) {
			owner = append(owner, i)
		}
	}
	at := strings.Index(folded.String(), needle)
	if at < 0 {
		return -1, -1
	}
	last := owner[at+len(needle)-1]
	_, size := utf8.DecodeRuneInString(s[last:])
	return owner[at], last + size
}

func Title(s string) string {
	return cases.Title(language.English).String(s)
}

var seasonNames = map[string]string{
	"spring": "Spring",
	"summer": "Summer",
	"autumn": "Autumn",
	"winter": "Winter",
	"all":    "All Seasons",
}

// SeasonName is the display name used in recommendation titles.
func SeasonName(season string) string {
	if name, ok := seasonNames[season]; ok {
		return name
	}
	return Title(season)
}
