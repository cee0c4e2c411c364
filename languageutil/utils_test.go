package languageutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexFold(t *testing.T) {
	s := "Classic Denim Jacket"
	start, end := IndexFold(s, "denim")
	assert.Equal(t, "Denim", s[start:end])

	start, end = IndexFold("no match here", "denim")
	assert.Equal(t, -1, start)
	assert.Equal(t, -1, end)
}

func TestIndexFoldFirstOccurrence(t *testing.T) {
	s := "tee and TEE"
	start, end := IndexFold(s, "Tee")
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, end)
}

func TestIndexFoldMultibyte(t *testing.T) {
	s := "Überjacke grün"
	start, end := IndexFold(s, "GRÜN")
	assert.Equal(t, "grün", s[start:end])

	start, end = IndexFold(s, "überjacke")
	assert.Equal(t, "Überjacke", s[start:end])
}

func TestIndexFoldExpandingRunes(t *testing.T) {
	s := "Große Straße"
	start, end := IndexFold(s, "STRASSE")
	assert.Equal(t, "Straße", s[start:end])

	start, end = IndexFold(s, "gross")
	assert.Equal(t, "Groß", s[start:end])

	s = "SSSS"
	start, end = IndexFold(s, "ßß")
	assert.Equal(t, 0, start)
	assert.Equal(t, 4, end)

	s = "ﬃx office"
	start, end = IndexFold(s, "FFIX")
	assert.Equal(t, "ﬃx", s[start:end])
}

func TestIndexFoldAgreesWithContainsFold(t *testing.T) {
	for _, tc := range []struct{ s, substr string }{
		{"Maßßstab", "SSSS"},
		{"ǆungla", "DŽ"},
		{"plain", "zzz"},
		{"", "a"},
	} {
		start, _ := IndexFold(tc.s, tc.substr)
		assert.Equal(t, ContainsFold(tc.s, tc.substr), start >= 0, tc.s)
	}
}

func TestFoldHelpers(t *testing.T) {
	assert.True(t, EqualFold("White Tee", "white tee"))
	assert.True(t, ContainsFold("Denim Jacket", "JACK"))
	assert.False(t, ContainsFold("Denim", "jacket"))
	assert.True(t, HasPrefixFold("Denim Jacket", "den"))
}

func TestSeasonName(t *testing.T) {
	assert.Equal(t, "Summer", SeasonName("summer"))
	assert.Equal(t, "All Seasons", SeasonName("all"))
}
