package search

import (
	"wardrobeapi/languageutil"
	"wardrobeapi/models"
)

const (
	markOpen  = "<mark>"
	markClose = "</mark>"
)

// Mark wraps the first case-insensitive occurrence of keyword in text.
// Text without a match is returned unchanged.
func Mark(text, keyword string) string {
	marked, _ := mark(text, keyword)
	return marked
}

func mark(text, keyword string) (string, bool) {
	if text == "" {
		return text, false
	}
	start, end := languageutil.IndexFold(text, keyword)
	if start < 0 {
		return text, false
	}
	return text[:start] + markOpen + text[start:end] + markClose + text[end:], true
}

// Highlights marks the name, the description and every matching tag. Only
// fields with a marked span are returned.
func Highlights(doc Document, keyword string) []models.Highlight {
	highlights := []models.Highlight{}
	add := func(field, text string) {
		if marked, ok := mark(text, keyword); ok {
			highlights = append(highlights, models.Highlight{Field: field, Value: marked})
		}
	}
	add("name", doc.Name)
	add("description", doc.Description)
	for _, tag := range doc.Tags {
		add("tags", tag)
	}
	return highlights
}
