package search

import (
	"wardrobeapi/languageutil"
	"wardrobeapi/models"
)

const (
	exactNameScore      = 100
	nameContainsScore   = 50
	descriptionScore    = 30
	exactTagScore       = 40
	tagContainsScore    = 20
	categoryScore       = 35
	seasonContainsScore = 25
)

// Document is the searchable text of a clothing item or outfit. Fields a
// kind does not have stay empty and never match.
type Document struct {
	Name        string
	Description string
	Tags        []string
	Category    string
	Season      string
}

func clothingDocument(item models.Clothing) Document {
	return Document{Name: item.Name, Tags: item.Tags, Category: string(item.Category)}
}

func outfitDocument(outfit models.Outfit) Document {
	return Document{Name: outfit.Name, Description: outfit.Description, Tags: outfit.Tags, Season: string(outfit.Season)}
}

func contains(field, keyword string) bool {
	return field != "" && languageutil.ContainsFold(field, keyword)
}

// Score rates how well doc matches keyword. Comparisons use Unicode case
// folding.
func Score(doc Document, keyword string) int {
	score := 0
	if doc.Name != "" {
		if languageutil.EqualFold(doc.Name, keyword) {
			score += exactNameScore
		} else if contains(doc.Name, keyword) {
			score += nameContainsScore
		}
	}
	if contains(doc.Description, keyword) {
		score += descriptionScore
	}
	for _, tag := range doc.Tags {
		if languageutil.EqualFold(tag, keyword) {
			score += exactTagScore
		} else if contains(tag, keyword) {
			score += tagContainsScore
		}
	}
	if contains(doc.Category, keyword) {
		score += categoryScore
	}
	if contains(doc.Season, keyword) {
		score += seasonContainsScore
	}
	return score
}
