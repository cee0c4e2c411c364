package models

import (
	"strings"

	"github.com/lib/pq"
)

const (
	MaxNameLength        = 50
	MaxDescriptionLength = 200
	MaxTags              = 10
	MaxTagLength         = 20
	MaxOutfitItems       = 10
)

type Clothing struct {
	JsonModel
	Name     string         `gorm:"size:50;not null;index" json:"name"`
	Category Category       `gorm:"type:varchar(20);not null;index" json:"category"`
	Image    string         `gorm:"type:text" json:"image"`
	Tags     pq.StringArray `gorm:"type:text[]" json:"tags"`
}

func (Clothing) TableName() string {
	return "clothing"
}

type Outfit struct {
	JsonModel
	Name        string         `gorm:"size:50;not null;index" json:"name"`
	Description string         `gorm:"size:200" json:"description"`
	Items       pq.StringArray `gorm:"type:text[];not null" json:"items"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags"`
	Season      Season         `gorm:"type:varchar(10);not null;default:all;index" json:"season"`
	Thumbnail   string         `gorm:"type:text" json:"thumbnail"`
}

func (Outfit) TableName() string {
	return "outfits"
}

// CleanTags trims entries and drops blanks, keeping order.
func CleanTags(tags []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

type SeasonCount struct {
	Season Season `json:"season"`
	Count  int64  `json:"count"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

type CatalogCounts struct {
	Clothing int64 `json:"clothing"`
	Outfits  int64 `json:"outfits"`
}
