package models

import "time"

type Highlight struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type ItemSummary struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Image    string   `json:"image"`
	Category Category `json:"category"`
}

// SearchResult is one ranked hit. Clothing hits fill Image and Category,
// outfit hits fill Description, Season, Thumbnail and Items.
type SearchResult struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Type        EntityType    `json:"type"`
	Score       int           `json:"score"`
	Highlights  []Highlight   `json:"highlights"`
	Tags        []string      `json:"tags"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Image       string        `json:"image,omitempty"`
	Category    Category      `json:"category,omitempty"`
	Description string        `json:"description,omitempty"`
	Season      Season        `json:"season,omitempty"`
	Thumbnail   string        `json:"thumbnail,omitempty"`
	Items       []ItemSummary `json:"items,omitempty"`
	ItemCount   int           `json:"itemCount,omitempty"`
}

type SearchStats struct {
	Total    int `json:"total"`
	Clothing int `json:"clothing"`
	Outfits  int `json:"outfits"`
}

type PopularTerm struct {
	Term  string `json:"term"`
	Type  string `json:"type"`
	Count int64  `json:"count"`
}
