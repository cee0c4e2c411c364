package models

type RecommendationType string

const (
	RecommendSmart    RecommendationType = "smart"
	RecommendRandom   RecommendationType = "random"
	RecommendSeasonal RecommendationType = "seasonal"
	RecommendSimilar  RecommendationType = "similar"
)

var RecommendationTypes = []RecommendationType{
	RecommendSmart, RecommendRandom, RecommendSeasonal, RecommendSimilar,
}

func (t RecommendationType) Valid() bool {
	switch t {
	case RecommendSmart, RecommendRandom, RecommendSeasonal, RecommendSimilar:
		return true
	}
	return false
}

type Reason string

const (
	ReasonSeasonal        Reason = "seasonal"
	ReasonSeasonalMatch   Reason = "seasonal_match"
	ReasonSeasonalItem    Reason = "seasonal_item"
	ReasonSimilarCategory Reason = "similar_category"
	ReasonOutfitMatch     Reason = "outfit_match"
	ReasonRandom          Reason = "random"
	ReasonDefault         Reason = "default"
)

type EntityType string

const (
	EntityClothing EntityType = "clothing"
	EntityOutfit   EntityType = "outfit"
)

// Recommendation is computed per request and never persisted.
type Recommendation struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	Type        EntityType `json:"type"`
	Category    Category   `json:"category,omitempty"`
	Tags        []string   `json:"tags"`
	Season      Season     `json:"season,omitempty"`
	Reason      Reason     `json:"reason"`
	Confidence  float64    `json:"confidence"`
}

type RecommendationStats struct {
	TotalClothing       int64                `json:"totalClothing"`
	TotalOutfits        int64                `json:"totalOutfits"`
	CurrentSeason       Season               `json:"currentSeason"`
	SeasonDistribution  []SeasonCount        `json:"seasonDistribution"`
	RecommendationTypes []RecommendationType `json:"recommendationTypes"`
	LastUpdated         string               `json:"lastUpdated"`
}
