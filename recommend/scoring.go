package recommend

import (
	"time"

	"wardrobeapi/models"
)

const (
	baseScore    = 0.5
	seasonBonus  = 0.3
	tagWeight    = 0.01
	maxTagBonus  = 0.2
	recentBonus  = 0.1
	recentWindow = 7 * 24 * time.Hour
	maxScore     = 1.0
)

// TagFrequency counts tag occurrences across the candidate pool.
type TagFrequency map[string]int

func (f TagFrequency) Add(tags []string) {
	for _, tag := range tags {
		f[tag]++
	}
}

// Candidate is the part of an outfit or clothing item the scorer reads.
// Clothing carries no season.
type Candidate struct {
	Tags      []string
	Season    models.Season
	CreatedAt time.Time
}

// Score rates a candidate against the target season and tag popularity,
// capped at 1.0.
func Score(c Candidate, season models.Season, freq TagFrequency, now time.Time) float64 {
	score := baseScore
	if c.Season != "" && c.Season.Matches(season) {
		score += seasonBonus
	}
	for _, tag := range c.Tags {
		if n := freq[tag]; n > 0 {
			score += min(float64(n)*tagWeight, maxTagBonus)
		}
	}
	if !c.CreatedAt.IsZero() && now.Sub(c.CreatedAt) < recentWindow {
		score += recentBonus
	}
	return min(score, maxScore)
}
