package models

import (
	"time"

	"github.com/go-playground/validator"
)

type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
	SeasonAll    Season = "all"
)

var Seasons = []Season{SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter, SeasonAll}

func (s Season) Valid() bool {
	switch s {
	case SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter, SeasonAll:
		return true
	}
	return false
}

// Matches reports whether an entity tagged s is wearable in target.
func (s Season) Matches(target Season) bool {
	return s == target || s == SeasonAll
}

// CurrentSeason maps the calendar month of t onto a season
// (northern hemisphere).
func CurrentSeason(t time.Time) Season {
	switch t.Month() {
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	case time.September, time.October, time.November:
		return SeasonAutumn
	default:
		return SeasonWinter
	}
}

func ValidateSeason(fl validator.FieldLevel) bool {
	return Season(fl.Field().String()).Valid()
}
