package models

import (
	"time"

	"github.com/google/uuid"
)

// Selection represents a single priceable outcome of an event, as supplied
// by the market-data source. Selections are immutable after construction.
type Selection struct {
	ID           uuid.UUID `json:"id" validate:"required"`
	EventID      string    `json:"event_id" validate:"required"`
	Sport        string    `json:"sport" validate:"required"`
	HomeTeam     string    `json:"home_team" validate:"required"`
	AwayTeam     string    `json:"away_team" validate:"required"`
	Market       string    `json:"market" validate:"required"`
	AmericanOdds int       `json:"american_odds" validate:"required"`
	DecimalOdds  float64   `json:"decimal_odds" validate:"required,gt=1"`
	Bookmaker    string    `json:"bookmaker"`
	FetchedAt    time.Time `json:"fetched_at" validate:"required"`
}

// GetImpliedProbability returns the market's embedded probability estimate
func (s *Selection) GetImpliedProbability() float64 {
	if s.DecimalOdds <= 0 {
		return 0
	}
	return 1.0 / s.DecimalOdds
}

// Teams returns the two party labels in home-first order
func (s *Selection) Teams() [2]string {
	return [2]string{s.HomeTeam, s.AwayTeam}
}
