package models

import (
	"strings"
	"time"
)

// TeamStats represents historical performance data for a team. It is
// read-only reference data owned by the stats store; the probability model
// holds a snapshot for the duration of a scoring pass.
type TeamStats struct {
	Team       string             `json:"team" validate:"required"`
	Sport      string             `json:"sport" validate:"required"`
	WinRate    float64            `json:"win_rate" validate:"gte=0,lte=100"`
	RecentForm string             `json:"recent_form" validate:"omitempty,form"`
	HeadToHead map[string]float64 `json:"head_to_head,omitempty"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// FormFactor converts a recent-form string like "WWLWW" into a multiplier
// around 1.0 (all losses -> 0.9, all wins -> 1.1).
func (ts *TeamStats) FormFactor() float64 {
	if ts.RecentForm == "" {
		return 1.0
	}
	wins := strings.Count(ts.RecentForm, "W")
	winRate := float64(wins) / float64(len(ts.RecentForm))
	return 0.9 + winRate*0.2
}
