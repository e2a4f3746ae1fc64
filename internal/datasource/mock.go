package datasource

import (
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/acca-engine/internal/models"
	"github.com/yourusername/acca-engine/internal/odds"
)

// MockSelections returns canned development data served when no API key is
// configured.
func MockSelections() []models.Selection {
	now := time.Now().UTC()

	mock := func(eventID, sport, home, away, market string, american int) models.Selection {
		return models.Selection{
			ID:           uuid.New(),
			EventID:      eventID,
			Sport:        sport,
			HomeTeam:     home,
			AwayTeam:     away,
			Market:       market,
			AmericanOdds: american,
			DecimalOdds:  odds.AmericanToDecimal(american),
			Bookmaker:    "Mock Bookmaker",
			FetchedAt:    now,
		}
	}

	return []models.Selection{
		mock("mock_1", "Soccer", "Manchester United", "Liverpool", "home_win", 150),
		mock("mock_1", "Soccer", "Manchester United", "Liverpool", "away_win", 180),
		mock("mock_2", "Basketball", "Lakers", "Warriors", "home_win", 120),
		mock("mock_2", "Basketball", "Lakers", "Warriors", "away_win", 110),
	}
}

// MockTeamStats returns the development seed for the historical stats store.
func MockTeamStats() []*models.TeamStats {
	now := time.Now().UTC()
	return []*models.TeamStats{
		{Team: "Manchester United", Sport: "Soccer", WinRate: 65, RecentForm: "WWLWW", UpdatedAt: now},
		{Team: "Liverpool", Sport: "Soccer", WinRate: 70, RecentForm: "WLWWW", UpdatedAt: now},
		{Team: "Lakers", Sport: "Basketball", WinRate: 60, RecentForm: "WWLWL", UpdatedAt: now},
		{Team: "Warriors", Sport: "Basketball", WinRate: 75, RecentForm: "WWWWL", UpdatedAt: now},
	}
}
