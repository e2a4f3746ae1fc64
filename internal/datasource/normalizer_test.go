package datasource

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/acca-engine/internal/config"
	"github.com/yourusername/acca-engine/internal/models"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func sampleEvent() apiEvent {
	return apiEvent{
		SportKey:     "soccer_epl",
		SportNice:    "Soccer",
		Teams:        []string{"Manchester United", "Liverpool"},
		CommenceTime: 1756684800,
		HomeTeam:     "Manchester United",
		Sites: []apiSite{
			{
				SiteKey:    "testbook",
				SiteNice:   "Test Book",
				LastUpdate: 1756681200,
				Odds:       apiOdds{H2H: []float64{150, 180}},
			},
		},
	}
}

func TestNormalizeEvents(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	selections := n.NormalizeEvents([]apiEvent{sampleEvent()})
	if len(selections) != 2 {
		t.Fatalf("expected 2 selections, got %d", len(selections))
	}

	home := selections[0]
	if home.Market != marketHomeWin {
		t.Errorf("first selection market: expected %s, got %s", marketHomeWin, home.Market)
	}
	if home.HomeTeam != "Manchester United" || home.AwayTeam != "Liverpool" {
		t.Errorf("team resolution failed: %s / %s", home.HomeTeam, home.AwayTeam)
	}
	if home.AmericanOdds != 150 {
		t.Errorf("american odds: expected 150, got %d", home.AmericanOdds)
	}
	if math.Abs(home.DecimalOdds-2.5) > 1e-9 {
		t.Errorf("decimal odds: expected 2.5, got %v", home.DecimalOdds)
	}
	if home.Bookmaker != "Test Book" {
		t.Errorf("bookmaker: expected Test Book, got %s", home.Bookmaker)
	}

	away := selections[1]
	if away.Market != marketAwayWin || away.AmericanOdds != 180 {
		t.Errorf("second selection: expected away_win at 180, got %s at %d", away.Market, away.AmericanOdds)
	}

	// Both selections of one fixture share an event id
	if home.EventID != away.EventID {
		t.Errorf("event ids differ within one fixture: %s vs %s", home.EventID, away.EventID)
	}
}

func TestNormalizeEventsThreeWayMarket(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	event := sampleEvent()
	event.Sites[0].Odds.H2H = []float64{150, 180, 220}

	selections := n.NormalizeEvents([]apiEvent{event})
	if len(selections) != 3 {
		t.Fatalf("expected 3 selections, got %d", len(selections))
	}
	if selections[2].Market != marketDraw || selections[2].AmericanOdds != 220 {
		t.Errorf("draw selection: got %s at %d", selections[2].Market, selections[2].AmericanOdds)
	}
}

func TestNormalizeEventsSkipsMalformedPrices(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	event := sampleEvent()
	event.Sites[0].Odds.H2H = []float64{150.5, 180}

	selections := n.NormalizeEvents([]apiEvent{event})
	if len(selections) != 1 {
		t.Fatalf("expected the fractional price to be skipped, got %d selections", len(selections))
	}
	if selections[0].Market != marketAwayWin {
		t.Errorf("surviving selection: expected %s, got %s", marketAwayWin, selections[0].Market)
	}
}

func TestNormalizeEventsSkipsIncompleteEvents(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	incomplete := sampleEvent()
	incomplete.Teams = []string{"Lonely FC"}
	incomplete.HomeTeam = ""

	thinMarket := sampleEvent()
	thinMarket.Sites[0].Odds.H2H = []float64{150}

	selections := n.NormalizeEvents([]apiEvent{incomplete, thinMarket})
	if len(selections) != 0 {
		t.Fatalf("expected no selections, got %d", len(selections))
	}
}

func TestNewSelectionDerivesDecimalOdds(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	tests := []struct {
		american float64
		decimal  float64
	}{
		{150, 2.5},
		{-150, 1.6666666666666667},
		{100, 2.0},
		{-333, 1.3003003003003002},
	}
	for _, tt := range tests {
		sel, err := n.NewSelection("e1", "Soccer", "A", "B", marketHomeWin,
			tt.american, "Book", time.Now())
		if err != nil {
			t.Fatalf("NewSelection(%v): %v", tt.american, err)
		}
		if math.Abs(sel.DecimalOdds-tt.decimal) > 1e-9 {
			t.Errorf("NewSelection(%v) decimal: expected %v, got %v",
				tt.american, tt.decimal, sel.DecimalOdds)
		}
	}
}

func TestParseAmericanRejectsInvalid(t *testing.T) {
	for _, raw := range []float64{0, 150.5, -110.01} {
		if _, err := parseAmerican(raw); !errors.Is(err, models.ErrInvalidOdds) {
			t.Errorf("parseAmerican(%v): expected ErrInvalidOdds, got %v", raw, err)
		}
	}
	if got, err := parseAmerican(-110); err != nil || got != -110 {
		t.Errorf("parseAmerican(-110): got %d, %v", got, err)
	}
}

func TestEventIdentifierStableAcrossBookmakers(t *testing.T) {
	a := sampleEvent()
	b := sampleEvent()
	b.Sites[0].SiteNice = "Other Book"

	if eventIdentifier(a) != eventIdentifier(b) {
		t.Fatal("expected identical event ids for the same fixture")
	}

	later := sampleEvent()
	later.CommenceTime += 3600
	if eventIdentifier(a) == eventIdentifier(later) {
		t.Fatal("expected different event ids for different kickoff times")
	}
}

func TestClientMockMode(t *testing.T) {
	cfg := config.OddsAPIConfig{
		BaseURL:            "https://api.example.com/v3",
		DefaultSport:       "soccer_epl",
		Region:             "uk",
		RateLimitPerSecond: 1,
		TimeoutSeconds:     5,
		MaxRetries:         1,
		CacheTTLSeconds:    60,
	}
	client := NewClient(cfg, newTestLogger())
	defer client.Close()

	selections, err := client.FetchOdds(context.Background(), "soccer_epl")
	if err != nil {
		t.Fatalf("FetchOdds: %v", err)
	}
	if len(selections) == 0 {
		t.Fatal("expected mock selections")
	}
	for _, sel := range selections {
		if sel.AmericanOdds == 0 {
			t.Errorf("mock selection %s has zero odds", sel.ID)
		}
	}

	sports, err := client.AvailableSports(context.Background())
	if err != nil {
		t.Fatalf("AvailableSports: %v", err)
	}
	if len(sports) == 0 {
		t.Fatal("expected mock sports list")
	}
	if client.RequestsUsed() != 0 {
		t.Fatalf("mock mode must not consume quota, used %d", client.RequestsUsed())
	}
}
