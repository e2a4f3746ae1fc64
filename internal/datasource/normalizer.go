package datasource

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/acca-engine/internal/models"
	"github.com/yourusername/acca-engine/internal/odds"
)

// Outcome labels attached to head-to-head selections.
const (
	marketHomeWin = "home_win"
	marketAwayWin = "away_win"
	marketDraw    = "draw"
)

// Normalizer converts raw odds API events into internal selections,
// enforcing the price invariant: every selection's decimal odds are derived
// from its American odds at construction time, never supplied independently.
type Normalizer struct {
	logger *logrus.Logger
}

// NewNormalizer creates a new normalizer
func NewNormalizer(logger *logrus.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// NormalizeEvents flattens API events into one selection per bookmaker price.
// Events with malformed prices are skipped, not fatal: the provider mixes
// complete and partial markets in one payload.
func (n *Normalizer) NormalizeEvents(events []apiEvent) []models.Selection {
	selections := make([]models.Selection, 0, len(events)*2)

	for _, event := range events {
		homeTeam, awayTeam, ok := eventTeams(event)
		if !ok {
			n.logger.WithField("sport", event.SportKey).Warn("Skipping event without two teams")
			continue
		}

		eventID := eventIdentifier(event)

		for _, site := range event.Sites {
			if len(site.Odds.H2H) < 2 {
				continue
			}

			fetchedAt := time.Unix(site.LastUpdate, 0).UTC()
			outcomes := []struct {
				market string
				price  float64
			}{
				{marketHomeWin, site.Odds.H2H[0]},
				{marketAwayWin, site.Odds.H2H[1]},
			}
			if len(site.Odds.H2H) >= 3 {
				outcomes = append(outcomes, struct {
					market string
					price  float64
				}{marketDraw, site.Odds.H2H[2]})
			}

			for _, outcome := range outcomes {
				sel, err := n.NewSelection(eventID, event.SportNice, homeTeam, awayTeam,
					outcome.market, outcome.price, site.SiteNice, fetchedAt)
				if err != nil {
					n.logger.WithError(err).WithFields(logrus.Fields{
						"event":  eventID,
						"market": outcome.market,
					}).Warn("Skipping malformed price")
					continue
				}
				selections = append(selections, sel)
			}
		}
	}

	return selections
}

// NewSelection builds a selection from a raw American price, deriving the
// decimal price from it. The provider reports American prices as JSON
// numbers; they must be non-zero integers.
func (n *Normalizer) NewSelection(eventID, sport, homeTeam, awayTeam, market string,
	rawAmerican float64, bookmaker string, fetchedAt time.Time) (models.Selection, error) {

	american, err := parseAmerican(rawAmerican)
	if err != nil {
		return models.Selection{}, err
	}

	return models.Selection{
		ID:           uuid.New(),
		EventID:      eventID,
		Sport:        sport,
		HomeTeam:     homeTeam,
		AwayTeam:     awayTeam,
		Market:       market,
		AmericanOdds: american,
		DecimalOdds:  odds.AmericanToDecimal(american),
		Bookmaker:    bookmaker,
		FetchedAt:    fetchedAt,
	}, nil
}

// parseAmerican converts a raw JSON number into an integer American price,
// rejecting zero and fractional values.
func parseAmerican(raw float64) (int, error) {
	d := decimal.NewFromFloat(raw)
	if !d.IsInteger() {
		return 0, models.ErrInvalidOdds
	}
	american := int(d.IntPart())
	if american == 0 {
		return 0, models.ErrInvalidOdds
	}
	return american, nil
}

// eventTeams resolves the home and away party labels for an event
func eventTeams(event apiEvent) (home, away string, ok bool) {
	home = event.HomeTeam
	if home == "" && len(event.Teams) > 0 {
		home = event.Teams[0]
	}
	for _, team := range event.Teams {
		if team != home {
			away = team
			break
		}
	}
	if away == "" && len(event.Teams) > 1 {
		away = event.Teams[1]
	}
	return home, away, home != "" && away != ""
}

// eventIdentifier builds a stable event id shared by every selection of the
// same fixture, regardless of bookmaker.
func eventIdentifier(event apiEvent) string {
	return event.SportKey + "_" + time.Unix(event.CommenceTime, 0).UTC().Format("20060102T150405")
}
