// Package probability estimates success probabilities for selections by
// blending market-implied probability with historical team form.
package probability

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/acca-engine/internal/models"
	"github.com/yourusername/acca-engine/internal/odds"
)

// Blend weights for selections with historical coverage, and the flat
// discount applied when no record matches either team.
const (
	oddsWeight       = 0.7
	historicalWeight = 0.3
	noDataDiscount   = 0.95
	DefaultThreshold = 0.8
)

type statsSnapshot map[string]*models.TeamStats

// Model scores selections against a replaceable snapshot of historical team
// stats. The snapshot is swapped wholesale: readers always see either the old
// or the new map, never a partially loaded one, so concurrent scoring passes
// need no locking.
type Model struct {
	stats  atomic.Pointer[statsSnapshot]
	logger *logrus.Logger
}

// NewModel creates a probability model with an empty stats snapshot
func NewModel(logger *logrus.Logger) *Model {
	m := &Model{logger: logger}
	empty := statsSnapshot{}
	m.stats.Store(&empty)
	return m
}

// LoadHistoricalStats replaces the current snapshot with the given records.
// Duplicate team keys resolve last-write-wins.
func (m *Model) LoadHistoricalStats(stats []*models.TeamStats) {
	snapshot := make(statsSnapshot, len(stats))
	for _, st := range stats {
		snapshot[st.Team] = st
	}
	m.stats.Store(&snapshot)

	if m.logger != nil {
		m.logger.WithField("teams", len(snapshot)).Debug("Historical stats snapshot loaded")
	}
}

// lookupStats finds the record for either party of a selection, home team
// checked before away team so repeated calls are stable.
func (m *Model) lookupStats(sel *models.Selection) *models.TeamStats {
	snapshot := *m.stats.Load()
	if st, ok := snapshot[sel.HomeTeam]; ok {
		return st
	}
	if st, ok := snapshot[sel.AwayTeam]; ok {
		return st
	}
	return nil
}

// EstimateSuccessProbability estimates the probability that a selection wins.
// With historical coverage the estimate blends implied probability with the
// team's win rate; without it the implied probability takes a conservative
// flat discount.
func (m *Model) EstimateSuccessProbability(sel *models.Selection) float64 {
	implied := odds.ImpliedProbability(sel.DecimalOdds)

	if st := m.lookupStats(sel); st != nil {
		return implied*oddsWeight + (st.WinRate/100.0)*historicalWeight
	}
	return implied * noDataDiscount
}

// MeetsThreshold reports whether a probability passes the given threshold
func MeetsThreshold(probability, threshold float64) bool {
	return probability >= threshold
}

// FilterByProbability keeps selections whose estimated success probability
// meets the threshold. Order-preserving.
func (m *Model) FilterByProbability(selections []models.Selection, threshold float64) []models.Selection {
	filtered := make([]models.Selection, 0, len(selections))
	for _, sel := range selections {
		if MeetsThreshold(m.EstimateSuccessProbability(&sel), threshold) {
			filtered = append(filtered, sel)
		}
	}
	return filtered
}

// CombinedProbability returns the joint success probability of a combination,
// treating leg outcomes as independent.
func (m *Model) CombinedProbability(selections []models.Selection) float64 {
	combined := 1.0
	for _, sel := range selections {
		combined *= m.EstimateSuccessProbability(&sel)
	}
	return combined
}

// Breakdown exposes the components of a selection's estimate separately for
// display and audit.
type Breakdown struct {
	OddsProbability      float64 `json:"odds_probability"`
	HistoricalAdjustment float64 `json:"historical_adjustment"`
	FinalProbability     float64 `json:"final_probability"`
	MeetsThreshold       bool    `json:"meets_threshold"`
}

// ProbabilityBreakdown returns the diagnostic view of a selection's estimate.
// When no historical record matches, HistoricalAdjustment falls back to the
// implied probability itself rather than the discounted scoring value.
func (m *Model) ProbabilityBreakdown(sel *models.Selection) Breakdown {
	implied := odds.ImpliedProbability(sel.DecimalOdds)
	final := m.EstimateSuccessProbability(sel)

	adjustment := implied
	if st := m.lookupStats(sel); st != nil {
		adjustment = st.WinRate / 100.0
	}

	return Breakdown{
		OddsProbability:      implied,
		HistoricalAdjustment: adjustment,
		FinalProbability:     final,
		MeetsThreshold:       MeetsThreshold(final, DefaultThreshold),
	}
}

// StatsCount returns the number of teams in the current snapshot
func (m *Model) StatsCount() int {
	return len(*m.stats.Load())
}
