package models

import (
	"time"
)

// Accumulator represents a priced, scored combination of selections drawn
// from distinct events. All derived fields are pure functions of the member
// selections; an Accumulator is never mutated after construction.
type Accumulator struct {
	Selections           []Selection `json:"selections" validate:"required,min=2"`
	CombinedAmericanOdds int         `json:"combined_american_odds"`
	CombinedDecimalOdds  float64     `json:"combined_decimal_odds"`
	TotalProbability     float64     `json:"total_probability" validate:"gte=0,lte=1"`
	CreatedAt            time.Time   `json:"created_at"`
}

// Size returns the number of legs in the accumulator
func (a *Accumulator) Size() int {
	return len(a.Selections)
}

// EventIDs returns the distinct event identifiers covered by the accumulator
func (a *Accumulator) EventIDs() []string {
	ids := make([]string, 0, len(a.Selections))
	for _, sel := range a.Selections {
		ids = append(ids, sel.EventID)
	}
	return ids
}

// HasDistinctEvents reports whether no two legs share an event
func (a *Accumulator) HasDistinctEvents() bool {
	seen := make(map[string]struct{}, len(a.Selections))
	for _, sel := range a.Selections {
		if _, ok := seen[sel.EventID]; ok {
			return false
		}
		seen[sel.EventID] = struct{}{}
	}
	return true
}
