// Package builder orchestrates accumulator construction: it pre-filters the
// selection pool by estimated probability, enumerates size-constrained
// combinations, prices them, applies the distinct-event and price-range
// filters, scores the survivors, and ranks them by confidence.
package builder

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/acca-engine/internal/combinations"
	"github.com/yourusername/acca-engine/internal/metrics"
	"github.com/yourusername/acca-engine/internal/models"
	"github.com/yourusername/acca-engine/internal/odds"
	"github.com/yourusername/acca-engine/internal/probability"
)

// Rejection reasons reported to the metrics registry.
const (
	rejectDuplicateEvent = "duplicate_event"
	rejectPriceRange     = "price_range"
)

// Options bound a build run. The presentation layer validates size bounds
// before they reach the builder (both >= 2, min <= max).
type Options struct {
	MinSelections        int
	MaxSelections        int
	ProbabilityThreshold float64
	PriceRangeLow        int
	PriceRangeHigh       int
}

// DefaultOptions returns the standard build parameters: 2-4 legs, 80%
// per-leg probability, combined price between +100 and +1000.
func DefaultOptions() Options {
	return Options{
		MinSelections:        2,
		MaxSelections:        4,
		ProbabilityThreshold: probability.DefaultThreshold,
		PriceRangeLow:        odds.DefaultRangeLow,
		PriceRangeHigh:       odds.DefaultRangeHigh,
	}
}

// Builder builds ranked accumulators from a selection pool
type Builder struct {
	model  *probability.Model
	logger *logrus.Logger
}

// NewBuilder creates a new accumulator builder
func NewBuilder(model *probability.Model, logger *logrus.Logger) *Builder {
	return &Builder{
		model:  model,
		logger: logger,
	}
}

// Build returns every qualifying accumulator over the pool, ranked by joint
// probability descending. "No qualifying combinations" is a normal outcome
// and yields an empty slice, not an error.
func (b *Builder) Build(pool []models.Selection, opts Options) []*models.Accumulator {
	start := time.Now()

	filtered := b.model.FilterByProbability(pool, opts.ProbabilityThreshold)
	metrics.FilteredPoolSize.Set(float64(len(filtered)))

	b.logger.WithFields(logrus.Fields{
		"pool_size":     len(pool),
		"filtered_size": len(filtered),
		"threshold":     opts.ProbabilityThreshold,
	}).Debug("Probability pre-filter applied")

	if len(filtered) < opts.MinSelections {
		metrics.RecordBuild(time.Since(start).Seconds(), 0)
		return []*models.Accumulator{}
	}

	accumulators := make([]*models.Accumulator, 0)

	maxSize := opts.MaxSelections
	if len(filtered) < maxSize {
		maxSize = len(filtered)
	}

	for size := opts.MinSelections; size <= maxSize; size++ {
		gen := combinations.NewGenerator(filtered, size)
		for combo, ok := gen.Next(); ok; combo, ok = gen.Next() {
			metrics.RecordCandidate()
			if acc := b.evaluate(combo, opts); acc != nil {
				accumulators = append(accumulators, acc)
			}
		}
	}

	// Rank by joint probability, highest confidence first
	sort.SliceStable(accumulators, func(i, j int) bool {
		return accumulators[i].TotalProbability > accumulators[j].TotalProbability
	})

	elapsed := time.Since(start)
	metrics.RecordBuild(elapsed.Seconds(), len(accumulators))

	b.logger.WithFields(logrus.Fields{
		"accumulators": len(accumulators),
		"duration_ms":  elapsed.Milliseconds(),
	}).Info("Accumulator build complete")

	return accumulators
}

// evaluate prices and scores one candidate combination, returning nil when a
// filter rejects it.
func (b *Builder) evaluate(combo []models.Selection, opts Options) *models.Accumulator {
	if hasDuplicateEvents(combo) {
		metrics.RecordRejection(rejectDuplicateEvent)
		return nil
	}

	combinedAmerican, err := odds.ComposePrices(americanPrices(combo))
	if err != nil {
		b.logger.WithError(err).Warn("Failed to price combination")
		return nil
	}

	if !odds.InRange(combinedAmerican, opts.PriceRangeLow, opts.PriceRangeHigh) {
		metrics.RecordRejection(rejectPriceRange)
		return nil
	}

	return b.newAccumulator(combo, combinedAmerican)
}

// BuildCustom prices and scores one caller-specified combination, bypassing
// the threshold and price-range filters: it answers "what if I pick these
// exact legs" rather than "show me only the good ones". Unresolved ids are
// skipped; the resulting set must still hold at least two selections from
// distinct events or the combination is treated as not found.
func (b *Builder) BuildCustom(selectionIDs []string, allSelections []models.Selection) (*models.Accumulator, error) {
	byID := make(map[string]models.Selection, len(allSelections))
	for _, sel := range allSelections {
		byID[sel.ID.String()] = sel
	}

	// Resolve ids first, then validate the surviving set, so the invariant
	// checks operate on what will actually be priced.
	resolved := make([]models.Selection, 0, len(selectionIDs))
	for _, id := range selectionIDs {
		if sel, ok := byID[id]; ok {
			resolved = append(resolved, sel)
		}
	}

	if dropped := len(selectionIDs) - len(resolved); dropped > 0 {
		b.logger.WithFields(logrus.Fields{
			"requested": len(selectionIDs),
			"dropped":   dropped,
		}).Debug("Skipped unresolved selection ids")
	}

	if len(resolved) < 2 {
		return nil, models.ErrTooFewSelections
	}
	if hasDuplicateEvents(resolved) {
		return nil, models.ErrDuplicateEvent
	}

	combinedAmerican, err := odds.ComposePrices(americanPrices(resolved))
	if err != nil {
		return nil, err
	}

	return b.newAccumulator(resolved, combinedAmerican), nil
}

// newAccumulator assembles the scored result. CombinedDecimalOdds is derived
// from the rounded American integer with the linear american/100+1 formula,
// not the precise decimal product. Consumers that need exact decimals should
// recompute from the per-leg prices.
func (b *Builder) newAccumulator(combo []models.Selection, combinedAmerican int) *models.Accumulator {
	return &models.Accumulator{
		Selections:           combo,
		CombinedAmericanOdds: combinedAmerican,
		CombinedDecimalOdds:  float64(combinedAmerican)/100.0 + 1.0,
		TotalProbability:     b.model.CombinedProbability(combo),
		CreatedAt:            time.Now().UTC(),
	}
}

func hasDuplicateEvents(combo []models.Selection) bool {
	seen := make(map[string]struct{}, len(combo))
	for _, sel := range combo {
		if _, ok := seen[sel.EventID]; ok {
			return true
		}
		seen[sel.EventID] = struct{}{}
	}
	return false
}

func americanPrices(combo []models.Selection) []int {
	prices := make([]int, len(combo))
	for i, sel := range combo {
		prices[i] = sel.AmericanOdds
	}
	return prices
}
