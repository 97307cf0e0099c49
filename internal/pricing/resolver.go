// Package pricing implements tier resolution for batch volume pricing.
// A tier ladder maps participant-count thresholds to unit prices; more
// participants never cost more.
package pricing

import (
	"errors"
	"fmt"

	"sentra-batch-backend/internal/model"
)

// ErrInvalidConfiguration indicates a malformed tier ladder (empty,
// unsorted, or priced above the walk-in price).
var ErrInvalidConfiguration = errors.New("invalid tier configuration")

// ResolveCurrentTier returns the tier a joining guest would pay given
// liveCount guests already in the batch. The joining guest counts toward
// their own tier, hence liveCount+1. When no threshold is met yet the
// lowest tier applies; a locked-in guest always beats the walk-in price.
// Tiers must be sorted ascending by MinCount; on duplicate thresholds the
// later entry wins.
func ResolveCurrentTier(tiers []model.BatchTier, liveCount int) (model.BatchTier, error) {
	if len(tiers) == 0 {
		return model.BatchTier{}, fmt.Errorf("empty tier list: %w", ErrInvalidConfiguration)
	}
	current := tiers[0]
	for _, t := range tiers {
		if t.MinCount <= liveCount+1 {
			current = t
		}
	}
	return current, nil
}

// ResolveNextTier returns the first tier not yet unlocked at liveCount,
// or nil when the top tier has been reached.
func ResolveNextTier(tiers []model.BatchTier, liveCount int) *model.BatchTier {
	for i := range tiers {
		if tiers[i].MinCount > liveCount {
			next := tiers[i]
			return &next
		}
	}
	return nil
}

// ValidateTiers checks the ladder invariants at catalog-load time:
// non-empty, sorted ascending by MinCount, prices non-increasing as
// MinCount grows, and no tier priced above the walk-in base price.
func ValidateTiers(tiers []model.BatchTier, basePriceCents int) error {
	if len(tiers) == 0 {
		return fmt.Errorf("empty tier list: %w", ErrInvalidConfiguration)
	}
	for i, t := range tiers {
		if t.MinCount < 1 {
			return fmt.Errorf("tier %d: min_count %d < 1: %w", i, t.MinCount, ErrInvalidConfiguration)
		}
		if t.PriceCents > basePriceCents {
			return fmt.Errorf("tier %d: price %d exceeds base price %d: %w", i, t.PriceCents, basePriceCents, ErrInvalidConfiguration)
		}
		if i == 0 {
			continue
		}
		prev := tiers[i-1]
		if t.MinCount < prev.MinCount {
			return fmt.Errorf("tier %d: min_count %d out of order: %w", i, t.MinCount, ErrInvalidConfiguration)
		}
		if t.PriceCents > prev.PriceCents {
			return fmt.Errorf("tier %d: price %d increases over previous %d: %w", i, t.PriceCents, prev.PriceCents, ErrInvalidConfiguration)
		}
	}
	return nil
}

// LowestPriceCents returns the cheapest price on the ladder (the last
// rung of a valid ladder). Used to enforce that a lock fee can never
// exceed the lowest reachable tier price.
func LowestPriceCents(tiers []model.BatchTier) (int, error) {
	if len(tiers) == 0 {
		return 0, fmt.Errorf("empty tier list: %w", ErrInvalidConfiguration)
	}
	lowest := tiers[0].PriceCents
	for _, t := range tiers[1:] {
		if t.PriceCents < lowest {
			lowest = t.PriceCents
		}
	}
	return lowest, nil
}
