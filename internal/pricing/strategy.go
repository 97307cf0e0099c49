package pricing

import (
	"time"

	"sentra-batch-backend/internal/model"
)

// Strategy produces the tier ladder for a batch. The marketing site
// showed several pricing modes (static ladders, efficiency discounts by
// hourly volume, rush prices climbing through the window); they are all
// expressed as alternative ladder generators rather than separate
// engines.
type Strategy interface {
	Tiers(now time.Time) []model.BatchTier
}

// ForItem builds the strategy an item's pricing mode selects. Static
// items price off their stored ladder; the computed modes generate
// theirs from the item's parameters, rush relative to the window of the
// batch being priced.
func ForItem(item *model.Item, ladder []model.BatchTier, windowStart, windowEnd time.Time) Strategy {
	switch item.PricingMode {
	case model.PricingEfficiency:
		return Efficiency{
			BasePriceCents:   item.BasePriceCents,
			MaxDiscountCents: item.MaxDiscountCents,
			PeakCount:        item.PeakCount,
			Steps:            item.LadderSteps,
		}
	case model.PricingRush:
		return Rush{
			BasePriceCents: item.BasePriceCents,
			PeakPriceCents: item.PeakPriceCents,
			WindowStart:    windowStart,
			WindowEnd:      windowEnd,
		}
	default:
		return Static{Ladder: ladder}
	}
}

// Static serves an operator-authored ladder unchanged. This is the
// normal mode for catalog-configured items.
type Static struct {
	Ladder []model.BatchTier
}

func (s Static) Tiers(time.Time) []model.BatchTier {
	return s.Ladder
}

// Efficiency builds a ladder that discounts linearly with volume: at
// PeakCount participants the full MaxDiscountCents comes off the base
// price. Steps controls how many rungs the ladder has.
type Efficiency struct {
	BasePriceCents   int
	MaxDiscountCents int
	PeakCount        int
	Steps            int
}

func (e Efficiency) Tiers(time.Time) []model.BatchTier {
	steps := e.Steps
	if steps < 1 {
		steps = 1
	}
	tiers := make([]model.BatchTier, 0, steps+1)
	tiers = append(tiers, model.BatchTier{MinCount: 1, PriceCents: e.BasePriceCents})
	for i := 1; i <= steps; i++ {
		count := e.PeakCount * i / steps
		if count < 2 {
			continue
		}
		discount := e.MaxDiscountCents * i / steps
		tiers = append(tiers, model.BatchTier{
			MinCount:   count,
			PriceCents: e.BasePriceCents - discount,
		})
	}
	return tiers
}

// Rush prices a window where demand outruns capacity: the single-rung
// price climbs from the base toward PeakPriceCents as the window elapses,
// so locking early is the discount. Outside the window the base price
// applies.
type Rush struct {
	BasePriceCents int
	PeakPriceCents int
	WindowStart    time.Time
	WindowEnd      time.Time
}

func (r Rush) Tiers(now time.Time) []model.BatchTier {
	price := r.BasePriceCents
	if now.After(r.WindowStart) && r.WindowEnd.After(r.WindowStart) {
		elapsed := now.Sub(r.WindowStart)
		span := r.WindowEnd.Sub(r.WindowStart)
		if elapsed >= span {
			price = r.PeakPriceCents
		} else {
			price = r.BasePriceCents + int(int64(r.PeakPriceCents-r.BasePriceCents)*int64(elapsed)/int64(span))
		}
	}
	return []model.BatchTier{{MinCount: 1, PriceCents: price}}
}
