package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sentra-batch-backend/internal/model"
	"sentra-batch-backend/internal/pricing"
)

// Catalog is the operator-authored venue configuration: the venue, its
// items and their tier ladders. It is loaded from a YAML file at startup
// and is read-only to the engine afterwards.
type Catalog struct {
	Venue CatalogVenue  `yaml:"venue"`
	Items []CatalogItem `yaml:"items"`
}

// CatalogVenue identifies the venue the catalog belongs to.
type CatalogVenue struct {
	Slug string `yaml:"slug"`
	Name string `yaml:"name"`
}

// CatalogItem is one sellable unit with its pricing configuration.
// PricingMode defaults to static, which prices off the explicit Tiers;
// the efficiency and rush modes generate their ladders from the mode
// parameters instead.
type CatalogItem struct {
	Name            string        `yaml:"name"`
	Description     string        `yaml:"description"`
	BasePriceCents  int           `yaml:"base_price_cents"`
	LockFeeCents    int           `yaml:"lock_fee_cents"`
	PrepTimeMinutes int           `yaml:"prep_time_minutes"`
	PricingMode     string        `yaml:"pricing_mode"`
	Tiers           []CatalogTier `yaml:"tiers"`

	// efficiency mode
	MaxDiscountCents int `yaml:"max_discount_cents"`
	PeakCount        int `yaml:"peak_count"`
	LadderSteps      int `yaml:"ladder_steps"`

	// rush mode
	PeakPriceCents int `yaml:"peak_price_cents"`
}

// CatalogTier is one rung of an item's ladder.
type CatalogTier struct {
	MinCount   int `yaml:"min_count"`
	PriceCents int `yaml:"price_cents"`
}

// LoadCatalog reads and validates a catalog file. Validation enforces
// the tier invariants up front so a misconfigured ladder fails at boot
// instead of at the first guest lock.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cat Catalog
	if err := yaml.NewDecoder(f).Decode(&cat); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if cat.Venue.Slug == "" {
		return nil, fmt.Errorf("catalog venue slug is required")
	}
	for _, item := range cat.Items {
		if err := item.validate(); err != nil {
			return nil, fmt.Errorf("item %q: %w", item.Name, err)
		}
	}
	return &cat, nil
}

func (ci CatalogItem) mode() model.PricingMode {
	if ci.PricingMode == "" {
		return model.PricingStatic
	}
	return model.PricingMode(ci.PricingMode)
}

// validate enforces the per-mode pricing invariants up front so a
// misconfigured item fails at boot instead of at the first guest lock.
func (ci CatalogItem) validate() error {
	switch ci.mode() {
	case model.PricingStatic:
		return ci.validateLadder(ci.ladder())
	case model.PricingEfficiency:
		if len(ci.Tiers) > 0 {
			return fmt.Errorf("efficiency mode generates its ladder, remove tiers")
		}
		if ci.PeakCount < 2 {
			return fmt.Errorf("efficiency peak_count %d must be at least 2", ci.PeakCount)
		}
		// The generated ladder is time-independent, so it can be checked
		// once here against the same invariants a static ladder obeys.
		return ci.validateLadder(pricing.Efficiency{
			BasePriceCents:   ci.BasePriceCents,
			MaxDiscountCents: ci.MaxDiscountCents,
			PeakCount:        ci.PeakCount,
			Steps:            ci.LadderSteps,
		}.Tiers(time.Time{}))
	case model.PricingRush:
		if len(ci.Tiers) > 0 {
			return fmt.Errorf("rush mode generates its ladder, remove tiers")
		}
		if ci.PeakPriceCents < ci.BasePriceCents {
			return fmt.Errorf("rush peak price %d below base price %d", ci.PeakPriceCents, ci.BasePriceCents)
		}
		if ci.LockFeeCents >= ci.BasePriceCents {
			return fmt.Errorf("lock fee %d reaches base price %d", ci.LockFeeCents, ci.BasePriceCents)
		}
		return nil
	default:
		return fmt.Errorf("unknown pricing mode %q", ci.PricingMode)
	}
}

func (ci CatalogItem) validateLadder(ladder []model.BatchTier) error {
	if err := pricing.ValidateTiers(ladder, ci.BasePriceCents); err != nil {
		return err
	}
	lowest, err := pricing.LowestPriceCents(ladder)
	if err != nil {
		return err
	}
	if ci.LockFeeCents >= lowest {
		return fmt.Errorf("lock fee %d reaches lowest tier price %d", ci.LockFeeCents, lowest)
	}
	return nil
}

func (ci CatalogItem) ladder() []model.BatchTier {
	tiers := make([]model.BatchTier, len(ci.Tiers))
	for i, t := range ci.Tiers {
		tiers[i] = model.BatchTier{MinCount: t.MinCount, PriceCents: t.PriceCents}
	}
	return tiers
}

// UpsertCatalog writes the venue, items and tier ladders to the
// database. Existing items are updated in place; each item's ladder is
// replaced wholesale since tiers are owned by the item.
func (s *gormStore) UpsertCatalog(ctx context.Context, cat *Catalog) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		venue := model.Venue{Slug: cat.Venue.Slug, Name: cat.Venue.Name}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).Create(&venue).Error; err != nil {
			return fmt.Errorf("upsert venue %q: %w", cat.Venue.Slug, err)
		}
		if venue.ID == 0 {
			if err := tx.First(&venue, "slug = ?", cat.Venue.Slug).Error; err != nil {
				return fmt.Errorf("reload venue %q: %w", cat.Venue.Slug, err)
			}
		}

		log.Printf("Upserting %d catalog items for venue %q...", len(cat.Items), venue.Slug)
		for _, ci := range cat.Items {
			item := model.Item{
				VenueID:          venue.ID,
				Name:             ci.Name,
				Description:      ci.Description,
				BasePriceCents:   ci.BasePriceCents,
				LockFeeCents:     ci.LockFeeCents,
				PrepTimeMinutes:  ci.PrepTimeMinutes,
				PricingMode:      ci.mode(),
				MaxDiscountCents: ci.MaxDiscountCents,
				PeakCount:        ci.PeakCount,
				LadderSteps:      ci.LadderSteps,
				PeakPriceCents:   ci.PeakPriceCents,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "venue_id"}, {Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"description", "base_price_cents", "lock_fee_cents", "prep_time_minutes",
					"pricing_mode", "max_discount_cents", "peak_count", "ladder_steps", "peak_price_cents",
					"updated_at",
				}),
			}).Create(&item).Error; err != nil {
				return fmt.Errorf("upsert item %q: %w", ci.Name, err)
			}
			if item.ID == 0 {
				if err := tx.First(&item, "venue_id = ? AND name = ?", venue.ID, ci.Name).Error; err != nil {
					return fmt.Errorf("reload item %q: %w", ci.Name, err)
				}
			}

			if err := tx.Where("item_id = ?", item.ID).Delete(&model.BatchTier{}).Error; err != nil {
				return fmt.Errorf("clear tiers for item %q: %w", ci.Name, err)
			}
			tiers := ci.ladder()
			for i := range tiers {
				tiers[i].ItemID = item.ID
			}
			if len(tiers) > 0 {
				if err := tx.Create(&tiers).Error; err != nil {
					return fmt.Errorf("create tiers for item %q: %w", ci.Name, err)
				}
			}
		}
		return nil
	})
}
