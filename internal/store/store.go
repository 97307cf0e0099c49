package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sentra-batch-backend/internal/aggregate"
	"sentra-batch-backend/internal/codes"
	"sentra-batch-backend/internal/engine"
	"sentra-batch-backend/internal/model"
	"sentra-batch-backend/internal/pricing"
)

// codeAttempts bounds the redeem-code collision retry loop.
const codeAttempts = 5

// Store defines the interface for all database operations. Every
// mutating method is one atomic read-modify-write: mutations serialize
// per batch (or per reservation) via a row lock inside a transaction,
// while the view methods read a consistent snapshot without locking.
type Store interface {
	DB() *gorm.DB

	UpsertCatalog(ctx context.Context, cat *Catalog) error
	FindOrCreateBatch(ctx context.Context, itemID int64, now time.Time) (*model.Batch, error)
	Lock(ctx context.Context, batchID string, opts LockOptions, now time.Time) (*LockResult, error)
	Redeem(ctx context.Context, code string, now time.Time) (*RedeemResult, error)
	AdvanceBatch(ctx context.Context, batchID string, target model.BatchStatus, now time.Time) (*AdvanceResult, error)
	TriggerPrep(ctx context.Context, reservationID string) (*model.Reservation, error)
	SetGuestETA(ctx context.Context, reservationID string, etaMinutes, prepThresholdMinutes int) (*model.Reservation, bool, error)

	ExpireDue(ctx context.Context, now time.Time) ([]model.Reservation, error)
	LockDueBatches(ctx context.Context, now time.Time) ([]AdvanceResult, error)
	CompleteSettledBatches(ctx context.Context, now time.Time) ([]model.Batch, error)

	BatchView(ctx context.Context, batchID string, now time.Time) (*BatchView, error)
	VenueBatches(ctx context.Context, venueID int64, now time.Time) ([]BatchView, error)
	OperatorView(ctx context.Context, venueID int64, etaThresholdMinutes int, now time.Time) (*OperatorView, error)
}

// Options configure the scheduling and validity policy the store applies
// when it creates batches and reservations.
type Options struct {
	SlotWidth      time.Duration // width of a batch time slice
	PrepLead       time.Duration // prep_at = ends_at - PrepLead
	ValidityWindow time.Duration // reservation lifetime from lock to expiry
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db   *gorm.DB
	opts Options
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts Options) Store {
	if opts.SlotWidth <= 0 {
		opts.SlotWidth = 30 * time.Minute
	}
	if opts.PrepLead <= 0 || opts.PrepLead >= opts.SlotWidth {
		opts.PrepLead = 5 * time.Minute
	}
	if opts.ValidityWindow <= 0 {
		opts.ValidityWindow = 2 * time.Hour
	}
	return &gormStore{db: db, opts: opts}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// forUpdate adds a row lock on dialects that support it. SQLite (used by
// the tests) serializes writers at the database level instead and errors
// on FOR UPDATE.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// FindOrCreateBatch returns the open batch covering now for the item,
// creating a new slot-aligned one when none exists. Failure to lock into
// a batch that advanced past building never silently rolls guests into a
// fresh batch; the caller re-queries through this method instead.
func (s *gormStore) FindOrCreateBatch(ctx context.Context, itemID int64, now time.Time) (*model.Batch, error) {
	var batch model.Batch
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.Item
		if err := tx.First(&item, itemID).Error; err != nil {
			return fmt.Errorf("load item %d: %w", itemID, err)
		}

		err := tx.Where("item_id = ? AND status = ? AND starts_at <= ? AND ends_at > ?",
			itemID, model.BatchBuilding, now, now).
			First(&batch).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find open batch for item %d: %w", itemID, err)
		}

		start := now.UTC().Truncate(s.opts.SlotWidth)
		end := start.Add(s.opts.SlotWidth)
		prep := end.Add(-s.opts.PrepLead)
		if !prep.After(start) {
			prep = end
		}
		batch = model.Batch{
			ID:       uuid.NewString(),
			VenueID:  item.VenueID,
			ItemID:   item.ID,
			StartsAt: start,
			EndsAt:   end,
			PrepAt:   prep,
			Status:   model.BatchBuilding,
		}
		if err := tx.Create(&batch).Error; err != nil {
			return fmt.Errorf("create batch for item %d: %w", itemID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// Lock creates a price-lock reservation in the batch. The whole
// operation runs under the batch's row lock so two simultaneous locks
// in one batch cannot read the same live count. Code uniqueness is
// venue-wide and enforced by a partial unique index, so a collision
// with a concurrent lock in another batch fails the insert; the
// transaction is retried with a fresh code. Joining may unlock a
// cheaper tier for reservations already in the batch; those retroactive
// drops are applied here and reported in the result.
func (s *gormStore) Lock(ctx context.Context, batchID string, opts LockOptions, now time.Time) (*LockResult, error) {
	var result LockResult
	var err error
	for attempt := 0; attempt < codeAttempts; attempt++ {
		err = s.lockTx(ctx, batchID, opts, now, &result)
		if err == nil || !isCodeCollision(err) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *gormStore) lockTx(ctx context.Context, batchID string, opts LockOptions, now time.Time, result *LockResult) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var batch model.Batch
		if err := forUpdate(tx).
			First(&batch, "id = ?", batchID).Error; err != nil {
			return fmt.Errorf("load batch %s: %w", batchID, err)
		}
		if !batch.Open(now) {
			return fmt.Errorf("batch %s (status %s): %w", batch.ID, batch.Status, engine.ErrBatchClosed)
		}

		item, ladder, err := s.batchLadder(tx, &batch, now)
		if err != nil {
			return err
		}

		tier, err := pricing.ResolveCurrentTier(ladder, batch.LiveCount)
		if err != nil {
			return err
		}
		lowest, err := pricing.LowestPriceCents(ladder)
		if err != nil {
			return err
		}
		// The deposit is credited toward the final price, and the final
		// price can drop as far as the cheapest tier. A fee at or above
		// that floor could push the amount due negative.
		if item.LockFeeCents >= lowest || item.LockFeeCents >= tier.PriceCents {
			return fmt.Errorf("lock fee %d vs tier price %d (floor %d): %w",
				item.LockFeeCents, tier.PriceCents, lowest, engine.ErrFeeExceedsPrice)
		}

		code, err := s.uniqueCode(tx, batch.VenueID)
		if err != nil {
			return err
		}

		reservation := model.Reservation{
			ID:               uuid.NewString(),
			BatchID:          batch.ID,
			VenueID:          batch.VenueID,
			ItemID:           item.ID,
			LockedPriceCents: tier.PriceCents,
			LockFeeCents:     item.LockFeeCents,
			RedeemCode:       code,
			Status:           model.ReservationPending,
			GuestETAMinutes:  opts.GuestETAMinutes,
			Vibe:             opts.Vibe,
			ExpiresAt:        now.Add(s.opts.ValidityWindow),
		}
		if err := engine.Activate(&reservation); err != nil {
			return err
		}
		if err := tx.Create(&reservation).Error; err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}

		batch.LiveCount++
		if err := tx.Model(&model.Batch{}).Where("id = ?", batch.ID).
			Update("live_count", batch.LiveCount).Error; err != nil {
			return fmt.Errorf("bump live count for batch %s: %w", batch.ID, err)
		}

		drops, err := s.recomputeBatch(tx, &batch, ladder, reservation.ID)
		if err != nil {
			return err
		}

		*result = LockResult{
			Reservation: reservation,
			Batch:       batch,
			Tier:        tierInfo(item, ladder, batch.LiveCount),
			PriceDrops:  drops,
		}
		return nil
	})
}

// Redeem settles the reservation carrying the code. Expired holders
// release their codes for reuse, so the lookup prefers the live holder
// and falls back to an expired one only to report the expiry instead of
// an unknown code. The expired/already-redeemed distinctions come from
// the engine under the reservation's row lock, so a racing sweep and
// redeem cannot both win.
func (s *gormStore) Redeem(ctx context.Context, code string, now time.Time) (*RedeemResult, error) {
	var result RedeemResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reservation model.Reservation
		err := forUpdate(tx).
			Where("redeem_code = ? AND status <> ?", code, model.ReservationExpired).
			First(&reservation).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = forUpdate(tx).
				Where("redeem_code = ?", code).
				Order("created_at desc").
				First(&reservation).Error
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("code %q unknown: %w", code, engine.ErrCodeMismatch)
		}
		if err != nil {
			return fmt.Errorf("load reservation by code: %w", err)
		}

		due, err := engine.Redeem(&reservation, code, now)
		if err != nil {
			return err
		}
		if err := tx.Save(&reservation).Error; err != nil {
			return fmt.Errorf("save redeemed reservation %s: %w", reservation.ID, err)
		}
		result = RedeemResult{Reservation: reservation, AmountDueCents: due}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AdvanceBatch applies an operator (or sweep) transition under the batch
// row lock and fans the stage change out to the batch's reservations:
// locking runs the final recompute pass, prepping triggers prep for the
// active reservations, ready marks the prep-triggered ones.
func (s *gormStore) AdvanceBatch(ctx context.Context, batchID string, target model.BatchStatus, now time.Time) (*AdvanceResult, error) {
	var result AdvanceResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := s.advanceBatchTx(tx, batchID, target, now)
		if err != nil {
			return err
		}
		result = *res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *gormStore) advanceBatchTx(tx *gorm.DB, batchID string, target model.BatchStatus, now time.Time) (*AdvanceResult, error) {
	var batch model.Batch
	if err := forUpdate(tx).
		First(&batch, "id = ?", batchID).Error; err != nil {
		return nil, fmt.Errorf("load batch %s: %w", batchID, err)
	}

	changed, err := engine.AdvanceBatch(&batch, target, now)
	if err != nil {
		return nil, err
	}
	result := AdvanceResult{Batch: batch, Changed: changed}
	if !changed {
		return &result, nil
	}

	if err := tx.Model(&model.Batch{}).Where("id = ?", batch.ID).
		Update("status", batch.Status).Error; err != nil {
		return nil, fmt.Errorf("save batch %s: %w", batch.ID, err)
	}

	switch target {
	case model.BatchLocked:
		_, ladder, err := s.batchLadder(tx, &batch, now)
		if err != nil {
			return nil, err
		}
		drops, err := s.recomputeBatch(tx, &batch, ladder, "")
		if err != nil {
			return nil, err
		}
		result.PriceDrops = drops
	case model.BatchPrepping:
		transitions, err := s.fanOut(tx, batch.ID, model.ReservationActive, engine.TriggerPrep)
		if err != nil {
			return nil, err
		}
		result.Transitions = transitions
	case model.BatchReady:
		transitions, err := s.fanOut(tx, batch.ID, model.ReservationPrepTriggered, engine.MarkReady)
		if err != nil {
			return nil, err
		}
		result.Transitions = transitions
	}
	result.Batch = batch
	return &result, nil
}

// TriggerPrep fires the prep signal for a single reservation (operator
// action or external notification).
func (s *gormStore) TriggerPrep(ctx context.Context, reservationID string) (*model.Reservation, error) {
	var reservation model.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).
			First(&reservation, "id = ?", reservationID).Error; err != nil {
			return fmt.Errorf("load reservation %s: %w", reservationID, err)
		}
		if err := engine.TriggerPrep(&reservation); err != nil {
			return err
		}
		return tx.Save(&reservation).Error
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// SetGuestETA records an external ETA signal and, when the guest is
// inside the prep threshold, fires the prep trigger in the same
// transaction. The bool reports whether prep was triggered.
func (s *gormStore) SetGuestETA(ctx context.Context, reservationID string, etaMinutes, prepThresholdMinutes int) (*model.Reservation, bool, error) {
	var reservation model.Reservation
	triggered := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).
			First(&reservation, "id = ?", reservationID).Error; err != nil {
			return fmt.Errorf("load reservation %s: %w", reservationID, err)
		}
		if reservation.Status.Terminal() {
			return fmt.Errorf("reservation %s is %s: %w", reservation.ID, reservation.Status, engine.ErrInvalidTransition)
		}
		reservation.GuestETAMinutes = &etaMinutes
		if etaMinutes <= prepThresholdMinutes && reservation.Status == model.ReservationActive {
			if err := engine.TriggerPrep(&reservation); err != nil {
				return err
			}
			triggered = true
		}
		return tx.Save(&reservation).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &reservation, triggered, nil
}

// ExpireDue sweeps reservations whose validity window elapsed without
// redemption. Each reservation is its own transaction so one bad record
// cannot abort the sweep for the rest; a transition lost to a concurrent
// redeem is skipped, not double-applied.
func (s *gormStore) ExpireDue(ctx context.Context, now time.Time) ([]model.Reservation, error) {
	var dueIDs []string
	err := s.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("expires_at <= ? AND status NOT IN ?", now,
			[]model.ReservationStatus{model.ReservationRedeemed, model.ReservationExpired}).
		Pluck("id", &dueIDs).Error
	if err != nil {
		return nil, fmt.Errorf("query due reservations: %w", err)
	}

	var expired []model.Reservation
	for _, id := range dueIDs {
		var reservation model.Reservation
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := forUpdate(tx).
				First(&reservation, "id = ?", id).Error; err != nil {
				return fmt.Errorf("load reservation %s: %w", id, err)
			}
			if err := engine.Expire(&reservation, now); err != nil {
				return err
			}
			return tx.Save(&reservation).Error
		})
		switch {
		case err == nil:
			expired = append(expired, reservation)
		case errors.Is(err, engine.ErrAlreadyRedeemed), errors.Is(err, engine.ErrAlreadyExpired):
			// Lost the race to a redeem or a concurrent sweep; fine.
		default:
			log.Printf("expiry sweep: reservation %s: %v", id, err)
		}
	}
	return expired, nil
}

// LockDueBatches advances building batches whose prep_at has passed,
// running the final recompute pass for each.
func (s *gormStore) LockDueBatches(ctx context.Context, now time.Time) ([]AdvanceResult, error) {
	var dueIDs []string
	err := s.db.WithContext(ctx).Model(&model.Batch{}).
		Where("status = ? AND prep_at <= ?", model.BatchBuilding, now).
		Pluck("id", &dueIDs).Error
	if err != nil {
		return nil, fmt.Errorf("query due batches: %w", err)
	}

	var results []AdvanceResult
	for _, id := range dueIDs {
		var result *AdvanceResult
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var txErr error
			result, txErr = s.advanceBatchTx(tx, id, model.BatchLocked, now)
			return txErr
		})
		if err != nil {
			log.Printf("auto-lock sweep: batch %s: %v", id, err)
			continue
		}
		if result.Changed {
			results = append(results, *result)
		}
	}
	return results, nil
}

// CompleteSettledBatches closes ready batches whose reservations have
// all reached a terminal status.
func (s *gormStore) CompleteSettledBatches(ctx context.Context, now time.Time) ([]model.Batch, error) {
	var readyIDs []string
	err := s.db.WithContext(ctx).Model(&model.Batch{}).
		Where("status = ?", model.BatchReady).
		Pluck("id", &readyIDs).Error
	if err != nil {
		return nil, fmt.Errorf("query ready batches: %w", err)
	}

	var completed []model.Batch
	for _, id := range readyIDs {
		var batch model.Batch
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := forUpdate(tx).
				First(&batch, "id = ?", id).Error; err != nil {
				return fmt.Errorf("load batch %s: %w", id, err)
			}
			var reservations []model.Reservation
			if err := tx.Where("batch_id = ?", id).Find(&reservations).Error; err != nil {
				return fmt.Errorf("load reservations for batch %s: %w", id, err)
			}
			if !engine.BatchSettled(reservations) {
				return nil
			}
			if _, err := engine.AdvanceBatch(&batch, model.BatchComplete, now); err != nil {
				return err
			}
			return tx.Model(&model.Batch{}).Where("id = ?", id).
				Update("status", batch.Status).Error
		})
		if err != nil {
			log.Printf("completion sweep: batch %s: %v", id, err)
			continue
		}
		if batch.Status == model.BatchComplete {
			completed = append(completed, batch)
		}
	}
	return completed, nil
}

// BatchView builds the guest-facing live pricing projection.
func (s *gormStore) BatchView(ctx context.Context, batchID string, now time.Time) (*BatchView, error) {
	var batch model.Batch
	if err := s.db.WithContext(ctx).Preload("Reservations").
		First(&batch, "id = ?", batchID).Error; err != nil {
		return nil, fmt.Errorf("load batch %s: %w", batchID, err)
	}
	item, ladder, err := s.batchLadder(s.db.WithContext(ctx), &batch, now)
	if err != nil {
		return nil, err
	}
	return &BatchView{Batch: batch, Item: *item, Tier: tierInfo(item, ladder, batch.LiveCount)}, nil
}

// VenueBatches lists the venue's batches still relevant to guests:
// everything not yet complete whose window has not fully passed.
func (s *gormStore) VenueBatches(ctx context.Context, venueID int64, now time.Time) ([]BatchView, error) {
	var batches []model.Batch
	err := s.db.WithContext(ctx).
		Where("venue_id = ? AND status <> ? AND ends_at > ?", venueID, model.BatchComplete, now).
		Order("starts_at asc").
		Find(&batches).Error
	if err != nil {
		return nil, fmt.Errorf("load batches for venue %d: %w", venueID, err)
	}

	views := make([]BatchView, 0, len(batches))
	for i := range batches {
		item, ladder, err := s.batchLadder(s.db.WithContext(ctx), &batches[i], now)
		if err != nil {
			return nil, err
		}
		views = append(views, BatchView{
			Batch: batches[i],
			Item:  *item,
			Tier:  tierInfo(item, ladder, batches[i].LiveCount),
		})
	}
	return views, nil
}

// OperatorView assembles the venue dashboard: today's batches with
// reservations, the urgent prep queue and the daily stats. Pure
// projection over one snapshot; polling it twice yields identical
// results for identical data.
func (s *gormStore) OperatorView(ctx context.Context, venueID int64, etaThresholdMinutes int, now time.Time) (*OperatorView, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var batches []model.Batch
	err := s.db.WithContext(ctx).Preload("Reservations").Preload("Item").
		Where("venue_id = ? AND ends_at >= ?", venueID, dayStart).
		Order("starts_at asc").
		Find(&batches).Error
	if err != nil {
		return nil, fmt.Errorf("load batches for venue %d: %w", venueID, err)
	}

	var reservations []model.Reservation
	for i := range batches {
		reservations = append(reservations, batches[i].Reservations...)
	}

	return &OperatorView{
		Batches: batches,
		Urgent:  aggregate.UrgentPrepList(reservations, etaThresholdMinutes),
		Stats:   aggregate.ComputeDailyStats(reservations),
	}, nil
}

// --- helpers ---

// itemLadder loads an item with its stored tier ladder sorted ascending
// by threshold, the order the resolver requires.
func (s *gormStore) itemLadder(tx *gorm.DB, itemID int64) (*model.Item, []model.BatchTier, error) {
	var item model.Item
	if err := tx.Preload("Tiers", func(db *gorm.DB) *gorm.DB {
		return db.Order("min_count asc, id asc")
	}).First(&item, itemID).Error; err != nil {
		return nil, nil, fmt.Errorf("load item %d: %w", itemID, err)
	}
	return &item, item.Tiers, nil
}

// batchLadder resolves the ladder a batch prices against. Static items
// price off their stored tier rows; the computed modes generate theirs,
// rush relative to the batch's open window (start to prep cutoff).
func (s *gormStore) batchLadder(tx *gorm.DB, batch *model.Batch, now time.Time) (*model.Item, []model.BatchTier, error) {
	item, stored, err := s.itemLadder(tx, batch.ItemID)
	if err != nil {
		return nil, nil, err
	}
	ladder := pricing.ForItem(item, stored, batch.StartsAt, batch.PrepAt).Tiers(now)
	return item, ladder, nil
}

// uniqueCode allocates a redeem code not held by any of the venue's
// non-expired reservations, the same predicate the partial unique index
// enforces on insert. The read check handles the common case; a
// collision that races past it fails the insert and Lock retries the
// whole transaction.
func (s *gormStore) uniqueCode(tx *gorm.DB, venueID int64) (string, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := codes.Generate()
		if err != nil {
			return "", err
		}
		var count int64
		err = tx.Model(&model.Reservation{}).
			Where("venue_id = ? AND redeem_code = ? AND status <> ?",
				venueID, code, model.ReservationExpired).
			Count(&count).Error
		if err != nil {
			return "", fmt.Errorf("check code collision: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("no unique redeem code after %d attempts", codeAttempts)
}

// isCodeCollision reports whether the error is the live-code unique
// index rejecting a reservation insert. Not every dialect translates
// duplicate keys to gorm.ErrDuplicatedKey, so the index and column
// names are matched as a fallback.
func isCodeCollision(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "idx_reservations_live_code") ||
		strings.Contains(msg, "reservations.redeem_code")
}

// recomputeBatch applies the retroactive-discount pass to the batch's
// open reservations, skipping skipID (the reservation that caused the
// pass). Returns the reservations whose price dropped.
func (s *gormStore) recomputeBatch(tx *gorm.DB, batch *model.Batch, ladder []model.BatchTier, skipID string) ([]model.Reservation, error) {
	var open []model.Reservation
	err := tx.Where("batch_id = ? AND status NOT IN ?", batch.ID,
		[]model.ReservationStatus{model.ReservationRedeemed, model.ReservationExpired}).
		Find(&open).Error
	if err != nil {
		return nil, fmt.Errorf("load open reservations for batch %s: %w", batch.ID, err)
	}

	var drops []model.Reservation
	for i := range open {
		if open[i].ID == skipID {
			continue
		}
		dropped, err := engine.RecomputeIfCheaper(&open[i], ladder, batch.LiveCount)
		if err != nil {
			return nil, err
		}
		if !dropped {
			continue
		}
		if err := tx.Model(&model.Reservation{}).Where("id = ?", open[i].ID).
			Update("final_price_cents", open[i].FinalPriceCents).Error; err != nil {
			return nil, fmt.Errorf("save price drop for reservation %s: %w", open[i].ID, err)
		}
		drops = append(drops, open[i])
	}
	return drops, nil
}

// fanOut applies a reservation transition to every reservation of the
// batch currently in from status.
func (s *gormStore) fanOut(tx *gorm.DB, batchID string, from model.ReservationStatus, transition func(*model.Reservation) error) ([]model.Reservation, error) {
	var matching []model.Reservation
	if err := tx.Where("batch_id = ? AND status = ?", batchID, from).Find(&matching).Error; err != nil {
		return nil, fmt.Errorf("load %s reservations for batch %s: %w", from, batchID, err)
	}
	var transitioned []model.Reservation
	for i := range matching {
		if err := transition(&matching[i]); err != nil {
			return nil, err
		}
		if err := tx.Model(&model.Reservation{}).Where("id = ?", matching[i].ID).
			Update("status", matching[i].Status).Error; err != nil {
			return nil, fmt.Errorf("save reservation %s: %w", matching[i].ID, err)
		}
		transitioned = append(transitioned, matching[i])
	}
	return transitioned, nil
}

// tierInfo resolves the joining-guest price and the next unlock for
// display.
func tierInfo(item *model.Item, ladder []model.BatchTier, liveCount int) TierInfo {
	info := TierInfo{WalkInCents: item.BasePriceCents}
	current, err := pricing.ResolveCurrentTier(ladder, liveCount)
	if err != nil {
		// A batch only exists for a catalog-validated item; an empty
		// ladder here means the catalog changed under us. Show walk-in.
		current = model.BatchTier{MinCount: 1, PriceCents: item.BasePriceCents}
	}
	info.Current = current
	// Next is relative to the joining guest's own count, matching the
	// threshold Current was resolved against.
	info.Next = pricing.ResolveNextTier(ladder, liveCount+1)
	info.SavingsCents = item.BasePriceCents - current.PriceCents
	return info
}
