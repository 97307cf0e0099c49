package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"sentra-batch-backend/internal/db"
	"sentra-batch-backend/internal/engine"
	"sentra-batch-backend/internal/model"
)

// newTestStore opens a per-test in-memory SQLite database with the full
// schema applied.
func newTestStore(t *testing.T) (Store, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	return NewGormStore(gormDB, Options{
		SlotWidth:      30 * time.Minute,
		PrepLead:       5 * time.Minute,
		ValidityWindow: 2 * time.Hour,
	}), gormDB
}

func testCatalog() *Catalog {
	return &Catalog{
		Venue: CatalogVenue{Slug: "sentra-downtown", Name: "Sentra Downtown"},
		Items: []CatalogItem{
			{
				Name:            "Bowl of the Day",
				BasePriceCents:  1000,
				LockFeeCents:    100,
				PrepTimeMinutes: 10,
				Tiers: []CatalogTier{
					{MinCount: 1, PriceCents: 900},
					{MinCount: 3, PriceCents: 800},
					{MinCount: 5, PriceCents: 700},
				},
			},
		},
	}
}

// seedCatalog writes the test catalog and returns the item ID.
func seedCatalog(t *testing.T, s Store) int64 {
	t.Helper()
	require.NoError(t, s.UpsertCatalog(context.Background(), testCatalog()))
	var item model.Item
	require.NoError(t, s.DB().First(&item, "name = ?", "Bowl of the Day").Error)
	return item.ID
}

func TestGormStore_UpsertCatalog(t *testing.T) {
	s, gormDB := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertCatalog(ctx, testCatalog()))

	var itemCount, tierCount int64
	require.NoError(t, gormDB.Model(&model.Item{}).Count(&itemCount).Error)
	require.NoError(t, gormDB.Model(&model.BatchTier{}).Count(&tierCount).Error)
	assert.Equal(t, int64(1), itemCount)
	assert.Equal(t, int64(3), tierCount)

	// A second upsert with a changed price updates in place rather than
	// duplicating rows.
	cat := testCatalog()
	cat.Items[0].BasePriceCents = 1100
	cat.Items[0].Tiers = cat.Items[0].Tiers[:2]
	require.NoError(t, s.UpsertCatalog(ctx, cat))

	require.NoError(t, gormDB.Model(&model.Item{}).Count(&itemCount).Error)
	require.NoError(t, gormDB.Model(&model.BatchTier{}).Count(&tierCount).Error)
	assert.Equal(t, int64(1), itemCount)
	assert.Equal(t, int64(2), tierCount, "ladder replaced wholesale")

	var item model.Item
	require.NoError(t, gormDB.First(&item, "name = ?", "Bowl of the Day").Error)
	assert.Equal(t, 1100, item.BasePriceCents)
}

func TestGormStore_FindOrCreateBatch(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	itemID := seedCatalog(t, s)
	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)

	batch, err := s.FindOrCreateBatch(ctx, itemID, now)
	require.NoError(t, err)
	assert.Equal(t, model.BatchBuilding, batch.Status)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), batch.StartsAt)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC), batch.EndsAt)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 25, 0, 0, time.UTC), batch.PrepAt)

	// A second call inside the same slot joins the existing batch.
	again, err := s.FindOrCreateBatch(ctx, itemID, now.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, batch.ID, again.ID)

	// The next slot gets a fresh batch.
	later, err := s.FindOrCreateBatch(ctx, itemID, now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.NotEqual(t, batch.ID, later.ID)
}

func TestGormStore_FindOrCreateBatch_UnknownItem(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.FindOrCreateBatch(context.Background(), 999, time.Now())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGormStore_Lock(t *testing.T) {
	s, gormDB := newTestStore(t)
	ctx := context.Background()
	itemID := seedCatalog(t, s)
	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)

	batch, err := s.FindOrCreateBatch(ctx, itemID, now)
	require.NoError(t, err)

	first, err := s.Lock(ctx, batch.ID, LockOptions{Vibe: "solo"}, now)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationActive, first.Reservation.Status)
	assert.Equal(t, 900, first.Reservation.LockedPriceCents)
	assert.Equal(t, 100, first.Reservation.LockFeeCents)
	assert.Equal(t, "solo", first.Reservation.Vibe)
	assert.Len(t, first.Reservation.RedeemCode, 6)
	assert.Equal(t, now.Add(2*time.Hour), first.Reservation.ExpiresAt)
	assert.Equal(t, 1, first.Batch.LiveCount)
	assert.Empty(t, first.PriceDrops)

	second, err := s.Lock(ctx, batch.ID, LockOptions{}, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 900, second.Reservation.LockedPriceCents)
	assert.Empty(t, second.PriceDrops)
	assert.NotEqual(t, first.Reservation.RedeemCode, second.Reservation.RedeemCode)

	// The third guest unlocks the 3-participant tier and the earlier
	// reservations are retroactively dropped to it.
	third, err := s.Lock(ctx, batch.ID, LockOptions{}, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 800, third.Reservation.LockedPriceCents)
	assert.Equal(t, 3, third.Batch.LiveCount)
	require.Len(t, third.PriceDrops, 2)

	var persisted model.Reservation
	require.NoError(t, gormDB.First(&persisted, "id = ?", first.Reservation.ID).Error)
	require.NotNil(t, persisted.FinalPriceCents)
	assert.Equal(t, 800, *persisted.FinalPriceCents)
	assert.Equal(t, 800, persisted.EffectivePriceCents())
	assert.Equal(t, 700, persisted.AmountDueCents(), "fee credited against the dropped price")
}

func TestGormStore_Lock_ClosedBatch(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	itemID := seedCatalog(t, s)
	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)

	batch, err := s.FindOrCreateBatch(ctx, itemID, now)
	require.NoError(t, err)

	// Past the prep cutoff no locks are accepted, and the guest is not
	// silently rolled into another batch.
	_, err = s.Lock(ctx, batch.ID, LockOptions{}, batch.PrepAt)
	assert.ErrorIs(t, err, engine.ErrBatchClosed)
}

func TestGormStore_Lock_FeeExceedsPrice(t *testing.T) {
	s, gormDB := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)

	// Seed directly so the catalog boot validation cannot reject the
	// misconfigured fee first.
	venue := model.Venue{Slug: "v", Name: "V"}
	require.NoError(t, gormDB.Create(&venue).Error)
	item := model.Item{VenueID: venue.ID, Name: "Overpriced Lock", BasePriceCents: 1000, LockFeeCents: 750}
	require.NoError(t, gormDB.Create(&item).Error)
	require.NoError(t, gormDB.Create(&[]model.BatchTier{
		{ItemID: item.ID, MinCount: 1, PriceCents: 900},
		{ItemID: item.ID, MinCount: 5, PriceCents: 700},
	}).Error)

	batch, err := s.FindOrCreateBatch(ctx, item.ID, now)
	require.NoError(t, err)

	_, err = s.Lock(ctx, batch.ID, LockOptions{}, now)
	assert.ErrorIs(t, err, engine.ErrFeeExceedsPrice)
}

func TestGormStore_Redeem(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	itemID := seedCatalog(t, s)
	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)

	batch, err := s.FindOrCreateBatch(ctx, itemID, now)
	require.NoError(t, err)
	lock, err := s.Lock(ctx, batch.ID, LockOptions{}, now)
	require.NoError(t, err)

	result, err := s.Redeem(ctx, lock.Reservation.RedeemCode, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.ReservationRedeemed, result.Reservation.Status)
	assert.Equal(t, 800, result.AmountDueCents)
	require.NotNil(t, result.Reservation.RedeemedAt)

	_, err = s.Redeem(ctx, lock.Reservation.RedeemCode, now.Add(time.Hour))
	assert.ErrorIs(t, err, engine.ErrAlreadyRedeemed)

	_, err = s.Redeem(ctx, "ZZZZZZ", now)
	assert.ErrorIs(t, err, engine.ErrCodeMismatch)
}

func TestGormStore_Redeem_PastValidityWindow(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	itemID := seedCatalog(t, s)
	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)

	batch, err := s.FindOrCreateBatch(ctx, itemID, now)
	require.NoError(t, err)
	lock, err := s.Lock(ctx, batch.ID, LockOptions{}, now)
	require.NoError(t, err)

	_, err = s.Redeem(ctx, lock.Reservation.RedeemCode, lock.Reservation.ExpiresAt)
	assert.ErrorIs(t, err, engine.ErrExpiredReservation)
}

// seedReservation inserts a reservation row directly, bypassing Lock's
// code allocation, to stage code-reuse scenarios.
func seedReservation(t *testing.T, gormDB *gorm.DB, batch *model.Batch, code string, status model.ReservationStatus, createdAt, expiresAt time.Time) model.Reservation {
	t.Helper()
	r := model.Reservation{
		ID:               uuid.NewString(),
		BatchID:          batch.ID,
		VenueID:          batch.VenueID,
		ItemID:           batch.ItemID,
		LockedPriceCents: 900,
		LockFeeCents:     100,
		RedeemCode:       code,
		Status:           status,
		ExpiresAt:        expiresAt,
		CreatedAt:        createdAt,
	}
	require.NoError(t, gormDB.Create(&r).Error)
	return r
}

func TestGormStore_Redeem_CodeReusedAfterExpiry(t *testing.T) {
	s, gormDB := newTestStore(t)
	ctx := context.Background()
	itemID := seedCatalog(t, s)
	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)

	batch, err := s.FindOrCreateBatch(ctx, itemID, now)
	require.NoError(t, err)

	// An earlier holder expired and released the code; a later guest
	// drew the same one.
	seedReservation(t, gormDB, batch, "WXYZ23", model.ReservationExpired, now.Add(-3*time.Hour), now.Add(-time.Hour))
	live := seedReservation(t, gormDB, batch, "WXYZ23", model.ReservationActive, now, now.Add(2*time.Hour))

	result, err := s.Redeem(ctx, "WXYZ23", now)
	require.NoError(t, err)
	assert.Equal(t, live.ID, result.Reservation.ID, "the live holder wins, not the stale expired row")
	assert.Equal(t, model.ReservationRedeemed, result.Reservation.Status)
	assert.Equal(t, 800, result.AmountDueCents)
}

func TestGormStore_Redeem_ExpiredHolderOnly(t *testing.T) {
	s, gormDB := newTestStore(t)
	ctx := context.Background()
	itemID := seedCatalog(t, s)
	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)

	batch, err := s.FindOrCreateBatch(ctx, itemID, now)
	require.NoError(t, err)
	seedReservation(t, gormDB, batch, "WXYZ23", model.ReservationExpired, now.Add(-3*time.Hour), now.Add(-time.Hour))

	// A code whose only holder expired reports the expiry, not an
	// unknown code.
	_, err = s.Redeem(ctx, "WXYZ23", now)
	assert.ErrorIs(t, err, engine.ErrExpiredReservation)
}

func TestGormStore_LiveCodeUniquePerVenue(t *testing.T) {
	s, gormDB := newTestStore(t)
	ctx := context.Background()
	itemID := seedCatalog(t, s)
	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)

	batch, err := s.FindOrCreateBatch(ctx, itemID, now)
	require.NoError(t, err)
	first := seedReservation(t, gormDB, batch, "WXYZ23", model.ReservationActive, now, now.Add(2*time.Hour))

	// A second live holder of the same code is rejected by the partial
	// unique index; this is the failure Lock retries on when two
	// batches of the venue race past the read check.
	dup := model.Reservation{
		ID:               uuid.NewString(),
		BatchID:          batch.ID,
		VenueID:          batch.VenueID,
		ItemID:           batch.ItemID,
		LockedPriceCents: 900,
		LockFeeCents:     100,
		RedeemCode:       "WXYZ23",
		Status:           model.ReservationActive,
		ExpiresAt:        now.Add(2 * time.Hour),
	}
	err = gormDB.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, isCodeCollision(err))

	// Expiring the holder releases the code.
	require.NoError(t, gormDB.Model(&model.Reservation{}).
		Where("id = ?", first.ID).
		Update("status", model.ReservationExpired).Error)
	require.NoError(t, gormDB.Create(&dup).Error)
}

func TestGormStore_AdvanceBatch(t *testing.T) {
	s, gormDB := newTestStore(t)
	ctx := context.Background()
	itemID := seedCatalog(t, s)
	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)

	batch, err := s.FindOrCreateBatch(ctx, itemID, now)
	require.NoError(t, err)
	lock, err := s.Lock(ctx, batch.ID, LockOptions{}, now)
	require.NoError(t, err)

	// Skipping a stage is rejected.
	_, err = s.AdvanceBatch(ctx, batch.ID, model.BatchPrepping, batch.PrepAt)
	assert.ErrorIs(t, err, engine.ErrInvalidBatchTransition)

	// Locking before prep time is rejected.
	_, err = s.AdvanceBatch(ctx, batch.ID, model.BatchLocked, now)
	assert.ErrorIs(t, err, engine.ErrInvalidBatchTransition)

	locked, err := s.AdvanceBatch(ctx, batch.ID, model.BatchLocked, batch.PrepAt)
	require.NoError(t, err)
	assert.True(t, locked.Changed)
	assert.Equal(t, model.BatchLocked, locked.Batch.Status)

	// Re-applying the current stage is an idempotent no-op.
	noop, err := s.AdvanceBatch(ctx, batch.ID, model.BatchLocked, batch.PrepAt)
	require.NoError(t, err)
	assert.False(t, noop.Changed)

	prepping, err := s.AdvanceBatch(ctx, batch.ID, model.BatchPrepping, batch.PrepAt)
	require.NoError(t, err)
	require.Len(t, prepping.Transitions, 1)
	assert.Equal(t, model.ReservationPrepTriggered, prepping.Transitions[0].Status)

	ready, err := s.AdvanceBatch(ctx, batch.ID, model.BatchReady, batch.PrepAt)
	require.NoError(t, err)
	require.Len(t, ready.Transitions, 1)
	assert.Equal(t, model.ReservationReady, ready.Transitions[0].Status)

	var persisted model.Reservation
	require.NoError(t, gormDB.First(&persisted, "id = ?", lock.Reservation.ID).Error)
	assert.Equal(t, model.ReservationReady, persisted.Status)
}

func TestGormStore_TriggerPrepAndSetGuestETA(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	itemID := seedCatalog(t, s)
	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)

	batch, err := s.FindOrCreateBatch(ctx, itemID, now)
	require.NoError(t, err)

	first, err := s.Lock(ctx, batch.ID, LockOptions{}, now)
	require.NoError(t, err)
	second, err := s.Lock(ctx, batch.ID, LockOptions{}, now)
	require.NoError(t, err)

	// A distant ETA records only.
	r, triggered, err := s.SetGuestETA(ctx, first.Reservation.ID, 25, 5)
	require.NoError(t, err)
	assert.False(t, triggered)
	assert.Equal(t, model.ReservationActive, r.Status)
	require.NotNil(t, r.GuestETAMinutes)
	assert.Equal(t, 25, *r.GuestETAMinutes)

	// An ETA inside the threshold pulls the reservation into prep.
	r, triggered, err = s.SetGuestETA(ctx, first.Reservation.ID, 3, 5)
	require.NoError(t, err)
	assert.True(t, triggered)
	assert.Equal(t, model.ReservationPrepTriggered, r.Status)

	// Already in prep: the new ETA is recorded without re-triggering.
	r, triggered, err = s.SetGuestETA(ctx, first.Reservation.ID, 1, 5)
	require.NoError(t, err)
	assert.False(t, triggered)
	assert.Equal(t, model.ReservationPrepTriggered, r.Status)

	// Manual operator prep trigger on the second reservation.
	r2, err := s.TriggerPrep(ctx, second.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPrepTriggered, r2.Status)

	_, err = s.TriggerPrep(ctx, second.Reservation.ID)
	assert.ErrorIs(t, err, engine.ErrInvalidTransition)
}

func TestGormStore_ExpireDue(t *testing.T) {
	s, gormDB := newTestStore(t)
	ctx := context.Background()
	itemID := seedCatalog(t, s)
	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)

	batch, err := s.FindOrCreateBatch(ctx, itemID, now)
	require.NoError(t, err)

	due, err := s.Lock(ctx, batch.ID, LockOptions{}, now)
	require.NoError(t, err)
	fresh, err := s.Lock(ctx, batch.ID, LockOptions{}, now)
	require.NoError(t, err)
	settled, err := s.Lock(ctx, batch.ID, LockOptions{}, now)
	require.NoError(t, err)
	_, err = s.Redeem(ctx, settled.Reservation.RedeemCode, now)
	require.NoError(t, err)

	// Pull one reservation's expiry into the past.
	require.NoError(t, gormDB.Model(&model.Reservation{}).
		Where("id = ?", due.Reservation.ID).
		Update("expires_at", now.Add(-time.Minute)).Error)

	expired, err := s.ExpireDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, due.Reservation.ID, expired[0].ID)
	assert.Equal(t, model.ReservationExpired, expired[0].Status)

	// The redeemed and still-valid reservations are untouched.
	var check model.Reservation
	require.NoError(t, gormDB.First(&check, "id = ?", fresh.Reservation.ID).Error)
	assert.Equal(t, model.ReservationActive, check.Status)
	check = model.Reservation{}
	require.NoError(t, gormDB.First(&check, "id = ?", settled.Reservation.ID).Error)
	assert.Equal(t, model.ReservationRedeemed, check.Status)

	// A second sweep finds nothing new.
	expired, err = s.ExpireDue(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestGormStore_LockDueBatches(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	itemID := seedCatalog(t, s)
	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)

	batch, err := s.FindOrCreateBatch(ctx, itemID, now)
	require.NoError(t, err)
	_, err = s.Lock(ctx, batch.ID, LockOptions{}, now)
	require.NoError(t, err)

	// Before prep time the sweep leaves the batch alone.
	results, err := s.LockDueBatches(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = s.LockDueBatches(ctx, batch.PrepAt)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, batch.ID, results[0].Batch.ID)
	assert.Equal(t, model.BatchLocked, results[0].Batch.Status)
}

func TestGormStore_CompleteSettledBatches(t *testing.T) {
	s, gormDB := newTestStore(t)
	ctx := context.Background()
	itemID := seedCatalog(t, s)
	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)

	batch, err := s.FindOrCreateBatch(ctx, itemID, now)
	require.NoError(t, err)
	lock, err := s.Lock(ctx, batch.ID, LockOptions{}, now)
	require.NoError(t, err)

	_, err = s.AdvanceBatch(ctx, batch.ID, model.BatchLocked, batch.PrepAt)
	require.NoError(t, err)
	_, err = s.AdvanceBatch(ctx, batch.ID, model.BatchPrepping, batch.PrepAt)
	require.NoError(t, err)
	_, err = s.AdvanceBatch(ctx, batch.ID, model.BatchReady, batch.PrepAt)
	require.NoError(t, err)

	// An unsettled reservation keeps the batch open.
	completed, err := s.CompleteSettledBatches(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, completed)

	_, err = s.Redeem(ctx, lock.Reservation.RedeemCode, now.Add(time.Hour))
	require.NoError(t, err)

	completed, err = s.CompleteSettledBatches(ctx, now)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, model.BatchComplete, completed[0].Status)

	var persisted model.Batch
	require.NoError(t, gormDB.First(&persisted, "id = ?", batch.ID).Error)
	assert.Equal(t, model.BatchComplete, persisted.Status)
}

func TestGormStore_Views(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	itemID := seedCatalog(t, s)
	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)

	batch, err := s.FindOrCreateBatch(ctx, itemID, now)
	require.NoError(t, err)
	_, err = s.Lock(ctx, batch.ID, LockOptions{GuestETAMinutes: intPtr(3)}, now)
	require.NoError(t, err)
	_, err = s.Lock(ctx, batch.ID, LockOptions{}, now)
	require.NoError(t, err)

	view, err := s.BatchView(ctx, batch.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Batch.LiveCount)
	assert.Equal(t, 800, view.Tier.Current.PriceCents, "joining guest would unlock the next tier")
	assert.Equal(t, 1000, view.Tier.WalkInCents)
	assert.Equal(t, 200, view.Tier.SavingsCents)
	require.NotNil(t, view.Tier.Next)
	assert.Equal(t, 5, view.Tier.Next.MinCount)

	venueID := view.Batch.VenueID
	views, err := s.VenueBatches(ctx, venueID, now)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, batch.ID, views[0].Batch.ID)

	op, err := s.OperatorView(ctx, venueID, 5, now)
	require.NoError(t, err)
	require.Len(t, op.Batches, 1)
	assert.Equal(t, 2, op.Stats.TotalLocks)
	assert.Equal(t, 2, op.Stats.ActiveCount)
	require.Len(t, op.Urgent, 1, "only the guest with a close ETA is urgent")
	require.NotNil(t, op.Urgent[0].GuestETAMinutes)
	assert.Equal(t, 3, *op.Urgent[0].GuestETAMinutes)
}

func TestGormStore_Lock_EfficiencyMode(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	cat := &Catalog{
		Venue: CatalogVenue{Slug: "sentra-downtown", Name: "Sentra Downtown"},
		Items: []CatalogItem{{
			Name:             "Family Platter",
			BasePriceCents:   1000,
			LockFeeCents:     100,
			PrepTimeMinutes:  15,
			PricingMode:      "efficiency",
			MaxDiscountCents: 300,
			PeakCount:        4,
			LadderSteps:      2,
		}},
	}
	require.NoError(t, s.UpsertCatalog(ctx, cat))
	var item model.Item
	require.NoError(t, s.DB().First(&item, "name = ?", "Family Platter").Error)
	assert.Equal(t, model.PricingEfficiency, item.PricingMode)

	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)
	batch, err := s.FindOrCreateBatch(ctx, item.ID, now)
	require.NoError(t, err)

	// The generated ladder is 1:1000, 2:850, 4:700.
	first, err := s.Lock(ctx, batch.ID, LockOptions{}, now)
	require.NoError(t, err)
	assert.Equal(t, 1000, first.Reservation.LockedPriceCents)

	second, err := s.Lock(ctx, batch.ID, LockOptions{}, now)
	require.NoError(t, err)
	assert.Equal(t, 850, second.Reservation.LockedPriceCents)
	require.Len(t, second.PriceDrops, 1, "the first guest rides the unlocked rung down")
	require.NotNil(t, second.PriceDrops[0].FinalPriceCents)
	assert.Equal(t, 850, *second.PriceDrops[0].FinalPriceCents)
}

func TestGormStore_Lock_RushMode(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	cat := &Catalog{
		Venue: CatalogVenue{Slug: "sentra-downtown", Name: "Sentra Downtown"},
		Items: []CatalogItem{{
			Name:            "Friday Special",
			BasePriceCents:  1000,
			LockFeeCents:    100,
			PrepTimeMinutes: 15,
			PricingMode:     "rush",
			PeakPriceCents:  1600,
		}},
	}
	require.NoError(t, s.UpsertCatalog(ctx, cat))
	var item model.Item
	require.NoError(t, s.DB().First(&item, "name = ?", "Friday Special").Error)

	// The batch window runs 12:00 to the 12:25 prep cutoff; the price
	// climbs from 1000 toward 1600 across it.
	now := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)
	batch, err := s.FindOrCreateBatch(ctx, item.ID, now)
	require.NoError(t, err)

	early, err := s.Lock(ctx, batch.ID, LockOptions{}, now)
	require.NoError(t, err)
	assert.Equal(t, 1240, early.Reservation.LockedPriceCents, "10 of 25 minutes elapsed")

	late, err := s.Lock(ctx, batch.ID, LockOptions{}, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1480, late.Reservation.LockedPriceCents, "20 of 25 minutes elapsed")
	assert.Empty(t, late.PriceDrops, "a climbing price never lowers an earlier lock")

	// The early lock keeps its price through redemption.
	result, err := s.Redeem(ctx, early.Reservation.RedeemCode, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1140, result.AmountDueCents)
}

func intPtr(v int) *int { return &v }
