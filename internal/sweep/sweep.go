// Package sweep runs the periodic lifecycle pass: expiring reservations
// whose validity window lapsed, locking batches whose prep time arrived,
// and completing batches that fully settled. It is the only timer in the
// system; everything else reacts to requests.
package sweep

import (
	"context"
	"log"
	"time"

	"sentra-batch-backend/config"
	"sentra-batch-backend/internal/event"
	"sentra-batch-backend/internal/notification"
	"sentra-batch-backend/internal/store"
)

// Service orchestrates the periodic sweep.
type Service struct {
	cfg        *config.Config
	store      store.Store
	workerPool *notification.WorkerPool
	events     event.Publisher
	now        func() time.Time
}

// NewService creates and initializes a new sweep service.
func NewService(cfg *config.Config, s store.Store, pool *notification.WorkerPool, events event.Publisher) *Service {
	if events == nil {
		events = event.Noop{}
	}
	return &Service{
		cfg:        cfg,
		store:      s,
		workerPool: pool,
		events:     events,
		now:        time.Now,
	}
}

// SetNow overrides the service clock, for tests.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// Run loops until the context is cancelled, sweeping once per interval.
// An immediate first pass catches anything that came due while the
// process was down.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Sweep.Enabled {
		log.Println("Sweep is disabled in configuration")
		return
	}
	log.Printf("Sweep starting with interval %s", s.cfg.Sweep.Interval)

	s.RunOnce(ctx)
	ticker := time.NewTicker(s.cfg.Sweep.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-ctx.Done():
			log.Println("Sweep shutting down")
			return
		}
	}
}

// RunOnce executes a single sweep pass. Each sub-pass isolates its own
// failures; one bad record never stops the rest.
func (s *Service) RunOnce(ctx context.Context) {
	now := s.now()

	expired, err := s.store.ExpireDue(ctx, now)
	if err != nil {
		log.Printf("Sweep: expire pass failed: %v", err)
	}
	for _, r := range expired {
		s.workerPool.Dispatch(notification.Notice{ReservationID: r.ID, Kind: notification.NoticeExpired})
	}
	if len(expired) > 0 {
		log.Printf("Sweep: expired %d reservations", len(expired))
	}

	locked, err := s.store.LockDueBatches(ctx, now)
	if err != nil {
		log.Printf("Sweep: batch lock pass failed: %v", err)
	}
	for _, result := range locked {
		for _, r := range result.PriceDrops {
			s.workerPool.Dispatch(notification.Notice{ReservationID: r.ID, Kind: notification.NoticePriceDrop})
		}
		if err := s.events.PublishBatchLocked(ctx, event.BatchLockedEvent{
			BatchID:    result.Batch.ID,
			VenueID:    result.Batch.VenueID,
			ItemID:     result.Batch.ItemID,
			LiveCount:  result.Batch.LiveCount,
			PriceDrops: len(result.PriceDrops),
			LockedAt:   now,
		}); err != nil {
			log.Printf("Sweep: publish batch.locked for %s: %v", result.Batch.ID, err)
		}
	}

	completed, err := s.store.CompleteSettledBatches(ctx, now)
	if err != nil {
		log.Printf("Sweep: completion pass failed: %v", err)
	}
	if len(completed) > 0 {
		log.Printf("Sweep: completed %d settled batches", len(completed))
	}
}
