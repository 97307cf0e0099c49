// Package aggregate computes read-only operator projections over batches
// and reservations. Everything here is a pure function of its input so a
// dashboard poll recomputes identical results from the same snapshot.
package aggregate

import (
	"sort"

	"sentra-batch-backend/internal/model"
)

// DailyStats summarizes a venue's day for the operator dashboard.
// RevenueCents counts redeemed reservations only: the effective price
// minus the lock-fee credit already collected.
type DailyStats struct {
	TotalLocks    int `json:"total_locks"`
	ActiveCount   int `json:"active_count"`
	RedeemedCount int `json:"redeemed_count"`
	RevenueCents  int `json:"revenue_cents"`
}

// ComputeDailyStats folds a reservation snapshot into DailyStats.
func ComputeDailyStats(reservations []model.Reservation) DailyStats {
	var stats DailyStats
	for i := range reservations {
		r := &reservations[i]
		stats.TotalLocks++
		switch r.Status {
		case model.ReservationActive, model.ReservationPrepTriggered, model.ReservationReady:
			stats.ActiveCount++
		case model.ReservationRedeemed:
			stats.RedeemedCount++
			stats.RevenueCents += r.AmountDueCents()
		}
	}
	return stats
}

// UrgentPrepList picks the reservations the kitchen should start next:
// everything already prep-triggered, plus active guests whose reported
// ETA is inside the threshold. Sorted by ETA ascending; a missing ETA
// sorts first (the guest is assumed nearby), ties broken by lock time so
// the earlier lock wins priority.
func UrgentPrepList(reservations []model.Reservation, etaThresholdMinutes int) []model.Reservation {
	urgent := make([]model.Reservation, 0)
	for i := range reservations {
		r := reservations[i]
		switch r.Status {
		case model.ReservationPrepTriggered:
			urgent = append(urgent, r)
		case model.ReservationActive:
			if r.GuestETAMinutes != nil && *r.GuestETAMinutes <= etaThresholdMinutes {
				urgent = append(urgent, r)
			}
		}
	}
	sort.SliceStable(urgent, func(i, j int) bool {
		ei, ej := etaOrZero(&urgent[i]), etaOrZero(&urgent[j])
		if ei != ej {
			return ei < ej
		}
		return urgent[i].CreatedAt.Before(urgent[j].CreatedAt)
	})
	return urgent
}

func etaOrZero(r *model.Reservation) int {
	if r.GuestETAMinutes == nil {
		return 0
	}
	return *r.GuestETAMinutes
}
