package availability

import (
	"context"
	"time"

	"clubhub-backend/internal/clock"
	"clubhub-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service computes, for a time window, whether each active resource unit of
// an organization is free. Expiry of stale holds happens lazily here (and in
// the hold manager) rather than via a background sweeper.
type Service struct {
	DB    *gorm.DB
	Clock clock.Clock
}

// UnitAvailability is the per-unit verdict for a requested window.
type UnitAvailability struct {
	ResourceUnitID uuid.UUID `json:"resource_unit_id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	Kind           string    `json:"kind"`
	Available      bool      `json:"available"`
	BlockingReason string    `json:"blocking_reason,omitempty"`
}

// Check scans the org's active units against blocking reservations and
// unexpired holds overlapping [startsAt, endsAt). Reservations take
// precedence over holds when reporting the blocking reason.
func (s *Service) Check(ctx context.Context, orgID uuid.UUID, startsAt, endsAt time.Time, kind string) ([]UnitAvailability, error) {
	if !endsAt.After(startsAt) {
		return nil, domain.NewValidation("endsAt must be after startsAt")
	}
	if kind != "" && !domain.IsValidResourceKind(kind) {
		return nil, domain.NewValidation("Invalid resource kind")
	}

	now := s.Clock.Now()

	var results []UnitAvailability
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ExpireStaleHolds(tx, orgID, now); err != nil {
			return err
		}

		q := tx.Where("org_id = ? AND status = ?", orgID, domain.ResourceStatusActive)
		if kind != "" {
			q = q.Where("kind = ?", kind)
		}
		var units []domain.ResourceUnit
		if err := q.Order("code asc").Find(&units).Error; err != nil {
			return err
		}
		if len(units) == 0 {
			results = []UnitAvailability{}
			return nil
		}

		unitIDs := make([]uuid.UUID, 0, len(units))
		for _, u := range units {
			unitIDs = append(unitIDs, u.ID)
		}

		var reservations []domain.Reservation
		if err := tx.
			Where("org_id = ? AND resource_unit_id IN ?", orgID, unitIDs).
			Where("status IN ?", []string{domain.ReservationStatusPaymentPending, domain.ReservationStatusConfirmed}).
			Where("starts_at < ? AND ends_at > ?", endsAt, startsAt).
			Find(&reservations).Error; err != nil {
			return err
		}

		var holds []domain.ReservationHold
		if err := tx.
			Where("org_id = ? AND resource_unit_id IN ? AND status = ?", orgID, unitIDs, domain.HoldStatusHeld).
			Where("expires_at > ?", now).
			Where("starts_at < ? AND ends_at > ?", endsAt, startsAt).
			Find(&holds).Error; err != nil {
			return err
		}

		blockedByReservation := make(map[uuid.UUID]bool, len(reservations))
		for _, r := range reservations {
			blockedByReservation[r.ResourceUnitID] = true
		}
		blockedByHold := make(map[uuid.UUID]bool, len(holds))
		for _, h := range holds {
			blockedByHold[h.ResourceUnitID] = true
		}

		results = make([]UnitAvailability, 0, len(units))
		for _, u := range units {
			ua := UnitAvailability{
				ResourceUnitID: u.ID,
				Code:           u.Code,
				Name:           u.Name,
				Kind:           u.Kind,
				Available:      true,
			}
			switch {
			case blockedByReservation[u.ID]:
				ua.Available = false
				ua.BlockingReason = domain.BlockingReasonConfirmedReservation
			case blockedByHold[u.ID]:
				ua.Available = false
				ua.BlockingReason = domain.BlockingReasonActiveHold
			}
			results = append(results, ua)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ExpireStaleHolds promotes every "held" hold whose TTL has elapsed to
// "expired". Called inside the same transaction as any availability or
// conflict scan so expiry is always evaluated on read.
func ExpireStaleHolds(tx *gorm.DB, orgID uuid.UUID, now time.Time) error {
	return tx.Model(&domain.ReservationHold{}).
		Where("org_id = ? AND status = ? AND expires_at <= ?", orgID, domain.HoldStatusHeld, now).
		Update("status", domain.HoldStatusExpired).Error
}

// BlockingReasonFor reports the blocking reason for one unit/window, or ""
// when the window is free. Used by the hold manager's conflict re-check.
func BlockingReasonFor(tx *gorm.DB, orgID, unitID uuid.UUID, startsAt, endsAt, now time.Time) (string, error) {
	var reservationCount int64
	if err := tx.Model(&domain.Reservation{}).
		Where("org_id = ? AND resource_unit_id = ?", orgID, unitID).
		Where("status IN ?", []string{domain.ReservationStatusPaymentPending, domain.ReservationStatusConfirmed}).
		Where("starts_at < ? AND ends_at > ?", endsAt, startsAt).
		Count(&reservationCount).Error; err != nil {
		return "", err
	}
	if reservationCount > 0 {
		return domain.BlockingReasonConfirmedReservation, nil
	}

	var holdCount int64
	if err := tx.Model(&domain.ReservationHold{}).
		Where("org_id = ? AND resource_unit_id = ? AND status = ?", orgID, unitID, domain.HoldStatusHeld).
		Where("expires_at > ?", now).
		Where("starts_at < ? AND ends_at > ?", endsAt, startsAt).
		Count(&holdCount).Error; err != nil {
		return "", err
	}
	if holdCount > 0 {
		return domain.BlockingReasonActiveHold, nil
	}
	return "", nil
}
