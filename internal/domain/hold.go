package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	HoldStatusHeld     = "held"
	HoldStatusReleased = "released"
	HoldStatusExpired  = "expired"
	HoldStatusConsumed = "consumed"
)

// ReservationHold is a short-lived exclusive claim on a resource/time-window
// pair. A hold is immutable after leaving "held": it transitions exactly once
// to consumed (by reservation creation), released (by its owner or a
// management actor) or expired (lazily, once ExpiresAt has passed).
type ReservationHold struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID          uuid.UUID `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	ResourceUnitID uuid.UUID `gorm:"column:resource_unit_id;type:uuid;not null;index" json:"resource_unit_id"`
	StartsAt       time.Time `gorm:"column:starts_at;not null" json:"starts_at"`
	EndsAt         time.Time `gorm:"column:ends_at;not null" json:"ends_at"`
	Status         string    `gorm:"column:status;type:varchar(20);not null;default:held" json:"status"`
	ExpiresAt      time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (ReservationHold) TableName() string {
	return "ReservationHolds"
}

func (h *ReservationHold) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// IsExpired reports whether the hold's TTL has elapsed at now. Only holds
// still in "held" expire; terminal statuses stay as they are.
func (h *ReservationHold) IsExpired(now time.Time) bool {
	return h.Status == HoldStatusHeld && !h.ExpiresAt.After(now)
}

// Blocks reports whether the hold blocks the half-open window [startsAt, endsAt)
// at now.
func (h *ReservationHold) Blocks(startsAt, endsAt, now time.Time) bool {
	if h.Status != HoldStatusHeld || h.IsExpired(now) {
		return false
	}
	return Overlaps(h.StartsAt, h.EndsAt, startsAt, endsAt)
}

// Overlaps is the half-open interval overlap test: [aStart,aEnd) ∩ [bStart,bEnd) ≠ ∅.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
