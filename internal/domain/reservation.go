package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReservationStatusPaymentPending = "payment_pending"
	ReservationStatusConfirmed      = "confirmed"
	ReservationStatusPaymentFailed  = "payment_failed"
	ReservationStatusCanceled       = "canceled"
)

const (
	ReservationSourceMemberSelfService = "member_self_service"
	ReservationSourceAdminOverride     = "admin_override"
)

// Availability blocking reasons reported to clients.
const (
	BlockingReasonActiveHold           = "active_hold"
	BlockingReasonConfirmedReservation = "confirmed_reservation"
)

// Reservation is a committed claim on a resource window. For a fixed resource
// unit no two reservations with overlapping windows may simultaneously be in
// a blocking status (payment_pending, confirmed); this is enforced by
// construction, because a reservation is only created by consuming a verified
// hold (or by an explicit admin override).
type Reservation struct {
	ID                   uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID                uuid.UUID  `gorm:"column:org_id;type:uuid;not null;index:idx_reservation_idem,unique,priority:1;index" json:"org_id"`
	UserID               uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	ResourceUnitID       uuid.UUID  `gorm:"column:resource_unit_id;type:uuid;not null;index" json:"resource_unit_id"`
	HoldID               *uuid.UUID `gorm:"column:hold_id;type:uuid" json:"hold_id"`
	StartsAt             time.Time  `gorm:"column:starts_at;not null" json:"starts_at"`
	EndsAt               time.Time  `gorm:"column:ends_at;not null" json:"ends_at"`
	Status               string     `gorm:"column:status;type:varchar(20);not null;default:payment_pending" json:"status"`
	AmountCents          int64      `gorm:"column:amount_cents;not null" json:"amount_cents"`
	Currency             string     `gorm:"column:currency;type:varchar(8);not null;default:usd" json:"currency"`
	PaymentTransactionID *uuid.UUID `gorm:"column:payment_transaction_id;type:uuid" json:"payment_transaction_id"`
	Source               string     `gorm:"column:source;type:varchar(30);not null;default:member_self_service" json:"source"`
	IdempotencyKey       *string    `gorm:"column:idempotency_key;index:idx_reservation_idem,unique,priority:2" json:"idempotency_key,omitempty"`
	Version              int        `gorm:"column:version;not null;default:1" json:"version"`
	ConfirmedAt          *time.Time `gorm:"column:confirmed_at" json:"confirmed_at"`
	CanceledAt           *time.Time `gorm:"column:canceled_at" json:"canceled_at"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

func (Reservation) TableName() string {
	return "Reservations"
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsBlocking reports whether the reservation occupies its window for
// availability purposes.
func (r *Reservation) IsBlocking() bool {
	return r.Status == ReservationStatusPaymentPending || r.Status == ReservationStatusConfirmed
}

// Blocks reports whether the reservation blocks the half-open window
// [startsAt, endsAt).
func (r *Reservation) Blocks(startsAt, endsAt time.Time) bool {
	return r.IsBlocking() && Overlaps(r.StartsAt, r.EndsAt, startsAt, endsAt)
}
