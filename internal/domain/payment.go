package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// PaymentTransaction records one payment attempt against the provider.
// "succeeded" and "refunded" are terminal and immutable once reached.
type PaymentTransaction struct {
	ID                    uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID                 uuid.UUID  `gorm:"column:org_id;type:uuid;not null;index:idx_payment_idem,unique,priority:1;index" json:"org_id"`
	ReservationID         uuid.UUID  `gorm:"column:reservation_id;type:uuid;not null;index" json:"reservation_id"`
	UserID                uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	ProviderKey           string     `gorm:"column:provider_key;type:varchar(30);not null" json:"provider_key"`
	ProviderTransactionID *string    `gorm:"column:provider_transaction_id;uniqueIndex" json:"provider_transaction_id"`
	IdempotencyKey        string     `gorm:"column:idempotency_key;not null;index:idx_payment_idem,unique,priority:2" json:"idempotency_key"`
	AmountCents           int64      `gorm:"column:amount_cents;not null" json:"amount_cents"`
	Currency              string     `gorm:"column:currency;type:varchar(8);not null;default:usd" json:"currency"`
	Status                string     `gorm:"column:status;type:varchar(20);not null;default:initiated" json:"status"`
	FailureCode           *string    `gorm:"column:failure_code" json:"failure_code"`
	Version               int        `gorm:"column:version;not null;default:1" json:"version"`
	SettledAt             *time.Time `gorm:"column:settled_at" json:"settled_at"`
	RefundedAt            *time.Time `gorm:"column:refunded_at" json:"refunded_at"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

func (PaymentTransaction) TableName() string {
	return "PaymentTransactions"
}

func (p *PaymentTransaction) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsTerminal reports whether no further webhook may mutate the transaction.
func (p *PaymentTransaction) IsTerminal() bool {
	return p.Status == PaymentStatusSucceeded || p.Status == PaymentStatusRefunded
}

// PaymentEvent stores every accepted provider webhook payload, deduplicated
// by provider event id so replayed deliveries are acknowledged without
// reprocessing.
type PaymentEvent struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProviderEventID string         `gorm:"column:provider_event_id;uniqueIndex;not null" json:"provider_event_id"`
	TransactionID   *uuid.UUID     `gorm:"column:transaction_id;type:uuid;index" json:"transaction_id"`
	EventType       string         `gorm:"column:event_type;not null" json:"event_type"`
	Payload         datatypes.JSON `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func (PaymentEvent) TableName() string {
	return "PaymentEvents"
}

func (e *PaymentEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
