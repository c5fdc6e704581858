package payments

import (
	"context"

	"github.com/google/uuid"
)

// ChargeInput is the provider-facing view of a payment initiation.
type ChargeInput struct {
	TransactionID uuid.UUID
	AmountCents   int64
	Currency      string
	Metadata      map[string]string
}

// ChargeResult is the provider's synchronous answer. Succeeded=false with a
// FailureCode is a decline; a transport error from the provider is returned
// as an error instead and settles the transaction as failed.
type ChargeResult struct {
	ProviderTransactionID string
	Succeeded             bool
	FailureCode           string
}

// Provider is the pluggable payment provider port.
type Provider interface {
	Key() string
	InitiatePayment(ctx context.Context, in ChargeInput) (*ChargeResult, error)
	InitiateRefund(ctx context.Context, providerTransactionID string, amountCents int64) error
}
