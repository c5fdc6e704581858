package payments

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// FakeProvider settles every charge synchronously. Declines and failures can
// be scripted, and call counts are tracked, so it doubles as the test
// provider and the local-development one.
type FakeProvider struct {
	mu sync.Mutex

	// DeclineNext makes the next InitiatePayment decline with DeclineCode.
	DeclineNext bool
	DeclineCode string
	// FailRefund makes InitiateRefund return an error.
	FailRefund bool

	InitiateCalls int
	RefundCalls   int
}

func (f *FakeProvider) Key() string {
	return "fake"
}

func (f *FakeProvider) InitiatePayment(ctx context.Context, in ChargeInput) (*ChargeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InitiateCalls++

	if f.DeclineNext {
		f.DeclineNext = false
		code := f.DeclineCode
		if code == "" {
			code = "card_declined"
		}
		return &ChargeResult{
			ProviderTransactionID: "fake_" + uuid.New().String(),
			Succeeded:             false,
			FailureCode:           code,
		}, nil
	}

	return &ChargeResult{
		ProviderTransactionID: "fake_" + uuid.New().String(),
		Succeeded:             true,
	}, nil
}

func (f *FakeProvider) InitiateRefund(ctx context.Context, providerTransactionID string, amountCents int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RefundCalls++
	if f.FailRefund {
		return errProviderRefused
	}
	return nil
}

var errProviderRefused = &providerError{"provider refused refund"}

type providerError struct{ msg string }

func (e *providerError) Error() string { return e.msg }
