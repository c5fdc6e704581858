package payments

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProvider settles charges through Stripe PaymentIntents, confirmed on
// creation so the result is synchronous. Asynchronous payment methods still
// reconcile later through the webhook path.
type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api}
}

func (s *StripeProvider) Key() string {
	return "stripe"
}

func (s *StripeProvider) InitiatePayment(ctx context.Context, in ChargeInput) (*ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.AmountCents),
		Currency: stripe.String(in.Currency),
		Confirm:  stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String(string(stripe.PaymentIntentAutomaticPaymentMethodsAllowRedirectsNever)),
		},
	}
	params.Context = ctx
	if pm, ok := in.Metadata["payment_method"]; ok && pm != "" {
		params.PaymentMethod = stripe.String(pm)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	params.AddMetadata("transaction_id", in.TransactionID.String())

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, err
	}

	result := &ChargeResult{ProviderTransactionID: pi.ID}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		result.Succeeded = true
	default:
		result.Succeeded = false
		result.FailureCode = string(pi.Status)
		if pi.LastPaymentError != nil && pi.LastPaymentError.DeclineCode != "" {
			result.FailureCode = string(pi.LastPaymentError.DeclineCode)
		}
	}
	return result, nil
}

func (s *StripeProvider) InitiateRefund(ctx context.Context, providerTransactionID string, amountCents int64) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(providerTransactionID),
		Amount:        stripe.Int64(amountCents),
	}
	params.Context = ctx
	_, err := s.api.Refunds.New(params)
	return err
}
