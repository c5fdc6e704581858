package payments

import (
	"context"
	"encoding/json"
	"errors"

	"clubhub-backend/internal/clock"
	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service owns payment transactions: idempotent initiation, webhook-driven
// settlement and refunds against the pluggable Provider port.
type Service struct {
	DB       *gorm.DB
	Clock    clock.Clock
	Provider Provider
}

type InitiatePaymentInput struct {
	OrgID          uuid.UUID
	ReservationID  uuid.UUID
	UserID         uuid.UUID
	AmountCents    int64
	Currency       string
	IdempotencyKey string
}

// InitiatePayment creates a transaction and settles it against the provider's
// synchronous result. Replaying the same idempotency key with identical
// (reservation, user, amount) returns the existing transaction without
// touching the provider again; differing parameters are a hard conflict.
func (s *Service) InitiatePayment(ctx context.Context, in InitiatePaymentInput) (*domain.PaymentTransaction, error) {
	if in.IdempotencyKey == "" {
		return nil, domain.NewValidation("idempotencyKey is required")
	}
	if in.AmountCents <= 0 {
		return nil, domain.NewValidation("amount must be positive")
	}

	var txn domain.PaymentTransaction
	created := false

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.PaymentTransaction
		err := tx.Where("org_id = ? AND idempotency_key = ?", in.OrgID, in.IdempotencyKey).First(&existing).Error
		if err == nil {
			if existing.ReservationID != in.ReservationID || existing.UserID != in.UserID || existing.AmountCents != in.AmountCents {
				return domain.NewIdempotencyConflict("Idempotency key was already used for a different request")
			}
			txn = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		txn = domain.PaymentTransaction{
			OrgID:          in.OrgID,
			ReservationID:  in.ReservationID,
			UserID:         in.UserID,
			ProviderKey:    s.Provider.Key(),
			IdempotencyKey: in.IdempotencyKey,
			AmountCents:    in.AmountCents,
			Currency:       in.Currency,
			Status:         domain.PaymentStatusInitiated,
			Version:        1,
		}
		created = true
		return tx.Create(&txn).Error
	})
	if err != nil {
		return nil, err
	}
	if !created {
		return &txn, nil
	}

	// The provider call happens outside the transaction: a charge is not
	// something to hold a DB transaction across. The unique idempotency
	// index guarantees the initiated row (and therefore the provider call)
	// exists at most once per key.
	result, provErr := s.Provider.InitiatePayment(ctx, ChargeInput{
		TransactionID: txn.ID,
		AmountCents:   in.AmountCents,
		Currency:      in.Currency,
		Metadata: map[string]string{
			"reservation_id": in.ReservationID.String(),
			"org_id":         in.OrgID.String(),
		},
	})

	now := s.Clock.Now()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", txn.ID).First(&txn).Error; err != nil {
			return err
		}
		if txn.Status != domain.PaymentStatusInitiated {
			// A webhook settled it first; keep that outcome.
			return nil
		}
		if provErr != nil {
			log.Warn().Err(provErr).Str("transaction_id", txn.ID.String()).Msg("Payment provider call failed")
			code := "provider_error"
			txn.Status = domain.PaymentStatusFailed
			txn.FailureCode = &code
		} else {
			txn.ProviderTransactionID = &result.ProviderTransactionID
			if result.Succeeded {
				txn.Status = domain.PaymentStatusSucceeded
				txn.SettledAt = &now
			} else {
				code := result.FailureCode
				txn.Status = domain.PaymentStatusFailed
				txn.FailureCode = &code
			}
		}
		txn.Version++
		return tx.Save(&txn).Error
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

type WebhookInput struct {
	ProviderEventID       string
	ProviderTransactionID string
	Status                string
	FailureCode           string
	RawPayload            []byte
}

// ProcessWebhook applies an asynchronous provider settlement. Terminal
// transactions (succeeded, refunded) are immutable: any webhook against them
// is a no-op returning the current state, as is a duplicate failed webhook.
// Accepted events are recorded for dedup by provider event id.
func (s *Service) ProcessWebhook(ctx context.Context, in WebhookInput) (*domain.PaymentTransaction, error) {
	if in.ProviderTransactionID == "" || in.Status == "" {
		return nil, domain.NewValidation("providerTransactionId and status are required")
	}
	if in.Status != domain.PaymentStatusSucceeded && in.Status != domain.PaymentStatusFailed {
		return nil, domain.NewValidation("Unsupported webhook status %q", in.Status)
	}

	var txn domain.PaymentTransaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.ProviderEventID != "" {
			var seen int64
			if err := tx.Model(&domain.PaymentEvent{}).
				Where("provider_event_id = ?", in.ProviderEventID).
				Count(&seen).Error; err != nil {
				return err
			}
			if seen > 0 {
				// Replayed delivery: acknowledge with current state.
				err := tx.Where("provider_transaction_id = ?", in.ProviderTransactionID).First(&txn).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.NewNotFound("Unknown provider transaction")
				}
				return err
			}
		}

		if err := tx.Where("provider_transaction_id = ?", in.ProviderTransactionID).First(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFound("Unknown provider transaction")
			}
			return err
		}

		if in.ProviderEventID != "" {
			payload := in.RawPayload
			if len(payload) == 0 {
				payload, _ = json.Marshal(map[string]string{
					"providerTransactionId": in.ProviderTransactionID,
					"status":                in.Status,
				})
			}
			event := domain.PaymentEvent{
				ProviderEventID: in.ProviderEventID,
				TransactionID:   &txn.ID,
				EventType:       "payment." + in.Status,
				Payload:         datatypes.JSON(payload),
			}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}
		}

		if txn.IsTerminal() {
			return nil
		}
		if txn.Status == domain.PaymentStatusFailed && in.Status == domain.PaymentStatusFailed {
			return nil
		}

		now := s.Clock.Now()
		txn.Status = in.Status
		if in.Status == domain.PaymentStatusSucceeded {
			txn.SettledAt = &now
			txn.FailureCode = nil
		} else {
			code := in.FailureCode
			if code == "" {
				code = "unknown"
			}
			txn.FailureCode = &code
		}
		txn.Version++
		return tx.Save(&txn).Error
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// RefundPayment refunds a succeeded transaction through the provider.
// Idempotent no-op when already refunded (the provider is not called again);
// a provider failure leaves state unchanged.
func (s *Service) RefundPayment(ctx context.Context, id, orgID uuid.UUID) (*domain.PaymentTransaction, error) {
	var txn domain.PaymentTransaction
	err := s.DB.WithContext(ctx).Where("id = ? AND org_id = ?", id, orgID).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFound("Payment transaction not found")
		}
		return nil, err
	}
	if txn.Status == domain.PaymentStatusRefunded {
		return &txn, nil
	}
	if txn.Status != domain.PaymentStatusSucceeded {
		return nil, domain.NewInvalidState("Cannot refund a %s transaction", txn.Status)
	}

	providerTxID := ""
	if txn.ProviderTransactionID != nil {
		providerTxID = *txn.ProviderTransactionID
	}
	if err := s.Provider.InitiateRefund(ctx, providerTxID, txn.AmountCents); err != nil {
		return nil, domain.NewProviderFailure("Provider refund failed: %v", err)
	}

	now := s.Clock.Now()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", txn.ID).First(&txn).Error; err != nil {
			return err
		}
		if txn.Status == domain.PaymentStatusRefunded {
			return nil
		}
		txn.Status = domain.PaymentStatusRefunded
		txn.RefundedAt = &now
		txn.Version++
		return tx.Save(&txn).Error
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// GetTransaction returns the transaction by id, org-scoped. Reading another
// member's transaction requires the view_finance capability.
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID, actor domain.Actor) (*domain.PaymentTransaction, error) {
	var txn domain.PaymentTransaction
	err := s.DB.WithContext(ctx).Where("id = ? AND org_id = ?", id, actor.OrgID).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFound("Payment transaction not found")
		}
		return nil, err
	}
	if txn.UserID != actor.UserID && !constants.AllowedRole(constants.ViewFinance, actor.Role) {
		return nil, domain.NewNotAuthorized("Cannot view another member's payment")
	}
	return &txn, nil
}

// ListMyTransactions returns the caller's transactions, most recent first.
func (s *Service) ListMyTransactions(ctx context.Context, orgID, userID uuid.UUID) ([]domain.PaymentTransaction, error) {
	var list []domain.PaymentTransaction
	err := s.DB.WithContext(ctx).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		Order("created_at desc").Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
