package booking

import (
	"context"
	"errors"
	"time"

	"clubhub-backend/internal/application/notifications"
	"clubhub-backend/internal/application/payments"
	"clubhub-backend/internal/application/reservations"
	"clubhub-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Orchestrator bridges reservation creation to payment initiation and
// reconciles the provider outcome back into reservation state. The same
// confirm/fail transitions serve both the synchronous path and the webhook
// path; terminal-state idempotence makes whichever arrives second a no-op.
type Orchestrator struct {
	Reservations *reservations.Service
	Payments     *payments.Service
	Notifier     notifications.Notifier
}

// Outcome is the settled result of a reservation payment round-trip.
type Outcome struct {
	Reservation *domain.Reservation        `json:"reservation"`
	Transaction *domain.PaymentTransaction `json:"transaction"`
}

// ProcessReservationPayment initiates payment for the reservation and applies
// the provider's synchronous result. actorEmail, when present, receives the
// outcome notification; notification failures never surface.
func (o *Orchestrator) ProcessReservationPayment(ctx context.Context, reservationID uuid.UUID, actor domain.Actor, idempotencyKey, actorEmail string) (*Outcome, error) {
	reservation, err := o.Reservations.GetReservation(ctx, reservationID, actor)
	if err != nil {
		return nil, err
	}

	txn, err := o.Payments.InitiatePayment(ctx, payments.InitiatePaymentInput{
		OrgID:          actor.OrgID,
		ReservationID:  reservation.ID,
		UserID:         reservation.UserID,
		AmountCents:    reservation.AmountCents,
		Currency:       reservation.Currency,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	reservation, err = o.applyTransaction(ctx, txn)
	if err != nil {
		return nil, err
	}

	o.notify(reservation, actorEmail)

	return &Outcome{Reservation: reservation, Transaction: txn}, nil
}

// SyncFromTransaction re-syncs the owning reservation after a webhook-driven
// settlement. Races with the synchronous path converge: a transition that
// already happened is a no-op, and one that is no longer legal (e.g. the
// reservation was canceled meanwhile) is logged and dropped.
func (o *Orchestrator) SyncFromTransaction(ctx context.Context, txn *domain.PaymentTransaction) (*domain.Reservation, error) {
	reservation, err := o.applyTransaction(ctx, txn)
	if err != nil {
		var domErr *domain.Error
		if errors.As(err, &domErr) && domErr.Kind == domain.KindInvalidState {
			log.Warn().
				Str("transaction_id", txn.ID.String()).
				Str("reservation_id", txn.ReservationID.String()).
				Str("reason", domErr.Message).
				Msg("Webhook settlement not applicable to reservation state")
			return nil, nil
		}
		return nil, err
	}
	return reservation, nil
}

func (o *Orchestrator) applyTransaction(ctx context.Context, txn *domain.PaymentTransaction) (*domain.Reservation, error) {
	switch txn.Status {
	case domain.PaymentStatusSucceeded:
		return o.Reservations.ConfirmReservation(ctx, txn.ReservationID, txn.OrgID, txn.ID)
	case domain.PaymentStatusFailed:
		return o.Reservations.FailReservationPayment(ctx, txn.ReservationID, txn.OrgID)
	default:
		// initiated/refunded settle elsewhere; report current reservation state
		return o.Reservations.GetReservation(ctx, txn.ReservationID, domain.Actor{
			UserID: txn.UserID, OrgID: txn.OrgID, IsManagement: true,
		})
	}
}

func (o *Orchestrator) notify(reservation *domain.Reservation, email string) {
	if o.Notifier == nil || email == "" || reservation == nil {
		return
	}
	r := *reservation
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		var err error
		switch r.Status {
		case domain.ReservationStatusConfirmed:
			err = o.Notifier.ReservationConfirmed(ctx, email, &r)
		case domain.ReservationStatusPaymentFailed:
			err = o.Notifier.ReservationPaymentFailed(ctx, email, &r)
		}
		if err != nil {
			log.Warn().Err(err).Str("reservation_id", r.ID.String()).Msg("Notification dispatch failed")
		}
	}()
}
