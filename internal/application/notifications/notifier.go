package notifications

import (
	"context"

	"clubhub-backend/internal/domain"

	"github.com/rs/zerolog/log"
)

// Notifier is the narrow sink the booking flow pushes reservation outcomes
// into. Implementations must never block the reservation/payment action;
// failures are logged by the caller and swallowed. Nil = no-op.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, email string, reservation *domain.Reservation) error
	ReservationPaymentFailed(ctx context.Context, email string, reservation *domain.Reservation) error
}

// LogNotifier writes notifications to the application log. Used when no
// email provider is configured.
type LogNotifier struct{}

func (LogNotifier) ReservationConfirmed(ctx context.Context, email string, reservation *domain.Reservation) error {
	log.Info().
		Str("reservation_id", reservation.ID.String()).
		Str("email", email).
		Msg("Reservation confirmed notification")
	return nil
}

func (LogNotifier) ReservationPaymentFailed(ctx context.Context, email string, reservation *domain.Reservation) error {
	log.Info().
		Str("reservation_id", reservation.ID.String()).
		Str("email", email).
		Msg("Reservation payment failed notification")
	return nil
}
