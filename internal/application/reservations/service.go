package reservations

import (
	"context"
	"errors"
	"time"

	"clubhub-backend/internal/clock"
	"clubhub-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service is the reservation state machine. Transitions:
//
//	payment_pending -> confirmed | payment_failed | canceled
//	payment_failed  -> confirmed | canceled
//	confirmed       -> canceled (management only)
//
// Everything else is rejected. Consuming a verified hold is the single step
// that establishes resource exclusivity: the consuming reservation itself
// blocks availability from then on.
type Service struct {
	DB           *gorm.DB
	Clock        clock.Clock
	DefaultPrice int64
	Currency     string
}

func (s *Service) currency() string {
	if s.Currency != "" {
		return s.Currency
	}
	return "usd"
}

// CreateReservation converts a held hold into a payment_pending reservation.
// Idempotency-keyed per organization: replaying the same key with the same
// hold and user returns the existing reservation; the same key with a
// different hold or user is a hard conflict.
func (s *Service) CreateReservation(ctx context.Context, holdID uuid.UUID, actor domain.Actor, idempotencyKey string) (*domain.Reservation, error) {
	if idempotencyKey == "" {
		return nil, domain.NewValidation("idempotencyKey is required")
	}

	now := s.Clock.Now()
	var reservation domain.Reservation

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Reservation
		err := tx.Where("org_id = ? AND idempotency_key = ?", actor.OrgID, idempotencyKey).First(&existing).Error
		if err == nil {
			if existing.HoldID == nil || *existing.HoldID != holdID || existing.UserID != actor.UserID {
				return domain.NewIdempotencyConflict("Idempotency key was already used for a different request")
			}
			reservation = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// Row lock serializes racing consumers of one hold; sqlite has no
		// FOR UPDATE, the unique index on (org_id, idempotency_key) is the
		// backstop there.
		holdQuery := tx.Where("id = ? AND org_id = ?", holdID, actor.OrgID)
		if tx.Dialector.Name() == "postgres" {
			holdQuery = holdQuery.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var hold domain.ReservationHold
		if err := holdQuery.First(&hold).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFound("Hold not found")
			}
			return err
		}
		if hold.UserID != actor.UserID {
			return domain.NewNotAuthorized("Hold belongs to another user")
		}
		if hold.IsExpired(now) {
			hold.Status = domain.HoldStatusExpired
			if err := tx.Save(&hold).Error; err != nil {
				return err
			}
		}
		switch hold.Status {
		case domain.HoldStatusHeld:
		case domain.HoldStatusExpired:
			return domain.NewInvalidState("Hold has expired")
		case domain.HoldStatusReleased:
			return domain.NewInvalidState("Hold was released")
		case domain.HoldStatusConsumed:
			return domain.NewInvalidState("Hold was already consumed")
		default:
			return domain.NewInvalidState("Hold is %s, not held", hold.Status)
		}

		hold.Status = domain.HoldStatusConsumed
		if err := tx.Save(&hold).Error; err != nil {
			return err
		}

		key := idempotencyKey
		reservation = domain.Reservation{
			OrgID:          actor.OrgID,
			UserID:         actor.UserID,
			ResourceUnitID: hold.ResourceUnitID,
			HoldID:         &hold.ID,
			StartsAt:       hold.StartsAt,
			EndsAt:         hold.EndsAt,
			Status:         domain.ReservationStatusPaymentPending,
			AmountCents:    s.DefaultPrice,
			Currency:       s.currency(),
			Source:         domain.ReservationSourceMemberSelfService,
			IdempotencyKey: &key,
			Version:        1,
		}
		return tx.Create(&reservation).Error
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// ConfirmReservation marks the reservation paid. Idempotent no-op when
// already confirmed; valid from payment_pending or payment_failed (retried
// payment).
func (s *Service) ConfirmReservation(ctx context.Context, id, orgID, paymentTransactionID uuid.UUID) (*domain.Reservation, error) {
	var reservation domain.Reservation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockReservation(tx, &reservation, id, orgID); err != nil {
			return err
		}
		if reservation.Status == domain.ReservationStatusConfirmed {
			return nil
		}
		if reservation.Status != domain.ReservationStatusPaymentPending && reservation.Status != domain.ReservationStatusPaymentFailed {
			return domain.NewInvalidState("Cannot confirm a %s reservation", reservation.Status)
		}
		now := s.Clock.Now()
		reservation.Status = domain.ReservationStatusConfirmed
		reservation.PaymentTransactionID = &paymentTransactionID
		reservation.ConfirmedAt = &now
		reservation.Version++
		return tx.Save(&reservation).Error
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// FailReservationPayment marks the payment attempt failed. Idempotent no-op
// when already payment_failed; valid only from payment_pending.
func (s *Service) FailReservationPayment(ctx context.Context, id, orgID uuid.UUID) (*domain.Reservation, error) {
	var reservation domain.Reservation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockReservation(tx, &reservation, id, orgID); err != nil {
			return err
		}
		if reservation.Status == domain.ReservationStatusPaymentFailed {
			return nil
		}
		if reservation.Status != domain.ReservationStatusPaymentPending {
			return domain.NewInvalidState("Cannot fail payment of a %s reservation", reservation.Status)
		}
		reservation.Status = domain.ReservationStatusPaymentFailed
		reservation.Version++
		return tx.Save(&reservation).Error
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// OverrideConfirm is the management escape hatch: forcibly confirms a
// payment_pending or payment_failed reservation without a settled payment.
// Idempotent on confirmed.
func (s *Service) OverrideConfirm(ctx context.Context, id, orgID uuid.UUID) (*domain.Reservation, error) {
	var reservation domain.Reservation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockReservation(tx, &reservation, id, orgID); err != nil {
			return err
		}
		if reservation.Status == domain.ReservationStatusConfirmed {
			return nil
		}
		if reservation.Status != domain.ReservationStatusPaymentPending && reservation.Status != domain.ReservationStatusPaymentFailed {
			return domain.NewInvalidState("Cannot confirm a %s reservation", reservation.Status)
		}
		now := s.Clock.Now()
		reservation.Status = domain.ReservationStatusConfirmed
		reservation.Source = domain.ReservationSourceAdminOverride
		reservation.ConfirmedAt = &now
		reservation.Version++
		return tx.Save(&reservation).Error
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

type OverrideReservationInput struct {
	OrgID          uuid.UUID
	UserID         uuid.UUID
	ResourceUnitID uuid.UUID
	StartsAt       time.Time
	EndsAt         time.Time
}

// CreateOverrideReservation bypasses the hold flow and books directly in
// confirmed with no hold id. It deliberately skips the overlap check against
// existing holds/reservations: management can double-book for walk-ins, and
// availability will report the window as blocked afterwards.
func (s *Service) CreateOverrideReservation(ctx context.Context, in OverrideReservationInput) (*domain.Reservation, error) {
	if !in.EndsAt.After(in.StartsAt) {
		return nil, domain.NewValidation("endsAt must be after startsAt")
	}

	var reservation domain.Reservation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unit domain.ResourceUnit
		if err := tx.Where("id = ? AND org_id = ?", in.ResourceUnitID, in.OrgID).First(&unit).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFound("Resource not found")
			}
			return err
		}

		now := s.Clock.Now()
		reservation = domain.Reservation{
			OrgID:          in.OrgID,
			UserID:         in.UserID,
			ResourceUnitID: in.ResourceUnitID,
			StartsAt:       in.StartsAt,
			EndsAt:         in.EndsAt,
			Status:         domain.ReservationStatusConfirmed,
			AmountCents:    s.DefaultPrice,
			Currency:       s.currency(),
			Source:         domain.ReservationSourceAdminOverride,
			ConfirmedAt:    &now,
			Version:        1,
		}
		return tx.Create(&reservation).Error
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// CancelReservation cancels. Idempotent no-op when already canceled. The
// owner may cancel from payment_pending/payment_failed; canceling a
// confirmed reservation requires management.
func (s *Service) CancelReservation(ctx context.Context, id uuid.UUID, actor domain.Actor) (*domain.Reservation, error) {
	var reservation domain.Reservation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockReservation(tx, &reservation, id, actor.OrgID); err != nil {
			return err
		}
		if reservation.UserID != actor.UserID && !actor.IsManagement {
			return domain.NewNotAuthorized("Only the reservation owner or management may cancel")
		}
		switch reservation.Status {
		case domain.ReservationStatusCanceled:
			return nil
		case domain.ReservationStatusPaymentPending, domain.ReservationStatusPaymentFailed:
		case domain.ReservationStatusConfirmed:
			if !actor.IsManagement {
				return domain.NewNotAuthorized("Only management may cancel a confirmed reservation")
			}
		default:
			return domain.NewInvalidState("Cannot cancel a %s reservation", reservation.Status)
		}
		now := s.Clock.Now()
		reservation.Status = domain.ReservationStatusCanceled
		reservation.CanceledAt = &now
		reservation.Version++
		return tx.Save(&reservation).Error
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// GetReservation returns the reservation by id, org-scoped. Non-management
// callers may only read their own.
func (s *Service) GetReservation(ctx context.Context, id uuid.UUID, actor domain.Actor) (*domain.Reservation, error) {
	var reservation domain.Reservation
	err := s.DB.WithContext(ctx).Where("id = ? AND org_id = ?", id, actor.OrgID).First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFound("Reservation not found")
		}
		return nil, err
	}
	if reservation.UserID != actor.UserID && !actor.IsManagement {
		return nil, domain.NewNotAuthorized("Cannot view another member's reservation")
	}
	return &reservation, nil
}

// ListMyReservations returns the caller's reservations, most recent first.
func (s *Service) ListMyReservations(ctx context.Context, orgID, userID uuid.UUID) ([]domain.Reservation, error) {
	var list []domain.Reservation
	err := s.DB.WithContext(ctx).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		Order("created_at desc").Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListOrgReservations returns every reservation of the organization,
// optionally filtered by status. Management surface.
func (s *Service) ListOrgReservations(ctx context.Context, orgID uuid.UUID, status string) ([]domain.Reservation, error) {
	q := s.DB.WithContext(ctx).Where("org_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []domain.Reservation
	if err := q.Order("created_at desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func lockReservation(tx *gorm.DB, dst *domain.Reservation, id, orgID uuid.UUID) error {
	err := tx.Where("id = ? AND org_id = ?", id, orgID).First(dst).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFound("Reservation not found")
		}
		return err
	}
	return nil
}
