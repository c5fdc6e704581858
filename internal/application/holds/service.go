package holds

import (
	"context"
	"errors"
	"time"

	"clubhub-backend/internal/application/availability"
	"clubhub-backend/internal/clock"
	"clubhub-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultHoldTTL = 15 * time.Minute

// Service creates and releases short-lived exclusive holds on a
// resource/time-window pair. Expiry is lazy: evaluated on every read, never
// by a background timer.
type Service struct {
	DB      *gorm.DB
	Clock   clock.Clock
	HoldTTL time.Duration
}

func (s *Service) ttl() time.Duration {
	if s.HoldTTL > 0 {
		return s.HoldTTL
	}
	return defaultHoldTTL
}

type CreateHoldInput struct {
	OrgID          uuid.UUID
	UserID         uuid.UUID
	ResourceUnitID uuid.UUID
	StartsAt       time.Time
	EndsAt         time.Time
}

// CreateHold validates the resource and window, re-checks overlap against all
// blocking entities at evaluation time, and creates a hold expiring after the
// TTL. The check-then-insert runs in one transaction so two racing callers
// cannot both acquire overlapping holds.
func (s *Service) CreateHold(ctx context.Context, in CreateHoldInput) (*domain.ReservationHold, error) {
	if !in.EndsAt.After(in.StartsAt) {
		return nil, domain.NewValidation("endsAt must be after startsAt")
	}

	now := s.Clock.Now()
	var hold domain.ReservationHold

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unit domain.ResourceUnit
		if err := tx.Where("id = ? AND org_id = ?", in.ResourceUnitID, in.OrgID).First(&unit).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFound("Resource not found")
			}
			return err
		}
		if unit.Status != domain.ResourceStatusActive {
			return domain.NewValidation("Resource is not active")
		}

		if err := availability.ExpireStaleHolds(tx, in.OrgID, now); err != nil {
			return err
		}

		reason, err := availability.BlockingReasonFor(tx, in.OrgID, in.ResourceUnitID, in.StartsAt, in.EndsAt, now)
		if err != nil {
			return err
		}
		if reason != "" {
			return domain.NewConflict("Resource is not available for the requested window", reason)
		}

		hold = domain.ReservationHold{
			OrgID:          in.OrgID,
			UserID:         in.UserID,
			ResourceUnitID: in.ResourceUnitID,
			StartsAt:       in.StartsAt,
			EndsAt:         in.EndsAt,
			Status:         domain.HoldStatusHeld,
			ExpiresAt:      now.Add(s.ttl()),
		}
		return tx.Create(&hold).Error
	})
	if err != nil {
		return nil, err
	}
	return &hold, nil
}

// GetHold returns the hold by id scoped to the organization, lazily expiring
// it on read. Cross-org access reads as not found.
func (s *Service) GetHold(ctx context.Context, id, orgID uuid.UUID) (*domain.ReservationHold, error) {
	hold, err := s.getAndExpire(ctx, "id = ? AND org_id = ?", id, orgID)
	if err != nil {
		return nil, err
	}
	return hold, nil
}

// GetHoldUnscoped returns the hold by id without an org filter. Used by the
// policy layer to extract the owning organization before scoping; not exposed
// over HTTP.
func (s *Service) GetHoldUnscoped(ctx context.Context, id uuid.UUID) (*domain.ReservationHold, error) {
	return s.getAndExpire(ctx, "id = ?", id)
}

func (s *Service) getAndExpire(ctx context.Context, query string, args ...interface{}) (*domain.ReservationHold, error) {
	now := s.Clock.Now()
	var hold domain.ReservationHold
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(query, args...).First(&hold).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFound("Hold not found")
			}
			return err
		}
		if hold.IsExpired(now) {
			hold.Status = domain.HoldStatusExpired
			return tx.Save(&hold).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &hold, nil
}

// ListMyHolds returns the caller's holds, most recent first, lazily expiring
// stale ones.
func (s *Service) ListMyHolds(ctx context.Context, orgID, userID uuid.UUID) ([]domain.ReservationHold, error) {
	now := s.Clock.Now()
	var list []domain.ReservationHold
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := availability.ExpireStaleHolds(tx, orgID, now); err != nil {
			return err
		}
		return tx.Where("org_id = ? AND user_id = ?", orgID, userID).
			Order("created_at desc").Find(&list).Error
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ReleaseHold releases a currently-held hold. Only the owning user or a
// management actor may release; a hold that already left "held" (including
// one that lazily expired) is an invalid-state failure, not an authorization
// one.
func (s *Service) ReleaseHold(ctx context.Context, id uuid.UUID, actor domain.Actor) (*domain.ReservationHold, error) {
	now := s.Clock.Now()
	var hold domain.ReservationHold
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND org_id = ?", id, actor.OrgID).First(&hold).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFound("Hold not found")
			}
			return err
		}
		if hold.UserID != actor.UserID && !actor.IsManagement {
			return domain.NewNotAuthorized("Only the hold owner or management may release a hold")
		}
		if hold.IsExpired(now) {
			// Commit the expiry; the invalid-state error is raised after
			// the transaction so the status flip is not rolled back.
			hold.Status = domain.HoldStatusExpired
			return tx.Save(&hold).Error
		}
		if hold.Status != domain.HoldStatusHeld {
			return domain.NewInvalidState("Hold is %s, not held", hold.Status)
		}
		hold.Status = domain.HoldStatusReleased
		return tx.Save(&hold).Error
	})
	if err != nil {
		return nil, err
	}
	if hold.Status == domain.HoldStatusExpired {
		return nil, domain.NewInvalidState("Hold is %s, not held", hold.Status)
	}
	return &hold, nil
}
