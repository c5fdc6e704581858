package inventory

import (
	"context"
	"errors"

	"clubhub-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service owns the catalog of bookable resource units. Units are immutable
// once seeded except their status.
type Service struct {
	DB *gorm.DB
}

type CreateResourceInput struct {
	OrgID      uuid.UUID
	LocationID *uuid.UUID
	Code       string
	Name       string
	Kind       string
	Capacity   int
}

// CreateResource seeds a new bookable unit for the organization.
func (s *Service) CreateResource(ctx context.Context, in CreateResourceInput) (*domain.ResourceUnit, error) {
	if in.Code == "" || in.Name == "" {
		return nil, domain.NewValidation("code and name are required")
	}
	if !domain.IsValidResourceKind(in.Kind) {
		return nil, domain.NewValidation("Invalid resource kind")
	}
	if in.Capacity <= 0 {
		in.Capacity = 1
	}

	unit := domain.ResourceUnit{
		OrgID:      in.OrgID,
		LocationID: in.LocationID,
		Code:       in.Code,
		Name:       in.Name,
		Kind:       in.Kind,
		Capacity:   in.Capacity,
		Status:     domain.ResourceStatusActive,
	}
	if err := s.DB.WithContext(ctx).Create(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

// ListResources lists the org's units, optionally filtered by kind.
func (s *Service) ListResources(ctx context.Context, orgID uuid.UUID, kind string) ([]domain.ResourceUnit, error) {
	q := s.DB.WithContext(ctx).Where("org_id = ?", orgID)
	if kind != "" {
		if !domain.IsValidResourceKind(kind) {
			return nil, domain.NewValidation("Invalid resource kind")
		}
		q = q.Where("kind = ?", kind)
	}
	var units []domain.ResourceUnit
	if err := q.Order("code asc").Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// GetResource returns the unit by id, scoped to the organization.
// Cross-org access reads as not found.
func (s *Service) GetResource(ctx context.Context, id, orgID uuid.UUID) (*domain.ResourceUnit, error) {
	var unit domain.ResourceUnit
	err := s.DB.WithContext(ctx).Where("id = ? AND org_id = ?", id, orgID).First(&unit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFound("Resource not found")
		}
		return nil, err
	}
	return &unit, nil
}

// UpdateStatus activates or deactivates a unit.
func (s *Service) UpdateStatus(ctx context.Context, id, orgID uuid.UUID, status string) (*domain.ResourceUnit, error) {
	if status != domain.ResourceStatusActive && status != domain.ResourceStatusInactive {
		return nil, domain.NewValidation("Invalid resource status")
	}
	var unit domain.ResourceUnit
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND org_id = ?", id, orgID).First(&unit).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFound("Resource not found")
			}
			return err
		}
		unit.Status = status
		return tx.Save(&unit).Error
	})
	if err != nil {
		return nil, err
	}
	return &unit, nil
}
