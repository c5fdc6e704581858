package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resource unit kinds (bookable physical units of a club).
const (
	KindBed       = "bed"
	KindRoom      = "room"
	KindCourt     = "court"
	KindHall      = "hall"
	KindEquipment = "equipment"
)

const (
	ResourceStatusActive   = "active"
	ResourceStatusInactive = "inactive"
)

// ValidResourceKinds is the set of allowed kind values.
var ValidResourceKinds = []string{KindBed, KindRoom, KindCourt, KindHall, KindEquipment}

// IsValidResourceKind returns true if kind is one of the allowed values.
func IsValidResourceKind(kind string) bool {
	for _, k := range ValidResourceKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ResourceUnit is a bookable unit owned by an organization. Immutable once
// seeded except Status.
type ResourceUnit struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID      uuid.UUID  `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	LocationID *uuid.UUID `gorm:"column:location_id;type:uuid" json:"location_id"`
	Code       string     `gorm:"column:code;not null" json:"code"`
	Name       string     `gorm:"column:name;not null" json:"name"`
	Kind       string     `gorm:"column:kind;type:varchar(20);not null" json:"kind"`
	Capacity   int        `gorm:"column:capacity;not null;default:1" json:"capacity"`
	Status     string     `gorm:"column:status;type:varchar(20);not null;default:active" json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (ResourceUnit) TableName() string {
	return "ResourceUnits"
}

func (r *ResourceUnit) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
