package models

import (
	"time"

	"github.com/google/uuid"
)

// Brand is a reference row resolved-or-created during vehicle registration.
type Brand struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null;unique"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// VehicleModel names a model within a brand (e.g. "Corolla" under "Toyota").
type VehicleModel struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BrandID   uuid.UUID `gorm:"column:brand_id;type:uuid;not null;uniqueIndex:ux_vehicle_models_brand_name"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:ux_vehicle_models_brand_name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
