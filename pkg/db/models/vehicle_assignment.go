package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/chiops/fleetops-backend/pkg/enums"
)

// VehicleAssignment is one driver-to-vehicle binding interval in the ledger.
// Rows are append-oriented: a transition finalizes the current row or creates
// a new one, never deletes history.
//
// ReleasedAt is set iff the status is released or changed; ChangedDriverCURP
// is set iff the status is changed.
type VehicleAssignment struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VehicleVIN        string                 `gorm:"column:vehicle_vin;size:64;not null;index"`
	DriverCURP        string                 `gorm:"column:driver_curp;size:18;not null;index"`
	Status            enums.AssignmentStatus `gorm:"column:status;type:varchar(16);not null;index"`
	ChangedDriverCURP *string                `gorm:"column:changed_driver_curp;size:18"`
	AssignedAt        time.Time              `gorm:"column:assigned_at;not null"`
	ReleasedAt        *time.Time             `gorm:"column:released_at"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
