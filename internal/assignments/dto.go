package assignments

import (
	"time"

	"github.com/chiops/fleetops-backend/pkg/db/models"
	"github.com/chiops/fleetops-backend/pkg/enums"
)

// AssignmentDTO is the external projection of one ledger row.
type AssignmentDTO struct {
	VIN               string                 `json:"vin"`
	DriverCURP        string                 `json:"driver_curp"`
	Status            enums.AssignmentStatus `json:"status"`
	ChangedDriverCURP *string                `json:"changed_driver_curp,omitempty"`
	AssignedAt        time.Time              `json:"assigned_at"`
	ReleasedAt        *time.Time             `json:"released_at,omitempty"`
}

// AssignInput binds a driver to a vehicle.
type AssignInput struct {
	VIN        string `json:"vin" validate:"required,max=64"`
	DriverCURP string `json:"driver_curp" validate:"required,min=18,max=18"`
}

// ReleaseInput frees a vehicle from its current driver. The CURP must match
// the driver currently bound to the vehicle.
type ReleaseInput struct {
	VIN        string `json:"vin" validate:"required,max=64"`
	DriverCURP string `json:"driver_curp" validate:"required,min=18,max=18"`
}

// ChangeDriverInput swaps the driver bound to a vehicle in one transaction.
type ChangeDriverInput struct {
	VIN               string `json:"vin" validate:"required,max=64"`
	DriverCURP        string `json:"driver_curp" validate:"required,min=18,max=18"`
	ChangedDriverCURP string `json:"changed_driver_curp" validate:"required,min=18,max=18"`
}

// AssignmentList is one page of ledger rows plus the cursor for the next page.
type AssignmentList struct {
	Items      []AssignmentDTO `json:"items"`
	NextCursor *string         `json:"next_cursor,omitempty"`
}

// FromModel maps a persisted assignment into its DTO.
func FromModel(m *models.VehicleAssignment) *AssignmentDTO {
	if m == nil {
		return nil
	}
	return &AssignmentDTO{
		VIN:               m.VehicleVIN,
		DriverCURP:        m.DriverCURP,
		Status:            m.Status,
		ChangedDriverCURP: m.ChangedDriverCURP,
		AssignedAt:        m.AssignedAt,
		ReleasedAt:        m.ReleasedAt,
	}
}
