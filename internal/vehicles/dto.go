package vehicles

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chiops/fleetops-backend/pkg/db/models"
)

// VehicleDTO exposes a vehicle record with its resolved brand/model names and
// the status of its active assignment, if any.
type VehicleDTO struct {
	VIN              string          `json:"vin"`
	Brand            string          `json:"brand"`
	Model            string          `json:"model"`
	Plate            string          `json:"plate"`
	RegistrationDate time.Time       `json:"registration_date"`
	PurchaseDate     time.Time       `json:"purchase_date"`
	Cost             decimal.Decimal `json:"cost"`
	PhotoURL         *string         `json:"photo_url,omitempty"`
	AssignmentStatus string          `json:"assignment_status"`
	AssignmentID     *uuid.UUID      `json:"assignment_id,omitempty"`
}

// CreateVehicleInput holds creation-time data for a new vehicle. The photo
// bytes travel separately from the JSON document in the multipart request.
type CreateVehicleInput struct {
	VIN              string          `json:"vin" validate:"required,max=64"`
	Brand            string          `json:"brand" validate:"required,max=120"`
	Model            string          `json:"model" validate:"required,max=120"`
	Plate            string          `json:"plate" validate:"required,max=32"`
	RegistrationDate time.Time       `json:"registration_date" validate:"required"`
	PurchaseDate     time.Time       `json:"purchase_date" validate:"required"`
	Cost             decimal.Decimal `json:"cost" validate:"required"`
}

// VehiclePhoto carries the uploaded image for a vehicle creation request.
type VehiclePhoto struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UpdateVehicleInput captures the mutable vehicle fields. Nil pointers leave
// the stored value untouched. The VIN identifies the record and never changes.
type UpdateVehicleInput struct {
	VIN              string           `json:"vin" validate:"required,max=64"`
	Brand            *string          `json:"brand,omitempty" validate:"omitempty,max=120"`
	Model            *string          `json:"model,omitempty" validate:"omitempty,max=120"`
	Plate            *string          `json:"plate,omitempty" validate:"omitempty,max=32"`
	RegistrationDate *time.Time       `json:"registration_date,omitempty"`
	PurchaseDate     *time.Time       `json:"purchase_date,omitempty"`
	Cost             *decimal.Decimal `json:"cost,omitempty"`
}

// VehicleList is one page of vehicles plus the cursor for the next page.
type VehicleList struct {
	Items      []VehicleDTO `json:"items"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

// VehicleRow joins a vehicle with its brand/model reference names.
type VehicleRow struct {
	Vehicle   models.Vehicle
	BrandName string
	ModelName string
}

// FromRow maps a joined vehicle row into the API DTO.
func FromRow(row *VehicleRow) *VehicleDTO {
	if row == nil {
		return nil
	}

	dto := &VehicleDTO{
		VIN:              row.Vehicle.VIN,
		Brand:            row.BrandName,
		Model:            row.ModelName,
		Plate:            row.Vehicle.Plate,
		RegistrationDate: row.Vehicle.RegistrationDate,
		PurchaseDate:     row.Vehicle.PurchaseDate,
		Cost:             row.Vehicle.Cost,
		PhotoURL:         row.Vehicle.PhotoURL,
		AssignmentStatus: "unassigned",
	}

	if row.Vehicle.ActiveAssignmentID != nil {
		id := *row.Vehicle.ActiveAssignmentID
		dto.AssignmentID = &id
		dto.AssignmentStatus = "assigned"
	}

	return dto
}
