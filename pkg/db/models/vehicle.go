package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Vehicle is the canonical fleet vehicle record, keyed by its VIN.
// ActiveAssignmentID points at the single assignment currently in the
// "assigned" state; it is nil while the vehicle is idle. The relation is
// identifier-based on purpose: the assignment row is owned by the ledger and
// the vehicle never embeds it.
type Vehicle struct {
	VIN                string          `gorm:"column:vin;primaryKey;size:64"`
	ModelID            uuid.UUID       `gorm:"column:model_id;type:uuid;not null;index"`
	Plate              string          `gorm:"column:plate;not null"`
	RegistrationDate   time.Time       `gorm:"column:registration_date;not null"`
	PurchaseDate       time.Time       `gorm:"column:purchase_date;not null"`
	Cost               decimal.Decimal `gorm:"column:cost;type:numeric(12,2);not null"`
	PhotoURL           *string         `gorm:"column:photo_url"`
	ActiveAssignmentID *uuid.UUID      `gorm:"column:active_assignment_id;type:uuid"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
