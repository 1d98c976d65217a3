package assignments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chiops/fleetops-backend/pkg/db/models"
	"github.com/chiops/fleetops-backend/pkg/enums"
	"github.com/chiops/fleetops-backend/pkg/pagination"
)

// Repository defines persistence operations for the assignment ledger and the
// vehicle rows the state machine mutates alongside it.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateAssignment(ctx context.Context, assignment *models.VehicleAssignment) error
	UpdateAssignment(ctx context.Context, assignment *models.VehicleAssignment) error
	FindAssignmentByID(ctx context.Context, id uuid.UUID) (*models.VehicleAssignment, error)
	FindActiveByDriver(ctx context.Context, curp string) (*models.VehicleAssignment, error)
	ListByStatus(ctx context.Context, status enums.AssignmentStatus) ([]models.VehicleAssignment, error)
	List(ctx context.Context, params pagination.Params) ([]models.VehicleAssignment, error)
	FindVehicleByVIN(ctx context.Context, vin string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicle *models.Vehicle) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an assignments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateAssignment(ctx context.Context, assignment *models.VehicleAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repository) UpdateAssignment(ctx context.Context, assignment *models.VehicleAssignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

func (r *repository) FindAssignmentByID(ctx context.Context, id uuid.UUID) (*models.VehicleAssignment, error) {
	var assignment models.VehicleAssignment
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) FindActiveByDriver(ctx context.Context, curp string) (*models.VehicleAssignment, error) {
	var assignment models.VehicleAssignment
	err := r.db.WithContext(ctx).
		Where("driver_curp = ? AND status = ?", curp, enums.AssignmentStatusAssigned).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.AssignmentStatus) ([]models.VehicleAssignment, error) {
	var assignments []models.VehicleAssignment
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC, id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) ([]models.VehicleAssignment, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.VehicleAssignment{}).
		Order("created_at ASC, id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.Key)
	}

	var assignments []models.VehicleAssignment
	if err := query.Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *repository) FindVehicleByVIN(ctx context.Context, vin string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).
		Where("vin = ?", vin).
		First(&vehicle).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *repository) UpdateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).
		Model(&models.Vehicle{}).
		Where("vin = ?", vehicle.VIN).
		Update("active_assignment_id", vehicle.ActiveAssignmentID).Error
}
