package vehicles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chiops/fleetops-backend/pkg/db/models"
	"github.com/chiops/fleetops-backend/pkg/pagination"
)

// Repository defines persistence operations for vehicles and their
// brand/model reference rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByVIN(ctx context.Context, vin string) (*VehicleRow, error)
	Create(ctx context.Context, vehicle *models.Vehicle) error
	Update(ctx context.Context, vehicle *models.Vehicle) error
	List(ctx context.Context, params pagination.Params) ([]VehicleRow, error)
	ListByModel(ctx context.Context, modelName string) ([]VehicleRow, error)
	FindOrCreateBrand(ctx context.Context, name string) (*models.Brand, error)
	FindModelByName(ctx context.Context, name string) (*models.VehicleModel, error)
	FindOrCreateModel(ctx context.Context, brandID uuid.UUID, name string) (*models.VehicleModel, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a vehicles repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

const vehicleRowSelect = "vehicles.*, brands.name AS brand_name, vehicle_models.name AS model_name"

func (r *repository) rowQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Vehicle{}).
		Select(vehicleRowSelect).
		Joins("JOIN vehicle_models ON vehicle_models.id = vehicles.model_id").
		Joins("JOIN brands ON brands.id = vehicle_models.brand_id")
}

type vehicleRowScan struct {
	models.Vehicle
	BrandName string
	ModelName string
}

func (s vehicleRowScan) toRow() VehicleRow {
	return VehicleRow{Vehicle: s.Vehicle, BrandName: s.BrandName, ModelName: s.ModelName}
}

func (r *repository) FindByVIN(ctx context.Context, vin string) (*VehicleRow, error) {
	var scan vehicleRowScan
	err := r.rowQuery(ctx).
		Where("vehicles.vin = ?", vin).
		First(&scan).Error
	if err != nil {
		return nil, err
	}
	row := scan.toRow()
	return &row, nil
}

func (r *repository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Create(vehicle).Error
}

func (r *repository) Update(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Save(vehicle).Error
}

func (r *repository) List(ctx context.Context, params pagination.Params) ([]VehicleRow, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.rowQuery(ctx).
		Order("vehicles.created_at ASC, vehicles.vin ASC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if cursor != nil {
		query = query.Where(
			"(vehicles.created_at, vehicles.vin) > (?, ?)",
			cursor.CreatedAt, cursor.Key,
		)
	}

	var scans []vehicleRowScan
	if err := query.Find(&scans).Error; err != nil {
		return nil, err
	}

	rows := make([]VehicleRow, 0, len(scans))
	for _, s := range scans {
		rows = append(rows, s.toRow())
	}
	return rows, nil
}

func (r *repository) ListByModel(ctx context.Context, modelName string) ([]VehicleRow, error) {
	var scans []vehicleRowScan
	err := r.rowQuery(ctx).
		Where("vehicle_models.name = ?", modelName).
		Order("vehicles.created_at ASC, vehicles.vin ASC").
		Find(&scans).Error
	if err != nil {
		return nil, err
	}

	rows := make([]VehicleRow, 0, len(scans))
	for _, s := range scans {
		rows = append(rows, s.toRow())
	}
	return rows, nil
}

func (r *repository) FindOrCreateBrand(ctx context.Context, name string) (*models.Brand, error) {
	var brand models.Brand
	err := r.db.WithContext(ctx).
		Where(models.Brand{Name: name}).
		FirstOrCreate(&brand).Error
	if err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *repository) FindModelByName(ctx context.Context, name string) (*models.VehicleModel, error) {
	var model models.VehicleModel
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&model).Error
	if err != nil {
		return nil, err
	}
	return &model, nil
}

func (r *repository) FindOrCreateModel(ctx context.Context, brandID uuid.UUID, name string) (*models.VehicleModel, error) {
	var model models.VehicleModel
	err := r.db.WithContext(ctx).
		Where(models.VehicleModel{BrandID: brandID, Name: name}).
		FirstOrCreate(&model).Error
	if err != nil {
		return nil, err
	}
	return &model, nil
}
