package vehicles

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"gorm.io/gorm"

	"github.com/chiops/fleetops-backend/pkg/db"
	"github.com/chiops/fleetops-backend/pkg/db/models"
	pkgerrors "github.com/chiops/fleetops-backend/pkg/errors"
	"github.com/chiops/fleetops-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ImageStore persists vehicle photos and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Service exposes vehicle registry operations.
type Service interface {
	Create(ctx context.Context, input CreateVehicleInput, photo *VehiclePhoto) (*VehicleDTO, error)
	Update(ctx context.Context, input UpdateVehicleInput) (*VehicleDTO, error)
	GetByVIN(ctx context.Context, vin string) (*VehicleDTO, error)
	List(ctx context.Context, params pagination.Params) (*VehicleList, error)
	ListByModel(ctx context.Context, model string) ([]VehicleDTO, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	images ImageStore
}

// NewService builds a vehicle service with the required dependencies.
func NewService(repo Repository, tx txRunner, images ImageStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vehicles repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if images == nil {
		return nil, fmt.Errorf("image store required")
	}
	return &service{repo: repo, tx: tx, images: images}, nil
}

func (s *service) Create(ctx context.Context, input CreateVehicleInput, photo *VehiclePhoto) (*VehicleDTO, error) {
	vin := strings.TrimSpace(input.VIN)
	if vin == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle vin is required")
	}
	if photo == nil || len(photo.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle image is required")
	}

	var dto *VehicleDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		_, err := repo.FindByVIN(ctx, vin)
		if err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("vehicle with VIN %s already exists", vin))
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup vehicle")
		}

		brand, err := repo.FindOrCreateBrand(ctx, strings.TrimSpace(input.Brand))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve brand")
		}
		model, err := repo.FindOrCreateModel(ctx, brand.ID, strings.TrimSpace(input.Model))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve model")
		}

		photoURL, err := s.images.Upload(ctx, photoKey(vin, photo.Filename), photo.ContentType, photo.Data)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "failed to upload vehicle image")
		}

		vehicle := &models.Vehicle{
			VIN:              vin,
			ModelID:          model.ID,
			Plate:            input.Plate,
			RegistrationDate: input.RegistrationDate,
			PurchaseDate:     input.PurchaseDate,
			Cost:             input.Cost,
			PhotoURL:         &photoURL,
		}
		if err := repo.Create(ctx, vehicle); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("vehicle with VIN %s already exists", vin))
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create vehicle")
		}

		dto = FromRow(&VehicleRow{Vehicle: *vehicle, BrandName: brand.Name, ModelName: model.Name})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) Update(ctx context.Context, input UpdateVehicleInput) (*VehicleDTO, error) {
	vin := strings.TrimSpace(input.VIN)
	if vin == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle vin is required")
	}

	var dto *VehicleDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		row, err := repo.FindByVIN(ctx, vin)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("vehicle with VIN %s not found", vin))
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup vehicle")
		}

		vehicle := row.Vehicle
		brandName := row.BrandName
		modelName := row.ModelName

		if input.Brand != nil {
			brandName = strings.TrimSpace(*input.Brand)
		}
		if input.Model != nil {
			modelName = strings.TrimSpace(*input.Model)
		}
		if input.Brand != nil || input.Model != nil {
			brand, err := repo.FindOrCreateBrand(ctx, brandName)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve brand")
			}
			model, err := repo.FindOrCreateModel(ctx, brand.ID, modelName)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve model")
			}
			vehicle.ModelID = model.ID
		}

		if input.Plate != nil {
			vehicle.Plate = *input.Plate
		}
		if input.RegistrationDate != nil {
			vehicle.RegistrationDate = *input.RegistrationDate
		}
		if input.PurchaseDate != nil {
			vehicle.PurchaseDate = *input.PurchaseDate
		}
		if input.Cost != nil {
			vehicle.Cost = *input.Cost
		}

		if err := repo.Update(ctx, &vehicle); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update vehicle")
		}

		dto = FromRow(&VehicleRow{Vehicle: vehicle, BrandName: brandName, ModelName: modelName})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) GetByVIN(ctx context.Context, vin string) (*VehicleDTO, error) {
	vin = strings.TrimSpace(vin)
	if vin == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle vin is required")
	}

	row, err := s.repo.FindByVIN(ctx, vin)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("vehicle with VIN %s not found", vin))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup vehicle")
	}
	return FromRow(row), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*VehicleList, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pagination cursor")
	}

	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list vehicles")
	}

	if len(rows) == 0 && strings.TrimSpace(params.Cursor) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no vehicles found in the system")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	list := &VehicleList{Items: make([]VehicleDTO, 0, len(rows))}
	if len(rows) > limit {
		last := rows[limit-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.Vehicle.CreatedAt,
			Key:       last.Vehicle.VIN,
		})
		list.NextCursor = &cursor
		rows = rows[:limit]
	}
	for i := range rows {
		list.Items = append(list.Items, *FromRow(&rows[i]))
	}
	return list, nil
}

func (s *service) ListByModel(ctx context.Context, model string) ([]VehicleDTO, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model name is required")
	}

	if _, err := s.repo.FindModelByName(ctx, model); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("model %s not found", model))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup model")
	}

	rows, err := s.repo.ListByModel(ctx, model)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list vehicles by model")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no vehicles found for model %s", model))
	}

	dtos := make([]VehicleDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromRow(&rows[i]))
	}
	return dtos, nil
}

func photoKey(vin, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return "vehicles/" + vin + ext
}
