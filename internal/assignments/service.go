package assignments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chiops/fleetops-backend/pkg/db"
	"github.com/chiops/fleetops-backend/pkg/db/models"
	"github.com/chiops/fleetops-backend/pkg/enums"
	pkgerrors "github.com/chiops/fleetops-backend/pkg/errors"
	"github.com/chiops/fleetops-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type driverLookup interface {
	Exists(ctx context.Context, curp string) (bool, error)
}

// Service orchestrates the vehicle-assignment state machine.
//
// Two invariants hold at all times: a vehicle has at most one assignment in
// the assigned state, and a driver is bound to at most one vehicle. Both are
// checked here and backed by partial unique indexes, so a concurrent writer
// that slips past the checks surfaces as a conflict instead of corrupting the
// ledger.
type Service interface {
	Assign(ctx context.Context, input AssignInput) (*AssignmentDTO, error)
	Release(ctx context.Context, input ReleaseInput) (*AssignmentDTO, error)
	ChangeDriver(ctx context.Context, input ChangeDriverInput) (*AssignmentDTO, error)
	FindByStatus(ctx context.Context, status string) ([]AssignmentDTO, error)
	History(ctx context.Context, params pagination.Params) (*AssignmentList, error)
	FindByVIN(ctx context.Context, vin string) (*AssignmentDTO, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	drivers driverLookup
	now     func() time.Time
}

// NewService builds an assignment service with the required dependencies.
func NewService(repo Repository, tx txRunner, drivers driverLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("assignments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if drivers == nil {
		return nil, fmt.Errorf("driver lookup required")
	}
	return &service{repo: repo, tx: tx, drivers: drivers, now: time.Now}, nil
}

func (s *service) Assign(ctx context.Context, input AssignInput) (*AssignmentDTO, error) {
	vin := strings.TrimSpace(input.VIN)
	curp := strings.TrimSpace(input.DriverCURP)
	if vin == "" || curp == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vin and driver curp are required")
	}

	var dto *AssignmentDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		vehicle, err := s.loadVehicle(ctx, repo, vin)
		if err != nil {
			return err
		}
		if vehicle.ActiveAssignmentID != nil {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("vehicle with VIN %s is already assigned to a driver", vin))
		}

		if err := s.requireDriver(ctx, curp); err != nil {
			return err
		}

		if _, err := repo.FindActiveByDriver(ctx, curp); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("driver with CURP %s is already assigned to a vehicle", curp))
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup active assignment for driver")
		}

		assignment := &models.VehicleAssignment{
			ID:         uuid.New(),
			VehicleVIN: vin,
			DriverCURP: curp,
			Status:     enums.AssignmentStatusAssigned,
			AssignedAt: s.now(),
		}
		if err := repo.CreateAssignment(ctx, assignment); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("vehicle with VIN %s is already assigned to a driver", vin))
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create assignment")
		}

		vehicle.ActiveAssignmentID = &assignment.ID
		if err := repo.UpdateVehicle(ctx, vehicle); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update vehicle active assignment")
		}

		dto = FromModel(assignment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) Release(ctx context.Context, input ReleaseInput) (*AssignmentDTO, error) {
	vin := strings.TrimSpace(input.VIN)
	curp := strings.TrimSpace(input.DriverCURP)
	if vin == "" || curp == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vin and driver curp are required")
	}

	var dto *AssignmentDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		vehicle, err := s.loadVehicle(ctx, repo, vin)
		if err != nil {
			return err
		}
		if vehicle.ActiveAssignmentID == nil {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("vehicle with VIN %s is not assigned to any driver", vin))
		}

		if err := s.requireDriver(ctx, curp); err != nil {
			return err
		}

		active, err := repo.FindAssignmentByID(ctx, *vehicle.ActiveAssignmentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load active assignment")
		}
		if active.DriverCURP != curp {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("driver CURP %s does not match the assigned driver", curp))
		}

		releasedAt := s.now()
		active.Status = enums.AssignmentStatusReleased
		active.ReleasedAt = &releasedAt
		if err := repo.UpdateAssignment(ctx, active); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize assignment")
		}

		vehicle.ActiveAssignmentID = nil
		if err := repo.UpdateVehicle(ctx, vehicle); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear vehicle active assignment")
		}

		dto = FromModel(active)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) ChangeDriver(ctx context.Context, input ChangeDriverInput) (*AssignmentDTO, error) {
	vin := strings.TrimSpace(input.VIN)
	curp := strings.TrimSpace(input.DriverCURP)
	newCURP := strings.TrimSpace(input.ChangedDriverCURP)
	if vin == "" || curp == "" || newCURP == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vin, driver curp and changed driver curp are required")
	}

	var dto *AssignmentDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		vehicle, err := s.loadVehicle(ctx, repo, vin)
		if err != nil {
			return err
		}
		if vehicle.ActiveAssignmentID == nil {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("vehicle with VIN %s is not assigned to any driver", vin))
		}

		if err := s.requireDriver(ctx, curp); err != nil {
			return err
		}
		exists, err := s.drivers.Exists(ctx, newCURP)
		if err != nil {
			return err
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("changed driver with CURP %s not found", newCURP))
		}

		old, err := repo.FindActiveByDriver(ctx, curp)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("driver with CURP %s is not assigned to any vehicle", curp))
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup active assignment for driver")
		}
		// The outgoing driver's live assignment must be on the vehicle named
		// in the request; a mismatch would otherwise mutate another vehicle's
		// assignment while repointing this one.
		if old.VehicleVIN != vin {
			return pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("driver with CURP %s is not assigned to vehicle with VIN %s", curp, vin))
		}

		if old.DriverCURP == newCURP {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("driver with CURP %s is already assigned to this vehicle", newCURP))
		}
		if _, err := repo.FindActiveByDriver(ctx, newCURP); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("driver with CURP %s is already assigned to a vehicle", newCURP))
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup active assignment for changed driver")
		}

		changedAt := s.now()
		old.Status = enums.AssignmentStatusChanged
		old.ReleasedAt = &changedAt
		old.ChangedDriverCURP = &newCURP
		if err := repo.UpdateAssignment(ctx, old); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize previous assignment")
		}

		next := &models.VehicleAssignment{
			ID:         uuid.New(),
			VehicleVIN: vin,
			DriverCURP: newCURP,
			Status:     enums.AssignmentStatusAssigned,
			AssignedAt: changedAt,
		}
		if err := repo.CreateAssignment(ctx, next); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("driver with CURP %s is already assigned to a vehicle", newCURP))
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create replacement assignment")
		}

		vehicle.ActiveAssignmentID = &next.ID
		if err := repo.UpdateVehicle(ctx, vehicle); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update vehicle active assignment")
		}

		dto = FromModel(next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) FindByStatus(ctx context.Context, status string) ([]AssignmentDTO, error) {
	parsed, err := enums.ParseAssignmentStatus(status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	assignments, err := s.repo.ListByStatus(ctx, parsed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list assignments by status")
	}
	if len(assignments) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("no vehicle assignments found with status: %s", parsed))
	}

	return toDTOs(assignments), nil
}

func (s *service) History(ctx context.Context, params pagination.Params) (*AssignmentList, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pagination cursor")
	}

	assignments, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list assignment history")
	}
	if len(assignments) == 0 && strings.TrimSpace(params.Cursor) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no vehicle assignments found in the system")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	list := &AssignmentList{}
	if len(assignments) > limit {
		last := assignments[limit-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			Key:       last.ID.String(),
		})
		list.NextCursor = &cursor
		assignments = assignments[:limit]
	}
	list.Items = toDTOs(assignments)
	return list, nil
}

func (s *service) FindByVIN(ctx context.Context, vin string) (*AssignmentDTO, error) {
	vin = strings.TrimSpace(vin)
	if vin == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle vin is required")
	}

	vehicle, err := s.loadVehicle(ctx, s.repo, vin)
	if err != nil {
		return nil, err
	}
	if vehicle.ActiveAssignmentID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("vehicle with VIN %s is not assigned to any driver", vin))
	}

	active, err := s.repo.FindAssignmentByID(ctx, *vehicle.ActiveAssignmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load active assignment")
	}
	return FromModel(active), nil
}

func (s *service) loadVehicle(ctx context.Context, repo Repository, vin string) (*models.Vehicle, error) {
	vehicle, err := repo.FindVehicleByVIN(ctx, vin)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("vehicle with VIN %s not found", vin))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup vehicle")
	}
	return vehicle, nil
}

func (s *service) requireDriver(ctx context.Context, curp string) error {
	exists, err := s.drivers.Exists(ctx, curp)
	if err != nil {
		return err
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("driver with CURP %s not found", curp))
	}
	return nil
}

func toDTOs(assignments []models.VehicleAssignment) []AssignmentDTO {
	dtos := make([]AssignmentDTO, 0, len(assignments))
	for i := range assignments {
		dtos = append(dtos, *FromModel(&assignments[i]))
	}
	return dtos
}
