package assignments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/chiops/fleetops-backend/pkg/db"
	"github.com/chiops/fleetops-backend/pkg/db/models"
	"github.com/chiops/fleetops-backend/pkg/enums"
	"github.com/chiops/fleetops-backend/pkg/pagination"
)

func setupAssignmentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	vehicles := `
CREATE TABLE IF NOT EXISTS vehicles (
  vin TEXT PRIMARY KEY,
  model_id TEXT NOT NULL,
  plate TEXT NOT NULL DEFAULT '',
  registration_date DATETIME,
  purchase_date DATETIME,
  cost TEXT NOT NULL DEFAULT '0',
  photo_url TEXT,
  active_assignment_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	assignments := `
CREATE TABLE IF NOT EXISTS vehicle_assignments (
  id TEXT PRIMARY KEY,
  vehicle_vin TEXT NOT NULL,
  driver_curp TEXT NOT NULL,
  status TEXT NOT NULL,
  changed_driver_curp TEXT,
  assigned_at DATETIME NOT NULL,
  released_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	activeVehicleIdx := `
CREATE UNIQUE INDEX IF NOT EXISTS ux_vehicle_assignments_active_vehicle
  ON vehicle_assignments (vehicle_vin) WHERE status = 'assigned';`
	activeDriverIdx := `
CREATE UNIQUE INDEX IF NOT EXISTS ux_vehicle_assignments_active_driver
  ON vehicle_assignments (driver_curp) WHERE status = 'assigned';`

	require.NoError(t, conn.Exec(vehicles).Error)
	require.NoError(t, conn.Exec(assignments).Error)
	require.NoError(t, conn.Exec(activeVehicleIdx).Error)
	require.NoError(t, conn.Exec(activeDriverIdx).Error)
	return conn
}

func newVehicle(t *testing.T, conn *gorm.DB, vin string) *models.Vehicle {
	t.Helper()

	vehicle := &models.Vehicle{
		VIN:              vin,
		ModelID:          uuid.New(),
		Plate:            "ABC-123",
		RegistrationDate: time.Now(),
		PurchaseDate:     time.Now(),
	}
	require.NoError(t, conn.Create(vehicle).Error)
	return vehicle
}

func newAssignment(t *testing.T, conn *gorm.DB, vin, curp string, status enums.AssignmentStatus, created time.Time) *models.VehicleAssignment {
	t.Helper()

	assignment := &models.VehicleAssignment{
		ID:         uuid.New(),
		VehicleVIN: vin,
		DriverCURP: curp,
		Status:     status,
		AssignedAt: created,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	require.NoError(t, conn.Create(assignment).Error)
	return assignment
}

func TestRepositoryActiveAssignmentLookups(t *testing.T) {
	conn := setupAssignmentsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	newVehicle(t, conn, testVIN)
	active := newAssignment(t, conn, testVIN, curpOne, enums.AssignmentStatusAssigned, time.Now())
	newAssignment(t, conn, testVIN, curpTwo, enums.AssignmentStatusReleased, time.Now().Add(-time.Hour))

	found, err := repo.FindActiveByDriver(ctx, curpOne)
	require.NoError(t, err)
	assert.Equal(t, active.ID, found.ID)

	_, err = repo.FindActiveByDriver(ctx, curpTwo)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	byID, err := repo.FindAssignmentByID(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, curpOne, byID.DriverCURP)
}

func TestRepositoryUniqueActiveIndexes(t *testing.T) {
	conn := setupAssignmentsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	newVehicle(t, conn, testVIN)
	newAssignment(t, conn, testVIN, curpOne, enums.AssignmentStatusAssigned, time.Now())

	// Second live row for the same vehicle.
	err := repo.CreateAssignment(ctx, &models.VehicleAssignment{
		ID:         uuid.New(),
		VehicleVIN: testVIN,
		DriverCURP: curpTwo,
		Status:     enums.AssignmentStatusAssigned,
		AssignedAt: time.Now(),
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "ux_vehicle_assignments_active_vehicle"))

	// Same driver live on another vehicle.
	err = repo.CreateAssignment(ctx, &models.VehicleAssignment{
		ID:         uuid.New(),
		VehicleVIN: "OTHERVIN000000001",
		DriverCURP: curpOne,
		Status:     enums.AssignmentStatusAssigned,
		AssignedAt: time.Now(),
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "ux_vehicle_assignments_active_driver"))

	// Terminal rows do not count against the partial indexes.
	err = repo.CreateAssignment(ctx, &models.VehicleAssignment{
		ID:         uuid.New(),
		VehicleVIN: testVIN,
		DriverCURP: curpTwo,
		Status:     enums.AssignmentStatusReleased,
		AssignedAt: time.Now(),
	})
	assert.NoError(t, err)
}

func TestRepositoryListByStatusAndHistory(t *testing.T) {
	conn := setupAssignmentsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	base := time.Now().Add(-3 * time.Hour).Truncate(time.Second)
	newAssignment(t, conn, "VIN00000000000001", curpOne, enums.AssignmentStatusReleased, base)
	newAssignment(t, conn, "VIN00000000000002", curpOne, enums.AssignmentStatusChanged, base.Add(time.Hour))
	newAssignment(t, conn, "VIN00000000000003", curpOne, enums.AssignmentStatusAssigned, base.Add(2*time.Hour))

	released, err := repo.ListByStatus(ctx, enums.AssignmentStatusReleased)
	require.NoError(t, err)
	require.Len(t, released, 1)
	assert.Equal(t, "VIN00000000000001", released[0].VehicleVIN)

	firstPage, err := repo.List(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, firstPage, 3) // limit+1 buffer row

	cursor := pagination.EncodeCursor(pagination.Cursor{
		CreatedAt: firstPage[1].CreatedAt,
		Key:       firstPage[1].ID.String(),
	})
	secondPage, err := repo.List(ctx, pagination.Params{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, secondPage, 1)
	assert.Equal(t, "VIN00000000000003", secondPage[0].VehicleVIN)
}

func TestRepositoryUpdateVehiclePointer(t *testing.T) {
	conn := setupAssignmentsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	vehicle := newVehicle(t, conn, testVIN)
	assignment := newAssignment(t, conn, testVIN, curpOne, enums.AssignmentStatusAssigned, time.Now())

	vehicle.ActiveAssignmentID = &assignment.ID
	require.NoError(t, repo.UpdateVehicle(ctx, vehicle))

	stored, err := repo.FindVehicleByVIN(ctx, testVIN)
	require.NoError(t, err)
	require.NotNil(t, stored.ActiveAssignmentID)
	assert.Equal(t, assignment.ID, *stored.ActiveAssignmentID)

	vehicle.ActiveAssignmentID = nil
	require.NoError(t, repo.UpdateVehicle(ctx, vehicle))

	stored, err = repo.FindVehicleByVIN(ctx, testVIN)
	require.NoError(t, err)
	assert.Nil(t, stored.ActiveAssignmentID)
}
