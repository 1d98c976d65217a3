package vehicles

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/chiops/fleetops-backend/pkg/db/models"
	pkgerrors "github.com/chiops/fleetops-backend/pkg/errors"
	"github.com/chiops/fleetops-backend/pkg/pagination"
)

const testVIN = "3VWFE21C04M000001"

type stubRepo struct {
	rows      map[string]*VehicleRow
	brands    map[string]*models.Brand
	models    map[string]*models.VehicleModel
	listRows  []VehicleRow
	createErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		rows:   map[string]*VehicleRow{},
		brands: map[string]*models.Brand{},
		models: map[string]*models.VehicleModel{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindByVIN(ctx context.Context, vin string) (*VehicleRow, error) {
	row, ok := s.rows[vin]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (s *stubRepo) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if s.createErr != nil {
		return s.createErr
	}
	vehicle.CreatedAt = time.Now()
	s.rows[vehicle.VIN] = &VehicleRow{Vehicle: *vehicle}
	return nil
}

func (s *stubRepo) Update(ctx context.Context, vehicle *models.Vehicle) error {
	row, ok := s.rows[vehicle.VIN]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.Vehicle = *vehicle
	return nil
}

func (s *stubRepo) List(ctx context.Context, params pagination.Params) ([]VehicleRow, error) {
	return s.listRows, nil
}

func (s *stubRepo) ListByModel(ctx context.Context, modelName string) ([]VehicleRow, error) {
	var rows []VehicleRow
	for _, row := range s.rows {
		if row.ModelName == modelName {
			rows = append(rows, *row)
		}
	}
	return rows, nil
}

func (s *stubRepo) FindOrCreateBrand(ctx context.Context, name string) (*models.Brand, error) {
	if brand, ok := s.brands[name]; ok {
		return brand, nil
	}
	brand := &models.Brand{ID: uuid.New(), Name: name}
	s.brands[name] = brand
	return brand, nil
}

func (s *stubRepo) FindModelByName(ctx context.Context, name string) (*models.VehicleModel, error) {
	if model, ok := s.models[name]; ok {
		return model, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindOrCreateModel(ctx context.Context, brandID uuid.UUID, name string) (*models.VehicleModel, error) {
	if model, ok := s.models[name]; ok {
		return model, nil
	}
	model := &models.VehicleModel{ID: uuid.New(), BrandID: brandID, Name: name}
	s.models[name] = model
	return model, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubImages struct {
	uploads map[string]string
	err     error
}

func (s *stubImages) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	url := "https://storage.googleapis.com/fleet-media/" + key
	if s.uploads == nil {
		s.uploads = map[string]string{}
	}
	s.uploads[key] = url
	return url, nil
}

func newTestService(t *testing.T, repo *stubRepo, images *stubImages) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, images)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected tagged error, got %v", err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code(), err)
	}
}

func validCreateInput() CreateVehicleInput {
	return CreateVehicleInput{
		VIN:              testVIN,
		Brand:            "Volkswagen",
		Model:            "Jetta",
		Plate:            "NXT-4821",
		RegistrationDate: time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC),
		PurchaseDate:     time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC),
		Cost:             decimal.NewFromInt(24500),
	}
}

func validPhoto() *VehiclePhoto {
	return &VehiclePhoto{Filename: "front.png", ContentType: "image/png", Data: []byte{0x89, 0x50}}
}

func TestCreateVehicle(t *testing.T) {
	repo := newStubRepo()
	images := &stubImages{}
	svc := newTestService(t, repo, images)

	dto, err := svc.Create(context.Background(), validCreateInput(), validPhoto())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.VIN != testVIN {
		t.Fatalf("expected vin %s, got %s", testVIN, dto.VIN)
	}
	if dto.Brand != "Volkswagen" || dto.Model != "Jetta" {
		t.Fatalf("unexpected brand/model: %s / %s", dto.Brand, dto.Model)
	}
	if dto.AssignmentStatus != "unassigned" {
		t.Fatalf("expected new vehicle unassigned, got %s", dto.AssignmentStatus)
	}

	wantKey := "vehicles/" + testVIN + ".png"
	if _, ok := images.uploads[wantKey]; !ok {
		t.Fatalf("expected photo upload under %s, got %v", wantKey, images.uploads)
	}
	if dto.PhotoURL == nil || *dto.PhotoURL != "https://storage.googleapis.com/fleet-media/"+wantKey {
		t.Fatalf("unexpected photo url: %v", dto.PhotoURL)
	}
}

func TestCreateDuplicateVIN(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubImages{})

	if _, err := svc.Create(context.Background(), validCreateInput(), validPhoto()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(context.Background(), validCreateInput(), validPhoto())
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestCreateRequiresPhoto(t *testing.T) {
	svc := newTestService(t, newStubRepo(), &stubImages{})

	_, err := svc.Create(context.Background(), validCreateInput(), nil)
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(context.Background(), validCreateInput(), &VehiclePhoto{Filename: "empty.png"})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateUploadFailure(t *testing.T) {
	images := &stubImages{err: errors.New("bucket unavailable")}
	svc := newTestService(t, newStubRepo(), images)

	_, err := svc.Create(context.Background(), validCreateInput(), validPhoto())
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateUniqueViolationMapsToConflict(t *testing.T) {
	repo := newStubRepo()
	repo.createErr = errors.New(`duplicate key value violates unique constraint "vehicles_pkey"`)
	svc := newTestService(t, repo, &stubImages{})

	_, err := svc.Create(context.Background(), validCreateInput(), validPhoto())
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestUpdateVehicle(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubImages{})

	if _, err := svc.Create(context.Background(), validCreateInput(), validPhoto()); err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
	repo.rows[testVIN].BrandName = "Volkswagen"
	repo.rows[testVIN].ModelName = "Jetta"

	plate := "QRT-9921"
	cost := decimal.NewFromInt(23000)
	dto, err := svc.Update(context.Background(), UpdateVehicleInput{
		VIN:   testVIN,
		Plate: &plate,
		Cost:  &cost,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.Plate != plate {
		t.Fatalf("expected plate %s, got %s", plate, dto.Plate)
	}
	if !dto.Cost.Equal(cost) {
		t.Fatalf("expected cost %s, got %s", cost, dto.Cost)
	}
	if dto.Brand != "Volkswagen" {
		t.Fatalf("untouched brand should survive, got %s", dto.Brand)
	}
}

func TestUpdateUnknownVehicle(t *testing.T) {
	svc := newTestService(t, newStubRepo(), &stubImages{})

	plate := "QRT-9921"
	_, err := svc.Update(context.Background(), UpdateVehicleInput{VIN: testVIN, Plate: &plate})
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestGetByVIN(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubImages{})

	_, err := svc.GetByVIN(context.Background(), testVIN)
	requireCode(t, err, pkgerrors.CodeNotFound)

	if _, err := svc.Create(context.Background(), validCreateInput(), validPhoto()); err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
	dto, err := svc.GetByVIN(context.Background(), testVIN)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dto.VIN != testVIN {
		t.Fatalf("expected vin %s, got %s", testVIN, dto.VIN)
	}
}

func TestListEmptyRegistry(t *testing.T) {
	svc := newTestService(t, newStubRepo(), &stubImages{})

	_, err := svc.List(context.Background(), pagination.Params{})
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestListRejectsMalformedCursor(t *testing.T) {
	svc := newTestService(t, newStubRepo(), &stubImages{})

	_, err := svc.List(context.Background(), pagination.Params{Cursor: "not-base64!!"})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestListPagination(t *testing.T) {
	repo := newStubRepo()
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		vin := fmt.Sprintf("VIN0000000000000%d", i+1)
		repo.listRows = append(repo.listRows, VehicleRow{
			Vehicle:   models.Vehicle{VIN: vin, CreatedAt: base.Add(time.Duration(i) * time.Minute)},
			BrandName: "Volkswagen",
			ModelName: "Jetta",
		})
	}
	svc := newTestService(t, repo, &stubImages{})

	page, err := svc.List(context.Background(), pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	if page.NextCursor == nil {
		t.Fatal("expected next cursor for the remaining row")
	}
	cursor, err := pagination.ParseCursor(*page.NextCursor)
	if err != nil {
		t.Fatalf("parse next cursor: %v", err)
	}
	if cursor.Key != "VIN00000000000002" {
		t.Fatalf("expected cursor keyed by last returned vin, got %s", cursor.Key)
	}
}

func TestListByModel(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubImages{})

	_, err := svc.ListByModel(context.Background(), "Jetta")
	requireCode(t, err, pkgerrors.CodeNotFound)

	if _, err := svc.Create(context.Background(), validCreateInput(), validPhoto()); err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
	repo.rows[testVIN].BrandName = "Volkswagen"
	repo.rows[testVIN].ModelName = "Jetta"

	dtos, err := svc.ListByModel(context.Background(), "Jetta")
	if err != nil {
		t.Fatalf("list by model: %v", err)
	}
	if len(dtos) != 1 || dtos[0].VIN != testVIN {
		t.Fatalf("unexpected result: %+v", dtos)
	}

	// Known model with no remaining vehicles.
	delete(repo.rows, testVIN)
	_, err = svc.ListByModel(context.Background(), "Jetta")
	requireCode(t, err, pkgerrors.CodeNotFound)
}
