package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chiops/fleetops-backend/api/responses"
	"github.com/chiops/fleetops-backend/api/validators"
	"github.com/chiops/fleetops-backend/internal/vehicles"
	pkgerrors "github.com/chiops/fleetops-backend/pkg/errors"
	"github.com/chiops/fleetops-backend/pkg/logger"
)

// VehicleCreate registers a vehicle from a multipart form: a "vehicle" field
// holding the JSON document and an "image" file with the photo.
func VehicleCreate(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		var payload vehicles.CreateVehicleInput
		if err := validators.DecodeMultipartJSON(r, "vehicle", &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		file, err := validators.ReadFilePart(r, "image")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}
		if file == nil {
			responses.WriteError(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeValidation, "vehicle image is required"))
			return
		}

		dto, err := svc.Create(r.Context(), payload, &vehicles.VehiclePhoto{
			Filename:    file.Filename,
			ContentType: file.ContentType,
			Data:        file.Data,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// VehicleUpdate mutates the updatable fields of an existing vehicle. The VIN
// comes from the path and wins over any VIN in the body.
func VehicleUpdate(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		vin := strings.TrimSpace(chi.URLParam(r, "vin"))
		if vin == "" {
			responses.WriteError(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeValidation, "vehicle vin is required"))
			return
		}

		var payload vehicles.UpdateVehicleInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}
		payload.VIN = vin

		dto, err := svc.Update(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// VehicleByVIN returns a single vehicle by its VIN.
func VehicleByVIN(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		vin := strings.TrimSpace(chi.URLParam(r, "vin"))
		dto, err := svc.GetByVIN(r.Context(), vin)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// VehicleList returns one page of the registry, newest cursor wins.
func VehicleList(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		list, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// VehiclesByModel returns every vehicle registered under the named model.
func VehiclesByModel(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		model := strings.TrimSpace(chi.URLParam(r, "model"))
		dtos, err := svc.ListByModel(r.Context(), model)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		responses.WriteSuccess(w, dtos)
	}
}
