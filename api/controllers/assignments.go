package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chiops/fleetops-backend/api/responses"
	"github.com/chiops/fleetops-backend/api/validators"
	"github.com/chiops/fleetops-backend/internal/assignments"
	pkgerrors "github.com/chiops/fleetops-backend/pkg/errors"
	"github.com/chiops/fleetops-backend/pkg/logger"
)

// AssignmentCreate binds a driver to a vehicle.
func AssignmentCreate(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeInternal, "assignment service unavailable"))
			return
		}

		var payload assignments.AssignInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		dto, err := svc.Assign(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// AssignmentRelease frees a vehicle from its current driver.
func AssignmentRelease(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeInternal, "assignment service unavailable"))
			return
		}

		var payload assignments.ReleaseInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		dto, err := svc.Release(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// AssignmentChangeDriver swaps the driver bound to a vehicle in one step.
func AssignmentChangeDriver(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeInternal, "assignment service unavailable"))
			return
		}

		var payload assignments.ChangeDriverInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		dto, err := svc.ChangeDriver(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// AssignmentsByStatus returns every ledger row in the requested state.
func AssignmentsByStatus(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeInternal, "assignment service unavailable"))
			return
		}

		status := strings.TrimSpace(chi.URLParam(r, "status"))
		dtos, err := svc.FindByStatus(r.Context(), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		responses.WriteSuccess(w, dtos)
	}
}

// AssignmentHistory returns one page of the full assignment ledger.
func AssignmentHistory(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeInternal, "assignment service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		list, err := svc.History(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// AssignmentByVIN returns the live assignment for the vehicle, if any.
func AssignmentByVIN(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeInternal, "assignment service unavailable"))
			return
		}

		vin := strings.TrimSpace(chi.URLParam(r, "vin"))
		dto, err := svc.FindByVIN(r.Context(), vin)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}
