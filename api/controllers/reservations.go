package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sdfoods/restaurant-backend/api/responses"
	"github.com/sdfoods/restaurant-backend/api/validators"
	"github.com/sdfoods/restaurant-backend/internal/reservations"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
)

type reservationRequest struct {
	CustomerID      *uuid.UUID `json:"customerId"`
	TableID         uuid.UUID  `json:"tableId" validate:"required"`
	Date            string     `json:"reservationDate" validate:"required"`
	Time            string     `json:"reservationTime" validate:"required"`
	DurationMinutes int        `json:"durationMinutes" validate:"omitempty,min=15,max=480"`
	Guests          int        `json:"guests" validate:"required,min=1"`
	SpecialRequest  string     `json:"specialRequest" validate:"max=500"`
}

func CreateReservation(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservations service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body reservationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := subjectFor(caller, body.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := time.Parse(time.DateOnly, strings.TrimSpace(body.Date))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reservationDate must be YYYY-MM-DD"))
			return
		}

		row, err := svc.Create(r.Context(), reservations.CreateInput{
			CustomerID:      customerID,
			TableID:         body.TableID,
			Date:            date,
			Time:            strings.TrimSpace(body.Time),
			DurationMinutes: body.DurationMinutes,
			Guests:          body.Guests,
			SpecialRequest:  validators.SanitizeString(body.SpecialRequest, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

// ListReservations returns the caller's reservations, or every reservation for staff.
func ListReservations(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservations service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), caller.ID, caller.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func CancelReservation(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservations service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuidParam(r, "reservationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Cancel(r.Context(), id, caller.ID, caller.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// ListTables returns the dining tables; ?available=true hides claimed ones.
func ListTables(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservations service unavailable"))
			return
		}

		availableOnly := false
		if raw := strings.TrimSpace(r.URL.Query().Get("available")); raw != "" {
			value, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid available value"))
				return
			}
			availableOnly = value
		}

		rows, err := svc.Tables(r.Context(), availableOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
