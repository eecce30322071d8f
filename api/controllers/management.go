package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/sdfoods/restaurant-backend/api/responses"
	"github.com/sdfoods/restaurant-backend/internal/management"
	"github.com/sdfoods/restaurant-backend/internal/users"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
)

type staffAction func(ctx context.Context, managerID, userID uuid.UUID) (*users.UserDTO, error)

func ManagerStats(svc management.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "management service unavailable"))
			return
		}

		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func ManagerEmployees(svc management.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "management service unavailable"))
			return
		}

		rows, err := svc.Employees(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func ManagerCustomers(svc management.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "management service unavailable"))
			return
		}

		rows, err := svc.Customers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func PromoteEmployee(svc management.Service, logg *logger.Logger) http.HandlerFunc {
	return manageUser(svc, logg, "employeeId", func(s management.Service) staffAction { return s.Promote })
}

func DemoteEmployee(svc management.Service, logg *logger.Logger) http.HandlerFunc {
	return manageUser(svc, logg, "employeeId", func(s management.Service) staffAction { return s.Demote })
}

func FireEmployee(svc management.Service, logg *logger.Logger) http.HandlerFunc {
	return manageUser(svc, logg, "employeeId", func(s management.Service) staffAction { return s.Fire })
}

func DeregisterCustomer(svc management.Service, logg *logger.Logger) http.HandlerFunc {
	return manageUser(svc, logg, "customerId", func(s management.Service) staffAction { return s.Deregister })
}

func manageUser(svc management.Service, logg *logger.Logger, param string, pick func(management.Service) staffAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "management service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := uuidParam(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := pick(svc)(r.Context(), caller.ID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}
