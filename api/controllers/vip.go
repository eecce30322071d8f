package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/sdfoods/restaurant-backend/api/responses"
	"github.com/sdfoods/restaurant-backend/internal/vip"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
)

type vipDecision func(ctx context.Context, requestID, managerID uuid.UUID) (*models.VIPRequest, error)

// RequestVIP files a VIP upgrade request for the calling customer.
func RequestVIP(svc vip.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vip service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := svc.Request(r.Context(), caller.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, req)
	}
}

func PendingVIPRequests(svc vip.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vip service unavailable"))
			return
		}

		rows, err := svc.ListPending(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func ApproveVIP(svc vip.Service, logg *logger.Logger) http.HandlerFunc {
	return decideVIP(svc, logg, func(s vip.Service) vipDecision { return s.Approve })
}

func RejectVIP(svc vip.Service, logg *logger.Logger) http.HandlerFunc {
	return decideVIP(svc, logg, func(s vip.Service) vipDecision { return s.Reject })
}

func decideVIP(svc vip.Service, logg *logger.Logger, pick func(vip.Service) vipDecision) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vip service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := uuidParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := pick(svc)(r.Context(), requestID, caller.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

// DemoteVIP strips VIP status from a customer.
func DemoteVIP(svc vip.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vip service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := uuidParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Demote(r.Context(), customerID, caller.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"demoted": true})
	}
}
