package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sdfoods/restaurant-backend/api/responses"
	"github.com/sdfoods/restaurant-backend/api/validators"
	"github.com/sdfoods/restaurant-backend/internal/bids"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
)

type placeBidRequest struct {
	DriverID  *uuid.UUID      `json:"driverId"`
	BidAmount decimal.Decimal `json:"bidAmount"`
}

type approveBidRequest struct {
	Justification string `json:"justification" validate:"max=2000"`
}

// AvailableOrders lists ready orders with no approved driver, plus their bids.
func AvailableOrders(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bids service unavailable"))
			return
		}

		rows, err := svc.ListAvailableOrders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func PlaceBid(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bids service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body placeBidRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		driverID, err := subjectFor(caller, body.DriverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bid, err := svc.PlaceBid(r.Context(), bids.PlaceBidInput{
			OrderID:  orderID,
			DriverID: driverID,
			Amount:   body.BidAmount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bids.FromModel(*bid))
	}
}

func PendingBids(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bids service unavailable"))
			return
		}

		rows, err := svc.ListPendingBids(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bids.FromModels(rows))
	}
}

// ApproveBid assigns the bid's driver. Picking anything but the lowest bid
// needs a justification.
func ApproveBid(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bids service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bidID, err := uuidParam(r, "bidId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body approveBidRequest
		if err := decodeOptionalBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bid, err := svc.ApproveBid(r.Context(), bids.ApproveInput{
			BidID:         bidID,
			ManagerID:     caller.ID,
			Justification: validators.SanitizeString(body.Justification, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bids.FromModel(*bid))
	}
}

func RejectBid(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bids service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bidID, err := uuidParam(r, "bidId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bid, err := svc.RejectBid(r.Context(), bidID, caller.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bids.FromModel(*bid))
	}
}
