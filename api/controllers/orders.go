package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sdfoods/restaurant-backend/api/responses"
	"github.com/sdfoods/restaurant-backend/api/validators"
	"github.com/sdfoods/restaurant-backend/internal/orders"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
)

type placeOrderRequest struct {
	CustomerID      *uuid.UUID         `json:"customerId"`
	Items           []orders.ItemInput `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress string             `json:"deliveryAddress" validate:"required,max=500"`
	TotalAmount     decimal.Decimal    `json:"totalAmount"`
}

type placeOrderResponse struct {
	OrderID uuid.UUID       `json:"orderId"`
	Order   orders.OrderDTO `json:"order"`
}

// transitionRequest carries the optional acting employee id. Staff may supply
// another employee's id to act on their behalf.
type transitionRequest struct {
	ChefID   *uuid.UUID `json:"chefId"`
	DriverID *uuid.UUID `json:"driverId"`
}

type transitionFunc func(ctx context.Context, input orders.TransitionInput) (*models.Order, error)

// PlaceOrder debits the customer's wallet and records a pending order.
func PlaceOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body placeOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := subjectFor(caller, body.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), orders.PlaceOrderInput{
			CustomerID:      customerID,
			Items:           body.Items,
			DeliveryAddress: validators.SanitizeString(body.DeliveryAddress, 500),
			TotalAmount:     body.TotalAmount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, placeOrderResponse{
			OrderID: order.ID,
			Order:   orders.FromModel(*order),
		})
	}
}

// GetOrder returns one order when the caller may see it.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
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

		order, err := svc.Get(r.Context(), orderID, caller.ID, caller.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.FromModel(*order))
	}
}

// OrderHistory pages through the caller's orders, newest first.
func OrderHistory(svc orders.Service, defaultLimit int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r, defaultLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.History(r.Context(), caller.ID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"items":      orders.FromModels(page.Items),
			"nextCursor": page.NextCursor,
		})
	}
}

// ChefQueue lists orders waiting on the kitchen.
func ChefQueue(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		rows, err := svc.ChefQueue(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.FromModels(rows))
	}
}

// DriverAssignedOrders lists the caller's approved deliveries.
func DriverAssignedOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.DriverAssigned(r.Context(), caller.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.FromModels(rows))
	}
}

func ChefAccept(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc, logg, enums.UserRoleChef, func(s orders.Service) transitionFunc { return s.Accept })
}

func ChefComplete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc, logg, enums.UserRoleChef, func(s orders.Service) transitionFunc { return s.Complete })
}

func ChefReject(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc, logg, enums.UserRoleChef, func(s orders.Service) transitionFunc { return s.Reject })
}

func DriverPickup(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc, logg, enums.UserRoleDriver, func(s orders.Service) transitionFunc { return s.Pickup })
}

func DriverDeliver(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc, logg, enums.UserRoleDriver, func(s orders.Service) transitionFunc { return s.Deliver })
}

func orderTransition(svc orders.Service, logg *logger.Logger, role enums.UserRole, pick func(orders.Service) transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
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

		var body transitionRequest
		if err := decodeOptionalBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplied := body.ChefID
		if role == enums.UserRoleDriver {
			supplied = body.DriverID
		}
		subject, err := subjectFor(caller, supplied)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := pick(svc)(r.Context(), orders.TransitionInput{
			OrderID: orderID,
			ActorID: subject,
			Role:    roleFor(caller, subject, role),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.FromModel(*order))
	}
}
