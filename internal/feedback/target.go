package feedback

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/orders"
	"github.com/sdfoods/restaurant-backend/internal/users"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
)

// Target names who a piece of feedback is about. Each variant knows how to
// find the user behind it.
type Target interface {
	Kind() enums.FeedbackTargetKind
	OrderID() *uuid.UUID
	resolve(ctx context.Context, r resolver) (uuid.UUID, error)
}

// ChefTarget points at whoever prepared the order.
func ChefTarget(orderID uuid.UUID) Target { return chefTarget{orderID: orderID} }

// DeliveryTarget points at the driver assigned to the order.
func DeliveryTarget(orderID uuid.UUID) Target { return deliveryTarget{orderID: orderID} }

// CustomerTarget points at a customer directly. orderID is optional context.
func CustomerTarget(userID uuid.UUID, orderID *uuid.UUID) Target {
	return customerTarget{userID: userID, orderID: orderID}
}

// ParseTarget builds a target from its wire form.
func ParseTarget(kind string, targetID, orderID *uuid.UUID) (Target, error) {
	parsed, err := enums.ParseFeedbackTargetKind(kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target type")
	}
	switch parsed {
	case enums.FeedbackTargetChef, enums.FeedbackTargetDelivery:
		if orderID == nil || *orderID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required for chef and delivery feedback")
		}
		if parsed == enums.FeedbackTargetChef {
			return ChefTarget(*orderID), nil
		}
		return DeliveryTarget(*orderID), nil
	default:
		if targetID == nil || *targetID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "target id required for customer feedback")
		}
		return CustomerTarget(*targetID, orderID), nil
	}
}

// resolver carries the repositories bound to the caller's transaction.
type resolver struct {
	orders orders.Repository
	users  *users.Repository
}

type chefTarget struct{ orderID uuid.UUID }

func (chefTarget) Kind() enums.FeedbackTargetKind { return enums.FeedbackTargetChef }
func (t chefTarget) OrderID() *uuid.UUID { return &t.orderID }

// resolve falls back to any active chef when nobody accepted the order yet and
// records that chef on the order.
func (t chefTarget) resolve(ctx context.Context, r resolver) (uuid.UUID, error) {
	order, err := loadOrder(ctx, r, t.orderID)
	if err != nil {
		return uuid.Nil, err
	}
	if order.PreparedBy != nil {
		return *order.PreparedBy, nil
	}

	chef, err := r.users.FindActiveByRole(ctx, enums.UserRoleChef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "no chef available for this order")
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find chef")
	}
	if _, err := r.orders.AssignChefIfUnset(ctx, order.ID, chef.ID); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign chef")
	}
	reloaded, err := loadOrder(ctx, r, t.orderID)
	if err != nil {
		return uuid.Nil, err
	}
	if reloaded.PreparedBy == nil {
		return chef.ID, nil
	}
	return *reloaded.PreparedBy, nil
}

type deliveryTarget struct{ orderID uuid.UUID }

func (deliveryTarget) Kind() enums.FeedbackTargetKind { return enums.FeedbackTargetDelivery }
func (t deliveryTarget) OrderID() *uuid.UUID { return &t.orderID }

func (t deliveryTarget) resolve(ctx context.Context, r resolver) (uuid.UUID, error) {
	order, err := loadOrder(ctx, r, t.orderID)
	if err != nil {
		return uuid.Nil, err
	}
	if order.DeliveredBy == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNoDriverAssigned, "order has no assigned driver")
	}
	return *order.DeliveredBy, nil
}

type customerTarget struct {
	userID  uuid.UUID
	orderID *uuid.UUID
}

func (customerTarget) Kind() enums.FeedbackTargetKind { return enums.FeedbackTargetCustomer }
func (t customerTarget) OrderID() *uuid.UUID { return t.orderID }

func (t customerTarget) resolve(ctx context.Context, r resolver) (uuid.UUID, error) {
	user, err := r.users.FindByID(ctx, t.userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "target user not found")
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load target user")
	}
	return user.ID, nil
}

func loadOrder(ctx context.Context, r resolver, id uuid.UUID) (*models.Order, error) {
	order, err := r.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
