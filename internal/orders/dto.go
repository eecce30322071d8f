package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

// ItemInput is one dish line of a new order. Price is what the client showed
// the customer; the charged price always comes from the menu.
type ItemInput struct {
	DishID   uuid.UUID       `json:"dishId" validate:"required"`
	Quantity int             `json:"quantity" validate:"required,gt=0"`
	Price    decimal.Decimal `json:"price"`
}

// PlaceOrderInput carries a checkout request.
type PlaceOrderInput struct {
	CustomerID      uuid.UUID
	Items           []ItemInput
	DeliveryAddress string
	TotalAmount     decimal.Decimal
}

// TransitionInput identifies the order and the staff member acting on it.
type TransitionInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	Role    enums.UserRole
}

// OrderDTO is the API representation of an order.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	CustomerID      uuid.UUID         `json:"customerId"`
	PreparedBy      *uuid.UUID        `json:"preparedBy,omitempty"`
	DeliveredBy     *uuid.UUID        `json:"deliveredBy,omitempty"`
	DeliveryAddress string            `json:"deliveryAddress"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	Discount        decimal.Decimal   `json:"discount"`
	TotalPrice      decimal.Decimal   `json:"totalPrice"`
	Status          enums.OrderStatus `json:"status"`
	DeliveryDate    string            `json:"deliveryDate"`
	DeliveryTime    string            `json:"deliveryTime"`
	CreatedAt       time.Time         `json:"createdAt"`
	Items           []OrderItemDTO    `json:"items"`
}

type OrderItemDTO struct {
	ID         uuid.UUID       `json:"id"`
	MenuItemID uuid.UUID       `json:"dishId"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
}

// FromModel maps a persisted order, including any preloaded items.
func FromModel(order models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              order.ID,
		CustomerID:      order.CustomerID,
		PreparedBy:      order.PreparedBy,
		DeliveredBy:     order.DeliveredBy,
		DeliveryAddress: order.DeliveryAddress,
		Subtotal:        order.Subtotal,
		Discount:        order.Discount,
		TotalPrice:      order.TotalPrice,
		Status:          order.Status,
		DeliveryDate:    order.DeliveryDate.Format(time.DateOnly),
		DeliveryTime:    order.DeliveryTime,
		CreatedAt:       order.CreatedAt,
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:         item.ID,
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		})
	}
	return dto
}

// FromModels maps a list of orders.
func FromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}
