package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

// OrderPlacedEvent is emitted once the order, its items and the charge commit.
type OrderPlacedEvent struct {
	OrderID    uuid.UUID       `json:"order_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ItemCount  int             `json:"item_count"`
	IsVIP      bool            `json:"is_vip"`
	PlacedAt   time.Time       `json:"placed_at"`
}

// OrderStatusChangedEvent covers the forward transitions of the lifecycle:
// accepted, ready, picked up and delivered.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	From       enums.OrderStatus `json:"from"`
	To         enums.OrderStatus `json:"to"`
	ActorID    *uuid.UUID        `json:"actor_id,omitempty"`
	ChangedAt  time.Time         `json:"changed_at"`
}

// OrderCancelledEvent reports a chef rejection and the refund that followed.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	CustomerID  uuid.UUID         `json:"customer_id"`
	From        enums.OrderStatus `json:"from"`
	Refunded    decimal.Decimal   `json:"refunded"`
	CancelledBy *uuid.UUID        `json:"cancelled_by,omitempty"`
	CancelledAt time.Time         `json:"cancelled_at"`
}

// BidApprovedEvent is emitted when a manager assigns a driver to an order.
type BidApprovedEvent struct {
	BidID          uuid.UUID       `json:"bid_id"`
	OrderID        uuid.UUID       `json:"order_id"`
	DriverID       uuid.UUID       `json:"driver_id"`
	Amount         decimal.Decimal `json:"amount"`
	LowestAmount   decimal.Decimal `json:"lowest_amount"`
	Justification  string          `json:"justification,omitempty"`
	RejectedBidIDs []uuid.UUID     `json:"rejected_bid_ids"`
	ApprovedAt     time.Time       `json:"approved_at"`
}

// WalletDepositedEvent is emitted after a customer tops up their balance.
type WalletDepositedEvent struct {
	UserID      uuid.UUID       `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Balance     decimal.Decimal `json:"balance"`
	DepositedAt time.Time       `json:"deposited_at"`
}
