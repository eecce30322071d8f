package enums

import "fmt"

// OrderStatus maps to the order_status enum in Postgres.
type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "Pending"
	OrderStatusPreparing        OrderStatus = "Preparing"
	OrderStatusReadyForDelivery OrderStatus = "Ready for Delivery"
	OrderStatusOutForDelivery   OrderStatus = "Out for Delivery"
	OrderStatusDelivered        OrderStatus = "Delivered"
	OrderStatusCancelled        OrderStatus = "Cancelled"
)

var validOrderStatuss = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusReadyForDelivery,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// IsValid reports whether the value matches the canonical order_status enum.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuss {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuss {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// IsTerminal reports whether no further transition leaves the status.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusDelivered || o == OrderStatusCancelled
}
