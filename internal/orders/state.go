package orders

import "github.com/sdfoods/restaurant-backend/pkg/enums"

// Event is an action applied to an order.
type Event string

const (
	EventAccept   Event = "accept"
	EventComplete Event = "complete"
	EventReject   Event = "reject"
	EventPickup   Event = "pickup"
	EventDeliver  Event = "deliver"
)

type transitionKey struct {
	from  enums.OrderStatus
	event Event
}

var transitions = map[transitionKey]enums.OrderStatus{
	{enums.OrderStatusPending, EventAccept}:          enums.OrderStatusPreparing,
	{enums.OrderStatusPreparing, EventComplete}:      enums.OrderStatusReadyForDelivery,
	{enums.OrderStatusPending, EventReject}:          enums.OrderStatusCancelled,
	{enums.OrderStatusPreparing, EventReject}:        enums.OrderStatusCancelled,
	{enums.OrderStatusReadyForDelivery, EventPickup}: enums.OrderStatusOutForDelivery,
	{enums.OrderStatusOutForDelivery, EventDeliver}:  enums.OrderStatusDelivered,
}

// CanTransition returns the status an order moves to when event is applied in
// status from, and false when the move is not allowed.
func CanTransition(from enums.OrderStatus, event Event) (enums.OrderStatus, bool) {
	to, ok := transitions[transitionKey{from: from, event: event}]
	return to, ok
}

// sourcesFor lists every status event may be applied from.
func sourcesFor(event Event) []enums.OrderStatus {
	var out []enums.OrderStatus
	for key := range transitions {
		if key.event == event {
			out = append(out, key.from)
		}
	}
	return out
}

// assigneeRole is the role the acting employee must currently hold.
func assigneeRole(event Event) enums.UserRole {
	switch event {
	case EventPickup, EventDeliver:
		return enums.UserRoleDriver
	default:
		return enums.UserRoleChef
	}
}

func eventFor(event Event) enums.OutboxEventType {
	switch event {
	case EventAccept:
		return enums.EventOrderAccepted
	case EventComplete:
		return enums.EventOrderReady
	case EventPickup:
		return enums.EventOrderPickedUp
	case EventDeliver:
		return enums.EventOrderDelivered
	default:
		return enums.EventOrderCancelled
	}
}
