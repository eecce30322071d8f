package bids

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

type PlaceBidInput struct {
	OrderID  uuid.UUID
	DriverID uuid.UUID
	Amount   decimal.Decimal
}

type ApproveInput struct {
	BidID         uuid.UUID
	ManagerID     uuid.UUID
	Justification string
}

type BidDTO struct {
	ID            uuid.UUID       `json:"id"`
	OrderID       uuid.UUID       `json:"orderId"`
	DriverID      uuid.UUID       `json:"driverId"`
	Amount        decimal.Decimal `json:"amount"`
	Status        enums.BidStatus `json:"status"`
	Justification *string         `json:"justification,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// AvailableOrder is a ready, unassigned order with its pending bids sorted
// cheapest first.
type AvailableOrder struct {
	OrderID         uuid.UUID       `json:"orderId"`
	CustomerID      uuid.UUID       `json:"customerId"`
	DeliveryAddress string          `json:"deliveryAddress"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	ReadySince      time.Time       `json:"readySince"`
	Bids            []BidDTO        `json:"bids"`
}

func FromModel(bid models.DeliveryBid) BidDTO {
	return BidDTO{
		ID:            bid.ID,
		OrderID:       bid.OrderID,
		DriverID:      bid.DriverID,
		Amount:        bid.Amount,
		Status:        bid.Status,
		Justification: bid.Justification,
		CreatedAt:     bid.CreatedAt,
	}
}

func FromModels(rows []models.DeliveryBid) []BidDTO {
	out := make([]BidDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}
