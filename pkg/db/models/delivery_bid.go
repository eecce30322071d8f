package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

// DeliveryBid is a driver's offer to deliver a ready order. A driver holds at
// most one bid per order.
type DeliveryBid struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_delivery_bids_order_driver,priority:1" json:"orderId"`
	DriverID      uuid.UUID       `gorm:"column:driver_id;type:uuid;not null;uniqueIndex:ux_delivery_bids_order_driver,priority:2" json:"driverId"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Status        enums.BidStatus `gorm:"column:status;type:bid_status;not null" json:"status"`
	Justification *string         `gorm:"column:justification;type:text" json:"justification"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (DeliveryBid) TableName() string { return "delivery_bids" }

func (b *DeliveryBid) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}
