package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

// Order is the aggregate root of the ordering lifecycle. PreparedBy and
// DeliveredBy stay nil until a chef accepts and a driver is assigned.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CustomerID      uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index" json:"customerId"`
	PreparedBy      *uuid.UUID        `gorm:"column:prepared_by;type:uuid;index" json:"preparedBy"`
	DeliveredBy     *uuid.UUID        `gorm:"column:delivered_by;type:uuid;index" json:"deliveredBy"`
	DeliveryAddress string            `gorm:"column:delivery_address;type:text;not null" json:"deliveryAddress"`
	Subtotal        decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	Discount        decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null" json:"discount"`
	TotalPrice      decimal.Decimal   `gorm:"column:total_price;type:numeric(12,2);not null" json:"totalPrice"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null;index" json:"status"`
	DeliveryDate    time.Time         `gorm:"column:delivery_date;type:date;not null" json:"deliveryDate"`
	DeliveryTime    string            `gorm:"column:delivery_time;type:varchar(5);not null" json:"deliveryTime"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// OrderItem captures the dish name and price at the time of purchase.
type OrderItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index" json:"orderId"`
	MenuItemID uuid.UUID       `gorm:"column:menu_item_id;type:uuid;not null" json:"menuItemId"`
	Name       string          `gorm:"column:name;type:varchar(120);not null" json:"name"`
	Quantity   int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unitPrice"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// Payment is a write-once audit row of a successful order charge.
type Payment struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index" json:"orderId"`
	PaidBy     uuid.UUID       `gorm:"column:paid_by;type:uuid;not null" json:"paidBy"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Successful bool            `gorm:"column:successful;not null" json:"successful"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// Review is a per-dish rating derived from an order's food rating.
type Review struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null;index" json:"orderId"`
	OrderItemID uuid.UUID `gorm:"column:order_item_id;type:uuid;not null" json:"orderItemId"`
	MenuItemID  uuid.UUID `gorm:"column:menu_item_id;type:uuid;not null;index" json:"menuItemId"`
	CustomerID  uuid.UUID `gorm:"column:customer_id;type:uuid;not null" json:"customerId"`
	Rating      int       `gorm:"column:rating;not null" json:"rating"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}
