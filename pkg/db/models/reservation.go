package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

// RestaurantTable is a dine-in table that reservations claim.
type RestaurantTable struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TableNumber     int       `gorm:"column:table_number;not null;uniqueIndex:ux_restaurant_tables_number" json:"tableNumber"`
	SeatingCapacity int       `gorm:"column:seating_capacity;not null" json:"seatingCapacity"`
	IsAvailable     bool      `gorm:"column:is_available;not null" json:"isAvailable"`
}

func (t *RestaurantTable) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}

type Reservation struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CustomerID      uuid.UUID               `gorm:"column:customer_id;type:uuid;not null;index" json:"customerId"`
	TableID         uuid.UUID               `gorm:"column:table_id;type:uuid;not null;index" json:"tableId"`
	ReservationDate time.Time               `gorm:"column:reservation_date;type:date;not null" json:"reservationDate"`
	ReservationTime string                  `gorm:"column:reservation_time;type:varchar(5);not null" json:"reservationTime"`
	DurationMinutes int                     `gorm:"column:duration_minutes;not null" json:"durationMinutes"`
	Guests          int                     `gorm:"column:guests;not null" json:"guests"`
	Status          enums.ReservationStatus `gorm:"column:status;type:reservation_status;not null" json:"status"`
	SpecialRequest  *string                 `gorm:"column:special_request;type:text" json:"specialRequest"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (r *Reservation) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}
