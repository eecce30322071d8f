package reservations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sdfoods/restaurant-backend/internal/repo"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

func (r *Repository) FindTable(ctx context.Context, id uuid.UUID) (*models.RestaurantTable, error) {
	var table models.RestaurantTable
	if err := r.DB(ctx).First(&table, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *Repository) ListTables(ctx context.Context, availableOnly bool) ([]models.RestaurantTable, error) {
	query := r.DB(ctx).Order("table_number ASC")
	if availableOnly {
		query = query.Where("is_available = ?", true)
	}
	var tables []models.RestaurantTable
	err := query.Find(&tables).Error
	return tables, err
}

// ClaimTable flips an available table to taken. False means someone else
// holds it.
func (r *Repository) ClaimTable(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Model(&models.RestaurantTable{}).
		Where("id = ? AND is_available = ?", id, true).
		Update("is_available", false)
	return res.RowsAffected == 1, res.Error
}

func (r *Repository) ReleaseTable(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.RestaurantTable{}).
		Where("id = ?", id).
		Update("is_available", true).Error
}

func (r *Repository) Create(ctx context.Context, reservation *models.Reservation) error {
	return r.DB(ctx).Create(reservation).Error
}

func (r *Repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&reservation, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// Cancel moves a live reservation to cancelled.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND status <> ?", id, enums.ReservationStatusCancelled).
		Update("status", enums.ReservationStatusCancelled)
	return res.RowsAffected == 1, res.Error
}

// View is a reservation joined with its table and customer.
type View struct {
	ID              uuid.UUID               `gorm:"column:id" json:"id"`
	CustomerID      uuid.UUID               `gorm:"column:customer_id" json:"customerId"`
	CustomerName    string                  `gorm:"column:customer_name" json:"customerName"`
	TableID         uuid.UUID               `gorm:"column:table_id" json:"tableId"`
	TableNumber     int                     `gorm:"column:table_number" json:"tableNumber"`
	SeatingCapacity int                     `gorm:"column:seating_capacity" json:"seatingCapacity"`
	ReservationDate time.Time               `gorm:"column:reservation_date" json:"reservationDate"`
	ReservationTime string                  `gorm:"column:reservation_time" json:"reservationTime"`
	DurationMinutes int                     `gorm:"column:duration_minutes" json:"durationMinutes"`
	Guests          int                     `gorm:"column:guests" json:"guests"`
	Status          enums.ReservationStatus `gorm:"column:status" json:"status"`
	SpecialRequest  *string                 `gorm:"column:special_request" json:"specialRequest,omitempty"`
	CreatedAt       time.Time               `gorm:"column:created_at" json:"createdAt"`
}

// List returns the customer's reservations, or everyone's when customerID is nil.
func (r *Repository) List(ctx context.Context, customerID *uuid.UUID) ([]View, error) {
	query := r.DB(ctx).
		Table("reservations AS r").
		Select(`r.id, r.customer_id, u.name AS customer_name, r.table_id,
			t.table_number, t.seating_capacity, r.reservation_date, r.reservation_time,
			r.duration_minutes, r.guests, r.status, r.special_request, r.created_at`).
		Joins("JOIN restaurant_tables AS t ON t.id = r.table_id").
		Joins("JOIN users AS u ON u.id = r.customer_id").
		Order("r.reservation_date DESC").
		Order("r.reservation_time DESC")
	if customerID != nil {
		query = query.Where("r.customer_id = ?", *customerID)
	}
	var rows []View
	err := query.Scan(&rows).Error
	return rows, err
}
