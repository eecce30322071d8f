package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sdfoods/restaurant-backend/internal/repo"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	"github.com/sdfoods/restaurant-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Transition(ctx context.Context, id uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus, guard Guard, extra map[string]any) (bool, error)
	ClaimForPickup(ctx context.Context, id, driverID uuid.UUID) (bool, error)
	AssignChefIfUnset(ctx context.Context, id, chefID uuid.UUID) (bool, error)
	AssignDriverIfUnset(ctx context.Context, id, driverID uuid.UUID) (bool, error)
	ListReadyUnassigned(ctx context.Context) ([]models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	ListByStatuses(ctx context.Context, statuses []enums.OrderStatus) ([]models.Order, error)
	ListAssignedToDriver(ctx context.Context, driverID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error)
}

// Guard narrows a transition to orders whose staff columns match.
type Guard struct {
	PreparedBy         *uuid.UUID
	DeliveredBy        *uuid.UUID
	RequireDeliveredBy bool
}

type repository struct {
	repo.Base
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

// Create inserts the order together with its items.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Transition moves the order to status to in one conditional statement and
// reports whether the row qualified.
func (r *repository) Transition(ctx context.Context, id uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus, guard Guard, extra map[string]any) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for key, value := range extra {
		updates[key] = value
	}

	query := r.DB(ctx).Model(&models.Order{}).Where("id = ? AND status IN ?", id, from)
	if guard.PreparedBy != nil {
		query = query.Where("(prepared_by IS NULL OR prepared_by = ?)", *guard.PreparedBy)
	}
	if guard.RequireDeliveredBy {
		query = query.Where("delivered_by IS NOT NULL")
	}
	if guard.DeliveredBy != nil {
		query = query.Where("delivered_by = ?", *guard.DeliveredBy)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ClaimForPickup assigns the driver unless another driver already holds the
// order. Exactly one concurrent caller wins.
func (r *repository) ClaimForPickup(ctx context.Context, id, driverID uuid.UUID) (bool, error) {
	result := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, enums.OrderStatusReadyForDelivery).
		Where("(delivered_by IS NULL OR delivered_by = ?)", driverID).
		Updates(map[string]any{
			"status":       enums.OrderStatusOutForDelivery,
			"delivered_by": gorm.Expr("COALESCE(delivered_by, ?)", driverID),
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) AssignChefIfUnset(ctx context.Context, id, chefID uuid.UUID) (bool, error) {
	result := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND prepared_by IS NULL", id).
		Updates(map[string]any{"prepared_by": chefID, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AssignDriverIfUnset records the approved driver while the order still waits
// for one.
func (r *repository) AssignDriverIfUnset(ctx context.Context, id, driverID uuid.UUID) (bool, error) {
	result := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND delivered_by IS NULL", id, enums.OrderStatusReadyForDelivery).
		Updates(map[string]any{"delivered_by": driverID, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListReadyUnassigned returns the orders drivers may bid on, oldest first.
func (r *repository) ListReadyUnassigned(ctx context.Context) ([]models.Order, error) {
	var rows []models.Order
	err := r.DB(ctx).
		Where("status = ? AND delivered_by IS NULL", enums.OrderStatusReadyForDelivery).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.DB(ctx).Model(&models.Order{}).Preload("Items").Where("customer_id = ?", customerID)
	var rows []models.Order
	err := pagination.NewestFirst(query, cursor, limit).Find(&rows).Error
	return rows, err
}

// ListByStatuses returns matching orders oldest first.
func (r *repository) ListByStatuses(ctx context.Context, statuses []enums.OrderStatus) ([]models.Order, error) {
	var rows []models.Order
	err := r.DB(ctx).
		Preload("Items").
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListAssignedToDriver(ctx context.Context, driverID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error) {
	var rows []models.Order
	err := r.DB(ctx).
		Preload("Items").
		Where("delivered_by = ? AND status IN ?", driverID, statuses).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
