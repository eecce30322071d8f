package bids

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

// Repository persists delivery bids.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, bid *models.DeliveryBid) (*models.DeliveryBid, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryBid, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.DeliveryBid, error)
	ListPendingByOrder(ctx context.Context, orderID uuid.UUID) ([]models.DeliveryBid, error)
	ListByOrders(ctx context.Context, orderIDs []uuid.UUID, status enums.BidStatus) ([]models.DeliveryBid, error)
	ListPendingOnUnassigned(ctx context.Context) ([]models.DeliveryBid, error)
	SetStatus(ctx context.Context, id uuid.UUID, from []enums.BidStatus, to enums.BidStatus, justification *string) (bool, error)
	RejectSiblings(ctx context.Context, orderID, keepID uuid.UUID) ([]models.DeliveryBid, error)
	RejectOrphanedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

// Upsert inserts the bid or, when the driver already bid on the order,
// replaces the amount and reopens it. A re-bid counts as a new submission for
// tie-breaking, so created_at moves too. The stored row is returned.
func (r *repository) Upsert(ctx context.Context, bid *models.DeliveryBid) (*models.DeliveryBid, error) {
	now := time.Now().UTC()
	err := r.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}, {Name: "driver_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"amount":        bid.Amount,
			"status":        enums.BidStatusPending,
			"justification": nil,
			"created_at":    now,
			"updated_at":    now,
		}),
	}).Create(bid).Error
	if err != nil {
		return nil, err
	}

	var stored models.DeliveryBid
	err = r.DB(ctx).
		Where("order_id = ? AND driver_id = ?", bid.OrderID, bid.DriverID).
		First(&stored).Error
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryBid, error) {
	var bid models.DeliveryBid
	if err := r.DB(ctx).First(&bid, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.DeliveryBid, error) {
	var bid models.DeliveryBid
	err := r.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&bid, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// ListPendingByOrder returns pending bids cheapest first, earliest first on ties.
func (r *repository) ListPendingByOrder(ctx context.Context, orderID uuid.UUID) ([]models.DeliveryBid, error) {
	var rows []models.DeliveryBid
	err := r.DB(ctx).
		Where("order_id = ? AND status = ?", orderID, enums.BidStatusPending).
		Order("amount ASC").
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByOrders(ctx context.Context, orderIDs []uuid.UUID, status enums.BidStatus) ([]models.DeliveryBid, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var rows []models.DeliveryBid
	err := r.DB(ctx).
		Where("order_id IN ? AND status = ?", orderIDs, status).
		Order("amount ASC").
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListPendingOnUnassigned(ctx context.Context) ([]models.DeliveryBid, error) {
	var rows []models.DeliveryBid
	err := r.DB(ctx).
		Joins("JOIN orders ON orders.id = delivery_bids.order_id").
		Where("delivery_bids.status = ?", enums.BidStatusPending).
		Where("orders.status = ? AND orders.delivered_by IS NULL", enums.OrderStatusReadyForDelivery).
		Order("delivery_bids.order_id ASC").
		Order("delivery_bids.amount ASC").
		Order("delivery_bids.created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, from []enums.BidStatus, to enums.BidStatus, justification *string) (bool, error) {
	updates := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	if justification != nil {
		updates["justification"] = *justification
	}
	result := r.DB(ctx).
		Model(&models.DeliveryBid{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RejectSiblings rejects every other pending bid on the order and returns them.
func (r *repository) RejectSiblings(ctx context.Context, orderID, keepID uuid.UUID) ([]models.DeliveryBid, error) {
	var siblings []models.DeliveryBid
	err := r.DB(ctx).
		Where("order_id = ? AND id <> ? AND status = ?", orderID, keepID, enums.BidStatusPending).
		Find(&siblings).Error
	if err != nil || len(siblings) == 0 {
		return siblings, err
	}

	ids := make([]uuid.UUID, 0, len(siblings))
	for _, bid := range siblings {
		ids = append(ids, bid.ID)
	}
	err = r.DB(ctx).
		Model(&models.DeliveryBid{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"status": enums.BidStatusRejected, "updated_at": time.Now().UTC()}).Error
	return siblings, err
}

// RejectOrphanedBefore closes pending bids untouched since cutoff whose order
// no longer accepts bids.
func (r *repository) RejectOrphanedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	biddable := r.DB(ctx).
		Model(&models.Order{}).
		Select("id").
		Where("status = ? AND delivered_by IS NULL", enums.OrderStatusReadyForDelivery)
	result := r.DB(ctx).
		Model(&models.DeliveryBid{}).
		Where("status = ? AND updated_at < ?", enums.BidStatusPending, cutoff).
		Where("order_id NOT IN (?)", biddable).
		Updates(map[string]any{"status": enums.BidStatusRejected, "updated_at": time.Now().UTC()})
	return result.RowsAffected, result.Error
}
