package management

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/repo"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

// Stats is the manager dashboard summary.
type Stats struct {
	TotalOrders          int64           `json:"totalOrders"`
	TotalRevenue         decimal.Decimal `json:"totalRevenue"`
	TotalUsers           int64           `json:"totalUsers"`
	EmployeeCount        int64           `json:"employeeCount"`
	OpenComplaints       int64           `json:"openComplaints"`
	OrdersWithPendingBid int64           `json:"ordersWithPendingBids"`
	PendingVIPRequests   int64           `json:"pendingVipRequests"`
}

// Repository runs the read-only aggregates behind the dashboard.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) CountOrders(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Order{}).Count(&count).Error
	return count, err
}

// Revenue sums what customers paid for orders that were not cancelled.
func (r *Repository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.DB(ctx).
		Model(&models.Order{}).
		Select("SUM(total_price)").
		Where("status <> ?", enums.OrderStatusCancelled).
		Row().
		Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal.Round(2), nil
}

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

func (r *Repository) CountOrdersWithPendingBids(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.DeliveryBid{}).
		Where("status = ?", enums.BidStatusPending).
		Distinct("order_id").
		Count(&count).Error
	return count, err
}

func (r *Repository) CountPendingVIPRequests(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.VIPRequest{}).
		Where("status = ?", enums.VIPRequestPending).
		Count(&count).Error
	return count, err
}
