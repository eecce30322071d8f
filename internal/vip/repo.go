package vip

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

func (r *Repository) Create(ctx context.Context, req *models.VIPRequest) error {
	return r.DB(ctx).Create(req).Error
}

func (r *Repository) HasPending(ctx context.Context, customerID uuid.UUID) (bool, error) {
	return r.Exists(ctx, &models.VIPRequest{}, "customer_id = ? AND status = ?", customerID, enums.VIPRequestPending)
}

func (r *Repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.VIPRequest, error) {
	var req models.VIPRequest
	err := r.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Decide settles a pending request. False means it was already decided.
func (r *Repository) Decide(ctx context.Context, id uuid.UUID, status enums.VIPRequestStatus, managerID uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Model(&models.VIPRequest{}).
		Where("id = ? AND status = ?", id, enums.VIPRequestPending).
		Updates(map[string]any{
			"status":     status,
			"decided_by": managerID,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected == 1, res.Error
}

// PendingView is a pending request with the facts a manager weighs.
type PendingView struct {
	ID           uuid.UUID       `gorm:"column:id" json:"id"`
	CustomerID   uuid.UUID       `gorm:"column:customer_id" json:"customerId"`
	CustomerName string          `gorm:"column:customer_name" json:"customerName"`
	Email        string          `gorm:"column:email" json:"email"`
	Balance      decimal.Decimal `gorm:"column:balance" json:"balance"`
	Warnings     int             `gorm:"column:warnings" json:"warnings"`
	TotalOrders  int64           `gorm:"column:total_orders" json:"totalOrders"`
	CreatedAt    time.Time       `gorm:"column:created_at" json:"requestedAt"`
}

func (r *Repository) ListPending(ctx context.Context) ([]PendingView, error) {
	var rows []PendingView
	err := r.DB(ctx).
		Table("vip_requests AS vr").
		Select(`vr.id, vr.customer_id, u.name AS customer_name, u.email, u.balance, u.warnings,
			(SELECT COUNT(*) FROM orders o WHERE o.customer_id = vr.customer_id) AS total_orders,
			vr.created_at`).
		Joins("JOIN users AS u ON u.id = vr.customer_id").
		Where("vr.status = ?", enums.VIPRequestPending).
		Order("vr.created_at DESC").
		Scan(&rows).Error
	return rows, err
}
