package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/repo"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
)

// Repository manages wallet balances and payment audit rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	DebitIfSufficient(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error)
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error)
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

// DebitIfSufficient subtracts amount in a single conditional statement. It
// reports false when the row did not qualify, leaving the balance untouched.
func (r *repository) DebitIfSufficient(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	result := r.DB(ctx).
		Model(&models.User{}).
		Where("id = ? AND balance >= ? AND is_active = ?", userID, amount, true).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	result := r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return r.Exists(ctx, &models.User{}, "id = ?", userID)
}

func (r *repository) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var user models.User
	if err := r.DB(ctx).Select("id", "balance").First(&user, "id = ?", userID).Error; err != nil {
		return decimal.Zero, err
	}
	return user.Balance, nil
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.DB(ctx).Create(payment).Error
}

func (r *repository) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
