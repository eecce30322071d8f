package ratings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/repo"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
)

// Repository stores per-dish reviews.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

func (r *Repository) CreateReviews(ctx context.Context, rows []models.Review) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&rows).Error
}

// DishScore is the aggregate rating of a menu item.
type DishScore struct {
	MenuItemID uuid.UUID `json:"dishId"`
	Average    float64   `json:"average"`
	Count      int64     `json:"count"`
}

func (r *Repository) ScoreForDish(ctx context.Context, menuItemID uuid.UUID) (DishScore, error) {
	score := DishScore{MenuItemID: menuItemID}
	err := r.DB(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("menu_item_id = ?", menuItemID).
		Row().
		Scan(&score.Average, &score.Count)
	return score, err
}
