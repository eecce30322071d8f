package menu

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/repo"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
)

// Repository persists dishes and categories.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

func (r *Repository) List(ctx context.Context, filters ListFilters) ([]models.MenuItem, error) {
	query := r.DB(ctx).Model(&models.MenuItem{})
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.InStockOnly {
		query = query.Where("in_stock = ?", true)
	}
	if term := strings.TrimSpace(filters.Search); term != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	var items []models.MenuItem
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.DB(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByIDs loads dishes keyed by id; missing ids are simply absent.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.MenuItem, error) {
	out := make(map[uuid.UUID]models.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.MenuItem
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, item *models.MenuItem) error {
	return r.DB(ctx).Create(item).Error
}

// Update applies updates and reports whether the dish exists.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	result := r.DB(ctx).Model(&models.MenuItem{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.DB(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.Exists(ctx, &models.Category{}, "id = ?", id)
}
