package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
)

// Service manages the dish catalogue.
type Service interface {
	List(ctx context.Context, filters ListFilters) ([]models.MenuItem, error)
	Get(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	Create(ctx context.Context, actorID uuid.UUID, input CreateItemInput) (*models.MenuItem, error)
	Update(ctx context.Context, actorID, id uuid.UUID, input UpdateItemInput) (*models.MenuItem, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	Categories(ctx context.Context) ([]models.Category, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("menu repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]models.MenuItem, error) {
	items, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu")
	}
	return items, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	return item, nil
}

func (s *service) Create(ctx context.Context, actorID uuid.UUID, input CreateItemInput) (*models.MenuItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	price, err := normalizePrice(input.Price)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	item := &models.MenuItem{
		CategoryID:    input.CategoryID,
		Name:          name,
		Description:   strings.TrimSpace(input.Description),
		Price:         price,
		ImageURL:      input.ImageURL,
		InStock:       true,
		IsTimeLimited: input.IsTimeLimited,
		CreatedBy:     uuidPtr(actorID),
		UpdatedBy:     uuidPtr(actorID),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create menu item")
	}
	return item, nil
}

func (s *service) Update(ctx context.Context, actorID, id uuid.UUID, input UpdateItemInput) (*models.MenuItem, error) {
	if input.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if actorID != uuid.Nil {
		updates["updated_by"] = actorID
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *input.CategoryID
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		price, err := normalizePrice(*input.Price)
		if err != nil {
			return nil, err
		}
		updates["price"] = price
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.InStock != nil {
		updates["in_stock"] = *input.InStock
	}
	if input.IsTimeLimited != nil {
		updates["is_time_limited"] = *input.IsTimeLimited
	}

	found, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update menu item")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
	}
	return s.Get(ctx, id)
}

// Delete takes the dish off the menu. Past orders keep referencing it.
func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	updates := map[string]any{"in_stock": false, "updated_at": time.Now().UTC()}
	if actorID != uuid.Nil {
		updates["updated_by"] = actorID
	}
	found, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete menu item")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
	}
	return nil
}

func (s *service) Categories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return rows, nil
}

func (s *service) ensureCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	ok, err := s.repo.CategoryExists(ctx, *id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// normalizePrice rounds to cents and requires at least one cent.
func normalizePrice(price decimal.Decimal) (decimal.Decimal, error) {
	rounded := price.Round(2)
	if !rounded.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price must be at least 0.01").
			WithDetails(map[string]any{"price": price.String()})
	}
	return rounded, nil
}
