package menu

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListFilters narrows the public menu listing.
type ListFilters struct {
	CategoryID  *uuid.UUID
	InStockOnly bool
	Search      string
}

// CreateItemInput is the payload for a new dish.
type CreateItemInput struct {
	CategoryID    *uuid.UUID      `json:"categoryId"`
	Name          string          `json:"name" validate:"required,max=120"`
	Description   string          `json:"description" validate:"max=2000"`
	Price         decimal.Decimal `json:"price" validate:"required"`
	ImageURL      *string         `json:"imageUrl" validate:"omitempty,url"`
	IsTimeLimited bool            `json:"isTimeLimited"`
}

// UpdateItemInput applies only the fields that are set.
type UpdateItemInput struct {
	CategoryID    *uuid.UUID       `json:"categoryId"`
	Name          *string          `json:"name" validate:"omitempty,max=120"`
	Description   *string          `json:"description" validate:"omitempty,max=2000"`
	Price         *decimal.Decimal `json:"price"`
	ImageURL      *string          `json:"imageUrl" validate:"omitempty,url"`
	InStock       *bool            `json:"inStock"`
	IsTimeLimited *bool            `json:"isTimeLimited"`
}

func (u UpdateItemInput) empty() bool {
	return u.CategoryID == nil && u.Name == nil && u.Description == nil && u.Price == nil &&
		u.ImageURL == nil && u.InStock == nil && u.IsTimeLimited == nil
}
