package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category groups dishes on the menu.
type Category struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"column:name;type:varchar(80);not null;uniqueIndex:ux_categories_name" json:"name"`
	Kind string    `gorm:"column:kind;type:varchar(40);not null" json:"kind"`
}

func (Category) TableName() string { return "categories" }

func (c *Category) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// MenuItem is a dish. Deleting a dish only takes it out of stock.
type MenuItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CategoryID    *uuid.UUID      `gorm:"column:category_id;type:uuid;index" json:"categoryId"`
	Name          string          `gorm:"column:name;type:varchar(120);not null" json:"name"`
	Description   string          `gorm:"column:description;type:text;not null" json:"description"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	ImageURL      *string         `gorm:"column:image_url;type:text" json:"imageUrl"`
	InStock       bool            `gorm:"column:in_stock;not null" json:"inStock"`
	IsTimeLimited bool            `gorm:"column:is_time_limited;not null" json:"isTimeLimited"`
	CreatedBy     *uuid.UUID      `gorm:"column:created_by;type:uuid" json:"createdBy"`
	UpdatedBy     *uuid.UUID      `gorm:"column:updated_by;type:uuid" json:"updatedBy"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (m *MenuItem) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}
