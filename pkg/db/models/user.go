package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

// User represents every account on the platform: customers and staff alike.
type User struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Username     string          `gorm:"column:username;type:varchar(80);not null;uniqueIndex:ux_users_username" json:"username"`
	Email        string          `gorm:"column:email;type:varchar(120);not null;uniqueIndex:ux_users_email" json:"email"`
	PasswordHash string          `gorm:"column:password_hash;not null" json:"-"`
	Name         string          `gorm:"column:name;type:varchar(120);not null" json:"name"`
	Phone        *string         `gorm:"column:phone;type:varchar(20)" json:"phone"`
	HomeAddress  *string         `gorm:"column:home_address;type:text" json:"homeAddress"`
	Role         enums.UserRole  `gorm:"column:role;type:user_role;not null" json:"role"`
	Balance      decimal.Decimal `gorm:"column:balance;type:numeric(12,2);not null" json:"balance"`
	Warnings     int             `gorm:"column:warnings;not null" json:"warnings"`
	IsVIP        bool            `gorm:"column:is_vip;not null" json:"isVip"`
	IsActive     bool            `gorm:"column:is_active;not null" json:"isActive"`
	Salary       decimal.Decimal `gorm:"column:salary;type:numeric(12,2);not null" json:"salary"`
	LastLoginAt  *time.Time      `gorm:"column:last_login_at" json:"lastLoginAt"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// Blacklist records deregistered customers so they cannot sign up again.
type Blacklist struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	Name      string     `gorm:"column:name;not null" json:"name"`
	Email     string     `gorm:"column:email;not null;index" json:"email"`
	Reason    string     `gorm:"column:reason;type:text;not null" json:"reason"`
	CreatedBy *uuid.UUID `gorm:"column:created_by;type:uuid" json:"createdBy"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (Blacklist) TableName() string { return "blacklist" }

func (b *Blacklist) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}
