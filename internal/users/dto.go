package users

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID       `json:"id"`
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	Name        string          `json:"name"`
	Phone       *string         `json:"phone,omitempty"`
	HomeAddress *string         `json:"homeAddress,omitempty"`
	Role        enums.UserRole  `json:"role"`
	Balance     decimal.Decimal `json:"balance"`
	Warnings    int             `json:"warnings"`
	IsVIP       bool            `json:"isVip"`
	IsActive    bool            `json:"isActive"`
	Salary      decimal.Decimal `json:"salary"`
	LastLoginAt *time.Time      `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username     string
	Email        string
	PasswordHash string
	Name         string
	Phone        *string
	HomeAddress  *string
	Role         enums.UserRole
	Salary       decimal.Decimal
}

// DriverProfile summarises a driver's record for the delivery dashboard.
type DriverProfile struct {
	DriverID        uuid.UUID       `json:"driverId"`
	Name            string          `json:"name"`
	Salary          decimal.Decimal `json:"salary"`
	Warnings        int             `json:"warnings"`
	TotalDeliveries int64           `json:"totalDeliveries"`
	Compliments     int64           `json:"compliments"`
	Complaints      int64           `json:"complaints"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Name:        u.Name,
		Phone:       u.Phone,
		HomeAddress: u.HomeAddress,
		Role:        u.Role,
		Balance:     u.Balance,
		Warnings:    u.Warnings,
		IsVIP:       u.IsVIP,
		IsActive:    u.IsActive,
		Salary:      u.Salary,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.UserRoleCustomer
	}
	return &models.User{
		Username:     strings.TrimSpace(c.Username),
		Email:        strings.ToLower(strings.TrimSpace(c.Email)),
		PasswordHash: c.PasswordHash,
		Name:         strings.TrimSpace(c.Name),
		Phone:        c.Phone,
		HomeAddress:  c.HomeAddress,
		Role:         role,
		Balance:      decimal.Zero,
		Salary:       c.Salary,
		IsActive:     true,
	}
}
