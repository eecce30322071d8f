package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

type VIPRequest struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CustomerID uuid.UUID              `gorm:"column:customer_id;type:uuid;not null;index" json:"customerId"`
	Status     enums.VIPRequestStatus `gorm:"column:status;type:vip_request_status;not null" json:"status"`
	DecidedBy  *uuid.UUID             `gorm:"column:decided_by;type:uuid" json:"decidedBy"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (VIPRequest) TableName() string { return "vip_requests" }

func (v *VIPRequest) BeforeCreate(*gorm.DB) error {
	assignID(&v.ID)
	return nil
}
