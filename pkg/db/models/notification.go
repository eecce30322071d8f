package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

// Notification stores in-app messages addressed to a single user.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	Type      enums.NotificationType `gorm:"column:type;type:notification_type;not null" json:"type"`
	Message   string                 `gorm:"column:message;type:text;not null" json:"message"`
	IsRead    bool                   `gorm:"column:is_read;not null" json:"isRead"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	assignID(&n.ID)
	return nil
}
