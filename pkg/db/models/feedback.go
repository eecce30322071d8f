package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

// Feedback is a complaint or compliment filed by one user about another.
type Feedback struct {
	ID           uuid.UUID                `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	FromUserID   uuid.UUID                `gorm:"column:from_user_id;type:uuid;not null;index" json:"fromUserId"`
	TargetUserID uuid.UUID                `gorm:"column:target_user_id;type:uuid;not null;index" json:"targetUserId"`
	TargetKind   enums.FeedbackTargetKind `gorm:"column:target_kind;type:feedback_target;not null" json:"targetKind"`
	Type         enums.FeedbackType       `gorm:"column:type;type:feedback_type;not null" json:"type"`
	Status       enums.FeedbackStatus     `gorm:"column:status;type:feedback_status;not null;index" json:"status"`
	Message      string                   `gorm:"column:message;type:text;not null" json:"message"`
	OrderID      *uuid.UUID               `gorm:"column:order_id;type:uuid;index" json:"orderId"`
	ReviewedBy   *uuid.UUID               `gorm:"column:reviewed_by;type:uuid" json:"reviewedBy"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time                `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Feedback) TableName() string { return "feedback" }

func (f *Feedback) BeforeCreate(*gorm.DB) error {
	assignID(&f.ID)
	return nil
}
