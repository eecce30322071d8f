package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

// KnowledgeEntry is a curated question and answer the chat assistant serves
// before falling back to the language model.
type KnowledgeEntry struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Question     string     `gorm:"column:question;type:text;not null" json:"question"`
	Answer       string     `gorm:"column:answer;type:text;not null" json:"answer"`
	Category     *string    `gorm:"column:category;type:varchar(50)" json:"category"`
	CreatedBy    *uuid.UUID `gorm:"column:created_by;type:uuid" json:"createdBy"`
	IsApproved   bool       `gorm:"column:is_approved;not null" json:"isApproved"`
	IsActive     bool       `gorm:"column:is_active;not null" json:"isActive"`
	AvgRating    float64    `gorm:"column:avg_rating;type:double precision;not null" json:"avgRating"`
	TotalRatings int        `gorm:"column:total_ratings;not null" json:"totalRatings"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (KnowledgeEntry) TableName() string { return "knowledge_base" }

func (k *KnowledgeEntry) BeforeCreate(*gorm.DB) error {
	assignID(&k.ID)
	return nil
}

// ChatMessage stores one question and the answer that was served.
type ChatMessage struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID           *uuid.UUID       `gorm:"column:user_id;type:uuid;index" json:"userId"`
	SessionID        string           `gorm:"column:session_id;type:varchar(100);not null" json:"sessionId"`
	Message          string           `gorm:"column:message;type:text;not null" json:"message"`
	Response         string           `gorm:"column:response;type:text;not null" json:"response"`
	Source           enums.ChatSource `gorm:"column:source;type:chat_source;not null" json:"source"`
	KnowledgeEntryID *uuid.UUID       `gorm:"column:kb_id;type:uuid" json:"knowledgeEntryId"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (c *ChatMessage) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// ChatRating is a user's score for a chat answer. A zero score flags the
// answer for manager review.
type ChatRating struct {
	ID           uuid.UUID                `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ChatID       uuid.UUID                `gorm:"column:chat_id;type:uuid;not null;index" json:"chatId"`
	UserID       *uuid.UUID               `gorm:"column:user_id;type:uuid" json:"userId"`
	Rating       int                      `gorm:"column:rating;not null" json:"rating"`
	Feedback     *string                  `gorm:"column:feedback;type:text" json:"feedback"`
	IsFlagged    bool                     `gorm:"column:is_flagged;not null;index" json:"isFlagged"`
	ReviewStatus enums.RatingReviewStatus `gorm:"column:review_status;type:rating_review_status;not null" json:"reviewStatus"`
	ReviewedBy   *uuid.UUID               `gorm:"column:reviewed_by;type:uuid" json:"reviewedBy"`
	ReviewedAt   *time.Time               `gorm:"column:reviewed_at" json:"reviewedAt"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (c *ChatRating) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
