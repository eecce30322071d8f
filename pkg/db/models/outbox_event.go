package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

// OutboxEvent represents an append-only event emitted via the outbox pattern.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:event_type_enum;not null" json:"eventType"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:aggregate_type_enum;not null" json:"aggregateType"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null" json:"aggregateId"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	PublishedAt   *time.Time                `gorm:"column:published_at" json:"publishedAt"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null" json:"attemptCount"`
	LastError     *string                   `gorm:"column:last_error" json:"lastError"`
}

func (e *OutboxEvent) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}
