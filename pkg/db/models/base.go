package models

import "github.com/google/uuid"

// assignID fills an unset primary key so rows carry application generated ids
// on every driver, including sqlite where gen_random_uuid() does not exist.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model in dependency order.
func All() []any {
	return []any{
		&User{},
		&Blacklist{},
		&Category{},
		&MenuItem{},
		&Order{},
		&OrderItem{},
		&DeliveryBid{},
		&Payment{},
		&Feedback{},
		&Review{},
		&Notification{},
		&RestaurantTable{},
		&Reservation{},
		&VIPRequest{},
		&KnowledgeEntry{},
		&ChatMessage{},
		&ChatRating{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
