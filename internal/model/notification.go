package model

import "time"

// Notification is a mailbox entry. A nil UserID marks a broadcast visible to
// every user.
type Notification struct {
	ID          int64     `json:"id" db:"id"`
	UserID      *int64    `json:"user_id,omitempty" db:"user_id"`
	Type        string    `json:"type" db:"type"`
	Icon        string    `json:"icon,omitempty" db:"icon"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	EntityType  string    `json:"entity_type,omitempty" db:"entity_type"`
	EntityID    *int64    `json:"entity_id,omitempty" db:"entity_id"`
	IsRead      bool      `json:"is_read" db:"is_read"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NotificationPayload is the content of a notification before it is
// addressed to recipients.
type NotificationPayload struct {
	Type        string
	Icon        string
	Title       string
	Description string
	EntityType  string
	EntityID    int64
}

// Notification types.
const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
)

// EntityTransfer is the entity type of transfer notifications.
const EntityTransfer = "transfer"
