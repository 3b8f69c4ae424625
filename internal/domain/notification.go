package domain

import "time"

// NotificationType grades how urgent an inbox entry is.
type NotificationType string

const (
	NotificationInfo     NotificationType = "info"
	NotificationWarning  NotificationType = "warning"
	NotificationCritical NotificationType = "critical"
)

// NotificationCategory groups inbox entries by their origin.
type NotificationCategory string

const (
	CategoryTask    NotificationCategory = "task"
	CategoryStore   NotificationCategory = "store"
	CategoryProfile NotificationCategory = "profile"
)

// Notification is one entry in a user's inbox, written by the notifier
// service when it consumes an event from the bus.
type Notification struct {
	ID        string               `json:"id"`
	UserID    string               `json:"user_id"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Type      NotificationType     `json:"type"`
	Category  NotificationCategory `json:"category"`
	Read      bool                 `json:"read"`
	CreatedAt time.Time            `json:"created_at"`
}

// StoreItem is a reward purchasable with honor.
type StoreItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Cost        int    `json:"cost"`
	Active      bool   `json:"active"`
}

// Purchase records a store item bought by a user.
type Purchase struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	Cost      int       `json:"cost"`
	Timestamp time.Time `json:"timestamp"`
}
