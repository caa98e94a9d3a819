package models

import "time"

type CartEventType string

const (
	CartItemAdded   CartEventType = "cart.item_added"
	CartItemUpdated CartEventType = "cart.item_updated"
	CartItemRemoved CartEventType = "cart.item_removed"
	CartCleared     CartEventType = "cart.cleared"
)

type CartEvent struct {
	Type       CartEventType `json:"type"`
	UserID     int64         `json:"user_id"`
	ProductID  int64         `json:"product_id,omitempty"`
	Quantity   int           `json:"quantity"`
	OccurredAt time.Time     `json:"occurred_at"`
}
