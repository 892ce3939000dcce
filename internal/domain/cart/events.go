package cart

import "time"

const (
	EventCartItemAdded       = "CartItemAdded"
	EventCartItemRemoved     = "CartItemRemoved"
	EventCartItemQuantitySet = "CartItemQuantitySet"
	EventCartCleared         = "CartCleared"
)

// CartItemAdded is emitted when a device is added to a buyer's cart
type CartItemAdded struct {
	CartID    string    `json:"cart_id"`
	UserID    string    `json:"user_id"`
	DeviceID  string    `json:"device_id"`
	Model     string    `json:"model"`
	Quantity  int       `json:"quantity"`
	UnitPrice int       `json:"unit_price"`
	AddedAt   time.Time `json:"added_at"`
}

// CartItemRemoved is emitted when a line item is removed
type CartItemRemoved struct {
	CartID    string    `json:"cart_id"`
	DeviceID  string    `json:"device_id"`
	RemovedAt time.Time `json:"removed_at"`
}

// CartItemQuantitySet is emitted when a line item quantity is changed
type CartItemQuantitySet struct {
	CartID   string    `json:"cart_id"`
	DeviceID string    `json:"device_id"`
	Quantity int       `json:"quantity"`
	SetAt    time.Time `json:"set_at"`
}

// CartCleared is emitted when the cart is emptied, typically after a
// request submission
type CartCleared struct {
	CartID    string    `json:"cart_id"`
	Reason    string    `json:"reason"`
	ClearedAt time.Time `json:"cleared_at"`
}
