package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/example/device-portal/internal/domain/aggregate"
	"github.com/example/device-portal/internal/infrastructure/store"
)

const AggregateType = "Cart"

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("item not in cart")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrEmptyDeviceID   = errors.New("device id is required")
)

// CartID derives the cart aggregate ID for a user. One cart per buyer.
func CartID(userID string) string {
	return "cart-" + userID
}

// Item is a single line in a cart
type Item struct {
	DeviceID  string `json:"device_id"`
	Model     string `json:"model"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
}

// Cart represents a buyer's cart aggregate
type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// Aggregate interface implementation
func (c *Cart) GetID() string    { return c.ID }
func (c *Cart) GetVersion() int  { return c.Version }
func (c *Cart) SetVersion(v int) { c.Version = v }

// Total returns the cart total in the catalog's minor currency unit
func (c *Cart) Total() int {
	total := 0
	for _, item := range c.Items {
		total += item.UnitPrice * item.Quantity
	}
	return total
}

func (c *Cart) findItem(deviceID string) int {
	for i, item := range c.Items {
		if item.DeviceID == deviceID {
			return i
		}
	}
	return -1
}

// ApplyEvent applies a single event to the cart state (implements aggregate.Aggregate)
func (c *Cart) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventCartItemAdded:
		var data CartItemAdded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.ID = data.CartID
		c.UserID = data.UserID
		if i := c.findItem(data.DeviceID); i >= 0 {
			c.Items[i].Quantity += data.Quantity
		} else {
			c.Items = append(c.Items, Item{
				DeviceID:  data.DeviceID,
				Model:     data.Model,
				Quantity:  data.Quantity,
				UnitPrice: data.UnitPrice,
			})
		}
		c.UpdatedAt = data.AddedAt
	case EventCartItemRemoved:
		var data CartItemRemoved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if i := c.findItem(data.DeviceID); i >= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		}
		c.UpdatedAt = data.RemovedAt
	case EventCartItemQuantitySet:
		var data CartItemQuantitySet
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if i := c.findItem(data.DeviceID); i >= 0 {
			c.Items[i].Quantity = data.Quantity
		}
		c.UpdatedAt = data.SetAt
	case EventCartCleared:
		var data CartCleared
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.Items = nil
		c.UpdatedAt = data.ClearedAt
	}
	c.Version = event.Version
	return nil
}

// Service handles cart domain operations
type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Load rebuilds a user's cart. A user who never added anything gets an
// empty cart, not an error.
func (s *Service) Load(ctx context.Context, userID string) (*Cart, error) {
	cartID := CartID(userID)
	c, found, err := aggregate.LoadAggregate(ctx, s.eventStore, cartID, func() *Cart {
		return &Cart{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return &Cart{ID: cartID, UserID: userID}, nil
	}
	return c, nil
}

// AddItem adds a device to the cart, merging quantity with an existing line
func (s *Service) AddItem(ctx context.Context, userID, deviceID, model string, quantity, unitPrice int) (*Cart, error) {
	if deviceID == "" {
		return nil, ErrEmptyDeviceID
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	cartID := CartID(userID)
	event := CartItemAdded{
		CartID:    cartID,
		UserID:    userID,
		DeviceID:  deviceID,
		Model:     model,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		AddedAt:   time.Now(),
	}

	if _, err := s.eventStore.Append(ctx, cartID, AggregateType, EventCartItemAdded, event); err != nil {
		return nil, err
	}

	return s.reload(ctx, userID)
}

// RemoveItem drops a line item from the cart
func (s *Service) RemoveItem(ctx context.Context, userID, deviceID string) (*Cart, error) {
	c, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.findItem(deviceID) < 0 {
		return nil, ErrItemNotFound
	}

	event := CartItemRemoved{
		CartID:    c.ID,
		DeviceID:  deviceID,
		RemovedAt: time.Now(),
	}

	if _, err := s.eventStore.Append(ctx, c.ID, AggregateType, EventCartItemRemoved, event); err != nil {
		return nil, err
	}

	return s.reload(ctx, userID)
}

// SetItemQuantity replaces the quantity of a line item
func (s *Service) SetItemQuantity(ctx context.Context, userID, deviceID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	c, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.findItem(deviceID) < 0 {
		return nil, ErrItemNotFound
	}

	event := CartItemQuantitySet{
		CartID:   c.ID,
		DeviceID: deviceID,
		Quantity: quantity,
		SetAt:    time.Now(),
	}

	if _, err := s.eventStore.Append(ctx, c.ID, AggregateType, EventCartItemQuantitySet, event); err != nil {
		return nil, err
	}

	return s.reload(ctx, userID)
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context, userID, reason string) error {
	c, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	if len(c.Items) == 0 {
		return nil
	}

	event := CartCleared{
		CartID:    c.ID,
		Reason:    reason,
		ClearedAt: time.Now(),
	}

	_, err = s.eventStore.Append(ctx, c.ID, AggregateType, EventCartCleared, event)
	return err
}

func (s *Service) reload(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, c, AggregateType); err != nil {
		log.Printf("[Cart] Failed to create snapshot for cart %s: %v", c.ID, err)
	}

	return c, nil
}
