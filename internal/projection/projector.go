package projection

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/example/device-portal/internal/catalog"
	"github.com/example/device-portal/internal/domain/cart"
	"github.com/example/device-portal/internal/domain/device"
	"github.com/example/device-portal/internal/domain/request"
	"github.com/example/device-portal/internal/domain/user"
	"github.com/example/device-portal/internal/infrastructure/store"
	"github.com/example/device-portal/internal/readmodel"
)

type Projector struct {
	readStore store.ReadStoreInterface
}

func NewProjector(readStore store.ReadStoreInterface) *Projector {
	return &Projector{readStore: readStore}
}

func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}

	log.Printf("[Projector] Received event: %s (aggregate: %s)", event.EventType, event.AggregateType)

	switch event.AggregateType {
	case device.AggregateType:
		return p.handleDeviceEvent(event)
	case user.AggregateType:
		return p.handleUserEvent(event)
	case cart.AggregateType:
		return p.handleCartEvent(event)
	case request.AggregateType:
		return p.handleRequestEvent(event)
	}

	return nil
}

func (p *Projector) handleDeviceEvent(event store.Event) error {
	switch event.EventType {
	case device.EventDeviceSynced:
		var e device.DeviceSynced
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set(store.CollectionDevices, e.DeviceID, &readmodel.DeviceReadModel{
			ID:                 e.DeviceID,
			Manufacturer:       e.Manufacturer,
			Model:              e.Model,
			ModelFamily:        catalog.ModelFamily(e.Model),
			Category:           e.Category,
			Grade:              e.Grade,
			Region:             e.Region,
			Storage:            e.Storage,
			UnitPrice:          e.UnitPrice,
			TotalQuantity:      e.TotalQuantity,
			LocationQuantities: e.LocationQuantities,
			SyncedAt:           e.SyncedAt,
		})

	case device.EventDeviceStockAdjusted:
		var e device.DeviceStockAdjusted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(store.CollectionDevices, e.DeviceID, func(current any) any {
			d := current.(*readmodel.DeviceReadModel)
			if d.LocationQuantities == nil {
				d.LocationQuantities = make(map[string]int)
			}
			d.LocationQuantities[e.Location] += e.Delta
			d.TotalQuantity += e.Delta
			return d
		})

	case device.EventDeviceRetired:
		var e device.DeviceRetired
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(store.CollectionDevices, e.DeviceID, func(current any) any {
			d := current.(*readmodel.DeviceReadModel)
			d.Retired = true
			return d
		})
	}

	return nil
}

func (p *Projector) handleUserEvent(event store.Event) error {
	switch event.EventType {
	case user.EventUserRegistered:
		var e user.UserRegistered
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set(store.CollectionUsers, e.UserID, &readmodel.UserReadModel{
			ID:           e.UserID,
			Email:        e.Email,
			PasswordHash: e.PasswordHash,
			Company:      e.Company,
			Role:         e.Role,
			IsActive:     e.IsActive,
			CreatedAt:    e.RegisteredAt,
			UpdatedAt:    e.RegisteredAt,
		})

	case user.EventUserActivated:
		var e user.UserActivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(store.CollectionUsers, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.IsActive = true
			u.UpdatedAt = e.ActivatedAt
			return u
		})

	case user.EventUserDeactivated:
		var e user.UserDeactivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(store.CollectionUsers, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.IsActive = false
			u.UpdatedAt = e.DeactivatedAt
			return u
		})
		// Deactivation kills any live sessions
		if pgStore, ok := p.readStore.(*store.PostgresReadStore); ok {
			pgStore.DeleteSessionsByUserID(e.UserID)
		}

	case user.EventUserPasswordChanged:
		var e user.UserPasswordChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(store.CollectionUsers, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.PasswordHash = e.PasswordHash
			u.UpdatedAt = e.ChangedAt
			return u
		})
	}

	return nil
}

func (p *Projector) handleCartEvent(event store.Event) error {
	switch event.EventType {
	case cart.EventCartItemAdded:
		var e cart.CartItemAdded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}

		if _, ok := p.readStore.Get(store.CollectionCarts, e.CartID); !ok {
			p.readStore.Set(store.CollectionCarts, e.CartID, &readmodel.CartReadModel{
				ID:     e.CartID,
				UserID: e.UserID,
				Items: []readmodel.CartItemReadModel{
					{DeviceID: e.DeviceID, Model: e.Model, Quantity: e.Quantity, UnitPrice: e.UnitPrice},
				},
				Total: e.UnitPrice * e.Quantity,
			})
			return nil
		}

		p.readStore.Update(store.CollectionCarts, e.CartID, func(current any) any {
			c := current.(*readmodel.CartReadModel)
			found := false
			for i, item := range c.Items {
				if item.DeviceID == e.DeviceID {
					c.Items[i].Quantity += e.Quantity
					found = true
					break
				}
			}
			if !found {
				c.Items = append(c.Items, readmodel.CartItemReadModel{
					DeviceID:  e.DeviceID,
					Model:     e.Model,
					Quantity:  e.Quantity,
					UnitPrice: e.UnitPrice,
				})
			}
			c.Total = calculateCartTotal(c.Items)
			return c
		})

	case cart.EventCartItemRemoved:
		var e cart.CartItemRemoved
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(store.CollectionCarts, e.CartID, func(current any) any {
			c := current.(*readmodel.CartReadModel)
			newItems := make([]readmodel.CartItemReadModel, 0)
			for _, item := range c.Items {
				if item.DeviceID != e.DeviceID {
					newItems = append(newItems, item)
				}
			}
			c.Items = newItems
			c.Total = calculateCartTotal(c.Items)
			return c
		})

	case cart.EventCartItemQuantitySet:
		var e cart.CartItemQuantitySet
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(store.CollectionCarts, e.CartID, func(current any) any {
			c := current.(*readmodel.CartReadModel)
			for i, item := range c.Items {
				if item.DeviceID == e.DeviceID {
					c.Items[i].Quantity = e.Quantity
					break
				}
			}
			c.Total = calculateCartTotal(c.Items)
			return c
		})

	case cart.EventCartCleared:
		var e cart.CartCleared
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(store.CollectionCarts, e.CartID, func(current any) any {
			c := current.(*readmodel.CartReadModel)
			c.Items = []readmodel.CartItemReadModel{}
			c.Total = 0
			return c
		})
	}

	return nil
}

func (p *Projector) handleRequestEvent(event store.Event) error {
	switch event.EventType {
	case request.EventRequestSubmitted:
		var e request.RequestSubmitted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		items := make([]readmodel.RequestItemReadModel, len(e.Items))
		for i, item := range e.Items {
			items[i] = readmodel.RequestItemReadModel{
				DeviceID:  item.DeviceID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			}
		}
		p.readStore.Set(store.CollectionRequests, e.RequestID, &readmodel.RequestReadModel{
			ID:        e.RequestID,
			UserID:    e.UserID,
			Company:   e.Company,
			Items:     items,
			Total:     e.Total,
			Status:    string(request.StatusSubmitted),
			CreatedAt: e.SubmittedAt,
			UpdatedAt: e.SubmittedAt,
		})

	case request.EventRequestProcessing:
		var e request.RequestProcessing
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.setRequestStatus(e.RequestID, request.StatusProcessing, e.StartedAt)

	case request.EventRequestCompleted:
		var e request.RequestCompleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.setRequestStatus(e.RequestID, request.StatusCompleted, e.CompletedAt)

	case request.EventRequestCancelled:
		var e request.RequestCancelled
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.setRequestStatus(e.RequestID, request.StatusCancelled, e.CancelledAt)
	}

	return nil
}

func (p *Projector) setRequestStatus(requestID string, status request.Status, at time.Time) {
	p.readStore.Update(store.CollectionRequests, requestID, func(current any) any {
		r := current.(*readmodel.RequestReadModel)
		r.Status = string(status)
		r.UpdatedAt = at
		return r
	})
}

func calculateCartTotal(items []readmodel.CartItemReadModel) int {
	total := 0
	for _, item := range items {
		total += item.UnitPrice * item.Quantity
	}
	return total
}
