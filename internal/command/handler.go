package command

import (
	"context"
	"errors"

	"github.com/example/device-portal/internal/domain/cart"
	"github.com/example/device-portal/internal/domain/device"
	"github.com/example/device-portal/internal/domain/request"
	"github.com/example/device-portal/internal/domain/user"
	"github.com/example/device-portal/internal/infrastructure/store"
	"github.com/example/device-portal/internal/readmodel"
)

var ErrDeviceUnavailable = errors.New("device is not available for ordering")

type Handler struct {
	deviceSvc  *device.Service
	cartSvc    *cart.Service
	requestSvc *request.Service
	userSvc    *user.Service
	readStore  store.ReadStoreInterface
}

func NewHandler(
	deviceSvc *device.Service,
	cartSvc *cart.Service,
	requestSvc *request.Service,
	userSvc *user.Service,
	readStore store.ReadStoreInterface,
) *Handler {
	return &Handler{
		deviceSvc:  deviceSvc,
		cartSvc:    cartSvc,
		requestSvc: requestSvc,
		userSvc:    userSvc,
		readStore:  readStore,
	}
}

// SyncDevice records a device state from the upstream feed (async projection
// updates the read store via Kafka)
func (h *Handler) SyncDevice(ctx context.Context, cmd SyncDevice) (*device.Device, error) {
	return h.deviceSvc.Sync(ctx, device.DeviceSynced{
		DeviceID:           cmd.DeviceID,
		Manufacturer:       cmd.Manufacturer,
		Model:              cmd.Model,
		Category:           cmd.Category,
		Grade:              cmd.Grade,
		Region:             cmd.Region,
		Storage:            cmd.Storage,
		UnitPrice:          cmd.UnitPrice,
		TotalQuantity:      cmd.TotalQuantity,
		LocationQuantities: cmd.LocationQuantities,
	})
}

// AdjustDeviceStock changes stock at one location
func (h *Handler) AdjustDeviceStock(ctx context.Context, cmd AdjustDeviceStock) error {
	return h.deviceSvc.AdjustStock(ctx, cmd.DeviceID, cmd.Location, cmd.Delta, cmd.Reason)
}

// RetireDevice withdraws a device from the catalog
func (h *Handler) RetireDevice(ctx context.Context, cmd RetireDevice) error {
	return h.deviceSvc.Retire(ctx, cmd.DeviceID, cmd.Reason)
}

// AddToCart adds a device to the user's cart. Price and model are captured
// from the read store at the moment of adding.
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) (*cart.Cart, error) {
	data, ok := h.readStore.Get(store.CollectionDevices, cmd.DeviceID)
	if !ok {
		return nil, device.ErrDeviceNotFound
	}
	d := data.(*readmodel.DeviceReadModel)
	if d.Retired || d.TotalQuantity <= 0 {
		return nil, ErrDeviceUnavailable
	}

	return h.cartSvc.AddItem(ctx, cmd.UserID, cmd.DeviceID, d.Model, cmd.Quantity, d.UnitPrice)
}

// RemoveFromCart removes a line item from the user's cart
func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) (*cart.Cart, error) {
	return h.cartSvc.RemoveItem(ctx, cmd.UserID, cmd.DeviceID)
}

// SetCartItemQuantity replaces a line item quantity
func (h *Handler) SetCartItemQuantity(ctx context.Context, cmd SetCartItemQuantity) (*cart.Cart, error) {
	return h.cartSvc.SetItemQuantity(ctx, cmd.UserID, cmd.DeviceID, cmd.Quantity)
}

// ClearCart empties the user's cart
func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) error {
	return h.cartSvc.Clear(ctx, cmd.UserID, "cleared by user")
}

// SubmitRequest turns the user's cart into an order request and clears the
// cart
func (h *Handler) SubmitRequest(ctx context.Context, cmd SubmitRequest) (*request.Request, error) {
	c, err := h.cartSvc.Load(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, request.ErrEmptyRequest
	}

	items := make([]request.RequestItem, len(c.Items))
	for i, item := range c.Items {
		items[i] = request.RequestItem{
			DeviceID:  item.DeviceID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	r, err := h.requestSvc.Submit(ctx, cmd.UserID, cmd.Company, items)
	if err != nil {
		return nil, err
	}

	if err := h.cartSvc.Clear(ctx, cmd.UserID, "request submitted"); err != nil {
		return nil, err
	}

	return r, nil
}

// CancelRequest withdraws a request before completion
func (h *Handler) CancelRequest(ctx context.Context, cmd CancelRequest) error {
	return h.requestSvc.Cancel(ctx, cmd.RequestID, cmd.Reason)
}

// StartProcessingRequest marks a request as being worked
func (h *Handler) StartProcessingRequest(ctx context.Context, cmd StartProcessingRequest) error {
	return h.requestSvc.StartProcessing(ctx, cmd.RequestID, cmd.AdminID)
}

// CompleteRequest marks a request as fulfilled
func (h *Handler) CompleteRequest(ctx context.Context, cmd CompleteRequest) error {
	return h.requestSvc.Complete(ctx, cmd.RequestID, cmd.AdminID)
}

// ActivateUser approves a pending buyer account
func (h *Handler) ActivateUser(ctx context.Context, cmd ActivateUser) error {
	return h.userSvc.Activate(ctx, cmd.UserID, cmd.AdminID)
}

// DeactivateUser suspends an account
func (h *Handler) DeactivateUser(ctx context.Context, cmd DeactivateUser) error {
	return h.userSvc.Deactivate(ctx, cmd.UserID, cmd.AdminID)
}
