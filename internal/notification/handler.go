package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/device-portal/internal/domain/request"
	"github.com/example/device-portal/internal/domain/user"
	"github.com/example/device-portal/internal/email"
	"github.com/example/device-portal/internal/infrastructure/store"
	"github.com/example/device-portal/internal/readmodel"
)

// Sender is the slice of the email service the notifier needs
type Sender interface {
	SendRequestConfirmation(to, requestID string, total int, items []email.RequestItem) error
	SendAccountApproved(to, company string) error
}

// Handler turns domain events into outbound email
type Handler struct {
	sender    Sender
	readStore store.ReadStoreInterface
}

// NewHandler creates a new notification handler
func NewHandler(sender Sender, readStore store.ReadStoreInterface) *Handler {
	return &Handler{
		sender:    sender,
		readStore: readStore,
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	switch event.EventType {
	case request.EventRequestSubmitted:
		return h.handleRequestSubmitted(event)
	case user.EventUserActivated:
		return h.handleUserActivated(event)
	}

	return nil
}

func (h *Handler) handleRequestSubmitted(event store.Event) error {
	var e request.RequestSubmitted
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal RequestSubmitted event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing RequestSubmitted event for request %s, user %s", e.RequestID, e.UserID)

	userModel, ok := h.lookupUser(e.UserID)
	if !ok {
		return nil
	}

	emailItems := make([]email.RequestItem, len(e.Items))
	for i, item := range e.Items {
		// Try to resolve the model name for the email
		model := item.DeviceID
		if deviceData, exists := h.readStore.Get(store.CollectionDevices, item.DeviceID); exists {
			if device, ok := deviceData.(*readmodel.DeviceReadModel); ok {
				model = device.Model
			}
		}

		emailItems[i] = email.RequestItem{
			DeviceID:  item.DeviceID,
			Model:     model,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	if err := h.sender.SendRequestConfirmation(userModel.Email, e.RequestID, e.Total, emailItems); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", userModel.Email, err)
		return err
	}

	log.Printf("[Notifier] Request confirmation sent to %s for request %s", userModel.Email, e.RequestID)
	return nil
}

func (h *Handler) handleUserActivated(event store.Event) error {
	var e user.UserActivated
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal UserActivated event: %v", err)
		return err
	}

	userModel, ok := h.lookupUser(e.UserID)
	if !ok {
		return nil
	}

	if err := h.sender.SendAccountApproved(userModel.Email, userModel.Company); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", userModel.Email, err)
		return err
	}

	log.Printf("[Notifier] Approval notice sent to %s", userModel.Email)
	return nil
}

func (h *Handler) lookupUser(userID string) (*readmodel.UserReadModel, bool) {
	userData, exists := h.readStore.Get(store.CollectionUsers, userID)
	if !exists {
		log.Printf("[Notifier] User not found: %s", userID)
		return nil, false
	}

	userModel, ok := userData.(*readmodel.UserReadModel)
	if !ok {
		log.Printf("[Notifier] Invalid user data type for user: %s", userID)
		return nil, false
	}
	return userModel, true
}
