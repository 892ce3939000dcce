package query

import (
	"sort"

	"github.com/example/device-portal/internal/catalog"
	"github.com/example/device-portal/internal/domain/cart"
	"github.com/example/device-portal/internal/infrastructure/store"
	"github.com/example/device-portal/internal/readmodel"
)

type Handler struct {
	readStore store.ReadStoreInterface
}

func NewHandler(readStore store.ReadStoreInterface) *Handler {
	return &Handler{readStore: readStore}
}

// Devices

func (h *Handler) GetDevice(id string) (*readmodel.DeviceReadModel, bool) {
	data, ok := h.readStore.Get(store.CollectionDevices, id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.DeviceReadModel), true
}

// ListDevices returns all orderable devices
func (h *Handler) ListDevices() []*readmodel.DeviceReadModel {
	items := h.readStore.GetAll(store.CollectionDevices)
	devices := make([]*readmodel.DeviceReadModel, 0, len(items))
	for _, item := range items {
		d := item.(*readmodel.DeviceReadModel)
		if d.Retired {
			continue
		}
		devices = append(devices, d)
	}
	return devices
}

// DeviceSnapshot returns the orderable inventory as catalog devices,
// optionally scoped to one category. This is the raw input clients feed
// their own catalog engine.
func (h *Handler) DeviceSnapshot(category string) []catalog.Device {
	models := h.ListDevices()
	devices := make([]catalog.Device, 0, len(models))
	for _, d := range models {
		if category != "" && d.Category != category {
			continue
		}
		devices = append(devices, catalog.Device{
			ID:                 d.ID,
			Manufacturer:       d.Manufacturer,
			Model:              d.Model,
			ModelFamily:        d.ModelFamily,
			Category:           d.Category,
			Grade:              d.Grade,
			Region:             d.Region,
			Storage:            d.Storage,
			UnitPrice:          d.UnitPrice,
			TotalQuantity:      d.TotalQuantity,
			LocationQuantities: d.LocationQuantities,
		})
	}
	return devices
}

// SearchDevices runs a faceted catalog query over the current read models
func (h *Handler) SearchDevices(q catalog.Query) catalog.Result {
	return catalog.Run(h.DeviceSnapshot(""), q)
}

// ListCategories returns the distinct categories of orderable devices, sorted
func (h *Handler) ListCategories() []string {
	seen := make(map[string]struct{})
	for _, d := range h.ListDevices() {
		if d.Category != "" {
			seen[d.Category] = struct{}{}
		}
	}
	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}

// Users

func (h *Handler) GetUser(id string) (*readmodel.UserReadModel, bool) {
	data, ok := h.readStore.Get(store.CollectionUsers, id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.UserReadModel), true
}

// GetUserByEmail retrieves a user by email. Uses the indexed lookup when
// the read store is PostgreSQL-backed, otherwise scans.
func (h *Handler) GetUserByEmail(email string) (*readmodel.UserReadModel, bool) {
	if pgStore, ok := h.readStore.(*store.PostgresReadStore); ok {
		return pgStore.GetUserByEmail(email)
	}
	for _, item := range h.readStore.GetAll(store.CollectionUsers) {
		u := item.(*readmodel.UserReadModel)
		if u.Email == email {
			return u, true
		}
	}
	return nil, false
}

func (h *Handler) ListUsers() []*readmodel.UserReadModel {
	items := h.readStore.GetAll(store.CollectionUsers)
	users := make([]*readmodel.UserReadModel, 0, len(items))
	for _, item := range items {
		users = append(users, item.(*readmodel.UserReadModel))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users
}

// Sessions

func (h *Handler) GetSession(id string) (*readmodel.SessionReadModel, bool) {
	data, ok := h.readStore.Get(store.CollectionSessions, id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.SessionReadModel), true
}

// GetSessionByTokenHash retrieves a session by its refresh token hash
func (h *Handler) GetSessionByTokenHash(tokenHash string) (*readmodel.SessionReadModel, bool) {
	if pgStore, ok := h.readStore.(*store.PostgresReadStore); ok {
		return pgStore.GetSessionByTokenHash(tokenHash)
	}
	for _, item := range h.readStore.GetAll(store.CollectionSessions) {
		s := item.(*readmodel.SessionReadModel)
		if s.RefreshTokenHash == tokenHash {
			return s, true
		}
	}
	return nil, false
}

// Cart

func (h *Handler) GetCart(userID string) *readmodel.CartReadModel {
	cartID := cart.CartID(userID)
	data, ok := h.readStore.Get(store.CollectionCarts, cartID)
	if !ok {
		return &readmodel.CartReadModel{
			ID:     cartID,
			UserID: userID,
			Items:  []readmodel.CartItemReadModel{},
		}
	}
	return data.(*readmodel.CartReadModel)
}

// Requests

func (h *Handler) GetRequest(id string) (*readmodel.RequestReadModel, bool) {
	data, ok := h.readStore.Get(store.CollectionRequests, id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.RequestReadModel), true
}

func (h *Handler) ListRequestsByUser(userID string) []*readmodel.RequestReadModel {
	if pgStore, ok := h.readStore.(*store.PostgresReadStore); ok {
		return pgStore.GetRequestsByUserID(userID)
	}
	requests := make([]*readmodel.RequestReadModel, 0)
	for _, item := range h.readStore.GetAll(store.CollectionRequests) {
		r := item.(*readmodel.RequestReadModel)
		if r.UserID == userID {
			requests = append(requests, r)
		}
	}
	sortRequests(requests)
	return requests
}

// ListAllRequests returns all requests (for admin use)
func (h *Handler) ListAllRequests() []*readmodel.RequestReadModel {
	items := h.readStore.GetAll(store.CollectionRequests)
	requests := make([]*readmodel.RequestReadModel, 0, len(items))
	for _, item := range items {
		requests = append(requests, item.(*readmodel.RequestReadModel))
	}
	sortRequests(requests)
	return requests
}

func sortRequests(requests []*readmodel.RequestReadModel) {
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
}
