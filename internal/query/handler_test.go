package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/device-portal/internal/catalog"
	"github.com/example/device-portal/internal/infrastructure/store"
	"github.com/example/device-portal/internal/infrastructure/store/mocks"
	"github.com/example/device-portal/internal/readmodel"
)

func seedDevices(rs *mocks.MockReadStore) {
	devices := []*readmodel.DeviceReadModel{
		{
			ID: "dev-001", Manufacturer: "Samsung", Model: "Galaxy S22 128GB",
			ModelFamily: "Galaxy S22", Category: "smartphone", Grade: "A",
			Region: "EU", Storage: "128GB", UnitPrice: 42000, TotalQuantity: 30,
		},
		{
			ID: "dev-002", Manufacturer: "Samsung", Model: "Galaxy S22 256GB",
			ModelFamily: "Galaxy S22", Category: "smartphone", Grade: "B",
			Region: "US", Storage: "256GB", UnitPrice: 45000, TotalQuantity: 12,
		},
		{
			ID: "dev-003", Manufacturer: "Apple", Model: "iPad Air 64GB",
			ModelFamily: "iPad Air", Category: "tablet", Grade: "A",
			Region: "EU", Storage: "64GB", UnitPrice: 38000, TotalQuantity: 5,
		},
		{
			ID: "dev-004", Manufacturer: "Apple", Model: "iPhone 13 128GB",
			ModelFamily: "iPhone 13", Category: "smartphone", Grade: "A",
			Region: "EU", Storage: "128GB", UnitPrice: 51000, TotalQuantity: 0,
			Retired: true,
		},
	}
	for _, d := range devices {
		rs.Set(store.CollectionDevices, d.ID, d)
	}
}

func TestGetDevice(t *testing.T) {
	readStore := mocks.NewMockReadStore()
	seedDevices(readStore)
	handler := NewHandler(readStore)

	device, ok := handler.GetDevice("dev-001")
	require.True(t, ok)
	assert.Equal(t, "Galaxy S22 128GB", device.Model)

	_, ok = handler.GetDevice("dev-999")
	assert.False(t, ok)
}

func TestListDevicesExcludesRetired(t *testing.T) {
	readStore := mocks.NewMockReadStore()
	seedDevices(readStore)
	handler := NewHandler(readStore)

	devices := handler.ListDevices()
	assert.Len(t, devices, 3)
	for _, d := range devices {
		assert.NotEqual(t, "dev-004", d.ID)
	}
}

func TestSearchDevices(t *testing.T) {
	readStore := mocks.NewMockReadStore()
	seedDevices(readStore)
	handler := NewHandler(readStore)

	q := catalog.NewQuery("smartphone")
	result := handler.SearchDevices(q)

	// Retired dev-004 never reaches the engine
	assert.Equal(t, 2, result.Total)

	manufacturers := result.Facets[catalog.FieldManufacturer]
	require.Len(t, manufacturers, 1)
	assert.Equal(t, "Samsung", manufacturers[0].Value)
}

func TestSearchDevicesWithSelection(t *testing.T) {
	readStore := mocks.NewMockReadStore()
	seedDevices(readStore)
	handler := NewHandler(readStore)

	q := catalog.NewQuery("smartphone").Toggle(catalog.FieldStorage, "128GB")
	result := handler.SearchDevices(q)

	require.Equal(t, 1, result.Total)
	assert.Equal(t, "dev-001", result.Items[0].ID)
}

func TestListCategories(t *testing.T) {
	readStore := mocks.NewMockReadStore()
	seedDevices(readStore)
	handler := NewHandler(readStore)

	assert.Equal(t, []string{"smartphone", "tablet"}, handler.ListCategories())
}

func TestGetUserByEmail(t *testing.T) {
	readStore := mocks.NewMockReadStore()
	readStore.Set(store.CollectionUsers, "user-1", &readmodel.UserReadModel{
		ID:    "user-1",
		Email: "buyer@acme.example",
		Role:  "buyer",
	})
	handler := NewHandler(readStore)

	user, ok := handler.GetUserByEmail("buyer@acme.example")
	require.True(t, ok)
	assert.Equal(t, "user-1", user.ID)

	_, ok = handler.GetUserByEmail("nobody@acme.example")
	assert.False(t, ok)
}

func TestListUsersSortedByCreation(t *testing.T) {
	readStore := mocks.NewMockReadStore()
	now := time.Now()
	readStore.Set(store.CollectionUsers, "user-old", &readmodel.UserReadModel{
		ID: "user-old", CreatedAt: now.Add(-time.Hour),
	})
	readStore.Set(store.CollectionUsers, "user-new", &readmodel.UserReadModel{
		ID: "user-new", CreatedAt: now,
	})
	handler := NewHandler(readStore)

	users := handler.ListUsers()
	require.Len(t, users, 2)
	assert.Equal(t, "user-new", users[0].ID)
}

func TestGetSessionByTokenHash(t *testing.T) {
	readStore := mocks.NewMockReadStore()
	readStore.Set(store.CollectionSessions, "sess-1", &readmodel.SessionReadModel{
		ID:               "sess-1",
		UserID:           "user-1",
		RefreshTokenHash: "hash-abc",
	})
	handler := NewHandler(readStore)

	session, ok := handler.GetSessionByTokenHash("hash-abc")
	require.True(t, ok)
	assert.Equal(t, "user-1", session.UserID)

	_, ok = handler.GetSessionByTokenHash("hash-xyz")
	assert.False(t, ok)
}

func TestGetCartReturnsEmptyWhenMissing(t *testing.T) {
	readStore := mocks.NewMockReadStore()
	handler := NewHandler(readStore)

	c := handler.GetCart("user-1")
	require.NotNil(t, c)
	assert.Equal(t, "cart-user-1", c.ID)
	assert.Empty(t, c.Items)
	assert.Equal(t, 0, c.Total)
}

func TestListRequestsByUser(t *testing.T) {
	readStore := mocks.NewMockReadStore()
	now := time.Now()
	readStore.Set(store.CollectionRequests, "req-1", &readmodel.RequestReadModel{
		ID: "req-1", UserID: "user-1", Status: "submitted", CreatedAt: now.Add(-time.Minute),
	})
	readStore.Set(store.CollectionRequests, "req-2", &readmodel.RequestReadModel{
		ID: "req-2", UserID: "user-2", Status: "submitted", CreatedAt: now,
	})
	readStore.Set(store.CollectionRequests, "req-3", &readmodel.RequestReadModel{
		ID: "req-3", UserID: "user-1", Status: "completed", CreatedAt: now,
	})
	handler := NewHandler(readStore)

	requests := handler.ListRequestsByUser("user-1")
	require.Len(t, requests, 2)
	assert.Equal(t, "req-3", requests[0].ID)
	assert.Equal(t, "req-1", requests[1].ID)

	all := handler.ListAllRequests()
	assert.Len(t, all, 3)
}
